// SPDX-License-Identifier: AGPL-3.0-only
package optimization

import (
	"testing"
	"time"

	"github.com/SejalWadi/Meta-Analytics-Pro/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var alice = metrics.Identity{ID: "1", Name: "Alice"}

func utcRecommender() *Recommender {
	return &Recommender{Location: time.UTC}
}

func at(day, hour int) time.Time {
	return time.Date(2024, 12, day, hour, 0, 0, 0, time.UTC)
}

func TestBestTimesFromPosts(t *testing.T) {
	posts := []metrics.PostRecord{
		{ID: "1", Engagement: 100, CreatedAt: at(2, 9)},
		{ID: "2", Engagement: 50, CreatedAt: at(2, 9)},
		{ID: "3", Engagement: 200, CreatedAt: at(2, 14)},
		{ID: "4", Engagement: 10, CreatedAt: at(2, 18)},
		{ID: "5", Engagement: 5, CreatedAt: at(2, 20)},
		{ID: "6", Engagement: 30, CreatedAt: at(3, 10)},
	}

	recs := utcRecommender().Recommend(posts, metrics.MetricsView{}, alice)
	days := recs.BestTimeToPost.Weekdays

	require.Len(t, days, 7)
	assert.Equal(t, "Monday", days[0].Day)
	assert.Equal(t, "Sunday", days[6].Day)
	assert.Equal(t, []int{9, 14, 18}, days[0].Hours)
	assert.Contains(t, days[1].Hours, 10)

	for _, d := range days {
		require.Len(t, d.Hours, 3, d.Day)
		assert.IsIncreasing(t, d.Hours, d.Day)
	}
	for _, d := range days[2:] {
		for _, h := range d.Hours {
			assert.GreaterOrEqual(t, h, 8)
			assert.Less(t, h, 22)
		}
	}
}

func TestBestTimesStablePerUser(t *testing.T) {
	a := utcRecommender().Recommend(nil, metrics.MetricsView{}, alice)
	b := utcRecommender().Recommend(nil, metrics.MetricsView{}, alice)
	c := utcRecommender().Recommend(nil, metrics.MetricsView{}, metrics.Identity{ID: "2", Name: "Bob"})

	assert.Equal(t, a.BestTimeToPost, b.BestTimeToPost)
	assert.NotEqual(t, a.BestTimeToPost, c.BestTimeToPost)
}

func TestTopUpHoursFillsWhenSeedCollides(t *testing.T) {
	hours := topUpHours([]int{8, 9}, 0, "Monday")
	assert.Len(t, hours, 3)
	assert.Equal(t, []int{8, 9}, hours[:2])
}

func TestContentRecommendationsRules(t *testing.T) {
	posts := []metrics.PostRecord{
		{ID: "1", Content: "launch day #news", CreatedAt: at(2, 9)},
		{ID: "2", Content: "no tags", CreatedAt: at(3, 9)},
		{ID: "3", Content: "#a #b", CreatedAt: at(4, 9)},
	}
	view := metrics.MetricsView{ContentPerformance: []metrics.ContentPerformance{
		{Type: "photo", AvgEngagement: 10},
		{Type: "video", AvgEngagement: 20},
	}}

	recs := contentRecommendations(posts, view)

	require.Len(t, recs, 2)
	assert.Equal(t, "Increase Video Content", recs[0].Type)
	assert.Equal(t, "High", recs[0].Impact)
	assert.Equal(t, "Videos have 100% higher engagement than photos", recs[0].Reason)
	assert.Equal(t, "Use More Hashtags", recs[1].Type)
	assert.Contains(t, recs[1].Reason, "1.0 hashtags")
}

func TestContentRecommendationsModestLift(t *testing.T) {
	view := metrics.MetricsView{ContentPerformance: []metrics.ContentPerformance{
		{Type: "Photos", AvgEngagement: 100},
		{Type: "Videos", AvgEngagement: 120},
	}}

	recs := contentRecommendations(nil, view)

	require.Len(t, recs, 1)
	assert.Equal(t, "Medium", recs[0].Impact)
}

func TestContentRecommendationsCadence(t *testing.T) {
	tags := "#one #two #three #four #five"
	posts := []metrics.PostRecord{
		{ID: "1", Content: tags, CreatedAt: at(1, 9)},
		{ID: "2", Content: tags, CreatedAt: at(29, 9)},
	}

	recs := contentRecommendations(posts, metrics.MetricsView{})

	require.Len(t, recs, 1)
	assert.Equal(t, "Post More Consistently", recs[0].Type)
	assert.Contains(t, recs[0].Reason, "0.5 times per week")
}

func TestContentRecommendationsDefaults(t *testing.T) {
	recs := contentRecommendations(nil, metrics.MetricsView{})
	assert.Equal(t, defaultRecommendations, recs)

	recs[0].Type = "changed"
	assert.Equal(t, "Increase Video Content", defaultRecommendations[0].Type)
}

func TestAnalyzeHashtags(t *testing.T) {
	newest := at(20, 12)
	posts := []metrics.PostRecord{
		{ID: "1", Content: "#a #b", Engagement: 100, CreatedAt: newest.AddDate(0, 0, -1)},
		{ID: "2", Content: "#a #c #a", Engagement: 50, CreatedAt: newest},
		{ID: "3", Content: "#d", Engagement: 10, CreatedAt: newest.AddDate(0, 0, -30)},
		{ID: "4", Content: "#e #A", Engagement: 300, CreatedAt: newest.AddDate(0, 0, -20)},
	}

	h := analyzeHashtags(posts)

	assert.Equal(t, []string{"#a", "#e", "#b", "#c", "#d"}, h.Top)
	assert.Equal(t, []string{"#a", "#b", "#c"}, h.Trending)
	assert.Equal(t, []string{"#e"}, h.Underused)
}

func TestAnalyzeHashtagsFallback(t *testing.T) {
	h := analyzeHashtags([]metrics.PostRecord{{ID: "1", Content: "plain"}})

	assert.Equal(t, defaultHashtags, h)
	assert.LessOrEqual(t, len(h.Top), maxTop)
	assert.LessOrEqual(t, len(h.Underused), maxUnderused)
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 0.0, median(nil))
	assert.Equal(t, 2.0, median([]float64{3, 1, 2}))
	assert.Equal(t, 2.5, median([]float64{4, 1, 2, 3}))
}

func TestRecommendSyntheticPosts(t *testing.T) {
	agg := metrics.NewAggregator()
	view := agg.Aggregate(nil, nil, alice)
	posts := metrics.SyntheticPosts(alice, time.Date(2024, 12, 15, 12, 0, 0, 0, time.UTC))

	recs := Recommend(posts, view, alice)

	assert.Len(t, recs.BestTimeToPost.Weekdays, 7)
	assert.NotEmpty(t, recs.ContentRecommendations)
	assert.NotEmpty(t, recs.HashtagAnalysis.Top)
}
