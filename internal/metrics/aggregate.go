// SPDX-License-Identifier: AGPL-3.0-only

// Package metrics folds normalized posts and insight totals into the
// dashboard MetricsView, synthesizing per-user stable data when nothing
// real is available.
package metrics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/SejalWadi/Meta-Analytics-Pro/internal/seed"
)

const (
	DefaultImpressionsPerReach = 1.5
	DefaultTopPostsLimit       = 10
	HoursPerDay                = 24
)

// CanonicalContentTypes are used when there are no posts to group.
var CanonicalContentTypes = []string{"Photos", "Videos", "Status", "Links"}

type Aggregator struct {
	// ImpressionsPerReach estimates impressions when the platform does not
	// report them.
	ImpressionsPerReach float64
	TopPostsLimit       int
	// Location is used for hour-of-day bucketing.
	Location *time.Location
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		ImpressionsPerReach: DefaultImpressionsPerReach,
		TopPostsLimit:       DefaultTopPostsLimit,
		Location:            time.Local,
	}
}

var defaultAggregator = NewAggregator()

// Aggregate uses the default constants.
func Aggregate(posts []PostRecord, totals *InsightTotals, id Identity) MetricsView {
	return defaultAggregator.Aggregate(posts, totals, id)
}

// Aggregate never fails. An empty post list together with nil or zero totals
// yields a fully synthetic view that is stable for id.
func (a *Aggregator) Aggregate(posts []PostRecord, totals *InsightTotals, id Identity) MetricsView {
	s := seed.Derive(id.ID, id.Name)

	if len(posts) == 0 && !totals.present() {
		return a.synthesize(s)
	}

	clean := make([]PostRecord, len(posts))
	for i, p := range posts {
		clean[i] = p.normalized()
	}

	reach, engagement, impressions := a.totals(clean, totals)

	return MetricsView{
		TotalReach:         reach,
		TotalEngagement:    engagement,
		TotalImpressions:   impressions,
		EngagementRate:     engagementRate(reach, engagement, s),
		FollowerGrowth:     followerGrowth(s),
		TopPosts:           a.topPosts(clean),
		DemographicsData:   synthesizeDemographics(s),
		EngagementByTime:   a.hourly(clean, s),
		ContentPerformance: contentPerformance(clean, s),
	}
}

// totals prefers platform-reported insight totals field by field. A field
// the insights leave at zero falls back to the sum over posts.
func (a *Aggregator) totals(posts []PostRecord, totals *InsightTotals) (reach, engagement, impressions int) {
	for _, p := range posts {
		reach += p.Reach
		engagement += p.Engagement
	}
	if totals.present() {
		reach = firstPositive(totals.Reach, reach)
		engagement = firstPositive(totals.Engagement, engagement)
		impressions = nonNegative(totals.Impressions)
	}
	if impressions == 0 {
		impressions = a.estimateImpressions(reach)
	}
	return reach, engagement, impressions
}

func firstPositive(reported, summed int) int {
	if reported > 0 {
		return reported
	}
	return summed
}

func (a *Aggregator) estimateImpressions(reach int) int {
	ratio := a.ImpressionsPerReach
	if ratio <= 0 {
		ratio = DefaultImpressionsPerReach
	}
	return int(math.Round(float64(reach) * ratio))
}

func engagementRate(reach, engagement int, s seed.Seed) Percent {
	if reach > 0 {
		return Percent(float64(engagement) / float64(reach) * 100)
	}
	return Percent(s.Float("engagement_rate", 1, 8))
}

func followerGrowth(s seed.Seed) float64 {
	return math.Round(s.Float("follower_growth", 0.5, 5)*10) / 10
}

func (a *Aggregator) topPosts(posts []PostRecord) []PostRecord {
	limit := a.TopPostsLimit
	if limit <= 0 {
		limit = DefaultTopPostsLimit
	}

	sorted := make([]PostRecord, len(posts))
	copy(sorted, posts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Engagement > sorted[j].Engagement
	})

	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

// hourly returns the mean engagement per local hour. Hours without posts are
// filled from the seed so the chart has no gaps.
func (a *Aggregator) hourly(posts []PostRecord, s seed.Seed) []HourEngagement {
	loc := a.Location
	if loc == nil {
		loc = time.Local
	}

	var sums, counts [HoursPerDay]int
	for _, p := range posts {
		if p.CreatedAt.IsZero() {
			continue
		}
		h := p.CreatedAt.In(loc).Hour()
		sums[h] += p.Engagement
		counts[h]++
	}

	out := make([]HourEngagement, HoursPerDay)
	for h := 0; h < HoursPerDay; h++ {
		out[h] = HourEngagement{Hour: h}
		if counts[h] > 0 {
			out[h].Engagement = roundDiv(sums[h], counts[h])
			continue
		}
		out[h].Engagement = s.Int(fmt.Sprintf("hour_%d", h), 100, 600)
	}
	return out
}

func contentPerformance(posts []PostRecord, s seed.Seed) []ContentPerformance {
	if len(posts) == 0 {
		return canonicalContentPerformance(s)
	}

	type bucket struct {
		posts, engagement, reach int
	}
	var order []string
	buckets := make(map[string]*bucket)

	for _, p := range posts {
		t := p.Type
		if t == "" {
			t = "post"
		}
		b, ok := buckets[t]
		if !ok {
			b = &bucket{}
			buckets[t] = b
			order = append(order, t)
		}
		b.posts++
		b.engagement += p.Engagement
		b.reach += p.Reach
	}

	out := make([]ContentPerformance, 0, len(order))
	for _, t := range order {
		b := buckets[t]
		out = append(out, ContentPerformance{
			Type:          t,
			Posts:         b.posts,
			AvgEngagement: roundDiv(b.engagement, b.posts),
			AvgReach:      roundDiv(b.reach, b.posts),
		})
	}
	return out
}

func canonicalContentPerformance(s seed.Seed) []ContentPerformance {
	out := make([]ContentPerformance, 0, len(CanonicalContentTypes))
	for _, t := range CanonicalContentTypes {
		out = append(out, ContentPerformance{
			Type:          t,
			Posts:         s.Int("content_"+t+"_posts", 3, 30),
			AvgEngagement: s.Int("content_"+t+"_engagement", 100, 600),
			AvgReach:      s.Int("content_"+t+"_reach", 1500, 6000),
		})
	}
	return out
}

func (p PostRecord) normalized() PostRecord {
	p.Reach = nonNegative(p.Reach)
	p.Likes = nonNegative(p.Likes)
	p.Comments = nonNegative(p.Comments)
	p.Shares = nonNegative(p.Shares)
	p.Reactions = nonNegative(p.Reactions)
	p.Engagement = nonNegative(p.Engagement)
	if p.Engagement == 0 {
		p.Engagement = p.Likes + p.Comments + p.Shares + p.Reactions
	}
	return p
}

func nonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

func roundDiv(sum, n int) int {
	if n == 0 {
		return 0
	}
	return int(math.Round(float64(sum) / float64(n)))
}
