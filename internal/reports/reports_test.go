// SPDX-License-Identifier: AGPL-3.0-only
package reports

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/SejalWadi/Meta-Analytics-Pro/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 12, 15, 12, 0, 0, 0, time.UTC)

func samplePosts() []metrics.PostRecord {
	return []metrics.PostRecord{
		{ID: "a", Content: "first", Platform: metrics.Facebook, Type: "photo", Likes: 8, Comments: 2, Engagement: 10, CreatedAt: now.Add(-2 * time.Hour)},
		{ID: "b", Content: "second, with comma", Platform: metrics.Instagram, Type: "video", Likes: 30, Comments: 10, Engagement: 40, CreatedAt: now.Add(-26 * time.Hour)},
		{ID: "c", Content: "third", Platform: metrics.Facebook, Type: "photo", Likes: 15, Comments: 5, Shares: 1, Engagement: 21, CreatedAt: now.Add(-25 * time.Hour)},
		{ID: "old", Type: "photo", Engagement: 999, CreatedAt: now.AddDate(0, 0, -60)},
		{ID: "undated", Engagement: 3},
	}
}

func sampleView() metrics.MetricsView {
	return metrics.NewAggregator().Aggregate(samplePosts(), nil, metrics.Identity{ID: "1", Name: "Alice"})
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" Overview ")
	require.NoError(t, err)
	assert.Equal(t, Overview, k)

	_, err = ParseKind("weekly-digest")
	assert.ErrorIs(t, err, ErrUnknownReportType)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
		err  error
	}{
		{"csv", CSV, nil},
		{"JSON", JSON, nil},
		{"", CSV, nil},
		{"pdf", "", ErrUnsupportedFormat},
		{"excel", "", ErrUnsupportedFormat},
		{"xml", "", ErrUnsupportedFormat},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildOverview(t *testing.T) {
	view := sampleView()
	r, err := Build(Overview, view, samplePosts(), 30, now)
	require.NoError(t, err)

	assert.Equal(t, "Performance Overview", r.Title)
	assert.Equal(t, 30, r.DateRange)
	require.NotNil(t, r.Summary)
	assert.Equal(t, Summary{TotalLikes: 53, TotalComments: 17, TotalShares: 1, TotalEngagement: 74, TotalPosts: 4, AvgEngagement: 19}, *r.Summary)
	require.Len(t, r.TopPosts, 4)
	assert.Equal(t, "b", r.TopPosts[0].ID)
	require.NotNil(t, r.Totals)
	assert.Equal(t, view.TotalReach, r.Totals.Reach)
	assert.Nil(t, r.Demographics)
}

func TestBuildAudience(t *testing.T) {
	view := sampleView()
	r, err := Build(Audience, view, nil, 0, now)
	require.NoError(t, err)

	require.NotNil(t, r.Demographics)
	assert.Equal(t, view.DemographicsData, *r.Demographics)
	assert.Equal(t, 30, r.DateRange)
}

func TestBuildContent(t *testing.T) {
	r, err := Build(Content, metrics.MetricsView{}, samplePosts(), 30, now)
	require.NoError(t, err)

	assert.Equal(t, []ContentTypeRow{
		{Type: "video", Count: 1, AvgEngagement: 40, TotalLikes: 30, TotalComments: 10},
		{Type: "photo", Count: 2, AvgEngagement: 16, TotalLikes: 23, TotalComments: 7},
		{Type: "post", Count: 1, AvgEngagement: 3},
	}, r.ContentTypes)
}

func TestBuildEngagement(t *testing.T) {
	r, err := Build(Engagement, metrics.MetricsView{}, samplePosts(), 30, now)
	require.NoError(t, err)

	assert.Equal(t, []DailyRow{
		{Date: "2024-12-15", Engagement: 10, Posts: 1},
		{Date: "2024-12-14", Engagement: 61, Posts: 2},
	}, r.DailyEngagement)
}

func TestBuildUnknownKind(t *testing.T) {
	_, err := Build("digest", metrics.MetricsView{}, nil, 30, now)
	assert.ErrorIs(t, err, ErrUnknownReportType)
}

func readCSV(t *testing.T, r Report) [][]string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, r, CSV))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	return records
}

func TestWriteCSV(t *testing.T) {
	overview, err := Build(Overview, sampleView(), samplePosts(), 30, now)
	require.NoError(t, err)
	records := readCSV(t, overview)
	assert.Equal(t, []string{"content", "platform", "likes", "comments", "shares", "engagement", "created_at"}, records[0])
	assert.Equal(t, []string{"second, with comma", "instagram", "30", "10", "0", "40", "2024-12-14T10:00:00Z"}, records[1])
	assert.Len(t, records, 5)

	audience, err := Build(Audience, sampleView(), nil, 30, now)
	require.NoError(t, err)
	records = readCSV(t, audience)
	assert.Equal(t, []string{"category", "label", "percentage"}, records[0])
	assert.Equal(t, "age", records[1][0])
	assert.Len(t, records, 1+5+3+5)

	engagement, err := Build(Engagement, metrics.MetricsView{}, nil, 30, now)
	require.NoError(t, err)
	records = readCSV(t, engagement)
	assert.Equal(t, [][]string{{"date", "daily_engagement", "posts_count"}}, records)
}

func TestWriteJSON(t *testing.T) {
	r, err := Build(Content, metrics.MetricsView{}, samplePosts(), 30, now)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, r, JSON))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "Content Analysis", decoded["reportType"])
	assert.Len(t, decoded["contentTypes"], 3)
	assert.NotContains(t, decoded, "summary")
}

func TestWriteUnsupportedFormat(t *testing.T) {
	r, err := Build(Overview, metrics.MetricsView{}, nil, 30, now)
	require.NoError(t, err)

	err = Write(&bytes.Buffer{}, r, "pdf")
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))

	_, err = WriteFile(t.TempDir(), r, "excel")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestWriteFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "outputs")
	r, err := Build(Engagement, metrics.MetricsView{}, samplePosts(), 30, now)
	require.NoError(t, err)

	path, err := WriteFile(dir, r, CSV)
	require.NoError(t, err)

	name := filepath.Base(path)
	assert.True(t, strings.HasPrefix(name, "report_engagement_"+r.ID.String()+"_"))
	assert.True(t, strings.HasSuffix(name, "_20241215_120000.csv"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "date,daily_engagement,posts_count\n"))
}

func TestScheduleNormalize(t *testing.T) {
	s := Schedule{
		Name:       "  Weekly overview ",
		ReportType: "Overview",
		Frequency:  "WEEKLY",
		Recipients: []string{"Jane <jane@example.com>"},
	}
	require.NoError(t, s.Normalize())

	assert.Equal(t, "Weekly overview", s.Name)
	assert.Equal(t, Overview, s.ReportType)
	assert.Equal(t, Weekly, s.Frequency)
	assert.Equal(t, CSV, s.Format)
	assert.Equal(t, []string{"jane@example.com"}, s.Recipients)
	assert.NotNil(t, s.Accounts)
}

func TestScheduleNormalizeErrors(t *testing.T) {
	tests := []struct {
		name string
		s    Schedule
		err  error
	}{
		{"missing name", Schedule{ReportType: Overview, Frequency: Daily}, ErrMissingReportName},
		{"bad kind", Schedule{Name: "x", ReportType: "nope", Frequency: Daily}, ErrUnknownReportType},
		{"bad frequency", Schedule{Name: "x", ReportType: Overview, Frequency: "hourly"}, ErrInvalidFrequency},
		{"pdf", Schedule{Name: "x", ReportType: Overview, Frequency: Daily, Format: "pdf"}, ErrUnsupportedFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.s.Normalize(), tt.err)
		})
	}

	bad := Schedule{Name: "x", ReportType: Overview, Frequency: Daily, Recipients: []string{"not-an-email"}}
	assert.Error(t, bad.Normalize())
}
