// SPDX-License-Identifier: AGPL-3.0-only

// Package reports turns a metrics view and its posts into downloadable
// overview, audience, content and engagement reports.
package reports

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/SejalWadi/Meta-Analytics-Pro/internal/metrics"
	"github.com/google/uuid"
)

var (
	ErrUnknownReportType = errors.New("unknown report type")
	ErrUnsupportedFormat = errors.New("unsupported report format")
	ErrInvalidFrequency  = errors.New("invalid report frequency")
	ErrMissingReportName = errors.New("report name is required")
)

type Kind string

const (
	Overview   Kind = "overview"
	Audience   Kind = "audience"
	Content    Kind = "content"
	Engagement Kind = "engagement"
)

var titles = map[Kind]string{
	Overview:   "Performance Overview",
	Audience:   "Audience Report",
	Content:    "Content Analysis",
	Engagement: "Engagement Report",
}

func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := titles[k]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownReportType, s)
	}
	return k, nil
}

type Format string

const (
	CSV  Format = "csv"
	JSON Format = "json"
)

// ParseFormat accepts csv and json. pdf and excel are recognised but not
// produced.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case CSV, JSON:
		return f, nil
	case "":
		return CSV, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

func (f Format) ContentType() string {
	if f == JSON {
		return "application/json"
	}
	return "text/csv"
}

type Summary struct {
	TotalLikes      int `json:"totalLikes"`
	TotalComments   int `json:"totalComments"`
	TotalShares     int `json:"totalShares"`
	TotalEngagement int `json:"totalEngagement"`
	TotalPosts      int `json:"totalPosts"`
	AvgEngagement   int `json:"avgEngagement"`
}

type Totals struct {
	Reach          int             `json:"reach"`
	Engagement     int             `json:"engagement"`
	Impressions    int             `json:"impressions"`
	EngagementRate metrics.Percent `json:"engagementRate"`
}

type ContentTypeRow struct {
	Type          string `json:"contentType"`
	Count         int    `json:"count"`
	AvgEngagement int    `json:"avgEngagement"`
	TotalLikes    int    `json:"totalLikes"`
	TotalComments int    `json:"totalComments"`
}

type DailyRow struct {
	Date       string `json:"date"`
	Engagement int    `json:"dailyEngagement"`
	Posts      int    `json:"postsCount"`
}

type Report struct {
	ID          uuid.UUID `json:"id"`
	Kind        Kind      `json:"kind"`
	Title       string    `json:"reportType"`
	DateRange   int       `json:"dateRange"`
	GeneratedAt time.Time `json:"generatedAt"`

	Totals          *Totals               `json:"totals,omitempty"`
	Summary         *Summary              `json:"summary,omitempty"`
	TopPosts        []metrics.PostRecord  `json:"topPosts,omitempty"`
	Demographics    *metrics.Demographics `json:"demographics,omitempty"`
	ContentTypes    []ContentTypeRow      `json:"contentTypes,omitempty"`
	DailyEngagement []DailyRow            `json:"dailyEngagement,omitempty"`
}

// Build assembles a report of kind over the posts created in the last days
// days. Undated posts are always included.
func Build(kind Kind, view metrics.MetricsView, posts []metrics.PostRecord, days int, now time.Time) (Report, error) {
	title, ok := titles[kind]
	if !ok {
		return Report{}, fmt.Errorf("%w: %q", ErrUnknownReportType, kind)
	}
	if days <= 0 {
		days = 30
	}

	r := Report{
		ID:          uuid.New(),
		Kind:        kind,
		Title:       title,
		DateRange:   days,
		GeneratedAt: now.UTC(),
	}

	inRange := filterSince(posts, now.AddDate(0, 0, -days))

	switch kind {
	case Overview:
		r.Totals = &Totals{
			Reach:          view.TotalReach,
			Engagement:     view.TotalEngagement,
			Impressions:    view.TotalImpressions,
			EngagementRate: view.EngagementRate,
		}
		s := summarize(inRange)
		r.Summary = &s
		r.TopPosts = topPosts(inRange, metrics.DefaultTopPostsLimit)
	case Audience:
		d := view.DemographicsData
		r.Demographics = &d
	case Content:
		r.ContentTypes = contentTypes(inRange)
	case Engagement:
		r.DailyEngagement = daily(inRange)
	}

	return r, nil
}

func filterSince(posts []metrics.PostRecord, since time.Time) []metrics.PostRecord {
	out := make([]metrics.PostRecord, 0, len(posts))
	for _, p := range posts {
		if p.CreatedAt.IsZero() || !p.CreatedAt.Before(since) {
			out = append(out, p)
		}
	}
	return out
}

func summarize(posts []metrics.PostRecord) Summary {
	var s Summary
	for _, p := range posts {
		s.TotalLikes += p.Likes
		s.TotalComments += p.Comments
		s.TotalShares += p.Shares
		s.TotalEngagement += p.Engagement
	}
	s.TotalPosts = len(posts)
	if s.TotalPosts > 0 {
		s.AvgEngagement = int(math.Round(float64(s.TotalEngagement) / float64(s.TotalPosts)))
	}
	return s
}

func topPosts(posts []metrics.PostRecord, limit int) []metrics.PostRecord {
	sorted := append([]metrics.PostRecord(nil), posts...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Engagement > sorted[j].Engagement })
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

func contentTypes(posts []metrics.PostRecord) []ContentTypeRow {
	type acc struct {
		row   ContentTypeRow
		total int
	}
	var order []string
	byType := make(map[string]*acc)

	for _, p := range posts {
		t := p.Type
		if t == "" {
			t = "post"
		}
		a := byType[t]
		if a == nil {
			a = &acc{row: ContentTypeRow{Type: t}}
			byType[t] = a
			order = append(order, t)
		}
		a.row.Count++
		a.row.TotalLikes += p.Likes
		a.row.TotalComments += p.Comments
		a.total += p.Engagement
	}

	rows := make([]ContentTypeRow, 0, len(order))
	for _, t := range order {
		a := byType[t]
		a.row.AvgEngagement = int(math.Round(float64(a.total) / float64(a.row.Count)))
		rows = append(rows, a.row)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].AvgEngagement > rows[j].AvgEngagement })
	return rows
}

func daily(posts []metrics.PostRecord) []DailyRow {
	byDate := make(map[string]*DailyRow)
	for _, p := range posts {
		if p.CreatedAt.IsZero() {
			continue
		}
		date := p.CreatedAt.UTC().Format(time.DateOnly)
		row := byDate[date]
		if row == nil {
			row = &DailyRow{Date: date}
			byDate[date] = row
		}
		row.Engagement += p.Engagement
		row.Posts++
	}

	rows := make([]DailyRow, 0, len(byDate))
	for _, row := range byDate {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date > rows[j].Date })
	return rows
}
