// SPDX-License-Identifier: AGPL-3.0-only
package metrics

import (
	"strconv"
	"time"
)

type Platform string

const (
	Facebook  Platform = "facebook"
	Instagram Platform = "instagram"
)

// Identity is the only input used to seed synthetic data.
type Identity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type PostRecord struct {
	ID         string    `json:"id"`
	Platform   Platform  `json:"platform"`
	Content    string    `json:"content"`
	Type       string    `json:"type"`
	Reach      int       `json:"reach"`
	Engagement int       `json:"engagement"`
	Likes      int       `json:"likes"`
	Comments   int       `json:"comments"`
	Shares     int       `json:"shares"`
	Reactions  int       `json:"reactions"`
	CreatedAt  time.Time `json:"created_time"`
}

// InsightTotals are page or account level totals reported by the platform.
type InsightTotals struct {
	Reach       int `json:"reach"`
	Engagement  int `json:"engagement"`
	Impressions int `json:"impressions"`
}

func (t *InsightTotals) present() bool {
	return t != nil && (t.Reach > 0 || t.Engagement > 0 || t.Impressions > 0)
}

func (t *InsightTotals) Add(o InsightTotals) {
	t.Reach += o.Reach
	t.Engagement += o.Engagement
	t.Impressions += o.Impressions
}

// Percent is rendered with two decimals on the wire.
type Percent float64

func (p Percent) String() string {
	return strconv.FormatFloat(float64(p), 'f', 2, 64)
}

func (p Percent) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(p.String())), nil
}

func (p *Percent) UnmarshalJSON(b []byte) error {
	s := string(b)
	if unq, err := strconv.Unquote(s); err == nil {
		s = unq
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*p = Percent(f)
	return nil
}

type HourEngagement struct {
	Hour       int `json:"hour"`
	Engagement int `json:"engagement"`
}

type ContentPerformance struct {
	Type          string `json:"type"`
	Posts         int    `json:"posts"`
	AvgEngagement int    `json:"avgEngagement"`
	AvgReach      int    `json:"avgReach"`
}

type AgeShare struct {
	Range      string `json:"range"`
	Percentage int    `json:"percentage"`
}

type GenderShare struct {
	Type       string `json:"type"`
	Percentage int    `json:"percentage"`
}

type LocationShare struct {
	Country    string `json:"country"`
	Percentage int    `json:"percentage"`
}

type Demographics struct {
	Age       []AgeShare      `json:"age"`
	Gender    []GenderShare   `json:"gender"`
	Locations []LocationShare `json:"locations"`
}

// MetricsView is derived per request and never stored.
type MetricsView struct {
	TotalReach         int                  `json:"totalReach"`
	TotalEngagement    int                  `json:"totalEngagement"`
	TotalImpressions   int                  `json:"totalImpressions"`
	EngagementRate     Percent              `json:"engagementRate"`
	FollowerGrowth     float64              `json:"followerGrowth"`
	TopPosts           []PostRecord         `json:"topPosts"`
	DemographicsData   Demographics         `json:"demographicsData"`
	EngagementByTime   []HourEngagement     `json:"engagementByTime"`
	ContentPerformance []ContentPerformance `json:"contentPerformance"`
	Synthetic          bool                 `json:"synthetic"`
}
