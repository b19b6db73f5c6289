// SPDX-License-Identifier: AGPL-3.0-only

// Package optimization derives posting advice from a user's posts and their
// aggregated metrics.
package optimization

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/SejalWadi/Meta-Analytics-Pro/internal/metrics"
	"github.com/SejalWadi/Meta-Analytics-Pro/internal/seed"
)

const (
	hoursPerDay        = 3
	earliestHour       = 8
	latestHour         = 22
	maxTop             = 5
	maxTrending        = 5
	maxUnderused       = 4
	trendingWindow     = 7 * 24 * time.Hour
	minHashtagsPerPost = 5
	minPostsPerWeek    = 3
	videoLiftHigh      = 50
)

var weekdays = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday,
}

var hashtagPattern = regexp.MustCompile(`#[\p{L}\p{N}_]+`)

var defaultRecommendations = []ContentRecommendation{
	{Type: "Increase Video Content", Reason: "Videos have 340% higher engagement than photos", Impact: "High", Effort: "Medium"},
	{Type: "Use More Hashtags", Reason: "Posts with 5-10 hashtags perform better", Impact: "Medium", Effort: "Low"},
	{Type: "Post More Consistently", Reason: "Daily posting increases reach by 23%", Impact: "High", Effort: "High"},
}

var defaultHashtags = HashtagAnalysis{
	Top:       []string{"#marketing", "#business", "#entrepreneur", "#success", "#innovation"},
	Trending:  []string{"#ai", "#sustainability", "#remote", "#digital", "#growth"},
	Underused: []string{"#leadership", "#productivity", "#mindset", "#strategy"},
}

type DayHours struct {
	Day   string `json:"day"`
	Hours []int  `json:"hours"`
}

type BestTime struct {
	Weekdays []DayHours `json:"weekdays"`
}

type ContentRecommendation struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
	Impact string `json:"impact"`
	Effort string `json:"effort"`
}

type HashtagAnalysis struct {
	Top       []string `json:"top"`
	Trending  []string `json:"trending"`
	Underused []string `json:"underused"`
}

type Recommendations struct {
	BestTimeToPost         BestTime                `json:"bestTimeToPost"`
	ContentRecommendations []ContentRecommendation `json:"contentRecommendations"`
	HashtagAnalysis        HashtagAnalysis         `json:"hashtagAnalysis"`
}

type Recommender struct {
	// Location is used to place posts on weekdays and hours.
	Location *time.Location
}

// Recommend uses local time.
func Recommend(posts []metrics.PostRecord, view metrics.MetricsView, id metrics.Identity) Recommendations {
	return (&Recommender{Location: time.Local}).Recommend(posts, view, id)
}

func (r *Recommender) Recommend(posts []metrics.PostRecord, view metrics.MetricsView, id metrics.Identity) Recommendations {
	s := seed.Derive(id.ID, id.Name)
	return Recommendations{
		BestTimeToPost:         r.bestTimes(posts, s),
		ContentRecommendations: contentRecommendations(posts, view),
		HashtagAnalysis:        analyzeHashtags(posts),
	}
}

func (r *Recommender) location() *time.Location {
	if r.Location == nil {
		return time.Local
	}
	return r.Location
}

func (r *Recommender) bestTimes(posts []metrics.PostRecord, s seed.Seed) BestTime {
	type bucket struct {
		sum, n int
	}
	byDay := make(map[time.Weekday]map[int]*bucket)

	for _, p := range posts {
		if p.CreatedAt.IsZero() {
			continue
		}
		t := p.CreatedAt.In(r.location())
		hours := byDay[t.Weekday()]
		if hours == nil {
			hours = make(map[int]*bucket)
			byDay[t.Weekday()] = hours
		}
		b := hours[t.Hour()]
		if b == nil {
			b = &bucket{}
			hours[t.Hour()] = b
		}
		b.sum += max(0, p.Engagement)
		b.n++
	}

	out := BestTime{Weekdays: make([]DayHours, 0, len(weekdays))}
	for _, day := range weekdays {
		type ranked struct {
			hour int
			mean float64
		}
		var candidates []ranked
		for h, b := range byDay[day] {
			candidates = append(candidates, ranked{hour: h, mean: float64(b.sum) / float64(b.n)})
		}
		sort.Slice(candidates, func(i, j int) bool {
			if candidates[i].mean != candidates[j].mean {
				return candidates[i].mean > candidates[j].mean
			}
			return candidates[i].hour < candidates[j].hour
		})

		chosen := make([]int, 0, hoursPerDay)
		for _, c := range candidates {
			if len(chosen) == hoursPerDay {
				break
			}
			chosen = append(chosen, c.hour)
		}
		chosen = topUpHours(chosen, s, day.String())

		sort.Ints(chosen)
		out.Weekdays = append(out.Weekdays, DayHours{Day: day.String(), Hours: chosen})
	}
	return out
}

// topUpHours adds distinct seeded hours until there are hoursPerDay.
func topUpHours(hours []int, s seed.Seed, day string) []int {
	contains := func(h int) bool {
		for _, x := range hours {
			if x == h {
				return true
			}
		}
		return false
	}

	for n := 0; len(hours) < hoursPerDay && n < 64; n++ {
		h := s.Int(fmt.Sprintf("best_%s_%d", day, n), earliestHour, latestHour)
		if !contains(h) {
			hours = append(hours, h)
		}
	}
	for h := earliestHour; len(hours) < hoursPerDay && h < latestHour; h++ {
		if !contains(h) {
			hours = append(hours, h)
		}
	}
	return hours
}

func contentKind(t string) string {
	return strings.TrimSuffix(strings.ToLower(t), "s")
}

func contentRecommendations(posts []metrics.PostRecord, view metrics.MetricsView) []ContentRecommendation {
	var recs []ContentRecommendation

	var videoAvg, photoAvg int
	for _, cp := range view.ContentPerformance {
		switch contentKind(cp.Type) {
		case "video":
			videoAvg = cp.AvgEngagement
		case "photo":
			photoAvg = cp.AvgEngagement
		}
	}
	if photoAvg > 0 && videoAvg > photoAvg {
		lift := int(math.Round(float64(videoAvg-photoAvg) / float64(photoAvg) * 100))
		impact := "Medium"
		if lift >= videoLiftHigh {
			impact = "High"
		}
		recs = append(recs, ContentRecommendation{
			Type:   "Increase Video Content",
			Reason: fmt.Sprintf("Videos have %d%% higher engagement than photos", lift),
			Impact: impact,
			Effort: "Medium",
		})
	}

	if len(posts) > 0 {
		tags := 0
		for _, p := range posts {
			tags += len(hashtagPattern.FindAllString(p.Content, -1))
		}
		avg := float64(tags) / float64(len(posts))
		if avg < minHashtagsPerPost {
			recs = append(recs, ContentRecommendation{
				Type:   "Use More Hashtags",
				Reason: fmt.Sprintf("Your posts average %.1f hashtags; posts with 5-10 hashtags perform better", avg),
				Impact: "Medium",
				Effort: "Low",
			})
		}
	}

	if perWeek, ok := postsPerWeek(posts); ok && perWeek < minPostsPerWeek {
		recs = append(recs, ContentRecommendation{
			Type:   "Post More Consistently",
			Reason: fmt.Sprintf("You post %.1f times per week; aim for at least %d", perWeek, minPostsPerWeek),
			Impact: "High",
			Effort: "High",
		})
	}

	if len(recs) == 0 {
		return append([]ContentRecommendation(nil), defaultRecommendations...)
	}
	return recs
}

// postsPerWeek spans the oldest to newest dated post, at least one week.
func postsPerWeek(posts []metrics.PostRecord) (float64, bool) {
	var oldest, newest time.Time
	n := 0
	for _, p := range posts {
		if p.CreatedAt.IsZero() {
			continue
		}
		if n == 0 || p.CreatedAt.Before(oldest) {
			oldest = p.CreatedAt
		}
		if n == 0 || p.CreatedAt.After(newest) {
			newest = p.CreatedAt
		}
		n++
	}
	if n == 0 {
		return 0, false
	}
	weeks := math.Max(newest.Sub(oldest).Hours()/(24*7), 1)
	return float64(n) / weeks, true
}

type tagStats struct {
	tag    string
	total  int
	count  int
	recent int
	mean   float64
}

func analyzeHashtags(posts []metrics.PostRecord) HashtagAnalysis {
	var newest time.Time
	for _, p := range posts {
		if p.CreatedAt.After(newest) {
			newest = p.CreatedAt
		}
	}

	byTag := make(map[string]*tagStats)
	for _, p := range posts {
		seen := make(map[string]bool)
		recent := !newest.IsZero() && !p.CreatedAt.IsZero() && newest.Sub(p.CreatedAt) <= trendingWindow
		for _, raw := range hashtagPattern.FindAllString(p.Content, -1) {
			tag := strings.ToLower(raw)
			if seen[tag] {
				continue
			}
			seen[tag] = true

			st := byTag[tag]
			if st == nil {
				st = &tagStats{tag: tag}
				byTag[tag] = st
			}
			st.total += max(0, p.Engagement)
			st.count++
			if recent {
				st.recent++
			}
		}
	}

	if len(byTag) == 0 {
		return HashtagAnalysis{
			Top:       append([]string(nil), defaultHashtags.Top...),
			Trending:  append([]string(nil), defaultHashtags.Trending...),
			Underused: append([]string(nil), defaultHashtags.Underused...),
		}
	}

	stats := make([]*tagStats, 0, len(byTag))
	means := make([]float64, 0, len(byTag))
	for _, st := range byTag {
		st.mean = float64(st.total) / float64(st.count)
		stats = append(stats, st)
		means = append(means, st.mean)
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].total != stats[j].total {
			return stats[i].total > stats[j].total
		}
		return stats[i].tag < stats[j].tag
	})
	top := pickTags(stats, maxTop, func(*tagStats) bool { return true })

	trendingOrder := append([]*tagStats(nil), stats...)
	sort.SliceStable(trendingOrder, func(i, j int) bool {
		return trendingOrder[i].recent > trendingOrder[j].recent
	})
	trending := pickTags(trendingOrder, maxTrending, func(st *tagStats) bool { return st.recent > 0 })

	med := median(means)
	underusedOrder := append([]*tagStats(nil), stats...)
	sort.SliceStable(underusedOrder, func(i, j int) bool {
		return underusedOrder[i].mean > underusedOrder[j].mean
	})
	underused := pickTags(underusedOrder, maxUnderused, func(st *tagStats) bool {
		return st.count == 1 && st.mean > med
	})

	return HashtagAnalysis{Top: top, Trending: trending, Underused: underused}
}

func pickTags(stats []*tagStats, limit int, keep func(*tagStats) bool) []string {
	out := make([]string, 0, limit)
	for _, st := range stats {
		if len(out) == limit {
			break
		}
		if keep(st) {
			out = append(out, st.tag)
		}
	}
	return out
}

func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
