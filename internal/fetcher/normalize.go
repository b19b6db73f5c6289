// SPDX-License-Identifier: AGPL-3.0-only
package fetcher

import (
	"math"
	"strings"

	"github.com/SejalWadi/Meta-Analytics-Pro/internal/graph"
	"github.com/SejalWadi/Meta-Analytics-Pro/internal/metrics"
	"github.com/SejalWadi/Meta-Analytics-Pro/internal/seed"
	"golang.org/x/net/html"
)

// StripHTMLToText flattens markup and entities into single-spaced text.
func StripHTMLToText(input string) string {
	if !strings.ContainsAny(input, "<&") {
		return strings.Join(strings.Fields(input), " ")
	}

	doc, err := html.Parse(strings.NewReader(input))
	if err != nil {
		return ""
	}

	var b strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				if b.Len() > 0 {
					b.WriteString(" ")
				}
				b.WriteString(text)
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)

	return strings.Join(strings.Fields(html.UnescapeString(b.String())), " ")
}

// EstimateReach is used when the platform reports no reach for a post.
func EstimateReach(postID string, engagement int, s seed.Seed) int {
	key := "reach_est_" + postID
	if engagement <= 0 {
		return s.Int(key, 100, 1000)
	}
	factor := s.Float(key, metrics.ReachMultiplierRange[0], metrics.ReachMultiplierRange[1])
	return int(math.Round(float64(engagement) * factor))
}

func pageContentType(statusType string) string {
	switch statusType {
	case "added_photos":
		return "photo"
	case "added_video":
		return "video"
	case "shared_story":
		return "link"
	default:
		return "status"
	}
}

func mediaContentType(mediaType string) string {
	switch strings.ToUpper(mediaType) {
	case "IMAGE":
		return "photo"
	case "VIDEO", "REELS":
		return "video"
	case "CAROUSEL_ALBUM":
		return "carousel"
	default:
		return "post"
	}
}

// NormalizePagePost maps a Facebook page post. Reactions include likes on
// the platform side, so only the non-like remainder is counted.
func NormalizePagePost(p graph.PagePost, s seed.Seed) metrics.PostRecord {
	likes := p.Likes.Count()
	comments := p.Comments.Count()
	shares := p.Shares.Count
	reactions := max(0, p.Reactions.Count()-likes)
	engagement := likes + comments + shares + reactions

	reach := 0
	if in, ok := p.Insights.Metric("post_impressions_unique"); ok {
		reach = int(in.Latest())
	}
	if reach <= 0 {
		reach = EstimateReach(p.ID, engagement, s)
	}

	content := p.Message
	if content == "" {
		content = p.Story
	}

	return metrics.PostRecord{
		ID:         p.ID,
		Platform:   metrics.Facebook,
		Content:    StripHTMLToText(content),
		Type:       pageContentType(p.StatusType),
		Reach:      reach,
		Engagement: engagement,
		Likes:      likes,
		Comments:   comments,
		Shares:     shares,
		Reactions:  reactions,
		CreatedAt:  p.CreatedTime.Time,
	}
}

func NormalizeMedia(m graph.Media, s seed.Seed) metrics.PostRecord {
	engagement := m.LikeCount + m.CommentsCount

	reach := 0
	if in, ok := m.Insights.Metric("reach"); ok {
		reach = int(in.Latest())
	}
	if reach <= 0 {
		reach = EstimateReach(m.ID, engagement, s)
	}

	return metrics.PostRecord{
		ID:         m.ID,
		Platform:   metrics.Instagram,
		Content:    StripHTMLToText(m.Caption),
		Type:       mediaContentType(m.MediaType),
		Reach:      reach,
		Engagement: engagement,
		Likes:      m.LikeCount,
		Comments:   m.CommentsCount,
		CreatedAt:  m.Timestamp.Time,
	}
}

// SumInsights folds page or account insights into totals. Metric names
// differ between Facebook pages and Instagram accounts.
func SumInsights(insights []graph.Insight) metrics.InsightTotals {
	var t metrics.InsightTotals
	for _, in := range insights {
		v := int(math.Round(in.Sum()))
		switch in.Name {
		case "page_impressions", "impressions":
			t.Impressions += v
		case "page_reach", "page_impressions_unique", "reach":
			t.Reach += v
		case "page_engaged_users", "page_post_engagements", "accounts_engaged":
			t.Engagement += v
		}
	}
	return t
}
