// SPDX-License-Identifier: AGPL-3.0-only
package metrics

import (
	"fmt"
	"math"
	"time"

	"github.com/SejalWadi/Meta-Analytics-Pro/internal/seed"
)

var (
	syntheticPlatforms = []Platform{Facebook, Instagram}
	syntheticTypes     = []string{"photo", "video", "status", "link"}
	syntheticCaptions  = []string{
		"Behind the scenes of this week's launch #marketing #business",
		"Five things we learned from our customers this month",
		"New video: how we plan a content calendar #contentstrategy",
		"Thank you for 10k followers! #growth #community",
		"Our team at the summit today #innovation #success",
		"Quick tip: post when your audience is online #socialmedia",
		"Read the full story on our blog",
		"Weekend vibes from the studio #branding",
	}
)

// ReachMultiplierRange bounds the reach-from-engagement factor used for
// synthetic and estimated posts.
var ReachMultiplierRange = [2]float64{2, 10}

// synthesize builds a complete view from the seed alone.
func (a *Aggregator) synthesize(s seed.Seed) MetricsView {
	multiplier := s.Float("multiplier", 0.5, 2)
	reach := int(math.Round(float64(s.Int("reach", 8000, 25000)) * multiplier))
	rate := s.Float("engagement_rate", 1, 8)
	engagement := int(math.Round(float64(reach) * rate / 100))

	return MetricsView{
		TotalReach:         reach,
		TotalEngagement:    engagement,
		TotalImpressions:   a.estimateImpressions(reach),
		EngagementRate:     engagementRate(reach, engagement, s),
		FollowerGrowth:     followerGrowth(s),
		TopPosts:           a.topPosts(a.SyntheticPosts(s, SyntheticEpoch)),
		DemographicsData:   synthesizeDemographics(s),
		EngagementByTime:   a.hourly(nil, s),
		ContentPerformance: canonicalContentPerformance(s),
		Synthetic:          true,
	}
}

// SyntheticEpoch anchors the posts of a synthetic view, which must not
// depend on when it is computed.
var SyntheticEpoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// SyntheticPosts returns the demo posts for s, newest first, ending at anchor
// truncated to the hour.
func (a *Aggregator) SyntheticPosts(s seed.Seed, anchor time.Time) []PostRecord {
	anchor = anchor.Truncate(time.Hour)

	n := s.Int("post_count", 5, 11)
	posts := make([]PostRecord, 0, n)
	ageHours := 0

	for i := 0; i < n; i++ {
		engagement := s.Int(fmt.Sprintf("post_eng_%d", i), 50, 800)
		reachFactor := s.Float(fmt.Sprintf("post_reach_%d", i), ReachMultiplierRange[0], ReachMultiplierRange[1])
		comments := engagement * s.Int(fmt.Sprintf("post_comments_%d", i), 5, 20) / 100
		shares := engagement * s.Int(fmt.Sprintf("post_shares_%d", i), 2, 10) / 100
		ageHours += s.Int(fmt.Sprintf("post_age_%d", i), 6, 96)

		posts = append(posts, PostRecord{
			ID:         fmt.Sprintf("demo_%d", i+1),
			Platform:   seed.Pick(s, fmt.Sprintf("post_platform_%d", i), syntheticPlatforms),
			Content:    seed.Pick(s, fmt.Sprintf("post_caption_%d", i), syntheticCaptions),
			Type:       seed.Pick(s, fmt.Sprintf("post_type_%d", i), syntheticTypes),
			Reach:      int(math.Round(float64(engagement) * reachFactor)),
			Engagement: engagement,
			Likes:      engagement - comments - shares,
			Comments:   comments,
			Shares:     shares,
			CreatedAt:  anchor.Add(-time.Duration(ageHours) * time.Hour),
		})
	}
	return posts
}

// SyntheticPosts returns demo posts for id using the default aggregator.
func SyntheticPosts(id Identity, anchor time.Time) []PostRecord {
	return defaultAggregator.SyntheticPosts(seed.Derive(id.ID, id.Name), anchor)
}
