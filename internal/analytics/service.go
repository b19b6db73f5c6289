// SPDX-License-Identifier: AGPL-3.0-only

// Package analytics serves dashboard metrics. It never fails a request:
// when the platform cannot be reached the caller gets the user's synthetic
// view instead.
package analytics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/SejalWadi/Meta-Analytics-Pro/internal/cache"
	"github.com/SejalWadi/Meta-Analytics-Pro/internal/fetcher"
	"github.com/SejalWadi/Meta-Analytics-Pro/internal/metrics"
	"github.com/SejalWadi/Meta-Analytics-Pro/internal/seed"
	"github.com/rs/zerolog/log"
)

const DefaultDays = 30

type Request struct {
	Identity metrics.Identity
	Token    string
	Accounts []string
	Days     int
}

func (r Request) days() int {
	if r.Days <= 0 {
		return DefaultDays
	}
	return r.Days
}

// CacheKey identifies a view. Account order does not matter. The token is
// part of the key so a view is only served back to the token that fetched it.
func (r Request) CacheKey(kind string) string {
	accounts := slices.Clone(r.Accounts)
	slices.Sort(accounts)
	return fmt.Sprintf("%s:%s:%s:%s:%d", kind, r.Identity.ID, tokenFingerprint(r.Token), strings.Join(accounts, ","), r.days())
}

// cacheable is false for anonymous callers, who all share the empty
// identity, and for tokenless requests, which are always synthetic.
func (r Request) cacheable() bool {
	return r.Identity.ID != "" && r.Token != ""
}

func tokenFingerprint(token string) string {
	if token == "" {
		return "-"
	}
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:8])
}

type Collector interface {
	Collect(ctx context.Context, token string, id metrics.Identity, filter []string, since, until time.Time) (fetcher.Result, error)
}

type Service struct {
	collector  Collector
	aggregator *metrics.Aggregator
	store      cache.Store
	ttl        time.Duration
	now        func() time.Time
}

func NewService(collector Collector, aggregator *metrics.Aggregator, store cache.Store, ttl time.Duration) *Service {
	if aggregator == nil {
		aggregator = metrics.NewAggregator()
	}
	if store == nil {
		store = cache.Noop{}
	}
	return &Service{
		collector:  collector,
		aggregator: aggregator,
		store:      store,
		ttl:        ttl,
		now:        time.Now,
	}
}

type snapshot struct {
	Posts  []metrics.PostRecord   `json:"posts"`
	Totals *metrics.InsightTotals `json:"totals"`
}

// Metrics returns the dashboard view for r. Synthetic views are cheap and
// are never cached, so real data shows up as soon as it is available.
func (s *Service) Metrics(ctx context.Context, r Request) metrics.MetricsView {
	key := r.CacheKey("metrics")

	var view metrics.MetricsView
	if r.cacheable() && cache.GetJSON(ctx, s.store, key, &view) {
		return view
	}

	snap := s.load(ctx, r)
	view = s.aggregator.Aggregate(snap.Posts, snap.Totals, r.Identity)

	if r.cacheable() && !view.Synthetic {
		cache.SetJSON(ctx, s.store, key, view, s.ttl)
	}
	return view
}

// Posts returns the normalized posts behind the view, or the user's demo
// posts when nothing real is available.
func (s *Service) Posts(ctx context.Context, r Request) []metrics.PostRecord {
	snap := s.load(ctx, r)
	if len(snap.Posts) > 0 {
		return snap.Posts
	}
	return s.aggregator.SyntheticPosts(seed.Derive(r.Identity.ID, r.Identity.Name), s.now().UTC().Truncate(24*time.Hour))
}

// load collects (or reuses) the raw data for r. The zero snapshot means
// "synthesize".
func (s *Service) load(ctx context.Context, r Request) snapshot {
	key := r.CacheKey("raw")

	var snap snapshot
	if r.cacheable() && cache.GetJSON(ctx, s.store, key, &snap) {
		return snap
	}

	if r.Token == "" || s.collector == nil {
		return snapshot{}
	}

	until := s.now()
	since := until.AddDate(0, 0, -r.days())

	res, err := s.collector.Collect(ctx, r.Token, r.Identity, r.Accounts, since, until)
	if err != nil {
		log.Warn().
			Err(err).
			Str("user_id", r.Identity.ID).
			Msg("Metrics fetch failed, serving synthetic data")
		return snapshot{}
	}
	if !res.HasData() {
		log.Info().Str("user_id", r.Identity.ID).Msg("No platform data in range, serving synthetic data")
		return snapshot{}
	}

	totals := res.Totals
	snap = snapshot{Posts: res.Posts, Totals: &totals}
	if r.cacheable() {
		cache.SetJSON(ctx, s.store, key, snap, s.ttl)
	}
	return snap
}
