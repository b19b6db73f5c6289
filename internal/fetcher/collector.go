// SPDX-License-Identifier: AGPL-3.0-only

// Package fetcher pulls posts and insights for a user's connected pages and
// Instagram business accounts and normalizes them into metrics records.
package fetcher

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/SejalWadi/Meta-Analytics-Pro/internal/graph"
	"github.com/SejalWadi/Meta-Analytics-Pro/internal/metrics"
	"github.com/SejalWadi/Meta-Analytics-Pro/internal/seed"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultPostLimit   = 50
	DefaultConcurrency = 4
)

var (
	pageInsightMetrics      = []string{"page_impressions", "page_impressions_unique", "page_post_engagements"}
	instagramInsightMetrics = []string{"impressions", "reach", "accounts_engaged"}
)

type Account struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Platform    metrics.Platform `json:"platform"`
	Followers   int              `json:"followers"`
	IsConnected bool             `json:"isConnected"`
	LastSync    *time.Time       `json:"lastSync"`

	token string
}

type Result struct {
	Posts    []metrics.PostRecord
	Totals   metrics.InsightTotals
	Accounts []Account
	// Failed lists accounts that were skipped because the platform errored.
	Failed []string
}

// HasData reports whether anything real was collected.
func (r Result) HasData() bool {
	return len(r.Posts) > 0 || r.Totals.Reach > 0 || r.Totals.Engagement > 0 || r.Totals.Impressions > 0
}

type Collector struct {
	Graph       graph.Client
	PostLimit   int
	Concurrency int
}

func NewCollector(client graph.Client) *Collector {
	return &Collector{
		Graph:       client,
		PostLimit:   DefaultPostLimit,
		Concurrency: DefaultConcurrency,
	}
}

// Accounts flattens the user's pages and their linked Instagram accounts.
func (c *Collector) Accounts(ctx context.Context, token string) ([]Account, error) {
	pages, err := c.Graph.GetAccounts(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}

	var accounts []Account
	for _, p := range pages {
		pageToken := p.AccessToken
		if pageToken == "" {
			pageToken = token
		}
		accounts = append(accounts, Account{
			ID:          p.ID,
			Name:        p.Name,
			Platform:    metrics.Facebook,
			Followers:   p.FanCount,
			IsConnected: true,
			token:       pageToken,
		})
		if ig := p.Instagram; ig != nil {
			name := ig.Username
			if name == "" {
				name = ig.Name
			}
			accounts = append(accounts, Account{
				ID:          ig.ID,
				Name:        name,
				Platform:    metrics.Instagram,
				Followers:   ig.FollowersCount,
				IsConnected: true,
				token:       pageToken,
			})
		}
	}
	return accounts, nil
}

type accountData struct {
	posts  []metrics.PostRecord
	totals metrics.InsightTotals
	err    error
}

// Collect gathers posts and insight totals across accounts. Only a failure to
// list accounts is returned; individual accounts that fail are skipped.
func (c *Collector) Collect(ctx context.Context, token string, id metrics.Identity, filter []string, since, until time.Time) (Result, error) {
	accounts, err := c.Accounts(ctx, token)
	if err != nil {
		return Result{}, err
	}

	if len(filter) > 0 {
		accounts = slices.DeleteFunc(accounts, func(a Account) bool {
			return !slices.Contains(filter, a.ID)
		})
	}

	s := seed.Derive(id.ID, id.Name)
	data := make([]accountData, len(accounts))

	limit := c.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, acc := range accounts {
		i, acc := i, acc
		g.Go(func() error {
			data[i] = c.collectAccount(gctx, acc, s, since, until)
			return nil
		})
	}
	_ = g.Wait()

	res := Result{Accounts: accounts}
	for i, d := range data {
		if d.err != nil {
			log.Warn().
				Err(d.err).
				Str("user_id", id.ID).
				Str("account_id", accounts[i].ID).
				Str("platform", string(accounts[i].Platform)).
				Msg("Skipping account after fetch failure")
			res.Failed = append(res.Failed, accounts[i].ID)
			continue
		}
		res.Posts = append(res.Posts, d.posts...)
		res.Totals.Add(d.totals)
	}

	return res, nil
}

func (c *Collector) collectAccount(ctx context.Context, acc Account, s seed.Seed, since, until time.Time) accountData {
	var d accountData

	limit := c.PostLimit
	if limit <= 0 {
		limit = DefaultPostLimit
	}

	q := graph.InsightQuery{Period: "day", Since: since, Until: until}

	switch acc.Platform {
	case metrics.Facebook:
		posts, err := c.Graph.GetPosts(ctx, acc.ID, acc.token, limit)
		if err != nil {
			d.err = fmt.Errorf("fetching page posts: %w", err)
			return d
		}
		for _, p := range posts {
			if inRange(p.CreatedTime.Time, since, until) {
				d.posts = append(d.posts, NormalizePagePost(p, s))
			}
		}
		q.Metrics = pageInsightMetrics

	case metrics.Instagram:
		media, err := c.Graph.GetMedia(ctx, acc.ID, acc.token, limit)
		if err != nil {
			d.err = fmt.Errorf("fetching instagram media: %w", err)
			return d
		}
		for _, m := range media {
			if inRange(m.Timestamp.Time, since, until) {
				d.posts = append(d.posts, NormalizeMedia(m, s))
			}
		}
		q.Metrics = instagramInsightMetrics
	}

	insights, err := c.Graph.GetInsights(ctx, acc.ID, acc.token, q)
	if err != nil {
		// Posts are still usable without account level totals.
		log.Debug().Err(err).Str("account_id", acc.ID).Msg("Insights unavailable")
		return d
	}
	d.totals = SumInsights(insights)
	return d
}

func inRange(t, since, until time.Time) bool {
	if t.IsZero() {
		return true
	}
	if !since.IsZero() && t.Before(since) {
		return false
	}
	if !until.IsZero() && t.After(until) {
		return false
	}
	return true
}
