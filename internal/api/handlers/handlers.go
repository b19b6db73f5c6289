// SPDX-License-Identifier: AGPL-3.0-only

// Package handlers exposes the dashboard JSON API.
package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/SejalWadi/Meta-Analytics-Pro/internal/analytics"
	"github.com/SejalWadi/Meta-Analytics-Pro/internal/authhelp"
	"github.com/SejalWadi/Meta-Analytics-Pro/internal/cache"
	"github.com/SejalWadi/Meta-Analytics-Pro/internal/config"
	"github.com/SejalWadi/Meta-Analytics-Pro/internal/database"
	"github.com/SejalWadi/Meta-Analytics-Pro/internal/fetcher"
	"github.com/SejalWadi/Meta-Analytics-Pro/internal/graph"
	"github.com/SejalWadi/Meta-Analytics-Pro/internal/metrics"
	"github.com/SejalWadi/Meta-Analytics-Pro/internal/middleware"
	"github.com/SejalWadi/Meta-Analytics-Pro/internal/optimization"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// GraphTokenHeader carries a Graph token for callers without a stored one.
const GraphTokenHeader = "X-Graph-Token"

type Store interface {
	Ping(ctx context.Context) error
	UpsertUser(ctx context.Context, arg database.UpsertUserParams) (database.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (database.User, error)
	ListAccountsByUser(ctx context.Context, userID uuid.UUID) ([]database.ConnectedAccount, error)
	GetAccount(ctx context.Context, arg database.GetAccountParams) (database.ConnectedAccount, error)
	CreateAccountIfMissing(ctx context.Context, arg database.CreateAccountParams) (database.ConnectedAccount, error)
	UpdateAccountStatus(ctx context.Context, arg database.UpdateAccountStatusParams) (database.ConnectedAccount, error)
	DeleteAccount(ctx context.Context, arg database.DeleteAccountParams) error
	CreateScheduledReport(ctx context.Context, arg database.CreateScheduledReportParams) (database.ScheduledReport, error)
	ListScheduledReports(ctx context.Context, userID uuid.UUID) ([]database.ScheduledReport, error)
}

type Syncer interface {
	SyncAccount(id uuid.UUID) error
}

type Handler struct {
	Config      *config.AppConfig
	DB          Store
	Graph       graph.Client
	Collector   *fetcher.Collector
	Analytics   *analytics.Service
	Recommender *optimization.Recommender
	Worker      Syncer

	now func() time.Time
}

// NewHandler wires the analytics stack. db and w may be nil when Postgres is
// not configured.
func NewHandler(cfg *config.AppConfig, db Store, client graph.Client, store cache.Store, w Syncer) *Handler {
	collector := fetcher.NewCollector(client)
	aggregator := NewAggregator(cfg)

	return &Handler{
		Config:      cfg,
		DB:          db,
		Graph:       client,
		Collector:   collector,
		Analytics:   analytics.NewService(collector, aggregator, store, cfg.CacheTTL()),
		Recommender: &optimization.Recommender{Location: aggregator.Location},
		Worker:      w,
		now:         time.Now,
	}
}

// NewAggregator applies the metrics section of cfg over the defaults.
func NewAggregator(cfg *config.AppConfig) *metrics.Aggregator {
	a := metrics.NewAggregator()
	if cfg.Metrics.ImpressionsPerReach > 0 {
		a.ImpressionsPerReach = cfg.Metrics.ImpressionsPerReach
	}
	if cfg.Metrics.TopPostsLimit > 0 {
		a.TopPostsLimit = cfg.Metrics.TopPostsLimit
	}
	if cfg.Location != nil {
		a.Location = cfg.Location
	}
	return a
}

// identity seeds synthetic data by Facebook id so it survives a switch
// between database and database-less mode.
func identity(c *gin.Context) metrics.Identity {
	claims, ok := middleware.Claims(c)
	if !ok {
		return metrics.Identity{}
	}
	return metrics.Identity{ID: claims.FacebookID, Name: claims.Name}
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	claims, ok := middleware.Claims(c)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(claims.UserID)
	return id, err == nil
}

// graphToken prefers the stored token of the signed-in user and falls back to
// the request header. An empty result means synthetic data.
func (h *Handler) graphToken(c *gin.Context) string {
	if h.DB != nil && len(h.Config.TokenEncryptionKey) > 0 {
		if uid, ok := currentUserID(c); ok {
			u, err := h.DB.GetUser(c.Request.Context(), uid)
			if err == nil && len(u.EncryptedAccessToken) > 0 {
				token, err := authhelp.DecryptToken(u.EncryptedAccessToken, u.TokenNonce, h.Config.TokenEncryptionKey)
				if err == nil {
					return token
				}
				log.Warn().Err(err).Str("user_id", uid.String()).Msg("Failed to decrypt stored token")
			}
		}
	}
	return strings.TrimSpace(c.GetHeader(GraphTokenHeader))
}

func (h *Handler) days(raw string) int {
	def := h.Config.Metrics.DefaultRangeDays
	if def <= 0 {
		def = analytics.DefaultDays
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (h *Handler) analyticsRequest(c *gin.Context, accounts []string, days int) analytics.Request {
	return analytics.Request{
		Identity: identity(c),
		Token:    h.graphToken(c),
		Accounts: accounts,
		Days:     days,
	}
}

// requireDB answers 503 when storage is unavailable.
func (h *Handler) requireDB(c *gin.Context) bool {
	if h.DB != nil {
		return true
	}
	msg := "database is not configured"
	if h.Config.DBInitErr != nil {
		msg = h.Config.DBInitErr.Error()
	}
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": msg})
	return false
}

// requireUser answers 401 when the caller has no stored user id.
func requireUser(c *gin.Context) (uuid.UUID, bool) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user session required"})
	}
	return uid, ok
}
