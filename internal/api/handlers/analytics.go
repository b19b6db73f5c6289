// SPDX-License-Identifier: AGPL-3.0-only
package handlers

import (
	"cmp"
	"net/http"
	"slices"
	"strings"

	"github.com/SejalWadi/Meta-Analytics-Pro/internal/metrics"
	"github.com/gin-gonic/gin"
)

const contentPerformanceLimit = 50

// MetricsHandler never fails: missing or broken Graph access yields the
// caller's synthetic view.
func (h *Handler) MetricsHandler(c *gin.Context) {
	r := h.analyticsRequest(c, splitList(c.Query("accounts")), h.days(c.Query("dateRange")))
	c.JSON(http.StatusOK, h.Analytics.Metrics(c.Request.Context(), r))
}

func (h *Handler) ContentPerformanceHandler(c *gin.Context) {
	platform := strings.ToLower(strings.TrimSpace(c.DefaultQuery("platform", "all")))
	switch metrics.Platform(platform) {
	case "all", metrics.Facebook, metrics.Instagram:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "platform must be all, facebook or instagram"})
		return
	}

	r := h.analyticsRequest(c, splitList(c.Query("accounts")), h.days(c.Query("dateRange")))
	posts := h.Analytics.Posts(c.Request.Context(), r)

	out := make([]metrics.PostRecord, 0, len(posts))
	for _, p := range posts {
		if platform == "all" || string(p.Platform) == platform {
			out = append(out, p)
		}
	}
	slices.SortStableFunc(out, func(a, b metrics.PostRecord) int {
		return cmp.Compare(b.Engagement, a.Engagement)
	})
	if len(out) > contentPerformanceLimit {
		out = out[:contentPerformanceLimit]
	}

	c.JSON(http.StatusOK, out)
}

type metricsRequest struct {
	AccessToken string   `json:"accessToken"`
	Accounts    []string `json:"accounts"`
	DateRange   int      `json:"dateRange"`
}

// PostMetricsHandler takes the Graph token in the body instead of a session.
func (h *Handler) PostMetricsHandler(c *gin.Context) {
	var req metricsRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.AccessToken == "" || req.Accounts == nil || req.DateRange == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required parameters"})
		return
	}

	r := h.analyticsRequest(c, req.Accounts, req.DateRange)
	r.Token = req.AccessToken
	c.JSON(http.StatusOK, h.Analytics.Metrics(c.Request.Context(), r))
}
