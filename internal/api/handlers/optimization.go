// SPDX-License-Identifier: AGPL-3.0-only
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) RecommendationsHandler(c *gin.Context) {
	ctx := c.Request.Context()
	r := h.analyticsRequest(c, splitList(c.Query("accounts")), h.days(c.Query("dateRange")))

	posts := h.Analytics.Posts(ctx, r)
	view := h.Analytics.Metrics(ctx, r)
	c.JSON(http.StatusOK, h.Recommender.Recommend(posts, view, r.Identity))
}
