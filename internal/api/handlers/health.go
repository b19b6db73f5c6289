// SPDX-License-Identifier: AGPL-3.0-only
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/SejalWadi/Meta-Analytics-Pro/internal/config"
	"github.com/gin-gonic/gin"
)

var apiEndpoints = gin.H{
	"auth":         "/api/auth",
	"analytics":    "/api/analytics",
	"accounts":     "/api/accounts",
	"reports":      "/api/reports",
	"metrics":      "/api/metrics",
	"optimization": "/api/optimization-recommendations",
}

func (h *Handler) HealthCheckHandler(c *gin.Context) {
	services := gin.H{
		"database": "not configured",
		"cache":    h.Config.Cache.Backend,
	}
	resp := gin.H{
		"status":    "OK",
		"timestamp": h.now().UTC().Format(time.RFC3339),
		"version":   config.AppVersion,
		"services":  services,
	}

	switch {
	case h.DB != nil:
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := h.DB.Ping(ctx); err != nil {
			services["database"] = "unavailable"
			resp["status"] = "failure"
			resp["details"] = "database ping failed: " + err.Error()
			c.JSON(http.StatusServiceUnavailable, resp)
			return
		}
		services["database"] = "connected"
	case h.Config.DBInitErr != nil:
		services["database"] = "unavailable"
		resp["details"] = h.Config.DBInitErr.Error()
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) StatusHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "API is running",
		"timestamp": h.now().UTC().Format(time.RFC3339),
		"endpoints": apiEndpoints,
	})
}

func (h *Handler) NotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{
		"error":              "API endpoint not found",
		"availableEndpoints": apiEndpoints,
	})
}
