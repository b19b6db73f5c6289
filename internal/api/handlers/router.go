// SPDX-License-Identifier: AGPL-3.0-only
package handlers

import (
	"github.com/SejalWadi/Meta-Analytics-Pro/internal/middleware"
	"github.com/gin-gonic/gin"
)

func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestLogger(),
		middleware.SecurityHeadersMiddleware(),
		middleware.CORS(h.Config.Server.AllowedOrigins),
	)

	r.GET("/health", h.HealthCheckHandler)

	secret := h.Config.Auth.JWTSecret
	api := r.Group("/api", middleware.RateLimit(h.Config.RateLimit.RequestsPerSecond, h.Config.RateLimit.Burst))
	api.GET("/status", h.StatusHandler)

	auth := api.Group("/auth")
	auth.POST("/facebook", h.FacebookTokenHandler)
	auth.GET("/facebook/login", h.FacebookLoginHandler)
	auth.GET("/facebook/callback", h.FacebookCallbackHandler)
	auth.POST("/refresh", h.RefreshHandler)
	auth.POST("/logout", h.LogoutHandler)

	accounts := api.Group("/accounts", middleware.RequireAuth(secret))
	accounts.GET("", h.ListAccountsHandler)
	accounts.POST("/connect", h.ConnectAccountHandler)
	accounts.PUT("/:accountId/status", h.UpdateAccountStatusHandler)
	accounts.DELETE("/:accountId", h.DeleteAccountHandler)
	accounts.POST("/:accountId/sync", h.SyncAccountHandler)

	analytics := api.Group("/analytics", middleware.OptionalAuth(secret))
	analytics.GET("/metrics", h.MetricsHandler)
	analytics.GET("/content-performance", h.ContentPerformanceHandler)

	api.POST("/metrics", middleware.OptionalAuth(secret), h.PostMetricsHandler)

	api.GET("/optimization/recommendations", middleware.RequireAuth(secret), h.RecommendationsHandler)
	api.GET("/optimization-recommendations", middleware.RequireAuth(secret), h.RecommendationsHandler)

	reports := api.Group("/reports")
	reports.POST("/generate", middleware.OptionalAuth(secret), h.GenerateReportHandler)
	reports.GET("/scheduled", middleware.RequireAuth(secret), h.ListScheduledReportsHandler)
	reports.POST("/schedule", middleware.RequireAuth(secret), h.ScheduleReportHandler)

	r.NoRoute(h.NotFoundHandler)

	return r
}
