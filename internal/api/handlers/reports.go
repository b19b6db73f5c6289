// SPDX-License-Identifier: AGPL-3.0-only
package handlers

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/SejalWadi/Meta-Analytics-Pro/internal/database"
	"github.com/SejalWadi/Meta-Analytics-Pro/internal/reports"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type generateRequest struct {
	ReportType string   `json:"reportType"`
	Format     string   `json:"format"`
	DateRange  int      `json:"dateRange"`
	Accounts   []string `json:"accounts"`
}

// GenerateReportHandler renders the report to a temporary file, streams it
// and removes it.
func (h *Handler) GenerateReportHandler(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	kind, err := reports.ParseKind(req.ReportType)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid report type"})
		return
	}
	format, err := reports.ParseFormat(req.Format)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid format", "details": err.Error()})
		return
	}

	ctx := c.Request.Context()
	days := req.DateRange
	if days <= 0 {
		days = h.days("")
	}
	r := h.analyticsRequest(c, req.Accounts, days)

	report, err := reports.Build(kind, h.Analytics.Metrics(ctx, r), h.Analytics.Posts(ctx, r), days, h.now())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	path, err := reports.WriteFile(h.Config.Reports.OutputDir, report, format)
	if err != nil {
		log.Error().Err(err).Str("kind", string(kind)).Msg("Failed to write report")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate report"})
		return
	}
	defer func() {
		if err := os.Remove(path); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Report cleanup failed")
		}
	}()

	c.Header("Content-Type", format.ContentType())
	c.FileAttachment(path, filepath.Base(path))
}

func (h *Handler) ListScheduledReportsHandler(c *gin.Context) {
	if !h.requireDB(c) {
		return
	}
	uid, ok := requireUser(c)
	if !ok {
		return
	}

	items, err := h.DB.ListScheduledReports(c.Request.Context(), uid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch scheduled reports"})
		return
	}

	out := make([]scheduledReportResponse, 0, len(items))
	for _, r := range items {
		out = append(out, scheduledReport(r))
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) ScheduleReportHandler(c *gin.Context) {
	if !h.requireDB(c) {
		return
	}
	uid, ok := requireUser(c)
	if !ok {
		return
	}

	var s reports.Schedule
	if err := c.ShouldBindJSON(&s); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := s.Normalize(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.DB.CreateScheduledReport(c.Request.Context(), database.CreateScheduledReportParams{
		UserID:     uid,
		Name:       s.Name,
		ReportType: string(s.ReportType),
		Frequency:  string(s.Frequency),
		Format:     string(s.Format),
		Accounts:   s.Accounts,
		Recipients: s.Recipients,
		CreatedAt:  h.now(),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to schedule report"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":      created.ID.String(),
		"message": "Scheduled report created successfully",
	})
}

