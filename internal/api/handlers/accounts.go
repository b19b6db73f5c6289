// SPDX-License-Identifier: AGPL-3.0-only
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/SejalWadi/Meta-Analytics-Pro/internal/database"
	"github.com/SejalWadi/Meta-Analytics-Pro/internal/metrics"
	"github.com/SejalWadi/Meta-Analytics-Pro/internal/worker"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ListAccountsHandler returns stored accounts, or the live Graph listing when
// there is no database.
func (h *Handler) ListAccountsHandler(c *gin.Context) {
	ctx := c.Request.Context()

	if h.DB == nil {
		out := []accountResponse{}
		if token := h.graphToken(c); token != "" {
			live, err := h.Collector.Accounts(ctx, token)
			if err != nil {
				log.Warn().Err(err).Msg("Failed to list live accounts")
			}
			for _, a := range live {
				out = append(out, liveAccount(a))
			}
		}
		c.JSON(http.StatusOK, out)
		return
	}

	uid, ok := requireUser(c)
	if !ok {
		return
	}

	accounts, err := h.DB.ListAccountsByUser(ctx, uid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch accounts"})
		return
	}

	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, storedAccount(a))
	}
	c.JSON(http.StatusOK, out)
}

type connectRequest struct {
	Platform    string `json:"platform"`
	AccessToken string `json:"accessToken"`
}

func (h *Handler) ConnectAccountHandler(c *gin.Context) {
	if !h.requireDB(c) {
		return
	}
	uid, ok := requireUser(c)
	if !ok {
		return
	}

	var req connectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	platform := metrics.Platform(strings.ToLower(strings.TrimSpace(req.Platform)))
	if platform != metrics.Facebook && platform != metrics.Instagram {
		c.JSON(http.StatusBadRequest, gin.H{"error": "platform must be facebook or instagram"})
		return
	}

	token := strings.TrimSpace(req.AccessToken)
	if token == "" {
		token = h.graphToken(c)
	}
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Access token is required"})
		return
	}

	ctx := c.Request.Context()
	live, err := h.Collector.Accounts(ctx, token)
	if err != nil {
		log.Warn().Err(err).Str("user_id", uid.String()).Msg("Failed to list accounts for connect")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to connect account", "details": err.Error()})
		return
	}

	connected := []accountResponse{}
	for _, a := range live {
		if a.Platform != platform {
			continue
		}
		stored, err := h.DB.CreateAccountIfMissing(ctx, database.CreateAccountParams{
			UserID:      uid,
			Platform:    string(a.Platform),
			AccountID:   a.ID,
			AccountName: a.Name,
			Followers:   int32(a.Followers),
			CreatedAt:   h.now(),
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to connect account"})
			return
		}
		connected = append(connected, storedAccount(stored))
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Accounts connected successfully",
		"accounts": connected,
	})
}

func accountParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("accountId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account id"})
		return uuid.Nil, false
	}
	return id, true
}

type statusRequest struct {
	IsActive *bool `json:"isActive"`
}

func (h *Handler) UpdateAccountStatusHandler(c *gin.Context) {
	if !h.requireDB(c) {
		return
	}
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := accountParam(c)
	if !ok {
		return
	}

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IsActive == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "isActive is required"})
		return
	}

	account, err := h.DB.UpdateAccountStatus(c.Request.Context(), database.UpdateAccountStatusParams{
		ID:       id,
		UserID:   uid,
		IsActive: *req.IsActive,
	})
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update account status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Account status updated successfully",
		"account": storedAccount(account),
	})
}

func (h *Handler) DeleteAccountHandler(c *gin.Context) {
	if !h.requireDB(c) {
		return
	}
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := accountParam(c)
	if !ok {
		return
	}

	err := h.DB.DeleteAccount(c.Request.Context(), database.DeleteAccountParams{ID: id, UserID: uid})
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete account"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Account deleted successfully"})
}

func (h *Handler) SyncAccountHandler(c *gin.Context) {
	if !h.requireDB(c) {
		return
	}
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := accountParam(c)
	if !ok {
		return
	}

	if _, err := h.DB.GetAccount(c.Request.Context(), database.GetAccountParams{ID: id, UserID: uid}); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load account"})
		return
	}

	if h.Worker == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "sync worker is not running"})
		return
	}

	err := h.Worker.SyncAccount(id)
	switch {
	case errors.Is(err, worker.ErrSyncInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": "A sync is already in progress"})
	case err != nil:
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to sync account", "details": err.Error()})
	default:
		c.JSON(http.StatusOK, gin.H{"message": "Account synced successfully"})
	}
}

