// SPDX-License-Identifier: AGPL-3.0-only
package handlers

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/SejalWadi/Meta-Analytics-Pro/internal/authhelp"
	"github.com/SejalWadi/Meta-Analytics-Pro/internal/database"
	"github.com/SejalWadi/Meta-Analytics-Pro/internal/graph"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	oauthStateTTL    = 10 * time.Minute
	oauthStateCookie = "oauth_state"
	oauthCookiePath  = "/api/auth/facebook"
)

type facebookTokenRequest struct {
	AccessToken string `json:"accessToken"`
}

// FacebookTokenHandler signs in with a token obtained by the client SDK.
func (h *Handler) FacebookTokenHandler(c *gin.Context) {
	var req facebookTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.AccessToken) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Access token is required"})
		return
	}

	token := strings.TrimSpace(req.AccessToken)
	if h.Config.FBConfig != nil && h.Config.FBConfig.ClientID != "" && h.Config.FBConfig.ClientSecret != "" {
		longLived, err := h.Graph.ExchangeLongLivedToken(c.Request.Context(), token, h.Config.FBConfig)
		if err != nil {
			log.Warn().Err(err).Msg("Long-lived token exchange failed, keeping short-lived token")
		} else {
			token = longLived
		}
	}

	h.completeLogin(c, token)
}

func (h *Handler) stateSecret() string {
	if h.Config.Auth.OauthStateKey != "" {
		return h.Config.Auth.OauthStateKey
	}
	return h.Config.Auth.JWTSecret
}

func (h *Handler) FacebookLoginHandler(c *gin.Context) {
	if h.Config.FBConfig == nil || h.Config.FBConfig.ClientID == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "facebook app is not configured"})
		return
	}

	nonce := uuid.NewString()
	state, err := authhelp.IssueState(nonce, h.stateSecret(), oauthStateTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create oauth state", "details": err.Error()})
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, nonce, int(oauthStateTTL.Seconds()), oauthCookiePath, "", c.Request.TLS != nil, true)
	c.Redirect(http.StatusTemporaryRedirect, h.Config.FBConfig.AuthCodeURL(state))
}

func (h *Handler) FacebookCallbackHandler(c *gin.Context) {
	if h.Config.FBConfig == nil || h.Config.FBConfig.ClientID == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "facebook app is not configured"})
		return
	}

	if !h.checkState(c) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid oauth state"})
		return
	}

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "authorization code is required"})
		return
	}

	ctx := c.Request.Context()
	token, err := h.Config.FBConfig.Exchange(ctx, code)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token exchange failed", "details": err.Error()})
		return
	}

	longLivedToken, err := h.Graph.ExchangeLongLivedToken(ctx, token.AccessToken, h.Config.FBConfig)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "long-lived token exchange failed", "details": err.Error()})
		return
	}

	h.completeLogin(c, longLivedToken)
}

// checkState accepts the callback only from the browser that started the
// login. The nonce cookie is single use.
func (h *Handler) checkState(c *gin.Context) bool {
	nonce, err := authhelp.ParseState(c.Query("state"), h.stateSecret())
	if err != nil {
		return false
	}
	cookie, err := c.Cookie(oauthStateCookie)
	if err != nil {
		return false
	}
	c.SetCookie(oauthStateCookie, "", -1, oauthCookiePath, "", c.Request.TLS != nil, true)
	return subtle.ConstantTimeCompare([]byte(cookie), []byte(nonce)) == 1
}

// completeLogin verifies token against /me, stores the user when a database
// is available and answers with a session JWT.
func (h *Handler) completeLogin(c *gin.Context, token string) {
	ctx := c.Request.Context()

	me, err := h.Graph.GetMe(ctx, token)
	if err != nil {
		status := http.StatusUnauthorized
		var apiErr *graph.APIError
		if !errors.As(err, &apiErr) {
			status = http.StatusBadGateway
		}
		log.Warn().Err(err).Msg("Facebook token verification failed")
		c.JSON(status, gin.H{"error": "Invalid Facebook token"})
		return
	}

	user := userResponse{
		ID:      me.ID,
		Name:    me.Name,
		Email:   me.Email,
		Picture: me.Picture.Data.URL,
	}

	if h.DB != nil {
		stored, err := h.storeUser(ctx, me, token)
		if err != nil {
			log.Error().Err(err).Str("facebook_id", me.ID).Msg("Failed to store user")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store user"})
			return
		}
		user.ID = stored.ID.String()
	}

	h.respondWithSession(c, user, me.ID)
}

func (h *Handler) storeUser(ctx context.Context, me graph.Me, token string) (database.User, error) {
	arg := database.UpsertUserParams{
		FacebookID: me.ID,
		Name:       me.Name,
		Email:      me.Email,
		PictureURL: me.Picture.Data.URL,
		Now:        h.now(),
	}

	if len(h.Config.TokenEncryptionKey) > 0 {
		ct, nonce, err := authhelp.EncryptToken(token, h.Config.TokenEncryptionKey)
		if err != nil {
			return database.User{}, err
		}
		arg.EncryptedAccessToken = ct
		arg.TokenNonce = nonce
	} else {
		log.Warn().Str("facebook_id", me.ID).Msg("No token encryption key configured, Graph token not stored")
	}

	return h.DB.UpsertUser(ctx, arg)
}

func (h *Handler) respondWithSession(c *gin.Context, user userResponse, facebookID string) {
	signed, err := authhelp.IssueJWT(authhelp.Claims{
		UserID:     user.ID,
		FacebookID: facebookID,
		Name:       user.Name,
	}, h.Config.Auth.JWTSecret, h.Config.Auth.TokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, authResponse{Token: signed, User: user})
}

type refreshRequest struct {
	Token string `json:"token"`
}

func (h *Handler) RefreshHandler(c *gin.Context) {
	var req refreshRequest
	_ = c.ShouldBindJSON(&req)
	if req.Token == "" {
		if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			req.Token = strings.TrimPrefix(auth, "Bearer ")
		}
	}

	claims, err := authhelp.ParseJWT(req.Token, h.Config.Auth.JWTSecret)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	user := userResponse{ID: claims.UserID, Name: claims.Name}
	facebookID := claims.FacebookID

	if h.DB != nil {
		uid, err := uuid.Parse(claims.UserID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
			return
		}
		u, err := h.DB.GetUser(c.Request.Context(), uid)
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
			return
		}
		user = userResponse{ID: u.ID.String(), Name: u.Name, Email: u.Email, Picture: u.PictureURL}
		facebookID = u.FacebookID
	}

	h.respondWithSession(c, user, facebookID)
}

// LogoutHandler is stateless. Tokens expire on their own.
func (h *Handler) LogoutHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}
