// SPDX-License-Identifier: AGPL-3.0-only
package authhelp

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const DefaultTokenTTL = 7 * 24 * time.Hour

// Session and OAuth state tokens share a secret by default, so each carries
// its own audience and neither parser accepts the other.
const (
	sessionAudience = "meta-analytics"
	stateAudience   = "oauth_state"
)

var ErrInvalidToken = errors.New("invalid or expired token")

type Claims struct {
	UserID     string `json:"userId"`
	FacebookID string `json:"facebookId"`
	Name       string `json:"name"`
	jwt.RegisteredClaims
}

// IssueJWT signs claims with HS256. A zero ttl falls back to DefaultTokenTTL.
func IssueJWT(claims Claims, secret string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret is not configured")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   claims.UserID,
		Audience:  jwt.ClaimStrings{sessionAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

func ParseJWT(token, secret string) (*Claims, error) {
	claims := &Claims{}
	if err := parse(token, secret, sessionAudience, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// IssueState signs an OAuth state value carrying nonce. The nonce is also
// handed to the browser as a cookie and compared on callback.
func IssueState(nonce, secret string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret is not configured")
	}
	if nonce == "" {
		return "", errors.New("state nonce is empty")
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		ID:        nonce,
		Audience:  jwt.ClaimStrings{stateAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing state: %w", err)
	}
	return signed, nil
}

// ParseState returns the nonce of a state issued by IssueState.
func ParseState(token, secret string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	if err := parse(token, secret, stateAudience, claims); err != nil {
		return "", err
	}
	if claims.ID == "" {
		return "", ErrInvalidToken
	}
	return claims.ID, nil
}

func parse(token, secret, audience string, claims jwt.Claims) error {
	if secret == "" {
		return ErrInvalidToken
	}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return ErrInvalidToken
	}
	return nil
}
