// SPDX-License-Identifier: AGPL-3.0-only

// Package graph is a small client for the parts of the Meta Graph API used
// by the dashboard: the viewer, their pages and Instagram business accounts,
// insights, page posts and Instagram media.
package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	DefaultBaseURL = "https://graph.facebook.com"
	DefaultVersion = "v18.0"

	maxPages     = 50
	pageSize     = 100
	maxBodyBytes = 8 << 20
)

type Client interface {
	GetMe(ctx context.Context, token string) (Me, error)
	GetAccounts(ctx context.Context, token string) ([]Page, error)
	GetInsights(ctx context.Context, objectID, token string, q InsightQuery) ([]Insight, error)
	GetPosts(ctx context.Context, pageID, token string, limit int) ([]PagePost, error)
	GetMedia(ctx context.Context, igUserID, token string, limit int) ([]Media, error)
	ExchangeLongLivedToken(ctx context.Context, shortToken string, cfg *oauth2.Config) (string, error)
}

type HTTPClient struct {
	baseURL    string
	version    string
	httpClient *http.Client
}

var _ Client = (*HTTPClient)(nil)

func NewHTTPClient(baseURL, version string, timeout time.Duration) *HTTPClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if version == "" {
		version = DefaultVersion
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		version: version,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *HTTPClient) endpoint(path string, params url.Values) string {
	return fmt.Sprintf("%s/%s/%s?%s", c.baseURL, c.version, strings.TrimLeft(path, "/"), params.Encode())
}

func (c *HTTPClient) fetch(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("graph: building request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("graph: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("graph: reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("graph: decoding response: %w", err)
	}
	return nil
}

func decodeError(status int, body []byte) error {
	var wrapped struct {
		Error *APIError `json:"error"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Error != nil {
		wrapped.Error.HTTPStatus = status
		return wrapped.Error
	}
	return &APIError{HTTPStatus: status}
}

// collect follows paging.next until limit items are gathered, the cursor
// ends or maxPages is reached. limit <= 0 means no item cap.
func collect[T any](ctx context.Context, c *HTTPClient, first string, limit int) ([]T, error) {
	var items []T
	next := first

	for page := 0; page < maxPages && next != ""; page++ {
		var env envelope[T]
		if err := c.fetch(ctx, next, &env); err != nil {
			return items, err
		}
		items = append(items, env.Data...)

		if limit > 0 && len(items) >= limit {
			return items[:limit], nil
		}
		if len(env.Data) == 0 {
			break
		}
		next = env.Paging.Next
	}
	return items, nil
}

func pageLimit(limit int) string {
	if limit <= 0 || limit > pageSize {
		return strconv.Itoa(pageSize)
	}
	return strconv.Itoa(limit)
}

func (c *HTTPClient) GetMe(ctx context.Context, token string) (Me, error) {
	var me Me
	params := url.Values{}
	params.Set("fields", "id,name,email,picture")
	params.Set("access_token", token)

	if err := c.fetch(ctx, c.endpoint("me", params), &me); err != nil {
		return Me{}, err
	}
	return me, nil
}

func (c *HTTPClient) GetAccounts(ctx context.Context, token string) ([]Page, error) {
	params := url.Values{}
	params.Set("fields", "id,name,fan_count,access_token,instagram_business_account{id,name,username,followers_count}")
	params.Set("limit", pageLimit(0))
	params.Set("access_token", token)

	return collect[Page](ctx, c, c.endpoint("me/accounts", params), 0)
}

func (c *HTTPClient) GetInsights(ctx context.Context, objectID, token string, q InsightQuery) ([]Insight, error) {
	params := url.Values{}
	params.Set("metric", strings.Join(q.Metrics, ","))
	if q.Period != "" {
		params.Set("period", q.Period)
	}
	if !q.Since.IsZero() {
		params.Set("since", strconv.FormatInt(q.Since.Unix(), 10))
	}
	if !q.Until.IsZero() {
		params.Set("until", strconv.FormatInt(q.Until.Unix(), 10))
	}
	params.Set("access_token", token)

	var env envelope[Insight]
	if err := c.fetch(ctx, c.endpoint(objectID+"/insights", params), &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

func (c *HTTPClient) GetPosts(ctx context.Context, pageID, token string, limit int) ([]PagePost, error) {
	params := url.Values{}
	params.Set("fields", "id,message,story,status_type,created_time,"+
		"likes.summary(true).limit(0),comments.summary(true).limit(0),shares,"+
		"reactions.summary(true).limit(0),insights.metric(post_impressions_unique)")
	params.Set("limit", pageLimit(limit))
	params.Set("access_token", token)

	return collect[PagePost](ctx, c, c.endpoint(pageID+"/posts", params), limit)
}

func (c *HTTPClient) GetMedia(ctx context.Context, igUserID, token string, limit int) ([]Media, error) {
	params := url.Values{}
	params.Set("fields", "id,caption,media_type,like_count,comments_count,timestamp,insights.metric(reach)")
	params.Set("limit", pageLimit(limit))
	params.Set("access_token", token)

	return collect[Media](ctx, c, c.endpoint(igUserID+"/media", params), limit)
}

// ExchangeLongLivedToken trades a short-lived user token for a ~60 day one.
func (c *HTTPClient) ExchangeLongLivedToken(ctx context.Context, shortToken string, cfg *oauth2.Config) (string, error) {
	params := url.Values{}
	params.Add("grant_type", "fb_exchange_token")
	params.Add("client_id", cfg.ClientID)
	params.Add("client_secret", cfg.ClientSecret)
	params.Add("fb_exchange_token", shortToken)

	var res struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := c.fetch(ctx, c.endpoint("oauth/access_token", params), &res); err != nil {
		return "", err
	}
	if res.AccessToken == "" {
		return "", fmt.Errorf("graph: token exchange returned no access token")
	}
	return res.AccessToken, nil
}
