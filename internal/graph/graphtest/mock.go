// SPDX-License-Identifier: AGPL-3.0-only

// Package graphtest provides a testify mock of graph.Client.
package graphtest

import (
	"context"

	"github.com/SejalWadi/Meta-Analytics-Pro/internal/graph"
	"github.com/stretchr/testify/mock"
	"golang.org/x/oauth2"
)

type MockClient struct {
	mock.Mock
}

var _ graph.Client = (*MockClient)(nil)

func (m *MockClient) GetMe(ctx context.Context, token string) (graph.Me, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(graph.Me), args.Error(1)
}

func (m *MockClient) GetAccounts(ctx context.Context, token string) ([]graph.Page, error) {
	args := m.Called(ctx, token)
	pages, _ := args.Get(0).([]graph.Page)
	return pages, args.Error(1)
}

func (m *MockClient) GetInsights(ctx context.Context, objectID, token string, q graph.InsightQuery) ([]graph.Insight, error) {
	args := m.Called(ctx, objectID, token, q)
	insights, _ := args.Get(0).([]graph.Insight)
	return insights, args.Error(1)
}

func (m *MockClient) GetPosts(ctx context.Context, pageID, token string, limit int) ([]graph.PagePost, error) {
	args := m.Called(ctx, pageID, token, limit)
	posts, _ := args.Get(0).([]graph.PagePost)
	return posts, args.Error(1)
}

func (m *MockClient) GetMedia(ctx context.Context, igUserID, token string, limit int) ([]graph.Media, error) {
	args := m.Called(ctx, igUserID, token, limit)
	media, _ := args.Get(0).([]graph.Media)
	return media, args.Error(1)
}

func (m *MockClient) ExchangeLongLivedToken(ctx context.Context, shortToken string, cfg *oauth2.Config) (string, error) {
	args := m.Called(ctx, shortToken, cfg)
	return args.String(0), args.Error(1)
}
