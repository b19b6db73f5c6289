// SPDX-License-Identifier: AGPL-3.0-only

// Package cache stores rendered metrics views for a bounded time so repeated
// dashboard loads do not hit the Graph API.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/SejalWadi/Meta-Analytics-Pro/internal/config"
	"github.com/rs/zerolog/log"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
	Close() error
}

// New picks a backend from cfg.Cache.Backend.
func New(cfg config.Config) (Store, error) {
	switch cfg.Cache.Backend {
	case BackendMemory, "":
		return NewMemory(cfg.Cache)
	case BackendRedis:
		return NewRedis(context.Background(), cfg.Redis)
	case BackendNone:
		log.Info().Msg("Metrics cache disabled")
		return Noop{}, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

// GetJSON decodes a cached value into out. Undecodable entries count as misses.
func GetJSON(ctx context.Context, s Store, key string, out any) bool {
	b, ok := s.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(b, out); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Discarding undecodable cache entry")
		s.Delete(ctx, key)
		return false
	}
	return true
}

func SetJSON(ctx context.Context, s Store, key string, v any, ttl time.Duration) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Value not cacheable")
		return
	}
	s.Set(ctx, key, b, ttl)
}

type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, bool) { return nil, false }
func (Noop) Set(context.Context, string, []byte, time.Duration) {}
func (Noop) Delete(context.Context, string) {}
func (Noop) Close() error { return nil }
