// SPDX-License-Identifier: AGPL-3.0-only
package cache

import (
	"context"
	"time"

	"github.com/SejalWadi/Meta-Analytics-Pro/internal/config"
	"github.com/dgraph-io/ristretto"
	"github.com/rs/zerolog/log"
)

// Memory is an in-process cache bounded by total value size.
type Memory struct {
	client *ristretto.Cache
}

func NewMemory(cfg config.CacheConfig) (*Memory, error) {
	maxCost := int64(cfg.MaxSizeMB) * 1024 * 1024
	if maxCost <= 0 {
		maxCost = 64 << 20
	}
	counters := int64(cfg.CounterSize)
	if counters <= 0 {
		counters = 100000
	}

	client, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: counters,
		MaxCost:     maxCost,
		BufferItems: 64,
		Metrics:     true,
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Int("max_size_mb", cfg.MaxSizeMB).
		Int("ttl_seconds", cfg.TTLSeconds).
		Int("counter_size", cfg.CounterSize).
		Msg("Metrics cache initialized")

	return &Memory{client: client}, nil
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	v, ok := m.client.Get(key)
	if !ok {
		return nil, false
	}
	b, ok := v.([]byte)
	return b, ok
}

// Set blocks until the write is visible to readers.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	if m.client.SetWithTTL(key, value, int64(len(value)), ttl) {
		m.client.Wait()
	}
}

func (m *Memory) Delete(_ context.Context, key string) {
	m.client.Del(key)
}

func (m *Memory) Close() error {
	m.client.Close()
	return nil
}

type Stats struct {
	Hits     uint64  `json:"hits"`
	Misses   uint64  `json:"misses"`
	HitRatio float64 `json:"hit_ratio"`
	Evicted  uint64  `json:"keys_evicted"`
}

func (m *Memory) Stats() Stats {
	mt := m.client.Metrics
	if mt == nil {
		return Stats{}
	}
	return Stats{
		Hits:     mt.Hits(),
		Misses:   mt.Misses(),
		HitRatio: mt.Ratio(),
		Evicted:  mt.KeysEvicted(),
	}
}
