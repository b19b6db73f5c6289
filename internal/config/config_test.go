// SPDX-License-Identifier: AGPL-3.0-only
package config

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("POSTGRES_DB", "")
	t.Setenv("PORT", "")

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "3001", cfg.Server.Port)
	assert.Equal(t, "v18.0", cfg.Facebook.APIVersion)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 15*time.Minute, cfg.CacheTTL())
	assert.Equal(t, 1.5, cfg.Metrics.ImpressionsPerReach)
	assert.Equal(t, 30, cfg.Metrics.DefaultRangeDays)
	assert.Empty(t, cfg.PostgresDSN())
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("POSTGRES_DB", "analytics")
	t.Setenv("POSTGRES_USER", "meta")
	t.Setenv("POSTGRES_PASSWORD", "p@ss")
	t.Setenv("METRICS_CACHE_BACKEND", "redis")

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, "postgres://meta:p%40ss@db:5432/analytics?sslmode=disable", cfg.PostgresDSN())
}

func TestNewAppConfigKey(t *testing.T) {
	key := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("k", 32)))

	app := NewAppConfig(Config{Auth: AuthConfig{TokenEncryptionKey: key}, Metrics: MetricsConfig{Timezone: "UTC"}})
	assert.NoError(t, app.KeyB64Err)
	assert.Len(t, app.TokenEncryptionKey, 32)
	assert.Equal(t, time.UTC, app.Location)
	require.NotNil(t, app.FBConfig)

	app = NewAppConfig(Config{Auth: AuthConfig{TokenEncryptionKey: "not base64!"}})
	assert.Error(t, app.KeyB64Err)
	assert.Nil(t, app.TokenEncryptionKey)

	short := base64.StdEncoding.EncodeToString([]byte("short"))
	app = NewAppConfig(Config{Auth: AuthConfig{TokenEncryptionKey: short}})
	assert.ErrorContains(t, app.KeyB64Err, "32 bytes")
}

func TestNewAppConfigUnknownTimezone(t *testing.T) {
	app := NewAppConfig(Config{Metrics: MetricsConfig{Timezone: "Mars/Olympus"}})
	assert.Equal(t, time.Local, app.Location)
}
