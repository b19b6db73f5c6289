// SPDX-License-Identifier: AGPL-3.0-only
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/SejalWadi/Meta-Analytics-Pro/internal/authhelp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"golang.org/x/oauth2"
)

const AppVersion = "v1.4.0"

type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	LogLevel       string   `mapstructure:"log_level"`
	PrettyLogs     bool     `mapstructure:"pretty_logs"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	DB       string `mapstructure:"db"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

type FacebookConfig struct {
	AppID       string `mapstructure:"app_id"`
	AppSecret   string `mapstructure:"app_secret"`
	CallbackURL string `mapstructure:"callback_url"`
	APIVersion  string `mapstructure:"api_version"`
	GraphURL    string `mapstructure:"graph_url"`
	TimeoutSec  int    `mapstructure:"timeout_seconds"`
}

type AuthConfig struct {
	JWTSecret          string        `mapstructure:"jwt_secret"`
	TokenTTL           time.Duration `mapstructure:"token_ttl"`
	TokenEncryptionKey string        `mapstructure:"token_encryption_key"`
	OauthStateKey      string        `mapstructure:"oauth_state_key"`
}

type CacheConfig struct {
	Backend     string `mapstructure:"backend"`
	TTLSeconds  int    `mapstructure:"ttl_seconds"`
	MaxSizeMB   int    `mapstructure:"max_size_mb"`
	CounterSize int    `mapstructure:"counter_size"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type WorkerConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}

type MetricsConfig struct {
	ImpressionsPerReach float64 `mapstructure:"impressions_per_reach"`
	TopPostsLimit       int     `mapstructure:"top_posts_limit"`
	DefaultRangeDays    int     `mapstructure:"default_range_days"`
	Timezone            string  `mapstructure:"timezone"`
}

type ReportsConfig struct {
	OutputDir string `mapstructure:"output_dir"`
}

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Postgres  PostgresConfig  `mapstructure:"postgres"`
	Facebook  FacebookConfig  `mapstructure:"facebook"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Redis     RedisConfig     `mapstructure:"redis"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Worker    WorkerConfig    `mapstructure:"worker"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Reports   ReportsConfig   `mapstructure:"reports"`
}

// AppConfig is the runtime view handed to handlers. Startup problems are
// recorded here instead of aborting so /health can report them.
type AppConfig struct {
	Config

	FBConfig           *oauth2.Config
	TokenEncryptionKey []byte
	Location           *time.Location

	DBInitErr error
	KeyB64Err error
}

// Load reads config.yaml (optional) and METRICS_* environment variables.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config

	v.AddConfigPath(".")
	v.AddConfigPath("/etc/meta-analytics")
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("METRICS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, env := range map[string]string{
		"postgres.db":         "POSTGRES_DB",
		"postgres.user":       "POSTGRES_USER",
		"postgres.password":   "POSTGRES_PASSWORD",
		"postgres.host":       "POSTGRES_HOST",
		"facebook.app_id":     "FACEBOOK_APP_ID",
		"facebook.app_secret": "FACEBOOK_APP_SECRET",
		"auth.jwt_secret":     "JWT_SECRET",
		"server.port":         "PORT",
	} {
		if err := v.BindEnv(key, "METRICS_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return cfg, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return cfg, fmt.Errorf("reading config file: %w", err)
		}
		log.Debug().Msg("No config file found, using defaults and environment")
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "3001")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173"})
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.pretty_logs", false)

	v.SetDefault("postgres.host", "db")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.sslmode", "disable")

	v.SetDefault("facebook.api_version", "v18.0")
	v.SetDefault("facebook.graph_url", "https://graph.facebook.com")
	v.SetDefault("facebook.callback_url", "http://localhost:3001/api/auth/facebook/callback")
	v.SetDefault("facebook.timeout_seconds", 30)

	v.SetDefault("auth.token_ttl", 7*24*time.Hour)

	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.ttl_seconds", 900)
	v.SetDefault("cache.max_size_mb", 64)
	v.SetDefault("cache.counter_size", 100000)

	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("ratelimit.requests_per_second", 0.11)
	v.SetDefault("ratelimit.burst", 100)

	v.SetDefault("worker.enabled", true)
	v.SetDefault("worker.interval", 6*time.Hour)

	v.SetDefault("metrics.impressions_per_reach", 1.5)
	v.SetDefault("metrics.top_posts_limit", 10)
	v.SetDefault("metrics.default_range_days", 30)
	v.SetDefault("metrics.timezone", "Local")

	v.SetDefault("reports.output_dir", "outputs")
}

// NewAppConfig derives runtime values from cfg.
func NewAppConfig(cfg Config) *AppConfig {
	app := &AppConfig{Config: cfg}

	app.FBConfig = authhelp.GenerateFacebookConfig(cfg.Facebook.AppID, cfg.Facebook.AppSecret, cfg.Facebook.CallbackURL)

	if cfg.Auth.TokenEncryptionKey != "" {
		key, err := base64.StdEncoding.DecodeString(cfg.Auth.TokenEncryptionKey)
		switch {
		case err != nil:
			app.KeyB64Err = fmt.Errorf("token encryption key is not valid base64: %w", err)
		case len(key) != 32:
			app.KeyB64Err = fmt.Errorf("token encryption key must decode to 32 bytes, got %d", len(key))
		default:
			app.TokenEncryptionKey = key
		}
	}

	loc, err := time.LoadLocation(cfg.Metrics.Timezone)
	if err != nil {
		log.Warn().Err(err).Str("timezone", cfg.Metrics.Timezone).Msg("Unknown timezone, using local time")
		loc = time.Local
	}
	app.Location = loc

	return app
}

// PostgresDSN returns an empty string when the database is not configured.
func (c Config) PostgresDSN() string {
	p := c.Postgres
	if p.DB == "" || p.User == "" || p.Password == "" {
		return ""
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Password),
		Host:     fmt.Sprintf("%s:%d", p.Host, p.Port),
		Path:     p.DB,
		RawQuery: "sslmode=" + p.SSLMode,
	}
	return u.String()
}

func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}
