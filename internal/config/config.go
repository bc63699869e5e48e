// Package config defines the top-level configuration for bookscope and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by BOOKSCOPE_* environment variables.
type Config struct {
	Venues   VenuesConfig   `toml:"venues"`
	Redis    RedisConfig    `toml:"redis"`
	Postgres PostgresConfig `toml:"postgres"`
	S3       S3Config       `toml:"s3"`
	Sim      SimConfig      `toml:"sim"`
	Archive  ArchiveConfig  `toml:"archive"`
	Server   ServerConfig   `toml:"server"`
	Notify   NotifyConfig   `toml:"notify"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// VenueConfig holds the stream parameters for one venue.
type VenueConfig struct {
	Enabled bool   `toml:"enabled"`
	WsURL   string `toml:"ws_url"`
	Symbol  string `toml:"symbol"`
}

// VenuesConfig holds per-venue feed configuration.
type VenuesConfig struct {
	Binance VenueConfig `toml:"binance"`
	Bybit   VenueConfig `toml:"bybit"`
	OKX     VenueConfig `toml:"okx"`
}

// Each iterates the configured venues as (tag, config) pairs in a stable
// order, enabled or not.
func (v VenuesConfig) Each() []struct {
	Name string
	Cfg  VenueConfig
} {
	return []struct {
		Name string
		Cfg  VenueConfig
	}{
		{"binance", v.Binance},
		{"bybit", v.Bybit},
		{"okx", v.OKX},
	}
}

// EnabledCount returns the number of venues with the feed enabled.
func (v VenuesConfig) EnabledCount() int {
	n := 0
	for _, e := range v.Each() {
		if e.Cfg.Enabled {
			n++
		}
	}
	return n
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// S3Config holds S3-compatible object storage parameters.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// SimConfig holds book-builder and simulator parameters.
type SimConfig struct {
	// Strict makes the book builder reject a whole snapshot when any level
	// fails numeric parsing, instead of dropping the bad level.
	Strict bool `toml:"strict"`
}

// ArchiveConfig holds the scheduled archival parameters.
type ArchiveConfig struct {
	Enabled       bool     `toml:"enabled"`
	RetentionDays int      `toml:"retention_days"`
	Interval      duration `toml:"interval"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled         bool     `toml:"enabled"`
	Port            int      `toml:"port"`
	CORSOrigins     []string `toml:"cors_origins"`
	APIKey          string   `toml:"api_key"`
	RateLimit       int      `toml:"rate_limit"`
	RateLimitWindow duration `toml:"rate_limit_window"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Venues: VenuesConfig{
			Binance: VenueConfig{
				Enabled: true,
				WsURL:   "wss://stream.binance.com:9443",
				Symbol:  "BTCUSDT",
			},
			Bybit: VenueConfig{
				Enabled: true,
				WsURL:   "wss://stream.bybit.com/v5/public/spot",
				Symbol:  "BTCUSDT",
			},
			OKX: VenueConfig{
				Enabled: true,
				WsURL:   "wss://ws.okx.com:8443/ws/v5/public",
				Symbol:  "BTC-USDT",
			},
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "bookscope",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "bookscope-data",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		Sim: SimConfig{
			Strict: false,
		},
		Archive: ArchiveConfig{
			Enabled:       false,
			RetentionDays: 30,
			Interval:      duration{24 * time.Hour},
		},
		Server: ServerConfig{
			Enabled:         true,
			Port:            8000,
			CORSOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
			RateLimit:       0,
			RateLimitWindow: duration{time.Second},
		},
		Notify: NotifyConfig{
			Events: []string{"venue_connected", "venue_disconnected", "archive_completed", "error"},
		},
		Mode:     "full",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"feed":   true,
	"server": true,
	"full":   true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	mode := strings.ToLower(c.Mode)
	if !validModes[mode] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: feed, server, full)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Venues: the feed needs at least one, and every enabled venue needs a
	// stream URL and a symbol.
	runsFeed := mode == "feed" || mode == "full"
	if runsFeed && c.Venues.EnabledCount() == 0 {
		errs = append(errs, "venues: at least one venue must be enabled for mode "+c.Mode)
	}
	for _, e := range c.Venues.Each() {
		if !e.Cfg.Enabled {
			continue
		}
		if e.Cfg.WsURL == "" {
			errs = append(errs, fmt.Sprintf("venues: %s: ws_url must not be empty", e.Name))
		}
		if e.Cfg.Symbol == "" {
			errs = append(errs, fmt.Sprintf("venues: %s: symbol must not be empty", e.Name))
		}
	}

	// Redis
	if c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	// Postgres: required for the API modes, which persist simulation runs.
	runsServer := mode == "server" || mode == "full"
	if runsServer {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns < 0 {
			errs = append(errs, "postgres: pool_min_conns must be >= 0")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}
	}

	// S3: only needed when archival is on.
	if c.Archive.Enabled {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty when archive is enabled")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when archive is enabled")
		}
		if c.Archive.RetentionDays < 1 {
			errs = append(errs, "archive: retention_days must be >= 1")
		}
		if c.Archive.Interval.Duration < time.Minute {
			errs = append(errs, "archive: interval must be at least 1m")
		}
	}

	// Server
	if c.Server.Enabled && runsServer {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
		if c.Server.RateLimit < 0 {
			errs = append(errs, "server: rate_limit must be >= 0")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
