package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies BOOKSCOPE_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known BOOKSCOPE_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Venues ──
	setBool(&cfg.Venues.Binance.Enabled, "BOOKSCOPE_VENUES_BINANCE_ENABLED")
	setStr(&cfg.Venues.Binance.WsURL, "BOOKSCOPE_VENUES_BINANCE_WS_URL")
	setStr(&cfg.Venues.Binance.Symbol, "BOOKSCOPE_VENUES_BINANCE_SYMBOL")
	setBool(&cfg.Venues.Bybit.Enabled, "BOOKSCOPE_VENUES_BYBIT_ENABLED")
	setStr(&cfg.Venues.Bybit.WsURL, "BOOKSCOPE_VENUES_BYBIT_WS_URL")
	setStr(&cfg.Venues.Bybit.Symbol, "BOOKSCOPE_VENUES_BYBIT_SYMBOL")
	setBool(&cfg.Venues.OKX.Enabled, "BOOKSCOPE_VENUES_OKX_ENABLED")
	setStr(&cfg.Venues.OKX.WsURL, "BOOKSCOPE_VENUES_OKX_WS_URL")
	setStr(&cfg.Venues.OKX.Symbol, "BOOKSCOPE_VENUES_OKX_SYMBOL")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "BOOKSCOPE_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "BOOKSCOPE_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "BOOKSCOPE_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "BOOKSCOPE_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "BOOKSCOPE_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "BOOKSCOPE_REDIS_TLS_ENABLED")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "BOOKSCOPE_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "BOOKSCOPE_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "BOOKSCOPE_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "BOOKSCOPE_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "BOOKSCOPE_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "BOOKSCOPE_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "BOOKSCOPE_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "BOOKSCOPE_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "BOOKSCOPE_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "BOOKSCOPE_POSTGRES_RUN_MIGRATIONS")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "BOOKSCOPE_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "BOOKSCOPE_S3_REGION")
	setStr(&cfg.S3.Bucket, "BOOKSCOPE_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "BOOKSCOPE_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "BOOKSCOPE_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "BOOKSCOPE_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "BOOKSCOPE_S3_FORCE_PATH_STYLE")

	// ── Sim ──
	setBool(&cfg.Sim.Strict, "BOOKSCOPE_SIM_STRICT")

	// ── Archive ──
	setBool(&cfg.Archive.Enabled, "BOOKSCOPE_ARCHIVE_ENABLED")
	setInt(&cfg.Archive.RetentionDays, "BOOKSCOPE_ARCHIVE_RETENTION_DAYS")
	setDuration(&cfg.Archive.Interval, "BOOKSCOPE_ARCHIVE_INTERVAL")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "BOOKSCOPE_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "BOOKSCOPE_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "BOOKSCOPE_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "BOOKSCOPE_SERVER_API_KEY")
	setInt(&cfg.Server.RateLimit, "BOOKSCOPE_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateLimitWindow, "BOOKSCOPE_SERVER_RATE_LIMIT_WINDOW")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "BOOKSCOPE_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "BOOKSCOPE_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "BOOKSCOPE_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "BOOKSCOPE_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "BOOKSCOPE_MODE")
	setStr(&cfg.LogLevel, "BOOKSCOPE_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
