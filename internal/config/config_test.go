package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults_Validate(t *testing.T) {
	cfg := Defaults()
	assert.NoError(t, cfg.Validate())
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "replay"
	cfg.LogLevel = "chatty"
	cfg.Redis.Addr = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown mode "replay"`)
	assert.Contains(t, err.Error(), `unknown log_level "chatty"`)
	assert.Contains(t, err.Error(), "redis: addr must not be empty")
}

func TestValidate_EnabledVenueNeedsURLAndSymbol(t *testing.T) {
	cfg := Defaults()
	cfg.Venues.Bybit.WsURL = ""
	cfg.Venues.Bybit.Symbol = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "venues: bybit: ws_url must not be empty")
	assert.Contains(t, err.Error(), "venues: bybit: symbol must not be empty")
}

func TestValidate_FeedModeNeedsAVenue(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "feed"
	cfg.Venues.Binance.Enabled = false
	cfg.Venues.Bybit.Enabled = false
	cfg.Venues.OKX.Enabled = false

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one venue must be enabled")
}

func TestValidate_FeedModeSkipsPostgres(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "feed"
	cfg.Postgres.Host = ""
	cfg.Postgres.Database = ""

	assert.NoError(t, cfg.Validate())
}

func TestValidate_ArchiveNeedsS3(t *testing.T) {
	cfg := Defaults()
	cfg.Archive.Enabled = true
	cfg.S3.Bucket = ""
	cfg.Archive.Interval = duration{time.Second}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3: bucket must not be empty")
	assert.Contains(t, err.Error(), "archive: interval must be at least 1m")
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("BOOKSCOPE_MODE", "server")
	t.Setenv("BOOKSCOPE_REDIS_ADDR", "redis.internal:6380")
	t.Setenv("BOOKSCOPE_VENUES_OKX_ENABLED", "false")
	t.Setenv("BOOKSCOPE_ARCHIVE_INTERVAL", "6h")
	t.Setenv("BOOKSCOPE_SERVER_CORS_ORIGINS", "https://a.example, https://b.example")

	cfg := Defaults()
	applyEnvOverrides(&cfg)

	assert.Equal(t, "server", cfg.Mode)
	assert.Equal(t, "redis.internal:6380", cfg.Redis.Addr)
	assert.False(t, cfg.Venues.OKX.Enabled)
	assert.Equal(t, 6*time.Hour, cfg.Archive.Interval.Duration)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
}

func TestRedactedConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Redis.Password = "hunter2"
	cfg.Postgres.Password = "hunter2"
	cfg.Server.APIKey = "secret-key"
	cfg.Notify.TelegramToken = "123:abc"

	red := RedactedConfig(&cfg)

	assert.Equal(t, "***", red.Redis.Password)
	assert.Equal(t, "***", red.Postgres.Password)
	assert.Equal(t, "***", red.Server.APIKey)
	assert.Equal(t, "***", red.Notify.TelegramToken)

	// The original stays untouched.
	assert.Equal(t, "hunter2", cfg.Redis.Password)
}
