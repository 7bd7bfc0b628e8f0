package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Defaults().Server.Port, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Storage.Backend)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
owner = "operator"

[server]
port = 9100

[market]
dispute_window = "12h"
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "operator", cfg.Owner)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, 12*time.Hour, cfg.Market.DisputeWindow.Duration)

	// Untouched sections keep their defaults.
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, 0.1, cfg.Market.MinDisputeBond)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("MARKETD_OWNER", "env-owner")
	t.Setenv("MARKETD_SERVER_PORT", "9200")
	t.Setenv("MARKETD_REDIS_ENABLED", "true")
	t.Setenv("MARKETD_MARKET_MIN_DISPUTE_BOND", "0.5")
	t.Setenv("MARKETD_MARKET_DISPUTE_WINDOW", "36h")
	t.Setenv("MARKETD_SERVER_CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "env-owner", cfg.Owner)
	assert.Equal(t, 9200, cfg.Server.Port)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 0.5, cfg.Market.MinDisputeBond)
	assert.Equal(t, 36*time.Hour, cfg.Market.DisputeWindow.Duration)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
}

func TestLoad_EnvIgnoresMalformedValues(t *testing.T) {
	t.Setenv("MARKETD_SERVER_PORT", "not-a-port")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Defaults().Server.Port, cfg.Server.Port)
}
