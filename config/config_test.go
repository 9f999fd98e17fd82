package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "trading:\n  trade_size_usdc: 2\n"))
	require.NoError(t, err)

	assert.InDelta(t, 2.0, cfg.Trading.TradeSizeUSDC, 1e-9)
	assert.Equal(t, 2*time.Minute, cfg.PollInterval())
	assert.Equal(t, 10, cfg.Trading.MaxPositions)
	assert.Equal(t, "https://clob.polymarket.com", cfg.API.CLOBBase)
	assert.Equal(t, "json", cfg.Storage.Backend)
	assert.Equal(t, "state.json", cfg.Storage.Path)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadReadsTradingSection(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
trading:
  interval_seconds: 60
  trade_size_usdc: 10
  max_positions: 4
  daily_cap_usdc: 40
  max_spread_cents: 5
storage:
  backend: sqlite
`))
	require.NoError(t, err)

	limits := cfg.Limits()
	assert.Equal(t, 4, limits.MaxPositions)
	assert.InDelta(t, 40.0, limits.DailyCapUSDC, 1e-9)
	assert.Equal(t, 5, limits.MaxSpreadCents)
	assert.Equal(t, time.Minute, cfg.PollInterval())
	assert.Equal(t, "autobot.db", cfg.Storage.Path, "sqlite backend gets a db default")
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PRIVATE_KEY", "0xdeadbeef")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("POLYGON_RPC", "http://localhost:8545")

	cfg, err := Load(writeConfig(t, "log:\n  level: warn\n"))
	require.NoError(t, err)

	assert.Equal(t, "0xdeadbeef", cfg.PrivateKey)
	assert.Equal(t, "debug", cfg.Log.Level, "env wins over YAML")
	assert.Equal(t, "http://localhost:8545", cfg.API.PolygonRPC)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
