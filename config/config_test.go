package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"LOG_LEVEL", "LOG_FORMAT", "MANIFOLD_API_BASE", "KELLY_BALANCE"} {
		t.Setenv(k, "")
	}
}

func TestLoad_Full(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
kelly:
  deference: 0.75
  iterations: 20
bankroll:
  balance: 2500
  illiquid_ev: 300
cache:
  ttl_seconds: 5
advisor:
  interval_seconds: 60
  workers: 4
  min_amount: 1.5
watchlist:
  - slug: a
    estimate: 0.6
  - slug: b
    estimate: 0.2
storage:
  dsn: ":memory:"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.75, cfg.Kelly.Deference)
	assert.Equal(t, 20, cfg.Kelly.Iterations)
	assert.Equal(t, 1e-6, cfg.Kelly.Tolerance) // default
	assert.Equal(t, 0.1, cfg.Kelly.AMMStep)    // default
	assert.Equal(t, 2500.0, cfg.Bankroll.Balance)
	assert.Equal(t, 300.0, cfg.Bankroll.IlliquidEV)
	assert.Equal(t, 5*time.Second, cfg.CacheTTL())
	assert.Equal(t, time.Minute, cfg.Interval())
	assert.Equal(t, 4, cfg.Advisor.Workers)
	assert.Equal(t, 1.5, cfg.Advisor.MinAmount)
	require.Len(t, cfg.Watchlist, 2)
	assert.Equal(t, WatchlistEntry{Slug: "b", Estimate: 0.2}, cfg.Watchlist[1])
	assert.Equal(t, ":memory:", cfg.Storage.DSN)
	assert.Equal(t, "https://api.manifold.markets", cfg.API.ManifoldBase)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("MANIFOLD_API_BASE", "http://localhost:9999")
	t.Setenv("KELLY_BALANCE", "42.5")

	cfg, err := Load(writeConfig(t, "bankroll:\n  balance: 1000\n"))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "http://localhost:9999", cfg.API.ManifoldBase)
	assert.Equal(t, 42.5, cfg.Bankroll.Balance)
}

func TestLoad_InvalidBalanceEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("KELLY_BALANCE", "lots")

	_, err := Load(writeConfig(t, "{}\n"))
	assert.Error(t, err)
}

func TestLoad_Validation(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"deference above 1", "kelly:\n  deference: 1.5\n"},
		{"negative balance", "bankroll:\n  balance: -1\n"},
		{"negative illiquid", "bankroll:\n  illiquid_ev: -5\n"},
		{"empty slug", "watchlist:\n  - estimate: 0.5\n"},
		{"estimate out of range", "watchlist:\n  - slug: x\n    estimate: 2\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			_, err := Load(writeConfig(t, tc.body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_BadYAML(t *testing.T) {
	clearEnv(t)
	_, err := Load(writeConfig(t, "kelly: [unclosed\n"))
	assert.Error(t, err)
}
