package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 0.10, cfg.Risk.MaxPositionPct)
	assert.Equal(t, 5, cfg.Risk.MaxOpenPositions)
	assert.Equal(t, 0.02, cfg.Risk.DailyLossLimitPct)
	assert.Equal(t, 30*time.Minute, cfg.Cache.TTL())
	assert.Equal(t, "127.0.0.1:8087", cfg.Server.Addr())
	assert.Equal(t, 10*time.Second, cfg.Server.Timeout())
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
storage:
  path: /tmp/ledger.db
risk:
  max_open_positions: 3
server:
  port: 9090
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/ledger.db", cfg.Storage.Path)
	assert.Equal(t, 3, cfg.Risk.MaxOpenPositions)
	assert.Equal(t, 9090, cfg.Server.Port)
	// Untouched sections keep defaults.
	assert.Equal(t, 0.02, cfg.Risk.DailyLossLimitPct)
	assert.Equal(t, "09:30", cfg.Market.Open)
}

func TestLoadJSONFallback(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"cache": {"backend": "redis", "redis_addr": "localhost:6379", "ttl_minutes": 15}}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, 15*time.Minute, cfg.Cache.TTL())
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"bad backend":      `{"cache": {"backend": "memcached", "ttl_minutes": 30}}`,
		"redis no addr":    `{"cache": {"backend": "redis", "ttl_minutes": 30}}`,
		"inverted band":    `{"risk": {"max_position_pct": 0.1, "max_open_positions": 5, "daily_loss_limit_pct": 0.02, "min_stop_loss_pct": 0.05, "max_stop_loss_pct": 0.015, "risk_per_trade_pct": 0.01}}`,
		"bad window":       `{"market": {"open": "25:00", "close": "15:15", "timezone": "Asia/Kolkata"}}`,
		"zero rate limit":  `{"server": {"host": "127.0.0.1", "port": 8087, "rate_limit_rps": 0}}`,
		"not parseable":    `{{{`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.json")
			require.NoError(t, os.WriteFile(path, []byte(body), 0644))
			_, err := LoadFromFile(path)
			assert.Error(t, err)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Server.Port = 9999

	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, cfg.SaveToFile(path))

	back, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 9999, back.Server.Port)
}

func TestWindowParsing(t *testing.T) {
	t.Parallel()

	w, err := Default().Market.Window()
	require.NoError(t, err)
	assert.Equal(t, 9, w.OpenHour)
	assert.Equal(t, 30, w.OpenMinute)
	assert.Equal(t, 15, w.CloseHour)
	assert.Equal(t, 15, w.CloseMinute)
}
