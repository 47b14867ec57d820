package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 7, cfg.Game.HandSize)
	assert.Equal(t, 30*time.Second, cfg.Game.TurnAllotment())
	assert.Equal(t, 500*time.Millisecond, cfg.Game.ClockTick())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.Redis.Addr)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `
server:
  port: 9090
game:
  turn_seconds: 15
  fill_with_ai: 4
limits:
  actions_per_second: 2
redis:
  addr: localhost:6379
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Game.TurnAllotment())
	assert.Equal(t, 4, cfg.Game.FillWithAI)
	assert.Equal(t, 2.0, cfg.Limits.ActionsPerSecond)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	// untouched sections keep defaults
	assert.Equal(t, 7, cfg.Game.HandSize)
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("UNOROOM_PORT", "7777")
	t.Setenv("UNOROOM_REDIS_ADDR", "redis:6379")
	t.Setenv("UNOROOM_LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 7777, cfg.Server.Port)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)
}
