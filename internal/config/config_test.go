package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/timeline/internal/core/observability/log"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  level: debug
  encoding: console
store:
  cleanup_horizon: 5s
  cleanup_concurrency: 2
simulation:
  entities: 8
  tick_step: 20ms
`), 0o600))

	t.Setenv("TIMELINE_STORE_CLEANUP_CONCURRENCY", "6")
	t.Setenv("TIMELINE_SIM_SEED", "42")
	t.Setenv("TIMELINE_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, log.LevelWarn, cfg.Log.Level, "environment wins over the file")
	assert.Equal(t, "console", cfg.Log.Encoding)
	assert.Equal(t, 5*time.Second, cfg.Store.CleanupHorizon)
	assert.Equal(t, 6, cfg.Store.CleanupConcurrency)
	assert.Equal(t, 8, cfg.Simulation.Entities)
	assert.Equal(t, 20*time.Millisecond, cfg.Simulation.TickStep)
	assert.Equal(t, int64(42), cfg.Simulation.Seed)
	assert.Equal(t, Default().Simulation.Duration, cfg.Simulation.Duration, "unset keys keep defaults")
}

func TestDecodeRejectsUnknownKeys(t *testing.T) {
	cfg := Default()
	err := Decode(strings.NewReader("store:\n  nope: 1\n"), &cfg)
	assert.Error(t, err)

	cfg = Default()
	require.NoError(t, Decode(strings.NewReader(""), &cfg))
	assert.Equal(t, Default(), cfg)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Simulation.TickStep = 0
	cfg.Store.CleanupHorizon = -time.Second

	err := cfg.Validate()
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "tick_step")
	assert.Contains(t, err.Error(), "cleanup_horizon")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
