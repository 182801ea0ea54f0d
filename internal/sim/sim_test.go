package sim

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/timeline/internal/config"
	"github.com/zeusync/timeline/internal/core/events/bus"
	"github.com/zeusync/timeline/internal/core/models"
	"github.com/zeusync/timeline/internal/core/observability/log"
	"github.com/zeusync/timeline/internal/core/store"
	"github.com/zeusync/timeline/internal/core/systems/physics"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Simulation = config.SimulationConfig{
		Entities:       4,
		Duration:       time.Second,
		TickStep:       100 * time.Millisecond,
		RollbackWindow: 200 * time.Millisecond,
		RollbackEvery:  3,
		Seed:           7,
	}
	cfg.Store.CleanupHorizon = 300 * time.Millisecond
	cfg.Store.CleanupInterval = 500 * time.Millisecond
	return cfg
}

func TestSimulatorRun(t *testing.T) {
	cfg := testConfig()
	require.NoError(t, cfg.Validate())

	s := store.New(store.WithMetrics(true), store.WithEventBus(bus.New()))
	sim := New(cfg, s, log.NewNop())

	report, err := sim.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 10, report.Ticks)
	assert.Equal(t, 3, report.Rollbacks)
	assert.Equal(t, 6, report.Replayed)
	assert.Equal(t, models.FromSeconds(1), report.FinalTime)
	assert.Equal(t, 4, report.Entities)
	assert.Equal(t, 2, report.Components)
	assert.Positive(t, report.Pruned)
	assert.Positive(t, report.Changes)
	assert.Equal(t, uint64(report.Pruned), report.Metrics.KeyframesPruned)

	for _, e := range sim.entities {
		_, state, err := store.Get[physics.Position](s, e, report.FinalTime)
		require.NoError(t, err)
		assert.Equal(t, models.Present, state)
	}
}

func TestSimulatorIsDeterministicPerSeed(t *testing.T) {
	run := func() Report {
		s := store.New()
		r, err := New(testConfig(), s, nil).Run(context.Background())
		require.NoError(t, err)
		return r
	}
	a, b := run(), run()
	assert.Equal(t, a.Keyframes, b.Keyframes)
	assert.InDelta(t, a.MaxDrift, b.MaxDrift, 1e-9)
}

func TestSimulatorStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := New(testConfig(), store.New(), nil).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, report.Ticks)
}
