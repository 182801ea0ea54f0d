package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/zeusync/timeline/internal/core/observability/log"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. TIMELINE_STORE_ENABLE_METRICS.
const EnvPrefix = "TIMELINE_"

var ErrInvalidConfig = errors.New("invalid config")

// Config is the full runtime configuration.
type Config struct {
	Log        log.Config       `yaml:"log" envPrefix:"LOG_"`
	Store      StoreConfig      `yaml:"store" envPrefix:"STORE_"`
	Simulation SimulationConfig `yaml:"simulation" envPrefix:"SIM_"`
}

// StoreConfig tunes the timeline store and its background cleanup.
type StoreConfig struct {
	EnableMetrics      bool          `yaml:"enable_metrics" env:"ENABLE_METRICS"`
	CleanupHorizon     time.Duration `yaml:"cleanup_horizon" env:"CLEANUP_HORIZON"`         // History kept behind the present
	CleanupInterval    time.Duration `yaml:"cleanup_interval" env:"CLEANUP_INTERVAL"`       // Simulated time between cleanups
	CleanupConcurrency int           `yaml:"cleanup_concurrency" env:"CLEANUP_CONCURRENCY"` // <= 0 is unbounded
}

// SimulationConfig drives cmd/timeline-sim.
type SimulationConfig struct {
	Entities       int           `yaml:"entities" env:"ENTITIES"`
	Duration       time.Duration `yaml:"duration" env:"DURATION"`               // Simulated time to run
	TickStep       time.Duration `yaml:"tick_step" env:"TICK_STEP"`             // Simulated time per tick
	RollbackWindow time.Duration `yaml:"rollback_window" env:"ROLLBACK_WINDOW"` // How far back corrections land
	RollbackEvery  int           `yaml:"rollback_every" env:"ROLLBACK_EVERY"`   // Ticks between corrections, 0 disables
	Seed           int64         `yaml:"seed" env:"SEED"`
}

// Default returns the configuration used when no file or environment is given.
func Default() Config {
	return Config{
		Log: log.DefaultConfig(),
		Store: StoreConfig{
			EnableMetrics:      true,
			CleanupHorizon:     2 * time.Second,
			CleanupInterval:    time.Second,
			CleanupConcurrency: 4,
		},
		Simulation: SimulationConfig{
			Entities:       64,
			Duration:       30 * time.Second,
			TickStep:       50 * time.Millisecond,
			RollbackWindow: 200 * time.Millisecond,
			RollbackEvery:  10,
			Seed:           1,
		},
	}
}

// Load reads path (skipped when empty) over the defaults, then applies
// TIMELINE_* environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return cfg, fmt.Errorf("open config: %w", err)
		}
		defer func() { _ = f.Close() }()
		if err = Decode(f, &cfg); err != nil {
			return cfg, err
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// Decode reads YAML from r into cfg. Unknown keys are rejected.
func Decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Store.CleanupHorizon < 0 {
		errs = append(errs, fmt.Errorf("store.cleanup_horizon must not be negative, got %s", c.Store.CleanupHorizon))
	}
	if c.Store.CleanupInterval < 0 {
		errs = append(errs, fmt.Errorf("store.cleanup_interval must not be negative, got %s", c.Store.CleanupInterval))
	}
	if c.Simulation.Entities < 0 {
		errs = append(errs, fmt.Errorf("simulation.entities must not be negative, got %d", c.Simulation.Entities))
	}
	if c.Simulation.TickStep <= 0 {
		errs = append(errs, fmt.Errorf("simulation.tick_step must be positive, got %s", c.Simulation.TickStep))
	}
	if c.Simulation.RollbackEvery < 0 {
		errs = append(errs, fmt.Errorf("simulation.rollback_every must not be negative, got %d", c.Simulation.RollbackEvery))
	}
	if c.Store.CleanupInterval > 0 && c.Simulation.RollbackWindow > c.Store.CleanupHorizon {
		errs = append(errs, fmt.Errorf("simulation.rollback_window %s reaches behind store.cleanup_horizon %s",
			c.Simulation.RollbackWindow, c.Store.CleanupHorizon))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}
