package store

import (
	"github.com/zeusync/timeline/internal/core/events/bus"
	"github.com/zeusync/timeline/internal/core/observability/log"
	"github.com/zeusync/timeline/internal/core/schema/registry"
)

// Option configures a Store.
type Option func(*Config)

// Config holds the construction parameters of a Store.
type Config struct {
	Logger             log.Log         // Destination for store diagnostics
	EnableMetrics      bool            // Flag to enable/disable counters
	Bus                bus.EventBus    // Receives component change events, may be nil
	Table              *registry.Table // Shared component type table
	CleanupConcurrency int             // Max registries pruned at once, <= 0 is unbounded
}

// WithLogger sets the logger used by the store.
func WithLogger(l log.Log) Option {
	return func(c *Config) { c.Logger = l }
}

// WithMetrics enables or disables metrics collection.
func WithMetrics(enabled bool) Option {
	return func(c *Config) { c.EnableMetrics = enabled }
}

// WithEventBus sets the bus receiving component change events.
func WithEventBus(b bus.EventBus) Option {
	return func(c *Config) { c.Bus = b }
}

// WithTable shares a component type table between stores.
func WithTable(tbl *registry.Table) Option {
	return func(c *Config) { c.Table = tbl }
}

// WithCleanupConcurrency bounds how many type registries Cleanup prunes in parallel.
func WithCleanupConcurrency(n int) Option {
	return func(c *Config) { c.CleanupConcurrency = n }
}
