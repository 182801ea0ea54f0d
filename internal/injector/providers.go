package injector

import (
	"github.com/google/wire"
	"github.com/zeusync/timeline/internal/config"
	"github.com/zeusync/timeline/internal/core/events/bus"
	"github.com/zeusync/timeline/internal/core/observability/log"
	"github.com/zeusync/timeline/internal/core/store"
)

// ProviderSet builds an App from a Config.
var ProviderSet = wire.NewSet(
	ProvideLogger,
	ProvideEventBus,
	ProvideStore,
	NewApp,
)

// App bundles the long-lived services of a process.
type App struct {
	Config config.Config
	Logger *log.Logger
	Bus    bus.EventBus
	Store  *store.Store
}

func NewApp(cfg config.Config, logger *log.Logger, b bus.EventBus, s *store.Store) *App {
	return &App{Config: cfg, Logger: logger, Bus: b, Store: s}
}

func ProvideLogger(cfg config.Config) (*log.Logger, error) {
	return log.NewWithConfig(cfg.Log)
}

func ProvideEventBus() bus.EventBus {
	return bus.New()
}

func ProvideStore(cfg config.Config, logger *log.Logger, b bus.EventBus) *store.Store {
	return store.New(
		store.WithLogger(logger),
		store.WithMetrics(cfg.Store.EnableMetrics),
		store.WithEventBus(b),
		store.WithCleanupConcurrency(cfg.Store.CleanupConcurrency),
	)
}
