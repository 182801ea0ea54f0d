package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/profile"
	"github.com/zeusync/timeline/internal/config"
	"github.com/zeusync/timeline/internal/core/observability/log"
	"github.com/zeusync/timeline/internal/injector"
	"github.com/zeusync/timeline/internal/sim"
)

func main() {
	os.Exit(realMain())
}

func realMain() int {
	configPath := flag.String("config", "", "path to a YAML config file")
	profileMode := flag.String("profile", "", "write a profile to the current directory: cpu or mem")
	flag.Parse()

	switch *profileMode {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	default:
		fmt.Fprintf(os.Stderr, "unknown profile mode %q\n", *profileMode)
		return 2
	}

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "timeline-sim:", err)
		return 1
	}
	return 0
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	app, err := injector.InitializeApp(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = app.Logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app.Logger.Info("simulation starting",
		log.Int("entities", cfg.Simulation.Entities),
		log.Duration("duration", cfg.Simulation.Duration),
		log.Duration("tick_step", cfg.Simulation.TickStep),
		log.Duration("rollback_window", cfg.Simulation.RollbackWindow),
	)

	report, err := sim.New(cfg, app.Store, app.Logger).Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	app.Logger.Info("simulation finished",
		log.Bool("interrupted", err != nil),
		log.Stringer("time", report.FinalTime),
		log.Int("ticks", report.Ticks),
		log.Int("rollbacks", report.Rollbacks),
		log.Int("replayed_ticks", report.Replayed),
		log.Float64("max_drift", report.MaxDrift),
		log.Int("pruned", report.Pruned),
		log.Int("keyframes", report.Keyframes),
		log.Uint64("changes", report.Changes),
		log.Uint64("reads", report.Metrics.Reads),
		log.Uint64("interpolated_reads", report.Metrics.InterpolatedReads),
		log.Uint64("writes", report.Metrics.Writes),
	)
	return nil
}
