package sim

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync/atomic"

	"github.com/zeusync/timeline/internal/config"
	"github.com/zeusync/timeline/internal/core/events/bus"
	"github.com/zeusync/timeline/internal/core/frame"
	"github.com/zeusync/timeline/internal/core/models"
	"github.com/zeusync/timeline/internal/core/observability/log"
	"github.com/zeusync/timeline/internal/core/store"
	"github.com/zeusync/timeline/internal/core/systems/physics"
	"github.com/zeusync/timeline/internal/core/timeline"
	"github.com/zeusync/timeline/pkg/concurrent"
	"github.com/zeusync/timeline/pkg/sequence"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer trace.Tracer = otel.Tracer("github.com/zeusync/timeline/internal/sim")

// Report summarizes a finished run.
type Report struct {
	Ticks      int
	Rollbacks  int
	Replayed   int
	Pruned     int
	Changes    uint64
	FinalTime  models.Time
	Metrics    store.Metrics
	MaxDrift   float64 // Largest position correction caused by a rollback
	Keyframes  int     // Keyframes retained at the end
	Entities   int
	Components int
}

// Simulator moves entities with Position and Velocity components, applying
// late velocity corrections in the past and replaying history from there.
type Simulator struct {
	cfg      config.SimulationConfig
	storeCfg config.StoreConfig
	store    *store.Store
	log      log.Log
	rng      *rand.Rand
	entities []models.Entity

	step    models.Time
	changes atomic.Uint64
}

func New(cfg config.Config, s *store.Store, l log.Log) *Simulator {
	if l == nil {
		l = log.NewNop()
	}
	return &Simulator{
		cfg:      cfg.Simulation,
		storeCfg: cfg.Store,
		store:    s,
		log:      l.With(log.String("component", "simulator")),
		rng:      rand.New(rand.NewPCG(uint64(cfg.Simulation.Seed), 0x5eed)),
		step:     models.FromDuration(cfg.Simulation.TickStep),
	}
}

// Run simulates until the configured duration elapses or ctx is done.
func (s *Simulator) Run(ctx context.Context) (Report, error) {
	if s.step <= 0 {
		return Report{}, fmt.Errorf("%w: tick step must be positive", config.ErrInvalidConfig)
	}
	ctx, span := tracer.Start(ctx, "sim.Run", trace.WithAttributes(
		attribute.Int("sim.entities", s.cfg.Entities),
		attribute.Int64("sim.seed", int64(s.cfg.Seed)),
	))
	defer span.End()
	if b := s.store.Bus(); b != nil {
		sub, err := b.Subscribe(store.EventComponentChanged, func(bus.Event) error {
			s.changes.Add(1)
			return nil
		})
		if err != nil {
			return Report{}, fmt.Errorf("subscribe to changes: %w", err)
		}
		defer func() { _ = sub.Cancel() }()
	}

	if err := s.spawn(); err != nil {
		return Report{}, err
	}

	var (
		report      Report
		end         = models.FromDuration(s.cfg.Duration)
		horizon     = models.FromDuration(s.storeCfg.CleanupHorizon)
		interval    = models.FromDuration(s.storeCfg.CleanupInterval)
		lastCleanup = models.TimeZero
		now         = models.TimeZero
	)

	for now < end {
		if err := ctx.Err(); err != nil {
			report.FinalTime = now
			return s.finish(report), err
		}
		if err := s.tick(ctx, now); err != nil {
			return s.finish(report), err
		}
		now = now.Add(s.step)
		report.Ticks++

		if s.cfg.RollbackEvery > 0 && report.Ticks%s.cfg.RollbackEvery == 0 {
			replayed, drift, err := s.rollback(now)
			if err != nil {
				return s.finish(report), err
			}
			report.Rollbacks++
			report.Replayed += replayed
			report.MaxDrift = max(report.MaxDrift, drift)
			span.AddEvent("rollback", trace.WithAttributes(
				attribute.Int("sim.replayed", replayed),
				attribute.Float64("sim.drift", drift),
			))
		}

		if interval > 0 && now.Sub(lastCleanup) >= interval {
			pruned, err := s.store.Cleanup(ctx, now.Sub(horizon))
			report.Pruned += pruned
			if err != nil {
				return s.finish(report), err
			}
			lastCleanup = now
		}
	}

	report.FinalTime = now
	return s.finish(report), nil
}

func (s *Simulator) spawn() error {
	positions, err := frame.For[physics.Position](frame.New(s.store, models.TimeZero))
	if err != nil {
		return err
	}
	velocities, err := frame.For[physics.Velocity](frame.New(s.store, models.TimeZero))
	if err != nil {
		return err
	}

	s.entities = make([]models.Entity, s.cfg.Entities)
	for i := range s.entities {
		e := models.NewEntity()
		s.entities[i] = e
		if _, _, err = positions.Set(e, models.Some(physics.Position{Vec2: s.randomVec(100)})); err != nil {
			return err
		}
		if _, _, err = velocities.Set(e, models.Some(physics.Velocity{Vec2: s.randomVec(5)})); err != nil {
			return err
		}
	}
	s.log.Info("entities spawned", log.Int("count", len(s.entities)))
	return nil
}

// tick advances every entity from at to at+step in parallel.
func (s *Simulator) tick(ctx context.Context, at models.Time) error {
	return concurrent.ForEach(ctx, sequence.From(s.entities), 0, func(_ context.Context, e models.Entity) error {
		return s.advance(e, at)
	})
}

func (s *Simulator) advance(e models.Entity, at models.Time) error {
	p, pState, err := store.Get[physics.Position](s.store, e, at)
	if err != nil {
		return err
	}
	v, vState, err := store.Get[physics.Velocity](s.store, e, at)
	if err != nil {
		return err
	}
	if pState != models.Present || vState != models.Present {
		return nil
	}

	next := frame.New(s.store, at.Add(s.step))
	positions, err := frame.For[physics.Position](next)
	if err != nil {
		return err
	}
	_, _, err = positions.Set(e, models.Some(physics.Integrate(p, v, s.step.Seconds())))
	return err
}

// rollback writes a velocity correction RollbackWindow in the past for a
// random entity and replays its positions up to now.
func (s *Simulator) rollback(now models.Time) (replayed int, drift float64, err error) {
	if len(s.entities) == 0 {
		return 0, 0, nil
	}
	e := s.entities[s.rng.IntN(len(s.entities))]

	back := models.FromDuration(s.cfg.RollbackWindow)
	back -= back % s.step
	from := max(now.Sub(back), models.TimeZero)

	before, _, err := store.Get[physics.Position](s.store, e, now)
	if err != nil {
		return 0, 0, err
	}
	if err = store.Put(s.store, e, from, physics.Velocity{Vec2: s.randomVec(5)}); err != nil {
		return 0, 0, err
	}
	for at := from; at < now; at = at.Add(s.step) {
		if err = s.advance(e, at); err != nil {
			return replayed, 0, err
		}
		replayed++
	}
	after, _, err := store.Get[physics.Position](s.store, e, now)
	if err != nil {
		return replayed, 0, err
	}

	drift = physics.Distance2V(before, after)
	s.log.Debug("rollback replayed",
		log.Stringer("entity", e),
		log.Stringer("from", from),
		log.Stringer("now", now),
		log.Int("ticks", replayed),
		log.Float64("drift", drift),
	)
	return replayed, drift, nil
}

func (s *Simulator) finish(r Report) Report {
	r.Changes = s.changes.Load()
	r.Metrics = s.store.Metrics()
	r.Entities = len(s.entities)
	r.Components = len(s.store.ComponentTypes())
	for _, e := range s.entities {
		for n := range sequence.Map(sequence.Values(s.store.AllTimelines(e)), timeline.Any.Len).Seq() {
			r.Keyframes += n
		}
	}
	return r
}

func (s *Simulator) randomVec(scale float64) physics.Vec2 {
	return physics.Vec2{Xv: (s.rng.Float64()*2 - 1) * scale, Yv: (s.rng.Float64()*2 - 1) * scale}
}
