package store

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"sync"

	"github.com/zeusync/timeline/internal/core/events/bus"
	"github.com/zeusync/timeline/internal/core/models"
	"github.com/zeusync/timeline/internal/core/observability/log"
	"github.com/zeusync/timeline/internal/core/schema/registry"
	"github.com/zeusync/timeline/internal/core/timeline"
	"github.com/zeusync/timeline/pkg/concurrent"
	"github.com/zeusync/timeline/pkg/sequence"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("github.com/zeusync/timeline/internal/core/store")

// Store is the root of the timeline storage: component type -> TypeRegistry.
//
// All methods are safe for concurrent use. Type registries are created on the
// first write of a component type and live as long as the store.
type Store struct {
	log      log.Log
	table    *registry.Table
	bus      bus.EventBus
	counters *counters

	cleanupConcurrency int

	data sync.Map // registry.TypeID -> typeStorage

	knownMx sync.RWMutex
	known   []*registry.ComponentType
}

// New creates an empty Store.
func New(opts ...Option) *Store {
	cfg := Config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewNop()
	}
	if cfg.Table == nil {
		cfg.Table = registry.NewTable()
	}

	s := &Store{
		log:                cfg.Logger.With(log.String("component", "timeline-store")),
		table:              cfg.Table,
		bus:                cfg.Bus,
		cleanupConcurrency: cfg.CleanupConcurrency,
	}
	if cfg.EnableMetrics {
		s.counters = &counters{}
	}
	return s
}

// Table returns the component type table backing the store.
func (s *Store) Table() *registry.Table { return s.table }

// Bus returns the configured event bus, or nil.
func (s *Store) Bus() bus.EventBus { return s.bus }

// Metrics returns a copy of the counters. All zero when metrics are disabled.
func (s *Store) Metrics() Metrics { return s.counters.snapshot() }

// ComponentTypes returns every component type that has storage, in the order
// the types were first written. The set only grows.
func (s *Store) ComponentTypes() []*registry.ComponentType {
	s.knownMx.RLock()
	defer s.knownMx.RUnlock()
	return slices.Clone(s.known)
}

// Entities enumerates each entity that ever had any component, once.
func (s *Store) Entities() iter.Seq[models.Entity] {
	return func(yield func(models.Entity) bool) {
		types := s.ComponentTypes()
		parts := make([]*sequence.Iterator[models.Entity], 0, len(types))
		for _, ct := range types {
			if st, ok := s.lookupStorage(ct.ID()); ok {
				parts = append(parts, sequence.Keys(st.entries()))
			}
		}
		for e := range sequence.Distinct(sequence.Chain(parts...)).Seq() {
			if !yield(e) {
				return
			}
		}
	}
}

// Timeline returns the type-erased timeline of e for the component type id.
// A missing timeline is not an error.
func (s *Store) Timeline(id registry.TypeID, e models.Entity) (timeline.Any, bool, error) {
	if s == nil {
		return nil, false, ErrNilStore
	}
	if e.IsNil() {
		return nil, false, ErrNilEntity
	}
	if _, err := s.table.Resolve(id); err != nil {
		return nil, false, err
	}
	st, ok := s.lookupStorage(id)
	if !ok {
		return nil, false, nil
	}
	tl, ok := st.lookup(e)
	return tl, ok, nil
}

// Entries enumerates every (entity, timeline) pair of the component type id.
func (s *Store) Entries(id registry.TypeID) iter.Seq2[models.Entity, timeline.Any] {
	return func(yield func(models.Entity, timeline.Any) bool) {
		if s == nil {
			return
		}
		st, ok := s.lookupStorage(id)
		if !ok {
			return
		}
		for e, tl := range st.entries() {
			if !yield(e, tl) {
				return
			}
		}
	}
}

// GetDynamic resolves the value of component type id on e at time at. The
// value is nil unless the state is Present.
func (s *Store) GetDynamic(id registry.TypeID, e models.Entity, at models.Time) (any, models.State, error) {
	tl, ok, err := s.Timeline(id, e)
	if err != nil || !ok {
		return nil, models.Unknown, err
	}
	v, state := tl.GetAny(at)
	s.counters.read(s.counters != nil && state == models.Present && interpolates(tl, at))
	return v, state, nil
}

// SetDynamic records value for component type id on e at time at. A nil value
// records an absence. The value's dynamic type must match the component type.
func (s *Store) SetDynamic(id registry.TypeID, e models.Entity, at models.Time, value any) error {
	_, _, err := s.SwapDynamic(id, e, at, value)
	return err
}

// SwapDynamic is SetDynamic returning the value resolved at time at just
// before the write.
func (s *Store) SwapDynamic(id registry.TypeID, e models.Entity, at models.Time, value any) (any, models.State, error) {
	if s == nil {
		return nil, models.Unknown, ErrNilStore
	}
	if e.IsNil() {
		return nil, models.Unknown, ErrNilEntity
	}
	ct, err := s.table.Resolve(id)
	if err != nil {
		return nil, models.Unknown, err
	}
	if err = registry.ValidateValue(ct, value); err != nil {
		return nil, models.Unknown, err
	}
	st, err := s.storageFor(ct, nil)
	if err != nil {
		return nil, models.Unknown, err
	}
	prev, state, ok := st.lookupOrCreate(e).SwapAny(at, value)
	if !ok {
		return nil, models.Unknown, fmt.Errorf("%w: got %T, want %s", registry.ErrComponentTypeMismatch, value, ct.Name())
	}
	s.counters.write()
	return prev, state, nil
}

// AllTimelines enumerates, for every known component type, the timeline of e
// if it has one.
func (s *Store) AllTimelines(e models.Entity) iter.Seq2[*registry.ComponentType, timeline.Any] {
	return func(yield func(*registry.ComponentType, timeline.Any) bool) {
		for _, ct := range s.ComponentTypes() {
			st, ok := s.lookupStorage(ct.ID())
			if !ok {
				continue
			}
			tl, ok := st.lookup(e)
			if !ok {
				continue
			}
			if !yield(ct, tl) {
				return
			}
		}
	}
}

// AllComponents enumerates the resolved state of e at time at. Unknown and
// absent components are skipped.
func (s *Store) AllComponents(e models.Entity, at models.Time) iter.Seq2[*registry.ComponentType, any] {
	return func(yield func(*registry.ComponentType, any) bool) {
		for ct, tl := range s.AllTimelines(e) {
			v, state := tl.GetAny(at)
			s.counters.read(false)
			if state != models.Present {
				continue
			}
			if !yield(ct, v) {
				return
			}
		}
	}
}

// Cleanup discards history at or before until from every timeline. Type
// registries are pruned in parallel. A timeline keeps its history when it has
// no keyframe after until.
func (s *Store) Cleanup(ctx context.Context, until models.Time) (int, error) {
	if s == nil {
		return 0, ErrNilStore
	}
	ctx, span := tracer.Start(ctx, "store.Cleanup")
	defer span.End()

	types := s.ComponentTypes()
	results, err := concurrent.ParallelMap(ctx, sequence.From(types), s.cleanupConcurrency,
		func(_ context.Context, ct *registry.ComponentType) (cleanupResult, error) {
			st, ok := s.lookupStorage(ct.ID())
			if !ok {
				return cleanupResult{}, nil
			}
			return st.cleanup(until), nil
		})

	var total cleanupResult
	for _, r := range results {
		total.pruned += r.pruned
		total.timelines += r.timelines
		total.stalled += r.stalled
	}
	span.SetAttributes(
		attribute.Int64("timeline.until", int64(until)),
		attribute.Int("timeline.types", len(types)),
		attribute.Int("timeline.pruned", total.pruned),
		attribute.Int("timeline.stalled", total.stalled),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "cleanup interrupted")
		s.log.Warn("cleanup interrupted",
			log.Stringer("until", until),
			log.Int("pruned", total.pruned),
			log.Error(err),
		)
		return total.pruned, err
	}

	s.log.Debug("cleanup finished",
		log.Stringer("until", until),
		log.Int("types", len(types)),
		log.Int("timelines", total.timelines),
		log.Int("pruned", total.pruned),
		log.Int("stalled", total.stalled),
	)
	return total.pruned, nil
}

func (s *Store) lookupStorage(id registry.TypeID) (typeStorage, bool) {
	v, ok := s.data.Load(id)
	if !ok {
		return nil, false
	}
	return v.(typeStorage), true
}

// storageFor returns the storage of ct, creating it with create (or the
// registered factory when create is nil) on first use.
func (s *Store) storageFor(ct *registry.ComponentType, create func() typeStorage) (typeStorage, error) {
	if st, ok := s.lookupStorage(ct.ID()); ok {
		return st, nil
	}

	var st typeStorage
	if create != nil {
		st = create()
	} else {
		var ok bool
		if st, ok = ct.NewStorage().(typeStorage); !ok {
			return nil, fmt.Errorf("%w: %s has no timeline storage", registry.ErrInvalidComponentType, ct.Name())
		}
	}
	st.attach(s.counters)

	// The storage becomes visible together with its ComponentTypes entry.
	s.knownMx.Lock()
	actual, loaded := s.data.LoadOrStore(ct.ID(), st)
	if !loaded {
		s.known = append(s.known, ct)
	}
	s.knownMx.Unlock()

	if !loaded {
		s.counters.typeCreated()
		s.log.Debug("component type storage created",
			log.String("type", string(ct.Name())),
			log.Uint64("id", uint64(ct.ID())),
			log.Bool("interpolatable", ct.Interpolatable()),
		)
	}
	return actual.(typeStorage), nil
}

func interpolates(tl timeline.Any, at models.Time) bool {
	i, ok := tl.(interface{ Interpolates(models.Time) bool })
	return ok && i.Interpolates(at)
}
