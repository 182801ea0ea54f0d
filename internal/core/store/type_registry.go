package store

import (
	"iter"
	"sync"
	"sync/atomic"

	"github.com/zeusync/timeline/internal/core/models"
	"github.com/zeusync/timeline/internal/core/schema/registry"
	"github.com/zeusync/timeline/internal/core/timeline"
)

// typeStorage is the type-erased face of a TypeRegistry used by the dynamic API.
type typeStorage interface {
	componentType() *registry.ComponentType
	lookup(e models.Entity) (timeline.Any, bool)
	lookupOrCreate(e models.Entity) timeline.Any
	entries() iter.Seq2[models.Entity, timeline.Any]
	cleanup(until models.Time) cleanupResult
	attach(c *counters)
}

type cleanupResult struct {
	pruned    int
	timelines int
	// stalled timelines hold more than one keyframe but no anchor after the horizon.
	stalled int
}

// TypeRegistry owns the per-entity timelines of one component type.
// Timelines are created on first write and never removed.
type TypeRegistry[T models.Component] struct {
	ct        *registry.ComponentType
	timelines sync.Map // models.Entity -> *timeline.Timeline[T]
	size      atomic.Int64
	metrics   atomic.Pointer[counters]
}

func newTypeRegistry[T models.Component](ct *registry.ComponentType) *TypeRegistry[T] {
	return &TypeRegistry[T]{ct: ct}
}

// ComponentType returns the descriptor of T.
func (r *TypeRegistry[T]) ComponentType() *registry.ComponentType { return r.ct }

// Get returns the timeline of e, if one was ever created.
func (r *TypeRegistry[T]) Get(e models.Entity) (*timeline.Timeline[T], bool) {
	v, ok := r.timelines.Load(e)
	if !ok {
		return nil, false
	}
	return v.(*timeline.Timeline[T]), true
}

// GetOrCreate returns the timeline of e, creating it if needed. Concurrent
// callers for the same entity all receive the same instance.
func (r *TypeRegistry[T]) GetOrCreate(e models.Entity) *timeline.Timeline[T] {
	if tl, ok := r.Get(e); ok {
		return tl
	}
	actual, loaded := r.timelines.LoadOrStore(e, timeline.New[T]())
	if !loaded {
		r.size.Add(1)
		r.metrics.Load().timelineCreated()
	}
	return actual.(*timeline.Timeline[T])
}

// Entries enumerates every (entity, timeline) pair of this type.
func (r *TypeRegistry[T]) Entries() iter.Seq2[models.Entity, *timeline.Timeline[T]] {
	return func(yield func(models.Entity, *timeline.Timeline[T]) bool) {
		r.timelines.Range(func(k, v any) bool {
			return yield(k.(models.Entity), v.(*timeline.Timeline[T]))
		})
	}
}

// Len is the number of entities that ever had a T.
func (r *TypeRegistry[T]) Len() int { return int(r.size.Load()) }

// Cleanup prunes every timeline of this type up to until and returns the
// number of discarded keyframes.
func (r *TypeRegistry[T]) Cleanup(until models.Time) int {
	return r.cleanup(until).pruned
}

func (r *TypeRegistry[T]) componentType() *registry.ComponentType { return r.ct }

func (r *TypeRegistry[T]) lookup(e models.Entity) (timeline.Any, bool) {
	tl, ok := r.Get(e)
	if !ok {
		return nil, false
	}
	return tl, true
}

func (r *TypeRegistry[T]) lookupOrCreate(e models.Entity) timeline.Any {
	return r.GetOrCreate(e)
}

func (r *TypeRegistry[T]) entries() iter.Seq2[models.Entity, timeline.Any] {
	return func(yield func(models.Entity, timeline.Any) bool) {
		for e, tl := range r.Entries() {
			if !yield(e, tl) {
				return
			}
		}
	}
}

func (r *TypeRegistry[T]) cleanup(until models.Time) cleanupResult {
	var res cleanupResult
	for _, tl := range r.Entries() {
		res.timelines++
		n := tl.Cleanup(until)
		res.pruned += n
		if n == 0 && tl.Len() > 1 {
			if last, ok := tl.Last(); ok && last.Time <= until {
				res.stalled++
			}
		}
	}
	r.metrics.Load().pruned(res.pruned)
	return res
}

func (r *TypeRegistry[T]) attach(c *counters) {
	r.metrics.Store(c)
}
