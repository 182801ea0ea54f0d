package frame

import (
	"iter"

	"github.com/zeusync/timeline/internal/core/models"
	"github.com/zeusync/timeline/internal/core/schema/registry"
	"github.com/zeusync/timeline/internal/core/store"
	"github.com/zeusync/timeline/pkg/sequence"
)

type grouping[T models.Component] struct {
	frame Frame
	ct    *registry.ComponentType
}

func (g *grouping[T]) ComponentType() *registry.ComponentType { return g.ct }

func (g *grouping[T]) Get(e models.Entity) (T, models.State, error) {
	return store.Get[T](g.frame.store, e, g.frame.at)
}

// Set writes value at the frame time and returns what Get resolved there
// before the write, interpolated if no keyframe sat at that instant.
func (g *grouping[T]) Set(e models.Entity, value models.Option[T]) (T, models.State, error) {
	prev, prevState, err := store.Swap(g.frame.store, e, g.frame.at, value)
	if err != nil {
		return prev, prevState, err
	}

	if g.frame.store.WantsChanges() {
		g.frame.publishChange(g.ct, e,
			boxed(prev, prevState), prevState,
			boxed(value.OrZero(), value.State()), value.State())
	}
	return prev, prevState, nil
}

// All enumerates entities with a present T at the frame time.
func (g *grouping[T]) All() iter.Seq2[models.Entity, T] {
	return func(yield func(models.Entity, T) bool) {
		reg, ok, err := store.LookupRegistry[T](g.frame.store)
		if err != nil || !ok {
			return
		}
		for e, tl := range reg.Entries() {
			v, state := tl.Get(g.frame.at)
			if state != models.Present {
				continue
			}
			if !yield(e, v) {
				return
			}
		}
	}
}

func (g *grouping[T]) Len() int {
	return sequence.Keys(g.All()).Count()
}

type anyGrouping struct {
	frame Frame
	ct    *registry.ComponentType
}

func (g *anyGrouping) ComponentType() *registry.ComponentType { return g.ct }

func (g *anyGrouping) Get(e models.Entity) (any, models.State, error) {
	return g.frame.store.GetDynamic(g.ct.ID(), e, g.frame.at)
}

func (g *anyGrouping) Set(e models.Entity, value any) (any, models.State, error) {
	prev, prevState, err := g.frame.store.SwapDynamic(g.ct.ID(), e, g.frame.at, value)
	if err != nil {
		return nil, models.Unknown, err
	}

	curState := models.Present
	if value == nil {
		curState = models.Absent
	}
	g.frame.publishChange(g.ct, e, prev, prevState, value, curState)
	return prev, prevState, nil
}

func (g *anyGrouping) All() iter.Seq2[models.Entity, any] {
	return func(yield func(models.Entity, any) bool) {
		for e, tl := range g.frame.store.Entries(g.ct.ID()) {
			v, state := tl.GetAny(g.frame.at)
			if state != models.Present {
				continue
			}
			if !yield(e, v) {
				return
			}
		}
	}
}

func (g *anyGrouping) Len() int {
	return sequence.Keys(g.All()).Count()
}

func boxed[T any](v T, state models.State) any {
	if state != models.Present {
		return nil
	}
	return v
}
