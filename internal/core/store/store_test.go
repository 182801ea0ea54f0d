package store

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/timeline/internal/core/events/bus"
	"github.com/zeusync/timeline/internal/core/models"
	"github.com/zeusync/timeline/internal/core/schema/registry"
	"github.com/zeusync/timeline/internal/core/timeline"
)

type position struct{ X float64 }

func (p position) Interpolate(other position, alpha float64) position {
	return position{X: p.X + (other.X-p.X)*alpha}
}

type health int

type label string

type tags []string

func TestStoreInterpolationScenario(t *testing.T) {
	s := New()
	e := models.NewEntity()

	require.NoError(t, Put(s, e, 10, position{X: 0}))
	require.NoError(t, Put(s, e, 20, position{X: 10}))

	v, state, err := Get[position](s, e, 15)
	require.NoError(t, err)
	assert.Equal(t, models.Present, state)
	assert.InDelta(t, 5.0, v.X, 1e-9)

	_, state, err = Get[position](s, e, 5)
	require.NoError(t, err)
	assert.Equal(t, models.Unknown, state)

	v, state, err = Get[position](s, e, 25)
	require.NoError(t, err)
	assert.Equal(t, models.Present, state)
	assert.Equal(t, position{X: 10}, v)
}

func TestStoreRemoveIsAbsent(t *testing.T) {
	s := New()
	e := models.NewEntity()

	require.NoError(t, Remove[health](s, e, 10))

	tl, ok, err := TimelineOf[health](s, e)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, tl.Len())

	_, state, err := Get[health](s, e, 10)
	require.NoError(t, err)
	assert.Equal(t, models.Absent, state)
}

func TestStoreUnknownIsNotAnError(t *testing.T) {
	s := New()
	e := models.NewEntity()

	_, state, err := Get[health](s, e, 100)
	require.NoError(t, err)
	assert.Equal(t, models.Unknown, state)

	_, ok, err := TimelineOf[health](s, e)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, s.ComponentTypes(), "reads must not create storage")

	require.NoError(t, Put(s, models.NewEntity(), 1, health(3)))
	_, state, err = Get[health](s, e, 100)
	require.NoError(t, err)
	assert.Equal(t, models.Unknown, state)
}

func TestStoreValidation(t *testing.T) {
	s := New()
	e := models.NewEntity()

	t.Run("illegal component type", func(t *testing.T) {
		assert.ErrorIs(t, Put(s, e, 1, tags{"a"}), registry.ErrInvalidComponentType)
		_, _, err := Get[*position](s, e, 1)
		assert.ErrorIs(t, err, registry.ErrInvalidComponentType)
		_, err = Registry[map[string]int](s)
		assert.ErrorIs(t, err, registry.ErrInvalidComponentType)
	})

	t.Run("missing arguments", func(t *testing.T) {
		var nilStore *Store
		_, _, err := Get[health](nilStore, e, 1)
		assert.ErrorIs(t, err, ErrNilStore)
		assert.ErrorIs(t, Put(nilStore, e, 1, health(1)), ErrNilStore)
		assert.ErrorIs(t, Put(s, models.NilEntity, 1, health(1)), ErrNilEntity)
		_, _, err = s.GetDynamic(registry.IDOf("x"), models.NilEntity, 1)
		assert.ErrorIs(t, err, ErrNilEntity)
		_, err = nilStore.Cleanup(context.Background(), 0)
		assert.ErrorIs(t, err, ErrNilStore)
	})
}

func TestConcurrentGetOrCreate(t *testing.T) {
	s := New(WithMetrics(true))
	e := models.NewEntity()

	const workers = 64
	timelines := make([]*timeline.Timeline[position], workers)
	registries := make([]*TypeRegistry[position], workers)

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			reg, err := Registry[position](s)
			assert.NoError(t, err)
			registries[i] = reg
			tl, err := GetOrCreateTimeline[position](s, e)
			assert.NoError(t, err)
			timelines[i] = tl
		}()
	}
	close(start)
	wg.Wait()

	for i := 1; i < workers; i++ {
		assert.Same(t, timelines[0], timelines[i])
		assert.Same(t, registries[0], registries[i])
	}
	assert.Equal(t, 1, registries[0].Len())
	assert.Len(t, s.ComponentTypes(), 1)

	m := s.Metrics()
	assert.Equal(t, uint64(1), m.TimelinesCreated)
	assert.Equal(t, uint64(1), m.TypesCreated)
}

func TestWrittenTypeIsListed(t *testing.T) {
	for trial := 0; trial < 50; trial++ {
		s := New()
		var wg sync.WaitGroup
		for w := 0; w < 8; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				e := models.NewEntity()
				assert.NoError(t, Put(s, e, 1, health(w)))

				var listed []registry.TypeName
				for ct := range s.AllTimelines(e) {
					listed = append(listed, ct.Name())
				}
				assert.Equal(t, []registry.TypeName{registry.NameOf[health]()}, listed)
			}()
		}
		wg.Wait()
		require.Len(t, s.ComponentTypes(), 1)
	}
}

func TestDynamicAPI(t *testing.T) {
	tbl := registry.NewTable()
	s := New(WithTable(tbl))
	e := models.NewEntity()

	require.NoError(t, Put(s, e, 10, position{X: 0}))
	require.NoError(t, Put(s, e, 20, position{X: 10}))
	reg, ok, err := LookupRegistry[position](s)
	require.NoError(t, err)
	require.True(t, ok)
	id := reg.ComponentType().ID()

	v, state, err := s.GetDynamic(id, e, 15)
	require.NoError(t, err)
	assert.Equal(t, models.Present, state)
	assert.Equal(t, position{X: 5}, v)

	err = s.SetDynamic(id, e, 30, health(1))
	assert.ErrorIs(t, err, registry.ErrComponentTypeMismatch)

	require.NoError(t, s.SetDynamic(id, e, 30, nil))
	v, state, err = s.GetDynamic(id, e, 30)
	require.NoError(t, err)
	assert.Equal(t, models.Absent, state)
	assert.Nil(t, v)

	_, _, err = s.GetDynamic(registry.IDOf("nope"), e, 1)
	assert.ErrorIs(t, err, registry.ErrUnknownComponentType)
	assert.ErrorIs(t, s.SetDynamic(registry.IDOf("nope"), e, 1, 1), registry.ErrUnknownComponentType)

	// Registered but never written: the table factory builds the storage.
	ct, err := Register[label](tbl)
	require.NoError(t, err)
	_, ok, err = s.Timeline(ct.ID(), e)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetDynamic(ct.ID(), e, 5, label("hero")))
	got, state, err := Get[label](s, e, 7)
	require.NoError(t, err)
	assert.Equal(t, models.Present, state)
	assert.Equal(t, label("hero"), got)
}

func TestStoreSwap(t *testing.T) {
	s := New(WithMetrics(true))
	e := models.NewEntity()
	require.NoError(t, Put(s, e, 10, position{X: 0}))
	require.NoError(t, Put(s, e, 20, position{X: 10}))

	prev, state, err := Swap(s, e, 15, models.Some(position{X: 50}))
	require.NoError(t, err)
	assert.Equal(t, models.Present, state)
	assert.Equal(t, position{X: 5}, prev)

	reg, _, err := LookupRegistry[position](s)
	require.NoError(t, err)
	boxed, state, err := s.SwapDynamic(reg.ComponentType().ID(), e, 15, nil)
	require.NoError(t, err)
	assert.Equal(t, models.Present, state)
	assert.Equal(t, position{X: 50}, boxed)

	_, _, err = s.SwapDynamic(reg.ComponentType().ID(), e, 15, health(1))
	assert.ErrorIs(t, err, registry.ErrComponentTypeMismatch)
	_, _, err = Swap(s, models.NilEntity, 1, models.Some(health(1)))
	assert.ErrorIs(t, err, ErrNilEntity)

	assert.Equal(t, uint64(4), s.Metrics().Writes)
}

func TestAllComponents(t *testing.T) {
	s := New()
	e := models.NewEntity()
	other := models.NewEntity()

	require.NoError(t, Put(s, e, 10, position{X: 1}))
	require.NoError(t, Put(s, e, 10, health(5)))
	require.NoError(t, Remove[health](s, e, 20))
	require.NoError(t, Put(s, e, 50, label("late")))
	require.NoError(t, Put(s, other, 10, label("other")))

	timelines := 0
	for range s.AllTimelines(e) {
		timelines++
	}
	assert.Equal(t, 3, timelines)

	resolved := map[registry.TypeName]any{}
	for ct, v := range s.AllComponents(e, 30) {
		resolved[ct.Name()] = v
	}
	assert.Equal(t, map[registry.TypeName]any{
		registry.NameOf[position](): position{X: 1},
	}, resolved)

	names := make([]registry.TypeName, 0)
	for _, ct := range s.ComponentTypes() {
		names = append(names, ct.Name())
	}
	assert.Equal(t, []registry.TypeName{
		registry.NameOf[position](), registry.NameOf[health](), registry.NameOf[label](),
	}, names, "types are listed in first-write order")

	entities := slices.Collect(s.Entities())
	assert.ElementsMatch(t, []models.Entity{e, other}, entities)
}

func TestStoreCleanup(t *testing.T) {
	s := New(WithMetrics(true), WithCleanupConcurrency(2))
	entities := []models.Entity{models.NewEntity(), models.NewEntity(), models.NewEntity()}

	for _, e := range entities {
		for _, at := range []models.Time{10, 20, 30} {
			require.NoError(t, Put(s, e, at, position{X: float64(at)}))
			require.NoError(t, Put(s, e, at, health(at)))
		}
	}
	// Only history, no anchor after the horizon.
	stale := models.NewEntity()
	require.NoError(t, Put(s, stale, 5, label("a")))
	require.NoError(t, Put(s, stale, 6, label("b")))

	pruned, err := s.Cleanup(context.Background(), 25)
	require.NoError(t, err)
	assert.Equal(t, len(entities)*2*2, pruned)

	for _, e := range entities {
		tl, ok, err := TimelineOf[position](s, e)
		require.NoError(t, err)
		require.True(t, ok)
		first, _ := tl.First()
		assert.Equal(t, models.Time(30), first.Time)
		assert.Equal(t, 1, tl.Len())
	}
	tl, _, err := TimelineOf[label](s, stale)
	require.NoError(t, err)
	assert.Equal(t, 2, tl.Len())

	pruned, err = s.Cleanup(context.Background(), 25)
	require.NoError(t, err)
	assert.Zero(t, pruned)
	assert.Equal(t, uint64(12), s.Metrics().KeyframesPruned)
}

func TestStoreCleanupCanceled(t *testing.T) {
	s := New()
	require.NoError(t, Put(s, models.NewEntity(), 1, health(1)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Cleanup(ctx, 10)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStoreMetricsDisabled(t *testing.T) {
	s := New()
	e := models.NewEntity()
	require.NoError(t, Put(s, e, 1, health(1)))
	_, _, _ = Get[health](s, e, 1)
	assert.Equal(t, Metrics{}, s.Metrics())
}

func TestStoreMetricsCountReads(t *testing.T) {
	s := New(WithMetrics(true))
	e := models.NewEntity()
	require.NoError(t, Put(s, e, 10, position{X: 0}))
	require.NoError(t, Put(s, e, 20, position{X: 10}))

	_, _, _ = Get[position](s, e, 15)
	_, _, _ = Get[position](s, e, 20)

	m := s.Metrics()
	assert.Equal(t, uint64(2), m.Writes)
	assert.Equal(t, uint64(2), m.Reads)
	assert.Equal(t, uint64(1), m.InterpolatedReads)
}

func TestPublishChange(t *testing.T) {
	b := bus.New()
	s := New(WithEventBus(b))
	assert.False(t, s.WantsChanges())

	var got []ComponentChanged
	_, err := b.Subscribe(EventComponentChanged, func(ev bus.Event) error {
		got = append(got, ev.Data().(ComponentChanged))
		return errors.New("handler failure is only logged")
	})
	require.NoError(t, err)
	require.True(t, s.WantsChanges())

	e := models.NewEntity()
	reg, err := Registry[health](s)
	require.NoError(t, err)
	s.PublishChange(ComponentChanged{
		Entity:       e,
		Type:         reg.ComponentType(),
		Time:         5,
		Current:      health(2),
		CurrentState: models.Present,
	})

	require.Len(t, got, 1)
	assert.Equal(t, e, got[0].Entity)
	assert.Equal(t, health(2), got[0].Current)
}
