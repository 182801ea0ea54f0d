package store

import (
	"fmt"
	"reflect"

	"github.com/zeusync/timeline/internal/core/models"
	"github.com/zeusync/timeline/internal/core/schema/registry"
	"github.com/zeusync/timeline/internal/core/timeline"
)

// Register records T in tbl with the timeline storage factory, so stores
// sharing tbl can serve T through the dynamic API before any typed write.
func Register[T models.Component](tbl *registry.Table) (*registry.ComponentType, error) {
	return registry.Register[T](tbl, func(ct *registry.ComponentType) any {
		return newTypeRegistry[T](ct)
	})
}

// Registry returns the TypeRegistry of T, creating it on first use.
func Registry[T models.Component](s *Store) (*TypeRegistry[T], error) {
	if s == nil {
		return nil, ErrNilStore
	}
	ct, err := Register[T](s.table)
	if err != nil {
		return nil, err
	}
	st, err := s.storageFor(ct, func() typeStorage { return newTypeRegistry[T](ct) })
	if err != nil {
		return nil, err
	}
	return asRegistry[T](st)
}

// LookupRegistry returns the TypeRegistry of T without creating it.
func LookupRegistry[T models.Component](s *Store) (*TypeRegistry[T], bool, error) {
	if s == nil {
		return nil, false, ErrNilStore
	}
	rtype := reflect.TypeFor[T]()
	if err := registry.ValidateType(rtype); err != nil {
		return nil, false, err
	}
	ct, ok := s.table.LookupType(rtype)
	if !ok {
		return nil, false, nil
	}
	st, ok := s.lookupStorage(ct.ID())
	if !ok {
		return nil, false, nil
	}
	reg, err := asRegistry[T](st)
	return reg, err == nil, err
}

// GetOrCreateTimeline returns the timeline of T on e, creating the type
// registry and the timeline as needed.
func GetOrCreateTimeline[T models.Component](s *Store, e models.Entity) (*timeline.Timeline[T], error) {
	if e.IsNil() {
		return nil, ErrNilEntity
	}
	reg, err := Registry[T](s)
	if err != nil {
		return nil, err
	}
	return reg.GetOrCreate(e), nil
}

// TimelineOf returns the timeline of T on e if it exists.
func TimelineOf[T models.Component](s *Store, e models.Entity) (*timeline.Timeline[T], bool, error) {
	if e.IsNil() {
		return nil, false, ErrNilEntity
	}
	reg, ok, err := LookupRegistry[T](s)
	if err != nil || !ok {
		return nil, false, err
	}
	tl, ok := reg.Get(e)
	return tl, ok, nil
}

// Get resolves T on e at time at.
func Get[T models.Component](s *Store, e models.Entity, at models.Time) (T, models.State, error) {
	var zero T
	tl, ok, err := TimelineOf[T](s, e)
	if err != nil || !ok {
		return zero, models.Unknown, err
	}
	v, state := tl.Get(at)
	s.counters.read(s.counters != nil && state == models.Present && tl.Interpolates(at))
	return v, state, nil
}

// Set records v for T on e at time at, replacing any keyframe at that time.
func Set[T models.Component](s *Store, e models.Entity, at models.Time, v models.Option[T]) error {
	tl, err := GetOrCreateTimeline[T](s, e)
	if err != nil {
		return err
	}
	tl.Set(at, v)
	s.counters.write()
	return nil
}

// Swap is Set returning the value resolved at time at just before the write.
func Swap[T models.Component](s *Store, e models.Entity, at models.Time, v models.Option[T]) (T, models.State, error) {
	tl, err := GetOrCreateTimeline[T](s, e)
	if err != nil {
		var zero T
		return zero, models.Unknown, err
	}
	prev, state := tl.Swap(at, v)
	s.counters.write()
	return prev, state, nil
}

// Put records a present value.
func Put[T models.Component](s *Store, e models.Entity, at models.Time, v T) error {
	return Set(s, e, at, models.Some(v))
}

// Remove records that T is absent from e as of at.
func Remove[T models.Component](s *Store, e models.Entity, at models.Time) error {
	return Set(s, e, at, models.None[T]())
}

func asRegistry[T models.Component](st typeStorage) (*TypeRegistry[T], error) {
	reg, ok := st.(*TypeRegistry[T])
	if !ok {
		return nil, fmt.Errorf("%w: storage of %s does not hold %s",
			registry.ErrComponentTypeMismatch, st.componentType().Name(), reflect.TypeFor[T]())
	}
	return reg, nil
}
