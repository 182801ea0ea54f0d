package access

import (
	"fmt"

	"github.com/zeusync/timeline/internal/core/models"
	"github.com/zeusync/timeline/internal/core/schema/registry"
	"github.com/zeusync/timeline/internal/core/store"
	"github.com/zeusync/timeline/pkg/sequence"
)

// TypeOf registers T with the table of acc and returns its descriptor.
func TypeOf[T models.Component](acc EntityComponentAccess) (*registry.ComponentType, error) {
	if acc == nil {
		return nil, ErrNilAccess
	}
	tbl := acc.Table()
	if tbl == nil {
		return nil, fmt.Errorf("%w: no component type table", ErrNilAccess)
	}
	return store.Register[T](tbl)
}

// Get returns the T of e, traversing acc the way it prefers.
func Get[T models.Component](acc EntityComponentAccess, e models.Entity) (T, models.State, error) {
	ct, err := TypeOf[T](acc)
	if err != nil {
		var zero T
		return zero, models.Unknown, err
	}
	v, state, err := GetDynamic(acc, e, ct.ID())
	return cast[T](v, state, err)
}

// Set stores value as the T of e and returns the previous value.
func Set[T models.Component](acc EntityComponentAccess, e models.Entity, value models.Option[T]) (T, models.State, error) {
	ct, err := TypeOf[T](acc)
	if err != nil {
		var zero T
		return zero, models.Unknown, err
	}
	var boxed any
	if v, ok := value.Get(); ok {
		boxed = v
	}
	prev, state, err := SetDynamic(acc, e, ct.ID(), boxed)
	return cast[T](prev, state, err)
}

// Put stores v as the T of e.
func Put[T models.Component](acc EntityComponentAccess, e models.Entity, v T) (T, models.State, error) {
	return Set(acc, e, models.Some(v))
}

// Remove marks T absent on e.
func Remove[T models.Component](acc EntityComponentAccess, e models.Entity) (T, models.State, error) {
	return Set(acc, e, models.None[T]())
}

// Has reports whether e has a present T.
func Has[T models.Component](acc EntityComponentAccess, e models.Entity) (bool, error) {
	_, state, err := Get[T](acc, e)
	return state == models.Present, err
}

// GetDynamic returns the component id of e.
func GetDynamic(acc EntityComponentAccess, e models.Entity, id registry.TypeID) (any, models.State, error) {
	if acc == nil {
		return nil, models.Unknown, ErrNilAccess
	}
	switch p := acc.PreferredAccess(); p {
	case ByEntity:
		return acc.ForEntity(e).Get(id)
	case ByComponent:
		g, err := acc.ForType(id)
		if err != nil {
			return nil, models.Unknown, err
		}
		return g.Get(e)
	default:
		return nil, models.Unknown, fmt.Errorf("%w: %d", ErrUnknownPreferredAccess, p)
	}
}

// SetDynamic stores value (nil removes) as the component id of e and returns
// the previous value.
func SetDynamic(acc EntityComponentAccess, e models.Entity, id registry.TypeID, value any) (any, models.State, error) {
	if acc == nil {
		return nil, models.Unknown, ErrNilAccess
	}
	switch p := acc.PreferredAccess(); p {
	case ByEntity:
		return acc.ForEntity(e).Set(id, value)
	case ByComponent:
		g, err := acc.ForType(id)
		if err != nil {
			return nil, models.Unknown, err
		}
		return g.Set(e, value)
	default:
		return nil, models.Unknown, fmt.Errorf("%w: %d", ErrUnknownPreferredAccess, p)
	}
}

// RemoveDynamic marks the component id absent on e.
func RemoveDynamic(acc EntityComponentAccess, e models.Entity, id registry.TypeID) (any, models.State, error) {
	return SetDynamic(acc, e, id, nil)
}

// HasEntity reports whether e has any present component.
func HasEntity(acc EntityComponentAccess, e models.Entity) (bool, error) {
	if acc == nil {
		return false, ErrNilAccess
	}
	_, ok := sequence.Keys(acc.ForEntity(e).All()).First()
	return ok, nil
}

func cast[T any](v any, state models.State, err error) (T, models.State, error) {
	var zero T
	if err != nil {
		return zero, models.Unknown, err
	}
	if state != models.Present {
		return zero, state, nil
	}
	typed, ok := v.(T)
	if !ok {
		return zero, models.Unknown, fmt.Errorf("%w: got %T, want %T", registry.ErrComponentTypeMismatch, v, zero)
	}
	return typed, state, nil
}
