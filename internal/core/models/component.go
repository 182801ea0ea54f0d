package models

// Component is the constraint for component payloads. Components are plain
// value types (structs, numbers, strings, arrays) associated with an entity;
// which kinds are legal is decided by the schema registry.
type Component interface {
	any
}

// Interpolator is implemented by component types that can be blended between
// two keyframes. Alpha is in [0, 1]: 0 yields the receiver, 1 yields other.
type Interpolator[T any] interface {
	Interpolate(other T, alpha float64) T
}

// State describes the outcome of resolving a component at a moment.
type State uint8

const (
	// Unknown means no data exists at or before the queried time.
	Unknown State = iota
	// Absent means the component was explicitly removed as of the queried time.
	Absent
	// Present means a concrete value was resolved.
	Present
)

func (s State) String() string {
	switch s {
	case Unknown:
		return "unknown"
	case Absent:
		return "absent"
	case Present:
		return "present"
	default:
		return "invalid"
	}
}

// Known reports whether any keyframe answered the query.
func (s State) Known() bool { return s != Unknown }

// Option holds a component value or the explicit absence of one.
type Option[T any] struct {
	value T
	ok    bool
}

func Some[T any](v T) Option[T] { return Option[T]{value: v, ok: true} }

func None[T any]() Option[T] { return Option[T]{} }

func (o Option[T]) Get() (T, bool) { return o.value, o.ok }

func (o Option[T]) IsSome() bool { return o.ok }

// OrZero returns the held value, or T's zero value when absent.
func (o Option[T]) OrZero() T { return o.value }

// State reports Present or Absent.
func (o Option[T]) State() State {
	if o.ok {
		return Present
	}
	return Absent
}
