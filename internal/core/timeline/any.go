package timeline

import (
	"iter"

	"github.com/zeusync/timeline/internal/core/models"
)

// AnyKeyframe is a keyframe with its value boxed. Value is nil when the
// component is absent at Time.
type AnyKeyframe struct {
	Time    models.Time
	Value   any
	Present bool
}

// Any is the type-erased view of a Timeline used by tooling that only knows
// component types at runtime.
type Any interface {
	GetAny(at models.Time) (any, models.State)
	SetAny(at models.Time, v any) bool
	SwapAny(at models.Time, v any) (prev any, state models.State, ok bool)
	AnyKeyframes() iter.Seq[AnyKeyframe]
	Cleanup(until models.Time) int
	Len() int
}

var _ Any = (*Timeline[int])(nil)

// GetAny is Get with the value boxed; nil unless the state is Present.
func (tl *Timeline[T]) GetAny(at models.Time) (any, models.State) {
	v, state := tl.Get(at)
	if state != models.Present {
		return nil, state
	}
	return v, state
}

// SetAny records v at time at, or an absence when v is nil. It returns false
// without writing when v is not a T.
func (tl *Timeline[T]) SetAny(at models.Time, v any) bool {
	if v == nil {
		tl.Remove(at)
		return true
	}
	typed, ok := v.(T)
	if !ok {
		return false
	}
	tl.Put(at, typed)
	return true
}

// SwapAny is Swap with boxed values. ok is false, and nothing is written,
// when v is neither nil nor a T.
func (tl *Timeline[T]) SwapAny(at models.Time, v any) (any, models.State, bool) {
	next := models.None[T]()
	if v != nil {
		typed, ok := v.(T)
		if !ok {
			return nil, models.Unknown, false
		}
		next = models.Some(typed)
	}
	prev, state := tl.Swap(at, next)
	if state != models.Present {
		return nil, state, true
	}
	return prev, state, true
}

func (tl *Timeline[T]) AnyKeyframes() iter.Seq[AnyKeyframe] {
	return func(yield func(AnyKeyframe) bool) {
		for kf := range tl.Keyframes() {
			akf := AnyKeyframe{Time: kf.Time}
			if v, ok := kf.Value.Get(); ok {
				akf.Value, akf.Present = v, true
			}
			if !yield(akf) {
				return
			}
		}
	}
}
