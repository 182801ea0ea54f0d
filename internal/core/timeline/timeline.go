// Package timeline holds the keyframe history of one component on one entity.
//
// A Timeline answers "what was (or will be) this component at time t" for any
// t, blending between neighbouring keyframes when the component type
// implements models.Interpolator.
package timeline

import (
	"iter"
	"sort"
	"sync"

	"github.com/zeusync/timeline/internal/core/models"
)

// Keyframe is one recorded sample of a timeline.
type Keyframe[T any] struct {
	Time  models.Time
	Value models.Option[T]
}

// Timeline is a strictly time-ascending sequence of keyframes. It is safe for
// concurrent use: writers take an exclusive lock, readers a shared one.
type Timeline[T any] struct {
	mx     sync.RWMutex
	frames []Keyframe[T]
}

func New[T any]() *Timeline[T] {
	return &Timeline[T]{}
}

// Set records v at time at. A keyframe already at that time is replaced in
// place; otherwise a new keyframe is inserted in order.
func (tl *Timeline[T]) Set(at models.Time, v models.Option[T]) {
	tl.mx.Lock()
	defer tl.mx.Unlock()
	tl.set(Keyframe[T]{Time: at, Value: v})
}

// Swap records v at time at and returns what Get resolved at that time just
// before the write. Both happen under one lock.
func (tl *Timeline[T]) Swap(at models.Time, v models.Option[T]) (T, models.State) {
	tl.mx.Lock()
	defer tl.mx.Unlock()

	prev, state := tl.resolve(at)
	tl.set(Keyframe[T]{Time: at, Value: v})
	return prev, state
}

func (tl *Timeline[T]) set(kf Keyframe[T]) {
	at := kf.Time
	n := len(tl.frames)
	// Writes near the current simulation time land at the tail.
	if n == 0 || tl.frames[n-1].Time < at {
		tl.frames = append(tl.frames, kf)
		return
	}
	if tl.frames[n-1].Time == at {
		tl.frames[n-1] = kf
		return
	}

	i := tl.search(at)
	if i < n && tl.frames[i].Time == at {
		tl.frames[i] = kf
		return
	}
	tl.frames = append(tl.frames, Keyframe[T]{})
	copy(tl.frames[i+1:], tl.frames[i:])
	tl.frames[i] = kf
}

// Put records a present value at time at.
func (tl *Timeline[T]) Put(at models.Time, v T) {
	tl.Set(at, models.Some(v))
}

// Remove records that the component is absent as of time at.
func (tl *Timeline[T]) Remove(at models.Time) {
	tl.Set(at, models.None[T]())
}

// Get resolves the value at time at. Before the first keyframe the state is
// Unknown. Between two present keyframes of an interpolatable type the result
// is blended; otherwise the latest keyframe at or before at wins.
func (tl *Timeline[T]) Get(at models.Time) (T, models.State) {
	tl.mx.RLock()
	defer tl.mx.RUnlock()
	return tl.resolve(at)
}

func (tl *Timeline[T]) resolve(at models.Time) (T, models.State) {
	var zero T
	i := tl.floor(at)
	if i < 0 {
		return zero, models.Unknown
	}

	cur := tl.frames[i]
	if i+1 < len(tl.frames) && at > cur.Time {
		next := tl.frames[i+1]
		if v, blended := interpolate(cur, next, at); blended {
			return v, models.Present
		}
	}

	v, ok := cur.Value.Get()
	if !ok {
		return zero, models.Absent
	}
	return v, models.Present
}

// Lookup is Get returning an Option, with ok false for Unknown.
func (tl *Timeline[T]) Lookup(at models.Time) (v models.Option[T], ok bool) {
	value, state := tl.Get(at)
	switch state {
	case models.Present:
		return models.Some(value), true
	case models.Absent:
		return models.None[T](), true
	default:
		return models.None[T](), false
	}
}

// Interpolates reports whether a query at time at would be answered by
// blending two keyframes.
func (tl *Timeline[T]) Interpolates(at models.Time) bool {
	tl.mx.RLock()
	defer tl.mx.RUnlock()

	i := tl.floor(at)
	if i < 0 || i+1 >= len(tl.frames) || at == tl.frames[i].Time {
		return false
	}
	return canInterpolate(tl.frames[i], tl.frames[i+1])
}

// Cleanup discards keyframes at or before until, returning how many were
// dropped. If no keyframe lies after until nothing is discarded, so a
// timeline is never emptied and its latest known state is always kept.
func (tl *Timeline[T]) Cleanup(until models.Time) int {
	tl.mx.Lock()
	defer tl.mx.Unlock()

	i := sort.Search(len(tl.frames), func(i int) bool {
		return tl.frames[i].Time > until
	})
	if i == 0 || i == len(tl.frames) {
		return 0
	}

	n := copy(tl.frames, tl.frames[i:])
	clear(tl.frames[n:])
	tl.frames = tl.frames[:n]
	return i
}

// Keyframes yields the keyframes from earliest to latest. Every range over
// the sequence sees a consistent copy taken when iteration starts.
func (tl *Timeline[T]) Keyframes() iter.Seq[Keyframe[T]] {
	return func(yield func(Keyframe[T]) bool) {
		for _, kf := range tl.Snapshot() {
			if !yield(kf) {
				return
			}
		}
	}
}

// Snapshot copies the current keyframes, earliest first.
func (tl *Timeline[T]) Snapshot() []Keyframe[T] {
	tl.mx.RLock()
	defer tl.mx.RUnlock()

	out := make([]Keyframe[T], len(tl.frames))
	copy(out, tl.frames)
	return out
}

// First returns the earliest keyframe.
func (tl *Timeline[T]) First() (Keyframe[T], bool) {
	tl.mx.RLock()
	defer tl.mx.RUnlock()

	if len(tl.frames) == 0 {
		return Keyframe[T]{}, false
	}
	return tl.frames[0], true
}

// Last returns the latest keyframe.
func (tl *Timeline[T]) Last() (Keyframe[T], bool) {
	tl.mx.RLock()
	defer tl.mx.RUnlock()

	if len(tl.frames) == 0 {
		return Keyframe[T]{}, false
	}
	return tl.frames[len(tl.frames)-1], true
}

func (tl *Timeline[T]) Len() int {
	tl.mx.RLock()
	defer tl.mx.RUnlock()
	return len(tl.frames)
}

// search returns the index of the first keyframe with Time >= at.
func (tl *Timeline[T]) search(at models.Time) int {
	return sort.Search(len(tl.frames), func(i int) bool {
		return tl.frames[i].Time >= at
	})
}

// floor returns the index of the latest keyframe with Time <= at, or -1.
func (tl *Timeline[T]) floor(at models.Time) int {
	n := len(tl.frames)
	if n > 0 && tl.frames[n-1].Time <= at {
		return n - 1
	}
	return sort.Search(n, func(i int) bool {
		return tl.frames[i].Time > at
	}) - 1
}

func canInterpolate[T any](cur, next Keyframe[T]) bool {
	if !cur.Value.IsSome() || !next.Value.IsSome() {
		return false
	}
	_, ok := any(cur.Value.OrZero()).(models.Interpolator[T])
	return ok
}

func interpolate[T any](cur, next Keyframe[T], at models.Time) (T, bool) {
	var zero T
	a, aok := cur.Value.Get()
	b, bok := next.Value.Get()
	if !aok || !bok {
		return zero, false
	}
	ip, ok := any(a).(models.Interpolator[T])
	if !ok {
		return zero, false
	}
	alpha := (float64(at) - float64(cur.Time)) / (float64(next.Time) - float64(cur.Time))
	return ip.Interpolate(b, alpha), true
}
