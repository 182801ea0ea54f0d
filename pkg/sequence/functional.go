package sequence

import (
	"iter"
	"slices"
)

// Iterator is a generic, immutable, chainable iterator for any type T.
type Iterator[T any] struct {
	seq iter.Seq[T]
}

// From creates a new Iterator from a slice of T.
func From[T any](data []T) *Iterator[T] {
	return &Iterator[T]{seq: slices.Values(data)}
}

// Keys creates an Iterator over the keys of a pair sequence.
func Keys[K, V any](seq iter.Seq2[K, V]) *Iterator[K] {
	return &Iterator[K]{
		seq: func(yield func(K) bool) {
			for k := range seq {
				if !yield(k) {
					return
				}
			}
		},
	}
}

// Values creates an Iterator over the values of a pair sequence.
func Values[K, V any](seq iter.Seq2[K, V]) *Iterator[V] {
	return &Iterator[V]{
		seq: func(yield func(V) bool) {
			for _, v := range seq {
				if !yield(v) {
					return
				}
			}
		},
	}
}

// Seq returns the underlying sequence function for the iterator.
func (i *Iterator[T]) Seq() iter.Seq[T] {
	return i.seq
}

// Collect exhausts the iterator and returns a slice of all elements.
func (i *Iterator[T]) Collect() []T {
	return slices.Collect(i.seq)
}

// Find returns the first element matching the predicate, or false if not found.
func (i *Iterator[T]) Find(pred func(T) bool) (T, bool) {
	for v := range i.seq {
		if pred(v) {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// First returns the first element, or false if empty.
func (i *Iterator[T]) First() (T, bool) {
	return i.Find(func(T) bool { return true })
}

// Count returns the number of elements in the iterator.
func (i *Iterator[T]) Count() int {
	count := 0
	for range i.seq {
		count++
	}
	return count
}

// Map lazily applies fn to every element.
func Map[T, R any](it *Iterator[T], fn func(T) R) *Iterator[R] {
	return &Iterator[R]{
		seq: func(yield func(R) bool) {
			for v := range it.seq {
				if !yield(fn(v)) {
					return
				}
			}
		},
	}
}

// Distinct drops repeated elements, keeping the first occurrence.
func Distinct[T comparable](it *Iterator[T]) *Iterator[T] {
	return &Iterator[T]{
		seq: func(yield func(T) bool) {
			seen := make(map[T]struct{})
			for v := range it.seq {
				if _, ok := seen[v]; ok {
					continue
				}
				seen[v] = struct{}{}
				if !yield(v) {
					return
				}
			}
		},
	}
}

// Chain concatenates multiple iterators into one.
func Chain[T any](iters ...*Iterator[T]) *Iterator[T] {
	return &Iterator[T]{
		seq: func(yield func(T) bool) {
			for _, it := range iters {
				for v := range it.seq {
					if !yield(v) {
						return
					}
				}
			}
		},
	}
}
