package concurrent

import (
	"context"

	"github.com/zeusync/timeline/pkg/sequence"
	"golang.org/x/sync/errgroup"
)

// ForEach runs action for every element with at most limit goroutines in flight.
// A limit <= 0 means no limit. The first error cancels the context passed to
// the remaining actions and stops scheduling new ones.
func ForEach[T any](ctx context.Context, i *sequence.Iterator[T], limit int, action func(context.Context, T) error) error {
	errGroup, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		errGroup.SetLimit(limit)
	}

	for value := range i.Seq() {
		if gctx.Err() != nil {
			break
		}
		errGroup.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return action(gctx, value)
		})
	}

	if err := errGroup.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// ParallelMap applies mapFn to each element in parallel, preserving order.
// The limit parameter bounds the number of goroutines (<= 0 means unbounded).
func ParallelMap[T any, R any](ctx context.Context, i *sequence.Iterator[T], limit int, mapFn func(context.Context, T) (R, error)) ([]R, error) {
	in := i.Collect()
	out := make([]R, len(in))

	errGroup, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		errGroup.SetLimit(limit)
	}
	for idx, value := range in {
		errGroup.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := mapFn(gctx, value)
			if err != nil {
				return err
			}
			out[idx] = r
			return nil
		})
	}

	if err := errGroup.Wait(); err != nil {
		return out, err
	}
	return out, ctx.Err()
}
