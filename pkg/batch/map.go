package batch

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is used when a non-positive concurrency is requested.
const DefaultConcurrency = 10

// Map calls fn on every item using at most concurrency goroutines and returns the results in
// input order.  The first error cancels the context passed to the remaining calls and is
// returned.
func Map[T, R any](ctx context.Context, items []T, concurrency int, fn func(ctx context.Context, item T) (R, error)) ([]R, error) {
	results := make([]R, len(items))
	if len(items) == 0 {
		return results, nil
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if concurrency > len(items) {
		concurrency = len(items)
	}

	g, gctx := errgroup.WithContext(ctx)
	var cursor atomic.Int64
	for w := 0; w < concurrency; w++ {
		g.Go(func() error {
			for {
				i := int(cursor.Add(1) - 1)
				if i >= len(items) {
					return nil
				}
				if err := gctx.Err(); err != nil {
					return err
				}
				r, err := fn(gctx, items[i])
				if err != nil {
					return err
				}
				results[i] = r
			}
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// ForEach is Map for functions without results.
func ForEach[T any](ctx context.Context, items []T, concurrency int, fn func(ctx context.Context, item T) error) error {
	_, err := Map(ctx, items, concurrency, func(ctx context.Context, item T) (struct{}, error) {
		return struct{}{}, fn(ctx, item)
	})
	return err
}
