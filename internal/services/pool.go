package services

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Result is the outcome of one item processed by MapOrdered.
type Result[R any] struct {
	Value R
	Err   error
}

// MapOrdered applies fn to every item with at most limit calls in flight.
//
// A fixed set of workers each claim the next unprocessed index until the list
// is exhausted. Results are stored by input position, not completion order,
// so callers merging them see a deterministic sequence. A failing item does
// not stop the others.
func MapOrdered[T, R any](
	ctx context.Context,
	items []T,
	limit int,
	fn func(ctx context.Context, i int, item T) (R, error),
) []Result[R] {
	out := make([]Result[R], len(items))
	if len(items) == 0 {
		return out
	}

	if limit < 1 {
		limit = 1
	}
	if limit > len(items) {
		limit = len(items)
	}

	var next atomic.Int64
	var g errgroup.Group

	for w := 0; w < limit; w++ {
		g.Go(func() error {
			for {
				i := int(next.Add(1) - 1)
				if i >= len(items) {
					return nil
				}
				if err := ctx.Err(); err != nil {
					out[i] = Result[R]{Err: err}
					continue
				}

				v, err := fn(ctx, i, items[i])
				out[i] = Result[R]{Value: v, Err: err}
			}
		})
	}

	// Workers never return an error; failures live in out.
	_ = g.Wait()

	return out
}
