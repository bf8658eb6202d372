// Package pool provides a bounded worker pool used to parallelize the
// independent per-column work inside the batched base OT, without ever
// parallelizing across a protocol's own waitpoints (spec §5). Triple
// generation does not use it to run several triples in parallel.
package pool

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Pool bounds the number of goroutines used by a single parallel fan-out.
// A nil *Pool is valid and means "run serially" (useful for tests that want
// deterministic execution order).
type Pool struct {
	size int
}

// NewPool creates a pool with the given worker count. size <= 0 uses
// GOMAXPROCS.
func NewPool(size int) *Pool {
	if size <= 0 {
		size = runtime.GOMAXPROCS(0)
	}
	return &Pool{size: size}
}

// Parallelize runs fn(i) for every i in [0, n), bounded by the pool's
// worker count, and returns the first error encountered (if any); all
// outstanding work is awaited before returning regardless of error, so
// partial state never escapes (spec §5: "partial state is dropped").
func (p *Pool) Parallelize(n int, fn func(i int) error) error {
	if n == 0 {
		return nil
	}
	if p == nil || p.size <= 1 {
		for i := 0; i < n; i++ {
			if err := fn(i); err != nil {
				return err
			}
		}
		return nil
	}

	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(p.size)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error { return fn(i) })
	}
	return g.Wait()
}
