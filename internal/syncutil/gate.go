// Package syncutil provides the small concurrency primitives shared by the
// import pipeline and the image cache: a bounded concurrency gate and a
// per-key task coalescer.
package syncutil

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Gate caps the number of concurrently running operations. It is a thin
// wrapper over a weighted semaphore with a fixed permit count set at
// construction.
type Gate struct {
	sem   *semaphore.Weighted
	limit int64
}

// NewGate returns a Gate allowing at most limit concurrent holders.
// A limit below 1 is treated as 1.
func NewGate(limit int) *Gate {
	if limit < 1 {
		limit = 1
	}
	return &Gate{
		sem:   semaphore.NewWeighted(int64(limit)),
		limit: int64(limit),
	}
}

// Acquire blocks until a permit is available or ctx is cancelled.
func (g *Gate) Acquire(ctx context.Context) error {
	return g.sem.Acquire(ctx, 1)
}

// Release returns a permit taken by Acquire.
func (g *Gate) Release() {
	g.sem.Release(1)
}

// Do runs fn while holding a permit. The permit is released on every path,
// including panics and fn returning an error, so a failed operation can
// never leak a permit.
func (g *Gate) Do(ctx context.Context, fn func() error) error {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer g.sem.Release(1)
	return fn()
}

// TryAcquire takes a permit without blocking, reporting whether it succeeded.
func (g *Gate) TryAcquire() bool {
	return g.sem.TryAcquire(1)
}

// Limit returns the configured permit count.
func (g *Gate) Limit() int {
	return int(g.limit)
}
