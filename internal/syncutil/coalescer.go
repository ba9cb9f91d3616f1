package syncutil

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// Coalescer deduplicates in-flight computations by key. Concurrent callers
// for the same key share a single execution of the work function and all
// receive its result; once the computation completes the key is forgotten,
// so a later call runs the work again.
//
// This exists to stop redundant thumbnail renders and image decodes when
// several consumers request the same resource at the same time.
type Coalescer struct {
	group singleflight.Group
}

// NewCoalescer returns an empty Coalescer ready for use.
func NewCoalescer() *Coalescer {
	return &Coalescer{}
}

// Perform executes work for key, or joins an in-flight execution for the
// same key. Cancellation of the caller's ctx abandons only that caller; the
// shared computation keeps running for everyone else still waiting, and its
// result is still cached for them.
func (c *Coalescer) Perform(ctx context.Context, key string, work func() (any, error)) (any, error) {
	ch := c.group.DoChan(key, work)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.Val, res.Err
	}
}
