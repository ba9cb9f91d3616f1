package syncutil

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoalescerSharesInFlightWork(t *testing.T) {
	coalescer := NewCoalescer()
	ctx := context.Background()

	var invocations atomic.Int64
	started := make(chan struct{})
	release := make(chan struct{})

	slowOp := func() (any, error) {
		invocations.Add(1)
		close(started)
		<-release
		return "shared result", nil
	}

	var wg sync.WaitGroup
	results := make([]any, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		res, err := coalescer.Perform(ctx, "x", slowOp)
		require.NoError(t, err)
		results[0] = res
	}()

	// Wait until the first caller's work is running, then join it.
	<-started
	wg.Add(1)
	go func() {
		defer wg.Done()
		res, err := coalescer.Perform(ctx, "x", func() (any, error) {
			invocations.Add(1)
			return "should not run", nil
		})
		require.NoError(t, err)
		results[1] = res
	}()

	// Give the second caller time to register before releasing the work.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int64(1), invocations.Load(), "work must run exactly once")
	assert.Equal(t, "shared result", results[0])
	assert.Equal(t, "shared result", results[1])
}

func TestCoalescerForgetsCompletedKeys(t *testing.T) {
	coalescer := NewCoalescer()
	ctx := context.Background()

	var invocations atomic.Int64
	work := func() (any, error) {
		return invocations.Add(1), nil
	}

	first, err := coalescer.Perform(ctx, "key", work)
	require.NoError(t, err)
	second, err := coalescer.Perform(ctx, "key", work)
	require.NoError(t, err)

	assert.Equal(t, int64(1), first)
	assert.Equal(t, int64(2), second, "completed key must not pin its result")
}

func TestCoalescerCancellationIsPerCaller(t *testing.T) {
	coalescer := NewCoalescer()

	started := make(chan struct{})
	release := make(chan struct{})
	work := func() (any, error) {
		close(started)
		<-release
		return 42, nil
	}

	// Survivor joins with a background context.
	survivorDone := make(chan struct{})
	var survivorVal any
	var survivorErr error
	go func() {
		defer close(survivorDone)
		survivorVal, survivorErr = coalescer.Perform(context.Background(), "k", work)
	}()
	<-started

	// A second caller with a short-lived context joins, then gives up.
	ctx, cancel := context.WithCancel(context.Background())
	cancelledDone := make(chan struct{})
	var cancelledErr error
	go func() {
		defer close(cancelledDone)
		_, cancelledErr = coalescer.Perform(ctx, "k", func() (any, error) {
			return nil, nil
		})
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()
	<-cancelledDone
	require.ErrorIs(t, cancelledErr, context.Canceled)

	// The shared computation must still complete for the survivor.
	close(release)
	<-survivorDone
	require.NoError(t, survivorErr)
	assert.Equal(t, 42, survivorVal)
}
