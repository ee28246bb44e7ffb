package nursery

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/djkazic/boltz-backend/common"
)

func TestCategoryLock_SerializesHandlers(t *testing.T) {
	l := newCategoryLock(10)
	defer l.Stop()

	var (
		mu      sync.Mutex
		active  int
		maxSeen int
	)
	enter := func() {
		mu.Lock()
		active++
		if active > maxSeen {
			maxSeen = active
		}
		mu.Unlock()
	}
	leave := func() {
		mu.Lock()
		active--
		mu.Unlock()
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.Run(context.Background(), func(context.Context) error {
				enter()
				time.Sleep(time.Millisecond)
				leave()
				return nil
			})
		}()
	}
	wg.Wait()

	require.Equal(t, 1, maxSeen, "category lock let more than one handler run concurrently")
}

func TestCategoryLock_PreservesSubmissionOrder(t *testing.T) {
	l := newCategoryLock(10)
	defer l.Stop()

	var (
		mu    sync.Mutex
		order []int
	)

	// Submit serially from the same goroutine so submission order is
	// well-defined, then confirm execution happened in that order.
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		i := i
		wg.Add(1)
		err := l.Run(context.Background(), func(context.Context) error {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			wg.Done()
			return nil
		})
		require.NoError(t, err)
	}
	wg.Wait()

	for i, v := range order {
		require.Equalf(t, i, v, "execution order = %v, want strictly increasing submission order", order)
	}
}

func TestCategoryLock_PropagatesHandlerError(t *testing.T) {
	l := newCategoryLock(10)
	defer l.Stop()

	wantErr := errors.New("handler failed")
	err := l.Run(context.Background(), func(context.Context) error {
		return wantErr
	})
	require.ErrorIs(t, err, wantErr)
}

func TestCategoryLock_QueueOverflowFailsFast(t *testing.T) {
	l := newCategoryLock(1)
	defer l.Stop()

	release := make(chan struct{})
	started := make(chan struct{})

	// Occupy the single worker with a blocked task.
	go func() {
		_ = l.Run(context.Background(), func(context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	// Fill the depth-1 queue with one more task.
	blockedSubmitted := make(chan struct{})
	go func() {
		_ = l.Run(context.Background(), func(context.Context) error { return nil })
		close(blockedSubmitted)
	}()
	// Give the second submission a moment to land in the channel buffer.
	time.Sleep(10 * time.Millisecond)

	// A third submission must overflow immediately rather than block.
	err := l.Run(context.Background(), func(context.Context) error { return nil })
	require.ErrorIs(t, err, common.ErrQueueOverflow)

	close(release)
	<-blockedSubmitted
}

func TestCategoryLock_RunRespectsContextCancellation(t *testing.T) {
	l := newCategoryLock(1)
	defer l.Stop()

	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = l.Run(context.Background(), func(context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- l.Run(ctx, func(context.Context) error { return nil })
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return promptly after context cancellation")
	}

	close(release)
}
