package nursery

import (
	"context"

	"github.com/djkazic/boltz-backend/common"
)

// categoryLock is a FIFO mutex with a bounded pending-acquisition queue,
// implementing spec.md §4.1's three named locks (`swap`, `reverseSwap`,
// `chainSwap`) as a single serial worker goroutine per spec.md §9's
// redesign note ("map to three serial message-processing tasks... no
// user-visible locking API is needed"), rather than a literal
// sync.Mutex — acquisition order is exactly submission order, and a full
// queue fails fast instead of blocking the submitting watcher goroutine.
type categoryLock struct {
	work chan func()
	done chan struct{}
}

// newCategoryLock starts the worker goroutine backing one category lock.
// queueDepth bounds the number of pending tasks; a full queue causes
// Run to return common.ErrQueueOverflow immediately instead of blocking.
func newCategoryLock(queueDepth int) *categoryLock {
	l := &categoryLock{
		work: make(chan func(), queueDepth),
		done: make(chan struct{}),
	}
	go l.loop()
	return l
}

func (l *categoryLock) loop() {
	for {
		select {
		case fn, ok := <-l.work:
			if !ok {
				return
			}
			fn()
		case <-l.done:
			// Drain whatever is already queued before exiting, giving
			// in-flight handlers a bounded chance to finish (spec.md §5
			// "orchestrator drains in-flight handlers up to a bounded
			// deadline").
			for {
				select {
				case fn, ok := <-l.work:
					if !ok {
						return
					}
					fn()
				default:
					return
				}
			}
		}
	}
}

// Run submits fn to execute serially on this category's worker goroutine
// and blocks until fn has completed (or ctx is cancelled while fn still
// waits in queue). Handlers for the same category never interleave and
// always observe each other's completed mutations, matching spec.md §5's
// "no two handlers for the same kind observe an intermediate state".
func (l *categoryLock) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	resultCh := make(chan error, 1)
	task := func() {
		resultCh <- fn(ctx)
	}

	select {
	case l.work <- task:
	default:
		return common.ErrQueueOverflow
	}

	select {
	case err := <-resultCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop signals the worker goroutine to drain and exit.
func (l *categoryLock) Stop() {
	close(l.done)
}
