package common

import "errors"

// Sentinel errors shared across nursery, watchers and the RPC layer.
var (
	// ErrSwapNotFound names a lookup for which no row exists. The
	// repositories return swap.ErrNotFound instead; nothing in the module
	// returns this value.
	ErrSwapNotFound = errors.New("swap not found")

	// ErrAlreadyLocked names a second server-side lockup for a swap that
	// already recorded one (invariant I2). The nursery skips such a lockup
	// and returns nil; nothing in the module returns this value.
	ErrAlreadyLocked = errors.New("prevented attempt to send a second lockup transaction")

	// ErrNotLockedYet names a refund attempted before any server lockup was
	// recorded (invariant I3). The nursery skips such a refund and returns
	// nil; nothing in the module returns this value.
	ErrNotLockedYet = errors.New("cannot refund: no server lockup transaction on record")

	// ErrTimeoutNotElapsed names a refund attempted before the HTLC timeout
	// height/timestamp has passed. Nothing in the module returns it.
	ErrTimeoutNotElapsed = errors.New("cannot refund: htlc timeout has not elapsed")

	// ErrQueueOverflow is returned by a category lock whose bounded FIFO
	// queue is full.
	ErrQueueOverflow = errors.New("category lock queue is full")
)
