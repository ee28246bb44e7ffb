package nursery

import (
	"context"

	"github.com/djkazic/boltz-backend/types"
)

// runRetry implements spec.md §4.1's retry timer: periodically re-drives
// attempt_settle for every submarine swap stuck awaiting (or mid-flight
// on) its Lightning payment, in case a prior PayInvoice call returned
// in-flight rather than success/failure (e.g. after a daemon restart).
// retryRunning is a non-blocking trylock: an overlapping tick is simply
// skipped rather than queued, since the next tick will cover it.
func (n *Nursery) runRetry(ctx context.Context) {
	if !n.retryRunning.TryLock() {
		return
	}
	defer n.retryRunning.Unlock()

	pending, err := n.cfg.Swaps.GetSwaps(ctx, types.StatusInvoicePending, types.StatusInvoicePaid)
	if err != nil {
		log.Errorf("retry timer: listing pending submarine swaps failed: %s", err)
		return
	}

	for _, s := range pending {
		swapID, err := types.HexToHash(s.ID)
		if err != nil {
			log.Errorf("retry timer: swap %s has a non-hash id: %s", s.ID, err)
			continue
		}

		err = n.swapLock.Run(ctx, func(ctx context.Context) error {
			return n.attemptSettle(ctx, types.Submarine, swapID, nil)
		})
		if err != nil {
			log.Warnf("retry timer: re-driving swap %s failed: %s", s.ID, err)
		}
	}
}
