// Package refundwatcher implements the RefundWatcher collaborator of
// spec.md §4.7: it polls every broadcast refund transaction for
// confirmation and emits refund.confirmed once each reaches the required
// depth, mirroring the teacher's chain watcher polling style but over a
// repository of known txids rather than a chain's full mempool/block feed.
package refundwatcher

import (
	"context"
	"time"

	logging "github.com/ipfs/go-log"

	"github.com/djkazic/boltz-backend/currency"
	"github.com/djkazic/boltz-backend/events"
	"github.com/djkazic/boltz-backend/swap"
	"github.com/djkazic/boltz-backend/types"
)

var log = logging.Logger("refundwatcher")

// Watcher polls RefundTransactionRepository.GetUnconfirmed on an interval,
// checking each transaction's confirmation depth against the configured
// threshold via its currency's ChainClient.
type Watcher struct {
	repo         swap.RefundTransactionRepository
	currencies   *currency.Registry
	pollInterval time.Duration
	requiredConf uint32

	out chan events.Event
}

// New constructs a Watcher. requiredConf is the confirmation depth a
// refund transaction must reach before refund.confirmed fires.
func New(repo swap.RefundTransactionRepository, currencies *currency.Registry, pollInterval time.Duration, requiredConf uint32) *Watcher {
	return &Watcher{
		repo:         repo,
		currencies:   currencies,
		pollInterval: pollInterval,
		requiredConf: requiredConf,
		out:          make(chan events.Event),
	}
}

// Events returns the channel of refund.confirmed events, meant to be
// passed to nursery.Subscribe.
func (w *Watcher) Events() <-chan events.Event {
	return w.out
}

// Run polls until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	defer close(w.out)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.pollOnce(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (w *Watcher) pollOnce(ctx context.Context) {
	pending, err := w.repo.GetUnconfirmed(ctx)
	if err != nil {
		log.Errorf("list unconfirmed refund transactions: %s", err)
		return
	}

	for _, tx := range pending {
		if tx.Symbol == "" {
			// EVM refund: confirmation is the contract handler's own
			// responsibility at send time, nothing further to poll here.
			continue
		}

		cur, ok := w.currencies.Get(tx.Symbol)
		if !ok || cur.Chain == nil {
			log.Warnf("refund tx %s: no chain client configured for symbol %s", tx.ID, tx.Symbol)
			continue
		}

		confs, err := cur.Chain.Confirmations(ctx, tx.ID)
		if err != nil {
			log.Warnf("refund tx %s: check confirmations: %s", tx.ID, err)
			continue
		}
		if confs < w.requiredConf {
			continue
		}

		if err := w.repo.RemoveTransaction(ctx, tx.SwapID); err != nil {
			log.Warnf("refund tx %s: remove after confirmation: %s", tx.ID, err)
		}

		w.emit(ctx, events.Event{
			Name:   events.RefundConfirmed,
			SwapID: mustHash(tx.SwapID),
			Kind:   tx.Kind,
			Data:   tx.ID,
		})
	}
}

func (w *Watcher) emit(ctx context.Context, ev events.Event) {
	select {
	case w.out <- ev:
	case <-ctx.Done():
	}
}

func mustHash(id string) types.Hash {
	h, err := types.HexToHash(id)
	if err != nil {
		return types.Hash{}
	}
	return h
}
