package lightning

import (
	"context"
	"sync"
	"time"

	logging "github.com/ipfs/go-log"

	"github.com/djkazic/boltz-backend/events"
	"github.com/djkazic/boltz-backend/types"
)

var invoiceLog = logging.Logger("invoicewatcher")

// ReverseInvoice is the minimal view InvoiceWatcher needs of a reverse
// swap's hold invoice.
type ReverseInvoice struct {
	SwapID     types.Hash
	ExpiresAt  time.Time
	IsSettled  func() bool // queried lazily so the watcher never owns swap state (spec.md §3 "Ownership")
}

// InvoiceWatcher polls a set of reverse swaps' hold-invoice expiry
// metadata and emits invoice.expired once an invoice's deadline has
// passed without settlement (spec.md §4.4).
type InvoiceWatcher struct {
	pollInterval time.Duration
	out          chan events.Event

	mu       sync.Mutex
	tracked  map[types.Hash]*ReverseInvoice
}

// NewInvoiceWatcher constructs an InvoiceWatcher. pollInterval governs how
// often the tracked set is scanned for expiry.
func NewInvoiceWatcher(pollInterval time.Duration) *InvoiceWatcher {
	return &InvoiceWatcher{
		pollInterval: pollInterval,
		out:          make(chan events.Event, 256),
		tracked:      make(map[types.Hash]*ReverseInvoice),
	}
}

// Events returns the channel of invoice.expired events.
func (w *InvoiceWatcher) Events() <-chan events.Event {
	return w.out
}

// Track registers a reverse swap's hold invoice for expiry monitoring.
// Lifecycle events (settlement, swap terminal status) must call Untrack.
func (w *InvoiceWatcher) Track(inv *ReverseInvoice) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tracked[inv.SwapID] = inv
}

// Untrack removes a swap from expiry monitoring.
func (w *InvoiceWatcher) Untrack(swapID types.Hash) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.tracked, swapID)
}

// Run polls the tracked set until ctx is cancelled.
func (w *InvoiceWatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			w.scan(now)
		}
	}
}

func (w *InvoiceWatcher) scan(now time.Time) {
	w.mu.Lock()
	expired := make([]types.Hash, 0)
	for id, inv := range w.tracked {
		if now.Before(inv.ExpiresAt) {
			continue
		}
		if inv.IsSettled != nil && inv.IsSettled() {
			continue
		}
		expired = append(expired, id)
		delete(w.tracked, id)
	}
	w.mu.Unlock()

	for _, id := range expired {
		invoiceLog.Infof("invoice for swap %s expired", id)
		w.out <- events.Event{Name: events.InvoiceExpired, SwapID: id, Kind: types.ReverseSubmarine}
	}
}
