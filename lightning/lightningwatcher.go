package lightning

import (
	"context"
	"errors"
	"time"

	logging "github.com/ipfs/go-log"

	"github.com/djkazic/boltz-backend/events"
	"github.com/djkazic/boltz-backend/types"
)

var watcherLog = logging.Logger("lightningwatcher")

// ReverseSwapLookup resolves a preimage hash to the reverse swap data
// LightningWatcher needs to decide which of the (up to) two accepted
// invoices (main vs. prepay minerfee) just fired.
type ReverseSwapLookup interface {
	// Lookup returns the swap ID and whether hash is the prepay minerfee
	// invoice's hash rather than the main invoice's hash.
	Lookup(hash types.Hash) (swapID types.Hash, isMinerFeeInvoice bool, ok bool)
}

// Watcher subscribes to hold-invoice Accepted transitions for a single
// Lightning client and emits invoice.paid / minerfee.invoice.paid, per
// spec.md §4.5.
type Watcher struct {
	client  Client
	lookup  ReverseSwapLookup
	out     chan events.Event
}

// NewWatcher constructs a LightningWatcher for one Lightning client.
func NewWatcher(client Client, lookup ReverseSwapLookup) *Watcher {
	return &Watcher{
		client: client,
		lookup: lookup,
		out:    make(chan events.Event, 256),
	}
}

// Events returns the channel of invoice.paid / minerfee.invoice.paid
// events.
func (w *Watcher) Events() <-chan events.Event {
	return w.out
}

// Run subscribes to invoice-accepted notifications until ctx is
// cancelled or the subscription ends.
func (w *Watcher) Run(ctx context.Context) error {
	accepted, err := w.client.SubscribeInvoiceAccepted(ctx)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case hash, ok := <-accepted:
			if !ok {
				return nil
			}
			w.handleAccepted(hash)
		}
	}
}

func (w *Watcher) handleAccepted(hash types.Hash) {
	swapID, isMinerFee, ok := w.lookup.Lookup(hash)
	if !ok {
		watcherLog.Debugf("accepted invoice %s matches no tracked reverse swap", hash)
		return
	}

	if isMinerFee {
		watcherLog.Infof("prepay minerfee invoice for swap %s accepted", swapID)
		w.out <- events.Event{Name: events.MinerFeeInvoicePaid, SwapID: swapID, Kind: types.ReverseSubmarine}
		return
	}

	watcherLog.Infof("main invoice for swap %s accepted", swapID)
	w.out <- events.Event{Name: events.InvoicePaid, SwapID: swapID, Kind: types.ReverseSubmarine}
}

// CancelReverseInvoices cancels a reverse swap's main and (if present)
// prepay minerfee hold invoices (spec.md §4.5). Both are cancelled whatever
// isSendFailure says, since the server never locked up funds to use them
// against; the flag only adds a log line noting the send failure.
func CancelReverseInvoices(
	ctx context.Context,
	callTimeout time.Duration,
	client Client,
	preimageHash types.Hash,
	minerFeePreimageHash *types.Hash,
	isSendFailure bool,
) error {
	if err := cancelOne(ctx, callTimeout, client, preimageHash); err != nil {
		return err
	}

	if minerFeePreimageHash == nil {
		return nil
	}

	if isSendFailure {
		watcherLog.Infof("refunding prepay minerfee invoice %s after send failure", *minerFeePreimageHash)
	}
	return cancelOne(ctx, callTimeout, client, *minerFeePreimageHash)
}

func cancelOne(ctx context.Context, callTimeout time.Duration, client Client, hash types.Hash) error {
	_, err := RaceCall(ctx, callTimeout, func(c context.Context) (struct{}, error) {
		return struct{}{}, client.CancelHoldInvoice(c, hash)
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Expected during regtest/restart races: the invoice is
			// already gone. Status still advances as if the cancel
			// succeeded.
			watcherLog.Debugf("cancel of invoice %s: already gone", hash)
			return nil
		}
		return err
	}
	return nil
}
