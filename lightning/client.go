package lightning

import (
	"context"
	"time"

	"github.com/djkazic/boltz-backend/types"
)

// HoldInvoiceState is the lifecycle of a hold invoice as tracked by the
// LightningWatcher: Open → Accepted → Settled | Cancelled.
type HoldInvoiceState int

const (
	InvoiceOpen HoldInvoiceState = iota
	InvoiceAccepted
	InvoiceSettled
	InvoiceCancelled
)

// PayOptions configures a single pay(invoice) call.
type PayOptions struct {
	OutgoingChannelID uint64 // 0 means "let the node route freely"
	MaxFeeMsat        uint64
	TimeoutSeconds    uint32
}

// HoldInvoiceLookup is the state and per-HTLC detail returned by
// LookupHoldInvoice.
type HoldInvoiceLookup struct {
	State HoldInvoiceState
	HTLCs []HTLCState
}

// HTLCState is the state of one HTLC attached to a hold invoice.
type HTLCState int

const (
	HTLCAccepted HTLCState = iota
	HTLCSettled
	HTLCCancelled
)

// Client is the Lightning collaborator consumed by the nursery, the
// PaymentHandler and the two Lightning watchers (spec.md §6). Concrete
// node adapters (LND, CLN, …) implement it; their RPC plumbing is out of
// scope here.
type Client interface {
	Name() string

	// DecodeInvoice parses a BOLT11 invoice string.
	DecodeInvoice(invoice string) (*DecodedInvoice, error)

	// Pay attempts to pay invoice, blocking until the payment either
	// succeeds, fails permanently, or the context is cancelled. A nil
	// error with a nil preimage means the payment is still in flight
	// (e.g. after a daemon restart) and should be retried later.
	Pay(ctx context.Context, invoice string, opts PayOptions) (preimage []byte, err error)

	// AddHoldInvoice creates a hold invoice for preimageHash, payable up
	// to amountMsat, expiring after expiry.
	AddHoldInvoice(ctx context.Context, preimageHash types.Hash, amountMsat uint64, expiry time.Duration, memo string) (invoice string, err error)
	// SettleHoldInvoice reveals preimage to the routing network, settling
	// every HTLC of the invoice whose hash matches sha256(preimage).
	SettleHoldInvoice(ctx context.Context, preimage []byte) error
	// CancelHoldInvoice cancels every HTLC of the invoice without
	// revealing a preimage.
	CancelHoldInvoice(ctx context.Context, preimageHash types.Hash) error
	// LookupHoldInvoice returns the invoice's current state.
	LookupHoldInvoice(ctx context.Context, preimageHash types.Hash) (*HoldInvoiceLookup, error)

	// SubscribeInvoiceAccepted streams preimage hashes of invoices that
	// transition to Accepted, for consumption by LightningWatcher.
	SubscribeInvoiceAccepted(ctx context.Context) (<-chan types.Hash, error)
}

// DecodedInvoice is the subset of a BOLT11 invoice the nursery needs.
type DecodedInvoice struct {
	PaymentHash types.Hash
	AmountMsat  uint64
	Expiry      time.Duration
	Timestamp   time.Time
}

// RaceCall wraps a blocking Lightning RPC with a timeout, per spec.md §5
// ("Every Lightning RPC is wrapped in race(call, timeout)"). On timeout it
// returns ErrTimeout and leaves whatever local state the caller has not
// yet mutated untouched — callers must not mutate state before RaceCall
// returns.
func RaceCall[T any](ctx context.Context, timeout time.Duration, call func(context.Context) (T, error)) (T, error) {
	var zero T

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resultCh := make(chan T, 1)
	errCh := make(chan error, 1)
	go func() {
		res, err := call(callCtx)
		if err != nil {
			errCh <- err
			return
		}
		resultCh <- res
	}()

	select {
	case res := <-resultCh:
		return res, nil
	case err := <-errCh:
		return zero, err
	case <-callCtx.Done():
		return zero, ErrTimeout
	}
}
