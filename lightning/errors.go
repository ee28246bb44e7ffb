// Package lightning defines the Lightning collaborator contract the
// nursery consumes (spec.md §6), the NodeSwitch node selector, the
// PaymentHandler that drives submarine-invoice payment, and the two
// watchers (InvoiceWatcher, LightningWatcher) that observe hold-invoice
// lifecycle events.
package lightning

import "errors"

// ErrNotFound is the typed replacement for the string-matching fallbacks
// ("unable to locate invoice", "there are no existing invoices", "hold
// invoice not found") the original implementation used on cancel calls.
// Adapters must translate their RPC's not-found condition into this
// sentinel so the core can pattern-match instead of string-match, per
// spec.md §9 ("Downgraded Lightning errors").
var ErrNotFound = errors.New("lightning: invoice not found")

// ErrTimeout is raised by RaceCall when the wrapped RPC does not return
// within the configured call timeout. Local state is left unchanged.
var ErrTimeout = errors.New("lightning: rpc call timed out")

// ErrPermanent marks a payment failure that is not retried (e.g. invoice
// expired, no route, invoice already paid by someone else). Nothing in this
// package returns it: PaymentHandler.PayInvoice reports an in-flight
// payment as a nil preimage with a nil error and passes any other failure
// through unchanged.
var ErrPermanent = errors.New("lightning: payment failed permanently")

// IsNotFound reports whether err (possibly wrapped) is ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
