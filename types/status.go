package types

// Status is a SwapUpdateEvent: a point in a swap's per-kind status DAG.
// Terminal statuses transition further only along the DAG edges listed for
// them (an expired reverse or chain swap can still be refunded, and a chain
// swap's server confirmation still leads on to its claim).
type Status string

const (
	// Shared across kinds.
	StatusCreated              Status = "swap.created"
	StatusTransactionMempool   Status = "transaction.mempool"
	StatusTransactionConfirmed Status = "transaction.confirmed"
	StatusSwapExpired          Status = "swap.expired"

	// Submarine.
	StatusInvoicePending          Status = "invoice.pending"
	StatusInvoicePaid             Status = "invoice.paid"
	StatusTransactionClaimPending Status = "transaction.claimPending"
	StatusTransactionClaimed      Status = "transaction.claimed"
	StatusTransactionZeroConfRejected Status = "transaction.zeroconf.rejected"
	StatusTransactionLockupFailed     Status = "transaction.lockupFailed"

	// ReverseSubmarine.
	StatusMinerFeePaid      Status = "minerfee.paid"
	StatusInvoiceSettled    Status = "invoice.settled"
	StatusInvoiceExpired    Status = "invoice.expired"
	StatusTransactionRefunded Status = "transaction.refunded"
	StatusTransactionFailed  Status = "transaction.failed"

	// Chain.
	StatusTransactionServerMempool   Status = "transaction.server.mempool"
	StatusTransactionServerConfirmed Status = "transaction.server.confirmed"
)

// IsTerminal reports whether status s is terminal for swap kind k. Some
// statuses (TransactionConfirmed) are terminal only for a subset of kinds,
// so the kind is required.
func IsTerminal(k SwapKind, s Status) bool {
	switch k {
	case Submarine:
		switch s {
		case StatusTransactionClaimed, StatusTransactionLockupFailed, StatusSwapExpired:
			return true
		}
		// TransactionZeroConfRejected is marked bold in spec.md (a failure
		// outcome) but is explicitly recoverable: the eventual confirmation
		// still drives the swap to TransactionConfirmed, so it must not
		// block further transitions here.
		return false
	case ReverseSubmarine:
		switch s {
		case StatusInvoiceSettled, StatusInvoiceExpired, StatusSwapExpired,
			StatusTransactionRefunded, StatusTransactionFailed:
			return true
		}
		return false
	case Chain:
		switch s {
		case StatusTransactionServerConfirmed, StatusTransactionClaimed,
			StatusTransactionLockupFailed, StatusInvoiceExpired, StatusSwapExpired,
			StatusTransactionRefunded, StatusTransactionFailed:
			return true
		}
		return false
	}
	return false
}

// dag maps, per kind, each status to the set of statuses it may advance to.
// It encodes spec.md §3's per-kind progressions (including failure
// branches) and is consulted by CanTransition; the nursery does not call
// CanTransition.
var dag = map[SwapKind]map[Status][]Status{
	Submarine: {
		StatusCreated:                  {StatusTransactionMempool, StatusTransactionLockupFailed, StatusSwapExpired},
		StatusTransactionMempool:       {StatusTransactionConfirmed, StatusTransactionZeroConfRejected, StatusSwapExpired},
		StatusTransactionZeroConfRejected: {StatusTransactionConfirmed},
		StatusTransactionConfirmed:     {StatusInvoicePending, StatusSwapExpired},
		StatusInvoicePending:           {StatusInvoicePaid, StatusSwapExpired},
		StatusInvoicePaid:              {StatusTransactionClaimPending, StatusSwapExpired},
		StatusTransactionClaimPending:  {StatusTransactionClaimed},
	},
	ReverseSubmarine: {
		StatusCreated:            {StatusMinerFeePaid, StatusTransactionMempool, StatusInvoiceExpired, StatusSwapExpired},
		StatusMinerFeePaid:       {StatusTransactionMempool, StatusTransactionFailed, StatusSwapExpired},
		StatusTransactionMempool: {StatusTransactionConfirmed, StatusTransactionFailed},
		StatusTransactionConfirmed: {StatusInvoiceSettled, StatusSwapExpired, StatusTransactionRefunded},
		StatusSwapExpired:        {StatusTransactionRefunded},
	},
	Chain: {
		StatusCreated:                {StatusTransactionMempool, StatusTransactionLockupFailed, StatusSwapExpired},
		StatusTransactionMempool:     {StatusTransactionConfirmed, StatusSwapExpired},
		StatusTransactionConfirmed:   {StatusTransactionServerMempool, StatusSwapExpired},
		StatusTransactionServerMempool: {StatusTransactionServerConfirmed},
		StatusTransactionServerConfirmed: {StatusTransactionClaimPending, StatusTransactionRefunded},
		StatusTransactionClaimPending: {StatusTransactionClaimed},
		StatusSwapExpired:            {StatusTransactionRefunded},
	},
}

// CanTransition reports whether moving a swap of kind k from `from` to `to`
// is a legal edge in the per-kind status DAG (edges out of a terminal status
// included), or a no-op re-fire of the same status (invariant I6).
func CanTransition(k SwapKind, from, to Status) bool {
	if from == to {
		// idempotent re-fire of the same status is always permitted.
		return true
	}
	for _, next := range dag[k][from] {
		if next == to {
			return true
		}
	}
	return false
}
