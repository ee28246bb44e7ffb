// Package events defines the event envelope watchers publish and the
// nursery consumes (spec.md §2 "data flows upward"). Keeping the type here
// rather than in package nursery lets every watcher package (utxo, evm,
// lightning) depend only on this leaf package instead of on the nursery.
package events

import (
	"github.com/djkazic/boltz-backend/types"
)

// Name is the event-name constant space listed in spec.md §6.
type Name string

const (
	// UTXO / generic transaction events.
	Transaction             Name = "transaction"
	ZeroConfRejected        Name = "zeroconf.rejected"
	SwapLockup              Name = "swap.lockup"
	SwapLockupFailed        Name = "swap.lockup.failed"
	ReverseSwapClaimed      Name = "reverseSwap.claimed"
	ChainSwapLockup         Name = "chainSwap.lockup"
	ChainSwapClaimed        Name = "chainSwap.claimed"
	ServerLockupConfirmed   Name = "server.lockup.confirmed"
	SwapExpired             Name = "swap.expired"
	ReverseSwapExpired      Name = "reverseSwap.expired"
	ChainSwapExpired        Name = "chainSwap.expired"

	// EVM events.
	EthLockup        Name = "eth.lockup"
	ERC20Lockup      Name = "erc20.lockup"
	LockupConfirmed  Name = "lockup.confirmed"
	Claim            Name = "claim"
	LockupFailedToSend Name = "lockup.failedToSend"

	// Lightning events.
	InvoiceExpired       Name = "invoice.expired"
	InvoicePaid          Name = "invoice.paid"
	MinerFeeInvoicePaid  Name = "minerfee.invoice.paid"
	InvoiceSettled       Name = "invoice.settled"

	// Nursery-emitted outgoing events (spec.md §6).
	ClaimPending     Name = "claim.pending"
	Expiration       Name = "expiration"
	CoinsSent        Name = "coins.sent"
	CoinsFailedToSend Name = "coins.failedToSend"
	Refund           Name = "refund"
	MinerfeePaid     Name = "minerfee.paid"
	RefundConfirmed  Name = "refund.confirmed"
)

// Event is the envelope published on a watcher's output channel and
// consumed by the nursery's per-kind dispatch loop.
type Event struct {
	Name     Name
	SwapID   types.Hash
	Kind     types.SwapKind
	Data     interface{}
}
