package swap

import (
	"context"
	"errors"

	"github.com/djkazic/boltz-backend/types"
)

// ErrNotFound is returned by every repository's Get when no row matches
// the given id.
var ErrNotFound = errors.New("swap: no such row")

// SwapRepository is the submarine-swap persistence contract of spec.md §6.
type SwapRepository interface {
	Get(ctx context.Context, id string) (*Submarine, error)
	SetStatus(ctx context.Context, id string, status types.Status) error
	SetRate(ctx context.Context, id string, rate string) error
	SetMinerFee(ctx context.Context, id string, fee uint64) error
	SetLockupTransaction(ctx context.Context, id string, txID types.Hash, vout uint32, onchainAmount uint64) error
	GetSwaps(ctx context.Context, statuses ...types.Status) ([]*Submarine, error)
}

// ReverseSwapRepository is the reverse-swap persistence contract.
type ReverseSwapRepository interface {
	Get(ctx context.Context, id string) (*ReverseSwap, error)
	SetInvoiceSettled(ctx context.Context, id string) error
	SetMinerFeeInvoicePreimage(ctx context.Context, id string, preimage []byte) error
	GetSwaps(ctx context.Context, statuses ...types.Status) ([]*ReverseSwap, error)
}

// ChainSwapRepository is the chain-swap persistence contract.
type ChainSwapRepository interface {
	Get(ctx context.Context, id string) (*ChainSwap, error)
	SetClaimMinerFee(ctx context.Context, id string, fee uint64) error
	// SetSendingLockupTransaction records the user-broadcast lockup
	// observed on the sending leg (as opposed to SetServerLockupTransaction
	// on WrappedSwapRepository, which records this server's own
	// receiving-leg lockup).
	SetSendingLockupTransaction(ctx context.Context, id string, txID types.Hash, vout uint32, amount uint64) error
	GetSwaps(ctx context.Context, statuses ...types.Status) ([]*ChainSwap, error)
}

// WrappedSwapRepository presents a kind-agnostic view over whichever of
// the three concrete repositories owns a given swap id, matching
// spec.md §6's WrappedSwapRepository surface used by the nursery's
// shared handlers (expiry, refund, status transition logging).
type WrappedSwapRepository interface {
	SetStatus(ctx context.Context, kind types.SwapKind, id string, status types.Status) error
	SetServerLockupTransaction(ctx context.Context, kind types.SwapKind, id string, txID types.Hash, amount uint64, fee uint64, vout uint32) error
	SetTransactionRefunded(ctx context.Context, kind types.SwapKind, id string, refundTxID types.Hash, fee uint64) error
}

// RefundTransactionRepository persists broadcast refund transactions so
// the RefundWatcher can later poll them for confirmation.
type RefundTransactionRepository interface {
	AddTransaction(ctx context.Context, tx RefundTransaction) error
	GetUnconfirmed(ctx context.Context) ([]RefundTransaction, error)
	RemoveTransaction(ctx context.Context, swapID string) error
}

// ChannelCreationRepository looks up an attached just-in-time channel-open
// request for a submarine swap, if any.
type ChannelCreationRepository interface {
	GetChannelCreation(ctx context.Context, swapID string) (*ChannelCreation, error)
}

// TransactionLabelRepository formats operator-facing transaction labels
// for a swap; concrete implementations typically just format the swap id
// and kind into a fixed template.
type TransactionLabelRepository interface {
	LockupLabel(kind types.SwapKind, swapID string) string
	ClaimLabel(kind types.SwapKind, swapID string) string
	RefundLabel(kind types.SwapKind, swapID string) string
}
