// Package swap holds the persisted swap data model (spec.md §3) and the
// repository contracts the nursery mutates it through (spec.md §6).
// Concrete storage is provided by package storage/boltrepo.
package swap

import (
	"time"

	"github.com/djkazic/boltz-backend/types"
)

// Submarine is an on-chain-to-Lightning swap row.
type Submarine struct {
	ID                    string
	Pair                  string
	OrderSide             string
	Version               types.SwapVersion
	Invoice               *string
	PreimageHash          types.Hash
	LockupAddress         string
	TimeoutBlockHeight    uint32
	ExpectedAmount        uint64
	OnchainAmount         uint64
	LockupTransactionID   *types.Hash
	LockupTransactionVout *uint32
	KeyIndex              uint32
	RedeemScript          []byte // legacy HTLC script, or nil for Taproot (see SwapTree)
	Rate                  *string // decimal string, apd.Decimal-parseable
	Status                types.Status
	MinerFee              *uint64
	CreatedAt             time.Time
}

// ReverseSwap is a Lightning-to-on-chain swap row. It shares every
// Submarine anchor field (id/pair/version/preimage_hash/lockup_address/
// timeout_block_height/key_index) plus the reverse-specific fields below.
type ReverseSwap struct {
	ID                      string
	Pair                    string
	OrderSide               string
	Version                 types.SwapVersion
	PreimageHash            types.Hash
	LockupAddress           string
	TimeoutBlockHeight      uint32
	KeyIndex                uint32
	RedeemScript            []byte

	OnchainAmount            uint64
	ClaimAddress             *string
	MinerFeeInvoice          *string
	MinerFeeInvoicePreimage  *[]byte
	TransactionID            *types.Hash
	TransactionVout          *uint32
	MinerfeeOnchainAmount    *uint64
	LightningCurrency        string
	ChainCurrency            string
	Node                     string
	Status                   types.Status
	CreatedAt                time.Time
}

// ChainSwapData is the per-side anchor shared by a ChainSwap's sending and
// receiving legs.
type ChainSwapData struct {
	Symbol                string
	LockupAddress         string
	ClaimAddress          *string
	ExpectedAmount        uint64
	TransactionID         *types.Hash
	TransactionVout       *uint32
	KeyIndex              uint32
	RedeemScript          []byte
	TimeoutBlockHeight    uint32
	TheirPublicKey        []byte
	MinerFee              *uint64
}

// ChainSwap is an on-chain-to-on-chain swap row: a pair of ChainSwapData
// legs sharing one preimage hash.
type ChainSwap struct {
	ID            string
	Version       types.SwapVersion
	PreimageHash  types.Hash
	SendingData   ChainSwapData
	ReceivingData ChainSwapData
	Status        types.Status
	CreatedAt     time.Time
}

// RefundTransaction is one row of the refund-transaction table
// (spec.md §6's RefundTransactionRepository), recording the txid that
// spent a lockup via its timeout branch.
type RefundTransaction struct {
	SwapID string
	Kind   types.SwapKind
	Symbol string // currency symbol the refund was broadcast on, empty for EVM
	ID     types.Hash
	Vin    *uint32 // nil for EVM refunds, whose model has no input index
}

// ChannelCreation describes an attached just-in-time channel-open request
// for a submarine swap (spec.md §4.6's ChannelNursery collaborator).
type ChannelCreation struct {
	SwapID              string
	Private             bool
	InboundLiquidity    uint32
	NodeLocalPublicKey  []byte
}

// TransactionLabel formats the operator-facing label a wallet attaches to
// a lockup/claim/refund broadcast, per spec.md §6's
// TransactionLabelRepository.
type TransactionLabel struct {
	LockupLabel func(swapID string) string
	ClaimLabel  func(swapID string) string
	RefundLabel func(swapID string) string
}
