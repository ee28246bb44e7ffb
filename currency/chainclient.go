// Package currency defines the collaborator contracts the nursery consumes
// for UTXO-family chains (Bitcoin-like and Liquid), plus the Currency
// registry that ties a symbol to its chain client, wallet and candidate
// Lightning clients. Concrete chain clients (zmq subscriptions, mempool
// policy, raw RPC plumbing) are external collaborators; only their
// interfaces live here, per spec.md §1/§6.
package currency

import (
	"context"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/djkazic/boltz-backend/types"
)

// Transaction is an opaque per-chain transaction handle; UTXO chain clients
// decode/encode it, the nursery only moves it between calls.
type Transaction interface {
	TxID() types.Hash
}

// ChainClient is the per-UTXO-symbol collaborator. Its zmq/poll event
// stream and filter registration back the ChainWatcher (spec.md §4.2).
type ChainClient interface {
	// Symbol is the currency symbol this client serves, e.g. "BTC".
	Symbol() string
	// CurrencyType is BitcoinLike or Liquid.
	CurrencyType() types.CurrencyType

	// EstimateFee returns a fee rate in sat/vbyte for confirmation within
	// targetBlocks blocks (0 means "use the client's default target").
	EstimateFee(ctx context.Context, targetBlocks uint32) (uint64, error)

	// GetRawTransaction returns the raw hex of a confirmed or mempool
	// transaction.
	GetRawTransaction(ctx context.Context, txid types.Hash) (string, error)

	// Confirmations returns how many blocks have confirmed txid, or 0 if
	// it is still in the mempool. Used by the RefundWatcher to poll a
	// broadcast refund transaction up to its confirmation threshold.
	Confirmations(ctx context.Context, txid types.Hash) (uint32, error)

	// SendRawTransaction broadcasts a signed transaction. relaxedFeePolicy
	// allows broadcasting below the client's default minimum relay fee,
	// used for refunds where the HTLC output size limits fee headroom.
	SendRawTransaction(ctx context.Context, rawHex string, relaxedFeePolicy bool) (types.Hash, error)

	// AddInputFilter registers interest in any transaction spending an
	// output whose previous transaction hash is txHash — i.e. "our"
	// lockups, watched so the counterparty's claim reveals a preimage.
	AddInputFilter(txHash types.Hash)
	// AddOutputFilter registers interest in any transaction paying the
	// given scriptPubKey — i.e. lockups addressed to us.
	AddOutputFilter(script []byte)
	// RemoveFilters drops both input and output filters for a terminal
	// swap. The nursery in this module does not call it.
	RemoveFilters(txHash types.Hash, script []byte)

	// Transactions returns the channel of observed transactions, each
	// paired with its confirmation status.
	Transactions() <-chan ChainTransactionEvent
	// Blocks returns the channel of new block heights.
	Blocks() <-chan uint32
}

// ChainTransactionEvent is one transaction observed by a ChainClient,
// either newly broadcast (mempool) or freshly confirmed.
type ChainTransactionEvent struct {
	Tx        RawTransaction
	Confirmed bool
}

// RawTransaction is the minimal decoded shape the ChainWatcher needs: its
// own hash, its outputs (script + amount), and the previous-output hashes
// its inputs spend (to match against input filters) together with the
// witness/scriptSig bytes needed to extract a revealed preimage.
type RawTransaction struct {
	Hash    types.Hash
	Outputs []TxOutput
	Inputs  []TxInput
}

// TxOutput is one output of a RawTransaction.
type TxOutput struct {
	Vout          uint32
	Script        []byte
	AmountSat     uint64
}

// TxInput is one input of a RawTransaction, carrying the data needed to
// recover a preimage from a spend of one of our lockups.
type TxInput struct {
	PreviousTxHash types.Hash
	PreviousVout   uint32
	Witness        [][]byte
	ScriptSig      []byte
}

// Wallet is the per-currency collaborator used to fund lockups and build
// claim/refund destinations.
type Wallet interface {
	// SendToAddress broadcasts amountSat sats to addr at a fee rate of
	// feePerVbyte sat/vbyte, labeled for operator bookkeeping, and returns
	// the resulting transaction.
	SendToAddress(ctx context.Context, addr string, amountSat uint64, feePerVbyte uint64, label string) (SendResult, error)
	// GetAddress returns a fresh receive address, labeled for bookkeeping.
	GetAddress(ctx context.Context, label string) (string, error)
	// GetKeysByIndex derives the keypair used for a swap's HTLC script.
	GetKeysByIndex(index uint32) (PrivateKey, error)
	// DecodeAddress returns the scriptPubKey encoded by addr.
	DecodeAddress(addr string) ([]byte, error)
}

// SendResult is returned by Wallet.SendToAddress.
type SendResult struct {
	TransactionID types.Hash
	RawHex        string
	Vout          uint32
	FeeSat        uint64
}

// PrivateKey is a per-swap keypair handle derived from the wallet's HD
// chain; UTXO script builders in package utxo use Raw to sign HTLC spends
// directly, since claim/refund transaction construction lives in the
// nursery rather than inside the wallet.
type PrivateKey interface {
	PublicKeyCompressed() []byte
	Raw() *btcec.PrivateKey
}
