// Package evm defines the collaborator contracts and watcher for
// EVM-family currencies (native Ether and ERC-20 tokens): the
// EthereumManager handle, the ContractHandler the nursery calls to
// lockup/claim/refund, and the EthereumWatcher that turns contract events
// into the same Event envelope the UTXO ChainWatcher produces.
package evm

import (
	"context"
	"math/big"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

// EtherDecimals converts between boltz's internal 8-decimal satoshi-style
// representation of EVM amounts and 18-decimal wei, per spec.md §6
// ("Numeric semantics"): wei = internalUnits * EtherDecimals.
var EtherDecimals = new(big.Int).Exp(big.NewInt(10), big.NewInt(10), nil)

// ToWei converts an internal 8-decimal amount to wei.
func ToWei(internalUnits *big.Int) *big.Int {
	return new(big.Int).Mul(internalUnits, EtherDecimals)
}

// FromWei converts wei back to the internal 8-decimal amount, truncating
// any sub-satoshi remainder.
func FromWei(wei *big.Int) *big.Int {
	return new(big.Int).Div(wei, EtherDecimals)
}

// EthereumManager is the per-chain EVM collaborator: a JSON-RPC client
// plus the deployed contract addresses the nursery needs to watch and
// call.
type EthereumManager interface {
	RawClient() *ethclient.Client
	EtherSwapAddress() ethcommon.Address
	ERC20SwapAddress() ethcommon.Address
	// Confirmations is the number of block confirmations the watcher
	// requires before emitting lockup.confirmed for a server-side
	// lockup.
	Confirmations() uint64
	// BlockTimestamp returns the timestamp of a given block height, used
	// for HTLC timeout comparisons (EVM timelocks are timestamp-based,
	// not height-based).
	BlockTimestamp(ctx context.Context, height uint64) (uint64, error)
}

// LockupValues is what the nursery reads back from chain before issuing a
// claim or refund call, per spec.md §4.1/§4.1 ("query on-chain lockup
// values").
type LockupValues struct {
	Amount        *big.Int // wei
	RefundAddress ethcommon.Address
	ClaimAddress  ethcommon.Address
	Timelock      *big.Int // unix timestamp
	TokenAddress  ethcommon.Address // zero address for Ether
}

// TxHandle is returned by every ContractHandler call.
type TxHandle interface {
	Hash() ethcommon.Hash
	GasUsed() uint64
	EffectiveGasPrice() *big.Int
}
