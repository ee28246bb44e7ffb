package evm

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	ethcommon "github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	logging "github.com/ipfs/go-log"
)

var contractLog = logging.Logger("evm")

// ErrSendFailure is returned when a locally submitted transaction fails at
// the JSON-RPC submission level (gas estimation, nonce), matching
// spec.md §4.1's "lockup.failedToSend" handling.
var ErrSendFailure = errors.New("evm: transaction failed to send")

// Signer supplies the per-call transaction signing identity the
// coordinator uses for every EVM call; key management itself is an
// external collaborator (spec.md §1).
type Signer interface {
	TransactOpts(ctx context.Context) (*bind.TransactOpts, error)
	Address() ethcommon.Address
}

// txHandle is the concrete TxHandle returned by ContractHandler calls.
type txHandle struct {
	receipt *ethtypes.Receipt
}

func (h *txHandle) Hash() ethcommon.Hash            { return h.receipt.TxHash }
func (h *txHandle) GasUsed() uint64                 { return h.receipt.GasUsed }
func (h *txHandle) EffectiveGasPrice() *big.Int     { return h.receipt.EffectiveGasPrice }

// ContractHandler implements the lockup/claim/refund calls of spec.md §6
// against the EtherSwap / ERC20Swap contracts. Submission is serialized
// under a mutex the way the teacher's ExternalSender serializes its
// out/in channel exchange (protocol/txsender/external_sender.go), but
// here the daemon signs and submits directly instead of round-tripping a
// transaction through a front-end for manual signature.
type ContractHandler struct {
	ec     *ethclient.Client
	signer Signer

	etherSwapAddr ethcommon.Address
	erc20SwapAddr ethcommon.Address

	mu             sync.Mutex
	receiptTimeout time.Duration
}

// NewContractHandler constructs a ContractHandler for one EVM chain.
func NewContractHandler(
	ec *ethclient.Client,
	signer Signer,
	etherSwapAddr, erc20SwapAddr ethcommon.Address,
	receiptTimeout time.Duration,
) *ContractHandler {
	return &ContractHandler{
		ec:             ec,
		signer:         signer,
		etherSwapAddr:  etherSwapAddr,
		erc20SwapAddr:  erc20SwapAddr,
		receiptTimeout: receiptTimeout,
	}
}

// LockupEther locks amountWei to preimageHash, claimable by claimAddress
// after timelock.
func (h *ContractHandler) LockupEther(
	ctx context.Context,
	preimageHash [32]byte,
	claimAddress ethcommon.Address,
	timelock *big.Int,
	amountWei *big.Int,
) (TxHandle, error) {
	input, err := EtherSwapABI.Pack("lock", preimageHash, claimAddress, timelock)
	if err != nil {
		return nil, err
	}
	return h.sendAndWait(ctx, h.etherSwapAddr, input, amountWei)
}

// LockupEtherPrepayMinerfee is LockupEther with an additional miner-fee
// prepayment carved out of the same call (spec.md §4.1's prepay path).
func (h *ContractHandler) LockupEtherPrepayMinerfee(
	ctx context.Context,
	preimageHash [32]byte,
	claimAddress ethcommon.Address,
	timelock *big.Int,
	amountWei *big.Int,
	prepayAmountWei *big.Int,
) (TxHandle, error) {
	input, err := EtherSwapABI.Pack("lockPrepayMinerfee", preimageHash, claimAddress, timelock, prepayAmountWei)
	if err != nil {
		return nil, err
	}
	return h.sendAndWait(ctx, h.etherSwapAddr, input, amountWei)
}

// LockupToken locks amount of the ERC-20 at tokenAddress to preimageHash.
// The caller is responsible for having already approved the ERC20Swap
// contract to transfer amount on its behalf.
func (h *ContractHandler) LockupToken(
	ctx context.Context,
	preimageHash [32]byte,
	amount *big.Int,
	tokenAddress, claimAddress ethcommon.Address,
	timelock *big.Int,
) (TxHandle, error) {
	input, err := ERC20SwapABI.Pack("lock", preimageHash, amount, tokenAddress, claimAddress, timelock)
	if err != nil {
		return nil, err
	}
	return h.sendAndWait(ctx, h.erc20SwapAddr, input, big.NewInt(0))
}

// LockupTokenPrepayMinerfee is LockupToken with a prepaid miner-fee value
// attached as msg.value.
func (h *ContractHandler) LockupTokenPrepayMinerfee(
	ctx context.Context,
	preimageHash [32]byte,
	amount *big.Int,
	tokenAddress, claimAddress ethcommon.Address,
	timelock *big.Int,
	prepayAmountWei *big.Int,
) (TxHandle, error) {
	input, err := ERC20SwapABI.Pack(
		"lockPrepayMinerfee", preimageHash, amount, tokenAddress, claimAddress, timelock, prepayAmountWei,
	)
	if err != nil {
		return nil, err
	}
	return h.sendAndWait(ctx, h.erc20SwapAddr, input, prepayAmountWei)
}

// ClaimEther spends an Ether lockup by revealing preimage.
func (h *ContractHandler) ClaimEther(
	ctx context.Context,
	preimage [32]byte,
	amountWei *big.Int,
	refundAddress ethcommon.Address,
	timelock *big.Int,
) (TxHandle, error) {
	input, err := EtherSwapABI.Pack("claim", preimage, amountWei, refundAddress, timelock)
	if err != nil {
		return nil, err
	}
	return h.sendAndWait(ctx, h.etherSwapAddr, input, big.NewInt(0))
}

// ClaimToken spends an ERC-20 lockup by revealing preimage.
func (h *ContractHandler) ClaimToken(
	ctx context.Context,
	preimage [32]byte,
	amount *big.Int,
	tokenAddress, refundAddress ethcommon.Address,
	timelock *big.Int,
) (TxHandle, error) {
	input, err := ERC20SwapABI.Pack("claim", preimage, amount, tokenAddress, refundAddress, timelock)
	if err != nil {
		return nil, err
	}
	return h.sendAndWait(ctx, h.erc20SwapAddr, input, big.NewInt(0))
}

// RefundEther spends an Ether lockup via the timeout branch.
func (h *ContractHandler) RefundEther(
	ctx context.Context,
	preimageHash [32]byte,
	amountWei *big.Int,
	claimAddress ethcommon.Address,
	timelock *big.Int,
) (TxHandle, error) {
	input, err := EtherSwapABI.Pack("refund", preimageHash, amountWei, claimAddress, timelock)
	if err != nil {
		return nil, err
	}
	return h.sendAndWait(ctx, h.etherSwapAddr, input, big.NewInt(0))
}

// RefundToken spends an ERC-20 lockup via the timeout branch.
func (h *ContractHandler) RefundToken(
	ctx context.Context,
	preimageHash [32]byte,
	amount *big.Int,
	tokenAddress, claimAddress ethcommon.Address,
	timelock *big.Int,
) (TxHandle, error) {
	input, err := ERC20SwapABI.Pack("refund", preimageHash, amount, tokenAddress, claimAddress, timelock)
	if err != nil {
		return nil, err
	}
	return h.sendAndWait(ctx, h.erc20SwapAddr, input, big.NewInt(0))
}

// QueryLockupValues re-reads a swap's own Lockup event from chain by
// preimageHash, giving the nursery everything a claim or refund call needs
// (amount, claim/refund addresses, timelock, and which of the two
// contracts holds it) without any new per-swap persisted column.
func (h *ContractHandler) QueryLockupValues(ctx context.Context, preimageHash [32]byte) (LockupValues, error) {
	query := ethereum.FilterQuery{
		Addresses: []ethcommon.Address{h.etherSwapAddr, h.erc20SwapAddr},
		Topics:    [][]ethcommon.Hash{{lockupTopic}, {ethcommon.BytesToHash(preimageHash[:])}},
	}

	logs, err := h.ec.FilterLogs(ctx, query)
	if err != nil {
		return LockupValues{}, fmt.Errorf("evm: query lockup values: %w", err)
	}
	if len(logs) == 0 {
		return LockupValues{}, fmt.Errorf("evm: no Lockup event found for preimage hash %x", preimageHash)
	}
	l := logs[len(logs)-1]

	if l.Address == h.erc20SwapAddr {
		return decodeERC20LockupValues(l.Data)
	}
	return decodeEtherLockupValues(l.Data)
}

func decodeEtherLockupValues(data []byte) (LockupValues, error) {
	values, err := EtherSwapABI.Unpack("Lockup", data)
	if err != nil {
		return LockupValues{}, fmt.Errorf("evm: decode EtherSwap Lockup event: %w", err)
	}
	if len(values) != 4 {
		return LockupValues{}, fmt.Errorf("evm: EtherSwap Lockup event unpacked %d values, want 4", len(values))
	}
	amount, ok := values[0].(*big.Int)
	if !ok {
		return LockupValues{}, fmt.Errorf("evm: EtherSwap Lockup amount has unexpected type %T", values[0])
	}
	claimAddress, ok := values[1].(ethcommon.Address)
	if !ok {
		return LockupValues{}, fmt.Errorf("evm: EtherSwap Lockup claimAddress has unexpected type %T", values[1])
	}
	refundAddress, ok := values[2].(ethcommon.Address)
	if !ok {
		return LockupValues{}, fmt.Errorf("evm: EtherSwap Lockup refundAddress has unexpected type %T", values[2])
	}
	timelock, ok := values[3].(*big.Int)
	if !ok {
		return LockupValues{}, fmt.Errorf("evm: EtherSwap Lockup timelock has unexpected type %T", values[3])
	}
	return LockupValues{Amount: amount, ClaimAddress: claimAddress, RefundAddress: refundAddress, Timelock: timelock}, nil
}

func decodeERC20LockupValues(data []byte) (LockupValues, error) {
	values, err := ERC20SwapABI.Unpack("Lockup", data)
	if err != nil {
		return LockupValues{}, fmt.Errorf("evm: decode ERC20Swap Lockup event: %w", err)
	}
	if len(values) != 5 {
		return LockupValues{}, fmt.Errorf("evm: ERC20Swap Lockup event unpacked %d values, want 5", len(values))
	}
	amount, ok := values[0].(*big.Int)
	if !ok {
		return LockupValues{}, fmt.Errorf("evm: ERC20Swap Lockup amount has unexpected type %T", values[0])
	}
	tokenAddress, ok := values[1].(ethcommon.Address)
	if !ok {
		return LockupValues{}, fmt.Errorf("evm: ERC20Swap Lockup tokenAddress has unexpected type %T", values[1])
	}
	claimAddress, ok := values[2].(ethcommon.Address)
	if !ok {
		return LockupValues{}, fmt.Errorf("evm: ERC20Swap Lockup claimAddress has unexpected type %T", values[2])
	}
	refundAddress, ok := values[3].(ethcommon.Address)
	if !ok {
		return LockupValues{}, fmt.Errorf("evm: ERC20Swap Lockup refundAddress has unexpected type %T", values[3])
	}
	timelock, ok := values[4].(*big.Int)
	if !ok {
		return LockupValues{}, fmt.Errorf("evm: ERC20Swap Lockup timelock has unexpected type %T", values[4])
	}
	return LockupValues{
		Amount: amount, ClaimAddress: claimAddress, RefundAddress: refundAddress,
		Timelock: timelock, TokenAddress: tokenAddress,
	}, nil
}

func (h *ContractHandler) sendAndWait(
	ctx context.Context,
	to ethcommon.Address,
	input []byte,
	value *big.Int,
) (TxHandle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	opts, err := h.signer.TransactOpts(ctx)
	if err != nil {
		return nil, err
	}
	opts.Value = value

	tx := ethtypes.NewTx(&ethtypes.DynamicFeeTx{
		To:    &to,
		Value: value,
		Data:  input,
	})

	signedTx, err := opts.Signer(opts.From, tx)
	if err != nil {
		return nil, err
	}

	if err := h.ec.SendTransaction(ctx, signedTx); err != nil {
		contractLog.Errorf("failed to send transaction to %s: %s", to, err)
		return nil, ErrSendFailure
	}

	waitCtx, cancel := context.WithTimeout(ctx, h.receiptTimeout)
	defer cancel()

	receipt, err := bind.WaitMined(waitCtx, h.ec, signedTx)
	if err != nil {
		return nil, err
	}

	return &txHandle{receipt: receipt}, nil
}
