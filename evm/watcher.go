package evm

import (
	"context"
	"fmt"
	"math/big"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	ethcommon "github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	logging "github.com/ipfs/go-log"

	"github.com/djkazic/boltz-backend/events"
	"github.com/djkazic/boltz-backend/types"
)

var watcherLog = logging.Logger("ethereumwatcher")

var (
	lockupTopic = crypto.Keccak256Hash([]byte("Lockup(bytes32,uint256,address,address,uint256)"))
	claimTopic  = crypto.Keccak256Hash([]byte("Claim(bytes32,bytes32)"))
	refundTopic = crypto.Keccak256Hash([]byte("Refund(bytes32)"))
)

// SwapLookup resolves a preimage hash observed in a contract log back to
// the swap tracking it, and tells the watcher which side of the swap (our
// server lockup vs. the counterparty's) and which currency type
// (Ether/ERC20) the log belongs to.
type SwapLookup interface {
	// Lookup returns the tracked swap's ID and kind for preimageHash, or
	// ok=false if no swap is tracking it.
	Lookup(preimageHash types.Hash) (swapID types.Hash, kind types.SwapKind, isServerLockup bool, ok bool)
}

// Watcher is the EthereumWatcher of spec.md §4.3: it subscribes to
// Lockup/Claim/Refund logs of both the EtherSwap and ERC20Swap contracts
// plus block timestamps, emitting the same Event envelope the UTXO
// ChainWatcher produces.
type Watcher struct {
	manager EthereumManager
	lookup  SwapLookup
	out     chan events.Event
	blocks  chan BlockTick

	pollInterval time.Duration
	lastBlock    uint64
}

// BlockTick is published on every newly observed block, carrying the
// information the nursery needs to evaluate EVM HTLC timeouts, which are
// timestamp-based rather than height-based.
type BlockTick struct {
	Height    uint64
	Timestamp uint64
}

// NewWatcher constructs an EthereumWatcher. pollInterval governs how often
// FilterLogs is re-polled when the client has no log-subscription
// transport (the common case for HTTP-only JSON-RPC endpoints).
func NewWatcher(manager EthereumManager, lookup SwapLookup, pollInterval time.Duration) *Watcher {
	return &Watcher{
		manager:      manager,
		lookup:       lookup,
		out:          make(chan events.Event, 256),
		blocks:       make(chan BlockTick, 256),
		pollInterval: pollInterval,
	}
}

// Events returns the channel of eth.lockup / erc20.lockup / lockup.confirmed
// / claim / refund / lockup.failedToSend events.
func (w *Watcher) Events() <-chan events.Event {
	return w.out
}

// Blocks returns the channel of newly observed blocks; the nursery
// consumes it to re-evaluate every tracked reverse/chain swap's EVM
// timelock against the block's timestamp.
func (w *Watcher) Blocks() <-chan BlockTick {
	return w.blocks
}

// Run polls for new logs and blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context, fromBlock uint64) error {
	w.lastBlock = fromBlock

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.poll(ctx); err != nil {
				watcherLog.Errorf("poll failed: %s", err)
			}
		}
	}
}

func (w *Watcher) poll(ctx context.Context) error {
	head, err := w.manager.RawClient().HeaderByNumber(ctx, nil)
	if err != nil {
		return err
	}
	headNum := head.Number.Uint64()
	if headNum <= w.lastBlock {
		return nil
	}

	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(w.lastBlock + 1),
		ToBlock:   head.Number,
		Addresses: []ethcommon.Address{w.manager.EtherSwapAddress(), w.manager.ERC20SwapAddress()},
		Topics:    [][]ethcommon.Hash{{lockupTopic, claimTopic, refundTopic}},
	}

	logs, err := w.manager.RawClient().FilterLogs(ctx, query)
	if err != nil {
		return err
	}

	for _, l := range logs {
		w.handleLog(l, headNum)
	}

	w.publishBlockTick(ctx, headNum)
	w.lastBlock = headNum
	return nil
}

func (w *Watcher) handleLog(l ethtypes.Log, headNum uint64) {
	if len(l.Topics) == 0 || l.Removed {
		return
	}

	if len(l.Topics) < 2 {
		return
	}
	// Topics[0] is the event signature; Topics[1] is the indexed
	// preimageHash on every event of both contracts' ABI.
	preimageHash := l.Topics[1]

	swapID, kind, isServerLockup, ok := w.lookup.Lookup(preimageHash)
	if !ok {
		return
	}

	isERC20 := l.Address == w.manager.ERC20SwapAddress()

	switch l.Topics[0] {
	case lockupTopic:
		name := events.EthLockup
		if isERC20 {
			name = events.ERC20Lockup
		}
		if isServerLockup {
			if headNum >= l.BlockNumber+w.manager.Confirmations() {
				w.out <- events.Event{Name: events.LockupConfirmed, SwapID: swapID, Kind: kind, Data: l.TxHash}
			}
			return
		}
		w.out <- events.Event{Name: name, SwapID: swapID, Kind: kind, Data: l.TxHash}

	case claimTopic:
		contractABI := EtherSwapABI
		if isERC20 {
			contractABI = ERC20SwapABI
		}
		preimage, err := decodeClaimPreimage(contractABI, l.Data)
		if err != nil {
			watcherLog.Errorf("swap %s: failed to decode claim preimage: %s", swapID, err)
			return
		}
		w.out <- events.Event{Name: events.Claim, SwapID: swapID, Kind: kind, Data: preimage}

	case refundTopic:
		w.out <- events.Event{Name: events.Refund, SwapID: swapID, Kind: kind, Data: l.TxHash}
	}
}

// publishBlockTick reports the latest block's timestamp so the nursery can
// re-evaluate EVM HTLC timeouts (timestamp-based, unlike UTXO's
// block-height timelocks; see nursery/expiry.go).
func (w *Watcher) publishBlockTick(ctx context.Context, headNum uint64) {
	ts, err := w.manager.BlockTimestamp(ctx, headNum)
	if err != nil {
		watcherLog.Warnf("failed to fetch block %d timestamp: %s", headNum, err)
		return
	}
	w.blocks <- BlockTick{Height: headNum, Timestamp: ts}
}

// decodeClaimPreimage unpacks the non-indexed preimage field of a Claim
// event log, shared by EtherSwap and ERC20Swap (same event shape).
func decodeClaimPreimage(contractABI interface {
	Unpack(name string, data []byte) ([]interface{}, error)
}, data []byte) ([]byte, error) {
	values, err := contractABI.Unpack("Claim", data)
	if err != nil {
		return nil, err
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("evm: Claim event unpacked %d values, want 1", len(values))
	}
	preimage, ok := values[0].([32]byte)
	if !ok {
		return nil, fmt.Errorf("evm: Claim event preimage has unexpected type %T", values[0])
	}
	return preimage[:], nil
}

// ReportFailedSend is called by the ContractHandler's caller when a
// locally submitted lockup transaction fails at the JSON-RPC level
// (spec.md §4.3's "lockup.failedToSend"). It is not discovered by polling
// logs (a failed send never lands on chain), so the nursery calls this
// directly instead of waiting for an on-chain observation.
func (w *Watcher) ReportFailedSend(swapID types.Hash, kind types.SwapKind) {
	w.out <- events.Event{Name: events.LockupFailedToSend, SwapID: swapID, Kind: kind}
}
