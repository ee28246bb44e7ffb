package nursery

import (
	"context"
	"fmt"
	"math/big"

	ethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/djkazic/boltz-backend/currency"
	"github.com/djkazic/boltz-backend/evm"
	"github.com/djkazic/boltz-backend/events"
	"github.com/djkazic/boltz-backend/lightning"
	"github.com/djkazic/boltz-backend/swap"
	"github.com/djkazic/boltz-backend/types"
	"github.com/djkazic/boltz-backend/utxo"
)

// reverseLockupMempoolETA is the confirmation target passed to
// estimate_fee when no prepay minerfee invoice pins the fee rate, matching
// spec.md §4.1's "reverse_swap_mempool_eta=2".
const reverseLockupMempoolETA = 2

// handleMinerFeeInvoicePaid records that the prepay minerfee invoice of a
// reverse swap has been accepted. This is bookkeeping only: the lockup
// itself is driven by handleInvoicePaid, which reads the invoice amount
// directly rather than waiting on this event's ordering relative to its
// own (spec.md §4.1 "Lockup algorithm").
func (n *Nursery) handleMinerFeeInvoicePaid(ctx context.Context, ev events.Event) error {
	return n.cfg.Wrapped.SetStatus(ctx, types.ReverseSubmarine, ev.SwapID.Hex(), types.StatusMinerFeePaid)
}

// handleInvoicePaid drives spec.md §4.1's reverse-swap lockup algorithm:
// choose a fee rate (prepay minerfee amount if configured, estimate_fee
// otherwise), send the on-chain lockup, persist it, and report the
// outcome.
func (n *Nursery) handleInvoicePaid(ctx context.Context, ev events.Event) error {
	rs, err := n.cfg.ReverseSwaps.Get(ctx, ev.SwapID.Hex())
	if err != nil {
		return err
	}
	if rs.TransactionID != nil {
		// Already broadcast; idempotent re-fire.
		return nil
	}

	cur, ok := n.cfg.Currencies.Get(rs.ChainCurrency)
	if !ok {
		return n.lockupReverseEVM(ctx, rs)
	}
	if cur.Chain == nil || cur.Wallet == nil {
		return fmt.Errorf("nursery: reverse swap %s: symbol %s has no on-chain wallet wired", rs.ID, rs.ChainCurrency)
	}

	feePerVbyte, err := n.reverseLockupFeeRate(ctx, cur, rs)
	if err != nil {
		return err
	}

	if rs.LockupAddress == "" {
		return fmt.Errorf("nursery: reverse swap %s has no lockup address recorded", rs.ID)
	}

	label := n.cfg.Labels.LockupLabel(types.ReverseSubmarine, rs.ID)
	result, err := cur.Wallet.SendToAddress(ctx, rs.LockupAddress, rs.OnchainAmount, feePerVbyte, label)
	if err != nil {
		return fmt.Errorf("nursery: reverse swap %s: send lockup: %w", rs.ID, err)
	}

	if err := n.cfg.Wrapped.SetServerLockupTransaction(
		ctx, types.ReverseSubmarine, rs.ID, result.TransactionID, rs.OnchainAmount, result.FeeSat, result.Vout,
	); err != nil {
		return err
	}

	cur.Chain.AddInputFilter(result.TransactionID)
	return nil
}

// reverseLockupFeeRate picks feePerVbyte per spec.md §4.1: the prepay
// minerfee invoice's amount divided by the reverse-lockup transaction's
// estimated vsize, if a minerfee invoice was attached; otherwise the
// chain's own fee estimator at a short confirmation target.
func (n *Nursery) reverseLockupFeeRate(ctx context.Context, cur *currency.Currency, rs *swap.ReverseSwap) (uint64, error) {
	if rs.MinerFeeInvoice == nil {
		return cur.Chain.EstimateFee(ctx, reverseLockupMempoolETA)
	}

	if len(cur.LightningClients) == 0 {
		return 0, fmt.Errorf("nursery: reverse swap %s: no lightning client to decode minerfee invoice", rs.ID)
	}
	decoded, err := cur.LightningClients[0].DecodeInvoice(*rs.MinerFeeInvoice)
	if err != nil {
		return 0, fmt.Errorf("nursery: reverse swap %s: decode minerfee invoice: %w", rs.ID, err)
	}

	size := utxo.TransactionSize[cur.Type][rs.Version].ReverseLockup
	return lightning.FeePerVbyteFromPrepay(decoded.AmountMsat, size), nil
}

// lockupReverseEVM drives the EVM variant of the reverse-lockup algorithm
// once a reverse swap's chain currency resolves to an EVM registry entry
// rather than a UTXO currency.Currency.
func (n *Nursery) lockupReverseEVM(ctx context.Context, rs *swap.ReverseSwap) error {
	handler, err := n.cfg.EVM.ContractHandler(rs.ChainCurrency)
	if err != nil {
		return fmt.Errorf("nursery: reverse swap %s: %w", rs.ID, err)
	}
	if rs.ClaimAddress == nil {
		return fmt.Errorf("nursery: reverse swap %s has no claim address recorded", rs.ID)
	}

	claimAddr := ethcommon.HexToAddress(*rs.ClaimAddress)
	timelock := new(big.Int).SetUint64(uint64(rs.TimeoutBlockHeight))
	amountWei := evm.ToWei(new(big.Int).SetUint64(rs.OnchainAmount))

	txHandle, err := handler.LockupEther(ctx, rs.PreimageHash, claimAddr, timelock, amountWei)
	if err != nil {
		return fmt.Errorf("nursery: reverse swap %s: lockup ether: %w", rs.ID, err)
	}

	return n.cfg.Wrapped.SetServerLockupTransaction(
		ctx, types.ReverseSubmarine, rs.ID, txHandle.Hash(), rs.OnchainAmount, 0, 0,
	)
}

// handleServerLockupConfirmed marks a server-broadcast reverse/chain
// lockup TransactionConfirmed once it reaches the required confirmations
// (UTXO) or confirmation depth (EVM); spec.md §4.1/§4.3.
func (n *Nursery) handleServerLockupConfirmed(ctx context.Context, ev events.Event) error {
	return n.cfg.Wrapped.SetStatus(ctx, ev.Kind, ev.SwapID.Hex(), types.StatusTransactionConfirmed)
}

// handleEVMUserLockup reacts to a counterparty's Ether/ERC20 lockup being
// observed on chain (submarine user lockup, or a chain swap's sending
// leg), triggering the same settle/claim path as the UTXO equivalent.
func (n *Nursery) handleEVMUserLockup(ctx context.Context, ev events.Event) error {
	switch ev.Kind {
	case types.Submarine:
		if err := n.cfg.Swaps.SetStatus(ctx, ev.SwapID.Hex(), types.StatusTransactionMempool); err != nil {
			return err
		}
		return n.attemptSettle(ctx, types.Submarine, ev.SwapID, nil)
	case types.Chain:
		return n.cfg.Wrapped.SetStatus(ctx, types.Chain, ev.SwapID.Hex(), types.StatusTransactionMempool)
	default:
		return fmt.Errorf("nursery: unexpected EVM user lockup for kind %s", ev.Kind)
	}
}

// handleSwapLockup reacts to a submarine swap's user lockup being observed
// on a UTXO chain (spec.md §4.1 "Handling observed user lockup"): mark the
// swap confirmed/mempool, then attempt to pay the user's invoice.
func (n *Nursery) handleSwapLockup(ctx context.Context, ev events.Event) error {
	obs, ok := ev.Data.(utxo.LockupObservation)
	if !ok {
		return fmt.Errorf("nursery: swap.lockup event for %s carried unexpected data %T", ev.SwapID, ev.Data)
	}

	status := types.StatusTransactionMempool
	if obs.Confirmed {
		status = types.StatusTransactionConfirmed
	}
	if err := n.cfg.Swaps.SetStatus(ctx, ev.SwapID.Hex(), status); err != nil {
		return err
	}

	return n.attemptSettle(ctx, types.Submarine, ev.SwapID, nil)
}

// handleChainSwapLockup reacts to a chain swap's user-side (sending leg)
// lockup being observed: persist it, then drive this server's own
// receiving-leg lockup, guarding invariant I2 ("never send a second
// server-side lockup for the same swap id") against the S6 race where the
// receiving leg was already broadcast by an earlier, concurrently-queued
// delivery of the same observation.
func (n *Nursery) handleChainSwapLockup(ctx context.Context, ev events.Event) error {
	obs, ok := ev.Data.(utxo.LockupObservation)
	if !ok {
		return fmt.Errorf("nursery: chainSwap.lockup event for %s carried unexpected data %T", ev.SwapID, ev.Data)
	}
	if obs.Vout >= uint32(len(obs.Tx.Outputs)) {
		return fmt.Errorf("nursery: chainSwap.lockup event for %s has out-of-range vout %d", ev.SwapID, obs.Vout)
	}

	if err := n.cfg.ChainSwaps.SetSendingLockupTransaction(
		ctx, ev.SwapID.Hex(), obs.Tx.Hash, obs.Vout, obs.Tx.Outputs[obs.Vout].AmountSat,
	); err != nil {
		return err
	}

	status := types.StatusTransactionMempool
	if obs.Confirmed {
		status = types.StatusTransactionConfirmed
	}
	if err := n.cfg.Wrapped.SetStatus(ctx, types.Chain, ev.SwapID.Hex(), status); err != nil {
		return err
	}

	cs, err := n.cfg.ChainSwaps.Get(ctx, ev.SwapID.Hex())
	if err != nil {
		return err
	}
	if cs.ReceivingData.TransactionID != nil {
		// S6: the receiving-side lockup already went out; never send twice.
		return nil
	}

	return n.lockupChainReceiving(ctx, cs)
}

// lockupChainReceiving broadcasts this server's receiving-leg lockup for a
// chain swap, mirroring the reverse-swap lockup algorithm but keyed off
// ChainSwapData.Symbol/lockup address instead of a ReverseSwap row.
func (n *Nursery) lockupChainReceiving(ctx context.Context, cs *swap.ChainSwap) error {
	cur, ok := n.cfg.Currencies.Get(cs.ReceivingData.Symbol)
	if !ok {
		return fmt.Errorf("nursery: chain swap %s: no currency configured for receiving symbol %s", cs.ID, cs.ReceivingData.Symbol)
	}
	if cur.Chain == nil || cur.Wallet == nil {
		return fmt.Errorf("nursery: chain swap %s: receiving symbol %s has no on-chain wallet wired", cs.ID, cs.ReceivingData.Symbol)
	}
	if cs.ReceivingData.LockupAddress == "" {
		return fmt.Errorf("nursery: chain swap %s: receiving leg has no lockup address recorded", cs.ID)
	}

	feePerVbyte, err := cur.Chain.EstimateFee(ctx, reverseLockupMempoolETA)
	if err != nil {
		return err
	}

	label := n.cfg.Labels.LockupLabel(types.Chain, cs.ID)
	result, err := cur.Wallet.SendToAddress(ctx, cs.ReceivingData.LockupAddress, cs.ReceivingData.ExpectedAmount, feePerVbyte, label)
	if err != nil {
		return fmt.Errorf("nursery: chain swap %s: send receiving lockup: %w", cs.ID, err)
	}

	if err := n.cfg.Wrapped.SetServerLockupTransaction(
		ctx, types.Chain, cs.ID, result.TransactionID, cs.ReceivingData.ExpectedAmount, result.FeeSat, result.Vout,
	); err != nil {
		return err
	}

	cur.Chain.AddInputFilter(result.TransactionID)
	return nil
}
