package nursery

import (
	"context"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	ethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/djkazic/boltz-backend/currency"
	"github.com/djkazic/boltz-backend/events"
	"github.com/djkazic/boltz-backend/swap"
	"github.com/djkazic/boltz-backend/types"
	"github.com/djkazic/boltz-backend/utxo"
)

// refundReverseIfLockedUp refunds a reverse swap's own on-chain lockup via
// the legacy HTLC timeout branch, once its expiry has fired. A reverse
// swap that never broadcast a lockup (the common expiry case — the user
// simply never paid) has nothing to refund.
func (n *Nursery) refundReverseIfLockedUp(ctx context.Context, swapID types.Hash) error {
	rs, err := n.cfg.ReverseSwaps.Get(ctx, swapID.Hex())
	if err != nil {
		return err
	}
	if rs.TransactionID == nil || rs.TransactionVout == nil {
		return nil
	}

	cur, ok := n.cfg.Currencies.Get(rs.ChainCurrency)
	if !ok {
		return n.refundEVMReverse(ctx, rs)
	}

	if len(rs.RedeemScript) == 0 {
		return fmt.Errorf("nursery: reverse swap %s: taproot cooperative refund not wired, legacy redeem script required", rs.ID)
	}

	txID, err := n.refundLegacyHTLC(ctx, cur, rs.ID, types.ReverseSubmarine, legacyRefundInput{
		txHash:             *rs.TransactionID,
		vout:               *rs.TransactionVout,
		amountSat:          int64(rs.OnchainAmount),
		redeemScript:       rs.RedeemScript,
		keyIndex:           rs.KeyIndex,
		timeoutBlockHeight: rs.TimeoutBlockHeight,
	})
	if err != nil {
		return err
	}

	return n.cfg.Wrapped.SetTransactionRefunded(ctx, types.ReverseSubmarine, rs.ID, txID, 0)
}

// refundChainIfLockedUp is refundReverseIfLockedUp's chain-swap
// counterpart: it refunds this server's own receiving-leg lockup, since
// the sending leg belongs to the counterparty and is refundable only by
// them.
func (n *Nursery) refundChainIfLockedUp(ctx context.Context, swapID types.Hash) error {
	cs, err := n.cfg.ChainSwaps.Get(ctx, swapID.Hex())
	if err != nil {
		return err
	}
	if cs.ReceivingData.TransactionID == nil || cs.ReceivingData.TransactionVout == nil {
		return nil
	}

	cur, ok := n.cfg.Currencies.Get(cs.ReceivingData.Symbol)
	if !ok {
		return n.refundEVMChain(ctx, cs)
	}

	if len(cs.ReceivingData.RedeemScript) == 0 {
		return fmt.Errorf("nursery: chain swap %s: taproot cooperative refund not wired, legacy redeem script required", cs.ID)
	}

	txID, err := n.refundLegacyHTLC(ctx, cur, cs.ID, types.Chain, legacyRefundInput{
		txHash:             *cs.ReceivingData.TransactionID,
		vout:               *cs.ReceivingData.TransactionVout,
		amountSat:          int64(cs.ReceivingData.ExpectedAmount),
		redeemScript:       cs.ReceivingData.RedeemScript,
		keyIndex:           cs.ReceivingData.KeyIndex,
		timeoutBlockHeight: cs.ReceivingData.TimeoutBlockHeight,
	})
	if err != nil {
		return err
	}

	return n.cfg.Wrapped.SetTransactionRefunded(ctx, types.Chain, cs.ID, txID, 0)
}

// legacyRefundInput bundles the per-swap data needed to build and sign a
// legacy HTLC refund transaction, independent of which swap kind it came
// from.
type legacyRefundInput struct {
	txHash             types.Hash
	vout               uint32
	amountSat          int64
	redeemScript       []byte
	keyIndex           uint32
	timeoutBlockHeight uint32
}

// refundLegacyHTLC builds, signs and broadcasts the refund transaction for
// a single legacy HTLC lockup, then records it via RefundTransactionRepository
// for the RefundWatcher to later confirm.
func (n *Nursery) refundLegacyHTLC(
	ctx context.Context,
	cur *currency.Currency,
	swapRowID string,
	kind types.SwapKind,
	in legacyRefundInput,
) (types.Hash, error) {
	label := n.cfg.Labels.RefundLabel(kind, swapRowID)
	destAddr, err := cur.Wallet.GetAddress(ctx, label)
	if err != nil {
		return types.Hash{}, err
	}
	destScript, err := cur.Wallet.DecodeAddress(destAddr)
	if err != nil {
		return types.Hash{}, err
	}

	feePerVbyte, err := cur.Chain.EstimateFee(ctx, 2)
	if err != nil {
		return types.Hash{}, err
	}
	size := utxo.TransactionSize[cur.Type][types.Legacy].Refund
	fee := int64(feePerVbyte * size)

	refundIn := utxo.RefundInput{
		TxHash:       in.txHash,
		Vout:         in.vout,
		AmountSat:    in.amountSat,
		RedeemScript: in.redeemScript,
	}

	tx, err := utxo.BuildLegacyRefundTransaction(refundIn, destScript, fee, in.timeoutBlockHeight)
	if err != nil {
		return types.Hash{}, err
	}

	key, err := cur.Wallet.GetKeysByIndex(in.keyIndex)
	if err != nil {
		return types.Hash{}, err
	}

	hash, err := chainhash.NewHash(in.txHash[:])
	if err != nil {
		return types.Hash{}, err
	}
	// Only .Value is read by SignLegacyRefund's witness sighash for a
	// segwit v0 input; the exact pkScript bytes of the fetched prevout are
	// not consulted.
	prevOutFetcher := txscript.NewMultiPrevOutFetcher(nil)
	prevOutFetcher.AddPrevOut(*wire.NewOutPoint(hash, in.vout), wire.NewTxOut(in.amountSat, in.redeemScript))

	witness, err := utxo.SignLegacyRefund(tx, 0, in.redeemScript, prevOutFetcher, key.Raw())
	if err != nil {
		return types.Hash{}, err
	}
	tx.TxIn[0].Witness = witness

	txID, err := utxo.Broadcast(ctx, cur.Chain, tx)
	if err != nil {
		return types.Hash{}, err
	}

	vin := uint32(0)
	if err := n.cfg.RefundTxs.AddTransaction(ctx, swap.RefundTransaction{
		SwapID: swapRowID,
		Kind:   kind,
		Symbol: cur.Symbol,
		ID:     txID,
		Vin:    &vin,
	}); err != nil {
		log.Warnf("swap %s: failed to record refund transaction %s: %s", swapRowID, txID, err)
	}

	return txID, nil
}

// handleRefundConfirmed reacts to the RefundWatcher's refund.confirmed:
// the swap's status was already set to TransactionRefunded at broadcast
// time, so there is nothing left to persist. This is only a log point for
// operator visibility into when a refund is safely final.
func (n *Nursery) handleRefundConfirmed(_ context.Context, ev events.Event) error {
	txID, _ := ev.Data.(types.Hash)
	log.Infof("swap %s: refund %s reached confirmation threshold", ev.SwapID, txID)
	return nil
}

// refundEVMReverse refunds a reverse swap's own Ether/ERC20 lockup via the
// contract's own timeout branch, once its EVM timelock has passed. Unlike
// the legacy HTLC path, no RefundTransaction is recorded: this server
// already knows its own lockup's data, and confirmation is observed
// directly through the EthereumWatcher's Refund log rather than
// RefundWatcher polling (RefundTransaction.Symbol is empty for EVM rows).
func (n *Nursery) refundEVMReverse(ctx context.Context, rs *swap.ReverseSwap) error {
	handler, err := n.cfg.EVM.ContractHandler(rs.ChainCurrency)
	if err != nil {
		return fmt.Errorf("nursery: reverse swap %s: %w", rs.ID, err)
	}

	values, err := handler.QueryLockupValues(ctx, rs.PreimageHash)
	if err != nil {
		return fmt.Errorf("nursery: reverse swap %s: %w", rs.ID, err)
	}
	if values.TokenAddress != (ethcommon.Address{}) {
		return fmt.Errorf("nursery: reverse swap %s: ERC-20 refund not wired, token model not yet carried by ReverseSwap", rs.ID)
	}

	txHandle, err := handler.RefundEther(ctx, rs.PreimageHash, values.Amount, values.ClaimAddress, values.Timelock)
	if err != nil {
		return fmt.Errorf("nursery: reverse swap %s: refund ether: %w", rs.ID, err)
	}

	return n.cfg.Wrapped.SetTransactionRefunded(ctx, types.ReverseSubmarine, rs.ID, txHandle.Hash(), 0)
}

// refundEVMChain is refundEVMReverse's chain-swap counterpart: it refunds
// this server's own receiving-leg lockup.
func (n *Nursery) refundEVMChain(ctx context.Context, cs *swap.ChainSwap) error {
	handler, err := n.cfg.EVM.ContractHandler(cs.ReceivingData.Symbol)
	if err != nil {
		return fmt.Errorf("nursery: chain swap %s: %w", cs.ID, err)
	}

	values, err := handler.QueryLockupValues(ctx, cs.PreimageHash)
	if err != nil {
		return fmt.Errorf("nursery: chain swap %s: %w", cs.ID, err)
	}
	if values.TokenAddress != (ethcommon.Address{}) {
		return fmt.Errorf("nursery: chain swap %s: ERC-20 refund not wired, token model not yet carried by ChainSwapData", cs.ID)
	}

	txHandle, err := handler.RefundEther(ctx, cs.PreimageHash, values.Amount, values.ClaimAddress, values.Timelock)
	if err != nil {
		return fmt.Errorf("nursery: chain swap %s: refund ether: %w", cs.ID, err)
	}

	return n.cfg.Wrapped.SetTransactionRefunded(ctx, types.Chain, cs.ID, txHandle.Hash(), 0)
}
