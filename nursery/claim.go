package nursery

import (
	"context"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	ethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/djkazic/boltz-backend/currency"
	"github.com/djkazic/boltz-backend/swap"
	"github.com/djkazic/boltz-backend/types"
	"github.com/djkazic/boltz-backend/utxo"
)

// buildAndBroadcastClaim builds, signs and broadcasts the claim
// transaction spending a lockup this server is entitled to once it holds
// preimage: for Submarine, the user's own on-chain lockup; for Chain, the
// counterparty's sending-leg lockup (revealed when the user claimed this
// server's receiving-leg broadcast). ReverseSubmarine never reaches here —
// its claim belongs to the user, not the server.
func (n *Nursery) buildAndBroadcastClaim(ctx context.Context, kind types.SwapKind, swapID types.Hash, preimage []byte) error {
	switch kind {
	case types.Submarine:
		return n.claimSubmarine(ctx, swapID, preimage)
	case types.Chain:
		return n.claimChainSending(ctx, swapID, preimage)
	default:
		return fmt.Errorf("nursery: unexpected claim target for kind %s", kind)
	}
}

func (n *Nursery) claimSubmarine(ctx context.Context, swapID types.Hash, preimage []byte) error {
	s, err := n.cfg.Swaps.Get(ctx, swapID.Hex())
	if err != nil {
		return err
	}
	if s.LockupTransactionID == nil || s.LockupTransactionVout == nil {
		return fmt.Errorf("nursery: submarine swap %s: no recorded lockup to claim", s.ID)
	}

	cur, ok := n.cfg.Currencies.Get(s.Pair)
	if !ok {
		return n.claimSubmarineEVM(ctx, s, preimage)
	}
	if len(s.RedeemScript) == 0 {
		return fmt.Errorf("nursery: submarine swap %s: taproot cooperative claim not wired, legacy redeem script required", s.ID)
	}

	txID, err := n.claimLegacyHTLC(ctx, cur, s.ID, types.Submarine, legacyClaimInput{
		txHash:       *s.LockupTransactionID,
		vout:         *s.LockupTransactionVout,
		amountSat:    int64(s.OnchainAmount),
		redeemScript: s.RedeemScript,
		keyIndex:     s.KeyIndex,
		preimage:     preimage,
	})
	if err != nil {
		return err
	}

	log.Infof("submarine swap %s claimed in %s", s.ID, txID)
	return n.cfg.Swaps.SetStatus(ctx, s.ID, types.StatusTransactionClaimed)
}

func (n *Nursery) claimChainSending(ctx context.Context, swapID types.Hash, preimage []byte) error {
	cs, err := n.cfg.ChainSwaps.Get(ctx, swapID.Hex())
	if err != nil {
		return err
	}
	if cs.SendingData.TransactionID == nil || cs.SendingData.TransactionVout == nil {
		return fmt.Errorf("nursery: chain swap %s: no recorded sending-leg lockup to claim", cs.ID)
	}

	cur, ok := n.cfg.Currencies.Get(cs.SendingData.Symbol)
	if !ok {
		return n.claimChainEVM(ctx, cs, preimage)
	}
	if len(cs.SendingData.RedeemScript) == 0 {
		return fmt.Errorf("nursery: chain swap %s: taproot cooperative claim not wired, legacy redeem script required", cs.ID)
	}

	txID, err := n.claimLegacyHTLC(ctx, cur, cs.ID, types.Chain, legacyClaimInput{
		txHash:       *cs.SendingData.TransactionID,
		vout:         *cs.SendingData.TransactionVout,
		amountSat:    int64(cs.SendingData.ExpectedAmount),
		redeemScript: cs.SendingData.RedeemScript,
		keyIndex:     cs.SendingData.KeyIndex,
		preimage:     preimage,
	})
	if err != nil {
		return err
	}

	log.Infof("chain swap %s: sending leg claimed in %s", cs.ID, txID)
	return n.cfg.Wrapped.SetStatus(ctx, types.Chain, cs.ID, types.StatusTransactionClaimed)
}

// legacyClaimInput bundles the per-swap data needed to build and sign a
// legacy HTLC claim transaction, independent of which swap kind it came
// from.
type legacyClaimInput struct {
	txHash       types.Hash
	vout         uint32
	amountSat    int64
	redeemScript []byte
	keyIndex     uint32
	preimage     []byte
}

func (n *Nursery) claimLegacyHTLC(
	ctx context.Context,
	cur *currency.Currency,
	swapRowID string,
	kind types.SwapKind,
	in legacyClaimInput,
) (types.Hash, error) {
	label := n.cfg.Labels.ClaimLabel(kind, swapRowID)
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
	size := utxo.TransactionSize[cur.Type][types.Legacy].Claim
	fee := int64(feePerVbyte * size)

	refundIn := utxo.RefundInput{
		TxHash:       in.txHash,
		Vout:         in.vout,
		AmountSat:    in.amountSat,
		RedeemScript: in.redeemScript,
	}

	tx, err := utxo.BuildClaimTransaction(refundIn, destScript, fee)
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
	prevOutFetcher := txscript.NewMultiPrevOutFetcher(nil)
	prevOutFetcher.AddPrevOut(*wire.NewOutPoint(hash, in.vout), wire.NewTxOut(in.amountSat, in.redeemScript))

	witness, err := utxo.SignLegacyClaim(tx, 0, in.redeemScript, in.preimage, prevOutFetcher, key.Raw())
	if err != nil {
		return types.Hash{}, err
	}
	tx.TxIn[0].Witness = witness

	return utxo.Broadcast(ctx, cur.Chain, tx)
}

// claimSubmarineEVM claims a submarine swap's user lockup on an Ether/ERC-20
// currency by re-reading the lockup's own Lockup event (amount, refund
// address, timelock) rather than requiring any new column on Submarine.
func (n *Nursery) claimSubmarineEVM(ctx context.Context, s *swap.Submarine, preimage []byte) error {
	handler, err := n.cfg.EVM.ContractHandler(s.Pair)
	if err != nil {
		return fmt.Errorf("nursery: submarine swap %s: %w", s.ID, err)
	}

	values, err := handler.QueryLockupValues(ctx, s.PreimageHash)
	if err != nil {
		return fmt.Errorf("nursery: submarine swap %s: %w", s.ID, err)
	}
	if values.TokenAddress != (ethcommon.Address{}) {
		return fmt.Errorf("nursery: submarine swap %s: ERC-20 claim not wired, token model not yet carried by Submarine", s.ID)
	}

	var preimageArr [32]byte
	copy(preimageArr[:], preimage)

	txHandle, err := handler.ClaimEther(ctx, preimageArr, values.Amount, values.RefundAddress, values.Timelock)
	if err != nil {
		return fmt.Errorf("nursery: submarine swap %s: claim ether: %w", s.ID, err)
	}

	log.Infof("submarine swap %s claimed in %s", s.ID, txHandle.Hash())
	return n.cfg.Swaps.SetStatus(ctx, s.ID, types.StatusTransactionClaimed)
}

// claimChainEVM is claimSubmarineEVM's chain-swap counterpart: it claims
// the counterparty's sending-leg lockup on an Ether/ERC-20 currency.
func (n *Nursery) claimChainEVM(ctx context.Context, cs *swap.ChainSwap, preimage []byte) error {
	handler, err := n.cfg.EVM.ContractHandler(cs.SendingData.Symbol)
	if err != nil {
		return fmt.Errorf("nursery: chain swap %s: %w", cs.ID, err)
	}

	values, err := handler.QueryLockupValues(ctx, cs.PreimageHash)
	if err != nil {
		return fmt.Errorf("nursery: chain swap %s: %w", cs.ID, err)
	}
	if values.TokenAddress != (ethcommon.Address{}) {
		return fmt.Errorf("nursery: chain swap %s: ERC-20 claim not wired, token model not yet carried by ChainSwapData", cs.ID)
	}

	var preimageArr [32]byte
	copy(preimageArr[:], preimage)

	txHandle, err := handler.ClaimEther(ctx, preimageArr, values.Amount, values.RefundAddress, values.Timelock)
	if err != nil {
		return fmt.Errorf("nursery: chain swap %s: claim ether: %w", cs.ID, err)
	}

	log.Infof("chain swap %s: sending leg claimed in %s", cs.ID, txHandle.Hash())
	return n.cfg.Wrapped.SetStatus(ctx, types.Chain, cs.ID, types.StatusTransactionClaimed)
}
