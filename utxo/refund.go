package utxo

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/djkazic/boltz-backend/currency"
	"github.com/djkazic/boltz-backend/types"
)

// FindLockupVout locates the output within a lockup transaction whose
// scriptPubKey matches the HTLC/Taproot swap address, matching the
// reference nursery's findLockupVout.
func FindLockupVout(script []byte, outputs []*wire.TxOut) (uint32, error) {
	for vout, out := range outputs {
		if bytes.Equal(out.PkScript, script) {
			return uint32(vout), nil
		}
	}
	return 0, fmt.Errorf("utxo: no output in lockup transaction matches the swap script")
}

// RefundInput describes the single lockup output being spent by a refund
// or claim transaction.
type RefundInput struct {
	TxHash           types.Hash
	Vout             uint32
	AmountSat        int64
	RedeemScript     []byte // legacy: the full HTLC script; taproot: the refund leaf script
	IsTaproot        bool
	SwapTree         *SwapTree
}

// BuildLegacyRefundTransaction constructs the nLockTime-gated refund
// spending a legacy HTLC lockup via its timeout branch, mirroring
// boltz.ConstructRefundTransaction: one input (the lockup), one output
// (destinationScript minus feeSat), nLockTime set to timeoutBlockHeight so
// OP_CHECKLOCKTIMEVERIFY is satisfied, and nSequence left non-final.
func BuildLegacyRefundTransaction(
	in RefundInput,
	destinationScript []byte,
	feeSat int64,
	timeoutBlockHeight uint32,
) (*wire.MsgTx, error) {
	tx := wire.NewMsgTx(2)
	tx.LockTime = timeoutBlockHeight

	hash, err := chainhash.NewHash(in.TxHash[:])
	if err != nil {
		return nil, fmt.Errorf("utxo: invalid lockup txid: %w", err)
	}

	txIn := wire.NewTxIn(wire.NewOutPoint(hash, in.Vout), nil, nil)
	txIn.Sequence = wire.MaxTxInSequenceNum - 1 // non-final, required for CLTV
	tx.AddTxIn(txIn)

	tx.AddTxOut(wire.NewTxOut(in.AmountSat-feeSat, destinationScript))

	return tx, nil
}

// BuildClaimTransaction constructs a transaction spending a lockup output
// to destinationScript via the claim (preimage-reveal) branch, with no
// locktime restriction since claims are not time-gated.
func BuildClaimTransaction(
	in RefundInput,
	destinationScript []byte,
	feeSat int64,
) (*wire.MsgTx, error) {
	tx := wire.NewMsgTx(2)

	hash, err := chainhash.NewHash(in.TxHash[:])
	if err != nil {
		return nil, fmt.Errorf("utxo: invalid lockup txid: %w", err)
	}

	tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(hash, in.Vout), nil, nil))
	tx.AddTxOut(wire.NewTxOut(in.AmountSat-feeSat, destinationScript))

	return tx, nil
}

// SignLegacyRefund produces the scriptSig/witness satisfying the refund
// branch of a legacy P2WSH HTLC: <sig> <> <redeemScript>, the empty
// middle element selecting the OP_ELSE (timeout) branch.
func SignLegacyRefund(
	tx *wire.MsgTx,
	inputIndex int,
	redeemScript []byte,
	prevOutFetcher *txscript.MultiPrevOutFetcher,
	privKey *btcec.PrivateKey,
) (wire.TxWitness, error) {
	sigHashes := txscript.NewTxSigHashes(tx, prevOutFetcher)

	sig, err := txscript.RawTxInWitnessSignature(
		tx, sigHashes, inputIndex, prevOutFetcher.FetchPrevOutput(*wire.NewOutPoint(&tx.TxIn[inputIndex].PreviousOutPoint.Hash, tx.TxIn[inputIndex].PreviousOutPoint.Index)).Value,
		redeemScript, txscript.SigHashAll, privKey,
	)
	if err != nil {
		return nil, fmt.Errorf("utxo: sign refund input: %w", err)
	}

	return wire.TxWitness{sig, nil, redeemScript}, nil
}

// SignLegacyClaim produces the witness satisfying the claim branch of a
// legacy P2WSH HTLC: <sig> <preimage> <redeemScript>.
func SignLegacyClaim(
	tx *wire.MsgTx,
	inputIndex int,
	redeemScript []byte,
	preimage []byte,
	prevOutFetcher *txscript.MultiPrevOutFetcher,
	privKey *btcec.PrivateKey,
) (wire.TxWitness, error) {
	sigHashes := txscript.NewTxSigHashes(tx, prevOutFetcher)

	prevOut := tx.TxIn[inputIndex].PreviousOutPoint
	sig, err := txscript.RawTxInWitnessSignature(
		tx, sigHashes, inputIndex, prevOutFetcher.FetchPrevOutput(prevOut).Value,
		redeemScript, txscript.SigHashAll, privKey,
	)
	if err != nil {
		return nil, fmt.Errorf("utxo: sign claim input: %w", err)
	}

	return wire.TxWitness{sig, preimage, redeemScript}, nil
}

// Broadcast serializes tx to hex and relays it via client, using the
// relaxed fee policy since refund transactions are fee-constrained by the
// HTLC's fixed output size (spec.md §4.1's refund algorithm).
func Broadcast(ctx context.Context, client currency.ChainClient, tx *wire.MsgTx) (types.Hash, error) {
	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		return types.Hash{}, fmt.Errorf("utxo: serialize refund transaction: %w", err)
	}

	return client.SendRawTransaction(ctx, hex.EncodeToString(buf.Bytes()), true)
}
