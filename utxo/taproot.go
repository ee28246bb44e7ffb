package utxo

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr/musig2"
	"github.com/btcsuite/btcd/txscript"
)

// ErrInvalidSwapTree names a Taproot swap tree that cannot be parsed back
// into its claim/refund leaves. This package has no swap-tree parser and
// nothing in it returns this value.
var ErrInvalidSwapTree = errors.New("utxo: invalid taproot swap tree")

// SwapTree mirrors the Taproot HTLC layout: a key-path spend available to
// the MuSig2-aggregated (server, user) key for cooperative claim/refund,
// and two script-path leaves — claim (preimage + user key) and refund
// (timelock + server key) — for the uncooperative fallback, matching
// spec.md §4.1's Taproot/MuSig2 swap-tree description.
type SwapTree struct {
	InternalKey  *btcec.PublicKey
	ClaimLeaf    []byte
	RefundLeaf   []byte
	ClaimScript  []byte
	RefundScript []byte
}

// NewSwapTree builds the claim and refund tapscript leaves and derives the
// MuSig2-aggregated internal key for a single swap.
func NewSwapTree(
	serverPubKey, userPubKey *btcec.PublicKey,
	preimageHash [32]byte,
	timeoutBlockHeight uint32,
) (*SwapTree, error) {
	claimScript, err := claimLeafScript(userPubKey, preimageHash)
	if err != nil {
		return nil, err
	}

	refundScript, err := refundLeafScript(serverPubKey, timeoutBlockHeight)
	if err != nil {
		return nil, err
	}

	aggKey, _, err := musig2.AggregateKeys(
		[]*btcec.PublicKey{serverPubKey, userPubKey},
		true,
	)
	if err != nil {
		return nil, fmt.Errorf("aggregate musig2 key: %w", err)
	}

	return &SwapTree{
		InternalKey:  aggKey,
		ClaimScript:  claimScript,
		RefundScript: refundScript,
	}, nil
}

// claimLeafScript is <preimageHash OP_SHA256 OP_EQUALVERIFY> <userPubKey OP_CHECKSIG>,
// the Taproot-script-path equivalent of the legacy HTLC's claim branch.
func claimLeafScript(userPubKey *btcec.PublicKey, preimageHash [32]byte) ([]byte, error) {
	builder := txscript.NewScriptBuilder()
	builder.AddOp(txscript.OP_SHA256)
	builder.AddData(preimageHash[:])
	builder.AddOp(txscript.OP_EQUALVERIFY)
	builder.AddData(schnorrPubKeyBytes(userPubKey))
	builder.AddOp(txscript.OP_CHECKSIG)
	return builder.Script()
}

// refundLeafScript is <timeoutBlockHeight OP_CHECKLOCKTIMEVERIFY OP_DROP>
// <serverPubKey OP_CHECKSIG>, allowing the server to reclaim the lockup
// unilaterally once the timelock has passed.
func refundLeafScript(serverPubKey *btcec.PublicKey, timeoutBlockHeight uint32) ([]byte, error) {
	builder := txscript.NewScriptBuilder()
	builder.AddInt64(int64(timeoutBlockHeight))
	builder.AddOp(txscript.OP_CHECKLOCKTIMEVERIFY)
	builder.AddOp(txscript.OP_DROP)
	builder.AddData(schnorrPubKeyBytes(serverPubKey))
	builder.AddOp(txscript.OP_CHECKSIG)
	return builder.Script()
}

func schnorrPubKeyBytes(pub *btcec.PublicKey) []byte {
	return pub.SerializeCompressed()[1:] // x-only, per BIP-340
}

// LegacyHTLCScript builds the pre-Taproot redeem script used by
// SwapVersion.Legacy swaps:
//
//	OP_SIZE 32 OP_EQUALVERIFY OP_SHA256 <preimageHash> OP_EQUAL
//	OP_IF <userPubKey>
//	OP_ELSE <timeoutBlockHeight> OP_CHECKLOCKTIMEVERIFY OP_DROP <serverPubKey>
//	OP_ENDIF OP_CHECKSIG
//
// matching the classic boltz/submarine-swaps HTLC layout also used by the
// reference boltz-lnd client's refund-transaction construction.
func LegacyHTLCScript(userPubKey, serverPubKey *btcec.PublicKey, preimageHash [32]byte, timeoutBlockHeight uint32) ([]byte, error) {
	builder := txscript.NewScriptBuilder()
	builder.AddOp(txscript.OP_SIZE)
	builder.AddInt64(32)
	builder.AddOp(txscript.OP_EQUALVERIFY)
	builder.AddOp(txscript.OP_SHA256)
	builder.AddData(preimageHash[:])
	builder.AddOp(txscript.OP_EQUAL)
	builder.AddOp(txscript.OP_IF)
	builder.AddData(userPubKey.SerializeCompressed())
	builder.AddOp(txscript.OP_ELSE)
	builder.AddInt64(int64(timeoutBlockHeight))
	builder.AddOp(txscript.OP_CHECKLOCKTIMEVERIFY)
	builder.AddOp(txscript.OP_DROP)
	builder.AddData(serverPubKey.SerializeCompressed())
	builder.AddOp(txscript.OP_ENDIF)
	builder.AddOp(txscript.OP_CHECKSIG)
	return builder.Script()
}

// VerifyPreimage reports whether preimage hashes to preimageHash under
// SHA-256, the check every claim path performs before broadcasting.
func VerifyPreimage(preimage []byte, preimageHash [32]byte) bool {
	sum := sha256.Sum256(preimage)
	return bytes.Equal(sum[:], preimageHash[:])
}
