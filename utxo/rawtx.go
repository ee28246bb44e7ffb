package utxo

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/wire"
)

// DecodeRawTransaction parses the hex-encoded raw transaction returned by
// ChainClient.GetRawTransaction, as consumed by the claim/refund
// construction paths.
func DecodeRawTransaction(rawHex string) (*wire.MsgTx, error) {
	raw, err := hex.DecodeString(rawHex)
	if err != nil {
		return nil, fmt.Errorf("utxo: decode raw transaction hex: %w", err)
	}

	tx := wire.NewMsgTx(wire.TxVersion)
	if err := tx.Deserialize(bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("utxo: deserialize raw transaction: %w", err)
	}
	return tx, nil
}

// EncodeRawTransaction serializes tx back to the hex form SendRawTransaction
// expects.
func EncodeRawTransaction(tx *wire.MsgTx) (string, error) {
	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		return "", fmt.Errorf("utxo: serialize transaction: %w", err)
	}
	return hex.EncodeToString(buf.Bytes()), nil
}
