package utxo

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
)

// DecodeAddress parses addr against net and returns its scriptPubKey,
// independent of any particular Wallet implementation. A concrete Wallet
// adapter backed by a UTXO full node can delegate its DecodeAddress method
// to this helper rather than re-implementing address parsing itself.
func DecodeAddress(addr string, net *chaincfg.Params) ([]byte, error) {
	decoded, err := btcutil.DecodeAddress(addr, net)
	if err != nil {
		return nil, fmt.Errorf("utxo: decode address %q: %w", addr, err)
	}
	if !decoded.IsForNet(net) {
		return nil, fmt.Errorf("utxo: address %q is not valid for the configured network", addr)
	}

	script, err := txscript.PayToAddrScript(decoded)
	if err != nil {
		return nil, fmt.Errorf("utxo: build scriptPubKey for %q: %w", addr, err)
	}
	return script, nil
}
