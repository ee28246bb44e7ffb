package utxo

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/require"
)

func TestDecodeAddress_RejectsMalformedAddress(t *testing.T) {
	_, err := DecodeAddress("not-a-real-address", &chaincfg.MainNetParams)
	require.Error(t, err)
}

func TestDecodeAddress_RejectsWrongNetwork(t *testing.T) {
	// A well-known mainnet P2PKH address must be rejected against testnet
	// parameters, since its network byte won't match.
	_, err := DecodeAddress("1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa", &chaincfg.TestNet3Params)
	require.Error(t, err)
}
