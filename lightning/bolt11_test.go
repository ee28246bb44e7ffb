package lightning

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/require"
)

func TestDecodeBolt11_RejectsMalformedInvoice(t *testing.T) {
	_, err := DecodeBolt11("not-a-real-invoice", &chaincfg.MainNetParams)
	require.Error(t, err)
}

func TestDecodeBolt11_RejectsEmptyString(t *testing.T) {
	_, err := DecodeBolt11("", &chaincfg.TestNet3Params)
	require.Error(t, err)
}
