package utxo

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/djkazic/boltz-backend/types"
)

func TestTransactionSize_TaprootIsSmallerThanLegacy(t *testing.T) {
	for _, ct := range []types.CurrencyType{types.BitcoinLike, types.Liquid} {
		legacy := TransactionSize[ct][types.Legacy]
		taproot := TransactionSize[ct][types.Taproot]

		require.Lessf(t, taproot.ReverseLockup, legacy.ReverseLockup, "%s reverse-lockup", ct)
		require.Lessf(t, taproot.Claim, legacy.Claim, "%s claim", ct)
		require.Lessf(t, taproot.Refund, legacy.Refund, "%s refund", ct)
	}
}

func TestTransactionSize_LiquidLargerThanBitcoinLike(t *testing.T) {
	for _, v := range []types.SwapVersion{types.Legacy, types.Taproot} {
		btc := TransactionSize[types.BitcoinLike][v]
		liquid := TransactionSize[types.Liquid][v]

		require.Greaterf(t, liquid.Claim, btc.Claim, "version %s claim vsize", v)
	}
}
