package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCurrencyType_IsUTXOAndIsEVMArePartition(t *testing.T) {
	all := []CurrencyType{BitcoinLike, Liquid, Ether, ERC20}
	for _, ct := range all {
		require.NotEqualf(t, ct.IsUTXO(), ct.IsEVM(), "%s: IsUTXO() and IsEVM() must disagree", ct)
	}
}

func TestSwapKind_String(t *testing.T) {
	cases := map[SwapKind]string{
		Submarine:        "submarine",
		ReverseSubmarine: "reverseSubmarine",
		Chain:            "chain",
	}
	for kind, want := range cases {
		require.Equal(t, want, kind.String())
	}
}

func TestSwapVersion_String(t *testing.T) {
	require.Equal(t, "legacy", Legacy.String())
	require.Equal(t, "taproot", Taproot.String())
}
