package lightning

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMsatToSat_Truncates(t *testing.T) {
	require.EqualValues(t, 1, MsatToSat(1999))
	require.EqualValues(t, 2, MsatToSat(2000))
}

func TestFeePerVbyteFromPrepay_RoundsHalfUp(t *testing.T) {
	cases := []struct {
		name         string
		amountMsat   uint64
		vsize        uint64
		wantFeeVbyte uint64
	}{
		{"exact multiple", 153_000, 153, 1},
		{"fraction above half rounds up to 1", 77_000, 153, 1},
		{"fraction below half rounds down to 0", 76_000, 153, 0},
		{"zero amount", 0, 153, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.wantFeeVbyte, FeePerVbyteFromPrepay(c.amountMsat, c.vsize))
		})
	}
}

func TestFeePerVbyteFromPrepay_ZeroVsizeIsSafe(t *testing.T) {
	require.Zero(t, FeePerVbyteFromPrepay(100_000, 0))
}

func TestFeePerVbyteFromPrepay_LargerPrepayGivesHigherFeeRate(t *testing.T) {
	low := FeePerVbyteFromPrepay(150_000, 153)
	high := FeePerVbyteFromPrepay(300_000, 153)
	require.Greater(t, high, low)
}
