package nursery

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/djkazic/boltz-backend/currency"
	"github.com/djkazic/boltz-backend/evm"
	"github.com/djkazic/boltz-backend/swap"
	"github.com/djkazic/boltz-backend/types"
)

type fakeSwapRepo struct {
	swap.SwapRepository
	row *swap.Submarine
}

func (f *fakeSwapRepo) Get(context.Context, string) (*swap.Submarine, error) {
	return f.row, nil
}

type fakeChainSwapRepo struct {
	swap.ChainSwapRepository
	row *swap.ChainSwap
}

func (f *fakeChainSwapRepo) Get(context.Context, string) (*swap.ChainSwap, error) {
	return f.row, nil
}

type fakeLabels struct{}

func (fakeLabels) LockupLabel(types.SwapKind, string) string { return "lockup" }
func (fakeLabels) ClaimLabel(types.SwapKind, string) string  { return "claim" }
func (fakeLabels) RefundLabel(types.SwapKind, string) string { return "refund" }

func testNursery(t *testing.T, swaps *fakeSwapRepo, chainSwaps *fakeChainSwapRepo) *Nursery {
	t.Helper()
	return New(Config{
		Currencies: currency.NewRegistry(nil),
		EVM:        evm.NewRegistry(nil, nil, nil),
		Swaps:      swaps,
		ChainSwaps: chainSwaps,
		Labels:     fakeLabels{},
	})
}

func TestBuildAndBroadcastClaim_SubmarineWithNoLockupErrors(t *testing.T) {
	n := testNursery(t, &fakeSwapRepo{row: &swap.Submarine{ID: "s1", Pair: "BTC"}}, &fakeChainSwapRepo{})

	err := n.buildAndBroadcastClaim(context.Background(), types.Submarine, types.Hash{}, []byte("preimage"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "no recorded lockup")
}

func TestBuildAndBroadcastClaim_SubmarineUnconfiguredCurrencyFallsBackToEVM(t *testing.T) {
	txID := types.Hash{1}
	vout := uint32(0)
	n := testNursery(t, &fakeSwapRepo{row: &swap.Submarine{
		ID: "s2", Pair: "ETH",
		LockupTransactionID:   &txID,
		LockupTransactionVout: &vout,
	}}, &fakeChainSwapRepo{})

	err := n.buildAndBroadcastClaim(context.Background(), types.Submarine, types.Hash{}, []byte("preimage"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "no contract handler configured")
}

func TestBuildAndBroadcastClaim_ChainSwapWithNoSendingLockupErrors(t *testing.T) {
	n := testNursery(t, &fakeSwapRepo{}, &fakeChainSwapRepo{row: &swap.ChainSwap{
		ID:          "cs1",
		SendingData: swap.ChainSwapData{Symbol: "BTC"},
	}})

	err := n.buildAndBroadcastClaim(context.Background(), types.Chain, types.Hash{}, []byte("preimage"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "no recorded sending-leg lockup")
}

func TestBuildAndBroadcastClaim_ReverseSubmarineIsNeverClaimedByServer(t *testing.T) {
	n := testNursery(t, &fakeSwapRepo{}, &fakeChainSwapRepo{})

	err := n.buildAndBroadcastClaim(context.Background(), types.ReverseSubmarine, types.Hash{}, []byte("preimage"))
	require.Error(t, err, "a reverse swap's on-chain lockup is claimed by the user, not the server, and must error here")
}

func TestBuildAndBroadcastClaim_SubmarineTaprootWithoutRedeemScriptErrors(t *testing.T) {
	txID := types.Hash{2}
	vout := uint32(1)
	n := testNursery(t, &fakeSwapRepo{row: &swap.Submarine{
		ID: "s3", Pair: "BTC",
		LockupTransactionID:   &txID,
		LockupTransactionVout: &vout,
		// RedeemScript intentionally left empty: a taproot swap.
	}}, &fakeChainSwapRepo{})
	// Configure BTC so the taproot-gap branch, not the EVM fallback, fires.
	n.cfg.Currencies = currency.NewRegistry([]*currency.Currency{{Symbol: "BTC", Type: types.BitcoinLike}})

	err := n.buildAndBroadcastClaim(context.Background(), types.Submarine, types.Hash{}, []byte("preimage"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "taproot cooperative claim not wired")
	require.NotErrorIs(t, err, context.Canceled)
}
