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

type fakeReverseSwapRepo struct {
	swap.ReverseSwapRepository
	row *swap.ReverseSwap
}

func (f *fakeReverseSwapRepo) Get(context.Context, string) (*swap.ReverseSwap, error) {
	return f.row, nil
}

func testRefundNursery(t *testing.T, rs *fakeReverseSwapRepo, cs *fakeChainSwapRepo) *Nursery {
	t.Helper()
	return New(Config{
		Currencies:   currency.NewRegistry(nil),
		EVM:          evm.NewRegistry(nil, nil, nil),
		ReverseSwaps: rs,
		ChainSwaps:   cs,
		Wrapped:      &fakeWrapped{},
		Labels:       fakeLabels{},
	})
}

func TestRefundReverseIfLockedUp_NoLockupIsANoop(t *testing.T) {
	n := testRefundNursery(t, &fakeReverseSwapRepo{row: &swap.ReverseSwap{ID: "rs1"}}, &fakeChainSwapRepo{})

	require.NoError(t, n.refundReverseIfLockedUp(context.Background(), types.Hash{}))
}

func TestRefundReverseIfLockedUp_UnconfiguredCurrencyFallsBackToEVM(t *testing.T) {
	txID := types.Hash{1}
	vout := uint32(0)
	n := testRefundNursery(t, &fakeReverseSwapRepo{row: &swap.ReverseSwap{
		ID: "rs2", ChainCurrency: "ETH",
		TransactionID: &txID, TransactionVout: &vout,
	}}, &fakeChainSwapRepo{})

	err := n.refundReverseIfLockedUp(context.Background(), types.Hash{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "no contract handler configured")
}

func TestRefundReverseIfLockedUp_TaprootWithoutRedeemScriptErrors(t *testing.T) {
	txID := types.Hash{2}
	vout := uint32(0)
	n := testRefundNursery(t, &fakeReverseSwapRepo{row: &swap.ReverseSwap{
		ID: "rs3", ChainCurrency: "BTC",
		TransactionID: &txID, TransactionVout: &vout,
	}}, &fakeChainSwapRepo{})
	n.cfg.Currencies = currency.NewRegistry([]*currency.Currency{{Symbol: "BTC", Type: types.BitcoinLike}})

	err := n.refundReverseIfLockedUp(context.Background(), types.Hash{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "taproot cooperative refund not wired")
}

func TestRefundChainIfLockedUp_NoReceivingLockupIsANoop(t *testing.T) {
	n := testRefundNursery(t, &fakeReverseSwapRepo{}, &fakeChainSwapRepo{row: &swap.ChainSwap{ID: "cs1"}})

	require.NoError(t, n.refundChainIfLockedUp(context.Background(), types.Hash{}))
}
