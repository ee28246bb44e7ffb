package nursery

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/djkazic/boltz-backend/events"
	"github.com/djkazic/boltz-backend/swap"
	"github.com/djkazic/boltz-backend/types"
)

type fakeSwapRepoGS struct {
	swap.SwapRepository
	all []*swap.Submarine
}

func (f *fakeSwapRepoGS) GetSwaps(context.Context, ...types.Status) ([]*swap.Submarine, error) {
	return f.all, nil
}

type fakeWrapped struct {
	swap.WrappedSwapRepository
	statusCalls []types.Status
}

func (f *fakeWrapped) SetStatus(_ context.Context, _ types.SwapKind, _ string, status types.Status) error {
	f.statusCalls = append(f.statusCalls, status)
	return nil
}

func TestIsCyclicSelfPayment_DetectsMatchingPreimageHash(t *testing.T) {
	hash := types.Hash{7}
	n := &Nursery{cfg: Config{Swaps: &fakeSwapRepoGS{all: []*swap.Submarine{
		{ID: "s1", PreimageHash: types.Hash{1}},
		{ID: "s2", PreimageHash: hash},
	}}}}

	cyclic, err := n.isCyclicSelfPayment(context.Background(), hash)
	require.NoError(t, err)
	require.True(t, cyclic, "expected a cyclic self-payment to be detected when a submarine swap shares the preimage hash")
}

func TestIsCyclicSelfPayment_NoMatchIsNotCyclic(t *testing.T) {
	n := &Nursery{cfg: Config{Swaps: &fakeSwapRepoGS{all: []*swap.Submarine{
		{ID: "s1", PreimageHash: types.Hash{1}},
	}}}}

	cyclic, err := n.isCyclicSelfPayment(context.Background(), types.Hash{9})
	require.NoError(t, err)
	require.False(t, cyclic, "no submarine swap shares this preimage hash, must not report cyclic")
}

func TestHandleCounterpartyClaimed_RejectsWrongPreimage(t *testing.T) {
	n := &Nursery{cfg: Config{
		ChainSwaps: &fakeChainSwapRepo{row: &swap.ChainSwap{ID: "cs1", PreimageHash: types.Hash{1}}},
		Wrapped:    &fakeWrapped{},
	}}

	err := n.handleCounterpartyClaimed(context.Background(), events.Event{
		SwapID: types.Hash{}, Kind: types.Chain, Data: []byte("wrong-preimage"),
	})
	require.Error(t, err, "a claim event whose preimage does not hash to the swap's preimage_hash must error")
}

func TestHandleCounterpartyClaimed_MissingPreimageErrors(t *testing.T) {
	n := &Nursery{cfg: Config{}}

	err := n.handleCounterpartyClaimed(context.Background(), events.Event{
		SwapID: types.Hash{}, Kind: types.ReverseSubmarine, Data: nil,
	})
	require.Error(t, err, "a claim event without a preimage must error before attempting any lookup")
}

func TestHandleCounterpartyRefundObserved_MarksRefunded(t *testing.T) {
	wrapped := &fakeWrapped{}
	n := &Nursery{cfg: Config{Wrapped: wrapped}}

	err := n.handleCounterpartyRefundObserved(context.Background(), events.Event{
		SwapID: types.Hash{}, Kind: types.Chain,
	})
	require.NoError(t, err)
	require.Equal(t, []types.Status{types.StatusTransactionRefunded}, wrapped.statusCalls)
}

func TestHandleLockupFailed_MarksLockupFailed(t *testing.T) {
	wrapped := &fakeWrapped{}
	n := &Nursery{cfg: Config{Wrapped: wrapped}}

	err := n.handleLockupFailed(context.Background(), events.Event{
		SwapID: types.Hash{}, Kind: types.Submarine, Data: "zero-conf rejected",
	})
	require.NoError(t, err)
	require.Equal(t, []types.Status{types.StatusTransactionLockupFailed}, wrapped.statusCalls)
}
