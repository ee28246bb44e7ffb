package refundwatcher

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/djkazic/boltz-backend/currency"
	"github.com/djkazic/boltz-backend/events"
	"github.com/djkazic/boltz-backend/swap"
	"github.com/djkazic/boltz-backend/types"
)

type fakeChainClient struct {
	currency.ChainClient
	confirmations map[types.Hash]uint32
}

func (f *fakeChainClient) Confirmations(_ context.Context, txid types.Hash) (uint32, error) {
	return f.confirmations[txid], nil
}

type fakeRefundRepo struct {
	mu      sync.Mutex
	pending []swap.RefundTransaction
	removed []string
}

func (f *fakeRefundRepo) AddTransaction(_ context.Context, tx swap.RefundTransaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = append(f.pending, tx)
	return nil
}

func (f *fakeRefundRepo) GetUnconfirmed(context.Context) ([]swap.RefundTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]swap.RefundTransaction, len(f.pending))
	copy(out, f.pending)
	return out, nil
}

func (f *fakeRefundRepo) RemoveTransaction(_ context.Context, swapID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, swapID)
	kept := f.pending[:0]
	for _, tx := range f.pending {
		if tx.SwapID != swapID {
			kept = append(kept, tx)
		}
	}
	f.pending = kept
	return nil
}

func mkHash(b byte) types.Hash {
	var h types.Hash
	h[0] = b
	return h
}

func TestRefundWatcher_EmitsOnceThresholdReached(t *testing.T) {
	txID := mkHash(1)
	repo := &fakeRefundRepo{pending: []swap.RefundTransaction{
		{SwapID: "swap-1", Kind: types.Submarine, Symbol: "BTC", ID: txID},
	}}
	chain := &fakeChainClient{confirmations: map[types.Hash]uint32{txID: 3}}
	registry := currency.NewRegistry([]*currency.Currency{
		{Symbol: "BTC", Type: types.BitcoinLike, Chain: chain},
	})

	w := New(repo, registry, time.Millisecond, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	select {
	case ev := <-w.Events():
		require.Equal(t, events.RefundConfirmed, ev.Name)
		require.Equal(t, txID, ev.Data.(types.Hash))
	case <-time.After(time.Second):
		t.Fatal("watcher did not emit refund.confirmed in time")
	}
}

func TestRefundWatcher_DoesNotEmitBelowThreshold(t *testing.T) {
	txID := mkHash(2)
	repo := &fakeRefundRepo{pending: []swap.RefundTransaction{
		{SwapID: "swap-2", Kind: types.Submarine, Symbol: "BTC", ID: txID},
	}}
	chain := &fakeChainClient{confirmations: map[types.Hash]uint32{txID: 0}}
	registry := currency.NewRegistry([]*currency.Currency{
		{Symbol: "BTC", Type: types.BitcoinLike, Chain: chain},
	})

	w := New(repo, registry, time.Millisecond, 2)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	select {
	case ev := <-w.Events():
		t.Fatalf("watcher must not emit before the confirmation threshold, got %+v", ev)
	case <-time.After(50 * time.Millisecond):
		// expected: no event
	}
}

func TestRefundWatcher_SkipsEVMRefunds(t *testing.T) {
	repo := &fakeRefundRepo{pending: []swap.RefundTransaction{
		{SwapID: "swap-3", Kind: types.Chain, Symbol: "", ID: mkHash(3)},
	}}
	registry := currency.NewRegistry(nil)

	w := New(repo, registry, time.Millisecond, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	select {
	case ev := <-w.Events():
		t.Fatalf("watcher must not try to confirm an EVM refund (no Symbol), got %+v", ev)
	case <-time.After(50 * time.Millisecond):
		// expected: no event, and no panic from a nil currency lookup
	}
}
