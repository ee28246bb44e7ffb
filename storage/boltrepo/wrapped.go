package boltrepo

import (
	"context"
	"fmt"

	"github.com/djkazic/boltz-backend/swap"
	"github.com/djkazic/boltz-backend/types"
)

// WrappedRepository dispatches to the concrete per-kind repository by
// SwapKind, implementing swap.WrappedSwapRepository for the nursery's
// kind-agnostic shared handlers (status logging, expiry, refund).
type WrappedRepository struct {
	Swaps        *SwapRepository
	ReverseSwaps *ReverseSwapRepository
	ChainSwaps   *ChainSwapRepository
}

var _ swap.WrappedSwapRepository = (*WrappedRepository)(nil)

// NewWrappedRepository constructs a WrappedRepository over the three
// concrete per-kind repositories.
func NewWrappedRepository(swaps *SwapRepository, reverse *ReverseSwapRepository, chain *ChainSwapRepository) *WrappedRepository {
	return &WrappedRepository{Swaps: swaps, ReverseSwaps: reverse, ChainSwaps: chain}
}

func (w *WrappedRepository) SetStatus(ctx context.Context, kind types.SwapKind, id string, status types.Status) error {
	switch kind {
	case types.Submarine:
		return w.Swaps.SetStatus(ctx, id, status)
	case types.ReverseSubmarine:
		return w.ReverseSwaps.mutate(ctx, id, func(s *swap.ReverseSwap) { s.Status = status })
	case types.Chain:
		return w.ChainSwaps.mutate(ctx, id, func(s *swap.ChainSwap) { s.Status = status })
	default:
		return fmt.Errorf("boltrepo: unknown swap kind %v", kind)
	}
}

func (w *WrappedRepository) SetServerLockupTransaction(
	ctx context.Context, kind types.SwapKind, id string, txID types.Hash, amount uint64, fee uint64, vout uint32,
) error {
	switch kind {
	case types.ReverseSubmarine:
		return w.ReverseSwaps.mutate(ctx, id, func(s *swap.ReverseSwap) {
			s.TransactionID = &txID
			v := vout
			s.TransactionVout = &v
			a := amount
			s.MinerfeeOnchainAmount = &a
		})
	case types.Chain:
		return w.ChainSwaps.mutate(ctx, id, func(s *swap.ChainSwap) {
			s.ReceivingData.TransactionID = &txID
			v := vout
			s.ReceivingData.TransactionVout = &v
			f := fee
			s.ReceivingData.MinerFee = &f
		})
	default:
		return fmt.Errorf("boltrepo: kind %v has no server-side lockup", kind)
	}
}

func (w *WrappedRepository) SetTransactionRefunded(ctx context.Context, kind types.SwapKind, id string, refundTxID types.Hash, fee uint64) error {
	switch kind {
	case types.ReverseSubmarine:
		return w.ReverseSwaps.mutate(ctx, id, func(s *swap.ReverseSwap) { s.Status = types.StatusTransactionRefunded })
	case types.Chain:
		return w.ChainSwaps.mutate(ctx, id, func(s *swap.ChainSwap) { s.Status = types.StatusTransactionRefunded })
	default:
		return fmt.Errorf("boltrepo: kind %v has no refund path", kind)
	}
}
