package boltrepo

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/ChainSafe/chaindb"

	"github.com/djkazic/boltz-backend/swap"
	"github.com/djkazic/boltz-backend/types"
)

// ChainSwapRepository is the chaindb-backed swap.ChainSwapRepository.
type ChainSwapRepository struct {
	db *DB

	mu    sync.RWMutex
	cache map[string]*swap.ChainSwap
}

var _ swap.ChainSwapRepository = (*ChainSwapRepository)(nil)

// NewChainSwapRepository constructs a ChainSwapRepository over db.
func NewChainSwapRepository(db *DB) *ChainSwapRepository {
	return &ChainSwapRepository{db: db, cache: make(map[string]*swap.ChainSwap)}
}

func (r *ChainSwapRepository) Get(_ context.Context, id string) (*swap.ChainSwap, error) {
	r.mu.RLock()
	if s, ok := r.cache[id]; ok {
		r.mu.RUnlock()
		return s, nil
	}
	r.mu.RUnlock()

	var s swap.ChainSwap
	if err := r.db.getJSON(prefixChainSwap+id, &s); err != nil {
		if errors.Is(err, chaindb.ErrKeyNotFound) {
			return nil, swap.ErrNotFound
		}
		return nil, err
	}

	r.mu.Lock()
	r.cache[id] = &s
	r.mu.Unlock()
	return &s, nil
}

func (r *ChainSwapRepository) SetClaimMinerFee(ctx context.Context, id string, fee uint64) error {
	return r.mutate(ctx, id, func(s *swap.ChainSwap) { s.ReceivingData.MinerFee = &fee })
}

func (r *ChainSwapRepository) SetSendingLockupTransaction(ctx context.Context, id string, txID types.Hash, vout uint32, amount uint64) error {
	return r.mutate(ctx, id, func(s *swap.ChainSwap) {
		s.SendingData.TransactionID = &txID
		v := vout
		s.SendingData.TransactionVout = &v
		s.SendingData.ExpectedAmount = amount
	})
}

func (r *ChainSwapRepository) GetSwaps(_ context.Context, statuses ...types.Status) ([]*swap.ChainSwap, error) {
	want := make(map[types.Status]struct{}, len(statuses))
	for _, s := range statuses {
		want[s] = struct{}{}
	}

	var out []*swap.ChainSwap
	err := r.db.scanPrefix(prefixChainSwap, func(value []byte) error {
		var s swap.ChainSwap
		if err := json.Unmarshal(value, &s); err != nil {
			return err
		}
		if len(want) == 0 {
			out = append(out, &s)
			return nil
		}
		if _, ok := want[s.Status]; ok {
			out = append(out, &s)
		}
		return nil
	})
	return out, err
}

func (r *ChainSwapRepository) mutate(ctx context.Context, id string, fn func(*swap.ChainSwap)) error {
	s, err := r.Get(ctx, id)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *s
	fn(&cp)
	if err := r.db.putJSON(prefixChainSwap+id, &cp); err != nil {
		return err
	}
	r.cache[id] = &cp
	return nil
}
