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

// ReverseSwapRepository is the chaindb-backed swap.ReverseSwapRepository.
type ReverseSwapRepository struct {
	db *DB

	mu    sync.RWMutex
	cache map[string]*swap.ReverseSwap
}

var _ swap.ReverseSwapRepository = (*ReverseSwapRepository)(nil)

// NewReverseSwapRepository constructs a ReverseSwapRepository over db.
func NewReverseSwapRepository(db *DB) *ReverseSwapRepository {
	return &ReverseSwapRepository{db: db, cache: make(map[string]*swap.ReverseSwap)}
}

func (r *ReverseSwapRepository) Get(_ context.Context, id string) (*swap.ReverseSwap, error) {
	r.mu.RLock()
	if s, ok := r.cache[id]; ok {
		r.mu.RUnlock()
		return s, nil
	}
	r.mu.RUnlock()

	var s swap.ReverseSwap
	if err := r.db.getJSON(prefixReverseSwap+id, &s); err != nil {
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

func (r *ReverseSwapRepository) SetInvoiceSettled(ctx context.Context, id string) error {
	return r.mutate(ctx, id, func(s *swap.ReverseSwap) { s.Status = types.StatusInvoiceSettled })
}

func (r *ReverseSwapRepository) SetMinerFeeInvoicePreimage(ctx context.Context, id string, preimage []byte) error {
	return r.mutate(ctx, id, func(s *swap.ReverseSwap) { s.MinerFeeInvoicePreimage = &preimage })
}

func (r *ReverseSwapRepository) GetSwaps(_ context.Context, statuses ...types.Status) ([]*swap.ReverseSwap, error) {
	want := make(map[types.Status]struct{}, len(statuses))
	for _, s := range statuses {
		want[s] = struct{}{}
	}

	var out []*swap.ReverseSwap
	err := r.db.scanPrefix(prefixReverseSwap, func(value []byte) error {
		var s swap.ReverseSwap
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

func (r *ReverseSwapRepository) mutate(ctx context.Context, id string, fn func(*swap.ReverseSwap)) error {
	s, err := r.Get(ctx, id)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *s
	fn(&cp)
	if err := r.db.putJSON(prefixReverseSwap+id, &cp); err != nil {
		return err
	}
	r.cache[id] = &cp
	return nil
}
