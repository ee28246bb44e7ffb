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

// SwapRepository is the chaindb-backed swap.SwapRepository, caching every
// loaded row in memory the way the teacher's manager caches ongoing swaps,
// except here every row (not just ongoing ones) is cached: the nursery's
// working set of swaps is expected to fit comfortably in memory.
type SwapRepository struct {
	db *DB

	mu    sync.RWMutex
	cache map[string]*swap.Submarine
}

var _ swap.SwapRepository = (*SwapRepository)(nil)

// NewSwapRepository constructs a SwapRepository over db.
func NewSwapRepository(db *DB) *SwapRepository {
	return &SwapRepository{db: db, cache: make(map[string]*swap.Submarine)}
}

func (r *SwapRepository) Get(_ context.Context, id string) (*swap.Submarine, error) {
	r.mu.RLock()
	if s, ok := r.cache[id]; ok {
		r.mu.RUnlock()
		return s, nil
	}
	r.mu.RUnlock()

	var s swap.Submarine
	if err := r.db.getJSON(prefixSwap+id, &s); err != nil {
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

func (r *SwapRepository) SetStatus(ctx context.Context, id string, status types.Status) error {
	return r.mutate(ctx, id, func(s *swap.Submarine) { s.Status = status })
}

func (r *SwapRepository) SetRate(ctx context.Context, id string, rate string) error {
	return r.mutate(ctx, id, func(s *swap.Submarine) { s.Rate = &rate })
}

func (r *SwapRepository) SetMinerFee(ctx context.Context, id string, fee uint64) error {
	return r.mutate(ctx, id, func(s *swap.Submarine) { s.MinerFee = &fee })
}

func (r *SwapRepository) SetLockupTransaction(ctx context.Context, id string, txID types.Hash, vout uint32, onchainAmount uint64) error {
	return r.mutate(ctx, id, func(s *swap.Submarine) {
		s.LockupTransactionID = &txID
		s.LockupTransactionVout = &vout
		s.OnchainAmount = onchainAmount
	})
}

func (r *SwapRepository) GetSwaps(_ context.Context, statuses ...types.Status) ([]*swap.Submarine, error) {
	want := make(map[types.Status]struct{}, len(statuses))
	for _, s := range statuses {
		want[s] = struct{}{}
	}

	var out []*swap.Submarine
	err := r.db.scanPrefix(prefixSwap, func(value []byte) error {
		var s swap.Submarine
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

// mutate loads (from cache or the store), applies fn, persists, and
// refreshes the cache entry, matching the teacher's lock-then-write-then-db
// ordering in protocol/swap/manager.go.
func (r *SwapRepository) mutate(ctx context.Context, id string, fn func(*swap.Submarine)) error {
	s, err := r.Get(ctx, id)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *s
	fn(&cp)
	if err := r.db.putJSON(prefixSwap+id, &cp); err != nil {
		return err
	}
	r.cache[id] = &cp
	return nil
}
