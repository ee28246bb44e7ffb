package boltrepo

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/djkazic/boltz-backend/swap"
)

// RefundTransactionRepository is the chaindb-backed
// swap.RefundTransactionRepository, tracking broadcast refund transactions
// for the RefundWatcher's confirmation poll.
type RefundTransactionRepository struct {
	db *DB

	mu      sync.Mutex
	pending map[string]swap.RefundTransaction // keyed by swap id, cleared once confirmed
}

var _ swap.RefundTransactionRepository = (*RefundTransactionRepository)(nil)

// NewRefundTransactionRepository constructs a RefundTransactionRepository
// over db.
func NewRefundTransactionRepository(db *DB) *RefundTransactionRepository {
	return &RefundTransactionRepository{db: db, pending: make(map[string]swap.RefundTransaction)}
}

func (r *RefundTransactionRepository) AddTransaction(_ context.Context, tx swap.RefundTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.db.putJSON(prefixRefundTransaction+tx.SwapID, &tx); err != nil {
		return err
	}
	r.pending[tx.SwapID] = tx
	return nil
}

// GetUnconfirmed returns every refund transaction not yet confirmed to the
// RefundWatcher's confirmation threshold. Once the watcher confirms one, it
// removes it via RemoveTransaction.
func (r *RefundTransactionRepository) GetUnconfirmed(_ context.Context) ([]swap.RefundTransaction, error) {
	var out []swap.RefundTransaction
	err := r.db.scanPrefix(prefixRefundTransaction, func(value []byte) error {
		var tx swap.RefundTransaction
		if err := json.Unmarshal(value, &tx); err != nil {
			return err
		}
		out = append(out, tx)
		return nil
	})
	return out, err
}

// RemoveTransaction drops a refund transaction once the RefundWatcher has
// confirmed it, so future GetUnconfirmed calls no longer return it.
func (r *RefundTransactionRepository) RemoveTransaction(_ context.Context, swapID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.pending, swapID)
	return r.db.store.Del([]byte(prefixRefundTransaction + swapID))
}
