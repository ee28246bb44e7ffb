package boltrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/ChainSafe/chaindb"

	"github.com/djkazic/boltz-backend/swap"
	"github.com/djkazic/boltz-backend/types"
)

// ChannelCreationRepository is the chaindb-backed
// swap.ChannelCreationRepository.
type ChannelCreationRepository struct {
	db *DB
}

var _ swap.ChannelCreationRepository = (*ChannelCreationRepository)(nil)

// NewChannelCreationRepository constructs a ChannelCreationRepository over
// db.
func NewChannelCreationRepository(db *DB) *ChannelCreationRepository {
	return &ChannelCreationRepository{db: db}
}

// PutChannelCreation persists a request for a submarine swap. The
// ChannelCreationRepository interface only offers lookup, and nothing in
// this module calls this method.
func (r *ChannelCreationRepository) PutChannelCreation(_ context.Context, cc swap.ChannelCreation) error {
	return r.db.putJSON(prefixChannelCreation+cc.SwapID, &cc)
}

func (r *ChannelCreationRepository) GetChannelCreation(_ context.Context, swapID string) (*swap.ChannelCreation, error) {
	var cc swap.ChannelCreation
	if err := r.db.getJSON(prefixChannelCreation+swapID, &cc); err != nil {
		if errors.Is(err, chaindb.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cc, nil
}

// TransactionLabelRepository is a fixed-template
// swap.TransactionLabelRepository; no database backing is needed since
// labels are deterministic strings derived from the swap id and kind.
type TransactionLabelRepository struct{}

var _ swap.TransactionLabelRepository = (*TransactionLabelRepository)(nil)

// NewTransactionLabelRepository constructs a TransactionLabelRepository.
func NewTransactionLabelRepository() *TransactionLabelRepository {
	return &TransactionLabelRepository{}
}

func (TransactionLabelRepository) LockupLabel(kind types.SwapKind, swapID string) string {
	return fmt.Sprintf("%s lockup %s", kind, swapID)
}

func (TransactionLabelRepository) ClaimLabel(kind types.SwapKind, swapID string) string {
	return fmt.Sprintf("%s claim %s", kind, swapID)
}

func (TransactionLabelRepository) RefundLabel(kind types.SwapKind, swapID string) string {
	return fmt.Sprintf("%s refund %s", kind, swapID)
}
