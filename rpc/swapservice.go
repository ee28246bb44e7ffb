package rpc

import (
	"context"
	"fmt"
	"net/http"

	"github.com/djkazic/boltz-backend/swap"
	"github.com/djkazic/boltz-backend/types"
)

// SwapService is the gorilla/rpc "swap" namespace: read-only queries over
// the repositories the nursery itself mutates. It never writes; every
// state transition is driven by the nursery's own event handlers.
type SwapService struct {
	swaps        swap.SwapRepository
	reverseSwaps swap.ReverseSwapRepository
	chainSwaps   swap.ChainSwapRepository
}

// NewSwapService constructs a SwapService.
func NewSwapService(
	swaps swap.SwapRepository,
	reverseSwaps swap.ReverseSwapRepository,
	chainSwaps swap.ChainSwapRepository,
) *SwapService {
	return &SwapService{swaps: swaps, reverseSwaps: reverseSwaps, chainSwaps: chainSwaps}
}

// SwapStatusRequest identifies a single swap by id.
type SwapStatusRequest struct {
	ID   string         `json:"id"`
	Kind types.SwapKind `json:"kind"`
}

// SwapStatusResponse reports one swap's current status.
type SwapStatusResponse struct {
	Status string `json:"status"`
}

// GetStatus returns the current status of the swap named by req.ID/req.Kind.
func (s *SwapService) GetStatus(_ *http.Request, req *SwapStatusRequest, resp *SwapStatusResponse) error {
	status, err := s.lookupStatus(req.Kind, req.ID)
	if err != nil {
		return err
	}
	resp.Status = string(status)
	return nil
}

func (s *SwapService) lookupStatus(kind types.SwapKind, id string) (types.Status, error) {
	switch kind {
	case types.Submarine:
		row, err := s.swaps.Get(context.Background(), id)
		if err != nil {
			return "", err
		}
		return row.Status, nil
	case types.ReverseSubmarine:
		row, err := s.reverseSwaps.Get(context.Background(), id)
		if err != nil {
			return "", err
		}
		return row.Status, nil
	case types.Chain:
		row, err := s.chainSwaps.Get(context.Background(), id)
		if err != nil {
			return "", err
		}
		return row.Status, nil
	default:
		return "", fmt.Errorf("rpc: unknown swap kind %s", kind)
	}
}
