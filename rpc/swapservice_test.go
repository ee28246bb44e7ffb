package rpc

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/djkazic/boltz-backend/swap"
	"github.com/djkazic/boltz-backend/types"
)

type fakeSwapRepo struct {
	swap.SwapRepository
	row *swap.Submarine
	err error
}

func (f *fakeSwapRepo) Get(context.Context, string) (*swap.Submarine, error) {
	return f.row, f.err
}

type fakeReverseSwapRepo struct {
	swap.ReverseSwapRepository
	row *swap.ReverseSwap
	err error
}

func (f *fakeReverseSwapRepo) Get(context.Context, string) (*swap.ReverseSwap, error) {
	return f.row, f.err
}

type fakeChainSwapRepo struct {
	swap.ChainSwapRepository
	row *swap.ChainSwap
	err error
}

func (f *fakeChainSwapRepo) Get(context.Context, string) (*swap.ChainSwap, error) {
	return f.row, f.err
}

func TestSwapService_GetStatus_Submarine(t *testing.T) {
	svc := NewSwapService(
		&fakeSwapRepo{row: &swap.Submarine{ID: "abc", Status: types.StatusInvoicePending}},
		&fakeReverseSwapRepo{},
		&fakeChainSwapRepo{},
	)

	var resp SwapStatusResponse
	err := svc.GetStatus(&http.Request{}, &SwapStatusRequest{ID: "abc", Kind: types.Submarine}, &resp)
	require.NoError(t, err)
	require.Equal(t, string(types.StatusInvoicePending), resp.Status)
}

func TestSwapService_GetStatus_ReverseSubmarine(t *testing.T) {
	svc := NewSwapService(
		&fakeSwapRepo{},
		&fakeReverseSwapRepo{row: &swap.ReverseSwap{ID: "xyz", Status: types.StatusInvoiceSettled}},
		&fakeChainSwapRepo{},
	)

	var resp SwapStatusResponse
	err := svc.GetStatus(&http.Request{}, &SwapStatusRequest{ID: "xyz", Kind: types.ReverseSubmarine}, &resp)
	require.NoError(t, err)
	require.Equal(t, string(types.StatusInvoiceSettled), resp.Status)
}

func TestSwapService_GetStatus_Chain(t *testing.T) {
	svc := NewSwapService(
		&fakeSwapRepo{},
		&fakeReverseSwapRepo{},
		&fakeChainSwapRepo{row: &swap.ChainSwap{ID: "cs1", Status: types.StatusTransactionServerConfirmed}},
	)

	var resp SwapStatusResponse
	err := svc.GetStatus(&http.Request{}, &SwapStatusRequest{ID: "cs1", Kind: types.Chain}, &resp)
	require.NoError(t, err)
	require.Equal(t, string(types.StatusTransactionServerConfirmed), resp.Status)
}

func TestSwapService_GetStatus_NotFoundPropagatesError(t *testing.T) {
	svc := NewSwapService(
		&fakeSwapRepo{err: swap.ErrNotFound},
		&fakeReverseSwapRepo{},
		&fakeChainSwapRepo{},
	)

	var resp SwapStatusResponse
	err := svc.GetStatus(&http.Request{}, &SwapStatusRequest{ID: "missing", Kind: types.Submarine}, &resp)
	require.ErrorIs(t, err, swap.ErrNotFound)
}

func TestSwapService_GetStatus_UnknownKindErrors(t *testing.T) {
	svc := NewSwapService(&fakeSwapRepo{}, &fakeReverseSwapRepo{}, &fakeChainSwapRepo{})

	var resp SwapStatusResponse
	err := svc.GetStatus(&http.Request{}, &SwapStatusRequest{ID: "whatever", Kind: types.SwapKind(99)}, &resp)
	require.Error(t, err)
}
