package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanTransition_SameStatusIsIdempotent(t *testing.T) {
	require.True(t, CanTransition(Submarine, StatusInvoicePending, StatusInvoicePending),
		"re-firing the same status must always be permitted")
}

func TestCanTransition_TerminalStatusRejectsFurtherMoves(t *testing.T) {
	require.False(t, CanTransition(Submarine, StatusTransactionClaimed, StatusSwapExpired),
		"a terminal status must reject any further transition")
}

func TestCanTransition_LegalEdgeAccepted(t *testing.T) {
	require.True(t, CanTransition(Submarine, StatusCreated, StatusTransactionMempool))
}

func TestCanTransition_IllegalEdgeRejected(t *testing.T) {
	require.False(t, CanTransition(Submarine, StatusCreated, StatusTransactionClaimed),
		"swap.created -> transaction.claimed skips the entire progression")
}

func TestCanTransition_ZeroConfRejectedIsRecoverable(t *testing.T) {
	require.True(t, CanTransition(Submarine, StatusTransactionZeroConfRejected, StatusTransactionConfirmed))
	require.False(t, IsTerminal(Submarine, StatusTransactionZeroConfRejected),
		"zero-conf-rejected is a recoverable state, not terminal")
}

func TestIsTerminal_PerKindDiffersForSameStatus(t *testing.T) {
	require.True(t, IsTerminal(ReverseSubmarine, StatusTransactionRefunded))
	require.True(t, IsTerminal(Chain, StatusTransactionRefunded))
	require.False(t, IsTerminal(Submarine, StatusTransactionRefunded),
		"submarine swaps have no refund leg of their own")
}

func TestCanTransition_ExpiredReverseSwapCanStillRefund(t *testing.T) {
	require.True(t, CanTransition(ReverseSubmarine, StatusSwapExpired, StatusTransactionRefunded))
}

func TestCanTransition_ChainSwapFullHappyPath(t *testing.T) {
	path := []Status{
		StatusCreated,
		StatusTransactionMempool,
		StatusTransactionConfirmed,
		StatusTransactionServerMempool,
		StatusTransactionServerConfirmed,
		StatusTransactionClaimPending,
		StatusTransactionClaimed,
	}
	for i := 1; i < len(path); i++ {
		require.Truef(t, CanTransition(Chain, path[i-1], path[i]),
			"chain swap step %d: %s -> %s must be legal", i, path[i-1], path[i])
	}
	require.True(t, IsTerminal(Chain, path[len(path)-1]))
}
