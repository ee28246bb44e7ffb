// Package deferredclaim defines the DeferredClaimer collaborator of
// spec.md §4.1: an external batching optimizer the nursery offers every
// claim to before building one itself. Its internals (batching window,
// fee-sharing math) are out of scope; only the contract and a minimal
// never-defer default implementation live here.
package deferredclaim

import (
	"context"

	"github.com/djkazic/boltz-backend/types"
)

// ClaimRequest is what the nursery offers the DeferredClaimer before
// attempting its own claim transaction.
type ClaimRequest struct {
	SwapID       types.Hash
	Kind         types.SwapKind
	Preimage     []byte
	PreimageHash types.Hash
}

// Claimer is the DeferredClaimer collaborator. Deferred reports whether
// the claim was accepted into a batch (in which case the nursery must not
// build its own claim transaction and instead emits claim.pending).
type Claimer interface {
	Offer(ctx context.Context, req ClaimRequest) (deferred bool, err error)
}

// NeverDefer is a Claimer that never batches, causing the nursery to claim
// every swap immediately. It is the default when no external batching
// optimizer is configured.
type NeverDefer struct{}

// Offer always reports deferred=false.
func (NeverDefer) Offer(context.Context, ClaimRequest) (bool, error) {
	return false, nil
}
