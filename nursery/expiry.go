package nursery

import (
	"context"

	"github.com/djkazic/boltz-backend/evm"
	"github.com/djkazic/boltz-backend/events"
	"github.com/djkazic/boltz-backend/types"
)

// handleExpired reacts to swap.expired / reverseSwap.expired /
// chainSwap.expired: marks the swap expired, then, if a server-side
// lockup was already broadcast, drives a refund instead of leaving the
// funds stranded (spec.md §4.1 "Expiration").
func (n *Nursery) handleExpired(ctx context.Context, ev events.Event) error {
	if err := n.cfg.Wrapped.SetStatus(ctx, ev.Kind, ev.SwapID.Hex(), types.StatusSwapExpired); err != nil {
		return err
	}

	switch ev.Kind {
	case types.ReverseSubmarine:
		return n.refundReverseIfLockedUp(ctx, ev.SwapID)
	case types.Chain:
		return n.refundChainIfLockedUp(ctx, ev.SwapID)
	default:
		// Submarine swaps never broadcast a server-side lockup; the user's
		// own lockup (if any) is refundable only by the user themselves.
		return nil
	}
}

// handleInvoiceExpired reacts to a reverse swap's hold invoice expiring
// before being accepted: mark it InvoiceExpired. No refund is needed since
// the server never locked up funds.
func (n *Nursery) handleInvoiceExpired(ctx context.Context, ev events.Event) error {
	return n.cfg.Wrapped.SetStatus(ctx, types.ReverseSubmarine, ev.SwapID.Hex(), types.StatusInvoiceExpired)
}

// handleEVMBlockTick re-evaluates every tracked EVM reverse/chain swap's
// timestamp-based timeout against the tick's block timestamp, driving the
// same expiry path handleExpired uses for height-based UTXO timeouts
// (spec.md §4.3, EVM timelocks being timestamps rather than heights).
func (n *Nursery) handleEVMBlockTick(ctx context.Context, tick evm.BlockTick) {
	expired, err := n.expiredEVMSwaps(ctx, tick.Timestamp)
	if err != nil {
		log.Errorf("evaluating EVM timeouts at block %d failed: %s", tick.Height, err)
		return
	}

	for _, exp := range expired {
		n.dispatch(ctx, events.Event{Name: expiredEventName(exp.Kind), SwapID: exp.SwapID, Kind: exp.Kind})
	}
}

// evmExpiredSwap is one swap whose EVM timelock has passed tick's
// timestamp.
type evmExpiredSwap struct {
	SwapID types.Hash
	Kind   types.SwapKind
}

// expiredEVMSwaps scans every non-terminal reverse/chain swap row for an
// EVM timelock (carried as a unix timestamp, unlike UTXO's block-height
// timeout) that is at or before now.
func (n *Nursery) expiredEVMSwaps(ctx context.Context, now uint64) ([]evmExpiredSwap, error) {
	var expired []evmExpiredSwap

	reverse, err := n.cfg.ReverseSwaps.GetSwaps(ctx)
	if err != nil {
		return nil, err
	}
	for _, rs := range reverse {
		if types.IsTerminal(types.ReverseSubmarine, rs.Status) {
			continue
		}
		if _, ok := n.cfg.Currencies.Get(rs.ChainCurrency); ok {
			continue // UTXO timeouts are driven by utxo.ChainWatcher's block handler instead.
		}
		if uint64(rs.TimeoutBlockHeight) <= now {
			expired = append(expired, evmExpiredSwap{SwapID: types.Hash(mustHash(rs.ID)), Kind: types.ReverseSubmarine})
		}
	}

	chains, err := n.cfg.ChainSwaps.GetSwaps(ctx)
	if err != nil {
		return nil, err
	}
	for _, cs := range chains {
		if types.IsTerminal(types.Chain, cs.Status) {
			continue
		}
		if _, ok := n.cfg.Currencies.Get(cs.ReceivingData.Symbol); ok {
			continue
		}
		if uint64(cs.ReceivingData.TimeoutBlockHeight) <= now {
			expired = append(expired, evmExpiredSwap{SwapID: types.Hash(mustHash(cs.ID)), Kind: types.Chain})
		}
	}

	return expired, nil
}

func mustHash(id string) types.Hash {
	h, err := types.HexToHash(id)
	if err != nil {
		return types.EmptyHash
	}
	return h
}

func expiredEventName(kind types.SwapKind) events.Name {
	switch kind {
	case types.ReverseSubmarine:
		return events.ReverseSwapExpired
	case types.Chain:
		return events.ChainSwapExpired
	default:
		return events.SwapExpired
	}
}
