package nursery

import (
	"context"
	"crypto/sha256"
	"fmt"

	"github.com/djkazic/boltz-backend/deferredclaim"
	"github.com/djkazic/boltz-backend/events"
	"github.com/djkazic/boltz-backend/lightning"
	"github.com/djkazic/boltz-backend/types"
	"github.com/djkazic/boltz-backend/utxo"
)

// attemptSettle implements spec.md §4.1's attempt_settle: for Submarine,
// pays the invoice to obtain the preimage; for Chain, the caller already
// has it. The claim is offered to the DeferredClaimer first; only if it
// declines does the nursery build its own claim transaction.
func (n *Nursery) attemptSettle(ctx context.Context, kind types.SwapKind, swapID types.Hash, preimage []byte) error {
	preimageHash, err := n.lookupPreimageHash(ctx, kind, swapID)
	if err != nil {
		return err
	}

	if preimage == nil {
		if kind != types.Submarine {
			return fmt.Errorf("nursery: attempt_settle called without a preimage for kind %s", kind)
		}
		preimage, err = n.paySubmarineInvoice(ctx, swapID)
		if err != nil {
			return err
		}
		if preimage == nil {
			// still in flight; retry timer will re-drive (spec.md §4.1).
			return nil
		}
	}

	deferred, err := n.cfg.DeferredClaimer.Offer(ctx, deferredclaim.ClaimRequest{
		SwapID:       swapID,
		Kind:         kind,
		Preimage:     preimage,
		PreimageHash: preimageHash,
	})
	if err != nil {
		return err
	}
	if deferred {
		n.emitClaimPending(ctx, kind, swapID)
		return nil
	}

	return n.buildAndBroadcastClaim(ctx, kind, swapID, preimage)
}

func (n *Nursery) lookupPreimageHash(ctx context.Context, kind types.SwapKind, swapID types.Hash) (types.Hash, error) {
	switch kind {
	case types.Submarine:
		s, err := n.cfg.Swaps.Get(ctx, swapID.Hex())
		if err != nil {
			return types.Hash{}, err
		}
		return s.PreimageHash, nil
	case types.Chain:
		s, err := n.cfg.ChainSwaps.Get(ctx, swapID.Hex())
		if err != nil {
			return types.Hash{}, err
		}
		return s.PreimageHash, nil
	default:
		s, err := n.cfg.ReverseSwaps.Get(ctx, swapID.Hex())
		if err != nil {
			return types.Hash{}, err
		}
		return s.PreimageHash, nil
	}
}

func (n *Nursery) paySubmarineInvoice(ctx context.Context, swapID types.Hash) ([]byte, error) {
	s, err := n.cfg.Swaps.Get(ctx, swapID.Hex())
	if err != nil {
		return nil, err
	}
	if s.Invoice == nil {
		return nil, fmt.Errorf("nursery: swap %s has no invoice to pay yet", swapID)
	}

	cur, ok := n.cfg.Currencies.Get(s.Pair)
	if !ok {
		return nil, fmt.Errorf("nursery: no currency configured for pair %s", s.Pair)
	}

	var channelCreation *lightning.ChannelCreationRequest
	if cc, err := n.cfg.Channels.GetChannelCreation(ctx, s.ID); err == nil && cc != nil {
		channelCreation = &lightning.ChannelCreationRequest{
			SwapID:               s.PreimageHash,
			PrivateChannel:       cc.Private,
			InboundLiquidityMsat: uint64(cc.InboundLiquidity) * 1000,
		}
	}

	preimage, err := n.cfg.PaymentHandler.PayInvoice(ctx, cur.LightningClients, &lightning.PayInvoiceRequest{
		SwapID:          s.PreimageHash,
		Invoice:         *s.Invoice,
		PreimageHash:    s.PreimageHash,
		ChannelCreation: channelCreation,
	})
	if err != nil {
		return nil, err
	}
	if preimage == nil {
		if err := n.cfg.Swaps.SetStatus(ctx, s.ID, types.StatusInvoicePending); err != nil {
			return nil, err
		}
		return nil, nil
	}

	sum := sha256.Sum256(preimage)
	if types.Hash(sum) != s.PreimageHash {
		return nil, fmt.Errorf("nursery: swap %s: payment returned a preimage not matching preimage_hash", swapID)
	}

	if err := n.cfg.Swaps.SetStatus(ctx, s.ID, types.StatusInvoicePaid); err != nil {
		return nil, err
	}
	return preimage, nil
}

func (n *Nursery) emitClaimPending(ctx context.Context, kind types.SwapKind, swapID types.Hash) {
	if err := n.cfg.Wrapped.SetStatus(ctx, kind, swapID.Hex(), types.StatusTransactionClaimPending); err != nil {
		log.Warnf("swap %s: failed to persist claimPending status: %s", swapID, err)
	}
}

// settleReverseInvoice implements spec.md §4.1's settle_reverse_invoice:
// settles the hold invoice, unless a submarine swap exists for the same
// invoice/preimage hash (the cyclic self-payment case, S5), in which case
// it cancels instead to avoid a routing deadlock.
func (n *Nursery) settleReverseInvoice(ctx context.Context, swapID types.Hash, preimage []byte) error {
	rs, err := n.cfg.ReverseSwaps.Get(ctx, swapID.Hex())
	if err != nil {
		return err
	}

	if cur, ok := n.cfg.Currencies.Get(rs.LightningCurrency); ok && len(cur.LightningClients) > 0 {
		client := cur.LightningClients[0]

		if cyclic, _ := n.isCyclicSelfPayment(ctx, rs.PreimageHash); cyclic {
			log.Warnf("swap %s: cyclic self-payment detected, cancelling hold invoice instead of settling", swapID)
			_, err := lightning.RaceCall(ctx, n.cfg.LightningCallTimeout, func(c context.Context) (struct{}, error) {
				return struct{}{}, client.CancelHoldInvoice(c, rs.PreimageHash)
			})
			return err
		}

		if _, err := lightning.RaceCall(ctx, n.cfg.LightningCallTimeout, func(c context.Context) (struct{}, error) {
			return struct{}{}, client.SettleHoldInvoice(c, preimage)
		}); err != nil {
			return err
		}
	}

	if err := n.cfg.ReverseSwaps.SetInvoiceSettled(ctx, swapID.Hex()); err != nil {
		return err
	}

	return nil
}

// isCyclicSelfPayment reports whether a submarine swap with the same
// invoice/preimage hash exists, which would deadlock Lightning routing if
// the reverse swap's hold invoice were settled rather than cancelled (S5).
func (n *Nursery) isCyclicSelfPayment(ctx context.Context, preimageHash types.Hash) (bool, error) {
	candidates, err := n.cfg.Swaps.GetSwaps(ctx)
	if err != nil {
		return false, err
	}
	for _, s := range candidates {
		if s.PreimageHash == preimageHash {
			return true, nil
		}
	}
	return false, nil
}

// handleCounterpartyClaimed reacts to reverseSwap.claimed / chainSwap.claimed
// / claim (EVM): the counterparty spent our server-side lockup, revealing
// the preimage, which for ReverseSubmarine settles the hold invoice
// (invariant I5) and for Chain drives the sending-leg claim via
// attemptSettle.
func (n *Nursery) handleCounterpartyClaimed(ctx context.Context, ev events.Event) error {
	preimage, _ := ev.Data.([]byte)
	if preimage == nil {
		return fmt.Errorf("nursery: claim event for swap %s carried no preimage", ev.SwapID)
	}

	preimageHash, err := n.lookupPreimageHash(ctx, ev.Kind, ev.SwapID)
	if err != nil {
		return err
	}
	if !utxo.VerifyPreimage(preimage, preimageHash) {
		return fmt.Errorf("nursery: swap %s: claim revealed a preimage not matching preimage_hash", ev.SwapID)
	}

	switch ev.Kind {
	case types.ReverseSubmarine:
		return n.settleReverseInvoice(ctx, ev.SwapID, preimage)
	case types.Chain:
		return n.attemptSettle(ctx, types.Chain, ev.SwapID, preimage)
	default:
		return fmt.Errorf("nursery: unexpected claim event for kind %s", ev.Kind)
	}
}

// handleLockupFailed marks a rejected user lockup TransactionLockupFailed
// and logs the reason (spec.md §4.2/§7). It publishes no outgoing event.
func (n *Nursery) handleLockupFailed(ctx context.Context, ev events.Event) error {
	reason, _ := ev.Data.(string)
	log.Warnf("swap %s: lockup rejected: %s", ev.SwapID, reason)
	return n.cfg.Wrapped.SetStatus(ctx, ev.Kind, ev.SwapID.Hex(), types.StatusTransactionLockupFailed)
}

// handleLockupFailedToSend reacts to a server-side lockup failing at
// submission (wallet send failure or EVM lockup.failedToSend), per
// spec.md §4.1/§4.3: cancel any associated hold invoices and mark
// TransactionFailed.
func (n *Nursery) handleLockupFailedToSend(ctx context.Context, ev events.Event) error {
	if ev.Kind == types.ReverseSubmarine {
		rs, err := n.cfg.ReverseSwaps.Get(ctx, ev.SwapID.Hex())
		if err == nil {
			if cur, ok := n.cfg.Currencies.Get(rs.LightningCurrency); ok && len(cur.LightningClients) > 0 {
				var minerFeeHash *types.Hash
				if rs.MinerFeeInvoice != nil {
					decoded, err := cur.LightningClients[0].DecodeInvoice(*rs.MinerFeeInvoice)
					if err != nil {
						log.Warnf("swap %s: failed to decode prepay minerfee invoice: %s", ev.SwapID, err)
					} else {
						minerFeeHash = &decoded.PaymentHash
					}
				}
				if err := lightning.CancelReverseInvoices(
					ctx, n.cfg.LightningCallTimeout, cur.LightningClients[0],
					rs.PreimageHash, minerFeeHash, true,
				); err != nil {
					log.Warnf("swap %s: failed to cancel hold invoices after send failure: %s", ev.SwapID, err)
				}
			}
		}
	}

	return n.cfg.Wrapped.SetStatus(ctx, ev.Kind, ev.SwapID.Hex(), types.StatusTransactionFailed)
}

// handleCounterpartyRefundObserved reacts to an on-chain/EVM Refund event
// observed for a swap the nursery did not itself broadcast (e.g. the
// counterparty refunded their own side of a chain swap).
func (n *Nursery) handleCounterpartyRefundObserved(ctx context.Context, ev events.Event) error {
	return n.cfg.Wrapped.SetStatus(ctx, ev.Kind, ev.SwapID.Hex(), types.StatusTransactionRefunded)
}
