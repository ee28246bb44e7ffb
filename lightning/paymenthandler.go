package lightning

import (
	"context"
	"errors"
	"time"

	logging "github.com/ipfs/go-log"

	"github.com/djkazic/boltz-backend/types"
)

var log = logging.Logger("lightning")

// ErrPaymentTimeout names a payment that ran past its payment timeout
// without a definitive success or permanent failure. PayInvoice does not
// return it: when a timeout expires first, PayInvoice reports the payment
// as still in flight (nil preimage, nil error).
var ErrPaymentTimeout = errors.New("lightning: payment timed out")

// ChannelCreationRequest is attached to a submarine swap that additionally
// asked the coordinator to open a channel before paying; it is opaque to
// PaymentHandler beyond being handed to the ChannelNursery collaborator.
type ChannelCreationRequest struct {
	SwapID             types.Hash
	PrivateChannel     bool
	InboundLiquidityMsat uint64
}

// ChannelNursery is the external collaborator that opens channels required
// by a ChannelCreationRequest before PaymentHandler's invoice payment can
// succeed. Its internals (peer connection, funding flow) are out of scope
// here, per spec.md §1.
type ChannelNursery interface {
	// EnsureChannel blocks until a channel satisfying req exists (or
	// fails permanently). Retries/backoff are internal to the collaborator.
	EnsureChannel(ctx context.Context, req *ChannelCreationRequest) error
}

// PayInvoiceRequest is the information PaymentHandler needs to pay a
// submarine swap's invoice.
type PayInvoiceRequest struct {
	SwapID            types.Hash
	Invoice           string
	PreimageHash      types.Hash
	OutgoingChannelID uint64
	PreferredNode     string
	ChannelCreation   *ChannelCreationRequest // nil unless the swap requested one
}

// PaymentHandler drives the submarine payment path (spec.md §4.6): choose
// a node via NodeSwitch, optionally open a channel via ChannelNursery,
// then pay bounded by PaymentTimeout.
type PaymentHandler struct {
	nodeSwitch     NodeSwitch
	channelNursery ChannelNursery
	callTimeout    time.Duration
	paymentTimeout time.Duration
}

// NewPaymentHandler constructs a PaymentHandler. callTimeout bounds each
// individual Lightning RPC (spec.md §5); paymentTimeout bounds the whole
// pay_invoice attempt (spec.md §4.6).
func NewPaymentHandler(ns NodeSwitch, cn ChannelNursery, callTimeout, paymentTimeout time.Duration) *PaymentHandler {
	return &PaymentHandler{
		nodeSwitch:     ns,
		channelNursery: cn,
		callTimeout:    callTimeout,
		paymentTimeout: paymentTimeout,
	}
}

// PayInvoice pays req.Invoice, returning the obtained preimage on success.
// A nil preimage and nil error means the payment is still in flight — the
// retry timer should re-invoke PayInvoice later (spec.md §4.1 retry timer
// rationale). Any non-nil error is permanent; a timeout never surfaces as
// an error.
func (h *PaymentHandler) PayInvoice(
	ctx context.Context,
	candidates []Client,
	req *PayInvoiceRequest,
) ([]byte, error) {
	client, err := h.nodeSwitch.GetNode(candidates, req.PreferredNode)
	if err != nil {
		return nil, err
	}

	if req.ChannelCreation != nil && h.channelNursery != nil {
		if err := h.channelNursery.EnsureChannel(ctx, req.ChannelCreation); err != nil {
			return nil, err
		}
	}

	payCtx, cancel := context.WithTimeout(ctx, h.paymentTimeout)
	defer cancel()

	preimage, err := RaceCall(payCtx, h.callTimeout, func(c context.Context) ([]byte, error) {
		return client.Pay(c, req.Invoice, PayOptions{
			OutgoingChannelID: req.OutgoingChannelID,
			TimeoutSeconds:    uint32(h.paymentTimeout / time.Second),
		})
	})
	if err != nil {
		if errors.Is(err, ErrTimeout) {
			log.Warnf("swap %s: payment call timed out, will retry", req.SwapID)
			return nil, nil // in flight, retry timer will re-drive
		}
		return nil, err
	}

	return preimage, nil
}
