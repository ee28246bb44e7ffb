package lightning

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/lightningnetwork/lnd/zpay32"

	"github.com/djkazic/boltz-backend/types"
)

// DecodeBolt11 decodes a BOLT11 invoice string against net, independent of
// any particular Client implementation. Concrete Client adapters that speak
// a node's own RPC (LND, CLN, …) may prefer that node's own decode call
// instead; DecodeBolt11 exists so a client that has no native decode RPC
// (or the nursery's own sanity checks) can decode locally, exactly as the
// prepay-minerfee invoice needs its own amount read out independent of the
// outer invoice (spec.md §4.1).
func DecodeBolt11(invoice string, net *chaincfg.Params) (*DecodedInvoice, error) {
	inv, err := zpay32.Decode(invoice, net)
	if err != nil {
		return nil, fmt.Errorf("lightning: decode bolt11: %w", err)
	}
	if inv.PaymentHash == nil {
		return nil, fmt.Errorf("lightning: decode bolt11: missing payment hash")
	}

	var amountMsat uint64
	if inv.MilliSat != nil {
		amountMsat = uint64(*inv.MilliSat)
	}

	return &DecodedInvoice{
		PaymentHash: types.Hash(*inv.PaymentHash),
		AmountMsat:  amountMsat,
		Expiry:      inv.Expiry(),
		Timestamp:   inv.Timestamp,
	}, nil
}
