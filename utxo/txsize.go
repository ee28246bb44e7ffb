package utxo

import "github.com/djkazic/boltz-backend/types"

// sizeEntry holds the estimated virtual sizes (vbytes) of the HTLC
// transactions for one (CurrencyType, SwapVersion) combination. These
// drive the prepay-minerfee fee-rate conversion of spec.md §4.1 and the
// refund/claim fee budgeting of §4.1's UTXO algorithms.
type sizeEntry struct {
	ReverseLockup uint64 // server lockup transaction paying the swap's HTLC lockup address
	Claim         uint64
	Refund        uint64
}

// TransactionSize is the nested lookup table
// TransactionSize[currencyType][version] referenced by spec.md §4.1's fee
// formula ("transaction_size[BitcoinLike][Legacy].reverse_lockup").
// Figures are typical single-input/single-output vsize estimates for each
// script variant; a production deployment would source these from the
// wallet's actual fee estimator output, but for the core nursery they are
// fixed constants, matching how the distilled spec treats them.
var TransactionSize = map[types.CurrencyType]map[types.SwapVersion]sizeEntry{
	types.BitcoinLike: {
		types.Legacy:  {ReverseLockup: 153, Claim: 169, Refund: 138},
		types.Taproot: {ReverseLockup: 122, Claim: 111, Refund: 111},
	},
	types.Liquid: {
		types.Legacy:  {ReverseLockup: 185, Claim: 201, Refund: 170},
		types.Taproot: {ReverseLockup: 154, Claim: 143, Refund: 143},
	},
}
