package lightning

// MsatToSat truncates a millisatoshi amount down to whole satoshis.
func MsatToSat(amountMsat uint64) uint64 {
	return amountMsat / 1000
}

// FeePerVbyteFromPrepay implements spec.md §4.1's prepay-minerfee fee
// derivation:
//
//	fee_per_vbyte = round(msat_to_sat(amount_msat) / reverseLockupVsize)
//
// ensuring the user has paid for the miner fee of the server's reverse/
// chain lockup transaction before the server commits funds (testable
// property 8).
func FeePerVbyteFromPrepay(amountMsat uint64, reverseLockupVsize uint64) uint64 {
	if reverseLockupVsize == 0 {
		return 0
	}

	sat := MsatToSat(amountMsat)
	// round-half-up integer division.
	return (sat + reverseLockupVsize/2) / reverseLockupVsize
}
