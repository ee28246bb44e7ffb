package types

// SwapKind distinguishes the three swap shapes the nursery drives.
type SwapKind uint8

const (
	// Submarine is an on-chain-to-Lightning swap: the user locks on chain,
	// the coordinator pays a Lightning invoice and claims the lockup.
	Submarine SwapKind = iota
	// ReverseSubmarine is a Lightning-to-on-chain swap: the user pays a
	// hold invoice, the coordinator locks on chain, the user claims.
	ReverseSubmarine
	// Chain is an on-chain-to-on-chain swap using paired HTLCs sharing
	// one preimage hash.
	Chain
)

// String implements fmt.Stringer.
func (k SwapKind) String() string {
	switch k {
	case Submarine:
		return "submarine"
	case ReverseSubmarine:
		return "reverseSubmarine"
	case Chain:
		return "chain"
	default:
		return "unknown"
	}
}

// SwapVersion selects the on-chain script/output construction used for a
// swap's HTLC.
type SwapVersion uint8

const (
	// Legacy swaps use a plain redeem script HTLC.
	Legacy SwapVersion = iota
	// Taproot swaps use a script+key path output enabling MuSig2
	// cooperative claim/refund.
	Taproot
)

func (v SwapVersion) String() string {
	if v == Taproot {
		return "taproot"
	}
	return "legacy"
}

// CurrencyType distinguishes the chain families a Currency can represent.
type CurrencyType uint8

const (
	// BitcoinLike is a plain UTXO chain (Bitcoin and its script-compatible
	// forks).
	BitcoinLike CurrencyType = iota
	// Liquid is a confidential-transaction UTXO chain.
	Liquid
	// Ether is the native coin of an EVM chain.
	Ether
	// ERC20 is a token on an EVM chain.
	ERC20
)

func (t CurrencyType) String() string {
	switch t {
	case BitcoinLike:
		return "BitcoinLike"
	case Liquid:
		return "Liquid"
	case Ether:
		return "Ether"
	case ERC20:
		return "ERC20"
	default:
		return "unknown"
	}
}

// IsUTXO reports whether t is handled by a ChainClient/ChainWatcher rather
// than an EthereumManager/EthereumWatcher.
func (t CurrencyType) IsUTXO() bool {
	return t == BitcoinLike || t == Liquid
}

// IsEVM reports whether t is handled by the Ethereum side of the nursery.
func (t CurrencyType) IsEVM() bool {
	return t == Ether || t == ERC20
}
