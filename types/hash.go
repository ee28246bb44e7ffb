// Package types holds the wire- and storage-level enumerations and
// identifiers shared by every swap kind handled by the nursery.
package types

import (
	"encoding/hex"
	"fmt"
	"strings"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

// Hash is a 32-byte identifier: a preimage hash, a swap ID, or a
// transaction ID, all represented the same way across chains.
type Hash = ethcommon.Hash

// EmptyHash is the zero value of Hash.
var EmptyHash = Hash{}

// IsHashZero reports whether h is the zero hash.
func IsHashZero(h Hash) bool {
	return h == EmptyHash
}

// HexToHash decodes a (optionally 0x-prefixed) hex string into a Hash.
func HexToHash(s string) (Hash, error) {
	if s == "" {
		return EmptyHash, nil
	}

	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return Hash{}, err
	}

	if len(b) != len(Hash{}) {
		return Hash{}, fmt.Errorf("invalid len=%d hash", len(b))
	}

	var h Hash
	copy(h[:], b)
	return h, nil
}
