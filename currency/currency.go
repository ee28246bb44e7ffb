package currency

import (
	"fmt"

	"github.com/djkazic/boltz-backend/lightning"
	"github.com/djkazic/boltz-backend/types"
)

// Currency bundles a symbol with the chain handle appropriate to its type
// (a ChainClient for UTXO/Liquid, or nil for EVM symbols, which are
// resolved through the evm package's own registry) plus candidate
// Lightning clients able to pay/receive for it.
type Currency struct {
	Symbol           string
	Type             types.CurrencyType
	Chain            ChainClient // nil for Ether/ERC20 symbols
	Wallet           Wallet      // nil for Ether/ERC20 symbols
	LightningClients []lightning.Client
}

// Registry is the immutable, init-time-populated symbol → Currency map
// described in spec.md §5 ("currencies map is populated at init and is
// immutable thereafter; readers need no lock").
type Registry struct {
	currencies map[string]*Currency
}

// NewRegistry builds an immutable Registry from the given currencies. It
// panics on a duplicate symbol, since that is a configuration error caught
// at startup, not a runtime condition.
func NewRegistry(currencies []*Currency) *Registry {
	m := make(map[string]*Currency, len(currencies))
	for _, c := range currencies {
		if _, exists := m[c.Symbol]; exists {
			panic(fmt.Sprintf("duplicate currency symbol %q in registry", c.Symbol))
		}
		m[c.Symbol] = c
	}
	return &Registry{currencies: m}
}

// Get returns the Currency for symbol, or false if unconfigured.
func (r *Registry) Get(symbol string) (*Currency, bool) {
	c, ok := r.currencies[symbol]
	return c, ok
}

// MustGet returns the Currency for symbol, or panics. Used only at
// wiring time for symbols the caller has already validated exist.
func (r *Registry) MustGet(symbol string) *Currency {
	c, ok := r.currencies[symbol]
	if !ok {
		panic(fmt.Sprintf("no currency configured for symbol %q", symbol))
	}
	return c
}

// Symbols returns every configured symbol.
func (r *Registry) Symbols() []string {
	out := make([]string, 0, len(r.currencies))
	for s := range r.currencies {
		out = append(out, s)
	}
	return out
}
