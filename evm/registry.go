package evm

import "fmt"

// Registry maps an EVM currency symbol directly to its Watcher, built
// once at init instead of scanning a list for a matching symbol on every
// lookup, per spec.md §9 ("Ethereum nursery lookup... build a symbol →
// nursery map at init").
type Registry struct {
	watchers map[string]*Watcher
	handlers map[string]*ContractHandler
	managers map[string]EthereumManager
}

// NewRegistry builds an immutable symbol → (Watcher, ContractHandler,
// EthereumManager) registry.
func NewRegistry(
	watchers map[string]*Watcher,
	handlers map[string]*ContractHandler,
	managers map[string]EthereumManager,
) *Registry {
	return &Registry{watchers: watchers, handlers: handlers, managers: managers}
}

// Watcher returns the EthereumWatcher for symbol.
func (r *Registry) Watcher(symbol string) (*Watcher, error) {
	w, ok := r.watchers[symbol]
	if !ok {
		return nil, fmt.Errorf("evm: no watcher configured for symbol %q", symbol)
	}
	return w, nil
}

// ContractHandler returns the ContractHandler for symbol.
func (r *Registry) ContractHandler(symbol string) (*ContractHandler, error) {
	h, ok := r.handlers[symbol]
	if !ok {
		return nil, fmt.Errorf("evm: no contract handler configured for symbol %q", symbol)
	}
	return h, nil
}

// Manager returns the EthereumManager for symbol.
func (r *Registry) Manager(symbol string) (EthereumManager, error) {
	m, ok := r.managers[symbol]
	if !ok {
		return nil, fmt.Errorf("evm: no manager configured for symbol %q", symbol)
	}
	return m, nil
}
