package currency

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Registry is the known-asset registry: tokens the wallet tracks, plus the
// canonical wrapped form of each chain's native currency. Lookups that miss
// can be satisfied by synthesizing an unknown token instead.
type Registry struct {
	mu      sync.RWMutex
	tokens  map[ID]*Currency
	wrapped map[ChainID]*Currency
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tokens:  make(map[ID]*Currency),
		wrapped: make(map[ChainID]*Currency),
	}
}

// Add registers a known token. Native currencies are implicit and need no
// registration.
func (r *Registry) Add(c *Currency) {
	if c == nil || c.Native {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[c.ID()] = c
}

// SetWrappedNative registers the canonical wrapped form of a chain's native
// currency (WETH and friends). The token is also added as a known token.
func (r *Registry) SetWrappedNative(chain ChainID, c *Currency) {
	if c == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wrapped[chain] = c
	r.tokens[c.ID()] = c
}

// Lookup resolves an ID to a currency. Native IDs always resolve; token IDs
// resolve only when the token is known.
func (r *Registry) Lookup(id ID) (*Currency, bool) {
	chain, addr, native, err := ParseID(id)
	if err != nil {
		return nil, false
	}
	if native {
		return NativeOnChain(chain), true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.tokens[BuildID(chain, addr)]
	return c, ok
}

// WrappedNative returns the canonical wrapped native token for a chain.
func (r *Registry) WrappedNative(chain ChainID) (*Currency, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.wrapped[chain]
	return c, ok
}

// ResolveOrSynthesize returns the known currency for (chain, address), or a
// synthesized unknown token carrying whatever metadata the caller observed.
func (r *Registry) ResolveOrSynthesize(chain ChainID, address common.Address, decimals int32, symbol, name string) *Currency {
	r.mu.RLock()
	known, ok := r.tokens[BuildID(chain, address)]
	r.mu.RUnlock()
	if ok {
		return known
	}
	return NewToken(chain, address, decimals, symbol, name)
}

// KnownOnChain returns the known tokens for a chain, keyed by ID.
func (r *Registry) KnownOnChain(chain ChainID) map[ID]*Currency {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[ID]*Currency)
	for id, c := range r.tokens {
		if c.ChainID == chain {
			out[id] = c
		}
	}
	return out
}

// Len returns the number of known tokens.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tokens)
}
