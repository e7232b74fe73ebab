package breaker

import (
	"sort"
	"sync"

	"github/chapool/token-agent/internal/kvstore"
)

// ServiceBlockchainRPC is the breaker name guarding chain RPC calls.
const ServiceBlockchainRPC = "blockchain-rpc"

// Registry owns the named breakers of one process. It is constructed at
// startup and passed to the server explicitly; breaker state itself still
// lives in the shared store, the registry only caches the handles.
type Registry struct {
	store kvstore.Store
	clock Clock

	mu       sync.RWMutex
	breakers map[string]*Breaker
}

// NewRegistry creates an empty breaker registry.
func NewRegistry(store kvstore.Store, clock Clock) *Registry {
	return &Registry{
		store:    store,
		clock:    clock,
		breakers: make(map[string]*Breaker),
	}
}

// Register creates (or returns the already registered) breaker for name.
func (r *Registry) Register(name string, cfg Config) *Breaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.breakers[name]; ok {
		return b
	}

	b := New(name, r.store, r.clock, cfg)
	r.breakers[name] = b

	return b
}

// Get returns the breaker registered under name, or nil.
func (r *Registry) Get(name string) *Breaker {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.breakers[name]
}

// All returns all registered breakers, sorted by name.
func (r *Registry) All() []*Breaker {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*Breaker, 0, len(r.breakers))
	for _, b := range r.breakers {
		all = append(all, b)
	}

	sort.Slice(all, func(i, j int) bool { return all[i].Name() < all[j].Name() })

	return all
}
