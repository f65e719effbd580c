// Package application orchestrates the multi-source recommendation
// run: it fans out to every enabled source's provider adapter, merges
// the weighted per-source scores, and ranks the combined result while
// collecting non-fatal issues.
package application

import (
	"fmt"
	"sort"
	"sync"

	"github.com/sourceblend/recommender/internal/ports"
)

// Registry maps provider keys to their adapter implementations.
// Adding a provider means registering a new adapter here; the
// aggregation loop never changes.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]ports.ProviderAdapter
}

// NewRegistry creates an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]ports.ProviderAdapter)}
}

// Register adds an adapter under its provider key. Registering a
// second adapter for the same key replaces the first.
func (r *Registry) Register(adapter ports.ProviderAdapter) error {
	if adapter == nil {
		return fmt.Errorf("adapter cannot be nil")
	}
	if adapter.Name() == "" {
		return fmt.Errorf("adapter name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[adapter.Name()] = adapter
	return nil
}

// Get returns the adapter registered for the provider key, if any.
func (r *Registry) Get(provider string) (ports.ProviderAdapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	adapter, ok := r.adapters[provider]
	return adapter, ok
}

// Providers returns the sorted list of registered provider keys.
// This is useful for validation and debugging.
func (r *Registry) Providers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	providers := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		providers = append(providers, name)
	}
	sort.Strings(providers)
	return providers
}
