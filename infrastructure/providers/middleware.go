package providers

import "github.com/sourceblend/recommender/internal/ports"

// Middleware wraps a ProviderAdapter to add cross-cutting behavior
// such as timeouts, rate limiting, metrics, and tracing without
// touching adapter logic.
type Middleware func(ports.ProviderAdapter) ports.ProviderAdapter

// Chain applies middleware to an adapter in reverse order so the first
// middleware listed becomes the outermost wrapper.
func Chain(adapter ports.ProviderAdapter, middleware ...Middleware) ports.ProviderAdapter {
	for i := len(middleware) - 1; i >= 0; i-- {
		adapter = middleware[i](adapter)
	}
	return adapter
}
