package providers

import (
	"context"
	"time"

	"github.com/sourceblend/recommender/internal/ports"
)

// timeoutAdapter enforces a per-invocation deadline on the wrapped
// adapter. A deadline that fires during the network call surfaces as a
// network_error issue, the same class as any other transport failure.
type timeoutAdapter struct {
	next    ports.ProviderAdapter
	timeout time.Duration
}

// TimeoutMiddleware creates middleware that bounds every adapter
// invocation to the given duration. This is the calling-boundary
// timeout the engine itself does not impose.
func TimeoutMiddleware(timeout time.Duration) Middleware {
	return func(next ports.ProviderAdapter) ports.ProviderAdapter {
		return &timeoutAdapter{next: next, timeout: timeout}
	}
}

// Name returns the wrapped adapter's provider key.
func (t *timeoutAdapter) Name() string { return t.next.Name() }

// Run executes the wrapped adapter with a timeout context.
func (t *timeoutAdapter) Run(ctx context.Context, req ports.AdapterRequest) ports.AdapterResult {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Run(ctx, req)
}
