package providers

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/sourceblend/recommender/internal/domain"
	"github.com/sourceblend/recommender/internal/ports"
)

// rateLimitedAdapter paces adapter invocations with a token bucket.
// This prevents a fan-out burst from tripping upstream provider rate
// limits.
type rateLimitedAdapter struct {
	next    ports.ProviderAdapter
	limiter *rate.Limiter
}

// RateLimitMiddleware creates middleware that enforces rate limiting
// using a token bucket. The limit parameter sets requests per second,
// while burst allows temporary spikes above the sustained rate.
// All sources sharing the wrapped adapter share one bucket.
func RateLimitMiddleware(limit rate.Limit, burst int) Middleware {
	limiter := rate.NewLimiter(limit, burst)

	return func(next ports.ProviderAdapter) ports.ProviderAdapter {
		return &rateLimitedAdapter{next: next, limiter: limiter}
	}
}

// Name returns the wrapped adapter's provider key.
func (r *rateLimitedAdapter) Name() string { return r.next.Name() }

// Run waits for rate limit permission before forwarding the request.
// A context that expires while waiting is reported as a network_error
// issue, keeping the adapter contract failure-free.
func (r *rateLimitedAdapter) Run(ctx context.Context, req ports.AdapterRequest) ports.AdapterResult {
	if err := r.limiter.Wait(ctx); err != nil {
		return ports.AdapterResult{Issues: []domain.Issue{
			domain.NewIssue(req.Source.ID, domain.IssueNetworkError, "rate limit wait aborted: "+err.Error()),
		}}
	}
	return r.next.Run(ctx, req)
}
