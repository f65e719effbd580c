package providers

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/sourceblend/recommender/internal/ports"
)

// tracingAdapter records an OpenTelemetry span around each adapter
// invocation for request-flow visibility across sources.
type tracingAdapter struct {
	next   ports.ProviderAdapter
	tracer trace.Tracer
}

// TracingMiddleware creates middleware that wraps every adapter
// invocation in a span carrying the provider key, source ID, and
// result counts.
func TracingMiddleware() Middleware {
	tracer := otel.Tracer("provider-adapter")

	return func(next ports.ProviderAdapter) ports.ProviderAdapter {
		return &tracingAdapter{next: next, tracer: tracer}
	}
}

// Name returns the wrapped adapter's provider key.
func (t *tracingAdapter) Name() string { return t.next.Name() }

// Run executes the request inside a span. Issues are recorded as span
// attributes rather than span errors because they are non-fatal by
// contract.
func (t *tracingAdapter) Run(ctx context.Context, req ports.AdapterRequest) ports.AdapterResult {
	ctx, span := t.tracer.Start(ctx, "provider.run",
		trace.WithAttributes(
			attribute.String("provider", t.next.Name()),
			attribute.String("source.id", req.Source.ID),
		))
	defer span.End()

	result := t.next.Run(ctx, req)

	span.SetAttributes(
		attribute.Int("result.items", len(result.Items)),
		attribute.Int("result.issues", len(result.Issues)),
	)

	return result
}
