package providers

import (
	"context"
	"strings"
	"time"

	"github.com/sourceblend/recommender/internal/domain"
	"github.com/sourceblend/recommender/internal/ports"
)

// issueKinds are the known issue suffixes, used to derive the metric
// status label from a namespaced issue code.
var issueKinds = []string{
	domain.IssueMissingAPIKey,
	domain.IssueNetworkError,
	domain.IssueHTTPError,
	domain.IssueInvalidResponse,
	domain.IssueUnsupportedProvider,
}

// metricsAdapter collects per-invocation metrics: latency, item and
// issue counts, labeled by provider and source.
type metricsAdapter struct {
	next      ports.ProviderAdapter
	collector ports.MetricsCollector
}

// MetricsMiddleware creates middleware that records adapter latency,
// contributed item counts, and issue counts for operational
// monitoring.
func MetricsMiddleware(collector ports.MetricsCollector) Middleware {
	return func(next ports.ProviderAdapter) ports.ProviderAdapter {
		return &metricsAdapter{next: next, collector: collector}
	}
}

// Name returns the wrapped adapter's provider key.
func (m *metricsAdapter) Name() string { return m.next.Name() }

// Run executes the request while collecting metrics. The status label
// is "ok" for clean runs and the first issue's kind otherwise.
func (m *metricsAdapter) Run(ctx context.Context, req ports.AdapterRequest) ports.AdapterResult {
	start := time.Now()
	result := m.next.Run(ctx, req)

	if m.collector == nil {
		return result
	}

	labels := map[string]string{
		"provider": m.next.Name(),
		"source":   req.Source.ID,
		"status":   resultStatus(result),
	}

	m.collector.RecordHistogram("provider_run_duration_seconds", time.Since(start).Seconds(), labels)
	m.collector.RecordCounter("provider_runs_total", 1, labels)
	m.collector.RecordCounter("provider_items_total", float64(len(result.Items)), labels)
	m.collector.RecordCounter("provider_issues_total", float64(len(result.Issues)), labels)

	return result
}

func resultStatus(result ports.AdapterResult) string {
	if len(result.Issues) == 0 {
		return "ok"
	}
	return issueKind(result.Issues[0].Code)
}

// issueKind strips the source-ID namespace from an issue code.
func issueKind(code string) string {
	for _, kind := range issueKinds {
		if strings.HasSuffix(code, kind) {
			return kind
		}
	}
	return "unknown"
}
