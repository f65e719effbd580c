// Package middleware provides cross-cutting infrastructure for the
// recommendation engine, currently the Prometheus-backed metrics
// collector consumed by the provider adapter chain.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sourceblend/recommender/internal/ports"
)

var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)

// PrometheusMetrics implements the MetricsCollector interface using
// Prometheus. It exposes per-source adapter call volume, latency,
// contributed item counts, and issue counts.
type PrometheusMetrics struct {
	runDuration *prometheus.HistogramVec
	runsTotal   *prometheus.CounterVec
	itemsTotal  *prometheus.CounterVec
	issuesTotal *prometheus.CounterVec
	systemGauge *prometheus.GaugeVec
}

// NewPrometheusMetrics creates a PrometheusMetrics instance and
// registers its metrics with the given registerer. A nil registerer
// selects the default global registry.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		runDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "provider_run_duration_seconds",
				Help:    "Wall-clock duration of provider adapter invocations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider", "source", "status"},
		),
		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "provider_runs_total",
				Help: "Total provider adapter invocations.",
			},
			[]string{"provider", "source", "status"},
		),
		itemsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "provider_items_total",
				Help: "Total scored items contributed by provider adapters.",
			},
			[]string{"provider", "source", "status"},
		),
		issuesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "provider_issues_total",
				Help: "Total non-fatal issues reported by provider adapters.",
			},
			[]string{"provider", "source", "status"},
		),
		systemGauge: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "recommender_system_state",
				Help: "Current system state values for the recommendation engine.",
			},
			[]string{"metric"},
		),
	}
}

// RecordLatency implements the MetricsCollector interface by recording
// operation latency in the run-duration histogram.
func (pm *PrometheusMetrics) RecordLatency(
	_ string, duration time.Duration, labels map[string]string,
) {
	pm.runDuration.WithLabelValues(adapterLabels(labels)...).Observe(duration.Seconds())
}

// RecordCounter implements the MetricsCollector interface by routing
// known metric names to their counter vectors.
func (pm *PrometheusMetrics) RecordCounter(metric string, value float64, labels map[string]string) {
	switch metric {
	case "provider_runs_total":
		pm.runsTotal.WithLabelValues(adapterLabels(labels)...).Add(value)
	case "provider_items_total":
		pm.itemsTotal.WithLabelValues(adapterLabels(labels)...).Add(value)
	case "provider_issues_total":
		pm.issuesTotal.WithLabelValues(adapterLabels(labels)...).Add(value)
	}
}

// RecordGauge implements the MetricsCollector interface.
func (pm *PrometheusMetrics) RecordGauge(metric string, value float64, _ map[string]string) {
	pm.systemGauge.WithLabelValues(metric).Set(value)
}

// RecordHistogram implements the MetricsCollector interface by routing
// duration observations to the run-duration histogram.
func (pm *PrometheusMetrics) RecordHistogram(metric string, value float64, labels map[string]string) {
	if metric == "provider_run_duration_seconds" {
		pm.runDuration.WithLabelValues(adapterLabels(labels)...).Observe(value)
	}
}

// adapterLabels extracts the provider/source/status label values in
// vector order, defaulting missing labels to "unknown".
func adapterLabels(labels map[string]string) []string {
	values := make([]string, 0, 3)
	for _, key := range []string{"provider", "source", "status"} {
		value, ok := labels[key]
		if !ok {
			value = "unknown"
		}
		values = append(values, value)
	}
	return values
}
