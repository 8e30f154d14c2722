// Package telemetry exposes Prometheus metrics for the scheduler service.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// APIRequestsTotal counts handled HTTP requests by method, route, and
	// status.
	APIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campus_scheduler_api_requests_total",
		Help: "Total HTTP requests handled.",
	}, []string{"method", "endpoint", "status"})

	// APIRequestDuration observes request latency by method, route, and
	// status.
	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "campus_scheduler_api_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint", "status"})

	// APIActiveConnections gauges in-flight HTTP requests.
	APIActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "campus_scheduler_api_active_connections",
		Help: "In-flight HTTP requests.",
	})

	// DecisionsTotal counts committed approval decisions by request kind and
	// outcome (accepted, rejected, conflict).
	DecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campus_scheduler_decisions_total",
		Help: "Approval decisions committed, by kind and outcome.",
	}, []string{"kind", "outcome"})

	// ConflictWarningsTotal counts advisory conflict warnings surfaced to
	// callers.
	ConflictWarningsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campus_scheduler_conflict_warnings_total",
		Help: "Advisory conflict warnings surfaced.",
	})

	// OccurrencesMaterialized counts occurrences committed by semester
	// materialization runs.
	OccurrencesMaterialized = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campus_scheduler_occurrences_materialized_total",
		Help: "Schedule occurrences committed by materialization runs.",
	})
)

// Handler exposes the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
