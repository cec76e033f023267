// Package metrics holds the prometheus collectors of the issuance engine.
// They register on the default registry and are served at /metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	IssuanceTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tool_issuance_transitions_total",
			Help: "Issuance state transitions by resulting status",
		},
		[]string{"status"},
	)

	OverIssuance = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tool_over_issuance_total",
			Help: "Issuances that requested more than the available quantity",
		},
	)

	LedgerClamped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tool_ledger_clamped_total",
			Help: "Ledger deltas whose result was clamped to zero",
		},
	)

	OverdueFlagged = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tool_overdue_flagged_total",
			Help: "Issuances flagged overdue by the sweep",
		},
	)

	SweepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tool_overdue_sweep_duration_seconds",
			Help:    "Duration of overdue sweeps in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	SweepErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tool_overdue_sweep_errors_total",
			Help: "Overdue sweeps that failed",
		},
	)

	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tool_http_requests_total",
			Help: "HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tool_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

func init() {
	prometheus.MustRegister(
		IssuanceTransitions,
		OverIssuance,
		LedgerClamped,
		OverdueFlagged,
		SweepDuration,
		SweepErrors,
		HTTPRequests,
		HTTPLatency,
	)
}
