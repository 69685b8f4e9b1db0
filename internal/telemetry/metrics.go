// Package telemetry provides application-level observability for VendorGuard.
//
// # Prometheus Metrics Endpoint
//
// All metrics are registered against the default Prometheus registry and are
// automatically available on the side-channel HTTP server started by main.go:
//
//	GET http(s)://<host>:<VG_TELEMETRY_METRICS_PROMETHEUS_PORT>/metrics
//
// Default port: 9090.  The endpoint returns data in the Prometheus text exposition
// format (Content-Type: text/plain; version=0.0.4) and is intended to be scraped by
// a Prometheus server every 15–60 seconds.  It is NOT served by the Gin router.
//
// # Metric Groups
//
//   - HTTP request counters and latency histograms (labelled by route template, not raw URL)
//   - Workflow transition counters for assessments, reviews, and remediations
//   - Scoring gateway call counters and latency histograms
//   - Rescore job queue depth and retry counters
//   - Database connection pool gauge (polled every 30 s)
//
// # Label Cardinality
//
// HTTP metrics use c.FullPath() (route template such as /api/v1/assessments/:id)
// rather than the raw request URL to prevent unbounded label cardinality from
// user-supplied path segments such as entity IDs.
//
// # Usage
//
// Import the package for side effects so metrics are registered before the HTTP server
// starts listening, or use an exported var directly:
//
//	telemetry.WorkflowTransitionsTotal.WithLabelValues("assessment", "assigned", "submitted").Inc()
package telemetry

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics, labelled by method, route template, and status code.
//
// HTTPRequestsTotal is a CounterVec with labels {method, path, status}.
// The path label holds the Gin route template (e.g. /api/v1/assessments/:id/submit),
// NOT the raw URL, to prevent unbounded cardinality.
//
// Example PromQL queries:
//   - Request rate (req/s, 5 m window):  rate(http_requests_total[5m])
//   - Error rate (%):                    sum(rate(http_requests_total{status=~"5.."}[5m])) / sum(rate(http_requests_total[5m])) * 100
//   - Requests by route:                 sum by (path) (rate(http_requests_total[5m]))
//
// HTTPRequestDuration is a HistogramVec with labels {method, path} and exponential-ish
// buckets from 5 ms to 30 s.  Use histogram_quantile to compute latency percentiles.
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed, by method, route template, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, by method and route template.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)
)

// Workflow metrics, recorded by the workflow service on every successful
// state change.
//
// WorkflowTransitionsTotal is a CounterVec with labels {entity, from, to}.
// "entity" is one of assessment, review, remediation, vendor, response.  A
// transition is counted
// only after it commits; rejected transitions increment
// WorkflowTransitionConflictsTotal instead.
//
// Example PromQL queries:
//   - Approval throughput:   rate(workflow_transitions_total{entity="assessment", to="approved"}[1h])
//   - Conflict pressure:     rate(workflow_transition_conflicts_total[5m])
var (
	WorkflowTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workflow_transitions_total",
			Help: "Total number of committed workflow state transitions, by entity kind and edge.",
		},
		[]string{"entity", "from", "to"},
	)

	WorkflowTransitionConflictsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workflow_transition_conflicts_total",
			Help: "Total number of rejected workflow transitions (illegal edge or lost race), by entity kind.",
		},
		[]string{"entity"},
	)
)

// Scoring gateway metrics.
//
// ScoringCallsTotal is a CounterVec with label {outcome}: "success", "timeout",
// "transport_error", "bad_status", or "bad_payload".  An alert on sustained
// non-success outcomes catches scoring service outages before reviewers notice
// failed approvals.
//
// ScoringCallDuration is a Histogram of end-to-end scoring call latency.  The
// bucket ceiling matches the default call timeout of 5 seconds.
//
// Example PromQL queries:
//   - Failure rate:   sum(rate(scoring_calls_total{outcome!="success"}[5m])) / sum(rate(scoring_calls_total[5m]))
//   - p95 latency:    histogram_quantile(0.95, rate(scoring_call_duration_seconds_bucket[5m]))
var (
	ScoringCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scoring_calls_total",
			Help: "Total number of scoring gateway calls, by outcome.",
		},
		[]string{"outcome"},
	)

	ScoringCallDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scoring_call_duration_seconds",
			Help:    "Duration of scoring gateway calls.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5},
		},
	)
)

// Rescore job metrics, recorded by the background rescore queue that retries
// advisory scoring after remediation closure.
//
// RescoreQueueDepth is a Gauge of jobs currently waiting or retrying.
// RescoreAttemptsTotal is a CounterVec with label {outcome}: "success" or "retry"
// or "gave_up".
var (
	RescoreQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rescore_queue_depth",
			Help: "Number of rescore jobs currently queued or retrying.",
		},
	)

	RescoreAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rescore_attempts_total",
			Help: "Total number of rescore job attempts, by outcome.",
		},
		[]string{"outcome"},
	)
)

// AuditEntriesTotal is a CounterVec with label {action} incremented once per
// audit trail entry written.  A stalled counter while mutating traffic continues
// is an alert signal for trail persistence failures.
var AuditEntriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "audit_entries_total",
		Help: "Total number of audit trail entries recorded, by action.",
	},
	[]string{"action"},
)

// DBOpenConnections is a Gauge that tracks the number of open connections currently
// held by the sql.DB connection pool.  It is sampled every 30 seconds by
// StartDBStatsCollector rather than per-request to avoid the overhead of sql.DB.Stats().
var DBOpenConnections = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "db_open_connections",
		Help: "Current number of open database connections in the pool.",
	},
)

// StartDBStatsCollector launches a background goroutine that samples sql.DB connection
// pool statistics every 30 seconds and updates the DBOpenConnections gauge.
// The goroutine exits cleanly when the database becomes unreachable (db.Ping fails),
// which happens automatically when the application shuts down and defers db.Close().
//
// Call this once, immediately after db.Connect() succeeds in main.go:
//
//	telemetry.StartDBStatsCollector(database)
func StartDBStatsCollector(db *sql.DB) {
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			if err := db.Ping(); err != nil {
				slog.Warn("db stats collector: database unreachable, stopping collector", "error", err)
				return
			}
			DBOpenConnections.Set(float64(db.Stats().OpenConnections))
		}
	}()
}
