// Package metrics defines Prometheus metrics for the tracker.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tracker_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_errors_total",
			Help: "Total errors by type",
		},
		[]string{"type"},
	)

	VersionConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tracker_version_conflicts_total",
			Help: "Issue updates rejected because the expected version was stale",
		},
	)

	BulkStatusIssues = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_bulk_status_issues_total",
			Help: "Issues moved by committed bulk status requests, by target status",
		},
		[]string{"status"},
	)

	ImportRows = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_import_rows_total",
			Help: "CSV import rows by outcome",
		},
		[]string{"result"},
	)

	WSConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tracker_websocket_connections",
			Help: "Active WebSocket connections",
		},
	)

	DBPoolConns = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tracker_db_pool_connections",
			Help: "Database pool connections by state",
		},
		[]string{"state"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestDuration, RequestsTotal, ErrorsTotal,
		VersionConflicts, BulkStatusIssues, ImportRows,
		WSConnections, DBPoolConns,
	)
}
