package metrics

import (
	"regexp"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestDuration tracks HTTP request duration in seconds by method, path, status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts HTTP requests by method, path, status.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// MutationsTotal counts catalog mutations by action (Added, Updated, Deleted)
	// and outcome (ok, audit_lost, invalid, not_found, error).
	MutationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_mutations_total",
			Help: "Total number of catalog mutations by action and outcome",
		},
		[]string{"action", "outcome"},
	)

	// AuditAppendFailures counts audit appends that failed after the product
	// write had already succeeded.
	AuditAppendFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_audit_append_failures_total",
			Help: "Audit records lost after a successful product write",
		},
		[]string{"action"},
	)

	// ReconcileRepairs counts audit records appended by the reconciler.
	ReconcileRepairs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_reconcile_repairs_total",
			Help: "Audit records appended by reconciliation",
		},
		[]string{"action"},
	)
)

var (
	idPathSegment = regexp.MustCompile(`/([0-9]+|[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12})(/|$)`)
	initOnce      sync.Once
)

func init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestDuration, RequestTotal, MutationsTotal, AuditAppendFailures, ReconcileRepairs)
	})
}

// NormalizePath reduces cardinality by replacing id path segments with {id}.
// E.g. /api/products/6f1c2d3e-... -> /api/products/{id}.
func NormalizePath(path string) string {
	return idPathSegment.ReplaceAllString(path, "/{id}$2")
}

// RecordRequest records duration and count for an HTTP request. Call from middleware with method, path, statusCode, duration.
func RecordRequest(method, path string, statusCode int, durationSeconds float64) {
	path = NormalizePath(path)
	status := strconv.Itoa(statusCode)
	RequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
	RequestTotal.WithLabelValues(method, path, status).Inc()
}

// RecordMutation counts one coordinator mutation.
func RecordMutation(action, outcome string) {
	MutationsTotal.WithLabelValues(action, outcome).Inc()
}

// IncAuditAppendFailures counts an audit record lost for action.
func IncAuditAppendFailures(action string) {
	AuditAppendFailures.WithLabelValues(action).Inc()
}

// AddReconcileRepairs counts n repairs of the given action.
func AddReconcileRepairs(action string, n int) {
	ReconcileRepairs.WithLabelValues(action).Add(float64(n))
}
