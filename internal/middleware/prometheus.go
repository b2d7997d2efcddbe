package middleware

import (
	"net/http"
	"time"

	"github.com/crucial707/hci-catalog/internal/metrics"
	"github.com/go-chi/chi/v5"
)

// unmatchedRoute labels requests that no route matched, so probing arbitrary
// paths cannot grow the label set.
const unmatchedRoute = "unmatched"

// Prometheus records request duration and count, labelled by the chi route
// pattern (e.g. /api/products/{id}) once routing has completed. The scrape
// endpoint itself is not recorded.
func Prometheus(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		metrics.RecordRequest(r.Method, routeLabel(r), sw.status, time.Since(start).Seconds())
	})
}

func routeLabel(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return metrics.NormalizePath(r.URL.Path)
	}
	if pattern := rctx.RoutePattern(); pattern != "" {
		return pattern
	}
	return unmatchedRoute
}

// statusWriter captures the status code. Handlers that never call
// WriteHeader answer 200.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
