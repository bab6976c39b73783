package middleware

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paymi_http_requests_total",
			Help: "Total HTTP requests by service, method, path and status.",
		},
		[]string{"service", "method", "path", "status"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "paymi_http_request_duration_seconds",
			Help:    "HTTP request latency by service, method and path.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
)

// Metrics records a request counter and latency histogram for every
// request, labeled with the service name.
func Metrics(service string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			timer := prometheus.NewTimer(requestDuration.WithLabelValues(service, r.Method, r.URL.Path))
			next.ServeHTTP(rec, r)
			timer.ObserveDuration()

			requestsTotal.WithLabelValues(service, r.Method, r.URL.Path, strconv.Itoa(rec.status)).Inc()
		})
	}
}
