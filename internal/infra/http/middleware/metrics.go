package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	activeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of active HTTP connections",
		},
	)

	offerVerdicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "offer_verdicts_total",
			Help: "Total number of offer decisions by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	crmAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_contact_attempts_total",
			Help: "Total number of CRM contact lookups by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"},
	)

	expiryParseFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "offer_expiry_parse_failures_total",
			Help: "Total number of expiry values that could not be parsed as a date",
		},
	)

	integrationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "integration_errors_total",
			Help: "Total number of integration errors",
		},
		[]string{"service"},
	)
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		activeConnections.Inc()
		defer activeConnections.Dec()

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.statusCode)
		path := routePattern(r)

		httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// routePattern keeps label cardinality bounded for unmatched paths.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
		return "unmatched"
	}
	return r.URL.Path
}

func RecordVerdict(kind string, valid bool) {
	outcome := "invalid"
	if valid {
		outcome = "valid"
	}
	offerVerdicts.WithLabelValues(kind, outcome).Inc()
}

func RecordCRMAttempt(endpoint, outcome string) {
	crmAttempts.WithLabelValues(endpoint, outcome).Inc()
}

func RecordExpiryParseFailure() {
	expiryParseFailures.Inc()
}

func RecordIntegrationError(service string) {
	integrationErrors.WithLabelValues(service).Inc()
}
