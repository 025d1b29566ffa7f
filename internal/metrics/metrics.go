// Package metrics provides Prometheus instrumentation for Kingfisher.
package metrics

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kingfisher",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, path pattern, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency by method and path.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "kingfisher",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// AssessmentsTotal counts risk assessments by final decision.
	AssessmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kingfisher",
			Name:      "assessments_total",
			Help:      "Total risk assessments by decision.",
		},
		[]string{"decision"},
	)

	// RuleSignalsTotal counts fired rule signals by name.
	RuleSignalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kingfisher",
			Name:      "rule_signals_total",
			Help:      "Total fired rule signals by rule name.",
		},
		[]string{"rule"},
	)

	// AssessmentDuration observes end-to-end assessment latency.
	AssessmentDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "kingfisher",
		Name:      "assessment_duration_seconds",
		Help:      "Time to assess a transaction in seconds.",
		Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
	})

	// ModelProbability observes the raw classifier output distribution.
	ModelProbability = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "kingfisher",
		Name:      "model_probability",
		Help:      "Distribution of raw model fraud probabilities.",
		Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
	})

	// IdempotentReplaysTotal counts assessments served from the request ID cache.
	IdempotentReplaysTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "kingfisher",
		Name:      "idempotent_replays_total",
		Help:      "Total assessments replayed from the request ID cache.",
	})
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		AssessmentsTotal,
		RuleSignalsTotal,
		AssessmentDuration,
		ModelProbability,
		IdempotentReplaysTotal,
	)
}

// Middleware records request metrics using the chi route pattern
// rather than the raw path to avoid cardinality explosion.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		timer := prometheus.NewTimer(nil)
		next.ServeHTTP(ww, r)
		elapsed := timer.ObserveDuration()

		path := chi.RouteContext(r.Context()).RoutePattern()
		if path == "" {
			path = "unmatched"
		}

		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(elapsed.Seconds())
		HTTPRequestsTotal.WithLabelValues(r.Method, path, statusBucket(ww.Status())).Inc()
	})
}

// Handler returns the Prometheus metrics HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// statusBucket groups HTTP status codes into buckets (2xx, 3xx, 4xx, 5xx).
func statusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
