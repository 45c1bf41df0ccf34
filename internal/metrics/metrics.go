package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	clientRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "satrack_client_requests_total",
			Help: "Total number of requests sent to the tracker API.",
		},
		[]string{"endpoint", "method", "code"},
	)

	clientDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "satrack_client_request_duration_seconds",
			Help:    "Tracker API request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method"},
	)

	clientInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "satrack_client_requests_in_flight",
			Help: "Tracker API requests currently pending.",
		},
	)

	staleResponsesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "satrack_stale_responses_total",
			Help: "Responses discarded because a newer one was already rendered.",
		},
		[]string{"widget"},
	)

	validationAlertsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "satrack_validation_alerts_total",
			Help: "Operations aborted before any request because required input was empty.",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(clientRequestsTotal)
	prometheus.MustRegister(clientDurationSeconds)
	prometheus.MustRegister(clientInFlight)
	prometheus.MustRegister(staleResponsesTotal)
	prometheus.MustRegister(validationAlertsTotal)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// knownEndpoints are the API paths that get their own label value.
var knownEndpoints = map[string]bool{
	"/search":               true,
	"/country_search":       true,
	"/add_satellite":        true,
	"/delete_satellite":     true,
	"/add_country":          true,
	"/delete_country":       true,
	"/login/":               true,
	"/login/create_account": true,
}

// normalizeEndpoint bounds label cardinality: unknown paths collapse to "other".
func normalizeEndpoint(path string) string {
	if knownEndpoints[path] {
		return path
	}
	return "other"
}

// InstrumentTransport records count, duration and in-flight requests for
// every round trip made through next.
func InstrumentTransport(next http.RoundTripper) http.RoundTripper {
	counted := promhttp.RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		start := time.Now()
		endpoint := normalizeEndpoint(r.URL.Path)

		resp, err := next.RoundTrip(r)

		code := "error"
		if err == nil {
			code = strconv.Itoa(resp.StatusCode)
		}
		clientRequestsTotal.WithLabelValues(endpoint, r.Method, code).Inc()
		clientDurationSeconds.WithLabelValues(endpoint, r.Method).Observe(time.Since(start).Seconds())
		return resp, err
	})
	return promhttp.InstrumentRoundTripperInFlight(clientInFlight, counted)
}

// IncStaleResponse counts a response dropped by a sequence guard.
func IncStaleResponse(widget string) {
	staleResponsesTotal.WithLabelValues(widget).Inc()
}

// IncValidationAlert counts an operation rejected for empty input.
func IncValidationAlert(kind string) {
	validationAlertsTotal.WithLabelValues(kind).Inc()
}
