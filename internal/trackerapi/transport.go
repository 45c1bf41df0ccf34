package trackerapi

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/star/satrack/internal/metrics"
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// NewTransport wraps next with request-id tagging, request logging and
// Prometheus instrumentation.
func NewTransport(next http.RoundTripper, logger *slog.Logger) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return metrics.InstrumentTransport(&loggingTransport{next: next, logger: logger})
}

type loggingTransport struct {
	next   http.RoundTripper
	logger *slog.Logger
}

func (t *loggingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	id := r.Header.Get(RequestIDHeader)
	if id == "" {
		id = uuid.NewString()
		// RoundTrippers must not modify the caller's request.
		r = r.Clone(r.Context())
		r.Header.Set(RequestIDHeader, id)
	}

	start := time.Now()
	resp, err := t.next.RoundTrip(r)
	duration := time.Since(start)

	if err != nil {
		t.logger.Warn("request failed",
			"component", "api-client",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", id,
			"duration_ms", duration.Milliseconds(),
			"error", err,
		)
		return nil, err
	}

	t.logger.Debug("request",
		"component", "api-client",
		"method", r.Method,
		"path", r.URL.Path,
		"status", strconv.Itoa(resp.StatusCode),
		"request_id", id,
		"duration_ms", duration.Milliseconds(),
	)
	return resp, nil
}
