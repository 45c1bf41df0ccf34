// Package health serves liveness and readiness probes next to /metrics.
package health

import (
	"net/http"
)

// Check reports why a dependency is not usable, or nil when it is.
type Check func() error

// Healthz returns 200 "ok\n" unconditionally.
func Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok\n"))
}

// Readyz returns 200 "ready\n" while check passes and 503 with the
// failure otherwise.
func Readyz(check Check) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		if err := check(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("not ready: " + err.Error() + "\n"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ready\n"))
	}
}

// Mux routes /healthz and /readyz, and /metrics when metrics is non-nil.
func Mux(check Check, metrics http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", Healthz)
	mux.Handle("GET /readyz", Readyz(check))
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}
	return mux
}
