package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/alvahercar220901-design/mototaxi-backend/internal/observability"
)

// NewSlogLogger returns a middleware that logs each request as a structured
// JSON line via the provided slog.Logger and records the request in the
// Prometheus HTTP collectors. It captures method, path, HTTP status,
// duration, and the request ID set by chi's RequestID middleware; metrics
// are labelled with the chi route pattern rather than the raw path so
// /trips/{id}/accept stays one series regardless of the ID.
//
// Wire it after chimiddleware.RequestID so the request ID is available.
func NewSlogLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// WrapResponseWriter intercepts WriteHeader so we can read the
			// status code after the downstream handler has run.
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			statusLabel := strconv.Itoa(status)
			route := routePattern(r)

			observability.HTTPRequestsTotal.
				WithLabelValues(r.Method, route, statusLabel).Inc()
			observability.HTTPRequestDuration.
				WithLabelValues(r.Method, route, statusLabel).
				Observe(time.Since(start).Seconds())

			log.InfoContext(r.Context(), "request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", chimiddleware.GetReqID(r.Context()),
			)
		})
	}
}

// routePattern returns the matched chi route pattern, falling back to the
// raw path when the request never reached the router (e.g. 404s).
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}
