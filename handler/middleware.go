package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/membership/pkg/logger"
)

// ObserveFunc receives one completed request. route is the chi pattern, not the raw path,
// so label cardinality stays bounded.
type ObserveFunc func(route, method string, status int, d time.Duration)

// Instrument reports every request to observe and writes an access log line.
// The wrapped writer keeps http.Flusher so event streams still work.
func Instrument(log *slog.Logger, observe ObserveFunc) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	log = log.With(logger.Component("http"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			elapsed := time.Since(start)

			if observe != nil {
				observe(route, r.Method, status, elapsed)
			}
			log.DebugContext(r.Context(), "request served",
				slog.String("method", r.Method),
				slog.String("route", route),
				slog.Int("status", status),
				logger.Duration(elapsed),
			)
		})
	}
}
