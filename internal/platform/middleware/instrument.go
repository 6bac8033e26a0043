package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"sacra360/internal/platform/metrics"
	request "sacra360/pkg/platform/middleware/request"
)

// Instrument records request latency labelled by the matched chi route
// pattern, so path ids do not explode label cardinality.
func Instrument(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := request.NewStatusRecorder(w)
			next.ServeHTTP(rec, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if p := rctx.RoutePattern(); p != "" {
					route = p
				}
			}
			m.ObserveRequest(route, r.Method, rec.Status, start)
		})
	}
}
