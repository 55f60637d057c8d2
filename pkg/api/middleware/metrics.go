package middleware

import (
	"net/http"
	"time"

	"github.com/marmos91/newsletter/pkg/metrics"
)

// Metrics records request count, duration and in-flight requests. Requests
// that matched no route are recorded under "unmatched" to keep label
// cardinality bounded.
func Metrics(m metrics.HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			m.RecordRequestStart()
			defer m.RecordRequestEnd()

			ww := wrap(w, r)
			next.ServeHTTP(ww, r)

			route := routePattern(r)
			if route == "" {
				route = "unmatched"
			}
			m.RecordRequest(r.Method, route, status(ww), time.Since(start))
		})
	}
}
