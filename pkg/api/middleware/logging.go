package middleware

import (
	"net/http"
	"time"

	"github.com/marmos91/newsletter/internal/logger"
)

// RequestLogger logs request start at DEBUG and completion at INFO using
// the LogContext installed by Tracing.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		logger.DebugCtx(r.Context(), "API request started",
			logger.KeyMethod, r.Method,
			logger.KeyPath, r.URL.Path,
		)

		ww := wrap(w, r)
		next.ServeHTTP(ww, r)

		ctx := r.Context()
		if lc := logger.FromContext(ctx); lc != nil {
			ctx = logger.WithContext(ctx, lc.WithRoute(routePattern(r)))
		}

		logger.InfoCtx(ctx, "API request completed",
			logger.KeyMethod, r.Method,
			logger.KeyPath, r.URL.Path,
			logger.KeyStatus, status(ww),
			logger.KeyBytes, ww.BytesWritten(),
			logger.KeyDurationMs, logger.Duration(start),
		)
	})
}
