// Package middleware provides HTTP middleware for the newsletter API.
package middleware

import (
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/marmos91/newsletter/internal/logger"
	"github.com/marmos91/newsletter/internal/telemetry"
)

// Tracing starts a server span per request and stores a LogContext with
// the request id, client ip and trace/span ids in the request context, so
// every *Ctx log line of the request is correlated.
//
// Must run after chi's RequestID and RealIP middleware.
func Tracing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		ctx, span := telemetry.StartSpan(ctx, r.Method+" "+r.URL.Path,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				telemetry.HTTPMethod(r.Method),
				telemetry.ClientIP(clientIP(r)),
			),
		)
		defer span.End()

		lc := logger.NewLogContext(chimw.GetReqID(ctx), clientIP(r)).
			WithTrace(telemetry.TraceID(ctx), telemetry.SpanID(ctx))
		ctx = logger.WithContext(ctx, lc)

		ww := wrap(w, r)
		next.ServeHTTP(ww, r.WithContext(ctx))

		if route := routePattern(r); route != "" {
			span.SetName(r.Method + " " + route)
			span.SetAttributes(telemetry.HTTPRoute(route))
		}
		span.SetAttributes(telemetry.HTTPStatus(status(ww)))
	})
}

// routePattern returns the matched chi pattern. chi fills the route
// context in place, so it is complete once the handler chain returns.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return rctx.RoutePattern()
	}
	return ""
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// wrap reuses an existing WrapResponseWriter so nested middleware agree
// on the status code.
func wrap(w http.ResponseWriter, r *http.Request) chimw.WrapResponseWriter {
	if ww, ok := w.(chimw.WrapResponseWriter); ok {
		return ww
	}
	return chimw.NewWrapResponseWriter(w, r.ProtoMajor)
}

// status defaults to 200 for handlers that never called WriteHeader.
func status(ww chimw.WrapResponseWriter) int {
	if s := ww.Status(); s != 0 {
		return s
	}
	return http.StatusOK
}
