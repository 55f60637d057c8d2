// Package metrics defines the observability hooks of the newsletter
// service. Implementations live in pkg/metrics/prometheus.
package metrics

import "time"

// HTTPMetrics provides observability for the HTTP API.
//
// This interface is optional: pass nil to disable metrics collection with
// zero overhead.
//
// Example usage:
//
//	reg := prometheus.NewRegistry()
//	server, err := api.Run(listener, pool, client, api.Options{
//		HTTPMetrics: prometheus.NewHTTPMetrics(reg),
//	})
type HTTPMetrics interface {
	// RecordRequest records a completed request.
	//
	// Parameters:
	//   - method: HTTP method
	//   - route: chi route pattern (e.g. "/subscriptions/confirm"), not the raw path
	//   - status: response status code
	//   - duration: time spent in the handler chain
	RecordRequest(method, route string, status int, duration time.Duration)

	// RecordRequestStart increments the in-flight request gauge.
	RecordRequestStart()

	// RecordRequestEnd decrements the in-flight request gauge.
	RecordRequestEnd()
}

// SubscriptionMetrics counts subscription outcomes.
type SubscriptionMetrics interface {
	// RecordSubscription records a signup attempt with its outcome:
	// "created", "invalid", "duplicate", "store_error", "email_error".
	RecordSubscription(outcome string)

	// RecordConfirmation records a confirmation attempt with its outcome:
	// "confirmed", "invalid", "unknown_token", "store_error".
	RecordConfirmation(outcome string)
}
