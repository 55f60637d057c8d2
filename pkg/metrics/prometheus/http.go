package prometheus

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/newsletter/pkg/metrics"
)

// httpMetrics is the Prometheus implementation of metrics.HTTPMetrics.
type httpMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight prometheus.Gauge
}

// NewHTTPMetrics registers the HTTP collectors on reg.
func NewHTTPMetrics(reg prometheus.Registerer) metrics.HTTPMetrics {
	return &httpMetrics{
		requests: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		duration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_milliseconds",
				Help:      "Duration of HTTP requests in milliseconds",
				Buckets: []float64{
					1,    // health checks
					5,    // 5ms
					10,   // 10ms
					50,   // 50ms - single round trip to PostgreSQL
					100,  // 100ms
					250,  // 250ms
					500,  // 500ms - signup with outbound email
					1000, // 1s
					5000, // 5s
				},
			},
			[]string{"method", "route"},
		),
		inFlight: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Number of HTTP requests currently being served",
			},
		),
	}
}

func (m *httpMetrics) RecordRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method, route).Observe(float64(duration.Microseconds()) / 1000.0)
}

func (m *httpMetrics) RecordRequestStart() {
	if m == nil {
		return
	}
	m.inFlight.Inc()
}

func (m *httpMetrics) RecordRequestEnd() {
	if m == nil {
		return
	}
	m.inFlight.Dec()
}
