package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/marmos91/newsletter/pkg/api/handlers"
	"github.com/marmos91/newsletter/pkg/api/middleware"
	"github.com/marmos91/newsletter/pkg/metrics"
	promexp "github.com/marmos91/newsletter/pkg/metrics/prometheus"
)

// RouterDeps are the collaborators the routes are wired to.
type RouterDeps struct {
	DB             handlers.Pinger
	Store          handlers.SubscriptionStore
	Email          handlers.EmailSender
	BaseURL        string
	RequestTimeout time.Duration

	// MaxBodySize caps request bodies in bytes; zero disables the cap.
	MaxBodySize int64

	HTTPMetrics         metrics.HTTPMetrics
	SubscriptionMetrics metrics.SubscriptionMetrics

	// Registry is served on /metrics when non-nil.
	Registry *prometheus.Registry
}

// NewRouter creates and configures the chi router with all middleware and routes.
//
// The router is configured with:
//   - Request ID middleware for request tracking
//   - Real IP extraction for proper client identification
//   - One OpenTelemetry server span per request
//   - Request logging using the internal logger
//   - Request metrics
//   - Panic recovery to prevent server crashes
//   - Request timeout to prevent hung requests
//   - Request body size cap
//
// Routes:
//   - GET /health - Liveness probe
//   - GET /health/ready - Readiness probe
//   - POST /subscriptions - Signup
//   - GET /subscriptions/confirm - Confirmation link target
//   - GET /metrics - Prometheus metrics (when a registry is set)
func NewRouter(deps RouterDeps) http.Handler {
	if deps.RequestTimeout == 0 {
		deps.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Tracing)
	r.Use(middleware.RequestLogger)
	r.Use(middleware.Metrics(deps.HTTPMetrics))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(deps.RequestTimeout))
	if deps.MaxBodySize > 0 {
		r.Use(chimw.RequestSize(deps.MaxBodySize))
	}

	healthHandler := handlers.NewHealthHandler(deps.DB)
	r.Route("/health", func(r chi.Router) {
		r.Get("/", healthHandler.Liveness)
		r.Get("/ready", healthHandler.Readiness)
	})

	subs := handlers.NewSubscriptionHandler(deps.Store, deps.Email, deps.BaseURL, deps.SubscriptionMetrics)
	r.Route("/subscriptions", func(r chi.Router) {
		r.Post("/", subs.Subscribe)
		r.Get("/confirm", subs.Confirm)
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promexp.Handler(deps.Registry))
	}

	return r
}
