package api

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/marmos91/newsletter/pkg/config"
)

// Options configures the HTTP server built by Run.
type Options struct {
	// BaseURL prefixes the confirmation links sent by email.
	// Default: the listener address over http
	BaseURL string

	// DatabaseName labels the pool metrics.
	DatabaseName string

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 10s
	ReadTimeout time.Duration

	// WriteTimeout is the maximum duration before timing out writes of the
	// response.
	// Default: 10s
	WriteTimeout time.Duration

	// IdleTimeout is the keep-alive idle limit.
	// Default: 60s
	IdleTimeout time.Duration

	// MaxBodySize caps request bodies in bytes.
	// Default: 64KiB
	MaxBodySize int64

	// RequestTimeout cancels the request context of slow handlers.
	// Default: 30s
	RequestTimeout time.Duration

	// MetricsEnabled mounts GET /metrics.
	MetricsEnabled bool

	// Registry receives the server's collectors. A nil Registry gets a
	// fresh one per server.
	Registry *prometheus.Registry
}

// OptionsFromConfig maps the application settings onto Options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		BaseURL:        cfg.Application.BaseURL,
		DatabaseName:   cfg.Database.DatabaseName,
		ReadTimeout:    cfg.Application.ReadTimeout,
		WriteTimeout:   cfg.Application.WriteTimeout,
		IdleTimeout:    cfg.Application.IdleTimeout,
		MaxBodySize:    cfg.Application.MaxBodySize.Int64(),
		MetricsEnabled: cfg.Metrics.Enabled,
	}
}

func (o *Options) applyDefaults(addr string) {
	if o.BaseURL == "" {
		o.BaseURL = "http://" + addr
	}
	if o.ReadTimeout == 0 {
		o.ReadTimeout = 10 * time.Second
	}
	if o.WriteTimeout == 0 {
		o.WriteTimeout = 10 * time.Second
	}
	if o.IdleTimeout == 0 {
		o.IdleTimeout = 60 * time.Second
	}
	if o.RequestTimeout == 0 {
		o.RequestTimeout = 30 * time.Second
	}
	if o.MaxBodySize == 0 {
		o.MaxBodySize = 64 << 10
	}
}
