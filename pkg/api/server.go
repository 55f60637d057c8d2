// Package api is the HTTP service of the newsletter: it wires the store,
// the outbound email client and the metrics registry into a chi router
// served on a caller-provided listener.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/marmos91/newsletter/internal/logger"
	"github.com/marmos91/newsletter/pkg/emailclient"
	promexp "github.com/marmos91/newsletter/pkg/metrics/prometheus"
	"github.com/marmos91/newsletter/pkg/store/postgres"
)

// Server serves the newsletter API on a pre-bound listener.
//
// Endpoints:
//   - GET /health: Liveness probe
//   - GET /health/ready: Readiness probe (pings the pool)
//   - POST /subscriptions: Signup
//   - GET /subscriptions/confirm: Confirmation
//   - GET /metrics: Prometheus metrics (optional)
type Server struct {
	server   *http.Server
	listener net.Listener
	store    *postgres.SubscriptionStore
	registry *prometheus.Registry

	shutdownOnce sync.Once
	closeOnce    sync.Once
}

// Run builds the server on listener. Nothing is served until Serve is
// called; construction errors are returned here.
//
// The caller keeps ownership of pool and listener address; the server
// closes the listener when it stops.
func Run(listener net.Listener, pool *pgxpool.Pool, client *emailclient.Client, opts Options) (*Server, error) {
	if listener == nil {
		return nil, errors.New("api: nil listener")
	}
	if pool == nil {
		return nil, errors.New("api: nil pool")
	}
	if client == nil {
		return nil, errors.New("api: nil email client")
	}

	opts.applyDefaults(listener.Addr().String())

	store, err := postgres.NewSubscriptionStore(pool)
	if err != nil {
		return nil, fmt.Errorf("api: %w", err)
	}

	reg := opts.Registry
	if reg == nil {
		reg = promexp.NewRegistry()
	}
	if err := reg.Register(promexp.NewPoolCollector(pool, opts.DatabaseName)); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("api: register pool collector: %w", err)
	}

	deps := RouterDeps{
		DB:                  pool,
		Store:               store,
		Email:               client,
		BaseURL:             opts.BaseURL,
		RequestTimeout:      opts.RequestTimeout,
		MaxBodySize:         opts.MaxBodySize,
		HTTPMetrics:         promexp.NewHTTPMetrics(reg),
		SubscriptionMetrics: promexp.NewSubscriptionMetrics(reg),
	}
	if opts.MetricsEnabled {
		deps.Registry = reg
	}

	return &Server{
		server: &http.Server{
			Handler:      NewRouter(deps),
			ReadTimeout:  opts.ReadTimeout,
			WriteTimeout: opts.WriteTimeout,
			IdleTimeout:  opts.IdleTimeout,
		},
		listener: listener,
		store:    store,
		registry: reg,
	}, nil
}

// Addr returns the listener address.
func (s *Server) Addr() net.Addr { return s.listener.Addr() }

// Registry returns the server's metrics registry.
func (s *Server) Registry() *prometheus.Registry { return s.registry }

// Serve accepts connections until ctx is cancelled or the server is
// stopped. Cancellation closes the server immediately: open connections
// are dropped and in-flight requests are not drained. Use Stop for a
// graceful shutdown.
//
// Returns nil once stopped, or the accept error that ended serving.
func (s *Server) Serve(ctx context.Context) error {
	logger.Info("API server listening", logger.KeyAddr, s.listener.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		logger.Debug("API server cancelled", logger.KeyAddr, s.listener.Addr().String())
		s.close()
		<-errCh
		return nil
	case err := <-errCh:
		s.closeStore()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("API server failed: %w", err)
	}
}

// Stop gracefully shuts the server down, waiting for in-flight requests
// until ctx expires.
//
// Stop is safe to call multiple times and concurrently with Serve.
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		logger.Debug("API server shutdown initiated")

		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("API server shutdown error: %w", err)
			logger.Error("API server shutdown error", logger.Err(err))
		} else {
			logger.Info("API server stopped gracefully")
		}
		s.closeStore()
	})
	return shutdownErr
}

func (s *Server) close() {
	_ = s.server.Close()
	s.closeStore()
}

func (s *Server) closeStore() {
	s.closeOnce.Do(func() {
		if err := s.store.Close(); err != nil {
			logger.Warn("Failed to close subscription store", logger.Err(err))
		}
	})
}
