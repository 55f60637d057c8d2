// Package pgtest starts the PostgreSQL server shared by integration tests.
//
// Set POSTGRES_HOST (and optionally POSTGRES_PORT, POSTGRES_USER,
// POSTGRES_PASSWORD) to use an existing server instead of a container.
package pgtest

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/marmos91/newsletter/pkg/config"
)

const (
	image    = "postgres:16-alpine"
	user     = "newsletter_test"
	password = "newsletter_test"
	database = "newsletter_test"
)

// Server is a running PostgreSQL server.
type Server struct {
	Settings  config.DatabaseSettings
	container *postgres.PostgresContainer
}

// Start returns the external server from POSTGRES_HOST or starts a
// container.
func Start(ctx context.Context) (*Server, error) {
	settings := config.GetDefaultConfig().Database

	if host := os.Getenv("POSTGRES_HOST"); host != "" {
		settings.Host = host
		settings.Port = envInt("POSTGRES_PORT", 5432)
		settings.Username = envOr("POSTGRES_USER", "postgres")
		settings.Password = config.Secret(envOr("POSTGRES_PASSWORD", "password"))
		settings.DatabaseName = envOr("POSTGRES_DATABASE", "postgres")
		return &Server{Settings: settings}, nil
	}

	// PostgreSQL logs "ready to accept connections" once during bootstrap
	// and once when it is actually serving.
	container, err := postgres.Run(ctx,
		image,
		postgres.WithDatabase(database),
		postgres.WithUsername(user),
		postgres.WithPassword(password),
		testcontainers.WithWaitStrategyAndDeadline(5*time.Minute,
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2),
			wait.ForListeningPort("5432/tcp"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	settings.Host = host
	settings.Port = port.Int()
	settings.Username = user
	settings.Password = password
	settings.DatabaseName = database

	return &Server{Settings: settings, container: container}, nil
}

// Setenv exports the server address as NEWSLETTER_DATABASE_* so that
// config.Load picks it up.
func (s *Server) Setenv() {
	_ = os.Setenv("NEWSLETTER_DATABASE_HOST", s.Settings.Host)
	_ = os.Setenv("NEWSLETTER_DATABASE_PORT", strconv.Itoa(s.Settings.Port))
	_ = os.Setenv("NEWSLETTER_DATABASE_USERNAME", s.Settings.Username)
	_ = os.Setenv("NEWSLETTER_DATABASE_PASSWORD", s.Settings.Password.Expose())
	_ = os.Setenv("NEWSLETTER_DATABASE_DATABASE_NAME", s.Settings.DatabaseName)
}

// Terminate stops the container, if one was started.
func (s *Server) Terminate(ctx context.Context) {
	if s.container == nil {
		return
	}
	if err := s.container.Terminate(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to terminate container: %v\n", err)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
