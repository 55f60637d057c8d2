// Package postgres is the PostgreSQL store of the newsletter service:
// pool creation, embedded schema migrations and the subscription
// repository.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marmos91/newsletter/internal/logger"
	"github.com/marmos91/newsletter/pkg/config"
)

// NewPool creates a connection pool for s.DatabaseName and pings it.
func NewPool(ctx context.Context, s config.DatabaseSettings) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(s.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	if s.MaxConns > 0 {
		poolConfig.MaxConns = s.MaxConns
	}
	poolConfig.MinConns = s.MinConns
	if s.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = s.MaxConnLifetime
	}
	if s.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = s.MaxConnIdleTime
	}
	if s.HealthCheckPeriod > 0 {
		poolConfig.HealthCheckPeriod = s.HealthCheckPeriod
	}

	if s.QueryTimeout > 0 {
		poolConfig.ConnConfig.RuntimeParams["statement_timeout"] = fmt.Sprintf("%dms", s.QueryTimeout.Milliseconds())
	}

	logger.Debug("Creating PostgreSQL connection pool",
		"host", s.Host,
		"port", s.Port,
		logger.KeyDatabase, s.DatabaseName,
		"user", s.Username,
		"max_conns", poolConfig.MaxConns,
		"min_conns", poolConfig.MinConns,
	)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	return pool, nil
}
