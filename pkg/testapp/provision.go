package testapp

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marmos91/newsletter/internal/logger"
	"github.com/marmos91/newsletter/internal/telemetry"
	"github.com/marmos91/newsletter/pkg/config"
	"github.com/marmos91/newsletter/pkg/store/postgres"
)

// provisionDatabase creates settings.DatabaseName on the server, opens a
// pool scoped to it and applies every migration.
//
// The returned admin connection is not bound to the new database and is
// the one later used to drop it. On error nothing is left open.
func provisionDatabase(ctx context.Context, settings config.DatabaseSettings) (admin *pgx.Conn, pool *pgxpool.Pool, err error) {
	name := settings.DatabaseName

	ctx, span := telemetry.StartSpan(ctx, "testapp.provision_database")
	defer func() {
		telemetry.RecordError(ctx, err)
		span.End()
	}()
	telemetry.SetAttributes(ctx, telemetry.DBName(name))

	admin, err = pgx.Connect(ctx, settings.ConnectionStringWithoutDB())
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := postgres.CreateDatabase(ctx, admin, name); err != nil {
		_ = admin.Close(ctx)
		return nil, nil, fmt.Errorf("create database: %w", err)
	}

	pool, err = postgres.NewPool(ctx, settings)
	if err != nil {
		dropQuietly(ctx, admin, name)
		_ = admin.Close(ctx)
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := postgres.RunMigrations(ctx, pool, name); err != nil {
		pool.Close()
		dropQuietly(ctx, admin, name)
		_ = admin.Close(ctx)
		return nil, nil, fmt.Errorf("migrate database: %w", err)
	}

	logger.Debug("Provisioned test database", logger.Database(name))
	return admin, pool, nil
}

func dropQuietly(ctx context.Context, admin *pgx.Conn, name string) {
	if err := postgres.DropDatabase(ctx, admin, name); err != nil {
		logger.Warn("Failed to drop database",
			logger.Database(name),
			logger.Code(postgres.ErrorCode(err)),
			logger.Err(err),
		)
	}
}
