package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/marmos91/newsletter/internal/logger"
	"github.com/marmos91/newsletter/pkg/store/postgres/migrations"
)

// MigrationsTable records the applied schema version.
const MigrationsTable = "schema_migrations"

// RunMigrations applies every embedded migration to the database behind
// pool. golang-migrate takes a PostgreSQL advisory lock, so concurrent
// callers against the same database serialize.
//
// The migrate instance borrows one connection from pool and returns it
// before RunMigrations returns.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, dbName string) error {
	m, err := newMigrate(ctx, pool, dbName)
	if err != nil {
		return err
	}
	defer closeMigrate(m, dbName)

	logger.Debug("Applying migrations", logger.KeyDatabase, dbName)

	err = m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		logger.Debug("No migrations to apply", logger.KeyDatabase, dbName)
	case err != nil:
		return fmt.Errorf("migration failed: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get migration version: %w", err)
	}
	if dirty {
		logger.Warn("Database schema is in dirty state", logger.KeyDatabase, dbName, logger.KeyVersion, version)
	} else {
		logger.Debug("Current schema version", logger.KeyDatabase, dbName, logger.KeyVersion, version)
	}

	return nil
}

// MigrationVersion returns the applied schema version. A database with no
// migrations reports version 0.
func MigrationVersion(ctx context.Context, pool *pgxpool.Pool, dbName string) (version uint, dirty bool, err error) {
	m, err := newMigrate(ctx, pool, dbName)
	if err != nil {
		return 0, false, err
	}
	defer closeMigrate(m, dbName)

	version, dirty, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return version, dirty, nil
}

func newMigrate(ctx context.Context, pool *pgxpool.Pool, dbName string) (*migrate.Migrate, error) {
	db := stdlib.OpenDBFromPool(pool)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	driver, err := migratepg.WithInstance(db, &migratepg.Config{
		MigrationsTable: MigrationsTable,
		DatabaseName:    dbName,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}

	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		_ = driver.Close()
		return nil, fmt.Errorf("failed to create source driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		_ = source.Close()
		_ = driver.Close()
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}

// closeMigrate closes the migrate source and driver. The driver owns the
// *sql.DB wrapping pool; closing it hands its connection back to pool.
func closeMigrate(m *migrate.Migrate, dbName string) {
	srcErr, dbErr := m.Close()
	if srcErr != nil || dbErr != nil {
		logger.Warn("Failed to close migrate instance",
			logger.KeyDatabase, dbName,
			"source_error", srcErr,
			"database_error", dbErr)
	}
}
