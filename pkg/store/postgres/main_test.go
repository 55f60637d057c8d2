package postgres

import (
	"context"
	"flag"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/newsletter/internal/pgtest"
	"github.com/marmos91/newsletter/pkg/config"
)

// Shared PostgreSQL server for all tests in this package
var server *pgtest.Server

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		fmt.Println("skipping PostgreSQL store tests in short mode")
		os.Exit(0)
	}

	ctx := context.Background()
	var err error
	server, err = pgtest.Start(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	exitCode := m.Run()
	server.Terminate(ctx)
	os.Exit(exitCode)
}

// adminConn opens a connection to the server's default database.
func adminConn(t *testing.T) *pgx.Conn {
	t.Helper()
	ctx := context.Background()
	conn, err := pgx.Connect(ctx, server.Settings.ConnectionStringWithoutDB())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close(ctx) })
	return conn
}

// freshDatabase creates an empty database and drops it when the test ends.
func freshDatabase(t *testing.T) config.DatabaseSettings {
	t.Helper()
	ctx := context.Background()
	conn := adminConn(t)

	settings := server.Settings.WithDatabase(uuid.NewString())
	require.NoError(t, CreateDatabase(ctx, conn, settings.DatabaseName))
	t.Cleanup(func() {
		if err := DropDatabase(ctx, conn, settings.DatabaseName); err != nil {
			t.Logf("drop %s: %v", settings.DatabaseName, err)
		}
	})
	return settings
}

// migratedPool returns a pool on a fresh, fully migrated database.
func migratedPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()
	settings := freshDatabase(t)

	pool, err := NewPool(ctx, settings)
	require.NoError(t, err)
	// Registered after freshDatabase, so it runs before the drop.
	t.Cleanup(pool.Close)

	require.NoError(t, RunMigrations(ctx, pool, settings.DatabaseName))
	return pool
}
