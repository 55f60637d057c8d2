package postgres

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/newsletter/pkg/domain"
)

func TestNewPool_UnknownDatabase(t *testing.T) {
	settings := server.Settings.WithDatabase("does-not-exist-" + uuid.NewString())

	_, err := NewPool(context.Background(), settings)
	require.Error(t, err)
	assert.Equal(t, CodeInvalidCatalogName, ErrorCode(err))
}

func TestRunMigrations_CreatesSchema(t *testing.T) {
	ctx := context.Background()
	pool := migratedPool(t)

	for _, table := range []string{"subscriptions", "subscription_tokens", MigrationsTable} {
		var exists bool
		err := pool.QueryRow(ctx,
			"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = 'public' AND table_name = $1)",
			table).Scan(&exists)
		require.NoError(t, err)
		assert.True(t, exists, "table %s", table)
	}

	var nullable string
	err := pool.QueryRow(ctx,
		"SELECT is_nullable FROM information_schema.columns WHERE table_name = 'subscriptions' AND column_name = 'status'").
		Scan(&nullable)
	require.NoError(t, err)
	assert.Equal(t, "NO", nullable)
}

func TestRunMigrations_Idempotent(t *testing.T) {
	ctx := context.Background()
	pool := migratedPool(t)

	var db string
	require.NoError(t, pool.QueryRow(ctx, "SELECT current_database()").Scan(&db))

	require.NoError(t, RunMigrations(ctx, pool, db))

	version, dirty, err := MigrationVersion(ctx, pool, db)
	require.NoError(t, err)
	assert.Equal(t, uint(4), version)
	assert.False(t, dirty)
}

func TestRunMigrations_ReleasesConnection(t *testing.T) {
	pool := migratedPool(t)

	assert.Zero(t, pool.Stat().AcquiredConns())
}

func TestCreateDropDatabase(t *testing.T) {
	ctx := context.Background()
	conn := adminConn(t)
	name := uuid.NewString()

	require.NoError(t, CreateDatabase(ctx, conn, name))
	exists, err := DatabaseExists(ctx, conn, name)
	require.NoError(t, err)
	assert.True(t, exists)

	err = CreateDatabase(ctx, conn, name)
	assert.Equal(t, CodeDuplicateDatabase, ErrorCode(err))

	require.NoError(t, DropDatabase(ctx, conn, name))
	exists, err = DatabaseExists(ctx, conn, name)
	require.NoError(t, err)
	assert.False(t, exists)

	err = DropDatabase(ctx, conn, name)
	assert.Equal(t, CodeInvalidCatalogName, ErrorCode(err))
}

func TestDropDatabase_InUse(t *testing.T) {
	ctx := context.Background()
	settings := freshDatabase(t)

	pool, err := NewPool(ctx, settings)
	require.NoError(t, err)

	err = DropDatabase(ctx, adminConn(t), settings.DatabaseName)
	assert.Equal(t, CodeObjectInUse, ErrorCode(err))

	pool.Close()
}

func newSubscriber(t *testing.T, name, email string) domain.NewSubscriber {
	t.Helper()
	sub, err := domain.ParseNewSubscriber(name, email)
	require.NoError(t, err)
	return sub
}

func newToken(t *testing.T) domain.SubscriptionToken {
	t.Helper()
	tok, err := domain.NewSubscriptionToken()
	require.NoError(t, err)
	return tok
}

func TestSubscriptionStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store, err := NewSubscriptionStore(migratedPool(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	token := newToken(t)
	id, err := store.InsertPendingSubscriber(ctx, newSubscriber(t, "le guin", "ursula@example.com"), token)
	require.NoError(t, err)

	saved, err := store.GetByEmail(ctx, "ursula@example.com")
	require.NoError(t, err)
	assert.Equal(t, id, saved.ID)
	assert.Equal(t, "le guin", saved.Name)
	assert.Equal(t, StatusPendingConfirmation, saved.Status)

	got, err := store.SubscriberIDFromToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	require.NoError(t, store.ConfirmSubscriber(ctx, id))
	require.NoError(t, store.ConfirmSubscriber(ctx, id))

	saved, err = store.GetByEmail(ctx, "ursula@example.com")
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, saved.Status)
}

func TestSubscriptionStore_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	store, err := NewSubscriptionStore(migratedPool(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	sub := newSubscriber(t, "le guin", "dup@example.com")
	_, err = store.InsertPendingSubscriber(ctx, sub, newToken(t))
	require.NoError(t, err)

	_, err = store.InsertPendingSubscriber(ctx, sub, newToken(t))
	assert.ErrorIs(t, err, ErrAlreadyExists)
	assert.Equal(t, CodeUniqueViolation, ErrorCode(err))
}

func TestSubscriptionStore_NotFound(t *testing.T) {
	ctx := context.Background()
	store, err := NewSubscriptionStore(migratedPool(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	_, err = store.SubscriberIDFromToken(ctx, newToken(t))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	err = store.ConfirmSubscriber(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSubscriptionStore_DoesNotPinConnections(t *testing.T) {
	ctx := context.Background()
	pool := migratedPool(t)
	store, err := NewSubscriptionStore(pool)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	_, err = store.InsertPendingSubscriber(ctx, newSubscriber(t, "a", "a@example.com"), newToken(t))
	require.NoError(t, err)
	require.NoError(t, store.Healthcheck(ctx))

	assert.Zero(t, pool.Stat().AcquiredConns())
}
