// Package testapp runs the newsletter service against a throwaway
// PostgreSQL database for integration tests.
//
// Every TestApp gets its own database, named after a fresh UUID and
// migrated to the latest schema, and its own HTTP listener on an
// ephemeral loopback port. Shutdown stops the service and drops the
// database; drop failures are logged, never returned.
//
// Set TEST_LOG to see service logs (TEST_LOG_LEVEL picks the level).
package testapp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marmos91/newsletter/internal/logger"
	"github.com/marmos91/newsletter/pkg/api"
	"github.com/marmos91/newsletter/pkg/config"
	"github.com/marmos91/newsletter/pkg/emailclient"
	"github.com/marmos91/newsletter/pkg/store/postgres"
)

var errAdminClosed = errors.New("admin connection closed")

// adminTimeout bounds the DROP DATABASE issued by Shutdown.
const adminTimeout = 30 * time.Second

// loadSettings is swapped by tests to inject configurations.
var loadSettings = func() (*config.Config, error) {
	return config.Load("")
}

// TestApp is a running service bound to its own database.
type TestApp struct {
	// HTTPEndpoint is http://127.0.0.1:<Port>.
	HTTPEndpoint string
	Port         int

	// Pool is shared with the running service.
	Pool *pgxpool.Pool

	// Mail captures the email the service sends.
	Mail *MailStub

	// Config is the loaded configuration with the database name replaced.
	Config config.Config

	client    *http.Client
	adminConn *pgx.Conn
	dbName    string
	task      *ServiceTask

	mu     sync.Mutex
	closed bool
}

// Startup is Spawn for tests: any error aborts the test.
func Startup(tb testing.TB) *TestApp {
	tb.Helper()

	app, err := Spawn(context.Background())
	if err != nil {
		tb.Fatalf("failed to start test app: %v", err)
	}
	return app
}

// Spawn provisions a database, starts the mail stub and launches the
// service. It returns once the service goroutine is running; the
// listener is bound before that, so requests can be sent right away.
func Spawn(ctx context.Context) (*TestApp, error) {
	ensureDiagnostics()

	loaded, err := loadSettings()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	cfg := *loaded

	dbName := uuid.NewString()
	cfg.Database = cfg.Database.WithDatabase(dbName)

	adminConn, pool, err := provisionDatabase(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("provision database %s: %w", dbName, err)
	}

	app := &TestApp{
		Pool:      pool,
		Mail:      NewMailStub(),
		adminConn: adminConn,
		dbName:    dbName,
		client:    &http.Client{Timeout: 30 * time.Second},
	}

	if err := app.launch(&cfg); err != nil {
		app.Shutdown()
		app.Close()
		return nil, err
	}
	app.Config = cfg

	logger.Info("Test app started", logger.Database(dbName), logger.KeyAddr, app.HTTPEndpoint)
	return app, nil
}

func (app *TestApp) launch(cfg *config.Config) error {
	cfg.EmailClient.BaseURL = app.Mail.URL()
	client, err := emailclient.FromSettings(cfg.EmailClient)
	if err != nil {
		return fmt.Errorf("invalid sender email: %w", err)
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("bind listener: %w", err)
	}
	app.Port = listener.Addr().(*net.TCPAddr).Port
	app.HTTPEndpoint = fmt.Sprintf("http://127.0.0.1:%d", app.Port)

	opts := api.OptionsFromConfig(cfg)
	opts.BaseURL = app.HTTPEndpoint
	opts.MetricsEnabled = true

	task, err := launchService(listener, app.Pool, client, opts)
	if err != nil {
		_ = listener.Close()
		return fmt.Errorf("launch service: %w", err)
	}
	app.task = task
	return nil
}

// DatabaseName returns the name of the database owned by app.
func (app *TestApp) DatabaseName() string { return app.dbName }

// Shutdown stops the service, closes the pool and drops the database.
//
// It never fails: a drop error is logged with the database name and the
// SQLSTATE and then ignored. Calling it again repeats the drop, which then
// fails with invalid_catalog_name and is logged the same way.
func (app *TestApp) Shutdown() {
	app.mu.Lock()
	defer app.mu.Unlock()

	app.task.Cancel()
	app.Pool.Close()
	if app.Mail != nil {
		app.Mail.Close()
	}

	if app.closed {
		logger.Warn("Failed to drop database",
			logger.Database(app.dbName),
			logger.Err(errAdminClosed),
		)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), adminTimeout)
	defer cancel()

	if err := postgres.DropDatabase(ctx, app.adminConn, app.dbName); err != nil {
		logger.Warn("Failed to drop database",
			logger.Database(app.dbName),
			logger.Code(postgres.ErrorCode(err)),
			logger.Err(err),
		)
		return
	}
	logger.Debug("Dropped test database", logger.Database(app.dbName))
}

// Close releases the admin connection. Call it after Shutdown; a later
// Shutdown only logs that the database can no longer be dropped.
func (app *TestApp) Close() {
	app.mu.Lock()
	defer app.mu.Unlock()

	if app.closed {
		return
	}
	app.closed = true

	ctx, cancel := context.WithTimeout(context.Background(), adminTimeout)
	defer cancel()
	if err := app.adminConn.Close(ctx); err != nil {
		logger.Warn("Failed to close admin connection", logger.Database(app.dbName), logger.Err(err))
	}
}

// Get issues GET HTTPEndpoint+path.
func (app *TestApp) Get(path string) (*http.Response, error) {
	return app.client.Get(app.HTTPEndpoint + path)
}

// PostSubscriptions posts a form-encoded body to /subscriptions.
func (app *TestApp) PostSubscriptions(body string) (*http.Response, error) {
	return app.client.Post(app.HTTPEndpoint+"/subscriptions",
		"application/x-www-form-urlencoded", strings.NewReader(body))
}
