package commands

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marmos91/newsletter/internal/logger"
	"github.com/marmos91/newsletter/internal/telemetry"
	"github.com/marmos91/newsletter/pkg/api"
	"github.com/marmos91/newsletter/pkg/config"
	"github.com/marmos91/newsletter/pkg/emailclient"
	"github.com/marmos91/newsletter/pkg/store/postgres"
)

var startMigrate bool

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the newsletter server",
	Long: `Start the newsletter API server in the foreground.

The server listens on application.host:application.port and stops
gracefully on SIGINT or SIGTERM, waiting up to application.shutdown_timeout
for in-flight requests.

Examples:
  # Start with the configuration found on the search path
  newsletter start

  # Apply pending migrations first
  newsletter start --migrate

  # Start with environment variable overrides
  NEWSLETTER_ENVIRONMENT=production NEWSLETTER_LOGGING_LEVEL=DEBUG newsletter start`,
	RunE: runStart,
}

func init() {
	startCmd.Flags().BoolVar(&startMigrate, "migrate", false, "Apply pending database migrations before serving")
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	if err := InitLogger(cfg); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryCfg := telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "newsletter",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	}
	telemetryShutdown, err := telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(context.Background()); err != nil {
			logger.Error("telemetry shutdown error", logger.Err(err))
		}
	}()

	profilingCfg := telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "newsletter",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	}
	profilingShutdown, err := telemetry.InitProfiling(profilingCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", logger.Err(err))
		}
	}()

	logger.Info("Log level", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	logger.Info("Configuration loaded", "source", getConfigSource(GetConfigFile()))
	if telemetry.IsEnabled() {
		logger.Info("Telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	} else {
		logger.Info("Telemetry disabled")
	}

	client, err := emailclient.FromSettings(cfg.EmailClient)
	if err != nil {
		return fmt.Errorf("invalid sender email: %w", err)
	}

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	if startMigrate {
		if err := postgres.RunMigrations(ctx, pool, cfg.Database.DatabaseName); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	listener, err := net.Listen("tcp", cfg.Application.Address())
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", cfg.Application.Address(), err)
	}

	server, err := api.Run(listener, pool, client, api.OptionsFromConfig(cfg))
	if err != nil {
		_ = listener.Close()
		return err
	}

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- server.Serve(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Server is running. Press Ctrl+C to stop.", logger.KeyAddr, server.Addr().String())

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("Shutdown signal received, initiating graceful shutdown")

		stopCtx, stopCancel := context.WithTimeout(context.Background(), cfg.Application.ShutdownTimeout)
		defer stopCancel()
		if err := server.Stop(stopCtx); err != nil {
			cancel()
			<-serverDone
			return err
		}
		if err := <-serverDone; err != nil {
			return err
		}
		logger.Info("Server stopped gracefully")

	case err := <-serverDone:
		signal.Stop(sigChan)
		if err != nil {
			return err
		}
		logger.Info("Server stopped")
	}

	return nil
}
