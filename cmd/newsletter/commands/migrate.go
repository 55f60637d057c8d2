package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/marmos91/newsletter/internal/cli/output"
	"github.com/marmos91/newsletter/internal/logger"
	"github.com/marmos91/newsletter/pkg/config"
	"github.com/marmos91/newsletter/pkg/store/postgres"
)

var migrateOutput string

// migrationStatus is printed once migrations are applied.
type migrationStatus struct {
	Database string `json:"database" yaml:"database"`
	Version  uint   `json:"version" yaml:"version"`
	Dirty    bool   `json:"dirty" yaml:"dirty"`
}

func (s migrationStatus) Headers() []string { return []string{"Database", "Version", "Dirty"} }

func (s migrationStatus) Rows() [][]string {
	return [][]string{{s.Database, strconv.FormatUint(uint64(s.Version), 10), strconv.FormatBool(s.Dirty)}}
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long: `Apply pending migrations to the configured PostgreSQL database.

Examples:
  # Run migrations with default config
  newsletter migrate

  # Run migrations against another host
  NEWSLETTER_DATABASE_HOST=db.internal newsletter migrate`,
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().StringVarP(&migrateOutput, "output", "o", "table", "Output format (table|json|yaml)")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(migrateOutput)
	if err != nil {
		return err
	}

	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	if err := InitLogger(cfg); err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	name := cfg.Database.DatabaseName
	logger.Info("Running database migrations", logger.Database(name))
	if err := postgres.RunMigrations(ctx, pool, name); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	version, dirty, err := postgres.MigrationVersion(ctx, pool, name)
	if err != nil {
		return fmt.Errorf("migration verification failed: %w", err)
	}

	return output.NewPrinter(cmd.OutOrStdout(), format).Print(migrationStatus{
		Database: name,
		Version:  version,
		Dirty:    dirty,
	})
}
