package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/newsletter/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Load the configuration and report validation errors, including an
unparseable email_client.sender_email.

Examples:
  newsletter config validate --config ./configuration/config.yaml`,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}
	if _, err := cfg.EmailClient.Sender(); err != nil {
		return fmt.Errorf("invalid sender email: %w", err)
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Configuration is valid")
	return nil
}
