package config

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/newsletter/internal/cli/output"
	"github.com/marmos91/newsletter/pkg/config"
)

var (
	showOutput  string
	showSecrets bool
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the effective configuration",
	Long: `Display the configuration after defaults, the environment overlay
and NEWSLETTER_* overrides are applied. Secrets are redacted unless
--show-secrets is given.

Examples:
  # Show as YAML
  newsletter config show

  # Show as JSON for the production overlay
  NEWSLETTER_ENVIRONMENT=production newsletter config show --output json`,
	RunE: runConfigShow,
}

func init() {
	showCmd.Flags().StringVarP(&showOutput, "output", "o", "yaml", "Output format (yaml|json)")
	showCmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "Print passwords and tokens in clear")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	format, err := output.ParseFormat(showOutput)
	if err != nil {
		return err
	}
	if format == output.FormatTable {
		format = output.FormatYAML
	}

	if !showSecrets {
		cfg.Database.Password = redact(cfg.Database.Password)
		cfg.EmailClient.AuthorizationToken = redact(cfg.EmailClient.AuthorizationToken)
	}

	return output.NewPrinter(cmd.OutOrStdout(), format).Print(cfg)
}

func redact(s config.Secret) config.Secret {
	if s == "" {
		return s
	}
	return config.Secret(s.String())
}
