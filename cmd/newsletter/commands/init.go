package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/newsletter/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample newsletter configuration file.

By default, the configuration file is created at $XDG_CONFIG_HOME/newsletter/config.yaml.
Use --config to specify a custom path.

Examples:
  # Initialize with default location
  newsletter init

  # Initialize with custom path
  newsletter init --config ./configuration/config.yaml

  # Force overwrite existing config
  newsletter init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	configFile := GetConfigFile()

	var configPath string
	var err error

	if configFile != "" {
		err = config.InitConfigToPath(configFile, initForce)
		configPath = configFile
	} else {
		configPath, err = config.InitConfig(initForce)
	}

	if err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file created at: %s\n", configPath)
	_, _ = fmt.Fprintln(out, "\nNext steps:")
	_, _ = fmt.Fprintln(out, "  1. Point the database and email_client sections at your services")
	_, _ = fmt.Fprintln(out, "  2. Apply the schema with: newsletter migrate")
	_, _ = fmt.Fprintf(out, "  3. Start the server with: newsletter start --config %s\n", configPath)
	_, _ = fmt.Fprintln(out, "\nSecrets can be overridden from the environment:")
	_, _ = fmt.Fprintf(out, "    export %s_DATABASE_PASSWORD=...\n", config.EnvPrefix)
	_, _ = fmt.Fprintf(out, "    export %s_EMAIL_CLIENT_AUTHORIZATION_TOKEN=...\n", config.EnvPrefix)

	return nil
}
