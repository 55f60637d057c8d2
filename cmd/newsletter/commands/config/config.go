// Package config implements the configuration subcommands.
package config

import (
	"github.com/spf13/cobra"
)

// Cmd is the config subcommand.
var Cmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
	Long: `Inspect the newsletter configuration.

Use 'newsletter init' to create a new configuration file.

Subcommands:
  validate  Validate configuration file
  show      Display the effective configuration`,
}

func init() {
	Cmd.AddCommand(validateCmd)
	Cmd.AddCommand(showCmd)
}
