package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/marmos91/newsletter/internal/cli/output"
)

var (
	versionShort  bool
	versionOutput string
)

// versionInfo is the machine-readable form of the version command.
type versionInfo struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	Built     string `json:"built" yaml:"built"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	Platform  string `json:"platform" yaml:"platform"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  `Display the newsletter version, build information, and system details.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if versionShort {
			_, _ = fmt.Fprintln(out, Version)
			return nil
		}

		format, err := output.ParseFormat(versionOutput)
		if err != nil {
			return err
		}

		info := versionInfo{
			Version:   Version,
			Commit:    Commit,
			Built:     Date,
			GoVersion: runtime.Version(),
			Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		}
		if format != output.FormatTable {
			return output.NewPrinter(out, format).Print(info)
		}

		_, _ = fmt.Fprintf(out, "newsletter %s\n", info.Version)
		return output.PrintKeyValues(out, output.KeyValues{
			{"Commit", info.Commit},
			{"Built", info.Built},
			{"Go version", info.GoVersion},
			{"OS/Arch", info.Platform},
		})
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Show only version number")
	versionCmd.Flags().StringVarP(&versionOutput, "output", "o", "table", "Output format (table|json|yaml)")
}
