// Command aiops runs AI operations from the terminal against the configured
// model, reading JSON or YAML input files.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "aiops",
	Short: "Run career AI operations from the command line",
	Long: `aiops runs the same operations the API serves, using the model and
telemetry settings from the environment (.env files are loaded).`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
