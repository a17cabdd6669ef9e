package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"career-backend/internal/aiops"
	"career-backend/internal/bootstrap"
	"career-backend/internal/shared/config"
)

//nolint:gochecknoglobals // Cobra boilerplate
var (
	inputFile    string
	outputFormat string
	timeout      time.Duration
)

//nolint:gochecknoglobals // Cobra boilerplate
var runCmd = &cobra.Command{
	Use:   "run <operation>",
	Short: "Run one operation with arguments from a file",
	Long: `Runs a single operation. Arguments come from --input (JSON, or YAML
for .yaml/.yml files); use "-" to read JSON from stdin.

Examples:
  aiops run parseCvText --input cv.json
  aiops run generateSpeech --input speech.yaml --output yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runOperation,
}

//nolint:gochecknoglobals // Cobra boilerplate
var operationsCmd = &cobra.Command{
	Use:   "operations",
	Short: "List available operations",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, op := range aiops.Operations() {
			fmt.Fprintln(cmd.OutOrStdout(), op)
		}
		return nil
	},
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(runCmd, operationsCmd)
	runCmd.Flags().StringVarP(&inputFile, "input", "i", "", "input file (.json, .yaml, .yml or - for stdin)")
	runCmd.Flags().StringVarP(&outputFormat, "output", "o", formatJSON, "output format: json or yaml")
	runCmd.Flags().DurationVar(&timeout, "timeout", 3*time.Minute, "overall timeout")
}

func runOperation(cmd *cobra.Command, args []string) (err error) {
	op := args[0]
	if !aiops.Known(op) {
		return errors.Errorf("unknown operation %q (see `aiops operations`)", op)
	}

	var data []byte
	switch inputFile {
	case "":
	case "-":
		data, err = readAll(cmd.InOrStdin())
	default:
		data, err = os.ReadFile(inputFile)
	}
	if err != nil {
		return errors.Wrap(err, "failed to read input")
	}
	input, err := decodeInput(inputFile, data)
	if err != nil {
		return err
	}

	app, err := bootstrap.Build(config.Load())
	if err != nil {
		return errors.Wrap(err, "failed to build app")
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if closeErr := app.Close(closeCtx); closeErr != nil && err == nil {
			err = errors.Wrap(closeErr, "failed to close app")
		}
	}()

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()
	out, err := app.AI.Run(ctx, op, input)
	if err != nil {
		_, code := aiops.StatusFor(err)
		return errors.Wrapf(err, "%s failed (%s)", op, code)
	}
	return encodeOutput(cmd.OutOrStdout(), out, outputFormat)
}
