package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"career-backend/internal/aiops/normalize"
	"career-backend/internal/extract"
)

//nolint:gochecknoglobals // Cobra boilerplate
var extractJSONCmd = &cobra.Command{
	Use:   "extract-json [file]",
	Short: "Pull the JSON payload out of raw model output",
	Long: `Reads raw model output (a file, or stdin when no file is given), strips
fences and surrounding prose, removes control characters and prints the
JSON the operations would parse.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExtractJSON,
}

//nolint:gochecknoglobals // Cobra boilerplate
var extractTextCmd = &cobra.Command{
	Use:   "extract-text <file>",
	Short: "Print the text extracted from a PDF or DOCX CV",
	Args:  cobra.ExactArgs(1),
	RunE:  runExtractText,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(extractJSONCmd, extractTextCmd)
}

func runExtractJSON(cmd *cobra.Command, args []string) error {
	var (
		data []byte
		err  error
	)
	if len(args) == 1 {
		data, err = os.ReadFile(args[0])
	} else {
		data, err = readAll(cmd.InOrStdin())
	}
	if err != nil {
		return errors.Wrap(err, "failed to read model output")
	}
	cleaned := normalize.Clean(string(data))
	if cleaned == "" {
		return errors.New("no JSON found in input")
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), cleaned)
	return err
}

func runExtractText(cmd *cobra.Command, args []string) error {
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "failed to read file")
	}
	text, err := extract.ExtractTextFromBytes(cmd.Context(), data, mimeTypeFor(path), filepath.Base(path))
	if err != nil {
		return errors.Wrapf(err, "failed to extract text from %s", path)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
	return err
}

func mimeTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return "application/pdf"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "application/octet-stream"
	}
}

func readAll(r io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, 10<<20))
}
