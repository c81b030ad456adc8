package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"

	"golang-synthetic-ledger/internal/generator"
	"golang-synthetic-ledger/internal/patterns"
	"golang-synthetic-ledger/internal/refdata"
	"golang-synthetic-ledger/pkg/errors"
)

// manifestCmd represents the manifest command
var manifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "Print the manual journal entry pattern manifest",
	Long: `Manifest renders the answer key of the embedded manual journal entry patterns:
each pattern's accounts, amounts, timing, preparers and the line counts a
detector should find.

Examples:
  ledgergen manifest
  ledgergen manifest --seed 7 --output mje_patterns.md`,

	RunE: runManifest,
}

func init() {
	rootCmd.AddCommand(manifestCmd)

	manifestCmd.Flags().Int64P("seed", "s", generator.DefaultSeed, "seed recorded in the manifest")
	manifestCmd.Flags().Int("fiscal-year", refdata.DefaultYear, "fiscal year recorded in the manifest")
	manifestCmd.Flags().StringP("output", "o", "", "output file path (default: stdout)")
}

func runManifest(cmd *cobra.Command, args []string) error {
	var buf bytes.Buffer
	if err := patterns.WriteManifest(&buf, settings.Seed, settings.FiscalYear); err != nil {
		return errors.InternalError(errors.CodeUnexpectedError, "manifest rendering", err)
	}

	if settings.Output == "" {
		if _, err := cmd.OutOrStdout().Write(buf.Bytes()); err != nil {
			return errors.FileError(errors.CodeFileWrite, "stdout", err)
		}
		return nil
	}

	if err := atomic.WriteFile(settings.Output, &buf); err != nil {
		if os.IsPermission(err) {
			return errors.FileError(errors.CodeFilePermission, settings.Output, err)
		}
		return errors.FileError(errors.CodeFileWrite, settings.Output, err)
	}
	if settings.Verbose {
		fmt.Fprintf(os.Stderr, "Manifest written to %s\n", settings.Output)
	}
	return nil
}
