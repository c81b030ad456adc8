package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"golang-synthetic-ledger/cmd/ledgergen/config"
	"golang-synthetic-ledger/internal/generator"
	"golang-synthetic-ledger/internal/parsers"
	"golang-synthetic-ledger/internal/validator"
	"golang-synthetic-ledger/pkg/errors"
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check written fixtures against the ledger invariants",
	Long: `Verify reads the CSV fixtures of a directory and runs every dataset check:
balanced documents, referential closure, the trial balance identity, the
embedded manual entry patterns, the key person signal and the coverage,
volume, dimension and seasonality properties.

Examples:
  ledgergen verify --input-dir data/synthetic
  ledgergen verify --input-dir data/compact --profile compact

  # Skip the profile's volume bands, e.g. for scaled down fixtures
  ledgergen verify --input-dir testdata/small --structural`,

	PreRunE: validateVerifyFlags,
	RunE:    runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringP("input-dir", "i", config.DefaultOutputDir, "directory holding the CSV fixtures")
	verifyCmd.Flags().StringP("profile", "p", generator.ProfileFull, "profile whose volume bands apply: "+strings.Join(generator.ProfileNames(), ", "))
	verifyCmd.Flags().Bool("structural", false, "skip the profile's volume bands")
}

func validateVerifyFlags(cmd *cobra.Command, args []string) error {
	if err := validateDirExists(settings.InputDir, "input directory"); err != nil {
		return err
	}
	_, err := verifyOptions()
	return err
}

func verifyOptions() (*validator.Options, error) {
	if settings.Structural {
		return config.CreateValidatorOptions("")
	}
	return config.CreateValidatorOptions(settings.Profile)
}

func runVerify(cmd *cobra.Command, args []string) error {
	opts, err := verifyOptions()
	if err != nil {
		return err
	}

	if settings.Verbose {
		fmt.Fprintf(os.Stderr, "Reading fixtures from %s\n", settings.InputDir)
	}

	ds, err := parsers.ReadFixtureDir(cmd.Context(), settings.InputDir)
	if err != nil {
		return err
	}

	v := validator.New(opts)
	if err := v.Validate(ds); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "OK: %d checks passed (%d accounts, %d posting lines, %d trial balance rows)\n",
		len(v.Checks()), len(ds.Accounts), len(ds.Postings), len(ds.TrialBalance))
	return nil
}

func validateDirExists(dirPath, description string) error {
	if strings.TrimSpace(dirPath) == "" {
		return errors.ConfigurationError(errors.CodeMissingConfig, description, "", nil)
	}

	info, err := os.Stat(dirPath)
	if os.IsNotExist(err) {
		return errors.FileError(errors.CodeDirectoryError, dirPath, err).
			WithSuggestion(fmt.Sprintf("%s does not exist; run 'ledgergen generate' first", description))
	}
	if err != nil {
		return errors.FileError(errors.CodeFilePermission, dirPath, err)
	}
	if !info.IsDir() {
		return errors.FileError(errors.CodeDirectoryError, dirPath, fmt.Errorf("%s is a file, expected a directory", description))
	}
	return nil
}
