package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/cheggaaa/pb/v3"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"golang-synthetic-ledger/cmd/ledgergen/config"
	"golang-synthetic-ledger/internal/generator"
	"golang-synthetic-ledger/internal/ledger"
	"golang-synthetic-ledger/internal/refdata"
	"golang-synthetic-ledger/internal/reporter"
	"golang-synthetic-ledger/internal/validator"
	"golang-synthetic-ledger/pkg/errors"
	"golang-synthetic-ledger/pkg/logger"
)

// generateCmd represents the generate command
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the synthetic ledger fixtures",
	Long: `Generate builds the account master, the posting lines of one fiscal year and
the derived trial balance, then writes one file per table and format plus the
manual journal entry pattern manifest.

Examples:
  # Published fixtures
  ledgergen generate --seed 42 --output-dir data/synthetic

  # Smaller dataset in every format, checked before it is written
  ledgergen generate --profile compact --format csv,jsonl,xlsx --verify

  # Stronger backdating signal
  ledgergen generate --backdate-rate 0.05 --progress`,

	PreRunE: validateGenerateFlags,
	RunE:    runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	r := ledger.DefaultRouting()
	f := generateCmd.Flags()

	// Dataset flags
	f.Int64P("seed", "s", generator.DefaultSeed, "random seed; equal seeds give identical fixtures")
	f.StringP("profile", "p", generator.ProfileFull, "volume profile: "+strings.Join(generator.ProfileNames(), ", "))
	f.Int("fiscal-year", refdata.DefaultYear, "fiscal year of the postings")

	// Output flags
	f.StringP("output-dir", "o", config.DefaultOutputDir, "directory the fixtures are written to")
	f.StringSliceP("format", "f", []string{string(reporter.FormatCSV)}, "output formats: csv, jsonl, xlsx")
	f.Int("concurrency", reporter.DefaultFixtureConfig().Concurrency, "files written in parallel")

	// UI flags
	f.Bool("progress", false, "show a progress bar")
	f.Bool("verify", false, "check the dataset before writing it")
	f.Bool("summary", true, "print a summary when done")
	f.Bool("no-color", false, "disable colored summary output")

	// Routing flags
	f.Float64("claim-type-rate", r.ClaimTypeRate, "share of claim payments routed to claim-type accounts")
	f.Float64("product-account-rate", r.ProductAccountRate, "share of remaining claims routed to product accounts")
	f.Float64("channel-commission-rate", r.ChannelCommissionRate, "share of commissions routed to channel accounts")
	f.Float64("product-commission-rate", r.ProductCommissionRate, "share of remaining commissions routed to product accounts")
	f.Float64("backdate-rate", r.BackdateRate, "share of operational documents entered late")
	f.Float64("suspense-uncleared-rate", r.SuspenseUnclearedRate, "share of suspense receipts left uncleared")
	f.Float64("cat-activation-rate", r.CatActivationRate, "chance of a catastrophe in a season month")
	f.Float64("prior-year-unfavorable-rate", r.PriorYearUnfavorableRate, "chance prior-year development is adverse")

	// Overrides used for quick local runs
	f.Float64("scale", 0, "override the profile's volume multiplier")
	f.Int("account-target", 0, "override the profile's account master size")
	_ = f.MarkHidden("scale")
	_ = f.MarkHidden("account-target")
}

func validateGenerateFlags(cmd *cobra.Command, args []string) error {
	if _, err := config.CreateGeneratorConfig(settings); err != nil {
		return err
	}
	if _, err := config.CreateFixtureConfig(settings); err != nil {
		return err
	}
	if strings.TrimSpace(settings.OutputDir) == "" {
		return errors.ConfigurationError(errors.CodeMissingConfig, "output_dir", "", nil)
	}
	return nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	log := logger.WithComponent("cli")

	genCfg, err := config.CreateGeneratorConfig(settings)
	if err != nil {
		return err
	}
	fixCfg, err := config.CreateFixtureConfig(settings)
	if err != nil {
		return err
	}

	if settings.Verbose {
		fmt.Fprintf(os.Stderr, "Generating ledger...\n")
		fmt.Fprintf(os.Stderr, "Seed: %d\n", genCfg.Seed)
		fmt.Fprintf(os.Stderr, "Profile: %s\n", genCfg.Profile)
		fmt.Fprintf(os.Stderr, "Fiscal year: %d\n", genCfg.FiscalYear)
		fmt.Fprintf(os.Stderr, "Output directory: %s\n", settings.OutputDir)
	}

	gen, err := generator.New(genCfg)
	if err != nil {
		return err
	}

	if settings.Progress {
		bar := pb.New(generator.TotalSteps)
		bar.SetWriter(cmd.ErrOrStderr())
		bar.Start()
		gen.AddProgressCallback(func(p *generator.Progress) {
			bar.SetCurrent(int64(p.CompletedSteps))
		})
		defer bar.Finish()
	}

	ds, err := gen.Generate(ctx)
	if err != nil {
		return err
	}

	if settings.Verify {
		opts, err := config.CreateValidatorOptions(genCfg.Profile)
		if err != nil {
			return err
		}
		if settings.Scale > 0 || settings.AccountTarget > 0 {
			// overridden volumes are not bound by the profile's bands
			opts.MinPostings, opts.AccountMin, opts.AccountMax = 0, 0, 0
		}
		if err := validator.New(opts).Validate(ds); err != nil {
			return err
		}
	}

	var paths map[string]string
	err = logger.TimedOperation("write fixtures", log, func() error {
		var werr error
		paths, werr = reporter.NewFixtureWriter(fixCfg).WriteDataset(ctx, ds, settings.OutputDir)
		return werr
	})
	if err != nil {
		return err
	}
	log.WithField("files", len(paths)).Info("Fixtures written")

	if settings.Verbose {
		fmt.Fprintf(os.Stderr, "\nWrote %d files:\n", len(paths))
		for _, p := range reporter.SortedPaths(paths) {
			fmt.Fprintf(os.Stderr, "  %s\n", p)
		}
	}

	if settings.Summary {
		useColors := !settings.NoColor && !color.NoColor
		if err := reporter.WriteSummary(cmd.OutOrStdout(), ds, useColors); err != nil {
			return errors.FileError(errors.CodeFileWrite, "stdout", err)
		}
	}
	return nil
}
