package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"golang-synthetic-ledger/cmd/ledgergen/config"
	"golang-synthetic-ledger/internal/generator"
	"golang-synthetic-ledger/internal/models"
	"golang-synthetic-ledger/internal/parsers"
	"golang-synthetic-ledger/internal/store"
	"golang-synthetic-ledger/pkg/errors"
	"golang-synthetic-ledger/pkg/logger"
)

// loadCmd represents the load command
var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load CSV fixtures into a SQLite database",
	Long: `Load reads the CSV fixtures of a directory and replaces the account_master,
postings and trial_balance tables of a SQLite database with them. Every load
is recorded in the load_runs table.

Examples:
  ledgergen load --input-dir data/synthetic --database data/synthetic/fixtures.db
  ledgergen load --input-dir data/compact --profile compact --seed 7`,

	PreRunE: validateLoadFlags,
	RunE:    runLoad,
}

func init() {
	rootCmd.AddCommand(loadCmd)

	f := loadCmd.Flags()
	f.StringP("input-dir", "i", config.DefaultOutputDir, "directory holding the CSV fixtures")
	f.StringP("database", "d", config.DefaultDatabase, "SQLite database file")
	f.Int("batch-size", store.DefaultBatchSize, "rows inserted per transaction")
	f.Int64P("seed", "s", generator.DefaultSeed, "seed the fixtures were generated with, recorded in load_runs")
	f.StringP("profile", "p", generator.ProfileFull, "profile the fixtures were generated with, recorded in load_runs")
}

func validateLoadFlags(cmd *cobra.Command, args []string) error {
	if err := validateDirExists(settings.InputDir, "input directory"); err != nil {
		return err
	}
	if strings.TrimSpace(settings.Database) == "" {
		return errors.ConfigurationError(errors.CodeMissingConfig, "database", "", nil)
	}
	if settings.BatchSize <= 0 {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "batch_size", settings.BatchSize, nil).
			WithSuggestion("use a positive batch size")
	}
	return nil
}

func runLoad(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	log := logger.WithComponent("cli")

	if settings.Verbose {
		fmt.Fprintf(os.Stderr, "Reading fixtures from %s\n", settings.InputDir)
		fmt.Fprintf(os.Stderr, "Database: %s\n", settings.Database)
	}

	ds, err := parsers.ReadFixtureDir(ctx, settings.InputDir)
	if err != nil {
		return err
	}
	ds.Seed = settings.Seed
	ds.Profile = settings.Profile

	st, err := store.Open(settings.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := logger.TimedOperation("migrate", log, st.Migrate); err != nil {
		return err
	}
	st.SetBatchSize(settings.BatchSize)

	run, err := st.LoadDataset(ctx, ds)
	if err != nil {
		return err
	}

	counts, err := st.Counts(ctx)
	if err != nil {
		return err
	}
	preparers, err := st.MJEByPreparer(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Load %s %s in %s\n\n", run.ID, run.Status, run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	for _, table := range models.Tables {
		fmt.Fprintf(tw, "%s\t%d\t\n", table, counts[table])
	}
	tw.Flush()

	fmt.Fprintf(out, "\nMJE lines by preparer:\n")
	for _, p := range preparers {
		fmt.Fprintf(out, "  %-10s %8d\n", p.User, p.Lines)
	}

	if settings.Verbose {
		runs, err := st.LoadRuns(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "\nLoad history (%d runs):\n", len(runs))
		for _, r := range runs {
			fmt.Fprintf(os.Stderr, "  %s  %s  seed=%d profile=%s postings=%d\n",
				r.StartedAt.Format("2006-01-02 15:04:05"), r.Status, r.Seed, r.Profile, r.Postings)
		}
	}
	return nil
}
