package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"golang-synthetic-ledger/cmd/ledgergen/config"
	"golang-synthetic-ledger/pkg/errors"
	"golang-synthetic-ledger/pkg/logger"
)

var (
	cfgFile string
	verbose bool
	version = "dev"
	commit  = "unknown"
	date    = "unknown"

	// settings is loaded before every command runs
	settings *config.Settings
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ledgergen",
	Short: "Synthetic insurance general ledger generator",
	Long: `Ledgergen builds a deterministic synthetic general ledger for a property and
casualty insurer: an account master, a year of balanced journal postings with
embedded manual-entry patterns, and the trial balance derived from them.

The same seed always produces the same fixtures.

Examples:
  ledgergen generate --seed 42 --output-dir data/synthetic
  ledgergen generate --profile compact --format csv,jsonl --verify
  ledgergen verify --input-dir data/synthetic
  ledgergen load --input-dir data/synthetic --database fixtures.db
  ledgergen manifest --seed 42
  ledgergen version`,
	Version:           getVersionString(),
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute runs the root command and returns the process exit code.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		return NewCLIErrorHandler().HandleError(err)
	}
	return 0
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "text", "log format: text, json")
}

// initConfig reads in config file and ENV variables.
func initConfig() {
	v := viper.GetViper()
	config.SetDefaults(v)
	config.ConfigureEnv(v)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

// setup binds the running command's flags, reads the config file and installs
// the global logger
func setup(cmd *cobra.Command, args []string) error {
	if err := bindFlags(viper.GetViper(), cmd.Flags()); err != nil {
		return errors.InternalError(errors.CodeUnexpectedError, "flag binding", err)
	}

	if cfgFile != "" {
		if err := viper.ReadInConfig(); err != nil {
			return errors.ConfigurationError(errors.CodeInvalidConfig, "config", cfgFile, err).
				WithSuggestion("Check that the config file exists and is valid YAML, TOML or JSON")
		}
	}

	s, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logCfg, err := config.CreateLoggerConfig(s)
	if err != nil {
		return err
	}
	log, err := logger.NewLogger(logCfg)
	if err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "log", logCfg.Output, err)
	}
	logger.SetGlobalLogger(log)

	if s.Verbose && viper.ConfigFileUsed() != "" {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}

	settings = s
	return nil
}

// bindFlags binds every flag to its settings key. Dashes become underscores,
// log-* flags land under log and *-rate flags under routing.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var bindErr error
	flags.VisitAll(func(f *pflag.Flag) {
		if bindErr != nil || f.Name == "config" || f.Name == "help" || f.Name == "version" {
			return
		}
		if err := v.BindPFlag(flagKey(f.Name), f); err != nil {
			bindErr = err
		}
	})
	return bindErr
}

func flagKey(name string) string {
	switch {
	case strings.HasPrefix(name, "log-"):
		return "log." + strings.ReplaceAll(strings.TrimPrefix(name, "log-"), "-", "_")
	case strings.HasSuffix(name, "-rate"):
		return "routing." + strings.ReplaceAll(name, "-", "_")
	default:
		return strings.ReplaceAll(name, "-", "_")
	}
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = getVersionString()
}

func getVersionString() string {
	if version == "dev" {
		return fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	}
	return version
}
