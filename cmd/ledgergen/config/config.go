package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"golang-synthetic-ledger/internal/generator"
	"golang-synthetic-ledger/internal/ledger"
	"golang-synthetic-ledger/internal/refdata"
	"golang-synthetic-ledger/internal/reporter"
	"golang-synthetic-ledger/internal/store"
	"golang-synthetic-ledger/internal/validator"
	"golang-synthetic-ledger/pkg/errors"
	"golang-synthetic-ledger/pkg/logger"
)

// EnvPrefix prefixes every environment override, e.g. LEDGERGEN_SEED
const EnvPrefix = "LEDGERGEN"

// Default paths
const (
	DefaultOutputDir = "data/synthetic"
	DefaultDatabase  = "data/synthetic/fixtures.db"
)

// Settings is the merged view of flags, environment and config file
type Settings struct {
	Seed        int64    `mapstructure:"seed"`
	Profile     string   `mapstructure:"profile"`
	FiscalYear  int      `mapstructure:"fiscal_year"`
	OutputDir   string   `mapstructure:"output_dir"`
	InputDir    string   `mapstructure:"input_dir"`
	Formats     []string `mapstructure:"format"`
	Concurrency int      `mapstructure:"concurrency"`
	Verify      bool     `mapstructure:"verify"`
	Structural  bool     `mapstructure:"structural"`
	Progress    bool     `mapstructure:"progress"`
	Summary     bool     `mapstructure:"summary"`
	NoColor     bool     `mapstructure:"no_color"`
	Database    string   `mapstructure:"database"`
	BatchSize   int      `mapstructure:"batch_size"`
	Output      string   `mapstructure:"output"`
	Verbose     bool     `mapstructure:"verbose"`

	// Scale and AccountTarget override the profile when positive
	Scale         float64 `mapstructure:"scale"`
	AccountTarget int     `mapstructure:"account_target"`

	Routing ledger.Routing `mapstructure:"routing"`
	Log     logger.Config  `mapstructure:"log"`
}

// SetDefaults registers the default of every setting
func SetDefaults(v *viper.Viper) {
	v.SetDefault("seed", generator.DefaultSeed)
	v.SetDefault("profile", generator.ProfileFull)
	v.SetDefault("fiscal_year", refdata.DefaultYear)
	v.SetDefault("output_dir", DefaultOutputDir)
	v.SetDefault("input_dir", DefaultOutputDir)
	v.SetDefault("format", []string{string(reporter.FormatCSV)})
	v.SetDefault("concurrency", reporter.DefaultFixtureConfig().Concurrency)
	v.SetDefault("summary", true)
	v.SetDefault("database", DefaultDatabase)
	v.SetDefault("batch_size", store.DefaultBatchSize)

	r := ledger.DefaultRouting()
	v.SetDefault("routing.claim_type_rate", r.ClaimTypeRate)
	v.SetDefault("routing.product_account_rate", r.ProductAccountRate)
	v.SetDefault("routing.channel_commission_rate", r.ChannelCommissionRate)
	v.SetDefault("routing.product_commission_rate", r.ProductCommissionRate)
	v.SetDefault("routing.backdate_rate", r.BackdateRate)
	v.SetDefault("routing.suspense_uncleared_rate", r.SuspenseUnclearedRate)
	v.SetDefault("routing.cat_activation_rate", r.CatActivationRate)
	v.SetDefault("routing.prior_year_unfavorable_rate", r.PriorYearUnfavorableRate)

	l := logger.DefaultConfig()
	v.SetDefault("log.level", string(l.Level))
	v.SetDefault("log.format", string(l.Format))
	v.SetDefault("log.output", string(l.Output))
}

// ConfigureEnv maps LEDGERGEN_ROUTING_BACKDATE_RATE style variables onto keys
func ConfigureEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

// Load decodes the settings held by v
func Load(v *viper.Viper) (*Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "settings", nil, err).
			WithSuggestion("Check the types of the values in the config file and LEDGERGEN_ variables")
	}
	return &s, nil
}

// CreateGeneratorConfig creates the generation configuration
func CreateGeneratorConfig(s *Settings) (*generator.Config, error) {
	cfg := &generator.Config{
		Seed:          s.Seed,
		Profile:       strings.ToLower(strings.TrimSpace(s.Profile)),
		FiscalYear:    s.FiscalYear,
		Routing:       s.Routing,
		Scale:         s.Scale,
		AccountTarget: s.AccountTarget,
	}
	if cfg.FiscalYear < 1900 || cfg.FiscalYear > 9999 {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "fiscal_year", s.FiscalYear,
			fmt.Errorf("fiscal year must be a four digit year"))
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "generator", s.Profile, err).
			WithSuggestion(fmt.Sprintf("Profiles: %s; routing rates must be between 0 and 1",
				strings.Join(generator.ProfileNames(), ", ")))
	}
	return cfg, nil
}

// CreateFixtureConfig creates the fixture writer configuration
func CreateFixtureConfig(s *Settings) (*reporter.FixtureConfig, error) {
	formats, err := reporter.ParseFormats(s.Formats)
	if err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "formats", s.Formats, err).
			WithSuggestion("Valid formats: csv, jsonl, xlsx")
	}

	cfg := reporter.DefaultFixtureConfig()
	cfg.Formats = formats
	cfg.Concurrency = s.Concurrency
	if err := cfg.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "fixtures", s.Formats, err)
	}
	return cfg, nil
}

// CreateValidatorOptions returns the checks' thresholds for a profile. An
// empty profile keeps the default thresholds and skips the volume bands.
func CreateValidatorOptions(profile string) (*validator.Options, error) {
	opts := validator.DefaultOptions()
	if strings.TrimSpace(profile) == "" {
		return opts, nil
	}
	p, err := generator.LookupProfile(profile)
	if err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "profile", profile, err).
			WithSuggestion(fmt.Sprintf("Profiles: %s", strings.Join(generator.ProfileNames(), ", ")))
	}
	opts.MinPostings = p.MinPostings
	opts.AccountMin = p.AccountMin
	opts.AccountMax = p.AccountMax
	return opts, nil
}

// CreateLoggerConfig creates the logger configuration, forcing debug output when verbose
func CreateLoggerConfig(s *Settings) (*logger.Config, error) {
	cfg := s.Log
	if cfg.Level == "" {
		cfg.Level = logger.InfoLevel
	}
	if cfg.Format == "" {
		cfg.Format = logger.TextFormat
	}
	if cfg.Output == "" {
		cfg.Output = logger.StderrOutput
	}
	if s.Verbose {
		debug := logger.DebugConfig()
		cfg.Level = debug.Level
		cfg.CallerInfo = debug.CallerInfo
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "log", cfg.Level, err).
			WithSuggestion("Log levels: debug, info, warn, error; formats: text, json")
	}
	return &cfg, nil
}
