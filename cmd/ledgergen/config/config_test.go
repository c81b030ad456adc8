package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"

	"golang-synthetic-ledger/internal/generator"
	"golang-synthetic-ledger/internal/ledger"
	"golang-synthetic-ledger/internal/reporter"
	"golang-synthetic-ledger/pkg/errors"
	"golang-synthetic-ledger/pkg/logger"
)

func newViper(t *testing.T) *viper.Viper {
	t.Helper()
	v := viper.New()
	SetDefaults(v)
	ConfigureEnv(v)
	return v
}

func mustLoad(t *testing.T, v *viper.Viper) *Settings {
	t.Helper()
	s, err := Load(v)
	if err != nil {
		t.Fatalf("failed to load settings: %v", err)
	}
	return s
}

func TestLoad_Defaults(t *testing.T) {
	s := mustLoad(t, newViper(t))

	if s.Seed != generator.DefaultSeed {
		t.Errorf("expected seed %d, got %d", generator.DefaultSeed, s.Seed)
	}
	if s.Profile != generator.ProfileFull {
		t.Errorf("expected profile %q, got %q", generator.ProfileFull, s.Profile)
	}
	if s.FiscalYear != 2025 {
		t.Errorf("expected fiscal year 2025, got %d", s.FiscalYear)
	}
	if s.OutputDir != DefaultOutputDir {
		t.Errorf("expected output dir %q, got %q", DefaultOutputDir, s.OutputDir)
	}
	if len(s.Formats) != 1 || s.Formats[0] != "csv" {
		t.Errorf("expected formats [csv], got %v", s.Formats)
	}
	if !s.Summary {
		t.Error("expected summary to be enabled by default")
	}
	if s.Routing != ledger.DefaultRouting() {
		t.Errorf("expected default routing, got %+v", s.Routing)
	}
	if s.Log.Level != logger.InfoLevel {
		t.Errorf("expected log level info, got %s", s.Log.Level)
	}
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("LEDGERGEN_SEED", "7")
	t.Setenv("LEDGERGEN_PROFILE", "compact")
	t.Setenv("LEDGERGEN_ROUTING_BACKDATE_RATE", "0.05")
	t.Setenv("LEDGERGEN_LOG_FORMAT", "json")

	s := mustLoad(t, newViper(t))

	if s.Seed != 7 {
		t.Errorf("expected seed 7, got %d", s.Seed)
	}
	if s.Profile != "compact" {
		t.Errorf("expected profile compact, got %q", s.Profile)
	}
	if s.Routing.BackdateRate != 0.05 {
		t.Errorf("expected backdate rate 0.05, got %v", s.Routing.BackdateRate)
	}
	if s.Routing.ClaimTypeRate != ledger.DefaultRouting().ClaimTypeRate {
		t.Errorf("unset routing rates must keep their defaults, got %v", s.Routing.ClaimTypeRate)
	}
	if s.Log.Format != logger.JSONFormat {
		t.Errorf("expected json log format, got %s", s.Log.Format)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledgergen.yaml")
	content := `seed: 99
format: [csv, xlsx]
routing:
  cat_activation_rate: 0.5
log:
  level: warn
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	v := newViper(t)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("failed to read config file: %v", err)
	}
	s := mustLoad(t, v)

	if s.Seed != 99 {
		t.Errorf("expected seed 99, got %d", s.Seed)
	}
	if len(s.Formats) != 2 || s.Formats[1] != "xlsx" {
		t.Errorf("expected formats [csv xlsx], got %v", s.Formats)
	}
	if s.Routing.CatActivationRate != 0.5 {
		t.Errorf("expected cat activation rate 0.5, got %v", s.Routing.CatActivationRate)
	}
	if s.Log.Level != logger.WarnLevel {
		t.Errorf("expected log level warn, got %s", s.Log.Level)
	}
}

func TestCreateGeneratorConfig(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(s *Settings)
		expectError bool
	}{
		{name: "defaults", modify: func(s *Settings) {}},
		{name: "profile is case insensitive", modify: func(s *Settings) { s.Profile = " Compact " }},
		{name: "unknown profile", modify: func(s *Settings) { s.Profile = "huge" }, expectError: true},
		{name: "routing rate above one", modify: func(s *Settings) { s.Routing.BackdateRate = 1.5 }, expectError: true},
		{name: "negative routing rate", modify: func(s *Settings) { s.Routing.ClaimTypeRate = -0.1 }, expectError: true},
		{name: "two digit year", modify: func(s *Settings) { s.FiscalYear = 25 }, expectError: true},
		{name: "negative scale", modify: func(s *Settings) { s.Scale = -1 }, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := mustLoad(t, newViper(t))
			tt.modify(s)

			cfg, err := CreateGeneratorConfig(s)
			if tt.expectError {
				if err == nil {
					t.Fatal("expected error but got none")
				}
				if !errors.HasCode(err, errors.CodeInvalidConfig) {
					t.Errorf("expected invalid_config, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if _, err := generator.LookupProfile(cfg.Profile); err != nil {
				t.Errorf("resolved profile %q is unknown", cfg.Profile)
			}
			if cfg.Seed != s.Seed {
				t.Errorf("expected seed %d, got %d", s.Seed, cfg.Seed)
			}
		})
	}
}

func TestCreateFixtureConfig(t *testing.T) {
	tests := []struct {
		name        string
		formats     []string
		concurrency int
		expected    []reporter.OutputFormat
		expectError bool
	}{
		{name: "csv", formats: []string{"csv"}, concurrency: 4, expected: []reporter.OutputFormat{reporter.FormatCSV}},
		{name: "mixed case", formats: []string{"CSV", "jsonl"}, concurrency: 2,
			expected: []reporter.OutputFormat{reporter.FormatCSV, reporter.FormatJSONL}},
		{name: "unknown format", formats: []string{"parquet"}, concurrency: 4, expectError: true},
		{name: "negative concurrency", formats: []string{"csv"}, concurrency: -1, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := mustLoad(t, newViper(t))
			s.Formats = tt.formats
			s.Concurrency = tt.concurrency

			cfg, err := CreateFixtureConfig(s)
			if tt.expectError {
				if err == nil {
					t.Error("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(cfg.Formats) != len(tt.expected) {
				t.Fatalf("expected formats %v, got %v", tt.expected, cfg.Formats)
			}
			for i := range tt.expected {
				if cfg.Formats[i] != tt.expected[i] {
					t.Errorf("format %d: expected %s, got %s", i, tt.expected[i], cfg.Formats[i])
				}
			}
			if !cfg.WriteManifest {
				t.Error("expected the manifest to be written")
			}
		})
	}
}

func TestCreateValidatorOptions(t *testing.T) {
	opts, err := CreateValidatorOptions("compact")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	compact, _ := generator.LookupProfile("compact")
	if opts.MinPostings != compact.MinPostings {
		t.Errorf("expected min postings %d, got %d", compact.MinPostings, opts.MinPostings)
	}
	if opts.AccountMin != compact.AccountMin || opts.AccountMax != compact.AccountMax {
		t.Errorf("expected account band %d-%d, got %d-%d",
			compact.AccountMin, compact.AccountMax, opts.AccountMin, opts.AccountMax)
	}

	structural, err := CreateValidatorOptions("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if structural.MinPostings != 0 || structural.AccountMin != 0 || structural.AccountMax != 0 {
		t.Errorf("expected volume bands disabled, got %+v", structural)
	}

	if _, err := CreateValidatorOptions("huge"); err == nil {
		t.Error("expected error for unknown profile")
	}
}

func TestCreateLoggerConfig(t *testing.T) {
	s := mustLoad(t, newViper(t))

	cfg, err := CreateLoggerConfig(s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Level != logger.InfoLevel {
		t.Errorf("expected info level, got %s", cfg.Level)
	}

	s.Verbose = true
	cfg, err = CreateLoggerConfig(s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Level != logger.DebugLevel {
		t.Errorf("expected verbose to force debug level, got %s", cfg.Level)
	}
	if !cfg.CallerInfo {
		t.Error("expected verbose to log caller info")
	}

	s.Log.Format = "xml"
	if _, err := CreateLoggerConfig(s); err == nil {
		t.Error("expected error for unknown log format")
	}
}
