// Package generator orchestrates a full synthetic ledger run.
//
// A run builds the account master, books a fiscal year of postings from the
// same random stream and derives the trial balance from those postings:
//
//	ds, err := generator.Generate(ctx, &generator.Config{Seed: 42, Profile: "full"})
//
// The same seed and profile always produce the same dataset.
package generator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang-synthetic-ledger/internal/chart"
	"golang-synthetic-ledger/internal/ledger"
	"golang-synthetic-ledger/internal/models"
	"golang-synthetic-ledger/internal/refdata"
	"golang-synthetic-ledger/internal/rng"
	"golang-synthetic-ledger/internal/trialbalance"
	"golang-synthetic-ledger/pkg/errors"
	"golang-synthetic-ledger/pkg/logger"
)

// DefaultSeed is the seed used for the published fixtures
const DefaultSeed int64 = 42

// Config controls a generation run
type Config struct {
	Seed       int64
	Profile    string
	FiscalYear int
	Routing    ledger.Routing

	// Scale and AccountTarget override the profile when positive
	Scale         float64
	AccountTarget int
}

// DefaultConfig returns the configuration of the published full fixtures
func DefaultConfig() *Config {
	return &Config{
		Seed:       DefaultSeed,
		Profile:    ProfileFull,
		FiscalYear: refdata.DefaultYear,
		Routing:    ledger.DefaultRouting(),
	}
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if _, err := LookupProfile(c.Profile); err != nil {
		return err
	}
	if c.Scale < 0 {
		return fmt.Errorf("scale override must not be negative, got %v", c.Scale)
	}
	if c.AccountTarget < 0 {
		return fmt.Errorf("account target override must not be negative, got %d", c.AccountTarget)
	}
	return c.Routing.Validate()
}

// resolved returns the profile with any overrides applied
func (c *Config) resolved() Profile {
	p, _ := LookupProfile(c.Profile)
	if c.Scale > 0 {
		p.Scale = c.Scale
	}
	if c.AccountTarget > 0 {
		p.AccountTarget = c.AccountTarget
	}
	return p
}

// Progress describes how far a run has got
type Progress struct {
	Stage           string
	CompletedSteps  int
	TotalSteps      int
	PercentComplete float64
	Period          int
	Lines           int
	ElapsedTime     time.Duration
}

// ProgressCallback is called after every completed step
type ProgressCallback func(*Progress)

// TotalSteps counts the chart, twelve posting periods and the trial balance
const TotalSteps = 14

// Generator runs the three builders in order
type Generator struct {
	cfg       *Config
	logger    logger.Logger
	callbacks []ProgressCallback

	mu       sync.RWMutex
	progress Progress
	started  time.Time
}

// New creates a generator for cfg
func New(cfg *Config) (*Generator, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.FiscalYear == 0 {
		cfg.FiscalYear = refdata.DefaultYear
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "generator", cfg.Profile, err).
			WithSuggestion(fmt.Sprintf("Use one of the profiles: %v", ProfileNames()))
	}
	return &Generator{
		cfg:      cfg,
		logger:   logger.WithComponent("generator"),
		progress: Progress{TotalSteps: TotalSteps},
	}, nil
}

// AddProgressCallback registers a progress callback
func (g *Generator) AddProgressCallback(cb ProgressCallback) {
	g.callbacks = append(g.callbacks, cb)
}

// CurrentProgress returns a snapshot of the run's progress
func (g *Generator) CurrentProgress() Progress {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.progress
}

// Generate builds the dataset
func (g *Generator) Generate(ctx context.Context) (*models.Dataset, error) {
	profile := g.cfg.resolved()
	g.started = time.Now()

	g.logger.WithFields(logger.Fields{
		"seed":           g.cfg.Seed,
		"profile":        profile.Name,
		"scale":          profile.Scale,
		"account_target": profile.AccountTarget,
		"fiscal_year":    g.cfg.FiscalYear,
	}).Info("Starting ledger generation")

	src := rng.New(g.cfg.Seed)

	accounts := chart.NewBuilder(src, nil).Build(profile.AccountTarget)
	g.updateProgress("Account master built", 1, 0, 0)

	postings, err := ledger.NewGenerator(src, &ledger.Config{
		FiscalYear: g.cfg.FiscalYear,
		Scale:      profile.Scale,
		Routing:    g.cfg.Routing,
		OnPeriod: func(period, lines int) {
			g.updateProgress(fmt.Sprintf("Period %02d booked", period), 1+period, period, lines)
		},
	}).Generate(ctx)
	if err != nil {
		g.logger.WithError(err).Error("Posting generation failed")
		return nil, err
	}

	tb := trialbalance.Derive(g.cfg.Seed, g.cfg.FiscalYear, accounts, postings)
	g.updateProgress("Trial balance derived", TotalSteps, 12, len(postings))

	ds := &models.Dataset{
		Seed:         g.cfg.Seed,
		Profile:      profile.Name,
		FiscalYear:   g.cfg.FiscalYear,
		Accounts:     accounts,
		Postings:     postings,
		TrialBalance: tb,
	}

	g.logger.WithFields(logger.Fields{
		"accounts":      len(accounts),
		"inactive":      ds.InactiveAccounts(),
		"posting_lines": len(postings),
		"documents":     ds.DocumentCount(),
		"tb_rows":       len(tb),
		"elapsed":       time.Since(g.started),
	}).Info("Ledger generation completed")
	return ds, nil
}

func (g *Generator) updateProgress(stage string, completed, period, lines int) {
	g.mu.Lock()
	g.progress.Stage = stage
	g.progress.CompletedSteps = completed
	g.progress.Period = period
	g.progress.Lines = lines
	g.progress.ElapsedTime = time.Since(g.started)
	g.progress.PercentComplete = float64(completed) / float64(g.progress.TotalSteps) * 100
	snapshot := g.progress
	g.mu.Unlock()

	for _, cb := range g.callbacks {
		cb(&snapshot)
	}
}

// Generate is a convenience wrapper around New(cfg).Generate
func Generate(ctx context.Context, cfg *Config) (*models.Dataset, error) {
	g, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return g.Generate(ctx)
}
