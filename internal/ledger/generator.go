package ledger

import (
	"context"
	"math"

	"golang-synthetic-ledger/internal/models"
	"golang-synthetic-ledger/internal/patterns"
	"golang-synthetic-ledger/internal/rng"
	apperrors "golang-synthetic-ledger/pkg/errors"
	"golang-synthetic-ledger/pkg/logger"
)

// Generator books a fiscal year of postings. It owns its journal and is not
// safe for concurrent use.
type Generator struct {
	cfg     *Config
	rng     *rng.Source
	journal *Journal
	logger  logger.Logger

	table           []patterns.Pattern
	pendingReversal []Line
	surgeTurn       int
	catFired        bool
	reversalMonths  map[int]bool
}

// NewGenerator creates a generator drawing from src
func NewGenerator(src *rng.Source, cfg *Config) *Generator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Generator{
		cfg:     cfg,
		rng:     src,
		journal: NewJournal(cfg.FiscalYear, EstimatedLines(cfg.Scale)),
		logger:  logger.WithComponent("ledger"),
		table:   patterns.All(),
	}
}

// Generate books all twelve periods and returns the postings in document order
func (g *Generator) Generate(ctx context.Context) ([]models.Posting, error) {
	if err := g.cfg.Validate(); err != nil {
		return nil, apperrors.ConfigurationError(apperrors.CodeInvalidConfig, "ledger", g.cfg.Scale, err)
	}

	g.planPartialReversals()

	for month := 1; month <= 12; month++ {
		if err := ctx.Err(); err != nil {
			return nil, apperrors.InternalError(apperrors.CodeCancelled, "generate postings", err)
		}

		before := len(g.journal.Postings())
		g.bookPendingReversal(month)
		g.bookOperations(month)
		g.bookCorporate(month)
		g.bookPatterns(month)
		g.bookKeyPerson(month)
		g.bookYearEnd(month)

		lines := len(g.journal.Postings())
		g.logger.WithFields(logger.Fields{
			"period":    month,
			"lines":     lines - before,
			"documents": g.journal.Documents(),
		}).Debug("Period booked")
		if g.cfg.OnPeriod != nil {
			g.cfg.OnPeriod(month, lines)
		}
	}

	if err := g.journal.Err(); err != nil {
		return nil, err
	}

	postings := g.journal.Postings()
	g.logger.WithFields(logger.Fields{
		"lines":     len(postings),
		"documents": g.journal.Documents(),
	}).Info("Postings generated")
	return postings, nil
}

// Generate is a convenience wrapper around NewGenerator(src, cfg).Generate
func Generate(ctx context.Context, src *rng.Source, cfg *Config) ([]models.Posting, error) {
	return NewGenerator(src, cfg).Generate(ctx)
}

// volume scales a full-size range draw, never below one document
func (g *Generator) volume(v volumeRange) int {
	n := int(math.Round(float64(g.rng.IntRange(v.lo, v.hi)) * g.cfg.Scale))
	if n < 1 {
		return 1
	}
	return n
}

// entryOffset decides whether an operational document is keyed late
func (g *Generator) entryOffset() int {
	if g.rng.Chance(g.cfg.Routing.BackdateRate) {
		return g.rng.IntRange(1, 10)
	}
	return 0
}

// positive draws from a gaussian and keeps the result at or above floor
func (g *Generator) positive(mu, sigma, floor float64) float64 {
	v := g.rng.Gauss(mu, sigma)
	if v < floor {
		return floor + g.rng.Float64()*floor
	}
	return v
}

// signed draws from a gaussian and keeps the magnitude at or above floor
func (g *Generator) signed(mu, sigma, floor float64) float64 {
	v := g.rng.Gauss(mu, sigma)
	if math.Abs(v) < floor {
		if v < 0 {
			return -floor
		}
		return floor
	}
	return v
}

// vary returns base moved by up to variance in either direction
func (g *Generator) vary(base float64, variance float64) float64 {
	return base * (1 + g.rng.Uniform(-variance, variance))
}
