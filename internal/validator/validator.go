// Package validator checks a generated dataset against the ledger's structural
// and statistical properties. Every check is independent; Validate runs them
// all and aggregates the failures.
package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"golang-synthetic-ledger/internal/models"
	"golang-synthetic-ledger/internal/patterns"
	"golang-synthetic-ledger/internal/refdata"
	"golang-synthetic-ledger/pkg/errors"
	"golang-synthetic-ledger/pkg/logger"
)

// maxReported caps the per-check violations listed in an error
const maxReported = 10

// Options sets the thresholds of the statistical checks. A zero volume bound disables that bound.
type Options struct {
	MinPostings int
	AccountMin  int
	AccountMax  int

	MinStates        int
	MinDocumentTypes int
	MinInactive      int

	MinProductCoverage   float64
	MinStatutoryCoverage float64
	MinBackdatedRatio    float64
	MinCatSeasonRatio    float64
	MinOpeningRatio      float64

	// Tolerance is the largest document imbalance accepted
	Tolerance decimal.Decimal
}

// DefaultOptions returns the thresholds every profile must meet
func DefaultOptions() *Options {
	return &Options{
		MinStates:            10,
		MinDocumentTypes:     5,
		MinInactive:          5,
		MinProductCoverage:   0.60,
		MinStatutoryCoverage: 0.40,
		MinBackdatedRatio:    0.01,
		MinCatSeasonRatio:    0.80,
		MinOpeningRatio:      0.30,
		Tolerance:            decimal.New(1, -2),
	}
}

// Check is one named property
type Check struct {
	Name string
	Run  func(ds *models.Dataset) error
}

// Validator runs checks over datasets
type Validator struct {
	opts   *Options
	logger logger.Logger
}

// New creates a validator. A nil opts uses DefaultOptions.
func New(opts *Options) *Validator {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &Validator{opts: opts, logger: logger.WithComponent("validator")}
}

// Checks returns every check in the order Validate runs them
func (v *Validator) Checks() []Check {
	o := v.opts
	return []Check{
		{"balanced", func(ds *models.Dataset) error { return CheckBalanced(ds.Postings, o.Tolerance) }},
		{"referential_closure", func(ds *models.Dataset) error { return CheckReferentialClosure(ds.Accounts, ds.Postings) }},
		{"trial_balance_identity", func(ds *models.Dataset) error { return CheckTrialBalanceIdentity(ds.TrialBalance) }},
		{"patterns", func(ds *models.Dataset) error { return CheckPatterns(ds.Postings) }},
		{"key_person_risk", func(ds *models.Dataset) error { return CheckKeyPersonRisk(ds.Postings) }},
		{"coverage", func(ds *models.Dataset) error { return CheckCoverage(ds, o) }},
		{"volume", func(ds *models.Dataset) error { return CheckVolume(ds, o) }},
		{"dimensions", func(ds *models.Dataset) error { return CheckDimensions(ds.Postings, o) }},
		{"seasonality", func(ds *models.Dataset) error { return CheckSeasonality(ds.Postings, o) }},
		{"opening_balances", func(ds *models.Dataset) error { return CheckOpeningBalances(ds, o) }},
		{"source_systems", func(ds *models.Dataset) error { return CheckSourceSystems(ds.Accounts) }},
	}
}

// Validate runs every check and returns the combined violations
func (v *Validator) Validate(ds *models.Dataset) error {
	var failed []string
	var combined error
	for _, c := range v.Checks() {
		err := c.Run(ds)
		if err != nil {
			v.logger.WithField("check", c.Name).WithError(err).Warn("Check failed")
			failed = append(failed, c.Name)
			combined = multierr.Append(combined, fmt.Errorf("%s: %w", c.Name, err))
			continue
		}
		v.logger.WithField("check", c.Name).Debug("Check passed")
	}
	if combined == nil {
		v.logger.WithField("checks", len(v.Checks())).Info("Dataset validated")
		return nil
	}
	return errors.GenerationError(errors.CodeInvariantViolated, strings.Join(failed, ", "), combined).
		WithContext("failed_checks", len(failed))
}

// Validate runs every check with DefaultOptions
func Validate(ds *models.Dataset) error {
	return New(nil).Validate(ds)
}

// CheckBalanced verifies that every document nets to zero
func CheckBalanced(postings []models.Posting, tolerance decimal.Decimal) error {
	sums := make(map[string]decimal.Decimal)
	var order []string
	for i := range postings {
		p := &postings[i]
		if _, ok := sums[p.DocumentNumber]; !ok {
			order = append(order, p.DocumentNumber)
		}
		sums[p.DocumentNumber] = sums[p.DocumentNumber].Add(p.SignedAmount())
	}

	var err error
	reported := 0
	for _, doc := range order {
		if sums[doc].Abs().GreaterThan(tolerance) {
			reported++
			if reported > maxReported {
				continue
			}
			err = multierr.Append(err, errors.GenerationError(errors.CodeUnbalancedDocument, doc,
				fmt.Errorf("signed sum %s", sums[doc].StringFixed(2))))
		}
	}
	if reported > maxReported {
		err = multierr.Append(err, fmt.Errorf("%d more unbalanced documents", reported-maxReported))
	}
	return err
}

// CheckReferentialClosure verifies that every posted account exists in the master
func CheckReferentialClosure(accounts []models.Account, postings []models.Posting) error {
	known := make(map[string]bool, len(accounts))
	for i := range accounts {
		known[accounts[i].GLAccount] = true
	}
	missing := make(map[string]bool)
	for i := range postings {
		if !known[postings[i].GLAccount] {
			missing[postings[i].GLAccount] = true
		}
	}

	codes := sortedKeys(missing)
	var err error
	for i, code := range codes {
		if i == maxReported {
			err = multierr.Append(err, fmt.Errorf("%d more unknown accounts", len(codes)-maxReported))
			break
		}
		err = multierr.Append(err, errors.GenerationError(errors.CodeUnknownAccount, code, nil))
	}
	return err
}

// CheckTrialBalanceIdentity verifies closing = opening + net for every row and
// that the period 12 cumulative balance equals the opening plus all movements
func CheckTrialBalanceIdentity(rows []models.TrialBalanceRow) error {
	type series struct {
		opening    decimal.Decimal
		net        decimal.Decimal
		cumulative decimal.Decimal
		periods    int
	}
	accounts := make(map[string]*series)
	var err error
	for i := range rows {
		r := &rows[i]
		if !r.ClosingBalance.Equal(r.OpeningBalance.Add(r.NetMovement())) {
			err = multierr.Append(err, fmt.Errorf("%s period %d: closing %s != opening %s + net %s",
				r.GLAccount, r.FiscalPeriod, r.ClosingBalance, r.OpeningBalance, r.NetMovement()))
		}
		s, ok := accounts[r.GLAccount]
		if !ok {
			s = &series{}
			accounts[r.GLAccount] = s
		}
		if r.FiscalPeriod == 1 {
			s.opening = r.OpeningBalance
		} else if !r.OpeningBalance.IsZero() {
			err = multierr.Append(err, fmt.Errorf("%s period %d: opening balance %s outside period 1",
				r.GLAccount, r.FiscalPeriod, r.OpeningBalance))
		}
		s.net = s.net.Add(r.NetMovement())
		if r.FiscalPeriod == 12 {
			s.cumulative = r.CumulativeBalance
		}
		s.periods++
	}

	for _, code := range sortedKeys(accounts) {
		s := accounts[code]
		if s.periods != 12 {
			err = multierr.Append(err, fmt.Errorf("%s has %d periods, want 12", code, s.periods))
			continue
		}
		if want := s.opening.Add(s.net); !s.cumulative.Equal(want) {
			err = multierr.Append(err, fmt.Errorf("%s: cumulative %s != opening + movements %s", code, s.cumulative, want))
		}
	}
	return err
}

// CheckPatterns verifies every embedded pattern is detectable at its documented count
func CheckPatterns(postings []models.Posting) error {
	var err error
	for _, p := range patterns.All() {
		for _, d := range p.Detections {
			if n := patterns.Count(postings, d.Filter); n < d.Expected {
				err = multierr.Append(err, fmt.Errorf("pattern %s (%s): found %d lines, want at least %d",
					p.ID, d.Label, n, d.Expected))
			}
		}
	}
	return err
}

// PreparerCount is the manual entry line count of one preparer
type PreparerCount struct {
	User  string
	Lines int
}

// ManualEntryCounts returns manual journal entry lines per preparer, highest first
func ManualEntryCounts(postings []models.Posting) []PreparerCount {
	counts := make(map[string]int)
	for i := range postings {
		if postings[i].DocumentCategory == models.CategoryManual {
			counts[postings[i].UserID]++
		}
	}
	out := make([]PreparerCount, 0, len(counts))
	for user, n := range counts {
		out = append(out, PreparerCount{User: user, Lines: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Lines != out[j].Lines {
			return out[i].Lines > out[j].Lines
		}
		return out[i].User < out[j].User
	})
	return out
}

// CheckKeyPersonRisk verifies the key person leads manual entry volume by the required ratio
func CheckKeyPersonRisk(postings []models.Posting) error {
	counts := ManualEntryCounts(postings)
	if len(counts) == 0 {
		return fmt.Errorf("no manual journal entries")
	}
	if counts[0].User != patterns.KeyPersonUser {
		return fmt.Errorf("top preparer is %s with %d lines, want %s", counts[0].User, counts[0].Lines, patterns.KeyPersonUser)
	}
	if len(counts) > 1 && float64(counts[0].Lines) < patterns.KeyPersonRatio*float64(counts[1].Lines) {
		return fmt.Errorf("%s has %d lines, less than %.1fx %s with %d",
			counts[0].User, counts[0].Lines, patterns.KeyPersonRatio, counts[1].User, counts[1].Lines)
	}
	return nil
}

// CheckCoverage verifies periods, lines of business, states, document types and inactive accounts
func CheckCoverage(ds *models.Dataset, o *Options) error {
	periods := make(map[int]bool)
	lobs := make(map[string]bool)
	states := make(map[string]bool)
	docTypes := make(map[string]bool)
	for i := range ds.Postings {
		p := &ds.Postings[i]
		periods[p.FiscalPeriod] = true
		if p.LOB != "" {
			lobs[p.LOB] = true
		}
		if p.State != "" {
			states[p.State] = true
		}
		docTypes[p.DocumentType] = true
	}
	tbPeriods := make(map[int]bool)
	for i := range ds.TrialBalance {
		tbPeriods[ds.TrialBalance[i].FiscalPeriod] = true
	}

	var err error
	for m := 1; m <= 12; m++ {
		if !periods[m] {
			err = multierr.Append(err, fmt.Errorf("no postings in period %d", m))
		}
		if !tbPeriods[m] {
			err = multierr.Append(err, fmt.Errorf("no trial balance rows in period %d", m))
		}
	}
	for _, lob := range refdata.LOBs {
		if !lobs[lob.Code] {
			err = multierr.Append(err, fmt.Errorf("line of business %s missing from postings", lob.Code))
		}
	}
	if len(states) < o.MinStates {
		err = multierr.Append(err, fmt.Errorf("%d states, want at least %d", len(states), o.MinStates))
	}
	if len(docTypes) < o.MinDocumentTypes {
		err = multierr.Append(err, fmt.Errorf("%d document types, want at least %d", len(docTypes), o.MinDocumentTypes))
	}
	if n := ds.InactiveAccounts(); n < o.MinInactive {
		err = multierr.Append(err, fmt.Errorf("%d inactive accounts, want at least %d", n, o.MinInactive))
	}
	return err
}

// CheckVolume verifies the posting count and the account master band
func CheckVolume(ds *models.Dataset, o *Options) error {
	var err error
	if o.MinPostings > 0 && len(ds.Postings) < o.MinPostings {
		err = multierr.Append(err, fmt.Errorf("%d posting lines, want at least %d", len(ds.Postings), o.MinPostings))
	}
	n := len(ds.Accounts)
	if o.AccountMin > 0 && n < o.AccountMin {
		err = multierr.Append(err, fmt.Errorf("%d accounts, want at least %d", n, o.AccountMin))
	}
	if o.AccountMax > 0 && n > o.AccountMax {
		err = multierr.Append(err, fmt.Errorf("%d accounts, want at most %d", n, o.AccountMax))
	}
	return err
}

// CheckDimensions verifies the insurance tags are populated where expected
func CheckDimensions(postings []models.Posting, o *Options) error {
	var premLoss, premLossProduct, statBase, statTagged int
	var treaty, claimType, channel, productEncoded, explicitProduct int
	docLines := make(map[string]int)

	for i := range postings {
		p := &postings[i]
		code := p.GLAccount
		is400or500 := strings.HasPrefix(code, "400") || strings.HasPrefix(code, "500")
		if is400or500 || strings.HasPrefix(code, "110") {
			premLoss++
			if p.FinancialProduct != "" {
				premLossProduct++
			}
		}
		if is400or500 {
			statBase++
			if p.StatutoryLine != "" {
				statTagged++
			}
		}
		if p.TreatyID != "" {
			treaty++
		}
		if p.ClaimType != "" {
			claimType++
		}
		if p.DistributionChannel != "" {
			channel++
		}
		if p.FinancialProduct != "" {
			explicitProduct++
		}
		if IsProductEncoded(code) {
			productEncoded++
		}
		docLines[p.DocumentNumber]++
	}

	var err error
	if r := ratio(premLossProduct, premLoss); r < o.MinProductCoverage {
		err = multierr.Append(err, fmt.Errorf("financial_product on %.1f%% of premium/loss lines, want %.0f%%",
			r*100, o.MinProductCoverage*100))
	}
	if r := ratio(statTagged, statBase); r < o.MinStatutoryCoverage {
		err = multierr.Append(err, fmt.Errorf("statutory_line on %.1f%% of premium/loss lines, want %.0f%%",
			r*100, o.MinStatutoryCoverage*100))
	}
	for _, c := range []struct {
		name  string
		count int
	}{
		{"treaty_id", treaty},
		{"claim_type", claimType},
		{"distribution_channel", channel},
		{"product-encoded account", productEncoded},
		{"explicit financial_product", explicitProduct},
	} {
		if c.count == 0 {
			err = multierr.Append(err, fmt.Errorf("no postings with %s", c.name))
		}
	}

	multiLine := false
	for _, n := range docLines {
		if n > 5 {
			multiLine = true
			break
		}
	}
	if !multiLine {
		err = multierr.Append(err, fmt.Errorf("no document with more than 5 lines"))
	}
	return err
}

// CheckSeasonality verifies catastrophe concentration and backdating
func CheckSeasonality(postings []models.Posting, o *Options) error {
	var cat, catInSeason, backdated int
	for i := range postings {
		p := &postings[i]
		if IsCatastropheAccount(p.GLAccount) {
			cat++
			if p.FiscalPeriod >= 4 && p.FiscalPeriod <= 9 {
				catInSeason++
			}
		}
		if p.IsBackdated() {
			backdated++
		}
	}

	var err error
	if cat == 0 {
		err = multierr.Append(err, fmt.Errorf("no catastrophe loss postings"))
	} else if r := ratio(catInSeason, cat); r < o.MinCatSeasonRatio {
		err = multierr.Append(err, fmt.Errorf("%.1f%% of catastrophe lines in periods 4-9, want %.0f%%",
			r*100, o.MinCatSeasonRatio*100))
	}
	if r := ratio(backdated, len(postings)); r < o.MinBackdatedRatio {
		err = multierr.Append(err, fmt.Errorf("%.2f%% of lines backdated, want %.0f%%", r*100, o.MinBackdatedRatio*100))
	}
	return err
}

// CheckOpeningBalances verifies active balance sheet accounts open with a balance
func CheckOpeningBalances(ds *models.Dataset, o *Options) error {
	balanceSheet := make(map[string]bool)
	for i := range ds.Accounts {
		a := &ds.Accounts[i]
		if a.IsActive && a.AccountType.IsBalanceSheet() {
			balanceSheet[a.GLAccount] = true
		}
	}
	var rows, nonzero int
	for i := range ds.TrialBalance {
		r := &ds.TrialBalance[i]
		if r.FiscalPeriod != 1 || !balanceSheet[r.GLAccount] {
			continue
		}
		rows++
		if !r.OpeningBalance.IsZero() {
			nonzero++
		}
	}
	if nonzero == 0 {
		return fmt.Errorf("no balance sheet account has an opening balance")
	}
	if r := ratio(nonzero, rows); r < o.MinOpeningRatio {
		return fmt.Errorf("%.1f%% of balance sheet accounts open with a balance, want %.0f%%", r*100, o.MinOpeningRatio*100)
	}
	return nil
}

// CheckSourceSystems verifies the master mixes current, legacy and acquired accounts
func CheckSourceSystems(accounts []models.Account) error {
	sources := make(map[string]bool)
	minYear, maxYear := 0, 0
	for i := range accounts {
		a := &accounts[i]
		if a.SourceSystem != "" {
			sources[a.SourceSystem] = true
		}
		if a.EffectiveFrom.IsZero() {
			continue
		}
		y := a.EffectiveFrom.Year()
		if minYear == 0 || y < minYear {
			minYear = y
		}
		if y > maxYear {
			maxYear = y
		}
	}

	var err error
	for _, s := range []string{refdata.SourceSAP, refdata.SourceLegacy, refdata.SourceAcquired} {
		if !sources[s] {
			err = multierr.Append(err, fmt.Errorf("source system %s missing", s))
		}
	}
	if minYear == 0 || minYear > 2009 {
		err = multierr.Append(err, fmt.Errorf("earliest effective year %d, want 2009 or before", minYear))
	}
	if maxYear < 2020 {
		err = multierr.Append(err, fmt.Errorf("latest effective year %d, want 2020 or later", maxYear))
	}
	return err
}

// IsProductEncoded reports whether code is a 500x70/500x80 or 600x40/600x50 account
func IsProductEncoded(code string) bool {
	if len(code) != 6 || !isDigits(code) {
		return false
	}
	switch code[:3] {
	case "500":
		return (code[4] == '7' || code[4] == '8') && code[5] == '0'
	case "600":
		return (code[4] == '4' || code[4] == '5') && code[5] == '0'
	}
	return false
}

// IsCatastropheAccount reports whether code is a 500x50 account
func IsCatastropheAccount(code string) bool {
	return len(code) == 6 && isDigits(code) && code[:3] == "500" && code[4:] == "50"
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
