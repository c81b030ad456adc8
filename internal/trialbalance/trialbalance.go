// Package trialbalance derives per-account, per-period balances from posting detail.
package trialbalance

import (
	"sort"

	"github.com/shopspring/decimal"

	"golang-synthetic-ledger/internal/models"
	"golang-synthetic-ledger/internal/refdata"
	"golang-synthetic-ledger/internal/rng"
	"golang-synthetic-ledger/pkg/logger"
)

// OpeningSeedOffset separates the opening balance stream from the posting stream
const OpeningSeedOffset = 5000

// Periods in a fiscal year
const Periods = 12

// openingRange is a signed uniform range for a period-one opening balance
type openingRange struct {
	lo, hi float64
}

// openingRanges by account group. Debit balances are positive, credit balances negative.
var openingRanges = map[string]openingRange{
	"CASH":  {50_000_000, 200_000_000},
	"INVST": {100_000_000, 800_000_000},
	"PREC":  {20_000_000, 120_000_000},
	"SUSP":  {500_000, 3_000_000},
	"DAC":   {10_000_000, 60_000_000},
	"PREP":  {1_000_000, 10_000_000},
	"FIXED": {5_000_000, 40_000_000},
	"INTAN": {5_000_000, 25_000_000},
	"IC":    {1_000_000, 15_000_000},
	"AINC":  {2_000_000, 12_000_000},
	"DTA":   {3_000_000, 20_000_000},
	"ALLOW": {-5_000_000, -1_000_000},
	"MISC":  {100_000, 5_000_000},
	"LRSV":  {-400_000_000, -50_000_000},
	"UPR":   {-200_000_000, -40_000_000},
	"AP":    {-30_000_000, -5_000_000},
	"TAX":   {-20_000_000, -2_000_000},
	"ACCR":  {-15_000_000, -2_000_000},
	"REIN":  {-60_000_000, -10_000_000},
	"DEBT":  {-300_000_000, -100_000_000},
	"SALV":  {5_000_000, 25_000_000},
	"EQTY":  {-500_000_000, -50_000_000},
}

// typeRanges cover balance sheet accounts whose group has no dedicated range
var typeRanges = map[models.AccountType]openingRange{
	models.AccountTypeAsset:     {100_000, 10_000_000},
	models.AccountTypeLiability: {-10_000_000, -100_000},
	models.AccountTypeEquity:    {-50_000_000, -1_000_000},
}

// Deriver aggregates postings into trial balance rows
type Deriver struct {
	rng        *rng.Source
	fiscalYear int
	logger     logger.Logger
}

// NewDeriver creates a deriver whose opening balances are drawn from src
func NewDeriver(src *rng.Source, fiscalYear int) *Deriver {
	return &Deriver{
		rng:        src,
		fiscalYear: fiscalYear,
		logger:     logger.WithComponent("trialbalance"),
	}
}

// Derive builds the trial balance for the run seeded with seed
func Derive(seed int64, fiscalYear int, accounts []models.Account, postings []models.Posting) []models.TrialBalanceRow {
	return NewDeriver(rng.New(seed+OpeningSeedOffset), fiscalYear).Derive(accounts, postings)
}

type movement struct {
	debits  decimal.Decimal
	credits decimal.Decimal
}

// Derive returns one row per account and period, ordered by account then period.
// Accounts referenced by postings but missing from the master still get rows.
func (d *Deriver) Derive(accounts []models.Account, postings []models.Posting) []models.TrialBalanceRow {
	movements := make(map[string]*[Periods]movement, len(accounts))
	for i := range postings {
		p := &postings[i]
		if p.FiscalPeriod < 1 || p.FiscalPeriod > Periods {
			continue
		}
		m, ok := movements[p.GLAccount]
		if !ok {
			m = new([Periods]movement)
			movements[p.GLAccount] = m
		}
		slot := &m[p.FiscalPeriod-1]
		if p.DebitCredit == models.Debit {
			slot.debits = slot.debits.Add(p.Amount)
		} else {
			slot.credits = slot.credits.Add(p.Amount)
		}
	}

	sorted := make([]models.Account, len(accounts))
	copy(sorted, accounts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].GLAccount < sorted[j].GLAccount
	})

	// openings are drawn in account order so the stream does not depend on postings
	openings := make(map[string]decimal.Decimal)
	known := make(map[string]bool, len(sorted))
	codes := make([]string, 0, len(sorted))
	for i := range sorted {
		a := &sorted[i]
		if known[a.GLAccount] {
			continue
		}
		known[a.GLAccount] = true
		codes = append(codes, a.GLAccount)
		if a.IsActive && a.AccountType.IsBalanceSheet() {
			openings[a.GLAccount] = d.opening(a)
		}
	}

	orphans := 0
	for code := range movements {
		if !known[code] {
			codes = append(codes, code)
			orphans++
		}
	}
	if orphans > 0 {
		d.logger.WithField("accounts", orphans).Warn("Postings reference accounts missing from the master")
		sort.Strings(codes)
	}

	rows := make([]models.TrialBalanceRow, 0, len(codes)*Periods)
	for _, code := range codes {
		m := movements[code]
		cumulative := decimal.Zero
		for period := 1; period <= Periods; period++ {
			opening := decimal.Zero
			if period == 1 {
				opening = openings[code]
			}
			var mv movement
			if m != nil {
				mv = m[period-1]
			}
			net := mv.debits.Sub(mv.credits)
			cumulative = cumulative.Add(opening).Add(net)

			rows = append(rows, models.TrialBalanceRow{
				CompanyCode:       refdata.CompanyCode,
				FiscalYear:        d.fiscalYear,
				FiscalPeriod:      period,
				GLAccount:         code,
				Currency:          refdata.Currency,
				OpeningBalance:    opening,
				PeriodDebits:      mv.debits,
				PeriodCredits:     mv.credits,
				ClosingBalance:    opening.Add(net),
				CumulativeBalance: cumulative,
			})
		}
	}

	d.logger.WithFields(logger.Fields{
		"accounts": len(codes),
		"rows":     len(rows),
		"openings": len(openings),
	}).Info("Trial balance derived")
	return rows
}

func (d *Deriver) opening(a *models.Account) decimal.Decimal {
	r, ok := openingRanges[a.AccountGroup]
	if !ok {
		r = typeRanges[a.AccountType]
	}
	v := decimal.NewFromFloat(d.rng.Uniform(r.lo, r.hi)).Round(2)
	if v.IsZero() {
		return decimal.NewFromInt(1)
	}
	return v
}
