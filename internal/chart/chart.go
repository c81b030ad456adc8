// Package chart builds the account master: the core insurance chart of
// accounts plus the historical blocks an old ledger accumulates.
package chart

import (
	"fmt"
	"time"

	"golang-synthetic-ledger/internal/models"
	"golang-synthetic-ledger/internal/refdata"
	"golang-synthetic-ledger/internal/rng"
	"golang-synthetic-ledger/pkg/logger"
)

// DefaultTarget is the account count the filler block tops up to
const DefaultTarget = 3100

var coreEffective = time.Date(2012, 1, 1, 0, 0, 0, 0, time.UTC)

type option func(*models.Account)

func reconciled() option {
	return func(a *models.Account) {
		a.IsReconciliationAccount = true
		a.OpenItemManagement = true
	}
}

func statutory(category string) option {
	return func(a *models.Account) { a.StatutoryCategory = category }
}

func functional(area string) option {
	return func(a *models.Account) { a.FunctionalAreaDefault = area }
}

func inactive() option {
	return func(a *models.Account) { a.IsActive = false }
}

func activeIf(active bool) option {
	return func(a *models.Account) { a.IsActive = active }
}

func effective(t time.Time) option {
	return func(a *models.Account) { a.EffectiveFrom = t }
}

func source(system string) option {
	return func(a *models.Account) { a.SourceSystem = system }
}

// untagged strips every modern attribute from a pre-migration account
func untagged() option {
	return func(a *models.Account) {
		a.LineItemDisplay = false
		a.StatutoryCategory = ""
		a.FunctionalAreaDefault = ""
	}
}

// Builder accumulates accounts in insertion order without duplicates
type Builder struct {
	rng      *rng.Source
	logger   logger.Logger
	accounts []models.Account
	index    map[string]int
}

// NewBuilder creates a builder drawing from src
func NewBuilder(src *rng.Source, log logger.Logger) *Builder {
	if log == nil {
		log = logger.WithComponent("chart")
	}
	return &Builder{
		rng:    src,
		logger: log,
		index:  make(map[string]int),
	}
}

// Build constructs the account master and tops it up to target with filler accounts
func Build(src *rng.Source, target int) []models.Account {
	return NewBuilder(src, nil).Build(target)
}

// Build adds every block in a fixed order. The order matters: the blocks draw
// from the shared random source.
func (b *Builder) Build(target int) []models.Account {
	if target <= 0 {
		target = DefaultTarget
	}

	b.addAssets()
	b.addLiabilities()
	b.addEquity()
	b.addRevenue()
	b.addExpenses()
	b.addLOBDetail()
	core := len(b.accounts)

	b.addAcquired()
	b.addDiscontinued()
	b.addLegacy()
	b.addMigration()
	b.addDormant()
	b.addRegulatory()
	historical := len(b.accounts) - core

	b.addFiller(target)

	b.logger.WithFields(logger.Fields{
		"core":       core,
		"historical": historical,
		"filler":     len(b.accounts) - core - historical,
		"total":      len(b.accounts),
	}).Info("Account master built")

	return b.accounts
}

// Has reports whether an account code is already in use
func (b *Builder) Has(code string) bool {
	_, ok := b.index[code]
	return ok
}

// Len returns the number of accounts added so far
func (b *Builder) Len() int {
	return len(b.accounts)
}

// add appends an account unless the code is taken; returns whether it was added
func (b *Builder) add(code, description string, accountType models.AccountType, group string, opts ...option) bool {
	if b.Has(code) {
		return false
	}
	a := models.Account{
		GLAccount:       code,
		Description:     description,
		AccountType:     accountType,
		AccountGroup:    group,
		LineItemDisplay: true,
		IsActive:        true,
		EffectiveFrom:   coreEffective,
		SourceSystem:    refdata.SourceSAP,
	}
	for _, opt := range opts {
		opt(&a)
	}
	b.index[code] = len(b.accounts)
	b.accounts = append(b.accounts, a)
	return true
}

func (b *Builder) addAssets() {
	b.add("100000", "Cash - Operating", models.AccountTypeAsset, "CASH", reconciled())
	b.add("100100", "Cash - Claims", models.AccountTypeAsset, "CASH", reconciled())
	b.add("100200", "Cash - Payroll", models.AccountTypeAsset, "CASH", reconciled())
	b.add("101000", "Short-Term Investments", models.AccountTypeAsset, "INVST")
	b.add("101100", "Fixed Maturity Securities", models.AccountTypeAsset, "INVST")
	b.add("101200", "Equity Securities", models.AccountTypeAsset, "INVST")
	b.add("101300", "Mortgage Loans", models.AccountTypeAsset, "INVST")
	b.add("101400", "Real Estate Investments", models.AccountTypeAsset, "INVST")
	b.add("101500", "Policy Loans", models.AccountTypeAsset, "INVST")
	b.add("101600", "Limited Partnership Interests", models.AccountTypeAsset, "INVST")

	for _, l := range refdata.LOBs {
		b.add(refdata.PremiumReceivable(l), "Premiums Receivable - "+l.Code, models.AccountTypeAsset, "PREC",
			reconciled(), statutory("Premiums"))
		b.add(refdata.AgentsBalances(l), "Agents Balances - "+l.Code, models.AccountTypeAsset, "PREC", reconciled())
	}
	b.add(refdata.AcctSuspense, "Unapplied Cash - Suspense", models.AccountTypeAsset, "SUSP", reconciled())

	b.add("120000", "Reinsurance Recoverables - Paid Losses", models.AccountTypeAsset, "REIN", statutory("Reinsurance"))
	b.add("120100", "Reinsurance Recoverables - Case Reserves", models.AccountTypeAsset, "REIN", statutory("Reinsurance"))
	b.add("120200", "Reinsurance Recoverables - IBNR", models.AccountTypeAsset, "REIN", statutory("Reinsurance"))
	b.add("120300", "Ceded Unearned Premium", models.AccountTypeAsset, "REIN", statutory("Reinsurance"))
	b.add("120400", "Reinsurance Recoverables - LAE", models.AccountTypeAsset, "REIN", statutory("Reinsurance"))

	for _, l := range refdata.LOBs {
		b.add(refdata.DeferredAcqCost(l), "Deferred Acquisition Costs - "+l.Code, models.AccountTypeAsset, "DAC",
			statutory("DAC"))
	}

	b.add("140000", "Furniture and Equipment", models.AccountTypeAsset, "FIXED")
	b.add("140100", "Accumulated Depreciation - F&E", models.AccountTypeAsset, "FIXED")
	b.add("141000", "Software", models.AccountTypeAsset, "FIXED")
	b.add("141100", "Accumulated Amortization - Software", models.AccountTypeAsset, "FIXED")
	b.add("145000", "Goodwill", models.AccountTypeAsset, "INTAN")
	b.add("145100", "Customer Relationships", models.AccountTypeAsset, "INTAN")
	b.add(refdata.AcctSoftware, "Capitalized Software - Intangible", models.AccountTypeAsset, "INTAN")
	b.add("150000", "Prepaid Expenses", models.AccountTypeAsset, "PREP")
	b.add("150100", "Prepaid Reinsurance", models.AccountTypeAsset, "PREP")
	b.add("155000", "Deferred Tax Asset", models.AccountTypeAsset, "DTA", statutory("Deferred Taxes"))
	b.add(refdata.AcctICReceivable, "Intercompany Receivable", models.AccountTypeAsset, "IC", reconciled())
	b.add(refdata.AcctAccruedInvInc, "Accrued Investment Income", models.AccountTypeAsset, "AINC")
	b.add(refdata.AcctAccruedInterest, "Accrued Interest - Bonds", models.AccountTypeAsset, "AINC")
	b.add("180000", "Salvage and Subrogation Receivable", models.AccountTypeAsset, "SALV", statutory("Salvage"))
	b.add(refdata.AcctBadDebtAllowance, "Allowance for Doubtful Premiums", models.AccountTypeAsset, "ALLOW")
}

func (b *Builder) addLiabilities() {
	for _, l := range refdata.LOBs {
		b.add(refdata.CaseReserve(l), "Case Reserves - "+l.Code, models.AccountTypeLiability, "LRSV", statutory("Loss Reserves"))
		b.add(refdata.IBNRReserve(l), "IBNR Reserves - "+l.Code, models.AccountTypeLiability, "LRSV", statutory("Loss Reserves"))
		b.add(refdata.LAEReserve(l), "LAE Reserves - "+l.Code, models.AccountTypeLiability, "LRSV", statutory("LAE Reserves"))
		b.add(refdata.SalvageReserve(l), "Salvage & Subrogation Reserve - "+l.Code, models.AccountTypeLiability, "LRSV",
			statutory("Salvage"))
	}
	for _, l := range refdata.LOBs {
		b.add(refdata.UnearnedPremium(l), "Unearned Premium Reserve - "+l.Code, models.AccountTypeLiability, "UPR",
			statutory("UPR"))
	}

	b.add(refdata.AcctAccountsPayable, "Accounts Payable", models.AccountTypeLiability, "AP", reconciled())
	b.add(refdata.AcctCommPayable, "Commissions Payable", models.AccountTypeLiability, "AP", reconciled())
	b.add(refdata.AcctPremTaxPayable, "Premium Taxes Payable", models.AccountTypeLiability, "TAX")
	b.add("220300", "Federal Income Tax Payable", models.AccountTypeLiability, "TAX")
	b.add(refdata.AcctAccruedExpenses, "Accrued Expenses", models.AccountTypeLiability, "ACCR")
	b.add("220500", "Unearned Revenue - Other", models.AccountTypeLiability, "ACCR")
	b.add(refdata.AcctDeferredTaxLiab, "Deferred Tax Liability", models.AccountTypeLiability, "TAX", statutory("Deferred Taxes"))
	b.add(refdata.AcctReinsPayable, "Reinsurance Payable", models.AccountTypeLiability, "REIN", reconciled(), statutory("Reinsurance"))
	b.add(refdata.AcctICPayable, "Intercompany Payable", models.AccountTypeLiability, "IC", reconciled())
	b.add("250000", "Funds Held Under Reinsurance Treaties", models.AccountTypeLiability, "REIN", statutory("Reinsurance"))
	b.add("260000", "Ceded Reinsurance Premiums Payable", models.AccountTypeLiability, "REIN", statutory("Reinsurance"))
	b.add("270000", "Senior Notes Payable", models.AccountTypeLiability, "DEBT")
	b.add(refdata.AcctAccruedDebtInt, "Accrued Interest - Senior Notes", models.AccountTypeLiability, "DEBT")
}

func (b *Builder) addEquity() {
	b.add(refdata.AcctCommonStock, "Common Stock", models.AccountTypeEquity, "EQTY")
	b.add(refdata.AcctAPIC, "Additional Paid-In Capital", models.AccountTypeEquity, "EQTY")
	b.add(refdata.AcctRetainedEarnings, "Retained Earnings", models.AccountTypeEquity, "EQTY")
	b.add(refdata.AcctAOCI, "Unrealized Gains/Losses - Investments", models.AccountTypeEquity, "EQTY")
	b.add("330000", "Treasury Stock", models.AccountTypeEquity, "EQTY")
}

func (b *Builder) addRevenue() {
	for _, l := range refdata.LOBs {
		b.add(refdata.WrittenPremium(l), "Direct Premiums Written - "+l.Code, models.AccountTypeRevenue, "PREM",
			statutory("Premiums Written"))
		b.add(refdata.EarnedPremium(l), "Direct Premiums Earned - "+l.Code, models.AccountTypeRevenue, "PREM",
			statutory("Premiums Earned"))
		b.add(refdata.CededPremium(l), "Ceded Premiums - "+l.Code, models.AccountTypeRevenue, "PREM",
			statutory("Ceded Premiums"))
		b.add(refdata.NetPremium(l), "Net Premiums Earned - "+l.Code, models.AccountTypeRevenue, "PREM",
			statutory("Net Premiums"))
	}

	b.add(refdata.AcctInvestmentIncome, "Net Investment Income", models.AccountTypeRevenue, "IINC",
		functional("INV"), statutory("Investment Income"))
	b.add(refdata.AcctBondInterest, "Interest Income - Bonds", models.AccountTypeRevenue, "IINC", functional("INV"))
	b.add("410200", "Dividend Income", models.AccountTypeRevenue, "IINC", functional("INV"))
	b.add(refdata.AcctRealizedGains, "Realized Capital Gains", models.AccountTypeRevenue, "IINC", functional("INV"))
	b.add("410400", "Realized Capital Losses", models.AccountTypeRevenue, "IINC", functional("INV"))
	b.add(refdata.AcctConsolidationAdj, "Unrealized Gains - Trading", models.AccountTypeRevenue, "IINC", functional("INV"))
	b.add("420000", "Fee Income", models.AccountTypeRevenue, "OREV")
	b.add("420100", "Service Revenue", models.AccountTypeRevenue, "OREV")
}

func (b *Builder) addExpenses() {
	for _, l := range refdata.LOBs {
		b.add(refdata.LossesIncurred(l), "Losses Incurred - "+l.Code, models.AccountTypeExpense, "LOSS",
			functional("LAE"), statutory("Losses Incurred"))
		b.add(refdata.CaseMovement(l), "Case Reserve Movement - "+l.Code, models.AccountTypeExpense, "LOSS",
			functional("LAE"), statutory("Losses Incurred"))
		b.add(refdata.IBNRMovement(l), "IBNR Reserve Movement - "+l.Code, models.AccountTypeExpense, "LOSS",
			functional("LAE"), statutory("Losses Incurred"))
		b.add(refdata.LAEExpense(l), "Loss Adjustment Expense - "+l.Code, models.AccountTypeExpense, "LOSS",
			functional("LAE"), statutory("LAE"))
		b.add(refdata.SalvageRecovery(l), "Salvage & Subrogation - "+l.Code, models.AccountTypeExpense, "LOSS",
			functional("LAE"), statutory("Salvage"))
		if l.CatExposed {
			b.add(refdata.CatLosses(l), "Catastrophe Losses - "+l.Code, models.AccountTypeExpense, "LOSS",
				functional("LAE"), statutory("Losses Incurred"))
		}
		b.add(refdata.PriorYearDev(l), "Prior Year Reserve Development - "+l.Code, models.AccountTypeExpense, "LOSS",
			functional("LAE"), statutory("Losses Incurred"))
	}

	for _, l := range refdata.LOBs {
		b.add(refdata.Commissions(l), "Agent Commissions - "+l.Code, models.AccountTypeExpense, "AQCST",
			functional("ACQ"), statutory("Commissions"))
		b.add(refdata.ContingentComm(l), "Broker Fees - "+l.Code, models.AccountTypeExpense, "AQCST", functional("ACQ"))
		b.add(refdata.PremiumTaxes(l), "Policy Issuance Costs - "+l.Code, models.AccountTypeExpense, "AQCST", functional("ACQ"))
		b.add(refdata.OtherAcquisition(l), "DAC Amortization - "+l.Code, models.AccountTypeExpense, "AQCST",
			functional("ACQ"), statutory("DAC Amort"))
	}

	opex := []struct {
		code, desc, area string
	}{
		{refdata.AcctClaimsSalaries, "Claims Salaries & Benefits", "CLM"},
		{refdata.AcctClaimsConsulting, "Claims Consulting & Professional", "CLM"},
		{refdata.AcctClaimsTechnology, "Claims Technology", "CLM"},
		{refdata.AcctClaimsTravel, "Claims Travel", "CLM"},
		{refdata.AcctUWSalaries, "Underwriting Salaries & Benefits", "ACQ"},
		{refdata.AcctUWAnalytics, "Underwriting Data & Analytics", "ACQ"},
		{refdata.AcctMarketing, "Marketing & Advertising", "ACQ"},
		{refdata.AcctAdminSalaries, "Admin Salaries & Benefits", "ADM"},
		{refdata.AcctRentOccupancy, "Rent & Occupancy", "ADM"},
		{refdata.AcctDepreciation, "Depreciation & Amortization", "ADM"},
		{refdata.AcctProfessionalFees, "Professional Fees", "ADM"},
		{refdata.AcctTechnology, "Technology & Systems", "ADM"},
		{refdata.AcctOfficeSupplies, "Office Supplies", "ADM"},
		{refdata.AcctTelephone, "Telephone & Communications", "ADM"},
		{"720700", "Postage & Shipping", "ADM"},
		{refdata.AcctInsuranceExp, "Insurance Expense", "ADM"},
		{refdata.AcctMiscAdmin, "Miscellaneous Admin", "ADM"},
		{refdata.AcctInvestmentFees, "Investment Management Fees", "INV"},
		{"730100", "Custodian Fees", "INV"},
	}
	for _, o := range opex {
		b.add(o.code, o.desc, models.AccountTypeExpense, "OPEX", functional(o.area))
	}

	b.add(refdata.AcctPremiumTaxExp, "State Premium Taxes", models.AccountTypeExpense, "TAX", statutory("Taxes"))
	b.add("740100", "Licenses & Fees", models.AccountTypeExpense, "TAX", statutory("Taxes"))
	b.add("740200", "Federal Income Tax", models.AccountTypeExpense, "TAX", statutory("Taxes"))
	b.add("740300", "Guaranty Fund Assessments", models.AccountTypeExpense, "TAX", statutory("Taxes"))
	b.add(refdata.AcctDeferredTaxExp, "Deferred Income Tax Expense", models.AccountTypeExpense, "TAX", statutory("Taxes"))
	b.add(refdata.AcctCedingComm, "Reinsurance Ceding Commission", models.AccountTypeExpense, "REIN", statutory("Reinsurance"))
	b.add("750100", "Reinsurance Premium Expense", models.AccountTypeExpense, "REIN", statutory("Reinsurance"))
	b.add("760000", "Policyholder Dividends", models.AccountTypeExpense, "PHDIV",
		functional("PHD"), statutory("Policyholder Dividends"))
	b.add(refdata.AcctInterestExpense, "Interest Expense - Senior Notes", models.AccountTypeExpense, "FIN")
	b.add(refdata.AcctAmortization, "Amortization of Intangibles", models.AccountTypeExpense, "FIN")
	b.add(refdata.AcctBadDebtExpense, "Bad Debt Expense", models.AccountTypeExpense, "OPEX", functional("ADM"))
	b.add(refdata.AcctCorporateAlloc, "Corporate Shared Service Allocation", models.AccountTypeExpense, "ALLOC", functional("ADM"))
	for _, l := range refdata.LOBs {
		b.add(refdata.AllocRecovery(l), "Allocated Shared Services - "+l.Code, models.AccountTypeExpense, "ALLOC",
			functional("ADM"))
	}
	b.add(refdata.AcctServiceExpense, "Affiliate Service Agreement Expense", models.AccountTypeExpense, "OPEX", functional("ADM"))
}

// addLOBDetail adds product, claim-type, channel and state detail accounts
func (b *Builder) addLOBDetail() {
	for _, l := range refdata.LOBs {
		for slot := 0; slot < 2; slot++ {
			product := l.Products[slot%len(l.Products)]
			b.add(refdata.ProductLossAccount(l, slot), fmt.Sprintf("Losses Incurred - %s - %s", l.Code, product),
				models.AccountTypeExpense, "LOSS", functional("LAE"), statutory("Losses Incurred"))
			b.add(refdata.ProductCommissionAccount(l, slot), fmt.Sprintf("Agent Commissions - %s - %s", l.Code, product),
				models.AccountTypeExpense, "AQCST", functional("ACQ"), statutory("Commissions"))
		}
		for _, ct := range l.ClaimTypes {
			b.add(refdata.ClaimTypeLoss(l, ct), fmt.Sprintf("Claims Paid - %s - %s", l.Code, ct.Code),
				models.AccountTypeExpense, "LOSS", functional("LAE"), statutory("Losses Incurred"))
		}
		for _, ch := range refdata.Channels {
			b.add(refdata.ChannelCommission(l, ch), fmt.Sprintf("Commissions - %s - %s", l.Code, ch.Code),
				models.AccountTypeExpense, "AQCST", functional("ACQ"), statutory("Commissions"))
		}
		if !l.HasStateDetail {
			continue
		}
		for _, st := range l.States {
			si := refdata.StateIndex(st)
			b.add(refdata.StatePremium(l, si), fmt.Sprintf("Premium Written - %s - %s", l.Code, st),
				models.AccountTypeRevenue, "PREM", statutory("Premiums Written"))
			b.add(refdata.StateLoss(l, si), fmt.Sprintf("Loss Incurred - %s - %s", l.Code, st),
				models.AccountTypeExpense, "LOSS", functional("LAE"), statutory("Losses Incurred"))
		}
	}
}
