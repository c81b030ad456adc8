package ledger

import (
	"github.com/shopspring/decimal"

	"golang-synthetic-ledger/internal/refdata"
	"golang-synthetic-ledger/internal/rng"
)

// allocationWeights split the corporate shared service pool across lines
var allocationWeights = []float64{0.40, 0.25, 0.20, 0.15}

// catClaimTypes is the dominant claim type of a catastrophe per line
var catClaimTypes = map[string]refdata.ClaimType{
	"AUTO":  refdata.ClaimComp,
	"HOME":  refdata.ClaimPD,
	"COMML": refdata.ClaimPD,
}

const (
	catFirstMonth = 4
	catLastMonth  = 9
	cedingRate    = 0.25
)

func isQuarterEnd(month int) bool {
	return month%3 == 0
}

// bookCorporate books allocations, reinsurance, catastrophes and treasury activity
func (g *Generator) bookCorporate(month int) {
	g.bookAllocation(month)
	g.bookQuotaShare(month)
	if isQuarterEnd(month) {
		g.bookCatXOL(month)
	}
	g.bookCatastrophe(month)
	if isQuarterEnd(month) {
		g.bookPriorYearDevelopment(month)
	}
	g.bookInvestments(month)
	g.bookFinancing(month)
}

// bookAllocation books one debit to the corporate pool offset by weighted
// credits to every line; the last line absorbs rounding
func (g *Generator) bookAllocation(month int) {
	total := money(g.positive(400_000, 50_000, 100_000))
	lines := []Line{{Account: refdata.AcctCorporateAlloc, Amount: total, FunctionalArea: "ADM"}}

	allocated := decimal.Zero
	for i, lob := range refdata.LOBs {
		share := money(total.InexactFloat64() * allocationWeights[i])
		if i == len(refdata.LOBs)-1 {
			share = total.Sub(allocated)
		}
		allocated = allocated.Add(share)

		line := g.lobLine(lob, refdata.AllocRecovery(lob))
		line.Amount = share.Neg()
		line.FunctionalArea = "ADM"
		lines = append(lines, line)
	}
	g.journal.Post(month, 28, "AB", withText(lines, "Shared service allocation"), refdata.UserSystem, 0)
}

// bookQuotaShare settles the monthly quota share treaty: ceded premium per line,
// ceding commission and the net payable in one document
func (g *Generator) bookQuotaShare(month int) {
	treaty := refdata.QuotaShare
	var lines []Line
	ceded := decimal.Zero

	for _, lob := range refdata.LOBs {
		amt := money(premiumBase[lob.Code] * 0.20 * g.rng.Uniform(0.9, 1.1))
		line := g.lobLine(lob, refdata.CededPremium(lob))
		line.Amount = amt
		line.TreatyID = treaty.ID
		lines = append(lines, line)
		ceded = ceded.Add(amt)
	}

	commission := money(ceded.InexactFloat64() * cedingRate)
	lines = append(lines,
		Line{Account: refdata.AcctCedingComm, Amount: commission.Neg(), TreatyID: treaty.ID},
		Line{Account: refdata.AcctReinsPayable, Amount: ceded.Sub(commission).Neg(), TreatyID: treaty.ID},
	)
	g.journal.Post(month, 28, "SA", withText(lines, "Quota share settlement"), refdata.UserSystem, 0)
}

// bookCatXOL books the quarterly excess of loss premium for property lines
func (g *Generator) bookCatXOL(month int) {
	treaty := refdata.CatXOL
	var lines []Line
	total := decimal.Zero

	for _, code := range treaty.LOBs {
		lob, _ := refdata.LOBByCode(code)
		amt := money(g.positive(1_500_000, 300_000, 500_000))
		line := g.lobLine(lob, refdata.CededPremium(lob))
		line.Amount = amt
		line.TreatyID = treaty.ID
		lines = append(lines, line)
		total = total.Add(amt)
	}
	lines = append(lines, Line{Account: refdata.AcctReinsPayable, Amount: total.Neg(), TreatyID: treaty.ID})
	g.journal.Post(month, 28, "SA", withText(lines, "Cat XOL premium"), refdata.UserSystem, 0)
}

// bookCatastrophe books a burst of cat losses in an active storm-season month.
// If no month has fired by the end of the window the last month fires.
func (g *Generator) bookCatastrophe(month int) {
	if month < catFirstMonth || month > catLastMonth {
		return
	}
	active := g.rng.Chance(g.cfg.Routing.CatActivationRate)
	if !active && month == catLastMonth && !g.catFired {
		active = true
	}
	if !active {
		return
	}
	g.catFired = true

	exposed := make([]refdata.LOB, 0, 3)
	for _, lob := range refdata.LOBs {
		if lob.CatExposed {
			exposed = append(exposed, lob)
		}
	}
	eventState := rng.Choice(g.rng, refdata.CommercialStates)
	n := g.rng.IntRange(40, 120)
	for i := 0; i < n; i++ {
		lob := rng.Choice(g.rng, exposed)
		day := g.rng.IntRange(1, 28)
		amt := money(g.positive(45_000, 20_000, 1000))
		product := rng.Choice(g.rng, lob.Products)

		loss := g.lobLine(lob, refdata.CatLosses(lob))
		loss.State = eventState
		loss.AccidentYear = g.cfg.FiscalYear
		loss.ClaimType = catClaimTypes[lob.Code].Code
		loss.FinancialProduct = product
		loss.StatutoryLine = refdata.StatutoryLines[product]
		loss.FunctionalArea = "LAE"
		cash := g.lobLine(lob, refdata.AcctClaimsCash)
		cash.State = eventState
		g.journal.Post(month, day, "KR", withText(pair(amt, loss, cash), "Catastrophe claim"), refdata.UserSystem, 0)
	}
}

// bookPriorYearDevelopment books quarterly reserve development, mostly adverse
func (g *Generator) bookPriorYearDevelopment(month int) {
	year := g.cfg.FiscalYear
	for _, lob := range refdata.LOBs {
		amt := money(g.positive(250_000, 100_000, 10_000))
		if !g.rng.Chance(g.cfg.Routing.PriorYearUnfavorableRate) {
			amt = amt.Neg()
		}
		ay := g.rng.IntRange(year-3, year-1)

		dev := g.lobLine(lob, refdata.PriorYearDev(lob))
		dev.AccidentYear = ay
		dev.FunctionalArea = "LAE"
		reserve := g.lobLine(lob, refdata.CaseReserve(lob))
		reserve.AccidentYear = ay
		g.journal.Post(month, 28, "SA", withText(pair(amt, dev, reserve), "Prior year reserve development"), refdata.UserRLopez, 0)
	}
}

// bookInvestments books bond maturities, partnership calls and equity marks
func (g *Generator) bookInvestments(month int) {
	if isQuarterEnd(month) {
		principal := money(g.positive(5_000_000, 1_000_000, 1_000_000))
		gain := money(principal.InexactFloat64() * g.rng.Uniform(0.005, 0.03))
		lines := []Line{
			{Account: refdata.AcctOperatingCash, Amount: principal.Add(gain), FunctionalArea: "INV"},
			{Account: refdata.AcctBondsHTM, Amount: principal.Neg(), FunctionalArea: "INV"},
			{Account: refdata.AcctRealizedGains, Amount: gain.Neg(), FunctionalArea: "INV"},
		}
		g.journal.Post(month, 15, "SA", withText(lines, "Bond maturity"), refdata.UserSystem, 0)

		call := money(g.positive(2_000_000, 500_000, 250_000))
		g.journal.Post(month, 20, "SA", withText(pair(call,
			Line{Account: refdata.AcctLimitedPartners, FunctionalArea: "INV"},
			Line{Account: refdata.AcctOperatingCash, FunctionalArea: "INV"}), "LP capital call"),
			refdata.UserSystem, 0)
	}

	mark := money(g.signed(0, 1_500_000, 1000))
	g.journal.Post(month, 28, "SA", withText(pair(mark,
		Line{Account: refdata.AcctEquities, FunctionalArea: "INV"},
		Line{Account: refdata.AcctAOCI}), "Equity mark-to-market"),
		refdata.UserSystem, 0)
}

// bookFinancing books debt service, amortization, taxes, service fees, bad
// debt and intercompany netting
func (g *Generator) bookFinancing(month int) {
	g.journal.Post(month, 28, "RE", withText(pair(decimal.NewFromInt(125_000),
		Line{Account: refdata.AcctInterestExpense},
		Line{Account: refdata.AcctAccruedDebtInt}), "Senior notes interest accrual"),
		refdata.UserSystem, 0)
	if isQuarterEnd(month) {
		g.journal.Post(month, 28, "KR", withText(pair(decimal.NewFromInt(375_000),
			Line{Account: refdata.AcctAccruedDebtInt},
			Line{Account: refdata.AcctOperatingCash}), "Senior notes coupon payment"),
			refdata.UserSystem, 0)
	}

	g.journal.Post(month, 28, "RE", withText(pair(decimal.RequireFromString("83333.33"),
		Line{Account: refdata.AcctAmortization},
		Line{Account: refdata.AcctSoftware}), "Intangible amortization"),
		refdata.UserSystem, 0)

	if isQuarterEnd(month) {
		deferred := money(g.positive(300_000, 100_000, 10_000))
		g.journal.Post(month, 28, "SA", withText(pair(deferred,
			Line{Account: refdata.AcctDeferredTaxExp},
			Line{Account: refdata.AcctDeferredTaxLiab}), "Deferred tax provision"),
			refdata.UserSystem, 0)
	}

	service := money(g.positive(150_000, 20_000, 50_000))
	g.journal.Post(month, 25, "RE", withText(pair(service,
		Line{Account: refdata.AcctServiceExpense, TradingPartner: refdata.PartnerCompany, FunctionalArea: "ADM"},
		Line{Account: refdata.AcctAccountsPayable, TradingPartner: refdata.PartnerCompany}), "Affiliate service fee"),
		refdata.UserSystem, 0)

	badDebt := money(g.positive(60_000, 15_000, 5_000))
	g.journal.Post(month, 28, "SA", withText(pair(badDebt,
		Line{Account: refdata.AcctBadDebtExpense, FunctionalArea: "ADM"},
		Line{Account: refdata.AcctBadDebtAllowance}), "Bad debt provision"),
		refdata.UserSystem, 0)

	if isQuarterEnd(month) {
		net := money(g.positive(500_000, 100_000, 50_000))
		g.journal.Post(month, 28, "AB", withText(pair(net,
			Line{Account: refdata.AcctICPayable, TradingPartner: refdata.PartnerCompany},
			Line{Account: refdata.AcctICReceivable, TradingPartner: refdata.PartnerCompany}), "Intercompany netting"),
			refdata.UserSystem, 0)
	}
}
