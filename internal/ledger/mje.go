package ledger

import (
	"golang-synthetic-ledger/internal/patterns"
	"golang-synthetic-ledger/internal/refdata"
	"golang-synthetic-ledger/internal/rng"
)

// surgeUsers take turns booking the year-end adjustments
var surgeUsers = []string{refdata.UserMBrown, refdata.UserAChen, refdata.UserDWilson}

// surgeAccounts are the expense accounts year-end adjustments accrue into
var surgeAccounts = []string{
	refdata.AcctRentOccupancy,
	refdata.AcctClaimsTravel,
	refdata.AcctMarketing,
	"720700",
	refdata.AcctInsuranceExp,
}

var allMonths = []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}

// bookPatterns books every embedded pattern due in the period
func (g *Generator) bookPatterns(month int) {
	for _, p := range g.table {
		switch p.ID {
		case patterns.RecurringIdentical:
			g.bookRecurringIdentical(month, p)
		case patterns.RecurringTemplate:
			g.bookRecurringTemplate(month, p)
		case patterns.Reclassification:
			g.bookReclassification(month, p)
		case patterns.Intercompany:
			g.bookIntercompany(month, p)
		case patterns.AccrualReversal:
			g.bookAccrual(month, p)
		case patterns.Correction:
			g.bookCorrections(month, p)
		case patterns.Consolidation:
			g.bookConsolidation(month, p)
		}
	}
}

func (g *Generator) bookRecurringIdentical(month int, p patterns.Pattern) {
	if !p.FiresIn(month) {
		return
	}
	lines := pair(p.Amount, Line{Account: p.DebitAccount}, Line{Account: p.CreditAccount})
	g.journal.Post(month, p.Day, p.DocType, withText(lines, p.Text), p.User, 0)
}

// bookRecurringTemplate splits the source account into two targets at roughly
// the pattern split
func (g *Generator) bookRecurringTemplate(month int, p patterns.Pattern) {
	if !p.FiresIn(month) {
		return
	}
	total := money(g.vary(p.BaseAmount.InexactFloat64(), p.Variance))
	split := p.Split + g.rng.Uniform(-0.05, 0.05)
	first := money(total.InexactFloat64() * split)
	second := total.Sub(first)

	lines := []Line{
		{Account: p.TargetAccounts[0], Amount: first},
		{Account: p.TargetAccounts[1], Amount: second},
		{Account: p.SourceAccount, Amount: total.Neg()},
	}
	g.journal.Post(month, p.Day, p.DocType, withText(lines, p.Text), p.User, 0)
}

func (g *Generator) bookReclassification(month int, p patterns.Pattern) {
	if !p.FiresIn(month) {
		return
	}
	amt := money(g.vary(p.BaseAmount.InexactFloat64(), p.Variance))
	target := g.lobLine(refdata.Auto, p.TargetAccounts[0])
	source := g.lobLine(refdata.Auto, p.SourceAccount)
	g.journal.Post(month, p.Day, p.DocType, withText(pair(amt, target, source), p.Text), p.User, 0)
}

func (g *Generator) bookIntercompany(month int, p patterns.Pattern) {
	if !p.FiresIn(month) {
		return
	}
	amt := money(g.vary(p.BaseAmount.InexactFloat64(), p.Variance))
	lines := pair(amt,
		Line{Account: p.DebitAccount, TradingPartner: p.TradingPartner},
		Line{Account: p.CreditAccount, TradingPartner: p.TradingPartner, FunctionalArea: "ADM"})
	g.journal.Post(month, p.Day, p.DocType, withText(lines, p.Text), p.User, 0)
}

// bookAccrual accrues at month end. The reversal posts on the first of the
// next period, except December which reverses in period.
func (g *Generator) bookAccrual(month int, p patterns.Pattern) {
	if !p.FiresIn(month) {
		return
	}
	amt := money(g.vary(p.BaseAmount.InexactFloat64(), p.Variance))
	accrual := pair(amt,
		g.lobLine(refdata.Auto, p.DebitAccount),
		g.lobLine(refdata.Auto, p.CreditAccount))
	g.journal.Post(month, p.Day, p.DocType, withText(accrual, p.Text), p.User, 0)

	reversal := pair(amt.Neg(),
		g.lobLine(refdata.Auto, p.DebitAccount),
		g.lobLine(refdata.Auto, p.CreditAccount))
	reversal = withText(reversal, "Reversal: "+p.Text)
	if month == 12 {
		g.journal.Post(month, p.Day, "CL", reversal, p.User, 0)
		return
	}
	g.pendingReversal = reversal
}

// bookPendingReversal books last period's accrual reversal on day one
func (g *Generator) bookPendingReversal(month int) {
	if g.pendingReversal == nil {
		return
	}
	p, _ := patterns.Lookup(patterns.AccrualReversal)
	g.journal.Post(month, 1, "CL", g.pendingReversal, p.User, 0)
	g.pendingReversal = nil
}

// bookCorrections moves amounts posted to the wrong LOB, keyed a few days late
func (g *Generator) bookCorrections(month int, p patterns.Pattern) {
	for _, c := range p.Corrections {
		if c.Month != month {
			continue
		}
		day := g.rng.IntRange(5, 15)
		offset := g.rng.IntRange(1, 5)
		lines := pair(c.Amount, Line{Account: c.Right}, Line{Account: c.Wrong})
		g.journal.Post(month, day, p.DocType, withText(lines, p.Text), p.User, offset)
	}
}

func (g *Generator) bookConsolidation(month int, p patterns.Pattern) {
	if !p.FiresIn(month) {
		return
	}
	for _, adj := range p.Adjustments {
		lines := pair(adj.Amount, Line{Account: adj.Debit}, Line{Account: adj.Credit})
		g.journal.Post(month, p.Day, p.DocType, withText(lines, p.Text), p.User, 0)
	}
}

// bookKeyPerson books the extra miscellaneous entries that make one preparer
// dominate manual entry volume
func (g *Generator) bookKeyPerson(month int) {
	n := g.rng.IntRange(3, 5)
	for i := 0; i < n; i++ {
		day := g.rng.IntRange(20, 28)
		accounts := rng.Choice(g.rng, patterns.KeyPersonPairs)
		amt := money(g.positive(25_000, 10_000, 1000))
		lines := pair(amt, Line{Account: accounts[0]}, Line{Account: accounts[1]})
		g.journal.Post(month, day, "MJ", withText(lines, "Misc adjustment"), patterns.KeyPersonUser, 0)
	}
}

// bookYearEnd books the close surge and any partial reversals planned for the period
func (g *Generator) bookYearEnd(month int) {
	if g.reversalMonths[month] {
		amt := money(g.rng.Uniform(2000, 20000))
		lines := pair(amt, Line{Account: refdata.AcctAccruedExpenses}, Line{Account: refdata.AcctProfessionalFees})
		g.journal.Post(month, g.rng.IntRange(1, 28), "MJ", withText(lines, "Partial reversal of prior accrual"),
			refdata.UserDWilson, 0)
	}

	if month < 11 {
		return
	}
	n := g.rng.IntRange(8, 12)
	for i := 0; i < n; i++ {
		user := surgeUsers[g.surgeTurn%len(surgeUsers)]
		g.surgeTurn++
		day := g.rng.IntRange(15, 28)
		account := rng.Choice(g.rng, surgeAccounts)
		amt := money(g.positive(40_000, 20_000, 1000))
		lines := pair(amt, Line{Account: account}, Line{Account: refdata.AcctAccruedExpenses})
		g.journal.Post(month, day, "MJ", withText(lines, "Year-end adjustment"), user, 0)
	}
}

// planPartialReversals picks the periods that carry a partial reversal
func (g *Generator) planPartialReversals() {
	n := g.rng.IntRange(4, 8)
	g.reversalMonths = make(map[int]bool, n)
	for _, m := range rng.Sample(g.rng, allMonths, n) {
		g.reversalMonths[m] = true
	}
}
