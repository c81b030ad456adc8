package ledger

import (
	"fmt"

	"golang-synthetic-ledger/internal/refdata"
	"golang-synthetic-ledger/internal/rng"
)

// costCenterAreas maps cost centers to their functional area
var costCenterAreas = map[string]string{
	"CC1000": "CLM", "CC1100": "CLM",
	"CC2000": "ACQ", "CC2100": "ACQ",
	"CC3000": "ADM", "CC3100": "ADM", "CC4000": "ADM", "CC5000": "ADM", "CC7000": "ADM",
	"CC6000": "INV",
}

// bookOperations books the subledger feeds of one period
func (g *Generator) bookOperations(month int) {
	for _, lob := range refdata.LOBs {
		g.bookPremiums(month, lob)
		g.bookClaims(month, lob)
		g.bookCommissions(month, lob)
	}
	for _, lob := range refdata.LOBs {
		g.bookReserves(month, lob)
	}
	g.bookOpex(month)
	g.bookMonthlyAccruals(month)
	g.bookSuspense(month)
}

func (g *Generator) lobLine(lob refdata.LOB, account string) Line {
	return Line{
		Account:      account,
		ProfitCenter: lob.ProfitCenter,
		Segment:      lob.Segment,
		LOB:          lob.Code,
	}
}

func (g *Generator) bookPremiums(month int, lob refdata.LOB) {
	vr := premiumVolumes[lob.Code]
	n := g.volume(vr)
	if lob.Code == refdata.Home.Code {
		n = int(float64(n)*homeSeasonality[month-1] + 0.5)
	}
	year := g.cfg.FiscalYear
	base := premiumBase[lob.Code]

	for i := 0; i < n; i++ {
		day := g.rng.IntRange(1, 28)
		state := rng.Choice(g.rng, lob.States)
		product := rng.Choice(g.rng, lob.Products)
		channel := rng.Choice(g.rng, refdata.Channels)
		ay := rng.Choice(g.rng, []int{year - 1, year})
		policyYear := rng.Choice(g.rng, []int{year - 1, year})
		amt := money(base / float64(n) * (0.5 + g.rng.Float64()))

		tag := g.lobLine(lob, "")
		tag.State = state
		tag.AccidentYear = ay
		tag.FinancialProduct = product
		tag.StatutoryLine = refdata.StatutoryLines[product]
		tag.DistributionChannel = channel.Code
		tag.PolicyYear = policyYear

		debit, credit := tag, tag
		debit.Account = refdata.PremiumReceivable(lob)
		credit.Account = refdata.WrittenPremium(lob)
		g.journal.Post(month, day, "DR", pair(amt, debit, credit), refdata.UserSystem, g.entryOffset())
	}
}

func (g *Generator) bookClaims(month int, lob refdata.LOB) {
	n := g.volume(claimVolumes[lob.Code])
	year := g.cfg.FiscalYear
	routing := g.cfg.Routing

	for i := 0; i < n; i++ {
		day := g.rng.IntRange(1, 28)
		state := rng.Choice(g.rng, lob.States)
		product := rng.Choice(g.rng, lob.Products)
		ct := rng.Choice(g.rng, lob.ClaimTypes)
		ay := g.rng.IntRange(year-3, year)
		amt := g.rng.Gauss(15000, 8000)
		if amt < 100 {
			amt = 100 + g.rng.Float64()*5000
		}

		loss := g.lobLine(lob, refdata.LossesIncurred(lob))
		loss.State = state
		loss.AccidentYear = ay
		loss.ClaimType = ct.Code
		loss.StatutoryLine = refdata.StatutoryLines[product]
		loss.FunctionalArea = "LAE"
		switch {
		case g.rng.Chance(routing.ClaimTypeRate):
			loss.Account = refdata.ClaimTypeLoss(lob, ct)
			loss.FinancialProduct = product
		case g.rng.Chance(routing.ProductAccountRate):
			loss.Account = refdata.ProductLossAccount(lob, g.rng.IntRange(0, 1))
		default:
			loss.FinancialProduct = product
		}

		cash := g.lobLine(lob, refdata.AcctClaimsCash)
		cash.State = state
		g.journal.Post(month, day, "KR", pair(money(amt), loss, cash), refdata.UserSystem, g.entryOffset())
	}
}

func (g *Generator) bookCommissions(month int, lob refdata.LOB) {
	n := g.volume(commissionVolumes[lob.Code])
	routing := g.cfg.Routing

	for i := 0; i < n; i++ {
		day := g.rng.IntRange(1, 28)
		channel := rng.Choice(g.rng, refdata.Channels)
		amt := g.rng.Gauss(3000, 1500)
		if amt < 50 {
			amt = 50 + g.rng.Float64()*1000
		}

		expense := g.lobLine(lob, refdata.Commissions(lob))
		expense.FunctionalArea = "ACQ"
		expense.DistributionChannel = channel.Code
		switch {
		case g.rng.Chance(routing.ChannelCommissionRate):
			expense.Account = refdata.ChannelCommission(lob, channel)
		case g.rng.Chance(routing.ProductCommissionRate):
			expense.Account = refdata.ProductCommissionAccount(lob, g.rng.IntRange(0, 1))
		default:
			expense.FinancialProduct = rng.Choice(g.rng, lob.Products)
		}

		payable := g.lobLine(lob, refdata.AcctCommPayable)
		g.journal.Post(month, day, "KR", pair(money(amt), expense, payable), refdata.UserSystem, g.entryOffset())
	}
}

// bookReserves books month-end case, IBNR and unearned premium movements
func (g *Generator) bookReserves(month int, lob refdata.LOB) {
	year := g.cfg.FiscalYear

	caseMove := money(g.signed(500_000, 200_000, 1000))
	move := g.lobLine(lob, refdata.CaseMovement(lob))
	move.AccidentYear = year
	move.FunctionalArea = "LAE"
	reserve := g.lobLine(lob, refdata.CaseReserve(lob))
	reserve.AccidentYear = year
	g.journal.Post(month, 28, "IF", withText(pair(caseMove, move, reserve), "Case reserve movement"), refdata.UserRLopez, 0)

	ibnrMove := money(g.signed(500_000, 200_000, 1000))
	move.Account = refdata.IBNRMovement(lob)
	reserve.Account = refdata.IBNRReserve(lob)
	g.journal.Post(month, 28, "IF", withText(pair(ibnrMove, move, reserve), "IBNR reserve movement"), refdata.UserRLopez, 0)

	base := premiumBase[lob.Code]
	uprMove := money(g.signed(base*0.02, base*0.05, 1000))
	earned := g.lobLine(lob, refdata.EarnedPremium(lob))
	upr := g.lobLine(lob, refdata.UnearnedPremium(lob))
	g.journal.Post(month, 28, "IF", withText(pair(uprMove, earned, upr), "UPR movement"), refdata.UserSystem, 0)
}

func (g *Generator) bookOpex(month int) {
	for _, cc := range refdata.CostCenters {
		n := g.volume(opexVolume)
		account := refdata.CostCenterAccounts[cc]
		for i := 0; i < n; i++ {
			day := g.rng.IntRange(1, 28)
			amt := g.positive(5000, 3000, 50)
			expense := Line{Account: account, CostCenter: cc, FunctionalArea: costCenterAreas[cc]}
			payable := Line{Account: refdata.AcctAccountsPayable, CostCenter: cc}
			g.journal.Post(month, day, "KR", pair(money(amt), expense, payable), refdata.UserSystem, 0)
		}
	}
}

// bookMonthlyAccruals books investment income, bond interest and premium tax
func (g *Generator) bookMonthlyAccruals(month int) {
	income := money(g.positive(2_000_000, 500_000, 100_000))
	g.journal.Post(month, 28, "SA", withText(pair(income,
		Line{Account: refdata.AcctAccruedInvInc, FunctionalArea: "INV"},
		Line{Account: refdata.AcctInvestmentIncome, FunctionalArea: "INV"}), "Investment income accrual"),
		refdata.UserSystem, 0)

	interest := money(g.positive(600_000, 150_000, 50_000))
	g.journal.Post(month, 28, "SA", withText(pair(interest,
		Line{Account: refdata.AcctAccruedInterest, FunctionalArea: "INV"},
		Line{Account: refdata.AcctBondInterest, FunctionalArea: "INV"}), "Bond interest accrual"),
		refdata.UserSystem, 0)

	tax := money(g.positive(800_000, 200_000, 50_000))
	g.journal.Post(month, 28, "RE", withText(pair(tax,
		Line{Account: refdata.AcctPremiumTaxExp},
		Line{Account: refdata.AcctPremTaxPayable}), "Premium tax accrual"),
		refdata.UserSystem, 0)
}

// bookSuspense books premium receipts into suspense and clears most of them a
// few days later; the rest stay open at month end
func (g *Generator) bookSuspense(month int) {
	n := g.volume(suspenseVolume)
	for i := 0; i < n; i++ {
		day := g.rng.IntRange(1, 28)
		lob := rng.Choice(g.rng, refdata.LOBs)
		amt := money(g.rng.Uniform(500, 20000))
		ref := fmt.Sprintf("RCPT%02d%06d", month, i+1)

		cash := Line{Account: refdata.AcctOperatingCash, Reference: ref}
		suspense := Line{Account: refdata.AcctSuspense, Reference: ref}
		g.journal.Post(month, day, "DZ", withText(pair(amt, cash, suspense), "Unapplied premium receipt"), refdata.UserSystem, 0)

		if g.rng.Chance(g.cfg.Routing.SuspenseUnclearedRate) {
			continue
		}
		clearDay := day + g.rng.IntRange(1, 5)
		suspense = g.lobLine(lob, refdata.AcctSuspense)
		suspense.Reference = ref
		receivable := g.lobLine(lob, refdata.PremiumReceivable(lob))
		receivable.Reference = ref
		g.journal.Post(month, clearDay, "CL", withText(pair(amt, suspense, receivable), "Suspense clearing"), refdata.UserSystem, 0)
	}
}
