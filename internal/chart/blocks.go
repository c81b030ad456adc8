package chart

import (
	"fmt"
	"time"

	"golang-synthetic-ledger/internal/models"
	"golang-synthetic-ledger/internal/refdata"
	"golang-synthetic-ledger/internal/rng"
)

const (
	acquiredCount     = 150
	acquiredInactive  = 0.60
	discontinuedCount = 40
	legacyCount       = 120
	migrationCount    = 60
	fillerInactive    = 0.20
	fillerStart       = 800000
)

type template struct {
	accountType models.AccountType
	group       string
	description string
}

// acquiredTemplates are the account shapes carried over from the acquired carrier
var acquiredTemplates = []template{
	{models.AccountTypeAsset, "PREC", "Premiums Receivable"},
	{models.AccountTypeLiability, "LRSV", "Loss Reserves"},
	{models.AccountTypeRevenue, "PREM", "Premiums Written"},
	{models.AccountTypeExpense, "LOSS", "Losses Incurred"},
	{models.AccountTypeExpense, "OPEX", "Operating Expense"},
}

// fillerCategories mirror the sub-ledger buckets that accumulate over time
var fillerCategories = []template{
	{models.AccountTypeAsset, "MISC", "Prepaid - Misc"},
	{models.AccountTypeAsset, "MISC", "Receivable - Misc"},
	{models.AccountTypeLiability, "MISC", "Payable - Misc"},
	{models.AccountTypeExpense, "MISC", "Operating Expense - Misc"},
}

func date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// addAcquired adds the accounts brought over from the 2015 acquisition
func (b *Builder) addAcquired() {
	for k := 0; k < acquiredCount; k++ {
		tpl := acquiredTemplates[k%len(acquiredTemplates)]
		code := fmt.Sprintf("%d", 910000+k*10)
		opened := date(2015, 7, 1).AddDate(0, 0, b.rng.IntRange(0, 90))
		b.add(code, fmt.Sprintf("MM %s %04d", tpl.description, k+1), tpl.accountType, tpl.group,
			activeIf(!b.rng.Chance(acquiredInactive)),
			effective(opened),
			source(refdata.SourceAcquired))
	}
}

// addDiscontinued adds the closed pet insurance line: reserves, premium and losses
func (b *Builder) addDiscontinued() {
	blocks := []template{
		{models.AccountTypeLiability, "LRSV", "Discontinued Pet - Reserve"},
		{models.AccountTypeRevenue, "PREM", "Discontinued Pet - Premium"},
		{models.AccountTypeExpense, "LOSS", "Discontinued Pet - Losses"},
	}
	prefixes := []string{"28", "48", "58"}

	for k := 0; k < discontinuedCount; k++ {
		i := k % len(blocks)
		code := fmt.Sprintf("%s%04d", prefixes[i], (k/len(blocks))*100)
		opened := date(b.rng.IntRange(2012, 2014), b.rng.IntRange(1, 12), 1)
		b.add(code, fmt.Sprintf("%s %02d", blocks[i].description, k/len(blocks)+1), blocks[i].accountType, blocks[i].group,
			inactive(), effective(opened))
	}
}

// addLegacy adds four-digit accounts from the pre-SAP ledger
func (b *Builder) addLegacy() {
	types := []models.AccountType{
		models.AccountTypeAsset,
		models.AccountTypeLiability,
		models.AccountTypeEquity,
		models.AccountTypeRevenue,
		models.AccountTypeExpense,
	}

	for k := 0; k < legacyCount; k++ {
		digit := k%len(types) + 1
		code := fmt.Sprintf("%d%03d", digit, (k/len(types))*10)
		opened := date(b.rng.IntRange(2006, 2009), b.rng.IntRange(1, 12), 1)
		b.add(code, fmt.Sprintf("Legacy GL %s", code), types[digit-1], "LEGACY",
			inactive(), untagged(), effective(opened), source(refdata.SourceLegacy))
	}
}

// addMigration adds the inactive mapping accounts left by the 2011 conversion
func (b *Builder) addMigration() {
	targets := make([]models.Account, 0, 64)
	for _, a := range b.accounts {
		if a.SourceSystem == refdata.SourceSAP && a.IsActive && len(a.GLAccount) == 6 {
			targets = append(targets, a)
		}
	}
	if len(targets) == 0 {
		return
	}

	for k := 0; k < migrationCount; k++ {
		target := rng.Choice(b.rng, targets)
		old := fmt.Sprintf("%d%03d", k%5+1, (k/5)*10)
		code := fmt.Sprintf("95%04d", k*10)
		opened := date(2011, b.rng.IntRange(1, 12), 1)
		b.add(code, fmt.Sprintf("MIGR %s -> %s", old, target.GLAccount), target.AccountType, "MIGR",
			inactive(), effective(opened), source(refdata.SourceLegacy))
	}
}

func (b *Builder) addDormant() {
	b.add("190000", "Legacy Suspense Account", models.AccountTypeAsset, "SUSP", inactive())
	b.add("190100", "Prior Acquisition Receivable", models.AccountTypeAsset, "MISC", inactive())
	b.add("290000", "Legacy Reserve - Discontinued LOB", models.AccountTypeLiability, "LRSV", inactive())
	b.add("490000", "Discontinued Product Revenue", models.AccountTypeRevenue, "MISC", inactive())
	b.add("590000", "Discontinued LOB Losses", models.AccountTypeExpense, "MISC", inactive())
}

// addRegulatory adds the reserves and expenses introduced after 2020
func (b *Builder) addRegulatory() {
	regulatory := []struct {
		code, desc  string
		accountType models.AccountType
		group       string
		opened      time.Time
	}{
		{"209000", "Pandemic Business Interruption Reserve", models.AccountTypeLiability, "LRSV", date(2020, 4, 1)},
		{"209100", "Cyber Liability Reserve", models.AccountTypeLiability, "LRSV", date(2022, 1, 1)},
		{"209200", "Climate Risk Reserve", models.AccountTypeLiability, "LRSV", date(2023, 7, 1)},
		{"209300", "Digital Asset Custody Reserve", models.AccountTypeLiability, "LRSV", date(2024, 1, 1)},
		{"509000", "Pandemic Losses Incurred", models.AccountTypeExpense, "LOSS", date(2020, 4, 1)},
		{"509100", "Cyber Losses Incurred", models.AccountTypeExpense, "LOSS", date(2022, 1, 1)},
		{"509200", "Climate Event Losses Incurred", models.AccountTypeExpense, "LOSS", date(2023, 7, 1)},
		{refdata.AcctRegulatoryDep, "Statutory Deposits - Regulators", models.AccountTypeAsset, "INVST", date(2021, 1, 1)},
		{"745000", "Climate Disclosure Compliance", models.AccountTypeExpense, "TAX", date(2023, 1, 1)},
		{"746000", "Cyber Regulatory Assessments", models.AccountTypeExpense, "TAX", date(2022, 6, 1)},
	}

	for _, r := range regulatory {
		opts := []option{effective(r.opened), statutory("Regulatory")}
		if r.accountType == models.AccountTypeExpense && r.group == "LOSS" {
			opts = append(opts, functional("LAE"))
		}
		b.add(r.code, r.desc, r.accountType, r.group, opts...)
	}
}

// addFiller draws categories and walks account numbers upward until the master
// reaches target, skipping numbers already taken
func (b *Builder) addFiller(target int) {
	num := fillerStart
	for len(b.accounts) < target {
		tpl := rng.Choice(b.rng, fillerCategories)
		code := fmt.Sprintf("%d", num)
		if !b.Has(code) {
			opened := date(b.rng.IntRange(2008, 2023), b.rng.IntRange(1, 12), 1)
			b.add(code, fmt.Sprintf("%s %04d", tpl.description, num-fillerStart+1), tpl.accountType, tpl.group,
				activeIf(!b.rng.Chance(fillerInactive)),
				effective(opened),
				source(refdata.SourceManual))
		}
		num++
	}
}
