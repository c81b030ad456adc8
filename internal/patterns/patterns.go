// Package patterns defines the manual journal entry patterns embedded in the
// generated ledger. The same table drives posting emission, the detection
// checks in the validator and the markdown manifest.
package patterns

import (
	"strings"

	"github.com/shopspring/decimal"

	"golang-synthetic-ledger/internal/models"
	"golang-synthetic-ledger/internal/refdata"
)

// ID names one embedded pattern
type ID string

const (
	RecurringIdentical ID = "recurring_identical"
	RecurringTemplate  ID = "recurring_template"
	Reclassification   ID = "reclassification"
	Intercompany       ID = "intercompany"
	AccrualReversal    ID = "accrual_reversal"
	Correction         ID = "correction"
	Consolidation      ID = "consolidation_adjustment"
)

// Frequency of a pattern
type Frequency string

const (
	Monthly   Frequency = "monthly"
	Quarterly Frequency = "quarterly"
	Sporadic  Frequency = "sporadic"
)

// QuarterEnds are the fiscal periods that close a quarter
var QuarterEnds = []int{3, 6, 9, 12}

// CorrectionEntry moves an amount posted to the wrong account
type CorrectionEntry struct {
	Month  int
	Wrong  string
	Right  string
	Amount decimal.Decimal
}

// Adjustment is one fixed debit/credit pair
type Adjustment struct {
	Debit  string
	Credit string
	Amount decimal.Decimal
}

// Filter selects the posting lines that evidence a pattern. Empty fields match anything.
type Filter struct {
	User         string
	Accounts     []string
	Categories   []models.DocumentCategory
	TextContains string
	Amount       decimal.Decimal
}

// Matches reports whether a posting line satisfies the filter
func (f Filter) Matches(p *models.Posting) bool {
	if f.User != "" && p.UserID != f.User {
		return false
	}
	if len(f.Accounts) > 0 && !contains(f.Accounts, p.GLAccount) {
		return false
	}
	if len(f.Categories) > 0 {
		found := false
		for _, c := range f.Categories {
			if p.DocumentCategory == c {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.TextContains != "" && !strings.Contains(strings.ToLower(p.Text), strings.ToLower(f.TextContains)) {
		return false
	}
	if !f.Amount.IsZero() && !p.Amount.Equal(f.Amount) {
		return false
	}
	return true
}

// Detection is a filter with the minimum number of lines it must find
type Detection struct {
	Label    string
	Filter   Filter
	Expected int
}

// Pattern is one embedded manual journal entry policy
type Pattern struct {
	ID             ID
	Description    string
	User           string
	DocType        string
	Frequency      Frequency
	DebitAccount   string
	CreditAccount  string
	SourceAccount  string
	TargetAccounts []string
	Amount         decimal.Decimal
	BaseAmount     decimal.Decimal
	Variance       float64
	Split          float64
	Months         []int
	Day            int
	Text           string
	TradingPartner string
	Corrections    []CorrectionEntry
	Adjustments    []Adjustment
	ExpectedCount  int
	Detections     []Detection
}

// Accounts returns every account the pattern touches, in manifest order
func (p Pattern) Accounts() []string {
	var out []string
	add := func(codes ...string) {
		for _, c := range codes {
			if c != "" && !contains(out, c) {
				out = append(out, c)
			}
		}
	}
	add(p.DebitAccount, p.CreditAccount, p.SourceAccount)
	add(p.TargetAccounts...)
	for _, c := range p.Corrections {
		add(c.Wrong, c.Right)
	}
	for _, a := range p.Adjustments {
		add(a.Debit, a.Credit)
	}
	return out
}

// FiresIn reports whether a scheduled pattern posts in the given month
func (p Pattern) FiresIn(month int) bool {
	if len(p.Months) == 0 {
		return p.Frequency == Monthly
	}
	for _, m := range p.Months {
		if m == month {
			return true
		}
	}
	return false
}

// KeyPersonUser is the preparer whose manual entry volume must dominate
const KeyPersonUser = refdata.UserJSmith

// KeyPersonRatio is the minimum lead of the key person over the next preparer
const KeyPersonRatio = 1.5

// KeyPersonPairs are the debit/credit pairs the key person rotates through
var KeyPersonPairs = [][2]string{
	{refdata.AcctTechnology, refdata.AcctDepreciation},
	{refdata.AcctClaimsSalaries, refdata.AcctClaimsConsulting},
	{refdata.AcctUWSalaries, refdata.AcctAdminSalaries},
	{refdata.AcctOfficeSupplies, refdata.AcctTelephone},
}

func amount(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

var manual = []models.DocumentCategory{models.CategoryManual}

var table = []Pattern{
	{
		ID:            RecurringIdentical,
		Description:   "Identical professional fees reclass booked every quarter",
		User:          refdata.UserJSmith,
		DocType:       "MJ",
		Frequency:     Quarterly,
		DebitAccount:  refdata.AcctMiscAdmin,
		CreditAccount: refdata.AcctProfessionalFees,
		Amount:        amount(15000),
		Months:        QuarterEnds,
		Day:           25,
		Text:          "Quarterly professional fees reclass",
		ExpectedCount: 4,
		Detections: []Detection{{
			Label:    "identical debits",
			Filter:   Filter{User: refdata.UserJSmith, Accounts: []string{refdata.AcctMiscAdmin}, Categories: manual, Amount: amount(15000)},
			Expected: 4,
		}},
	},
	{
		ID:             RecurringTemplate,
		Description:    "Monthly allocation of shared technology costs",
		User:           refdata.UserMBrown,
		DocType:        "MJ",
		Frequency:      Monthly,
		SourceAccount:  refdata.AcctTechnology,
		TargetAccounts: []string{refdata.AcctClaimsTechnology, refdata.AcctUWAnalytics},
		BaseAmount:     amount(50000),
		Variance:       0.15,
		Split:          0.60,
		Day:            20,
		Text:           "Monthly IT cost allocation",
		ExpectedCount:  12,
		Detections: []Detection{{
			Label:    "source credits",
			Filter:   Filter{User: refdata.UserMBrown, Accounts: []string{refdata.AcctTechnology}, Categories: manual},
			Expected: 12,
		}},
	},
	{
		ID:             Reclassification,
		Description:    "Systematic reclass from generic loss to LOB case reserve movement",
		User:           refdata.UserJSmith,
		DocType:        "MJ",
		Frequency:      Monthly,
		SourceAccount:  refdata.LossesIncurred(refdata.Auto),
		TargetAccounts: []string{refdata.CaseMovement(refdata.Auto)},
		BaseAmount:     amount(125000),
		Variance:       0.20,
		Day:            26,
		Text:           "Monthly loss reclass to case reserve movement",
		ExpectedCount:  12,
		Detections: []Detection{{
			Label: "reclass lines",
			Filter: Filter{User: refdata.UserJSmith, Accounts: []string{refdata.LossesIncurred(refdata.Auto)},
				Categories: manual, TextContains: "reclass"},
			Expected: 12,
		}},
	},
	{
		ID:             Intercompany,
		Description:    "Manual intercompany shared service charges",
		User:           refdata.UserAChen,
		DocType:        "MJ",
		Frequency:      Monthly,
		DebitAccount:   refdata.AcctICReceivable,
		CreditAccount:  refdata.AcctAdminSalaries,
		BaseAmount:     amount(85000),
		Variance:       0.10,
		Day:            22,
		Text:           "IC shared services charge",
		TradingPartner: refdata.PartnerCompany,
		ExpectedCount:  12,
		Detections: []Detection{{
			Label:    "receivable debits",
			Filter:   Filter{User: refdata.UserAChen, Accounts: []string{refdata.AcctICReceivable}, Categories: manual},
			Expected: 12,
		}},
	},
	{
		ID:            AccrualReversal,
		Description:   "Month-end LAE accrual with next-month reversal",
		User:          refdata.UserJSmith,
		DocType:       "AC",
		Frequency:     Monthly,
		DebitAccount:  refdata.LAEExpense(refdata.Auto),
		CreditAccount: refdata.AcctAccruedExpenses,
		BaseAmount:    amount(200000),
		Variance:      0.25,
		Day:           28,
		Text:          "Month-end LAE accrual",
		ExpectedCount: 24,
		Detections: []Detection{
			{
				Label: "accruals",
				Filter: Filter{User: refdata.UserJSmith, Accounts: []string{refdata.LAEExpense(refdata.Auto)},
					Categories: []models.DocumentCategory{models.CategoryAccrual}},
				Expected: 12,
			},
			{
				Label: "reversals",
				Filter: Filter{User: refdata.UserJSmith, Accounts: []string{refdata.LAEExpense(refdata.Auto)},
					Categories: []models.DocumentCategory{models.CategoryClearing}},
				Expected: 11,
			},
		},
	},
	{
		ID:          Correction,
		Description: "Corrections of losses and premium posted to the wrong LOB",
		User:        refdata.UserDWilson,
		DocType:     "MJ",
		Frequency:   Sporadic,
		Text:        "Correction of wrong LOB posting",
		Corrections: []CorrectionEntry{
			{Month: 2, Wrong: "500000", Right: "500100", Amount: amount(45000)},
			{Month: 5, Wrong: "600000", Right: "600100", Amount: amount(12500)},
			{Month: 7, Wrong: "500200", Right: "500300", Amount: amount(78000)},
			{Month: 9, Wrong: "400000", Right: "400010", Amount: amount(95000)},
			{Month: 11, Wrong: "500000", Right: "500100", Amount: amount(52000)},
		},
		ExpectedCount: 10,
		Detections: []Detection{{
			Label:    "correction lines",
			Filter:   Filter{User: refdata.UserDWilson, Categories: manual, TextContains: "correction"},
			Expected: 10,
		}},
	},
	{
		ID:          Consolidation,
		Description: "Quarter-end group consolidation adjustments",
		User:        refdata.UserLJones,
		DocType:     "MJ",
		Frequency:   Quarterly,
		Months:      QuarterEnds,
		Day:         28,
		Text:        "Quarter-end consolidation adjustment",
		Adjustments: []Adjustment{
			{Debit: refdata.AcctAOCI, Credit: refdata.AcctConsolidationAdj, Amount: amount(350000)},
			{Debit: refdata.AcctRetainedEarnings, Credit: refdata.AcctAPIC, Amount: amount(500000)},
		},
		ExpectedCount: 8,
		Detections: []Detection{{
			Label: "adjustment debits",
			Filter: Filter{User: refdata.UserLJones, Accounts: []string{refdata.AcctAOCI, refdata.AcctRetainedEarnings},
				Categories: manual},
			Expected: 8,
		}},
	},
}

// All returns the pattern table in emission order
func All() []Pattern {
	out := make([]Pattern, len(table))
	copy(out, table)
	return out
}

// Lookup returns the pattern with the given id
func Lookup(id ID) (Pattern, bool) {
	for _, p := range table {
		if p.ID == id {
			return p, true
		}
	}
	return Pattern{}, false
}

// Count returns the number of postings matched by a filter
func Count(postings []models.Posting, f Filter) int {
	n := 0
	for i := range postings {
		if f.Matches(&postings[i]) {
			n++
		}
	}
	return n
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
