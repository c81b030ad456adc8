package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format used in every fixture file.
const DateLayout = "2006-01-02"

// AccountType classifies an account on the balance sheet or income statement
type AccountType string

const (
	AccountTypeAsset     AccountType = "A"
	AccountTypeLiability AccountType = "L"
	AccountTypeEquity    AccountType = "E"
	AccountTypeRevenue   AccountType = "R"
	AccountTypeExpense   AccountType = "X"
)

// String returns the string representation of AccountType
func (t AccountType) String() string {
	return string(t)
}

// IsValid checks if the account type is one of A, L, E, R, X
func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue, AccountTypeExpense:
		return true
	default:
		return false
	}
}

// IsBalanceSheet reports whether balances of this type carry forward between years
func (t AccountType) IsBalanceSheet() bool {
	return t == AccountTypeAsset || t == AccountTypeLiability || t == AccountTypeEquity
}

// DebitCredit is the side of a posting line
type DebitCredit string

const (
	Debit  DebitCredit = "D"
	Credit DebitCredit = "C"
)

// IsValid checks if the indicator is D or C
func (d DebitCredit) IsValid() bool {
	return d == Debit || d == Credit
}

// PostingKey returns the posting key paired with the side
func (d DebitCredit) PostingKey() string {
	if d == Credit {
		return PostingKeyCredit
	}
	return PostingKeyDebit
}

const (
	PostingKeyDebit  = "40"
	PostingKeyCredit = "50"
)

// DocumentCategory groups document types for analysis
type DocumentCategory string

const (
	CategoryStandard  DocumentCategory = "STD"
	CategoryManual    DocumentCategory = "MJE"
	CategoryAccrual   DocumentCategory = "ACC"
	CategoryRecurring DocumentCategory = "REC"
	CategoryClearing  DocumentCategory = "CLR"
	CategoryInterface DocumentCategory = "INT"
)

// IsValid checks if the category is known
func (c DocumentCategory) IsValid() bool {
	switch c {
	case CategoryStandard, CategoryManual, CategoryAccrual, CategoryRecurring, CategoryClearing, CategoryInterface:
		return true
	default:
		return false
	}
}

// Account is one entry of the account master
type Account struct {
	GLAccount               string      `json:"gl_account"`
	Description             string      `json:"description"`
	AccountType             AccountType `json:"account_type"`
	AccountGroup            string      `json:"account_group"`
	IsReconciliationAccount bool        `json:"is_reconciliation_account"`
	OpenItemManagement      bool        `json:"open_item_management"`
	LineItemDisplay         bool        `json:"line_item_display"`
	StatutoryCategory       string      `json:"statutory_category"`
	FunctionalAreaDefault   string      `json:"functional_area_default"`
	IsActive                bool        `json:"is_active"`
	EffectiveFrom           time.Time   `json:"effective_from"`
	SourceSystem            string      `json:"source_system"`
}

// Validate performs basic validation on the Account
func (a *Account) Validate() error {
	if strings.TrimSpace(a.GLAccount) == "" {
		return fmt.Errorf("gl_account cannot be empty")
	}
	if !a.AccountType.IsValid() {
		return fmt.Errorf("account %s has invalid type %q", a.GLAccount, a.AccountType)
	}
	if strings.TrimSpace(a.Description) == "" {
		return fmt.Errorf("account %s has no description", a.GLAccount)
	}
	return nil
}

// MarshalJSON writes optional attributes as null when unset
func (a Account) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		GLAccount               string      `json:"gl_account"`
		Description             string      `json:"description"`
		AccountType             AccountType `json:"account_type"`
		AccountGroup            string      `json:"account_group"`
		IsReconciliationAccount bool        `json:"is_reconciliation_account"`
		OpenItemManagement      bool        `json:"open_item_management"`
		LineItemDisplay         bool        `json:"line_item_display"`
		StatutoryCategory       *string     `json:"statutory_category"`
		FunctionalAreaDefault   *string     `json:"functional_area_default"`
		IsActive                bool        `json:"is_active"`
		EffectiveFrom           *string     `json:"effective_from"`
		SourceSystem            *string     `json:"source_system"`
	}{
		GLAccount:               a.GLAccount,
		Description:             a.Description,
		AccountType:             a.AccountType,
		AccountGroup:            a.AccountGroup,
		IsReconciliationAccount: a.IsReconciliationAccount,
		OpenItemManagement:      a.OpenItemManagement,
		LineItemDisplay:         a.LineItemDisplay,
		StatutoryCategory:       optString(a.StatutoryCategory),
		FunctionalAreaDefault:   optString(a.FunctionalAreaDefault),
		IsActive:                a.IsActive,
		EffectiveFrom:           optDate(a.EffectiveFrom),
		SourceSystem:            optString(a.SourceSystem),
	})
}

// Posting is one line of a balanced journal document.
// Empty strings and zero years mean the dimension is not set.
type Posting struct {
	CompanyCode         string           `json:"company_code"`
	FiscalYear          int              `json:"fiscal_year"`
	FiscalPeriod        int              `json:"fiscal_period"`
	DocumentNumber      string           `json:"document_number"`
	LineItem            int              `json:"line_item"`
	DocumentType        string           `json:"document_type"`
	DocumentCategory    DocumentCategory `json:"document_category"`
	PostingDate         time.Time        `json:"posting_date"`
	EntryDate           time.Time        `json:"entry_date"`
	PostingKey          string           `json:"posting_key"`
	DebitCredit         DebitCredit      `json:"debit_credit"`
	GLAccount           string           `json:"gl_account"`
	Amount              decimal.Decimal  `json:"amount"`
	Currency            string           `json:"currency"`
	ProfitCenter        string           `json:"profit_center"`
	CostCenter          string           `json:"cost_center"`
	FunctionalArea      string           `json:"functional_area"`
	Segment             string           `json:"segment"`
	BusinessArea        string           `json:"business_area"`
	TradingPartner      string           `json:"trading_partner"`
	Reference           string           `json:"reference"`
	Text                string           `json:"text"`
	UserID              string           `json:"user_id"`
	State               string           `json:"state"`
	LOB                 string           `json:"lob"`
	AccidentYear        int              `json:"accident_year"`
	FinancialProduct    string           `json:"financial_product"`
	StatutoryLine       string           `json:"statutory_line"`
	TreatyID            string           `json:"treaty_id"`
	ClaimType           string           `json:"claim_type"`
	DistributionChannel string           `json:"distribution_channel"`
	PolicyYear          int              `json:"policy_year"`
}

// SignedAmount returns the amount with debits positive and credits negative
func (p *Posting) SignedAmount() decimal.Decimal {
	if p.DebitCredit == Credit {
		return p.Amount.Neg()
	}
	return p.Amount
}

// IsBackdated reports whether the entry was keyed after its posting date
func (p *Posting) IsBackdated() bool {
	return p.EntryDate.After(p.PostingDate)
}

// Validate performs basic validation on the Posting
func (p *Posting) Validate() error {
	if strings.TrimSpace(p.DocumentNumber) == "" {
		return fmt.Errorf("document_number cannot be empty")
	}
	if p.FiscalPeriod < 1 || p.FiscalPeriod > 12 {
		return fmt.Errorf("document %s has fiscal_period %d outside 1-12", p.DocumentNumber, p.FiscalPeriod)
	}
	if !p.DebitCredit.IsValid() {
		return fmt.Errorf("document %s line %d has invalid debit_credit %q", p.DocumentNumber, p.LineItem, p.DebitCredit)
	}
	if p.PostingKey != p.DebitCredit.PostingKey() {
		return fmt.Errorf("document %s line %d has posting_key %s for side %s", p.DocumentNumber, p.LineItem, p.PostingKey, p.DebitCredit)
	}
	if p.Amount.IsNegative() {
		return fmt.Errorf("document %s line %d has negative amount %s", p.DocumentNumber, p.LineItem, p.Amount)
	}
	if p.EntryDate.Before(p.PostingDate) {
		return fmt.Errorf("document %s was entered before its posting date", p.DocumentNumber)
	}
	return nil
}

// MarshalJSON writes amounts as numbers and unset dimensions as null
func (p Posting) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		CompanyCode         string           `json:"company_code"`
		FiscalYear          int              `json:"fiscal_year"`
		FiscalPeriod        int              `json:"fiscal_period"`
		DocumentNumber      string           `json:"document_number"`
		LineItem            int              `json:"line_item"`
		DocumentType        string           `json:"document_type"`
		DocumentCategory    DocumentCategory `json:"document_category"`
		PostingDate         string           `json:"posting_date"`
		EntryDate           string           `json:"entry_date"`
		PostingKey          string           `json:"posting_key"`
		DebitCredit         DebitCredit      `json:"debit_credit"`
		GLAccount           string           `json:"gl_account"`
		Amount              json.Number      `json:"amount"`
		Currency            string           `json:"currency"`
		ProfitCenter        string           `json:"profit_center"`
		CostCenter          *string          `json:"cost_center"`
		FunctionalArea      *string          `json:"functional_area"`
		Segment             *string          `json:"segment"`
		BusinessArea        *string          `json:"business_area"`
		TradingPartner      *string          `json:"trading_partner"`
		Reference           *string          `json:"reference"`
		Text                *string          `json:"text"`
		UserID              string           `json:"user_id"`
		State               *string          `json:"state"`
		LOB                 *string          `json:"lob"`
		AccidentYear        *int             `json:"accident_year"`
		FinancialProduct    *string          `json:"financial_product"`
		StatutoryLine       *string          `json:"statutory_line"`
		TreatyID            *string          `json:"treaty_id"`
		ClaimType           *string          `json:"claim_type"`
		DistributionChannel *string          `json:"distribution_channel"`
		PolicyYear          *int             `json:"policy_year"`
	}{
		CompanyCode:         p.CompanyCode,
		FiscalYear:          p.FiscalYear,
		FiscalPeriod:        p.FiscalPeriod,
		DocumentNumber:      p.DocumentNumber,
		LineItem:            p.LineItem,
		DocumentType:        p.DocumentType,
		DocumentCategory:    p.DocumentCategory,
		PostingDate:         p.PostingDate.Format(DateLayout),
		EntryDate:           p.EntryDate.Format(DateLayout),
		PostingKey:          p.PostingKey,
		DebitCredit:         p.DebitCredit,
		GLAccount:           p.GLAccount,
		Amount:              json.Number(p.Amount.StringFixed(2)),
		Currency:            p.Currency,
		ProfitCenter:        p.ProfitCenter,
		CostCenter:          optString(p.CostCenter),
		FunctionalArea:      optString(p.FunctionalArea),
		Segment:             optString(p.Segment),
		BusinessArea:        optString(p.BusinessArea),
		TradingPartner:      optString(p.TradingPartner),
		Reference:           optString(p.Reference),
		Text:                optString(p.Text),
		UserID:              p.UserID,
		State:               optString(p.State),
		LOB:                 optString(p.LOB),
		AccidentYear:        optInt(p.AccidentYear),
		FinancialProduct:    optString(p.FinancialProduct),
		StatutoryLine:       optString(p.StatutoryLine),
		TreatyID:            optString(p.TreatyID),
		ClaimType:           optString(p.ClaimType),
		DistributionChannel: optString(p.DistributionChannel),
		PolicyYear:          optInt(p.PolicyYear),
	})
}

// TrialBalanceRow aggregates one account for one fiscal period
type TrialBalanceRow struct {
	CompanyCode       string          `json:"company_code"`
	FiscalYear        int             `json:"fiscal_year"`
	FiscalPeriod      int             `json:"fiscal_period"`
	GLAccount         string          `json:"gl_account"`
	Currency          string          `json:"currency"`
	OpeningBalance    decimal.Decimal `json:"opening_balance"`
	PeriodDebits      decimal.Decimal `json:"period_debits"`
	PeriodCredits     decimal.Decimal `json:"period_credits"`
	ClosingBalance    decimal.Decimal `json:"closing_balance"`
	CumulativeBalance decimal.Decimal `json:"cumulative_balance"`
}

// NetMovement returns period debits minus period credits
func (r *TrialBalanceRow) NetMovement() decimal.Decimal {
	return r.PeriodDebits.Sub(r.PeriodCredits)
}

// MarshalJSON writes balances as numbers
func (r TrialBalanceRow) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		CompanyCode       string      `json:"company_code"`
		FiscalYear        int         `json:"fiscal_year"`
		FiscalPeriod      int         `json:"fiscal_period"`
		GLAccount         string      `json:"gl_account"`
		Currency          string      `json:"currency"`
		OpeningBalance    json.Number `json:"opening_balance"`
		PeriodDebits      json.Number `json:"period_debits"`
		PeriodCredits     json.Number `json:"period_credits"`
		ClosingBalance    json.Number `json:"closing_balance"`
		CumulativeBalance json.Number `json:"cumulative_balance"`
	}{
		CompanyCode:       r.CompanyCode,
		FiscalYear:        r.FiscalYear,
		FiscalPeriod:      r.FiscalPeriod,
		GLAccount:         r.GLAccount,
		Currency:          r.Currency,
		OpeningBalance:    json.Number(r.OpeningBalance.StringFixed(2)),
		PeriodDebits:      json.Number(r.PeriodDebits.StringFixed(2)),
		PeriodCredits:     json.Number(r.PeriodCredits.StringFixed(2)),
		ClosingBalance:    json.Number(r.ClosingBalance.StringFixed(2)),
		CumulativeBalance: json.Number(r.CumulativeBalance.StringFixed(2)),
	})
}

// Dataset is the complete output of one generation run
type Dataset struct {
	Seed         int64             `json:"seed"`
	Profile      string            `json:"profile"`
	FiscalYear   int               `json:"fiscal_year"`
	Accounts     []Account         `json:"account_master"`
	Postings     []Posting         `json:"postings"`
	TrialBalance []TrialBalanceRow `json:"trial_balance"`
}

// DocumentCount returns the number of distinct document numbers
func (d *Dataset) DocumentCount() int {
	docs := make(map[string]struct{})
	for i := range d.Postings {
		docs[d.Postings[i].DocumentNumber] = struct{}{}
	}
	return len(docs)
}

// InactiveAccounts returns the number of accounts flagged inactive
func (d *Dataset) InactiveAccounts() int {
	n := 0
	for i := range d.Accounts {
		if !d.Accounts[i].IsActive {
			n++
		}
	}
	return n
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optInt(v int) *int {
	if v == 0 {
		return nil
	}
	return &v
}

func optDate(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	s := t.Format(DateLayout)
	return &s
}
