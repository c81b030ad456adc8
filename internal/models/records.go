package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Fixture table names, also the base names of the fixture files
const (
	TableAccountMaster = "account_master"
	TablePostings      = "postings"
	TableTrialBalance  = "trial_balance"
)

// Tables lists the fixture tables in write order
var Tables = []string{TableAccountMaster, TablePostings, TableTrialBalance}

// ColumnsOf returns the column order of a fixture table
func ColumnsOf(table string) []string {
	switch table {
	case TableAccountMaster:
		return AccountColumns
	case TablePostings:
		return PostingColumns
	case TableTrialBalance:
		return TrialBalanceColumns
	}
	return nil
}

// AccountColumns is the column order of the account master table
var AccountColumns = []string{
	"gl_account", "description", "account_type", "account_group",
	"is_reconciliation_account", "open_item_management", "line_item_display",
	"statutory_category", "functional_area_default", "is_active",
	"effective_from", "source_system",
}

// PostingColumns is the column order of the postings table
var PostingColumns = []string{
	"company_code", "fiscal_year", "fiscal_period", "document_number", "line_item",
	"document_type", "document_category", "posting_date", "entry_date",
	"posting_key", "debit_credit", "gl_account", "amount", "currency",
	"profit_center", "cost_center", "functional_area", "segment", "business_area",
	"trading_partner", "reference", "text", "user_id", "state", "lob",
	"accident_year", "financial_product", "statutory_line", "treaty_id",
	"claim_type", "distribution_channel", "policy_year",
}

// TrialBalanceColumns is the column order of the trial balance table
var TrialBalanceColumns = []string{
	"company_code", "fiscal_year", "fiscal_period", "gl_account", "currency",
	"opening_balance", "period_debits", "period_credits", "closing_balance",
	"cumulative_balance",
}

// Record returns the account as delimited-text fields in AccountColumns order
func (a *Account) Record() []string {
	return []string{
		a.GLAccount,
		a.Description,
		string(a.AccountType),
		a.AccountGroup,
		formatBool(a.IsReconciliationAccount),
		formatBool(a.OpenItemManagement),
		formatBool(a.LineItemDisplay),
		a.StatutoryCategory,
		a.FunctionalAreaDefault,
		formatBool(a.IsActive),
		formatDate(a.EffectiveFrom),
		a.SourceSystem,
	}
}

// Record returns the posting as delimited-text fields in PostingColumns order
func (p *Posting) Record() []string {
	return []string{
		p.CompanyCode,
		strconv.Itoa(p.FiscalYear),
		strconv.Itoa(p.FiscalPeriod),
		p.DocumentNumber,
		strconv.Itoa(p.LineItem),
		p.DocumentType,
		string(p.DocumentCategory),
		formatDate(p.PostingDate),
		formatDate(p.EntryDate),
		p.PostingKey,
		string(p.DebitCredit),
		p.GLAccount,
		p.Amount.StringFixed(2),
		p.Currency,
		p.ProfitCenter,
		p.CostCenter,
		p.FunctionalArea,
		p.Segment,
		p.BusinessArea,
		p.TradingPartner,
		p.Reference,
		p.Text,
		p.UserID,
		p.State,
		p.LOB,
		formatOptInt(p.AccidentYear),
		p.FinancialProduct,
		p.StatutoryLine,
		p.TreatyID,
		p.ClaimType,
		p.DistributionChannel,
		formatOptInt(p.PolicyYear),
	}
}

// Record returns the row as delimited-text fields in TrialBalanceColumns order
func (r *TrialBalanceRow) Record() []string {
	return []string{
		r.CompanyCode,
		strconv.Itoa(r.FiscalYear),
		strconv.Itoa(r.FiscalPeriod),
		r.GLAccount,
		r.Currency,
		r.OpeningBalance.StringFixed(2),
		r.PeriodDebits.StringFixed(2),
		r.PeriodCredits.StringFixed(2),
		r.ClosingBalance.StringFixed(2),
		r.CumulativeBalance.StringFixed(2),
	}
}

// AccountFromRecord builds an Account from fields in AccountColumns order
func AccountFromRecord(rec []string) (*Account, error) {
	if len(rec) != len(AccountColumns) {
		return nil, fmt.Errorf("expected %d fields, got %d", len(AccountColumns), len(rec))
	}

	accountType, err := ParseAccountType(rec[2])
	if err != nil {
		return nil, err
	}
	flags := make([]bool, 4)
	for i, idx := range []int{4, 5, 6, 9} {
		if flags[i], err = ParseBool(rec[idx]); err != nil {
			return nil, fmt.Errorf("%s: %w", AccountColumns[idx], err)
		}
	}
	effective, err := ParseOptionalDate(rec[10])
	if err != nil {
		return nil, fmt.Errorf("effective_from: %w", err)
	}

	return &Account{
		GLAccount:               strings.TrimSpace(rec[0]),
		Description:             rec[1],
		AccountType:             accountType,
		AccountGroup:            rec[3],
		IsReconciliationAccount: flags[0],
		OpenItemManagement:      flags[1],
		LineItemDisplay:         flags[2],
		StatutoryCategory:       rec[7],
		FunctionalAreaDefault:   rec[8],
		IsActive:                flags[3],
		EffectiveFrom:           effective,
		SourceSystem:            rec[11],
	}, nil
}

// PostingFromRecord builds a Posting from fields in PostingColumns order
func PostingFromRecord(rec []string) (*Posting, error) {
	if len(rec) != len(PostingColumns) {
		return nil, fmt.Errorf("expected %d fields, got %d", len(PostingColumns), len(rec))
	}

	ints := make(map[int]int, 5)
	for _, idx := range []int{1, 2, 4, 25, 31} {
		v, err := ParseOptionalInt(rec[idx])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", PostingColumns[idx], err)
		}
		ints[idx] = v
	}
	postingDate, err := ParseDate(rec[7])
	if err != nil {
		return nil, fmt.Errorf("posting_date: %w", err)
	}
	entryDate, err := ParseDate(rec[8])
	if err != nil {
		return nil, fmt.Errorf("entry_date: %w", err)
	}
	side, err := ParseDebitCredit(rec[10])
	if err != nil {
		return nil, err
	}
	amount, err := ParseDecimalFromString(rec[12])
	if err != nil {
		return nil, fmt.Errorf("amount: %w", err)
	}

	return &Posting{
		CompanyCode:         rec[0],
		FiscalYear:          ints[1],
		FiscalPeriod:        ints[2],
		DocumentNumber:      rec[3],
		LineItem:            ints[4],
		DocumentType:        rec[5],
		DocumentCategory:    DocumentCategory(rec[6]),
		PostingDate:         postingDate,
		EntryDate:           entryDate,
		PostingKey:          rec[9],
		DebitCredit:         side,
		GLAccount:           rec[11],
		Amount:              amount,
		Currency:            rec[13],
		ProfitCenter:        rec[14],
		CostCenter:          rec[15],
		FunctionalArea:      rec[16],
		Segment:             rec[17],
		BusinessArea:        rec[18],
		TradingPartner:      rec[19],
		Reference:           rec[20],
		Text:                rec[21],
		UserID:              rec[22],
		State:               rec[23],
		LOB:                 rec[24],
		AccidentYear:        ints[25],
		FinancialProduct:    rec[26],
		StatutoryLine:       rec[27],
		TreatyID:            rec[28],
		ClaimType:           rec[29],
		DistributionChannel: rec[30],
		PolicyYear:          ints[31],
	}, nil
}

// TrialBalanceFromRecord builds a TrialBalanceRow from fields in TrialBalanceColumns order
func TrialBalanceFromRecord(rec []string) (*TrialBalanceRow, error) {
	if len(rec) != len(TrialBalanceColumns) {
		return nil, fmt.Errorf("expected %d fields, got %d", len(TrialBalanceColumns), len(rec))
	}

	year, err := strconv.Atoi(strings.TrimSpace(rec[1]))
	if err != nil {
		return nil, fmt.Errorf("fiscal_year: %w", err)
	}
	period, err := strconv.Atoi(strings.TrimSpace(rec[2]))
	if err != nil {
		return nil, fmt.Errorf("fiscal_period: %w", err)
	}
	amounts := make([]decimal.Decimal, 5)
	for i := range amounts {
		if amounts[i], err = ParseDecimalFromString(rec[5+i]); err != nil {
			return nil, fmt.Errorf("%s: %w", TrialBalanceColumns[5+i], err)
		}
	}

	return &TrialBalanceRow{
		CompanyCode:       rec[0],
		FiscalYear:        year,
		FiscalPeriod:      period,
		GLAccount:         rec[3],
		Currency:          rec[4],
		OpeningBalance:    amounts[0],
		PeriodDebits:      amounts[1],
		PeriodCredits:     amounts[2],
		ClosingBalance:    amounts[3],
		CumulativeBalance: amounts[4],
	}, nil
}

// ParseDecimalFromString parses a decimal amount, tolerating thousand separators
func ParseDecimalFromString(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount string cannot be empty")
	}

	s = strings.ReplaceAll(s, ",", "")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal format '%s': %w", s, err)
	}
	return d, nil
}

// ParseAccountType parses and validates an account type code
func ParseAccountType(s string) (AccountType, error) {
	t := AccountType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("invalid account type '%s': must be one of A, L, E, R, X", s)
	}
	return t, nil
}

// ParseDebitCredit parses and validates a debit/credit indicator
func ParseDebitCredit(s string) (DebitCredit, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "D", "DEBIT":
		return Debit, nil
	case "C", "CREDIT":
		return Credit, nil
	default:
		return "", fmt.Errorf("invalid debit_credit '%s': must be D or C", s)
	}
}

// ParseBool accepts true/false in the forms written by the fixture writers
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "t", "y":
		return true, nil
	case "false", "0", "f", "n":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean '%s'", s)
	}
}

// ParseDate parses a required calendar date
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("date string cannot be empty")
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unable to parse date '%s': %w", s, err)
	}
	return t, nil
}

// ParseOptionalDate parses a date, returning the zero time for an empty field
func ParseOptionalDate(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, nil
	}
	return ParseDate(s)
}

// ParseOptionalInt parses an integer, returning zero for an empty field
func ParseOptionalInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid integer '%s'", s)
	}
	return v, nil
}

// CompareAmountsWithTolerance compares two decimal amounts with a tolerance
func CompareAmountsWithTolerance(a, b, tolerance decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(tolerance)
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

func formatOptInt(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}
