package validator

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"golang-synthetic-ledger/internal/generator"
	"golang-synthetic-ledger/internal/models"
	"golang-synthetic-ledger/internal/trialbalance"
	"golang-synthetic-ledger/pkg/errors"
)

func posting(doc string, line int, account string, side models.DebitCredit, amount string) models.Posting {
	date := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	return models.Posting{
		DocumentNumber:   doc,
		LineItem:         line,
		FiscalPeriod:     1,
		PostingDate:      date,
		EntryDate:        date,
		DocumentType:     "SA",
		DocumentCategory: models.CategoryStandard,
		DebitCredit:      side,
		GLAccount:        account,
		Amount:           decimal.RequireFromString(amount),
		UserID:           "SYSTEM",
	}
}

func TestCheckBalanced(t *testing.T) {
	tol := DefaultOptions().Tolerance
	balanced := []models.Posting{
		posting("0000000001", 1, "100000", models.Debit, "10.00"),
		posting("0000000001", 2, "220000", models.Credit, "10.00"),
	}
	assert.NoError(t, CheckBalanced(balanced, tol))

	withinTolerance := []models.Posting{
		posting("0000000001", 1, "100000", models.Debit, "10.00"),
		posting("0000000001", 2, "220000", models.Credit, "9.995"),
	}
	assert.NoError(t, CheckBalanced(withinTolerance, tol))

	unbalanced := append(balanced,
		posting("0000000002", 1, "100000", models.Debit, "10.00"),
		posting("0000000002", 2, "220000", models.Credit, "9.00"))
	err := CheckBalanced(unbalanced, tol)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeUnbalancedDocument))
	assert.Contains(t, err.Error(), "0000000002")
}

func TestCheckBalanced_CapsReport(t *testing.T) {
	var postings []models.Posting
	for i := 0; i < 15; i++ {
		doc := decimal.NewFromInt(int64(i)).String()
		postings = append(postings, posting(doc, 1, "100000", models.Debit, "1.00"))
	}
	err := CheckBalanced(postings, DefaultOptions().Tolerance)
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), maxReported+1)
	assert.Contains(t, err.Error(), "5 more unbalanced documents")
}

func TestCheckReferentialClosure(t *testing.T) {
	accounts := []models.Account{{GLAccount: "100000"}, {GLAccount: "220000"}}
	postings := []models.Posting{
		posting("1", 1, "100000", models.Debit, "1"),
		posting("1", 2, "220000", models.Credit, "1"),
	}
	assert.NoError(t, CheckReferentialClosure(accounts, postings))

	postings = append(postings, posting("2", 1, "999999", models.Debit, "1"))
	err := CheckReferentialClosure(accounts, postings)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeUnknownAccount))
	assert.Contains(t, err.Error(), "999999")
}

func TestCheckTrialBalanceIdentity(t *testing.T) {
	accounts := []models.Account{
		{GLAccount: "100000", AccountType: models.AccountTypeAsset, AccountGroup: "CASH", IsActive: true},
		{GLAccount: "720000", AccountType: models.AccountTypeExpense, IsActive: true},
	}
	postings := []models.Posting{
		posting("1", 1, "720000", models.Debit, "25.00"),
		posting("1", 2, "100000", models.Credit, "25.00"),
	}
	rows := trialbalance.Derive(1, 2025, accounts, postings)
	require.NoError(t, CheckTrialBalanceIdentity(rows))

	rows[5].CumulativeBalance = rows[5].CumulativeBalance.Add(decimal.NewFromInt(1))
	rows[11].CumulativeBalance = rows[11].CumulativeBalance.Add(decimal.NewFromInt(1))
	err := CheckTrialBalanceIdentity(rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "100000: cumulative")

	rows = trialbalance.Derive(1, 2025, accounts, postings)
	rows[3].ClosingBalance = decimal.NewFromInt(7)
	assert.Error(t, CheckTrialBalanceIdentity(rows))

	assert.Error(t, CheckTrialBalanceIdentity(rows[:6]), "missing periods must fail")
}

func TestCheckKeyPersonRisk(t *testing.T) {
	manual := func(user string, n int) []models.Posting {
		out := make([]models.Posting, n)
		for i := range out {
			out[i] = models.Posting{DocumentCategory: models.CategoryManual, UserID: user}
		}
		return out
	}

	tests := []struct {
		name    string
		lines   []models.Posting
		wantErr string
	}{
		{"dominant", append(manual("JSMITH", 30), manual("MBROWN", 20)...), ""},
		{"exact ratio", append(manual("JSMITH", 15), manual("MBROWN", 10)...), ""},
		{"too close", append(manual("JSMITH", 14), manual("MBROWN", 10)...), "less than"},
		{"wrong leader", append(manual("JSMITH", 10), manual("ACHEN", 30)...), "top preparer is ACHEN"},
		{"none", nil, "no manual"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckKeyPersonRisk(tt.lines)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestManualEntryCounts(t *testing.T) {
	postings := []models.Posting{
		{DocumentCategory: models.CategoryManual, UserID: "B"},
		{DocumentCategory: models.CategoryManual, UserID: "A"},
		{DocumentCategory: models.CategoryStandard, UserID: "A"},
	}
	assert.Equal(t, []PreparerCount{{"A", 1}, {"B", 1}}, ManualEntryCounts(postings))
}

func TestCheckVolume(t *testing.T) {
	ds := &models.Dataset{
		Accounts: make([]models.Account, 100),
		Postings: make([]models.Posting, 50),
	}
	assert.NoError(t, CheckVolume(ds, &Options{}))
	assert.NoError(t, CheckVolume(ds, &Options{MinPostings: 50, AccountMin: 90, AccountMax: 110}))

	err := CheckVolume(ds, &Options{MinPostings: 51, AccountMin: 101, AccountMax: 99})
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 3)
}

func TestAccountCodeShapes(t *testing.T) {
	tests := []struct {
		code           string
		productEncoded bool
		catastrophe    bool
	}{
		{"500070", true, false},
		{"500380", true, false},
		{"600240", true, false},
		{"600150", true, false},
		{"500050", false, true},
		{"500000", false, false},
		{"501010", false, false},
		{"5000X0", false, false},
		{"50070", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.productEncoded, IsProductEncoded(tt.code))
			assert.Equal(t, tt.catastrophe, IsCatastropheAccount(tt.code))
		})
	}
}

func TestCheckSourceSystems(t *testing.T) {
	year := func(y int) time.Time { return time.Date(y, 1, 1, 0, 0, 0, 0, time.UTC) }
	accounts := []models.Account{
		{GLAccount: "1", SourceSystem: "SAP", EffectiveFrom: year(2021)},
		{GLAccount: "2", SourceSystem: "Legacy", EffectiveFrom: year(2007)},
		{GLAccount: "3", SourceSystem: "MM-Acquired", EffectiveFrom: year(2015)},
	}
	assert.NoError(t, CheckSourceSystems(accounts))

	err := CheckSourceSystems(accounts[:1])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Legacy")
	assert.Contains(t, err.Error(), "earliest effective year")
}

func TestValidate_GeneratedDataset(t *testing.T) {
	ds, err := generator.Generate(context.Background(), &generator.Config{
		Seed:          42,
		Profile:       generator.ProfileCompact,
		Routing:       generator.DefaultConfig().Routing,
		Scale:         0.02,
		AccountTarget: 900,
	})
	require.NoError(t, err)

	checks := []func() error{
		func() error { return CheckBalanced(ds.Postings, DefaultOptions().Tolerance) },
		func() error { return CheckReferentialClosure(ds.Accounts, ds.Postings) },
		func() error { return CheckTrialBalanceIdentity(ds.TrialBalance) },
		func() error { return CheckPatterns(ds.Postings) },
		func() error { return CheckKeyPersonRisk(ds.Postings) },
		func() error { return CheckCoverage(ds, DefaultOptions()) },
		func() error { return CheckOpeningBalances(ds, DefaultOptions()) },
		func() error { return CheckSourceSystems(ds.Accounts) },
	}
	for _, check := range checks {
		assert.NoError(t, check())
	}
}

func TestValidate_ReportsInvariantViolated(t *testing.T) {
	ds := &models.Dataset{
		Postings: []models.Posting{posting("1", 1, "100000", models.Debit, "5")},
	}
	err := Validate(ds)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeInvariantViolated))

	ledgerErr, ok := errors.AsLedgerError(err)
	require.True(t, ok)
	assert.Contains(t, ledgerErr.Error(), "balanced")
	assert.Contains(t, ledgerErr.Error(), "referential_closure")
}
