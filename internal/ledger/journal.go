// Package ledger emits a fiscal year of balanced journal postings for the
// synthetic insurance ledger.
package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"golang-synthetic-ledger/internal/models"
	"golang-synthetic-ledger/internal/refdata"
	apperrors "golang-synthetic-ledger/pkg/errors"
)

// maxPostingDay avoids month-length edge cases
const maxPostingDay = 28

// Line is one requested posting line. A non-negative Amount is a debit, a
// negative Amount a credit. Empty tags are left unset on the posting.
type Line struct {
	Account             string
	Amount              decimal.Decimal
	CompanyCode         string
	ProfitCenter        string
	CostCenter          string
	FunctionalArea      string
	Segment             string
	TradingPartner      string
	Reference           string
	Text                string
	State               string
	LOB                 string
	AccidentYear        int
	FinancialProduct    string
	StatutoryLine       string
	TreatyID            string
	ClaimType           string
	DistributionChannel string
	PolicyYear          int
}

// Journal assigns document numbers and turns balanced line sets into postings
type Journal struct {
	year       int
	docCounter int
	postings   []models.Posting
	unbalanced []string
}

// NewJournal creates an empty journal for one fiscal year
func NewJournal(year int, capacity int) *Journal {
	return &Journal{
		year:     year,
		postings: make([]models.Posting, 0, capacity),
	}
}

// Post books one document and returns its number. The lines must sum to zero;
// a document that does not is still booked and reported by Err.
func (j *Journal) Post(month, day int, docType string, lines []Line, user string, entryOffset int) string {
	j.docCounter++
	docNumber := fmt.Sprintf("%010d", j.docCounter)

	if day > maxPostingDay {
		day = maxPostingDay
	}
	if day < 1 {
		day = 1
	}
	postingDate := time.Date(j.year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	entryDate := postingDate.AddDate(0, 0, entryOffset)
	category := refdata.CategoryOf(docType)

	sum := decimal.Zero
	for i, line := range lines {
		sum = sum.Add(line.Amount)

		side := models.Debit
		if line.Amount.IsNegative() {
			side = models.Credit
		}
		j.postings = append(j.postings, models.Posting{
			CompanyCode:         orDefault(line.CompanyCode, refdata.CompanyCode),
			FiscalYear:          j.year,
			FiscalPeriod:        month,
			DocumentNumber:      docNumber,
			LineItem:            i + 1,
			DocumentType:        docType,
			DocumentCategory:    category,
			PostingDate:         postingDate,
			EntryDate:           entryDate,
			PostingKey:          side.PostingKey(),
			DebitCredit:         side,
			GLAccount:           line.Account,
			Amount:              line.Amount.Abs(),
			Currency:            refdata.Currency,
			ProfitCenter:        orDefault(line.ProfitCenter, refdata.DefaultProfitCtr),
			CostCenter:          line.CostCenter,
			FunctionalArea:      line.FunctionalArea,
			Segment:             orDefault(line.Segment, refdata.DefaultSegment),
			TradingPartner:      line.TradingPartner,
			Reference:           line.Reference,
			Text:                line.Text,
			UserID:              user,
			State:               line.State,
			LOB:                 line.LOB,
			AccidentYear:        line.AccidentYear,
			FinancialProduct:    line.FinancialProduct,
			StatutoryLine:       line.StatutoryLine,
			TreatyID:            line.TreatyID,
			ClaimType:           line.ClaimType,
			DistributionChannel: line.DistributionChannel,
			PolicyYear:          line.PolicyYear,
		})
	}

	if !sum.IsZero() {
		j.unbalanced = append(j.unbalanced, fmt.Sprintf("%s (%s)", docNumber, sum.StringFixed(2)))
	}
	return docNumber
}

// Postings returns every line booked so far
func (j *Journal) Postings() []models.Posting {
	return j.postings
}

// Documents returns the number of documents booked so far
func (j *Journal) Documents() int {
	return j.docCounter
}

// Err reports documents whose lines did not sum to zero
func (j *Journal) Err() error {
	if len(j.unbalanced) == 0 {
		return nil
	}
	shown := j.unbalanced
	if len(shown) > 10 {
		shown = shown[:10]
	}
	first := strings.SplitN(j.unbalanced[0], " ", 2)[0]
	return apperrors.GenerationError(apperrors.CodeUnbalancedDocument, first,
		fmt.Errorf("%d unbalanced documents: %s", len(j.unbalanced), strings.Join(shown, ", "))).
		WithContext("count", len(j.unbalanced))
}

// pair builds a two-line document moving amount from credit to debit
func pair(amount decimal.Decimal, debit, credit Line) []Line {
	debit.Amount = amount
	credit.Amount = amount.Neg()
	return []Line{debit, credit}
}

// withText sets the same text on every line
func withText(lines []Line, text string) []Line {
	for i := range lines {
		lines[i].Text = text
	}
	return lines
}

func money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
