package patterns

import (
	"bytes"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/shopspring/decimal"

	"golang-synthetic-ledger/internal/models"
)

func TestManifestGolden(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteManifest(&buf, 42, 2025); err != nil {
		t.Fatalf("WriteManifest() error = %v", err)
	}

	g := goldie.New(t)
	g.Assert(t, "manifest_seed42", buf.Bytes())
}

func TestLookup(t *testing.T) {
	tests := []struct {
		id       ID
		found    bool
		expected int
	}{
		{RecurringIdentical, true, 4},
		{RecurringTemplate, true, 12},
		{Reclassification, true, 12},
		{Intercompany, true, 12},
		{AccrualReversal, true, 24},
		{Correction, true, 10},
		{Consolidation, true, 8},
		{"unknown", false, 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.id), func(t *testing.T) {
			p, ok := Lookup(tt.id)
			if ok != tt.found {
				t.Fatalf("Lookup(%s) found = %v, want %v", tt.id, ok, tt.found)
			}
			if p.ExpectedCount != tt.expected {
				t.Errorf("ExpectedCount = %d, want %d", p.ExpectedCount, tt.expected)
			}
		})
	}
}

func TestAllReturnsCopy(t *testing.T) {
	all := All()
	if len(all) != 7 {
		t.Fatalf("All() returned %d patterns, want 7", len(all))
	}
	all[0].User = "NOBODY"
	if p, _ := Lookup(RecurringIdentical); p.User == "NOBODY" {
		t.Error("All() exposed the shared table")
	}
}

func TestFilterMatches(t *testing.T) {
	base := models.Posting{
		UserID:           "JSMITH",
		GLAccount:        "720900",
		DocumentCategory: models.CategoryManual,
		Text:             "Quarterly professional fees reclass",
		Amount:           decimal.NewFromInt(15000),
		PostingDate:      time.Date(2025, 3, 25, 0, 0, 0, 0, time.UTC),
	}
	p, _ := Lookup(RecurringIdentical)
	f := p.Detections[0].Filter

	tests := []struct {
		name   string
		mutate func(*models.Posting)
		want   bool
	}{
		{"exact match", func(*models.Posting) {}, true},
		{"other user", func(p *models.Posting) { p.UserID = "MBROWN" }, false},
		{"other account", func(p *models.Posting) { p.GLAccount = "720300" }, false},
		{"standard category", func(p *models.Posting) { p.DocumentCategory = models.CategoryStandard }, false},
		{"different amount", func(p *models.Posting) { p.Amount = decimal.NewFromInt(15001) }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			posting := base
			tt.mutate(&posting)
			if got := f.Matches(&posting); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}

	reclass, _ := Lookup(Reclassification)
	line := base
	line.GLAccount = "500000"
	line.Text = "Monthly LOSS RECLASS"
	if !reclass.Detections[0].Filter.Matches(&line) {
		t.Error("text filter should be case insensitive")
	}
}

func TestFiresIn(t *testing.T) {
	quarterly, _ := Lookup(RecurringIdentical)
	monthly, _ := Lookup(Intercompany)
	sporadic, _ := Lookup(Correction)

	for month := 1; month <= 12; month++ {
		if got := quarterly.FiresIn(month); got != (month%3 == 0) {
			t.Errorf("quarterly FiresIn(%d) = %v", month, got)
		}
		if !monthly.FiresIn(month) {
			t.Errorf("monthly FiresIn(%d) = false", month)
		}
		if sporadic.FiresIn(month) {
			t.Errorf("sporadic FiresIn(%d) = true", month)
		}
	}
}

func TestAccountsDeduplicated(t *testing.T) {
	p, _ := Lookup(Correction)
	accounts := p.Accounts()
	if len(accounts) != 8 {
		t.Errorf("correction accounts = %v, want 8 distinct", accounts)
	}
}

func TestCount(t *testing.T) {
	postings := []models.Posting{
		{UserID: "ACHEN", GLAccount: "160000", DocumentCategory: models.CategoryManual},
		{UserID: "ACHEN", GLAccount: "720000", DocumentCategory: models.CategoryManual},
		{UserID: "SYSTEM", GLAccount: "160000", DocumentCategory: models.CategoryStandard},
	}
	p, _ := Lookup(Intercompany)
	if got := Count(postings, p.Detections[0].Filter); got != 1 {
		t.Errorf("Count() = %d, want 1", got)
	}
}
