package generator

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"golang-synthetic-ledger/internal/models"
	"golang-synthetic-ledger/internal/patterns"
	"golang-synthetic-ledger/internal/validator"
	"golang-synthetic-ledger/pkg/errors"
)

func tinyConfig(seed int64) *Config {
	cfg := DefaultConfig()
	cfg.Seed = seed
	cfg.Profile = ProfileCompact
	cfg.Scale = 0.01
	cfg.AccountTarget = 800
	return cfg
}

func TestLookupProfile(t *testing.T) {
	tests := []struct {
		name       string
		wantTarget int
		wantErr    bool
	}{
		{"full", 3100, false},
		{"compact", 2500, false},
		{" Compact ", 2500, false},
		{"huge", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := LookupProfile(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("LookupProfile() error = %v, wantErr %v", err, tt.wantErr)
			}
			if p.AccountTarget != tt.wantTarget {
				t.Errorf("AccountTarget = %d, want %d", p.AccountTarget, tt.wantTarget)
			}
			if !tt.wantErr && (p.AccountTarget < p.AccountMin || p.AccountTarget > p.AccountMax) {
				t.Errorf("target %d outside band %d-%d", p.AccountTarget, p.AccountMin, p.AccountMax)
			}
		})
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown profile", func(c *Config) { c.Profile = "medium" }},
		{"negative scale", func(c *Config) { c.Scale = -1 }},
		{"negative target", func(c *Config) { c.AccountTarget = -5 }},
		{"bad routing", func(c *Config) { c.Routing.BackdateRate = 2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			_, err := New(cfg)
			if !errors.HasCode(err, errors.CodeInvalidConfig) {
				t.Errorf("New() error = %v, want invalid config", err)
			}
		})
	}
}

func TestGenerate_Tiny(t *testing.T) {
	ds, err := Generate(context.Background(), tinyConfig(42))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if ds.Seed != 42 || ds.Profile != ProfileCompact {
		t.Errorf("dataset header = %d/%s", ds.Seed, ds.Profile)
	}
	if len(ds.Accounts) < 800 {
		t.Errorf("accounts = %d, want at least 800", len(ds.Accounts))
	}
	if len(ds.TrialBalance) != len(ds.Accounts)*12 {
		t.Errorf("trial balance rows = %d, want %d", len(ds.TrialBalance), len(ds.Accounts)*12)
	}

	known := make(map[string]bool, len(ds.Accounts))
	for _, a := range ds.Accounts {
		known[a.GLAccount] = true
	}
	for i := range ds.Postings {
		if !known[ds.Postings[i].GLAccount] {
			t.Fatalf("posting account %s missing from master", ds.Postings[i].GLAccount)
		}
	}
}

func TestGenerate_Reproducible(t *testing.T) {
	first, err := Generate(context.Background(), tinyConfig(42))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	second, err := Generate(context.Background(), tinyConfig(42))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("same seed produced different datasets (-first +second):\n%s", diff)
	}

	other, err := Generate(context.Background(), tinyConfig(99))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if cmp.Equal(first.Postings[:100], other.Postings[:100]) {
		t.Error("seeds 42 and 99 produced the same first 100 postings")
	}
	if len(models.PostingColumns) != len(other.Postings[0].Record()) {
		t.Error("seed change altered the posting schema")
	}
}

// The published example: four identical quarterly documents of 15000.
func TestGenerate_RecurringIdenticalExample(t *testing.T) {
	ds, err := Generate(context.Background(), tinyConfig(42))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	p, _ := patterns.Lookup(patterns.RecurringIdentical)

	docs := make(map[string][]models.Posting)
	for _, posting := range ds.Postings {
		if posting.Text == p.Text && posting.UserID == p.User {
			docs[posting.DocumentNumber] = append(docs[posting.DocumentNumber], posting)
		}
	}
	if len(docs) != 4 {
		t.Fatalf("found %d documents, want 4", len(docs))
	}

	periods := make(map[int]bool)
	for doc, lines := range docs {
		if len(lines) != 2 {
			t.Errorf("document %s has %d lines, want 2", doc, len(lines))
			continue
		}
		periods[lines[0].FiscalPeriod] = true
		debit, credit := lines[0], lines[1]
		if debit.DebitCredit != models.Debit || debit.GLAccount != p.DebitAccount || !debit.Amount.Equal(p.Amount) {
			t.Errorf("document %s debit = %s %s %s", doc, debit.DebitCredit, debit.GLAccount, debit.Amount)
		}
		if credit.DebitCredit != models.Credit || credit.GLAccount != p.CreditAccount || !credit.Amount.Equal(p.Amount) {
			t.Errorf("document %s credit = %s %s %s", doc, credit.DebitCredit, credit.GLAccount, credit.Amount)
		}
		if debit.DocumentCategory != models.CategoryManual {
			t.Errorf("document %s category = %s, want MJE", doc, debit.DocumentCategory)
		}
	}
	if diff := cmp.Diff(map[int]bool{3: true, 6: true, 9: true, 12: true}, periods); diff != "" {
		t.Errorf("periods mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerate_Progress(t *testing.T) {
	g, err := New(tinyConfig(1))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	var stages []string
	g.AddProgressCallback(func(p *Progress) {
		stages = append(stages, p.Stage)
	})
	if _, err := g.Generate(context.Background()); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if len(stages) != TotalSteps {
		t.Fatalf("progress callbacks = %d, want %d", len(stages), TotalSteps)
	}
	if stages[0] != "Account master built" || stages[len(stages)-1] != "Trial balance derived" {
		t.Errorf("stages = %v", stages)
	}
	if got := g.CurrentProgress().PercentComplete; got != 100 {
		t.Errorf("PercentComplete = %v, want 100", got)
	}
}

func TestGenerate_Profiles(t *testing.T) {
	if testing.Short() {
		t.Skip("full volume run skipped in short mode")
	}

	for _, name := range ProfileNames() {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Profile = name
			ds, err := Generate(context.Background(), cfg)
			if err != nil {
				t.Fatalf("Generate() error = %v", err)
			}
			p, _ := LookupProfile(name)
			opts := validator.DefaultOptions()
			opts.MinPostings = p.MinPostings
			opts.AccountMin = p.AccountMin
			opts.AccountMax = p.AccountMax
			if err := validator.New(opts).Validate(ds); err != nil {
				ledgerErr, _ := errors.AsLedgerError(err)
				t.Errorf("Validate() error = %v: %v", err, ledgerErr.Cause)
			}
		})
	}
}
