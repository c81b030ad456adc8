package ledger

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"

	"golang-synthetic-ledger/internal/models"
	"golang-synthetic-ledger/internal/patterns"
	"golang-synthetic-ledger/internal/refdata"
	"golang-synthetic-ledger/internal/rng"
	apperrors "golang-synthetic-ledger/pkg/errors"
)

func smallConfig() *Config {
	cfg := DefaultConfig()
	cfg.Scale = 0.01
	return cfg
}

func generateSmall(t *testing.T, seed int64) []models.Posting {
	t.Helper()
	postings, err := Generate(context.Background(), rng.New(seed), smallConfig())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	return postings
}

func TestJournal_Post(t *testing.T) {
	j := NewJournal(2025, 8)
	doc := j.Post(3, 31, "MJ", pair(decimal.NewFromInt(100),
		Line{Account: "720900"}, Line{Account: "720300"}), refdata.UserJSmith, 2)

	if doc != "0000000001" {
		t.Errorf("Post() doc = %s, want 0000000001", doc)
	}
	postings := j.Postings()
	if len(postings) != 2 {
		t.Fatalf("Post() lines = %d, want 2", len(postings))
	}

	debit, credit := postings[0], postings[1]
	if debit.PostingDate.Day() != 28 {
		t.Errorf("PostingDate day = %d, want 28", debit.PostingDate.Day())
	}
	if got := debit.EntryDate.Sub(debit.PostingDate).Hours(); got != 48 {
		t.Errorf("entry offset hours = %v, want 48", got)
	}
	if debit.DebitCredit != models.Debit || debit.PostingKey != models.PostingKeyDebit {
		t.Errorf("first line = %s/%s, want debit", debit.DebitCredit, debit.PostingKey)
	}
	if credit.DebitCredit != models.Credit || credit.PostingKey != models.PostingKeyCredit {
		t.Errorf("second line = %s/%s, want credit", credit.DebitCredit, credit.PostingKey)
	}
	if !credit.Amount.Equal(decimal.NewFromInt(100)) {
		t.Errorf("credit amount = %s, want unsigned 100", credit.Amount)
	}
	if debit.DocumentCategory != models.CategoryManual {
		t.Errorf("category = %s, want MJE", debit.DocumentCategory)
	}
	if debit.ProfitCenter != refdata.DefaultProfitCtr || debit.Segment != refdata.DefaultSegment {
		t.Errorf("defaults = %s/%s", debit.ProfitCenter, debit.Segment)
	}
	if err := j.Err(); err != nil {
		t.Errorf("Err() = %v, want nil", err)
	}
}

func TestJournal_ErrUnbalanced(t *testing.T) {
	j := NewJournal(2025, 4)
	j.Post(1, 1, "SA", []Line{
		{Account: "100000", Amount: decimal.NewFromInt(10)},
		{Account: "220000", Amount: decimal.NewFromInt(-9)},
	}, refdata.UserSystem, 0)

	err := j.Err()
	if err == nil {
		t.Fatal("Err() = nil, want unbalanced document error")
	}
	if !apperrors.HasCode(err, apperrors.CodeUnbalancedDocument) {
		t.Errorf("Err() code mismatch: %v", err)
	}
}

func TestRouting_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *Routing)
		wantErr bool
	}{
		{"defaults", func(r *Routing) {}, false},
		{"zero rate", func(r *Routing) { r.BackdateRate = 0 }, false},
		{"certain rate", func(r *Routing) { r.CatActivationRate = 1 }, false},
		{"negative", func(r *Routing) { r.ClaimTypeRate = -0.1 }, true},
		{"above one", func(r *Routing) { r.SuspenseUnclearedRate = 1.5 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := DefaultRouting()
			tt.mutate(&r)
			err := r.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"default", *DefaultConfig(), false},
		{"zero scale", Config{FiscalYear: 2025, Scale: 0, Routing: DefaultRouting()}, true},
		{"bad year", Config{FiscalYear: 12, Scale: 1, Routing: DefaultRouting()}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGenerate_InvalidConfig(t *testing.T) {
	cfg := smallConfig()
	cfg.Scale = -1
	_, err := Generate(context.Background(), rng.New(1), cfg)
	if !apperrors.HasCode(err, apperrors.CodeInvalidConfig) {
		t.Errorf("Generate() error = %v, want invalid config", err)
	}
}

func TestGenerate_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Generate(ctx, rng.New(1), smallConfig())
	if !apperrors.HasCode(err, apperrors.CodeCancelled) {
		t.Errorf("Generate() error = %v, want cancelled", err)
	}
}

func TestGenerate_DocumentsBalance(t *testing.T) {
	postings := generateSmall(t, 42)

	sums := make(map[string]decimal.Decimal)
	for i := range postings {
		p := &postings[i]
		sums[p.DocumentNumber] = sums[p.DocumentNumber].Add(p.SignedAmount())
		if p.Amount.IsNegative() {
			t.Fatalf("line %s/%d has negative amount", p.DocumentNumber, p.LineItem)
		}
		if p.FiscalPeriod != int(p.PostingDate.Month()) {
			t.Fatalf("line %s/%d period %d does not match posting date", p.DocumentNumber, p.LineItem, p.FiscalPeriod)
		}
	}
	for doc, sum := range sums {
		if !sum.IsZero() {
			t.Errorf("document %s sums to %s", doc, sum)
		}
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	first := generateSmall(t, 7)
	second := generateSmall(t, 7)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("same seed produced different postings (-first +second):\n%s", diff)
	}

	other := generateSmall(t, 8)
	if cmp.Equal(first, other) {
		t.Error("different seeds produced identical postings")
	}
}

func TestGenerate_PatternsDetected(t *testing.T) {
	postings := generateSmall(t, 42)

	for _, p := range patterns.All() {
		for _, d := range p.Detections {
			found := 0
			for i := range postings {
				if d.Filter.Matches(&postings[i]) {
					found++
				}
			}
			if found < d.Expected {
				t.Errorf("%s %s: found %d, want at least %d", p.ID, d.Label, found, d.Expected)
			}
		}
	}
}

func TestGenerate_KeyPersonDominates(t *testing.T) {
	postings := generateSmall(t, 42)

	counts := make(map[string]int)
	for i := range postings {
		if postings[i].DocumentCategory == models.CategoryManual {
			counts[postings[i].UserID]++
		}
	}
	key := counts[patterns.KeyPersonUser]
	for user, n := range counts {
		if user == patterns.KeyPersonUser {
			continue
		}
		if float64(key) < patterns.KeyPersonRatio*float64(n) {
			t.Errorf("%s has %d manual lines, %s has %d", patterns.KeyPersonUser, key, user, n)
		}
	}
}

func TestGenerate_CatastropheInSeason(t *testing.T) {
	cfg := smallConfig()
	cfg.Routing.CatActivationRate = 0
	postings, err := Generate(context.Background(), rng.New(3), cfg)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	months := make(map[int]bool)
	for i := range postings {
		if postings[i].Text == "Catastrophe claim" {
			months[postings[i].FiscalPeriod] = true
		}
	}
	if diff := cmp.Diff(map[int]bool{9: true}, months); diff != "" {
		t.Errorf("catastrophe months mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerate_OnPeriod(t *testing.T) {
	cfg := smallConfig()
	var periods []int
	last := 0
	cfg.OnPeriod = func(period, lines int) {
		periods = append(periods, period)
		if lines < last {
			t.Errorf("line count went backwards at period %d", period)
		}
		last = lines
	}
	if _, err := Generate(context.Background(), rng.New(1), cfg); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(periods) != 12 {
		t.Errorf("OnPeriod called %d times, want 12", len(periods))
	}
}
