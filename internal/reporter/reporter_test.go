package reporter

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"golang-synthetic-ledger/internal/models"
	"golang-synthetic-ledger/internal/parsers"
	"golang-synthetic-ledger/pkg/errors"
)

func createTestDataset() *models.Dataset {
	day := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)
	line := func(doc string, item int, side models.DebitCredit, account, user string, category models.DocumentCategory) models.Posting {
		return models.Posting{
			CompanyCode: "1000", FiscalYear: 2025, FiscalPeriod: 2, DocumentNumber: doc, LineItem: item,
			DocumentType: "MJ", DocumentCategory: category, PostingDate: day, EntryDate: day,
			PostingKey: side.PostingKey(), DebitCredit: side, GLAccount: account,
			Amount: decimal.RequireFromString("250.00"), Currency: "USD", ProfitCenter: "PC1000",
			Text: "Misc adjustment & fees", UserID: user,
		}
	}
	return &models.Dataset{
		Seed:       7,
		Profile:    "compact",
		FiscalYear: 2025,
		Accounts: []models.Account{
			{GLAccount: "100000", Description: "Cash - Operating", AccountType: models.AccountTypeAsset, AccountGroup: "CASH", IsActive: true, SourceSystem: "SAP"},
			{GLAccount: "720100", Description: "Technology", AccountType: models.AccountTypeExpense, AccountGroup: "OPEX"},
		},
		Postings: []models.Posting{
			line("0000000001", 1, models.Debit, "720100", "JSMITH", models.CategoryManual),
			line("0000000001", 2, models.Credit, "100000", "JSMITH", models.CategoryManual),
			line("0000000002", 1, models.Debit, "720100", "MBROWN", models.CategoryManual),
			line("0000000002", 2, models.Credit, "100000", "SYSTEM", models.CategoryStandard),
		},
		TrialBalance: []models.TrialBalanceRow{
			{CompanyCode: "1000", FiscalYear: 2025, FiscalPeriod: 1, GLAccount: "100000", Currency: "USD",
				OpeningBalance: decimal.RequireFromString("100.00"), ClosingBalance: decimal.RequireFromString("100.00"),
				CumulativeBalance: decimal.RequireFromString("100.00")},
			{CompanyCode: "1000", FiscalYear: 2025, FiscalPeriod: 2, GLAccount: "100000", Currency: "USD",
				OpeningBalance: decimal.RequireFromString("100.00"), PeriodCredits: decimal.RequireFromString("500.00"),
				ClosingBalance: decimal.RequireFromString("-400.00"), CumulativeBalance: decimal.RequireFromString("-400.00")},
		},
	}
}

func TestOutputFormatValidation(t *testing.T) {
	tests := []struct {
		format OutputFormat
		valid  bool
	}{
		{FormatCSV, true},
		{FormatJSONL, true},
		{FormatXLSX, true},
		{"parquet", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			if got := tt.format.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		want    []OutputFormat
		wantErr bool
	}{
		{"single", []string{"csv"}, []OutputFormat{FormatCSV}, false},
		{"mixed case and duplicates", []string{"CSV", " xlsx", "csv", ""}, []OutputFormat{FormatCSV, FormatXLSX}, false},
		{"unknown", []string{"csv", "xml"}, nil, true},
		{"empty", nil, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormats(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormats() error = %v, wantErr %v", err, tt.wantErr)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseFormats() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFixtureConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *FixtureConfig)
		valid  bool
	}{
		{"default", func(c *FixtureConfig) {}, true},
		{"no formats", func(c *FixtureConfig) { c.Formats = nil }, false},
		{"bad format", func(c *FixtureConfig) { c.Formats = []OutputFormat{"xml"} }, false},
		{"negative concurrency", func(c *FixtureConfig) { c.Concurrency = -1 }, false},
		{"zero sheet rows", func(c *FixtureConfig) { c.SheetRows = 0 }, false},
		{"too many sheet rows", func(c *FixtureConfig) { c.SheetRows = MaxSheetRows + 1 }, false},
		{"quote delimiter", func(c *FixtureConfig) { c.CSVDelimiter = '"' }, false},
		{"semicolon delimiter", func(c *FixtureConfig) { c.CSVDelimiter = ';' }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultFixtureConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); (err == nil) != tt.valid {
				t.Errorf("Validate() error = %v, valid %v", err, tt.valid)
			}
		})
	}
}

func TestSheetLayout(t *testing.T) {
	tests := []struct {
		rows, sheetRows, want int
	}{
		{0, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{2_000_000, MaxSheetRows, 2},
	}
	for _, tt := range tests {
		if got := SheetCount(tt.rows, tt.sheetRows); got != tt.want {
			t.Errorf("SheetCount(%d, %d) = %d, want %d", tt.rows, tt.sheetRows, got, tt.want)
		}
	}
	if got := SheetName("postings", 0); got != "postings" {
		t.Errorf("SheetName(postings, 0) = %s", got)
	}
	if got := SheetName("postings", 1); got != "postings_2" {
		t.Errorf("SheetName(postings, 1) = %s", got)
	}
}

func TestWriteDataset_AllFormats(t *testing.T) {
	ds := createTestDataset()
	dir := filepath.Join(t.TempDir(), "out")

	cfg := DefaultFixtureConfig()
	cfg.Formats = []OutputFormat{FormatCSV, FormatJSONL, FormatXLSX}
	cfg.SheetRows = 3
	paths, err := NewFixtureWriter(cfg).WriteDataset(context.Background(), ds, dir)
	if err != nil {
		t.Fatalf("WriteDataset() error = %v", err)
	}

	wantFiles := []string{ManifestFile}
	for _, tbl := range models.Tables {
		for _, f := range cfg.Formats {
			wantFiles = append(wantFiles, FileName(tbl, f))
		}
	}
	if len(paths) != len(wantFiles) {
		t.Errorf("wrote %d files, want %d", len(paths), len(wantFiles))
	}
	for _, name := range wantFiles {
		path, ok := paths[name]
		if !ok {
			t.Errorf("missing %s in result", name)
			continue
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("stat %s: %v", path, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temporary file %s left behind", e.Name())
		}
	}

	t.Run("csv reads back", func(t *testing.T) {
		got, err := parsers.ReadFixtureDir(context.Background(), dir)
		if err != nil {
			t.Fatalf("ReadFixtureDir() error = %v", err)
		}
		if diff := cmp.Diff(ds.Accounts, got.Accounts); diff != "" {
			t.Errorf("accounts mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff(ds.Postings, got.Postings); diff != "" {
			t.Errorf("postings mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff(ds.TrialBalance, got.TrialBalance); diff != "" {
			t.Errorf("trial balance mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("jsonl", func(t *testing.T) {
		f, err := os.Open(paths[FileName(models.TablePostings, FormatJSONL)])
		if err != nil {
			t.Fatal(err)
		}
		defer f.Close()

		var lines []map[string]interface{}
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			var row map[string]interface{}
			if err := json.Unmarshal(scanner.Bytes(), &row); err != nil {
				t.Fatalf("line %d: %v", len(lines)+1, err)
			}
			lines = append(lines, row)
		}
		if len(lines) != len(ds.Postings) {
			t.Fatalf("jsonl lines = %d, want %d", len(lines), len(ds.Postings))
		}
		if v, ok := lines[0]["cost_center"]; !ok || v != nil {
			t.Errorf("cost_center = %v, want null", v)
		}
		if lines[0]["amount"] != 250.0 {
			t.Errorf("amount = %v, want 250", lines[0]["amount"])
		}
		if lines[0]["text"] != "Misc adjustment & fees" {
			t.Errorf("text = %v", lines[0]["text"])
		}
	})

	t.Run("xlsx splits sheets", func(t *testing.T) {
		f, err := excelize.OpenFile(paths[FileName(models.TablePostings, FormatXLSX)])
		if err != nil {
			t.Fatalf("OpenFile() error = %v", err)
		}
		defer f.Close()

		if diff := cmp.Diff([]string{"postings", "postings_2"}, f.GetSheetList()); diff != "" {
			t.Errorf("sheets mismatch (-want +got):\n%s", diff)
		}
		first, err := f.GetRows("postings")
		if err != nil {
			t.Fatal(err)
		}
		if len(first) != 4 {
			t.Errorf("first sheet rows = %d, want header + 3", len(first))
		}
		if diff := cmp.Diff(models.PostingColumns, first[0]); diff != "" {
			t.Errorf("header mismatch (-want +got):\n%s", diff)
		}
		second, err := f.GetRows("postings_2")
		if err != nil {
			t.Fatal(err)
		}
		if len(second) != 2 || second[1][3] != "0000000002" {
			t.Errorf("second sheet = %v", second)
		}
	})
}

func TestWriteDataset_Deterministic(t *testing.T) {
	ds := createTestDataset()
	cfg := DefaultFixtureConfig()
	cfg.Formats = []OutputFormat{FormatCSV, FormatJSONL}

	first, err := NewFixtureWriter(cfg).WriteDataset(context.Background(), ds, t.TempDir())
	if err != nil {
		t.Fatalf("WriteDataset() error = %v", err)
	}
	second, err := NewFixtureWriter(cfg).WriteDataset(context.Background(), ds, t.TempDir())
	if err != nil {
		t.Fatalf("WriteDataset() error = %v", err)
	}
	for name, path := range first {
		a, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		b, err := os.ReadFile(second[name])
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(a, b) {
			t.Errorf("%s differs between runs", name)
		}
	}
}

func TestWriteDataset_Errors(t *testing.T) {
	ds := createTestDataset()

	t.Run("invalid config", func(t *testing.T) {
		cfg := DefaultFixtureConfig()
		cfg.Formats = nil
		_, err := NewFixtureWriter(cfg).WriteDataset(context.Background(), ds, t.TempDir())
		if !errors.HasCode(err, errors.CodeInvalidConfig) {
			t.Errorf("error = %v, want invalid config", err)
		}
	})

	t.Run("nil dataset", func(t *testing.T) {
		_, err := NewFixtureWriter(nil).WriteDataset(context.Background(), nil, t.TempDir())
		if !errors.HasCode(err, errors.CodeMissingField) {
			t.Errorf("error = %v, want missing field", err)
		}
	})

	t.Run("directory is a file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "taken")
		if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		_, err := NewFixtureWriter(nil).WriteDataset(context.Background(), ds, file)
		if !errors.HasCode(err, errors.CodeDirectoryError) {
			t.Errorf("error = %v, want directory error", err)
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		dir := t.TempDir()
		_, err := NewFixtureWriter(nil).WriteDataset(ctx, ds, dir)
		if !errors.HasCode(err, errors.CodeCancelled) {
			t.Errorf("error = %v, want cancelled", err)
		}
		if _, statErr := os.Stat(filepath.Join(dir, FileName(models.TablePostings, FormatCSV))); !os.IsNotExist(statErr) {
			t.Errorf("cancelled write left %s in place", FileName(models.TablePostings, FormatCSV))
		}
	})
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSummary(&buf, createTestDataset(), false); err != nil {
		t.Fatalf("WriteSummary() error = %v", err)
	}
	out := buf.String()

	expected := []string{
		"SYNTHETIC LEDGER SUMMARY",
		"Seed: 7  Profile: compact  Fiscal year: 2025",
		"Documents:",
		"Posting lines:",
		"Inactive accounts:",
		"=== MJE LINES BY PREPARER ===",
		"JSMITH            2  key person",
		"MBROWN            1",
		"=== EMBEDDED PATTERNS ===",
		"recurring_identical",
	}
	for _, want := range expected {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("summary contains color codes with colors disabled")
	}
	if strings.Contains(out, "SYSTEM") {
		t.Error("standard postings counted as manual entries")
	}
}
