// Package reporter writes a generated dataset to disk and summarises it on the console.
//
// Each of the three tables is written in every requested format next to the
// markdown pattern manifest. Files are written to a temporary name and moved
// into place once complete, so a failed run never leaves a truncated fixture.
//
// Supported output formats:
//   - CSV: the fixture format read back by the parsers package
//   - JSONL: one JSON object per line, unset dimensions as null
//   - XLSX: one workbook per table, long tables split across sheets
//
// Example usage:
//
//	writer := reporter.NewFixtureWriter(reporter.DefaultFixtureConfig())
//	paths, err := writer.WriteDataset(ctx, ds, "fixtures")
//
//	reporter.WriteSummary(os.Stdout, ds, true)
package reporter

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"golang-synthetic-ledger/internal/models"
	"golang-synthetic-ledger/pkg/errors"
	"golang-synthetic-ledger/pkg/logger"
)

// OutputFormat represents the supported fixture file formats
type OutputFormat string

const (
	FormatCSV   OutputFormat = "csv"
	FormatJSONL OutputFormat = "jsonl"
	FormatXLSX  OutputFormat = "xlsx"
)

// ManifestFile is the file name of the pattern manifest
const ManifestFile = "mje_patterns.md"

// MaxSheetRows is the number of data rows that fit on one worksheet below the header
const MaxSheetRows = 1_048_575

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatCSV, FormatJSONL, FormatXLSX:
		return true
	default:
		return false
	}
}

// ParseFormats converts format names, ignoring case, duplicates and blanks
func ParseFormats(names []string) ([]OutputFormat, error) {
	var out []OutputFormat
	seen := make(map[OutputFormat]bool)
	for _, name := range names {
		f := OutputFormat(strings.ToLower(strings.TrimSpace(name)))
		if f == "" || seen[f] {
			continue
		}
		if !f.IsValid() {
			return nil, fmt.Errorf("unsupported output format: %s", name)
		}
		seen[f] = true
		out = append(out, f)
	}
	return out, nil
}

// FixtureConfig holds configuration options for fixture writing
type FixtureConfig struct {
	Formats       []OutputFormat `json:"formats"`
	WriteManifest bool           `json:"write_manifest"`

	// Concurrency bounds the number of files written at once; zero means one per file
	Concurrency int `json:"concurrency"`

	// SheetRows caps data rows per worksheet in XLSX output
	SheetRows int `json:"sheet_rows"`

	CSVDelimiter rune `json:"csv_delimiter"`
}

// DefaultFixtureConfig returns a default fixture configuration
func DefaultFixtureConfig() *FixtureConfig {
	return &FixtureConfig{
		Formats:       []OutputFormat{FormatCSV},
		WriteManifest: true,
		Concurrency:   4,
		SheetRows:     MaxSheetRows,
		CSVDelimiter:  ',',
	}
}

// Validate validates the fixture configuration
func (c *FixtureConfig) Validate() error {
	if len(c.Formats) == 0 {
		return fmt.Errorf("at least one output format is required")
	}
	for _, f := range c.Formats {
		if !f.IsValid() {
			return fmt.Errorf("invalid output format: %s", f)
		}
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency cannot be negative, got %d", c.Concurrency)
	}
	if c.SheetRows < 1 || c.SheetRows > MaxSheetRows {
		return fmt.Errorf("sheet rows must be between 1 and %d, got %d", MaxSheetRows, c.SheetRows)
	}
	if c.CSVDelimiter == 0 || c.CSVDelimiter == '"' || c.CSVDelimiter == '\n' || c.CSVDelimiter == '\r' {
		return fmt.Errorf("invalid csv delimiter %q", c.CSVDelimiter)
	}
	return nil
}

// FixtureWriter writes datasets to a fixture directory
type FixtureWriter struct {
	config *FixtureConfig
	logger logger.Logger
}

// NewFixtureWriter creates a fixture writer; a nil config uses the defaults
func NewFixtureWriter(config *FixtureConfig) *FixtureWriter {
	if config == nil {
		config = DefaultFixtureConfig()
	}
	return &FixtureWriter{
		config: config,
		logger: logger.WithComponent("reporter"),
	}
}

// Config returns the writer configuration
func (fw *FixtureWriter) Config() *FixtureConfig {
	return fw.config
}

// table is one dataset table viewed row by row
type table struct {
	name    string
	columns []string
	rows    int
	record  func(i int) []string
	value   func(i int) interface{}
}

func datasetTables(ds *models.Dataset) []table {
	return []table{
		{
			name:    models.TableAccountMaster,
			columns: models.AccountColumns,
			rows:    len(ds.Accounts),
			record:  func(i int) []string { return ds.Accounts[i].Record() },
			value:   func(i int) interface{} { return ds.Accounts[i] },
		},
		{
			name:    models.TablePostings,
			columns: models.PostingColumns,
			rows:    len(ds.Postings),
			record:  func(i int) []string { return ds.Postings[i].Record() },
			value:   func(i int) interface{} { return ds.Postings[i] },
		},
		{
			name:    models.TableTrialBalance,
			columns: models.TrialBalanceColumns,
			rows:    len(ds.TrialBalance),
			record:  func(i int) []string { return ds.TrialBalance[i].Record() },
			value:   func(i int) interface{} { return ds.TrialBalance[i] },
		},
	}
}

// FileName returns the fixture file name of a table in the given format
func FileName(tableName string, format OutputFormat) string {
	return tableName + "." + string(format)
}

// WriteDataset writes every table in every configured format, plus the
// manifest, into dir. It returns the written paths keyed by file name.
func (fw *FixtureWriter) WriteDataset(ctx context.Context, ds *models.Dataset, dir string) (map[string]string, error) {
	if err := fw.config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "fixture_config", fw.config.Formats, err).
			WithSuggestion("Use --format with csv, jsonl or xlsx")
	}
	if ds == nil {
		return nil, errors.ValidationError(errors.CodeMissingField, "dataset", nil, nil)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		if os.IsPermission(err) {
			return nil, errors.FileError(errors.CodeFilePermission, dir, err)
		}
		return nil, errors.FileError(errors.CodeDirectoryError, dir, err)
	}

	start := time.Now()
	log := fw.logger.WithFields(logger.Fields{
		"dir":     dir,
		"formats": fw.config.Formats,
	})
	log.Info("Writing fixtures")

	var mu sync.Mutex
	paths := make(map[string]string)
	record := func(name, path string) {
		mu.Lock()
		paths[name] = path
		mu.Unlock()
	}

	p := pool.New().WithErrors().WithContext(ctx)
	if fw.config.Concurrency > 0 {
		p = p.WithMaxGoroutines(fw.config.Concurrency)
	}

	for _, tbl := range datasetTables(ds) {
		for _, format := range fw.config.Formats {
			tbl, format := tbl, format
			p.Go(func(ctx context.Context) error {
				name := FileName(tbl.name, format)
				path := filepath.Join(dir, name)
				if err := fw.writeTable(ctx, path, tbl, format); err != nil {
					return err
				}
				record(name, path)
				return nil
			})
		}
	}
	if fw.config.WriteManifest {
		p.Go(func(ctx context.Context) error {
			path := filepath.Join(dir, ManifestFile)
			if err := writeManifest(path, ds); err != nil {
				return err
			}
			record(ManifestFile, path)
			return nil
		})
	}

	if err := p.Wait(); err != nil {
		log.WithError(err).Error("Fixture writing failed")
		return paths, err
	}

	log.WithFields(logger.Fields{
		"files":    len(paths),
		"duration": time.Since(start).String(),
	}).Info("Fixtures written")
	return paths, nil
}

func (fw *FixtureWriter) writeTable(ctx context.Context, path string, tbl table, format OutputFormat) error {
	progress := logger.NewProgressTracker(logger.ProgressConfig{
		Operation: "write " + filepath.Base(path),
		Total:     int64(tbl.rows),
		Logger:    fw.logger,
	})

	err := writeAtomically(path, func(w io.Writer) error {
		switch format {
		case FormatCSV:
			return writeCSV(ctx, w, tbl, fw.config.CSVDelimiter, progress)
		case FormatJSONL:
			return writeJSONL(ctx, w, tbl, progress)
		case FormatXLSX:
			return writeXLSX(ctx, w, tbl, fw.config.SheetRows, progress)
		default:
			return fmt.Errorf("unsupported output format: %s", format)
		}
	})
	if err != nil {
		progress.CompleteWithError(err)
		return err
	}
	progress.Complete()
	return nil
}

// SortedPaths returns the paths of a WriteDataset result ordered by file name
func SortedPaths(paths map[string]string) []string {
	names := make([]string, 0, len(paths))
	for name := range paths {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = paths[name]
	}
	return out
}
