// Package parsers reads the ledger fixture tables back from delimited text.
//
// Fixture files carry a header row that must match the table's column order
// exactly. Every data row is decoded with the table's record constructor and
// rejected with its line number when a field does not parse.
//
// Example usage:
//
//	accounts, err := parsers.ReadAccounts(file)
//	ds, err := parsers.ReadFixtureDir(ctx, "fixtures")
package parsers

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang-synthetic-ledger/pkg/errors"
	"golang-synthetic-ledger/pkg/logger"
)

// ParseConfig holds configuration for fixture parsing
type ParseConfig struct {
	Delimiter        rune
	TrimLeadingSpace bool
	SkipEmptyRows    bool
	ValidateEncoding bool
	// MaxErrors stops a read after this many bad rows; zero stops at the first
	MaxErrors int
}

// DefaultParseConfig returns a configuration matching the fixture writer
func DefaultParseConfig() *ParseConfig {
	return &ParseConfig{
		Delimiter:        ',',
		TrimLeadingSpace: false,
		SkipEmptyRows:    true,
		ValidateEncoding: true,
	}
}

// BaseParser provides the header and record handling shared by the table readers
type BaseParser struct {
	config *ParseConfig
	logger logger.Logger
}

// NewBaseParser creates a new BaseParser with the given configuration
func NewBaseParser(config *ParseConfig) *BaseParser {
	if config == nil {
		config = DefaultParseConfig()
	}
	return &BaseParser{
		config: config,
		logger: logger.WithComponent("parsers"),
	}
}

// ParseContext holds state during one table read
type ParseContext struct {
	Source      string
	LineNumber  int
	Headers     []string
	RecordCount int
	ctx         context.Context
}

// NewParseContext creates a new parsing context for the named source
func NewParseContext(ctx context.Context, source string) *ParseContext {
	if ctx == nil {
		ctx = context.Background()
	}
	return &ParseContext{Source: source, ctx: ctx}
}

// NewReader wraps r in a csv.Reader configured for fixtures
func (bp *BaseParser) NewReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.Comma = bp.config.Delimiter
	reader.TrimLeadingSpace = bp.config.TrimLeadingSpace
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true
	return reader
}

// ReadHeaders reads the header row and checks it against the expected columns
func (bp *BaseParser) ReadHeaders(reader *csv.Reader, parseCtx *ParseContext, expected []string) error {
	headers, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return errors.ParseError(errors.CodeInvalidFormat, parseCtx.Source, 1, "headers", "",
				fmt.Errorf("file is empty")).
				WithSuggestion("Regenerate the fixture with 'ledgergen generate'")
		}
		return errors.ParseError(errors.CodeInvalidFormat, parseCtx.Source, 1, "headers", "", err)
	}
	parseCtx.LineNumber++

	parseCtx.Headers = make([]string, len(headers))
	for i, h := range headers {
		parseCtx.Headers[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	if missing := missingColumns(parseCtx.Headers, expected); len(missing) > 0 {
		return errors.ParseError(errors.CodeMissingColumn, parseCtx.Source, 1, "headers",
			strings.Join(missing, ", "), nil).
			WithSuggestion(fmt.Sprintf("The header must be: %s", strings.Join(expected, ",")))
	}
	if strings.Join(parseCtx.Headers, ",") != strings.Join(expected, ",") {
		return errors.ParseError(errors.CodeInvalidFormat, parseCtx.Source, 1, "headers",
			strings.Join(parseCtx.Headers, ","), fmt.Errorf("columns out of order")).
			WithSuggestion(fmt.Sprintf("The header must be: %s", strings.Join(expected, ",")))
	}

	bp.logger.WithFields(logger.Fields{
		"source":  parseCtx.Source,
		"columns": len(parseCtx.Headers),
	}).Debug("Headers validated")
	return nil
}

// ReadRecord returns the next non-empty record, or io.EOF
func (bp *BaseParser) ReadRecord(reader *csv.Reader, parseCtx *ParseContext) ([]string, error) {
	for {
		if err := parseCtx.ctx.Err(); err != nil {
			return nil, errors.InternalError(errors.CodeCancelled, "read "+parseCtx.Source, err)
		}

		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				return nil, err
			}
			return nil, errors.ParseError(errors.CodeInvalidFormat, parseCtx.Source, parseCtx.LineNumber+1, "", "", err)
		}
		parseCtx.LineNumber++

		if bp.config.SkipEmptyRows && isEmptyRecord(record) {
			continue
		}
		if bp.config.ValidateEncoding {
			for i, field := range record {
				if !utf8.ValidString(field) {
					return nil, errors.ParseError(errors.CodeInvalidData, parseCtx.Source, parseCtx.LineNumber,
						columnName(parseCtx, i), "", fmt.Errorf("invalid UTF-8 encoding")).
						WithSuggestion("Save the file in UTF-8 encoding and try again")
				}
			}
		}
		return record, nil
	}
}

func isEmptyRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

func columnName(parseCtx *ParseContext, i int) string {
	if i < len(parseCtx.Headers) {
		return parseCtx.Headers[i]
	}
	return fmt.Sprintf("field_%d", i)
}

func missingColumns(headers, expected []string) []string {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[h] = true
	}
	var missing []string
	for _, col := range expected {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	return missing
}

// ParseStats holds statistics about one table read
type ParseStats struct {
	Source        string
	TotalLines    int
	RecordsParsed int
	ErrorCount    int
	Errors        []error
}

// AddError records a rejected row
func (ps *ParseStats) AddError(err error) {
	ps.Errors = append(ps.Errors, err)
	ps.ErrorCount++
}

// HasErrors returns true if any row was rejected
func (ps *ParseStats) HasErrors() bool {
	return ps.ErrorCount > 0
}

// String returns a human-readable summary of parsing statistics
func (ps *ParseStats) String() string {
	return fmt.Sprintf("%s: parsed %d lines, %d records, %d errors",
		ps.Source, ps.TotalLines, ps.RecordsParsed, ps.ErrorCount)
}
