package cmd

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"go.uber.org/multierr"

	"golang-synthetic-ledger/pkg/errors"
	"golang-synthetic-ledger/pkg/logger"
)

func newTestHandler(verbose bool) (*CLIErrorHandler, *bytes.Buffer) {
	var out bytes.Buffer
	return &CLIErrorHandler{
		logger:  logger.GetGlobalLogger().WithComponent("cli"),
		verbose: verbose,
		out:     &out,
	}, &out
}

func TestHandleError(t *testing.T) {
	checks := multierr.Combine(
		fmt.Errorf("volume: 120 posting lines, want at least 500000"),
		fmt.Errorf("seasonality: 0.50 of catastrophe lines in season, want 0.80"),
	)

	tests := []struct {
		name         string
		err          error
		expectedCode int
		contains     []string
	}{
		{
			name:         "nil error",
			err:          nil,
			expectedCode: 0,
		},
		{
			name:         "file error",
			err:          errors.FileError(errors.CodeFileNotFound, "data/postings.csv", os.ErrNotExist),
			expectedCode: 2,
			contains:     []string{"file not found: data/postings.csv", "file_path: data/postings.csv", "File error help"},
		},
		{
			name:         "configuration error",
			err:          errors.ConfigurationError(errors.CodeInvalidConfig, "format", "parquet", fmt.Errorf("unsupported output format: parquet")),
			expectedCode: 4,
			contains:     []string{"invalid configuration for 'format': parquet", "Cause: unsupported output format", "Configuration error help"},
		},
		{
			name:         "failed checks list every cause",
			err:          errors.GenerationError(errors.CodeInvariantViolated, "volume, seasonality", checks),
			expectedCode: 5,
			contains:     []string{"Found 2 problems:", "1. volume:", "2. seasonality:", "verify --structural"},
		},
		{
			name:         "storage error",
			err:          errors.StorageError(errors.CodeLoadFailed, "postings", fmt.Errorf("FOREIGN KEY constraint failed")),
			expectedCode: 6,
			contains:     []string{"Database error help"},
		},
		{
			name:         "wrapped ledger error",
			err:          fmt.Errorf("generate: %w", errors.InternalError(errors.CodeCancelled, "generation", nil)),
			expectedCode: 5,
			contains:     []string{"generation was cancelled"},
		},
		{
			name: "joined fixture errors",
			err: stderrors.Join(
				errors.FileError(errors.CodeFileNotFound, "data/postings.csv", os.ErrNotExist),
				errors.ParseError(errors.CodeInvalidData, "data/account_master.csv", 4, "", "", fmt.Errorf("bad account type")),
			),
			expectedCode: 3,
			contains:     []string{"2 errors occurred", "file_not_found: 1", "Found 2 problems:"},
		},
		{
			name:         "plain not found",
			err:          &os.PathError{Op: "open", Path: "x.csv", Err: os.ErrNotExist},
			expectedCode: 2,
			contains:     []string{"File not found"},
		},
		{
			name:         "cobra error",
			err:          stderrors.New(`unknown flag: --sede`),
			expectedCode: 1,
			contains:     []string{"unknown flag: --sede", "ledgergen --help"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, out := newTestHandler(false)
			code := h.HandleError(tt.err)

			if code != tt.expectedCode {
				t.Errorf("expected exit code %d, got %d", tt.expectedCode, code)
			}
			for _, want := range tt.contains {
				if !strings.Contains(out.String(), want) {
					t.Errorf("expected output to contain %q, got:\n%s", want, out.String())
				}
			}
		})
	}
}

func TestHandleError_Verbose(t *testing.T) {
	err := errors.InternalError(errors.CodeUnexpectedError, "manifest rendering", fmt.Errorf("boom"))

	h, out := newTestHandler(false)
	h.HandleError(err)
	if strings.Contains(out.String(), "Stack trace") {
		t.Error("expected no stack trace without verbose")
	}

	h, out = newTestHandler(true)
	h.HandleError(err)
	if !strings.Contains(out.String(), "Stack trace") {
		t.Error("expected a stack trace with verbose")
	}
}

func TestFormatCauses(t *testing.T) {
	var combined error
	for i := 0; i < 12; i++ {
		combined = multierr.Append(combined, fmt.Errorf("problem %d", i))
	}

	got := FormatCauses(combined)
	if !strings.HasPrefix(got, "Found 12 problems:") {
		t.Errorf("expected a problem count, got:\n%s", got)
	}
	if !strings.Contains(got, "10. problem 9") {
		t.Errorf("expected the first ten problems, got:\n%s", got)
	}
	if strings.Contains(got, "problem 10") {
		t.Errorf("expected the list to be capped, got:\n%s", got)
	}
	if !strings.Contains(got, "... and 2 more") {
		t.Errorf("expected the remainder to be counted, got:\n%s", got)
	}

	if got := FormatCauses(fmt.Errorf("single")); got != "Cause: single" {
		t.Errorf("expected 'Cause: single', got %q", got)
	}
}
