package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/viper"
	"go.uber.org/multierr"

	"golang-synthetic-ledger/pkg/errors"
	"golang-synthetic-ledger/pkg/logger"
)

// maxDetails caps the underlying errors listed for one failure
const maxDetails = 10

// CLIErrorHandler provides user-friendly error handling for CLI operations
type CLIErrorHandler struct {
	logger  logger.Logger
	verbose bool
	out     io.Writer
}

// NewCLIErrorHandler creates a new CLI error handler
func NewCLIErrorHandler() *CLIErrorHandler {
	return &CLIErrorHandler{
		logger:  logger.GetGlobalLogger().WithComponent("cli"),
		verbose: viper.GetBool("verbose"),
		out:     os.Stderr,
	}
}

// HandleError prints err and returns the process exit code
func (h *CLIErrorHandler) HandleError(err error) int {
	if err == nil {
		return 0
	}

	h.logger.WithError(err).Debug("Command failed")

	if joined, ok := err.(interface{ Unwrap() []error }); ok && len(joined.Unwrap()) > 1 {
		return h.handleJoinedErrors(joined.Unwrap())
	}
	if ledgerErr, ok := errors.AsLedgerError(err); ok {
		return h.handleLedgerError(ledgerErr)
	}
	return h.handleGenericError(err)
}

func (h *CLIErrorHandler) handleLedgerError(err *errors.LedgerError) int {
	fmt.Fprintf(h.out, "Error: %s\n", err.Message)

	if len(err.Context) > 0 {
		keys := make([]string, 0, len(err.Context))
		for key := range err.Context {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		fmt.Fprintf(h.out, "\nContext:\n")
		for _, key := range keys {
			fmt.Fprintf(h.out, "  %s: %v\n", key, err.Context[key])
		}
	}

	if err.Cause != nil {
		fmt.Fprintf(h.out, "\n%s\n", FormatCauses(err.Cause))
	}

	if err.Suggestion != "" {
		fmt.Fprintf(h.out, "\nSuggestion: %s\n", err.Suggestion)
	}

	fmt.Fprintf(h.out, "\n%s\n", h.getCategoryHelp(err.Category))

	if h.verbose && err.StackTrace != nil {
		fmt.Fprintf(h.out, "\nStack trace:%+v\n", err.StackTrace)
	}

	return err.GetExitCode()
}

// handleJoinedErrors reports errors raised together, e.g. by the concurrent
// fixture reads, and exits with the code of the most severe one
func (h *CLIErrorHandler) handleJoinedErrors(errs []error) int {
	summary := errors.SummarizeErrors(errs)
	fmt.Fprintf(h.out, "Error: %s\n", summary.Error())
	fmt.Fprintf(h.out, "\n%s\n", FormatCauses(multierr.Combine(errs...)))
	return summary.GetExitCode()
}

func (h *CLIErrorHandler) handleGenericError(err error) int {
	switch {
	case h.isFileNotFoundError(err):
		fmt.Fprintf(h.out, "Error: File not found\n")
		fmt.Fprintf(h.out, "Suggestion: Check if the file path is correct and the file exists\n")
		return 2
	case h.isPermissionError(err):
		fmt.Fprintf(h.out, "Error: Permission denied\n")
		fmt.Fprintf(h.out, "Suggestion: Check file permissions and ensure you have access\n")
		return 2
	case h.isDiskFullError(err):
		fmt.Fprintf(h.out, "Error: Insufficient disk space\n")
		fmt.Fprintf(h.out, "Suggestion: Free up disk space and try again\n")
		return 2
	}

	// cobra's own errors, e.g. unknown flags or commands
	fmt.Fprintf(h.out, "Error: %v\n", err)
	fmt.Fprintf(h.out, "Run 'ledgergen --help' for usage.\n")
	return 1
}

// getCategoryHelp returns category-specific help text
func (h *CLIErrorHandler) getCategoryHelp(category errors.ErrorCategory) string {
	switch category {
	case errors.CategoryFile:
		return `File error help:
• Check that the directory exists and is writable
• Fixture directories hold account_master.csv, postings.csv and trial_balance.csv
• Use 'ledgergen generate --output-dir DIR' to create them`

	case errors.CategoryParse:
		return `Parse error help:
• Fixture files must keep the header row written by 'ledgergen generate'
• Amounts are plain decimals and dates use YYYY-MM-DD
• Regenerate the fixtures if they were edited by hand`

	case errors.CategoryValidation:
		return `Validation error help:
• Check that every required field has a value
• Verify date and amount formats
• Regenerate the fixtures if they were edited by hand`

	case errors.CategoryConfiguration:
		return `Configuration error help:
• Check your command-line flags and LEDGERGEN_ environment variables
• Verify configuration file syntax if using --config
• Use 'ledgergen generate --help' to see all available options`

	case errors.CategoryGeneration:
		return `Ledger check help:
• Fixtures generated with a scaled down volume need 'ledgergen verify --structural'
• Pass the profile the fixtures were generated with via --profile
• Routing rates far from their defaults can weaken the embedded signals`

	case errors.CategoryStorage:
		return `Database error help:
• Check that the database file is not opened by another process
• Delete the database file to start from an empty schema
• Check free disk space in the database directory`

	default:
		return `For more help:
• Use 'ledgergen --help' for general help
• Use 'ledgergen <command> --help' for command-specific help
• Run with --verbose for the stack trace`
	}
}

func (h *CLIErrorHandler) isFileNotFoundError(err error) bool {
	return os.IsNotExist(err) || strings.Contains(err.Error(), "no such file or directory")
}

func (h *CLIErrorHandler) isPermissionError(err error) bool {
	return os.IsPermission(err) ||
		strings.Contains(err.Error(), "permission denied") ||
		strings.Contains(err.Error(), "access denied")
}

func (h *CLIErrorHandler) isDiskFullError(err error) bool {
	if err == syscall.ENOSPC {
		return true
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "no space left") ||
		strings.Contains(errStr, "disk full") ||
		strings.Contains(errStr, "device full")
}

// FormatCauses lists the errors combined in err, one per line
func FormatCauses(err error) string {
	errs := multierr.Errors(err)
	if len(errs) == 1 {
		return fmt.Sprintf("Cause: %v", errs[0])
	}

	var lines []string
	lines = append(lines, fmt.Sprintf("Found %d problems:", len(errs)))
	for i, e := range errs {
		if i == maxDetails {
			lines = append(lines, fmt.Sprintf("  ... and %d more", len(errs)-maxDetails))
			break
		}
		lines = append(lines, fmt.Sprintf("  %d. %v", i+1, e))
	}
	return strings.Join(lines, "\n")
}
