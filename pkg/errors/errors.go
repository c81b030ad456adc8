package errors

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryFile          ErrorCategory = "file"
	CategoryParse         ErrorCategory = "parse"
	CategoryValidation    ErrorCategory = "validation"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryGeneration    ErrorCategory = "generation"
	CategoryStorage       ErrorCategory = "storage"
	CategoryInternal      ErrorCategory = "internal"
)

// ErrorCode represents specific error codes within categories
type ErrorCode string

const (
	// File errors
	CodeFileNotFound   ErrorCode = "file_not_found"
	CodeFilePermission ErrorCode = "file_permission"
	CodeFileWrite      ErrorCode = "file_write"
	CodeDirectoryError ErrorCode = "directory_error"

	// Parse errors
	CodeInvalidFormat ErrorCode = "invalid_format"
	CodeMissingColumn ErrorCode = "missing_column"
	CodeInvalidData   ErrorCode = "invalid_data"

	// Validation errors
	CodeInvalidAmount ErrorCode = "invalid_amount"
	CodeInvalidDate   ErrorCode = "invalid_date"
	CodeMissingField  ErrorCode = "missing_field"
	CodeOutOfRange    ErrorCode = "out_of_range"

	// Configuration errors
	CodeInvalidConfig  ErrorCode = "invalid_config"
	CodeMissingConfig  ErrorCode = "missing_config"
	CodeConfigConflict ErrorCode = "config_conflict"

	// Generation errors
	CodeUnbalancedDocument ErrorCode = "unbalanced_document"
	CodeUnknownAccount     ErrorCode = "unknown_account"
	CodeDuplicateAccount   ErrorCode = "duplicate_account"
	CodeInvariantViolated  ErrorCode = "invariant_violated"

	// Storage errors
	CodeDatabaseOpen    ErrorCode = "database_open"
	CodeMigrationFailed ErrorCode = "migration_failed"
	CodeLoadFailed      ErrorCode = "load_failed"
	CodeQueryFailed     ErrorCode = "query_failed"

	// Internal errors
	CodeUnexpectedError ErrorCode = "unexpected_error"
	CodeCancelled       ErrorCode = "cancelled"
)

// LedgerError is the base error type for all application errors
type LedgerError struct {
	Category   ErrorCategory     `json:"category"`
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context provides additional information about the error
type Context map[string]interface{}

// Error implements the error interface
func (e *LedgerError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *LedgerError) Unwrap() error {
	return e.Cause
}

// GetExitCode returns an appropriate exit code for the error
func (e *LedgerError) GetExitCode() int {
	switch e.Category {
	case CategoryFile:
		return 2
	case CategoryParse, CategoryValidation:
		return 3
	case CategoryConfiguration:
		return 4
	case CategoryGeneration, CategoryInternal:
		return 5
	case CategoryStorage:
		return 6
	default:
		return 1
	}
}

// WithContext adds context information to the error
func (e *LedgerError) WithContext(key string, value interface{}) *LedgerError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error
func (e *LedgerError) WithSuggestion(suggestion string) *LedgerError {
	e.Suggestion = suggestion
	return e
}

// New creates a new LedgerError
func New(category ErrorCategory, code ErrorCode, message string) *LedgerError {
	return &LedgerError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with LedgerError context
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *LedgerError {
	if err == nil {
		return nil
	}

	return &LedgerError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

func build(category ErrorCategory, code ErrorCode, message string, err error) *LedgerError {
	if err != nil {
		return Wrap(err, category, code, message)
	}
	return New(category, code, message)
}

// FileError creates a file-related error
func FileError(code ErrorCode, path string, err error) *LedgerError {
	var message, suggestion string

	switch code {
	case CodeFileNotFound:
		message = fmt.Sprintf("file not found: %s", path)
		suggestion = "check the path; fixtures are named account_master, postings and trial_balance"
	case CodeFilePermission:
		message = fmt.Sprintf("permission denied accessing file: %s", path)
		suggestion = "check file permissions and ensure you have access"
	case CodeFileWrite:
		message = fmt.Sprintf("failed to write file: %s", path)
		suggestion = "check free disk space and write permissions on the output directory"
	case CodeDirectoryError:
		message = fmt.Sprintf("directory error: %s", path)
		suggestion = "ensure the directory exists or can be created"
	default:
		message = fmt.Sprintf("file error: %s", path)
		suggestion = "check the file and try again"
	}

	return build(CategoryFile, code, message, err).
		WithSuggestion(suggestion).
		WithContext("file_path", path)
}

// ParseError creates a parsing-related error
func ParseError(code ErrorCode, file string, line int, column string, value string, err error) *LedgerError {
	var message, suggestion string

	switch code {
	case CodeInvalidFormat:
		message = fmt.Sprintf("invalid format in file %s at line %d, column '%s': '%s'", file, line, column, value)
		suggestion = "regenerate the fixture; hand edits must keep the column types"
	case CodeMissingColumn:
		message = fmt.Sprintf("missing required column '%s' in file %s", column, file)
		suggestion = "verify the header row matches the fixture schema"
	case CodeInvalidData:
		message = fmt.Sprintf("invalid data in file %s at line %d, column '%s': '%s'", file, line, column, value)
		suggestion = "correct the value or regenerate the fixture"
	default:
		message = fmt.Sprintf("parse error in file %s at line %d", file, line)
		suggestion = "check the file format and data integrity"
	}

	return build(CategoryParse, code, message, err).
		WithSuggestion(suggestion).
		WithContext("file", file).
		WithContext("line", line).
		WithContext("column", column).
		WithContext("value", value)
}

// ValidationError creates a validation-related error
func ValidationError(code ErrorCode, field string, value interface{}, err error) *LedgerError {
	var message, suggestion string

	switch code {
	case CodeInvalidAmount:
		message = fmt.Sprintf("invalid amount in field '%s': %v", field, value)
		suggestion = "amounts are non-negative decimals with two places"
	case CodeInvalidDate:
		message = fmt.Sprintf("invalid date in field '%s': %v", field, value)
		suggestion = "use date format YYYY-MM-DD"
	case CodeMissingField:
		message = fmt.Sprintf("required field '%s' is missing or empty", field)
		suggestion = "provide a value for this required field"
	case CodeOutOfRange:
		message = fmt.Sprintf("value out of range in field '%s': %v", field, value)
		suggestion = "ensure the value is within the acceptable range"
	default:
		message = fmt.Sprintf("validation error in field '%s': %v", field, value)
		suggestion = "check the field value and format"
	}

	return build(CategoryValidation, code, message, err).
		WithSuggestion(suggestion).
		WithContext("field", field).
		WithContext("value", value)
}

// ConfigurationError creates a configuration-related error
func ConfigurationError(code ErrorCode, setting string, value interface{}, err error) *LedgerError {
	var message, suggestion string

	switch code {
	case CodeInvalidConfig:
		message = fmt.Sprintf("invalid configuration for '%s': %v", setting, value)
		suggestion = "check 'ledgergen help' for valid values"
	case CodeMissingConfig:
		message = fmt.Sprintf("missing required configuration: %s", setting)
		suggestion = "provide this setting as a flag, LEDGERGEN_ environment variable or config file entry"
	case CodeConfigConflict:
		message = fmt.Sprintf("configuration conflict with setting '%s': %v", setting, value)
		suggestion = "resolve the conflicting settings or use default values"
	default:
		message = fmt.Sprintf("configuration error: %s", setting)
		suggestion = "check your configuration and try again"
	}

	return build(CategoryConfiguration, code, message, err).
		WithSuggestion(suggestion).
		WithContext("setting", setting).
		WithContext("value", value)
}

// GenerationError creates an error for a broken ledger invariant
func GenerationError(code ErrorCode, subject string, err error) *LedgerError {
	var message, suggestion string

	switch code {
	case CodeUnbalancedDocument:
		message = fmt.Sprintf("document %s does not balance", subject)
		suggestion = "every journal document must net to zero; this is a generator bug"
	case CodeUnknownAccount:
		message = fmt.Sprintf("posting references unknown account %s", subject)
		suggestion = "every posted account must exist in the account master"
	case CodeDuplicateAccount:
		message = fmt.Sprintf("duplicate account code %s", subject)
		suggestion = "account codes must be unique within the master"
	case CodeInvariantViolated:
		message = fmt.Sprintf("ledger invariant violated: %s", subject)
		suggestion = "inspect the fixture with 'ledgergen verify' and report the seed used"
	default:
		message = fmt.Sprintf("generation error: %s", subject)
		suggestion = "retry with --verbose and report the seed used"
	}

	return build(CategoryGeneration, code, message, err).
		WithSuggestion(suggestion).
		WithContext("subject", subject)
}

// StorageError creates a fixture database error
func StorageError(code ErrorCode, target string, err error) *LedgerError {
	var message, suggestion string

	switch code {
	case CodeDatabaseOpen:
		message = fmt.Sprintf("failed to open database %s", target)
		suggestion = "check the database path and that no other process holds a lock"
	case CodeMigrationFailed:
		message = fmt.Sprintf("failed to migrate database %s", target)
		suggestion = "delete the database file and load again"
	case CodeLoadFailed:
		message = fmt.Sprintf("failed to load %s", target)
		suggestion = "check free disk space; the load is transactional and can be retried"
	case CodeQueryFailed:
		message = fmt.Sprintf("query failed: %s", target)
		suggestion = "ensure the database was loaded with 'ledgergen load'"
	default:
		message = fmt.Sprintf("storage error: %s", target)
		suggestion = "check the database and try again"
	}

	return build(CategoryStorage, code, message, err).
		WithSuggestion(suggestion).
		WithContext("target", target)
}

// InternalError creates an internal error
func InternalError(code ErrorCode, operation string, err error) *LedgerError {
	var message, suggestion string

	switch code {
	case CodeUnexpectedError:
		message = fmt.Sprintf("unexpected error during %s", operation)
		suggestion = "this is likely a bug - please report it with the error details"
	case CodeCancelled:
		message = fmt.Sprintf("%s was cancelled", operation)
		suggestion = "run the command again to completion"
	default:
		message = fmt.Sprintf("internal error during %s", operation)
		suggestion = "try again or contact support if the problem persists"
	}

	return build(CategoryInternal, code, message, err).
		WithSuggestion(suggestion).
		WithContext("operation", operation)
}

// ErrorSummary provides a summary of multiple errors
type ErrorSummary struct {
	Total        int                   `json:"total"`
	ByCategory   map[ErrorCategory]int `json:"by_category"`
	ByCode       map[ErrorCode]int     `json:"by_code"`
	Errors       []*LedgerError        `json:"errors"`
	SampleErrors []*LedgerError        `json:"sample_errors,omitempty"`
}

// NewErrorSummary creates a new error summary
func NewErrorSummary(errs []*LedgerError) *ErrorSummary {
	summary := &ErrorSummary{
		Total:      len(errs),
		ByCategory: make(map[ErrorCategory]int),
		ByCode:     make(map[ErrorCode]int),
		Errors:     errs,
	}
	if len(errs) == 0 {
		summary.Errors = []*LedgerError{}
		return summary
	}

	for _, err := range errs {
		summary.ByCategory[err.Category]++
		summary.ByCode[err.Code]++
	}

	maxSamples := 5
	if len(errs) > maxSamples {
		summary.SampleErrors = errs[:maxSamples]
	} else {
		summary.SampleErrors = errs
	}

	return summary
}

// SummarizeErrors builds a summary from a flat error list, wrapping foreign errors as internal.
func SummarizeErrors(errs []error) *ErrorSummary {
	ledgerErrs := make([]*LedgerError, 0, len(errs))
	for _, err := range errs {
		if err == nil {
			continue
		}
		ledgerErrs = append(ledgerErrs, WrapIfNeeded(err, CategoryInternal, CodeUnexpectedError, err.Error()))
	}
	return NewErrorSummary(ledgerErrs)
}

// Error returns a formatted error message for the summary
func (es *ErrorSummary) Error() string {
	if es.Total == 0 {
		return "no errors"
	}

	if es.Total == 1 {
		return es.Errors[0].Error()
	}

	var codes []string
	for code, count := range es.ByCode {
		codes = append(codes, fmt.Sprintf("%s: %d", code, count))
	}
	sort.Strings(codes)

	return fmt.Sprintf("%d errors occurred (%s)", es.Total, strings.Join(codes, ", "))
}

// HasCategory checks if the summary contains errors of the given category
func (es *ErrorSummary) HasCategory(category ErrorCategory) bool {
	return es.ByCategory[category] > 0
}

// HasCode checks if the summary contains errors with the given code
func (es *ErrorSummary) HasCode(code ErrorCode) bool {
	return es.ByCode[code] > 0
}

// GetExitCode returns the highest priority exit code from all errors
func (es *ErrorSummary) GetExitCode() int {
	if es.Total == 0 {
		return 0
	}

	maxCode := 1
	for _, err := range es.Errors {
		if code := err.GetExitCode(); code > maxCode {
			maxCode = code
		}
	}

	return maxCode
}

// AsLedgerError extracts a LedgerError from an error chain
func AsLedgerError(err error) (*LedgerError, bool) {
	var ledgerErr *LedgerError
	if errors.As(err, &ledgerErr) {
		return ledgerErr, true
	}
	return nil, false
}

// HasCode reports whether any LedgerError in the chain carries the given code.
func HasCode(err error, code ErrorCode) bool {
	ledgerErr, ok := AsLedgerError(err)
	return ok && ledgerErr.Code == code
}

// WrapIfNeeded wraps an error if it's not already a LedgerError
func WrapIfNeeded(err error, category ErrorCategory, code ErrorCode, message string) *LedgerError {
	if err == nil {
		return nil
	}

	if ledgerErr, ok := AsLedgerError(err); ok {
		return ledgerErr
	}

	return Wrap(err, category, code, message)
}
