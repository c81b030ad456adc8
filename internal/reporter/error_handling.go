package reporter

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
	"go.uber.org/multierr"

	"golang-synthetic-ledger/internal/models"
	"golang-synthetic-ledger/internal/patterns"
	"golang-synthetic-ledger/pkg/errors"
)

// writeAtomically streams fn into a temporary file beside path and replaces
// path with it only when fn, the flush and the close all succeed.
func writeAtomically(path string, fn func(w io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return classifyWriteError(path, err)
	}
	tmpName := tmp.Name()

	bw := bufio.NewWriterSize(tmp, 1<<16)
	err = fn(bw)
	if err == nil {
		err = bw.Flush()
	}
	if err == nil {
		err = tmp.Chmod(0o644)
	}
	err = multierr.Append(err, tmp.Close())
	if err == nil {
		err = atomic.ReplaceFile(tmpName, path)
	}
	if err != nil {
		if rmErr := os.Remove(tmpName); rmErr != nil && !os.IsNotExist(rmErr) {
			err = multierr.Append(err, rmErr)
		}
		return classifyWriteError(path, err)
	}
	return nil
}

// writeManifest renders the pattern manifest in memory and writes it in one step
func writeManifest(path string, ds *models.Dataset) error {
	var buf bytes.Buffer
	if err := patterns.WriteManifest(&buf, ds.Seed, ds.FiscalYear); err != nil {
		return errors.InternalError(errors.CodeUnexpectedError, "render manifest", err)
	}
	if err := atomic.WriteFile(path, &buf); err != nil {
		return classifyWriteError(path, err)
	}
	return nil
}

// classifyWriteError maps a write failure onto a file error code, leaving
// errors that are already classified untouched
func classifyWriteError(path string, err error) error {
	if err == nil {
		return nil
	}
	if ledgerErr, ok := errors.AsLedgerError(err); ok {
		return ledgerErr
	}

	switch {
	case isPermissionError(err):
		return errors.FileError(errors.CodeFilePermission, path, err)
	case isNotExistError(err):
		return errors.FileError(errors.CodeDirectoryError, path, err)
	case isSpaceError(err):
		return errors.FileError(errors.CodeFileWrite, path, err).
			WithSuggestion("Free disk space or write fewer formats with --format")
	default:
		return errors.FileError(errors.CodeFileWrite, path, err)
	}
}

func isPermissionError(err error) bool {
	for _, e := range multierr.Errors(err) {
		if os.IsPermission(e) {
			return true
		}
	}
	return false
}

func isNotExistError(err error) bool {
	for _, e := range multierr.Errors(err) {
		if os.IsNotExist(e) {
			return true
		}
	}
	return false
}

func isSpaceError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "no space left") ||
		strings.Contains(msg, "disk full") ||
		strings.Contains(msg, "device full")
}

func getWriterDescription(writer io.Writer) string {
	switch w := writer.(type) {
	case *os.File:
		if w.Name() != "" {
			return fmt.Sprintf("file:%s", w.Name())
		}
		return "file:unnamed"
	default:
		return fmt.Sprintf("writer:%T", writer)
	}
}
