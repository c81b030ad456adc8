package reporter

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"golang-synthetic-ledger/pkg/errors"
	"golang-synthetic-ledger/pkg/logger"
)

// checkEvery is how many rows are written between cancellation checks
const checkEvery = 10_000

func cancelled(ctx context.Context, tbl table, row int) error {
	if row%checkEvery != 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return errors.InternalError(errors.CodeCancelled, "write "+tbl.name, err)
	}
	return nil
}

func writeCSV(ctx context.Context, w io.Writer, tbl table, delimiter rune, progress *logger.ProgressTracker) error {
	cw := csv.NewWriter(w)
	cw.Comma = delimiter
	if err := cw.Write(tbl.columns); err != nil {
		return err
	}
	for i := 0; i < tbl.rows; i++ {
		if err := cancelled(ctx, tbl, i); err != nil {
			return err
		}
		if err := cw.Write(tbl.record(i)); err != nil {
			return err
		}
		progress.Increment()
	}
	cw.Flush()
	return cw.Error()
}

func writeJSONL(ctx context.Context, w io.Writer, tbl table, progress *logger.ProgressTracker) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for i := 0; i < tbl.rows; i++ {
		if err := cancelled(ctx, tbl, i); err != nil {
			return err
		}
		if err := enc.Encode(tbl.value(i)); err != nil {
			return fmt.Errorf("%s row %d: %w", tbl.name, i+1, err)
		}
		progress.Increment()
	}
	return nil
}

// SheetName returns the worksheet holding the n-th block of rows, counting from zero
func SheetName(tableName string, n int) string {
	if n == 0 {
		return tableName
	}
	return fmt.Sprintf("%s_%d", tableName, n+1)
}

// SheetCount returns how many worksheets a table of rows needs
func SheetCount(rows, sheetRows int) int {
	if rows <= sheetRows {
		return 1
	}
	return (rows + sheetRows - 1) / sheetRows
}

func writeXLSX(ctx context.Context, w io.Writer, tbl table, sheetRows int, progress *logger.ProgressTracker) (err error) {
	f := excelize.NewFile()
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	header := make([]interface{}, len(tbl.columns))
	for i, c := range tbl.columns {
		header[i] = c
	}

	sheets := SheetCount(tbl.rows, sheetRows)
	for s := 0; s < sheets; s++ {
		name := SheetName(tbl.name, s)
		if s == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return err
		}

		sw, err := f.NewStreamWriter(name)
		if err != nil {
			return err
		}
		if err := sw.SetRow("A1", header); err != nil {
			return err
		}

		first := s * sheetRows
		last := min(first+sheetRows, tbl.rows)
		values := make([]interface{}, len(tbl.columns))
		for i := first; i < last; i++ {
			if err := cancelled(ctx, tbl, i); err != nil {
				return err
			}
			for j, field := range tbl.record(i) {
				values[j] = field
			}
			cell, err := excelize.CoordinatesToCellName(1, i-first+2)
			if err != nil {
				return err
			}
			if err := sw.SetRow(cell, values); err != nil {
				return err
			}
			progress.Increment()
		}
		if err := sw.Flush(); err != nil {
			return err
		}
	}

	_, err = f.WriteTo(w)
	return err
}
