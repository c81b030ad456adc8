package parsers

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/multierr"

	"golang-synthetic-ledger/internal/models"
	"golang-synthetic-ledger/pkg/errors"
	"golang-synthetic-ledger/pkg/logger"
)

// TableReader decodes one fixture table
type TableReader[T any] struct {
	*BaseParser
	table   string
	columns []string
	decode  func([]string) (*T, error)
}

// NewAccountReader reads the account master table
func NewAccountReader(config *ParseConfig) *TableReader[models.Account] {
	return &TableReader[models.Account]{NewBaseParser(config), models.TableAccountMaster, models.AccountColumns, models.AccountFromRecord}
}

// NewPostingReader reads the postings table
func NewPostingReader(config *ParseConfig) *TableReader[models.Posting] {
	return &TableReader[models.Posting]{NewBaseParser(config), models.TablePostings, models.PostingColumns, models.PostingFromRecord}
}

// NewTrialBalanceReader reads the trial balance table
func NewTrialBalanceReader(config *ParseConfig) *TableReader[models.TrialBalanceRow] {
	return &TableReader[models.TrialBalanceRow]{NewBaseParser(config), models.TableTrialBalance, models.TrialBalanceColumns, models.TrialBalanceFromRecord}
}

// Stream decodes r and hands rows to fn in batches of batchSize. Reading stops
// at the first bad row unless MaxErrors allows more, in which case the bad rows
// are skipped and returned together once the stream ends.
func (tr *TableReader[T]) Stream(ctx context.Context, r io.Reader, source string, batchSize int, fn func([]T) error) (*ParseStats, error) {
	if batchSize <= 0 {
		batchSize = 10_000
	}
	if source == "" {
		source = tr.table
	}
	parseCtx := NewParseContext(ctx, source)
	stats := &ParseStats{Source: source}
	reader := tr.NewReader(r)

	if err := tr.ReadHeaders(reader, parseCtx, tr.columns); err != nil {
		return stats, err
	}

	batch := make([]T, 0, batchSize)
	var rowErrs error
	for {
		record, err := tr.ReadRecord(reader, parseCtx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return stats, err
		}
		stats.TotalLines = parseCtx.LineNumber

		row, err := tr.decode(record)
		if err != nil {
			perr := errors.ParseError(errors.CodeInvalidData, source, parseCtx.LineNumber, "", "", err)
			stats.AddError(perr)
			if stats.ErrorCount > tr.config.MaxErrors {
				return stats, multierr.Append(rowErrs, perr)
			}
			rowErrs = multierr.Append(rowErrs, perr)
			continue
		}
		stats.RecordsParsed++
		parseCtx.RecordCount++
		batch = append(batch, *row)

		if len(batch) == batchSize {
			if err := fn(batch); err != nil {
				return stats, err
			}
			batch = make([]T, 0, batchSize)
		}
	}
	if len(batch) > 0 {
		if err := fn(batch); err != nil {
			return stats, err
		}
	}

	tr.logger.WithFields(logger.Fields{
		"source":  source,
		"records": stats.RecordsParsed,
		"errors":  stats.ErrorCount,
	}).Debug("Table read")
	return stats, rowErrs
}

// ReadAll decodes every row of r
func (tr *TableReader[T]) ReadAll(ctx context.Context, r io.Reader, source string) ([]T, *ParseStats, error) {
	var rows []T
	stats, err := tr.Stream(ctx, r, source, 0, func(batch []T) error {
		rows = append(rows, batch...)
		return nil
	})
	return rows, stats, err
}

// ReadFile decodes the fixture file at path
func (tr *TableReader[T]) ReadFile(ctx context.Context, path string) ([]T, *ParseStats, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, errors.FileError(errors.CodeFileNotFound, path, err)
		}
		if os.IsPermission(err) {
			return nil, nil, errors.FileError(errors.CodeFilePermission, path, err)
		}
		return nil, nil, errors.FileError(errors.CodeDirectoryError, path, err)
	}
	defer f.Close()
	return tr.ReadAll(ctx, f, path)
}

// ReadAccounts decodes an account master table
func ReadAccounts(r io.Reader) ([]models.Account, error) {
	rows, _, err := NewAccountReader(nil).ReadAll(context.Background(), r, "")
	return rows, err
}

// ReadPostings decodes a postings table
func ReadPostings(r io.Reader) ([]models.Posting, error) {
	rows, _, err := NewPostingReader(nil).ReadAll(context.Background(), r, "")
	return rows, err
}

// ReadTrialBalance decodes a trial balance table
func ReadTrialBalance(r io.Reader) ([]models.TrialBalanceRow, error) {
	rows, _, err := NewTrialBalanceReader(nil).ReadAll(context.Background(), r, "")
	return rows, err
}

// FixturePath returns the CSV path of a table inside dir
func FixturePath(dir, table string) string {
	return filepath.Join(dir, table+".csv")
}

// ReadFixtureDir reads the three CSV tables of dir concurrently
func ReadFixtureDir(ctx context.Context, dir string) (*models.Dataset, error) {
	log := logger.WithComponent("parsers").WithField("dir", dir)
	ds := &models.Dataset{}

	p := pool.New().WithErrors()
	p.Go(func() error {
		rows, _, err := NewAccountReader(nil).ReadFile(ctx, FixturePath(dir, models.TableAccountMaster))
		ds.Accounts = rows
		return err
	})
	p.Go(func() error {
		rows, _, err := NewPostingReader(nil).ReadFile(ctx, FixturePath(dir, models.TablePostings))
		ds.Postings = rows
		return err
	})
	p.Go(func() error {
		rows, _, err := NewTrialBalanceReader(nil).ReadFile(ctx, FixturePath(dir, models.TableTrialBalance))
		ds.TrialBalance = rows
		return err
	})
	if err := p.Wait(); err != nil {
		log.WithError(err).Error("Failed to read fixtures")
		return nil, err
	}

	if len(ds.Postings) > 0 {
		ds.FiscalYear = ds.Postings[0].FiscalYear
	}
	log.WithFields(logger.Fields{
		"accounts": len(ds.Accounts),
		"postings": len(ds.Postings),
		"tb_rows":  len(ds.TrialBalance),
	}).Info("Fixtures loaded")
	return ds, nil
}
