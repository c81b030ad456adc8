// Package store loads generated fixtures into a SQLite database.
//
// The schema is versioned with embedded migrations. Each load replaces the
// fixture tables and appends an audit row to load_runs.
package store

import (
	"context"
	"database/sql"
	"embed"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	_ "modernc.org/sqlite"

	"golang-synthetic-ledger/internal/models"
	"golang-synthetic-ledger/internal/validator"
	"golang-synthetic-ledger/pkg/errors"
	"golang-synthetic-ledger/pkg/logger"
)

//go:embed migrations/*.sql
var migrations embed.FS

// DefaultBatchSize is the number of rows inserted per transaction
const DefaultBatchSize = 5_000

// timestampLayout sorts lexically in time order
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

// Load run states
const (
	RunRunning   = "running"
	RunCompleted = "completed"
	RunFailed    = "failed"
)

// Store is a fixture database
type Store struct {
	db        *sql.DB
	path      string
	batchSize int
	logger    logger.Logger
}

// LoadRun is one audit row of load_runs
type LoadRun struct {
	ID               string
	Seed             int64
	Profile          string
	FiscalYear       int
	Accounts         int
	Postings         int
	TrialBalanceRows int
	Status           string
	StartedAt        time.Time
	FinishedAt       time.Time
}

// Open opens or creates the database at path. Use ":memory:" for a private
// in-memory database.
func Open(path string) (*Store, error) {
	log := logger.WithComponent("store").WithField("path", path)

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errors.FileError(errors.CodeDirectoryError, filepath.Dir(path), err)
		}
	}

	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(on)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.StorageError(errors.CodeDatabaseOpen, path, err)
	}
	// SQLite serialises writers; a single connection also keeps ":memory:" on one database
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, multierr.Append(errors.StorageError(errors.CodeDatabaseOpen, path, err), db.Close())
	}

	log.Debug("Database opened")
	return &Store{
		db:        db,
		path:      path,
		batchSize: DefaultBatchSize,
		logger:    log,
	}, nil
}

// SetBatchSize changes the number of rows inserted per transaction
func (s *Store) SetBatchSize(n int) {
	if n > 0 {
		s.batchSize = n
	}
}

// DB returns the underlying handle
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate applies every pending migration
func (s *Store) Migrate() error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return errors.StorageError(errors.CodeMigrationFailed, "migrations", err)
	}
	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return errors.StorageError(errors.CodeMigrationFailed, s.path, err)
	}
	// m.Close would also close the shared database handle
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return errors.StorageError(errors.CodeMigrationFailed, s.path, err)
	}

	if err := m.Up(); err != nil {
		if stderrors.Is(err, migrate.ErrNoChange) {
			s.logger.Debug("No new migrations to apply")
			return nil
		}
		return errors.StorageError(errors.CodeMigrationFailed, s.path, err).
			WithSuggestion("Delete the database file and run 'ledgergen load' again")
	}

	version, _, _ := m.Version()
	s.logger.WithField("version", version).Info("Migrations applied")
	return nil
}

// LoadDataset replaces the fixture tables with ds and records the load
func (s *Store) LoadDataset(ctx context.Context, ds *models.Dataset) (*LoadRun, error) {
	run := &LoadRun{
		ID:         uuid.NewString(),
		Seed:       ds.Seed,
		Profile:    ds.Profile,
		FiscalYear: ds.FiscalYear,
		Status:     RunRunning,
		StartedAt:  time.Now().UTC(),
	}
	log := s.logger.WithField("run_id", run.ID)

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO load_runs (id, seed, profile, fiscal_year, status, started_at) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Seed, run.Profile, run.FiscalYear, run.Status, run.StartedAt.Format(timestampLayout),
	); err != nil {
		return nil, errors.StorageError(errors.CodeLoadFailed, "load_runs", err)
	}

	err := s.load(ctx, ds, run)
	run.FinishedAt = time.Now().UTC()
	run.Status = RunCompleted
	if err != nil {
		run.Status = RunFailed
	}
	// the audit row is finished even when the load was cancelled
	if _, finishErr := s.db.ExecContext(context.WithoutCancel(ctx),
		`UPDATE load_runs SET accounts = ?, postings = ?, trial_balance_rows = ?, status = ?, finished_at = ? WHERE id = ?`,
		run.Accounts, run.Postings, run.TrialBalanceRows, run.Status, run.FinishedAt.Format(timestampLayout), run.ID,
	); finishErr != nil {
		err = multierr.Append(err, errors.StorageError(errors.CodeLoadFailed, "load_runs", finishErr))
	}
	if err != nil {
		log.WithError(err).Error("Load failed")
		return run, err
	}

	log.WithFields(logger.Fields{
		"accounts": run.Accounts,
		"postings": run.Postings,
		"tb_rows":  run.TrialBalanceRows,
		"duration": run.FinishedAt.Sub(run.StartedAt).String(),
	}).Info("Dataset loaded")
	return run, nil
}

func (s *Store) load(ctx context.Context, ds *models.Dataset, run *LoadRun) error {
	if err := s.inTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{models.TableTrialBalance, models.TablePostings, models.TableAccountMaster} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return errors.StorageError(errors.CodeLoadFailed, table, err)
			}
		}
		return nil
	}); err != nil {
		return err
	}

	var err error
	run.Accounts, err = s.insert(ctx, models.TableAccountMaster, len(ds.Accounts), func(i int) []string {
		return ds.Accounts[i].Record()
	})
	if err != nil {
		return err
	}
	run.Postings, err = s.insert(ctx, models.TablePostings, len(ds.Postings), func(i int) []string {
		return ds.Postings[i].Record()
	})
	if err != nil {
		return err
	}
	run.TrialBalanceRows, err = s.insert(ctx, models.TableTrialBalance, len(ds.TrialBalance), func(i int) []string {
		return ds.TrialBalance[i].Record()
	})
	return err
}

// insert writes n rows of table in batches, one transaction per batch
func (s *Store) insert(ctx context.Context, table string, n int, record func(i int) []string) (int, error) {
	columns := models.ColumnsOf(table)
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", "))

	progress := logger.NewProgressTracker(logger.ProgressConfig{
		Operation: "load " + table,
		Total:     int64(n),
		Logger:    s.logger,
	})

	inserted := 0
	args := make([]interface{}, len(columns))
	for start := 0; start < n; start += s.batchSize {
		end := min(start+s.batchSize, n)
		err := s.inTx(ctx, func(tx *sql.Tx) (err error) {
			prepared, err := tx.PrepareContext(ctx, stmt)
			if err != nil {
				return err
			}
			defer func() { err = multierr.Append(err, prepared.Close()) }()

			for i := start; i < end; i++ {
				for j, field := range record(i) {
					args[j] = nullable(field)
				}
				if _, err := prepared.ExecContext(ctx, args...); err != nil {
					return fmt.Errorf("row %d: %w", i+1, err)
				}
			}
			return nil
		})
		if err != nil {
			progress.CompleteWithError(err)
			if ctx.Err() != nil {
				return inserted, errors.InternalError(errors.CodeCancelled, "load "+table, ctx.Err())
			}
			return inserted, errors.StorageError(errors.CodeLoadFailed, table, err)
		}
		inserted += end - start
		progress.Add(int64(end - start))
	}
	progress.Complete()
	return inserted, nil
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !stderrors.Is(rbErr, sql.ErrTxDone) {
			return multierr.Append(err, rbErr)
		}
		return err
	}
	return tx.Commit()
}

// nullable stores unset fixture fields as NULL
func nullable(field string) interface{} {
	if field == "" {
		return nil
	}
	return field
}

// Counts returns the row count of each fixture table
func (s *Store) Counts(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int, len(models.Tables))
	for _, table := range models.Tables {
		var n int
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return nil, errors.StorageError(errors.CodeQueryFailed, table, err)
		}
		counts[table] = n
	}
	return counts, nil
}

// MJEByPreparer returns manual journal entry lines per preparer, highest first
func (s *Store) MJEByPreparer(ctx context.Context) ([]validator.PreparerCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, COUNT(*) AS lines
		FROM postings
		WHERE document_category = ?
		GROUP BY user_id
		ORDER BY lines DESC, user_id ASC`, string(models.CategoryManual))
	if err != nil {
		return nil, errors.StorageError(errors.CodeQueryFailed, models.TablePostings, err)
	}
	defer rows.Close()

	var out []validator.PreparerCount
	for rows.Next() {
		var c validator.PreparerCount
		if err := rows.Scan(&c.User, &c.Lines); err != nil {
			return nil, errors.StorageError(errors.CodeQueryFailed, models.TablePostings, err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.StorageError(errors.CodeQueryFailed, models.TablePostings, err)
	}
	return out, nil
}

// LoadRuns returns the load history, newest first
func (s *Store) LoadRuns(ctx context.Context) ([]LoadRun, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seed, profile, fiscal_year, accounts, postings, trial_balance_rows, status, started_at, COALESCE(finished_at, '')
		FROM load_runs
		ORDER BY started_at DESC, rowid DESC`)
	if err != nil {
		return nil, errors.StorageError(errors.CodeQueryFailed, "load_runs", err)
	}
	defer rows.Close()

	var out []LoadRun
	for rows.Next() {
		var r LoadRun
		var started, finished string
		if err := rows.Scan(&r.ID, &r.Seed, &r.Profile, &r.FiscalYear, &r.Accounts, &r.Postings,
			&r.TrialBalanceRows, &r.Status, &started, &finished); err != nil {
			return nil, errors.StorageError(errors.CodeQueryFailed, "load_runs", err)
		}
		r.StartedAt, _ = time.Parse(timestampLayout, started)
		if finished != "" {
			r.FinishedAt, _ = time.Parse(timestampLayout, finished)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.StorageError(errors.CodeQueryFailed, "load_runs", err)
	}
	return out, nil
}
