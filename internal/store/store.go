// Package store persists benchmark reports to a SQLite database so sweeps
// from different machines or commits can be compared later.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/torosent/outbreak/internal/bench"
	"github.com/torosent/outbreak/internal/epidemic"
	"github.com/torosent/outbreak/internal/runner"
)

// ErrRunNotFound is returned when a run ID has no stored report.
var ErrRunNotFound = errors.New("run not found")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	started_at DATETIME NOT NULL,
	params TEXT NOT NULL,
	seed INTEGER NOT NULL,
	trials INTEGER NOT NULL,
	accumulator TEXT NOT NULL,
	created_at DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS run_rows (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL REFERENCES runs(id),
	position INTEGER NOT NULL,
	mode TEXT NOT NULL,
	workers INTEGER NOT NULL,
	trials INTEGER NOT NULL,
	time_ms INTEGER NOT NULL,
	speedup REAL NOT NULL,
	total_deceased INTEGER NOT NULL,
	total_peak_beds INTEGER NOT NULL,
	capacity_exceeded INTEGER NOT NULL,
	avg_deceased INTEGER NOT NULL,
	avg_peak_beds INTEGER NOT NULL,
	verified BOOLEAN NOT NULL
);
CREATE INDEX IF NOT EXISTS run_rows_run_id ON run_rows(run_id, position);
`

// Store is a results database handle. It is safe for concurrent use.
type Store struct {
	db    *sql.DB
	retry RetryPolicy
}

type Option func(*Store)

// WithRetryPolicy replaces DefaultRetryPolicy for writes.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(s *Store) {
		s.retry = p
	}
}

// RunInfo describes one stored benchmark sweep.
type RunInfo struct {
	ID          string
	StartedAt   time.Time
	Params      epidemic.Params
	Seed        int64
	Trials      int
	Accumulator string
	Rows        int
}

// Open opens or creates the database at path with the sqlite3 driver and ensures its tables exist.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open results db %s: %w", path, err)
	}
	s := &Store{db: db, retry: DefaultRetryPolicy}
	for _, opt := range opts {
		opt(s)
	}
	err = s.retry.do(context.Background(), func() error {
		_, err := db.Exec(schema)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create results tables: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveReport stores the run and all of its rows in one transaction. The
// transaction is retried while another writer holds the database lock.
func (s *Store) SaveReport(ctx context.Context, report *bench.Report) error {
	params, err := json.Marshal(report.Params)
	if err != nil {
		return fmt.Errorf("encode params: %w", err)
	}
	return s.retry.do(ctx, func() error {
		return s.saveReport(ctx, report, string(params))
	})
}

func (s *Store) saveReport(ctx context.Context, report *bench.Report, params string) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, params, seed, trials, accumulator, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		report.RunID, report.StartedAt.UTC(), params, report.Seed, report.Trials, report.Accumulator, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert run %s: %w", report.RunID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO run_rows (
		run_id, position, mode, workers, trials, time_ms, speedup,
		total_deceased, total_peak_beds, capacity_exceeded,
		avg_deceased, avg_peak_beds, verified
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, row := range report.Rows {
		_, err = stmt.ExecContext(ctx,
			report.RunID, i, string(row.Mode), row.Workers, row.Trials, row.TimeMs, row.Speedup,
			row.Totals.Deceased, row.Totals.PeakBeds, row.Totals.CapacityExceeded,
			row.AvgDeceased, row.AvgPeakBeds, row.Verified)
		if err != nil {
			return fmt.Errorf("insert row %d of run %s: %w", i, report.RunID, err)
		}
	}

	return tx.Commit()
}

// ListRows returns the rows of runID in report order.
func (s *Store) ListRows(ctx context.Context, runID string) ([]bench.Row, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		mode, workers, trials, time_ms, speedup,
		total_deceased, total_peak_beds, capacity_exceeded,
		avg_deceased, avg_peak_beds, verified
		FROM run_rows WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []bench.Row
	for rows.Next() {
		var (
			row    bench.Row
			mode   string
			totals runner.Totals
		)
		if err := rows.Scan(&mode, &row.Workers, &row.Trials, &row.TimeMs, &row.Speedup,
			&totals.Deceased, &totals.PeakBeds, &totals.CapacityExceeded,
			&row.AvgDeceased, &row.AvgPeakBeds, &row.Verified); err != nil {
			return nil, err
		}
		row.Mode = bench.Mode(mode)
		row.Totals = totals
		row.CapacityExceeded = totals.CapacityExceeded
		row.Elapsed = time.Duration(row.TimeMs) * time.Millisecond
		out = append(out, row)
	}
	return out, rows.Err()
}

// GetRun returns the stored description of runID.
func (s *Store) GetRun(ctx context.Context, runID string) (RunInfo, error) {
	var (
		info   RunInfo
		params string
	)
	err := s.db.QueryRowContext(ctx, `SELECT r.id, r.started_at, r.params, r.seed, r.trials, r.accumulator,
		(SELECT COUNT(*) FROM run_rows WHERE run_id = r.id)
		FROM runs r WHERE r.id = ?`, runID).
		Scan(&info.ID, &info.StartedAt, &params, &info.Seed, &info.Trials, &info.Accumulator, &info.Rows)
	if errors.Is(err, sql.ErrNoRows) {
		return RunInfo{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return RunInfo{}, err
	}
	if err := json.Unmarshal([]byte(params), &info.Params); err != nil {
		return RunInfo{}, fmt.Errorf("decode params of run %s: %w", runID, err)
	}
	return info, nil
}

// ListRuns returns stored run IDs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM runs ORDER BY started_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
