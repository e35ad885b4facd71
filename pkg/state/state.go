// Package state persists what a previous run did: the observation file, the
// processing window, the product selection and a log of the transfers.
//
// The products directory cleanup depends on this memory. A change of the
// observation file or of the selection between two invocations decides
// whether cached products are still usable, and the command line tool has no
// resident process to remember that in, so it lives in a small sqlite file.
package state

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "modernc.org/sqlite"

	"github.com/SamGreenwood04/Ginan-UI/pkg/download"
	"github.com/SamGreenwood04/Ginan-UI/pkg/products"
)

type DB struct {
	sql *sql.DB
}

func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS run_state (
  key        TEXT PRIMARY KEY,
  value      TEXT NOT NULL,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS transfers (
  id          INTEGER PRIMARY KEY,
  started_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  filename    TEXT NOT NULL,
  status      TEXT NOT NULL,
  bytes       INTEGER NOT NULL DEFAULT 0,
  duration_ms INTEGER NOT NULL DEFAULT 0,
  error       TEXT
);
CREATE INDEX IF NOT EXISTS idx_transfers_time ON transfers(started_at);
	`); err != nil {
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// LastObservation returns the observation file of the previous run, empty
// when there was none.
func (d *DB) LastObservation(ctx context.Context) (string, error) {
	return d.getValue(ctx, "observation_file")
}

func (d *DB) SetLastObservation(ctx context.Context, path string) error {
	return d.setValue(ctx, "observation_file", path)
}

// LastWindow returns the processing window of the previous run. Both times
// are zero when there was none.
func (d *DB) LastWindow(ctx context.Context) (time.Time, time.Time, error) {
	start, err := d.getTime(ctx, "window_start")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := d.getTime(ctx, "window_end")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

func (d *DB) SetLastWindow(ctx context.Context, start, end time.Time) error {
	if err := d.setValue(ctx, "window_start", start.UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	return d.setValue(ctx, "window_end", end.UTC().Format(time.RFC3339))
}

// LastSelection returns the product selection of the previous run, the zero
// Selection when there was none.
func (d *DB) LastSelection(ctx context.Context) (products.Selection, error) {
	var sel products.Selection
	var err error
	if sel.Provider, err = d.getValue(ctx, "selection_provider"); err != nil {
		return products.Selection{}, err
	}
	if sel.Project, err = d.getValue(ctx, "selection_project"); err != nil {
		return products.Selection{}, err
	}
	if sel.SolutionType, err = d.getValue(ctx, "selection_solution"); err != nil {
		return products.Selection{}, err
	}
	return sel, nil
}

func (d *DB) SetLastSelection(ctx context.Context, sel products.Selection) error {
	if err := d.setValue(ctx, "selection_provider", sel.Provider); err != nil {
		return err
	}
	if err := d.setValue(ctx, "selection_project", sel.Project); err != nil {
		return err
	}
	return d.setValue(ctx, "selection_solution", sel.SolutionType)
}

// Transfer is one logged transfer.
type Transfer struct {
	StartedAt time.Time
	Filename  string
	Status    string
	Bytes     int64
	Duration  time.Duration
	Err       string
}

// LogTransfers appends the outcome of a download batch.
func (d *DB) LogTransfers(ctx context.Context, results []download.FileResult) error {
	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, res := range results {
		errText := ""
		if res.Err != nil {
			errText = res.Err.Error()
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO transfers(filename, status, bytes, duration_ms, error) VALUES(?,?,?,?,?)`,
			res.Filename, res.Status.String(), res.Written, res.Duration.Milliseconds(), nullIfEmpty(errText))
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// RecentTransfers returns the most recent transfers, newest first.
func (d *DB) RecentTransfers(ctx context.Context, limit int) ([]Transfer, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.sql.QueryContext(ctx,
		`SELECT started_at, filename, status, bytes, duration_ms, error FROM transfers ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transfer
	for rows.Next() {
		var (
			tr        Transfer
			startedAt string
			durMs     int64
			errNS     sql.NullString
		)
		if err := rows.Scan(&startedAt, &tr.Filename, &tr.Status, &tr.Bytes, &durMs, &errNS); err != nil {
			return nil, err
		}
		tr.StartedAt = parseTimestamp(startedAt)
		tr.Duration = time.Duration(durMs) * time.Millisecond
		tr.Err = errNS.String
		out = append(out, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (d *DB) setValue(ctx context.Context, key, value string) error {
	_, err := d.sql.ExecContext(ctx, `
INSERT INTO run_state(key, value, updated_at) VALUES(?,?,CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`, key, value)
	return err
}

func (d *DB) getValue(ctx context.Context, key string) (string, error) {
	var v string
	err := d.sql.QueryRowContext(ctx, `SELECT value FROM run_state WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return v, err
}

func (d *DB) getTime(ctx context.Context, key string) (time.Time, error) {
	v, err := d.getValue(ctx, key)
	if err != nil || v == "" {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// parseTimestamp reads the sqlite CURRENT_TIMESTAMP format with an RFC3339
// fallback.
func parseTimestamp(s string) time.Time {
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
