// Package store persists valuation runs and memoized engine results in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kilianp07/assetfin/core/finance"
	"github.com/kilianp07/assetfin/core/memo"
)

// ErrNotFound is returned when no run matches.
var ErrNotFound = errors.New("run not found")

// Run is one stored valuation.
type Run struct {
	ID          string         `json:"id"`
	PortfolioID string         `json:"portfolioId"`
	InputHash   string         `json:"inputHash"`
	RevenueCase string         `json:"revenueCase"`
	CreatedAt   time.Time      `json:"createdAt"`
	Duration    time.Duration  `json:"duration"`
	Result      finance.Result `json:"result"`
}

// SQLiteStore persists runs and memo entries in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

var _ memo.Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens or creates the database and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// modernc sqlite serialises writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	schema := `CREATE TABLE IF NOT EXISTS runs (
        id TEXT PRIMARY KEY,
        portfolio_id TEXT NOT NULL,
        input_hash TEXT NOT NULL,
        revenue_case TEXT NOT NULL,
        created_at INTEGER NOT NULL,
        duration_ns INTEGER NOT NULL,
        result BLOB NOT NULL
    );
    CREATE INDEX IF NOT EXISTS runs_portfolio ON runs(portfolio_id, created_at);
    CREATE INDEX IF NOT EXISTS runs_hash ON runs(input_hash);
    CREATE TABLE IF NOT EXISTS memo (
        key TEXT PRIMARY KEY,
        value BLOB NOT NULL,
        updated_at INTEGER NOT NULL
    );`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Save inserts or replaces a run.
func (s *SQLiteStore) Save(ctx context.Context, r Run) error {
	blob, err := memo.Encode(r.Result)
	if err != nil {
		return fmt.Errorf("encode run %s: %w", r.ID, err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO runs (id, portfolio_id, input_hash, revenue_case, created_at, duration_ns, result)
        VALUES (?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            portfolio_id = excluded.portfolio_id,
            input_hash = excluded.input_hash,
            revenue_case = excluded.revenue_case,
            created_at = excluded.created_at,
            duration_ns = excluded.duration_ns,
            result = excluded.result`,
		r.ID, r.PortfolioID, r.InputHash, r.RevenueCase, r.CreatedAt.UnixNano(), int64(r.Duration), blob)
	return err
}

const runColumns = `id, portfolio_id, input_hash, revenue_case, created_at, duration_ns, result`

// Latest returns the most recent run of a portfolio.
func (s *SQLiteStore) Latest(ctx context.Context, portfolioID string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs
        WHERE portfolio_id = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`, portfolioID)
	return scanRun(row)
}

// ByHash returns the most recent run computed from the given input hash.
func (s *SQLiteStore) ByHash(ctx context.Context, hash string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs
        WHERE input_hash = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`, hash)
	return scanRun(row)
}

// List returns up to limit runs of a portfolio, newest first. Results are
// not decoded.
func (s *SQLiteStore) List(ctx context.Context, portfolioID string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, portfolio_id, input_hash, revenue_case, created_at, duration_ns
        FROM runs WHERE portfolio_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`, portfolioID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []Run
	for rows.Next() {
		var r Run
		var created, dur int64
		if err := rows.Scan(&r.ID, &r.PortfolioID, &r.InputHash, &r.RevenueCase, &created, &dur); err != nil {
			return nil, err
		}
		r.CreatedAt = time.Unix(0, created).UTC()
		r.Duration = time.Duration(dur)
		res = append(res, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

func scanRun(row *sql.Row) (Run, error) {
	var r Run
	var created, dur int64
	var blob []byte
	if err := row.Scan(&r.ID, &r.PortfolioID, &r.InputHash, &r.RevenueCase, &created, &dur, &blob); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, ErrNotFound
		}
		return Run{}, err
	}
	r.CreatedAt = time.Unix(0, created).UTC()
	r.Duration = time.Duration(dur)
	if err := memo.Decode(blob, &r.Result); err != nil {
		return Run{}, fmt.Errorf("decode run %s: %w", r.ID, err)
	}
	return r, nil
}

// Get implements memo.Store.
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var v []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM memo WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// Put implements memo.Store.
func (s *SQLiteStore) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO memo (key, value, updated_at) VALUES (?, ?, ?)
        ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UnixNano())
	return err
}

// Prune deletes memo entries not written since before.
func (s *SQLiteStore) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM memo WHERE updated_at < ?`, before.UnixNano())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
