// Package history persists a log of dispatched command lines in SQLite.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("history: store is closed")

// DefaultLimit is used by Recent when Query.Limit is not positive.
const DefaultLimit = 20

// Entry is one recorded dispatch.
type Entry struct {
	ID        int64         `json:"id"`
	Line      string        `json:"line"`
	Command   string        `json:"command,omitempty"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration_ns"`
	CreatedAt time.Time     `json:"created_at"`
}

// Query filters Recent.
type Query struct {
	Limit      int
	FailedOnly bool
	// Command restricts results to one resolved command name.
	Command string
}

// Store records dispatches. It is safe for concurrent use.
type Store struct {
	db        *sql.DB
	closed    atomic.Bool
	path      string
	retention int
	retry     RetryPolicy
	now       func() time.Time
	logger    *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithRetention keeps at most n rows; older rows are deleted on Record.
// Zero keeps everything.
func WithRetention(n int) Option {
	return func(s *Store) { s.retention = n }
}

// WithRetryPolicy sets how Record retries while the database is locked.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(s *Store) { s.retry = p }
}

// WithClock overrides the time source for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Open creates the parent directory if needed, opens SQLite with WAL mode
// and runs migrations.
func Open(path string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("history: create data dir: %w", err)
	}

	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("history: pragma %q: %w", p, err)
		}
	}

	s := &Store{
		db:     db,
		path:   path,
		retry:  DefaultRetryPolicy,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history: migration: %w", err)
	}
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS dispatches (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			line        TEXT    NOT NULL,
			command     TEXT    NOT NULL DEFAULT '',
			success     INTEGER NOT NULL,
			error       TEXT    NOT NULL DEFAULT '',
			duration_ns INTEGER NOT NULL DEFAULT 0,
			created_at  TEXT    NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_dispatches_command ON dispatches(command);
		CREATE INDEX IF NOT EXISTS idx_dispatches_success ON dispatches(success);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record inserts e and returns its ID. A zero CreatedAt is set from the
// store clock.
func (s *Store) Record(ctx context.Context, e Entry) (int64, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}

	var id int64
	err := retry(ctx, s.retry, isBusy, func() error {
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO dispatches (line, command, success, error, duration_ns, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			e.Line, e.Command, boolToInt(e.Success), e.Error, int64(e.Duration),
			e.CreatedAt.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return 0, wrapErr("record", err)
	}

	if s.retention > 0 {
		if _, err := s.db.ExecContext(ctx,
			`DELETE FROM dispatches WHERE id NOT IN
			 (SELECT id FROM dispatches ORDER BY id DESC LIMIT ?)`, s.retention); err != nil {
			s.logger.Warn("history retention failed", "error", err)
		}
	}
	return id, nil
}

// Recent returns the newest entries first.
func (s *Store) Recent(ctx context.Context, q Query) ([]Entry, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	query := `SELECT id, line, command, success, error, duration_ns, created_at
		FROM dispatches WHERE 1 = 1`
	var args []any
	if q.FailedOnly {
		query += " AND success = 0"
	}
	if q.Command != "" {
		query += " AND command = ?"
		args = append(args, q.Command)
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("recent", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e       Entry
			success int
			dur     int64
			created string
		)
		if err := rows.Scan(&e.ID, &e.Line, &e.Command, &success, &e.Error, &dur, &created); err != nil {
			return nil, wrapErr("scan", err)
		}
		e.Success = success != 0
		e.Duration = time.Duration(dur)
		if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
			e.CreatedAt = t
		}
		out = append(out, e)
	}
	return out, wrapErr("recent", rows.Err())
}

// Count returns the number of stored entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM dispatches").Scan(&n); err != nil {
		return 0, wrapErr("count", err)
	}
	return n, nil
}

func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("history: %s: %w", op, err)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
