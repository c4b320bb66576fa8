package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const kvSchema = `CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	updated_at INTEGER NOT NULL
)`

type sqliteConfig struct {
	busyTimeout int
	maxBytes    int
	now         func() time.Time
}

// SQLiteOption applies a configuration option to the SQLite backend.
type SQLiteOption func(*sqliteConfig)

// WithBusyTimeout sets PRAGMA busy_timeout in milliseconds.
func WithBusyTimeout(ms int) SQLiteOption {
	return func(c *sqliteConfig) {
		if ms > 0 {
			c.busyTimeout = ms
		}
	}
}

// WithMaxValueBytes rejects single values larger than n with
// ErrQuotaExceeded. Zero is unlimited.
func WithMaxValueBytes(n int) SQLiteOption {
	return func(c *sqliteConfig) {
		if n > 0 {
			c.maxBytes = n
		}
	}
}

// SQLiteBackend stores documents in a single-table SQLite database.
type SQLiteBackend struct {
	db  *sql.DB
	cfg sqliteConfig
}

// OpenSQLite opens (creating if needed) the database at path. Use
// ":memory:" for a throwaway database.
func OpenSQLite(ctx context.Context, path string, opts ...SQLiteOption) (*SQLiteBackend, error) {
	cfg := sqliteConfig{busyTimeout: 10_000, now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite mkdir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	// Every connection to ":memory:" is a separate database, and one
	// writer is all the ledger needs.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.busyTimeout),
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite %s: %w", p, err)
		}
	}
	if _, err := db.ExecContext(ctx, kvSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}
	return &SQLiteBackend{db: db, cfg: cfg}, nil
}

// classify maps driver errors onto the package sentinels.
func classify(op, key string, err error) error {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_FULL {
		return fmt.Errorf("sqlite %s %q: %w: %v", op, key, ErrQuotaExceeded, err)
	}
	return fmt.Errorf("sqlite %s %q: %w: %v", op, key, ErrUnavailable, err)
}

func (s *SQLiteBackend) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sqlite get %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, classify("get", key, err)
	}
	return value, nil
}

func (s *SQLiteBackend) Set(ctx context.Context, key string, value []byte) error {
	if s.cfg.maxBytes > 0 && len(value) > s.cfg.maxBytes {
		return fmt.Errorf("sqlite set %q (%d > %d bytes): %w", key, len(value), s.cfg.maxBytes, ErrQuotaExceeded)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, s.cfg.now().UnixMilli())
	if err != nil {
		return classify("set", key, err)
	}
	return nil
}

func (s *SQLiteBackend) Remove(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return classify("remove", key, err)
	}
	return nil
}

// Close closes the database. Later calls fail with ErrUnavailable.
func (s *SQLiteBackend) Close() error {
	return s.db.Close()
}
