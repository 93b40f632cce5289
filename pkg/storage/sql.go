package storage

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"regexp"
	"sync/atomic"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// SQLStore is a SQL-backed store.
// It works with the PostgreSQL (pgx) and SQLite (modernc.org/sqlite)
// database/sql drivers. Requires a table with schema:
//
//	CREATE TABLE teamstore_kv (
//	    store_key   TEXT PRIMARY KEY,
//	    store_value TEXT NOT NULL,
//	    updated_at  TIMESTAMP NOT NULL
//	);
//
// CreateTable creates it when missing.
type SQLStore struct {
	db        *sql.DB
	tableName string
	dialect   SQLDialect
	owned     bool
	closed    atomic.Bool
}

// SQLDialect represents the SQL dialect for query generation.
type SQLDialect int

const (
	// DialectPostgreSQL uses PostgreSQL syntax ($1, $2 placeholders).
	DialectPostgreSQL SQLDialect = iota
	// DialectSQLite uses SQLite syntax (? placeholders).
	DialectSQLite
)

// String returns the dialect name.
func (d SQLDialect) String() string {
	switch d {
	case DialectPostgreSQL:
		return "postgres"
	case DialectSQLite:
		return "sqlite"
	default:
		return "unknown"
	}
}

// DriverName returns the database/sql driver registered for the dialect.
func (d SQLDialect) DriverName() string {
	if d == DialectSQLite {
		return "sqlite"
	}
	return "pgx"
}

// SQLStoreOption configures SQLStore behavior.
type SQLStoreOption func(*SQLStore)

// WithSQLTableName sets the table name.
// Default: "teamstore_kv".
func WithSQLTableName(name string) SQLStoreOption {
	return func(s *SQLStore) {
		s.tableName = name
	}
}

// WithSQLDialect sets the SQL dialect for query generation.
// Default: DialectPostgreSQL.
func WithSQLDialect(dialect SQLDialect) SQLStoreOption {
	return func(s *SQLStore) {
		s.dialect = dialect
	}
}

func withOwnedDB() SQLStoreOption {
	return func(s *SQLStore) {
		s.owned = true
	}
}

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// NewSQLStore creates a new SQL-backed store.
func NewSQLStore(db *sql.DB, opts ...SQLStoreOption) (*SQLStore, error) {
	s := &SQLStore{
		db:        db,
		tableName: "teamstore_kv",
		dialect:   DialectPostgreSQL,
	}
	for _, opt := range opts {
		opt(s)
	}
	if !tableNamePattern.MatchString(s.tableName) {
		return nil, fmt.Errorf("invalid table name %q", s.tableName)
	}
	return s, nil
}

// Dialect returns the configured dialect.
func (s *SQLStore) Dialect() SQLDialect {
	return s.dialect
}

func (s *SQLStore) selectQuery() string {
	switch s.dialect {
	case DialectSQLite:
		return fmt.Sprintf(`SELECT store_value FROM %s WHERE store_key = ?`, s.tableName)
	default:
		return fmt.Sprintf(`SELECT store_value FROM %s WHERE store_key = $1`, s.tableName)
	}
}

func (s *SQLStore) upsertQuery() string {
	switch s.dialect {
	case DialectSQLite:
		return fmt.Sprintf(`
			INSERT INTO %s (store_key, store_value, updated_at)
			VALUES (?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT (store_key) DO UPDATE SET
				store_value = excluded.store_value,
				updated_at = excluded.updated_at
		`, s.tableName)
	default:
		return fmt.Sprintf(`
			INSERT INTO %s (store_key, store_value, updated_at)
			VALUES ($1, $2, NOW())
			ON CONFLICT (store_key) DO UPDATE SET
				store_value = EXCLUDED.store_value,
				updated_at = NOW()
		`, s.tableName)
	}
}

func (s *SQLStore) deleteQuery() string {
	switch s.dialect {
	case DialectSQLite:
		return fmt.Sprintf(`DELETE FROM %s WHERE store_key = ?`, s.tableName)
	default:
		return fmt.Sprintf(`DELETE FROM %s WHERE store_key = $1`, s.tableName)
	}
}

// Get returns the value stored under key.
func (s *SQLStore) Get(ctx context.Context, key string) (string, bool, error) {
	if s.closed.Load() {
		return "", false, ErrStoreClosed
	}

	var value string
	err := s.db.QueryRowContext(ctx, s.selectQuery(), key).Scan(&value)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

// Set stores value under key.
func (s *SQLStore) Set(ctx context.Context, key, value string) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}
	_, err := s.db.ExecContext(ctx, s.upsertQuery(), key, value)
	return err
}

// Delete removes key from the table.
func (s *SQLStore) Delete(ctx context.Context, key string) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}
	_, err := s.db.ExecContext(ctx, s.deleteQuery(), key)
	return err
}

// Close marks the store as closed.
// The database handle is only closed if the store opened it.
func (s *SQLStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	if s.owned {
		return s.db.Close()
	}
	return nil
}

// CreateTable creates the key-value table if it doesn't exist.
func (s *SQLStore) CreateTable(ctx context.Context) error {
	var query string
	switch s.dialect {
	case DialectSQLite:
		query = fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				store_key TEXT PRIMARY KEY,
				store_value TEXT NOT NULL,
				updated_at TEXT NOT NULL DEFAULT (datetime('now'))
			)
		`, s.tableName)
	default:
		query = fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				store_key TEXT PRIMARY KEY,
				store_value TEXT NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			)
		`, s.tableName)
	}

	_, err := s.db.ExecContext(ctx, query)
	return err
}
