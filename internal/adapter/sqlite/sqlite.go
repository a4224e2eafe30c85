// Package sqlite implements the domain repositories on a local SQLite file
// using the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"trainingdiary/internal/domain"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite connection and implements domain repository interfaces.
type DB struct {
	sql  *sql.DB
	path string
}

var _ domain.EntryRepository = (*DB)(nil)
var _ domain.SessionRepository = (*DB)(nil)

// Open opens or creates the database file at path and ensures the schema
// exists.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}
	return open(path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
}

// OpenInMemory creates a private in-memory database, for tests and
// throwaway runs.
func OpenInMemory() (*DB, error) {
	return open(":memory:", ":memory:")
}

func open(dsn, path string) (*DB, error) {
	s, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One writer; also keeps ":memory:" on a single database.
	s.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.PingContext(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	d := &DB{sql: s, path: path}
	if err := d.Init(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return d, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.sql.Close()
}

// Path returns the database file path.
func (d *DB) Path() string {
	return d.path
}

// Init creates the diary and session tables if they do not exist.
func (d *DB) Init(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS diary (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			diary_date TEXT NOT NULL,
			status TEXT NOT NULL,
			good TEXT NOT NULL DEFAULT '',
			bad TEXT NOT NULL DEFAULT '',
			coach_feedback TEXT NOT NULL DEFAULT '',
			drawing BLOB,
			created_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_diary_date ON diary(diary_date);`,
		`CREATE TABLE IF NOT EXISTS sessions (
			token TEXT PRIMARY KEY,
			user_agent TEXT NOT NULL,
			expires_at INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := d.sql.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
