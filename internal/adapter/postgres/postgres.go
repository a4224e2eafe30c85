// Package postgres implements the domain repositories using PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"trainingdiary/internal/domain"

	_ "github.com/lib/pq"
)

// DB wraps a *sql.DB and implements domain repository interfaces.
type DB struct {
	sql *sql.DB
}

// Ensure interfaces are met.
var _ domain.EntryRepository = (*DB)(nil)
var _ domain.SessionRepository = (*DB)(nil)

// Open connects to PostgreSQL, pings, and ensures the schema exists.
func Open(connStr string) (*DB, error) {
	s, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	s.SetMaxOpenConns(10)
	s.SetMaxIdleConns(5)
	s.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.PingContext(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}

	d := &DB{sql: s}
	if err := d.Init(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return d, nil
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

// Init creates the diary and session tables if they do not exist.
func (d *DB) Init(ctx context.Context) error {
	stmts := []string{
		"CREATE TABLE IF NOT EXISTS diary (id BIGSERIAL PRIMARY KEY, diary_date DATE NOT NULL, status TEXT NOT NULL, good TEXT NOT NULL DEFAULT '', bad TEXT NOT NULL DEFAULT '', coach_feedback TEXT NOT NULL DEFAULT '', drawing BYTEA, created_at TIMESTAMPTZ NOT NULL);",
		"CREATE INDEX IF NOT EXISTS idx_diary_date ON diary(diary_date);",
		"CREATE TABLE IF NOT EXISTS sessions (token TEXT PRIMARY KEY, user_agent TEXT NOT NULL, expires_at TIMESTAMPTZ NOT NULL, created_at TIMESTAMPTZ NOT NULL);",
		"CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at);",
	}
	for _, stmt := range stmts {
		if _, err := d.sql.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
