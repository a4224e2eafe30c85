package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"trainingdiary/internal/domain"
)

const entryColumns = "id, to_char(diary_date, 'YYYY-MM-DD'), status, good, bad, coach_feedback, drawing, created_at"

// CreateEntry inserts a diary entry and returns its generated id.
func (d *DB) CreateEntry(ctx context.Context, e domain.DiaryEntry) (int64, error) {
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	var id int64
	err := d.sql.QueryRowContext(ctx,
		"INSERT INTO diary(diary_date, status, good, bad, coach_feedback, drawing, created_at) VALUES($1, $2, $3, $4, $5, $6, $7) RETURNING id;",
		e.DiaryDate, string(e.Status), e.Good, e.Bad, e.CoachFeedback, nullBytes(e.Drawing), createdAt.UTC(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create entry: %w", err)
	}
	return id, nil
}

// ListEntries returns every entry, newest diary date first.
func (d *DB) ListEntries(ctx context.Context) ([]domain.DiaryEntry, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT "+entryColumns+" FROM diary ORDER BY diary_date DESC, id DESC;")
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.DiaryEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("list entries: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// GetEntry returns the entry with the given id, or nil if there is none.
func (d *DB) GetEntry(ctx context.Context, id int64) (*domain.DiaryEntry, error) {
	row := d.sql.QueryRowContext(ctx, "SELECT "+entryColumns+" FROM diary WHERE id=$1;", id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get entry %d: %w", id, err)
	}
	return e, nil
}

// DeleteEntry removes an entry by id. Deleting a missing id is not an error.
func (d *DB) DeleteEntry(ctx context.Context, id int64) (bool, error) {
	res, err := d.sql.ExecContext(ctx, "DELETE FROM diary WHERE id=$1;", id)
	if err != nil {
		return false, fmt.Errorf("delete entry %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*domain.DiaryEntry, error) {
	var (
		e      domain.DiaryEntry
		status string
	)
	if err := s.Scan(&e.ID, &e.DiaryDate, &status, &e.Good, &e.Bad, &e.CoachFeedback, &e.Drawing, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.Status = domain.Status(status)
	return &e, nil
}

func nullBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
