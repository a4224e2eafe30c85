package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"trainingdiary/internal/domain"
)

const entryColumns = "id, diary_date, status, good, bad, coach_feedback, drawing, created_at"

// CreateEntry inserts a diary entry and returns its generated id.
func (d *DB) CreateEntry(ctx context.Context, e domain.DiaryEntry) (int64, error) {
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	var drawing any
	if len(e.Drawing) > 0 {
		drawing = e.Drawing
	}
	res, err := d.sql.ExecContext(ctx,
		`INSERT INTO diary (diary_date, status, good, bad, coach_feedback, drawing, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.DiaryDate, string(e.Status), e.Good, e.Bad, e.CoachFeedback, drawing, createdAt.UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("create entry: %w", err)
	}
	return res.LastInsertId()
}

// ListEntries returns every entry, newest diary date first.
func (d *DB) ListEntries(ctx context.Context) ([]domain.DiaryEntry, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT `+entryColumns+` FROM diary ORDER BY diary_date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

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
	e, err := scanEntry(d.sql.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM diary WHERE id = ?`, id))
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
	res, err := d.sql.ExecContext(ctx, `DELETE FROM diary WHERE id = ?`, id)
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
		e         domain.DiaryEntry
		status    string
		createdAt int64
	)
	if err := s.Scan(&e.ID, &e.DiaryDate, &status, &e.Good, &e.Bad, &e.CoachFeedback, &e.Drawing, &createdAt); err != nil {
		return nil, err
	}
	e.Status = domain.Status(status)
	e.CreatedAt = time.UnixMilli(createdAt).UTC()
	return &e, nil
}
