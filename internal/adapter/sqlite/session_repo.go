package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"trainingdiary/internal/domain"
)

// CreateSession stores a new owner session.
func (d *DB) CreateSession(ctx context.Context, token, userAgent string, expiresAt time.Time) error {
	_, err := d.sql.ExecContext(ctx,
		`INSERT INTO sessions (token, user_agent, expires_at, created_at) VALUES (?, ?, ?, ?)`,
		token, userAgent, expiresAt.Unix(), time.Now().Unix(),
	)
	return err
}

// GetSession retrieves a session by token, or nil if there is none.
func (d *DB) GetSession(ctx context.Context, token string) (*domain.Session, error) {
	var (
		s                    domain.Session
		expiresAt, createdAt int64
	)
	err := d.sql.QueryRowContext(ctx,
		`SELECT token, user_agent, expires_at, created_at FROM sessions WHERE token = ?`, token,
	).Scan(&s.Token, &s.UserAgent, &expiresAt, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.ExpiresAt = time.Unix(expiresAt, 0)
	s.CreatedAt = time.Unix(createdAt, 0)
	return &s, nil
}

// DeleteSession deletes a session by token.
func (d *DB) DeleteSession(ctx context.Context, token string) error {
	_, err := d.sql.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token)
	return err
}

// DeleteExpiredSessions deletes all expired sessions.
func (d *DB) DeleteExpiredSessions(ctx context.Context) error {
	_, err := d.sql.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < ?`, time.Now().Unix())
	return err
}
