// Package domain contains the core business entities and interfaces.
package domain

import (
	"context"
	"time"
)

// Session represents an active owner session.
type Session struct {
	Token     string
	UserAgent string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// SessionRepository defines the port for session persistence operations.
type SessionRepository interface {
	CreateSession(ctx context.Context, token, userAgent string, expiresAt time.Time) error
	GetSession(ctx context.Context, token string) (*Session, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteExpiredSessions(ctx context.Context) error
}
