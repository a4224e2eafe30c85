// Package app holds the application services and business logic.
package app

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"trainingdiary/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials indicates that the provided password was incorrect.
	ErrInvalidCredentials = errors.New("invalid password")
	// ErrSessionNotFound indicates that the requested session does not exist.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired indicates that the session has expired.
	ErrSessionExpired = errors.New("session expired")
)

const sessionTTL = 24 * time.Hour

// AuthService gates the diary behind a single owner password.
type AuthService struct {
	sessions     domain.SessionRepository
	passwordHash []byte
}

// NewAuthService hashes the owner password and returns a service that
// issues sessions against it.
func NewAuthService(sessions domain.SessionRepository, password string) (*AuthService, error) {
	if password == "" {
		return nil, errors.New("owner password must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return &AuthService{sessions: sessions, passwordHash: hash}, nil
}

// Login checks the password and creates a session bound to userAgent.
func (s *AuthService) Login(ctx context.Context, password, userAgent string) (string, error) {
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token, err := generateToken()
	if err != nil {
		return "", err
	}
	if err := s.sessions.CreateSession(ctx, token, userAgent, time.Now().Add(sessionTTL)); err != nil {
		return "", err
	}
	return token, nil
}

// Logout invalidates a session.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.DeleteSession(ctx, token)
}

// ValidateSession checks that token names a live session for userAgent.
func (s *AuthService) ValidateSession(ctx context.Context, token, userAgent string) error {
	session, err := s.sessions.GetSession(ctx, token)
	if err != nil {
		return err
	}
	if session == nil {
		return ErrSessionNotFound
	}

	if time.Now().After(session.ExpiresAt) {
		_ = s.sessions.DeleteSession(ctx, token)
		return ErrSessionExpired
	}

	if session.UserAgent != userAgent {
		_ = s.sessions.DeleteSession(ctx, token)
		return ErrSessionExpired
	}
	return nil
}

// PruneSessions removes expired sessions.
func (s *AuthService) PruneSessions(ctx context.Context) error {
	return s.sessions.DeleteExpiredSessions(ctx)
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
