package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"trainingdiary/internal/domain"
)

type mockSessionRepo struct {
	createFn        func(ctx context.Context, token, userAgent string, expiresAt time.Time) error
	getFn           func(ctx context.Context, token string) (*domain.Session, error)
	deleteFn        func(ctx context.Context, token string) error
	deleteExpiredFn func(ctx context.Context) error
}

func (m *mockSessionRepo) CreateSession(ctx context.Context, token, userAgent string, expiresAt time.Time) error {
	if m.createFn != nil {
		return m.createFn(ctx, token, userAgent, expiresAt)
	}
	return nil
}

func (m *mockSessionRepo) GetSession(ctx context.Context, token string) (*domain.Session, error) {
	if m.getFn != nil {
		return m.getFn(ctx, token)
	}
	return nil, nil
}

func (m *mockSessionRepo) DeleteSession(ctx context.Context, token string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, token)
	}
	return nil
}

func (m *mockSessionRepo) DeleteExpiredSessions(ctx context.Context) error {
	if m.deleteExpiredFn != nil {
		return m.deleteExpiredFn(ctx)
	}
	return nil
}

func TestNewAuthService_EmptyPassword(t *testing.T) {
	if _, err := NewAuthService(&mockSessionRepo{}, ""); err == nil {
		t.Fatal("expected error for empty password")
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	ctx := context.Background()

	var stored string
	sessions := &mockSessionRepo{
		createFn: func(ctx context.Context, token, userAgent string, expiresAt time.Time) error {
			if token == "" {
				t.Error("token should not be empty")
			}
			if userAgent != "firefox" {
				t.Errorf("expected userAgent firefox, got %s", userAgent)
			}
			if time.Until(expiresAt) < 23*time.Hour {
				t.Errorf("expiry too soon: %v", expiresAt)
			}
			stored = token
			return nil
		},
	}

	svc, err := NewAuthService(sessions, "testpass123")
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}
	token, err := svc.Login(ctx, "testpass123", "firefox")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if token == "" || token != stored {
		t.Errorf("expected returned token to match stored token")
	}
}

func TestAuthService_Login_InvalidPassword(t *testing.T) {
	svc, _ := NewAuthService(&mockSessionRepo{
		createFn: func(ctx context.Context, token, userAgent string, expiresAt time.Time) error {
			t.Error("session should not be created")
			return nil
		},
	}, "correctpass")

	_, err := svc.Login(context.Background(), "wrongpass", "ua")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_ValidateSession(t *testing.T) {
	tests := []struct {
		name        string
		session     *domain.Session
		repoErr     error
		userAgent   string
		wantErr     error
		wantDeleted bool
	}{
		{
			name:      "valid",
			session:   &domain.Session{Token: "t", UserAgent: "ua", ExpiresAt: time.Now().Add(time.Hour)},
			userAgent: "ua",
		},
		{
			name:      "missing",
			userAgent: "ua",
			wantErr:   ErrSessionNotFound,
		},
		{
			name:        "expired",
			session:     &domain.Session{Token: "t", UserAgent: "ua", ExpiresAt: time.Now().Add(-time.Hour)},
			userAgent:   "ua",
			wantErr:     ErrSessionExpired,
			wantDeleted: true,
		},
		{
			name:        "different user agent",
			session:     &domain.Session{Token: "t", UserAgent: "ua", ExpiresAt: time.Now().Add(time.Hour)},
			userAgent:   "curl",
			wantErr:     ErrSessionExpired,
			wantDeleted: true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			deleted := false
			sessions := &mockSessionRepo{
				getFn: func(ctx context.Context, token string) (*domain.Session, error) {
					return tc.session, tc.repoErr
				},
				deleteFn: func(ctx context.Context, token string) error {
					deleted = true
					return nil
				},
			}
			svc, _ := NewAuthService(sessions, "pw")

			err := svc.ValidateSession(context.Background(), "t", tc.userAgent)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("expected %v, got %v", tc.wantErr, err)
			}
			if deleted != tc.wantDeleted {
				t.Errorf("deleted = %v, want %v", deleted, tc.wantDeleted)
			}
		})
	}
}

func TestAuthService_ValidateSession_RepoError(t *testing.T) {
	boom := errors.New("db down")
	svc, _ := NewAuthService(&mockSessionRepo{
		getFn: func(ctx context.Context, token string) (*domain.Session, error) { return nil, boom },
	}, "pw")

	if err := svc.ValidateSession(context.Background(), "t", "ua"); !errors.Is(err, boom) {
		t.Errorf("expected repo error, got %v", err)
	}
}

func TestAuthService_LogoutAndPrune(t *testing.T) {
	var deletedToken string
	pruned := false
	svc, _ := NewAuthService(&mockSessionRepo{
		deleteFn:        func(ctx context.Context, token string) error { deletedToken = token; return nil },
		deleteExpiredFn: func(ctx context.Context) error { pruned = true; return nil },
	}, "pw")

	if err := svc.Logout(context.Background(), "abc"); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if deletedToken != "abc" {
		t.Errorf("deleted token = %q", deletedToken)
	}
	if err := svc.PruneSessions(context.Background()); err != nil || !pruned {
		t.Errorf("PruneSessions = %v, pruned = %v", err, pruned)
	}
}
