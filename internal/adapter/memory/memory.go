// Package memory implements an in-memory repository for development and testing.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"trainingdiary/internal/domain"
)

// DB implements an in-memory database storage.
type DB struct {
	mu       sync.Mutex
	entries  []domain.DiaryEntry
	sessions map[string]*domain.Session

	entryIDCounter int64
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		sessions: make(map[string]*domain.Session),
	}
}

// Ensure interfaces are met.
var _ domain.EntryRepository = (*DB)(nil)
var _ domain.SessionRepository = (*DB)(nil)

// Close is a no-op.
func (db *DB) Close() error { return nil }

// --- EntryRepository ---

// Init is a no-op; the in-memory store needs no schema.
func (db *DB) Init(ctx context.Context) error { return nil }

// CreateEntry stores a copy of e under a new id.
func (db *DB) CreateEntry(ctx context.Context, e domain.DiaryEntry) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.entryIDCounter++
	e.ID = db.entryIDCounter
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	e.CreatedAt = e.CreatedAt.UTC()
	if len(e.Drawing) > 0 {
		e.Drawing = append([]byte(nil), e.Drawing...)
	} else {
		e.Drawing = nil
	}
	db.entries = append(db.entries, e)
	return e.ID, nil
}

// ListEntries returns all entries, newest diary date first.
func (db *DB) ListEntries(ctx context.Context) ([]domain.DiaryEntry, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	result := make([]domain.DiaryEntry, len(db.entries))
	copy(result, db.entries)

	// dates are YYYY-MM-DD, so string order is calendar order
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].DiaryDate != result[j].DiaryDate {
			return result[i].DiaryDate > result[j].DiaryDate
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}

// GetEntry returns the entry with the given id, or nil.
func (db *DB) GetEntry(ctx context.Context, id int64) (*domain.DiaryEntry, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, e := range db.entries {
		if e.ID == id {
			return &e, nil
		}
	}
	return nil, nil
}

// DeleteEntry deletes an entry by id. A missing id is not an error.
func (db *DB) DeleteEntry(ctx context.Context, id int64) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i, e := range db.entries {
		if e.ID == id {
			db.entries = append(db.entries[:i], db.entries[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// --- SessionRepository ---

// CreateSession creates a new session.
func (db *DB) CreateSession(ctx context.Context, token, userAgent string, expiresAt time.Time) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.sessions[token] = &domain.Session{
		Token:     token,
		UserAgent: userAgent,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}
	return nil
}

// GetSession retrieves a session by token.
func (db *DB) GetSession(ctx context.Context, token string) (*domain.Session, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if s, ok := db.sessions[token]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

// DeleteSession deletes a session.
func (db *DB) DeleteSession(ctx context.Context, token string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	delete(db.sessions, token)
	return nil
}

// DeleteExpiredSessions deletes all expired sessions.
func (db *DB) DeleteExpiredSessions(ctx context.Context) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	now := time.Now()
	for k, v := range db.sessions {
		if now.After(v.ExpiresAt) {
			delete(db.sessions, k)
		}
	}
	return nil
}
