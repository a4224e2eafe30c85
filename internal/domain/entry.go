package domain

import (
	"context"
	"time"
)

// DayLayout is the calendar-day format used for diary dates.
const DayLayout = "2006-01-02"

// DiaryEntry is one persisted training-journal record.
type DiaryEntry struct {
	ID            int64     `json:"id"`
	DiaryDate     string    `json:"diaryDate"`
	Status        Status    `json:"status"`
	Good          string    `json:"good"`
	Bad           string    `json:"bad"`
	CoachFeedback string    `json:"coachFeedback"`
	Drawing       []byte    `json:"-"`
	CreatedAt     time.Time `json:"createdAt"`
}

// HasDrawing reports whether the entry carries a composited drawing.
func (e *DiaryEntry) HasDrawing() bool {
	return len(e.Drawing) > 0
}

// EntryRepository is the port for diary persistence.
type EntryRepository interface {
	Init(ctx context.Context) error
	CreateEntry(ctx context.Context, e DiaryEntry) (int64, error)
	ListEntries(ctx context.Context) ([]DiaryEntry, error)
	GetEntry(ctx context.Context, id int64) (*DiaryEntry, error)
	DeleteEntry(ctx context.Context, id int64) (bool, error)
}
