package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"time"

	"trainingdiary/internal/domain"
	"trainingdiary/internal/drawing"

	"go.uber.org/zap"
)

var (
	// ErrInvalidStatus indicates a status outside the fixed mood labels.
	ErrInvalidStatus = errors.New("status must be one of the fixed mood labels")
	// ErrInvalidDate indicates a diary date not in YYYY-MM-DD form.
	ErrInvalidDate = errors.New("date must be YYYY-MM-DD")
	// ErrEntryNotFound indicates that no entry has the requested id.
	ErrEntryNotFound = errors.New("entry not found")
)

// BackgroundProvider supplies the canvas background drawings are flattened onto.
type BackgroundProvider interface {
	Background(ctx context.Context) drawing.Background
}

// SubmitInput is the form data for one new entry. The drawing arrives either
// as a canvas data URL or as a JSON row-major RGBA pixel array; both may be
// empty. Malformed drawings are reported as warnings, never as errors.
type SubmitInput struct {
	Date           string
	Status         domain.Status
	Good           string
	Bad            string
	CoachFeedback  string
	DrawingDataURL string
	OverlayPixels  json.RawMessage
}

// SubmitResult reports what was persisted. Warnings explain a drawing that
// could not be saved; the rest of the entry is stored regardless.
type SubmitResult struct {
	ID         int64    `json:"id"`
	Date       string   `json:"date"`
	HasDrawing bool     `json:"hasDrawing"`
	Warnings   []string `json:"warnings"`
}

// EntryService encapsulates diary use cases.
type EntryService struct {
	repo        domain.EntryRepository
	backgrounds BackgroundProvider
	log         *zap.Logger
	now         func() time.Time
}

// NewEntryService creates an EntryService backed by the given repository.
func NewEntryService(repo domain.EntryRepository, bg BackgroundProvider, log *zap.Logger) *EntryService {
	if log == nil {
		log = zap.NewNop()
	}
	return &EntryService{repo: repo, backgrounds: bg, log: log, now: time.Now}
}

// Statuses returns the mood labels offered by the form.
func (s *EntryService) Statuses() []domain.Status {
	return domain.Statuses()
}

// Submit validates and stores a new entry. A drawing that cannot be
// composited or encoded is dropped with a warning; it never blocks the save.
func (s *EntryService) Submit(ctx context.Context, in SubmitInput) (*SubmitResult, error) {
	if !in.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	day, err := s.normalizeDate(in.Date)
	if err != nil {
		return nil, err
	}

	res := &SubmitResult{Date: day, Warnings: []string{}}
	png, err := s.flatten(ctx, in)
	if err != nil {
		s.log.Warn("drawing dropped", zap.String("date", day), zap.Error(err))
		res.Warnings = append(res.Warnings, fmt.Sprintf("drawing not saved: %v", err))
		png = nil
	}

	id, err := s.repo.CreateEntry(ctx, domain.DiaryEntry{
		DiaryDate:     day,
		Status:        in.Status,
		Good:          in.Good,
		Bad:           in.Bad,
		CoachFeedback: in.CoachFeedback,
		Drawing:       png,
		CreatedAt:     s.now(),
	})
	if err != nil {
		return nil, err
	}
	res.ID = id
	res.HasDrawing = png != nil
	s.log.Info("entry saved", zap.Int64("id", id), zap.String("date", day), zap.Bool("drawing", res.HasDrawing))
	return res, nil
}

// flatten turns the submitted overlay into stored PNG bytes, or nil when
// nothing was drawn.
func (s *EntryService) flatten(ctx context.Context, in SubmitInput) ([]byte, error) {
	overlay, err := decodeOverlay(in)
	if err != nil || overlay == nil {
		return nil, err
	}

	var bg *image.NRGBA
	if s.backgrounds != nil {
		bg = s.backgrounds.Background(ctx).Image
	}
	flat, err := drawing.Composite(bg, overlay)
	if err != nil || flat == nil {
		return nil, err
	}
	return drawing.Encode(flat)
}

func decodeOverlay(in SubmitInput) (*image.NRGBA, error) {
	if in.DrawingDataURL != "" {
		return drawing.DecodeDataURL(in.DrawingDataURL)
	}
	return drawing.ParsePixels(in.OverlayPixels)
}

func (s *EntryService) normalizeDate(v string) (string, error) {
	if v == "" {
		return s.now().In(time.Local).Format(domain.DayLayout), nil
	}
	t, err := time.ParseInLocation(domain.DayLayout, v, time.Local)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, v)
	}
	return t.Format(domain.DayLayout), nil
}

// List returns every entry, newest diary date first.
func (s *EntryService) List(ctx context.Context) ([]domain.DiaryEntry, error) {
	return s.repo.ListEntries(ctx)
}

// Get returns a single entry.
func (s *EntryService) Get(ctx context.Context, id int64) (*domain.DiaryEntry, error) {
	e, err := s.repo.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, ErrEntryNotFound
	}
	return e, nil
}

// Drawing returns the stored PNG for an entry, or nil if it has none.
func (s *EntryService) Drawing(ctx context.Context, id int64) ([]byte, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return e.Drawing, nil
}

// Delete removes an entry. Deleting an unknown id reports false, not an error.
func (s *EntryService) Delete(ctx context.Context, id int64) (bool, error) {
	deleted, err := s.repo.DeleteEntry(ctx, id)
	if err != nil {
		return false, err
	}
	if deleted {
		s.log.Info("entry deleted", zap.Int64("id", id))
	}
	return deleted, nil
}
