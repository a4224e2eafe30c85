package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"testing"
	"time"

	"trainingdiary/internal/app"
	"trainingdiary/internal/domain"
	"trainingdiary/internal/drawing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type mockEntryRepo struct {
	createFn func(ctx context.Context, e domain.DiaryEntry) (int64, error)
	listFn   func(ctx context.Context) ([]domain.DiaryEntry, error)
	getFn    func(ctx context.Context, id int64) (*domain.DiaryEntry, error)
	deleteFn func(ctx context.Context, id int64) (bool, error)
}

func (m *mockEntryRepo) Init(ctx context.Context) error { return nil }

func (m *mockEntryRepo) CreateEntry(ctx context.Context, e domain.DiaryEntry) (int64, error) {
	if m.createFn != nil {
		return m.createFn(ctx, e)
	}
	return 1, nil
}

func (m *mockEntryRepo) ListEntries(ctx context.Context) ([]domain.DiaryEntry, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockEntryRepo) GetEntry(ctx context.Context, id int64) (*domain.DiaryEntry, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, nil
}

func (m *mockEntryRepo) DeleteEntry(ctx context.Context, id int64) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return false, nil
}

type stubBackground struct {
	bg drawing.Background
}

func (s stubBackground) Background(context.Context) drawing.Background { return s.bg }

func pitch(w, h int) drawing.Background {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+1], img.Pix[i+3] = 160, 255
	}
	return drawing.Background{Image: img, Width: w, Height: h}
}

func strokeDataURL(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	img.SetNRGBA(1, 1, color.NRGBA{R: 255, A: 255})
	b, err := drawing.Encode(img)
	if err != nil {
		t.Fatal(err)
	}
	return drawing.DataURL(b)
}

func TestSubmit_Validation(t *testing.T) {
	svc := app.NewEntryService(&mockEntryRepo{
		createFn: func(context.Context, domain.DiaryEntry) (int64, error) {
			t.Error("repository should not be called")
			return 0, nil
		},
	}, nil, nil)

	tests := []struct {
		name    string
		in      app.SubmitInput
		wantErr error
	}{
		{"missing status", app.SubmitInput{Date: "2024-05-01"}, app.ErrInvalidStatus},
		{"unknown status", app.SubmitInput{Date: "2024-05-01", Status: "meh"}, app.ErrInvalidStatus},
		{"bad date", app.SubmitInput{Date: "05/01/2024", Status: domain.StatusOkay}, app.ErrInvalidDate},
		{"impossible date", app.SubmitInput{Date: "2024-02-30", Status: domain.StatusOkay}, app.ErrInvalidDate},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Submit(context.Background(), tc.in)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestSubmit_NoDrawing(t *testing.T) {
	var saved domain.DiaryEntry
	repo := &mockEntryRepo{
		createFn: func(_ context.Context, e domain.DiaryEntry) (int64, error) {
			saved = e
			return 7, nil
		},
	}
	svc := app.NewEntryService(repo, stubBackground{pitch(10, 10)}, nil)

	res, err := svc.Submit(context.Background(), app.SubmitInput{
		Date: "2024-05-01", Status: domain.StatusOkay, Good: "패스", Bad: "슈팅",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ID != 7 || res.HasDrawing || len(res.Warnings) != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if saved.Drawing != nil {
		t.Error("expected NULL drawing")
	}
	if saved.DiaryDate != "2024-05-01" || saved.Good != "패스" || saved.Bad != "슈팅" || saved.Status != domain.StatusOkay {
		t.Errorf("unexpected saved entry: %+v", saved)
	}
	if saved.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
}

func TestSubmit_DefaultsToToday(t *testing.T) {
	var saved domain.DiaryEntry
	svc := app.NewEntryService(&mockEntryRepo{
		createFn: func(_ context.Context, e domain.DiaryEntry) (int64, error) { saved = e; return 1, nil },
	}, nil, nil)

	before := time.Now().Format(domain.DayLayout)
	res, err := svc.Submit(context.Background(), app.SubmitInput{Status: domain.StatusGreat})
	after := time.Now().Format(domain.DayLayout)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if saved.DiaryDate != before && saved.DiaryDate != after {
		t.Errorf("DiaryDate = %s, want today", saved.DiaryDate)
	}
	if res.Date != saved.DiaryDate {
		t.Errorf("result date %s != saved date %s", res.Date, saved.DiaryDate)
	}
}

func TestSubmit_CompositesDrawing(t *testing.T) {
	var saved domain.DiaryEntry
	svc := app.NewEntryService(&mockEntryRepo{
		createFn: func(_ context.Context, e domain.DiaryEntry) (int64, error) { saved = e; return 3, nil },
	}, stubBackground{pitch(8, 6)}, nil)

	res, err := svc.Submit(context.Background(), app.SubmitInput{
		Date: "2024-05-03", Status: domain.StatusGreat, DrawingDataURL: strokeDataURL(t, 8, 6),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.HasDrawing {
		t.Fatalf("expected drawing, warnings: %v", res.Warnings)
	}

	img, err := drawing.Decode(saved.Drawing)
	if err != nil {
		t.Fatalf("stored drawing is not decodable: %v", err)
	}
	if img.Bounds().Dx() != 8 || img.Bounds().Dy() != 6 {
		t.Errorf("drawing size = %v", img.Bounds())
	}
	if got := img.NRGBAAt(1, 1); got.R != 255 || got.G != 0 {
		t.Errorf("stroke pixel = %v; want red", got)
	}
	if got := img.NRGBAAt(5, 5); got.G != 160 || got.A != 255 {
		t.Errorf("background pixel = %v; want pitch green", got)
	}
}

func TestSubmit_PixelOverlayWithoutBackground(t *testing.T) {
	var saved domain.DiaryEntry
	svc := app.NewEntryService(&mockEntryRepo{
		createFn: func(_ context.Context, e domain.DiaryEntry) (int64, error) { saved = e; return 1, nil },
	}, stubBackground{drawing.Background{Width: 600, Height: 400}}, nil)

	res, err := svc.Submit(context.Background(), app.SubmitInput{
		Date:          "2024-05-03",
		Status:        domain.StatusHard,
		OverlayPixels: json.RawMessage(`[[[0,0,255,255],[0,0,0,0]]]`),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.HasDrawing || saved.Drawing == nil {
		t.Fatal("expected overlay to be stored alone")
	}
}

func TestSubmit_BlankCanvasStoresNull(t *testing.T) {
	var saved domain.DiaryEntry
	svc := app.NewEntryService(&mockEntryRepo{
		createFn: func(_ context.Context, e domain.DiaryEntry) (int64, error) { saved = e; return 1, nil },
	}, stubBackground{pitch(4, 4)}, nil)

	blank, _ := drawing.Encode(image.NewNRGBA(image.Rect(0, 0, 4, 4)))
	res, err := svc.Submit(context.Background(), app.SubmitInput{
		Date: "2024-05-03", Status: domain.StatusOkay, DrawingDataURL: drawing.DataURL(blank),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.HasDrawing || saved.Drawing != nil || len(res.Warnings) != 0 {
		t.Fatalf("expected silent NULL drawing, got %+v", res)
	}
}

func TestSubmit_MalformedDrawingStillSaves(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	saved := false
	svc := app.NewEntryService(&mockEntryRepo{
		createFn: func(_ context.Context, e domain.DiaryEntry) (int64, error) {
			saved = true
			if e.Drawing != nil {
				t.Error("expected NULL drawing")
			}
			return 9, nil
		},
	}, stubBackground{pitch(4, 4)}, zap.New(core))

	res, err := svc.Submit(context.Background(), app.SubmitInput{
		Date: "2024-05-03", Status: domain.StatusBad, DrawingDataURL: "data:image/png;base64,????",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !saved || res.ID != 9 {
		t.Fatal("expected entry to be saved")
	}
	if len(res.Warnings) != 1 {
		t.Errorf("expected 1 warning, got %v", res.Warnings)
	}
	if logs.FilterMessage("drawing dropped").Len() != 1 {
		t.Error("expected drawing warning to be logged")
	}
}

func TestSubmit_MalformedPixelsStillSave(t *testing.T) {
	tests := []struct {
		name   string
		pixels string
	}{
		{"channel above 255", `[[[300,0,0,255]]]`},
		{"three channels", `[[[255,0,0],[0,255,0]]]`},
		{"not numbers", `[[["red","green","blue","alpha"]]]`},
		{"ragged rows", `[[[255,0,0,255]],[]]`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var saved *domain.DiaryEntry
			svc := app.NewEntryService(&mockEntryRepo{
				createFn: func(_ context.Context, e domain.DiaryEntry) (int64, error) { saved = &e; return 3, nil },
			}, stubBackground{pitch(4, 4)}, nil)

			res, err := svc.Submit(context.Background(), app.SubmitInput{
				Date: "2024-05-04", Status: domain.StatusOkay, OverlayPixels: json.RawMessage(tc.pixels),
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if saved == nil || saved.Drawing != nil {
				t.Fatal("expected entry saved with NULL drawing")
			}
			if res.HasDrawing || len(res.Warnings) != 1 {
				t.Fatalf("expected one warning, got %+v", res)
			}
		})
	}
}

func TestSubmit_RepoError(t *testing.T) {
	svc := app.NewEntryService(&mockEntryRepo{
		createFn: func(context.Context, domain.DiaryEntry) (int64, error) { return 0, errors.New("db down") },
	}, nil, nil)
	if _, err := svc.Submit(context.Background(), app.SubmitInput{Status: domain.StatusOkay}); err == nil {
		t.Fatal("expected error from repo")
	}
}

func TestGetAndDrawing(t *testing.T) {
	repo := &mockEntryRepo{
		getFn: func(_ context.Context, id int64) (*domain.DiaryEntry, error) {
			if id == 1 {
				return &domain.DiaryEntry{ID: 1, Drawing: []byte{1}}, nil
			}
			return nil, nil
		},
	}
	svc := app.NewEntryService(repo, nil, nil)

	b, err := svc.Drawing(context.Background(), 1)
	if err != nil || len(b) != 1 {
		t.Fatalf("Drawing = (%v, %v)", b, err)
	}
	if _, err := svc.Get(context.Background(), 2); !errors.Is(err, app.ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}
	if _, err := svc.Drawing(context.Background(), 2); !errors.Is(err, app.ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	repo := &mockEntryRepo{
		deleteFn: func(_ context.Context, id int64) (bool, error) { return id == 1, nil },
	}
	svc := app.NewEntryService(repo, nil, nil)

	if ok, err := svc.Delete(context.Background(), 1); err != nil || !ok {
		t.Fatalf("Delete(1) = (%v, %v)", ok, err)
	}
	if ok, err := svc.Delete(context.Background(), 2); err != nil || ok {
		t.Fatalf("Delete(2) = (%v, %v); want (false, nil)", ok, err)
	}
}

func TestList_Error(t *testing.T) {
	svc := app.NewEntryService(&mockEntryRepo{
		listFn: func(context.Context) ([]domain.DiaryEntry, error) { return nil, errors.New("db down") },
	}, nil, nil)
	if _, err := svc.List(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
