package app

import (
	"context"
	"image"
	"sync"

	"trainingdiary/internal/drawing"
)

// CanvasInfo describes the drawing surface offered by the page.
type CanvasInfo struct {
	Width         int  `json:"width"`
	Height        int  `json:"height"`
	HasBackground bool `json:"hasBackground"`
}

// CanvasService prepares the background the page draws on.
type CanvasService struct {
	loader *drawing.Loader
	source string

	mu      sync.Mutex
	encoded []byte
	from    *image.NRGBA
}

// NewCanvasService creates a CanvasService loading source through loader.
func NewCanvasService(loader *drawing.Loader, source string) *CanvasService {
	return &CanvasService{loader: loader, source: source}
}

// Background returns the prepared background; it implements BackgroundProvider.
func (s *CanvasService) Background(ctx context.Context) drawing.Background {
	return s.loader.Load(ctx, s.source)
}

// Canvas returns the canvas size and whether a background is available.
func (s *CanvasService) Canvas(ctx context.Context) CanvasInfo {
	bg := s.Background(ctx)
	return CanvasInfo{Width: bg.Width, Height: bg.Height, HasBackground: bg.Present()}
}

// BackgroundPNG returns the encoded background, or nil when there is none.
func (s *CanvasService) BackgroundPNG(ctx context.Context) ([]byte, error) {
	bg := s.Background(ctx)
	if !bg.Present() {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.from == bg.Image {
		return s.encoded, nil
	}
	b, err := drawing.Encode(bg.Image)
	if err != nil {
		return nil, err
	}
	s.encoded, s.from = b, bg.Image
	return b, nil
}
