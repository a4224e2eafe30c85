// Package drawing prepares the canvas background and flattens freehand
// overlays onto it.
package drawing

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg" // background formats
	_ "image/png"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/singleflight"
)

const (
	// FallbackWidth and FallbackHeight size the canvas when no background
	// could be loaded.
	FallbackWidth  = 600
	FallbackHeight = 400

	// DefaultMaxWidth caps the largest side of a loaded background.
	DefaultMaxWidth = 700

	defaultFetchTimeout = 10 * time.Second
	maxBackgroundBytes  = 20 << 20
	maxBackgroundSide   = 10000

	// failureTTL is how long a failed source is served as the fallback
	// before it is tried again.
	failureTTL = 30 * time.Second
)

// Background is a prepared canvas background. Image is nil when no
// background is available; Width and Height are always usable canvas sizes.
type Background struct {
	Image  *image.NRGBA
	Width  int
	Height int
}

// Present reports whether a background image was loaded.
func (b Background) Present() bool {
	return b.Image != nil
}

func fallback() Background {
	return Background{Width: FallbackWidth, Height: FallbackHeight}
}

// Loader loads backgrounds from local files or remote URLs. Successful loads
// are kept for the lifetime of the Loader.
type Loader struct {
	client   *http.Client
	maxWidth int
	log      *zap.Logger

	group    singleflight.Group
	mu       sync.Mutex
	cache    map[string]Background
	failures map[string]time.Time
	now      func() time.Time
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithHTTPClient sets the client used for remote backgrounds.
func WithHTTPClient(c *http.Client) LoaderOption {
	return func(l *Loader) { l.client = c }
}

// WithFetchTimeout sets the timeout for remote backgrounds.
func WithFetchTimeout(d time.Duration) LoaderOption {
	return func(l *Loader) { l.client = &http.Client{Timeout: d} }
}

// WithMaxWidth caps the largest side of loaded backgrounds.
func WithMaxWidth(w int) LoaderOption {
	return func(l *Loader) { l.maxWidth = w }
}

// NewLoader creates a Loader. A nil logger discards warnings.
func NewLoader(log *zap.Logger, opts ...LoaderOption) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	l := &Loader{
		client:   &http.Client{Timeout: defaultFetchTimeout},
		maxWidth: DefaultMaxWidth,
		log:      log,
		cache:    make(map[string]Background),
		failures: make(map[string]time.Time),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns the background for source, a local path or an http(s) URL.
// It never fails: any problem yields an empty Background with the fallback
// canvas size and a logged warning. A failed source is not retried for
// failureTTL.
func (l *Loader) Load(ctx context.Context, source string) Background {
	if source == "" {
		return fallback()
	}

	l.mu.Lock()
	bg, ok := l.cache[source]
	failedAt, failed := l.failures[source]
	l.mu.Unlock()
	if ok {
		return bg
	}
	if failed && l.now().Sub(failedAt) < failureTTL {
		return fallback()
	}

	// The load is shared by all waiters and outlives any one request.
	loadCtx := context.WithoutCancel(ctx)
	v, _, _ := l.group.Do(source, func() (any, error) {
		img, err := l.read(loadCtx, source)
		if err != nil {
			l.log.Warn("background unavailable, using blank canvas",
				zap.String("source", source), zap.Error(err))
			l.mu.Lock()
			l.failures[source] = l.now()
			l.mu.Unlock()
			return fallback(), nil
		}
		bg := Background{Image: img, Width: img.Bounds().Dx(), Height: img.Bounds().Dy()}
		l.mu.Lock()
		l.cache[source] = bg
		delete(l.failures, source)
		l.mu.Unlock()
		return bg, nil
	})
	return v.(Background)
}

func (l *Loader) read(ctx context.Context, source string) (*image.NRGBA, error) {
	var (
		rc  io.ReadCloser
		err error
	)
	if isRemote(source) {
		rc, err = l.fetch(ctx, source)
	} else {
		rc, err = os.Open(source)
	}
	if err != nil {
		return nil, err
	}
	defer rc.Close() //nolint:errcheck

	b, err := io.ReadAll(io.LimitReader(rc, maxBackgroundBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read background: %w", err)
	}
	if len(b) > maxBackgroundBytes {
		return nil, fmt.Errorf("background exceeds %d bytes", maxBackgroundBytes)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("decode background: %w", err)
	}
	if cfg.Width > maxBackgroundSide || cfg.Height > maxBackgroundSide {
		return nil, fmt.Errorf("background is %dx%d, larger than %d", cfg.Width, cfg.Height, maxBackgroundSide)
	}
	img, format, err := image.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("decode background: %w", err)
	}
	l.log.Debug("background decoded", zap.String("source", source), zap.String("format", format))
	return Fit(img, l.maxWidth), nil
}

func (l *Loader) fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("fetch background: unexpected status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

func isRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// Fit converts img to NRGBA and scales it down, preserving aspect ratio, so
// that neither side exceeds maxSide. Images already within bounds keep their
// size. A non-positive maxSide disables scaling.
func Fit(img image.Image, maxSide int) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxSide > 0 && (w > maxSide || h > maxSide) {
		if w >= h {
			h = max(1, h*maxSide/w)
			w = maxSide
		} else {
			w = max(1, w*maxSide/h)
			h = maxSide
		}
	}

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
		return dst
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
