package drawing

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"math"

	"golang.org/x/image/draw"
)

// ErrMalformedOverlay is returned for overlay data that cannot be
// interpreted as an image.
var ErrMalformedOverlay = errors.New("malformed overlay")

// MaxOverlaySide bounds either side of a submitted overlay.
const MaxOverlaySide = 4 * DefaultMaxWidth

// Composite flattens overlay onto bg using "over" blending and returns a new
// image; neither input is modified.
//
// A nil or fully transparent overlay yields nil: there is nothing to store.
// With a nil bg the overlay alone is returned. An overlay whose size differs
// from bg is scaled to bg first.
func Composite(bg, overlay *image.NRGBA) (*image.NRGBA, error) {
	if overlay == nil {
		return nil, nil
	}
	if err := checkNRGBA(overlay); err != nil {
		return nil, err
	}
	if Blank(overlay) {
		return nil, nil
	}
	if bg == nil {
		return clone(overlay), nil
	}
	if err := checkNRGBA(bg); err != nil {
		return nil, fmt.Errorf("background: %w", err)
	}

	out := clone(bg)
	src := overlay
	if !sameSize(overlay.Bounds(), out.Bounds()) {
		scaled := image.NewNRGBA(out.Bounds())
		draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), overlay, overlay.Bounds(), draw.Src, nil)
		src = scaled
	}
	draw.Draw(out, out.Bounds(), src, src.Bounds().Min, draw.Over)
	return out, nil
}

// Blank reports whether every pixel of img is fully transparent.
func Blank(img *image.NRGBA) bool {
	b := img.Bounds()
	for y := 0; y < b.Dy(); y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+4*b.Dx()]
		for i := 3; i < len(row); i += 4 {
			if row[i] != 0 {
				return false
			}
		}
	}
	return true
}

// ParsePixels decodes a JSON row-major array of RGBA pixels, each a
// four-element array of integers in 0-255. Empty input or null yields nil,
// nil. Anything else that is not such an array is ErrMalformedOverlay.
func ParsePixels(raw []byte) (*image.NRGBA, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	var rows [][][]float64
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOverlay, err)
	}
	return OverlayFromPixels(rows)
}

// OverlayFromPixels builds an overlay from a row-major array of
// non-premultiplied RGBA pixels. Every row must have the same, non-zero
// length and every pixel exactly four integer channels in 0-255.
func OverlayFromPixels(rows [][][]float64) (*image.NRGBA, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: no pixels", ErrMalformedOverlay)
	}
	w, h := len(rows[0]), len(rows)
	if w > MaxOverlaySide || h > MaxOverlaySide {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d", ErrMalformedOverlay, w, h, MaxOverlaySide)
	}
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y, row := range rows {
		if len(row) != w {
			return nil, fmt.Errorf("%w: row %d has %d pixels, want %d", ErrMalformedOverlay, y, len(row), w)
		}
		off := y * img.Stride
		for x, px := range row {
			if len(px) != 4 {
				return nil, fmt.Errorf("%w: pixel (%d,%d) has %d channels, want 4", ErrMalformedOverlay, x, y, len(px))
			}
			for c, v := range px {
				if v < 0 || v > 255 || v != math.Trunc(v) {
					return nil, fmt.Errorf("%w: pixel (%d,%d) channel %d is %v", ErrMalformedOverlay, x, y, c, v)
				}
				img.Pix[off+4*x+c] = uint8(v)
			}
		}
	}
	return img, nil
}

func checkNRGBA(img *image.NRGBA) error {
	b := img.Bounds()
	if b.Empty() {
		return fmt.Errorf("%w: empty bounds", ErrMalformedOverlay)
	}
	if img.Stride < 4*b.Dx() || len(img.Pix) < img.Stride*(b.Dy()-1)+4*b.Dx() {
		return fmt.Errorf("%w: pixel buffer too short for %dx%d", ErrMalformedOverlay, b.Dx(), b.Dy())
	}
	return nil
}

func clone(src image.Image) *image.NRGBA {
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

func sameSize(a, b image.Rectangle) bool {
	return a.Dx() == b.Dx() && a.Dy() == b.Dy()
}
