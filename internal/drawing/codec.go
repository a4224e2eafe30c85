package drawing

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"
)

const dataURLPrefix = "data:image/png;base64,"

// ErrNoImage is returned when encoding a nil image.
var ErrNoImage = errors.New("no image")

// A fixed compression level keeps Encode deterministic, so re-encoding a
// decoded payload reproduces the stored bytes.
var pngEncoder = png.Encoder{CompressionLevel: png.BestCompression}

// Encode serializes img as PNG.
func Encode(img image.Image) ([]byte, error) {
	if img == nil {
		return nil, ErrNoImage
	}
	var buf bytes.Buffer
	if err := pngEncoder.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses a PNG payload into NRGBA. For any payload produced by
// Encode, Encode(Decode(b)) returns b unchanged.
func Decode(b []byte) (*image.NRGBA, error) {
	img, err := png.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("decode png: %w", err)
	}
	if n, ok := img.(*image.NRGBA); ok {
		return n, nil
	}
	return clone(img), nil
}

// DataURL wraps a PNG payload as a base64 data URL for direct display.
func DataURL(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return dataURLPrefix + base64.StdEncoding.EncodeToString(b)
}

// DecodeDataURL parses a canvas export of the form
// "data:image/<type>;base64,<payload>". An empty string yields nil, nil.
// Images with a side over MaxOverlaySide are rejected before decoding.
func DecodeDataURL(s string) (*image.NRGBA, error) {
	if s == "" {
		return nil, nil
	}
	header, payload, ok := strings.Cut(s, ",")
	if !ok || !strings.HasPrefix(header, "data:image/") || !strings.HasSuffix(header, ";base64") {
		return nil, fmt.Errorf("%w: not a base64 image data URL", ErrMalformedOverlay)
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOverlay, err)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOverlay, err)
	}
	if cfg.Width > MaxOverlaySide || cfg.Height > MaxOverlaySide {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d", ErrMalformedOverlay, cfg.Width, cfg.Height, MaxOverlaySide)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOverlay, err)
	}
	if n, ok := img.(*image.NRGBA); ok {
		return n, nil
	}
	return clone(img), nil
}
