package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"

	// Registered decoders for uploaded floor plans
	_ "image/jpeg"

	"golang.org/x/image/draw"
)

// DefaultMaxPixels caps width*height of an accepted image (40 MP)
const DefaultMaxPixels int64 = 40_000_000

var (
	// ErrNoImage is returned when there is no base image to render
	ErrNoImage       = errors.New("no image")
	// ErrImageTooLarge is returned when the header declares more pixels than allowed
	ErrImageTooLarge = errors.New("image dimensions too large")
)

// Validate checks that data holds a decodable image of at most maxPixels
// pixels and returns its format. Only the header is read. A non-positive
// maxPixels means DefaultMaxPixels.
func Validate(data []byte, maxPixels int64) (string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return "", fmt.Errorf("image has zero size")
	}
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxPixels {
		return "", fmt.Errorf("%w (%dx%d)", ErrImageTooLarge, cfg.Width, cfg.Height)
	}
	return format, nil
}

// Decode converts uploaded bytes into an RGBA image
func Decode(data []byte) (*image.RGBA, error) {
	if len(data) == 0 {
		return nil, ErrNoImage
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return toRGBA(src), nil
}

// Composite scales overlay to base's pixel size and alpha-composites it on
// top. A nil overlay returns base unchanged.
func Composite(base, overlay []byte) (*image.RGBA, error) {
	dst, err := Decode(base)
	if err != nil {
		return nil, err
	}
	if len(overlay) == 0 {
		return dst, nil
	}
	top, err := Decode(overlay)
	if err != nil {
		return nil, fmt.Errorf("overlay: %w", err)
	}
	return Over(dst, top), nil
}

// Over draws top over base after resizing top to base's bounds
func Over(base, top *image.RGBA) *image.RGBA {
	bounds := base.Bounds()
	scaled := image.NewRGBA(bounds)
	draw.CatmullRom.Scale(scaled, bounds, top, top.Bounds(), draw.Src, nil)

	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, base, bounds.Min, draw.Src)
	draw.Draw(out, bounds, scaled, bounds.Min, draw.Over)
	return out
}

// EncodePNG renders img as PNG bytes
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func toRGBA(src image.Image) *image.RGBA {
	if rgba, ok := src.(*image.RGBA); ok {
		return rgba
	}
	b := src.Bounds()
	rgba := image.NewRGBA(b)
	draw.Draw(rgba, b, src, b.Min, draw.Src)
	return rgba
}
