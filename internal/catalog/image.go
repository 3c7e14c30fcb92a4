package catalog

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"math"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/odyssey-erp/odyssey-shop/internal/shared"
)

// ImageOptimizer turns an uploaded image into a stored representation.
type ImageOptimizer interface {
	Optimize(r io.Reader) (string, error)
}

// JPEGOptimizer scales images to fit inside a box and re-encodes them as
// JPEG data URIs.
type JPEGOptimizer struct {
	MaxWidth  int
	MaxHeight int
	Quality   int
	// MaxPixels bounds the decoded source size. Zero means DefaultMaxPixels.
	MaxPixels int
}

// DefaultMaxPixels is the largest source image accepted for decoding.
const DefaultMaxPixels = 40_000_000

// DefaultImageOptimizer fits images inside 800x800 at quality 80.
func DefaultImageOptimizer() JPEGOptimizer {
	return JPEGOptimizer{MaxWidth: 800, MaxHeight: 800, Quality: 80, MaxPixels: DefaultMaxPixels}
}

var (
	errBadImage   = shared.NewPublicError(shared.ErrValidation, "Unsupported or corrupt image")
	errImageLarge = shared.NewPublicError(shared.ErrValidation, "Image dimensions are too large")
)

const dataURIPrefix = "data:image/jpeg;base64,"

// Optimize decodes r, resizes it and returns a data URI.
func (o JPEGOptimizer) Optimize(r io.Reader) (string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("catalog: read image: %w", err)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return "", errBadImage
	}
	limit := o.MaxPixels
	if limit <= 0 {
		limit = DefaultMaxPixels
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return "", errBadImage
	}
	if cfg.Width > limit/cfg.Height {
		return "", errImageLarge
	}
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return "", errBadImage
	}

	w, h := fitInside(src.Bounds().Dx(), src.Bounds().Dy(), o.MaxWidth, o.MaxHeight)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: o.Quality}); err != nil {
		return "", fmt.Errorf("catalog: encode image: %w", err)
	}
	return dataURIPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// fitInside scales (w, h) so it fits inside (maxW, maxH) preserving aspect ratio.
func fitInside(w, h, maxW, maxH int) (int, int) {
	if w <= 0 || h <= 0 {
		return 1, 1
	}
	scale := math.Min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	nw := int(math.Round(float64(w) * scale))
	nh := int(math.Round(float64(h) * scale))
	return max(nw, 1), max(nh, 1)
}
