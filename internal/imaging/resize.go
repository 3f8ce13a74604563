// Package imaging holds the small raster operations the asset stage needs.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
)

// Resize scales src (PNG or JPEG) to width x height using Catmull-Rom
// interpolation and re-encodes it as PNG.
func Resize(src []byte, width, height int) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("imaging: invalid target size %dx%d", width, height)
	}

	img, format, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("imaging: decode (%s): %w", format, err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("imaging: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// Fit downscales src so neither side exceeds maxDim, preserving aspect
// ratio. Images already within bounds are returned unchanged.
func Fit(src []byte, maxDim int) ([]byte, error) {
	w, h, err := Dimensions(src)
	if err != nil {
		return nil, err
	}
	if w <= maxDim && h <= maxDim {
		return src, nil
	}

	scale := float64(maxDim) / float64(max(w, h))
	width := max(1, int(float64(w)*scale))
	height := max(1, int(float64(h)*scale))
	return Resize(src, width, height)
}

// Dimensions reports the pixel size of an encoded image.
func Dimensions(src []byte) (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(src))
	if err != nil {
		return 0, 0, fmt.Errorf("imaging: decode config: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}
