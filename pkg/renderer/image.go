package renderer

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"
)

// ScaleImage returns img enlarged scale times with nearest-neighbour
// sampling, keeping single pixels crisp. scale <= 1 returns img unchanged.
func ScaleImage(img image.Image, scale int) image.Image {
	if scale <= 1 {
		return img
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// EncodePNG writes img as PNG, scaled by scale
func EncodePNG(w io.Writer, img image.Image, scale int) error {
	if err := png.Encode(w, ScaleImage(img, scale)); err != nil {
		return fmt.Errorf("renderer: encode png: %w", err)
	}
	return nil
}

// SavePNG writes img to path as PNG, creating parent directories
func SavePNG(img image.Image, path string, scale int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("renderer: create output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("renderer: create %s: %w", path, err)
	}
	if err := EncodePNG(f, img, scale); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
