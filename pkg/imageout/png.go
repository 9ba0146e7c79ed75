// Package imageout implements spec.md §6's output-image external
// collaborator: gamma-encode and quantize the linear sRGB pixels
// film.Develop produces, then write an 8-bit PNG, the same
// os.Create+png.Encode sequence the teacher's root main.go uses in
// saveImageToFile.
package imageout

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"github.com/df07/spectral-tracer/pkg/core"
	"github.com/df07/spectral-tracer/pkg/spectrum"
)

// Encode gamma-encodes and 8-bit-quantizes linear sRGB pixels (as
// produced by film.Develop) into an image.RGBA ready for png.Encode.
func Encode(width, height int, pixels []core.Vec3) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			p := pixels[y*width+x]
			img.SetRGBA(x, y, color.RGBA{
				R: quantize(p.X),
				G: quantize(p.Y),
				B: quantize(p.Z),
				A: 255,
			})
		}
	}
	return img
}

func quantize(linear float64) uint8 {
	if math.IsNaN(linear) {
		return 0
	}
	c := clamp01(linear)
	v := math.Round(spectrum.GammaEncodeSRGB(c) * 255)
	return uint8(clamp01(v / 255) * 255)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Write gamma-encodes, quantizes and PNG-writes linear sRGB pixels to
// path, creating any missing parent directory the way the teacher's
// saveImageToFile does before its os.Create call.
func Write(path string, width, height int, pixels []core.Vec3) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("imageout: creating directory %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("imageout: creating %s: %w", path, err)
	}
	defer f.Close()

	img := Encode(width, height, pixels)
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("imageout: encoding %s: %w", path, err)
	}
	return nil
}
