// Package film implements spec.md §4.G: a tiled per-wavelength-bin
// pixel accumulator, tile work distribution ordered by distance from
// the image center, and a bounded per-tile overflow buffer so a
// bidirectional connection that lands outside its own tile's pixel
// range doesn't need a lock on every sample.
//
// Grounded on original_source/pyrite/src/film.rs (Film/FilmTile/Pixel/
// LimitedMap) for the accumulation and overflow-buffering scheme, and
// the teacher's pkg/renderer/splat_queue.go for the Go-idiomatic style
// of a bounded cross-tile splat buffer protected by one mutex.
package film

import (
	"math"
	"sort"
	"sync"

	"github.com/df07/spectral-tracer/pkg/core"
	"github.com/df07/spectral-tracer/pkg/spectrum"
)

// bin accumulates (sum, weight) for one wavelength bin of one pixel, so
// a pixel's final value is sum/weight rather than a plain running
// average — later samples (e.g. a noisier BDPT light-subpath
// connection) don't need equal weight to a cheap primary hit.
type bin struct {
	sum, weight float64
}

// Film is the full-image accumulator: width*height pixels, each with
// Bins wavelength bins spanning [Lo, Hi).
type Film struct {
	Width, Height int
	Bins          int
	Lo, Hi        float64

	pixels []bin // row-major pixel-major: pixels[(y*Width+x)*Bins+bin]
	mu     sync.Mutex
}

// New creates a blank film.
func New(width, height, bins int, lo, hi float64) *Film {
	return &Film{
		Width: width, Height: height, Bins: bins, Lo: lo, Hi: hi,
		pixels: make([]bin, width*height*bins),
	}
}

func (f *Film) index(x, y, b int) int { return (y*f.Width+x)*f.Bins + b }

// exposeAt adds weight*brightness into the pixel/bin the wavelength
// maps to. Not safe for concurrent use on the same pixel; callers must
// hold the film lock or own exclusive access to the pixel range.
func (f *Film) exposeAt(x, y int, wavelength, brightness, weight float64) {
	if x < 0 || x >= f.Width || y < 0 || y >= f.Height || weight == 0 {
		return
	}
	b := spectrum.BinIndex(wavelength, f.Lo, f.Hi, f.Bins)
	idx := f.index(x, y, b)
	f.pixels[idx].sum += brightness * weight
	f.pixels[idx].weight += weight
}

// exposeLocked is exposeAt taken under the film-wide lock, used for
// overflow samples landing outside their originating tile.
func (f *Film) exposeLocked(x, y int, wavelength, brightness, weight float64) {
	f.mu.Lock()
	f.exposeAt(x, y, wavelength, brightness, weight)
	f.mu.Unlock()
}

// DevelopedPixel returns pixel (x,y)'s per-bin values (sum/weight,
// zero for a never-exposed bin) and the representative wavelength of
// each bin, ready for spectral-to-RGB integration.
func (f *Film) DevelopedPixel(x, y int) (values []float64, wavelengths []float64) {
	values = make([]float64, f.Bins)
	wavelengths = make([]float64, f.Bins)
	for b := 0; b < f.Bins; b++ {
		p := f.pixels[f.index(x, y, b)]
		if p.weight > 0 {
			values[b] = p.sum / p.weight
		}
		wavelengths[b] = spectrum.RepresentativeWavelength(b, f.Lo, f.Hi, f.Bins)
	}
	return values, wavelengths
}

// ExposeDeveloped overwrites pixel (x,y) bin b's value directly rather
// than accumulating a weighted sample, used by the SPPM strategy whose
// per-pixel radiance estimate is already fully computed (photon density
// plus averaged direct lighting) by the time it's written, not a
// running average of independent samples.
func (f *Film) ExposeDeveloped(x, y int, wavelength, value float64) {
	if x < 0 || x >= f.Width || y < 0 || y >= f.Height {
		return
	}
	b := spectrum.BinIndex(wavelength, f.Lo, f.Hi, f.Bins)
	idx := f.index(x, y, b)
	f.pixels[idx].sum = value
	f.pixels[idx].weight = 1
}

// Develop integrates every pixel's per-bin spectral values against the
// CIE 1931 matching functions into CIE XYZ, scales by 1/whitePoint
// (spec.md §6's project-file "white" exposure control; whitePoint <= 0
// disables scaling), and converts to linear sRGB — everything short of
// gamma encoding and 8-bit quantization, which pkg/imageout applies on
// its way to a PNG.
func (f *Film) Develop(whitePoint float64) []core.Vec3 {
	norm := spectrum.CIEYNormalization(f.Lo, f.Hi)
	binWidth := (f.Hi - f.Lo) / float64(f.Bins)
	out := make([]core.Vec3, f.Width*f.Height)
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			values, wavelengths := f.DevelopedPixel(x, y)
			var X, Y, Z float64
			for b, v := range values {
				wl := wavelengths[b]
				X += v * spectrum.CIEX(wl) * binWidth
				Y += v * spectrum.CIEY(wl) * binWidth
				Z += v * spectrum.CIEZ(wl) * binWidth
			}
			if norm > 0 {
				X, Y, Z = X/norm, Y/norm, Z/norm
			}
			if whitePoint > 0 {
				X, Y, Z = X/whitePoint, Y/whitePoint, Z/whitePoint
			}
			r, g, b := spectrum.XYZToSRGBLinear(X, Y, Z)
			out[y*f.Width+x] = core.NewVec3(r, g, b)
		}
	}
	return out
}

// Sample is one spectral exposure: a single wavelength's brightness
// and the sample weight (1/pdf-style importance weight) it carries.
type Sample struct {
	Wavelength float64
	Brightness float64
	Weight     float64
}

const overflowCapacity = 4096

type overflowEntry struct {
	x, y   int
	sample Sample
}

// Tile is a rectangular, exclusively-owned region of the film plus a
// bounded overflow buffer for splats (bidirectional camera
// connections) that land on pixels outside that rectangle. A worker
// writes directly into its own tile's pixels without locking and only
// takes the film-wide lock when the overflow buffer must flush.
type Tile struct {
	film           *Film
	X0, Y0, X1, Y1 int
	overflow       []overflowEntry
}

// Bounds returns the tile's pixel rectangle [X0,X1)x[Y0,Y1).
func (t *Tile) Bounds() (x0, y0, x1, y1 int) { return t.X0, t.Y0, t.X1, t.Y1 }

// PixelPosition draws a jittered continuous position inside pixel
// (x,y) for one camera sample, spec.md §4.I's "draw ... a position
// inside the pixel".
func (t *Tile) PixelPosition(x, y int, rng *core.RNG) core.Vec2 {
	return core.NewVec2(float64(x)+rng.Float64(), float64(y)+rng.Float64())
}

// ScreenTarget maps a continuous film pixel position to the camera's
// [-1,1]x[-1,1] (y up) screen space, centered on the image and scaled
// by the longer image dimension so non-square images don't stretch.
func (t *Tile) ScreenTarget(pos core.Vec2) core.Vec2 {
	half := float64(max(t.film.Width, t.film.Height)) / 2
	cx := float64(t.film.Width) / 2
	cy := float64(t.film.Height) / 2
	return core.NewVec2((pos.X-cx)/half, (cy-pos.Y)/half)
}

// FromScreen maps a camera screen-space target in [-1,1]x[-1,1] (y up)
// back to a continuous film pixel position, the inverse of
// ScreenTarget. A bidirectional integrator uses this to turn a light
// subpath vertex's camera-visible screen projection into a position it
// can hand to Expose.
func (t *Tile) FromScreen(target core.Vec2) core.Vec2 {
	half := float64(max(t.film.Width, t.film.Height)) / 2
	cx := float64(t.film.Width) / 2
	cy := float64(t.film.Height) / 2
	return core.NewVec2(target.X*half+cx, cy-target.Y*half)
}

// Expose records one spectral sample at continuous film position pos.
// If pos falls inside the tile's own rectangle the write goes straight
// to the film with no locking; otherwise it's buffered in the tile's
// overflow list, flushed under the film's lock once full or when the
// tile finishes.
func (t *Tile) Expose(pos core.Vec2, s Sample) {
	x, y := int(math.Floor(pos.X)), int(math.Floor(pos.Y))
	if x >= t.X0 && x < t.X1 && y >= t.Y0 && y < t.Y1 {
		t.film.exposeAt(x, y, s.Wavelength, s.Brightness, s.Weight)
		return
	}
	t.overflow = append(t.overflow, overflowEntry{x: x, y: y, sample: s})
	if len(t.overflow) >= overflowCapacity {
		t.flushOverflow()
	}
}

func (t *Tile) flushOverflow() {
	if len(t.overflow) == 0 {
		return
	}
	t.film.mu.Lock()
	for _, e := range t.overflow {
		t.film.exposeAt(e.x, e.y, e.sample.Wavelength, e.sample.Brightness, e.sample.Weight)
	}
	t.film.mu.Unlock()
	t.overflow = t.overflow[:0]
}

// Finish flushes any remaining overflow samples. Callers must call
// this once a tile's work is complete (the renderer driver does this
// for every tile after its worker returns).
func (t *Tile) Finish() { t.flushOverflow() }

// Tiles partitions the film into tileSize x tileSize tiles (the last
// row/column may be smaller) ordered by distance of their center from
// the image center, pyrite's film.rs OrderTile behavior: center-out
// ordering lets a progressive preview fill in from the middle first.
func (f *Film) Tiles(tileSize int) []*Tile {
	var tiles []*Tile
	for y := 0; y < f.Height; y += tileSize {
		for x := 0; x < f.Width; x += tileSize {
			x1 := min(x+tileSize, f.Width)
			y1 := min(y+tileSize, f.Height)
			tiles = append(tiles, &Tile{film: f, X0: x, Y0: y, X1: x1, Y1: y1})
		}
	}
	cx, cy := float64(f.Width)/2, float64(f.Height)/2
	sort.Slice(tiles, func(i, j int) bool {
		return distToCenter(tiles[i], cx, cy) < distToCenter(tiles[j], cx, cy)
	})
	return tiles
}

func distToCenter(t *Tile, cx, cy float64) float64 {
	x := float64(t.X0+t.X1) / 2
	y := float64(t.Y0+t.Y1) / 2
	dx, dy := x-cx, y-cy
	return dx*dx + dy*dy
}
