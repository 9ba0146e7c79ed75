// Package spectrum implements spec.md's component A (pooled spectral
// light bundles) and component L (the wavelength sampler): a fixed-width
// per-wavelength radiance representation, a per-thread free-list pool
// that backs every spectral temporary inside one tile's work, and the
// stratified wavelength bundle drawn once per primary ray.
package spectrum

import "github.com/df07/spectral-tracer/pkg/core"

// Bundle is the ordered set of wavelengths (nm) shared by every light
// value computed for one camera sample. Bundle[0] is the hero
// wavelength used for single-valued decisions such as refraction
// direction.
type Bundle []float64

// Hero returns the bundle's first wavelength.
func (b Bundle) Hero() float64 { return b[0] }

// Len returns the bin count.
func (b Bundle) Len() int { return len(b) }

// DefaultLow and DefaultHigh bound the visible span spec.md §3 names as
// the default (380-780nm).
const (
	DefaultLow  = 380.0
	DefaultHigh = 780.0
)

// SampleBundle draws a stratified wavelength bundle of n bins over
// [lo, hi), the scheme spec.md §4.L calls "stratified bundle sampling".
// All bundles drawn for the same camera sample must come from the same
// call so that the "zero interference between bins" invariant holds.
func SampleBundle(rng *core.RNG, n int, lo, hi float64) Bundle {
	offsets := core.Stratified1D(n, rng)
	b := make(Bundle, n)
	span := hi - lo
	for i, o := range offsets {
		b[i] = lo + o*span
	}
	return b
}

// BinIndex maps a wavelength to its bin within a bundle spanning
// [lo, hi) with n bins, the formula spec.md §4.G's film.expose uses:
// floor((lambda - lo) * n / (hi - lo)).
func BinIndex(wavelength, lo, hi float64, n int) int {
	idx := int((wavelength - lo) * float64(n) / (hi - lo))
	if idx < 0 {
		return 0
	}
	if idx >= n {
		return n - 1
	}
	return idx
}

// RepresentativeWavelength returns the center wavelength of bin i within
// [lo, hi) split into n bins — the inverse of BinIndex used by testable
// property 5 (wavelength -> bin -> representative wavelength -> bin is
// idempotent).
func RepresentativeWavelength(bin int, lo, hi float64, n int) float64 {
	span := hi - lo
	binWidth := span / float64(n)
	return lo + (float64(bin)+0.5)*binWidth
}
