package project

import "sort"

// NamedSpectrum is spec.md §6's named-spectrum external input: a set
// of (wavelength, value) points exposing a get(wavelength) lookup with
// linear interpolation between points and a clamp to zero outside the
// defined range, a much simpler curve representation than the fixed
// closed-form CIE/RGB-response curves pkg/spectrum's rendering kernel
// evaluates internally -- this one is user-authored data, not a
// physical constant.
type NamedSpectrum struct {
	wavelengths []float64
	values      []float64
}

// NewNamedSpectrum builds a NamedSpectrum from (wavelength, value)
// pairs, sorting them by wavelength so Sample can binary-search.
func NewNamedSpectrum(points [][2]float64) *NamedSpectrum {
	s := &NamedSpectrum{wavelengths: make([]float64, len(points)), values: make([]float64, len(points))}
	for i, p := range points {
		s.wavelengths[i] = p[0]
		s.values[i] = p[1]
	}
	idx := make([]int, len(points))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return s.wavelengths[idx[a]] < s.wavelengths[idx[b]] })
	sorted := &NamedSpectrum{wavelengths: make([]float64, len(points)), values: make([]float64, len(points))}
	for i, j := range idx {
		sorted.wavelengths[i] = s.wavelengths[j]
		sorted.values[i] = s.values[j]
	}
	return sorted
}

// Sample returns the linearly interpolated value at wavelength, zero
// outside [min, max] of the defined points.
func (s *NamedSpectrum) Sample(wavelength float64) float64 {
	n := len(s.wavelengths)
	if n == 0 {
		return 0
	}
	if wavelength <= s.wavelengths[0] || wavelength >= s.wavelengths[n-1] {
		if wavelength == s.wavelengths[0] {
			return s.values[0]
		}
		if wavelength == s.wavelengths[n-1] {
			return s.values[n-1]
		}
		return 0
	}
	i := sort.SearchFloat64s(s.wavelengths, wavelength)
	if i < n && s.wavelengths[i] == wavelength {
		return s.values[i]
	}
	lo, hi := i-1, i
	t := (wavelength - s.wavelengths[lo]) / (s.wavelengths[hi] - s.wavelengths[lo])
	return s.values[lo] + t*(s.values[hi]-s.values[lo])
}
