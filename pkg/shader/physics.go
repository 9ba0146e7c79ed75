package shader

import (
	"github.com/df07/spectral-tracer/pkg/core"
	"github.com/df07/spectral-tracer/pkg/spectrum"
)

// evalRgbSpectrum implements the RgbSpectrumValue instruction: an RGB
// value authored as a texture or constant is reconstructed into a
// single-wavelength spectral sample via the fixed response curves, the
// inverse of how film.go integrates spectral samples back to RGB.
func evalRgbSpectrum(rgb core.Vec3, wavelength float64) float64 {
	return spectrum.RGBToSpectrumSample(rgb.X, rgb.Y, rgb.Z, wavelength)
}

func evalBlackbody(wavelength, temperature float64) float64 {
	return spectrum.Blackbody(wavelength, temperature)
}

// evalFresnel computes the unpolarized dielectric reflectance at the
// incidence angle between normal and incident, using Schlick's
// approximation the way the rest of this renderer already does for
// dielectric materials.
func evalFresnel(ior, envIOR float64, normal, incident core.Vec3) float64 {
	cosine := -incident.Normalize().Dot(normal.Normalize())
	if cosine < 0 {
		cosine = -cosine
	}
	eta := envIOR / ior
	return core.Schlick(cosine, eta)
}
