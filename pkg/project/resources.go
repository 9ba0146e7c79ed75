package project

import (
	"github.com/df07/spectral-tracer/pkg/core"
	"github.com/df07/spectral-tracer/pkg/texio"
)

// Resources implements shader.Resources over a project's named
// spectra and textures, the concrete lookup table every compiled
// material/sky Program in a loaded project reaches into at render
// time.
type Resources struct {
	Spectra  []*NamedSpectrum
	Textures []*texio.Texture
}

// SampleSpectrum evaluates named spectrum id at wavelength.
func (r *Resources) SampleSpectrum(id int, wavelength float64) float64 {
	if id < 0 || id >= len(r.Spectra) || r.Spectra[id] == nil {
		return 0
	}
	return r.Spectra[id].Sample(wavelength)
}

// SampleColorTexture bicubically samples texture id's RGB at uv.
func (r *Resources) SampleColorTexture(id int, uv core.Vec2) core.Vec3 {
	if id < 0 || id >= len(r.Textures) || r.Textures[id] == nil {
		return core.NewVec3(0, 0, 0)
	}
	return r.Textures[id].SampleColor(uv)
}

// SampleMonoTexture bicubically samples texture id's luminance at uv.
func (r *Resources) SampleMonoTexture(id int, uv core.Vec2) float64 {
	if id < 0 || id >= len(r.Textures) || r.Textures[id] == nil {
		return 0
	}
	return r.Textures[id].SampleMono(uv)
}

// addSpectrum registers a spectrum and returns its id.
func (r *Resources) addSpectrum(s *NamedSpectrum) int {
	r.Spectra = append(r.Spectra, s)
	return len(r.Spectra) - 1
}

// addTexture registers a texture and returns its id.
func (r *Resources) addTexture(t *texio.Texture) int {
	r.Textures = append(r.Textures, t)
	return len(r.Textures) - 1
}
