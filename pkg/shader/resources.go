package shader

import "github.com/df07/spectral-tracer/pkg/core"

// Resources is the project-wide lookup table a compiled Program reaches
// into for anything not carried in its own instruction stream: named
// spectra and textures are shared across many programs, so they are
// looked up by small integer id rather than baked into the program.
type Resources interface {
	SampleSpectrum(id int, wavelength float64) float64
	SampleColorTexture(id int, uv core.Vec2) core.Vec3
	SampleMonoTexture(id int, uv core.Vec2) float64
}
