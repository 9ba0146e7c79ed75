package lights

import (
	"github.com/df07/spectral-tracer/pkg/core"
	"github.com/df07/spectral-tracer/pkg/shader"
	"github.com/df07/spectral-tracer/pkg/spectrum"
)

// evalRgb runs an Rgb-valued program with no shading geometry bound: a
// light's intensity/radiance program only ever reads constants,
// textures addressed by its own UV convention, or wavelength, never a
// hit normal or incident direction.
func evalRgb(prog *shader.Program, vm *shader.VM, res shader.Resources) core.Vec3 {
	if prog == nil {
		return core.NewVec3(1, 1, 1)
	}
	return vm.RunRgb(prog, shader.Input{}, res)
}

// spectralFromRGB reconstructs a spectral value from an RGB response at
// every wavelength in bundle and scales it, the same reconstruction
// material.spectralFromRGB performs for surface reflectance/emission.
func spectralFromRGB(pool *spectrum.Pool, bundle spectrum.Bundle, rgb core.Vec3, scale float64) *spectrum.Coherent {
	c := pool.Get()
	for i := 0; i < bundle.Len(); i++ {
		c.Set(i, spectrum.RGBToSpectrumSample(rgb.X, rgb.Y, rgb.Z, bundle[i])*scale)
	}
	return c
}
