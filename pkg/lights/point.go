package lights

import (
	"math"

	"github.com/df07/spectral-tracer/pkg/core"
	"github.com/df07/spectral-tracer/pkg/shader"
	"github.com/df07/spectral-tracer/pkg/spectrum"
)

// Point is an isotropic point light: a delta-position source whose
// intensity (radiant power per steradian) is given by an RGB-valued
// program, reconstructed spectrally the same way a material's
// reflectance program is.
type Point struct {
	Position  core.Vec3
	Intensity *shader.Program // Rgb-valued
}

func NewPoint(position core.Vec3, intensity *shader.Program) *Point {
	return &Point{Position: position, Intensity: intensity}
}

func (p *Point) IsDelta() bool { return true }

func (p *Point) Sample(point core.Vec3, u core.Vec2, bundle spectrum.Bundle, pool *spectrum.Pool, vm *shader.VM, res shader.Resources, rng *core.RNG) (Sample, bool) {
	toLight := p.Position.Subtract(point)
	distSq := toLight.LengthSquared()
	if distSq == 0 {
		return Sample{}, false
	}
	dist := math.Sqrt(distSq)
	direction := toLight.Multiply(1.0 / dist)

	rgb := evalRgb(p.Intensity, vm, res)
	emission := spectralFromRGB(pool, bundle, rgb, 1.0/distSq)
	return Sample{Direction: direction, Distance: dist, Emission: emission, PDF: 0, IsDelta: true}, true
}

func (p *Point) PDF(point core.Vec3, direction core.Vec3) float64 { return 0 }

func (p *Point) SampleEmission(uPoint, uDirection core.Vec2, bundle spectrum.Bundle, pool *spectrum.Pool, vm *shader.VM, res shader.Resources, rng *core.RNG) (EmissionSample, bool) {
	dir := core.RandomUniformSphere(rng)
	rgb := evalRgb(p.Intensity, vm, res)
	emission := spectralFromRGB(pool, bundle, rgb, 1.0)
	return EmissionSample{
		Point: p.Position, Normal: dir, Direction: dir, Emission: emission,
		AreaPDF: 1, DirectionPDF: 1.0 / (4 * math.Pi),
	}, true
}
