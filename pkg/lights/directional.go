package lights

import (
	"math"

	"github.com/df07/spectral-tracer/pkg/core"
	"github.com/df07/spectral-tracer/pkg/shader"
	"github.com/df07/spectral-tracer/pkg/spectrum"
)

// Directional is a parallel-ray (sun-style) delta-direction light: every
// point in the scene sees the same incoming direction and radiance.
type Directional struct {
	Direction core.Vec3 // direction the light travels, i.e. away from the source
	Radiance  *shader.Program
	// SceneRadius bounds the scene for SampleEmission's virtual origin
	// disk; a directional light has no finite position to sample from,
	// so emission paths start on a disk of this radius centered on the
	// scene, perpendicular to Direction.
	SceneRadius float64
}

func NewDirectional(direction core.Vec3, radiance *shader.Program, sceneRadius float64) *Directional {
	return &Directional{Direction: direction.Normalize(), Radiance: radiance, SceneRadius: sceneRadius}
}

func (d *Directional) IsDelta() bool { return true }

func (d *Directional) Sample(point core.Vec3, u core.Vec2, bundle spectrum.Bundle, pool *spectrum.Pool, vm *shader.VM, res shader.Resources, rng *core.RNG) (Sample, bool) {
	toLight := d.Direction.Negate()
	rgb := evalRgb(d.Radiance, vm, res)
	emission := spectralFromRGB(pool, bundle, rgb, 1.0)
	return Sample{Direction: toLight, Distance: math.Inf(1), Emission: emission, PDF: 0, IsDelta: true}, true
}

func (d *Directional) PDF(point core.Vec3, direction core.Vec3) float64 { return 0 }

func (d *Directional) SampleEmission(uPoint, uDirection core.Vec2, bundle spectrum.Bundle, pool *spectrum.Pool, vm *shader.VM, res shader.Resources, rng *core.RNG) (EmissionSample, bool) {
	radius := d.SceneRadius
	if radius <= 0 {
		radius = 1
	}
	tangent, bitangent := d.Direction.Basis()
	r := math.Sqrt(uPoint.X)
	theta := 2 * math.Pi * uPoint.Y
	diskU, diskV := r*math.Cos(theta), r*math.Sin(theta)
	origin := tangent.Multiply(diskU * radius).Add(bitangent.Multiply(diskV * radius))

	rgb := evalRgb(d.Radiance, vm, res)
	emission := spectralFromRGB(pool, bundle, rgb, 1.0)
	area := math.Pi * radius * radius
	return EmissionSample{
		Point: origin, Normal: d.Direction, Direction: d.Direction, Emission: emission,
		AreaPDF: 1.0 / area, DirectionPDF: 1,
	}, true
}
