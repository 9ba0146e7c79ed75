package lights

import (
	"math"

	"github.com/df07/spectral-tracer/pkg/core"
	"github.com/df07/spectral-tracer/pkg/geom"
	"github.com/df07/spectral-tracer/pkg/shader"
	"github.com/df07/spectral-tracer/pkg/spectrum"
)

// Shape is an area light: any geometric primitive carrying an emissive
// material. Direct-lighting samples prefer the primitive's solid-angle
// importance sampling (SampleTowards/SolidAngleTowards) where the shape
// supports it, falling back to an area-to-solid-angle Jacobian
// conversion otherwise.
type Shape struct {
	Primitive geom.Primitive
}

func NewShape(primitive geom.Primitive) *Shape {
	return &Shape{Primitive: primitive}
}

func (s *Shape) IsDelta() bool { return false }

func (s *Shape) Sample(point core.Vec3, u core.Vec2, bundle spectrum.Bundle, pool *spectrum.Pool, vm *shader.VM, res shader.Resources, rng *core.RNG) (Sample, bool) {
	surface, ok := s.Primitive.SampleTowards(rng, point)
	if !ok {
		return Sample{}, false
	}
	toLight := surface.Position.Subtract(point)
	distSq := toLight.LengthSquared()
	if distSq == 0 {
		return Sample{}, false
	}
	dist := toLight.Length()
	direction := toLight.Multiply(1.0 / dist)

	cosAtLight := surface.Normal.Dot(direction.Negate())
	if cosAtLight <= 0 {
		return Sample{}, false
	}

	pdf := s.solidAnglePDF(point, distSq, cosAtLight)
	if pdf <= 0 {
		return Sample{}, false
	}

	mat := s.Primitive.Material()
	out := direction.Negate()
	emission := mat.LightEmission(out, surface.Normal, surface.UV, bundle, pool, vm, res)
	return Sample{Direction: direction, Distance: dist, Emission: emission, PDF: pdf, IsDelta: false}, true
}

// solidAnglePDF returns the sampling density Sample used, preferring the
// primitive's closed-form solid angle and falling back to converting its
// by-area pdf via the standard area-to-solid-angle Jacobian
// distSq/cosAtLight.
func (s *Shape) solidAnglePDF(point core.Vec3, distSq, cosAtLight float64) float64 {
	if solidAngle, ok := s.Primitive.SolidAngleTowards(point); ok && solidAngle > 0 {
		return 1.0 / solidAngle
	}
	area := s.Primitive.SurfaceArea()
	if area <= 0 {
		return 0
	}
	return distSq / (cosAtLight * area)
}

func (s *Shape) PDF(point core.Vec3, direction core.Vec3) float64 {
	// Without the actual hit point on the light this can only use the
	// closed-form solid angle; callers needing the area-based fallback
	// should intersect the light surface directly.
	solidAngle, ok := s.Primitive.SolidAngleTowards(point)
	if !ok || solidAngle <= 0 {
		return 0
	}
	return 1.0 / solidAngle
}

func (s *Shape) SampleEmission(uPoint, uDirection core.Vec2, bundle spectrum.Bundle, pool *spectrum.Pool, vm *shader.VM, res shader.Resources, rng *core.RNG) (EmissionSample, bool) {
	surface, ok := s.Primitive.SamplePoint(rng)
	if !ok {
		return EmissionSample{}, false
	}
	direction := core.RandomCosineDirection(surface.Normal, rng)
	cos := direction.Dot(surface.Normal)
	if cos <= 0 {
		return EmissionSample{}, false
	}

	mat := s.Primitive.Material()
	emission := mat.LightEmission(direction, surface.Normal, surface.UV, bundle, pool, vm, res)
	area := s.Primitive.SurfaceArea()
	var areaPDF float64
	if area > 0 {
		areaPDF = 1.0 / area
	}
	return EmissionSample{
		Point: surface.Position, Normal: surface.Normal, Direction: direction, Emission: emission,
		AreaPDF: areaPDF, DirectionPDF: cos / math.Pi,
	}, true
}
