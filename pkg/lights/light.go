// Package lights implements spec.md's component F: point, directional
// and shape-backed area lights, their direct-lighting sampling
// contracts and a uniform light sampler for multi-light scenes.
package lights

import (
	"github.com/df07/spectral-tracer/pkg/core"
	"github.com/df07/spectral-tracer/pkg/shader"
	"github.com/df07/spectral-tracer/pkg/spectrum"
)

// Sample is a drawn direct-lighting sample: a direction and distance
// from the shading point to the light, its emitted radiance along that
// direction, and its sampling density. Delta lights (point,
// directional) report PDF as 0 and IsDelta true, since there is no
// continuous density to speak of.
type Sample struct {
	Direction core.Vec3
	Distance  float64
	Emission  *spectrum.Coherent
	PDF       float64
	IsDelta   bool
}

// EmissionSample is a light-surface sample used to start a light
// subpath for bidirectional integrators: a point and outgoing
// direction on the light, its emitted radiance, and the area and
// directional sampling densities that produced it.
type EmissionSample struct {
	Point        core.Vec3
	Normal       core.Vec3
	Direction    core.Vec3
	Emission     *spectrum.Coherent
	AreaPDF      float64
	DirectionPDF float64
}

// Light is spec.md §4.F's lamp contract.
type Light interface {
	// Sample draws a direction from point towards the light for direct
	// lighting. ok is false if the light cannot illuminate point at all
	// (e.g. a one-sided area light seen from behind).
	Sample(point core.Vec3, u core.Vec2, bundle spectrum.Bundle, pool *spectrum.Pool, vm *shader.VM, res shader.Resources, rng *core.RNG) (Sample, bool)
	// PDF returns the solid-angle sampling density Sample would have
	// used to produce direction from point; 0 for delta lights.
	PDF(point core.Vec3, direction core.Vec3) float64
	// SampleEmission draws a point and outgoing direction on the light
	// surface for light-subpath generation.
	SampleEmission(uPoint, uDirection core.Vec2, bundle spectrum.Bundle, pool *spectrum.Pool, vm *shader.VM, res shader.Resources, rng *core.RNG) (EmissionSample, bool)
	// IsDelta reports whether this light has a Dirac-delta position or
	// direction distribution (point and directional lights do; shape
	// lights don't).
	IsDelta() bool
}
