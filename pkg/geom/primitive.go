// Package geom implements spec.md's component C: the primitive kinds
// (sphere, plane, triangle, distance-estimated) and their intersection,
// sampling and area queries.
package geom

import (
	"github.com/df07/spectral-tracer/pkg/core"
	"github.com/df07/spectral-tracer/pkg/material"
)

// SurfacePoint is spec.md §3's intersection record: position, geometric
// normal, shading-space frame, texture coordinate and a borrowed pointer
// to the hit primitive's material. It is produced by BVH traversal and
// never stored long-term.
type SurfacePoint struct {
	Position  core.Vec3
	Normal    core.Vec3 // unit, outward
	Tangent   core.Vec3
	Bitangent core.Vec3
	UV        core.Vec2
	Material  *material.Flat
	T         float64 // ray parameter at the hit, for BVH tightening
}

// Frame returns the shading-space tangent/bitangent, reconstructing them
// from the normal if the primitive didn't populate them explicitly.
func (s SurfacePoint) Frame() (tangent, bitangent core.Vec3) {
	if !s.Tangent.IsZero() {
		return s.Tangent, s.Bitangent
	}
	return s.Normal.Basis()
}

// Primitive is spec.md §4.C's shape contract.
type Primitive interface {
	// Intersect returns the closest hit within [tMin, tMax].
	Intersect(ray core.Ray, tMin, tMax float64) (SurfacePoint, bool)
	// SamplePoint draws a point on the surface uniformly by area.
	// Infinite primitives (e.g. planes) return false.
	SamplePoint(rng *core.RNG) (SurfacePoint, bool)
	// SampleTowards draws a point on the surface from the importance
	// distribution best suited to direct lighting from target (solid-
	// angle-uniform where the shape supports it).
	SampleTowards(rng *core.RNG, target core.Vec3) (SurfacePoint, bool)
	// SolidAngleTowards returns the solid angle the primitive subtends
	// as seen from target, when defined for this shape.
	SolidAngleTowards(target core.Vec3) (float64, bool)
	// SurfaceArea returns the primitive's surface area.
	SurfaceArea() float64
	// AABB returns the primitive's bounding box (accel.Bounder contract).
	AABB() core.AABB
	// Material returns the primitive's (non-owning) material reference.
	Material() *material.Flat
}
