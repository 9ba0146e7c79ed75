package geom

import (
	"math"

	"github.com/df07/spectral-tracer/pkg/core"
	"github.com/df07/spectral-tracer/pkg/material"
)

// Plane is an infinite one-sided-normal plane. It has no finite area,
// so it never supports area or solid-angle sampling and is only ever
// used as scene geometry, never as a light.
type Plane struct {
	Point  core.Vec3
	Normal core.Vec3
	Mat    *material.Flat
}

func NewPlane(point, normal core.Vec3, mat *material.Flat) *Plane {
	return &Plane{Point: point, Normal: normal.Normalize(), Mat: mat}
}

func (p *Plane) Material() *material.Flat { return p.Mat }

func (p *Plane) Intersect(ray core.Ray, tMin, tMax float64) (SurfacePoint, bool) {
	denom := ray.Direction.Dot(p.Normal)
	if math.Abs(denom) < 1e-8 {
		return SurfacePoint{}, false
	}
	t := p.Point.Subtract(ray.Origin).Dot(p.Normal) / denom
	if t < tMin || t > tMax {
		return SurfacePoint{}, false
	}
	point := ray.At(t)
	tangent, bitangent := p.Normal.Basis()
	return SurfacePoint{Position: point, Normal: p.Normal, Tangent: tangent, Bitangent: bitangent, Material: p.Mat, T: t}, true
}

func (p *Plane) SamplePoint(rng *core.RNG) (SurfacePoint, bool) { return SurfacePoint{}, false }

func (p *Plane) SampleTowards(rng *core.RNG, target core.Vec3) (SurfacePoint, bool) {
	return SurfacePoint{}, false
}

func (p *Plane) SolidAngleTowards(target core.Vec3) (float64, bool) { return 0, false }

func (p *Plane) SurfaceArea() float64 { return math.Inf(1) }

func (p *Plane) AABB() core.AABB {
	const big = 1e6
	huge := core.NewVec3(big, big, big)
	return core.NewAABB(p.Point.Subtract(huge), p.Point.Add(huge))
}
