package geom

import (
	"github.com/df07/spectral-tracer/pkg/core"
	"github.com/df07/spectral-tracer/pkg/material"
)

// DistanceEstimator returns a conservative lower bound on the distance
// from point to the surface it describes, the sphere-tracing contract
// fractal shapes like a Mandelbulb or quaternion Julia set need since
// they have no closed-form intersection.
type DistanceEstimator func(point core.Vec3) float64

// RayMarched is a primitive defined only by a distance estimator and a
// bounding volume, intersected by sphere tracing: step along the ray by
// the estimated distance until it drops below a surface threshold
// (hit), the accumulated distance leaves Bounds (miss) or the step
// budget is exhausted (miss, treated as the estimator failing to
// converge).
type RayMarched struct {
	Estimator  DistanceEstimator
	Bounds     core.AABB
	Mat        *material.Flat
	MaxSteps   int
	Threshold  float64
}

// NewRayMarched returns a distance-estimated primitive with the
// renderer's default step budget and surface threshold.
func NewRayMarched(estimator DistanceEstimator, bounds core.AABB, mat *material.Flat) *RayMarched {
	return &RayMarched{Estimator: estimator, Bounds: bounds, Mat: mat, MaxSteps: 256, Threshold: 1e-5}
}

func (r *RayMarched) Material() *material.Flat { return r.Mat }

func (r *RayMarched) Intersect(ray core.Ray, tMin, tMax float64) (SurfacePoint, bool) {
	boundsTMin, boundsTMax, ok := r.Bounds.HitInterval(ray, tMin, tMax)
	if !ok {
		return SurfacePoint{}, false
	}

	t := boundsTMin
	for step := 0; step < r.MaxSteps && t < boundsTMax; step++ {
		point := ray.At(t)
		dist := r.Estimator(point)
		if dist < r.Threshold {
			normal := r.gradient(point)
			tangent, bitangent := normal.Basis()
			return SurfacePoint{Position: point, Normal: normal, Tangent: tangent, Bitangent: bitangent, Material: r.Mat, T: t}, true
		}
		t += dist
	}
	return SurfacePoint{}, false
}

// gradient estimates the surface normal as the estimator's finite-
// difference gradient, the standard sphere-tracing normal recipe.
func (r *RayMarched) gradient(p core.Vec3) core.Vec3 {
	const eps = 1e-4
	dx := r.Estimator(p.Add(core.NewVec3(eps, 0, 0))) - r.Estimator(p.Subtract(core.NewVec3(eps, 0, 0)))
	dy := r.Estimator(p.Add(core.NewVec3(0, eps, 0))) - r.Estimator(p.Subtract(core.NewVec3(0, eps, 0)))
	dz := r.Estimator(p.Add(core.NewVec3(0, 0, eps))) - r.Estimator(p.Subtract(core.NewVec3(0, 0, eps)))
	return core.NewVec3(dx, dy, dz).Normalize()
}

// SamplePoint, SampleTowards and SolidAngleTowards are unsupported: a
// distance-estimated surface has no closed-form area measure, so these
// primitives are never registered as area lights.
func (r *RayMarched) SamplePoint(rng *core.RNG) (SurfacePoint, bool) { return SurfacePoint{}, false }
func (r *RayMarched) SampleTowards(rng *core.RNG, target core.Vec3) (SurfacePoint, bool) {
	return SurfacePoint{}, false
}
func (r *RayMarched) SolidAngleTowards(target core.Vec3) (float64, bool) { return 0, false }

func (r *RayMarched) SurfaceArea() float64 { return r.Bounds.SurfaceArea() }

func (r *RayMarched) AABB() core.AABB { return r.Bounds }
