// Package world implements spec.md's scene container: the primitive
// list, its BVH acceleration structure, the registered lamps and a sky
// emission program, plus the ray-cast and lamp-pick entry points every
// integrator drives through.
//
// Grounded on original_source/pyrite/src/world.rs (World::intersect,
// pick_lamp, from_project) for the shape — a BVH over opaque shapes, a
// separate lamp list, and a sky program evaluated on a miss — and on
// the teacher's pkg/scene/scene.go for the Go-idiomatic preprocessing
// step (building the BVH and light sampler once at load time) since
// pyrite builds its BkdTree inline in World::from_project instead.
package world

import (
	"math"

	"github.com/df07/spectral-tracer/pkg/accel"
	"github.com/df07/spectral-tracer/pkg/core"
	"github.com/df07/spectral-tracer/pkg/geom"
	"github.com/df07/spectral-tracer/pkg/lights"
	"github.com/df07/spectral-tracer/pkg/shader"
	"github.com/df07/spectral-tracer/pkg/spectrum"
)

// World is the fully preprocessed scene: primitives indexed by a BVH,
// lights available for direct-lighting and light-subpath sampling, and
// an optional sky program evaluated when a ray escapes the scene.
type World struct {
	Primitives []geom.Primitive
	Lights     lights.Sampler
	Sky        *shader.Program // rgb-valued; nil means black background

	bvh    *accel.BVH[geom.Primitive]
	center core.Vec3
	radius float64
}

// Build indexes primitives into a BVH and computes the scene's
// bounding sphere, exposed through BoundingSphere.
func Build(primitives []geom.Primitive, lightSampler lights.Sampler, sky *shader.Program) *World {
	w := &World{Primitives: primitives, Lights: lightSampler, Sky: sky}
	w.bvh = accel.Build(primitives)
	w.center, w.radius = boundingSphere(primitives)
	return w
}

func boundingSphere(primitives []geom.Primitive) (core.Vec3, float64) {
	if len(primitives) == 0 {
		return core.Vec3{}, 1
	}
	box := primitives[0].AABB()
	for _, p := range primitives[1:] {
		box = box.Union(p.AABB())
	}
	center := box.Center()
	radius := box.Size().Length() / 2
	if radius <= 0 {
		radius = 1
	}
	return center, radius
}

// BoundingSphere returns the scene's center and radius: the center and
// half the diagonal of the union of every primitive's AABB (radius 1 for
// an empty or degenerate scene).
func (w *World) BoundingSphere() (center core.Vec3, radius float64) { return w.center, w.radius }

// CollectShapeLights returns a Shape lamp for every emissive primitive
// in primitives, pyrite's world.rs behavior of automatically promoting
// every emissive shape to a lamp rather than requiring it be declared
// twice in a project file. Callers append the result to any explicit
// point/directional lights before building a Sampler.
func CollectShapeLights(primitives []geom.Primitive) []lights.Light {
	var out []lights.Light
	for _, p := range primitives {
		if mat := p.Material(); mat != nil && mat.IsEmissive() {
			out = append(out, lights.NewShape(p))
		}
	}
	return out
}

// Intersect finds the closest primitive hit in [tMin, tMax], tightening
// the search bound with every BVH acceptance so the traversal itself
// recovers the closest hit without a second full pass.
func (w *World) Intersect(ray core.Ray, tMin, tMax float64) (geom.SurfacePoint, bool) {
	var best geom.SurfacePoint
	var found bool
	w.bvh.Hit(ray, tMin, tMax, func(item geom.Primitive, lo, hi float64) (float64, bool) {
		sp, ok := item.Intersect(ray, lo, hi)
		if !ok {
			return 0, false
		}
		best = sp
		found = true
		return sp.T, true
	})
	return best, found
}

// Occluded is a cheap shadow-ray test: whether anything lies in
// [tMin, tMax] along ray, without recovering the hit record.
func (w *World) Occluded(ray core.Ray, tMin, tMax float64) bool {
	_, _, found := w.bvh.Hit(ray, tMin, tMax, func(item geom.Primitive, lo, hi float64) (float64, bool) {
		sp, ok := item.Intersect(ray, lo, hi)
		if !ok {
			return 0, false
		}
		return sp.T, true
	})
	return found
}

// PickLamp delegates to the registered light sampler, spec.md §4.K's
// pick_lamp.
func (w *World) PickLamp(rng *core.RNG) (lights.Light, float64, bool) {
	return w.Lights.Pick(rng)
}

// SkyEmission evaluates the sky program at every wavelength in bundle
// for a ray escaping the scene in direction ray.Direction, returning an
// all-zero (black) bundle when no sky program is set.
func (w *World) SkyEmission(ray core.Ray, bundle spectrum.Bundle, pool *spectrum.Pool, vm *shader.VM, res shader.Resources) *spectrum.Coherent {
	result := pool.Get()
	if w.Sky == nil {
		return result
	}
	dir := ray.Direction.Normalize()
	rgb := vm.RunRgb(w.Sky, shader.Input{
		Normal:   core.NewVec4(0, 0, 0, 0),
		Incident: core.NewVec4(dir.X, dir.Y, dir.Z, 0),
	}, res)
	for i := 0; i < bundle.Len(); i++ {
		result.Set(i, spectrum.RGBToSpectrumSample(rgb.X, rgb.Y, rgb.Z, bundle[i]))
	}
	return result
}

// SkyEmissionAt evaluates the sky program at a single wavelength, used
// once a path has collapsed to a dispersed single-wavelength carrier.
func (w *World) SkyEmissionAt(ray core.Ray, wavelength float64, vm *shader.VM, res shader.Resources) float64 {
	if w.Sky == nil {
		return 0
	}
	dir := ray.Direction.Normalize()
	rgb := vm.RunRgb(w.Sky, shader.Input{
		Incident: core.NewVec4(dir.X, dir.Y, dir.Z, 0),
	}, res)
	return spectrum.RGBToSpectrumSample(rgb.X, rgb.Y, rgb.Z, wavelength)
}

// Epsilon is the shadow/continuation ray origin offset used throughout
// the integrators to avoid immediate self-intersection.
const Epsilon = 1e-4

// Infinity is a convenience re-export so callers don't need a separate
// math import just to spell an unbounded tMax.
var Infinity = math.Inf(1)
