package accel

import (
	"math"
	"math/rand"
	"testing"

	"github.com/df07/spectral-tracer/pkg/core"
)

// testSphere is a minimal Bounder + ray-intersectable item for exercising
// the BVH in isolation from the geometry package.
type testSphere struct {
	center core.Vec3
	radius float64
}

func (s testSphere) AABB() core.AABB {
	r := core.NewVec3(s.radius, s.radius, s.radius)
	return core.NewAABB(s.center.Subtract(r), s.center.Add(r))
}

func (s testSphere) hit(ray core.Ray, tMin, tMax float64) (float64, bool) {
	oc := ray.Origin.Subtract(s.center)
	a := ray.Direction.LengthSquared()
	halfB := oc.Dot(ray.Direction)
	c := oc.LengthSquared() - s.radius*s.radius
	disc := halfB*halfB - a*c
	if disc < 0 {
		return 0, false
	}
	sq := math.Sqrt(disc)
	t := (-halfB - sq) / a
	if t < tMin || t > tMax {
		t = (-halfB + sq) / a
		if t < tMin || t > tMax {
			return 0, false
		}
	}
	return t, true
}

func bruteForceHit(items []testSphere, ray core.Ray, tMin, tMax float64) (testSphere, float64, bool) {
	var best testSphere
	bestT := tMax
	found := false
	for _, it := range items {
		if t, ok := it.hit(ray, tMin, bestT); ok {
			bestT = t
			best = it
			found = true
		}
	}
	return best, bestT, found
}

func TestBVHMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	items := make([]testSphere, 200)
	for i := range items {
		items[i] = testSphere{
			center: core.NewVec3(rng.Float64()*20-10, rng.Float64()*20-10, rng.Float64()*20-10),
			radius: 0.2 + rng.Float64()*0.8,
		}
	}
	bvh := Build(items)

	for trial := 0; trial < 500; trial++ {
		origin := core.NewVec3(rng.Float64()*40-20, rng.Float64()*40-20, -30)
		dir := core.NewVec3(rng.Float64()*2-1, rng.Float64()*2-1, 1).Normalize()
		ray := core.NewRay(origin, dir)

		wantItem, wantT, wantFound := bruteForceHit(items, ray, 0.001, 1e9)
		gotItem, gotT, gotFound := bvh.Hit(ray, 0.001, 1e9, func(it testSphere, tMin, tMax float64) (float64, bool) {
			return it.hit(ray, tMin, tMax)
		})

		if gotFound != wantFound {
			t.Fatalf("trial %d: found=%v want=%v", trial, gotFound, wantFound)
		}
		if !wantFound {
			continue
		}
		if math.Abs(gotT-wantT) > 1e-6 || gotItem.center != wantItem.center {
			t.Fatalf("trial %d: got t=%v center=%v, want t=%v center=%v", trial, gotT, gotItem.center, wantT, wantItem.center)
		}
	}
}

func TestBVHSingleItemIsLeafOnly(t *testing.T) {
	bvh := Build([]testSphere{{center: core.NewVec3(0, 0, 0), radius: 1}})
	if !bvh.IsLeafOnly() {
		t.Errorf("single-item BVH should be one leaf node, got %d nodes", bvh.NodeCount())
	}
}

func TestBVHDegenerateStackedSpheres(t *testing.T) {
	// spec.md §8 scenario 5: 1000 spheres stacked at the origin; build
	// must complete without stack overflow and return the first-leaf hit.
	items := make([]testSphere, 1000)
	for i := range items {
		items[i] = testSphere{center: core.NewVec3(0, 0, 0), radius: 1}
	}
	bvh := Build(items)
	ray := core.NewRay(core.NewVec3(0, 0, -5), core.NewVec3(0, 0, 1))
	_, _, found := bvh.Hit(ray, 0.001, 1e9, func(it testSphere, tMin, tMax float64) (float64, bool) {
		return it.hit(ray, tMin, tMax)
	})
	if !found {
		t.Error("expected a hit against the stacked spheres")
	}
}

func TestBVHEmpty(t *testing.T) {
	bvh := Build[testSphere](nil)
	if !bvh.Empty() {
		t.Error("empty input should produce an empty BVH")
	}
	ray := core.NewRay(core.NewVec3(0, 0, -5), core.NewVec3(0, 0, 1))
	_, _, found := bvh.Hit(ray, 0.001, 1e9, func(it testSphere, tMin, tMax float64) (float64, bool) {
		return it.hit(ray, tMin, tMax)
	})
	if found {
		t.Error("empty BVH must never report a hit")
	}
}
