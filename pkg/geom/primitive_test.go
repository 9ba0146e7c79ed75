package geom

import (
	"math"
	"testing"

	"github.com/df07/spectral-tracer/pkg/core"
)

func TestSphereIntersectNormalPointsOutward(t *testing.T) {
	s := NewSphere(core.NewVec3(0, 0, 0), 1, nil)
	ray := core.NewRay(core.NewVec3(0, 0, -5), core.NewVec3(0, 0, 1))
	sp, ok := s.Intersect(ray, 0.001, 1e9)
	if !ok {
		t.Fatal("expected a hit")
	}
	if math.Abs(sp.Position.Z+1) > 1e-9 {
		t.Errorf("expected hit point at z=-1, got %v", sp.Position)
	}
	if sp.Normal.Dot(core.NewVec3(0, 0, -1)) < 0.99 {
		t.Errorf("expected outward normal facing the ray origin, got %v", sp.Normal)
	}
}

func TestSphereMissesWhenRayPassesWide(t *testing.T) {
	s := NewSphere(core.NewVec3(0, 0, 0), 1, nil)
	ray := core.NewRay(core.NewVec3(10, 10, -5), core.NewVec3(0, 0, 1))
	if _, ok := s.Intersect(ray, 0.001, 1e9); ok {
		t.Error("expected a miss")
	}
}

func TestPlaneIntersect(t *testing.T) {
	p := NewPlane(core.NewVec3(0, 0, 0), core.NewVec3(0, 1, 0), nil)
	ray := core.NewRay(core.NewVec3(0, 5, 0), core.NewVec3(0, -1, 0))
	sp, ok := p.Intersect(ray, 0.001, 1e9)
	if !ok || math.Abs(sp.T-5) > 1e-9 {
		t.Errorf("expected hit at t=5, got t=%v ok=%v", sp.T, ok)
	}
}

func TestPlaneParallelRayMisses(t *testing.T) {
	p := NewPlane(core.NewVec3(0, 0, 0), core.NewVec3(0, 1, 0), nil)
	ray := core.NewRay(core.NewVec3(0, 5, 0), core.NewVec3(1, 0, 0))
	if _, ok := p.Intersect(ray, 0.001, 1e9); ok {
		t.Error("expected a miss for a ray parallel to the plane")
	}
}

func TestTriangleIntersectBarycentric(t *testing.T) {
	tri := NewTriangle(
		core.NewVec3(-1, -1, 0), core.NewVec3(1, -1, 0), core.NewVec3(0, 1, 0), nil,
	)
	ray := core.NewRay(core.NewVec3(0, 0, -5), core.NewVec3(0, 0, 1))
	sp, ok := tri.Intersect(ray, 0.001, 1e9)
	if !ok {
		t.Fatal("expected a hit through the triangle's centroid region")
	}
	if math.Abs(sp.Position.Z) > 1e-9 {
		t.Errorf("expected hit in the z=0 plane, got %v", sp.Position)
	}
}

func TestTriangleMissesOutsideEdges(t *testing.T) {
	tri := NewTriangle(
		core.NewVec3(-1, -1, 0), core.NewVec3(1, -1, 0), core.NewVec3(0, 1, 0), nil,
	)
	ray := core.NewRay(core.NewVec3(5, 5, -5), core.NewVec3(0, 0, 1))
	if _, ok := tri.Intersect(ray, 0.001, 1e9); ok {
		t.Error("expected a miss outside the triangle's edges")
	}
}

func TestTriangleSurfaceAreaMatchesCrossProductFormula(t *testing.T) {
	tri := NewTriangle(core.NewVec3(0, 0, 0), core.NewVec3(2, 0, 0), core.NewVec3(0, 2, 0), nil)
	if math.Abs(tri.SurfaceArea()-2.0) > 1e-9 {
		t.Errorf("expected area 2.0 for a right triangle with legs of length 2, got %v", tri.SurfaceArea())
	}
}

func TestRayMarchedSphereEstimatorFindsSurface(t *testing.T) {
	estimator := func(p core.Vec3) float64 { return p.Length() - 1 }
	bounds := core.NewAABB(core.NewVec3(-2, -2, -2), core.NewVec3(2, 2, 2))
	rm := NewRayMarched(estimator, bounds, nil)

	ray := core.NewRay(core.NewVec3(0, 0, -5), core.NewVec3(0, 0, 1))
	sp, ok := rm.Intersect(ray, 0.001, 1e9)
	if !ok {
		t.Fatal("expected sphere-tracing to find the unit sphere implied by the estimator")
	}
	if math.Abs(sp.Position.Length()-1) > 1e-2 {
		t.Errorf("expected hit near the unit sphere surface, got distance %v", sp.Position.Length())
	}
}

func TestRayMarchedMissesWhenEstimatorNeverConverges(t *testing.T) {
	estimator := func(p core.Vec3) float64 { return 100 } // never close to zero
	bounds := core.NewAABB(core.NewVec3(-2, -2, -2), core.NewVec3(2, 2, 2))
	rm := NewRayMarched(estimator, bounds, nil)
	ray := core.NewRay(core.NewVec3(0, 0, -5), core.NewVec3(0, 0, 1))
	if _, ok := rm.Intersect(ray, 0.001, 1e9); ok {
		t.Error("expected a miss when the estimator never converges")
	}
}

func TestSphereSolidAngleShrinksWithDistance(t *testing.T) {
	s := NewSphere(core.NewVec3(0, 0, 0), 1, nil)
	near, _ := s.SolidAngleTowards(core.NewVec3(0, 0, 2))
	far, _ := s.SolidAngleTowards(core.NewVec3(0, 0, 10))
	if far >= near {
		t.Errorf("expected solid angle to shrink with distance, near=%v far=%v", near, far)
	}
}
