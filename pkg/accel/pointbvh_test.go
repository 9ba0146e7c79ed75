package accel

import (
	"testing"

	"github.com/df07/spectral-tracer/pkg/core"
)

type testVisiblePoint struct {
	id     int
	center core.Vec3
	radius float64
}

func (v testVisiblePoint) Center() core.Vec3 { return v.center }
func (v testVisiblePoint) Radius() float64   { return v.radius }

func TestPointBVHQueryFindsContainingSpheres(t *testing.T) {
	points := []testVisiblePoint{
		{id: 0, center: core.NewVec3(0, 0, 0), radius: 1},
		{id: 1, center: core.NewVec3(5, 0, 0), radius: 0.5},
		{id: 2, center: core.NewVec3(0, 5, 0), radius: 2},
	}
	pbvh := BuildPointBVH(points)

	var found []int
	pbvh.Query(core.NewVec3(0.5, 0, 0), func(item testVisiblePoint) {
		found = append(found, item.id)
	})
	if len(found) != 1 || found[0] != 0 {
		t.Errorf("expected only point 0 to contain (0.5,0,0), got %v", found)
	}

	found = nil
	pbvh.Query(core.NewVec3(0, 4, 0), func(item testVisiblePoint) {
		found = append(found, item.id)
	})
	if len(found) != 1 || found[0] != 2 {
		t.Errorf("expected only point 2 to contain (0,4,0), got %v", found)
	}
}

func TestPointBVHQueryNoMatches(t *testing.T) {
	points := []testVisiblePoint{{id: 0, center: core.NewVec3(100, 100, 100), radius: 0.1}}
	pbvh := BuildPointBVH(points)
	count := 0
	pbvh.Query(core.NewVec3(0, 0, 0), func(item testVisiblePoint) { count++ })
	if count != 0 {
		t.Errorf("expected no matches far from any sphere, got %d", count)
	}
}
