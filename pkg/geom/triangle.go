package geom

import (
	"math"

	"github.com/df07/spectral-tracer/pkg/core"
	"github.com/df07/spectral-tracer/pkg/material"
)

// Triangle is a single triangle with optional per-vertex normals and UV
// coordinates, intersected with Möller-Trumbore and sampled uniformly
// by area via the standard sqrt-based barycentric transform.
type Triangle struct {
	V0, V1, V2    core.Vec3
	UV0, UV1, UV2 core.Vec2
	hasUVs        bool
	N0, N1, N2    core.Vec3
	hasNormals    bool
	Mat           *material.Flat

	faceNormal core.Vec3
	area       float64
	bbox       core.AABB
}

func NewTriangle(v0, v1, v2 core.Vec3, mat *material.Flat) *Triangle {
	t := &Triangle{V0: v0, V1: v1, V2: v2, Mat: mat}
	t.precompute()
	return t
}

func NewTriangleWithUVs(v0, v1, v2 core.Vec3, uv0, uv1, uv2 core.Vec2, mat *material.Flat) *Triangle {
	t := &Triangle{V0: v0, V1: v1, V2: v2, UV0: uv0, UV1: uv1, UV2: uv2, hasUVs: true, Mat: mat}
	t.precompute()
	return t
}

// NewTriangleWithNormals builds a triangle carrying per-vertex normals
// for smooth (Phong-interpolated) shading, as meshio produces for
// imported meshes that supply vertex normals.
func NewTriangleWithNormals(v0, v1, v2, n0, n1, n2 core.Vec3, uv0, uv1, uv2 core.Vec2, hasUVs bool, mat *material.Flat) *Triangle {
	t := &Triangle{
		V0: v0, V1: v1, V2: v2,
		N0: n0, N1: n1, N2: n2, hasNormals: true,
		UV0: uv0, UV1: uv1, UV2: uv2, hasUVs: hasUVs,
		Mat: mat,
	}
	t.precompute()
	return t
}

func (t *Triangle) precompute() {
	edge1 := t.V1.Subtract(t.V0)
	edge2 := t.V2.Subtract(t.V0)
	cross := edge1.Cross(edge2)
	t.faceNormal = cross.Normalize()
	t.area = 0.5 * cross.Length()
	t.bbox = core.NewAABBFromPoints(t.V0, t.V1, t.V2)
}

func (t *Triangle) Material() *material.Flat { return t.Mat }

func (t *Triangle) Intersect(ray core.Ray, tMin, tMax float64) (SurfacePoint, bool) {
	const epsilon = 1e-9

	edge1 := t.V1.Subtract(t.V0)
	edge2 := t.V2.Subtract(t.V0)

	h := ray.Direction.Cross(edge2)
	a := edge1.Dot(h)
	if a > -epsilon && a < epsilon {
		return SurfacePoint{}, false
	}

	f := 1.0 / a
	s := ray.Origin.Subtract(t.V0)
	u := f * s.Dot(h)
	if u < 0.0 || u > 1.0 {
		return SurfacePoint{}, false
	}

	q := s.Cross(edge1)
	v := f * ray.Direction.Dot(q)
	if v < 0.0 || u+v > 1.0 {
		return SurfacePoint{}, false
	}

	hitT := f * edge2.Dot(q)
	if hitT < tMin || hitT > tMax {
		return SurfacePoint{}, false
	}

	w := 1.0 - u - v
	point := ray.At(hitT)

	var uv core.Vec2
	if t.hasUVs {
		uv = t.UV0.Multiply(w).Add(t.UV1.Multiply(u)).Add(t.UV2.Multiply(v))
	} else {
		uv = core.NewVec2(u, v)
	}

	normal := t.faceNormal
	if t.hasNormals {
		normal = t.N0.Multiply(w).Add(t.N1.Multiply(u)).Add(t.N2.Multiply(v)).Normalize()
	}
	if normal.Dot(ray.Direction) > 0 {
		normal = normal.Negate()
	}

	tangent, bitangent := normal.Basis()
	return SurfacePoint{Position: point, Normal: normal, Tangent: tangent, Bitangent: bitangent, UV: uv, Material: t.Mat, T: hitT}, true
}

// SamplePoint draws a barycentric coordinate uniformly by area using
// the standard sqrt(u1) transform, then interpolates position/normal.
func (t *Triangle) SamplePoint(rng *core.RNG) (SurfacePoint, bool) {
	u1, u2 := rng.Float64(), rng.Float64()
	sqrtU1 := math.Sqrt(u1)
	b0 := 1 - sqrtU1
	b1 := u2 * sqrtU1
	b2 := 1 - b0 - b1

	point := t.V0.Multiply(b0).Add(t.V1.Multiply(b1)).Add(t.V2.Multiply(b2))
	normal := t.faceNormal
	if t.hasNormals {
		normal = t.N0.Multiply(b0).Add(t.N1.Multiply(b1)).Add(t.N2.Multiply(b2)).Normalize()
	}
	tangent, bitangent := normal.Basis()
	return SurfacePoint{Position: point, Normal: normal, Tangent: tangent, Bitangent: bitangent, Material: t.Mat}, true
}

func (t *Triangle) SampleTowards(rng *core.RNG, target core.Vec3) (SurfacePoint, bool) {
	return t.SamplePoint(rng)
}

// SolidAngleTowards is undefined for triangles in closed form; callers
// fall back to area-sampling PDFs converted via the standard
// distance-squared/cosine Jacobian instead.
func (t *Triangle) SolidAngleTowards(target core.Vec3) (float64, bool) { return 0, false }

func (t *Triangle) SurfaceArea() float64 { return t.area }

func (t *Triangle) AABB() core.AABB { return t.bbox }
