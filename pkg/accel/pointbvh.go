package accel

import "github.com/df07/spectral-tracer/pkg/core"

// Sphere is the bounding-sphere contract SPPM visible points expose to
// the point-radius BVH: spec.md §4.B "a secondary BVH over visible
// points for photon gathering" keyed by each point's current
// (center, radius).
type Sphere interface {
	Center() core.Vec3
	Radius() float64
}

// sphereBounds adapts a Sphere to the Bounder contract the generic BVH
// builder requires, so PointBVH can reuse the same SAH build.
type sphereBounds[T Sphere] struct {
	item T
}

func (s sphereBounds[T]) AABB() core.AABB {
	c, r := s.item.Center(), s.item.Radius()
	rv := core.NewVec3(r, r, r)
	return core.NewAABB(c.Subtract(rv), c.Add(rv))
}

// PointBVH indexes a set of spheres (SPPM visible points) for "does this
// photon hit position fall within any visible point's current gather
// radius" queries. It is rebuilt once per SPPM iteration from the
// just-finished camera pass, per spec.md §9 design notes.
type PointBVH[T Sphere] struct {
	inner *BVH[sphereBounds[T]]
}

// BuildPointBVH constructs a point-radius index over the given spheres.
func BuildPointBVH[T Sphere](items []T) *PointBVH[T] {
	wrapped := make([]sphereBounds[T], len(items))
	for i, it := range items {
		wrapped[i] = sphereBounds[T]{item: it}
	}
	return &PointBVH[T]{inner: Build(wrapped)}
}

// Query enumerates every item whose bounding sphere contains point,
// spec.md §4.B's "point-radius traversal (SPPM gather): enumerate all
// items whose stored bounding sphere contains the query point."
func (p *PointBVH[T]) Query(point core.Vec3, visit func(item T)) {
	if p.inner == nil {
		return
	}
	p.queryNode(0, point, visit)
}

// queryNode walks the flat array exactly like Hit, but collects every
// leaf whose AABB contains the point (cheap prefilter) and whose exact
// sphere contains it (precise test), instead of stopping at the first
// acceptance.
func (p *PointBVH[T]) queryNode(start int, point core.Vec3, visit func(item T)) {
	nodes := p.inner.nodes
	i := start
	for i < len(nodes) {
		node := &nodes[i]
		if !aabbContains(node.bounds, point) {
			i += node.subtreeSize
			continue
		}
		if node.isLeaf {
			s := node.item.item
			d := s.Center().Subtract(point)
			r := s.Radius()
			if d.LengthSquared() <= r*r {
				visit(s)
			}
			i++
			continue
		}
		i++
	}
}

func aabbContains(box core.AABB, p core.Vec3) bool {
	return p.X >= box.Min.X && p.X <= box.Max.X &&
		p.Y >= box.Min.Y && p.Y <= box.Max.Y &&
		p.Z >= box.Min.Z && p.Z <= box.Max.Z
}
