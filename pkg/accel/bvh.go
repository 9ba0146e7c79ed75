// Package accel implements spec.md's component B: a surface-area-
// heuristic BVH over primitives, flattened to a pre-order array with
// subtree-size skipping, plus a secondary point-radius form used by the
// SPPM integrator to index visible points for photon gathering.
package accel

import (
	"sort"

	"github.com/df07/spectral-tracer/pkg/core"
)

// Bounder is the build contract of spec.md §4.B: "given a vector of
// items implementing aabb()".
type Bounder interface {
	AABB() core.AABB
}

// bvhNode is one entry of the flat pre-order array. Leaves hold one
// item (spec.md: "leaves hold one primitive"); interior nodes hold no
// item and record the number of array slots their subtree occupies
// (including themselves) so a missed AABB test can skip the whole
// subtree with a single index increment.
type bvhNode[T Bounder] struct {
	bounds      core.AABB
	item        T
	isLeaf      bool
	subtreeSize int
}

// BVH is a flat, immutable bounding volume hierarchy over items of type
// T. It is built once and is safe for concurrent read-only traversal
// from any number of worker goroutines.
type BVH[T Bounder] struct {
	nodes []bvhNode[T]
}

// Empty reports whether the BVH has no geometry.
func (b *BVH[T]) Empty() bool { return len(b.nodes) == 0 }

// sahBuckets is the number of centroid buckets findSAHSplit evaluates.
// Leaves always hold exactly one item — unlike many production BVHs this
// core does not bucket multiple primitives per leaf.
const sahBuckets = 6

// Build constructs a SAH BVH over items following spec.md §4.B:
//  1. find the widest centroid axis;
//  2. bin into 6 buckets along it and evaluate the 5 prefix splits by
//     the surface-area-heuristic cost (|L|*SA(L) + |R|*SA(R)) / SA(parent);
//  3. fall back to an even count-split when the axis is degenerate;
//  4. recurse until one item remains per leaf.
func Build[T Bounder](items []T) *BVH[T] {
	if len(items) == 0 {
		return &BVH[T]{}
	}
	b := &BVH[T]{}
	cp := make([]T, len(items))
	copy(cp, items)
	b.build(cp)
	return b
}

func (b *BVH[T]) build(items []T) {
	b.appendSubtree(items)
}

// appendSubtree appends the flattened subtree for items to b.nodes and
// returns its root index.
func (b *BVH[T]) appendSubtree(items []T) int {
	rootIdx := len(b.nodes)
	bounds := unionAll(items)

	if len(items) == 1 {
		b.nodes = append(b.nodes, bvhNode[T]{bounds: bounds, item: items[0], isLeaf: true, subtreeSize: 1})
		return rootIdx
	}

	axis, splitPos, ok := findSAHSplit(items, bounds)
	var left, right []T
	if ok {
		left, right = partitionByPosition(items, axis, splitPos)
	}
	if !ok || len(left) == 0 || len(right) == 0 {
		axis = bounds.LongestAxis()
		left, right = evenCountSplit(items, axis)
	}

	// Reserve this node's slot, then append both children; the
	// interior node carries no item.
	b.nodes = append(b.nodes, bvhNode[T]{})
	b.appendSubtree(left)
	b.appendSubtree(right)
	size := len(b.nodes) - rootIdx
	b.nodes[rootIdx] = bvhNode[T]{bounds: bounds, isLeaf: false, subtreeSize: size}
	return rootIdx
}

func unionAll[T Bounder](items []T) core.AABB {
	box := items[0].AABB()
	for _, it := range items[1:] {
		box = box.Union(it.AABB())
	}
	return box
}

// findSAHSplit bins centroids into sahBuckets buckets along the widest
// axis and returns the minimum-cost split boundary. ok is false when
// the axis has (near) zero extent and the caller must fall back to an
// even count-split.
func findSAHSplit[T Bounder](items []T, bounds core.AABB) (axis int, splitPos float64, ok bool) {
	c0 := items[0].AABB().Center()
	centroids := core.NewAABB(c0, c0)
	for _, it := range items[1:] {
		c := it.AABB().Center()
		centroids = centroids.Union(core.NewAABB(c, c))
	}
	axis = centroids.LongestAxis()
	minVal, maxVal := centroids.AxisMin(axis), centroids.AxisMax(axis)
	const epsilon = 1e-9
	if maxVal-minVal < epsilon {
		return axis, 0, false
	}

	type bucket struct {
		count int
		bound core.AABB
		has   bool
	}
	buckets := make([]bucket, sahBuckets)
	bucketOf := func(it T) int {
		center := centerAxis(it, axis)
		b := int((center - minVal) / (maxVal - minVal) * float64(sahBuckets))
		if b < 0 {
			b = 0
		}
		if b >= sahBuckets {
			b = sahBuckets - 1
		}
		return b
	}
	for _, it := range items {
		bi := bucketOf(it)
		bk := buckets[bi]
		box := it.AABB()
		if !bk.has {
			bk.bound = box
			bk.has = true
		} else {
			bk.bound = bk.bound.Union(box)
		}
		bk.count++
		buckets[bi] = bk
	}

	parentSA := bounds.SurfaceArea()
	if parentSA == 0 {
		return axis, 0, false
	}

	bestCost := -1.0
	bestSplit := -1
	for k := 1; k < sahBuckets; k++ {
		var lCount, rCount int
		var lBox, rBox core.AABB
		haveL, haveR := false, false
		for i := 0; i < k; i++ {
			if buckets[i].count == 0 {
				continue
			}
			lCount += buckets[i].count
			if !haveL {
				lBox, haveL = buckets[i].bound, true
			} else {
				lBox = lBox.Union(buckets[i].bound)
			}
		}
		for i := k; i < sahBuckets; i++ {
			if buckets[i].count == 0 {
				continue
			}
			rCount += buckets[i].count
			if !haveR {
				rBox, haveR = buckets[i].bound, true
			} else {
				rBox = rBox.Union(buckets[i].bound)
			}
		}
		if lCount == 0 || rCount == 0 {
			continue
		}
		cost := (float64(lCount)*lBox.SurfaceArea() + float64(rCount)*rBox.SurfaceArea()) / parentSA
		if bestSplit == -1 || cost < bestCost {
			bestCost = cost
			bestSplit = k
		}
	}
	if bestSplit == -1 {
		return axis, 0, false
	}
	splitPos = minVal + (maxVal-minVal)*float64(bestSplit)/float64(sahBuckets)
	return axis, splitPos, true
}

func centerAxis[T Bounder](it T, axis int) float64 {
	c := it.AABB().Center()
	return core.NewAABB(c, c).AxisMin(axis)
}

func partitionByPosition[T Bounder](items []T, axis int, splitPos float64) (left, right []T) {
	for _, it := range items {
		if centerAxis(it, axis) < splitPos {
			left = append(left, it)
		} else {
			right = append(right, it)
		}
	}
	return left, right
}

// evenCountSplit sorts by centroid along axis and splits at the median,
// the degenerate-axis fallback spec.md §4.B names.
func evenCountSplit[T Bounder](items []T, axis int) (left, right []T) {
	sorted := make([]T, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool {
		return centerAxis(sorted[i], axis) < centerAxis(sorted[j], axis)
	})
	mid := len(sorted) / 2
	return sorted[:mid], sorted[mid:]
}

// Hit performs the flat pre-order traversal described in spec.md §4.B:
// nodes are visited in array order; a missed AABB test skips the whole
// subtree via subtreeSize; test is invoked at leaves and the bound is
// tightened with each acceptance, so "first" acceptance in traversal
// order combined with progressive tightening yields the closest hit.
func (b *BVH[T]) Hit(ray core.Ray, tMin, tMax float64, test func(item T, tMin, tMax float64) (t float64, ok bool)) (result T, hitT float64, found bool) {
	i := 0
	closest := tMax
	for i < len(b.nodes) {
		node := &b.nodes[i]
		if !node.bounds.Hit(ray, tMin, closest) {
			i += node.subtreeSize
			continue
		}
		if node.isLeaf {
			if t, ok := test(node.item, tMin, closest); ok {
				closest = t
				result = node.item
				hitT = t
				found = true
			}
			i++
			continue
		}
		i++ // descend into left child, which is the very next array slot
	}
	return result, hitT, found
}

// QuerySphere is spec.md §4.B's secondary point-radius traversal used
// to gather SPPM visible points: every leaf whose bounding box could
// contain point is passed to visit, which is responsible for the
// precise sphere-containment test against the item's own stored
// radius (the BVH only knows each leaf's AABB, not its sphere).
func (b *BVH[T]) QuerySphere(point core.Vec3, visit func(item T)) {
	i := 0
	for i < len(b.nodes) {
		node := &b.nodes[i]
		if !node.bounds.Contains(point) {
			i += node.subtreeSize
			continue
		}
		if node.isLeaf {
			visit(node.item)
			i++
			continue
		}
		i++
	}
}

// NodeCount returns the number of flat nodes, used by tests asserting
// e.g. "single-primitive BVH returns a leaf with no interior nodes".
func (b *BVH[T]) NodeCount() int { return len(b.nodes) }

// IsLeafOnly reports whether the BVH is a single leaf node.
func (b *BVH[T]) IsLeafOnly() bool { return len(b.nodes) == 1 && b.nodes[0].isLeaf }
