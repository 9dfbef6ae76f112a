package geometry

import (
	"math"

	"github.com/minilight/go-minilight/pkg/core"
)

const (
	// maxLevels bounds the octree depth
	maxLevels = 44
	// maxItems is the leaf threshold: nodes holding this many triangles or
	// fewer are not subdivided
	maxItems = 8
)

// octreeNode is a tagged variant: branches carry eight child slots,
// leaves carry the triangles whose bounds overlap the cell.
type octreeNode struct {
	bound    Bound
	children *[8]*octreeNode // nil for leaf nodes; empty subcells are nil slots
	items    []*Triangle     // leaf nodes only
}

// SpatialIndex accelerates ray-scene intersection with a cubical octree
// built over the triangle bounds
type SpatialIndex struct {
	root *octreeNode
}

// NewSpatialIndex builds an octree over the triangles. The root cell is a
// cube covering the eye position and every triangle bound.
func NewSpatialIndex(eye core.Vec3, items []*Triangle) *SpatialIndex {
	bound := Bound{Lo: eye, Hi: eye}
	for _, item := range items {
		bound = bound.Union(item.Bound())
	}

	// Make the root cubical by extending the upper corner to the largest
	// extent along any axis
	size := bound.Size()
	maxSize := math.Max(size.X, math.Max(size.Y, size.Z))
	bound.Hi = core.Vec3{
		X: math.Max(bound.Hi.X, bound.Lo.X+maxSize),
		Y: math.Max(bound.Hi.Y, bound.Lo.Y+maxSize),
		Z: math.Max(bound.Hi.Z, bound.Lo.Z+maxSize),
	}

	return &SpatialIndex{root: newOctreeNode(bound, items, 0)}
}

// newOctreeNode recursively subdivides. A node becomes a branch only while
// it is over the leaf threshold and under the depth limit.
func newOctreeNode(bound Bound, items []*Triangle, level int) *octreeNode {
	if len(items) <= maxItems || level >= maxLevels-1 {
		return &octreeNode{bound: bound, items: items}
	}

	node := &octreeNode{bound: bound, children: new([8]*octreeNode)}
	mid := bound.Center()

	// q1 counts subcells inheriting the entire parent item set. One such
	// subcell is legitimate for scenes spanning many decades of scale; a
	// second indicates degenerate subdivision, so recursion is curtailed by
	// forcing the terminal level.
	q1 := 0
	for subCell := 0; subCell < 8; subCell++ {
		subBound := subCellBound(bound, mid, subCell)

		var subItems []*Triangle
		for _, item := range items {
			if item.Bound().Overlaps(subBound) {
				subItems = append(subItems, item)
			}
		}
		if len(subItems) == 0 {
			continue
		}

		if len(subItems) == len(items) {
			q1++
		}
		// q2: the subcell is too small to usefully subdivide further
		q2 := (subBound.Hi.X - subBound.Lo.X) < (Tolerance * 4.0)

		nextLevel := level + 1
		if q1 > 1 || q2 {
			nextLevel = maxLevels
		}
		node.children[subCell] = newOctreeNode(subBound, subItems, nextLevel)
	}

	return node
}

// subCellBound halves the bound along each axis, selecting the high half
// on axis i iff bit i of subCell is set
func subCellBound(bound Bound, mid core.Vec3, subCell int) Bound {
	var sub Bound
	lo := [3]float64{bound.Lo.X, bound.Lo.Y, bound.Lo.Z}
	hi := [3]float64{bound.Hi.X, bound.Hi.Y, bound.Hi.Z}
	m := [3]float64{mid.X, mid.Y, mid.Z}

	var subLo, subHi [3]float64
	for axis := 0; axis < 3; axis++ {
		if (subCell>>axis)&1 != 0 {
			subLo[axis], subHi[axis] = m[axis], hi[axis]
		} else {
			subLo[axis], subHi[axis] = lo[axis], m[axis]
		}
	}
	sub.Lo = core.NewVec3(subLo[0], subLo[1], subLo[2])
	sub.Hi = core.NewVec3(subHi[0], subHi[1], subHi[2])
	return sub
}

// Intersect returns the nearest triangle hit by the ray, skipping lastHit
// to avoid self-intersection artifacts
func (si *SpatialIndex) Intersect(ray core.Ray, lastHit *Triangle) (*Triangle, core.Vec3, bool) {
	return si.root.intersect(ray, lastHit, ray.Origin)
}

// intersect walks the node. For branches it visits subcells in ray order,
// stepping across subcell faces; the first subcell hit is therefore the
// nearest. For leaves it tests every item and keeps hits inside the cell.
func (n *octreeNode) intersect(ray core.Ray, lastHit *Triangle, start core.Vec3) (*Triangle, core.Vec3, bool) {
	if n.children == nil {
		return n.intersectItems(ray, lastHit)
	}

	mid := n.bound.Center()

	// Subcell containing the start position
	subCell := 0
	for axis := 0; axis < 3; axis++ {
		if start.Axis(axis) >= mid.Axis(axis) {
			subCell |= 1 << axis
		}
	}

	cellPosition := start
	for {
		if child := n.children[subCell]; child != nil {
			if hit, pos, ok := child.intersect(ray, lastHit, cellPosition); ok {
				return hit, pos, true
			}
		}

		// Find the next face the ray crosses: the exit face on each axis is
		// the midpoint when moving toward it, the outer bound when moving
		// away, and the nearest of the three is crossed first.
		step := math.Inf(1)
		axis := 0
		for i := 0; i < 3; i++ {
			high := (subCell >> i) & 1
			var face float64
			if (ray.Direction.Axis(i) < 0.0) != (high == 1) {
				if high == 1 {
					face = n.bound.Hi.Axis(i)
				} else {
					face = n.bound.Lo.Axis(i)
				}
			} else {
				face = mid.Axis(i)
			}
			distance := (face - ray.Origin.Axis(i)) / ray.Direction.Axis(i)
			if distance < step {
				step = distance
				axis = i
			}
		}

		// Crossing that face in the direction away from the midpoint leaves
		// the parent cell entirely
		if (sbit(subCell, axis) * ray.Direction.Axis(axis)) < 0.0 {
			return nil, core.Vec3{}, false
		}

		cellPosition = ray.At(step)
		subCell ^= 1 << axis
	}
}

// sbit encodes the face normal direction of subcell n along the axis:
// -1 if the subcell occupies the high half, +1 otherwise
func sbit(subCell, axis int) float64 {
	if (subCell>>axis)&1 != 0 {
		return -1.0
	}
	return 1.0
}

// intersectItems returns the nearest item hit whose hit point lies within
// the cell bound (expanded by Tolerance). The containment test is what
// guarantees a triangle straddling cell boundaries is reported exactly once,
// by the first cell in ray order containing a valid hit.
func (n *octreeNode) intersectItems(ray core.Ray, lastHit *Triangle) (*Triangle, core.Vec3, bool) {
	nearestDistance := math.Inf(1)
	var nearestItem *Triangle
	var nearestPosition core.Vec3

	for _, item := range n.items {
		if item == lastHit {
			continue
		}
		distance, ok := item.Intersect(ray)
		if !ok || distance >= nearestDistance {
			continue
		}
		position := ray.At(distance)
		if !n.bound.Contains(position, Tolerance) {
			continue
		}
		nearestDistance = distance
		nearestItem = item
		nearestPosition = position
	}

	return nearestItem, nearestPosition, nearestItem != nil
}
