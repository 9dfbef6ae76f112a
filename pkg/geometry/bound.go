package geometry

import (
	"math"

	"github.com/minilight/go-minilight/pkg/core"
)

// Bound represents an axis-aligned bounding box
type Bound struct {
	Lo core.Vec3 // Minimum corner
	Hi core.Vec3 // Maximum corner
}

// NewBound creates a new Bound from min and max corners
func NewBound(lo, hi core.Vec3) Bound {
	return Bound{Lo: lo, Hi: hi}
}

// Encapsulate returns a bound grown to include the given point
func (b Bound) Encapsulate(p core.Vec3) Bound {
	return Bound{
		Lo: core.Vec3{
			X: math.Min(b.Lo.X, p.X),
			Y: math.Min(b.Lo.Y, p.Y),
			Z: math.Min(b.Lo.Z, p.Z),
		},
		Hi: core.Vec3{
			X: math.Max(b.Hi.X, p.X),
			Y: math.Max(b.Hi.Y, p.Y),
			Z: math.Max(b.Hi.Z, p.Z),
		},
	}
}

// Union returns a bound covering both this bound and another
func (b Bound) Union(other Bound) Bound {
	return b.Encapsulate(other.Lo).Encapsulate(other.Hi)
}

// Expand returns a bound widened by the given amount in all six directions
func (b Bound) Expand(amount float64) Bound {
	e := core.NewVec3(amount, amount, amount)
	return Bound{Lo: b.Lo.Subtract(e), Hi: b.Hi.Add(e)}
}

// Size returns the extent along each axis
func (b Bound) Size() core.Vec3 {
	return b.Hi.Subtract(b.Lo)
}

// Center returns the midpoint of the bound
func (b Bound) Center() core.Vec3 {
	return b.Lo.Add(b.Hi).Multiply(0.5)
}

// Contains reports whether the point lies within the bound expanded by
// tolerance on each side
func (b Bound) Contains(p core.Vec3, tolerance float64) bool {
	for axis := 0; axis < 3; axis++ {
		if p.Axis(axis) < b.Lo.Axis(axis)-tolerance || p.Axis(axis) > b.Hi.Axis(axis)+tolerance {
			return false
		}
	}
	return true
}

// Overlaps reports whether the two bounds overlap on every axis,
// inclusive on the low side and exclusive on the high side
func (b Bound) Overlaps(other Bound) bool {
	for axis := 0; axis < 3; axis++ {
		if b.Lo.Axis(axis) >= other.Hi.Axis(axis) || b.Hi.Axis(axis) < other.Lo.Axis(axis) {
			return false
		}
	}
	return true
}
