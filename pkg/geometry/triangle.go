package geometry

import (
	"math"

	"github.com/minilight/go-minilight/pkg/core"
)

// Tolerance is the amount by which triangle bounds are widened, and the
// slack allowed when testing hit points for cell containment.
const Tolerance = 1.0 / 1024.0

// epsilon is the determinant threshold below which a ray is treated as
// parallel to the triangle's plane.
const epsilon = 1.0 / 1048576.0

// Triangle represents a single triangle with its surface qualities.
// Immutable after construction.
type Triangle struct {
	V0, V1, V2   core.Vec3 // The three vertices
	Reflectivity core.Vec3 // Diffuse reflectivity, each component in [0, 1]
	Emissivity   core.Vec3 // Emitted radiance, each component >= 0

	tangent core.Vec3 // Cached unit edge v0->v1
	normal  core.Vec3 // Cached unit normal
	area    float64   // Cached surface area
	bound   Bound     // Cached tolerance-expanded bounding box
}

// NewTriangle creates a new triangle from three vertices and its surface
// qualities, clamping the qualities to their valid ranges
func NewTriangle(v0, v1, v2, reflectivity, emissivity core.Vec3) *Triangle {
	t := &Triangle{
		V0:           v0,
		V1:           v1,
		V2:           v2,
		Reflectivity: reflectivity.Clamp(0, 1),
		Emissivity:   emissivity.ClampMin(0),
	}

	edge1 := v1.Subtract(v0)
	edge3 := v2.Subtract(v1)
	t.tangent = edge1.Normalize()
	t.normal = t.tangent.Cross(edge3).Normalize()
	t.area = 0.5 * edge1.Cross(edge3).Length()
	t.computeBound()

	return t
}

// computeBound calculates and caches the tolerance-expanded bounding box
func (t *Triangle) computeBound() {
	b := Bound{Lo: t.V2, Hi: t.V2}
	b = b.Encapsulate(t.V0)
	b = b.Encapsulate(t.V1)
	t.bound = b.Expand(Tolerance)
}

// Bound returns the triangle's bounding box, widened by Tolerance on each side
func (t *Triangle) Bound() Bound {
	return t.bound
}

// Normal returns the unit surface normal
func (t *Triangle) Normal() core.Vec3 {
	return t.normal
}

// Tangent returns the unit tangent along the v0->v1 edge
func (t *Triangle) Tangent() core.Vec3 {
	return t.tangent
}

// Area returns the surface area
func (t *Triangle) Area() float64 {
	return t.area
}

// IsEmitter reports whether the triangle emits light: non-zero emissivity
// over a positive area
func (t *Triangle) IsEmitter() bool {
	return !t.Emissivity.IsZero() && t.area > 0
}

// Intersect tests the ray against the triangle using the Möller–Trumbore
// algorithm, returning the hit distance along the ray. Both faces are
// intersectable; orientation is resolved at shading time.
func (t *Triangle) Intersect(ray core.Ray) (float64, bool) {
	edge1 := t.V1.Subtract(t.V0)
	edge2 := t.V2.Subtract(t.V0)

	p := ray.Direction.Cross(edge2)
	det := edge1.Dot(p)

	// Near-zero determinant: ray is parallel to the triangle's plane
	if det > -epsilon && det < epsilon {
		return 0, false
	}

	invDet := 1.0 / det
	s := ray.Origin.Subtract(t.V0)
	u := s.Dot(p) * invDet
	if u < 0.0 || u > 1.0 {
		return 0, false
	}

	q := s.Cross(edge1)
	v := ray.Direction.Dot(q) * invDet
	if v < 0.0 || u+v > 1.0 {
		return 0, false
	}

	hitT := edge2.Dot(q) * invDet
	if hitT < 0.0 {
		return 0, false
	}

	return hitT, true
}

// SamplePoint returns a uniformly distributed random point on the triangle
func (t *Triangle) SamplePoint(sampler core.Sampler) core.Vec3 {
	sqr1 := math.Sqrt(sampler.Float64())
	r2 := sampler.Float64()

	a := 1.0 - sqr1
	b := (1.0 - r2) * sqr1

	edge1 := t.V1.Subtract(t.V0)
	edge2 := t.V2.Subtract(t.V0)
	return t.V0.Add(edge1.Multiply(a)).Add(edge2.Multiply(b))
}
