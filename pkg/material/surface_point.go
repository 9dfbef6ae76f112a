package material

import (
	"math"

	"github.com/minilight/go-minilight/pkg/core"
	"github.com/minilight/go-minilight/pkg/geometry"
)

// SurfacePoint is the local shading contract at a ray hit: front-face
// emission, Lambertian reflection, and sampled path continuation.
// All direction parameters are unit vectors pointing away from the surface.
type SurfacePoint struct {
	Triangle *geometry.Triangle
	Position core.Vec3
}

// NewSurfacePoint creates a surface point on a triangle
func NewSurfacePoint(triangle *geometry.Triangle, position core.Vec3) SurfacePoint {
	return SurfacePoint{Triangle: triangle, Position: position}
}

// Emission returns the emitted radiance from this point toward toPosition.
// With isSolidAngle set the value is scaled by the projected solid angle the
// emitting area subtends at toPosition, as used in next-event estimation.
// Back faces emit nothing.
func (sp SurfacePoint) Emission(toPosition, outDir core.Vec3, isSolidAngle bool) core.Vec3 {
	ray := toPosition.Subtract(sp.Position)
	distance2 := ray.Dot(ray)
	cosArea := outDir.Dot(sp.Triangle.Normal()) * sp.Triangle.Area()

	if cosArea <= 0.0 {
		return core.Vec3{}
	}

	// Clamp the distance singularity for very close query points
	solidAngle := cosArea / math.Max(distance2, 1e-6)
	if !isSolidAngle {
		solidAngle = 1.0
	}
	return sp.Triangle.Emissivity.Multiply(solidAngle)
}

// Reflection returns inRadiance reflected from inDir toward outDir through
// the Lambertian BRDF. Directions on opposite sides of the surface reflect
// nothing.
func (sp SurfacePoint) Reflection(inDir core.Vec3, inRadiance core.Vec3, outDir core.Vec3) core.Vec3 {
	inDot := inDir.Dot(sp.Triangle.Normal())
	outDot := outDir.Dot(sp.Triangle.Normal())

	if (inDot < 0.0) != (outDot < 0.0) {
		return core.Vec3{}
	}

	return inRadiance.MultiplyVec(sp.Triangle.Reflectivity).Multiply(math.Abs(inDot) / math.Pi)
}

// NextDirection samples a direction for path continuation: Russian-roulette
// termination with survival probability equal to the mean reflectivity, then
// a cosine-weighted hemisphere sample around the side of the surface facing
// inDir. Returns the zero vector when the path terminates; otherwise the
// carried color compensates for the survival probability so the estimator
// remains unbiased.
func (sp SurfacePoint) NextDirection(sampler core.Sampler, inDir core.Vec3) (core.Vec3, core.Vec3) {
	reflectivityMean := sp.Triangle.Reflectivity.Dot(core.One) / 3.0

	if sampler.Float64() >= reflectivityMean {
		return core.Vec3{}, core.Vec3{}
	}
	color := sp.Triangle.Reflectivity.Multiply(1.0 / reflectivityMean)

	// Cosine-weighted importance sampling in local coordinates
	phi := 2.0 * math.Pi * sampler.Float64()
	r2 := sampler.Float64()
	s := math.Sqrt(r2)
	x := math.Cos(phi) * s
	y := math.Sin(phi) * s
	z := math.Sqrt(1.0 - r2)

	// Local frame around the normal, flipped to the side inDir arrives from
	// so either face reflects
	normal := sp.Triangle.Normal()
	if normal.Dot(inDir) < 0.0 {
		normal = normal.Negate()
	}
	tangent := sp.Triangle.Tangent()

	outDir := tangent.Multiply(x).
		Add(normal.Cross(tangent).Multiply(y)).
		Add(normal.Multiply(z))

	return outDir, color
}
