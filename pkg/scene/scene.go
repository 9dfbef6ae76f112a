package scene

import (
	"github.com/minilight/go-minilight/pkg/core"
	"github.com/minilight/go-minilight/pkg/geometry"
)

// MaxTriangles bounds the number of triangles a scene will hold
const MaxTriangles = 1 << 24

// Scene owns the triangles, the emitter subset, the spatial index, and the
// background emission. Immutable once built.
type Scene struct {
	triangles []*geometry.Triangle
	emitters  []*geometry.Triangle
	index     *geometry.SpatialIndex

	skyEmission      core.Vec3
	groundReflection core.Vec3
}

// NewScene builds a scene from the eye position, background values and
// triangle list. The eye position is included in the spatial index root so
// traversal can start from the camera.
func NewScene(eye, skyEmission, groundReflection core.Vec3, triangles []*geometry.Triangle) *Scene {
	if len(triangles) > MaxTriangles {
		triangles = triangles[:MaxTriangles]
	}

	sky := skyEmission.ClampMin(0)
	s := &Scene{
		triangles:        triangles,
		skyEmission:      sky,
		groundReflection: sky.MultiplyVec(groundReflection.Clamp(0, 1)),
	}

	for _, t := range triangles {
		if t.IsEmitter() {
			s.emitters = append(s.emitters, t)
		}
	}

	s.index = geometry.NewSpatialIndex(eye, triangles)
	return s
}

// Intersect returns the nearest triangle hit by the ray, skipping lastHit
func (s *Scene) Intersect(ray core.Ray, lastHit *geometry.Triangle) (*geometry.Triangle, core.Vec3, bool) {
	return s.index.Intersect(ray, lastHit)
}

// SampleEmitter selects an emitter uniformly and returns a uniformly
// sampled point on it. With no emitters it returns the zero vector and nil.
func (s *Scene) SampleEmitter(sampler core.Sampler) (core.Vec3, *geometry.Triangle) {
	if len(s.emitters) == 0 {
		return core.Vec3{}, nil
	}

	index := int(sampler.Float64() * float64(len(s.emitters)))
	if index > len(s.emitters)-1 {
		index = len(s.emitters) - 1
	}
	emitter := s.emitters[index]
	return emitter.SamplePoint(sampler), emitter
}

// EmittersCount returns the number of emitting triangles
func (s *Scene) EmittersCount() int {
	return len(s.emitters)
}

// TrianglesCount returns the number of triangles owned by the scene
func (s *Scene) TrianglesCount() int {
	return len(s.triangles)
}

// DefaultEmission returns the background emission seen by an escaped ray.
// backDir points back along the ray: a ray leaving downward came from the
// sky, so a strictly negative y selects the sky emission and anything else
// the ground reflection.
func (s *Scene) DefaultEmission(backDir core.Vec3) core.Vec3 {
	if backDir.Y < 0.0 {
		return s.skyEmission
	}
	return s.groundReflection
}
