package integrator

import (
	"github.com/minilight/go-minilight/pkg/core"
	"github.com/minilight/go-minilight/pkg/geometry"
	"github.com/minilight/go-minilight/pkg/material"
	"github.com/minilight/go-minilight/pkg/scene"
)

// PathTracer is the recursive radiance estimator: unidirectional path
// tracing with next-event emitter sampling and Russian-roulette termination.
type PathTracer struct {
	scene *scene.Scene
}

// NewPathTracer creates a path tracer for the scene
func NewPathTracer(s *scene.Scene) *PathTracer {
	return &PathTracer{scene: s}
}

// Radiance returns the radiance arriving at origin from direction.
// lastHit is the previously hit triangle to skip, nil on the first bounce
// from the camera. Emission is taken directly only on that first bounce;
// subsequent bounces account for it via emitter sampling, which avoids
// double-counting.
func (pt *PathTracer) Radiance(origin, direction core.Vec3, sampler core.Sampler, lastHit *geometry.Triangle) core.Vec3 {
	ray := core.NewRay(origin, direction)

	hit, position, ok := pt.scene.Intersect(ray, lastHit)
	if !ok {
		return pt.scene.DefaultEmission(direction.Negate())
	}

	sp := material.NewSurfacePoint(hit, position)

	var radiance core.Vec3
	if lastHit == nil {
		radiance = sp.Emission(origin, direction.Negate(), false)
	}

	radiance = radiance.Add(pt.sampleEmitters(direction, sp, sampler))

	nextDirection, color := sp.NextDirection(sampler, direction.Negate())
	if !nextDirection.IsZero() {
		radiance = radiance.Add(color.MultiplyVec(
			pt.Radiance(sp.Position, nextDirection, sampler, sp.Triangle)))
	}

	return radiance
}

// sampleEmitters estimates direct lighting at the surface point by sampling
// one emitter uniformly. The shadow ray counts as unoccluded only when it
// hits nothing or hits the chosen emitter itself; the emitter count factor
// corrects the estimator for uniform selection.
func (pt *PathTracer) sampleEmitters(direction core.Vec3, sp material.SurfacePoint, sampler core.Sampler) core.Vec3 {
	emitterPosition, emitter := pt.scene.SampleEmitter(sampler)
	if emitter == nil {
		return core.Vec3{}
	}

	emitDirection := emitterPosition.Subtract(sp.Position).Normalize()

	shadowRay := core.NewRay(sp.Position, emitDirection)
	occluder, _, occluded := pt.scene.Intersect(shadowRay, sp.Triangle)

	var emissionIn core.Vec3
	if !occluded || occluder == emitter {
		emissionIn = material.NewSurfacePoint(emitter, emitterPosition).
			Emission(sp.Position, emitDirection.Negate(), true)
	}

	return sp.Reflection(
		emitDirection,
		emissionIn.Multiply(float64(pt.scene.EmittersCount())),
		direction.Negate())
}
