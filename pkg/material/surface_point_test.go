package material

import (
	"math"
	"testing"

	"github.com/minilight/go-minilight/pkg/core"
	"github.com/minilight/go-minilight/pkg/geometry"
)

// scriptedSampler replays a fixed sequence of deviates
type scriptedSampler struct {
	values []float64
	next   int
}

func (s *scriptedSampler) UInt32() uint32 { return 0 }

func (s *scriptedSampler) Float64() float64 {
	v := s.values[s.next%len(s.values)]
	s.next++
	return v
}

// floorTriangle returns a unit right triangle in the XZ plane with normal +Y
func floorTriangle(reflectivity, emissivity core.Vec3) *geometry.Triangle {
	return geometry.NewTriangle(
		core.NewVec3(0, 0, 0),
		core.NewVec3(0, 0, 1),
		core.NewVec3(1, 0, 0),
		reflectivity,
		emissivity,
	)
}

func TestSurfacePoint_Emission(t *testing.T) {
	emissivity := core.NewVec3(10, 20, 30)
	tri := floorTriangle(core.NewVec3(0.5, 0.5, 0.5), emissivity)
	sp := NewSurfacePoint(tri, core.NewVec3(0.25, 0, 0.25))

	t.Run("front face radiance", func(t *testing.T) {
		got := sp.Emission(core.NewVec3(0.25, 2, 0.25), core.NewVec3(0, 1, 0), false)
		if got != emissivity {
			t.Errorf("expected raw emissivity %v, got %v", emissivity, got)
		}
	})

	t.Run("back face emits nothing", func(t *testing.T) {
		got := sp.Emission(core.NewVec3(0.25, -2, 0.25), core.NewVec3(0, -1, 0), false)
		if !got.IsZero() {
			t.Errorf("expected zero back-face emission, got %v", got)
		}
	})

	t.Run("solid angle scaling", func(t *testing.T) {
		// Query point straight above at distance 2: cosine 1, d^2 = 4
		got := sp.Emission(core.NewVec3(0.25, 2, 0.25), core.NewVec3(0, 1, 0), true)
		want := emissivity.Multiply(tri.Area() / 4.0)
		if math.Abs(got.X-want.X) > 1e-12 || math.Abs(got.Y-want.Y) > 1e-12 || math.Abs(got.Z-want.Z) > 1e-12 {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("distance singularity clamped", func(t *testing.T) {
		// A query point on top of the surface point must not blow up
		got := sp.Emission(sp.Position, core.NewVec3(0, 1, 0), true)
		want := emissivity.Multiply(tri.Area() / 1e-6)
		if math.Abs(got.X-want.X) > 1e-6 {
			t.Errorf("expected clamped %v, got %v", want, got)
		}
	})
}

func TestSurfacePoint_Reflection(t *testing.T) {
	reflectivity := core.NewVec3(0.6, 0.4, 0.2)
	tri := floorTriangle(reflectivity, core.Vec3{})
	sp := NewSurfacePoint(tri, core.NewVec3(0.25, 0, 0.25))
	inRadiance := core.NewVec3(1, 1, 1)

	t.Run("same side reflects", func(t *testing.T) {
		inDir := core.NewVec3(0, 1, 0)
		outDir := core.NewVec3(0.5, 0.5, 0).Normalize()
		got := sp.Reflection(inDir, inRadiance, outDir)

		// cosine of inDir with normal is 1
		want := reflectivity.Multiply(1.0 / math.Pi)
		if math.Abs(got.X-want.X) > 1e-12 || math.Abs(got.Y-want.Y) > 1e-12 || math.Abs(got.Z-want.Z) > 1e-12 {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("opposite sides reflect nothing", func(t *testing.T) {
		got := sp.Reflection(core.NewVec3(0, 1, 0), inRadiance, core.NewVec3(0, -1, 0))
		if !got.IsZero() {
			t.Errorf("expected zero, got %v", got)
		}
	})

	t.Run("both below still reflects", func(t *testing.T) {
		got := sp.Reflection(core.NewVec3(0, -1, 0), inRadiance, core.NewVec3(0, -1, 0))
		want := reflectivity.Multiply(1.0 / math.Pi)
		if math.Abs(got.X-want.X) > 1e-12 {
			t.Errorf("expected %v, got %v", want, got)
		}
	})
}

func TestSurfacePoint_NextDirection(t *testing.T) {
	t.Run("terminates on russian roulette", func(t *testing.T) {
		tri := floorTriangle(core.NewVec3(0.5, 0.5, 0.5), core.Vec3{})
		sp := NewSurfacePoint(tri, core.NewVec3(0.25, 0, 0.25))

		// Mean reflectivity is 0.5; a first draw of 0.5 terminates
		sampler := &scriptedSampler{values: []float64{0.5}}
		dir, color := sp.NextDirection(sampler, core.NewVec3(0, 1, 0))
		if !dir.IsZero() || !color.IsZero() {
			t.Errorf("expected terminated path, got dir=%v color=%v", dir, color)
		}
	})

	t.Run("black surface always terminates", func(t *testing.T) {
		tri := floorTriangle(core.Vec3{}, core.Vec3{})
		sp := NewSurfacePoint(tri, core.NewVec3(0.25, 0, 0.25))

		sampler := &scriptedSampler{values: []float64{0.0}}
		dir, _ := sp.NextDirection(sampler, core.NewVec3(0, 1, 0))
		if !dir.IsZero() {
			t.Errorf("expected terminated path on zero reflectivity, got %v", dir)
		}
	})

	t.Run("survivor is compensated and unit length", func(t *testing.T) {
		reflectivity := core.NewVec3(0.8, 0.6, 0.4)
		tri := floorTriangle(reflectivity, core.Vec3{})
		sp := NewSurfacePoint(tri, core.NewVec3(0.25, 0, 0.25))

		sampler := &scriptedSampler{values: []float64{0.1, 0.3, 0.7}}
		dir, color := sp.NextDirection(sampler, core.NewVec3(0, 1, 0))

		if dir.IsZero() {
			t.Fatal("expected surviving path")
		}
		if math.Abs(dir.Length()-1.0) > 1e-9 {
			t.Errorf("expected unit direction, got length %v", dir.Length())
		}

		mean := (0.8 + 0.6 + 0.4) / 3.0
		want := reflectivity.Multiply(1.0 / mean)
		if math.Abs(color.X-want.X) > 1e-12 || math.Abs(color.Y-want.Y) > 1e-12 || math.Abs(color.Z-want.Z) > 1e-12 {
			t.Errorf("expected survival-compensated color %v, got %v", want, color)
		}

		// Sampled direction must lie in the hemisphere inDir arrived from
		if dir.Dot(tri.Normal()) <= 0 {
			t.Errorf("direction %v not in the upper hemisphere", dir)
		}
	})

	t.Run("frame flips for the underside", func(t *testing.T) {
		tri := floorTriangle(core.NewVec3(0.9, 0.9, 0.9), core.Vec3{})
		sp := NewSurfacePoint(tri, core.NewVec3(0.25, 0, 0.25))

		sampler := &scriptedSampler{values: []float64{0.1, 0.3, 0.7}}
		dir, _ := sp.NextDirection(sampler, core.NewVec3(0, -1, 0))

		if dir.IsZero() {
			t.Fatal("expected surviving path")
		}
		if dir.Dot(tri.Normal()) >= 0 {
			t.Errorf("direction %v not flipped to the lower hemisphere", dir)
		}
	})
}
