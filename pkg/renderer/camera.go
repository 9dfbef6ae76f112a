package renderer

import (
	"math"

	"github.com/minilight/go-minilight/pkg/core"
	"github.com/minilight/go-minilight/pkg/integrator"
	"github.com/minilight/go-minilight/pkg/scene"
)

// View angle limits in degrees
const (
	viewAngleMin = 10.0
	viewAngleMax = 160.0
)

// Camera generates one jittered ray per pixel per frame
type Camera struct {
	viewPosition  core.Vec3
	viewAngle     float64 // Radians
	viewDirection core.Vec3
	right         core.Vec3
	up            core.Vec3
}

// NewCamera creates a camera at position looking along direction with the
// given view angle in degrees (clamped to [10, 160])
func NewCamera(position, direction core.Vec3, angleDegrees float64) *Camera {
	c := &Camera{viewPosition: position}

	c.viewDirection = direction.Normalize()
	if c.viewDirection.IsZero() {
		c.viewDirection = core.NewVec3(0, 0, 1)
	}

	c.viewAngle = max(viewAngleMin, min(viewAngleMax, angleDegrees)) * (math.Pi / 180.0)

	// View frame: right from world up, with a fallback when the view
	// direction is parallel to the Y axis
	c.right = core.NewVec3(0, 1, 0).Cross(c.viewDirection).Normalize()
	if c.right.IsZero() {
		z := 1.0
		if c.viewDirection.Y > 0 {
			z = -1.0
		}
		c.up = core.NewVec3(0, 0, z)
		c.right = c.up.Cross(c.viewDirection).Normalize()
	}
	c.up = c.viewDirection.Cross(c.right).Normalize()

	return c
}

// EyePoint returns the camera position
func (c *Camera) EyePoint() core.Vec3 {
	return c.viewPosition
}

// Frame accumulates one complete frame into the image: one stratified
// jittered sample per pixel, traced through the scene
func (c *Camera) Frame(s *scene.Scene, tracer *integrator.PathTracer, sampler core.Sampler, image *Image) {
	c.FrameRows(s, tracer, sampler, image, 0, image.Height())
}

// FrameRows renders the pixel rows [yStart, yEnd) of a frame. Rows are
// disjoint, so concurrent calls with distinct ranges are safe.
func (c *Camera) FrameRows(s *scene.Scene, tracer *integrator.PathTracer, sampler core.Sampler, image *Image, yStart, yEnd int) {
	width := float64(image.Width())
	height := float64(image.Height())
	tanView := math.Tan(c.viewAngle * 0.5)

	for y := yStart; y < yEnd; y++ {
		for x := 0; x < image.Width(); x++ {
			// Stratified jitter within the pixel, mapped to [-1, 1)
			xCoefficient := (float64(x)+sampler.Float64())*2.0/width - 1.0
			yCoefficient := (float64(y)+sampler.Float64())*2.0/height - 1.0

			offset := c.right.Multiply(xCoefficient).
				Add(c.up.Multiply(yCoefficient * (height / width)))
			sampleDirection := c.viewDirection.Add(offset.Multiply(tanView)).Normalize()

			radiance := tracer.Radiance(c.viewPosition, sampleDirection, sampler, nil)
			image.AddToPixel(x, y, radiance)
		}
	}
}
