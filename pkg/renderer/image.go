package renderer

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"

	"github.com/minilight/go-minilight/pkg/core"
)

const (
	// DimensionMax is the largest accepted image width or height
	DimensionMax = 4000

	ppmID         = "P6"
	minilightURI  = "http://www.hxa.name/minilight"
	gammaEncode   = 0.45
	displayLumMax = 200.0
)

// Luminance weights for the Ward tone-mapping adaptation level (ITU-R 709)
var rgbLuminance = core.NewVec3(0.2126, 0.7152, 0.0722)

// Image is the radiance accumulator and PPM formatter. It is the only
// mutable entity during rendering; accumulation is commutative.
type Image struct {
	width  int
	height int
	pixels []float64 // width * height * 3, row-major, top row first
}

// NewImage creates a zeroed accumulator, clamping dimensions to
// [1, DimensionMax]
func NewImage(width, height int) *Image {
	width = max(1, min(DimensionMax, width))
	height = max(1, min(DimensionMax, height))
	return &Image{
		width:  width,
		height: height,
		pixels: make([]float64, width*height*3),
	}
}

// Width returns the image width in pixels
func (img *Image) Width() int {
	return img.width
}

// Height returns the image height in pixels
func (img *Image) Height() int {
	return img.height
}

// AddToPixel accumulates radiance into the pixel at (x, y). The y axis is
// flipped so output rows run top-down. Out-of-range coordinates are ignored.
func (img *Image) AddToPixel(x, y int, radiance core.Vec3) {
	if x < 0 || x >= img.width || y < 0 || y >= img.height {
		return
	}
	index := (x + (img.height-1-y)*img.width) * 3
	img.pixels[index] += radiance.X
	img.pixels[index+1] += radiance.Y
	img.pixels[index+2] += radiance.Z
}

// Format writes the accumulated image as a binary PPM (P6), dividing by the
// iteration count, applying the Ward tone-mapping scale and gamma encoding
func (img *Image) Format(out io.Writer, iteration int) error {
	divider := 1.0 / float64(max(1, iteration))
	tonemapScale := img.calculateToneMapping(divider)

	w := bufio.NewWriter(out)
	if _, err := fmt.Fprintf(w, "%s\n# %s\n\n%d %d\n255\n",
		ppmID, minilightURI, img.width, img.height); err != nil {
		return err
	}

	for _, channel := range img.pixels {
		mapped := channel * divider * tonemapScale
		if mapped < 0.0 {
			mapped = 0.0
		}
		gammaed := math.Pow(mapped, gammaEncode)
		quantized := math.Floor(gammaed*255.0 + 0.5)
		if quantized > 255.0 {
			quantized = 255.0
		}
		if err := w.WriteByte(byte(quantized)); err != nil {
			return err
		}
	}

	return w.Flush()
}

// ToRGBA converts the accumulated image to an 8-bit RGBA image through the
// same tone-mapping pipeline as the PPM output (used by the preview server)
func (img *Image) ToRGBA(iteration int) *image.RGBA {
	divider := 1.0 / float64(max(1, iteration))
	tonemapScale := img.calculateToneMapping(divider)

	rgba := image.NewRGBA(image.Rect(0, 0, img.width, img.height))
	for i := 0; i < img.width*img.height; i++ {
		var channels [3]uint8
		for c := 0; c < 3; c++ {
			mapped := img.pixels[i*3+c] * divider * tonemapScale
			if mapped < 0.0 {
				mapped = 0.0
			}
			quantized := math.Floor(math.Pow(mapped, gammaEncode)*255.0 + 0.5)
			if quantized > 255.0 {
				quantized = 255.0
			}
			channels[c] = uint8(quantized)
		}
		rgba.SetRGBA(i%img.width, i/img.width, color.RGBA{
			R: channels[0], G: channels[1], B: channels[2], A: 255,
		})
	}
	return rgba
}

// calculateToneMapping returns Ward's luminance-adaptation scale factor:
// the log-average scene luminance sets the adaptation level, mapped against
// the maximum display luminance.
func (img *Image) calculateToneMapping(divider float64) float64 {
	sumOfLogs := 0.0
	for i := 0; i < img.width*img.height; i++ {
		y := core.NewVec3(img.pixels[i*3], img.pixels[i*3+1], img.pixels[i*3+2]).
			Dot(rgbLuminance) * divider
		sumOfLogs += math.Log10(math.Max(y, 1e-4))
	}
	adaptLuminance := math.Pow(10.0, sumOfLogs/float64(img.width*img.height))

	a := 1.219 + math.Pow(displayLumMax*0.25, 0.4)
	b := 1.219 + math.Pow(adaptLuminance, 0.4)
	return math.Pow(a/b, 2.5) / displayLumMax
}
