package renderer

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/minilight/go-minilight/pkg/core"
	"github.com/minilight/go-minilight/pkg/integrator"
	"github.com/minilight/go-minilight/pkg/log"
	"github.com/minilight/go-minilight/pkg/scene"
)

var logger = log.New("renderer")

// Config contains configuration for progressive rendering
type Config struct {
	Iterations int // Total iterations (one sample per pixel each)
	Workers    int // Parallel workers; <= 1 renders serially on the single reference stream
}

// SnapshotFunc receives the accumulated image at snapshot points: after
// every power-of-two iteration and after the final one
type SnapshotFunc func(image *Image, iteration int) error

// Renderer drives progressive rendering: each iteration accumulates one
// jittered sample per pixel, with periodic snapshots of the accumulator
type Renderer struct {
	scene    *scene.Scene
	camera   *Camera
	image    *Image
	tracer   *integrator.PathTracer
	config   Config
	progress io.Writer
}

// NewRenderer creates a progressive renderer over the scene
func NewRenderer(s *scene.Scene, camera *Camera, image *Image, config Config) *Renderer {
	if config.Iterations < 1 {
		config.Iterations = 1
	}
	return &Renderer{
		scene:    s,
		camera:   camera,
		image:    image,
		tracer:   integrator.NewPathTracer(s),
		config:   config,
		progress: os.Stderr,
	}
}

// SetProgress redirects the per-iteration progress line (defaults to stderr)
func (r *Renderer) SetProgress(w io.Writer) {
	r.progress = w
}

// Render runs the iteration loop until completion or context cancellation.
// On cancellation the accumulated image is snapshotted before returning, so
// an interrupted render still produces its output; the context error is
// returned for the caller to report.
func (r *Renderer) Render(ctx context.Context, snapshot SnapshotFunc) (RenderStats, error) {
	var pool *WorkerPool
	if r.config.Workers > 1 {
		pool = NewWorkerPool(r.scene, r.camera, r.tracer, r.image, r.config.Workers)
		pool.Start()
		defer pool.Stop()
		logger.Infof("rendering with %d workers", pool.NumWorkers())
	}

	sampler := core.NewLFSR113()
	stats := RenderStats{}
	startTime := time.Now()
	samplesPerIteration := int64(r.image.Width()) * int64(r.image.Height())

	lastSaved := 0
	for iteration := 1; iteration <= r.config.Iterations; iteration++ {
		select {
		case <-ctx.Done():
			if snapshot != nil && stats.Iterations > lastSaved {
				if err := snapshot(r.image, stats.Iterations); err != nil {
					stats.Elapsed = time.Since(startTime)
					return stats, err
				}
				stats.Snapshots++
			}
			stats.Elapsed = time.Since(startTime)
			return stats, ctx.Err()
		default:
		}

		if pool != nil {
			pool.RenderIteration(iteration)
		} else {
			r.camera.Frame(r.scene, r.tracer, sampler, r.image)
		}

		stats.Iterations = iteration
		stats.TotalSamples += samplesPerIteration
		fmt.Fprintf(r.progress, "\riteration: %d", iteration)

		if snapshot != nil && saveIteration(iteration, r.config.Iterations) {
			if err := snapshot(r.image, iteration); err != nil {
				stats.Elapsed = time.Since(startTime)
				return stats, err
			}
			stats.Snapshots++
			lastSaved = iteration
		}
	}

	stats.Elapsed = time.Since(startTime)
	return stats, nil
}

// saveIteration reports whether a snapshot is due: at every power of two
// and at the final iteration
func saveIteration(iteration, total int) bool {
	return iteration&(iteration-1) == 0 || iteration == total
}
