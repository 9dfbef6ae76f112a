package renderer

import (
	"runtime"
	"sync"

	"github.com/minilight/go-minilight/pkg/core"
	"github.com/minilight/go-minilight/pkg/integrator"
	"github.com/minilight/go-minilight/pkg/scene"
)

// rowTask represents one pixel row of one iteration
type rowTask struct {
	Y         int
	Iteration int
}

// WorkerPool renders an iteration's pixel rows in parallel. Each task gets
// a generator substream derived deterministically from (iteration, row), so
// a fixed worker configuration reproduces its output exactly. Rows are
// disjoint, so workers write to the shared image without coordination.
type WorkerPool struct {
	taskQueue  chan rowTask
	doneQueue  chan int
	numWorkers int
	wg         sync.WaitGroup

	scene  *scene.Scene
	camera *Camera
	tracer *integrator.PathTracer
	image  *Image
}

// NewWorkerPool creates a worker pool with the specified number of workers
// (0 means the CPU count)
func NewWorkerPool(s *scene.Scene, camera *Camera, tracer *integrator.PathTracer, image *Image, numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	return &WorkerPool{
		taskQueue:  make(chan rowTask, image.Height()),
		doneQueue:  make(chan int, image.Height()),
		numWorkers: numWorkers,
		scene:      s,
		camera:     camera,
		tracer:     tracer,
		image:      image,
	}
}

// Start begins all workers
func (wp *WorkerPool) Start() {
	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.run()
	}
}

// Stop shuts down all workers
func (wp *WorkerPool) Stop() {
	close(wp.taskQueue)
	wp.wg.Wait()
	close(wp.doneQueue)
}

// NumWorkers returns the number of workers in the pool
func (wp *WorkerPool) NumWorkers() int {
	return wp.numWorkers
}

// RenderIteration renders all pixel rows of one iteration and blocks until
// they complete
func (wp *WorkerPool) RenderIteration(iteration int) {
	for y := 0; y < wp.image.Height(); y++ {
		wp.taskQueue <- rowTask{Y: y, Iteration: iteration}
	}
	for i := 0; i < wp.image.Height(); i++ {
		<-wp.doneQueue
	}
}

// run is the main worker loop
func (wp *WorkerPool) run() {
	defer wp.wg.Done()

	for task := range wp.taskQueue {
		sampler := core.NewLFSR113Seeded(rowSeed(task.Iteration, task.Y))
		wp.camera.FrameRows(wp.scene, wp.tracer, sampler, wp.image, task.Y, task.Y+1)
		wp.doneQueue <- task.Y
	}
}

// rowSeed derives a substream seed for an (iteration, row) pair. Knuth's
// multiplicative hash spreads consecutive pairs across the seed space.
func rowSeed(iteration, y int) uint32 {
	return core.Seed ^ (uint32(iteration*0x01000193+y) * 2654435761)
}
