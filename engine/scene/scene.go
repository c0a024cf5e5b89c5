// package scene sequences renderables over a shared camera. The scene
// owns draw order and preparation; renderables own their GPU resources.
package scene

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/aurora3d/aurora-go/engine/camera"
	"github.com/aurora3d/aurora-go/engine/device"
	"github.com/aurora3d/aurora-go/engine/diag"
	"github.com/aurora3d/aurora-go/engine/renderable"
	"github.com/aurora3d/aurora-go/engine/renderer"
)

// RenderSource is the narrow slice of the renderer the scene prepares
// against: device access plus the pipeline-compatibility parameters.
type RenderSource interface {
	Initialized() bool
	DeviceContext() device.Context
	ColorFormat() wgpu.TextureFormat
	SampleCount() uint32
}

// Scene is an ordered collection of renderables sharing one camera.
type Scene interface {
	// Add appends a renderable. Draw order is insertion order. Adding
	// after preparation marks the scene unprepared so the newcomer is
	// initialized on the next Prepare.
	//
	// Parameters:
	//   - r: the renderable to add
	Add(r renderable.Renderable)

	// Remove removes a renderable and disposes its GPU resources.
	//
	// Parameters:
	//   - r: the renderable to remove
	//
	// Returns:
	//   - bool: true if the renderable was present
	Remove(r renderable.Renderable) bool

	// Count returns the number of renderables in the scene.
	//
	// Returns:
	//   - int: the renderable count
	Count() int

	// Camera returns the scene's camera.
	//
	// Returns:
	//   - camera.Camera: the shared camera
	Camera() camera.Camera

	// Prepared reports whether every renderable holds live GPU resources.
	//
	// Returns:
	//   - bool: true after a successful Prepare
	Prepared() bool

	// Prepare initializes every renderable serially in insertion order
	// against the render source, then binds the camera uniform. GPU
	// resource creation is not reentrant on one device, so this phase is
	// never parallel. A failure leaves the scene unprepared.
	//
	// Parameters:
	//   - src: the renderer to prepare against
	//
	// Returns:
	//   - error: the first initialization error
	Prepare(src RenderSource) error

	// Invalidate marks the scene unprepared, forcing re-initialization on
	// the next Prepare. Call after a sample-count change or device
	// replacement.
	Invalidate()

	// Update advances every updatable renderable by the given delta. The
	// per-renderable updates run on the worker pool with a frame barrier,
	// so Update does not return until all of them complete.
	//
	// Parameters:
	//   - deltaTime: simulation steps elapsed since the previous tick
	Update(deltaTime float32)

	// Render records every renderable into the session's pass in insertion
	// order, after pushing the camera uniforms for this frame. A no-op on
	// an unprepared scene.
	//
	// Parameters:
	//   - session: the open frame session
	Render(session *renderer.FrameSession)

	// Dispose releases every renderable's GPU resources, the camera
	// binding, and the update pool.
	Dispose()
}

type sceneImpl struct {
	mu   *sync.Mutex
	sink diag.Sink

	cam         camera.Camera
	renderables []renderable.Renderable
	prepared    bool

	dev device.Context

	// updatePool runs per-renderable CPU updates. Workers persist across
	// frames; a WaitGroup provides the per-frame barrier since the pool's
	// own Wait blocks until idle-exit.
	updatePool    worker.DynamicWorkerPool
	updateWorkers int
}

var _ Scene = &sceneImpl{}

// NewScene creates a scene around the given camera.
//
// Parameters:
//   - cam: the shared camera (nil constructs a default camera)
//   - options: functional options to configure the scene
//
// Returns:
//   - Scene: the new, unprepared scene
func NewScene(cam camera.Camera, options ...SceneBuilderOption) Scene {
	if cam == nil {
		cam = camera.NewCamera()
	}
	s := &sceneImpl{
		mu:            &sync.Mutex{},
		sink:          diag.Default(),
		cam:           cam,
		updateWorkers: max(runtime.NumCPU()-1, 1),
	}
	for _, option := range options {
		option(s)
	}

	// Queue size of 256 leaves headroom over typical renderable counts.
	s.updatePool = worker.NewDynamicWorkerPool(s.updateWorkers, 256, 1*time.Second)

	return s
}

func (s *sceneImpl) Add(r renderable.Renderable) {
	if r == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renderables = append(s.renderables, r)
	s.prepared = false
}

func (s *sceneImpl) Remove(r renderable.Renderable) bool {
	s.mu.Lock()
	for i, existing := range s.renderables {
		if existing == r {
			s.renderables = append(s.renderables[:i], s.renderables[i+1:]...)
			s.mu.Unlock()
			r.Dispose()
			return true
		}
	}
	s.mu.Unlock()
	return false
}

func (s *sceneImpl) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.renderables)
}

func (s *sceneImpl) Camera() camera.Camera {
	return s.cam
}

func (s *sceneImpl) Prepared() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prepared
}

func (s *sceneImpl) Prepare(src RenderSource) error {
	if src == nil || !src.Initialized() {
		s.sink.Error("scene prepared against an uninitialized renderer", diag.CodeUsage)
		return fmt.Errorf("%w: renderer not initialized", device.ErrUsage)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := src.DeviceContext()
	colorFormat := src.ColorFormat()
	sampleCount := src.SampleCount()

	for _, r := range s.renderables {
		if err := r.Initialize(ctx, colorFormat, sampleCount); err != nil {
			return fmt.Errorf("failed to prepare renderable: %w", err)
		}
	}

	if err := s.cam.EnsureBinding(ctx); err != nil {
		return fmt.Errorf("failed to bind camera uniforms: %w", err)
	}

	s.dev = ctx
	s.prepared = true
	return nil
}

func (s *sceneImpl) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prepared = false
}

func (s *sceneImpl) Update(deltaTime float32) {
	s.mu.Lock()
	updatables := make([]renderable.Updatable, 0, len(s.renderables))
	for _, r := range s.renderables {
		if u, ok := r.(renderable.Updatable); ok {
			updatables = append(updatables, u)
		}
	}
	s.mu.Unlock()

	if len(updatables) == 0 {
		return
	}

	var wg sync.WaitGroup
	for i, u := range updatables {
		wg.Add(1)
		uCap := u
		s.updatePool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()
				uCap.Update(deltaTime)
				return nil, nil
			},
		})
	}
	wg.Wait()
}

func (s *sceneImpl) Render(session *renderer.FrameSession) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.prepared || session == nil {
		return
	}

	if s.dev != nil {
		s.cam.WriteUniforms(s.dev.Queue())
	}

	binds := s.cam.BindGroup()
	for _, r := range s.renderables {
		r.Render(session.Pass(), binds)
	}
}

func (s *sceneImpl) Dispose() {
	s.mu.Lock()
	renderables := s.renderables
	s.renderables = nil
	s.prepared = false
	s.mu.Unlock()

	for _, r := range renderables {
		r.Dispose()
	}
	s.cam.Release()
	// Pool workers idle-exit on their own after the configured timeout.
}
