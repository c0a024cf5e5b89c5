// package engine wires the window, renderer, scenes, and frame scheduler
// into one cooperative loop. The window message loop drives the
// scheduler; every tick updates and draws the active scenes.
package engine

import (
	"context"
	"sort"
	"sync"

	"github.com/aurora3d/aurora-go/engine/device"
	"github.com/aurora3d/aurora-go/engine/diag"
	"github.com/aurora3d/aurora-go/engine/profiler"
	"github.com/aurora3d/aurora-go/engine/renderer"
	"github.com/aurora3d/aurora-go/engine/scene"
	"github.com/aurora3d/aurora-go/engine/surface"
	"github.com/aurora3d/aurora-go/engine/thread"
	"github.com/aurora3d/aurora-go/engine/window"
)

// Engine is the top-level orchestrator. Everything runs on the window's
// message loop; there is no separate render goroutine.
type Engine interface {
	// Window returns the underlying window.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Renderer returns the shared renderer.
	//
	// Returns:
	//   - renderer.Renderer: the renderer instance
	Renderer() renderer.Renderer

	// Thread returns the frame scheduler.
	//
	// Returns:
	//   - thread.Thread: the scheduler driving updates
	Thread() thread.Thread

	// AddScene registers a scene at the given z-index key. Scenes draw in
	// ascending key order.
	//
	// Parameters:
	//   - key: the z-index (lower draws first)
	//   - s: the scene to register
	AddScene(key int, s scene.Scene)

	// RemoveScene removes the scene at the given z-index key.
	//
	// Parameters:
	//   - key: the z-index of the scene to remove
	RemoveScene(key int)

	// Scene retrieves the scene registered at the given z-index key.
	//
	// Parameters:
	//   - key: the z-index to look up
	//
	// Returns:
	//   - scene.Scene: the scene, or nil if none is registered
	Scene(key int) scene.Scene

	// EnableProfiler turns on periodic frame and memory reporting.
	EnableProfiler()

	// DisableProfiler turns off profiling output.
	DisableProfiler()

	// Initialize acquires the GPU device and configures the surface.
	//
	// Parameters:
	//   - ctx: cancellation/deadline control for device acquisition
	//   - opts: adapter and device requirements
	//
	// Returns:
	//   - error: a device acquisition or surface configuration error
	Initialize(ctx context.Context, opts device.RequestOptions) error

	// Run starts the frame scheduler and blocks in the window message loop
	// until the window closes. Each loop iteration ticks the scheduler,
	// which updates and draws every registered scene.
	Run()

	// Release stops the scheduler and frees GPU resources: scenes first,
	// then render targets, then the device context.
	Release()
}

type engineImpl struct {
	mu   *sync.Mutex
	sink diag.Sink

	win   window.Window
	surf  surface.Manager
	dev   device.Context
	rend  renderer.Renderer
	sched thread.Thread

	scenes map[int]scene.Scene

	prof             *profiler.Profiler
	profilingEnabled bool
}

var _ Engine = &engineImpl{}

// NewEngine creates the engine: window, surface manager seeded with the
// window's content scale, device context over the window surface,
// renderer, and frame scheduler, all wired together.
//
// Parameters:
//   - options: functional options to configure the engine
//
// Returns:
//   - Engine: the new engine (device not yet acquired)
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engineImpl{
		mu:     &sync.Mutex{},
		sink:   diag.Default(),
		scenes: make(map[int]scene.Scene),
	}
	for _, option := range options {
		option(e)
	}

	if e.win == nil {
		e.win = window.NewWindow()
	}
	if e.surf == nil {
		e.surf = surface.NewManager(e.win.ContentScale(), surface.WithSink(e.sink))
		// Seed only; the window holds a single resize callback slot, so the
		// engine's own callback below forwards resizes to the surface.
		e.surf.TrackWindowSize(e.win, 0, false)
	}
	if e.dev == nil {
		e.dev = device.NewContext(e.win.SurfaceDescriptor(), device.WithSink(e.sink))
	}
	if e.rend == nil {
		e.rend = renderer.NewRenderer(e.dev, e.surf, renderer.WithSink(e.sink))
	}
	if e.sched == nil {
		e.sched = thread.NewThread(thread.WithSink(e.sink))
	}
	if e.prof == nil {
		e.prof = profiler.NewProfiler(e.sink)
	}

	e.win.SetResizeCallback(func(width, height int) {
		// Feeding the surface marks the render targets stale through its
		// change observer; the cameras pick up the new aspect.
		e.surf.SetSize(width, height)

		e.mu.Lock()
		defer e.mu.Unlock()
		for _, s := range e.scenes {
			if c := s.Camera(); c != nil && height > 0 {
				c.SetAspect(float32(width) / float32(height))
			}
		}
	})

	e.sched.AddListener(thread.EventUpdate, func(tick thread.Tick) {
		e.renderFrame(tick.DeltaTime)
	})

	return e
}

func (e *engineImpl) Window() window.Window {
	return e.win
}

func (e *engineImpl) Renderer() renderer.Renderer {
	return e.rend
}

func (e *engineImpl) Thread() thread.Thread {
	return e.sched
}

func (e *engineImpl) AddScene(key int, s scene.Scene) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scenes[key] = s
}

func (e *engineImpl) RemoveScene(key int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.scenes, key)
}

func (e *engineImpl) Scene(key int) scene.Scene {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scenes[key]
}

func (e *engineImpl) EnableProfiler() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.profilingEnabled = true
}

func (e *engineImpl) DisableProfiler() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.profilingEnabled = false
}

func (e *engineImpl) Initialize(ctx context.Context, opts device.RequestOptions) error {
	return e.rend.Initialize(ctx, opts)
}

func (e *engineImpl) Run() {
	e.sched.Start()
	e.win.SetUpdateCallback(e.sched.Tick)
	e.win.ProcessMessages()
	e.sched.Stop()
}

// renderFrame runs one frame: scene updates, then the frame lifecycle.
// Scenes draw in ascending z-index order into a single render pass.
func (e *engineImpl) renderFrame(deltaTime float32) {
	e.mu.Lock()
	keys := make([]int, 0, len(e.scenes))
	for k := range e.scenes {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	ordered := make([]scene.Scene, 0, len(keys))
	for _, k := range keys {
		ordered = append(ordered, e.scenes[k])
	}
	profiling := e.profilingEnabled
	e.mu.Unlock()

	if len(ordered) == 0 {
		return
	}

	for _, s := range ordered {
		s.Update(deltaTime)
		if !s.Prepared() {
			if err := s.Prepare(e.rend); err != nil {
				return
			}
		}
	}

	session, err := e.rend.BeginFrame()
	if err != nil {
		return
	}

	for _, s := range ordered {
		s.Render(session)
	}

	if err := e.rend.EndFrame(session); err != nil {
		return
	}
	e.rend.Present()

	if profiling {
		e.prof.Tick()
	}
}

func (e *engineImpl) Release() {
	if e.sched.Active() {
		e.sched.Stop()
	}

	e.mu.Lock()
	scenes := e.scenes
	e.scenes = make(map[int]scene.Scene)
	e.mu.Unlock()

	for _, s := range scenes {
		s.Dispose()
	}
	e.rend.Release()
	e.dev.Release()
}
