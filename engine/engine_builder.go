package engine

import (
	"github.com/aurora3d/aurora-go/engine/device"
	"github.com/aurora3d/aurora-go/engine/diag"
	"github.com/aurora3d/aurora-go/engine/renderer"
	"github.com/aurora3d/aurora-go/engine/surface"
	"github.com/aurora3d/aurora-go/engine/thread"
	"github.com/aurora3d/aurora-go/engine/window"
)

type EngineBuilderOption func(*engineImpl)

// WithSink routes all engine diagnostics to the given sink. Components
// constructed by the engine inherit it.
//
// Parameters:
//   - sink: the diagnostics sink to use
//
// Returns:
//   - EngineBuilderOption: a function that sets the sink
func WithSink(sink diag.Sink) EngineBuilderOption {
	return func(e *engineImpl) {
		if sink != nil {
			e.sink = sink
		}
	}
}

// WithWindow supplies a pre-built window instead of the default one.
//
// Parameters:
//   - win: the window to use
//
// Returns:
//   - EngineBuilderOption: a function that sets the window
func WithWindow(win window.Window) EngineBuilderOption {
	return func(e *engineImpl) {
		if win != nil {
			e.win = win
		}
	}
}

// WithSurfaceManager supplies a pre-built surface manager.
//
// Parameters:
//   - surf: the surface manager to use
//
// Returns:
//   - EngineBuilderOption: a function that sets the surface manager
func WithSurfaceManager(surf surface.Manager) EngineBuilderOption {
	return func(e *engineImpl) {
		if surf != nil {
			e.surf = surf
		}
	}
}

// WithDeviceContext supplies a pre-built device context.
//
// Parameters:
//   - dev: the device context to use
//
// Returns:
//   - EngineBuilderOption: a function that sets the device context
func WithDeviceContext(dev device.Context) EngineBuilderOption {
	return func(e *engineImpl) {
		if dev != nil {
			e.dev = dev
		}
	}
}

// WithRenderer supplies a pre-built renderer.
//
// Parameters:
//   - rend: the renderer to use
//
// Returns:
//   - EngineBuilderOption: a function that sets the renderer
func WithRenderer(rend renderer.Renderer) EngineBuilderOption {
	return func(e *engineImpl) {
		if rend != nil {
			e.rend = rend
		}
	}
}

// WithThread supplies a pre-built frame scheduler.
//
// Parameters:
//   - sched: the scheduler to use
//
// Returns:
//   - EngineBuilderOption: a function that sets the scheduler
func WithThread(sched thread.Thread) EngineBuilderOption {
	return func(e *engineImpl) {
		if sched != nil {
			e.sched = sched
		}
	}
}

// WithProfiling enables profiling output from the first frame.
//
// Returns:
//   - EngineBuilderOption: a function that enables profiling
func WithProfiling() EngineBuilderOption {
	return func(e *engineImpl) {
		e.profilingEnabled = true
	}
}
