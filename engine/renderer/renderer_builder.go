package renderer

import (
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/aurora3d/aurora-go/engine/diag"
)

type RendererBuilderOption func(*rendererImpl)

// WithSink routes the renderer's diagnostics to the given sink.
//
// Parameters:
//   - sink: the diagnostics sink to use
//
// Returns:
//   - RendererBuilderOption: a function that sets the sink
func WithSink(sink diag.Sink) RendererBuilderOption {
	return func(r *rendererImpl) {
		if sink != nil {
			r.sink = sink
		}
	}
}

// WithBackend replaces the GPU backend, letting tests substitute a fake.
//
// Parameters:
//   - backend: the backend to use
//
// Returns:
//   - RendererBuilderOption: a function that sets the backend
func WithBackend(backend Backend) RendererBuilderOption {
	return func(r *rendererImpl) {
		if backend != nil {
			r.backend = backend
		}
	}
}

// WithSampleCount sets the initial MSAA sample count request.
//
// Parameters:
//   - count: the requested sample count
//
// Returns:
//   - RendererBuilderOption: a function that sets the sample count
func WithSampleCount(count int) RendererBuilderOption {
	return func(r *rendererImpl) {
		r.requestedSamples = count
	}
}

// WithClearColor sets the color every frame starts cleared to.
//
// Parameters:
//   - color: the clear color
//
// Returns:
//   - RendererBuilderOption: a function that sets the clear color
func WithClearColor(color wgpu.Color) RendererBuilderOption {
	return func(r *rendererImpl) {
		r.clearColor = color
	}
}

// WithPresentMode sets the initial frame delivery mode.
//
// Parameters:
//   - mode: the present mode
//
// Returns:
//   - RendererBuilderOption: a function that sets the present mode
func WithPresentMode(mode PresentMode) RendererBuilderOption {
	return func(r *rendererImpl) {
		switch mode {
		case PresentModeUncapped:
			r.presentMode = wgpu.PresentModeImmediate
		default:
			r.presentMode = wgpu.PresentModeFifo
		}
	}
}
