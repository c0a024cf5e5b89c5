// package renderer owns the frame lifecycle: surface configuration,
// render target allocation, and the begin/submit/present cycle. It is
// split into a frontend that enforces frame-state policy and a backend
// that talks to the GPU.
package renderer

import (
	"context"
	"fmt"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/aurora3d/aurora-go/engine/device"
	"github.com/aurora3d/aurora-go/engine/diag"
	"github.com/aurora3d/aurora-go/engine/surface"
)

// PresentMode selects how finished frames are delivered to the display.
type PresentMode int32

const (
	// PresentModeVSync delivers frames on the display's vertical blank.
	PresentModeVSync PresentMode = iota
	// PresentModeUncapped delivers frames as fast as they are produced.
	PresentModeUncapped
)

// DefaultSampleCount is the MSAA sample count used when none is configured.
const DefaultSampleCount = 4

// Renderer is the frame-lifecycle frontend. At most one frame session is
// open at any time; beginning a second is a usage error that leaves the
// open session untouched.
type Renderer interface {
	// Initialize acquires the GPU device through the device context,
	// configures the surface at the current physical size, and readies the
	// renderer for its first frame.
	//
	// Parameters:
	//   - ctx: cancellation/deadline control for device acquisition
	//   - opts: adapter and device requirements
	//
	// Returns:
	//   - error: a device acquisition or surface configuration error
	Initialize(ctx context.Context, opts device.RequestOptions) error

	// Initialized reports whether the renderer holds a live device.
	//
	// Returns:
	//   - bool: true once Initialize has succeeded
	Initialized() bool

	// DeviceContext returns the device context the renderer was built over.
	//
	// Returns:
	//   - device.Context: the device context
	DeviceContext() device.Context

	// ColorFormat returns the negotiated surface color format. Renderables
	// use it when building their pipelines.
	//
	// Returns:
	//   - wgpu.TextureFormat: the presentable color format
	ColorFormat() wgpu.TextureFormat

	// SampleCount returns the effective MSAA sample count of the current
	// target set.
	//
	// Returns:
	//   - uint32: the effective sample count
	SampleCount() uint32

	// SetSampleCount requests an MSAA sample count for subsequent frames.
	// Values outside {1, 2, 4, 8} downgrade to 1 at the next target
	// rebuild. Marks the target set stale.
	//
	// Parameters:
	//   - count: the requested sample count
	SetSampleCount(count int)

	// SetClearColor sets the color every frame starts cleared to.
	//
	// Parameters:
	//   - color: the clear color
	SetClearColor(color wgpu.Color)

	// SetPresentMode sets the frame delivery mode. Takes effect at the next
	// surface reconfiguration.
	//
	// Parameters:
	//   - mode: the present mode
	SetPresentMode(mode PresentMode)

	// Resize sets the logical drawable size. The target set goes stale and
	// is rebuilt lazily at the next BeginFrame.
	//
	// Parameters:
	//   - width: logical width
	//   - height: logical height
	Resize(width, height int)

	// SetDevicePixelRatio forwards a pixel-ratio change to the surface
	// manager, invalidating the target set.
	//
	// Parameters:
	//   - ratio: the device pixel ratio
	SetDevicePixelRatio(ratio float64)

	// TargetState returns the render target set's lifecycle state.
	//
	// Returns:
	//   - TargetState: Uninitialized, Valid, or Stale
	TargetState() TargetState

	// BeginFrame opens a frame session: reconfigures the surface and
	// rebuilds render targets if stale, acquires the next presentable
	// texture, and begins the frame's render pass with a full clear.
	// Calling BeginFrame while a session is open is a usage error; the
	// open session is unaffected. After device loss BeginFrame always
	// fails with ErrDeviceLost.
	//
	// Returns:
	//   - *FrameSession: the open session
	//   - error: ErrUsage, ErrDeviceLost, or an acquisition error
	BeginFrame() (*FrameSession, error)

	// EndFrame closes the session: ends the render pass and submits the
	// command buffer. Ending without an open session, or ending a session
	// other than the open one, is a usage error and a no-op.
	//
	// Parameters:
	//   - session: the session returned by BeginFrame
	//
	// Returns:
	//   - error: ErrUsage or a submission error
	EndFrame(session *FrameSession) error

	// Present presents the most recently submitted frame. A no-op when no
	// submitted frame is pending.
	Present()

	// Release frees the render targets. The device context is not released;
	// its owner releases it.
	Release()
}

type rendererImpl struct {
	mu   *sync.Mutex
	sink diag.Sink

	dev     device.Context
	surf    surface.Manager
	backend Backend

	targets          TargetSet
	requestedSamples int
	clearColor       wgpu.Color
	presentMode      wgpu.PresentMode

	// surfaceDirty records that the surface needs reconfiguration before
	// the next frame, independent of target staleness.
	surfaceDirty bool

	session *FrameSession
	pending *FrameSession
}

var _ Renderer = &rendererImpl{}

// NewRenderer creates a renderer over a device context and surface
// manager. The renderer registers itself as the surface's change
// observer so size and ratio changes invalidate its targets.
//
// Parameters:
//   - dev: the device context
//   - surf: the surface manager
//   - options: functional options to configure the renderer
//
// Returns:
//   - Renderer: the new renderer
func NewRenderer(dev device.Context, surf surface.Manager, options ...RendererBuilderOption) Renderer {
	r := &rendererImpl{
		mu:               &sync.Mutex{},
		sink:             diag.Default(),
		dev:              dev,
		surf:             surf,
		requestedSamples: DefaultSampleCount,
		clearColor:       wgpu.Color{R: 0.1, G: 0.1, B: 0.1, A: 1.0},
		presentMode:      wgpu.PresentModeFifo,
	}
	for _, option := range options {
		option(r)
	}
	if r.backend == nil {
		r.backend = newWGPUBackend(dev)
	}

	surf.SetChangeObserver(r.invalidate)

	return r
}

// invalidate marks both the surface configuration and the target set
// stale. Rebuild happens lazily at the next BeginFrame.
func (r *rendererImpl) invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.surfaceDirty = true
	r.targets.MarkStale()
}

func (r *rendererImpl) Initialize(ctx context.Context, opts device.RequestOptions) error {
	if err := r.dev.RequestDevice(ctx, opts); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	width, height := r.surf.PhysicalSize()
	if err := r.backend.ConfigureSurface(width, height, r.presentMode); err != nil {
		return err
	}
	r.surfaceDirty = false
	return nil
}

func (r *rendererImpl) Initialized() bool {
	return r.dev.Initialized() && !r.dev.Lost()
}

func (r *rendererImpl) DeviceContext() device.Context {
	return r.dev
}

func (r *rendererImpl) ColorFormat() wgpu.TextureFormat {
	return r.dev.ColorFormat()
}

func (r *rendererImpl) SampleCount() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.targets.State() == TargetUninitialized {
		return ClampSampleCount(r.requestedSamples)
	}
	return r.targets.SampleCount()
}

func (r *rendererImpl) SetSampleCount(count int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requestedSamples = count
	r.targets.MarkStale()
}

func (r *rendererImpl) SetClearColor(color wgpu.Color) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clearColor = color
}

func (r *rendererImpl) SetPresentMode(mode PresentMode) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch mode {
	case PresentModeUncapped:
		r.presentMode = wgpu.PresentModeImmediate
	default:
		r.presentMode = wgpu.PresentModeFifo
	}
	r.surfaceDirty = true
	r.targets.MarkStale()
}

func (r *rendererImpl) Resize(width, height int) {
	// The surface change observer marks targets stale.
	r.surf.SetSize(width, height)
}

func (r *rendererImpl) SetDevicePixelRatio(ratio float64) {
	r.surf.SetDevicePixelRatio(ratio)
}

func (r *rendererImpl) TargetState() TargetState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.targets.State()
}

func (r *rendererImpl) BeginFrame() (*FrameSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session != nil {
		r.sink.Error("BeginFrame while a frame session is open", diag.CodeUsage)
		return nil, fmt.Errorf("%w: frame session already open", device.ErrUsage)
	}
	if !r.dev.Initialized() {
		r.sink.Error("BeginFrame before Initialize", diag.CodeUsage)
		return nil, fmt.Errorf("%w: renderer not initialized", device.ErrUsage)
	}
	if r.dev.Lost() {
		return nil, device.ErrDeviceLost
	}

	if r.surfaceDirty || r.targets.State() != TargetValid {
		width, height := r.surf.PhysicalSize()

		if r.surfaceDirty {
			if err := r.backend.ConfigureSurface(width, height, r.presentMode); err != nil {
				return nil, r.classify(err)
			}
			r.surfaceDirty = false
		}

		if err := r.targets.Invalidate(r.backend, width, height, r.requestedSamples); err != nil {
			return nil, r.classify(err)
		}
	}

	session, err := r.backend.AcquireFrame(&r.targets, r.clearColor)
	if err != nil {
		// A failed acquire often means the surface is outdated; force a
		// reconfigure before the next attempt.
		r.surfaceDirty = true
		r.targets.MarkStale()
		return nil, r.classify(err)
	}

	r.session = session
	return session, nil
}

func (r *rendererImpl) EndFrame(session *FrameSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session == nil {
		r.sink.Error("EndFrame without an open frame session", diag.CodeUsage)
		return fmt.Errorf("%w: no frame session open", device.ErrUsage)
	}
	if session != r.session {
		r.sink.Error("EndFrame with a session that is not the open one", diag.CodeUsage)
		return fmt.Errorf("%w: mismatched frame session", device.ErrUsage)
	}

	err := r.backend.SubmitFrame(session)
	r.session = nil
	if err != nil {
		return r.classify(err)
	}

	r.pending = session
	return nil
}

func (r *rendererImpl) Present() {
	r.mu.Lock()
	pending := r.pending
	r.pending = nil
	r.mu.Unlock()

	if pending == nil {
		return
	}
	r.backend.Present(pending)
}

// classify routes backend errors: device loss is recorded on the context
// and surfaces as the loss sentinel; anything else is reported to the
// uncaptured-error observers and passes through.
func (r *rendererImpl) classify(err error) error {
	if device.IsDeviceLost(err) {
		r.dev.MarkLost(err.Error())
		return device.ErrDeviceLost
	}
	r.dev.ReportUncapturedError(err)
	return err
}

func (r *rendererImpl) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.targets.Release(r.backend)
}
