package device

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/aurora3d/aurora-go/engine/diag"
	"github.com/cogentcore/webgpu/wgpu"
)

// RequestOptions configures device acquisition.
type RequestOptions struct {
	// PowerPreference selects between low-power and high-performance adapters.
	PowerPreference wgpu.PowerPreference

	// RequiredFeatures lists features the device must support. The request
	// fails if any is unavailable.
	RequiredFeatures []wgpu.FeatureName

	// RequiredLimits raises limits beyond the spec defaults. Nil requests
	// the WebGPU default limits.
	RequiredLimits *wgpu.RequiredLimits

	// ForceFallbackAdapter requests a software adapter, for headless and CI use.
	ForceFallbackAdapter bool
}

// Context negotiates hardware capability and owns the device/queue handle
// for one device generation. Exactly one device exists per Context; after
// loss the Context is permanently dead and a new one must be constructed,
// invalidating every render target and renderable that referenced the old
// device.
type Context interface {
	// RequestDevice acquires an adapter and device matching the options and
	// configures the presentable surface. This is the only suspending
	// operation in the core; it carries no intrinsic timeout, so callers
	// bound it through ctx if needed. Failures are reported through the
	// diagnostics sink and returned; the context stays un-initialized and
	// no retry happens here.
	//
	// Parameters:
	//   - ctx: cancellation/deadline control for the acquisition wait
	//   - opts: adapter and device requirements
	//
	// Returns:
	//   - error: ErrCapability, ErrAdapterUnavailable, ErrDeviceRequest,
	//     or ErrUsage if a device already exists
	RequestDevice(ctx context.Context, opts RequestOptions) error

	// Initialized reports whether a live device has been acquired.
	//
	// Returns:
	//   - bool: true once RequestDevice has succeeded
	Initialized() bool

	// Lost reports whether the device handle has been invalidated.
	//
	// Returns:
	//   - bool: true after MarkLost
	Lost() bool

	// MarkLost records device loss, fires the device-lost observer, and
	// reports through the sink. Loss is fatal for this Context; it is
	// never cleared.
	//
	// Parameters:
	//   - reason: native-layer description of the loss
	MarkLost(reason string)

	// Device returns the live device handle, or nil before acquisition.
	//
	// Returns:
	//   - *wgpu.Device: the device handle
	Device() *wgpu.Device

	// Queue returns the device submission queue, or nil before acquisition.
	//
	// Returns:
	//   - *wgpu.Queue: the command submission queue
	Queue() *wgpu.Queue

	// Adapter returns the negotiated adapter, or nil before acquisition.
	//
	// Returns:
	//   - *wgpu.Adapter: the adapter handle
	Adapter() *wgpu.Adapter

	// Surface returns the presentable surface, or nil before acquisition.
	//
	// Returns:
	//   - *wgpu.Surface: the surface handle
	Surface() *wgpu.Surface

	// ColorFormat returns the surface color format negotiated from the
	// adapter capabilities. Undefined before the surface is configured.
	//
	// Returns:
	//   - wgpu.TextureFormat: the presentable color format
	ColorFormat() wgpu.TextureFormat

	// ConfigureSurface (re)configures the presentable surface to the given
	// physical pixel size and present mode. Required after every size
	// change before the next frame is acquired.
	//
	// Parameters:
	//   - width: physical width in pixels (must be >= 1)
	//   - height: physical height in pixels (must be >= 1)
	//   - mode: surface present mode
	//
	// Returns:
	//   - error: ErrUsage if no device exists, ErrDeviceLost after loss
	ConfigureSurface(width, height int, mode wgpu.PresentMode) error

	// OnUncapturedError registers the passive observer for non-fatal
	// device-side errors. Observed errors are logged and do not alter
	// control flow.
	//
	// Parameters:
	//   - fn: observer callback (nil clears)
	OnUncapturedError(fn func(err error))

	// OnDeviceLost registers the passive observer fired once on loss.
	//
	// Parameters:
	//   - fn: observer callback (nil clears)
	OnDeviceLost(fn func(reason string))

	// ReportUncapturedError forwards a non-fatal device-side error to the
	// uncaptured-error observer and the sink.
	//
	// Parameters:
	//   - err: the device-side error
	ReportUncapturedError(err error)

	// Release frees the device, surface, adapter and instance handles.
	Release()
}

type contextImpl struct {
	mu   *sync.Mutex
	sink diag.Sink

	surfaceDescriptor *wgpu.SurfaceDescriptor

	instance *wgpu.Instance
	surface  *wgpu.Surface
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	colorFormat wgpu.TextureFormat
	alphaMode   wgpu.CompositeAlphaMode

	initialized bool
	lost        atomic.Bool

	onUncapturedError func(err error)
	onDeviceLost      func(reason string)
}

var _ Context = &contextImpl{}

// NewContext creates a device context bound to a presentable surface.
// No GPU work happens until RequestDevice is called.
//
// Parameters:
//   - surfaceDescriptor: platform surface descriptor, typically from
//     Window.SurfaceDescriptor()
//   - options: functional options to configure the context
//
// Returns:
//   - Context: the new, un-initialized context
func NewContext(surfaceDescriptor *wgpu.SurfaceDescriptor, options ...ContextBuilderOption) Context {
	c := &contextImpl{
		mu:                &sync.Mutex{},
		sink:              diag.Default(),
		surfaceDescriptor: surfaceDescriptor,
	}
	for _, option := range options {
		option(c)
	}
	return c
}

func (c *contextImpl) RequestDevice(ctx context.Context, opts RequestOptions) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		c.sink.Error("device already acquired for this context", diag.CodeUsage)
		return fmt.Errorf("%w: RequestDevice on initialized context", ErrUsage)
	}
	if c.surfaceDescriptor == nil {
		c.sink.Error("missing surface descriptor", diag.CodeUsage)
		return fmt.Errorf("%w: missing surface descriptor", ErrUsage)
	}

	// Capability presence: instance creation is the platform support probe.
	if c.instance == nil {
		c.instance = wgpu.CreateInstance(nil)
	}
	if c.instance == nil {
		c.sink.Error("WebGPU is not supported on this platform", diag.CodeCapability)
		return ErrCapability
	}
	if c.surface == nil {
		c.surface = c.instance.CreateSurface(c.surfaceDescriptor)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	adapter, err := c.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface:    c.surface,
		PowerPreference:      opts.PowerPreference,
		ForceFallbackAdapter: opts.ForceFallbackAdapter,
	})
	if err != nil {
		c.sink.Error("adapter request failed", diag.CodeAdapterRequest, err.Error())
		return fmt.Errorf("%w: %v", ErrAdapterUnavailable, err)
	}
	c.adapter = adapter

	if err := ctx.Err(); err != nil {
		return err
	}

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label:            "Aurora Device",
		RequiredFeatures: opts.RequiredFeatures,
		RequiredLimits:   opts.RequiredLimits,
	})
	if err != nil {
		c.sink.Error("device request failed", diag.CodeDeviceRequest, err.Error())
		return fmt.Errorf("%w: %v", ErrDeviceRequest, err)
	}
	c.device = device
	c.queue = device.GetQueue()
	c.initialized = true

	return nil
}

func (c *contextImpl) Initialized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initialized
}

func (c *contextImpl) Lost() bool {
	return c.lost.Load()
}

func (c *contextImpl) MarkLost(reason string) {
	if c.lost.Swap(true) {
		return
	}
	c.sink.Error("GPU device lost; rebuild the device context and all dependents", diag.CodeDeviceLost, reason)

	c.mu.Lock()
	fn := c.onDeviceLost
	c.mu.Unlock()
	if fn != nil {
		fn(reason)
	}
}

func (c *contextImpl) Device() *wgpu.Device {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.device
}

func (c *contextImpl) Queue() *wgpu.Queue {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queue
}

func (c *contextImpl) Adapter() *wgpu.Adapter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.adapter
}

func (c *contextImpl) Surface() *wgpu.Surface {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.surface
}

func (c *contextImpl) ColorFormat() wgpu.TextureFormat {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.colorFormat
}

func (c *contextImpl) ConfigureSurface(width, height int, mode wgpu.PresentMode) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialized {
		c.sink.Error("surface configuration before device acquisition", diag.CodeUsage)
		return fmt.Errorf("%w: surface configured before RequestDevice", ErrUsage)
	}
	if c.lost.Load() {
		return ErrDeviceLost
	}

	capabilities := c.surface.GetCapabilities(c.adapter)
	c.colorFormat = capabilities.Formats[0]
	c.alphaMode = capabilities.AlphaModes[0]

	c.surface.Configure(c.adapter, c.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      c.colorFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: mode,
		AlphaMode:   c.alphaMode,
	})
	return nil
}

func (c *contextImpl) OnUncapturedError(fn func(err error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUncapturedError = fn
}

func (c *contextImpl) OnDeviceLost(fn func(reason string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onDeviceLost = fn
}

func (c *contextImpl) ReportUncapturedError(err error) {
	if err == nil {
		return
	}
	c.sink.Warn("uncaptured device error", diag.CodeUncapturedError, err.Error())

	c.mu.Lock()
	fn := c.onUncapturedError
	c.mu.Unlock()
	if fn != nil {
		fn(err)
	}
}

func (c *contextImpl) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.device != nil {
		c.device.Release()
		c.device = nil
		c.queue = nil
	}
	if c.surface != nil {
		c.surface.Release()
		c.surface = nil
	}
	if c.adapter != nil {
		c.adapter.Release()
		c.adapter = nil
	}
	if c.instance != nil {
		c.instance.Release()
		c.instance = nil
	}
	c.initialized = false
}
