package renderer

import (
	"fmt"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/aurora3d/aurora-go/engine/device"
)

// wgpuBackendImpl drives the wgpu device owned by the device context. It
// performs no policy decisions of its own; the frontend decides when to
// configure, rebuild, and which sample count to use.
type wgpuBackendImpl struct {
	mu  *sync.Mutex
	dev device.Context
}

var _ Backend = &wgpuBackendImpl{}

// newWGPUBackend creates the production backend over the given device
// context.
//
// Parameters:
//   - dev: the device context supplying device, queue, and surface
//
// Returns:
//   - Backend: the wgpu-backed implementation
func newWGPUBackend(dev device.Context) Backend {
	return &wgpuBackendImpl{
		mu:  &sync.Mutex{},
		dev: dev,
	}
}

func (b *wgpuBackendImpl) ConfigureSurface(width, height int, mode wgpu.PresentMode) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.dev.ConfigureSurface(width, height, mode)
}

func (b *wgpuBackendImpl) CreateColorTarget(width, height int, sampleCount uint32) (Attachment, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	dev := b.dev.Device()
	if dev == nil {
		return Attachment{}, fmt.Errorf("%w: device not initialized", device.ErrUsage)
	}

	texture, err := dev.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Multisample Color Texture",
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   sampleCount,
		Dimension:     wgpu.TextureDimension2D,
		Format:        b.dev.ColorFormat(),
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return Attachment{}, err
	}

	view, err := texture.CreateView(nil)
	if err != nil {
		texture.Release()
		return Attachment{}, err
	}

	return Attachment{Texture: texture, View: view, Allocated: true}, nil
}

func (b *wgpuBackendImpl) CreateDepthTarget(width, height int, sampleCount uint32) (Attachment, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	dev := b.dev.Device()
	if dev == nil {
		return Attachment{}, fmt.Errorf("%w: device not initialized", device.ErrUsage)
	}

	// Depth sample count must match the color attachment.
	texture, err := dev.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Depth Texture",
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   sampleCount,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth24Plus,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return Attachment{}, err
	}

	view, err := texture.CreateView(nil)
	if err != nil {
		texture.Release()
		return Attachment{}, err
	}

	return Attachment{Texture: texture, View: view, Allocated: true}, nil
}

func (b *wgpuBackendImpl) ReleaseAttachment(attachment *Attachment) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if attachment.View != nil {
		attachment.View.Release()
		attachment.View = nil
	}
	if attachment.Texture != nil {
		attachment.Texture.Release()
		attachment.Texture = nil
	}
	attachment.Allocated = false
}

func (b *wgpuBackendImpl) AcquireFrame(targets *TargetSet, clearColor wgpu.Color) (*FrameSession, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	surfaceTexture, err := b.dev.Surface().GetCurrentTexture()
	if err != nil {
		return nil, err
	}

	surfaceView, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return nil, err
	}

	encoder, err := b.dev.Device().CreateCommandEncoder(nil)
	if err != nil {
		surfaceView.Release()
		surfaceTexture.Release()
		return nil, err
	}

	// With MSAA the pass draws into the multisample view and resolves into
	// the swapchain view; without it the swapchain view is drawn directly.
	colorView, resolveTarget := targets.ColorAttachment(surfaceView)
	storeOp := wgpu.StoreOpStore
	if resolveTarget != nil {
		storeOp = wgpu.StoreOpDiscard
	}

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:          colorView,
				ResolveTarget: resolveTarget,
				LoadOp:        wgpu.LoadOpClear,
				StoreOp:       storeOp,
				ClearValue:    clearColor,
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            targets.DepthView(),
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	})

	return &FrameSession{
		encoder:        encoder,
		pass:           pass,
		surfaceTexture: surfaceTexture,
		surfaceView:    surfaceView,
	}, nil
}

func (b *wgpuBackendImpl) SubmitFrame(session *FrameSession) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	session.pass.End()
	session.pass = nil

	commandBuffer, err := session.encoder.Finish(nil)
	if err != nil {
		session.encoder.Release()
		session.encoder = nil
		b.releaseSurfaceLocked(session)
		return err
	}

	b.dev.Queue().Submit(commandBuffer)

	commandBuffer.Release()
	session.encoder.Release()
	session.encoder = nil
	return nil
}

func (b *wgpuBackendImpl) Present(session *FrameSession) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if session.surfaceTexture == nil {
		return
	}

	b.dev.Surface().Present()
	b.releaseSurfaceLocked(session)
}

func (b *wgpuBackendImpl) releaseSurfaceLocked(session *FrameSession) {
	if session.surfaceView != nil {
		session.surfaceView.Release()
		session.surfaceView = nil
	}
	if session.surfaceTexture != nil {
		session.surfaceTexture.Release()
		session.surfaceTexture = nil
	}
}
