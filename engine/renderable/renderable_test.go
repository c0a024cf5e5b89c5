package renderable

import (
	"context"
	"testing"

	"github.com/chewxy/math32"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"

	"github.com/aurora3d/aurora-go/engine/device"
)

// fakeContext satisfies device.Context without a GPU. Device() stays nil,
// so resource creation against it fails with a usage error. The padding
// field keeps the struct non-zero-sized so separate allocations have
// distinct addresses and compare as different contexts.
type fakeContext struct{ _ byte }

func (f *fakeContext) RequestDevice(ctx context.Context, opts device.RequestOptions) error {
	return nil
}
func (f *fakeContext) Initialized() bool                                              { return true }
func (f *fakeContext) Lost() bool                                                     { return false }
func (f *fakeContext) MarkLost(reason string)                                         {}
func (f *fakeContext) Device() *wgpu.Device                                           { return nil }
func (f *fakeContext) Queue() *wgpu.Queue                                             { return nil }
func (f *fakeContext) Adapter() *wgpu.Adapter                                         { return nil }
func (f *fakeContext) Surface() *wgpu.Surface                                         { return nil }
func (f *fakeContext) ColorFormat() wgpu.TextureFormat                                { return wgpu.TextureFormatBGRA8Unorm }
func (f *fakeContext) ConfigureSurface(width, height int, mode wgpu.PresentMode) error { return nil }
func (f *fakeContext) OnUncapturedError(fn func(err error))                           {}
func (f *fakeContext) OnDeviceLost(fn func(reason string))                            {}
func (f *fakeContext) ReportUncapturedError(err error)                                {}
func (f *fakeContext) Release()                                                       {}

var _ device.Context = &fakeContext{}

func TestMesh_UpdateAccumulatesRotation(t *testing.T) {
	assert := assert.New(t)

	m := NewMesh(nil, nil, WithRotationSpeed(0.1))
	assert.Zero(m.Rotation())

	m.Update(1)
	m.Update(1)
	assert.InDelta(0.2, m.Rotation(), 1e-6)

	m.SetRotationSpeed(0)
	m.Update(1)
	assert.InDelta(0.2, m.Rotation(), 1e-6)
}

func TestMesh_InitialRotationOption(t *testing.T) {
	assert := assert.New(t)

	m := NewMesh(nil, nil, WithInitialRotation(math32.Pi))
	assert.InDelta(float64(math32.Pi), float64(m.Rotation()), 1e-6)
}

func TestMesh_RenderBeforeInitializeIsNoOp(t *testing.T) {
	m := NewMesh(nil, nil)
	// Must not panic with nil pass and nil bind group.
	m.Render(nil, nil)
	m.Dispose()
}

func TestFlat_RenderBeforeInitializeIsNoOp(t *testing.T) {
	f := NewFlat(nil, nil, WithColor(1, 0, 0, 1))
	f.SetColor(0, 1, 0, 1)
	f.Render(nil, nil)
	f.Dispose()
}

func TestMesh_NeedsRebuildOnChangedConfiguration(t *testing.T) {
	assert := assert.New(t)

	ctxA := &fakeContext{}
	ctxB := &fakeContext{}
	m := NewMesh(nil, nil).(*meshImpl)
	m.initialized = true
	m.dev = ctxA
	m.colorFormat = wgpu.TextureFormatBGRA8Unorm
	m.sampleCount = 4

	assert.False(m.needsRebuild(ctxA, wgpu.TextureFormatBGRA8Unorm, 4))
	assert.True(m.needsRebuild(ctxB, wgpu.TextureFormatBGRA8Unorm, 4))
	assert.True(m.needsRebuild(ctxA, wgpu.TextureFormatRGBA8Unorm, 4))
	assert.True(m.needsRebuild(ctxA, wgpu.TextureFormatBGRA8Unorm, 1))
}

func TestMesh_ReinitializeOnNewContextDropsOldResources(t *testing.T) {
	assert := assert.New(t)

	ctxA := &fakeContext{}
	m := NewMesh(nil, nil).(*meshImpl)
	m.initialized = true
	m.dev = ctxA
	m.colorFormat = wgpu.TextureFormatBGRA8Unorm
	m.sampleCount = 4

	// Unchanged configuration: a no-op that keeps existing resources.
	assert.NoError(m.Initialize(ctxA, wgpu.TextureFormatBGRA8Unorm, 4))
	assert.True(m.initialized)

	// A replacement context invalidates the old resources even when the
	// rebuild itself cannot complete.
	err := m.Initialize(&fakeContext{}, wgpu.TextureFormatBGRA8Unorm, 4)
	assert.ErrorIs(err, device.ErrUsage)
	assert.False(m.initialized)
}

func TestFlat_ReinitializeOnChangedSampleCountDropsOldResources(t *testing.T) {
	assert := assert.New(t)

	ctx := &fakeContext{}
	f := NewFlat(nil, nil).(*flatImpl)
	f.initialized = true
	f.dev = ctx
	f.colorFormat = wgpu.TextureFormatBGRA8Unorm
	f.sampleCount = 4

	assert.NoError(f.Initialize(ctx, wgpu.TextureFormatBGRA8Unorm, 4))
	assert.True(f.initialized)

	err := f.Initialize(ctx, wgpu.TextureFormatBGRA8Unorm, 1)
	assert.ErrorIs(err, device.ErrUsage)
	assert.False(f.initialized)
}
