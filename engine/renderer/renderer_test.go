package renderer

import (
	"context"
	"errors"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"

	"github.com/aurora3d/aurora-go/engine/device"
	"github.com/aurora3d/aurora-go/engine/diag"
	"github.com/aurora3d/aurora-go/engine/surface"
)

// fakeDevice satisfies device.Context without touching the GPU.
type fakeDevice struct {
	initialized bool
	lost        bool
	lostReason  string
	uncaptured  []error
}

func (f *fakeDevice) RequestDevice(ctx context.Context, opts device.RequestOptions) error {
	f.initialized = true
	return nil
}
func (f *fakeDevice) Initialized() bool { return f.initialized }
func (f *fakeDevice) Lost() bool        { return f.lost }
func (f *fakeDevice) MarkLost(reason string) {
	f.lost = true
	f.lostReason = reason
}
func (f *fakeDevice) Device() *wgpu.Device           { return nil }
func (f *fakeDevice) Queue() *wgpu.Queue             { return nil }
func (f *fakeDevice) Adapter() *wgpu.Adapter         { return nil }
func (f *fakeDevice) Surface() *wgpu.Surface         { return nil }
func (f *fakeDevice) ColorFormat() wgpu.TextureFormat {
	return wgpu.TextureFormatBGRA8Unorm
}
func (f *fakeDevice) ConfigureSurface(width, height int, mode wgpu.PresentMode) error { return nil }
func (f *fakeDevice) OnUncapturedError(fn func(err error))                            {}
func (f *fakeDevice) OnDeviceLost(fn func(reason string))                             {}
func (f *fakeDevice) ReportUncapturedError(err error) {
	f.uncaptured = append(f.uncaptured, err)
}
func (f *fakeDevice) Release()                                                        {}

var _ device.Context = &fakeDevice{}

// fakeBackend records calls and can be told to fail.
type fakeBackend struct {
	configures   []struct{ width, height int }
	colorTargets int
	depthTargets int
	released     int
	acquires     int
	submits      int
	presents     int

	acquireErr error
	submitErr  error
	depthErr   error
}

func (f *fakeBackend) ConfigureSurface(width, height int, mode wgpu.PresentMode) error {
	f.configures = append(f.configures, struct{ width, height int }{width, height})
	return nil
}

func (f *fakeBackend) CreateColorTarget(width, height int, sampleCount uint32) (Attachment, error) {
	f.colorTargets++
	return Attachment{Allocated: true}, nil
}

func (f *fakeBackend) CreateDepthTarget(width, height int, sampleCount uint32) (Attachment, error) {
	if f.depthErr != nil {
		return Attachment{}, f.depthErr
	}
	f.depthTargets++
	return Attachment{Allocated: true}, nil
}

func (f *fakeBackend) ReleaseAttachment(attachment *Attachment) {
	f.released++
	attachment.Allocated = false
}

func (f *fakeBackend) AcquireFrame(targets *TargetSet, clearColor wgpu.Color) (*FrameSession, error) {
	if f.acquireErr != nil {
		return nil, f.acquireErr
	}
	f.acquires++
	return &FrameSession{}, nil
}

func (f *fakeBackend) SubmitFrame(session *FrameSession) error {
	if f.submitErr != nil {
		return f.submitErr
	}
	f.submits++
	return nil
}

func (f *fakeBackend) Present(session *FrameSession) {
	f.presents++
}

var _ Backend = &fakeBackend{}

func newTestRenderer(options ...RendererBuilderOption) (Renderer, *fakeDevice, *fakeBackend, surface.Manager) {
	dev := &fakeDevice{}
	backend := &fakeBackend{}
	surf := surface.NewManager(1)
	surf.SetSize(800, 600)
	options = append([]RendererBuilderOption{WithBackend(backend)}, options...)
	r := NewRenderer(dev, surf, options...)
	return r, dev, backend, surf
}

func TestClampSampleCount(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(uint32(1), ClampSampleCount(1))
	assert.Equal(uint32(2), ClampSampleCount(2))
	assert.Equal(uint32(4), ClampSampleCount(4))
	assert.Equal(uint32(8), ClampSampleCount(8))
	assert.Equal(uint32(1), ClampSampleCount(0))
	assert.Equal(uint32(1), ClampSampleCount(3))
	assert.Equal(uint32(1), ClampSampleCount(16))
	assert.Equal(uint32(1), ClampSampleCount(-4))
}

func TestTargetSet_InvalidateAllocatesPerSampleCount(t *testing.T) {
	assert := assert.New(t)

	backend := &fakeBackend{}
	var targets TargetSet
	assert.Equal(TargetUninitialized, targets.State())

	// Multisampled: depth plus MSAA color.
	assert.NoError(targets.Invalidate(backend, 800, 600, 4))
	assert.Equal(TargetValid, targets.State())
	assert.Equal(uint32(4), targets.SampleCount())
	assert.Equal(1, backend.depthTargets)
	assert.Equal(1, backend.colorTargets)

	// Single sample: the MSAA attachment is released and not recreated.
	assert.NoError(targets.Invalidate(backend, 800, 600, 1))
	assert.Equal(uint32(1), targets.SampleCount())
	assert.Equal(2, backend.depthTargets)
	assert.Equal(1, backend.colorTargets)
	assert.Equal(2, backend.released)
}

func TestTargetSet_InvalidSampleCountDowngradesToOne(t *testing.T) {
	assert := assert.New(t)

	backend := &fakeBackend{}
	var targets TargetSet
	assert.NoError(targets.Invalidate(backend, 100, 100, 5))
	assert.Equal(uint32(1), targets.SampleCount())
	assert.Zero(backend.colorTargets)
}

func TestTargetSet_FailedInvalidateStaysStale(t *testing.T) {
	assert := assert.New(t)

	backend := &fakeBackend{depthErr: errors.New("out of memory")}
	var targets TargetSet
	assert.Error(targets.Invalidate(backend, 100, 100, 1))
	assert.Equal(TargetStale, targets.State())
}

func TestTargetSet_MarkStaleOnlyFromValid(t *testing.T) {
	assert := assert.New(t)

	var targets TargetSet
	targets.MarkStale()
	assert.Equal(TargetUninitialized, targets.State())

	backend := &fakeBackend{}
	assert.NoError(targets.Invalidate(backend, 10, 10, 1))
	targets.MarkStale()
	assert.Equal(TargetStale, targets.State())
}

func TestBeginFrame_BeforeInitializeIsUsageError(t *testing.T) {
	assert := assert.New(t)

	r, _, _, _ := newTestRenderer()
	session, err := r.BeginFrame()
	assert.Nil(session)
	assert.ErrorIs(err, device.ErrUsage)
}

func TestBeginFrame_RebuildsTargetsLazily(t *testing.T) {
	assert := assert.New(t)

	r, _, backend, _ := newTestRenderer()
	assert.NoError(r.Initialize(context.Background(), device.RequestOptions{}))
	assert.Equal(TargetUninitialized, r.TargetState())

	session, err := r.BeginFrame()
	assert.NoError(err)
	assert.NotNil(session)
	assert.Equal(TargetValid, r.TargetState())

	// Physical size flowed into target allocation via the surface manager.
	assert.Equal(1, backend.acquires)
	assert.NoError(r.EndFrame(session))
}

func TestBeginFrame_DoubleBeginLeavesSessionOpen(t *testing.T) {
	assert := assert.New(t)

	rec := diag.NewRecorder()
	r, _, backend, _ := newTestRenderer(WithSink(rec))
	assert.NoError(r.Initialize(context.Background(), device.RequestOptions{}))

	session, err := r.BeginFrame()
	assert.NoError(err)

	second, err := r.BeginFrame()
	assert.Nil(second)
	assert.ErrorIs(err, device.ErrUsage)
	assert.Contains(rec.Codes(), diag.CodeUsage)

	// The original session still closes normally.
	assert.NoError(r.EndFrame(session))
	assert.Equal(1, backend.submits)
}

func TestEndFrame_WithoutBeginIsUsageError(t *testing.T) {
	assert := assert.New(t)

	rec := diag.NewRecorder()
	r, _, _, _ := newTestRenderer(WithSink(rec))
	assert.NoError(r.Initialize(context.Background(), device.RequestOptions{}))

	err := r.EndFrame(&FrameSession{})
	assert.ErrorIs(err, device.ErrUsage)
	assert.Contains(rec.Codes(), diag.CodeUsage)
}

func TestEndFrame_MismatchedSessionIsUsageError(t *testing.T) {
	assert := assert.New(t)

	r, _, backend, _ := newTestRenderer()
	assert.NoError(r.Initialize(context.Background(), device.RequestOptions{}))

	session, err := r.BeginFrame()
	assert.NoError(err)

	err = r.EndFrame(&FrameSession{})
	assert.ErrorIs(err, device.ErrUsage)

	// The open session is still the one that must be ended.
	assert.NoError(r.EndFrame(session))
	assert.Equal(1, backend.submits)
}

func TestResize_MarksTargetsStaleAndRebuilds(t *testing.T) {
	assert := assert.New(t)

	r, _, backend, _ := newTestRenderer()
	assert.NoError(r.Initialize(context.Background(), device.RequestOptions{}))

	session, _ := r.BeginFrame()
	assert.NoError(r.EndFrame(session))
	assert.Equal(TargetValid, r.TargetState())
	depthBefore := backend.depthTargets

	r.Resize(1024, 768)
	assert.Equal(TargetStale, r.TargetState())

	session, err := r.BeginFrame()
	assert.NoError(err)
	assert.Equal(TargetValid, r.TargetState())
	assert.Greater(backend.depthTargets, depthBefore)

	// The resize also reconfigured the surface at the new physical size.
	last := backend.configures[len(backend.configures)-1]
	assert.Equal(1024, last.width)
	assert.Equal(768, last.height)
	assert.NoError(r.EndFrame(session))
}

func TestSetSampleCount_InvalidValueDowngrades(t *testing.T) {
	assert := assert.New(t)

	r, _, _, _ := newTestRenderer()
	assert.NoError(r.Initialize(context.Background(), device.RequestOptions{}))

	r.SetSampleCount(3)
	session, err := r.BeginFrame()
	assert.NoError(err)
	assert.Equal(uint32(1), r.SampleCount())
	assert.NoError(r.EndFrame(session))
}

func TestBeginFrame_AfterDeviceLossFails(t *testing.T) {
	assert := assert.New(t)

	r, dev, _, _ := newTestRenderer()
	assert.NoError(r.Initialize(context.Background(), device.RequestOptions{}))

	dev.MarkLost("surface destroyed")
	session, err := r.BeginFrame()
	assert.Nil(session)
	assert.ErrorIs(err, device.ErrDeviceLost)
	assert.False(r.Initialized())
}

func TestBeginFrame_AcquireLossMarksContextLost(t *testing.T) {
	assert := assert.New(t)

	r, dev, backend, _ := newTestRenderer()
	assert.NoError(r.Initialize(context.Background(), device.RequestOptions{}))

	backend.acquireErr = errors.New("Device lost: GPU hung")
	session, err := r.BeginFrame()
	assert.Nil(session)
	assert.ErrorIs(err, device.ErrDeviceLost)
	assert.True(dev.Lost())
}

func TestBeginFrame_NonLossAcquireErrorReportsUncaptured(t *testing.T) {
	assert := assert.New(t)

	r, dev, backend, _ := newTestRenderer()
	assert.NoError(r.Initialize(context.Background(), device.RequestOptions{}))

	boom := errors.New("surface outdated")
	backend.acquireErr = boom
	session, err := r.BeginFrame()
	assert.Nil(session)
	assert.ErrorIs(err, boom)

	// The error reached the uncaptured-error observers without
	// invalidating the device.
	assert.Equal([]error{boom}, dev.uncaptured)
	assert.False(dev.Lost())
}

func TestPresent_NoOpWithoutSubmittedFrame(t *testing.T) {
	assert := assert.New(t)

	r, _, backend, _ := newTestRenderer()
	assert.NoError(r.Initialize(context.Background(), device.RequestOptions{}))

	r.Present()
	assert.Zero(backend.presents)

	session, _ := r.BeginFrame()
	assert.NoError(r.EndFrame(session))
	r.Present()
	assert.Equal(1, backend.presents)

	// A second Present without a new frame is a no-op.
	r.Present()
	assert.Equal(1, backend.presents)
}

func TestDevicePixelRatio_ChangesPhysicalTargetSize(t *testing.T) {
	assert := assert.New(t)

	r, _, backend, _ := newTestRenderer()
	assert.NoError(r.Initialize(context.Background(), device.RequestOptions{}))

	session, _ := r.BeginFrame()
	assert.NoError(r.EndFrame(session))

	r.SetDevicePixelRatio(2)
	assert.Equal(TargetStale, r.TargetState())

	session, err := r.BeginFrame()
	assert.NoError(err)
	last := backend.configures[len(backend.configures)-1]
	assert.Equal(1600, last.width)
	assert.Equal(1200, last.height)
	assert.NoError(r.EndFrame(session))
}
