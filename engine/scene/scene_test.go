package scene

import (
	"errors"
	"sync"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"

	"github.com/aurora3d/aurora-go/engine/camera"
	"github.com/aurora3d/aurora-go/engine/device"
	"github.com/aurora3d/aurora-go/engine/renderable"
	"github.com/aurora3d/aurora-go/engine/renderer"
)

// fakeRenderSource stands in for the renderer during preparation.
type fakeRenderSource struct {
	initialized bool
}

func (f *fakeRenderSource) Initialized() bool              { return f.initialized }
func (f *fakeRenderSource) DeviceContext() device.Context  { return nil }
func (f *fakeRenderSource) ColorFormat() wgpu.TextureFormat {
	return wgpu.TextureFormatBGRA8Unorm
}
func (f *fakeRenderSource) SampleCount() uint32 { return 4 }

var _ RenderSource = &fakeRenderSource{}

// fakeCamera satisfies camera.Camera without GPU resources.
type fakeCamera struct {
	bindCalls  int
	writeCalls int
	released   bool
	bindErr    error
	aspect     float32
}

func (f *fakeCamera) Position() (x, y, z float32)        { return 0, 0, 0 }
func (f *fakeCamera) Target() (x, y, z float32)          { return 0, 0, 0 }
func (f *fakeCamera) Up() (x, y, z float32)              { return 0, 1, 0 }
func (f *fakeCamera) Fov() float32                       { return 0 }
func (f *fakeCamera) Aspect() float32                    { return f.aspect }
func (f *fakeCamera) Near() float32                      { return 0 }
func (f *fakeCamera) Far() float32                       { return 0 }
func (f *fakeCamera) ViewMatrix() [16]float32            { return [16]float32{} }
func (f *fakeCamera) ProjectionMatrix() [16]float32      { return [16]float32{} }
func (f *fakeCamera) ViewProjectionMatrix() [16]float32  { return [16]float32{} }
func (f *fakeCamera) SetPosition(x, y, z float32)        {}
func (f *fakeCamera) SetTarget(x, y, z float32)          {}
func (f *fakeCamera) SetUp(x, y, z float32)              {}
func (f *fakeCamera) SetFov(fov float32)                 {}
func (f *fakeCamera) SetAspect(aspect float32)           { f.aspect = aspect }
func (f *fakeCamera) SetNear(near float32)               {}
func (f *fakeCamera) SetFar(far float32)                 {}
func (f *fakeCamera) EnsureBinding(ctx device.Context) error {
	f.bindCalls++
	return f.bindErr
}
func (f *fakeCamera) WriteUniforms(queue *wgpu.Queue) { f.writeCalls++ }
func (f *fakeCamera) PackUniforms() []byte            { return make([]byte, camera.UniformSize) }
func (f *fakeCamera) BindGroup() *wgpu.BindGroup      { return nil }
func (f *fakeCamera) Release()                        { f.released = true }

var _ camera.Camera = &fakeCamera{}

// fakeRenderable records lifecycle calls against a shared order log.
type fakeRenderable struct {
	mu      *sync.Mutex
	name    string
	order   *[]string
	initErr error

	initialized bool
	disposed    bool
	renders     int
	updates     []float32
}

func newFakeRenderable(name string, order *[]string, mu *sync.Mutex) *fakeRenderable {
	return &fakeRenderable{mu: mu, name: name, order: order}
}

func (f *fakeRenderable) Initialize(ctx device.Context, colorFormat wgpu.TextureFormat, sampleCount uint32) error {
	if f.initErr != nil {
		return f.initErr
	}
	f.mu.Lock()
	*f.order = append(*f.order, "init:"+f.name)
	f.mu.Unlock()
	f.initialized = true
	return nil
}

func (f *fakeRenderable) Render(pass *wgpu.RenderPassEncoder, cameraBinds *wgpu.BindGroup) {
	f.mu.Lock()
	*f.order = append(*f.order, "render:"+f.name)
	f.mu.Unlock()
	f.renders++
}

func (f *fakeRenderable) Dispose() { f.disposed = true }

// updatableRenderable additionally implements renderable.Updatable.
type updatableRenderable struct {
	fakeRenderable
}

func (u *updatableRenderable) Update(deltaTime float32) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.updates = append(u.updates, deltaTime)
}

func TestPrepare_FailsAgainstUninitializedRenderer(t *testing.T) {
	assert := assert.New(t)

	var order []string
	var mu sync.Mutex
	cam := &fakeCamera{}
	s := NewScene(cam)
	s.Add(newFakeRenderable("a", &order, &mu))

	err := s.Prepare(&fakeRenderSource{initialized: false})
	assert.ErrorIs(err, device.ErrUsage)
	assert.False(s.Prepared())
	assert.Empty(order)
	assert.Zero(cam.bindCalls)
}

func TestPrepare_InitializesInInsertionOrderThenBindsCamera(t *testing.T) {
	assert := assert.New(t)

	var order []string
	var mu sync.Mutex
	cam := &fakeCamera{}
	s := NewScene(cam)
	s.Add(newFakeRenderable("a", &order, &mu))
	s.Add(newFakeRenderable("b", &order, &mu))
	s.Add(newFakeRenderable("c", &order, &mu))

	assert.NoError(s.Prepare(&fakeRenderSource{initialized: true}))
	assert.True(s.Prepared())
	assert.Equal([]string{"init:a", "init:b", "init:c"}, order)
	assert.Equal(1, cam.bindCalls)
}

func TestPrepare_FailureLeavesSceneUnprepared(t *testing.T) {
	assert := assert.New(t)

	var order []string
	var mu sync.Mutex
	s := NewScene(&fakeCamera{})
	good := newFakeRenderable("good", &order, &mu)
	bad := newFakeRenderable("bad", &order, &mu)
	bad.initErr = errors.New("shader compilation failed")
	s.Add(good)
	s.Add(bad)

	assert.Error(s.Prepare(&fakeRenderSource{initialized: true}))
	assert.False(s.Prepared())
}

func TestPrepare_CameraBindFailureLeavesSceneUnprepared(t *testing.T) {
	assert := assert.New(t)

	var order []string
	var mu sync.Mutex
	cam := &fakeCamera{bindErr: errors.New("no device")}
	s := NewScene(cam)
	s.Add(newFakeRenderable("a", &order, &mu))

	assert.Error(s.Prepare(&fakeRenderSource{initialized: true}))
	assert.False(s.Prepared())
}

func TestRender_NoOpWhenUnprepared(t *testing.T) {
	assert := assert.New(t)

	var order []string
	var mu sync.Mutex
	cam := &fakeCamera{}
	s := NewScene(cam)
	s.Add(newFakeRenderable("a", &order, &mu))

	s.Render(&renderer.FrameSession{})
	assert.Empty(order)
	assert.Zero(cam.writeCalls)
}

func TestRender_DrawsInInsertionOrder(t *testing.T) {
	assert := assert.New(t)

	var order []string
	var mu sync.Mutex
	cam := &fakeCamera{}
	s := NewScene(cam)
	s.Add(newFakeRenderable("first", &order, &mu))
	s.Add(newFakeRenderable("second", &order, &mu))

	assert.NoError(s.Prepare(&fakeRenderSource{initialized: true}))
	order = order[:0]

	s.Render(&renderer.FrameSession{})
	assert.Equal([]string{"render:first", "render:second"}, order)
}

func TestAddAfterPrepare_MarksUnprepared(t *testing.T) {
	assert := assert.New(t)

	var order []string
	var mu sync.Mutex
	s := NewScene(&fakeCamera{})
	s.Add(newFakeRenderable("a", &order, &mu))
	assert.NoError(s.Prepare(&fakeRenderSource{initialized: true}))
	assert.True(s.Prepared())

	s.Add(newFakeRenderable("b", &order, &mu))
	assert.False(s.Prepared())
}

func TestRemove_DisposesAndReports(t *testing.T) {
	assert := assert.New(t)

	var order []string
	var mu sync.Mutex
	s := NewScene(&fakeCamera{})
	a := newFakeRenderable("a", &order, &mu)
	b := newFakeRenderable("b", &order, &mu)
	s.Add(a)
	s.Add(b)

	assert.True(s.Remove(a))
	assert.True(a.disposed)
	assert.Equal(1, s.Count())

	assert.False(s.Remove(a))
}

func TestUpdate_RunsEveryUpdatableWithBarrier(t *testing.T) {
	assert := assert.New(t)

	var order []string
	var mu sync.Mutex
	s := NewScene(&fakeCamera{}, WithUpdateWorkers(2))

	updatables := make([]*updatableRenderable, 4)
	for i := range updatables {
		u := &updatableRenderable{fakeRenderable: *newFakeRenderable("u", &order, &mu)}
		updatables[i] = u
		s.Add(u)
	}
	s.Add(newFakeRenderable("static", &order, &mu))

	s.Update(0.5)

	// Update returns only after every task ran.
	for _, u := range updatables {
		assert.Equal([]float32{0.5}, u.updates)
	}
}

func TestDispose_ReleasesEverything(t *testing.T) {
	assert := assert.New(t)

	var order []string
	var mu sync.Mutex
	cam := &fakeCamera{}
	s := NewScene(cam)
	a := newFakeRenderable("a", &order, &mu)
	s.Add(a)

	s.Dispose()
	assert.True(a.disposed)
	assert.True(cam.released)
	assert.Zero(s.Count())
	assert.False(s.Prepared())
}

func TestInvalidate_ForcesReprepare(t *testing.T) {
	assert := assert.New(t)

	var order []string
	var mu sync.Mutex
	s := NewScene(&fakeCamera{})
	s.Add(newFakeRenderable("a", &order, &mu))
	assert.NoError(s.Prepare(&fakeRenderSource{initialized: true}))

	s.Invalidate()
	assert.False(s.Prepared())
}

var _ renderable.Renderable = &fakeRenderable{}
var _ renderable.Updatable = &updatableRenderable{}
