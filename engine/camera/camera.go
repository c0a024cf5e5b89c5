package camera

import (
	"fmt"
	"math"
	"sync"

	"github.com/aurora3d/aurora-go/common"
	"github.com/aurora3d/aurora-go/engine/device"
	"github.com/cogentcore/webgpu/wgpu"
)

// UniformSize is the byte size of the camera uniform buffer. The layout is
// a wire contract with the shader side: bytes 0-63 hold the column-major
// float32 view-projection matrix, bytes 64-75 the xyz world position, and
// the final 4 bytes pad the buffer to 16-byte alignment.
const UniformSize = 80

// cameraUniform mirrors the shader-side camera block. Field order and
// padding must not change.
type cameraUniform struct {
	ViewProjection [16]float32
	Position       [3]float32
	_              float32
}

// UniformBindGroupLayoutDescriptor returns the bind group layout shared by
// the camera binding and every renderable pipeline: one uniform buffer at
// group slot 0, visible to the vertex and fragment stages.
//
// Returns:
//   - wgpu.BindGroupLayoutDescriptor: the camera uniform layout
func UniformBindGroupLayoutDescriptor() wgpu.BindGroupLayoutDescriptor {
	return wgpu.BindGroupLayoutDescriptor{
		Label: "Camera Bind Group Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: UniformSize,
				},
			},
		},
	}
}

// Camera holds view/projection state and its GPU uniform binding. Every
// setter recomputes the view, projection, and view-projection matrices
// eagerly, so a uniform write always reflects the latest state without a
// separate update pass.
type Camera interface {
	// Position returns the camera position in world space.
	//
	// Returns:
	//   - x, y, z: position components
	Position() (x, y, z float32)

	// Target returns the point the camera looks at.
	//
	// Returns:
	//   - x, y, z: target components
	Target() (x, y, z float32)

	// Up returns the camera's up vector.
	//
	// Returns:
	//   - x, y, z: up vector components
	Up() (x, y, z float32)

	// Fov returns the vertical field of view in radians.
	//
	// Returns:
	//   - float32: field of view in radians
	Fov() float32

	// Aspect returns the aspect ratio (width / height).
	//
	// Returns:
	//   - float32: the aspect ratio
	Aspect() float32

	// Near returns the near clipping plane distance.
	//
	// Returns:
	//   - float32: near plane distance
	Near() float32

	// Far returns the far clipping plane distance.
	//
	// Returns:
	//   - float32: far plane distance
	Far() float32

	// ViewMatrix returns the current 4x4 view matrix (column-major).
	//
	// Returns:
	//   - [16]float32: the view matrix
	ViewMatrix() [16]float32

	// ProjectionMatrix returns the current 4x4 projection matrix (column-major).
	//
	// Returns:
	//   - [16]float32: the projection matrix
	ProjectionMatrix() [16]float32

	// ViewProjectionMatrix returns the combined view-projection matrix (column-major).
	//
	// Returns:
	//   - [16]float32: the view-projection matrix
	ViewProjectionMatrix() [16]float32

	// SetPosition moves the camera and recomputes all matrices.
	//
	// Parameters:
	//   - x, y, z: position components
	SetPosition(x, y, z float32)

	// SetTarget re-aims the camera and recomputes all matrices.
	//
	// Parameters:
	//   - x, y, z: target components
	SetTarget(x, y, z float32)

	// SetUp sets the up vector and recomputes all matrices.
	//
	// Parameters:
	//   - x, y, z: up vector components
	SetUp(x, y, z float32)

	// SetFov sets the field of view in radians and recomputes all matrices.
	//
	// Parameters:
	//   - fov: field of view in radians
	SetFov(fov float32)

	// SetAspect sets the aspect ratio and recomputes all matrices.
	//
	// Parameters:
	//   - aspect: the aspect ratio (width / height)
	SetAspect(aspect float32)

	// SetNear sets the near plane and recomputes all matrices.
	//
	// Parameters:
	//   - near: near plane distance
	SetNear(near float32)

	// SetFar sets the far plane and recomputes all matrices.
	//
	// Parameters:
	//   - far: far plane distance
	SetFar(far float32)

	// EnsureBinding lazily creates the uniform buffer, bind group layout,
	// and bind group, exactly once. Subsequent calls are no-ops.
	//
	// Parameters:
	//   - ctx: the device context to allocate against
	//
	// Returns:
	//   - error: an error if the context has no device or creation fails
	EnsureBinding(ctx device.Context) error

	// WriteUniforms writes the packed 80-byte uniform block to the queue.
	// A no-op before EnsureBinding has succeeded.
	//
	// Parameters:
	//   - queue: the device queue to write through
	WriteUniforms(queue *wgpu.Queue)

	// PackUniforms returns the uniform block bytes that WriteUniforms
	// uploads. With unchanged camera state the result is byte-identical
	// across calls.
	//
	// Returns:
	//   - []byte: the 80-byte uniform block
	PackUniforms() []byte

	// BindGroup returns the camera bind group, or nil before EnsureBinding.
	//
	// Returns:
	//   - *wgpu.BindGroup: the bind group
	BindGroup() *wgpu.BindGroup

	// Release frees the camera's GPU resources. Safe to call repeatedly.
	Release()
}

type cameraImpl struct {
	mu *sync.Mutex

	position [3]float32
	target   [3]float32
	up       [3]float32

	fov    float32
	aspect float32
	near   float32
	far    float32

	viewMatrix           [16]float32
	projectionMatrix     [16]float32
	viewProjectionMatrix [16]float32

	bound           bool
	uniformBuffer   *wgpu.Buffer
	bindGroupLayout *wgpu.BindGroupLayout
	bindGroup       *wgpu.BindGroup
}

var _ Camera = &cameraImpl{}

// NewCamera creates a camera at the origin looking down -Z with default
// perspective settings. Matrices are computed immediately.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:       &sync.Mutex{},
		position: [3]float32{0, 0, 5},
		target:   [3]float32{0, 0, 0},
		up:       [3]float32{0, 1, 0},
		fov:      45.0 * (math.Pi / 180.0), // radians
		aspect:   1.0,
		near:     0.1,
		far:      100.0,
	}
	for _, option := range options {
		option(c)
	}
	c.updateMatrices()
	return c
}

func (c *cameraImpl) Position() (x, y, z float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position[0], c.position[1], c.position[2]
}

func (c *cameraImpl) Target() (x, y, z float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target[0], c.target[1], c.target[2]
}

func (c *cameraImpl) Up() (x, y, z float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.up[0], c.up[1], c.up[2]
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) ViewMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewMatrix
}

func (c *cameraImpl) ProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix
}

func (c *cameraImpl) ViewProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewProjectionMatrix
}

func (c *cameraImpl) SetPosition(x, y, z float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position = [3]float32{x, y, z}
	c.updateMatrices()
}

func (c *cameraImpl) SetTarget(x, y, z float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.target = [3]float32{x, y, z}
	c.updateMatrices()
}

func (c *cameraImpl) SetUp(x, y, z float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.up = [3]float32{x, y, z}
	c.updateMatrices()
}

func (c *cameraImpl) SetFov(fov float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fov = fov
	c.updateMatrices()
}

func (c *cameraImpl) SetAspect(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = aspect
	c.updateMatrices()
}

func (c *cameraImpl) SetNear(near float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.near = near
	c.updateMatrices()
}

func (c *cameraImpl) SetFar(far float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.far = far
	c.updateMatrices()
}

// updateMatrices recalculates the view, projection, and view-projection
// matrices from current state. Caller must hold the mutex.
func (c *cameraImpl) updateMatrices() {
	common.LookAt(c.viewMatrix[:],
		c.position[0], c.position[1], c.position[2],
		c.target[0], c.target[1], c.target[2],
		c.up[0], c.up[1], c.up[2],
	)
	common.Perspective(c.projectionMatrix[:], c.fov, c.aspect, c.near, c.far)
	common.Mul4(c.viewProjectionMatrix[:], c.projectionMatrix[:], c.viewMatrix[:])
}

func (c *cameraImpl) EnsureBinding(ctx device.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.bound {
		return nil
	}
	dev := ctx.Device()
	if dev == nil {
		return fmt.Errorf("%w: camera binding requires an acquired device", device.ErrUsage)
	}

	buf, err := dev.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Camera Uniform Buffer",
		Size:  UniformSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("failed to create camera uniform buffer: %w", err)
	}

	layoutDescriptor := UniformBindGroupLayoutDescriptor()
	layout, err := dev.CreateBindGroupLayout(&layoutDescriptor)
	if err != nil {
		buf.Release()
		return fmt.Errorf("failed to create camera bind group layout: %w", err)
	}

	bindGroup, err := dev.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Camera Bind Group",
		Layout: layout,
		Entries: []wgpu.BindGroupEntry{
			{
				Binding: 0,
				Buffer:  buf,
				Offset:  0,
				Size:    wgpu.WholeSize,
			},
		},
	})
	if err != nil {
		layout.Release()
		buf.Release()
		return fmt.Errorf("failed to create camera bind group: %w", err)
	}

	c.uniformBuffer = buf
	c.bindGroupLayout = layout
	c.bindGroup = bindGroup
	c.bound = true
	return nil
}

func (c *cameraImpl) WriteUniforms(queue *wgpu.Queue) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.bound || queue == nil {
		return
	}
	queue.WriteBuffer(c.uniformBuffer, 0, c.packUniformsLocked())
}

func (c *cameraImpl) PackUniforms() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.packUniformsLocked()
}

// packUniformsLocked builds the 80-byte uniform block. Caller must hold
// the mutex.
func (c *cameraImpl) packUniformsLocked() []byte {
	u := cameraUniform{
		ViewProjection: c.viewProjectionMatrix,
		Position:       c.position,
	}
	raw := common.StructToBytes(&u)
	out := make([]byte, UniformSize)
	copy(out, raw)
	return out
}

func (c *cameraImpl) BindGroup() *wgpu.BindGroup {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bindGroup
}

func (c *cameraImpl) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.bindGroup != nil {
		c.bindGroup.Release()
		c.bindGroup = nil
	}
	if c.bindGroupLayout != nil {
		c.bindGroupLayout.Release()
		c.bindGroupLayout = nil
	}
	if c.uniformBuffer != nil {
		c.uniformBuffer.Release()
		c.uniformBuffer = nil
	}
	c.bound = false
}
