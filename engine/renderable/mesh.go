package renderable

import (
	"fmt"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/aurora3d/aurora-go/common"
	"github.com/aurora3d/aurora-go/engine/camera"
	"github.com/aurora3d/aurora-go/engine/device"
)

// meshVertexStride is the byte stride of one interleaved mesh vertex:
// position float32x3 followed by color float32x3.
const meshVertexStride = 24

// modelUniformSize is the byte size of the per-mesh model matrix uniform.
const modelUniformSize = 64

// Mesh is an indexed triangle mesh with interleaved position+color
// vertices. It owns its pipeline, buffers, and model matrix uniform, and
// spins around the Y axis when a rotation speed is configured.
type Mesh interface {
	Renderable
	Updatable

	// SetRotationSpeed sets the Y-axis spin in radians per simulation step.
	//
	// Parameters:
	//   - speed: radians per simulation step (0 stops the spin)
	SetRotationSpeed(speed float32)

	// Rotation returns the current Y-axis rotation angle in radians.
	//
	// Returns:
	//   - float32: the accumulated rotation
	Rotation() float32
}

type meshImpl struct {
	mu *sync.Mutex

	vertices []float32
	indices  []uint16

	rotation      float32
	rotationSpeed float32
	modelMatrix   [16]float32
	modelDirty    bool

	dev          device.Context
	colorFormat  wgpu.TextureFormat
	sampleCount  uint32
	pipeline     *wgpu.RenderPipeline
	vertexBuffer *wgpu.Buffer
	indexBuffer  *wgpu.Buffer
	modelBuffer  *wgpu.Buffer
	modelBinds   *wgpu.BindGroup
	indexCount   uint32
	initialized  bool
}

var _ Mesh = &meshImpl{}

// NewMesh creates a mesh from interleaved vertex data and a uint16 index
// array. No GPU resources exist until Initialize.
//
// Parameters:
//   - vertices: interleaved position(3)+color(3) float32 data
//   - indices: triangle list indices
//   - options: functional options to configure the mesh
//
// Returns:
//   - Mesh: the new mesh
func NewMesh(vertices []float32, indices []uint16, options ...MeshBuilderOption) Mesh {
	m := &meshImpl{
		mu:       &sync.Mutex{},
		vertices: vertices,
		indices:  indices,
	}
	common.Identity(m.modelMatrix[:])
	for _, option := range options {
		option(m)
	}
	if m.rotation != 0 {
		common.RotateY(m.modelMatrix[:], m.rotation)
	}
	return m
}

func (m *meshImpl) Initialize(ctx device.Context, colorFormat wgpu.TextureFormat, sampleCount uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		if !m.needsRebuild(ctx, colorFormat, sampleCount) {
			return nil
		}
		// A new device or changed pipeline parameters: the old resources
		// belong to the previous configuration and must go first.
		m.disposeLocked()
	}
	dev := ctx.Device()
	if dev == nil {
		return fmt.Errorf("%w: mesh initialized before device acquisition", device.ErrUsage)
	}
	if len(m.vertices)%6 != 0 {
		return fmt.Errorf("%w: mesh vertex data must be a multiple of 6 floats", device.ErrUsage)
	}

	vertexBuffer, err := dev.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "Mesh Vertex Buffer",
		Contents: common.SliceToBytes(m.vertices),
		Usage:    wgpu.BufferUsageVertex,
	})
	if err != nil {
		return err
	}

	// Index data is padded to a 4-byte boundary for upload; the draw uses
	// the unpadded count.
	indices := m.indices
	if len(indices)%2 != 0 {
		indices = append(append([]uint16{}, indices...), 0)
	}
	indexBuffer, err := dev.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "Mesh Index Buffer",
		Contents: common.SliceToBytes(indices),
		Usage:    wgpu.BufferUsageIndex,
	})
	if err != nil {
		vertexBuffer.Release()
		return err
	}

	modelBuffer, err := dev.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Mesh Model Uniform Buffer",
		Size:  modelUniformSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		indexBuffer.Release()
		vertexBuffer.Release()
		return err
	}

	modelLayout, err := dev.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Mesh Model Bind Group Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: modelUniformSize,
				},
			},
		},
	})
	if err != nil {
		modelBuffer.Release()
		indexBuffer.Release()
		vertexBuffer.Release()
		return err
	}
	defer modelLayout.Release()

	modelBinds, err := dev.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Mesh Model Bind Group",
		Layout: modelLayout,
		Entries: []wgpu.BindGroupEntry{
			{
				Binding: 0,
				Buffer:  modelBuffer,
				Size:    wgpu.WholeSize,
			},
		},
	})
	if err != nil {
		modelBuffer.Release()
		indexBuffer.Release()
		vertexBuffer.Release()
		return err
	}

	pipeline, err := buildPipeline(dev, pipelineConfig{
		label:       "Mesh",
		source:      meshShaderSource,
		colorFormat: colorFormat,
		sampleCount: sampleCount,
		depthWrite:  true,
		extraLayouts: []wgpu.BindGroupLayoutDescriptor{
			{
				Label: "Mesh Model Bind Group Layout",
				Entries: []wgpu.BindGroupLayoutEntry{
					{
						Binding:    0,
						Visibility: wgpu.ShaderStageVertex,
						Buffer: wgpu.BufferBindingLayout{
							Type:           wgpu.BufferBindingTypeUniform,
							MinBindingSize: modelUniformSize,
						},
					},
				},
			},
		},
		vertexLayouts: []wgpu.VertexBufferLayout{
			{
				ArrayStride: meshVertexStride,
				StepMode:    wgpu.VertexStepModeVertex,
				Attributes: []wgpu.VertexAttribute{
					{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
					{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
				},
			},
		},
	})
	if err != nil {
		modelBinds.Release()
		modelBuffer.Release()
		indexBuffer.Release()
		vertexBuffer.Release()
		return err
	}

	m.dev = ctx
	m.colorFormat = colorFormat
	m.sampleCount = sampleCount
	m.pipeline = pipeline
	m.vertexBuffer = vertexBuffer
	m.indexBuffer = indexBuffer
	m.modelBuffer = modelBuffer
	m.modelBinds = modelBinds
	m.indexCount = uint32(len(m.indices))
	m.modelDirty = true
	m.initialized = true
	return nil
}

func (m *meshImpl) Update(deltaTime float32) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.rotationSpeed == 0 {
		return
	}
	m.rotation += m.rotationSpeed * deltaTime
	common.RotateY(m.modelMatrix[:], m.rotation)
	m.modelDirty = true
}

func (m *meshImpl) Render(pass *wgpu.RenderPassEncoder, cameraBinds *wgpu.BindGroup) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return
	}

	if m.modelDirty {
		m.dev.Queue().WriteBuffer(m.modelBuffer, 0, common.SliceToBytes(m.modelMatrix[:]))
		m.modelDirty = false
	}

	pass.SetPipeline(m.pipeline)
	pass.SetBindGroup(0, cameraBinds, nil)
	pass.SetBindGroup(1, m.modelBinds, nil)
	pass.SetVertexBuffer(0, m.vertexBuffer, 0, wgpu.WholeSize)
	pass.SetIndexBuffer(m.indexBuffer, wgpu.IndexFormatUint16, 0, wgpu.WholeSize)
	pass.DrawIndexed(m.indexCount, 1, 0, 0, 0)
}

func (m *meshImpl) SetRotationSpeed(speed float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rotationSpeed = speed
}

func (m *meshImpl) Rotation() float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rotation
}

// needsRebuild reports whether existing resources were built against a
// different device or pipeline configuration. Re-calling Initialize on a
// freshly acquired device is the supported device-loss recovery path.
func (m *meshImpl) needsRebuild(ctx device.Context, colorFormat wgpu.TextureFormat, sampleCount uint32) bool {
	return ctx != m.dev || colorFormat != m.colorFormat || sampleCount != m.sampleCount
}

func (m *meshImpl) Dispose() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disposeLocked()
}

func (m *meshImpl) disposeLocked() {
	if m.modelBinds != nil {
		m.modelBinds.Release()
		m.modelBinds = nil
	}
	if m.modelBuffer != nil {
		m.modelBuffer.Release()
		m.modelBuffer = nil
	}
	if m.indexBuffer != nil {
		m.indexBuffer.Release()
		m.indexBuffer = nil
	}
	if m.vertexBuffer != nil {
		m.vertexBuffer.Release()
		m.vertexBuffer = nil
	}
	if m.pipeline != nil {
		m.pipeline.Release()
		m.pipeline = nil
	}
	m.initialized = false
}

// camera bind group layout shared by every pipeline so group 0 stays
// compatible with the scene's camera binding.
func cameraLayoutDescriptor() wgpu.BindGroupLayoutDescriptor {
	return camera.UniformBindGroupLayoutDescriptor()
}
