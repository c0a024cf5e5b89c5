package renderable

import (
	"fmt"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/aurora3d/aurora-go/common"
	"github.com/aurora3d/aurora-go/engine/device"
)

// flatVertexStride is the byte stride of one flat vertex: position
// float32x2 only.
const flatVertexStride = 8

// flatUniformSize is the byte size of the flat color uniform (one rgba).
const flatUniformSize = 16

// Flat is a position-only 2D renderable drawn in clip space with a single
// uniform color.
type Flat interface {
	Renderable

	// SetColor sets the fill color. Takes effect on the next rendered
	// frame.
	//
	// Parameters:
	//   - r, g, b, a: color components in [0, 1]
	SetColor(r, g, b, a float32)
}

type flatImpl struct {
	mu *sync.Mutex

	vertices []float32
	indices  []uint16
	color    [4]float32

	dev          device.Context
	colorFormat  wgpu.TextureFormat
	sampleCount  uint32
	pipeline     *wgpu.RenderPipeline
	vertexBuffer *wgpu.Buffer
	indexBuffer  *wgpu.Buffer
	colorBuffer  *wgpu.Buffer
	colorBinds   *wgpu.BindGroup
	indexCount   uint32
	colorDirty   bool
	initialized  bool
}

var _ Flat = &flatImpl{}

// NewFlat creates a flat 2D renderable from clip-space positions and a
// uint16 index array. The default color is opaque white.
//
// Parameters:
//   - vertices: position float32x2 data in clip space
//   - indices: triangle list indices
//   - options: functional options to configure the renderable
//
// Returns:
//   - Flat: the new renderable
func NewFlat(vertices []float32, indices []uint16, options ...FlatBuilderOption) Flat {
	f := &flatImpl{
		mu:       &sync.Mutex{},
		vertices: vertices,
		indices:  indices,
		color:    [4]float32{1, 1, 1, 1},
	}
	for _, option := range options {
		option(f)
	}
	return f
}

func (f *flatImpl) Initialize(ctx device.Context, colorFormat wgpu.TextureFormat, sampleCount uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.initialized {
		if !f.needsRebuild(ctx, colorFormat, sampleCount) {
			return nil
		}
		f.disposeLocked()
	}
	dev := ctx.Device()
	if dev == nil {
		return fmt.Errorf("%w: flat renderable initialized before device acquisition", device.ErrUsage)
	}
	if len(f.vertices)%2 != 0 {
		return fmt.Errorf("%w: flat vertex data must be a multiple of 2 floats", device.ErrUsage)
	}

	vertexBuffer, err := dev.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "Flat Vertex Buffer",
		Contents: common.SliceToBytes(f.vertices),
		Usage:    wgpu.BufferUsageVertex,
	})
	if err != nil {
		return err
	}

	indices := f.indices
	if len(indices)%2 != 0 {
		indices = append(append([]uint16{}, indices...), 0)
	}
	indexBuffer, err := dev.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "Flat Index Buffer",
		Contents: common.SliceToBytes(indices),
		Usage:    wgpu.BufferUsageIndex,
	})
	if err != nil {
		vertexBuffer.Release()
		return err
	}

	colorBuffer, err := dev.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "Flat Color Uniform Buffer",
		Contents: common.SliceToBytes(f.color[:]),
		Usage:    wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		indexBuffer.Release()
		vertexBuffer.Release()
		return err
	}

	colorLayout, err := dev.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Flat Color Bind Group Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: flatUniformSize,
				},
			},
		},
	})
	if err != nil {
		colorBuffer.Release()
		indexBuffer.Release()
		vertexBuffer.Release()
		return err
	}
	defer colorLayout.Release()

	colorBinds, err := dev.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Flat Color Bind Group",
		Layout: colorLayout,
		Entries: []wgpu.BindGroupEntry{
			{
				Binding: 0,
				Buffer:  colorBuffer,
				Size:    wgpu.WholeSize,
			},
		},
	})
	if err != nil {
		colorBuffer.Release()
		indexBuffer.Release()
		vertexBuffer.Release()
		return err
	}

	pipeline, err := buildPipeline(dev, pipelineConfig{
		label:       "Flat",
		source:      flatShaderSource,
		colorFormat: colorFormat,
		sampleCount: sampleCount,
		depthWrite:  false,
		extraLayouts: []wgpu.BindGroupLayoutDescriptor{
			{
				Label: "Flat Color Bind Group Layout",
				Entries: []wgpu.BindGroupLayoutEntry{
					{
						Binding:    0,
						Visibility: wgpu.ShaderStageFragment,
						Buffer: wgpu.BufferBindingLayout{
							Type:           wgpu.BufferBindingTypeUniform,
							MinBindingSize: flatUniformSize,
						},
					},
				},
			},
		},
		vertexLayouts: []wgpu.VertexBufferLayout{
			{
				ArrayStride: flatVertexStride,
				StepMode:    wgpu.VertexStepModeVertex,
				Attributes: []wgpu.VertexAttribute{
					{Format: wgpu.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
				},
			},
		},
	})
	if err != nil {
		colorBinds.Release()
		colorBuffer.Release()
		indexBuffer.Release()
		vertexBuffer.Release()
		return err
	}

	f.dev = ctx
	f.colorFormat = colorFormat
	f.sampleCount = sampleCount
	f.pipeline = pipeline
	f.vertexBuffer = vertexBuffer
	f.indexBuffer = indexBuffer
	f.colorBuffer = colorBuffer
	f.colorBinds = colorBinds
	f.indexCount = uint32(len(f.indices))
	f.colorDirty = false
	f.initialized = true
	return nil
}

func (f *flatImpl) Render(pass *wgpu.RenderPassEncoder, cameraBinds *wgpu.BindGroup) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.initialized {
		return
	}

	if f.colorDirty {
		f.dev.Queue().WriteBuffer(f.colorBuffer, 0, common.SliceToBytes(f.color[:]))
		f.colorDirty = false
	}

	pass.SetPipeline(f.pipeline)
	pass.SetBindGroup(0, cameraBinds, nil)
	pass.SetBindGroup(1, f.colorBinds, nil)
	pass.SetVertexBuffer(0, f.vertexBuffer, 0, wgpu.WholeSize)
	pass.SetIndexBuffer(f.indexBuffer, wgpu.IndexFormatUint16, 0, wgpu.WholeSize)
	pass.DrawIndexed(f.indexCount, 1, 0, 0, 0)
}

func (f *flatImpl) SetColor(r, g, b, a float32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.color = [4]float32{r, g, b, a}
	f.colorDirty = true
}

// needsRebuild reports whether existing resources were built against a
// different device or pipeline configuration.
func (f *flatImpl) needsRebuild(ctx device.Context, colorFormat wgpu.TextureFormat, sampleCount uint32) bool {
	return ctx != f.dev || colorFormat != f.colorFormat || sampleCount != f.sampleCount
}

func (f *flatImpl) Dispose() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disposeLocked()
}

func (f *flatImpl) disposeLocked() {
	if f.colorBinds != nil {
		f.colorBinds.Release()
		f.colorBinds = nil
	}
	if f.colorBuffer != nil {
		f.colorBuffer.Release()
		f.colorBuffer = nil
	}
	if f.indexBuffer != nil {
		f.indexBuffer.Release()
		f.indexBuffer = nil
	}
	if f.vertexBuffer != nil {
		f.vertexBuffer.Release()
		f.vertexBuffer = nil
	}
	if f.pipeline != nil {
		f.pipeline.Release()
		f.pipeline = nil
	}
	f.initialized = false
}
