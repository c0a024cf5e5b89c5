package renderable

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// pipelineConfig describes one renderable variant's pipeline. Group 0 is
// always the camera uniform layout; extraLayouts fill the following slots.
type pipelineConfig struct {
	label         string
	source        string
	colorFormat   wgpu.TextureFormat
	sampleCount   uint32
	depthWrite    bool
	extraLayouts  []wgpu.BindGroupLayoutDescriptor
	vertexLayouts []wgpu.VertexBufferLayout
}

// buildPipeline compiles a WGSL module and assembles the render pipeline
// for one variant. Bind group layouts are created transiently; WebGPU
// layout compatibility is structural, so the pipeline does not need to
// share layout handles with the bind groups it is used with.
//
// Parameters:
//   - dev: the live wgpu device
//   - cfg: the variant's pipeline description
//
// Returns:
//   - *wgpu.RenderPipeline: the compiled pipeline
//   - error: an error if shader compilation or pipeline creation fails
func buildPipeline(dev *wgpu.Device, cfg pipelineConfig) (*wgpu.RenderPipeline, error) {
	module, err := dev.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: cfg.label + " Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: cfg.source,
		},
	})
	if err != nil {
		return nil, err
	}
	defer module.Release()

	layoutDescriptors := append([]wgpu.BindGroupLayoutDescriptor{cameraLayoutDescriptor()}, cfg.extraLayouts...)
	bindGroupLayouts := make([]*wgpu.BindGroupLayout, 0, len(layoutDescriptors))
	defer func() {
		for _, layout := range bindGroupLayouts {
			layout.Release()
		}
	}()
	for i := range layoutDescriptors {
		layout, layoutErr := dev.CreateBindGroupLayout(&layoutDescriptors[i])
		if layoutErr != nil {
			return nil, layoutErr
		}
		bindGroupLayouts = append(bindGroupLayouts, layout)
	}

	pipelineLayout, err := dev.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            cfg.label + " Pipeline Layout",
		BindGroupLayouts: bindGroupLayouts,
	})
	if err != nil {
		return nil, err
	}
	defer pipelineLayout.Release()

	return dev.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  cfg.label + " Render Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers:    cfg.vertexLayouts,
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{
					Format:    cfg.colorFormat,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: cfg.sampleCount,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth24Plus,
			DepthWriteEnabled: cfg.depthWrite,
			DepthCompare:      wgpu.CompareFunctionLess,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		},
	})
}
