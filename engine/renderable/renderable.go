// package renderable defines the drawable contract and the built-in
// renderable variants. Renderables own their GPU resources end to end:
// pipeline, vertex/index buffers, and any per-object uniforms. The scene
// only sequences them.
package renderable

import (
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/aurora3d/aurora-go/engine/device"
)

// Renderable is a self-contained drawable.
type Renderable interface {
	// Initialize creates the renderable's GPU resources against the live
	// device: pipeline, buffers, and bind groups. Called once by the scene
	// during preparation; the pipeline must target the given color format
	// and sample count.
	//
	// Parameters:
	//   - ctx: the device context
	//   - colorFormat: the surface color format the pipeline targets
	//   - sampleCount: the MSAA sample count the pipeline targets
	//
	// Returns:
	//   - error: an error if resource creation fails
	Initialize(ctx device.Context, colorFormat wgpu.TextureFormat, sampleCount uint32) error

	// Render records the renderable's draw commands into the open pass.
	// The camera bind group occupies group slot 0.
	//
	// Parameters:
	//   - pass: the frame's render pass encoder
	//   - cameraBinds: the camera uniform bind group
	Render(pass *wgpu.RenderPassEncoder, cameraBinds *wgpu.BindGroup)

	// Dispose releases the renderable's GPU resources. Safe to call on an
	// uninitialized renderable.
	Dispose()
}

// Updatable is implemented by renderables that advance per-tick state.
// The scene calls Update before rendering each frame.
type Updatable interface {
	// Update advances the renderable by the given simulation delta.
	//
	// Parameters:
	//   - deltaTime: simulation steps elapsed since the previous tick
	Update(deltaTime float32)
}
