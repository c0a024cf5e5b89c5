package renderer

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// Backend abstracts the GPU-facing half of the renderer: surface
// configuration, attachment allocation, and the acquire/submit/present
// cycle. The production implementation drives wgpu; tests substitute a
// fake that records calls.
type Backend interface {
	// ConfigureSurface (re)configures the presentable surface at the given
	// physical size and present mode.
	//
	// Parameters:
	//   - width: physical width in pixels
	//   - height: physical height in pixels
	//   - mode: the present mode to configure
	//
	// Returns:
	//   - error: an error if the device is unavailable or configuration fails
	ConfigureSurface(width, height int, mode wgpu.PresentMode) error

	// CreateColorTarget allocates a multisampled color attachment in the
	// surface's color format.
	//
	// Parameters:
	//   - width: physical width in pixels
	//   - height: physical height in pixels
	//   - sampleCount: the MSAA sample count
	//
	// Returns:
	//   - Attachment: the allocated attachment
	//   - error: an error if allocation fails
	CreateColorTarget(width, height int, sampleCount uint32) (Attachment, error)

	// CreateDepthTarget allocates a depth attachment.
	//
	// Parameters:
	//   - width: physical width in pixels
	//   - height: physical height in pixels
	//   - sampleCount: the MSAA sample count
	//
	// Returns:
	//   - Attachment: the allocated attachment
	//   - error: an error if allocation fails
	CreateDepthTarget(width, height int, sampleCount uint32) (Attachment, error)

	// ReleaseAttachment frees the attachment's texture and view and clears
	// its allocation marker.
	//
	// Parameters:
	//   - attachment: the attachment to release
	ReleaseAttachment(attachment *Attachment)

	// AcquireFrame acquires the next presentable texture, opens a command
	// encoder, and begins the frame's render pass with a full clear of
	// every attachment.
	//
	// Parameters:
	//   - targets: the valid target set supplying depth and MSAA views
	//   - clearColor: the color every pixel is cleared to
	//
	// Returns:
	//   - *FrameSession: the open frame session
	//   - error: an error if acquisition fails
	AcquireFrame(targets *TargetSet, clearColor wgpu.Color) (*FrameSession, error)

	// SubmitFrame ends the session's render pass, finishes its encoder, and
	// submits the command buffer to the queue.
	//
	// Parameters:
	//   - session: the open frame session
	//
	// Returns:
	//   - error: an error if encoding or submission fails
	SubmitFrame(session *FrameSession) error

	// Present presents the session's surface texture and releases the
	// frame's transient handles.
	//
	// Parameters:
	//   - session: the submitted frame session
	Present(session *FrameSession)
}

// FrameSession is one frame's worth of transient GPU state: the acquired
// surface texture, its view, the command encoder, and the single render
// pass that spans the frame. At most one session is open at a time.
type FrameSession struct {
	encoder        *wgpu.CommandEncoder
	pass           *wgpu.RenderPassEncoder
	surfaceTexture *wgpu.Texture
	surfaceView    *wgpu.TextureView
}

// Pass returns the session's render pass encoder. Renderables record
// their draws into it between BeginFrame and EndFrame.
//
// Returns:
//   - *wgpu.RenderPassEncoder: the open render pass
func (s *FrameSession) Pass() *wgpu.RenderPassEncoder {
	return s.pass
}
