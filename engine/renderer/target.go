package renderer

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// TargetState is the explicit lifecycle state of a render target set.
// Staleness is recorded, never inferred from handle nil-ness.
type TargetState int32

const (
	// TargetUninitialized means no attachments have ever been allocated.
	TargetUninitialized TargetState = iota
	// TargetValid means the attachments match the current surface and device.
	TargetValid
	// TargetStale means a size, sample-count, or device change has
	// invalidated the attachments; they must be rebuilt before use.
	TargetStale
)

// ClampSampleCount resolves a requested MSAA sample count to the nearest
// supported value. Values outside {1, 2, 4, 8} silently downgrade to 1:
// a bad hint never hard-fails.
//
// Parameters:
//   - requested: the requested sample count
//
// Returns:
//   - uint32: the effective sample count
func ClampSampleCount(requested int) uint32 {
	switch requested {
	case 1, 2, 4, 8:
		return uint32(requested)
	default:
		return 1
	}
}

// Attachment is a render target texture and its view. Allocated is the
// explicit allocation marker; rebuild logic checks it rather than testing
// handles for nil.
type Attachment struct {
	Texture   *wgpu.Texture
	View      *wgpu.TextureView
	Allocated bool
}

// TargetSet owns the depth attachment and, when multisampling, the MSAA
// color attachment, sized to the current surface physical size. It is
// guarded by the owning renderer's lock and holds no lock of its own.
type TargetSet struct {
	state       TargetState
	depth       Attachment
	msaa        Attachment
	sampleCount uint32
	width       int
	height      int
}

// State returns the current lifecycle state.
//
// Returns:
//   - TargetState: Uninitialized, Valid, or Stale
func (t *TargetSet) State() TargetState {
	return t.state
}

// SampleCount returns the effective sample count of the last rebuild.
//
// Returns:
//   - uint32: the effective MSAA sample count (1 when uninitialized)
func (t *TargetSet) SampleCount() uint32 {
	if t.sampleCount == 0 {
		return 1
	}
	return t.sampleCount
}

// Size returns the physical dimensions of the last rebuild.
//
// Returns:
//   - width, height: dimensions in pixels
func (t *TargetSet) Size() (width, height int) {
	return t.width, t.height
}

// MarkStale transitions Valid -> Stale. Uninitialized sets stay as they
// are; they already require a rebuild.
func (t *TargetSet) MarkStale() {
	if t.state == TargetValid {
		t.state = TargetStale
	}
}

// Invalidate destroys the existing attachments, then allocates
// replacements at the given physical size. The requested sample count is
// clamped to {1, 2, 4, 8}; the MSAA color attachment exists only when the
// effective count is above 1.
//
// Parameters:
//   - backend: the backend performing allocation
//   - width: physical width in pixels
//   - height: physical height in pixels
//   - requested: requested MSAA sample count
//
// Returns:
//   - error: an error if allocation fails (the set stays stale)
func (t *TargetSet) Invalidate(backend Backend, width, height, requested int) error {
	if t.depth.Allocated {
		backend.ReleaseAttachment(&t.depth)
	}
	if t.msaa.Allocated {
		backend.ReleaseAttachment(&t.msaa)
	}

	samples := ClampSampleCount(requested)

	depth, err := backend.CreateDepthTarget(width, height, samples)
	if err != nil {
		t.state = TargetStale
		return fmt.Errorf("failed to create depth target: %w", err)
	}
	t.depth = depth

	if samples > 1 {
		msaa, err := backend.CreateColorTarget(width, height, samples)
		if err != nil {
			backend.ReleaseAttachment(&t.depth)
			t.state = TargetStale
			return fmt.Errorf("failed to create multisample color target: %w", err)
		}
		t.msaa = msaa
	}

	t.sampleCount = samples
	t.width = width
	t.height = height
	t.state = TargetValid
	return nil
}

// ColorAttachment resolves the color attachment policy for a frame. With
// multisampling the pass draws into the MSAA view and resolves into
// resolveTarget; without it the pass draws into resolveTarget directly.
//
// Parameters:
//   - resolveTarget: the acquired presentable surface view
//
// Returns:
//   - view: the texture view the pass renders into
//   - resolve: the resolve destination, or nil when rendering directly
func (t *TargetSet) ColorAttachment(resolveTarget *wgpu.TextureView) (view, resolve *wgpu.TextureView) {
	if t.SampleCount() > 1 {
		return t.msaa.View, resolveTarget
	}
	return resolveTarget, nil
}

// DepthView returns the depth attachment view, or nil before the first
// rebuild.
//
// Returns:
//   - *wgpu.TextureView: the depth view
func (t *TargetSet) DepthView() *wgpu.TextureView {
	return t.depth.View
}

// Release frees both attachments and returns the set to Uninitialized.
//
// Parameters:
//   - backend: the backend that allocated the attachments
func (t *TargetSet) Release(backend Backend) {
	if t.depth.Allocated {
		backend.ReleaseAttachment(&t.depth)
	}
	if t.msaa.Allocated {
		backend.ReleaseAttachment(&t.msaa)
	}
	t.state = TargetUninitialized
	t.sampleCount = 0
	t.width = 0
	t.height = 0
}
