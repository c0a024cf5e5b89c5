// package surface owns the logical drawable size and the pixel-ratio
// translation to physical pixels. It never touches the GPU; the renderer
// observes it and rebuilds render targets when it changes.
package surface

import (
	"fmt"
	"math"
	"sync"

	"github.com/aurora3d/aurora-go/common"
	"github.com/aurora3d/aurora-go/engine/diag"
)

// SizeSource provides a trackable container size, typically a window.
// engine/window.Window satisfies this.
type SizeSource interface {
	Width() int
	Height() int
	SetResizeCallback(callback func(width, height int))
}

// Manager owns the logical/physical drawable size and device pixel ratio.
// Every accepted size or ratio change synchronously notifies the change
// observer; there is no batching or debouncing.
type Manager interface {
	// SetSize sets the logical drawable size and notifies the observer.
	//
	// Parameters:
	//   - width: logical width
	//   - height: logical height
	SetSize(width, height int)

	// SetDevicePixelRatio sets the logical-to-physical scale factor.
	// The ratio is clamped to [1, 100]. Ratios in [2, 10) emit a
	// performance advisory and ratios >= 10 a stronger one. A ratio <= 0
	// is an input error: the platform default supplied at construction is
	// substituted and an error diagnostic is emitted.
	//
	// Parameters:
	//   - ratio: the device pixel ratio
	SetDevicePixelRatio(ratio float64)

	// DevicePixelRatio returns the effective (clamped) pixel ratio.
	//
	// Returns:
	//   - float64: the ratio currently in effect
	DevicePixelRatio() float64

	// LogicalSize returns the logical drawable size.
	//
	// Returns:
	//   - width, height: logical dimensions
	LogicalSize() (width, height int)

	// PhysicalSize returns the allocation size for render targets:
	// max(1, floor(logical*ratio)) per axis. Never zero on either axis,
	// since zero-sized targets are invalid for allocation.
	//
	// Returns:
	//   - width, height: physical dimensions in pixels
	PhysicalSize() (width, height int)

	// SetChangeObserver registers the callback invoked synchronously on
	// every accepted size or ratio change. The renderer uses this to mark
	// its render target set stale.
	//
	// Parameters:
	//   - fn: observer callback (nil clears)
	SetChangeObserver(fn func())

	// TrackWindowSize sizes the surface from a window, optionally
	// re-sizing automatically whenever the window resizes.
	//
	// Parameters:
	//   - src: the size source to track
	//   - margin: pixels subtracted from each window dimension
	//   - auto: when true, registers a resize callback on src
	TrackWindowSize(src SizeSource, margin int, auto bool)
}

type managerImpl struct {
	mu   *sync.Mutex
	sink diag.Sink

	width  int
	height int
	ratio  float64

	// platformRatio is the environment default resolved once by the caller
	// (e.g. the window's content scale). Core logic never reads it from
	// the platform implicitly.
	platformRatio float64

	onChange func()
}

var _ Manager = &managerImpl{}

// NewManager creates a surface manager.
//
// Parameters:
//   - platformRatio: the platform default pixel ratio, resolved once at
//     the call boundary (used as the fallback for invalid ratio input)
//   - options: functional options to configure the manager
//
// Returns:
//   - Manager: the new manager, sized 1x1 logical at the platform ratio
func NewManager(platformRatio float64, options ...ManagerBuilderOption) Manager {
	if platformRatio <= 0 {
		platformRatio = 1
	}
	m := &managerImpl{
		mu:            &sync.Mutex{},
		sink:          diag.Default(),
		width:         1,
		height:        1,
		ratio:         common.Clamp(platformRatio, 1, 100),
		platformRatio: platformRatio,
	}
	for _, option := range options {
		option(m)
	}
	return m
}

func (m *managerImpl) SetSize(width, height int) {
	m.mu.Lock()
	m.width = width
	m.height = height
	fn := m.onChange
	m.mu.Unlock()

	if fn != nil {
		fn()
	}
}

func (m *managerImpl) SetDevicePixelRatio(ratio float64) {
	if ratio <= 0 {
		m.sink.Error("device pixel ratio must be positive; falling back to platform default",
			diag.CodePixelRatioInvalid, fmt.Sprintf("requested=%v", ratio))
		ratio = m.platformRatio
	}

	clamped := common.Clamp(ratio, 1, 100)
	switch {
	case clamped >= 10:
		m.sink.Error("device pixel ratio >= 10 will severely degrade performance",
			diag.CodePixelRatioExtreme, fmt.Sprintf("ratio=%v", clamped))
	case clamped >= 2:
		m.sink.Warn("device pixel ratio >= 2 may degrade performance on large surfaces",
			diag.CodePixelRatioHigh, fmt.Sprintf("ratio=%v", clamped))
	}

	m.mu.Lock()
	m.ratio = clamped
	fn := m.onChange
	m.mu.Unlock()

	if fn != nil {
		fn()
	}
}

func (m *managerImpl) DevicePixelRatio() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ratio
}

func (m *managerImpl) LogicalSize() (width, height int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.width, m.height
}

func (m *managerImpl) PhysicalSize() (width, height int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return physicalDim(m.width, m.ratio), physicalDim(m.height, m.ratio)
}

// physicalDim computes max(1, floor(logical*ratio)) for one axis. The
// floor runs in float64: a float32 round-trip can cross an integer
// boundary on large or near-integer products.
func physicalDim(logical int, ratio float64) int {
	d := int(math.Floor(float64(logical) * ratio))
	if d < 1 {
		return 1
	}
	return d
}

func (m *managerImpl) SetChangeObserver(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = fn
}

func (m *managerImpl) TrackWindowSize(src SizeSource, margin int, auto bool) {
	m.SetSize(src.Width()-margin, src.Height()-margin)
	if auto {
		src.SetResizeCallback(func(width, height int) {
			m.SetSize(width-margin, height-margin)
		})
	}
}
