package surface

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aurora3d/aurora-go/engine/diag"
)

func TestPhysicalSize_FloorAndClampToOne(t *testing.T) {
	assert := assert.New(t)

	m := NewManager(1)
	m.SetSize(800, 600)
	m.SetDevicePixelRatio(1.5)

	w, h := m.PhysicalSize()
	assert.Equal(1200, w)
	assert.Equal(900, h)

	// Fractional results floor.
	m.SetSize(3, 3)
	m.SetDevicePixelRatio(1.4)
	w, h = m.PhysicalSize()
	assert.Equal(4, w)
	assert.Equal(4, h)

	// Zero logical size still allocates a 1x1 target.
	m.SetSize(0, 0)
	w, h = m.PhysicalSize()
	assert.Equal(1, w)
	assert.Equal(1, h)
}

func TestPhysicalDim_ExactAtFloat32Boundary(t *testing.T) {
	assert := assert.New(t)

	// 2^24+1 is not representable in float32; a float32 round-trip would
	// collapse it to 2^24. The floor contract is exact in float64.
	assert.Equal(16777217, physicalDim(16777217, 1))

	m := NewManager(1)
	m.SetSize(16777217, 16777217)
	w, h := m.PhysicalSize()
	assert.Equal(16777217, w)
	assert.Equal(16777217, h)
}

func TestSetDevicePixelRatio_ClampsToRange(t *testing.T) {
	assert := assert.New(t)

	m := NewManager(1)
	m.SetDevicePixelRatio(0.5)
	assert.Equal(1.0, m.DevicePixelRatio())

	m.SetDevicePixelRatio(250)
	assert.Equal(100.0, m.DevicePixelRatio())
}

func TestSetDevicePixelRatio_InvalidFallsBackToPlatformDefault(t *testing.T) {
	assert := assert.New(t)

	rec := diag.NewRecorder()
	m := NewManager(2, WithSink(rec))

	m.SetDevicePixelRatio(-1)
	assert.Equal(2.0, m.DevicePixelRatio())
	assert.Contains(rec.Codes(), diag.CodePixelRatioInvalid)
}

func TestSetDevicePixelRatio_Advisories(t *testing.T) {
	assert := assert.New(t)

	rec := diag.NewRecorder()
	m := NewManager(1, WithSink(rec))

	m.SetDevicePixelRatio(1.5)
	assert.Empty(rec.Codes())

	m.SetDevicePixelRatio(2)
	assert.Equal([]int{diag.CodePixelRatioHigh}, rec.Codes())

	m.SetDevicePixelRatio(10)
	assert.Equal([]int{diag.CodePixelRatioHigh, diag.CodePixelRatioExtreme}, rec.Codes())
}

func TestChangeObserver_FiresOnEveryAcceptedChange(t *testing.T) {
	assert := assert.New(t)

	m := NewManager(1)
	fired := 0
	m.SetChangeObserver(func() { fired++ })

	m.SetSize(640, 480)
	assert.Equal(1, fired)

	m.SetDevicePixelRatio(2)
	assert.Equal(2, fired)

	// Clamped and fallback ratios still notify; the effective value changed
	// or was re-asserted.
	m.SetDevicePixelRatio(-5)
	assert.Equal(3, fired)
}

type fakeSizeSource struct {
	width, height int
	onResize      func(width, height int)
}

func (f *fakeSizeSource) Width() int  { return f.width }
func (f *fakeSizeSource) Height() int { return f.height }
func (f *fakeSizeSource) SetResizeCallback(callback func(width, height int)) {
	f.onResize = callback
}

func TestTrackWindowSize(t *testing.T) {
	assert := assert.New(t)

	src := &fakeSizeSource{width: 1280, height: 720}
	m := NewManager(1)
	m.TrackWindowSize(src, 20, true)

	w, h := m.LogicalSize()
	assert.Equal(1260, w)
	assert.Equal(700, h)

	// Auto mode follows window resizes.
	src.onResize(800, 600)
	w, h = m.LogicalSize()
	assert.Equal(780, w)
	assert.Equal(580, h)
}

func TestTrackWindowSize_NoAutoLeavesCallbackUnset(t *testing.T) {
	assert := assert.New(t)

	src := &fakeSizeSource{width: 100, height: 100}
	m := NewManager(1)
	m.TrackWindowSize(src, 0, false)

	assert.Nil(src.onResize)
	w, h := m.LogicalSize()
	assert.Equal(100, w)
	assert.Equal(100, h)
}
