package device

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"

	"github.com/aurora3d/aurora-go/engine/diag"
)

func TestRequestDevice_MissingSurfaceDescriptorIsUsageError(t *testing.T) {
	assert := assert.New(t)

	rec := diag.NewRecorder()
	c := NewContext(nil, WithSink(rec))

	err := c.RequestDevice(context.Background(), RequestOptions{})
	assert.ErrorIs(err, ErrUsage)
	assert.False(c.Initialized())
	assert.Contains(rec.Codes(), diag.CodeUsage)
}

func TestConfigureSurface_BeforeRequestDeviceIsUsageError(t *testing.T) {
	assert := assert.New(t)

	c := NewContext(&wgpu.SurfaceDescriptor{})
	err := c.ConfigureSurface(800, 600, wgpu.PresentModeFifo)
	assert.ErrorIs(err, ErrUsage)
}

func TestMarkLost_OneShotAndObserved(t *testing.T) {
	assert := assert.New(t)

	rec := diag.NewRecorder()
	c := NewContext(&wgpu.SurfaceDescriptor{}, WithSink(rec))

	var reasons []string
	c.OnDeviceLost(func(reason string) { reasons = append(reasons, reason) })

	assert.False(c.Lost())
	c.MarkLost("surface destroyed")
	assert.True(c.Lost())

	// Loss is permanent and reported exactly once.
	c.MarkLost("again")
	assert.Equal([]string{"surface destroyed"}, reasons)

	lostReports := 0
	for _, code := range rec.Codes() {
		if code == diag.CodeDeviceLost {
			lostReports++
		}
	}
	assert.Equal(1, lostReports)
}

func TestReportUncapturedError(t *testing.T) {
	assert := assert.New(t)

	rec := diag.NewRecorder()
	c := NewContext(&wgpu.SurfaceDescriptor{}, WithSink(rec))

	var observed []error
	c.OnUncapturedError(func(err error) { observed = append(observed, err) })

	c.ReportUncapturedError(nil)
	assert.Empty(observed)
	assert.Empty(rec.Codes())

	boom := errors.New("validation failed")
	c.ReportUncapturedError(boom)
	assert.Equal([]error{boom}, observed)
	assert.Equal([]int{diag.CodeUncapturedError}, rec.Codes())

	// Uncaptured errors never invalidate the device.
	assert.False(c.Lost())
}

func TestIsDeviceLost(t *testing.T) {
	assert := assert.New(t)

	assert.True(IsDeviceLost(ErrDeviceLost))
	assert.True(IsDeviceLost(fmt.Errorf("frame failed: %w", ErrDeviceLost)))
	assert.True(IsDeviceLost(errors.New("Device lost: GPU hung")))
	assert.False(IsDeviceLost(errors.New("out of memory")))
	assert.False(IsDeviceLost(nil))
}

func TestSentinelErrorsAreDistinct(t *testing.T) {
	assert := assert.New(t)

	sentinels := []error{ErrCapability, ErrAdapterUnavailable, ErrDeviceRequest, ErrDeviceLost, ErrUsage}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i == j {
				continue
			}
			assert.False(errors.Is(a, b))
		}
	}
}
