package device

import (
	"errors"
	"strings"
)

var (
	// ErrCapability is returned when the platform has no WebGPU support at all.
	ErrCapability = errors.New("device: no GPU capability present")

	// ErrAdapterUnavailable is returned when no adapter matches the requested
	// power preference.
	ErrAdapterUnavailable = errors.New("device: no suitable adapter available")

	// ErrDeviceRequest is returned when the adapter rejects the device request,
	// typically because a required feature or limit is unsupported.
	ErrDeviceRequest = errors.New("device: device request rejected")

	// ErrDeviceLost is returned once the device handle has been invalidated.
	// Recovery requires constructing a new Context and rebuilding every
	// dependent resource; the engine never recovers automatically.
	ErrDeviceLost = errors.New("device: GPU device lost")

	// ErrUsage is returned for API misuse: requesting a second device on a
	// live context, beginning a frame twice, ending a frame that was never
	// begun, or rendering before Prepare. The offending call is a no-op.
	ErrUsage = errors.New("device: usage error")
)

// IsDeviceLost reports whether err indicates an invalidated device handle,
// either our own sentinel or a loss surfaced by the native layer.
//
// Parameters:
//   - err: the error to classify
//
// Returns:
//   - bool: true if the error represents device loss
func IsDeviceLost(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDeviceLost) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "device lost")
}
