package device

import "github.com/aurora3d/aurora-go/engine/diag"

type ContextBuilderOption func(*contextImpl)

// WithSink routes the context's diagnostics to the given sink.
//
// Parameters:
//   - sink: the diagnostics sink to use
//
// Returns:
//   - ContextBuilderOption: a function that sets the sink
func WithSink(sink diag.Sink) ContextBuilderOption {
	return func(c *contextImpl) {
		if sink != nil {
			c.sink = sink
		}
	}
}

// WithUncapturedErrorObserver registers the passive observer for non-fatal
// device-side errors at construction time.
//
// Parameters:
//   - fn: observer callback
//
// Returns:
//   - ContextBuilderOption: a function that sets the observer
func WithUncapturedErrorObserver(fn func(err error)) ContextBuilderOption {
	return func(c *contextImpl) {
		c.onUncapturedError = fn
	}
}

// WithDeviceLostObserver registers the passive observer fired once on
// device loss at construction time.
//
// Parameters:
//   - fn: observer callback
//
// Returns:
//   - ContextBuilderOption: a function that sets the observer
func WithDeviceLostObserver(fn func(reason string)) ContextBuilderOption {
	return func(c *contextImpl) {
		c.onDeviceLost = fn
	}
}
