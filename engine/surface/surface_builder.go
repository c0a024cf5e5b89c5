package surface

import "github.com/aurora3d/aurora-go/engine/diag"

type ManagerBuilderOption func(*managerImpl)

// WithSink routes the manager's diagnostics to the given sink.
//
// Parameters:
//   - sink: the diagnostics sink to use
//
// Returns:
//   - ManagerBuilderOption: a function that sets the sink
func WithSink(sink diag.Sink) ManagerBuilderOption {
	return func(m *managerImpl) {
		if sink != nil {
			m.sink = sink
		}
	}
}

// WithSize sets the initial logical size.
//
// Parameters:
//   - width: logical width
//   - height: logical height
//
// Returns:
//   - ManagerBuilderOption: a function that sets the initial size
func WithSize(width, height int) ManagerBuilderOption {
	return func(m *managerImpl) {
		m.width = width
		m.height = height
	}
}
