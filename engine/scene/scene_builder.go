package scene

import (
	"github.com/aurora3d/aurora-go/engine/diag"
)

type SceneBuilderOption func(*sceneImpl)

// WithSink routes the scene's diagnostics to the given sink.
//
// Parameters:
//   - sink: the diagnostics sink to use
//
// Returns:
//   - SceneBuilderOption: a function that sets the sink
func WithSink(sink diag.Sink) SceneBuilderOption {
	return func(s *sceneImpl) {
		if sink != nil {
			s.sink = sink
		}
	}
}

// WithUpdateWorkers sets the worker count for per-renderable updates.
//
// Parameters:
//   - n: worker count (values < 1 are raised to 1)
//
// Returns:
//   - SceneBuilderOption: a function that sets the worker count
func WithUpdateWorkers(n int) SceneBuilderOption {
	return func(s *sceneImpl) {
		if n < 1 {
			n = 1
		}
		s.updateWorkers = n
	}
}
