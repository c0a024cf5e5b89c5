package thread

import (
	"time"

	"github.com/aurora3d/aurora-go/engine/diag"
)

type ThreadBuilderOption func(*threadImpl)

// WithSink routes the scheduler's diagnostics to the given sink.
//
// Parameters:
//   - sink: the diagnostics sink to use
//
// Returns:
//   - ThreadBuilderOption: a function that sets the sink
func WithSink(sink diag.Sink) ThreadBuilderOption {
	return func(t *threadImpl) {
		if sink != nil {
			t.sink = sink
		}
	}
}

// WithClock replaces the millisecond wall clock, letting tests drive the
// scheduler with synthetic timestamps.
//
// Parameters:
//   - clock: function returning the current time in milliseconds
//
// Returns:
//   - ThreadBuilderOption: a function that sets the clock
func WithClock(clock func() int64) ThreadBuilderOption {
	return func(t *threadImpl) {
		if clock != nil {
			t.clock = clock
		}
	}
}

// WithMaxDelta sets the clamp applied to the raw frame delta.
//
// Parameters:
//   - d: maximum delta per tick (values <= 0 restore the default)
//
// Returns:
//   - ThreadBuilderOption: a function that sets the clamp
func WithMaxDelta(d time.Duration) ThreadBuilderOption {
	return func(t *threadImpl) {
		if d <= 0 {
			d = DefaultMaxDelta
		}
		t.maxDeltaMillis = d.Milliseconds()
	}
}

// WithSimulationUpdateRate sets the steps-per-second simulation scale.
//
// Parameters:
//   - rate: simulation steps per second (values <= 0 restore the default)
//
// Returns:
//   - ThreadBuilderOption: a function that sets the rate
func WithSimulationUpdateRate(rate float32) ThreadBuilderOption {
	return func(t *threadImpl) {
		if rate <= 0 {
			rate = DefaultSimulationRate
		}
		t.simulationUpdateRate = rate
	}
}
