// package diag provides the structured diagnostics sink used throughout the
// engine. The sink is a pure side-effecting output: nothing in the engine
// reads it back or branches on it.
package diag

import (
	"log"
	"strings"
	"sync"
)

// Diagnostic codes reported through the sink. Codes group by component:
// 1xxx device acquisition, 2xxx surface, 3xxx renderer, 4xxx scheduler,
// 5xxx profiling.
const (
	CodeCapability        = 1001 // platform has no GPU support
	CodeAdapterRequest    = 1002 // no adapter matched the power preference
	CodeDeviceRequest     = 1003 // adapter rejected the device request
	CodeDeviceLost        = 1004 // device invalidated, rebuild required
	CodeUncapturedError   = 1005 // non-fatal device-side validation error
	CodePixelRatioInvalid = 2001 // ratio <= 0, platform default substituted
	CodePixelRatioHigh    = 2002 // ratio in [2, 10), performance advisory
	CodePixelRatioExtreme = 2003 // ratio >= 10, strong advisory
	CodeUsage             = 3001 // API misuse: double Begin, End without Begin, render before Prepare
	CodeSchedulerState    = 4001 // redundant Start/Stop on the frame scheduler
	CodeProfile           = 5001 // periodic frame and memory statistics
)

// Sink receives engine diagnostics. Implementations must be safe for
// concurrent use. The engine never alters control flow based on sink
// behavior.
type Sink interface {
	// Log reports an informational message.
	//
	// Parameters:
	//   - msg: human-readable message
	//   - code: diagnostic code identifying the condition
	//   - details: optional supporting detail strings
	Log(msg string, code int, details ...string)

	// Warn reports a non-fatal advisory.
	//
	// Parameters:
	//   - msg: human-readable message
	//   - code: diagnostic code identifying the condition
	//   - details: optional supporting detail strings
	Warn(msg string, code int, details ...string)

	// Error reports an error condition. Reporting does not imply the
	// operation failed; fatal outcomes are returned as errors by the caller.
	//
	// Parameters:
	//   - msg: human-readable message
	//   - code: diagnostic code identifying the condition
	//   - details: optional supporting detail strings
	Error(msg string, code int, details ...string)
}

// logSink writes diagnostics through the standard library logger.
type logSink struct{}

var _ Sink = logSink{}

// Default returns the standard sink writing through the log package.
//
// Returns:
//   - Sink: the default logging sink
func Default() Sink {
	return logSink{}
}

func (logSink) Log(msg string, code int, details ...string) {
	logWrite("INFO", msg, code, details)
}

func (logSink) Warn(msg string, code int, details ...string) {
	logWrite("WARN", msg, code, details)
}

func (logSink) Error(msg string, code int, details ...string) {
	logWrite("ERROR", msg, code, details)
}

func logWrite(level, msg string, code int, details []string) {
	if len(details) == 0 {
		log.Printf("[%s] (%d) %s", level, code, msg)
		return
	}
	log.Printf("[%s] (%d) %s | %s", level, code, msg, strings.Join(details, " | "))
}

// Entry is a single diagnostic captured by a Recorder.
type Entry struct {
	Level   string
	Msg     string
	Code    int
	Details []string
}

// Recorder is a Sink that captures entries in memory, for tests.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

var _ Sink = &Recorder{}

// NewRecorder creates an empty capturing sink.
//
// Returns:
//   - *Recorder: the new recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Log(msg string, code int, details ...string) {
	r.record("INFO", msg, code, details)
}

func (r *Recorder) Warn(msg string, code int, details ...string) {
	r.record("WARN", msg, code, details)
}

func (r *Recorder) Error(msg string, code int, details ...string) {
	r.record("ERROR", msg, code, details)
}

func (r *Recorder) record(level, msg string, code int, details []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Level: level, Msg: msg, Code: code, Details: details})
}

// Entries returns a copy of all captured diagnostics in report order.
//
// Returns:
//   - []Entry: the captured entries
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([]Entry, len(r.entries))
	copy(cp, r.entries)
	return cp
}

// Codes returns the diagnostic codes of all captured entries in report order.
//
// Returns:
//   - []int: the captured codes
func (r *Recorder) Codes() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	codes := make([]int, len(r.entries))
	for i, e := range r.entries {
		codes[i] = e.Code
	}
	return codes
}
