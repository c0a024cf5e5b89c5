// package thread implements the cooperative frame scheduler. It is driven
// by a periodic platform callback (the window message loop) on a single
// logical timeline and produces the timing ticks that pace scene updates
// and frame submission.
package thread

import (
	"sync"
	"time"

	"github.com/aurora3d/aurora-go/common"
	"github.com/aurora3d/aurora-go/engine/diag"
)

// EventKind identifies one of the scheduler's fixed event channels.
// The dispatch table is shaped per kind so handling is exhaustive rather
// than keyed by strings.
type EventKind int32

const (
	// EventUpdate fires once per tick with the current timing payload.
	EventUpdate EventKind = iota
	// EventStart fires when the scheduler transitions Idle -> Active.
	EventStart
	// EventStop fires when the scheduler transitions Active -> Idle.
	EventStop
	// EventIdle fires immediately after EventStop.
	EventIdle

	eventKindCount
)

// DefaultMaxDelta is the clamp applied to the raw frame delta so a long
// stall never produces a huge simulation jump.
const DefaultMaxDelta = 250 * time.Millisecond

// DefaultSimulationRate is the number of simulation steps that one second
// of wall time converts into.
const DefaultSimulationRate float32 = 60

// Tick is the timing payload dispatched with every update event.
type Tick struct {
	// Now is the tick timestamp in milliseconds.
	Now int64

	// DeltaTime is the clamped frame delta converted to simulation steps:
	// clampedMillis * SimulationUpdateRate / 1000.
	DeltaTime float32

	// FrameRate is the number of ticks inside the trailing one-second window.
	FrameRate int

	// LastRegisteredTimestamp is the timestamp of the previous tick, in
	// milliseconds, or 0 on the first tick after Start.
	LastRegisteredTimestamp int64

	// SimulationUpdateRate is the configured steps-per-second scale.
	SimulationUpdateRate float32
}

// Listener receives scheduler events.
type Listener func(Tick)

// Thread is the cooperative frame scheduler. All methods must be called
// from the single cooperative timeline; the scheduler is not reentrant.
type Thread interface {
	// Start transitions the scheduler to Active and dispatches the start
	// event. Starting an active scheduler warns and is a no-op.
	Start()

	// Stop transitions the scheduler to Idle and dispatches the stop and
	// idle events. Stopping an idle scheduler warns and is a no-op.
	Stop()

	// Active reports whether the scheduler is running.
	//
	// Returns:
	//   - bool: true between Start and Stop
	Active() bool

	// Tick advances the scheduler one frame: computes the clamped delta,
	// maintains the one-second timestamp window, and dispatches the update
	// event synchronously to every listener in registration order. Ticks
	// while Idle are ignored.
	Tick()

	// AddListener registers a listener for the given event kind.
	//
	// Parameters:
	//   - kind: the event kind to listen for
	//   - fn: the listener
	//
	// Returns:
	//   - uint64: a handle for RemoveListener
	AddListener(kind EventKind, fn Listener) uint64

	// Once registers a listener that is removed automatically after its
	// first invocation.
	//
	// Parameters:
	//   - kind: the event kind to listen for
	//   - fn: the listener
	//
	// Returns:
	//   - uint64: a handle for RemoveListener
	Once(kind EventKind, fn Listener) uint64

	// RemoveListener removes the listener registered under the handle.
	//
	// Parameters:
	//   - kind: the event kind the listener was registered for
	//   - handle: the handle returned at registration
	//
	// Returns:
	//   - bool: true if a listener was removed
	RemoveListener(kind EventKind, handle uint64) bool

	// Clear removes every listener for one event kind.
	//
	// Parameters:
	//   - kind: the event kind to clear
	Clear(kind EventKind)

	// ClearAll removes every listener for every event kind.
	ClearAll()

	// FrameRate returns the tick count of the trailing one-second window.
	//
	// Returns:
	//   - int: the instantaneous frame rate
	FrameRate() int

	// DeltaTime returns the most recent tick's simulation-step delta.
	//
	// Returns:
	//   - float32: the last computed delta
	DeltaTime() float32

	// SimulationUpdateRate returns the steps-per-second scale.
	//
	// Returns:
	//   - float32: the configured rate
	SimulationUpdateRate() float32

	// SetSimulationUpdateRate sets the steps-per-second scale. Values <= 0
	// restore the default.
	//
	// Parameters:
	//   - rate: simulation steps per second
	SetSimulationUpdateRate(rate float32)
}

type listenerEntry struct {
	id   uint64
	fn   Listener
	once bool
}

type threadImpl struct {
	mu   *sync.Mutex
	sink diag.Sink

	// clock returns the current time in milliseconds. Injectable so tests
	// can feed synthetic ticks.
	clock func() int64

	active               bool
	simulationUpdateRate float32
	maxDeltaMillis       int64
	deltaTime            float32
	lastTimestamp        int64

	// timestamps is the sliding one-second window of tick times; its
	// length is the reported frame rate.
	timestamps []int64

	listeners [eventKindCount][]listenerEntry
	nextID    uint64
}

var _ Thread = &threadImpl{}

// NewThread creates an idle frame scheduler with the default 250 ms delta
// clamp and 60 steps/second simulation rate.
//
// Parameters:
//   - options: functional options to configure the scheduler
//
// Returns:
//   - Thread: the new scheduler
func NewThread(options ...ThreadBuilderOption) Thread {
	t := &threadImpl{
		mu:                   &sync.Mutex{},
		sink:                 diag.Default(),
		clock:                func() int64 { return time.Now().UnixMilli() },
		simulationUpdateRate: DefaultSimulationRate,
		maxDeltaMillis:       DefaultMaxDelta.Milliseconds(),
		nextID:               1,
	}
	for _, option := range options {
		option(t)
	}
	return t
}

func (t *threadImpl) Start() {
	t.mu.Lock()
	if t.active {
		t.mu.Unlock()
		t.sink.Warn("scheduler already active; Start ignored", diag.CodeSchedulerState)
		return
	}
	t.active = true
	t.lastTimestamp = 0
	t.timestamps = t.timestamps[:0]
	now := t.clock()
	payload := t.payloadLocked(now)
	t.mu.Unlock()

	t.dispatch(EventStart, payload)
}

func (t *threadImpl) Stop() {
	t.mu.Lock()
	if !t.active {
		t.mu.Unlock()
		t.sink.Warn("scheduler already idle; Stop ignored", diag.CodeSchedulerState)
		return
	}
	t.active = false
	now := t.clock()
	payload := t.payloadLocked(now)
	t.mu.Unlock()

	t.dispatch(EventStop, payload)
	t.dispatch(EventIdle, payload)
}

func (t *threadImpl) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

func (t *threadImpl) Tick() {
	t.mu.Lock()
	if !t.active {
		t.mu.Unlock()
		return
	}

	now := t.clock()
	last := t.lastTimestamp

	var rawDelta int64
	if last != 0 {
		rawDelta = now - last
	}
	clamped := common.Clamp(rawDelta, 0, t.maxDeltaMillis)
	t.deltaTime = float32(clamped) * t.simulationUpdateRate / 1000

	// Slide the one-second window: evict timestamps older than now-1000,
	// then register this tick. Window length is the frame rate.
	cutoff := now - 1000
	keep := t.timestamps[:0]
	for _, ts := range t.timestamps {
		if ts > cutoff {
			keep = append(keep, ts)
		}
	}
	t.timestamps = append(keep, now)
	t.lastTimestamp = now

	payload := Tick{
		Now:                     now,
		DeltaTime:               t.deltaTime,
		FrameRate:               len(t.timestamps),
		LastRegisteredTimestamp: last,
		SimulationUpdateRate:    t.simulationUpdateRate,
	}
	t.mu.Unlock()

	t.dispatch(EventUpdate, payload)
}

// payloadLocked builds a payload from current state. Caller holds the mutex.
func (t *threadImpl) payloadLocked(now int64) Tick {
	return Tick{
		Now:                     now,
		DeltaTime:               t.deltaTime,
		FrameRate:               len(t.timestamps),
		LastRegisteredTimestamp: t.lastTimestamp,
		SimulationUpdateRate:    t.simulationUpdateRate,
	}
}

// dispatch invokes listeners for one event kind synchronously, in
// registration order, then drops any one-shot listeners that fired.
func (t *threadImpl) dispatch(kind EventKind, payload Tick) {
	t.mu.Lock()
	entries := make([]listenerEntry, len(t.listeners[kind]))
	copy(entries, t.listeners[kind])
	t.mu.Unlock()

	var fired []uint64
	for _, entry := range entries {
		entry.fn(payload)
		if entry.once {
			fired = append(fired, entry.id)
		}
	}

	for _, id := range fired {
		t.RemoveListener(kind, id)
	}
}

func (t *threadImpl) AddListener(kind EventKind, fn Listener) uint64 {
	return t.add(kind, fn, false)
}

func (t *threadImpl) Once(kind EventKind, fn Listener) uint64 {
	return t.add(kind, fn, true)
}

func (t *threadImpl) add(kind EventKind, fn Listener, once bool) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.nextID
	t.nextID++
	t.listeners[kind] = append(t.listeners[kind], listenerEntry{id: id, fn: fn, once: once})
	return id
}

func (t *threadImpl) RemoveListener(kind EventKind, handle uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	entries := t.listeners[kind]
	for i, entry := range entries {
		if entry.id == handle {
			t.listeners[kind] = append(entries[:i], entries[i+1:]...)
			return true
		}
	}
	return false
}

func (t *threadImpl) Clear(kind EventKind) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners[kind] = nil
}

func (t *threadImpl) ClearAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for kind := range t.listeners {
		t.listeners[kind] = nil
	}
}

func (t *threadImpl) FrameRate() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.timestamps)
}

func (t *threadImpl) DeltaTime() float32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.deltaTime
}

func (t *threadImpl) SimulationUpdateRate() float32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.simulationUpdateRate
}

func (t *threadImpl) SetSimulationUpdateRate(rate float32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if rate <= 0 {
		rate = DefaultSimulationRate
	}
	t.simulationUpdateRate = rate
}
