package profiler

import (
	"fmt"
	"runtime"
	"time"

	"github.com/aurora3d/aurora-go/engine/diag"
)

// Profiler tracks frame rate and memory statistics and reports them
// through the diagnostics sink at a fixed interval.
type Profiler struct {
	sink           diag.Sink
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
}

// NewProfiler creates a profiler with a 1 second reporting interval.
//
// Parameters:
//   - sink: the diagnostics sink to report through (nil uses the default)
//
// Returns:
//   - *Profiler: the new profiler
func NewProfiler(sink diag.Sink) *Profiler {
	if sink == nil {
		sink = diag.Default()
	}
	return &Profiler{
		sink:           sink,
		lastTime:       time.Now(),
		updateInterval: time.Second,
	}
}

// Tick is called once per frame. When the reporting interval has elapsed
// it logs FPS, heap usage, allocation rate, and GC pause stats.
//
// Returns:
//   - bool: true if stats were reported this tick
func (p *Profiler) Tick() bool {
	p.frameCount++
	currentTime := time.Now()
	elapsed := currentTime.Sub(p.lastTime)

	if elapsed < p.updateInterval {
		return false
	}

	fps := float64(p.frameCount) / elapsed.Seconds()

	runtime.ReadMemStats(&p.memStats)
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024

	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	allocRateMB := float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	// PauseNs is a circular buffer of the last 256 GC pauses.
	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000

		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			pause := p.memStats.PauseNs[i%256] / 1000
			if pause > maxPauseUs {
				maxPauseUs = pause
			}
		}
	}

	p.sink.Log(fmt.Sprintf("FPS: %.2f | Heap: %.2f MB | Alloc Rate: %.2f MB/s | GC: %d (last: %d µs, max: %d µs) | Sys: %.2f MB",
		fps, allocMB, allocRateMB, gcCount, lastPauseUs, maxPauseUs, sysMB), diag.CodeProfile)

	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}
