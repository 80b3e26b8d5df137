package profiler

import (
	"log"
	"runtime"
	"time"
)

// Stats summarizes one reporting window.
type Stats struct {
	FPS          float64
	AvgFrame     time.Duration
	MaxFrame     time.Duration
	HeapMB       float64
	AllocRateMB  float64
	GCCount      uint32
	MaxGCPauseUs uint64
}

// Profiler counts frames and samples the Go runtime, logging one line per
// interval.
type Profiler struct {
	interval time.Duration

	frames    int
	windowAt  time.Time
	lastFrame time.Time
	maxFrame  time.Duration

	mem       runtime.MemStats
	prevGC    uint32
	prevAlloc uint64
	last      Stats

	now    func() time.Time
	logger *log.Logger
}

// NewProfiler reports every interval, or every second for interval <= 0.
func NewProfiler(interval time.Duration) *Profiler {
	if interval <= 0 {
		interval = time.Second
	}
	p := &Profiler{interval: interval, now: time.Now, logger: log.Default()}
	p.windowAt = p.now()
	p.lastFrame = p.windowAt
	return p
}

// Last is the most recently reported window.
func (p *Profiler) Last() Stats {
	return p.last
}

// Tick records one frame. Once the interval has passed it logs a report,
// starts a new window and returns true.
func (p *Profiler) Tick() bool {
	now := p.now()
	p.frames++
	p.maxFrame = max(p.maxFrame, now.Sub(p.lastFrame))
	p.lastFrame = now

	elapsed := now.Sub(p.windowAt)
	if elapsed < p.interval {
		return false
	}

	runtime.ReadMemStats(&p.mem)
	secs := elapsed.Seconds()
	p.last = Stats{
		FPS:          float64(p.frames) / secs,
		AvgFrame:     elapsed / time.Duration(p.frames),
		MaxFrame:     p.maxFrame,
		HeapMB:       mib(p.mem.Alloc),
		AllocRateMB:  mib(p.mem.TotalAlloc-p.prevAlloc) / secs,
		GCCount:      p.mem.NumGC,
		MaxGCPauseUs: p.maxPauseSince(p.prevGC) / 1000,
	}
	s := p.last
	p.logger.Printf("[Profiler] FPS: %.2f | Frame: %.2f ms (max %.2f ms) | Heap: %.2f MB | Alloc Rate: %.2f MB/s | GC: %d (max: %d µs)",
		s.FPS, millis(s.AvgFrame), millis(s.MaxFrame), s.HeapMB, s.AllocRateMB, s.GCCount, s.MaxGCPauseUs)

	p.frames, p.maxFrame, p.windowAt = 0, 0, now
	p.prevGC, p.prevAlloc = p.mem.NumGC, p.mem.TotalAlloc
	return true
}

// maxPauseSince scans the GC pause ring buffer, which only remembers the
// last 256 collections, for the longest pause after collection gc.
func (p *Profiler) maxPauseSince(gc uint32) uint64 {
	n := p.mem.NumGC
	ring := uint32(len(p.mem.PauseNs))
	if n-gc > ring {
		gc = n - ring
	}
	var longest uint64
	for i := gc; i < n; i++ {
		longest = max(longest, p.mem.PauseNs[i%ring])
	}
	return longest
}

func mib(b uint64) float64 { return float64(b) / (1 << 20) }

func millis(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }
