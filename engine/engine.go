package engine

import (
	"log"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-panorama/engine/host"
	"github.com/Carmen-Shannon/oxy-panorama/engine/profiler"
	"github.com/Carmen-Shannon/oxy-panorama/engine/window"
)

// idleSleep is how long an iteration with nothing queued sleeps.
const idleSleep = time.Millisecond

// Engine owns the message loop. It is the host.Host every viewer runs on:
// containers resolve through it and every callback it schedules runs on
// the loop thread.
type Engine interface {
	host.Host
	host.Scheduler

	// Window is nil for a headless engine.
	Window() window.Window

	// SetRenderFrameLimit caps frames per second. 0 uncaps.
	SetRenderFrameLimit(fps float64)

	// Run drives the loop on the calling goroutine until the window closes
	// or Quit is called. With a window it has to be the window's thread.
	Run()

	// Quit stops the loop. Safe from any goroutine, any number of times.
	Quit()

	// Done is closed once the engine has quit.
	Done() <-chan struct{}
}

type engine struct {
	mu *sync.Mutex

	done     chan struct{}
	quitOnce sync.Once

	window     window.Window
	containers map[string]host.Container

	dispatched []func()
	frames     []func()
	spare      []func()

	profiler        *profiler.Profiler
	profile         bool
	profileInterval time.Duration

	minFrame  time.Duration
	lastFrame time.Time
}

var _ Engine = &engine{}

// NewEngine builds an engine. Without WithWindow it runs headless, which
// is what tests use.
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		mu:              &sync.Mutex{},
		done:            make(chan struct{}),
		containers:      make(map[string]host.Container),
		profileInterval: time.Second,
	}
	for _, opt := range options {
		opt(e)
	}
	e.profiler = profiler.NewProfiler(e.profileInterval)
	if e.window != nil {
		e.window.SetUpdateCallback(e.runFrame)
	}
	return e
}

func (e *engine) Window() window.Window     { return e.window }
func (e *engine) Scheduler() host.Scheduler { return e }
func (e *engine) Done() <-chan struct{}     { return e.done }
func (e *engine) Quit()                     { e.quit() }

func (e *engine) Container(id string) (host.Container, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.containers[id]
	return c, ok
}

func (e *engine) RequestFrame(fn func()) {
	e.mu.Lock()
	e.frames = append(e.frames, fn)
	e.mu.Unlock()
}

func (e *engine) Dispatch(fn func()) {
	e.mu.Lock()
	e.dispatched = append(e.dispatched, fn)
	e.mu.Unlock()
}

func (e *engine) SetRenderFrameLimit(fps float64) {
	e.minFrame = frameBudget(fps)
}

func (e *engine) Run() {
	defer e.quit()
	if e.window != nil {
		e.window.ProcessMessages()
		return
	}
	for !e.stopped() {
		e.runFrame()
	}
}

func (e *engine) stopped() bool {
	select {
	case <-e.done:
		return true
	default:
		return false
	}
}

func (e *engine) quit() {
	e.quitOnce.Do(func() {
		close(e.done)
		if e.window != nil {
			e.window.RequestClose()
		}
	})
}

// runFrame is one loop iteration. Dispatched work runs first, then the
// frame callbacks queued before the iteration began; anything they queue
// waits for the next one. A panic in a callback is logged and quits.
func (e *engine) runFrame() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Engine] callback panicked, quitting: %v", r)
			e.quit()
		}
	}()
	if e.stopped() {
		return
	}

	e.mu.Lock()
	work := e.dispatched
	e.dispatched = nil
	e.mu.Unlock()
	for _, fn := range work {
		fn()
	}

	e.mu.Lock()
	frames := e.frames
	e.frames = e.spare[:0]
	e.mu.Unlock()

	for i, fn := range frames {
		fn()
		frames[i] = nil
	}

	e.mu.Lock()
	e.spare = frames[:0]
	e.mu.Unlock()

	switch {
	case len(frames) > 0:
		e.endFrame()
	case len(work) == 0:
		time.Sleep(idleSleep)
	}
}

// endFrame feeds the profiler and holds the loop to the frame limit.
func (e *engine) endFrame() {
	if e.profile {
		e.profiler.Tick()
	}
	if e.minFrame > 0 {
		if wait := e.minFrame - time.Since(e.lastFrame); wait > 0 {
			time.Sleep(wait)
		}
	}
	e.lastFrame = time.Now()
}

func frameBudget(fps float64) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / fps)
}
