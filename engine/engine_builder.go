package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxy-panorama/engine/host"
	"github.com/Carmen-Shannon/oxy-panorama/engine/window"
)

type EngineBuilderOption func(*engine)

// WithProfiling logs frame and memory stats every profile interval.
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profile = enabled
	}
}

// WithProfileInterval sets the profiler's reporting period. One second by default.
func WithProfileInterval(interval time.Duration) EngineBuilderOption {
	return func(e *engine) {
		e.profileInterval = interval
	}
}

// WithWindow drives the loop from w and registers it as a container under
// its ID.
//
// Parameters:
//   - w: a spawned window
//
// Returns:
//   - EngineBuilderOption: the option
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
		e.containers[w.ID()] = w
	}
}

// WithContainer registers c under its ID.
func WithContainer(c host.Container) EngineBuilderOption {
	return func(e *engine) {
		e.containers[c.ID()] = c
	}
}

// WithRenderFrameLimit caps frames per second. 0, the default, uncaps.
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		e.minFrame = frameBudget(fps)
	}
}
