// Package host declares what a viewer needs from the environment it is embedded in:
// a container to render into and a single-threaded scheduler to run on.
package host

// Container is a render region registered under an identifier.
type Container interface {
	// ID returns the identifier the container is registered under.
	ID() string

	// Width returns the drawable width in pixels.
	Width() int

	// Height returns the drawable height in pixels.
	Height() int
}

// Scheduler runs callbacks on the host's message-loop thread.
type Scheduler interface {
	// RequestFrame queues fn to run once on the next frame.
	// Frames requested while a frame runs are deferred to the following one.
	RequestFrame(fn func())

	// Dispatch queues fn to run on the loop thread before the next frame's callbacks.
	// Safe to call from any goroutine.
	Dispatch(fn func())
}

// Host resolves containers and provides the scheduler.
type Host interface {
	// Container looks up a container by identifier.
	Container(id string) (Container, bool)

	// Scheduler returns the host's scheduler.
	Scheduler() Scheduler
}
