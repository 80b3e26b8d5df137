// Package orientation carries device-orientation readings from sensors to the viewer.
package orientation

import "sync"

// Event is a device-orientation reading in degrees.
// Alpha rotates about the device's Z axis, Beta about X and Gamma about Y.
type Event struct {
	Alpha float64
	Beta  float64
	Gamma float64
}

// Source produces orientation events.
// Events may arrive on any goroutine.
type Source interface {
	// Subscribe registers fn for every future event.
	//
	// Parameters:
	//   - fn: the callback receiving events
	//
	// Returns:
	//   - func(): cancels the subscription; safe to call more than once
	Subscribe(fn func(Event)) (cancel func())
}

// Feed fans one stream of events out to any number of subscribers.
// The zero value is ready to use.
type Feed struct {
	mu   sync.Mutex
	next int
	subs map[int]func(Event)
	last *Event
}

var _ Source = &Feed{}

// Subscribe implements Source.
func (f *Feed) Subscribe(fn func(Event)) func() {
	f.mu.Lock()
	if f.subs == nil {
		f.subs = make(map[int]func(Event))
	}
	id := f.next
	f.next++
	f.subs[id] = fn
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
		})
	}
}

// Publish delivers ev to every subscriber.
// Callbacks run on the caller's goroutine outside the feed's lock.
func (f *Feed) Publish(ev Event) {
	f.mu.Lock()
	f.last = &ev
	fns := make([]func(Event), 0, len(f.subs))
	for _, fn := range f.subs {
		fns = append(fns, fn)
	}
	f.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Last returns the most recently published event.
func (f *Feed) Last() (Event, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.last == nil {
		return Event{}, false
	}
	return *f.last, true
}

// Len returns the number of live subscriptions.
func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}
