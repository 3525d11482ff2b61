// Package debounce collapses bursts of values into a single emission once input goes quiet.
package debounce

import (
	"sync"
	"time"
)

// DefaultDelay is the quiet period used for search input
const DefaultDelay = 500 * time.Millisecond

// Timer is the subset of *time.Timer the debouncer needs
type Timer interface {
	Stop() bool
}

// Clock schedules delayed callbacks
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type options struct {
	clock Clock
}

type Option func(*options)

// WithClock replaces the wall clock, mostly for tests
func WithClock(c Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// Debouncer emits the most recent pushed value after delay has passed without another push.
// Each push restarts the quiet period. Emissions happen on the clock's goroutine.
type Debouncer[T any] struct {
	mu         sync.Mutex
	delay      time.Duration
	clock      Clock
	emit       func(T)
	timer      Timer
	generation uint64
	pending    T
	hasPending bool
	stopped    bool
}

func New[T any](delay time.Duration, emit func(T), opts ...Option) *Debouncer[T] {
	o := options{clock: realClock{}}
	for _, opt := range opts {
		opt(&o)
	}

	return &Debouncer[T]{
		delay: delay,
		clock: o.clock,
		emit:  emit,
	}
}

// Push records v as the latest value and restarts the quiet period
func (d *Debouncer[T]) Push(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	if d.timer != nil {
		d.timer.Stop()
	}

	d.generation++
	gen := d.generation
	d.pending = v
	d.hasPending = true
	d.timer = d.clock.AfterFunc(d.delay, func() {
		d.fire(gen)
	})
}

func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	// a timer that lost the race with Stop or a newer Push must not emit
	if d.stopped || gen != d.generation || !d.hasPending {
		d.mu.Unlock()
		return
	}
	v := d.pending
	d.hasPending = false
	d.timer = nil
	d.mu.Unlock()

	d.emit(v)
}

// Flush emits the pending value immediately, if any
func (d *Debouncer[T]) Flush() {
	d.mu.Lock()
	if d.stopped || !d.hasPending {
		d.mu.Unlock()
		return
	}
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.generation++
	v := d.pending
	d.hasPending = false
	d.mu.Unlock()

	d.emit(v)
}

// Stop drops any pending value. Later pushes are ignored.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	d.hasPending = false
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
