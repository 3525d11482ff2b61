package debounce

import (
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTimer struct {
	clock   *fakeClock
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// fakeClock fires timers synchronously from Advance
type fakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now + d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now + d
	c.mu.Unlock()

	for {
		c.mu.Lock()
		sort.SliceStable(c.timers, func(i, j int) bool { return c.timers[i].at < c.timers[j].at })
		var next *fakeTimer
		for _, t := range c.timers {
			if !t.stopped && !t.fired && t.at <= target {
				next = t
				break
			}
		}
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		c.now = next.at
		next.fired = true
		c.mu.Unlock()

		next.f()
	}
}

type emission struct {
	at    time.Duration
	value string
}

func newRecorder(clock *fakeClock) (*[]emission, func(string)) {
	var got []emission
	return &got, func(v string) {
		got = append(got, emission{at: clock.Now(), value: v})
	}
}

func TestDebouncer_CollapsesBurst(t *testing.T) {
	clock := &fakeClock{}
	got, emit := newRecorder(clock)
	d := New(DefaultDelay, emit, WithClock(clock))

	d.Push("b")
	clock.Advance(100 * time.Millisecond)
	d.Push("ba")
	clock.Advance(100 * time.Millisecond)
	d.Push("bat")

	clock.Advance(499 * time.Millisecond)
	assert.Empty(t, *got)

	clock.Advance(time.Millisecond)
	require.Len(t, *got, 1)
	assert.Equal(t, emission{at: 700 * time.Millisecond, value: "bat"}, (*got)[0])

	clock.Advance(5 * time.Second)
	assert.Len(t, *got, 1)
}

func TestDebouncer_SeparateBursts(t *testing.T) {
	clock := &fakeClock{}
	got, emit := newRecorder(clock)
	d := New(DefaultDelay, emit, WithClock(clock))

	d.Push("bat")
	clock.Advance(600 * time.Millisecond)
	d.Push("batman")
	clock.Advance(600 * time.Millisecond)

	assert.Equal(t, []emission{
		{at: 500 * time.Millisecond, value: "bat"},
		{at: 1100 * time.Millisecond, value: "batman"},
	}, *got)
}

func TestDebouncer_EmitsEmptyValue(t *testing.T) {
	clock := &fakeClock{}
	got, emit := newRecorder(clock)
	d := New(DefaultDelay, emit, WithClock(clock))

	d.Push("b")
	clock.Advance(100 * time.Millisecond)
	d.Push("")
	clock.Advance(DefaultDelay)

	assert.Equal(t, []emission{{at: 600 * time.Millisecond, value: ""}}, *got)
}

func TestDebouncer_Flush(t *testing.T) {
	clock := &fakeClock{}
	got, emit := newRecorder(clock)
	d := New(DefaultDelay, emit, WithClock(clock))

	d.Flush()
	assert.Empty(t, *got)

	d.Push("alien")
	clock.Advance(10 * time.Millisecond)
	d.Flush()
	assert.Equal(t, []emission{{at: 10 * time.Millisecond, value: "alien"}}, *got)

	clock.Advance(time.Second)
	assert.Len(t, *got, 1)
}

func TestDebouncer_Stop(t *testing.T) {
	clock := &fakeClock{}
	got, emit := newRecorder(clock)
	d := New(DefaultDelay, emit, WithClock(clock))

	d.Push("alien")
	d.Stop()
	d.Push("aliens")
	clock.Advance(time.Second)

	assert.Empty(t, *got)
}

func TestDebouncer_RealClock(t *testing.T) {
	values := make(chan string, 1)
	d := New(20*time.Millisecond, func(v string) { values <- v })

	d.Push("x")
	d.Push("xy")

	select {
	case v := <-values:
		assert.Equal(t, "xy", v)
	case <-time.After(time.Second):
		t.Fatal("debouncer never emitted")
	}
}
