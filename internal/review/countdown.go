package review

import (
	"sync"
	"time"
)

// Timer is the stoppable handle returned by Clock.AfterFunc.
type Timer interface {
	Stop() bool
}

// Clock abstracts time so countdowns can be driven by tests.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}

// Countdown is a cancellable countdown that can be paused and resumed.
// OnComplete fires at most once per run, on the timer goroutine.
type Countdown struct {
	mu         sync.Mutex
	clock      Clock
	duration   time.Duration
	remaining  time.Duration
	running    bool
	done       bool
	startedAt  time.Time
	timer      Timer
	generation uint64
	onComplete func()
}

func NewCountdown(duration time.Duration, clock Clock, onComplete func()) *Countdown {
	if clock == nil {
		clock = SystemClock
	}
	return &Countdown{
		clock:      clock,
		duration:   duration,
		remaining:  duration,
		onComplete: onComplete,
	}
}

// Start runs the countdown from its remaining time. A finished countdown restarts from full.
func (c *Countdown) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return
	}
	if c.done || c.remaining <= 0 {
		c.remaining = c.duration
		c.done = false
	}
	c.startLocked()
}

// Resume continues a paused countdown; it is a no-op once finished.
func (c *Countdown) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running || c.done {
		return
	}
	c.startLocked()
}

// Pause freezes the remaining time.
func (c *Countdown) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return
	}
	c.stopLocked()
	c.remaining -= c.clock.Now().Sub(c.startedAt)
	if c.remaining < 0 {
		c.remaining = 0
	}
}

// Toggle pauses a running countdown or resumes a paused one.
func (c *Countdown) Toggle() {
	c.mu.Lock()
	running := c.running
	c.mu.Unlock()
	if running {
		c.Pause()
		return
	}
	c.Resume()
}

// Reset stops the countdown and restores the full duration.
func (c *Countdown) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	c.remaining = c.duration
	c.done = false
}

// Cancel stops the countdown without firing OnComplete.
func (c *Countdown) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		c.remaining -= c.clock.Now().Sub(c.startedAt)
		if c.remaining < 0 {
			c.remaining = 0
		}
	}
	c.stopLocked()
}

func (c *Countdown) Remaining() time.Duration {
	return c.Status().Remaining
}

func (c *Countdown) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Done reports whether the current run reached zero.
func (c *Countdown) Done() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

func (c *Countdown) startLocked() {
	c.running = true
	c.startedAt = c.clock.Now()
	c.generation++
	gen := c.generation
	c.timer = c.clock.AfterFunc(c.remaining, func() { c.fire(gen) })
}

func (c *Countdown) stopLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.running = false
	// A timer that already fired but has not taken the lock yet must not complete this run.
	c.generation++
}

func (c *Countdown) fire(gen uint64) {
	c.mu.Lock()
	if gen != c.generation || !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	c.done = true
	c.remaining = 0
	c.timer = nil
	onComplete := c.onComplete
	c.mu.Unlock()

	if onComplete != nil {
		onComplete()
	}
}

// TimerStatus is a point-in-time view of a countdown.
type TimerStatus struct {
	Remaining time.Duration
	Running   bool
	Done      bool
}

func (c *Countdown) Status() TimerStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	left := c.remaining
	if c.running {
		left -= c.clock.Now().Sub(c.startedAt)
		if left < 0 {
			left = 0
		}
	}
	return TimerStatus{Remaining: left, Running: c.running, Done: c.done}
}
