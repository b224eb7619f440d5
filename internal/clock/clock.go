package clock

import (
	"errors"
	"fmt"
	"time"
)

// ErrTimerMisuse marks recoverable start/stop calls made in the wrong state.
// Callers log it as a warning; the clock state is left untouched.
var ErrTimerMisuse = errors.New("timer misuse")

var (
	// ErrAlreadyRunning is returned by Start when the clock is running.
	ErrAlreadyRunning = fmt.Errorf("%w: timer already running", ErrTimerMisuse)
	// ErrNotRunning is returned by Stop when the clock is not running.
	ErrNotRunning = fmt.Errorf("%w: timer not running", ErrTimerMisuse)
)

// TimeSource supplies instants. Implementations must return values carrying a
// monotonic reading (time.Now does) so Sub never observes wall clock jumps.
type TimeSource interface {
	Now() time.Time
}

type systemSource struct{}

func (systemSource) Now() time.Time { return time.Now() }

// System returns the process monotonic time source.
func System() TimeSource { return systemSource{} }

// Clock is a stopwatch measuring elapsed seconds across start/stop cycles.
// The zero value is not usable; construct with New.
type Clock struct {
	source TimeSource

	started bool
	running bool
	// segmentStart is the instant of the current Start while running.
	segmentStart time.Time
	// accumulated holds elapsed time from completed start/stop segments.
	accumulated time.Duration
}

// New returns a stopped clock reading from source. A nil source uses System.
func New(source TimeSource) *Clock {
	if source == nil {
		source = System()
	}
	return &Clock{source: source}
}

// Start begins or resumes timing. A stopped clock continues from its frozen
// value rather than from zero.
func (c *Clock) Start() error {
	if c.running {
		return ErrAlreadyRunning
	}
	c.segmentStart = c.source.Now()
	c.running = true
	c.started = true
	return nil
}

// Stop freezes the elapsed time at its current value.
func (c *Clock) Stop() error {
	if !c.running {
		return ErrNotRunning
	}
	c.accumulated += c.source.Now().Sub(c.segmentStart)
	c.running = false
	return nil
}

// Elapsed reports seconds of running time since the first Start. It is 0
// before the clock was ever started.
func (c *Clock) Elapsed() float64 {
	return c.ElapsedDuration().Seconds()
}

// ElapsedDuration is Elapsed as a time.Duration.
func (c *Clock) ElapsedDuration() time.Duration {
	if !c.started {
		return 0
	}
	total := c.accumulated
	if c.running {
		if d := c.source.Now().Sub(c.segmentStart); d > 0 {
			total += d
		}
	}
	return total
}

// Reset returns a clock that has been started to its pre-start state. It is a
// no-op on a clock that was never started.
func (c *Clock) Reset() {
	if !c.started {
		return
	}
	c.started = false
	c.running = false
	c.segmentStart = time.Time{}
	c.accumulated = 0
}

// Running reports whether the clock is currently timing.
func (c *Clock) Running() bool { return c.running }

// Started reports whether Start has been called since construction or the
// last Reset.
func (c *Clock) Started() bool { return c.started }
