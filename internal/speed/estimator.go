package speed

import (
	"time"

	"github.com/0xProject/typing-speed/internal/rollingwindow"
	"github.com/pkg/errors"
)

const (
	// A pause longer than IdleThreshold ends the current burst.
	IdleThreshold   = 2000 * time.Millisecond
	DefaultCapacity = 100
	CharsPerWord    = 5
)

// ErrDegenerateInterval is returned when the oldest and newest events in the
// window share a timestamp (or the clock went backwards), so no interval can
// be measured. The returned rate is 0 and callers should keep their previous
// display.
var ErrDegenerateInterval = errors.New("degenerate interval between events")

type Option func(*Estimator)

func WithCapacity(capacity int) Option {
	return func(e *Estimator) {
		e.capacity = capacity
	}
}

func WithIdleThreshold(threshold time.Duration) Option {
	return func(e *Estimator) {
		e.idleThreshold = threshold
	}
}

// Estimator turns keystroke timestamps into a characters/words per minute
// rate over the current burst.
//
// It is not safe for concurrent use; callers serialise events.
type Estimator struct {
	window        *rollingwindow.RollingWindow
	capacity      int
	idleThreshold time.Duration

	lastEvent   time.Time
	seen        bool
	burstResets uint64
}

func NewEstimator(opts ...Option) (*Estimator, error) {
	e := &Estimator{
		capacity:      DefaultCapacity,
		idleThreshold: IdleThreshold,
	}

	for _, opt := range opts {
		opt(e)
	}

	window, err := rollingwindow.NewRollingWindow(e.capacity)
	if err != nil {
		return nil, errors.Wrap(err, "cannot create estimator")
	}
	e.window = window

	return e, nil
}

// RecordEventAndGetRate records a keystroke at now and returns the rate of the
// current burst in the requested unit.
func (e *Estimator) RecordEventAndGetRate(now time.Time, unit Unit) (float64, error) {
	if e.seen && now.Sub(e.lastEvent) > e.idleThreshold {
		e.window.Clear()
		e.burstResets++
	}

	e.lastEvent = now
	e.seen = true
	e.window.Add(now.UnixMilli())

	return e.Rate(now, unit)
}

// Rate computes the rate at now from the buffered timestamps without
// recording a new event.
func (e *Estimator) Rate(now time.Time, unit Unit) (float64, error) {
	count := e.window.Size()
	if count < 2 {
		return 0, nil
	}

	first, err := e.window.First()
	if err != nil {
		return 0, err
	}

	elapsedMs := now.UnixMilli() - first
	if elapsedMs <= 0 {
		return 0, ErrDegenerateInterval
	}

	cpm := float64(count) * 60000 / float64(elapsedMs)
	if unit == CharsPerMinute {
		return cpm, nil
	}

	return cpm / CharsPerWord, nil
}

// Reset forgets the current burst, as if no event had been recorded yet.
func (e *Estimator) Reset() {
	e.window.Clear()
	e.seen = false
	e.lastEvent = time.Time{}
}

func (e *Estimator) BurstResets() uint64 {
	return e.burstResets
}

func (e *Estimator) LastEvent() (time.Time, bool) {
	return e.lastEvent, e.seen
}

func (e *Estimator) Window() *rollingwindow.RollingWindow {
	return e.window
}
