package rollingwindow

import (
	"sync"

	"github.com/pkg/errors"
)

var (
	ErrInvalidCapacity = errors.New("rolling window capacity must be positive")
	ErrEmptyWindow     = errors.New("rolling window is empty")
)

// RollingWindow keeps the most recent observations up to a fixed capacity.
// Once full, every Add overwrites the oldest observation. The backing slice is
// allocated once, so Add never shifts elements.
type RollingWindow struct {
	capacity int
	window   []int64
	head     int
	count    int

	mu sync.RWMutex
}

func NewRollingWindow(capacity int) (*RollingWindow, error) {
	if capacity <= 0 {
		return nil, errors.Wrapf(ErrInvalidCapacity, "got %d", capacity)
	}

	return &RollingWindow{
		capacity: capacity,
		window:   make([]int64, capacity),
	}, nil
}

func (r *RollingWindow) Add(value int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.window[r.head] = value
	r.head = (r.head + 1) % r.capacity

	if r.count < r.capacity {
		r.count++
	}
}

func (r *RollingWindow) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.count
}

func (r *RollingWindow) Capacity() int {
	return r.capacity
}

// First returns the oldest retained observation.
func (r *RollingWindow) First() (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.count == 0 {
		return 0, ErrEmptyWindow
	}

	return r.window[r.oldest()], nil
}

// Last returns the most recently added observation.
func (r *RollingWindow) Last() (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.count == 0 {
		return 0, ErrEmptyWindow
	}

	return r.window[(r.head-1+r.capacity)%r.capacity], nil
}

// Values returns a copy of the retained observations, oldest first.
func (r *RollingWindow) Values() []int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	values := make([]int64, 0, r.count)
	for i, idx := 0, r.oldest(); i < r.count; i++ {
		values = append(values, r.window[idx])
		idx = (idx + 1) % r.capacity
	}

	return values
}

// Clear drops every observation. Capacity is kept: an earlier version reset it
// to zero as well, which left the window unable to hold anything afterwards.
func (r *RollingWindow) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.head = 0
	r.count = 0
}

func (r *RollingWindow) oldest() int {
	return (r.head - r.count + r.capacity) % r.capacity
}
