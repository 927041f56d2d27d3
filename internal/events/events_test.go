package events

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	seen []int64
}

func (r *recorder) OnEvent(now time.Time) {
	r.seen = append(r.seen, now.UnixMilli())
}

func TestHubFanOut(t *testing.T) {
	hub := NewHub()

	a := &recorder{}
	b := &recorder{}

	hub.Subscribe(a)
	sub := hub.Subscribe(b)
	assert.Equal(t, 2, hub.Len())

	hub.Publish(time.UnixMilli(10))

	assert.NoError(t, sub.Close())
	assert.NoError(t, sub.Close())
	assert.Equal(t, 1, hub.Len())

	hub.Publish(time.UnixMilli(20))

	assert.Equal(t, []int64{10, 20}, a.seen)
	assert.Equal(t, []int64{10}, b.seen)
}

func TestHubListenerFunc(t *testing.T) {
	hub := NewHub()

	var calls int
	hub.Subscribe(ListenerFunc(func(time.Time) { calls++ }))

	hub.Publish(time.Now())
	hub.Publish(time.Now())

	assert.Equal(t, 2, calls)
}

func TestHubListenerClosesOwnSubscription(t *testing.T) {
	hub := NewHub()

	var (
		sub  Subscription
		seen []int64
	)
	sub = hub.Subscribe(ListenerFunc(func(now time.Time) {
		seen = append(seen, now.UnixMilli())
		assert.NoError(t, sub.Close())
	}))

	done := make(chan struct{})
	go func() {
		defer close(done)

		hub.Publish(time.UnixMilli(1))
		hub.Publish(time.UnixMilli(2))
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("publish did not return")
	}

	assert.Equal(t, []int64{1}, seen)
	assert.Zero(t, hub.Len())
}

func TestHubClose(t *testing.T) {
	hub := NewHub()
	r := &recorder{}

	sub := hub.Subscribe(r)
	hub.Close()

	hub.Publish(time.UnixMilli(1))
	hub.Subscribe(r)
	hub.Publish(time.UnixMilli(2))

	assert.Empty(t, r.seen)
	assert.Zero(t, hub.Len())
	assert.NoError(t, sub.Close())
}

func TestLineSource(t *testing.T) {
	log := `
# keystrokes
0
100

200
`
	source := NewLineSource(strings.NewReader(log))
	r := &recorder{}
	source.Subscribe(r)

	n, err := source.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []int64{0, 100, 200}, r.seen)
}

func TestLineSourceMalformed(t *testing.T) {
	source := NewLineSource(strings.NewReader("0\n100\nabc\n300\n"))
	r := &recorder{}
	source.Subscribe(r)

	n, err := source.Run(context.Background())

	assert.ErrorIs(t, err, ErrMalformedLine)
	assert.Contains(t, err.Error(), "line 3")
	assert.Equal(t, 2, n)
	assert.Equal(t, []int64{0, 100}, r.seen)
}

func TestLineSourceCanceled(t *testing.T) {
	c, cancel := context.WithCancel(context.Background())
	cancel()

	source := NewLineSource(strings.NewReader("0\n100\n"))

	n, err := source.Run(c)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, n)
}
