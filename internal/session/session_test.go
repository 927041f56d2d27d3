package session

import (
	"bytes"
	"testing"
	"time"

	"github.com/0xProject/typing-speed/internal/events"
	"github.com/0xProject/typing-speed/internal/speed"
	"github.com/0xProject/typing-speed/internal/status"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newSession(t *testing.T, unit speed.Unit, surface status.Surface) *Session {
	t.Helper()

	logger, _ := zap.NewDevelopment()
	zap.ReplaceGlobals(logger)

	s, err := New(Config{
		Unit:       unit,
		Surface:    surface,
		Registerer: prometheus.NewRegistry(),
	})
	require.NoError(t, err)

	return s
}

func TestSessionRequiresSurface(t *testing.T) {
	_, err := New(Config{Registerer: prometheus.NewRegistry()})

	assert.Error(t, err)
}

func TestSessionInvalidCapacity(t *testing.T) {
	_, err := New(Config{
		Capacity:   -1,
		Surface:    status.NewSnapshot(),
		Registerer: prometheus.NewRegistry(),
	})

	assert.Error(t, err)
}

func TestSessionInvalidCapacityDisposesSurface(t *testing.T) {
	buf := &bytes.Buffer{}
	surface := status.NewWriterSurface(buf)

	_, err := New(Config{
		Capacity:   -1,
		Surface:    surface,
		Registerer: prometheus.NewRegistry(),
	})
	require.Error(t, err)

	surface.SetText("1.0 wpm")
	surface.Show()

	assert.Empty(t, buf.String())
}

func TestSessionWithoutRegisterer(t *testing.T) {
	assert.NotPanics(t, func() {
		for i := 0; i < 2; i++ {
			s, err := New(Config{Surface: status.NewSnapshot()})
			require.NoError(t, err)
			require.NoError(t, s.Dispose())
		}
	})
}

func TestSessionShowsInitialReading(t *testing.T) {
	buf := &bytes.Buffer{}
	s := newSession(t, speed.WordsPerMinute, status.NewWriterSurface(buf))

	assert.Equal(t, "$(keyboard) 0.0 wpm\n", buf.String())
	assert.Equal(t, "0.0 wpm", s.Current().Text)
	assert.Equal(t, "wpm", s.Current().UnitLabel)
}

func TestSessionUpdatesSurface(t *testing.T) {
	snapshot := status.NewSnapshot()
	s := newSession(t, speed.CharsPerMinute, snapshot)

	for i := int64(0); i < 10; i++ {
		s.OnEvent(time.UnixMilli(i * 100))
	}

	text, shown := snapshot.Text()
	assert.True(t, shown)
	assert.Equal(t, "666.7 cpm", text)

	reading := s.Current()
	assert.Equal(t, "666.7 cpm", reading.Text)
	assert.Equal(t, 10, reading.WindowSize)
	assert.Equal(t, uint64(10), reading.Events)

	assert.Equal(t, 10.0, testutil.ToFloat64(s.metrics.events))
	assert.InDelta(t, 666.67, testutil.ToFloat64(s.metrics.rate.WithLabelValues("cpm")), 0.01)
}

func TestSessionKeepsDisplayOnDegenerateInterval(t *testing.T) {
	snapshot := status.NewSnapshot()
	s := newSession(t, speed.CharsPerMinute, snapshot)

	s.OnEvent(time.UnixMilli(0))
	s.OnEvent(time.UnixMilli(1000))

	text, _ := snapshot.Text()
	assert.Equal(t, "120.0 cpm", text)

	// Clock moved back to the oldest entry: zero interval.
	s.OnEvent(time.UnixMilli(0))

	text, _ = snapshot.Text()
	assert.Equal(t, "120.0 cpm", text)
	assert.Equal(t, 120.0, s.Current().Value)
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.degenerateIntervals))
}

func TestSessionCountsBurstResets(t *testing.T) {
	s := newSession(t, speed.WordsPerMinute, status.NewSnapshot())

	s.OnEvent(time.UnixMilli(0))
	s.OnEvent(time.UnixMilli(100))
	s.OnEvent(time.UnixMilli(5000))
	s.OnEvent(time.UnixMilli(9000))

	assert.Equal(t, 2.0, testutil.ToFloat64(s.metrics.burstResets))
	assert.Equal(t, 1, s.Current().WindowSize)
	assert.Equal(t, "0.0 wpm", s.Current().Text)
}

func TestSessionAttachAndDispose(t *testing.T) {
	hub := events.NewHub()
	snapshot := status.NewSnapshot()
	s := newSession(t, speed.WordsPerMinute, snapshot)

	s.Attach(hub)
	assert.Equal(t, 1, hub.Len())

	hub.Publish(time.UnixMilli(0))
	hub.Publish(time.UnixMilli(600))

	assert.Equal(t, "40.0 wpm", s.Current().Text)

	assert.NoError(t, s.Dispose())
	assert.NoError(t, s.Dispose())
	assert.Zero(t, hub.Len())

	// Events after dispose are ignored.
	s.OnEvent(time.UnixMilli(700))
	assert.Equal(t, uint64(2), s.Current().Events)

	// Attaching a disposed session releases the subscription right away.
	s.Attach(hub)
	assert.Zero(t, hub.Len())
}
