package session

import (
	"sync"
	"time"

	"github.com/0xProject/typing-speed/internal/events"
	"github.com/0xProject/typing-speed/internal/speed"
	"github.com/0xProject/typing-speed/internal/status"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type Config struct {
	Unit speed.Unit

	// Zero Capacity and IdleThreshold fall back to the speed package
	// defaults. Negative values are rejected.
	Capacity      int
	IdleThreshold time.Duration

	// Surface is owned by the session from New until Dispose, including when
	// New fails.
	Surface status.Surface

	// Metrics go to a private registry when Registerer is nil.
	Registerer prometheus.Registerer
}

// Reading is the last rate the session displayed.
type Reading struct {
	Value      float64    `json:"value"`
	Unit       speed.Unit `json:"-"`
	UnitLabel  string     `json:"unit"`
	Text       string     `json:"text"`
	WindowSize int        `json:"windowSize"`
	Events     uint64     `json:"events"`
}

// Session ties one estimator to one status surface for the lifetime of a
// display. Events are handled one at a time.
type Session struct {
	unit      speed.Unit
	estimator *speed.Estimator
	surface   status.Surface
	metrics   *sessionMetrics

	mu            sync.Mutex
	subscriptions []events.Subscription
	reading       Reading
	burstResets   uint64
	disposed      bool
}

func New(config Config) (*Session, error) {
	if config.Surface == nil {
		return nil, errors.New("session needs a status surface")
	}

	if config.Registerer == nil {
		config.Registerer = prometheus.NewRegistry()
	}

	var opts []speed.Option
	if config.Capacity != 0 {
		opts = append(opts, speed.WithCapacity(config.Capacity))
	}
	if config.IdleThreshold != 0 {
		opts = append(opts, speed.WithIdleThreshold(config.IdleThreshold))
	}

	estimator, err := speed.NewEstimator(opts...)
	if err != nil {
		return nil, multierr.Append(err, config.Surface.Dispose())
	}

	s := &Session{
		unit:      config.Unit,
		estimator: estimator,
		surface:   config.Surface,
		metrics:   newSessionMetrics(config.Registerer),
	}
	s.reading = Reading{
		Unit:      config.Unit,
		UnitLabel: config.Unit.String(),
		Text:      speed.Format(0, config.Unit),
	}

	s.surface.SetText(s.reading.Text)
	s.surface.Show()

	return s, nil
}

// Attach subscribes the session to source. The subscription is released on
// Dispose.
func (s *Session) Attach(source events.Source) {
	sub := source.Subscribe(s)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		_ = sub.Close()

		return
	}

	s.subscriptions = append(s.subscriptions, sub)
}

func (s *Session) OnEvent(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return
	}

	s.metrics.events.Inc()
	s.reading.Events++

	rate, err := s.estimator.RecordEventAndGetRate(now, s.unit)

	if resets := s.estimator.BurstResets(); resets != s.burstResets {
		s.metrics.burstResets.Add(float64(resets - s.burstResets))
		s.burstResets = resets
	}

	s.reading.WindowSize = s.estimator.Window().Size()

	if err != nil {
		if errors.Is(err, speed.ErrDegenerateInterval) {
			s.metrics.degenerateIntervals.Inc()
		}
		zap.L().Debug("keeping previous speed", zap.Error(err), zap.Time("event", now))

		return
	}

	s.reading.Value = rate
	s.reading.Text = speed.Format(rate, s.unit)
	s.metrics.rate.WithLabelValues(s.unit.String()).Set(rate)

	s.surface.SetText(s.reading.Text)
	s.surface.Show()
}

func (s *Session) Current() Reading {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.reading
}

// Dispose releases subscriptions and the surface. It is safe to call more
// than once.
func (s *Session) Dispose() error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()

		return nil
	}
	s.disposed = true
	subscriptions := s.subscriptions
	s.subscriptions = nil
	s.mu.Unlock()

	// Subscriptions are closed without holding mu: a source may be delivering
	// an event to OnEvent at the same time.
	var err error
	for _, sub := range subscriptions {
		err = multierr.Append(err, sub.Close())
	}

	err = multierr.Append(err, s.surface.Dispose())

	return errors.Wrap(err, "cannot dispose session")
}
