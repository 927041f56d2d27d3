package typingspeed

import (
	"context"
	"io"

	"github.com/0xProject/typing-speed/internal/events"
	"github.com/0xProject/typing-speed/internal/session"
	"github.com/0xProject/typing-speed/internal/status"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Replay feeds a keystroke log through a fresh session, printing every status
// update to out, and returns the final reading.
func Replay(c context.Context, config Config, log io.Reader, out io.Writer) (reading session.Reading, err error) {
	if err := config.Validate(); err != nil {
		return session.Reading{}, errors.Wrap(err, "cannot replay")
	}

	s, err := session.New(session.Config{
		Unit:          config.Display,
		Capacity:      config.Window.Capacity,
		IdleThreshold: config.Window.IdleThreshold,
		Surface:       status.NewWriterSurface(out),
		Registerer:    prometheus.NewRegistry(),
	})
	if err != nil {
		return session.Reading{}, errors.Wrap(err, "cannot create session")
	}
	defer func() {
		err = multierr.Append(err, s.Dispose())
	}()

	source := events.NewLineSource(log)
	s.Attach(source)

	n, err := source.Run(c)
	if err != nil {
		return s.Current(), errors.Wrap(err, "replay failed")
	}

	zap.L().Info("replay finished", zap.Int("events", n), zap.String("speed", s.Current().Text))

	return s.Current(), nil
}
