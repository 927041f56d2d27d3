package events

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var ErrMalformedLine = errors.New("malformed keystroke log line")

// LineSource replays a keystroke log: one unix millisecond timestamp per line.
// Blank lines and lines starting with '#' are skipped.
type LineSource struct {
	reader io.Reader
	hub    *Hub
}

func NewLineSource(r io.Reader) *LineSource {
	return &LineSource{
		reader: r,
		hub:    NewHub(),
	}
}

func (s *LineSource) Subscribe(l Listener) Subscription {
	return s.hub.Subscribe(l)
}

// Run publishes every timestamp in the log and returns the number of events
// published. It stops at the first malformed line or when c is done.
func (s *LineSource) Run(c context.Context) (int, error) {
	scanner := bufio.NewScanner(s.reader)

	published := 0
	lineNumber := 0

	for scanner.Scan() {
		lineNumber++

		if err := c.Err(); err != nil {
			return published, err
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		ts, err := strconv.ParseInt(line, 10, 64)
		if err != nil {
			return published, errors.Wrapf(ErrMalformedLine, "line %d: %q", lineNumber, line)
		}

		s.hub.Publish(time.UnixMilli(ts))
		published++
	}

	if err := scanner.Err(); err != nil {
		return published, errors.Wrap(err, "cannot read keystroke log")
	}

	zap.L().Debug("keystroke log replayed", zap.Int("events", published), zap.Int("lines", lineNumber))

	return published, nil
}
