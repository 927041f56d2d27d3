package status

import (
	"fmt"
	"io"
	"sync"

	"go.uber.org/multierr"
)

const Icon = "$(keyboard)"

// Surface is where the current speed is displayed. It is acquired once per
// session and released with Dispose.
type Surface interface {
	SetText(text string)
	Show()
	Dispose() error
}

// WriterSurface prints the status line to w every time it is shown.
type WriterSurface struct {
	w io.Writer

	mu       sync.Mutex
	text     string
	disposed bool
}

func NewWriterSurface(w io.Writer) *WriterSurface {
	return &WriterSurface{w: w}
}

func (s *WriterSurface) SetText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.text = text
}

func (s *WriterSurface) Show() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return
	}

	fmt.Fprintf(s.w, "%s %s\n", Icon, s.text)
}

func (s *WriterSurface) Dispose() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.disposed = true

	return nil
}

// Snapshot keeps the last shown text in memory for readers such as the HTTP
// /speed endpoint.
type Snapshot struct {
	mu       sync.RWMutex
	pending  string
	text     string
	shown    bool
	disposed bool
}

func NewSnapshot() *Snapshot {
	return &Snapshot{}
}

func (s *Snapshot) SetText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = text
}

func (s *Snapshot) Show() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return
	}

	s.text = s.pending
	s.shown = true
}

// Text returns the last shown text and whether anything has been shown yet.
func (s *Snapshot) Text() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.text, s.shown
}

func (s *Snapshot) Dispose() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.disposed = true

	return nil
}

// Multi shows the same text on several surfaces.
type Multi []Surface

func (m Multi) SetText(text string) {
	for _, s := range m {
		s.SetText(text)
	}
}

func (m Multi) Show() {
	for _, s := range m {
		s.Show()
	}
}

func (m Multi) Dispose() error {
	var err error
	for _, s := range m {
		err = multierr.Append(err, s.Dispose())
	}

	return err
}
