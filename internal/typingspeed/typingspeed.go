package typingspeed

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/0xProject/typing-speed/internal/events"
	"github.com/0xProject/typing-speed/internal/metrics"
	"github.com/0xProject/typing-speed/internal/middleware"
	"github.com/0xProject/typing-speed/internal/session"
	"github.com/0xProject/typing-speed/internal/status"
	"github.com/carlmjohnson/flowmatic"
	"github.com/gorilla/mux"
	"github.com/mwitkow/go-conntrack"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/purini-to/zapmw"
	prometheusMetrics "github.com/slok/go-http-metrics/metrics/prometheus"
	httpMetrics "github.com/slok/go-http-metrics/middleware"
	"github.com/slok/go-http-metrics/middleware/std"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// TypingSpeed is the HTTP host for editor plugins: they post keystrokes to
// /events and read the current speed from /speed.
type TypingSpeed struct {
	config  Config
	hub     *events.Hub
	session *session.Session
	server  *http.Server
	metrics *metrics.Server
	clock   func() time.Time
}

func (t *TypingSpeed) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	t.server.Handler.ServeHTTP(w, req)
}

// Start runs the service and metrics servers until both have stopped. If
// either fails, or c is cancelled, the other one is closed as well.
func (t *TypingSpeed) Start(c context.Context) error {
	c, cancel := context.WithCancel(c)
	defer cancel()

	return flowmatic.Do(
		func() error {
			defer cancel()

			return errors.Wrap(t.serve(), "failed to start typing-speed")
		},
		func() error {
			defer cancel()

			return errors.Wrap(t.metrics.Start(), "failed to start metrics server")
		},
		func() error {
			<-c.Done()

			return multierr.Append(t.server.Close(), t.metrics.Stop())
		},
	)
}

func (t *TypingSpeed) serve() error {
	zap.L().Info("typing-speed server starting", zap.String("listenAddr", t.server.Addr))

	listener, err := net.Listen("tcp", t.server.Addr)
	if err != nil {
		return err
	}

	err = t.server.Serve(conntrack.NewListener(listener,
		conntrack.TrackWithName("typing_speed"),
		conntrack.TrackWithTracing(),
	))
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}

	return err
}

func (t *TypingSpeed) Stop(c context.Context) error {
	return flowmatic.Do(
		func() error {
			return errors.Wrap(t.server.Shutdown(c), "failed to stop typing-speed")
		},
		func() error {
			return errors.Wrap(t.metrics.Stop(), "failed to stop metrics server")
		},
		func() error {
			t.hub.Close()

			return t.session.Dispose()
		},
	)
}

// Current is the reading last shown by the session.
func (t *TypingSpeed) Current() session.Reading {
	return t.session.Current()
}

// NewTypingSpeed wires a session to an HTTP event source. Extra surfaces
// (a terminal status line, for example) are disposed together with the
// session on Stop.
func NewTypingSpeed(config Config, surfaces ...status.Surface) (*TypingSpeed, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	snapshot := status.NewSnapshot()

	s, err := session.New(session.Config{
		Unit:          config.Display,
		Capacity:      config.Window.Capacity,
		IdleThreshold: config.Window.IdleThreshold,
		Surface:       append(status.Multi{snapshot}, surfaces...),
		Registerer:    registry,
	})
	if err != nil {
		return nil, errors.Wrap(err, "cannot create session")
	}

	hub := events.NewHub()
	s.Attach(hub)

	t := &TypingSpeed{
		config:  config,
		hub:     hub,
		session: s,
		metrics: metrics.NewServer(config.Metrics, registry),
		clock:   time.Now,
	}

	r := mux.NewRouter()

	r.Use(std.HandlerProvider("",
		httpMetrics.New(httpMetrics.Config{
			Recorder: prometheusMetrics.NewRecorder(prometheusMetrics.Config{
				Registry: registry,
			}),
		})),
	)

	r.Use(
		zapmw.WithZap(zap.L()),
		zapmw.Request(zapcore.DebugLevel, "request"),
		zapmw.Recoverer(zapcore.ErrorLevel, "recover", zapmw.RecovererDefault),
	)

	r.Handle("/events", middleware.Gunzip(http.HandlerFunc(t.handleEvents))).Methods(http.MethodPost)
	r.HandleFunc("/speed", t.handleSpeed).Methods(http.MethodGet)
	r.HandleFunc("/healthz", healthzHandler).Methods(http.MethodGet)

	t.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", config.Server.Port),
		Handler:           r,
		WriteTimeout:      time.Second * 15,
		ReadTimeout:       time.Second * 15,
		ReadHeaderTimeout: time.Second * 5,
	}

	return t, nil
}
