package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type sessionMetrics struct {
	events              prometheus.Counter
	burstResets         prometheus.Counter
	degenerateIntervals prometheus.Counter
	rate                *prometheus.GaugeVec
}

func newSessionMetrics(registerer prometheus.Registerer) *sessionMetrics {
	factory := promauto.With(registerer)

	return &sessionMetrics{
		events: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "typing_speed_events_total",
				Help: "The total number of keystroke events recorded",
			}),
		burstResets: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "typing_speed_burst_resets_total",
				Help: "The total number of times an idle pause reset the measurement window",
			}),
		degenerateIntervals: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "typing_speed_degenerate_intervals_total",
				Help: "Rate computations skipped because the measured interval was zero",
			}),
		rate: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "typing_speed_rate",
				Help: "Current typing speed by unit",
			}, []string{
				"unit",
			}),
	}
}
