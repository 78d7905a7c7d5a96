package plugin

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects pipeline statistics. A nil *Metrics records nothing.
type Metrics struct {
	dispatch *prometheus.CounterVec
	failures *prometheus.CounterVec
	duration *prometheus.HistogramVec
	diverged prometheus.Counter
}

// NewMetrics creates the pipeline collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		dispatch: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "richtext_plugin_dispatch_total",
				Help: "Events offered to a plugin, by outcome.",
			},
			[]string{"plugin", "event", "result"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "richtext_plugin_failures_total",
				Help: "Plugin errors, panics and rejected transactions.",
			},
			[]string{"plugin", "event"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "richtext_dispatch_duration_seconds",
				Help:    "Time to dispatch one event through the pipeline.",
				Buckets: prometheus.ExponentialBuckets(0.00005, 4, 8),
			},
			[]string{"event"},
		),
		diverged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "richtext_normalize_diverged_total",
			Help: "Normalize passes whose verification pass changed the tree.",
		}),
	}
	if reg != nil {
		for _, c := range []prometheus.Collector{m.dispatch, m.failures, m.duration, m.diverged} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func (m *Metrics) recordDispatch(plugin, event string, r Result) {
	if m == nil {
		return
	}
	m.dispatch.WithLabelValues(plugin, event, r.String()).Inc()
}

func (m *Metrics) recordFailure(plugin, event string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(plugin, event).Inc()
}

func (m *Metrics) observe(event string, d time.Duration) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(event).Observe(d.Seconds())
}

func (m *Metrics) recordDiverged() {
	if m == nil {
		return
	}
	m.diverged.Inc()
}
