package app

import (
	"github.com/prometheus/client_golang/prometheus"
)

// metrics collects editor statistics. A nil *metrics records nothing.
type metrics struct {
	open    prometheus.Gauge
	history *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		open: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "richtext_documents_open",
			Help: "Documents currently open.",
		}),
		history: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "richtext_history_total",
				Help: "Undo and redo requests, by outcome.",
			},
			[]string{"op", "result"},
		),
	}
	for _, c := range []prometheus.Collector{m.open, m.history} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *metrics) opened() {
	if m != nil {
		m.open.Inc()
	}
}

func (m *metrics) closed() {
	if m != nil {
		m.open.Dec()
	}
}

func (m *metrics) recordHistory(op string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "empty"
	}
	m.history.WithLabelValues(op, result).Inc()
}
