package reconcile

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Backlog   prometheus.Gauge
	Attempts  *prometheus.CounterVec
	QueueFull prometheus.Counter
	Drift     prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Backlog: f.NewGauge(prometheus.GaugeOpts{
			Name: "vetting_history_reconcile_backlog",
			Help: "History appends waiting for reconciliation",
		}),
		Attempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vetting_history_reconcile_attempts_total",
			Help: "Reconciliation append attempts by outcome",
		}, []string{"outcome"}),
		QueueFull: f.NewCounter(prometheus.CounterOpts{
			Name: "vetting_history_reconcile_queue_full_total",
			Help: "Failed appends that could not be queued for reconciliation",
		}),
		Drift: f.NewCounter(prometheus.CounterOpts{
			Name: "vetting_history_drift_total",
			Help: "Drivers whose status disagrees with their latest history event",
		}),
	}
}

func (m *Metrics) setBacklog(n int) {
	if m != nil {
		m.Backlog.Set(float64(n))
	}
}

func (m *Metrics) attempt(outcome string) {
	if m != nil {
		m.Attempts.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) queueFull() {
	if m != nil {
		m.QueueFull.Inc()
	}
}

func (m *Metrics) drift() {
	if m != nil {
		m.Drift.Inc()
	}
}
