package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics covers the verification state machine.
type Metrics struct {
	Transitions           *prometheus.CounterVec
	Conflicts             prometheus.Counter
	HistoryAppendFailures prometheus.Counter
	TransitionDuration    prometheus.Histogram
	Registered            prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vetting_driver_transitions_total",
			Help: "Driver status transitions by action and outcome",
		}, []string{"action", "outcome"}),
		Conflicts: f.NewCounter(prometheus.CounterOpts{
			Name: "vetting_driver_version_conflicts_total",
			Help: "Driver writes rejected because the expected version was stale",
		}),
		HistoryAppendFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "vetting_history_append_failures_total",
			Help: "History appends that failed after the status write committed",
		}),
		TransitionDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "vetting_driver_transition_duration_seconds",
			Help:    "Duration of driver transitions including the history append",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 3},
		}),
		Registered: f.NewCounter(prometheus.CounterOpts{
			Name: "vetting_drivers_registered_total",
			Help: "Driver applications created",
		}),
	}
}

func (m *Metrics) observeTransition(action, outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(action, outcome).Inc()
	m.TransitionDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) incConflict() {
	if m != nil {
		m.Conflicts.Inc()
	}
}

func (m *Metrics) incHistoryFailure() {
	if m != nil {
		m.HistoryAppendFailures.Inc()
	}
}

func (m *Metrics) incRegistered() {
	if m != nil {
		m.Registered.Inc()
	}
}
