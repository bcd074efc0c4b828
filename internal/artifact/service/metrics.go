package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Registered *prometheus.CounterVec
	Decisions  *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Registered: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vetting_artifacts_registered_total",
			Help: "Uploaded artifacts registered by class",
		}, []string{"class"}),
		Decisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vetting_artifact_decisions_total",
			Help: "Artifact decisions by class, decision and outcome",
		}, []string{"class", "decision", "outcome"}),
	}
}

func (m *Metrics) registered(class string) {
	if m != nil {
		m.Registered.WithLabelValues(class).Inc()
	}
}

func (m *Metrics) decided(class, decision, outcome string) {
	if m != nil {
		m.Decisions.WithLabelValues(class, decision, outcome).Inc()
	}
}
