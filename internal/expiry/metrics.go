package expiry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks the periodic credential sweep.
type Metrics struct {
	SweepRuns    *prometheus.CounterVec
	Credentials  *prometheus.GaugeVec
	AlertsRaised prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SweepRuns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vetting_expiry_sweep_runs_total",
			Help: "Expiry sweep runs by outcome",
		}, []string{"outcome"}),
		Credentials: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "vetting_expiry_credentials",
			Help: "Credentials seen by the last sweep by status",
		}, []string{"status"}),
		AlertsRaised: f.NewCounter(prometheus.CounterOpts{
			Name: "vetting_expiry_alerts_total",
			Help: "Alerts raised for expired mandatory credentials on verified drivers",
		}),
	}
}

func (m *Metrics) observeRun(outcome string) {
	if m != nil {
		m.SweepRuns.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) observeSummary(s Summary) {
	if m != nil {
		m.Credentials.WithLabelValues(string(StatusExpired)).Set(float64(s.Expired))
		m.Credentials.WithLabelValues(string(StatusExpiringSoon)).Set(float64(s.ExpiringSoon))
	}
}

func (m *Metrics) incAlert() {
	if m != nil {
		m.AlertsRaised.Inc()
	}
}
