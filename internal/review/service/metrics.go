package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	QueueBuildDuration prometheus.Histogram
	QueueSize          prometheus.Gauge
	RiskCacheLookups   *prometheus.CounterVec
	AutoSubmits        prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		QueueBuildDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "vetting_review_queue_build_duration_seconds",
			Help:    "Time to assemble the review queue including risk and expiry",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		QueueSize: f.NewGauge(prometheus.GaugeOpts{
			Name: "vetting_review_queue_size",
			Help: "Number of items returned by the last queue build",
		}),
		RiskCacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vetting_risk_cache_lookups_total",
			Help: "Risk cache lookups by result",
		}, []string{"result"}),
		AutoSubmits: f.NewCounter(prometheus.CounterOpts{
			Name: "vetting_review_auto_submits_total",
			Help: "Drivers moved to pending verification once their artifact set was complete",
		}),
	}
}

func (m *Metrics) observeQueue(size int, start time.Time) {
	if m == nil {
		return
	}
	m.QueueBuildDuration.Observe(time.Since(start).Seconds())
	m.QueueSize.Set(float64(size))
}

func (m *Metrics) cacheLookup(result string) {
	if m == nil {
		return
	}
	m.RiskCacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) incAutoSubmit() {
	if m == nil {
		return
	}
	m.AutoSubmits.Inc()
}
