package ratelimit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is nil-safe.
type Metrics struct {
	// Checks by class and outcome: allowed, limited, error
	Checks *prometheus.CounterVec

	// 1 while answers come from the in-memory fallback
	Degraded prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Checks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "warranty_ratelimit_checks_total",
			Help: "Rate limit checks by endpoint class and outcome",
		}, []string{"class", "outcome"}),
		Degraded: f.NewGauge(prometheus.GaugeOpts{
			Name: "warranty_ratelimit_degraded",
			Help: "Set to 1 while the rate limiter runs on its in-memory fallback",
		}),
	}
}

func (m *Metrics) IncCheck(class Class, outcome string) {
	if m == nil {
		return
	}
	m.Checks.WithLabelValues(string(class), outcome).Inc()
}

func (m *Metrics) SetDegraded(degraded bool) {
	if m == nil {
		return
	}
	if degraded {
		m.Degraded.Set(1)
		return
	}
	m.Degraded.Set(0)
}
