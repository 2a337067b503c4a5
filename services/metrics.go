package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Upstream outcome labels.
const (
	outcomeOK       = "ok"
	outcomeDegraded = "degraded"
	outcomeFallback = "fallback"
)

// Metrics collects pipeline counters. A nil *Metrics records nothing.
type Metrics struct {
	upstream     *prometheus.CounterVec
	plans        *prometheus.CounterVec
	planDuration prometheus.Histogram
}

// NewMetrics registers the pipeline collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		upstream: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "travelplanner",
			Name:      "upstream_requests_total",
			Help:      "Upstream lookups by source and outcome.",
		}, []string{"source", "outcome"}),
		plans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "travelplanner",
			Name:      "plan_requests_total",
			Help:      "Plan generation requests by result.",
		}, []string{"result"}),
		planDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "travelplanner",
			Name:      "plan_duration_seconds",
			Help:      "Wall time of successful plan generation.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 90},
		}),
	}
	reg.MustRegister(m.upstream, m.plans, m.planDuration)
	return m
}

func (m *Metrics) upstreamOutcome(source, outcome string) {
	if m == nil {
		return
	}
	m.upstream.WithLabelValues(source, outcome).Inc()
}

func (m *Metrics) planResult(result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.plans.WithLabelValues(result).Inc()
	if result == "success" {
		m.planDuration.Observe(elapsed.Seconds())
	}
}
