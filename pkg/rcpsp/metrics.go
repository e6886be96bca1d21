package rcpsp

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Metric label names.
const (
	// PropagatorLabel holds the Name of the propagator.
	PropagatorLabel = "propagator"
	// OpLabel holds the decision operator, ">=" or "<".
	OpLabel = "op"
)

// Metrics holds the Prometheus collectors updated by the propagators and the
// search heuristic. A nil *Metrics is valid and records nothing.
type Metrics struct {
	propagations   *prometheus.CounterVec
	contradictions *prometheus.CounterVec
	boundUpdates   *prometheus.CounterVec
	decisions      *prometheus.CounterVec
	placed         prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on reg. A nil reg
// skips registration, which is convenient in tests.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		propagations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rcpsp_propagations_total",
				Help: "Number of propagation calls per propagator",
			},
			[]string{PropagatorLabel},
		),
		contradictions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rcpsp_contradictions_total",
				Help: "Number of propagation calls that ended in a contradiction",
			},
			[]string{PropagatorLabel},
		),
		boundUpdates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rcpsp_bound_updates_total",
				Help: "Number of bound tightenings performed",
			},
			[]string{PropagatorLabel},
		),
		decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rcpsp_decisions_total",
				Help: "Number of branching decisions proposed by the search heuristic",
			},
			[]string{OpLabel},
		),
		placed: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "rcpsp_placed_activities",
				Help: "Number of activities placed by the left-shift scheduler at the last propagation",
			},
		),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.propagations, m.contradictions, m.boundUpdates, m.decisions, m.placed} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "registering rcpsp metrics")
		}
	}
	return m, nil
}

func (m *Metrics) observePropagation(propagator string, err error) {
	if m == nil {
		return
	}
	m.propagations.WithLabelValues(propagator).Inc()
	if err != nil {
		m.contradictions.WithLabelValues(propagator).Inc()
	}
}

func (m *Metrics) addBoundUpdates(propagator string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.boundUpdates.WithLabelValues(propagator).Add(float64(n))
}

func (m *Metrics) observeDecision(op string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(op).Inc()
}

func (m *Metrics) setPlaced(n int) {
	if m == nil {
		return
	}
	m.placed.Set(float64(n))
}
