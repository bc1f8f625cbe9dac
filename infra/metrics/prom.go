package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/energyplan/core/lp"
	coremetrics "github.com/kilianp07/energyplan/core/metrics"
)

// PromSink records solve outcomes in Prometheus metrics.
type PromSink struct {
	solves      *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	objective   prometheus.Gauge
	variables   prometheus.Gauge
	constraints prometheus.Gauge
}

// NewPromSink registers planner metrics on the default Prometheus registerer.
// The HTTP endpoint is started separately with StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	solves := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "plan_solves_total",
		Help: "Total number of plan optimisations by solver status",
	}, []string{"status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "plan_solve_duration_seconds",
		Help:    "Time spent in the solver",
		Buckets: prometheus.DefBuckets,
	}, []string{"status"})
	objective := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "plan_objective",
		Help: "Objective value of the last optimal plan",
	})
	variables := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "plan_variables",
		Help: "Number of decision variables of the last plan",
	})
	constraints := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "plan_constraints",
		Help: "Number of constraints of the last plan",
	})

	var err error
	if solves, err = register(reg, solves); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	if objective, err = register(reg, objective); err != nil {
		return nil, err
	}
	if variables, err = register(reg, variables); err != nil {
		return nil, err
	}
	if constraints, err = register(reg, constraints); err != nil {
		return nil, err
	}
	return &PromSink{
		solves:      solves,
		duration:    duration,
		objective:   objective,
		variables:   variables,
		constraints: constraints,
	}, nil
}

// register reuses an already registered collector of the same name.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordSolve implements coremetrics.MetricsSink.
func (s *PromSink) RecordSolve(ev coremetrics.SolveEvent) error {
	status := ev.Status.String()
	s.solves.WithLabelValues(status).Inc()
	s.duration.WithLabelValues(status).Observe(ev.Duration.Seconds())
	s.variables.Set(float64(ev.Variables))
	s.constraints.Set(float64(ev.Constraints))
	if ev.Status == lp.StatusOptimal {
		s.objective.Set(ev.Objective)
	}
	return nil
}
