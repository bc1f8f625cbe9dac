package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/energyplan/config"
	"github.com/kilianp07/energyplan/core/lp"
	coremetrics "github.com/kilianp07/energyplan/core/metrics"
	coremqtt "github.com/kilianp07/energyplan/core/mqtt"
	"github.com/kilianp07/energyplan/core/optimizer"
	"github.com/kilianp07/energyplan/core/planlog"
	"github.com/kilianp07/energyplan/infra/logger"
	"github.com/kilianp07/energyplan/infra/metrics"
	"github.com/kilianp07/energyplan/infra/mqtt"
	"github.com/kilianp07/energyplan/infra/simplex"
	"github.com/kilianp07/energyplan/pkg/export"
)

// Service turns a scenario configuration into a plan and distributes it to
// the configured sinks, plan history and MQTT broker.
type Service struct {
	cfg       *config.Config
	solver    lp.Solver
	sink      coremetrics.MetricsSink
	store     planlog.Store
	publisher coremqtt.Publisher
	log       logger.Logger
}

// Option overrides a dependency built from the configuration.
type Option func(*Service)

func WithSolver(s lp.Solver) Option             { return func(svc *Service) { svc.solver = s } }
func WithSink(s coremetrics.MetricsSink) Option { return func(svc *Service) { svc.sink = s } }
func WithStore(s planlog.Store) Option          { return func(svc *Service) { svc.store = s } }
func WithPublisher(p coremqtt.Publisher) Option { return func(svc *Service) { svc.publisher = p } }
func WithLogger(l logger.Logger) Option         { return func(svc *Service) { svc.log = l } }

// New creates a Service from the configuration.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	svc := &Service{cfg: cfg, log: logger.New("service")}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.solver == nil {
		svc.solver = simplex.New(cfg.Solver, logger.New("simplex"))
	}
	if svc.sink == nil {
		sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
		if err != nil {
			return nil, fmt.Errorf("metrics sink: %w", err)
		}
		svc.sink = sink
	}
	if svc.store == nil {
		store, err := planlog.New(cfg.PlanLog)
		if err != nil {
			return nil, fmt.Errorf("plan log: %w", err)
		}
		svc.store = store
	}
	if svc.publisher == nil && cfg.MQTT.Enabled() {
		pub, err := mqtt.NewSchedulePublisher(cfg.MQTT)
		if err != nil {
			_ = svc.store.Close()
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
		svc.publisher = pub
	}
	return svc, nil
}

// Summary describes a registered but unsolved model.
type Summary struct {
	Scenario  string
	Hours     int
	Devices   []string
	Variables int
}

func (s *Service) build() (*optimizer.Optimizer, error) {
	sc := s.cfg.Scenario
	o, err := optimizer.New(sc.Hours, s.solver,
		optimizer.WithLogger(logger.New("optimizer")),
		optimizer.WithRecorder(s.sink))
	if err != nil {
		return nil, err
	}
	for i, dc := range sc.Devices {
		d, err := optimizer.NewDevice(dc)
		if err != nil {
			return nil, fmt.Errorf("device %d (%s): %w", i, dc.Type, err)
		}
		if err := o.Add(d); err != nil {
			return nil, fmt.Errorf("device %d (%s): %w", i, dc.Type, err)
		}
	}
	return o, nil
}

// Validate registers every device without solving.
func (s *Service) Validate() (Summary, error) {
	o, err := s.build()
	if err != nil {
		return Summary{}, err
	}
	m := o.Model()
	return Summary{
		Scenario:  s.cfg.Scenario.Name,
		Hours:     m.Hours(),
		Devices:   m.Devices(),
		Variables: m.Vars.Len(),
	}, nil
}

// Plan builds, solves and distributes the scenario. The returned plan carries
// the raw solver status even when err is non-nil.
func (s *Service) Plan(ctx context.Context) (export.Plan, error) {
	start, err := s.cfg.Scenario.StartTime()
	if err != nil {
		return export.Plan{}, err
	}
	o, err := s.build()
	if err != nil {
		return export.Plan{}, err
	}
	status, solveErr := o.Solve(ctx)
	plan := export.Plan{
		PlanID:    o.PlanID(),
		Status:    status.String(),
		Objective: o.Objective(),
		Start:     start,
		Step:      s.cfg.Scenario.Step(),
		Hours:     o.Hours(),
	}
	if solveErr == nil {
		if plan.Series, err = o.TimeSeries(); err != nil {
			return plan, err
		}
	}

	rec := planlog.PlanRecord{
		PlanID:    plan.PlanID,
		Timestamp: time.Now(),
		Scenario:  s.cfg.Scenario.Name,
		Hours:     plan.Hours,
		Status:    plan.Status,
		Objective: plan.Objective,
		Devices:   o.Model().Devices(),
		Series:    plan.Series,
	}
	if err := s.store.Append(ctx, rec); err != nil {
		s.log.Errorf("plan log append: %v", err)
	}
	if solveErr != nil {
		return plan, solveErr
	}

	ev := coremetrics.ScheduleEvent{PlanID: plan.PlanID, Start: start, Step: plan.Step, Series: plan.Series}
	if rec, ok := s.sink.(coremetrics.ScheduleRecorder); ok {
		if err := rec.RecordSchedule(ev); err != nil {
			s.log.Warnf("record schedule: %v", err)
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishSchedule(ctx, ev); err != nil {
			return plan, fmt.Errorf("publish schedule: %w", err)
		}
	}
	return plan, nil
}

// History queries the plan log.
func (s *Service) History(ctx context.Context, q planlog.Query) ([]planlog.PlanRecord, error) {
	return s.store.Query(ctx, q)
}

// ServeMetrics exposes Prometheus metrics until ctx is cancelled. It is a
// no-op when no listen address is configured.
func (s *Service) ServeMetrics(ctx context.Context) error {
	if s.cfg.Metrics.ListenAddr == "" {
		return nil
	}
	s.log.Infof("serving metrics on %s", s.cfg.Metrics.ListenAddr)
	return metrics.StartPromServer(ctx, s.cfg.Metrics.ListenAddr)
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	if s.publisher != nil {
		s.publisher.Close()
	}
	var errs []error
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	if err := s.store.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
