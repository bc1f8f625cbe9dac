package optimizer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/energyplan/core/logger"
	"github.com/kilianp07/energyplan/core/lp"
	"github.com/kilianp07/energyplan/core/metrics"
)

// Optimizer composes devices into a single linear program over a fixed
// horizon and solves it once.
type Optimizer struct {
	model    *Model
	solver   lp.Solver
	log      logger.Logger
	recorder metrics.MetricsSink
	planID   string

	// first failed registration; the model may hold its partial declarations
	regErr   error
	solved   bool
	solution lp.Solution
	problem  *lp.Problem
}

// Option configures an Optimizer.
type Option func(*Optimizer)

// WithLogger sets the logger used by the optimizer and its devices.
func WithLogger(l logger.Logger) Option {
	return func(o *Optimizer) {
		if l != nil {
			o.log = l
		}
	}
}

// WithRecorder reports every solve to the given sink.
func WithRecorder(s metrics.MetricsSink) Option {
	return func(o *Optimizer) {
		if s != nil {
			o.recorder = s
		}
	}
}

// WithPlanID overrides the generated plan identifier.
func WithPlanID(id string) Option {
	return func(o *Optimizer) {
		if id != "" {
			o.planID = id
		}
	}
}

// New returns an empty optimizer over hours hourly steps.
func New(hours int, solver lp.Solver, opts ...Option) (*Optimizer, error) {
	if hours <= 0 {
		return nil, invalidf("horizon must be positive, got %d", hours)
	}
	if solver == nil {
		return nil, invalidf("nil solver")
	}
	o := &Optimizer{
		model:    newModel(hours),
		solver:   solver,
		log:      logger.NopLogger{},
		recorder: metrics.NopSink{},
		planID:   uuid.NewString(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.model.log = o.log
	return o, nil
}

// Hours returns the horizon length.
func (o *Optimizer) Hours() int { return o.model.hours }

// PlanID returns the identifier attached to this plan.
func (o *Optimizer) PlanID() string { return o.planID }

// Model exposes the underlying model, mainly for custom devices and tests.
func (o *Optimizer) Model() *Model { return o.model }

// Add registers any device.
func (o *Optimizer) Add(d Device) error {
	if err := o.frozen(); err != nil {
		return err
	}
	return o.track(d.Register(o.model))
}

// track remembers the first registration failure so Solve never runs on a
// partially registered model.
func (o *Optimizer) track(err error) error {
	if err != nil && o.regErr == nil {
		o.regErr = err
	}
	return err
}

func (o *Optimizer) frozen() error {
	if o.solved {
		return fmt.Errorf("%w: model is frozen after Solve", ErrInvalidState)
	}
	return nil
}

// AddMains registers a grid connection.
func (o *Optimizer) AddMains(p Mains) (MainsVars, error) {
	if err := o.frozen(); err != nil {
		return MainsVars{}, err
	}
	vars, err := AddMains(o.model, p)
	return vars, o.track(err)
}

// AddBattery registers a battery.
func (o *Optimizer) AddBattery(p Battery) (BatteryVars, error) {
	if err := o.frozen(); err != nil {
		return BatteryVars{}, err
	}
	vars, err := AddBattery(o.model, p)
	return vars, o.track(err)
}

// AddFixedLoad registers a fixed consumption profile.
func (o *Optimizer) AddFixedLoad(p FixedLoad) ([]lp.VarID, error) {
	if err := o.frozen(); err != nil {
		return nil, err
	}
	vars, err := AddFixedLoad(o.model, p)
	return vars, o.track(err)
}

// AddFlexibleLoad registers a deferrable load.
func (o *Optimizer) AddFlexibleLoad(p FlexibleLoad) ([]lp.VarID, error) {
	if err := o.frozen(); err != nil {
		return nil, err
	}
	vars, err := AddFlexibleLoad(o.model, p)
	return vars, o.track(err)
}

// AddHeatingLoad registers a thermal load.
func (o *Optimizer) AddHeatingLoad(p HeatingLoad) (HeatingVars, error) {
	if err := o.frozen(); err != nil {
		return HeatingVars{}, err
	}
	vars, err := AddHeatingLoad(o.model, p)
	return vars, o.track(err)
}

// AddSolar registers a production source.
func (o *Optimizer) AddSolar(p Solar) ([]lp.VarID, error) {
	if err := o.frozen(); err != nil {
		return nil, err
	}
	vars, err := AddSolar(o.model, p)
	return vars, o.track(err)
}

// Solve assembles the problem, hands it to the solver and stores the
// outcome. It can only be called once, and never after a failed
// registration. The returned status is always the
// solver's raw status; the error wraps ErrInfeasibleOrUnbounded or ErrSolver
// when the status is not optimal.
func (o *Optimizer) Solve(ctx context.Context) (lp.Status, error) {
	if o.solved {
		return o.solution.Status, fmt.Errorf("%w: already solved", ErrInvalidState)
	}
	if o.regErr != nil {
		return lp.StatusNotSolved, fmt.Errorf("%w: registration failed: %w", ErrInvalidState, o.regErr)
	}
	o.solved = true
	o.problem = o.model.problem()

	start := time.Now()
	sol, err := o.solver.Solve(ctx, o.problem)
	elapsed := time.Since(start)
	if err != nil && sol.Status != lp.StatusSolverError {
		sol.Status = lp.StatusSolverError
	}
	if sol.Status == lp.StatusOptimal && len(sol.Values) != len(o.problem.Variables) {
		err = fmt.Errorf("solver returned %d values for %d variables", len(sol.Values), len(o.problem.Variables))
		sol = lp.Solution{Status: lp.StatusSolverError}
	}
	o.solution = sol

	ev := metrics.SolveEvent{
		PlanID:      o.planID,
		Hours:       o.model.hours,
		Devices:     len(o.model.devices),
		Variables:   len(o.problem.Variables),
		Constraints: len(o.problem.Constraints),
		Status:      sol.Status,
		Objective:   sol.Objective,
		Duration:    elapsed,
		Time:        start,
	}
	if rerr := o.recorder.RecordSolve(ev); rerr != nil {
		o.log.Warnf("record solve %s: %v", o.planID, rerr)
	}

	switch sol.Status {
	case lp.StatusOptimal:
		o.log.Infof("plan %s solved: objective=%.4f variables=%d constraints=%d in %s",
			o.planID, sol.Objective, ev.Variables, ev.Constraints, elapsed)
		return sol.Status, nil
	case lp.StatusInfeasible, lp.StatusUnbounded:
		o.log.Warnf("plan %s: %s", o.planID, sol.Status)
		return sol.Status, fmt.Errorf("%w: %s", ErrInfeasibleOrUnbounded, sol.Status)
	default:
		o.log.Errorf("plan %s: solver failed: %v", o.planID, err)
		if err == nil {
			return sol.Status, fmt.Errorf("%w: status %s", ErrSolver, sol.Status)
		}
		return sol.Status, fmt.Errorf("%w: %w", ErrSolver, err)
	}
}

// Status returns the raw solver status, StatusNotSolved before Solve.
func (o *Optimizer) Status() lp.Status {
	if !o.solved {
		return lp.StatusNotSolved
	}
	return o.solution.Status
}

// Objective returns the optimal cost. It is zero unless the status is
// optimal.
func (o *Optimizer) Objective() float64 { return o.solution.Objective }

// Problem returns the assembled linear program, nil before Solve.
func (o *Optimizer) Problem() *lp.Problem { return o.problem }

// Value returns the solved value of a single variable.
func (o *Optimizer) Value(id lp.VarID) (float64, error) {
	if err := o.ready(); err != nil {
		return 0, err
	}
	if id < 0 || int(id) >= len(o.solution.Values) {
		return 0, invalidf("unknown variable %d", id)
	}
	return o.solution.Values[id], nil
}

// Values returns the solved values of the given variables, in order.
func (o *Optimizer) Values(ids []lp.VarID) ([]float64, error) {
	out := make([]float64, len(ids))
	for i, id := range ids {
		v, err := o.Value(id)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (o *Optimizer) ready() error {
	if !o.solved {
		return fmt.Errorf("%w: not solved yet", ErrInvalidState)
	}
	if o.solution.Status != lp.StatusOptimal {
		return fmt.Errorf("%w: %s", ErrInfeasibleOrUnbounded, o.solution.Status)
	}
	return nil
}
