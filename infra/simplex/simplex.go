package simplex

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	corelp "github.com/kilianp07/energyplan/core/lp"
	"github.com/kilianp07/energyplan/core/logger"
)

// Config tunes the simplex adapter.
type Config struct {
	// Tolerance is the reduced-cost threshold passed to the simplex.
	Tolerance float64 `json:"tolerance"`
	// FeasibilityTolerance bounds residuals accepted on the returned point
	// and on row dependency checks.
	FeasibilityTolerance float64 `json:"feasibility_tolerance"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Tolerance <= 0 {
		c.Tolerance = 1e-9
	}
	if c.FeasibilityTolerance <= 0 {
		c.FeasibilityTolerance = 1e-7
	}
}

// Validate checks the tolerances.
func (c Config) Validate() error {
	if c.Tolerance <= 0 || c.Tolerance >= 1 {
		return fmt.Errorf("tolerance must be in (0, 1), got %g", c.Tolerance)
	}
	if c.FeasibilityTolerance <= 0 || c.FeasibilityTolerance >= 1 {
		return fmt.Errorf("feasibility_tolerance must be in (0, 1), got %g", c.FeasibilityTolerance)
	}
	return nil
}

// Solver solves corelp.Problems with gonum's dense simplex.
type Solver struct {
	cfg Config
	log logger.Logger
}

// simplexSolve points to the function used to run the simplex. It can be
// overridden in tests to simulate solver failures.
var simplexSolve = lp.Simplex

// ErrNumeric is returned when the simplex stops without a usable answer.
var ErrNumeric = errors.New("simplex: numeric failure")

// New returns a Solver. A nil logger disables logging.
func New(cfg Config, log logger.Logger) *Solver {
	cfg.SetDefaults()
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Solver{cfg: cfg, log: log}
}

// Solve implements corelp.Solver.
func (s *Solver) Solve(ctx context.Context, p *corelp.Problem) (sol corelp.Solution, err error) {
	defer func() {
		if r := recover(); r != nil {
			sol = corelp.Solution{Status: corelp.StatusSolverError}
			err = fmt.Errorf("%w: panic: %v", ErrNumeric, r)
		}
	}()
	if err := ctx.Err(); err != nil {
		return corelp.Solution{Status: corelp.StatusSolverError}, err
	}
	if err := p.Validate(); err != nil {
		return corelp.Solution{Status: corelp.StatusSolverError}, err
	}

	start := time.Now()
	std := toStandard(p, s.cfg.FeasibilityTolerance)
	if std.infeasible != "" {
		s.log.Debugf("constant constraint %s violated", std.infeasible)
		return corelp.Solution{Status: corelp.StatusInfeasible}, nil
	}
	red, unbounded, infeasible := std.presolve(s.cfg.FeasibilityTolerance)
	switch {
	case unbounded:
		return corelp.Solution{Status: corelp.StatusUnbounded}, nil
	case infeasible:
		return corelp.Solution{Status: corelp.StatusInfeasible}, nil
	}
	s.log.Debugw("simplex start", map[string]any{
		"variables":   len(p.Variables),
		"constraints": len(p.Constraints),
		"rows":        len(red.b),
		"columns":     len(red.c),
	})

	y := make([]float64, std.nCols)
	if len(red.b) > 0 {
		x, status, err := s.run(ctx, red)
		if status != corelp.StatusOptimal {
			return corelp.Solution{Status: status}, err
		}
		for j, col := range red.cols {
			y[col] = x[j]
		}
	}

	values := std.values(y)
	for i, v := range p.Variables {
		values[i] = math.Min(math.Max(values[i], v.Lower), v.Upper)
	}
	// checked on the returned point so rows hold to FeasibilityTolerance
	if ok, name := p.Satisfied(values, s.cfg.FeasibilityTolerance); !ok {
		return corelp.Solution{Status: corelp.StatusSolverError},
			fmt.Errorf("%w: solution violates %s", ErrNumeric, name)
	}
	obj := p.Objective.Eval(values)
	s.log.Debugw("simplex done", map[string]any{
		"objective": obj,
		"elapsed":   time.Since(start).String(),
	})
	return corelp.Solution{Status: corelp.StatusOptimal, Values: values, Objective: obj}, nil
}

func (s *Solver) run(ctx context.Context, red reduced) ([]float64, corelp.Status, error) {
	a := denseOf(red.a, len(red.c))
	_, x, err := simplexSolve(red.c, a, red.b, s.cfg.Tolerance, nil)
	switch {
	case err == nil:
		return x, corelp.StatusOptimal, nil
	case errors.Is(err, lp.ErrInfeasible):
		return nil, corelp.StatusInfeasible, nil
	case errors.Is(err, lp.ErrUnbounded):
		return nil, corelp.StatusUnbounded, nil
	}
	s.log.Warnf("simplex failed (%v), probing feasibility", err)
	if cerr := ctx.Err(); cerr != nil {
		return nil, corelp.StatusSolverError, cerr
	}
	feasible, perr := s.probe(red)
	if perr != nil {
		return nil, corelp.StatusSolverError, fmt.Errorf("%w: %v (probe: %v)", ErrNumeric, err, perr)
	}
	if !feasible {
		return nil, corelp.StatusInfeasible, nil
	}
	return nil, corelp.StatusSolverError, fmt.Errorf("%w: %v", ErrNumeric, err)
}

// probe solves the phase one problem min Σ art s.t. A·y ± art = b starting
// from the all-artificial basis. The problem is feasible iff the optimum is
// zero.
func (s *Solver) probe(red reduced) (bool, error) {
	m, n := len(red.b), len(red.c)
	a := mat.NewDense(m, n+m, nil)
	b := make([]float64, m)
	for i := range red.a {
		sign := 1.0
		if red.b[i] < 0 {
			sign = -1
		}
		for j, v := range red.a[i] {
			a.Set(i, j, sign*v)
		}
		a.Set(i, n+i, 1)
		b[i] = sign * red.b[i]
	}
	c := make([]float64, n+m)
	basic := make([]int, m)
	for i := 0; i < m; i++ {
		c[n+i] = 1
		basic[i] = n + i
	}
	opt, _, err := simplexSolve(c, a, b, s.cfg.Tolerance, basic)
	if err != nil {
		return false, err
	}
	scale := math.Max(1, floats.Norm(b, math.Inf(1)))
	return opt <= s.cfg.FeasibilityTolerance*scale, nil
}

func denseOf(rows [][]float64, n int) *mat.Dense {
	a := mat.NewDense(len(rows), n, nil)
	for i, r := range rows {
		a.SetRow(i, r)
	}
	return a
}
