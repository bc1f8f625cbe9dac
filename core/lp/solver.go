package lp

import "context"

// Status is the outcome of a solve.
type Status int

const (
	StatusNotSolved Status = iota
	StatusOptimal
	StatusInfeasible
	StatusUnbounded
	StatusSolverError
)

func (s Status) String() string {
	switch s {
	case StatusNotSolved:
		return "NotSolved"
	case StatusOptimal:
		return "Optimal"
	case StatusInfeasible:
		return "Infeasible"
	case StatusUnbounded:
		return "Unbounded"
	case StatusSolverError:
		return "SolverError"
	default:
		return "Unknown"
	}
}

// Solution is returned by a Solver. Values and Objective are only meaningful
// when Status is StatusOptimal; Values is indexed by VarID.
type Solution struct {
	Status    Status
	Values    []float64
	Objective float64
}

// Solver minimises a Problem. Infeasible and unbounded problems are reported
// through Solution.Status with a nil error; a non-nil error always comes with
// StatusSolverError.
type Solver interface {
	Solve(ctx context.Context, p *Problem) (Solution, error)
}

// SolverFunc adapts a function to the Solver interface.
type SolverFunc func(ctx context.Context, p *Problem) (Solution, error)

// Solve calls f(ctx, p).
func (f SolverFunc) Solve(ctx context.Context, p *Problem) (Solution, error) { return f(ctx, p) }
