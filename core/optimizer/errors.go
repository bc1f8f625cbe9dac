package optimizer

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfiguration reports malformed inputs: non-positive horizon,
	// mismatched series lengths, out of range parameters.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrInvalidBounds reports a variable whose lower bound exceeds its upper
	// bound at some hour. It is also an ErrInvalidConfiguration.
	ErrInvalidBounds = fmt.Errorf("%w: invalid bounds", ErrInvalidConfiguration)
	// ErrDuplicateDeclaration reports a (device, role) pair declared twice.
	ErrDuplicateDeclaration = errors.New("duplicate declaration")
	// ErrInvalidState reports calls made out of order: registering after
	// Solve, solving twice, reading results before solving.
	ErrInvalidState = errors.New("invalid state")
	// ErrInfeasibleOrUnbounded reports a model without an optimal solution.
	ErrInfeasibleOrUnbounded = errors.New("infeasible or unbounded")
	// ErrSolver reports a failure inside the solver adapter.
	ErrSolver = errors.New("solver error")
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfiguration, fmt.Sprintf(format, args...))
}
