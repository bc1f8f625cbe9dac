package lp

import (
	"errors"
	"fmt"
	"math"
)

// Sense is the relation between a constraint expression and zero.
type Sense int

const (
	// EQ constrains the expression to be equal to zero.
	EQ Sense = iota
	// LE constrains the expression to be lower or equal to zero.
	LE
	// GE constrains the expression to be greater or equal to zero.
	GE
)

func (s Sense) String() string {
	switch s {
	case EQ:
		return "=="
	case LE:
		return "<="
	case GE:
		return ">="
	default:
		return "?"
	}
}

// Variable is a continuous decision variable with a closed bound interval.
// Bounds may be infinite.
type Variable struct {
	ID    VarID   `json:"id"`
	Name  string  `json:"name"`
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Constraint reads Expr <Sense> 0.
type Constraint struct {
	Name  string `json:"name"`
	Expr  Expr   `json:"expr"`
	Sense Sense  `json:"sense"`
}

// NewConstraint builds the constraint lhs <sense> rhs.
func NewConstraint(name string, lhs Expr, sense Sense, rhs Expr) Constraint {
	return Constraint{Name: name, Expr: lhs.Minus(rhs), Sense: sense}
}

// Problem is a linear program: minimise Objective subject to Constraints and
// the variable bounds. Variables[i].ID must equal i.
type Problem struct {
	Variables   []Variable   `json:"variables"`
	Objective   Expr         `json:"objective"`
	Constraints []Constraint `json:"constraints"`
}

// ErrMalformedProblem is returned by Validate for inconsistent problems.
var ErrMalformedProblem = errors.New("malformed problem")

// Validate checks the structural consistency of the problem.
func (p *Problem) Validate() error {
	for i, v := range p.Variables {
		if int(v.ID) != i {
			return fmt.Errorf("%w: variable %q has id %d at index %d", ErrMalformedProblem, v.Name, v.ID, i)
		}
		if math.IsNaN(v.Lower) || math.IsNaN(v.Upper) || v.Lower > v.Upper ||
			math.IsInf(v.Lower, 1) || math.IsInf(v.Upper, -1) {
			return fmt.Errorf("%w: variable %q has bounds [%g, %g]", ErrMalformedProblem, v.Name, v.Lower, v.Upper)
		}
	}
	check := func(what string, e Expr) error {
		for _, t := range e.Terms {
			if t.Var < 0 || int(t.Var) >= len(p.Variables) {
				return fmt.Errorf("%w: %s references unknown variable %d", ErrMalformedProblem, what, t.Var)
			}
			if math.IsNaN(t.Coef) || math.IsInf(t.Coef, 0) {
				return fmt.Errorf("%w: %s has non-finite coefficient", ErrMalformedProblem, what)
			}
		}
		if math.IsNaN(e.Constant) || math.IsInf(e.Constant, 0) {
			return fmt.Errorf("%w: %s has non-finite constant", ErrMalformedProblem, what)
		}
		return nil
	}
	if err := check("objective", p.Objective); err != nil {
		return err
	}
	for _, c := range p.Constraints {
		if err := check("constraint "+c.Name, c.Expr); err != nil {
			return err
		}
	}
	return nil
}

// Satisfied reports whether values meet every bound and constraint within tol.
// It returns the name of the first violated bound or constraint.
func (p *Problem) Satisfied(values []float64, tol float64) (bool, string) {
	for _, v := range p.Variables {
		x := values[v.ID]
		if x < v.Lower-tol || x > v.Upper+tol {
			return false, v.Name
		}
	}
	for _, c := range p.Constraints {
		r := c.Expr.Eval(values)
		switch c.Sense {
		case EQ:
			if math.Abs(r) > tol {
				return false, c.Name
			}
		case LE:
			if r > tol {
				return false, c.Name
			}
		case GE:
			if r < -tol {
				return false, c.Name
			}
		}
	}
	return true, ""
}
