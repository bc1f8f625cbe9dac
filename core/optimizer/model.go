package optimizer

import (
	"fmt"

	"github.com/kilianp07/energyplan/core/logger"
	"github.com/kilianp07/energyplan/core/lp"
)

// Model is the shared state a device registers into: variables, the energy
// balance, the cost objective and device-local constraints. It is owned by an
// Optimizer and is not safe for concurrent use.
type Model struct {
	hours       int
	Vars        *Registry
	Balance     *Balance
	Cost        *Cost
	constraints []lp.Constraint
	devices     []string
	log         logger.Logger
}

func newModel(hours int) *Model {
	return &Model{
		hours:   hours,
		Vars:    newRegistry(hours),
		Balance: newBalance(hours),
		Cost:    &Cost{},
		log:     logger.NopLogger{},
	}
}

// Hours returns the horizon length.
func (m *Model) Hours() int { return m.hours }

// Constrain adds the device-local constraint lhs <sense> rhs.
func (m *Model) Constrain(name string, lhs lp.Expr, sense lp.Sense, rhs lp.Expr) {
	m.constraints = append(m.constraints, lp.NewConstraint(name, lhs, sense, rhs))
}

// Log returns the logger devices should report modelling warnings to.
func (m *Model) Log() logger.Logger { return m.log }

// Devices returns the names of the devices registered so far.
func (m *Model) Devices() []string { return m.devices }

// checkSeries verifies that a parameter series spans the horizon.
func (m *Model) checkSeries(device, param string, s []float64) error {
	if len(s) != m.hours {
		return invalidf("%s: %s has length %d, want %d", device, param, len(s), m.hours)
	}
	return nil
}

// problem freezes the model into a linear program.
func (m *Model) problem() *lp.Problem {
	vars := make([]lp.Variable, m.Vars.Len())
	copy(vars, m.Vars.vars)
	cons := make([]lp.Constraint, 0, len(m.constraints)+m.hours)
	cons = append(cons, m.Balance.constraints()...)
	cons = append(cons, m.constraints...)
	return &lp.Problem{Variables: vars, Objective: m.Cost.Expr(), Constraints: cons}
}

func (m *Model) registered(name string) { m.devices = append(m.devices, name) }

func hourName(device, what string, h int) string { return fmt.Sprintf("%s.%s[%d]", device, what, h) }
