package optimizer

import (
	"fmt"

	"github.com/kilianp07/energyplan/core/lp"
)

// Balance is the per-hour energy ledger. Supply enters with a positive sign,
// consumption with a negative one; every hour must sum to zero.
type Balance struct {
	hours []lp.Expr
}

func newBalance(hours int) *Balance {
	return &Balance{hours: make([]lp.Expr, hours)}
}

// Supply adds +coef·v to hour h.
func (b *Balance) Supply(h int, v lp.VarID, coef float64) { b.hours[h].AddTerm(v, coef) }

// Consume adds -coef·v to hour h.
func (b *Balance) Consume(h int, v lp.VarID, coef float64) { b.hours[h].AddTerm(v, -coef) }

// Hour returns a copy of the accumulated expression of hour h.
func (b *Balance) Hour(h int) lp.Expr { return b.hours[h].Clone() }

// constraints turns the ledger into one equality per hour.
func (b *Balance) constraints() []lp.Constraint {
	out := make([]lp.Constraint, len(b.hours))
	for h, e := range b.hours {
		out[h] = lp.Constraint{Name: fmt.Sprintf("balance[%d]", h), Expr: e.Clone(), Sense: lp.EQ}
	}
	return out
}
