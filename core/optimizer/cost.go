package optimizer

import "github.com/kilianp07/energyplan/core/lp"

// Cost accumulates the objective. Positive terms are costs, negative terms
// are credits.
type Cost struct {
	expr lp.Expr
}

// Add adds coef·v.
func (c *Cost) Add(v lp.VarID, coef float64) { c.expr.AddTerm(v, coef) }

// AddConstant adds a fixed amount.
func (c *Cost) AddConstant(k float64) { c.expr.AddConstant(k) }

// AddExpr adds a whole expression.
func (c *Cost) AddExpr(e lp.Expr) { c.expr.AddExpr(e) }

// Expr returns a copy of the accumulated objective.
func (c *Cost) Expr() lp.Expr { return c.expr.Clone() }
