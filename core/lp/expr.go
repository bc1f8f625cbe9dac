package lp

import "sort"

// VarID identifies a decision variable inside a Problem.
type VarID int

// Term is a single coefficient × variable product.
type Term struct {
	Var  VarID   `json:"var"`
	Coef float64 `json:"coef"`
}

// Expr is a linear expression: the sum of its terms plus a constant.
// The zero value is the empty expression 0.
type Expr struct {
	Terms    []Term  `json:"terms"`
	Constant float64 `json:"constant"`
}

// NewExpr returns an expression holding only the constant c.
func NewExpr(c float64) Expr { return Expr{Constant: c} }

// Sum returns Σ coef·v over the given variables.
func Sum(vars []VarID, coef float64) Expr {
	e := Expr{Terms: make([]Term, 0, len(vars))}
	for _, v := range vars {
		e.AddTerm(v, coef)
	}
	return e
}

// AddTerm appends coef·v. Zero coefficients are dropped.
func (e *Expr) AddTerm(v VarID, coef float64) {
	if coef == 0 {
		return
	}
	e.Terms = append(e.Terms, Term{Var: v, Coef: coef})
}

// AddConstant adds c to the constant part.
func (e *Expr) AddConstant(c float64) { e.Constant += c }

// AddExpr adds every term and the constant of o to e.
func (e *Expr) AddExpr(o Expr) {
	e.Terms = append(e.Terms, o.Terms...)
	e.Constant += o.Constant
}

// Plus returns e + o without modifying either operand.
func (e Expr) Plus(o Expr) Expr {
	out := e.Clone()
	out.AddExpr(o)
	return out
}

// Minus returns e - o without modifying either operand.
func (e Expr) Minus(o Expr) Expr { return e.Plus(o.Scale(-1)) }

// Scale returns k·e.
func (e Expr) Scale(k float64) Expr {
	out := Expr{Terms: make([]Term, 0, len(e.Terms)), Constant: e.Constant * k}
	for _, t := range e.Terms {
		out.AddTerm(t.Var, t.Coef*k)
	}
	return out
}

// Clone returns a deep copy of e.
func (e Expr) Clone() Expr {
	out := Expr{Terms: make([]Term, len(e.Terms)), Constant: e.Constant}
	copy(out.Terms, e.Terms)
	return out
}

// Coefficients merges duplicate variables and returns the coefficient per
// variable ordered by VarID. Terms cancelling to zero are omitted.
func (e Expr) Coefficients() []Term {
	acc := make(map[VarID]float64, len(e.Terms))
	for _, t := range e.Terms {
		acc[t.Var] += t.Coef
	}
	out := make([]Term, 0, len(acc))
	for v, c := range acc {
		if c != 0 {
			out = append(out, Term{Var: v, Coef: c})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Var < out[j].Var })
	return out
}

// Eval computes the expression value for the given assignment indexed by VarID.
func (e Expr) Eval(values []float64) float64 {
	v := e.Constant
	for _, t := range e.Terms {
		v += t.Coef * values[t.Var]
	}
	return v
}

// IsConstant reports whether the expression has no non-zero variable term.
func (e Expr) IsConstant() bool { return len(e.Coefficients()) == 0 }
