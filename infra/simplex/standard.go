package simplex

import (
	"math"

	"gonum.org/v1/gonum/floats"

	corelp "github.com/kilianp07/energyplan/core/lp"
)

// varMap expresses a problem variable as offset + Σ signs[k]·y[cols[k]]
// with every y >= 0.
type varMap struct {
	offset float64
	cols   []int
	signs  []float64
}

type row struct {
	coef map[int]float64
	rhs  float64
}

// standardForm is the problem rewritten as min cᵀy s.t. A·y = b, y >= 0.
type standardForm struct {
	vars     []varMap
	nCols    int
	cost     []float64
	constant float64
	rows     []row
	// trivially violated constant constraint found while building
	infeasible string
}

func (s *standardForm) newCol() int {
	s.nCols++
	return s.nCols - 1
}

func (s *standardForm) addRow(r row) { s.rows = append(s.rows, r) }

// toStandard substitutes bounds and adds slack columns.
func toStandard(p *corelp.Problem, tol float64) *standardForm {
	s := &standardForm{vars: make([]varMap, len(p.Variables))}
	for i, v := range p.Variables {
		switch {
		case v.Lower == v.Upper:
			s.vars[i] = varMap{offset: v.Lower}
		case !math.IsInf(v.Lower, -1):
			y := s.newCol()
			s.vars[i] = varMap{offset: v.Lower, cols: []int{y}, signs: []float64{1}}
			if !math.IsInf(v.Upper, 1) {
				slack := s.newCol()
				s.addRow(row{coef: map[int]float64{y: 1, slack: 1}, rhs: v.Upper - v.Lower})
			}
		case !math.IsInf(v.Upper, 1):
			y := s.newCol()
			s.vars[i] = varMap{offset: v.Upper, cols: []int{y}, signs: []float64{-1}}
		default:
			yp, yn := s.newCol(), s.newCol()
			s.vars[i] = varMap{cols: []int{yp, yn}, signs: []float64{1, -1}}
		}
	}

	for _, c := range p.Constraints {
		r := row{coef: make(map[int]float64), rhs: -c.Expr.Constant}
		for _, t := range c.Expr.Coefficients() {
			m := s.vars[t.Var]
			r.rhs -= t.Coef * m.offset
			for k, col := range m.cols {
				r.coef[col] += t.Coef * m.signs[k]
			}
		}
		if len(r.coef) == 0 {
			if !constantHolds(r.rhs, c.Sense, tol) && s.infeasible == "" {
				s.infeasible = c.Name
			}
			continue
		}
		switch c.Sense {
		case corelp.LE:
			r.coef[s.newCol()] = 1
		case corelp.GE:
			r.coef[s.newCol()] = -1
		}
		s.addRow(r)
	}

	s.cost = make([]float64, s.nCols)
	s.constant = p.Objective.Constant
	for _, t := range p.Objective.Coefficients() {
		m := s.vars[t.Var]
		s.constant += t.Coef * m.offset
		for k, col := range m.cols {
			s.cost[col] += t.Coef * m.signs[k]
		}
	}
	return s
}

// constantHolds checks 0 <sense> rhs for a row without variables.
func constantHolds(rhs float64, sense corelp.Sense, tol float64) bool {
	switch sense {
	case corelp.LE:
		return rhs >= -tol
	case corelp.GE:
		return rhs <= tol
	default:
		return math.Abs(rhs) <= tol
	}
}

// values maps a standard-form point back to the problem variables.
func (s *standardForm) values(y []float64) []float64 {
	out := make([]float64, len(s.vars))
	for i, m := range s.vars {
		x := m.offset
		for k, col := range m.cols {
			x += m.signs[k] * y[col]
		}
		out[i] = x
	}
	return out
}

// reduced is the dense system handed to the simplex after presolve.
type reduced struct {
	a    [][]float64
	b    []float64
	c    []float64
	cols []int // reduced column -> standard column
}

// presolve drops columns absent from every row and rows that are linear
// combinations of earlier rows. unbounded is set when a dropped column has a
// negative cost; infeasible when a dependent row has an inconsistent
// right-hand side.
func (s *standardForm) presolve(tol float64) (red reduced, unbounded, infeasible bool) {
	used := make([]bool, s.nCols)
	for _, r := range s.rows {
		for col, v := range r.coef {
			if v != 0 {
				used[col] = true
			}
		}
	}
	index := make([]int, s.nCols)
	for col := 0; col < s.nCols; col++ {
		if !used[col] {
			if s.cost[col] < 0 {
				return red, true, false
			}
			index[col] = -1
			continue
		}
		index[col] = len(red.cols)
		red.cols = append(red.cols, col)
		red.c = append(red.c, s.cost[col])
	}

	n := len(red.cols)
	dense := make([][]float64, len(s.rows))
	rhs := make([]float64, len(s.rows))
	for i, r := range s.rows {
		dense[i] = make([]float64, n)
		for col, v := range r.coef {
			if j := index[col]; j >= 0 {
				dense[i][j] = v
			}
		}
		rhs[i] = r.rhs
	}

	keep, ok := independentRows(dense, rhs, tol)
	if !ok {
		return red, false, true
	}
	for _, i := range keep {
		red.a = append(red.a, dense[i])
		red.b = append(red.b, rhs[i])
	}
	return red, false, false
}

// independentRows returns a maximal set of linearly independent rows of a,
// scanning in order. ok is false when a dependent row disagrees with the
// kept rows on its right-hand side.
func independentRows(a [][]float64, b []float64, tol float64) (keep []int, ok bool) {
	if len(a) == 0 {
		return nil, true
	}
	n := len(a[0])
	type pivot struct {
		col int
		v   []float64
	}
	var basis []pivot
	for i := range a {
		r := make([]float64, n+1)
		copy(r, a[i])
		r[n] = b[i]
		scale := math.Max(1, floats.Norm(a[i], math.Inf(1)))
		for _, p := range basis {
			if f := r[p.col]; f != 0 {
				floats.AddScaled(r, -f, p.v)
			}
		}
		col := floats.MaxIdx(absInto(make([]float64, n), r[:n]))
		if math.Abs(r[col]) <= tol*scale {
			if math.Abs(r[n]) > tol*math.Max(scale, math.Abs(b[i])) {
				return nil, false
			}
			continue
		}
		floats.Scale(1/r[col], r)
		basis = append(basis, pivot{col: col, v: r})
		keep = append(keep, i)
	}
	return keep, true
}

func absInto(dst, src []float64) []float64 {
	for i, v := range src {
		dst[i] = math.Abs(v)
	}
	return dst
}
