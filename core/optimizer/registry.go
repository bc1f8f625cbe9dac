package optimizer

import (
	"fmt"
	"math"

	"github.com/kilianp07/energyplan/core/lp"
)

// GroupKey identifies a variable group.
type GroupKey struct {
	Device string
	Role   string
}

func (k GroupKey) String() string { return k.Device + "." + k.Role }

// Group is an hourly series of variables owned by the Registry.
type Group struct {
	Key  GroupKey
	Vars []lp.VarID
}

// Registry allocates named, bounded variable series. A (device, role) pair
// can be declared once; nothing is ever removed or rebound.
type Registry struct {
	hours  int
	vars   []lp.Variable
	groups map[GroupKey]int
	order  []Group
}

func newRegistry(hours int) *Registry {
	return &Registry{hours: hours, groups: make(map[GroupKey]int)}
}

// Declare creates the series device.role with per-hour bounds and returns
// the variable handles indexed by hour.
func (r *Registry) Declare(device, role string, lower, upper []float64) ([]lp.VarID, error) {
	key := GroupKey{Device: device, Role: role}
	if device == "" || role == "" {
		return nil, invalidf("empty device or role name %q", key)
	}
	if len(lower) != r.hours || len(upper) != r.hours {
		return nil, invalidf("%s: bounds have length %d/%d, want %d", key, len(lower), len(upper), r.hours)
	}
	if _, ok := r.groups[key]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateDeclaration, key)
	}
	for h := range lower {
		lo, hi := lower[h], upper[h]
		if math.IsNaN(lo) || math.IsNaN(hi) || lo > hi || math.IsInf(lo, 1) || math.IsInf(hi, -1) {
			return nil, fmt.Errorf("%w: %s[%d] = [%g, %g]", ErrInvalidBounds, key, h, lo, hi)
		}
	}

	ids := make([]lp.VarID, r.hours)
	for h := range ids {
		id := lp.VarID(len(r.vars))
		r.vars = append(r.vars, lp.Variable{
			ID:    id,
			Name:  fmt.Sprintf("%s[%d]", key, h),
			Lower: lower[h],
			Upper: upper[h],
		})
		ids[h] = id
	}
	r.groups[key] = len(r.order)
	r.order = append(r.order, Group{Key: key, Vars: ids})
	return ids, nil
}

// DeclareConst is Declare with the same bounds at every hour.
func (r *Registry) DeclareConst(device, role string, lower, upper float64) ([]lp.VarID, error) {
	return r.Declare(device, role, repeat(lower, r.hours), repeat(upper, r.hours))
}

// Lookup returns the handles of a declared series.
func (r *Registry) Lookup(device, role string) ([]lp.VarID, bool) {
	i, ok := r.groups[GroupKey{Device: device, Role: role}]
	if !ok {
		return nil, false
	}
	return r.order[i].Vars, true
}

// Groups returns the declared series in declaration order.
func (r *Registry) Groups() []Group { return r.order }

// Variable returns the declaration of id.
func (r *Registry) Variable(id lp.VarID) lp.Variable { return r.vars[id] }

// Len returns the number of declared variables.
func (r *Registry) Len() int { return len(r.vars) }

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
