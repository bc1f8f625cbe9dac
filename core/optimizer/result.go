package optimizer

import "sort"

// TimeSeries maps device -> role -> hourly values.
type TimeSeries map[string]map[string][]float64

// Get returns the series of device.role.
func (ts TimeSeries) Get(device, role string) ([]float64, bool) {
	roles, ok := ts[device]
	if !ok {
		return nil, false
	}
	v, ok := roles[role]
	return v, ok
}

// Devices returns the device names in lexical order.
func (ts TimeSeries) Devices() []string {
	out := make([]string, 0, len(ts))
	for d := range ts {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// Roles returns the roles of a device in lexical order.
func (ts TimeSeries) Roles(device string) []string {
	out := make([]string, 0, len(ts[device]))
	for r := range ts[device] {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// TimeSeries extracts every declared series from the optimal solution.
func (o *Optimizer) TimeSeries() (TimeSeries, error) {
	if err := o.ready(); err != nil {
		return nil, err
	}
	out := make(TimeSeries)
	for _, g := range o.model.Vars.Groups() {
		vals := make([]float64, len(g.Vars))
		for h, id := range g.Vars {
			vals[h] = o.solution.Values[id]
		}
		if out[g.Key.Device] == nil {
			out[g.Key.Device] = make(map[string][]float64)
		}
		out[g.Key.Device][g.Key.Role] = vals
	}
	return out, nil
}
