package optimizer

import (
	"math"

	"github.com/kilianp07/energyplan/core/lp"
)

// FlexibleLoad is a deferrable consumption such as an EV charger: any hourly
// profile is acceptable as long as the running total meets
// MinCumulativeConsumption.
type FlexibleLoad struct {
	Name                     string    `json:"name"`
	MaxPower                 float64   `json:"max_power"`
	MinCumulativeConsumption []float64 `json:"min_cumulative_consumption"`
}

// Register implements Device.
func (p FlexibleLoad) Register(m *Model) error {
	_, err := AddFlexibleLoad(m, p)
	return err
}

// AddFlexibleLoad registers a deferrable load with cumulative targets.
func AddFlexibleLoad(m *Model, p FlexibleLoad) ([]lp.VarID, error) {
	if p.Name == "" {
		return nil, invalidf("flexible load: empty name")
	}
	if !(p.MaxPower >= 0) {
		return nil, invalidf("%s: max_power must be non-negative, got %g", p.Name, p.MaxPower)
	}
	if err := m.checkSeries(p.Name, "min_cumulative_consumption", p.MinCumulativeConsumption); err != nil {
		return nil, err
	}
	prev := math.Inf(-1)
	for h, v := range p.MinCumulativeConsumption {
		if math.IsNaN(v) || v < prev {
			return nil, invalidf("%s: min_cumulative_consumption decreases at hour %d", p.Name, h)
		}
		prev = v
	}

	cons, err := m.Vars.DeclareConst(p.Name, RoleConsumption, 0, p.MaxPower)
	if err != nil {
		return nil, err
	}
	for h := range cons {
		m.Constrain(hourName(p.Name, "cumulative", h), lp.Sum(cons[:h+1], 1), lp.GE,
			lp.NewExpr(p.MinCumulativeConsumption[h]))
		m.Balance.Consume(h, cons[h], 1)
	}
	m.registered(p.Name)
	return cons, nil
}
