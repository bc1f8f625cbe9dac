package optimizer

import (
	"math"

	"github.com/kilianp07/energyplan/core/lp"
)

// RoleConsumption is shared by fixed and flexible loads.
const RoleConsumption = "consumption"

// FixedLoad is a consumption profile that must be served as given.
type FixedLoad struct {
	Name              string    `json:"name"`
	HourlyConsumption []float64 `json:"hourly_consumption"`
}

// Register implements Device.
func (p FixedLoad) Register(m *Model) error {
	_, err := AddFixedLoad(m, p)
	return err
}

// AddFixedLoad registers a fixed consumption and pins it to the profile.
func AddFixedLoad(m *Model, p FixedLoad) ([]lp.VarID, error) {
	if p.Name == "" {
		return nil, invalidf("fixed load: empty name")
	}
	if err := m.checkSeries(p.Name, "hourly_consumption", p.HourlyConsumption); err != nil {
		return nil, err
	}
	peak := 0.0
	for h, c := range p.HourlyConsumption {
		if math.IsNaN(c) || c < 0 {
			return nil, invalidf("%s: hourly_consumption[%d] = %g is negative", p.Name, h, c)
		}
		peak = math.Max(peak, c)
	}

	cons, err := m.Vars.DeclareConst(p.Name, RoleConsumption, 0, peak)
	if err != nil {
		return nil, err
	}
	for h, c := range p.HourlyConsumption {
		m.Constrain(hourName(p.Name, "profile", h), lp.Sum(cons[h:h+1], 1), lp.EQ, lp.NewExpr(c))
		m.Balance.Consume(h, cons[h], 1)
	}
	m.registered(p.Name)
	return cons, nil
}
