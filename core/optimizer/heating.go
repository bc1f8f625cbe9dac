package optimizer

import (
	"math"

	"github.com/kilianp07/energyplan/core/lp"
)

const (
	RoleHeatingPower = "heating_power"
	RoleUnder        = "under"
	RoleOver         = "over"
)

// HeatingLoad is a thermal load whose delivered energy may drift from the
// demand curve inside the cumulative band [TolCumulMin, TolCumulMax].
// Energy still owed at the end of the horizon is charged at
// FinalEnergyValuePerKWh. A positive ComfortPenaltyPerKWh also prices the
// drift at every earlier hour.
type HeatingLoad struct {
	Name                   string    `json:"name"`
	MaxHeatPower           float64   `json:"max_heat_power"`
	HourlyDemand           []float64 `json:"hourly_demand"`
	TolCumulMin            float64   `json:"tol_cumul_min"`
	TolCumulMax            float64   `json:"tol_cumul_max"`
	FinalEnergyValuePerKWh float64   `json:"final_energy_value_per_kwh"`
	ComfortPenaltyPerKWh   float64   `json:"comfort_penalty_per_kwh"`
}

// HeatingVars are the hourly heating variables. Under and Over are nil
// unless a comfort penalty is configured.
type HeatingVars struct {
	Power []lp.VarID
	Under []lp.VarID
	Over  []lp.VarID
}

// Register implements Device.
func (p HeatingLoad) Register(m *Model) error {
	_, err := AddHeatingLoad(m, p)
	return err
}

func (p HeatingLoad) validate(hours int) error {
	switch {
	case p.Name == "":
		return invalidf("heating: empty name")
	case !(p.MaxHeatPower >= 0):
		return invalidf("%s: max_heat_power must be non-negative, got %g", p.Name, p.MaxHeatPower)
	case !(p.TolCumulMin <= 0) || !(p.TolCumulMax >= 0):
		return invalidf("%s: tolerance band [%g, %g] must contain 0", p.Name, p.TolCumulMin, p.TolCumulMax)
	case p.ComfortPenaltyPerKWh < 0:
		return invalidf("%s: negative comfort penalty", p.Name)
	case len(p.HourlyDemand) != hours:
		return invalidf("%s: hourly_demand has length %d, want %d", p.Name, len(p.HourlyDemand), hours)
	}
	for h, d := range p.HourlyDemand {
		if math.IsNaN(d) || d < 0 {
			return invalidf("%s: hourly_demand[%d] = %g is negative", p.Name, h, d)
		}
	}
	return nil
}

// AddHeatingLoad registers a heating load with its cumulative comfort band.
func AddHeatingLoad(m *Model, p HeatingLoad) (HeatingVars, error) {
	if err := p.validate(m.hours); err != nil {
		return HeatingVars{}, err
	}
	power, err := m.Vars.DeclareConst(p.Name, RoleHeatingPower, 0, p.MaxHeatPower)
	if err != nil {
		return HeatingVars{}, err
	}
	out := HeatingVars{Power: power}
	penalised := p.ComfortPenaltyPerKWh > 0
	if penalised {
		if out.Under, err = m.Vars.DeclareConst(p.Name, RoleUnder, 0, math.Inf(1)); err != nil {
			return HeatingVars{}, err
		}
		if out.Over, err = m.Vars.DeclareConst(p.Name, RoleOver, 0, math.Inf(1)); err != nil {
			return HeatingVars{}, err
		}
	}

	demand := 0.0
	var delivered lp.Expr
	for h := range power {
		demand += p.HourlyDemand[h]
		delivered.AddTerm(power[h], 1)
		m.Constrain(hourName(p.Name, "cumul_min", h), delivered, lp.GE, lp.NewExpr(demand+p.TolCumulMin))
		m.Constrain(hourName(p.Name, "cumul_max", h), delivered, lp.LE, lp.NewExpr(demand+p.TolCumulMax))
		m.Balance.Consume(h, power[h], 1)

		if penalised {
			drift := lp.Sum(out.Over[h:h+1], 1).Minus(lp.Sum(out.Under[h:h+1], 1))
			m.Constrain(hourName(p.Name, "drift", h), delivered.Minus(lp.NewExpr(demand)), lp.EQ, drift)
			if h < m.hours-1 {
				m.Cost.Add(out.Under[h], p.ComfortPenaltyPerKWh)
				m.Cost.Add(out.Over[h], p.ComfortPenaltyPerKWh)
			}
		}
	}
	// (demand - delivered) at the last hour, priced at the final value.
	m.Cost.AddExpr(lp.NewExpr(demand).Minus(delivered).Scale(p.FinalEnergyValuePerKWh))

	m.registered(p.Name)
	return out, nil
}
