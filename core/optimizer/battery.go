package optimizer

import (
	"math"

	"github.com/kilianp07/energyplan/core/lp"
)

const (
	RoleSoC           = "soc"
	RoleChargeRate    = "charge_rate"
	RoleDischargeRate = "discharge_rate"
)

// Battery is a storage unit. Charging is lossless on the storage side;
// Efficiency applies to discharged energy and to the terminal valuation.
// MinSoC and MaxSoC are optional per-hour state of charge bounds in kWh.
type Battery struct {
	Name                   string    `json:"name"`
	Capacity               float64   `json:"capacity"`
	InitialSoC             float64   `json:"initial_soc"`
	Efficiency             float64   `json:"efficiency"`
	MaxChargePower         float64   `json:"max_charge_power"`
	MaxDischargePower      float64   `json:"max_discharge_power"`
	CycleCostPerKWh        float64   `json:"cycle_cost_per_kwh"`
	FinalEnergyValuePerKWh float64   `json:"final_energy_value_per_kwh"`
	MinSoC                 []float64 `json:"min_soc"`
	MaxSoC                 []float64 `json:"max_soc"`
}

// BatteryVars are the hourly battery variables. Discharge values are
// non-positive.
type BatteryVars struct {
	SoC       []lp.VarID
	Charge    []lp.VarID
	Discharge []lp.VarID
}

// Register implements Device.
func (p Battery) Register(m *Model) error {
	_, err := AddBattery(m, p)
	return err
}

func (p Battery) validate(hours int) error {
	switch {
	case p.Name == "":
		return invalidf("battery: empty name")
	case !(p.Capacity > 0):
		return invalidf("%s: capacity must be positive, got %g", p.Name, p.Capacity)
	case !(p.Efficiency > 0 && p.Efficiency <= 1):
		return invalidf("%s: efficiency must be in (0, 1], got %g", p.Name, p.Efficiency)
	case p.MaxChargePower < 0 || p.MaxDischargePower < 0:
		return invalidf("%s: negative power limit", p.Name)
	case p.InitialSoC < 0 || p.InitialSoC > p.Capacity:
		return invalidf("%s: initial soc %g outside [0, %g]", p.Name, p.InitialSoC, p.Capacity)
	}
	for _, s := range []struct {
		name   string
		values []float64
	}{{"min_soc", p.MinSoC}, {"max_soc", p.MaxSoC}} {
		if s.values == nil {
			continue
		}
		if len(s.values) != hours {
			return invalidf("%s: %s has length %d, want %d", p.Name, s.name, len(s.values), hours)
		}
		for h, v := range s.values {
			if math.IsNaN(v) || v < 0 || v > p.Capacity {
				return invalidf("%s: %s[%d] = %g outside [0, %g]", p.Name, s.name, h, v, p.Capacity)
			}
		}
	}
	return nil
}

// AddBattery registers a battery and its state of charge recurrence.
func AddBattery(m *Model, p Battery) (BatteryVars, error) {
	if err := p.validate(m.hours); err != nil {
		return BatteryVars{}, err
	}
	lower, upper := p.MinSoC, p.MaxSoC
	if lower == nil {
		lower = repeat(0, m.hours)
	}
	if upper == nil {
		upper = repeat(p.Capacity, m.hours)
	}

	soc, err := m.Vars.Declare(p.Name, RoleSoC, lower, upper)
	if err != nil {
		return BatteryVars{}, err
	}
	charge, err := m.Vars.DeclareConst(p.Name, RoleChargeRate, 0, p.MaxChargePower)
	if err != nil {
		return BatteryVars{}, err
	}
	discharge, err := m.Vars.DeclareConst(p.Name, RoleDischargeRate, -p.MaxDischargePower, 0)
	if err != nil {
		return BatteryVars{}, err
	}

	for h := 0; h < m.hours; h++ {
		var prev lp.Expr
		if h == 0 {
			prev = lp.NewExpr(p.InitialSoC)
		} else {
			prev.AddTerm(soc[h-1], 1)
		}
		next := prev.Plus(lp.Sum(charge[h:h+1], 1)).Plus(lp.Sum(discharge[h:h+1], 1))
		m.Constrain(hourName(p.Name, "soc_step", h), lp.Sum(soc[h:h+1], 1), lp.EQ, next)

		m.Balance.Consume(h, charge[h], 1)
		m.Balance.Consume(h, discharge[h], p.Efficiency)
		m.Cost.Add(charge[h], p.CycleCostPerKWh)
	}
	m.Cost.Add(soc[m.hours-1], -p.Efficiency*p.FinalEnergyValuePerKWh)

	m.registered(p.Name)
	return BatteryVars{SoC: soc, Charge: charge, Discharge: discharge}, nil
}
