package optimizer

import (
	"math"

	"github.com/kilianp07/energyplan/core/lp"
)

const RoleProduction = "production"

// Solar is a curtailable production source bounded by its forecast.
type Solar struct {
	Name                      string    `json:"name"`
	EstimatedHourlyProduction []float64 `json:"estimated_hourly_production"`
}

// Register implements Device.
func (p Solar) Register(m *Model) error {
	_, err := AddSolar(m, p)
	return err
}

// AddSolar registers a production source. The plan may throttle production
// below the forecast.
func AddSolar(m *Model, p Solar) ([]lp.VarID, error) {
	if p.Name == "" {
		return nil, invalidf("solar: empty name")
	}
	if err := m.checkSeries(p.Name, "estimated_hourly_production", p.EstimatedHourlyProduction); err != nil {
		return nil, err
	}
	for h, v := range p.EstimatedHourlyProduction {
		if math.IsNaN(v) || v < 0 {
			return nil, invalidf("%s: estimated_hourly_production[%d] = %g is negative", p.Name, h, v)
		}
	}
	prod, err := m.Vars.Declare(p.Name, RoleProduction, repeat(0, m.hours), p.EstimatedHourlyProduction)
	if err != nil {
		return nil, err
	}
	for h := range prod {
		m.Balance.Supply(h, prod[h], 1)
	}
	m.registered(p.Name)
	return prod, nil
}
