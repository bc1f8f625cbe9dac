package optimizer

import (
	"github.com/kilianp07/energyplan/core/lp"
)

const (
	RoleImport = "import"
	RoleExport = "export"
)

// Mains is a bidirectional grid connection. Export is modelled as a
// non-positive flow earning ExportPrices; it is disabled when MaxExportPower
// is zero or no export prices are given.
type Mains struct {
	Name           string    `json:"name"`
	MaxImportPower float64   `json:"max_import_power"`
	ImportPrices   []float64 `json:"import_prices"`
	MaxExportPower float64   `json:"max_export_power"`
	ExportPrices   []float64 `json:"export_prices"`
}

// MainsVars are the hourly grid flows.
type MainsVars struct {
	Import []lp.VarID
	Export []lp.VarID
}

func (p Mains) exportEnabled() bool { return p.MaxExportPower > 0 && len(p.ExportPrices) > 0 }

// Register implements Device.
func (p Mains) Register(m *Model) error {
	_, err := AddMains(m, p)
	return err
}

// AddMains registers a grid connection. Import and export are not made
// mutually exclusive: the plan stays physical as long as the export price
// never exceeds the import price in the same hour.
func AddMains(m *Model, p Mains) (MainsVars, error) {
	if p.Name == "" {
		return MainsVars{}, invalidf("mains: empty name")
	}
	if p.MaxImportPower < 0 || p.MaxExportPower < 0 {
		return MainsVars{}, invalidf("%s: negative power limit", p.Name)
	}
	if err := m.checkSeries(p.Name, "import_prices", p.ImportPrices); err != nil {
		return MainsVars{}, err
	}
	exporting := p.exportEnabled()
	if exporting {
		if err := m.checkSeries(p.Name, "export_prices", p.ExportPrices); err != nil {
			return MainsVars{}, err
		}
	}

	imp, err := m.Vars.DeclareConst(p.Name, RoleImport, 0, p.MaxImportPower)
	if err != nil {
		return MainsVars{}, err
	}
	lowExport := 0.0
	if exporting {
		lowExport = -p.MaxExportPower
	}
	exp, err := m.Vars.DeclareConst(p.Name, RoleExport, lowExport, 0)
	if err != nil {
		return MainsVars{}, err
	}

	for h := 0; h < m.hours; h++ {
		m.Balance.Supply(h, imp[h], 1)
		m.Balance.Supply(h, exp[h], 1)
		m.Cost.Add(imp[h], p.ImportPrices[h])
		if exporting {
			m.Cost.Add(exp[h], p.ExportPrices[h])
			if p.ExportPrices[h] > p.ImportPrices[h] {
				m.log.Warnf("%s: export price %g exceeds import price %g at hour %d, plan may import and export simultaneously",
					p.Name, p.ExportPrices[h], p.ImportPrices[h], h)
			}
		}
	}
	m.registered(p.Name)
	return MainsVars{Import: imp, Export: exp}, nil
}
