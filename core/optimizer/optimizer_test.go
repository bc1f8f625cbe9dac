package optimizer_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/energyplan/core/lp"
	"github.com/kilianp07/energyplan/core/metrics"
	"github.com/kilianp07/energyplan/core/optimizer"
	"github.com/kilianp07/energyplan/infra/simplex"
)

const tol = 1e-6

var (
	prices      = []float64{15, 18, 19, 10, 10, 10, 10, 10, 10, 10, 10, 12, 14, 15, 15, 13, 14, 12, 15, 14, 13, 11, 10, 13}
	consumption = []float64{1, 1, 2, 1, 1, 1, 2, 1, 2, 5, 1, 2, 3, 14, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1}
	heatDemand  = []float64{1.2, 2, 1, 1.5, 1.7, 1.8, 1.3, 1.7, 2.1, 3.3, 1.2, 2.7, 1.2, 2.3, 1.2, 1.1, 1.3, 1.2, 1.7, 2.1, 2.5, 2.7, 2.8, 2.9}
)

func battery() optimizer.Battery {
	return optimizer.Battery{
		Name: "battery", Capacity: 15, InitialSoC: 10, Efficiency: 0.95,
		MaxChargePower: 5, MaxDischargePower: 5, CycleCostPerKWh: 1, FinalEnergyValuePerKWh: 12,
	}
}

func newOptimizer(t *testing.T, opts ...optimizer.Option) *optimizer.Optimizer {
	t.Helper()
	o, err := optimizer.New(len(prices), simplex.New(simplex.Config{}, nil), opts...)
	require.NoError(t, err)
	return o
}

// singleBattery builds the reference household: grid, battery, fixed load.
func singleBattery(t *testing.T, maxImport float64, b optimizer.Battery) *optimizer.Optimizer {
	t.Helper()
	o := newOptimizer(t)
	_, err := o.AddMains(optimizer.Mains{Name: "eso", MaxImportPower: maxImport, ImportPrices: prices})
	require.NoError(t, err)
	_, err = o.AddBattery(b)
	require.NoError(t, err)
	_, err = o.AddFixedLoad(optimizer.FixedLoad{Name: "consumption", HourlyConsumption: consumption})
	require.NoError(t, err)
	return o
}

func series(t *testing.T, ts optimizer.TimeSeries, device, role string) []float64 {
	t.Helper()
	v, ok := ts.Get(device, role)
	require.True(t, ok, "%s.%s missing", device, role)
	return v
}

func assertWithin(t *testing.T, values []float64, lower, upper float64) {
	t.Helper()
	for h, v := range values {
		assert.GreaterOrEqual(t, v, lower-tol, "hour %d", h)
		assert.LessOrEqual(t, v, upper+tol, "hour %d", h)
	}
}

func TestSingleBatteryScenario(t *testing.T) {
	o := singleBattery(t, 10, battery())
	status, err := o.Solve(context.Background())
	require.NoError(t, err)
	require.Equal(t, lp.StatusOptimal, status)

	ts, err := o.TimeSeries()
	require.NoError(t, err)
	imp := series(t, ts, "eso", "import")
	exp := series(t, ts, "eso", "export")
	soc := series(t, ts, "battery", "soc")
	charge := series(t, ts, "battery", "charge_rate")
	discharge := series(t, ts, "battery", "discharge_rate")
	cons := series(t, ts, "consumption", "consumption")

	assertWithin(t, imp, 0, 10)
	assertWithin(t, exp, 0, 0)
	assertWithin(t, soc, 0, 15)
	assertWithin(t, charge, 0, 5)
	assertWithin(t, discharge, -5, 0)

	prevSoC := 10.0
	var cheap, other float64
	for h := range prices {
		// energy conservation
		assert.InDelta(t, 0, imp[h]+exp[h]-charge[h]-discharge[h]*0.95-cons[h], tol, "balance hour %d", h)
		// charge conservation
		assert.InDelta(t, charge[h]+discharge[h], soc[h]-prevSoC, tol, "soc hour %d", h)
		assert.InDelta(t, consumption[h], cons[h], tol)
		prevSoC = soc[h]
		if prices[h] == 10 {
			cheap += charge[h]
		} else {
			other += charge[h]
		}
	}

	assert.Greater(t, cheap, 0.0)
	assert.GreaterOrEqual(t, cheap, other)
	assert.InDelta(t, 0, charge[13], tol)
	assert.LessOrEqual(t, discharge[13], -4/0.95+tol, "peak hour must be covered by the battery")
}

func TestInfeasibleScenario(t *testing.T) {
	b := battery()
	b.MaxDischargePower = 0
	o := singleBattery(t, 5, b)

	status, err := o.Solve(context.Background())
	assert.Equal(t, lp.StatusInfeasible, status)
	assert.ErrorIs(t, err, optimizer.ErrInfeasibleOrUnbounded)
	assert.Equal(t, lp.StatusInfeasible, o.Status())

	_, err = o.TimeSeries()
	assert.ErrorIs(t, err, optimizer.ErrInfeasibleOrUnbounded)
}

func TestIdempotence(t *testing.T) {
	solve := func() (float64, optimizer.TimeSeries) {
		o := singleBattery(t, 10, battery())
		_, err := o.Solve(context.Background())
		require.NoError(t, err)
		ts, err := o.TimeSeries()
		require.NoError(t, err)
		return o.Objective(), ts
	}
	obj1, ts1 := solve()
	obj2, ts2 := solve()
	assert.InDelta(t, obj1, obj2, tol)
	require.Equal(t, ts1.Devices(), ts2.Devices())
	for _, d := range ts1.Devices() {
		require.Equal(t, ts1.Roles(d), ts2.Roles(d))
		for _, r := range ts1.Roles(d) {
			v1, v2 := series(t, ts1, d, r), series(t, ts2, d, r)
			require.Len(t, v2, len(v1))
			for h := range v1 {
				assert.InDelta(t, v1[h], v2[h], tol, "%s.%s[%d]", d, r, h)
			}
		}
	}
}

func TestObjectiveMatchesCost(t *testing.T) {
	o := singleBattery(t, 10, battery())
	_, err := o.Solve(context.Background())
	require.NoError(t, err)
	ts, err := o.TimeSeries()
	require.NoError(t, err)

	imp := series(t, ts, "eso", "import")
	charge := series(t, ts, "battery", "charge_rate")
	soc := series(t, ts, "battery", "soc")
	var want float64
	for h := range prices {
		want += imp[h]*prices[h] + charge[h]
	}
	want -= soc[len(soc)-1] * 0.95 * 12
	assert.InDelta(t, want, o.Objective(), 1e-5)
}

func TestSolarExportScenario(t *testing.T) {
	importPrices := []float64{15, 18, 19, 10, 10, 10, 10, 10, 15, 15, 10, 12, 14, 15, 15, 13, 14, 12, 15, 14, 13, 11, 10, 13}
	load := []float64{1, 1, 2, 1, 1, 1, 2, 1, 2, 5, 1, 2, 3, 4, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1}
	sun := []float64{0, 0, 0, 1, 4, 8, 8, 9, 9, 8, 6, 4, 1, 1, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	minSoC := make([]float64, 24)
	for h := range minSoC {
		minSoC[h] = 3
	}
	minSoC[23] = 10
	exportPrices := make([]float64, 24)
	for h := range exportPrices {
		exportPrices[h] = 9
	}

	o := newOptimizer(t)
	_, err := o.AddMains(optimizer.Mains{
		Name: "mains", MaxImportPower: 10, ImportPrices: importPrices,
		MaxExportPower: 9, ExportPrices: exportPrices,
	})
	require.NoError(t, err)
	_, err = o.AddFixedLoad(optimizer.FixedLoad{Name: "consumption", HourlyConsumption: load})
	require.NoError(t, err)
	_, err = o.AddSolar(optimizer.Solar{Name: "solar", EstimatedHourlyProduction: sun})
	require.NoError(t, err)
	b := battery()
	b.MaxDischargePower = 10
	b.MinSoC = minSoC
	_, err = o.AddBattery(b)
	require.NoError(t, err)

	status, err := o.Solve(context.Background())
	require.NoError(t, err)
	require.Equal(t, lp.StatusOptimal, status)
	ts, err := o.TimeSeries()
	require.NoError(t, err)

	imp := series(t, ts, "mains", "import")
	exp := series(t, ts, "mains", "export")
	soc := series(t, ts, "battery", "soc")
	prod := series(t, ts, "solar", "production")
	assertWithin(t, imp, 0, 10)
	assertWithin(t, exp, -9, 0)
	assertWithin(t, series(t, ts, "battery", "discharge_rate"), -10, 0)
	assertWithin(t, series(t, ts, "battery", "charge_rate"), 0, 5)
	for h := range sun {
		assert.GreaterOrEqual(t, prod[h], -tol)
		assert.LessOrEqual(t, prod[h], sun[h]+tol)
		assert.GreaterOrEqual(t, soc[h], minSoC[h]-tol)
		assert.False(t, imp[h] > tol && exp[h] < -tol, "import and export at hour %d", h)
	}
}

func TestHeatPumpScenario(t *testing.T) {
	o := singleBattery(t, 10, battery())
	_, err := o.AddHeatingLoad(optimizer.HeatingLoad{
		Name: "heatpump", MaxHeatPower: 3, HourlyDemand: heatDemand,
		TolCumulMin: -1, TolCumulMax: 1, FinalEnergyValuePerKWh: 12,
	})
	require.NoError(t, err)

	status, err := o.Solve(context.Background())
	require.NoError(t, err)
	require.Equal(t, lp.StatusOptimal, status)
	ts, err := o.TimeSeries()
	require.NoError(t, err)

	power := series(t, ts, "heatpump", "heating_power")
	imp := series(t, ts, "eso", "import")
	charge := series(t, ts, "battery", "charge_rate")
	discharge := series(t, ts, "battery", "discharge_rate")
	assertWithin(t, power, 0, 3)

	var demand, delivered float64
	for h := range heatDemand {
		demand += heatDemand[h]
		delivered += power[h]
		assert.GreaterOrEqual(t, delivered, demand-1-tol, "hour %d", h)
		assert.LessOrEqual(t, delivered, demand+1+tol, "hour %d", h)
		assert.InDelta(t, 0, imp[h]-charge[h]-discharge[h]*0.95-consumption[h]-power[h], tol, "balance hour %d", h)
	}
	_, ok := ts.Get("heatpump", "under")
	assert.False(t, ok)
}

func TestHeatingComfortPenalty(t *testing.T) {
	tests := []struct {
		name      string
		penalty   float64
		power     []float64
		objective float64
	}{
		{name: "terminal only", penalty: 0, power: []float64{1, 0, 1}, objective: 3},
		{name: "cheap drift", penalty: 1, power: []float64{1, 0, 1}, objective: 4},
		{name: "prohibitive drift", penalty: 100, power: []float64{1, 1, 0}, objective: 12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := optimizer.New(3, simplex.New(simplex.Config{}, nil))
			require.NoError(t, err)
			_, err = o.AddMains(optimizer.Mains{Name: "grid", MaxImportPower: 10, ImportPrices: []float64{2, 10, 1}})
			require.NoError(t, err)
			hv, err := o.AddHeatingLoad(optimizer.HeatingLoad{
				Name: "heater", MaxHeatPower: 3, HourlyDemand: []float64{1, 1, 1},
				TolCumulMin: -1, TolCumulMax: 1, ComfortPenaltyPerKWh: tt.penalty,
			})
			require.NoError(t, err)

			_, err = o.Solve(context.Background())
			require.NoError(t, err)
			power, err := o.Values(hv.Power)
			require.NoError(t, err)
			assert.InDeltaSlice(t, tt.power, power, tol)
			assert.InDelta(t, tt.objective, o.Objective(), tol)

			if tt.penalty == 0 {
				assert.Nil(t, hv.Under)
				return
			}
			under, err := o.Values(hv.Under)
			require.NoError(t, err)
			over, err := o.Values(hv.Over)
			require.NoError(t, err)
			var cum float64
			for h := range power {
				cum += power[h] - 1
				assert.InDelta(t, cum, over[h]-under[h], tol, "hour %d", h)
			}
		})
	}
}

func TestFlexibleLoadCumulativeTargets(t *testing.T) {
	target := make([]float64, 24)
	for h := range target {
		if h >= 7 {
			target[h] = 6
		}
		if h >= 20 {
			target[h] = 20
		}
	}
	o := singleBattery(t, 10, battery())
	ev, err := o.AddFlexibleLoad(optimizer.FlexibleLoad{Name: "ev", MaxPower: 7, MinCumulativeConsumption: target})
	require.NoError(t, err)
	require.Len(t, ev, 24)

	_, err = o.Solve(context.Background())
	require.NoError(t, err)
	values, err := o.Values(ev)
	require.NoError(t, err)
	assertWithin(t, values, 0, 7)
	var cum float64
	for h, v := range values {
		cum += v
		assert.GreaterOrEqual(t, cum, target[h]-tol, "hour %d", h)
	}
	// expensive first hours are avoided
	assert.InDelta(t, 0, values[1]+values[2], tol)
}

func TestSolveLifecycle(t *testing.T) {
	o := singleBattery(t, 10, battery())
	assert.Equal(t, lp.StatusNotSolved, o.Status())
	_, err := o.TimeSeries()
	assert.ErrorIs(t, err, optimizer.ErrInvalidState)
	_, err = o.Value(0)
	assert.ErrorIs(t, err, optimizer.ErrInvalidState)
	assert.Nil(t, o.Problem())

	_, err = o.Solve(context.Background())
	require.NoError(t, err)
	require.NotNil(t, o.Problem())
	assert.Len(t, o.Problem().Variables, 6*24)

	_, err = o.Solve(context.Background())
	assert.ErrorIs(t, err, optimizer.ErrInvalidState)
	_, err = o.AddSolar(optimizer.Solar{Name: "late", EstimatedHourlyProduction: make([]float64, 24)})
	assert.ErrorIs(t, err, optimizer.ErrInvalidState)
	assert.ErrorIs(t, o.Add(optimizer.Solar{Name: "late"}), optimizer.ErrInvalidState)
}

func TestSolveRefusedAfterFailedRegistration(t *testing.T) {
	called := false
	solver := lp.SolverFunc(func(context.Context, *lp.Problem) (lp.Solution, error) {
		called = true
		return lp.Solution{Status: lp.StatusOptimal}, nil
	})
	o, err := optimizer.New(2, solver)
	require.NoError(t, err)

	squatter := optimizer.DeviceFunc(func(m *optimizer.Model) error {
		_, err := m.Vars.DeclareConst("bat", optimizer.RoleChargeRate, 0, 1)
		return err
	})
	require.NoError(t, o.Add(squatter))

	// soc is declared before the charge rate collides
	_, err = o.AddBattery(optimizer.Battery{
		Name: "bat", Capacity: 10, InitialSoC: 5, Efficiency: 1, MaxChargePower: 1, MaxDischargePower: 1,
	})
	require.ErrorIs(t, err, optimizer.ErrDuplicateDeclaration)
	_, err = o.AddSolar(optimizer.Solar{Name: "pv", EstimatedHourlyProduction: []float64{1, 1}})
	require.NoError(t, err)

	status, err := o.Solve(context.Background())
	assert.ErrorIs(t, err, optimizer.ErrInvalidState)
	assert.ErrorIs(t, err, optimizer.ErrDuplicateDeclaration)
	assert.Equal(t, lp.StatusNotSolved, status)
	assert.False(t, called, "solver must not run on a partially registered model")
	_, err = o.TimeSeries()
	assert.ErrorIs(t, err, optimizer.ErrInvalidState)

	o, err = optimizer.New(2, solver)
	require.NoError(t, err)
	assert.ErrorIs(t, o.Add(optimizer.Solar{Name: "pv", EstimatedHourlyProduction: []float64{-1, 1}}),
		optimizer.ErrInvalidConfiguration)
	_, err = o.Solve(context.Background())
	assert.ErrorIs(t, err, optimizer.ErrInvalidState)
	assert.False(t, called)
}

func TestNewValidation(t *testing.T) {
	_, err := optimizer.New(0, simplex.New(simplex.Config{}, nil))
	assert.ErrorIs(t, err, optimizer.ErrInvalidConfiguration)
	_, err = optimizer.New(24, nil)
	assert.ErrorIs(t, err, optimizer.ErrInvalidConfiguration)

	o, err := optimizer.New(3, simplex.New(simplex.Config{}, nil), optimizer.WithPlanID("plan-1"))
	require.NoError(t, err)
	assert.Equal(t, "plan-1", o.PlanID())
	assert.Equal(t, 3, o.Hours())
}

type recordingSink struct{ events []metrics.SolveEvent }

func (r *recordingSink) RecordSolve(ev metrics.SolveEvent) error {
	r.events = append(r.events, ev)
	return nil
}

func TestSolverOutcomes(t *testing.T) {
	tests := []struct {
		name    string
		sol     lp.Solution
		err     error
		status  lp.Status
		wantErr error
	}{
		{name: "unbounded", sol: lp.Solution{Status: lp.StatusUnbounded}, status: lp.StatusUnbounded, wantErr: optimizer.ErrInfeasibleOrUnbounded},
		{name: "solver error", sol: lp.Solution{Status: lp.StatusSolverError}, err: errors.New("boom"), status: lp.StatusSolverError, wantErr: optimizer.ErrSolver},
		{name: "error with optimal status", sol: lp.Solution{Status: lp.StatusOptimal}, err: errors.New("boom"), status: lp.StatusSolverError, wantErr: optimizer.ErrSolver},
		{name: "short values", sol: lp.Solution{Status: lp.StatusOptimal, Values: []float64{1}}, status: lp.StatusSolverError, wantErr: optimizer.ErrSolver},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			solver := lp.SolverFunc(func(ctx context.Context, p *lp.Problem) (lp.Solution, error) {
				calls++
				return tt.sol, tt.err
			})
			sink := &recordingSink{}
			o, err := optimizer.New(2, solver, optimizer.WithRecorder(sink), optimizer.WithPlanID("p"))
			require.NoError(t, err)
			_, err = o.AddSolar(optimizer.Solar{Name: "pv", EstimatedHourlyProduction: []float64{1, 2}})
			require.NoError(t, err)

			status, err := o.Solve(context.Background())
			assert.Equal(t, tt.status, status)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, 1, calls, "never retried")
			require.Len(t, sink.events, 1)
			assert.Equal(t, "p", sink.events[0].PlanID)
			assert.Equal(t, tt.status, sink.events[0].Status)
			assert.Equal(t, 2, sink.events[0].Variables)
		})
	}
}

func TestMockSolverValues(t *testing.T) {
	solver := lp.SolverFunc(func(ctx context.Context, p *lp.Problem) (lp.Solution, error) {
		vals := make([]float64, len(p.Variables))
		for i := range vals {
			vals[i] = float64(i)
		}
		return lp.Solution{Status: lp.StatusOptimal, Values: vals, Objective: 42}, nil
	})
	o, err := optimizer.New(2, solver)
	require.NoError(t, err)
	pv, err := o.AddSolar(optimizer.Solar{Name: "pv", EstimatedHourlyProduction: []float64{1, 2}})
	require.NoError(t, err)
	load, err := o.AddFixedLoad(optimizer.FixedLoad{Name: "load", HourlyConsumption: []float64{1, 2}})
	require.NoError(t, err)

	_, err = o.Solve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42.0, o.Objective())

	ts, err := o.TimeSeries()
	require.NoError(t, err)
	assert.Equal(t, []string{"load", "pv"}, ts.Devices())
	assert.Equal(t, []float64{0, 1}, ts["pv"]["production"])
	assert.Equal(t, []float64{2, 3}, ts["load"]["consumption"])

	v, err := o.Values(append(pv, load...))
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 2, 3}, v)
	_, err = o.Value(99)
	assert.ErrorIs(t, err, optimizer.ErrInvalidConfiguration)
}
