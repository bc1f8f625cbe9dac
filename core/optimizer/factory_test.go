package optimizer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/energyplan/core/factory"
	"github.com/kilianp07/energyplan/core/optimizer"
)

func TestNewDevice(t *testing.T) {
	d, err := optimizer.NewDevice(factory.ModuleConfig{Type: "battery", Conf: map[string]any{
		"name":             "home",
		"capacity":         15,
		"initial_soc":      "10",
		"efficiency":       0.95,
		"max_charge_power": 5,
		"min_soc":          []any{1, 2},
	}})
	require.NoError(t, err)
	b, ok := d.(optimizer.Battery)
	require.True(t, ok)
	assert.Equal(t, "home", b.Name)
	assert.Equal(t, 10.0, b.InitialSoC)
	assert.Equal(t, []float64{1, 2}, b.MinSoC)

	_, err = optimizer.NewDevice(factory.ModuleConfig{Type: "solar", Conf: map[string]any{"nme": "typo"}})
	assert.ErrorIs(t, err, optimizer.ErrInvalidConfiguration)

	_, err = optimizer.NewDevice(factory.ModuleConfig{Type: "nuclear"})
	assert.ErrorIs(t, err, factory.ErrUnknownType)

	assert.Equal(t, []string{"battery", "fixed_load", "flexible_load", "heating", "mains", "solar"}, optimizer.DeviceTypes())
}
