package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/kilianp07/energyplan/core/optimizer"
)

func plan() Plan {
	return Plan{
		PlanID:    "p1",
		Status:    "Optimal",
		Objective: 12.5,
		Start:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Hours:     2,
		Series: optimizer.TimeSeries{
			"grid":    {"import": {1.5, 2}},
			"battery": {"soc": {10, 9.25}, "charge_rate": {0, 0}},
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, plan()))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"hour", "timeslot", "battery.charge_rate", "battery.soc", "grid.import"}, rows[0])
	assert.Equal(t, []string{"1", "2024-01-01T01:00:00Z", "0", "9.25", "2"}, rows[2])
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, plan()))
	var out struct {
		PlanID      string                          `json:"plan_id"`
		StepSeconds int64                           `json:"step_seconds"`
		Series      map[string]map[string][]float64 `json:"series"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "p1", out.PlanID)
	assert.Equal(t, int64(3600), out.StepSeconds)
	assert.Equal(t, []float64{10, 9.25}, out.Series["battery"]["soc"])
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, plan()))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.GreaterOrEqual(t, len(lines), 4)
	assert.Contains(t, lines[0], "battery.soc")
	assert.Contains(t, lines[2], "9.25")
	assert.Contains(t, buf.String(), "plan p1: Optimal, objective 12.50")
}

func TestWriteUnknownFormat(t *testing.T) {
	assert.Error(t, Write(&bytes.Buffer{}, "xml", plan()))
	assert.NoError(t, Write(&bytes.Buffer{}, "", plan()))
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, "yaml", plan()))
	var out struct {
		PlanID      string                          `yaml:"plan_id"`
		StepSeconds int64                           `yaml:"step_seconds"`
		Series      map[string]map[string][]float64 `yaml:"series"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "p1", out.PlanID)
	assert.Equal(t, int64(3600), out.StepSeconds)
	assert.Equal(t, []float64{1.5, 2}, out.Series["grid"]["import"])
}

func TestWriteChart(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, "html", plan()))
	html := buf.String()
	assert.Contains(t, html, "<html")
	assert.Contains(t, html, "Plan p1")
	assert.Contains(t, html, "battery.soc")
	assert.Contains(t, html, "2024-01-01 01:00")
}
