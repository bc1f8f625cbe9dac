package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/energyplan/core/optimizer"
)

// Plan is a solved schedule with its metadata. Hour h starts at
// Start + h*Step.
type Plan struct {
	PlanID    string               `json:"plan_id" yaml:"plan_id"`
	Status    string               `json:"status" yaml:"status"`
	Objective float64              `json:"objective" yaml:"objective"`
	Start     time.Time            `json:"start" yaml:"start"`
	Step      time.Duration        `json:"-" yaml:"-"`
	Hours     int                  `json:"hours" yaml:"hours"`
	Series    optimizer.TimeSeries `json:"series" yaml:"series"`
}

func (p Plan) step() time.Duration {
	if p.Step <= 0 {
		return time.Hour
	}
	return p.Step
}

func (p Plan) slot(h int) time.Time { return p.Start.Add(time.Duration(h) * p.step()) }

type column struct {
	device, role string
}

func (c column) String() string { return c.device + "." + c.role }

func (p Plan) columns() []column {
	var out []column
	for _, d := range p.Series.Devices() {
		for _, r := range p.Series.Roles(d) {
			out = append(out, column{d, r})
		}
	}
	return out
}

func (p Plan) value(c column, h int) float64 {
	v := p.Series[c.device][c.role]
	if h >= len(v) {
		return 0
	}
	return v[h]
}

// WriteJSON writes the plan to w in JSON format.
func WriteJSON(w io.Writer, p Plan) error {
	out := struct {
		Plan
		StepSeconds int64 `json:"step_seconds"`
	}{p, int64(p.step() / time.Second)}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// WriteYAML writes the plan to w in YAML format.
func WriteYAML(w io.Writer, p Plan) error {
	out := struct {
		Plan        `yaml:",inline"`
		StepSeconds int64 `yaml:"step_seconds"`
	}{p, int64(p.step() / time.Second)}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return err
	}
	return enc.Close()
}

// WriteCSV writes one row per hour and one column per device series.
func WriteCSV(w io.Writer, p Plan) error {
	cols := p.columns()
	cw := csv.NewWriter(w)
	header := []string{"hour", "timeslot"}
	for _, c := range cols {
		header = append(header, c.String())
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for h := 0; h < p.Hours; h++ {
		rec := []string{strconv.Itoa(h), p.slot(h).Format(time.RFC3339)}
		for _, c := range cols {
			rec = append(rec, strconv.FormatFloat(p.value(c, h), 'f', -1, 64))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTable renders the plan as an aligned text table followed by the
// objective.
func WriteTable(w io.Writer, p Plan) error {
	cols := p.columns()
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(tw, "HOUR\t")
	for _, c := range cols {
		fmt.Fprintf(tw, "%s\t", c)
	}
	fmt.Fprintln(tw)
	for h := 0; h < p.Hours; h++ {
		fmt.Fprintf(tw, "%d\t", h)
		for _, c := range cols {
			fmt.Fprintf(tw, "%.2f\t", p.value(c, h))
		}
		fmt.Fprintln(tw)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\nplan %s: %s, objective %.2f\n", p.PlanID, p.Status, p.Objective)
	return err
}

// Write dispatches on format: "table", "csv", "json", "yaml" or "html".
func Write(w io.Writer, format string, p Plan) error {
	switch format {
	case "", "table":
		return WriteTable(w, p)
	case "csv":
		return WriteCSV(w, p)
	case "json":
		return WriteJSON(w, p)
	case "yaml":
		return WriteYAML(w, p)
	case "html":
		return WriteChart(w, p)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}
