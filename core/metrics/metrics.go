package metrics

import (
	"time"

	"github.com/kilianp07/energyplan/core/lp"
)

// SolveEvent describes one optimisation run.
type SolveEvent struct {
	PlanID      string
	Hours       int
	Devices     int
	Variables   int
	Constraints int
	Status      lp.Status
	Objective   float64
	Duration    time.Duration
	Time        time.Time
}

// MetricsSink records solve outcomes for observability purposes.
type MetricsSink interface {
	RecordSolve(ev SolveEvent) error
}

// ScheduleEvent carries a solved schedule: device -> role -> hourly values.
// Hour h starts at Start + h*Step.
type ScheduleEvent struct {
	PlanID string
	Start  time.Time
	Step   time.Duration
	Series map[string]map[string][]float64
}

// ScheduleRecorder is implemented by sinks able to store full schedules.
type ScheduleRecorder interface {
	RecordSchedule(ev ScheduleEvent) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordSolve(SolveEvent) error       { return nil }
func (NopSink) RecordSchedule(ScheduleEvent) error { return nil }
