package planlog

import (
	"context"
	"time"
)

// PlanRecord captures one optimisation run and its schedule.
type PlanRecord struct {
	PlanID    string                          `json:"plan_id"`
	Timestamp time.Time                       `json:"timestamp"`
	Scenario  string                          `json:"scenario,omitempty"`
	Hours     int                             `json:"hours"`
	Status    string                          `json:"status"`
	Objective float64                         `json:"objective"`
	Devices   []string                        `json:"devices"`
	Series    map[string]map[string][]float64 `json:"series,omitempty"`
}

// Query defines filters for retrieving records. Zero fields match anything.
type Query struct {
	Start  time.Time
	End    time.Time
	Status string
	Device string
}

// Match reports whether r passes every filter of q.
func (q Query) Match(r PlanRecord) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.Status != "" && r.Status != q.Status {
		return false
	}
	if q.Device != "" {
		for _, d := range r.Devices {
			if d == q.Device {
				return true
			}
		}
		return false
	}
	return true
}

// Store persists PlanRecords and supports querying.
type Store interface {
	Append(ctx context.Context, rec PlanRecord) error
	Query(ctx context.Context, q Query) ([]PlanRecord, error)
	Close() error
}

// NopStore discards every record.
type NopStore struct{}

func (NopStore) Append(context.Context, PlanRecord) error           { return nil }
func (NopStore) Query(context.Context, Query) ([]PlanRecord, error) { return nil, nil }
func (NopStore) Close() error                                       { return nil }
