package metrics

// Package metrics defines the observability contract of the planner: solve
// events and optional full schedules, recorded by pluggable sinks created
// through the factory registry.
