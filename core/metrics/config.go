package metrics

import "github.com/kilianp07/energyplan/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// ListenAddr exposes /metrics when a prometheus sink is configured.
	ListenAddr string `json:"listen_addr"`
}
