package config

import (
	"fmt"
	"time"

	"github.com/kilianp07/energyplan/core/factory"
)

// ScenarioConfig describes the horizon and the devices to plan for. Each
// device is a factory.ModuleConfig whose type is one of the optimizer device
// types and whose conf holds the device parameters.
type ScenarioConfig struct {
	Name    string                 `json:"name"`
	Hours   int                    `json:"hours"`
	Start   string                 `json:"start"`
	StepMin int                    `json:"step_minutes"`
	Devices []factory.ModuleConfig `json:"devices"`
}

// SetDefaults applies sane defaults.
func (c *ScenarioConfig) SetDefaults() {
	if c.Name == "" {
		c.Name = "default"
	}
	if c.StepMin <= 0 {
		c.StepMin = 60
	}
}

// StartTime parses Start, defaulting to the next full hour.
func (c ScenarioConfig) StartTime() (time.Time, error) {
	if c.Start == "" {
		return time.Now().Truncate(time.Hour).Add(time.Hour), nil
	}
	return time.Parse(time.RFC3339, c.Start)
}

// Step returns the duration of one planning step.
func (c ScenarioConfig) Step() time.Duration { return time.Duration(c.StepMin) * time.Minute }

// Validate checks mandatory fields. Device parameters are validated when the
// devices are registered.
func (c ScenarioConfig) Validate() error {
	if c.Hours <= 0 {
		return fmt.Errorf("scenario: hours must be positive, got %d", c.Hours)
	}
	if len(c.Devices) == 0 {
		return fmt.Errorf("scenario: no devices configured")
	}
	for i, d := range c.Devices {
		if d.Type == "" {
			return fmt.Errorf("scenario: device %d has no type", i)
		}
	}
	if _, err := c.StartTime(); err != nil {
		return fmt.Errorf("scenario: start: %w", err)
	}
	return nil
}
