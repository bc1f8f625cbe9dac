package mqtt

import (
	"context"

	"github.com/kilianp07/energyplan/core/metrics"
)

// Publisher pushes solved schedules to downstream device controllers.
type Publisher interface {
	// PublishSchedule sends one message per device and role.
	PublishSchedule(ctx context.Context, ev metrics.ScheduleEvent) error
	// Close disconnects from the broker.
	Close()
}
