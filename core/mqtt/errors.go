package mqtt

import "errors"

// ErrPublish is returned when a message could not be delivered after every
// retry.
var ErrPublish = errors.New("mqtt publish failed")
