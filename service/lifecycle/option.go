package lifecycle

import (
	"github.com/sirupsen/logrus"
	"github.com/viant/jobqueue/service/metrics"
)

// Option represents a controller option
type Option func(c *Controller)

// WithMachineCapacity sets the capacity recorded for created machines.
func WithMachineCapacity(capacity int) Option {
	return func(c *Controller) {
		if capacity > 0 {
			c.capacity = capacity
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithMetrics sets the metric collectors
func WithMetrics(collectors *metrics.Collectors) Option {
	return func(c *Controller) {
		c.metrics = collectors
	}
}
