package orchestrator

import (
	"github.com/sirupsen/logrus"
	"github.com/viant/jobqueue/service/metrics"
)

// Option represents an orchestrator option
type Option func(s *Service)

// WithLogger sets the logger
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics sets the metric collectors
func WithMetrics(collectors *metrics.Collectors) Option {
	return func(s *Service) {
		s.metrics = collectors
	}
}
