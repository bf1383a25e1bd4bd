package placement

import (
	"github.com/sirupsen/logrus"
	"github.com/viant/jobqueue/model"
	"github.com/viant/jobqueue/service/metrics"
)

// Option represents a placement service option
type Option func(s *Service)

// WithMode sets the mode used when Place receives an empty mode and the
// context carries no policy.
func WithMode(mode model.PlacementMode) Option {
	return func(s *Service) {
		s.mode = mode
	}
}

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
