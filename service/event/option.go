package event

import (
	"github.com/sirupsen/logrus"
	"github.com/viant/afs"
	"github.com/viant/jobqueue/service/messaging/memory"
)

type Option func(s *Service)

// WithNewMemoryQueueConfig sets the memory queue configuration factory
func WithNewMemoryQueueConfig(newQueue func(name string) memory.Config) Option {
	return func(s *Service) {
		s.memNewQueueConfig = newQueue
	}
}

// WithLogger sets the logger used by listeners
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithJournal sets the storage and base URL used by the fs vendor.
func WithJournal(fs afs.Service, URL string) Option {
	return func(s *Service) {
		s.fs = fs
		s.journalURL = URL
	}
}
