package jobqueue

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/viant/afs/storage"
	"github.com/viant/jobqueue/policy"
	"github.com/viant/jobqueue/service/arena"
	"github.com/viant/jobqueue/service/dao"
	"github.com/viant/jobqueue/service/event"
	"github.com/viant/jobqueue/service/meta"
	"github.com/viant/jobqueue/service/report"
	"github.com/viant/jobqueue/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option represents a service option
type Option func(s *Service)

// WithConfig sets the configuration; nil keeps DefaultConfig.
func WithConfig(config *Config) Option {
	return func(s *Service) {
		if config != nil {
			s.config = config
		}
	}
}

// WithArena sets the arena; without it an HTTP arena is built from config.
func WithArena(arenaService arena.Arena) Option {
	return func(s *Service) {
		s.arena = arenaService
	}
}

// WithLogger sets the logger
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithRegisterer sets the prometheus registerer metrics are registered with.
func WithRegisterer(registerer prometheus.Registerer) Option {
	return func(s *Service) {
		s.registerer = registerer
	}
}

// WithEventService attaches lifecycle events to every run.
func WithEventService(service *event.Service) Option {
	return func(s *Service) {
		s.eventService = service
	}
}

// WithPolicy sets the placement policy applied to every run.
func WithPolicy(p *policy.Policy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

// WithReportDAO sets the run summary storage.
func WithReportDAO(reportDAO dao.Service[string, report.Summary]) Option {
	return func(s *Service) {
		s.reportDAO = reportDAO
	}
}

// WithMetaService sets the meta service
func WithMetaService(service *meta.Service) Option {
	return func(s *Service) {
		s.metaService = service
	}
}

// WithMetaBaseURL sets the meta base URL
func WithMetaBaseURL(url string) Option {
	return func(s *Service) {
		s.metaBaseURL = url
	}
}

// WithMetaFsOptions with meta file system options
func WithMetaFsOptions(options ...storage.Option) Option {
	return func(s *Service) {
		s.metaFsOptions = options
	}
}

// WithTracing configures OpenTelemetry tracing. If outputFile is empty the
// stdout exporter is used. The first successful initialisation wins.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		_ = tracing.Init(serviceName, serviceVersion, outputFile)
	}
}

// WithTracingExporter configures OpenTelemetry tracing using a custom exporter.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		_ = tracing.InitWithExporter(serviceName, serviceVersion, exporter)
	}
}
