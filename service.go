package jobqueue

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/jobqueue/internal/logging"
	"github.com/viant/jobqueue/policy"
	"github.com/viant/jobqueue/service/arena"
	arenahttp "github.com/viant/jobqueue/service/arena/http"
	"github.com/viant/jobqueue/service/dao"
	reportfs "github.com/viant/jobqueue/service/dao/report/fs"
	"github.com/viant/jobqueue/service/event"
	"github.com/viant/jobqueue/service/meta"
	"github.com/viant/jobqueue/service/metrics"
	"github.com/viant/jobqueue/service/report"
)

// Service is the scheduler façade: it holds the shared configuration and
// infrastructure and creates a Runtime per arena session.
type Service struct {
	config        *Config
	arena         arena.Arena
	logger        logrus.FieldLogger
	registerer    prometheus.Registerer
	metrics       *metrics.Collectors
	eventService  *event.Service
	policy        *policy.Policy
	reportDAO     dao.Service[string, report.Summary]
	metaService   *meta.Service
	metaBaseURL   string
	metaFsOptions []storage.Option
}

func (s *Service) init(ctx context.Context, options []Option) error {
	for _, option := range options {
		option(s)
	}
	if err := s.config.Validate(); err != nil {
		return err
	}
	if s.logger == nil {
		logger, err := logging.New(s.config.Log.Level, s.config.Log.Format)
		if err != nil {
			return err
		}
		s.logger = logger
	}
	if s.metaService == nil {
		s.metaService = meta.New(afs.New(), s.metaBaseURL, s.metaFsOptions...)
	}
	if s.arena == nil {
		s.arena = arenahttp.New(arenahttp.Config{BaseURL: s.config.Arena.BaseURL, Timeout: s.config.Arena.Timeout},
			arenahttp.WithLogger(s.logger))
	}
	if s.registerer != nil {
		collectors, err := metrics.New(s.registerer)
		if err != nil {
			return fmt.Errorf("failed to register metrics: %w", err)
		}
		s.metrics = collectors
	}
	if s.reportDAO == nil && s.config.Report.URL != "" {
		reportDAO, err := reportfs.New(ctx, s.config.Report.URL, reportfs.WithLogger(s.logger))
		if err != nil {
			return err
		}
		s.reportDAO = reportDAO
	}
	return nil
}

// Config returns the effective configuration.
func (s *Service) Config() *Config { return s.config }

// Logger returns the service logger.
func (s *Service) Logger() logrus.FieldLogger { return s.logger }

// Arena returns the arena the service runs against.
func (s *Service) Arena() arena.Arena { return s.arena }

// MetaService returns the meta service.
func (s *Service) MetaService() *meta.Service { return s.metaService }

// ReportDAO returns the run summary storage, nil when disabled.
func (s *Service) ReportDAO() dao.Service[string, report.Summary] { return s.reportDAO }

// NewContext decorates ctx with the policy and event service configured on
// the service.
func (s *Service) NewContext(ctx context.Context) context.Context {
	if s.policy != nil {
		ctx = policy.WithPolicy(ctx, s.policy)
	}
	if s.eventService != nil {
		ctx = s.eventService.WithContext(ctx)
	}
	return ctx
}

// NewRuntime opens an arena session and returns a runtime driving it.
func (s *Service) NewRuntime(ctx context.Context) (*Runtime, error) {
	session, err := s.arena.CreateSession(ctx, s.config.Arena.Long)
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{"session": session.ID, "turns": session.TotalTurns}).Info("session created")
	return newRuntime(s, session), nil
}

// Run plays a whole session and returns its summary.
func (s *Service) Run(ctx context.Context) (*report.Summary, error) {
	runtime, err := s.NewRuntime(ctx)
	if err != nil {
		return nil, err
	}
	return runtime.Run(ctx)
}

// New creates a scheduler service.
func New(ctx context.Context, options ...Option) (*Service, error) {
	ret := &Service{config: DefaultConfig()}
	if err := ret.init(ctx, options); err != nil {
		return nil, err
	}
	return ret, nil
}
