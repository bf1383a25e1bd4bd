package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/option"
	"github.com/viant/afs/url"
	"github.com/viant/jobqueue/internal/logging"
	"github.com/viant/jobqueue/service/dao"
	"github.com/viant/jobqueue/service/dao/criteria"
	"github.com/viant/jobqueue/service/report"
)

// Service implements filesystem based run report storage; one JSON document
// per session under the base URL.
type Service struct {
	baseURL string
	fs      afs.Service
	mu      sync.RWMutex
	logger  logrus.FieldLogger
}

var _ dao.Service[string, report.Summary] = (*Service)(nil)

// Save persists a summary
func (s *Service) Save(ctx context.Context, summary *report.Summary) error {
	if summary == nil {
		return dao.ErrNilEntity
	}
	if summary.Session == "" {
		return dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	URL := s.reportURL(summary.Session)
	if err = s.fs.Upload(ctx, URL, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to save report to %s: %w", URL, err)
	}
	return nil
}

// Load retrieves a summary by session id
func (s *Service) Load(ctx context.Context, id string) (*report.Summary, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	URL := s.reportURL(id)
	exists, err := s.fs.Exists(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to check if report exists: %w", err)
	}
	if !exists {
		return nil, dao.ErrNotFound
	}
	data, err := s.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to read report %s: %w", URL, err)
	}
	var summary report.Summary
	if err = json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report %s: %w", URL, err)
	}
	return &summary, nil
}

// Delete removes a summary
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	URL := s.reportURL(id)
	exists, err := s.fs.Exists(ctx, URL)
	if err != nil {
		return fmt.Errorf("failed to check if report exists: %w", err)
	}
	if !exists {
		return dao.ErrNotFound
	}
	if err = s.fs.Delete(ctx, URL); err != nil {
		return fmt.Errorf("failed to delete report %s: %w", URL, err)
	}
	return nil
}

// List returns stored summaries ordered by session, optionally filtered by
// dao.StateParameter(report.StateCompleted).
func (s *Service) List(ctx context.Context, parameters ...*dao.Parameter) ([]*report.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	objects, err := s.fs.List(ctx, s.baseURL, option.NewRecursive(true))
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	var ret []*report.Summary
	for _, object := range objects {
		if object.IsDir() || !strings.HasSuffix(object.Name(), ".json") {
			continue
		}
		data, err := s.fs.Download(ctx, object)
		if err != nil {
			s.logger.WithField("url", object.URL()).WithError(err).Warn("failed to read report")
			continue
		}
		var summary report.Summary
		if err := json.Unmarshal(data, &summary); err != nil {
			s.logger.WithField("url", object.URL()).WithError(err).Warn("failed to unmarshal report")
			continue
		}
		if !criteria.FilterByState(summary.State, parameters) {
			continue
		}
		ret = append(ret, &summary)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].Session < ret[j].Session })
	return ret, nil
}

func (s *Service) reportURL(id string) string {
	return url.Join(s.baseURL, path.Base(id)+".json")
}

// Option represents a report storage option
type Option func(s *Service)

// WithLogger sets the logger
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// New creates a report storage rooted at baseURL, creating the location
// when missing.
func New(ctx context.Context, baseURL string, opts ...Option) (*Service, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}
	fs := afs.New()
	exists, _ := fs.Exists(ctx, baseURL)
	if !exists {
		if err := fs.Create(ctx, baseURL, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create report location %s: %w", baseURL, err)
		}
	}
	ret := &Service{
		baseURL: url.Normalize(baseURL, file.Scheme),
		fs:      fs,
		logger:  logging.Discard(),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret, nil
}
