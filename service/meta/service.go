package meta

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/afs/url"
	"gopkg.in/yaml.v3"
)

// Service loads configuration and scripted scenario documents from any
// afs-supported location. ${env.KEY} expressions are expanded before
// decoding.
type Service struct {
	fs      afs.Service
	baseURL string
	options []storage.Option
}

// Load decodes the document at URL into dest. Relative URLs are resolved
// against the base URL; .json documents are decoded as JSON, anything else
// as YAML.
func (s *Service) Load(ctx context.Context, URL string, dest interface{}) error {
	data, err := s.Download(ctx, URL)
	if err != nil {
		return err
	}
	return decode(URL, data, dest)
}

// Download returns the env-expanded content of URL.
func (s *Service) Download(ctx context.Context, URL string) ([]byte, error) {
	URL = s.resolve(URL)
	data, err := s.fs.DownloadWithURL(ctx, URL, s.options...)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", URL, err)
	}
	return []byte(expandEnv(string(data))), nil
}

func (s *Service) resolve(URL string) string {
	if s.baseURL == "" || !url.IsRelative(URL) {
		return URL
	}
	return url.Join(s.baseURL, URL)
}

func decode(URL string, data []byte, dest interface{}) error {
	switch strings.ToLower(path.Ext(URL)) {
	case ".json":
		if err := json.Unmarshal(data, dest); err != nil {
			return fmt.Errorf("failed to decode %s: %w", URL, err)
		}
	default:
		if err := yaml.Unmarshal(data, dest); err != nil {
			return fmt.Errorf("failed to decode %s: %w", URL, err)
		}
	}
	return nil
}

// New creates a meta service.
func New(fs afs.Service, baseURL string, options ...storage.Option) *Service {
	return &Service{fs: fs, baseURL: baseURL, options: options}
}
