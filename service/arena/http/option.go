package http

import (
	"net/http"

	"github.com/sirupsen/logrus"
)

// Option represents an arena client option
type Option func(a *Arena)

// WithClient sets the http client
func WithClient(client *http.Client) Option {
	return func(a *Arena) {
		a.client = client
	}
}

// WithLogger sets the logger
func WithLogger(logger logrus.FieldLogger) Option {
	return func(a *Arena) {
		a.logger = logger
	}
}
