package classifier

import (
	"github.com/NeuralTrust/NewsGuard/pkg/infra/httpx"
	"github.com/sirupsen/logrus"
)

type options struct {
	httpClient httpx.Client
	logger     *logrus.Logger
}

type Option func(*options)

func WithHTTPClient(client httpx.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

func WithLogger(logger *logrus.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func buildOptions(cfg Config, opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logrus.New()
	}
	if o.httpClient == nil {
		o.httpClient = httpx.NewFastHTTPClient(
			httpx.WithTimeout(cfg.Timeout),
			httpx.WithUserAgent("newsguard"),
		)
	}
	return o
}
