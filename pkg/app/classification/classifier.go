package classification

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/NeuralTrust/NewsGuard/pkg/domain/moderation"
	"github.com/NeuralTrust/NewsGuard/pkg/infra/classifier"
	"github.com/NeuralTrust/NewsGuard/pkg/infra/httpx"
	"github.com/NeuralTrust/NewsGuard/pkg/infra/prometheus"
	"github.com/NeuralTrust/NewsGuard/pkg/infra/ratelimit"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const (
	ReasonNoCredential    = "classifier credential not configured"
	ReasonTextTooShort    = "text too short to classify"
	ReasonQuotaExceeded   = "quota wait exceeded"
	ReasonQuotaError      = "quota limiter unavailable"
	ReasonRequestTimedOut = "classifier request timed out"
	ReasonBreakerOpen     = "classifier circuit open"
	ReasonBadStatus       = "classifier returned unexpected status"
	ReasonBadResponse     = "classifier returned malformed response"
	ReasonRequestFailed   = "classifier request failed"

	providerNone = "none"
)

type Config struct {
	MinTextLength int           `mapstructure:"min_text_length"`
	QuotaWait     time.Duration `mapstructure:"quota_wait"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

func DefaultConfig() Config {
	return Config{
		MinTextLength: 20,
		QuotaWait:     3 * time.Second,
		Timeout:       5 * time.Second,
	}
}

// Classifier never fails: every problem becomes Unavailable or TimedOut.
//
//go:generate mockery --name=Classifier --dir=. --output=./mocks --filename=classifier_mock.go --case=underscore
type Classifier interface {
	Classify(ctx context.Context, text string) moderation.ClassifierResult
	Provider() string
}

type gatedClassifier struct {
	client  classifier.Client
	limiter ratelimit.Limiter
	cache   moderation.ScoreCache
	breaker httpx.CircuitBreaker
	logger  *logrus.Logger
	cfg     Config
	group   singleflight.Group
}

// NewClassifier gates client behind the score cache, the quota limiter and
// the breaker. A nil client yields a classifier that is always unavailable.
func NewClassifier(
	client classifier.Client,
	limiter ratelimit.Limiter,
	cache moderation.ScoreCache,
	breaker httpx.CircuitBreaker,
	logger *logrus.Logger,
	cfg Config,
) Classifier {
	defaults := DefaultConfig()
	if cfg.MinTextLength <= 0 {
		cfg.MinTextLength = defaults.MinTextLength
	}
	if cfg.QuotaWait <= 0 {
		cfg.QuotaWait = defaults.QuotaWait
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	return &gatedClassifier{
		client:  client,
		limiter: limiter,
		cache:   cache,
		breaker: breaker,
		logger:  logger,
		cfg:     cfg,
	}
}

func (c *gatedClassifier) Provider() string {
	if c.client == nil {
		return providerNone
	}
	return c.client.Name()
}

func (c *gatedClassifier) Classify(ctx context.Context, text string) moderation.ClassifierResult {
	result := c.classify(ctx, text)
	prometheus.ClassifierResultsTotal.WithLabelValues(c.Provider(), result.Outcome.String()).Inc()
	return result
}

func (c *gatedClassifier) classify(ctx context.Context, text string) moderation.ClassifierResult {
	if c.client == nil {
		return moderation.Unavailable(ReasonNoCredential)
	}
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < c.cfg.MinTextLength {
		return moderation.Unavailable(ReasonTextTooShort)
	}

	fp := moderation.NewFingerprint(text)
	if scores, ok := c.cache.Get(ctx, fp); ok {
		prometheus.CacheLookupsTotal.WithLabelValues("score", "hit").Inc()
		return moderation.Scored(scores)
	}
	prometheus.CacheLookupsTotal.WithLabelValues("score", "miss").Inc()

	// Identical texts in flight share one outbound call. The call is detached
	// from the caller that started it and bounded by quota wait plus request
	// timeout; each caller still honours its own deadline below.
	ch := c.group.DoChan(fp.String(), func() (interface{}, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.QuotaWait+c.cfg.Timeout)
		defer cancel()
		return c.callProvider(shared, fp, text), nil
	})
	select {
	case <-ctx.Done():
		return moderation.TimedOut(ReasonRequestTimedOut)
	case res := <-ch:
		result, ok := res.Val.(moderation.ClassifierResult)
		if !ok {
			return moderation.Unavailable(ReasonRequestFailed)
		}
		return result
	}
}

func (c *gatedClassifier) callProvider(ctx context.Context, fp moderation.Fingerprint, text string) moderation.ClassifierResult {
	waitStart := time.Now()
	_, err := c.limiter.Acquire(ctx, c.cfg.QuotaWait)
	prometheus.QuotaWait.Observe(float64(time.Since(waitStart).Milliseconds()))
	if err != nil {
		if errors.Is(err, ratelimit.ErrQuotaTimeout) {
			prometheus.QuotaAcquisitionsTotal.WithLabelValues("timeout").Inc()
			c.logger.WithField("fingerprint", fp.String()).Debug("quota wait exceeded")
			return moderation.TimedOut(ReasonQuotaExceeded)
		}
		prometheus.QuotaAcquisitionsTotal.WithLabelValues("error").Inc()
		c.logger.WithError(err).Warn("quota limiter failed")
		return moderation.Unavailable(ReasonQuotaError)
	}
	prometheus.QuotaAcquisitionsTotal.WithLabelValues("granted").Inc()

	callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var scores moderation.Scores
	start := time.Now()
	err = c.breaker.Execute(func() error {
		var callErr error
		scores, callErr = c.client.Analyze(callCtx, text)
		return callErr
	})
	prometheus.ClassifierLatency.WithLabelValues(c.client.Name()).Observe(float64(time.Since(start).Milliseconds()))
	if err != nil {
		return c.failure(callCtx, err)
	}

	scores = moderation.NewScores(scores.Categories)
	c.cache.Put(ctx, fp, scores)
	return moderation.Scored(scores)
}

func (c *gatedClassifier) failure(ctx context.Context, err error) moderation.ClassifierResult {
	logger := c.logger.WithError(err).WithField("provider", c.client.Name())
	switch {
	case ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		logger.Warn("classifier request timed out")
		return moderation.TimedOut(ReasonRequestTimedOut)
	case errors.Is(err, httpx.ErrBreakerOpen):
		logger.Debug("classifier circuit open")
		return moderation.Unavailable(ReasonBreakerOpen)
	case errors.Is(err, classifier.ErrUnexpectedStatus):
		logger.Warn("classifier unavailable")
		return moderation.Unavailable(ReasonBadStatus)
	case errors.Is(err, classifier.ErrMalformedResponse):
		logger.Warn("classifier unavailable")
		return moderation.Unavailable(ReasonBadResponse)
	default:
		logger.Warn("classifier unavailable")
		return moderation.Unavailable(ReasonRequestFailed)
	}
}
