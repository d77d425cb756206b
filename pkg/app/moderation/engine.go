package moderation

import (
	"context"
	"sync"
	"time"

	domain "github.com/NeuralTrust/NewsGuard/pkg/domain/moderation"
	"github.com/NeuralTrust/NewsGuard/pkg/infra/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

type EngineConfig struct {
	ItemTimeout    time.Duration `mapstructure:"item_timeout"`
	BatchTimeout   time.Duration `mapstructure:"batch_timeout"`
	MaxConcurrency int64         `mapstructure:"max_concurrency"`
	// PacingInterval spaces out batch item starts so a burst does not
	// drain the classifier quota in one go.
	PacingInterval time.Duration `mapstructure:"pacing_interval"`
	MaxBatchSize   int           `mapstructure:"max_batch_size"`
}

func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		ItemTimeout:    2 * time.Second,
		BatchTimeout:   10 * time.Second,
		MaxConcurrency: 8,
		PacingInterval: 25 * time.Millisecond,
		MaxBatchSize:   200,
	}
}

func (c EngineConfig) WithDefaults() EngineConfig {
	d := DefaultEngineConfig()
	if c.ItemTimeout <= 0 {
		c.ItemTimeout = d.ItemTimeout
	}
	if c.BatchTimeout <= 0 {
		c.BatchTimeout = d.BatchTimeout
	}
	if c.MaxConcurrency <= 0 {
		c.MaxConcurrency = d.MaxConcurrency
	}
	if c.PacingInterval < 0 {
		c.PacingInterval = 0
	}
	if c.MaxBatchSize <= 0 {
		c.MaxBatchSize = d.MaxBatchSize
	}
	return c
}

// Service is what the transports call. Both operations always return
// verdicts: timeouts and failures degrade to placeholders.
//
//go:generate mockery --name=Service --dir=. --output=./mocks --filename=service_mock.go --case=underscore
type Service interface {
	Evaluate(ctx context.Context, item domain.ContentItem, opts domain.Options) domain.Verdict
	EvaluateAll(ctx context.Context, items []domain.ContentItem, opts domain.Options) []domain.Verdict
}

type Engine struct {
	evaluator Evaluator
	cfg       EngineConfig
	logger    *logrus.Logger
}

var _ Service = (*Engine)(nil)

func NewEngine(evaluator Evaluator, cfg EngineConfig, logger *logrus.Logger) *Engine {
	return &Engine{
		evaluator: evaluator,
		cfg:       cfg.WithDefaults(),
		logger:    logger,
	}
}

func (e *Engine) Config() EngineConfig {
	return e.cfg
}

func (e *Engine) Evaluate(ctx context.Context, item domain.ContentItem, opts domain.Options) domain.Verdict {
	v, _ := e.evaluateItem(ctx, item, opts)
	return v
}

// EvaluateAll returns exactly one verdict per item, index-aligned. Items not
// finished by the batch deadline keep their timeout placeholder.
func (e *Engine) EvaluateAll(ctx context.Context, items []domain.ContentItem, opts domain.Options) []domain.Verdict {
	start := time.Now()
	results := make([]domain.Verdict, len(items))
	placeholder := make([]bool, len(items))
	for i := range results {
		results[i] = domain.PlaceholderVerdict(domain.ReasonTimeout)
		placeholder[i] = true
	}
	if len(items) == 0 {
		return results
	}

	batchCtx, cancel := context.WithTimeout(ctx, e.cfg.BatchTimeout)
	defer cancel()

	sem := semaphore.NewWeighted(e.cfg.MaxConcurrency)
	limit := rate.Inf
	if e.cfg.PacingInterval > 0 {
		limit = rate.Every(e.cfg.PacingInterval)
	}
	pacer := rate.NewLimiter(limit, 1)

	var (
		wg         sync.WaitGroup
		dispatched int
	)
	for i, item := range items {
		if err := pacer.Wait(batchCtx); err != nil {
			break
		}
		if err := sem.Acquire(batchCtx, 1); err != nil {
			break
		}
		dispatched++
		wg.Add(1)
		go func(i int, item domain.ContentItem) {
			defer wg.Done()
			defer sem.Release(1)
			results[i], placeholder[i] = e.evaluateItem(batchCtx, item, opts)
		}(i, item)
	}
	wg.Wait()

	var degraded int
	for i, p := range placeholder {
		if !p {
			continue
		}
		degraded++
		if i >= dispatched {
			prometheus.PlaceholdersTotal.WithLabelValues("batch_deadline").Inc()
		}
	}
	prometheus.BatchDuration.Observe(float64(time.Since(start).Milliseconds()))

	fields := logrus.Fields{
		"items":        len(items),
		"dispatched":   dispatched,
		"placeholders": degraded,
		"duration_ms":  time.Since(start).Milliseconds(),
	}
	if degraded > 0 {
		e.logger.WithFields(fields).Warn("batch finished with placeholder verdicts")
	} else {
		e.logger.WithFields(fields).Debug("batch finished")
	}
	return results
}

// evaluateItem runs one evaluation under the per-item deadline. The boolean
// reports whether the returned verdict is a placeholder.
func (e *Engine) evaluateItem(ctx context.Context, item domain.ContentItem, opts domain.Options) (domain.Verdict, bool) {
	if item.IsEmpty() {
		return domain.EmptyContentVerdict(), false
	}

	itemCtx, cancel := context.WithTimeout(ctx, e.cfg.ItemTimeout)
	defer cancel()

	type outcome struct {
		verdict     domain.Verdict
		placeholder bool
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				e.logger.WithFields(logrus.Fields{
					"fingerprint": item.Fingerprint().String(),
					"panic":       r,
				}).Error("evaluation panicked")
				prometheus.PlaceholdersTotal.WithLabelValues("failed").Inc()
				done <- outcome{domain.PlaceholderVerdict(domain.ReasonEvaluationFailed), true}
			}
		}()
		done <- outcome{verdict: e.evaluator.Evaluate(itemCtx, item, opts)}
	}()

	select {
	case out := <-done:
		return out.verdict, out.placeholder
	case <-itemCtx.Done():
		prometheus.PlaceholdersTotal.WithLabelValues("timeout").Inc()
		e.logger.WithField("fingerprint", item.Fingerprint().String()).Warn("evaluation deadline exceeded")
		return domain.PlaceholderVerdict(domain.ReasonTimeout), true
	}
}
