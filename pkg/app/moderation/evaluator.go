package moderation

import (
	"context"
	"strings"
	"time"

	"github.com/NeuralTrust/NewsGuard/pkg/app/classification"
	"github.com/NeuralTrust/NewsGuard/pkg/app/heuristics"
	domain "github.com/NeuralTrust/NewsGuard/pkg/domain/moderation"
	"github.com/NeuralTrust/NewsGuard/pkg/domain/telemetry"
	"github.com/NeuralTrust/NewsGuard/pkg/infra/metrics"
	"github.com/NeuralTrust/NewsGuard/pkg/infra/prometheus"
	"github.com/sirupsen/logrus"
)

const unavailableConfidence = 0.5

//go:generate mockery --name=Evaluator --dir=. --output=./mocks --filename=evaluator_mock.go --case=underscore
type Evaluator interface {
	Evaluate(ctx context.Context, item domain.ContentItem, opts domain.Options) domain.Verdict
}

// evaluator fuses the classifier signal with the heuristic scanners.
type evaluator struct {
	classifier classification.Classifier
	scanner    heuristics.Scanner
	cache      domain.VerdictCache
	worker     metrics.Worker
	policy     Policy
	logger     *logrus.Logger
}

func NewEvaluator(
	classifier classification.Classifier,
	scanner heuristics.Scanner,
	cache domain.VerdictCache,
	worker metrics.Worker,
	policy Policy,
	logger *logrus.Logger,
) Evaluator {
	return &evaluator{
		classifier: classifier,
		scanner:    scanner,
		cache:      cache,
		worker:     worker,
		policy:     policy.WithDefaults(),
		logger:     logger,
	}
}

func (e *evaluator) Evaluate(ctx context.Context, item domain.ContentItem, opts domain.Options) domain.Verdict {
	if item.IsEmpty() {
		return domain.EmptyContentVerdict()
	}

	start := time.Now()
	key := opts.CacheKey(item.Fingerprint())
	if v, ok := e.cache.Get(ctx, key); ok {
		prometheus.CacheLookupsTotal.WithLabelValues("verdict", "hit").Inc()
		return v
	}
	prometheus.CacheLookupsTotal.WithLabelValues("verdict", "miss").Inc()

	text := item.Text()
	result := e.classifier.Classify(ctx, text)

	v := domain.Verdict{
		Categories: []string{},
		Reasons:    []string{},
	}
	if result.OK() {
		e.applyScores(&v, result.Scores, opts)
		e.crossCheckKeywords(&v, result.Scores, text)
	} else {
		e.applyUnavailable(&v, result, opts)
	}
	if opts.CheckCopyright {
		e.applyCopyright(&v, text)
	}
	v.Finalize()

	if cacheable(result) {
		e.cache.Put(ctx, key, v)
	}
	e.record(start, key, item, opts, result, v)
	return v
}

func (e *evaluator) applyScores(v *domain.Verdict, scores domain.Scores, opts domain.Options) {
	p := e.policy

	if category, score := scores.Max(p.CriticalCategories...); score > p.CriticalThreshold {
		v.RiskLevel = domain.RiskProhibited
		v.IsBlocked = true
		v.Confidence = score
		v.AddCategory(category)
		v.AddReason("%s score %.0f%% exceeds critical threshold", category, score*100)
		for _, other := range p.CriticalCategories {
			if other != category && scores.Get(other) > p.CriticalThreshold {
				v.AddCategory(other)
			}
		}
		return
	}

	category, score := scores.Max(p.CriticalCategories...)
	if score <= p.HighThreshold && scores.Overall > p.HighThreshold {
		category, score = scores.Top()
	}
	if score > p.HighThreshold {
		v.RiskLevel = domain.RiskHigh
		v.Confidence = score
		v.AddCategory(category)
		v.AddReason("%s score %.0f%% exceeds high-risk threshold", category, score*100)
		if !opts.StrictMode {
			return
		}
		if signals := p.strictSignals(scores); len(signals) >= p.StrictMinSignals {
			v.RiskLevel = domain.RiskProhibited
			v.IsBlocked = true
			v.AddCategory(signals...)
			v.AddReason("strict mode: blocked on %s", strings.Join(signals, ", "))
		}
		return
	}

	if category, score := scores.Max(p.MediumCategories...); score > p.MediumThreshold {
		v.RiskLevel = domain.RiskMedium
		v.Confidence = score
		v.AddCategory(category)
		v.AddReason("%s score %.0f%% exceeds review threshold", category, score*100)
		return
	}

	v.RiskLevel = domain.RiskLow
	v.Confidence = 1 - max(scores.Get(domain.CategoryToxicity), scores.Get(domain.CategorySevereToxicity))
}

func (e *evaluator) applyUnavailable(v *domain.Verdict, result domain.ClassifierResult, opts domain.Options) {
	v.Confidence = unavailableConfidence
	if opts.AllowUnconfirmed {
		v.RiskLevel = domain.RiskLow
		v.AddReason(domain.ReasonUnconfirmedAllowed)
	} else {
		v.RiskLevel = domain.RiskMedium
		v.AddReason(domain.ReasonClassifierUnavailable)
	}
	if result.Reason != "" {
		v.AddReason("classifier %s: %s", result.Outcome, result.Reason)
	}
}

// Keyword hits only count when the classifier itself saw something.
func (e *evaluator) crossCheckKeywords(v *domain.Verdict, scores domain.Scores, text string) {
	if !scores.AnyAbove(e.policy.CorroborationThreshold) {
		return
	}
	kw := e.scanner.ScanKeywords(text)
	if !kw.Found {
		return
	}
	v.AddCategory(kw.Categories...)
	v.AddReason("keyword signals corroborated by classifier: %s", strings.Join(kw.Categories, ", "))
}

func (e *evaluator) applyCopyright(v *domain.Verdict, text string) {
	cr := e.scanner.ScanCopyright(text)
	if !cr.Risk {
		return
	}
	v.CopyrightRisk = true
	v.CopyrightMatches = cr.Matches
	v.AddCategory(domain.CategoryCopyright)
	v.AddReason("possible copyrighted material: %s", strings.Join(cr.Matches, "; "))
	if v.RiskLevel == domain.RiskLow {
		v.RiskLevel = domain.RiskMedium
	}
}

// Transient classifier failures are not cached so a recovered classifier
// gets a chance on the next request.
func cacheable(result domain.ClassifierResult) bool {
	return result.OK() || result.Reason == classification.ReasonTextTooShort
}

func (e *evaluator) record(
	start time.Time,
	key domain.Fingerprint,
	item domain.ContentItem,
	opts domain.Options,
	result domain.ClassifierResult,
	v domain.Verdict,
) {
	e.logger.WithFields(logrus.Fields{
		"fingerprint": key.String(),
		"risk_level":  v.RiskLevel.String(),
		"blocked":     v.IsBlocked,
		"classifier":  result.Outcome.String(),
	}).Debug("verdict computed")

	if e.worker == nil {
		return
	}
	evt := telemetry.NewVerdictEvent(start)
	evt.Fingerprint = key.String()
	evt.Source = item.Source
	evt.Provider = e.classifier.Provider()
	evt.ClassifierResult = result.Outcome.String()
	evt.RiskLevel = v.RiskLevel.String()
	evt.IsSafe = v.IsSafe
	evt.IsBlocked = v.IsBlocked
	evt.Categories = v.Categories
	evt.CopyrightRisk = v.CopyrightRisk
	evt.Confidence = v.Confidence
	evt.StrictMode = opts.StrictMode
	e.worker.Record(evt)
}
