package moderation_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/NeuralTrust/NewsGuard/pkg/app/classification"
	classificationMocks "github.com/NeuralTrust/NewsGuard/pkg/app/classification/mocks"
	"github.com/NeuralTrust/NewsGuard/pkg/app/heuristics"
	"github.com/NeuralTrust/NewsGuard/pkg/app/moderation"
	domain "github.com/NeuralTrust/NewsGuard/pkg/domain/moderation"
	"github.com/NeuralTrust/NewsGuard/pkg/domain/telemetry"
	"github.com/NeuralTrust/NewsGuard/pkg/infra/cache"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type recordingWorker struct {
	mu     sync.Mutex
	events []*telemetry.VerdictEvent
}

func (w *recordingWorker) StartWorkers(int) {}
func (w *recordingWorker) Shutdown()        {}
func (w *recordingWorker) Record(evt *telemetry.VerdictEvent) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.events = append(w.events, evt)
}

type evaluatorFixture struct {
	classifier *classificationMocks.Classifier
	worker     *recordingWorker
	subject    moderation.Evaluator
}

func newEvaluatorFixture(t *testing.T) *evaluatorFixture {
	t.Helper()
	c := new(classificationMocks.Classifier)
	c.On("Provider").Return("perspective").Maybe()
	verdicts := cache.NewResultCache[domain.Verdict](cache.VerdictNamespace, cache.NewMemoryStore(), time.Hour, logrus.New())
	worker := &recordingWorker{}
	return &evaluatorFixture{
		classifier: c,
		worker:     worker,
		subject: moderation.NewEvaluator(
			c, heuristics.NewScanner(), verdicts, worker, moderation.DefaultPolicy(), logrus.New(),
		),
	}
}

func (f *evaluatorFixture) scores(values map[string]float64) {
	f.classifier.On("Classify", mock.Anything, mock.Anything).
		Return(domain.Scored(domain.NewScores(values)))
}

func item(title, summary string) domain.ContentItem {
	return domain.ContentItem{Title: title, Summary: summary, Source: "wire"}
}

var calmItem = item("City council approves budget", "The vote passed after a long debate on Tuesday.")

func TestEvaluate_EmptyContentBlocksWithoutClassifier(t *testing.T) {
	f := newEvaluatorFixture(t)

	v := f.subject.Evaluate(context.Background(), item("  ", "\n"), domain.DefaultOptions())

	assert.True(t, v.IsBlocked)
	assert.False(t, v.IsSafe)
	assert.Equal(t, domain.RiskProhibited, v.RiskLevel)
	assert.Equal(t, []string{domain.ReasonEmptyContent}, v.Reasons)
	f.classifier.AssertNotCalled(t, "Classify", mock.Anything, mock.Anything)
}

func TestEvaluate_Tiers(t *testing.T) {
	tests := []struct {
		name       string
		scores     map[string]float64
		opts       domain.Options
		risk       domain.RiskLevel
		blocked    bool
		category   string
		confidence float64
	}{
		{
			name:       "critical category blocks",
			scores:     map[string]float64{domain.CategorySevereToxicity: 0.9, domain.CategoryToxicity: 0.95},
			risk:       domain.RiskProhibited,
			blocked:    true,
			category:   domain.CategorySevereToxicity,
			confidence: 0.9,
		},
		{
			name:       "threshold is exclusive",
			scores:     map[string]float64{domain.CategoryThreat: 0.85},
			risk:       domain.RiskHigh,
			category:   domain.CategoryThreat,
			confidence: 0.85,
		},
		{
			name:       "overall toxicity is high risk",
			scores:     map[string]float64{domain.CategoryToxicity: 0.8},
			risk:       domain.RiskHigh,
			category:   domain.CategoryToxicity,
			confidence: 0.8,
		},
		{
			name:       "strict mode escalates with a strict signal",
			scores:     map[string]float64{domain.CategoryIdentityAttack: 0.8},
			opts:       domain.Options{StrictMode: true},
			risk:       domain.RiskProhibited,
			blocked:    true,
			category:   domain.CategoryIdentityAttack,
			confidence: 0.8,
		},
		{
			name:       "strict mode needs a strict category",
			scores:     map[string]float64{domain.CategoryToxicity: 0.8},
			opts:       domain.Options{StrictMode: true},
			risk:       domain.RiskHigh,
			category:   domain.CategoryToxicity,
			confidence: 0.8,
		},
		{
			name:       "insult is medium",
			scores:     map[string]float64{domain.CategoryInsult: 0.65},
			risk:       domain.RiskMedium,
			category:   domain.CategoryInsult,
			confidence: 0.65,
		},
		{
			name:       "low scores are low risk",
			scores:     map[string]float64{domain.CategoryToxicity: 0.1, domain.CategorySevereToxicity: 0.2},
			risk:       domain.RiskLow,
			confidence: 0.8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newEvaluatorFixture(t)
			f.scores(tt.scores)

			v := f.subject.Evaluate(context.Background(), calmItem, tt.opts)

			assert.Equal(t, tt.risk, v.RiskLevel)
			assert.Equal(t, tt.blocked, v.IsBlocked)
			assert.Equal(t, !tt.blocked, v.IsSafe)
			assert.InDelta(t, tt.confidence, v.Confidence, 1e-9)
			if tt.category != "" {
				assert.Contains(t, v.Categories, tt.category)
				require.NotEmpty(t, v.Reasons)
			}
		})
	}
}

func TestEvaluate_NeverBlocksBelowCriticalWithoutStrictMode(t *testing.T) {
	for _, score := range []float64{0, 0.3, 0.5, 0.61, 0.75, 0.76, 0.85} {
		for _, category := range []string{
			domain.CategoryToxicity, domain.CategorySevereToxicity, domain.CategoryThreat,
			domain.CategoryIdentityAttack, domain.CategorySexuallyExplicit, domain.CategoryInsult,
		} {
			f := newEvaluatorFixture(t)
			f.scores(map[string]float64{category: score})

			v := f.subject.Evaluate(context.Background(), calmItem, domain.DefaultOptions())
			assert.False(t, v.IsBlocked, "%s=%v", category, score)
			assert.True(t, v.IsSafe, "%s=%v", category, score)
		}
	}
}

func TestEvaluate_ClassifierUnavailableFailsOpenForReview(t *testing.T) {
	f := newEvaluatorFixture(t)
	f.classifier.On("Classify", mock.Anything, mock.Anything).
		Return(domain.Unavailable(classification.ReasonBreakerOpen))

	v := f.subject.Evaluate(context.Background(), calmItem, domain.Options{})

	assert.Equal(t, domain.RiskMedium, v.RiskLevel)
	assert.True(t, v.IsSafe)
	assert.False(t, v.IsBlocked)
	assert.Equal(t, 0.5, v.Confidence)
	require.NotEmpty(t, v.Reasons)
	assert.Equal(t, domain.ReasonClassifierUnavailable, v.Reasons[0])
}

func TestEvaluate_AllowUnconfirmed(t *testing.T) {
	f := newEvaluatorFixture(t)
	f.classifier.On("Classify", mock.Anything, mock.Anything).
		Return(domain.TimedOut(classification.ReasonQuotaExceeded))

	v := f.subject.Evaluate(context.Background(), calmItem, domain.Options{AllowUnconfirmed: true})

	assert.Equal(t, domain.RiskLow, v.RiskLevel)
	assert.True(t, v.IsSafe)
	assert.Equal(t, domain.ReasonUnconfirmedAllowed, v.Reasons[0])
}

func TestEvaluate_KeywordsNeedClassifierCorroboration(t *testing.T) {
	violent := item("Gunman opens fire", "Police report a shooting near the station.")

	t.Run("corroborated", func(t *testing.T) {
		f := newEvaluatorFixture(t)
		f.scores(map[string]float64{domain.CategoryToxicity: 0.55})

		v := f.subject.Evaluate(context.Background(), violent, domain.Options{})
		assert.Contains(t, v.Categories, heuristics.CategoryViolence)
		assert.False(t, v.IsBlocked)
	})

	t.Run("classifier quiet", func(t *testing.T) {
		f := newEvaluatorFixture(t)
		f.scores(map[string]float64{domain.CategoryToxicity: 0.2})

		v := f.subject.Evaluate(context.Background(), violent, domain.Options{})
		assert.NotContains(t, v.Categories, heuristics.CategoryViolence)
		assert.Equal(t, domain.RiskLow, v.RiskLevel)
	})

	t.Run("classifier unavailable", func(t *testing.T) {
		f := newEvaluatorFixture(t)
		f.classifier.On("Classify", mock.Anything, mock.Anything).
			Return(domain.Unavailable(classification.ReasonNoCredential))

		v := f.subject.Evaluate(context.Background(), violent, domain.Options{})
		assert.NotContains(t, v.Categories, heuristics.CategoryViolence)
		assert.False(t, v.IsBlocked)
	})
}

func TestEvaluate_CopyrightRaisesLowToMedium(t *testing.T) {
	reprint := item("Quarterly outlook", "Copyright 2024 Example Media. All rights reserved.")

	f := newEvaluatorFixture(t)
	f.scores(map[string]float64{domain.CategoryToxicity: 0.05})

	v := f.subject.Evaluate(context.Background(), reprint, domain.Options{CheckCopyright: true})
	assert.True(t, v.CopyrightRisk)
	assert.NotEmpty(t, v.CopyrightMatches)
	assert.Contains(t, v.Categories, domain.CategoryCopyright)
	assert.Equal(t, domain.RiskMedium, v.RiskLevel)
	assert.False(t, v.IsBlocked)

	v = f.subject.Evaluate(context.Background(), reprint, domain.Options{})
	assert.False(t, v.CopyrightRisk)
	assert.Equal(t, domain.RiskLow, v.RiskLevel)
}

func TestEvaluate_CachedVerdictSkipsClassifier(t *testing.T) {
	f := newEvaluatorFixture(t)
	f.classifier.On("Classify", mock.Anything, mock.Anything).
		Return(domain.Scored(domain.NewScores(map[string]float64{domain.CategoryInsult: 0.7}))).Once()

	first := f.subject.Evaluate(context.Background(), calmItem, domain.DefaultOptions())
	second := f.subject.Evaluate(context.Background(), calmItem, domain.DefaultOptions())

	assert.Equal(t, first, second)
	f.classifier.AssertNumberOfCalls(t, "Classify", 1)
	assert.Len(t, f.worker.events, 1)
	assert.Equal(t, "medium", f.worker.events[0].RiskLevel)
}

func TestEvaluate_OptionsAreCachedSeparately(t *testing.T) {
	f := newEvaluatorFixture(t)
	f.scores(map[string]float64{domain.CategoryThreat: 0.8})

	lenient := f.subject.Evaluate(context.Background(), calmItem, domain.Options{})
	strict := f.subject.Evaluate(context.Background(), calmItem, domain.Options{StrictMode: true})

	assert.Equal(t, domain.RiskHigh, lenient.RiskLevel)
	assert.Equal(t, domain.RiskProhibited, strict.RiskLevel)
	f.classifier.AssertNumberOfCalls(t, "Classify", 2)
}

func TestEvaluate_UnavailableVerdictIsNotCached(t *testing.T) {
	f := newEvaluatorFixture(t)
	f.classifier.On("Classify", mock.Anything, mock.Anything).
		Return(domain.Unavailable(classification.ReasonRequestFailed))

	f.subject.Evaluate(context.Background(), calmItem, domain.Options{})
	f.subject.Evaluate(context.Background(), calmItem, domain.Options{})

	f.classifier.AssertNumberOfCalls(t, "Classify", 2)
}

func TestPolicy_WithDefaults(t *testing.T) {
	p := moderation.Policy{HighThreshold: 0.7}.WithDefaults()

	assert.Equal(t, 0.7, p.HighThreshold)
	assert.Equal(t, 0.85, p.CriticalThreshold)
	assert.Equal(t, 1, p.StrictMinSignals)
	assert.ElementsMatch(t, moderation.DefaultPolicy().CriticalCategories, p.CriticalCategories)
}

func TestEvaluate_HighRiskNamesTheCategoryThatScored(t *testing.T) {
	f := newEvaluatorFixture(t)
	f.scores(map[string]float64{
		domain.CategoryToxicity: 0.3,
		domain.CategoryInsult:   0.8,
		"violence":              0.4,
	})

	v := f.subject.Evaluate(context.Background(), calmItem, domain.DefaultOptions())

	assert.Equal(t, domain.RiskHigh, v.RiskLevel)
	assert.InDelta(t, 0.8, v.Confidence, 1e-9)
	assert.Contains(t, v.Categories, domain.CategoryInsult)
	assert.NotContains(t, v.Categories, domain.CategoryToxicity)
	require.NotEmpty(t, v.Reasons)
	assert.Contains(t, v.Reasons[0], "insult score 80%")
}
