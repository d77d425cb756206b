package moderation_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/NeuralTrust/NewsGuard/pkg/app/moderation"
	"github.com/NeuralTrust/NewsGuard/pkg/app/moderation/mocks"
	domain "github.com/NeuralTrust/NewsGuard/pkg/domain/moderation"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type evaluateFunc = func(context.Context, domain.ContentItem, domain.Options) domain.Verdict

func newEngine(fn evaluateFunc, cfg moderation.EngineConfig) (*moderation.Engine, *mocks.Evaluator) {
	evaluator := new(mocks.Evaluator)
	evaluator.On("Evaluate", mock.Anything, mock.Anything, mock.Anything).Return(fn)
	return moderation.NewEngine(evaluator, cfg, logrus.New()), evaluator
}

func fastConfig() moderation.EngineConfig {
	return moderation.EngineConfig{
		ItemTimeout:    500 * time.Millisecond,
		BatchTimeout:   2 * time.Second,
		MaxConcurrency: 4,
		PacingInterval: 0,
	}
}

func numbered(n int) []domain.ContentItem {
	items := make([]domain.ContentItem, n)
	for i := range items {
		items[i] = domain.ContentItem{Title: fmt.Sprintf("headline %d", i), Summary: "body text"}
	}
	return items
}

func echoTitle(_ context.Context, it domain.ContentItem, _ domain.Options) domain.Verdict {
	return domain.Verdict{IsSafe: true, RiskLevel: domain.RiskLow, Reasons: []string{it.Title}}
}

func TestEvaluateAll_IndexAligned(t *testing.T) {
	items := numbered(30)
	items[7] = domain.ContentItem{Title: " ", Summary: ""}
	engine, evaluator := newEngine(echoTitle, fastConfig())

	verdicts := engine.EvaluateAll(context.Background(), items, domain.DefaultOptions())

	require.Len(t, verdicts, len(items))
	for i, v := range verdicts {
		if i == 7 {
			assert.True(t, v.IsBlocked)
			assert.Equal(t, []string{domain.ReasonEmptyContent}, v.Reasons)
			continue
		}
		assert.Equal(t, []string{items[i].Title}, v.Reasons, "index %d", i)
	}
	evaluator.AssertNumberOfCalls(t, "Evaluate", len(items)-1)
}

func TestEvaluateAll_EmptyBatch(t *testing.T) {
	engine, _ := newEngine(echoTitle, fastConfig())
	assert.Empty(t, engine.EvaluateAll(context.Background(), nil, domain.Options{}))
}

func TestEvaluateAll_BoundedConcurrency(t *testing.T) {
	var inFlight, peak int64
	fn := func(_ context.Context, it domain.ContentItem, opts domain.Options) domain.Verdict {
		n := atomic.AddInt64(&inFlight, 1)
		for {
			p := atomic.LoadInt64(&peak)
			if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt64(&inFlight, -1)
		return echoTitle(context.TODO(), it, opts)
	}
	cfg := fastConfig()
	cfg.MaxConcurrency = 3
	engine, _ := newEngine(fn, cfg)

	verdicts := engine.EvaluateAll(context.Background(), numbered(20), domain.Options{})

	require.Len(t, verdicts, 20)
	assert.LessOrEqual(t, atomic.LoadInt64(&peak), int64(3))
}

func TestEvaluateAll_StalledClassifierYieldsPlaceholders(t *testing.T) {
	stall := func(ctx context.Context, _ domain.ContentItem, _ domain.Options) domain.Verdict {
		<-ctx.Done()
		time.Sleep(50 * time.Millisecond)
		return domain.Verdict{RiskLevel: domain.RiskHigh}
	}
	cfg := moderation.EngineConfig{
		ItemTimeout:    100 * time.Millisecond,
		BatchTimeout:   300 * time.Millisecond,
		MaxConcurrency: 2,
		PacingInterval: time.Millisecond,
	}
	engine, _ := newEngine(stall, cfg)
	items := numbered(40)

	start := time.Now()
	verdicts := engine.EvaluateAll(context.Background(), items, domain.Options{})
	elapsed := time.Since(start)

	require.Len(t, verdicts, len(items))
	assert.Less(t, elapsed, time.Second)
	for _, v := range verdicts {
		assert.Equal(t, domain.PlaceholderVerdict(domain.ReasonTimeout), v)
	}
}

func TestEvaluateAll_PanicBecomesPlaceholder(t *testing.T) {
	fn := func(ctx context.Context, it domain.ContentItem, opts domain.Options) domain.Verdict {
		if it.Title == "headline 2" {
			panic("boom")
		}
		return echoTitle(ctx, it, opts)
	}
	engine, _ := newEngine(fn, fastConfig())

	verdicts := engine.EvaluateAll(context.Background(), numbered(5), domain.Options{})

	require.Len(t, verdicts, 5)
	assert.Equal(t, domain.PlaceholderVerdict(domain.ReasonEvaluationFailed), verdicts[2])
	assert.Equal(t, []string{"headline 4"}, verdicts[4].Reasons)
}

func TestEvaluateAll_CancelledContext(t *testing.T) {
	engine, evaluator := newEngine(echoTitle, fastConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	verdicts := engine.EvaluateAll(ctx, numbered(10), domain.Options{})

	require.Len(t, verdicts, 10)
	for _, v := range verdicts {
		assert.True(t, v.IsSafe)
		assert.False(t, v.IsBlocked)
	}
	evaluator.AssertNotCalled(t, "Evaluate", mock.Anything, mock.Anything, mock.Anything)
}

func TestEvaluate_ItemDeadline(t *testing.T) {
	stall := func(ctx context.Context, _ domain.ContentItem, _ domain.Options) domain.Verdict {
		<-ctx.Done()
		return domain.Verdict{RiskLevel: domain.RiskHigh}
	}
	cfg := fastConfig()
	cfg.ItemTimeout = 50 * time.Millisecond
	engine, _ := newEngine(stall, cfg)

	v := engine.Evaluate(context.Background(), calmItem, domain.Options{})

	assert.Equal(t, domain.PlaceholderVerdict(domain.ReasonTimeout), v)
}

func TestEvaluate_EmptyItemSkipsEvaluator(t *testing.T) {
	engine, evaluator := newEngine(echoTitle, fastConfig())

	v := engine.Evaluate(context.Background(), domain.ContentItem{}, domain.Options{})

	assert.Equal(t, domain.EmptyContentVerdict(), v)
	evaluator.AssertNotCalled(t, "Evaluate", mock.Anything, mock.Anything, mock.Anything)
}

func TestEngineConfig_WithDefaults(t *testing.T) {
	cfg := moderation.EngineConfig{}.WithDefaults()
	assert.Equal(t, moderation.DefaultEngineConfig(), cfg)
}
