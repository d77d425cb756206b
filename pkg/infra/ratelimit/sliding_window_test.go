package ratelimit_test

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/NeuralTrust/NewsGuard/pkg/infra/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlidingWindow_GrantsUpToLimit(t *testing.T) {
	limiter := ratelimit.NewSlidingWindow(3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := limiter.Acquire(ctx, 10*time.Millisecond)
		require.NoError(t, err)
	}

	stats, err := limiter.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Used)
	assert.Equal(t, 3, stats.Limit)
	assert.Equal(t, time.Minute, stats.Window)
	assert.Equal(t, ratelimit.BackendMemory, stats.Backend)
}

func TestSlidingWindow_TimeoutDoesNotConsume(t *testing.T) {
	limiter := ratelimit.NewSlidingWindow(1, time.Minute)
	ctx := context.Background()

	_, err := limiter.Acquire(ctx, 10*time.Millisecond)
	require.NoError(t, err)

	start := time.Now()
	_, err = limiter.Acquire(ctx, 50*time.Millisecond)
	assert.ErrorIs(t, err, ratelimit.ErrQuotaTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	assert.Less(t, time.Since(start), time.Second)

	stats, _ := limiter.Stats(ctx)
	assert.Equal(t, 1, stats.Used)
}

func TestSlidingWindow_ContextCancel(t *testing.T) {
	limiter := ratelimit.NewSlidingWindow(1, time.Minute)
	_, err := limiter.Acquire(context.Background(), 0)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err = limiter.Acquire(ctx, 5*time.Second)
	assert.ErrorIs(t, err, ratelimit.ErrQuotaTimeout)
}

func TestSlidingWindow_WaiterProceedsWhenSlotFrees(t *testing.T) {
	window := 100 * time.Millisecond
	limiter := ratelimit.NewSlidingWindow(1, window)
	ctx := context.Background()

	first, err := limiter.Acquire(ctx, 0)
	require.NoError(t, err)

	second, err := limiter.Acquire(ctx, time.Second)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, second.GrantedAt.Sub(first.GrantedAt), window)
}

func TestSlidingWindow_PrunesWithInjectedClock(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	limiter := ratelimit.NewSlidingWindow(2, time.Minute, ratelimit.WithTimeProvider(func() time.Time { return now }))
	ctx := context.Background()

	_, _ = limiter.Acquire(ctx, 0)
	_, _ = limiter.Acquire(ctx, 0)
	stats, _ := limiter.Stats(ctx)
	assert.Equal(t, 2, stats.Used)

	now = now.Add(time.Minute)
	stats, _ = limiter.Stats(ctx)
	assert.Equal(t, 0, stats.Used)
}

// No trailing window ever holds more than limit grants.
func TestSlidingWindow_ConcurrentInvariant(t *testing.T) {
	const (
		limit   = 5
		callers = 20
	)
	window := 150 * time.Millisecond
	limiter := ratelimit.NewSlidingWindow(limit, window)

	var (
		mu     sync.Mutex
		grants []time.Time
		wg     sync.WaitGroup
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			permit, err := limiter.Acquire(context.Background(), 2*time.Second)
			if err != nil {
				return
			}
			mu.Lock()
			grants = append(grants, permit.GrantedAt)
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, grants, callers)
	sort.Slice(grants, func(i, j int) bool { return grants[i].Before(grants[j]) })
	for i, end := range grants {
		inWindow := 0
		for _, g := range grants[:i+1] {
			if end.Sub(g) < window {
				inWindow++
			}
		}
		assert.LessOrEqual(t, inWindow, limit, "window ending at grant %d", i)
	}
}
