package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type SlidingWindowOption func(*SlidingWindow)

func WithTimeProvider(now func() time.Time) SlidingWindowOption {
	return func(w *SlidingWindow) {
		w.now = now
	}
}

// SlidingWindow is the in-process Limiter. Timestamps of granted permits are
// kept in grant order and pruned on every access.
type SlidingWindow struct {
	mu         sync.Mutex
	timestamps []time.Time
	limit      int
	window     time.Duration
	now        func() time.Time
}

var _ Limiter = (*SlidingWindow)(nil)

func NewSlidingWindow(limit int, window time.Duration, opts ...SlidingWindowOption) *SlidingWindow {
	w := &SlidingWindow{
		limit:      limit,
		window:     window,
		timestamps: make([]time.Time, 0, limit),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *SlidingWindow) Acquire(ctx context.Context, maxWait time.Duration) (Permit, error) {
	ctx, cancel := withMaxWait(ctx, maxWait)
	defer cancel()

	for {
		permit, wait, ok := w.tryAcquire()
		if ok {
			return permit, nil
		}
		if err := waitFor(ctx, wait); err != nil {
			return Permit{}, fmt.Errorf("%w: %v", ErrQuotaTimeout, err)
		}
	}
}

// tryAcquire prunes, checks and records in one critical section. On refusal
// it returns how long until the oldest permit leaves the window.
func (w *SlidingWindow) tryAcquire() (Permit, time.Duration, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	w.prune(now)
	if len(w.timestamps) < w.limit {
		w.timestamps = append(w.timestamps, now)
		return Permit{GrantedAt: now}, 0, true
	}
	if len(w.timestamps) == 0 {
		// limit <= 0: nothing will ever free up
		return Permit{}, w.window, false
	}
	wait := w.window - now.Sub(w.timestamps[0])
	if wait < time.Millisecond {
		wait = time.Millisecond
	}
	return Permit{}, wait, false
}

func (w *SlidingWindow) prune(now time.Time) {
	i := 0
	for i < len(w.timestamps) && now.Sub(w.timestamps[i]) >= w.window {
		i++
	}
	if i > 0 {
		w.timestamps = append(w.timestamps[:0], w.timestamps[i:]...)
	}
}

func (w *SlidingWindow) Stats(_ context.Context) (Stats, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.prune(w.now())
	return Stats{
		Backend: BackendMemory,
		Used:    len(w.timestamps),
		Limit:   w.limit,
		Window:  w.window,
	}, nil
}
