package ratelimit

import (
	"context"
	"errors"
	"time"
)

var ErrQuotaTimeout = errors.New("quota wait exceeded")

const (
	DefaultLimit  = 60
	DefaultWindow = time.Minute

	BackendMemory = "memory"
	BackendRedis  = "redis"
)

type Permit struct {
	GrantedAt time.Time
}

type Stats struct {
	Backend string        `json:"backend"`
	Used    int           `json:"used"`
	Limit   int           `json:"limit"`
	Window  time.Duration `json:"window"`
}

// Limiter grants at most Limit permits in any trailing Window.
//
//go:generate mockery --name=Limiter --dir=. --output=./mocks --filename=limiter_mock.go --case=underscore
type Limiter interface {
	// Acquire blocks until a permit is granted, maxWait elapses or ctx is
	// done. A caller that gives up consumes nothing.
	Acquire(ctx context.Context, maxWait time.Duration) (Permit, error)
	Stats(ctx context.Context) (Stats, error)
}

type Config struct {
	Backend           string        `mapstructure:"backend"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	Window            time.Duration `mapstructure:"window"`
	Key               string        `mapstructure:"key"`
}

func (c Config) limit() int {
	if c.RequestsPerMinute <= 0 {
		return DefaultLimit
	}
	return c.RequestsPerMinute
}

func (c Config) window() time.Duration {
	if c.Window <= 0 {
		return DefaultWindow
	}
	return c.Window
}

// waitFor sleeps d or until ctx is done.
func waitFor(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func withMaxWait(ctx context.Context, maxWait time.Duration) (context.Context, context.CancelFunc) {
	if maxWait <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, maxWait)
}
