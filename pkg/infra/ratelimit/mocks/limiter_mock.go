package mocks

import (
	"context"
	"time"

	"github.com/NeuralTrust/NewsGuard/pkg/infra/ratelimit"
	"github.com/stretchr/testify/mock"
)

type Limiter struct {
	mock.Mock
}

func (m *Limiter) Acquire(ctx context.Context, maxWait time.Duration) (ratelimit.Permit, error) {
	args := m.Called(ctx, maxWait)
	permit, _ := args.Get(0).(ratelimit.Permit) //nolint:errcheck
	return permit, args.Error(1)
}

func (m *Limiter) Stats(ctx context.Context) (ratelimit.Stats, error) {
	args := m.Called(ctx)
	stats, _ := args.Get(0).(ratelimit.Stats) //nolint:errcheck
	return stats, args.Error(1)
}
