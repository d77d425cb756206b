package mocks

import (
	"context"

	"github.com/NeuralTrust/NewsGuard/pkg/domain/moderation"
	"github.com/stretchr/testify/mock"
)

type Service struct {
	mock.Mock
}

func (m *Service) Evaluate(ctx context.Context, item moderation.ContentItem, opts moderation.Options) moderation.Verdict {
	args := m.Called(ctx, item, opts)
	verdict, _ := args.Get(0).(moderation.Verdict) //nolint:errcheck
	return verdict
}

func (m *Service) EvaluateAll(ctx context.Context, items []moderation.ContentItem, opts moderation.Options) []moderation.Verdict {
	args := m.Called(ctx, items, opts)
	verdicts, _ := args.Get(0).([]moderation.Verdict) //nolint:errcheck
	return verdicts
}
