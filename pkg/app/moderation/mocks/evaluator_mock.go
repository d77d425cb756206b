package mocks

import (
	"context"

	"github.com/NeuralTrust/NewsGuard/pkg/domain/moderation"
	"github.com/stretchr/testify/mock"
)

type Evaluator struct {
	mock.Mock
}

func (m *Evaluator) Evaluate(ctx context.Context, item moderation.ContentItem, opts moderation.Options) moderation.Verdict {
	args := m.Called(ctx, item, opts)
	if fn, ok := args.Get(0).(func(context.Context, moderation.ContentItem, moderation.Options) moderation.Verdict); ok {
		return fn(ctx, item, opts)
	}
	verdict, _ := args.Get(0).(moderation.Verdict) //nolint:errcheck
	return verdict
}
