package mocks

import (
	"context"

	"github.com/NeuralTrust/NewsGuard/pkg/domain/moderation"
	"github.com/stretchr/testify/mock"
)

type Classifier struct {
	mock.Mock
}

func (m *Classifier) Classify(ctx context.Context, text string) moderation.ClassifierResult {
	args := m.Called(ctx, text)
	if fn, ok := args.Get(0).(func(context.Context, string) moderation.ClassifierResult); ok {
		return fn(ctx, text)
	}
	result, _ := args.Get(0).(moderation.ClassifierResult) //nolint:errcheck
	return result
}

func (m *Classifier) Provider() string {
	args := m.Called()
	return args.String(0)
}
