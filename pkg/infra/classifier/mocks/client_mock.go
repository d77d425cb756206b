package mocks

import (
	"context"

	"github.com/NeuralTrust/NewsGuard/pkg/domain/moderation"
	"github.com/stretchr/testify/mock"
)

type Client struct {
	mock.Mock
}

func (m *Client) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *Client) Analyze(ctx context.Context, text string) (moderation.Scores, error) {
	args := m.Called(ctx, text)
	scores, _ := args.Get(0).(moderation.Scores) //nolint:errcheck
	return scores, args.Error(1)
}
