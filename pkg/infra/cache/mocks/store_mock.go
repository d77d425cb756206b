package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

type Store struct {
	mock.Mock
}

func (m *Store) Get(ctx context.Context, key string) ([]byte, time.Duration, error) {
	args := m.Called(ctx, key)
	var value []byte
	if v := args.Get(0); v != nil {
		value = v.([]byte) //nolint:errcheck
	}
	return value, args.Get(1).(time.Duration), args.Error(2) //nolint:errcheck
}

func (m *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *Store) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *Store) Clear(ctx context.Context, prefix string) (int, error) {
	args := m.Called(ctx, prefix)
	return args.Int(0), args.Error(1)
}
