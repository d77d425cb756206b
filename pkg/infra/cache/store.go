package cache

import (
	"context"
	"errors"
	"time"
)

var ErrCacheMiss = errors.New("cache miss")

const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Store is the shared tier behind ResultCache. Get returns ErrCacheMiss for
// absent or expired keys, otherwise the value and its remaining lifetime
// (zero when the key never expires).
//
//go:generate mockery --name=Store --dir=. --output=./mocks --filename=store_mock.go --case=underscore
type Store interface {
	Get(ctx context.Context, key string) ([]byte, time.Duration, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// Clear removes every key under prefix and returns the number removed.
	Clear(ctx context.Context, prefix string) (int, error)
}

type memoryStore struct {
	entries *TTLMap
}

func NewMemoryStore(opts ...TTLMapOption) Store {
	return &memoryStore{entries: NewTTLMap(0, opts...)}
}

func (s *memoryStore) Get(_ context.Context, key string) ([]byte, time.Duration, error) {
	value, remaining, ok := s.entries.GetWithTTL(key)
	if !ok {
		return nil, 0, ErrCacheMiss
	}
	return value, remaining, nil
}

func (s *memoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.entries.SetWithTTL(key, value, ttl)
	return nil
}

func (s *memoryStore) Delete(_ context.Context, key string) error {
	s.entries.Delete(key)
	return nil
}

func (s *memoryStore) Clear(_ context.Context, prefix string) (int, error) {
	return s.entries.DeletePrefix(prefix), nil
}
