package ratelimit

import (
	"fmt"

	"github.com/go-redis/redis/v8"
)

// New builds the limiter for cfg.Backend. The redis backend needs a client.
func New(cfg Config, client *redis.Client) (Limiter, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return NewSlidingWindow(cfg.limit(), cfg.window()), nil
	case BackendRedis:
		if client == nil {
			return nil, fmt.Errorf("quota backend %q requires a redis client", BackendRedis)
		}
		return NewRedisWindow(client, cfg.Key, cfg.limit(), cfg.window()), nil
	default:
		return nil, fmt.Errorf("unknown quota backend %q", cfg.Backend)
	}
}
