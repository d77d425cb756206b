package cache

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

const scanBatchSize = 100

type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
	TLS      bool
}

// Client is the Redis-backed Store. The raw client is exposed so the quota
// limiter can share the connection pool.
type Client struct {
	redisClient *redis.Client
	opTimeout   time.Duration
}

func NewRedisClient(config Config) *redis.Client {
	options := &redis.Options{
		Addr:     fmt.Sprintf("%s:%d", config.Host, config.Port),
		Password: config.Password,
		DB:       config.DB,
	}
	if config.TLS {
		options.TLSConfig = &tls.Config{
			InsecureSkipVerify: true, // #nosec G402
		}
	}
	return redis.NewClient(options)
}

func NewClient(config Config, logger *logrus.Logger) (*Client, error) {
	redisClient := NewRedisClient(config)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.WithFields(logrus.Fields{
			"host":  config.Host,
			"port":  config.Port,
			"error": err.Error(),
		}).Error("failed to connect to redis")
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"host": config.Host,
		"port": config.Port,
	}).Info("redis connected successfully")

	return NewClientFromRedis(redisClient), nil
}

func NewClientFromRedis(redisClient *redis.Client) *Client {
	return &Client{
		redisClient: redisClient,
		opTimeout:   2 * time.Second,
	}
}

func (c *Client) Get(ctx context.Context, key string) ([]byte, time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()
	value, err := c.redisClient.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, 0, ErrCacheMiss
	}
	if err != nil {
		return nil, 0, err
	}
	// PTTL is -1 without expiry and -2 once the key is gone.
	remaining, err := c.redisClient.PTTL(ctx, key).Result()
	switch {
	case err != nil:
		return nil, 0, fmt.Errorf("error reading ttl: %w", err)
	case remaining == -2:
		return nil, 0, ErrCacheMiss
	case remaining < 0:
		remaining = 0
	}
	return value, remaining, nil
}

func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()
	return c.redisClient.Set(ctx, key, value, ttl).Err()
}

func (c *Client) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()
	return c.redisClient.Del(ctx, key).Err()
}

func (c *Client) Clear(ctx context.Context, prefix string) (int, error) {
	pattern := prefix + "*"
	var (
		cursor  uint64
		removed int
	)
	for {
		keys, nextCursor, err := c.redisClient.Scan(ctx, cursor, pattern, scanBatchSize).Result()
		if err != nil {
			return removed, fmt.Errorf("error scanning keys: %w", err)
		}
		if len(keys) > 0 {
			n, err := c.redisClient.Del(ctx, keys...).Result()
			if err != nil {
				return removed, fmt.Errorf("error deleting keys: %w", err)
			}
			removed += int(n)
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	return removed, nil
}

func (c *Client) RedisClient() *redis.Client {
	return c.redisClient
}

func (c *Client) Close() error {
	return c.redisClient.Close()
}
