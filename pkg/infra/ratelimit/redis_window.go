package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const DefaultRedisKey = "newsguard:quota:classifier"

// Returns 0 when the permit was recorded, otherwise milliseconds until the
// oldest member leaves the window.
var acquireScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
if count < limit then
	redis.call('ZADD', key, now, ARGV[4])
	redis.call('PEXPIRE', key, window)
	return 0
end

local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
if #oldest < 2 then
	return window
end
local wait = tonumber(oldest[2]) + window - now
if wait < 1 then
	wait = 1
end
return wait
`)

type RedisWindowOption func(*RedisWindow)

func WithRedisTimeProvider(now func() time.Time) RedisWindowOption {
	return func(w *RedisWindow) {
		w.now = now
	}
}

func WithUUIDProvider(newID func() string) RedisWindowOption {
	return func(w *RedisWindow) {
		w.newID = newID
	}
}

// RedisWindow shares one sliding window across replicas through a sorted set.
type RedisWindow struct {
	client redis.Scripter
	reader redis.Cmdable
	key    string
	limit  int
	window time.Duration
	now    func() time.Time
	newID  func() string
}

var _ Limiter = (*RedisWindow)(nil)

func NewRedisWindow(client *redis.Client, key string, limit int, window time.Duration, opts ...RedisWindowOption) *RedisWindow {
	if key == "" {
		key = DefaultRedisKey
	}
	w := &RedisWindow{
		client: client,
		reader: client,
		key:    key,
		limit:  limit,
		window: window,
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *RedisWindow) Acquire(ctx context.Context, maxWait time.Duration) (Permit, error) {
	ctx, cancel := withMaxWait(ctx, maxWait)
	defer cancel()

	for {
		now := w.now()
		wait, err := w.tryAcquire(ctx, now)
		if err != nil {
			if ctx.Err() != nil {
				return Permit{}, fmt.Errorf("%w: %v", ErrQuotaTimeout, ctx.Err())
			}
			return Permit{}, fmt.Errorf("redis quota window: %w", err)
		}
		if wait == 0 {
			return Permit{GrantedAt: now}, nil
		}
		if err := waitFor(ctx, wait); err != nil {
			return Permit{}, fmt.Errorf("%w: %v", ErrQuotaTimeout, err)
		}
	}
}

func (w *RedisWindow) tryAcquire(ctx context.Context, now time.Time) (time.Duration, error) {
	nowMs := now.UnixMilli()
	member := strconv.FormatInt(nowMs, 10) + ":" + w.newID()
	waitMs, err := acquireScript.Run(
		ctx,
		w.client,
		[]string{w.key},
		nowMs,
		w.window.Milliseconds(),
		w.limit,
		member,
	).Int64()
	if err != nil {
		return 0, err
	}
	return time.Duration(waitMs) * time.Millisecond, nil
}

func (w *RedisWindow) Stats(ctx context.Context) (Stats, error) {
	minScore := "(" + strconv.FormatInt(w.now().Add(-w.window).UnixMilli(), 10)
	used, err := w.reader.ZCount(ctx, w.key, minScore, "+inf").Result()
	if err != nil {
		return Stats{}, fmt.Errorf("redis quota window stats: %w", err)
	}
	return Stats{
		Backend: BackendRedis,
		Used:    int(used),
		Limit:   w.limit,
		Window:  w.window,
	}, nil
}

// AcquireScriptHash is the SHA1 the script is invoked by.
func AcquireScriptHash() string {
	return acquireScript.Hash()
}
