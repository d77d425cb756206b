package cache

import (
	"context"
	"errors"
	"time"

	"github.com/NeuralTrust/NewsGuard/pkg/domain/moderation"
	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
)

const (
	VerdictNamespace = "newsguard:verdict:"
	ScoreNamespace   = "newsguard:score:"
)

// ResultCache is a two-tier fail-open cache: a process-local TTLMap in front
// of a shared Store. Store failures are logged and treated as misses.
type ResultCache[T any] struct {
	namespace string
	ttl       time.Duration
	local     *TTLMap
	store     Store
	logger    *logrus.Logger
}

var _ moderation.Cache[moderation.Verdict] = (*ResultCache[moderation.Verdict])(nil)

func NewResultCache[T any](
	namespace string,
	store Store,
	ttl time.Duration,
	logger *logrus.Logger,
	opts ...TTLMapOption,
) *ResultCache[T] {
	return &ResultCache[T]{
		namespace: namespace,
		ttl:       ttl,
		local:     NewTTLMap(ttl, opts...),
		store:     store,
		logger:    logger,
	}
}

func (c *ResultCache[T]) Get(ctx context.Context, key moderation.Fingerprint) (T, bool) {
	var zero T
	k := c.key(key)

	raw, ok := c.local.Get(k)
	if !ok && c.store != nil {
		var (
			remaining time.Duration
			err       error
		)
		raw, remaining, err = c.store.Get(ctx, k)
		switch {
		case errors.Is(err, ErrCacheMiss):
			return zero, false
		case err != nil:
			c.logger.WithError(err).WithField("key", k).Warn("cache read failed, treating as miss")
			return zero, false
		}
		c.local.SetWithTTL(k, raw, c.localTTL(remaining))
		ok = true
	}
	if !ok {
		return zero, false
	}

	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		c.logger.WithError(err).WithField("key", k).Warn("discarding undecodable cache entry")
		c.local.Delete(k)
		return zero, false
	}
	return value, true
}

func (c *ResultCache[T]) Put(ctx context.Context, key moderation.Fingerprint, value T) {
	k := c.key(key)
	raw, err := json.Marshal(value)
	if err != nil {
		c.logger.WithError(err).WithField("key", k).Warn("failed to encode cache entry")
		return
	}
	c.local.Set(k, raw)
	if c.store == nil {
		return
	}
	if err := c.store.Set(ctx, k, raw, c.ttl); err != nil {
		c.logger.WithError(err).WithField("key", k).Warn("cache write failed")
	}
}

func (c *ResultCache[T]) Invalidate(ctx context.Context, key moderation.Fingerprint) error {
	k := c.key(key)
	c.local.Delete(k)
	if c.store == nil {
		return nil
	}
	return c.store.Delete(ctx, k)
}

// Clear drops every entry in this cache's namespace from both tiers.
func (c *ResultCache[T]) Clear(ctx context.Context) (int, error) {
	n := c.local.DeletePrefix(c.namespace)
	if c.store == nil {
		return n, nil
	}
	removed, err := c.store.Clear(ctx, c.namespace)
	if removed > n {
		n = removed
	}
	return n, err
}

// PurgeLocal drops only the process-local tier.
func (c *ResultCache[T]) PurgeLocal() int {
	return c.local.DeletePrefix(c.namespace)
}

func (c *ResultCache[T]) Namespace() string {
	return c.namespace
}

// localTTL keeps a read-through copy from outliving the shared entry.
func (c *ResultCache[T]) localTTL(remaining time.Duration) time.Duration {
	if remaining > 0 && (c.ttl <= 0 || remaining < c.ttl) {
		return remaining
	}
	return c.ttl
}

func (c *ResultCache[T]) key(fp moderation.Fingerprint) string {
	return c.namespace + fp.String()
}
