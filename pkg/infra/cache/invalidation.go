package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const InvalidationChannel = "newsguard:cache-invalidation"

// InvalidationEvent tells other replicas to drop a namespace from their
// process-local tier. Origin identifies the publishing replica.
type InvalidationEvent struct {
	Namespace string `json:"namespace"`
	Origin    string `json:"origin"`
}

// LocalPurger drops the process-local tier of a cache namespace.
type LocalPurger interface {
	Namespace() string
	PurgeLocal() int
}

type InvalidationPublisher interface {
	Publish(ctx context.Context, namespace string) error
}

type redisInvalidationPublisher struct {
	client *redis.Client
	origin string
}

func NewInvalidationPublisher(client *redis.Client, origin string) InvalidationPublisher {
	return &redisInvalidationPublisher{client: client, origin: origin}
}

func (p *redisInvalidationPublisher) Publish(ctx context.Context, namespace string) error {
	data, err := json.Marshal(InvalidationEvent{
		Namespace: namespace,
		Origin:    p.origin,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal invalidation event: %w", err)
	}
	return p.client.Publish(ctx, InvalidationChannel, string(data)).Err()
}

// NewOrigin returns a random replica identifier for publisher and listener.
func NewOrigin() string {
	return uuid.NewString()
}

type InvalidationListener struct {
	client  *redis.Client
	origin  string
	logger  *logrus.Logger
	caches  map[string]LocalPurger
	backoff time.Duration
}

func NewInvalidationListener(
	client *redis.Client,
	origin string,
	logger *logrus.Logger,
	caches ...LocalPurger,
) *InvalidationListener {
	byNamespace := make(map[string]LocalPurger, len(caches))
	for _, c := range caches {
		byNamespace[c.Namespace()] = c
	}
	return &InvalidationListener{
		client:  client,
		origin:  origin,
		logger:  logger,
		caches:  byNamespace,
		backoff: time.Second,
	}
}

// Listen blocks until ctx is done, resubscribing after disconnects.
func (l *InvalidationListener) Listen(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("cache invalidation listener shutting down")
			return
		default:
		}

		l.listenOnce(ctx)

		if ctx.Err() != nil {
			return
		}

		l.logger.Warnf("cache invalidation subscription lost, reconnecting in %s", l.backoff)
		select {
		case <-ctx.Done():
			return
		case <-time.After(l.backoff):
		}
	}
}

func (l *InvalidationListener) listenOnce(ctx context.Context) {
	pubSub := l.client.Subscribe(ctx, InvalidationChannel)
	defer func() { _ = pubSub.Close() }()

	l.logger.WithField("channel", InvalidationChannel).Debug("cache invalidation listener connected")

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = pubSub.Close()
		case <-done:
		}
	}()

	for msg := range pubSub.Channel() {
		if ctx.Err() != nil {
			return
		}
		l.handleMessage(msg.Payload)
	}
}

func (l *InvalidationListener) handleMessage(payload string) {
	var ev InvalidationEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		l.logger.WithError(err).Error("error decoding cache invalidation event")
		return
	}
	if ev.Origin == l.origin {
		return
	}
	c, ok := l.caches[ev.Namespace]
	if !ok {
		l.logger.WithField("namespace", ev.Namespace).Debug("ignoring invalidation for unknown namespace")
		return
	}
	n := c.PurgeLocal()
	l.logger.WithFields(logrus.Fields{
		"namespace": ev.Namespace,
		"origin":    ev.Origin,
		"removed":   n,
	}).Info("local cache tier purged by remote invalidation")
}
