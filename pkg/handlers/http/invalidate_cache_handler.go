package http

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// Invalidator is a cache namespace that can be dropped wholesale.
type Invalidator interface {
	Namespace() string
	Clear(ctx context.Context) (int, error)
}

// Broadcaster tells other replicas that a namespace was cleared.
type Broadcaster interface {
	Publish(ctx context.Context, namespace string) error
}

type invalidateCacheHandler struct {
	logger      *logrus.Logger
	broadcaster Broadcaster
	caches      []Invalidator
}

// NewInvalidateCacheHandler clears every cache. broadcaster may be nil on
// single-replica deployments.
func NewInvalidateCacheHandler(
	logger *logrus.Logger,
	broadcaster Broadcaster,
	caches ...Invalidator,
) Handler {
	return &invalidateCacheHandler{
		logger:      logger,
		broadcaster: broadcaster,
		caches:      caches,
	}
}

func (h *invalidateCacheHandler) Handle(c *fiber.Ctx) error {
	h.logger.Info("invalidating result caches")

	removed := make(map[string]int, len(h.caches))
	for _, cache := range h.caches {
		n, err := cache.Clear(c.UserContext())
		if err != nil {
			h.logger.WithError(err).WithField("namespace", cache.Namespace()).Error("failed to invalidate cache")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   "Failed to invalidate cache",
				"removed": removed,
			})
		}
		removed[cache.Namespace()] = n
		if h.broadcaster != nil {
			if err := h.broadcaster.Publish(c.UserContext(), cache.Namespace()); err != nil {
				h.logger.WithError(err).WithField("namespace", cache.Namespace()).Warn("failed to broadcast cache invalidation")
			}
		}
	}

	h.logger.WithField("removed", removed).Info("cache invalidated successfully")
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Cache invalidated successfully",
		"removed": removed,
	})
}
