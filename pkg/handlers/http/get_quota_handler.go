package http

import (
	"github.com/NeuralTrust/NewsGuard/pkg/infra/ratelimit"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type QuotaResponse struct {
	Backend   string `json:"backend"`
	Used      int    `json:"used"`
	Limit     int    `json:"limit"`
	Remaining int    `json:"remaining"`
	WindowMs  int64  `json:"window_ms"`
}

type getQuotaHandler struct {
	logger  *logrus.Logger
	limiter ratelimit.Limiter
}

func NewGetQuotaHandler(logger *logrus.Logger, limiter ratelimit.Limiter) Handler {
	return &getQuotaHandler{
		logger:  logger,
		limiter: limiter,
	}
}

func (h *getQuotaHandler) Handle(c *fiber.Ctx) error {
	stats, err := h.limiter.Stats(c.UserContext())
	if err != nil {
		h.logger.WithError(err).Error("failed to read quota stats")
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "quota backend unavailable"})
	}
	remaining := stats.Limit - stats.Used
	if remaining < 0 {
		remaining = 0
	}
	return c.Status(fiber.StatusOK).JSON(QuotaResponse{
		Backend:   stats.Backend,
		Used:      stats.Used,
		Limit:     stats.Limit,
		Remaining: remaining,
		WindowMs:  stats.Window.Milliseconds(),
	})
}
