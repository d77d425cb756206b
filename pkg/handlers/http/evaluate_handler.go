package http

import (
	"github.com/NeuralTrust/NewsGuard/pkg/app/moderation"
	"github.com/NeuralTrust/NewsGuard/pkg/handlers/http/request"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type evaluateHandler struct {
	logger  *logrus.Logger
	service moderation.Service
}

func NewEvaluateHandler(logger *logrus.Logger, service moderation.Service) Handler {
	return &evaluateHandler{
		logger:  logger,
		service: service,
	}
}

// Handle evaluates one content item. Verdict computation never fails, so
// the only error response is 400 for a bad body.
func (h *evaluateHandler) Handle(c *fiber.Ctx) error {
	var req request.EvaluateRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.WithError(err).Debug("failed to parse evaluate request")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	opts, err := request.ParseOptions(req.Options)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	verdict := h.service.Evaluate(c.UserContext(), req.ToContentItem(), opts)
	return c.Status(fiber.StatusOK).JSON(verdict)
}
