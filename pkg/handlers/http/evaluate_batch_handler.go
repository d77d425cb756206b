package http

import (
	"github.com/NeuralTrust/NewsGuard/pkg/app/moderation"
	domain "github.com/NeuralTrust/NewsGuard/pkg/domain/moderation"
	"github.com/NeuralTrust/NewsGuard/pkg/handlers/http/request"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type EvaluateBatchResponse struct {
	Verdicts []domain.Verdict `json:"verdicts"`
}

type evaluateBatchHandler struct {
	logger       *logrus.Logger
	service      moderation.Service
	maxBatchSize int
}

func NewEvaluateBatchHandler(logger *logrus.Logger, service moderation.Service, maxBatchSize int) Handler {
	return &evaluateBatchHandler{
		logger:       logger,
		service:      service,
		maxBatchSize: maxBatchSize,
	}
}

func (h *evaluateBatchHandler) Handle(c *fiber.Ctx) error {
	var req request.EvaluateBatchRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.WithError(err).Debug("failed to parse batch request")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := req.Validate(h.maxBatchSize); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	opts, err := request.ParseOptions(req.Options)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	verdicts := h.service.EvaluateAll(c.UserContext(), req.ContentItems(), opts)
	return c.Status(fiber.StatusOK).JSON(EvaluateBatchResponse{Verdicts: verdicts})
}
