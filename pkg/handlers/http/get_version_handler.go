package http

import (
	"github.com/NeuralTrust/NewsGuard/pkg/version"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type getVersionHandler struct {
	logger *logrus.Logger
}

func NewGetVersionHandler(logger *logrus.Logger) Handler {
	return &getVersionHandler{
		logger: logger,
	}
}

func (h *getVersionHandler) Handle(c *fiber.Ctx) error {
	versionInfo := version.GetInfo()
	return c.Status(fiber.StatusOK).JSON(versionInfo)
}
