package http

import "github.com/gofiber/fiber/v2"

type Handler interface {
	Handle(ctx *fiber.Ctx) error
}

type HandlerTransport struct {
	// Moderation
	EvaluateHandler      Handler
	EvaluateBatchHandler Handler

	// Admin
	InvalidateCacheHandler Handler
	GetQuotaHandler        Handler

	GetVersionHandler Handler
}
