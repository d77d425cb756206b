package router

import (
	"errors"

	handlers "github.com/NeuralTrust/NewsGuard/pkg/handlers/http"
	"github.com/NeuralTrust/NewsGuard/pkg/middleware"
	"github.com/gofiber/fiber/v2"
)

var (
	ErrInvalidHandlerTransport = errors.New("invalid handler transport")
)

type apiRouter struct {
	middlewareTransport *middleware.Transport
	handlerTransport    handlers.HandlerTransport
}

func NewAPIRouter(
	middlewareTransport *middleware.Transport,
	handlerTransport handlers.HandlerTransport,
) ServerRouter {
	return &apiRouter{
		middlewareTransport: middlewareTransport,
		handlerTransport:    handlerTransport,
	}
}

func (r *apiRouter) BuildRoutes(router *fiber.App) error {
	h := r.handlerTransport
	if h.EvaluateHandler == nil || h.EvaluateBatchHandler == nil || h.GetVersionHandler == nil {
		return ErrInvalidHandlerTransport
	}

	router.Get("/version", h.GetVersionHandler.Handle)

	v1 := router.Group("/api/v1")
	{
		moderation := v1.Group("/moderation")
		{
			moderation.Post("/evaluate", h.EvaluateHandler.Handle)
			moderation.Post("/evaluate/batch", h.EvaluateBatchHandler.Handle)
		}

		if h.InvalidateCacheHandler == nil || h.GetQuotaHandler == nil {
			return nil
		}
		admin := v1.Group("/admin")
		if r.middlewareTransport != nil && r.middlewareTransport.AdminAuthMiddleware != nil {
			admin.Use(r.middlewareTransport.AdminAuthMiddleware.Middleware())
		}
		{
			admin.Post("/cache/invalidate", h.InvalidateCacheHandler.Handle)
			admin.Get("/quota", h.GetQuotaHandler.Handle)
		}
	}
	return nil
}
