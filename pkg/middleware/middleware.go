package middleware

import "github.com/gofiber/fiber/v2"

const RequestIDKey = "request_id"

type Middleware interface {
	Middleware() fiber.Handler
}

type Transport struct {
	AdminAuthMiddleware    Middleware
	MetricsMiddleware      Middleware
	PanicRecoverMiddleware Middleware
}
