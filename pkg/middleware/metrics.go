package middleware

import (
	"strconv"
	"time"

	"github.com/NeuralTrust/NewsGuard/pkg/infra/prometheus"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const requestIDHeader = "X-Request-ID"

type metricsMiddleware struct {
	logger *logrus.Logger
}

// NewMetricsMiddleware tags each request with an id, counts it by route and
// writes an access log line.
func NewMetricsMiddleware(logger *logrus.Logger) Middleware {
	return &metricsMiddleware{logger: logger}
}

func (m *metricsMiddleware) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		requestID := c.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Locals(RequestIDKey, requestID)
		c.Set(requestIDHeader, requestID)

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}
		route := c.Path()
		if r := c.Route(); r != nil && r.Path != "" {
			route = r.Path
		}
		if prometheus.Config.EnableHTTP {
			prometheus.HTTPRequestsTotal.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		}

		m.logger.WithFields(logrus.Fields{
			"request_id":  requestID,
			"method":      c.Method(),
			"route":       route,
			"status":      status,
			"duration_ms": time.Since(start).Milliseconds(),
		}).Debug("request served")
		return err
	}
}
