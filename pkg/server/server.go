package server

import (
	"context"
	"fmt"
	"time"

	"github.com/NeuralTrust/NewsGuard/pkg/config"
	"github.com/NeuralTrust/NewsGuard/pkg/infra/prometheus"
	"github.com/NeuralTrust/NewsGuard/pkg/middleware"
	"github.com/NeuralTrust/NewsGuard/pkg/server/router"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

const (
	HealthPath  = "/health"
	MetricsPath = "/metrics"
)

// Server interface defines the common behavior for all servers
type Server interface {
	Run() error
	Shutdown(ctx context.Context) error
}

type (
	APIServerDI struct {
		Config              *config.Config
		Logger              *logrus.Logger
		MiddlewareTransport middleware.Transport
		Routers             []router.ServerRouter
	}
	APIServer struct {
		config *config.Config
		logger *logrus.Logger
		Router *fiber.App
	}
)

func NewAPIServer(di APIServerDI) (*APIServer, error) {
	r := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReduceMemoryUsage:     true,
		Network:               fiber.NetworkTCP,
		BodyLimit:             4 * 1024 * 1024,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
		IdleTimeout:           120 * time.Second,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
	})
	r.Server().NoDefaultServerHeader = true

	s := &APIServer{
		config: di.Config,
		logger: di.Logger,
		Router: r,
	}

	if m := di.MiddlewareTransport.PanicRecoverMiddleware; m != nil {
		r.Use(m.Middleware())
	}
	if m := di.MiddlewareTransport.MetricsMiddleware; m != nil {
		r.Use(m.Middleware())
	}

	s.setupHealthCheck()
	s.setupMetricsEndpoint()
	for _, rt := range di.Routers {
		if err := rt.BuildRoutes(r); err != nil {
			return nil, fmt.Errorf("failed to build routes: %w", err)
		}
	}
	return s, nil
}

func (s *APIServer) Run() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.logger.WithField("addr", addr).Info("starting NewsGuard API server")
	return s.Router.Listen(addr)
}

func (s *APIServer) Shutdown(ctx context.Context) error {
	return s.Router.ShutdownWithContext(ctx)
}

func (s *APIServer) setupHealthCheck() {
	s.Router.Get(HealthPath, func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
}

func (s *APIServer) setupMetricsEndpoint() {
	if !s.config.Metrics.Enabled {
		s.logger.Info("prometheus metrics are disabled by configuration")
		return
	}
	handler := fasthttpadaptor.NewFastHTTPHandler(
		promhttp.HandlerFor(prometheus.Gatherer(), promhttp.HandlerOpts{}),
	)
	s.Router.Get(MetricsPath, func(c *fiber.Ctx) error {
		handler(c.Context())
		return nil
	})
}
