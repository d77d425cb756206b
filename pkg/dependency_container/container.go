package dependency_container

import (
	"context"
	"errors"
	"fmt"

	"github.com/NeuralTrust/NewsGuard/pkg/app/classification"
	"github.com/NeuralTrust/NewsGuard/pkg/app/heuristics"
	"github.com/NeuralTrust/NewsGuard/pkg/app/moderation"
	"github.com/NeuralTrust/NewsGuard/pkg/config"
	domain "github.com/NeuralTrust/NewsGuard/pkg/domain/moderation"
	domainTelemetry "github.com/NeuralTrust/NewsGuard/pkg/domain/telemetry"
	handlers "github.com/NeuralTrust/NewsGuard/pkg/handlers/http"
	"github.com/NeuralTrust/NewsGuard/pkg/infra/auth/jwt"
	"github.com/NeuralTrust/NewsGuard/pkg/infra/cache"
	"github.com/NeuralTrust/NewsGuard/pkg/infra/classifier"
	"github.com/NeuralTrust/NewsGuard/pkg/infra/database"
	"github.com/NeuralTrust/NewsGuard/pkg/infra/httpx"
	"github.com/NeuralTrust/NewsGuard/pkg/infra/metrics"
	"github.com/NeuralTrust/NewsGuard/pkg/infra/prometheus"
	"github.com/NeuralTrust/NewsGuard/pkg/infra/ratelimit"
	"github.com/NeuralTrust/NewsGuard/pkg/infra/repository"
	infraTelemetry "github.com/NeuralTrust/NewsGuard/pkg/infra/telemetry"
	"github.com/NeuralTrust/NewsGuard/pkg/infra/telemetry/kafka"
	"github.com/NeuralTrust/NewsGuard/pkg/middleware"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

type Container struct {
	Config              *config.Config
	Logger              *logrus.Logger
	Engine              *moderation.Engine
	Classifier          classification.Classifier
	Limiter             ratelimit.Limiter
	VerdictCache        *cache.ResultCache[domain.Verdict]
	ScoreCache          *cache.ResultCache[domain.Scores]
	MetricsWorker       metrics.Worker
	JWTManager          jwt.Manager
	HandlerTransport    handlers.HandlerTransport
	MiddlewareTransport middleware.Transport

	redisClient *redis.Client
	listener    *cache.InvalidationListener
	db          *database.DB
	repository  *repository.VerdictRepository
	cancel      context.CancelFunc
}

type ContainerDI struct {
	Cfg    *config.Config
	Logger *logrus.Logger
	// Exporters are extra telemetry exporters made available to the
	// locator in addition to kafka.
	Exporters []domainTelemetry.Exporter
}

func NewContainer(di ContainerDI) (*Container, error) {
	cfg, logger := di.Cfg, di.Logger
	c := &Container{Config: cfg, Logger: logger}

	if cfg.Metrics.Enabled {
		prometheus.Initialize(prometheus.MetricsConfig{
			EnableProcess: cfg.Metrics.EnableProcess,
			EnableHTTP:    cfg.Metrics.EnableHTTP,
		})
	}

	if cfg.Cache.Backend == cache.BackendRedis || cfg.Quota.Backend == cache.BackendRedis {
		client, err := cache.NewClient(cache.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TLS:      cfg.Redis.TLS,
		}, logger)
		if err != nil {
			return nil, err
		}
		c.redisClient = client.RedisClient()
	}

	store, err := c.buildStore()
	if err != nil {
		c.Close()
		return nil, err
	}
	c.VerdictCache = cache.NewResultCache[domain.Verdict](cache.VerdictNamespace, store, cfg.Cache.TTL, logger)
	c.ScoreCache = cache.NewResultCache[domain.Scores](cache.ScoreNamespace, store, cfg.Cache.TTL, logger)

	c.Limiter, err = ratelimit.New(ratelimit.Config{
		Backend:           cfg.Quota.Backend,
		RequestsPerMinute: cfg.Quota.RequestsPerMinute,
		Window:            cfg.Quota.Window,
		Key:               cfg.Quota.Key,
	}, c.redisClient)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to build quota limiter: %w", err)
	}

	client, err := classifier.NewClient(classifier.Config{
		Provider: cfg.Classifier.Provider,
		APIKey:   cfg.Classifier.APIKey,
		BaseURL:  cfg.Classifier.BaseURL,
		Timeout:  cfg.Classifier.Timeout,
	},
		classifier.WithLogger(logger),
		classifier.WithHTTPClient(httpx.NewFastHTTPClient(httpx.WithTimeout(cfg.Classifier.Timeout))),
	)
	if err != nil {
		c.Close()
		return nil, err
	}
	if client == nil {
		logger.Warn("classifier api key not configured, every item will be flagged for review")
	}
	breaker := httpx.NewCircuitBreakerWithSettings(httpx.BreakerSettings{
		Name:        "classifier",
		MaxRequests: 1,
		Timeout:     cfg.Classifier.Breaker.OpenTimeout,
		MaxFailures: cfg.Classifier.Breaker.MaxFailures,
	}, logger)
	c.Classifier = classification.NewClassifier(client, c.Limiter, c.ScoreCache, breaker, logger, classification.Config{
		MinTextLength: cfg.Classifier.MinTextLength,
		QuotaWait:     cfg.Classifier.QuotaWait,
		Timeout:       cfg.Classifier.Timeout,
	})

	var scannerOpts []heuristics.Option
	if path := cfg.Moderation.LexiconPath; path != "" {
		lexicon, err := heuristics.LoadLexicon(path)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to load lexicon: %w", err)
		}
		scannerOpts = append(scannerOpts, heuristics.WithLexicon(lexicon))
	}
	scanner := heuristics.NewScanner(scannerOpts...)

	exporters, err := c.buildExporters(di.Exporters)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.MetricsWorker = metrics.NewWorker(logger, exporters, metrics.WithQueueSize(cfg.Telemetry.QueueSize))

	p := cfg.Moderation.Policy
	evaluator := moderation.NewEvaluator(c.Classifier, scanner, c.VerdictCache, c.MetricsWorker, moderation.Policy{
		CriticalThreshold:      p.CriticalThreshold,
		HighThreshold:          p.HighThreshold,
		MediumThreshold:        p.MediumThreshold,
		CorroborationThreshold: p.CorroborationThreshold,
		CriticalCategories:     p.CriticalCategories,
		MediumCategories:       p.MediumCategories,
		StrictCategories:       p.StrictCategories,
		StrictMinSignals:       p.StrictMinSignals,
	}, logger)
	c.Engine = moderation.NewEngine(evaluator, moderation.EngineConfig{
		ItemTimeout:    cfg.Moderation.ItemTimeout,
		BatchTimeout:   cfg.Moderation.BatchTimeout,
		MaxConcurrency: cfg.Moderation.MaxConcurrency,
		PacingInterval: cfg.Moderation.PacingInterval,
		MaxBatchSize:   cfg.Moderation.MaxBatchSize,
	}, logger)

	var broadcaster handlers.Broadcaster
	if c.redisClient != nil {
		origin := cache.NewOrigin()
		broadcaster = cache.NewInvalidationPublisher(c.redisClient, origin)
		c.listener = cache.NewInvalidationListener(c.redisClient, origin, logger, c.VerdictCache, c.ScoreCache)
	}

	c.JWTManager = jwt.NewJwtManager(&cfg.Server)
	c.MiddlewareTransport = middleware.Transport{
		AdminAuthMiddleware:    middleware.NewAdminAuthMiddleware(logger, c.JWTManager),
		MetricsMiddleware:      middleware.NewMetricsMiddleware(logger),
		PanicRecoverMiddleware: middleware.NewPanicRecoverMiddleware(logger),
	}
	c.HandlerTransport = handlers.HandlerTransport{
		EvaluateHandler:        handlers.NewEvaluateHandler(logger, c.Engine),
		EvaluateBatchHandler:   handlers.NewEvaluateBatchHandler(logger, c.Engine, c.Engine.Config().MaxBatchSize),
		InvalidateCacheHandler: handlers.NewInvalidateCacheHandler(logger, broadcaster, c.VerdictCache, c.ScoreCache),
		GetQuotaHandler:        handlers.NewGetQuotaHandler(logger, c.Limiter),
		GetVersionHandler:      handlers.NewGetVersionHandler(logger),
	}
	return c, nil
}

func (c *Container) buildStore() (cache.Store, error) {
	switch c.Config.Cache.Backend {
	case cache.BackendRedis:
		return cache.NewClientFromRedis(c.redisClient), nil
	case cache.BackendPostgres:
		db, err := database.NewDB(c.Logger, &database.Config{
			Host:     c.Config.Database.Host,
			Port:     c.Config.Database.Port,
			User:     c.Config.Database.User,
			Password: c.Config.Database.Password,
			DBName:   c.Config.Database.DBName,
			SSLMode:  c.Config.Database.SSLMode,
		})
		if err != nil {
			return nil, err
		}
		c.db = db
		c.repository = repository.NewVerdictRepository(db.DB)
		return c.repository, nil
	case cache.BackendMemory, "":
		return cache.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend: %s", c.Config.Cache.Backend)
	}
}

func (c *Container) buildExporters(extra []domainTelemetry.Exporter) ([]domainTelemetry.Exporter, error) {
	if len(c.Config.Telemetry.Exporters) == 0 {
		return nil, nil
	}
	opts := []infraTelemetry.ExporterLocatorOption{infraTelemetry.WithExporter(kafka.NewKafkaExporter())}
	for _, e := range extra {
		opts = append(opts, infraTelemetry.WithExporter(e))
	}
	configs := make([]domainTelemetry.ExporterConfig, 0, len(c.Config.Telemetry.Exporters))
	for _, e := range c.Config.Telemetry.Exporters {
		configs = append(configs, domainTelemetry.ExporterConfig{Name: e.Name, Settings: e.Settings})
	}
	exporters, err := infraTelemetry.NewExporterLocator(opts...).Build(configs)
	if err != nil {
		return nil, fmt.Errorf("failed to build telemetry exporters: %w", err)
	}
	return exporters, nil
}

// Start launches the background workers. They stop when Close is called.
func (c *Container) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	workers := c.Config.Telemetry.Workers
	if workers <= 0 {
		workers = 1
	}
	c.MetricsWorker.StartWorkers(workers)
	if c.listener != nil {
		go c.listener.Listen(ctx)
	}
	if c.repository != nil {
		go c.repository.RunJanitor(ctx, c.Config.Cache.JanitorInterval, c.Logger)
	}
}

func (c *Container) Close() {
	if c.cancel != nil {
		c.cancel()
	}
	if c.MetricsWorker != nil {
		c.MetricsWorker.Shutdown()
	}
	var errs []error
	if c.db != nil {
		errs = append(errs, c.db.Close())
	}
	if c.redisClient != nil {
		errs = append(errs, c.redisClient.Close())
	}
	if err := errors.Join(errs...); err != nil {
		c.Logger.WithError(err).Warn("error while closing resources")
	}
}
