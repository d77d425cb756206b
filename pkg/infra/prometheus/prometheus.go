package prometheus

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var registry = prometheus.NewRegistry()

var registerer = prometheus.WrapRegistererWith(nil, registry)

var (
	// Latency buckets in milliseconds
	latencyBuckets = []float64{
		5, 10, 25,
		50, 100, 250,
		500, 1000, 2000,
		5000, 10000,
	}

	VerdictsTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsguard_verdicts_total",
			Help: "Verdicts produced, by risk level and whether the item was blocked",
		},
		[]string{"risk_level", "blocked"},
	)

	ClassifierResultsTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsguard_classifier_results_total",
			Help: "Classifier outcomes by provider (scored, unavailable, timed_out)",
		},
		[]string{"provider", "outcome"},
	)

	ClassifierLatency = promauto.With(registerer).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "newsguard_classifier_latency_ms",
			Help:    "Outbound classifier call latency in milliseconds",
			Buckets: latencyBuckets,
		},
		[]string{"provider"},
	)

	QuotaAcquisitionsTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsguard_quota_acquisitions_total",
			Help: "Quota permit requests by result (granted, timeout, error)",
		},
		[]string{"result"},
	)

	QuotaWait = promauto.With(registerer).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "newsguard_quota_wait_ms",
			Help:    "Time spent waiting for a quota permit in milliseconds",
			Buckets: latencyBuckets,
		},
	)

	CacheLookupsTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsguard_cache_lookups_total",
			Help: "Result cache lookups by cache (verdict, score) and result (hit, miss)",
		},
		[]string{"cache", "result"},
	)

	BatchDuration = promauto.With(registerer).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "newsguard_batch_duration_ms",
			Help:    "Wall time of batch evaluations in milliseconds",
			Buckets: latencyBuckets,
		},
	)

	PlaceholdersTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsguard_placeholders_total",
			Help: "Items that received a placeholder verdict, by reason (timeout, failed, batch_deadline)",
		},
		[]string{"reason"},
	)

	HTTPRequestsTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsguard_http_requests_total",
			Help: "HTTP requests served",
		},
		[]string{"method", "route", "status"},
	)
)

type MetricsConfig struct {
	EnableProcess bool
	EnableHTTP    bool
}

func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		EnableProcess: true,
		EnableHTTP:    true,
	}
}

var (
	Config          MetricsConfig
	registerProcess sync.Once
)

// Initialize may be called more than once; runtime collectors are only
// registered the first time.
func Initialize(cfg MetricsConfig) {
	Config = cfg
	if cfg.EnableProcess {
		registerProcess.Do(func() {
			registry.MustRegister(
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
				collectors.NewGoCollector(),
			)
		})
	}

	prometheus.DefaultRegisterer = registry
	prometheus.DefaultGatherer = registry
}

func Gatherer() prometheus.Gatherer {
	return registry
}
