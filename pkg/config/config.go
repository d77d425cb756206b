package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Quota      QuotaConfig      `mapstructure:"quota"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Moderation ModerationConfig `mapstructure:"moderation"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
}

type ServerConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	SecretKey string `mapstructure:"secret_key"`
}

type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Dir     string `mapstructure:"dir"`
	File    string `mapstructure:"file"`
	Console bool   `mapstructure:"console"`
}

type MetricsConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	EnableProcess bool `mapstructure:"enable_process"`
	EnableHTTP    bool `mapstructure:"enable_http"`
}

type ClassifierConfig struct {
	Provider      string        `mapstructure:"provider"`
	APIKey        string        `mapstructure:"api_key"`
	BaseURL       string        `mapstructure:"base_url"`
	MinTextLength int           `mapstructure:"min_text_length"`
	QuotaWait     time.Duration `mapstructure:"quota_wait"`
	Timeout       time.Duration `mapstructure:"timeout"`
	Breaker       BreakerConfig `mapstructure:"breaker"`
}

type BreakerConfig struct {
	MaxFailures uint32        `mapstructure:"max_failures"`
	OpenTimeout time.Duration `mapstructure:"open_timeout"`
}

type QuotaConfig struct {
	Backend           string        `mapstructure:"backend"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	Window            time.Duration `mapstructure:"window"`
	Key               string        `mapstructure:"key"`
}

type CacheConfig struct {
	Backend         string        `mapstructure:"backend"`
	TTL             time.Duration `mapstructure:"ttl"`
	JanitorInterval time.Duration `mapstructure:"janitor_interval"`
}

type ModerationConfig struct {
	ItemTimeout    time.Duration `mapstructure:"item_timeout"`
	BatchTimeout   time.Duration `mapstructure:"batch_timeout"`
	MaxConcurrency int64         `mapstructure:"max_concurrency"`
	PacingInterval time.Duration `mapstructure:"pacing_interval"`
	MaxBatchSize   int           `mapstructure:"max_batch_size"`
	LexiconPath    string        `mapstructure:"lexicon_path"`
	Policy         PolicyConfig  `mapstructure:"policy"`
}

type PolicyConfig struct {
	CriticalThreshold      float64  `mapstructure:"critical_threshold"`
	HighThreshold          float64  `mapstructure:"high_threshold"`
	MediumThreshold        float64  `mapstructure:"medium_threshold"`
	CorroborationThreshold float64  `mapstructure:"corroboration_threshold"`
	CriticalCategories     []string `mapstructure:"critical_categories"`
	MediumCategories       []string `mapstructure:"medium_categories"`
	StrictCategories       []string `mapstructure:"strict_categories"`
	StrictMinSignals       int      `mapstructure:"strict_min_signals"`
}

type TelemetryConfig struct {
	Workers   int              `mapstructure:"workers"`
	QueueSize int              `mapstructure:"queue_size"`
	Exporters []ExporterConfig `mapstructure:"exporters"`
}

type ExporterConfig struct {
	Name     string                 `mapstructure:"name"`
	Settings map[string]interface{} `mapstructure:"settings"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TLS      bool   `mapstructure:"tls"`
}

var ErrInvalidConfig = errors.New("invalid configuration")

// Load reads config.yaml from configPath (then ./config and .) and applies
// environment overrides such as CLASSIFIER_API_KEY. A missing file is not an
// error: defaults and environment variables are enough to run.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.dir", "logs")
	v.SetDefault("logging.file", "newsguard.log")
	v.SetDefault("logging.console", true)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.enable_process", true)
	v.SetDefault("metrics.enable_http", true)

	v.SetDefault("classifier.provider", "perspective")
	v.SetDefault("classifier.api_key", "")
	v.SetDefault("classifier.base_url", "")
	v.SetDefault("classifier.min_text_length", 20)
	v.SetDefault("classifier.quota_wait", 3*time.Second)
	v.SetDefault("classifier.timeout", 5*time.Second)
	v.SetDefault("classifier.breaker.max_failures", 5)
	v.SetDefault("classifier.breaker.open_timeout", 30*time.Second)

	v.SetDefault("quota.backend", "memory")
	v.SetDefault("quota.requests_per_minute", 60)
	v.SetDefault("quota.window", time.Minute)
	v.SetDefault("quota.key", "newsguard:quota")

	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.ttl", 24*time.Hour)
	v.SetDefault("cache.janitor_interval", 10*time.Minute)

	v.SetDefault("moderation.item_timeout", 2*time.Second)
	v.SetDefault("moderation.batch_timeout", 10*time.Second)
	v.SetDefault("moderation.max_concurrency", 8)
	v.SetDefault("moderation.pacing_interval", 25*time.Millisecond)
	v.SetDefault("moderation.max_batch_size", 200)
	v.SetDefault("moderation.lexicon_path", "")
	v.SetDefault("moderation.policy.critical_threshold", 0.85)
	v.SetDefault("moderation.policy.high_threshold", 0.75)
	v.SetDefault("moderation.policy.medium_threshold", 0.60)
	v.SetDefault("moderation.policy.corroboration_threshold", 0.5)
	v.SetDefault("moderation.policy.strict_min_signals", 1)

	v.SetDefault("telemetry.workers", 2)
	v.SetDefault("telemetry.queue_size", 1000)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "newsguard")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.tls", false)
}

func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case "memory", "redis", "postgres":
	default:
		return fmt.Errorf("%w: unknown cache backend %q", ErrInvalidConfig, c.Cache.Backend)
	}
	switch c.Quota.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("%w: unknown quota backend %q", ErrInvalidConfig, c.Quota.Backend)
	}
	p := c.Moderation.Policy
	if p.MediumThreshold > p.HighThreshold || p.HighThreshold > p.CriticalThreshold {
		return fmt.Errorf("%w: policy thresholds must satisfy medium <= high <= critical", ErrInvalidConfig)
	}
	if c.Moderation.MaxBatchSize < 0 || c.Moderation.MaxConcurrency < 0 {
		return fmt.Errorf("%w: moderation limits must not be negative", ErrInvalidConfig)
	}
	return nil
}
