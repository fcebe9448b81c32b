// Package config provides configuration management for the public event
// ingestion service.
//
// Configuration is loaded from:
// 1. config.yaml file (optional)
// 2. Environment variables (nested keys joined by "_", e.g. DATABASE_URL,
//    SOURCES_CULTURE_SERVICE_KEY)
// 3. Default values
//
// Import Path: archive.alpha.io/archive/internal/config
package config

import (
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"archive.alpha.io/archive/internal/domain"
	"archive.alpha.io/archive/internal/provider"
)

// Config is the root configuration structure.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Log       LogConfig       `mapstructure:"log"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	River     RiverConfig     `mapstructure:"river"`
	Worker    WorkerConfig    `mapstructure:"worker"`
	Ingestion IngestionConfig `mapstructure:"ingestion"`
	Sources   SourcesConfig   `mapstructure:"sources"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	AllowedOrigins        []string `mapstructure:"allowed_origins"`
	AllowCredentials      bool     `mapstructure:"allow_credentials"`
	UnsafeAllowAllOrigins bool     `mapstructure:"unsafe_allow_all_origins"`
}

// DatabaseConfig contains PostgreSQL connection settings.
// One pool is shared by the event store and River.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`

	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"sslmode"`

	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`

	AutoMigrate bool `mapstructure:"auto_migrate"`
}

// DSN returns the PostgreSQL connection string.
// Priority: DATABASE_URL > constructed from individual fields.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, sslmode,
	)
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

// TracingConfig controls OpenTelemetry span export over OTLP/HTTP.
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	ServiceName string  `mapstructure:"service_name"`
	Endpoint    string  `mapstructure:"endpoint"`
	Insecure    bool    `mapstructure:"insecure"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

// RiverConfig contains River Queue settings.
type RiverConfig struct {
	MaxWorkers                  int           `mapstructure:"max_workers"`
	CompletedJobRetentionPeriod time.Duration `mapstructure:"completed_job_retention_period"`
}

// WorkerConfig contains worker pool settings.
type WorkerConfig struct {
	GeneralPoolSize int `mapstructure:"general_pool_size"`
	// FetchPoolSize bounds how many sources are fetched at once.
	FetchPoolSize int `mapstructure:"fetch_pool_size"`
}

// IngestionConfig controls scheduled ingestion and archiving.
type IngestionConfig struct {
	// ScheduleInterval of 0 disables the periodic ingestion job.
	ScheduleInterval time.Duration `mapstructure:"schedule_interval"`
	RunOnStart       bool          `mapstructure:"run_on_start"`
	// RunTimeout bounds one full ingestion run.
	RunTimeout time.Duration `mapstructure:"run_timeout"`

	ArchiveInterval time.Duration `mapstructure:"archive_interval"`
	// ArchiveAfter is how long after its end an event is archived.
	ArchiveAfter time.Duration `mapstructure:"archive_after"`
}

// SourcesConfig holds one section per upstream provider.
type SourcesConfig struct {
	Culture  SourceConfig         `mapstructure:"culture"`
	Cultural CulturalSourceConfig `mapstructure:"cultural"`
}

// SourceConfig configures one upstream provider.
type SourceConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	BaseURL    string        `mapstructure:"base_url"`
	ServiceKey string        `mapstructure:"service_key"`
	Timeout    time.Duration `mapstructure:"timeout"`

	// DefaultCategory applies when the genre is missing.
	DefaultCategory string `mapstructure:"default_category"`
	// UnmatchedCategory applies when no genre rule matches.
	UnmatchedCategory string `mapstructure:"unmatched_category"`

	RatePerSecond float64 `mapstructure:"rate_per_second"`
	Burst         int     `mapstructure:"burst"`

	RetryAttempts       int           `mapstructure:"retry_attempts"`
	RetryInitialBackoff time.Duration `mapstructure:"retry_initial_backoff"`
	RetryMaxBackoff     time.Duration `mapstructure:"retry_max_backoff"`

	Breaker BreakerConfig `mapstructure:"breaker"`
}

// CulturalSourceConfig adds the end-date cutoff filter.
type CulturalSourceConfig struct {
	SourceConfig `mapstructure:",squash"`
	// CutoffDate (YYYY-MM-DD): items ending on or before it are dropped.
	CutoffDate string `mapstructure:"cutoff_date"`
}

// BreakerConfig configures a per-source circuit breaker.
type BreakerConfig struct {
	ConsecutiveFailures uint32        `mapstructure:"consecutive_failures"`
	OpenTimeout         time.Duration `mapstructure:"open_timeout"`
	HalfOpenRequests    uint32        `mapstructure:"half_open_requests"`
}

var (
	bootstrapLoggerOnce sync.Once
	bootstrapLogger     *zap.Logger
)

// Load reads configuration from file and environment variables.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/archive")

	// Maps nested config: sources.culture.service_key → SOURCES_CULTURE_SERVICE_KEY
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// Config file is optional, use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	cfg.warnMissingServiceKeys()

	return &cfg, nil
}

// Validate checks for critical configuration errors.
func (c *Config) Validate() error {
	if c.Worker.FetchPoolSize < 1 {
		return fmt.Errorf("worker.fetch_pool_size must be at least 1")
	}
	if c.Ingestion.ScheduleInterval < 0 {
		return fmt.Errorf("ingestion.schedule_interval must not be negative")
	}
	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		return fmt.Errorf("tracing.endpoint is required when tracing is enabled")
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("tracing.sample_ratio must be within [0, 1]")
	}
	if err := c.Sources.Culture.validate("sources.culture"); err != nil {
		return err
	}
	if err := c.Sources.Cultural.validate("sources.cultural"); err != nil {
		return err
	}
	if _, err := c.Sources.Cultural.Cutoff(); err != nil {
		return err
	}
	return nil
}

func (s SourceConfig) validate(section string) error {
	u, err := url.Parse(s.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s.base_url must be an absolute URL, got %q", section, s.BaseURL)
	}
	if s.DefaultCategory != "" {
		if _, ok := domain.ParseCategory(s.DefaultCategory); !ok {
			return fmt.Errorf("%s.default_category %q is not a known category", section, s.DefaultCategory)
		}
	}
	if s.UnmatchedCategory != "" {
		if _, ok := domain.ParseCategory(s.UnmatchedCategory); !ok {
			return fmt.Errorf("%s.unmatched_category %q is not a known category", section, s.UnmatchedCategory)
		}
	}
	if s.RetryAttempts < 0 {
		return fmt.Errorf("%s.retry_attempts must not be negative", section)
	}
	return nil
}

// Cutoff parses CutoffDate. An empty value yields the zero time.
func (s CulturalSourceConfig) Cutoff() (time.Time, error) {
	if s.CutoffDate == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation("2006-01-02", s.CutoffDate, provider.Seoul)
	if err != nil {
		return time.Time{}, fmt.Errorf("sources.cultural.cutoff_date %q: %w", s.CutoffDate, err)
	}
	return t, nil
}


func (c *Config) warnMissingServiceKeys() {
	for name, s := range map[string]SourceConfig{
		"culture":  c.Sources.Culture,
		"cultural": c.Sources.Cultural.SourceConfig,
	} {
		if s.Enabled && s.ServiceKey == "" {
			logBootstrapWarn("source enabled without a service key; upstream will reject requests",
				zap.String("source", name),
				zap.String("env", "SOURCES_"+strings.ToUpper(name)+"_SERVICE_KEY"),
			)
		}
	}
}

func logBootstrapWarn(msg string, fields ...zap.Field) {
	bootstrapLoggerOnce.Do(func() {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)

		l, err := cfg.Build()
		if err != nil {
			bootstrapLogger = zap.NewNop()
			return
		}
		bootstrapLogger = l
	})

	bootstrapLogger.Warn(msg, fields...)
}

func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "5m")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("server.allow_credentials", true)
	v.SetDefault("server.unsafe_allow_all_origins", false)

	// Database
	v.SetDefault("database.url", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "archive")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "archive")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "10m")
	v.SetDefault("database.auto_migrate", false)

	// Log
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Tracing
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "archive")
	v.SetDefault("tracing.endpoint", "localhost:4318")
	v.SetDefault("tracing.insecure", true)
	v.SetDefault("tracing.sample_ratio", 1.0)

	// River
	v.SetDefault("river.max_workers", 4)
	v.SetDefault("river.completed_job_retention_period", "24h")

	// Worker Pool
	v.SetDefault("worker.general_pool_size", 50)
	v.SetDefault("worker.fetch_pool_size", 8)

	// Ingestion
	v.SetDefault("ingestion.schedule_interval", "6h")
	v.SetDefault("ingestion.run_on_start", false)
	v.SetDefault("ingestion.run_timeout", "30m")
	v.SetDefault("ingestion.archive_interval", "24h")
	v.SetDefault("ingestion.archive_after", "720h")

	// Sources
	setSourceDefaults(v, "sources.culture", "https://apis.data.go.kr", "OTHER", "OTHER")
	setSourceDefaults(v, "sources.cultural", "https://api.kcisa.kr", "EXHIBITION", "OTHER")
	v.SetDefault("sources.cultural.cutoff_date", "2025-12-31")
}

func setSourceDefaults(v *viper.Viper, prefix, baseURL, defaultCategory, unmatchedCategory string) {
	v.SetDefault(prefix+".enabled", true)
	v.SetDefault(prefix+".base_url", baseURL)
	v.SetDefault(prefix+".service_key", "")
	v.SetDefault(prefix+".timeout", "60s")
	v.SetDefault(prefix+".default_category", defaultCategory)
	v.SetDefault(prefix+".unmatched_category", unmatchedCategory)
	v.SetDefault(prefix+".rate_per_second", 5)
	v.SetDefault(prefix+".burst", 1)
	v.SetDefault(prefix+".retry_attempts", 3)
	v.SetDefault(prefix+".retry_initial_backoff", "1s")
	v.SetDefault(prefix+".retry_max_backoff", "10s")
	v.SetDefault(prefix+".breaker.consecutive_failures", 5)
	v.SetDefault(prefix+".breaker.open_timeout", "2m")
	v.SetDefault(prefix+".breaker.half_open_requests", 1)
}
