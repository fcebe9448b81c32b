package config

import (
	"archive.alpha.io/archive/internal/domain"
	"archive.alpha.io/archive/internal/mapper"
	"archive.alpha.io/archive/internal/provider"
	"archive.alpha.io/archive/internal/pkg/tracing"
	"archive.alpha.io/archive/internal/pkg/worker"
)

// ClientConfig converts the section into the adapter transport settings.
func (s SourceConfig) ClientConfig() provider.ClientConfig {
	return provider.ClientConfig{
		BaseURL:             s.BaseURL,
		Timeout:             s.Timeout,
		RatePerSecond:       s.RatePerSecond,
		Burst:               s.Burst,
		RetryAttempts:       s.RetryAttempts,
		RetryInitialBackoff: s.RetryInitialBackoff,
		RetryMaxBackoff:     s.RetryMaxBackoff,
		Breaker: provider.BreakerConfig{
			ConsecutiveFailures: s.Breaker.ConsecutiveFailures,
			OpenTimeout:         s.Breaker.OpenTimeout,
			HalfOpenRequests:    s.Breaker.HalfOpenRequests,
		},
	}
}

// ProviderConfig returns the culture adapter configuration.
func (s SourceConfig) ProviderConfig() provider.SourceConfig {
	return provider.SourceConfig{
		Enabled:    s.Enabled,
		ServiceKey: s.ServiceKey,
		Client:     s.ClientConfig(),
	}
}

// ProviderConfig returns the cultural adapter configuration.
// Call after Validate; an unparseable cutoff falls back to the adapter default.
func (s CulturalSourceConfig) ProviderConfig() provider.CulturalSourceConfig {
	cutoff, _ := s.Cutoff()
	return provider.CulturalSourceConfig{
		SourceConfig: s.SourceConfig.ProviderConfig(),
		Cutoff:       cutoff,
	}
}

// MapperOptions returns the per-source category defaults.
func (c SourcesConfig) MapperOptions() []mapper.Option {
	return []mapper.Option{
		mapper.WithCultureDefault(category(c.Culture.DefaultCategory, domain.CategoryOther)),
		mapper.WithCulturalDefaults(
			category(c.Cultural.DefaultCategory, domain.CategoryExhibition),
			category(c.Cultural.UnmatchedCategory, domain.CategoryOther),
		),
	}
}

// PoolConfig returns the worker pool sizes.
func (w WorkerConfig) PoolConfig() worker.PoolConfig {
	cfg := worker.DefaultPoolConfig()
	if w.GeneralPoolSize > 0 {
		cfg.GeneralPoolSize = w.GeneralPoolSize
	}
	if w.FetchPoolSize > 0 {
		cfg.FetchPoolSize = w.FetchPoolSize
	}
	return cfg
}

func category(value string, def domain.Category) domain.Category {
	if c, ok := domain.ParseCategory(value); ok {
		return c
	}
	return def
}

// TracerConfig converts the section into tracer provider settings.
func (t TracingConfig) TracerConfig() tracing.Config {
	return tracing.Config{
		Enabled:     t.Enabled,
		ServiceName: t.ServiceName,
		Endpoint:    t.Endpoint,
		Insecure:    t.Insecure,
		SampleRatio: t.SampleRatio,
	}
}
