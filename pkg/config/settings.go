package config

import (
	"fmt"
	"time"
)

// Settings is the typed view of the configuration used by the CLI.
type Settings struct {
	ServiceName string            `mapstructure:"service_name" validate:"required"`
	Engine      EngineSettings    `mapstructure:"engine"`
	Transport   TransportSettings `mapstructure:"transport"`
	Log         LogSettings       `mapstructure:"log"`
	Tracing     TracingSettings   `mapstructure:"tracing"`
	Metrics     MetricsSettings   `mapstructure:"metrics"`
}

// EngineSettings describes the request target. URL syntax is checked by
// the engine itself so that it reports the dedicated invalid-URL error.
type EngineSettings struct {
	URL             string            `mapstructure:"url" validate:"required"`
	Method          string            `mapstructure:"method" validate:"oneof=GET PUT POST DELETE"`
	Headers         map[string]string `mapstructure:"headers"`
	Parameters      map[string]string `mapstructure:"parameters"`
	Username        string            `mapstructure:"username"`
	Password        string            `mapstructure:"password"`
	Executor        string            `mapstructure:"executor" validate:"oneof=shared serial pool"`
	PoolSize        int               `mapstructure:"pool_size" validate:"gte=1"`
	RequestIDHeader string            `mapstructure:"request_id_header"`
}

type TransportSettings struct {
	Timeout   time.Duration     `mapstructure:"timeout" validate:"gte=0"`
	UserAgent string            `mapstructure:"user_agent"`
	Breaker   BreakerSettings   `mapstructure:"breaker"`
	RateLimit RateLimitSettings `mapstructure:"ratelimit"`
}

type BreakerSettings struct {
	Enabled     bool          `mapstructure:"enabled"`
	MaxFailures uint32        `mapstructure:"max_failures" validate:"gte=1"`
	OpenTimeout time.Duration `mapstructure:"open_timeout" validate:"gte=0"`
}

type RateLimitSettings struct {
	RPS   float64 `mapstructure:"rps" validate:"gte=0"`
	Burst int     `mapstructure:"burst" validate:"gte=0"`
}

type LogSettings struct {
	Level    string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Encoding string `mapstructure:"encoding" validate:"oneof=console json"`
}

type TracingSettings struct {
	Endpoint    string  `mapstructure:"endpoint" validate:"omitempty,url"`
	SampleRatio float64 `mapstructure:"sample_ratio" validate:"gte=0,lte=1"`
}

type MetricsSettings struct {
	PushGateway string `mapstructure:"push_gateway" validate:"omitempty,url"`
	Job         string `mapstructure:"job"`
}

// SensitiveKeys are redacted by MaskedSettings.
var SensitiveKeys = []string{"engine.password"}

// Defaults returns the default value of every known key. Every key needs an
// entry so environment overrides are seen by Settings.
func Defaults() map[string]any {
	return map[string]any{
		"service_name":                   "httpengine",
		"engine.url":                     "",
		"engine.method":                  "GET",
		"engine.headers":                 map[string]string{},
		"engine.parameters":              map[string]string{},
		"engine.username":                "",
		"engine.password":                "",
		"engine.executor":                "shared",
		"engine.pool_size":               4,
		"engine.request_id_header":       "",
		"transport.timeout":              time.Duration(0),
		"transport.user_agent":           "",
		"transport.breaker.enabled":      false,
		"transport.breaker.max_failures": 5,
		"transport.breaker.open_timeout": 30 * time.Second,
		"transport.ratelimit.rps":        0.0,
		"transport.ratelimit.burst":      1,
		"log.level":                      "info",
		"log.encoding":                   "console",
		"tracing.endpoint":               "",
		"tracing.sample_ratio":           1.0,
		"metrics.push_gateway":           "",
		"metrics.job":                    "httpengine",
	}
}

// Settings decodes the effective configuration and validates it.
func (c *Config) Settings() (*Settings, error) {
	var s Settings
	if err := c.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("config: decode settings: %w", err)
	}
	if err := validatorInstance().Struct(&s); err != nil {
		return nil, fmt.Errorf("config: %w", toValidationError(err))
	}
	return &s, nil
}
