package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jonwraymond/primeops/admission"
	"github.com/jonwraymond/primeops/auth"
	"github.com/jonwraymond/primeops/health"
	"github.com/jonwraymond/primeops/observe"
	"github.com/jonwraymond/primeops/secret"
	"github.com/jonwraymond/primeops/server"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "PRIMEOPS"

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config is the complete process configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Primes    PrimesConfig    `mapstructure:"primes"`
	Memory    MemoryConfig    `mapstructure:"memory"`
	Observe   ObserveConfig   `mapstructure:"observe"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Auth      AuthConfig      `mapstructure:"auth"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// PrimesConfig configures computation.
type PrimesConfig struct {
	// Workers is the size of the segment worker pool. 0 uses GOMAXPROCS.
	Workers int `mapstructure:"workers"`
}

// MemoryConfig configures cache admission and the memory health check.
type MemoryConfig struct {
	SafetyFraction float64 `mapstructure:"safety_fraction"`

	// CeilingBytes, when non-zero, replaces the detected memory ceiling.
	CeilingBytes uint64 `mapstructure:"ceiling_bytes"`

	// FallbackCeilingBytes is used when no ceiling can be detected.
	FallbackCeilingBytes uint64 `mapstructure:"fallback_ceiling_bytes"`

	// WarningThreshold is the share of the budget at which the memory
	// health check reports degraded.
	WarningThreshold float64 `mapstructure:"warning_threshold"`
}

// ObserveConfig configures telemetry.
type ObserveConfig struct {
	ServiceName string        `mapstructure:"service_name"`
	Version     string        `mapstructure:"version"`
	Tracing     TracingConfig `mapstructure:"tracing"`
	Metrics     MetricsConfig `mapstructure:"metrics"`
	Logging     LoggingConfig `mapstructure:"logging"`
}

// TracingConfig configures span export.
type TracingConfig struct {
	Enabled   bool    `mapstructure:"enabled"`
	Exporter  string  `mapstructure:"exporter"`
	SamplePct float64 `mapstructure:"sample_pct"`
}

// MetricsConfig configures metric export.
type MetricsConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Exporter string `mapstructure:"exporter"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Level   string        `mapstructure:"level"`
	File    LogFileConfig `mapstructure:"file"`
}

// LogFileConfig configures the rotating log file.
type LogFileConfig struct {
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
}

// RateLimitConfig configures per-client request limits.
type RateLimitConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	RPS         float64       `mapstructure:"rps"`
	Burst       int           `mapstructure:"burst"`
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
}

// AuthConfig configures bearer token authentication.
type AuthConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Secret   string        `mapstructure:"secret"`
	Issuer   string        `mapstructure:"issuer"`
	Audience string        `mapstructure:"audience"`
	Leeway   time.Duration `mapstructure:"leeway"`
}

// NewViper returns a viper instance with defaults and environment binding
// applied. Callers may bind flags to it before calling Load.
func NewViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "5m")
	v.SetDefault("server.shutdown_timeout", "30s")

	v.SetDefault("primes.workers", 0)

	v.SetDefault("memory.safety_fraction", admission.DefaultSafetyFraction)
	v.SetDefault("memory.ceiling_bytes", 0)
	v.SetDefault("memory.fallback_ceiling_bytes", admission.DefaultFallbackCeiling)
	v.SetDefault("memory.warning_threshold", 0.8)

	v.SetDefault("observe.service_name", "primesd")
	v.SetDefault("observe.version", "dev")
	v.SetDefault("observe.tracing.enabled", false)
	v.SetDefault("observe.tracing.exporter", "none")
	v.SetDefault("observe.tracing.sample_pct", 1.0)
	v.SetDefault("observe.metrics.enabled", false)
	v.SetDefault("observe.metrics.exporter", "none")
	v.SetDefault("observe.logging.enabled", true)
	v.SetDefault("observe.logging.level", "info")
	v.SetDefault("observe.logging.file.path", "")
	v.SetDefault("observe.logging.file.max_size_mb", 100)
	v.SetDefault("observe.logging.file.max_age_days", 0)
	v.SetDefault("observe.logging.file.max_backups", 0)
	v.SetDefault("observe.logging.file.compress", false)

	v.SetDefault("ratelimit.enabled", false)
	v.SetDefault("ratelimit.rps", 10.0)
	v.SetDefault("ratelimit.burst", 20)
	v.SetDefault("ratelimit.idle_timeout", 10*time.Minute)

	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.issuer", "")
	v.SetDefault("auth.audience", "")
	v.SetDefault("auth.leeway", "0s")
}

// Load reads path, if non-empty, into v and decodes the result. auth.secret
// may reference the environment or a file, see package secret.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decoding: %w", err)
	}
	if cfg.Auth.Secret != "" {
		resolved, err := secret.DefaultResolver().ResolveValue(context.Background(), cfg.Auth.Secret)
		if err != nil {
			return nil, fmt.Errorf("config: resolving auth.secret: %w", err)
		}
		cfg.Auth.Secret = resolved
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("%w: server.addr is required", ErrInvalidConfig)
	}
	if c.Primes.Workers < 0 {
		return fmt.Errorf("%w: primes.workers must not be negative", ErrInvalidConfig)
	}
	if f := c.Memory.SafetyFraction; f <= 0 || f > 1 {
		return fmt.Errorf("%w: memory.safety_fraction must be in (0, 1], got %v", ErrInvalidConfig, f)
	}
	if w := c.Memory.WarningThreshold; w <= 0 || w >= 1 {
		return fmt.Errorf("%w: memory.warning_threshold must be in (0, 1), got %v", ErrInvalidConfig, w)
	}
	if c.RateLimit.Enabled && (c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0) {
		return fmt.Errorf("%w: ratelimit.rps and ratelimit.burst must be positive", ErrInvalidConfig)
	}
	if c.Auth.Enabled {
		jc := c.JWT()
		if err := jc.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}

	obs := c.ObserveConfig()
	if err := obs.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// ObserveConfig converts the telemetry section for observe.NewObserver.
func (c *Config) ObserveConfig() observe.Config {
	o := c.Observe
	return observe.Config{
		ServiceName: o.ServiceName,
		Version:     o.Version,
		Tracing: observe.TracingConfig{
			Enabled:   o.Tracing.Enabled,
			Exporter:  o.Tracing.Exporter,
			SamplePct: o.Tracing.SamplePct,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  o.Metrics.Enabled,
			Exporter: o.Metrics.Exporter,
		},
		Logging: observe.LoggingConfig{
			Enabled: o.Logging.Enabled,
			Level:   o.Logging.Level,
			File: observe.LogFileConfig{
				Path:       o.Logging.File.Path,
				MaxSizeMB:  o.Logging.File.MaxSizeMB,
				MaxAgeDays: o.Logging.File.MaxAgeDays,
				MaxBackups: o.Logging.File.MaxBackups,
				Compress:   o.Logging.File.Compress,
			},
		},
	}
}

// Admission converts the memory section for admission.New.
func (c *Config) Admission() admission.Config {
	ceiling := admission.RuntimeCeiling(c.Memory.FallbackCeilingBytes)
	if c.Memory.CeilingBytes > 0 {
		ceiling = admission.FixedCeiling(c.Memory.CeilingBytes)
	}
	return admission.Config{
		SafetyFraction: c.Memory.SafetyFraction,
		Ceiling:        ceiling,
	}
}

// MemoryChecker converts the memory threshold for health.NewMemoryChecker.
func (c *Config) MemoryChecker() health.MemoryCheckerConfig {
	return health.MemoryCheckerConfig{
		WarningThreshold: c.Memory.WarningThreshold,
	}
}

// JWT converts the auth section for auth.NewJWTAuthenticator.
func (c *Config) JWT() auth.JWTConfig {
	return auth.JWTConfig{
		Secret:   []byte(c.Auth.Secret),
		Issuer:   c.Auth.Issuer,
		Audience: c.Auth.Audience,
		Leeway:   c.Auth.Leeway,
	}
}

// HTTP converts the server and ratelimit sections for server.New. The
// caller supplies the authenticator, health aggregator and logger.
func (c *Config) HTTP() server.Config {
	obs := c.ObserveConfig()
	return server.Config{
		Addr:            c.Server.Addr,
		ReadTimeout:     c.Server.ReadTimeout,
		WriteTimeout:    c.Server.WriteTimeout,
		ShutdownTimeout: c.Server.ShutdownTimeout,
		RateLimit: server.RateLimitConfig{
			Enabled:     c.RateLimit.Enabled,
			RPS:         c.RateLimit.RPS,
			Burst:       c.RateLimit.Burst,
			IdleTimeout: c.RateLimit.IdleTimeout,
		},
		ServeMetrics: obs.PrometheusEnabled(),
	}
}
