package config

import (
	"fmt"
	"time"

	"github.com/kbukum/toolflow/cache"
	"github.com/kbukum/toolflow/process"
	"github.com/kbukum/toolflow/validation"
)

// Config is the complete toolflow runtime configuration.
type Config struct {
	Service   ServiceConfig   `yaml:"service" mapstructure:"service"`
	Engine    EngineConfig    `yaml:"engine" mapstructure:"engine"`
	Cache     cache.Config    `yaml:"cache" mapstructure:"cache"`
	Telemetry TelemetryConfig `yaml:"telemetry" mapstructure:"telemetry"`
	// Tools declares subprocess-backed tools: tool name, then method name,
	// then the base command the method runs.
	Tools map[string]map[string]process.Command `yaml:"tools" mapstructure:"tools" validate:"dive,keys,stepname,endkeys,dive,keys,stepname,endkeys"`
}

// EngineConfig tunes pipeline execution and tool dispatch.
type EngineConfig struct {
	// RetryBackoff is the delay before each step retry. Zero retries immediately.
	RetryBackoff time.Duration `yaml:"retry_backoff" mapstructure:"retry_backoff" validate:"gte=0"`
	// MaxParallel caps concurrent calls in tool.Parallel. Zero means unbounded.
	MaxParallel int `yaml:"max_parallel" mapstructure:"max_parallel" validate:"gte=0"`
	// ToolConcurrency caps in-flight calls per tool. Zero disables the limit.
	ToolConcurrency int `yaml:"tool_concurrency" mapstructure:"tool_concurrency" validate:"gte=0"`
	// DefinitionDirs are searched for pipeline definition files.
	DefinitionDirs []string `yaml:"definition_dirs" mapstructure:"definition_dirs"`
}

// TelemetryConfig enables OpenTelemetry export.
type TelemetryConfig struct {
	Tracing TracingConfig `yaml:"tracing" mapstructure:"tracing"`
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
}

// TracingConfig configures the OTLP trace exporter.
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled" mapstructure:"enabled"`
	Endpoint   string  `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure   bool    `yaml:"insecure" mapstructure:"insecure"`
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gte=0,lte=1"`
}

// MetricsConfig configures the OTLP metric exporter.
type MetricsConfig struct {
	Enabled  bool          `yaml:"enabled" mapstructure:"enabled"`
	Endpoint string        `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure bool          `yaml:"insecure" mapstructure:"insecure"`
	Interval time.Duration `yaml:"interval" mapstructure:"interval" validate:"gte=0"`
}

// ApplyDefaults fills unset fields across all sections.
func (c *Config) ApplyDefaults() {
	c.Service.ApplyDefaults()
	c.Cache.ApplyDefaults()
	if c.Engine.DefinitionDirs == nil {
		c.Engine.DefinitionDirs = []string{"./pipelines"}
	}
	if c.Telemetry.Tracing.Endpoint == "" {
		c.Telemetry.Tracing.Endpoint = "localhost:4318"
	}
	if c.Telemetry.Tracing.SampleRate == 0 {
		c.Telemetry.Tracing.SampleRate = 1.0
	}
	if c.Telemetry.Metrics.Endpoint == "" {
		c.Telemetry.Metrics.Endpoint = "localhost:4318"
	}
	if c.Telemetry.Metrics.Interval == 0 {
		c.Telemetry.Metrics.Interval = 15 * time.Second
	}
}

// Validate checks struct constraints and then the service section.
func (c *Config) Validate() error {
	if err := c.Service.Validate(); err != nil {
		return err
	}
	if err := validation.Validate(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
