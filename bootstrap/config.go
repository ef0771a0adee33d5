package bootstrap

import (
	"context"

	"github.com/kbukum/toolflow/config"
	"github.com/kbukum/toolflow/observability"
	"github.com/kbukum/toolflow/process"
	"github.com/kbukum/toolflow/tool"
)

// Load reads configuration for serviceName with config.Load and builds a
// Runtime from it.
//
// Example:
//
//	rt, err := bootstrap.Load(ctx, "release-bot",
//	    []config.LoaderOption{config.WithConfigFile("ci/toolflow.yml")},
//	    bootstrap.WithTools(myTool),
//	)
func Load(ctx context.Context, serviceName string, loaderOpts []config.LoaderOption, opts ...Option) (*Runtime, error) {
	cfg, err := config.Load(serviceName, loaderOpts...)
	if err != nil {
		return nil, err
	}
	return New(ctx, cfg, opts...)
}

func tracerConfig(cfg *config.Config) *observability.TracerConfig {
	return &observability.TracerConfig{
		ServiceName:    cfg.Service.Name,
		ServiceVersion: cfg.Service.Version,
		Environment:    cfg.Service.Environment,
		Endpoint:       cfg.Telemetry.Tracing.Endpoint,
		Insecure:       cfg.Telemetry.Tracing.Insecure,
		SampleRate:     cfg.Telemetry.Tracing.SampleRate,
	}
}

func meterConfig(cfg *config.Config) *observability.MeterConfig {
	return &observability.MeterConfig{
		ServiceName:    cfg.Service.Name,
		ServiceVersion: cfg.Service.Version,
		Environment:    cfg.Service.Environment,
		Endpoint:       cfg.Telemetry.Metrics.Endpoint,
		Insecure:       cfg.Telemetry.Metrics.Insecure,
		Interval:       cfg.Telemetry.Metrics.Interval,
	}
}

// commandTools turns the tools section of the config into CommandTools.
func commandTools(tools map[string]map[string]process.Command) []tool.Tool {
	out := make([]tool.Tool, 0, len(tools))
	for name, methods := range tools {
		ct := tool.NewCommandTool(name)
		for method, cmd := range methods {
			ct.Method(method, cmd)
		}
		out = append(out, ct)
	}
	return out
}
