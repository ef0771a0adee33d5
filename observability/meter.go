package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/toolflow/logger"
)

// Status values used as the "status" metric attribute.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider and installs it
// globally. The returned provider should be shut down on exit.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// WorkflowMetrics holds the instruments recorded by pipelines and tool calls.
// A nil *WorkflowMetrics is valid and records nothing.
type WorkflowMetrics struct {
	runTotal         metric.Int64Counter
	runDuration      metric.Float64Histogram
	runActive        metric.Int64UpDownCounter
	stepTotal        metric.Int64Counter
	stepDuration     metric.Float64Histogram
	retryTotal       metric.Int64Counter
	toolCallTotal    metric.Int64Counter
	toolCallDuration metric.Float64Histogram
}

// NewWorkflowMetrics creates metric instruments on the given meter.
func NewWorkflowMetrics(meter metric.Meter) (*WorkflowMetrics, error) {
	var (
		m   WorkflowMetrics
		err error
	)

	if m.runTotal, err = meter.Int64Counter("workflow.run.total",
		metric.WithDescription("Pipeline runs by outcome"),
	); err != nil {
		return nil, fmt.Errorf("creating workflow.run.total counter: %w", err)
	}
	if m.runDuration, err = meter.Float64Histogram("workflow.run.duration",
		metric.WithDescription("Duration of pipeline runs in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("creating workflow.run.duration histogram: %w", err)
	}
	if m.runActive, err = meter.Int64UpDownCounter("workflow.run.active",
		metric.WithDescription("Pipeline runs in progress"),
	); err != nil {
		return nil, fmt.Errorf("creating workflow.run.active gauge: %w", err)
	}
	if m.stepTotal, err = meter.Int64Counter("workflow.step.total",
		metric.WithDescription("Step executions by status"),
	); err != nil {
		return nil, fmt.Errorf("creating workflow.step.total counter: %w", err)
	}
	if m.stepDuration, err = meter.Float64Histogram("workflow.step.duration",
		metric.WithDescription("Duration of step executions in seconds, retries included"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("creating workflow.step.duration histogram: %w", err)
	}
	if m.retryTotal, err = meter.Int64Counter("workflow.step.retries",
		metric.WithDescription("Step retry attempts"),
	); err != nil {
		return nil, fmt.Errorf("creating workflow.step.retries counter: %w", err)
	}
	if m.toolCallTotal, err = meter.Int64Counter("tool.call.total",
		metric.WithDescription("Tool invocations by outcome"),
	); err != nil {
		return nil, fmt.Errorf("creating tool.call.total counter: %w", err)
	}
	if m.toolCallDuration, err = meter.Float64Histogram("tool.call.duration",
		metric.WithDescription("Duration of tool invocations in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("creating tool.call.duration histogram: %w", err)
	}

	return &m, nil
}

// RecordRunStart increments the active run count.
func (m *WorkflowMetrics) RecordRunStart(ctx context.Context, pipeline string) {
	if m == nil {
		return
	}
	m.runActive.Add(ctx, 1, metric.WithAttributes(attribute.String("pipeline", pipeline)))
}

// RecordRun decrements active runs and records the finished run.
func (m *WorkflowMetrics) RecordRun(ctx context.Context, pipeline, status string, duration time.Duration) {
	if m == nil {
		return
	}
	p := attribute.String("pipeline", pipeline)
	m.runActive.Add(ctx, -1, metric.WithAttributes(p))
	m.runTotal.Add(ctx, 1, metric.WithAttributes(p, attribute.String("status", status)))
	m.runDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(p))
}

// RecordStep records one finished step with its terminal status.
func (m *WorkflowMetrics) RecordStep(ctx context.Context, pipeline, step, status string, duration time.Duration) {
	if m == nil {
		return
	}
	p, s := attribute.String("pipeline", pipeline), attribute.String("step", step)
	m.stepTotal.Add(ctx, 1, metric.WithAttributes(p, s, attribute.String("status", status)))
	m.stepDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(p, s))
}

// RecordRetry counts one retry of a step.
func (m *WorkflowMetrics) RecordRetry(ctx context.Context, pipeline, step string) {
	if m == nil {
		return
	}
	m.retryTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("pipeline", pipeline),
		attribute.String("step", step),
	))
}

// RecordToolCall records one tool invocation.
func (m *WorkflowMetrics) RecordToolCall(ctx context.Context, tool, method, status string, duration time.Duration) {
	if m == nil {
		return
	}
	t, mt := attribute.String("tool", tool), attribute.String("method", method)
	m.toolCallTotal.Add(ctx, 1, metric.WithAttributes(t, mt, attribute.String("status", status)))
	m.toolCallDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(t, mt))
}
