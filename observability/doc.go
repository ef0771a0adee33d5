// Package observability provides OpenTelemetry tracing and metrics for
// pipeline runs and tool invocations.
//
// Tracing:
//
//	cfg := observability.DefaultTracerConfig("my-service")
//	tp, err := observability.InitTracer(ctx, &cfg)
//	defer tp.Shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanStep)
//	defer span.End()
//
// Metrics:
//
//	cfg := observability.DefaultMeterConfig("my-service")
//	mp, err := observability.InitMeter(ctx, &cfg)
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewWorkflowMetrics(observability.Meter("my-service"))
//	metrics.RecordStep(ctx, "ci", "lint", "success", duration)
package observability
