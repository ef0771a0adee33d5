package workflow

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/toolflow/errors"
	"github.com/kbukum/toolflow/logger"
	"github.com/kbukum/toolflow/observability"
	"github.com/kbukum/toolflow/resilience"
)

// runStep evaluates the step's condition and runs its operation within the
// retry budget. The returned result is final.
func (r *run) runStep(ctx context.Context, step Step) StepResult {
	p := r.p
	log := r.log.WithFields(logger.Fields(logger.FieldStep, step.Name))
	start := time.Now()
	sr := StepResult{Step: step.Name, StartedAt: start}

	if p.tracing {
		var span trace.Span
		ctx, span = observability.StartSpan(ctx, observability.SpanStep)
		defer span.End()
		observability.SetSpanAttribute(ctx, observability.AttrStep, step.Name)
	}

	if step.Condition != nil {
		ok, err := evaluate(step.Condition, r.prior)
		if err != nil {
			sr.Status, sr.Err = StatusFailed, errors.StepFailed(step.Name, 0, err)
			return r.finishStep(ctx, log, sr)
		}
		if !ok {
			sr.Status = StatusSkipped
			return r.finishStep(ctx, log, sr)
		}
	}

	p.emit(ctx, TopicStepStarted, StepEvent{Pipeline: p.name, RunID: r.id, Step: step.Name})
	log.Debug("step started", logger.Fields("retry_limit", step.RetryLimit))

	cfg := resilience.RetryConfig{
		MaxAttempts:    step.RetryLimit + 1,
		InitialBackoff: p.backoff,
		MaxBackoff:     maxRetryBackoff,
		// Errors wrapping a deadline from inside the operation are ordinary
		// failures; only the run's own context stops retrying.
		RetryIf:        func(error) bool { return ctx.Err() == nil },
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			log.Warn("step attempt failed, retrying", logger.MergeWithError(
				logger.Fields(logger.FieldAttempt, attempt, "backoff_ms", backoff.Milliseconds()), err))
			p.metrics.RecordRetry(ctx, p.name, step.Name)
			p.emit(ctx, TopicStepRetry, StepEvent{
				Pipeline: p.name, RunID: r.id, Step: step.Name, Attempt: attempt, Err: err,
			})
		},
	}

	payload, attempts, err := resilience.Retry(ctx, cfg, func(int) (any, error) {
		return invoke(ctx, step.Operation, r.prior)
	})

	sr.Attempts = attempts
	if err != nil {
		sr.Status, sr.Err = StatusFailed, errors.StepFailed(step.Name, attempts, err)
	} else {
		sr.Status, sr.Payload = StatusSucceeded, payload
	}
	return r.finishStep(ctx, log, sr)
}

// cancelStep records a step that never started because the run's context ended.
func (r *run) cancelStep(ctx context.Context, step Step, cause error) StepResult {
	sr := StepResult{
		Step:      step.Name,
		Status:    StatusFailed,
		Err:       errors.StepFailed(step.Name, 0, cause),
		StartedAt: time.Now(),
	}
	return r.finishStep(ctx, r.log.WithFields(logger.Fields(logger.FieldStep, step.Name)), sr)
}

func (r *run) finishStep(ctx context.Context, log *logger.Logger, sr StepResult) StepResult {
	p := r.p
	sr.Duration = time.Since(sr.StartedAt)

	topic := TopicStepCompleted
	fields := logger.MergeWithDuration(logger.Fields(
		logger.FieldStatus, string(sr.Status),
		logger.FieldAttempts, sr.Attempts,
	), sr.Duration)

	switch sr.Status {
	case StatusSkipped:
		topic = TopicStepSkipped
		log.Info("step skipped", fields)
	case StatusFailed:
		topic = TopicStepFailed
		log.Warn("step failed", logger.MergeWithError(fields, sr.Err))
	default:
		log.Info("step succeeded", fields)
	}
	if p.tracing {
		observability.SetSpanAttribute(ctx, observability.AttrAttempts, sr.Attempts)
		observability.SetSpanAttribute(ctx, observability.AttrStatus, string(sr.Status))
		if sr.Err != nil {
			observability.SetSpanError(ctx, sr.Err)
		}
	}

	p.metrics.RecordStep(ctx, p.name, sr.Step, string(sr.Status), sr.Duration)
	p.emit(ctx, topic, StepEvent{Pipeline: p.name, RunID: r.id, Step: sr.Step, Attempt: sr.Attempts, Result: &sr})
	return sr
}

// invoke runs one attempt, turning a panic into an error.
func invoke(ctx context.Context, op Operation, prior *Results) (out any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = errors.Internal(fmt.Errorf("operation panicked: %v", rec))
		}
	}()
	return op.Run(ctx, prior)
}

// evaluate runs a condition, turning a panic into an error.
func evaluate(cond Condition, prior *Results) (ok bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = errors.Internal(fmt.Errorf("condition panicked: %v", rec))
		}
	}()
	return cond(prior), nil
}
