package workflow

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/toolflow/errors"
	"github.com/kbukum/toolflow/logger"
	"github.com/kbukum/toolflow/observability"
)

// run carries per-Execute state shared by the coordinator and the executor.
type run struct {
	p     *Pipeline
	id    string
	log   *logger.Logger
	prior *Results
}

// Execute resolves the steps and runs them in order. The returned Result is
// never nil.
//
// Resolution problems (build errors, duplicate names, unknown dependencies,
// cycles) are returned as AppErrors with zero step results. A non-tolerated
// step failure halts the run and returns an *AbortError carrying the partial
// Result. Tolerated failures leave Success false but let the run complete.
func (p *Pipeline) Execute(ctx context.Context) (*Result, error) {
	r := &run{p: p, id: uuid.NewString(), prior: newResults()}
	r.log = p.log.WithFields(logger.Fields(logger.FieldRunID, r.id))
	res := newResult(p.name, r.id)

	if !p.running.CompareAndSwap(false, true) {
		err := errors.PipelineBusy(p.name)
		res.Phase, res.Err = PhaseAborted, err
		return res, err
	}
	defer p.running.Store(false)

	start := time.Now()
	ctx = observability.WithRunInfo(ctx, &observability.RunInfo{Pipeline: p.name, RunID: r.id, StartTime: start})
	var span trace.Span
	if p.tracing {
		ctx, span = observability.StartSpan(ctx, observability.SpanPipelineRun)
		defer span.End()
		observability.SetSpanAttribute(ctx, observability.AttrPipeline, p.name)
		observability.SetSpanAttribute(ctx, observability.AttrRunID, r.id)
	}

	p.metrics.RecordRunStart(ctx, p.name)
	p.emit(ctx, TopicPipelineStarted, RunEvent{Pipeline: p.name, RunID: r.id})
	r.log.Info("pipeline started", logger.Fields("steps", len(p.steps)))

	res.Phase = PhaseResolving
	order, err := p.resolve()
	if err != nil {
		res.Phase, res.Err = PhaseAborted, err
		res.Metadata.FailedStep = blamedStep(err)
		r.finish(ctx, res, start)
		r.log.Error("pipeline resolution failed", logger.MergeWithError(
			logger.Fields(logger.FieldStep, res.Metadata.FailedStep), err))
		return res, err
	}

	res.Phase = PhaseRunning
	for _, step := range order {
		var sr StepResult
		if ctxErr := ctx.Err(); ctxErr != nil {
			sr = r.cancelStep(ctx, step, ctxErr)
		} else {
			sr = r.runStep(ctx, step)
		}

		res.record(sr)
		r.prior.add(sr)

		if sr.Status == StatusFailed && (!step.ContinueOnError || ctx.Err() != nil) {
			res.Phase = PhaseAborted
			res.Metadata.FailedStep = step.Name
			abortErr := newAbortError(res, sr)
			res.Err = abortErr
			r.finish(ctx, res, start)
			r.log.Error("pipeline aborted", logger.MergeWithError(
				logger.Fields(logger.FieldStep, step.Name), sr.Err))
			return res, abortErr
		}
	}

	res.Phase = PhaseCompleted
	res.Success = !r.prior.AnyFailed()
	r.finish(ctx, res, start)
	r.log.Info("pipeline completed", logger.MergeWithDuration(
		logger.Fields("success", res.Success, "steps", len(res.Steps)), res.Metadata.Duration))
	return res, nil
}

// resolve surfaces build errors first, then orders the steps.
func (p *Pipeline) resolve() ([]Step, error) {
	if err := p.Err(); err != nil {
		return nil, err
	}
	return Resolve(p.steps)
}

// blamedStep names the step a resolution error is about: the step with the
// missing dependency or the invalid definition, or the first node of a cycle.
func blamedStep(err error) string {
	appErr, ok := errors.AsAppError(err)
	if !ok {
		return ""
	}
	if cycle, ok := appErr.Details["cycle"].([]string); ok && len(cycle) > 0 {
		return cycle[0]
	}
	step, _ := appErr.Details["step"].(string)
	return step
}

func (r *run) finish(ctx context.Context, res *Result, start time.Time) {
	res.Metadata.Duration = time.Since(start)

	status := observability.StatusOK
	topic := TopicPipelineCompleted
	if res.Phase == PhaseAborted {
		status, topic = observability.StatusError, TopicPipelineAborted
		if r.p.tracing && res.Err != nil {
			observability.SetSpanError(ctx, res.Err)
		}
	} else if !res.Success {
		status = observability.StatusError
	}

	r.p.metrics.RecordRun(ctx, r.p.name, status, res.Metadata.Duration)
	r.p.emit(ctx, topic, RunEvent{Pipeline: r.p.name, RunID: r.id, Result: res})
}
