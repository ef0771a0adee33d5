package workflow

import "context"

// Lifecycle topics published on the pipeline's event bus.
const (
	TopicPipelineStarted   = "pipeline.started"
	TopicPipelineCompleted = "pipeline.completed"
	TopicPipelineAborted   = "pipeline.aborted"
	TopicStepStarted       = "step.started"
	TopicStepCompleted     = "step.completed"
	TopicStepFailed        = "step.failed"
	TopicStepSkipped       = "step.skipped"
	TopicStepRetry         = "step.retry"
)

// RunEvent is the payload of pipeline.* topics. Result is nil for pipeline.started.
type RunEvent struct {
	Pipeline string
	RunID    string
	Result   *Result
}

// StepEvent is the payload of step.* topics. Attempt and Err are set for
// step.retry; Result is set once the step has finished.
type StepEvent struct {
	Pipeline string
	RunID    string
	Step     string
	Attempt  int
	Err      error
	Result   *StepResult
}

func (p *Pipeline) emit(ctx context.Context, topic string, payload any) {
	if p.bus == nil {
		return
	}
	p.bus.Emit(ctx, topic, payload)
}
