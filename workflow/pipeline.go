package workflow

import (
	stderrors "errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/kbukum/toolflow/errors"
	"github.com/kbukum/toolflow/events"
	"github.com/kbukum/toolflow/logger"
	"github.com/kbukum/toolflow/observability"
)

// maxRetryBackoff caps exponential retry delays when WithRetryBackoff is set.
const maxRetryBackoff = 30 * time.Second

// Pipeline owns an insertion-ordered set of steps. Build it with the Add
// methods, then call Execute. A pipeline may be executed again once a run has
// returned; overlapping runs are rejected.
type Pipeline struct {
	name      string
	steps     []Step
	names     map[string]struct{}
	buildErrs []error

	log     *logger.Logger
	bus     *events.Bus
	metrics *observability.WorkflowMetrics
	tracing bool
	backoff time.Duration

	running atomic.Bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the pipeline logger.
func WithLogger(l *logger.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}

// WithEventBus publishes run lifecycle events on b.
func WithEventBus(b *events.Bus) Option {
	return func(p *Pipeline) { p.bus = b }
}

// WithMetrics records run and step metrics.
func WithMetrics(m *observability.WorkflowMetrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithTracing opens a span per run and per step.
func WithTracing() Option {
	return func(p *Pipeline) { p.tracing = true }
}

// WithRetryBackoff waits d before the first retry of a step, doubling per
// retry. The default is to retry immediately.
func WithRetryBackoff(d time.Duration) Option {
	return func(p *Pipeline) { p.backoff = d }
}

// New creates an empty pipeline.
func New(name string, opts ...Option) *Pipeline {
	p := &Pipeline{
		name:  name,
		names: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = logger.OrNop(p.log).WithComponent("workflow").WithFields(logger.Fields(logger.FieldPipeline, name))
	return p
}

// Name returns the pipeline name.
func (p *Pipeline) Name() string { return p.name }

// Steps returns a copy of the registered steps in registration order.
func (p *Pipeline) Steps() []Step {
	return append([]Step(nil), p.steps...)
}

// Err returns the problems recorded while building, or nil.
// Execute fails with the same error before running any step.
func (p *Pipeline) Err() error {
	return stderrors.Join(p.buildErrs...)
}

// AddStep registers step after applying opts. Invalid or duplicate steps are
// recorded and surface from Err and Execute.
func (p *Pipeline) AddStep(step Step, opts ...StepOption) *Pipeline {
	for _, opt := range opts {
		opt(&step)
	}
	step.DependsOn = append([]string(nil), step.DependsOn...)

	if err := step.validate(); err != nil {
		p.buildErrs = append(p.buildErrs, errors.InvalidStep(step.Name, err))
		return p
	}
	if _, dup := p.names[step.Name]; dup {
		p.buildErrs = append(p.buildErrs, errors.DuplicateStep(step.Name))
		return p
	}
	p.names[step.Name] = struct{}{}
	p.steps = append(p.steps, step)
	return p
}

// AddConditionalStep registers step to run only when cond holds.
func (p *Pipeline) AddConditionalStep(step Step, cond Condition, opts ...StepOption) *Pipeline {
	if cond == nil {
		p.buildErrs = append(p.buildErrs, errors.InvalidStep(step.Name, fmt.Errorf("condition is nil")))
		return p
	}
	return p.AddStep(step, append(opts, When(cond))...)
}

// AddSubPipeline registers child as a single step named name. The child's
// steps stay invisible to this pipeline; its outcome is the step's outcome
// and its *Result the step's payload.
func (p *Pipeline) AddSubPipeline(name string, child *Pipeline, opts ...StepOption) *Pipeline {
	switch {
	case child == nil:
		p.buildErrs = append(p.buildErrs, errors.InvalidStep(name, fmt.Errorf("sub-pipeline is nil")))
		return p
	case child == p:
		p.buildErrs = append(p.buildErrs, errors.InvalidStep(name, fmt.Errorf("pipeline %q cannot embed itself", p.name)))
		return p
	}
	return p.AddStep(Step{Name: name, Operation: SubPipeline(child)}, opts...)
}
