package workflow

import (
	"context"

	"github.com/kbukum/toolflow/tool"
	"github.com/kbukum/toolflow/validation"
)

// Operation is the work a step performs. prior holds the results of the
// steps that finished earlier in the same run.
type Operation interface {
	Run(ctx context.Context, prior *Results) (any, error)
}

// OperationFunc adapts a function to Operation.
type OperationFunc func(ctx context.Context, prior *Results) (any, error)

// Run calls f.
func (f OperationFunc) Run(ctx context.Context, prior *Results) (any, error) {
	return f(ctx, prior)
}

// Condition decides at run time whether a step executes. A false result
// records the step as skipped.
type Condition func(prior *Results) bool

// Step is the unit of scheduling.
type Step struct {
	Name      string    `json:"name" validate:"required,stepname"`
	Operation Operation `json:"-" validate:"required"`
	// DependsOn names steps that must finish before this one starts.
	DependsOn []string `json:"dependsOn,omitempty" validate:"dive,stepname"`
	// RetryLimit is the number of extra attempts after the first failure.
	RetryLimit int `json:"retryLimit" validate:"gte=0"`
	// ContinueOnError records a final failure without aborting the run.
	ContinueOnError bool      `json:"continueOnError"`
	Condition       Condition `json:"-"`
}

func (s Step) validate() error {
	return validation.Validate(s)
}

// StepOption adjusts a step when it is registered.
type StepOption func(*Step)

// After appends dependencies.
func After(names ...string) StepOption {
	return func(s *Step) { s.DependsOn = append(s.DependsOn, names...) }
}

// Retries sets the retry limit.
func Retries(n int) StepOption {
	return func(s *Step) { s.RetryLimit = n }
}

// ContinueOnError marks failures of the step as tolerated.
func ContinueOnError() StepOption {
	return func(s *Step) { s.ContinueOnError = true }
}

// When sets the run condition.
func When(cond Condition) StepOption {
	return func(s *Step) { s.Condition = cond }
}

// ToolCall is an Operation that invokes a tool method through an Invoker.
type ToolCall struct {
	invoker tool.Invoker
	call    tool.Call
	input   func(prior *Results) []any
}

// Invoke returns an Operation calling toolName.method with args.
func Invoke(inv tool.Invoker, toolName, method string, args ...any) *ToolCall {
	return &ToolCall{
		invoker: inv,
		call:    tool.Call{Tool: toolName, Method: method, Args: args},
	}
}

// WithInput appends arguments computed from prior results at run time,
// typically payloads of dependencies.
func (c *ToolCall) WithInput(fn func(prior *Results) []any) *ToolCall {
	c.input = fn
	return c
}

// Call returns the static part of the invocation.
func (c *ToolCall) Call() tool.Call { return c.call }

// Run invokes the tool.
func (c *ToolCall) Run(ctx context.Context, prior *Results) (any, error) {
	if err := validation.Validate(c.call); err != nil {
		return nil, err
	}
	args := c.call.Args
	if c.input != nil {
		args = append(append([]any(nil), args...), c.input(prior)...)
	}
	return c.invoker.Invoke(ctx, c.call.Tool, c.call.Method, args...)
}

// FromPayloads is a WithInput helper passing the payloads of the named steps.
func FromPayloads(names ...string) func(prior *Results) []any {
	return func(prior *Results) []any {
		out := make([]any, len(names))
		for i, name := range names {
			out[i] = prior.Payload(name)
		}
		return out
	}
}
