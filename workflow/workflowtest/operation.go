package workflowtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbukum/toolflow/workflow"
)

// ErrScripted is the error returned by scripted failures.
var ErrScripted = fmt.Errorf("workflowtest: scripted failure")

// MockOperation is a configurable operation that records its calls.
type MockOperation struct {
	output   any
	err      error
	failures int
	fn       func(ctx context.Context, prior *workflow.Results) (any, error)

	mu    sync.Mutex
	calls int
}

var _ workflow.Operation = (*MockOperation)(nil)

// NewMockOperation returns an operation that always yields output.
func NewMockOperation(output any) *MockOperation {
	return &MockOperation{output: output}
}

// Failing returns an operation that always fails with err, or ErrScripted when err is nil.
func Failing(err error) *MockOperation {
	if err == nil {
		err = ErrScripted
	}
	return &MockOperation{err: err}
}

// Flaky returns an operation that fails its first n calls, then yields output.
func Flaky(n int, output any) *MockOperation {
	return &MockOperation{failures: n, output: output}
}

// NewMockOperationFunc returns an operation backed by fn.
func NewMockOperationFunc(fn func(ctx context.Context, prior *workflow.Results) (any, error)) *MockOperation {
	return &MockOperation{fn: fn}
}

// Run records the call and returns the scripted outcome.
func (o *MockOperation) Run(ctx context.Context, prior *workflow.Results) (any, error) {
	o.mu.Lock()
	o.calls++
	call := o.calls
	o.mu.Unlock()

	switch {
	case o.fn != nil:
		return o.fn(ctx, prior)
	case o.err != nil:
		return nil, o.err
	case call <= o.failures:
		return nil, fmt.Errorf("%w (call %d)", ErrScripted, call)
	}
	return o.output, nil
}

// Calls returns how many times Run was invoked.
func (o *MockOperation) Calls() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.calls
}

// Reset clears the call counter, restarting any scripted failures.
func (o *MockOperation) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = 0
}
