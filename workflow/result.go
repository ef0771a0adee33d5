package workflow

import (
	"encoding/json"
	"time"

	"github.com/kbukum/toolflow/errors"
)

// StepStatus is the terminal state of one step in a run.
type StepStatus string

const (
	StatusSucceeded StepStatus = "succeeded"
	StatusFailed    StepStatus = "failed"
	StatusSkipped   StepStatus = "skipped"
)

// Phase is the state of a pipeline run.
type Phase string

const (
	PhasePending   Phase = "pending"
	PhaseResolving Phase = "resolving"
	PhaseRunning   Phase = "running"
	PhaseCompleted Phase = "completed"
	PhaseAborted   Phase = "aborted"
)

// StepResult is the outcome of one step. Only the final attempt's payload
// or error is kept.
type StepResult struct {
	Step      string
	Status    StepStatus
	Payload   any
	Err       error
	Attempts  int
	Duration  time.Duration
	StartedAt time.Time
}

// Success reports whether the step ran and succeeded.
func (sr StepResult) Success() bool { return sr.Status == StatusSucceeded }

type stepResultJSON struct {
	Step       string     `json:"step"`
	Success    bool       `json:"success"`
	Status     StepStatus `json:"status"`
	Payload    any        `json:"payload,omitempty"`
	Error      string     `json:"error,omitempty"`
	Attempts   int        `json:"attempts"`
	DurationMs int64      `json:"durationMs"`
}

// MarshalJSON encodes the result with the error as a string and the duration in milliseconds.
func (sr StepResult) MarshalJSON() ([]byte, error) {
	out := stepResultJSON{
		Step:       sr.Step,
		Success:    sr.Success(),
		Status:     sr.Status,
		Attempts:   sr.Attempts,
		DurationMs: sr.Duration.Milliseconds(),
	}
	if sr.Err != nil {
		out.Error = sr.Err.Error()
	} else {
		out.Payload = sr.Payload
	}
	return json.Marshal(out)
}

// Metadata aggregates run-level bookkeeping.
type Metadata struct {
	RunID    string        `json:"runId"`
	Pipeline string        `json:"pipeline"`
	Duration time.Duration `json:"-"`
	// ExecutionOrder lists steps in the order they ran or were skipped.
	ExecutionOrder []string `json:"executionOrder"`
	// RetryAttempts maps steps that needed more than one attempt to the attempts used.
	RetryAttempts map[string]int `json:"retryAttempts"`
	// FailedStep names the step that aborted the run.
	FailedStep string `json:"failedStep,omitempty"`
}

// MarshalJSON adds durationMs.
func (m Metadata) MarshalJSON() ([]byte, error) {
	type plain Metadata
	return json.Marshal(struct {
		plain
		DurationMs int64 `json:"durationMs"`
	}{plain(m), m.Duration.Milliseconds()})
}

// Result is the terminal artifact of one Execute call. It is returned even
// when the run aborts.
type Result struct {
	Success  bool         `json:"success"`
	Phase    Phase        `json:"phase"`
	Steps    []StepResult `json:"results"`
	Err      error        `json:"-"`
	Metadata Metadata     `json:"metadata"`
}

func newResult(pipeline, runID string) *Result {
	return &Result{
		Phase: PhasePending,
		Steps: []StepResult{},
		Metadata: Metadata{
			RunID:          runID,
			Pipeline:       pipeline,
			ExecutionOrder: []string{},
			RetryAttempts:  map[string]int{},
		},
	}
}

func (r *Result) record(sr StepResult) {
	r.Steps = append(r.Steps, sr)
	r.Metadata.ExecutionOrder = append(r.Metadata.ExecutionOrder, sr.Step)
	if sr.Attempts > 1 {
		r.Metadata.RetryAttempts[sr.Step] = sr.Attempts
	}
}

// Step returns the result of the named step.
func (r *Result) Step(name string) (StepResult, bool) {
	for _, sr := range r.Steps {
		if sr.Step == name {
			return sr, true
		}
	}
	return StepResult{}, false
}

// Failed returns the failed step results, tolerated ones included.
func (r *Result) Failed() []StepResult {
	var out []StepResult
	for _, sr := range r.Steps {
		if sr.Status == StatusFailed {
			out = append(out, sr)
		}
	}
	return out
}

// MarshalJSON adds the error message.
func (r *Result) MarshalJSON() ([]byte, error) {
	type plain Result
	out := struct {
		*plain
		Error string `json:"error,omitempty"`
	}{plain: (*plain)(r)}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return json.Marshal(out)
}

// AbortError is returned by Execute when a non-tolerated step failure halts
// the run. Result holds the partial results gathered up to and including the
// failed step.
type AbortError struct {
	Result *Result
	Step   string
	err    *errors.AppError
}

func newAbortError(res *Result, failed StepResult) *AbortError {
	return &AbortError{
		Result: res,
		Step:   failed.Step,
		err:    errors.PipelineAborted(res.Metadata.Pipeline, failed.Step, failed.Err),
	}
}

func (e *AbortError) Error() string { return e.err.Error() }

// Unwrap exposes the PIPELINE_ABORTED AppError and, through it, the step failure.
func (e *AbortError) Unwrap() error { return e.err }
