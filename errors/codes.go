package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Resolution errors (raised before any step runs)
const (
	// ErrCodeCycleDetected indicates the step graph contains a dependency cycle.
	ErrCodeCycleDetected ErrorCode = "CYCLE_DETECTED"
	// ErrCodeUnknownDependency indicates a step depends on a name that is not registered.
	ErrCodeUnknownDependency ErrorCode = "UNKNOWN_DEPENDENCY"
	// ErrCodeDuplicateStep indicates two steps share a name within one pipeline.
	ErrCodeDuplicateStep ErrorCode = "DUPLICATE_STEP"
	// ErrCodeInvalidStep indicates a step definition failed validation.
	ErrCodeInvalidStep ErrorCode = "INVALID_STEP"
)

// Execution errors
const (
	// ErrCodeStepFailed indicates a step exhausted its attempts.
	ErrCodeStepFailed ErrorCode = "STEP_FAILED"
	// ErrCodePipelineAborted indicates a run halted on a non-tolerated failure.
	ErrCodePipelineAborted ErrorCode = "PIPELINE_ABORTED"
	// ErrCodePipelineBusy indicates Execute was called while a run was in progress.
	ErrCodePipelineBusy ErrorCode = "PIPELINE_BUSY"
	// ErrCodeTimeout indicates the operation timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
)

// Tool errors
const (
	// ErrCodeToolNotFound indicates no tool is registered under the name.
	ErrCodeToolNotFound ErrorCode = "TOOL_NOT_FOUND"
	// ErrCodeMethodNotFound indicates the tool does not expose the method.
	ErrCodeMethodNotFound ErrorCode = "METHOD_NOT_FOUND"
	// ErrCodeToolFailed indicates the tool returned an error.
	ErrCodeToolFailed ErrorCode = "TOOL_FAILED"
	// ErrCodeToolBusy indicates the tool's concurrency limit was reached.
	ErrCodeToolBusy ErrorCode = "TOOL_BUSY"
)

// Validation errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField indicates a required field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
)

// Internal errors
const (
	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeTimeout:    true,
	ErrCodeToolFailed: true,
	ErrCodeToolBusy:   true,
	ErrCodeStepFailed: true,
	ErrCodeInternal:   false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
