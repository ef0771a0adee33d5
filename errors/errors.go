package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// AppError is the unified toolflow error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// Is reports whether target is an AppError with the same code, so the
// package-level sentinels can be matched with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableCode(code),
	}
}

// Sentinels for errors.Is matching. Only the code is compared.
var (
	ErrCycleDetected     = &AppError{Code: ErrCodeCycleDetected}
	ErrUnknownDependency = &AppError{Code: ErrCodeUnknownDependency}
	ErrDuplicateStep     = &AppError{Code: ErrCodeDuplicateStep}
	ErrInvalidStep       = &AppError{Code: ErrCodeInvalidStep}
	ErrStepFailed        = &AppError{Code: ErrCodeStepFailed}
	ErrPipelineAborted   = &AppError{Code: ErrCodePipelineAborted}
	ErrPipelineBusy      = &AppError{Code: ErrCodePipelineBusy}
	ErrToolNotFound      = &AppError{Code: ErrCodeToolNotFound}
	ErrMethodNotFound    = &AppError{Code: ErrCodeMethodNotFound}
	ErrToolBusy          = &AppError{Code: ErrCodeToolBusy}
)

// --- Resolution errors ---

// CycleDetected creates an error naming the full cycle, e.g. [a b c a].
func CycleDetected(cycle []string) *AppError {
	path := append([]string(nil), cycle...)
	return &AppError{
		Code:    ErrCodeCycleDetected,
		Message: fmt.Sprintf("dependency cycle detected: %s", strings.Join(path, " -> ")),
		Details: map[string]any{"cycle": path},
	}
}

// UnknownDependency creates an error for a dependency name with no matching step.
func UnknownDependency(step, dependency string) *AppError {
	return &AppError{
		Code:    ErrCodeUnknownDependency,
		Message: fmt.Sprintf("step %q depends on unknown step %q", step, dependency),
		Details: map[string]any{"step": step, "dependency": dependency},
	}
}

// DuplicateStep creates an error for a step name registered twice.
func DuplicateStep(step string) *AppError {
	return &AppError{
		Code:    ErrCodeDuplicateStep,
		Message: fmt.Sprintf("step %q is already registered", step),
		Details: map[string]any{"step": step},
	}
}

// InvalidStep creates an error for a step that failed validation.
func InvalidStep(step string, cause error) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidStep,
		Message: fmt.Sprintf("invalid step %q", step),
		Details: map[string]any{"step": step},
		Cause:   cause,
	}
}

// --- Execution errors ---

// StepFailed creates the error recorded for a step that exhausted its attempts.
func StepFailed(step string, attempts int, cause error) *AppError {
	return &AppError{
		Code:      ErrCodeStepFailed,
		Message:   fmt.Sprintf("step %q failed after %d attempt(s)", step, attempts),
		Retryable: true,
		Details:   map[string]any{"step": step, "attempts": attempts},
		Cause:     cause,
	}
}

// PipelineAborted creates the error for a run halted by a non-tolerated failure.
func PipelineAborted(pipeline, step string, cause error) *AppError {
	return &AppError{
		Code:    ErrCodePipelineAborted,
		Message: fmt.Sprintf("pipeline %q aborted at step %q", pipeline, step),
		Details: map[string]any{"pipeline": pipeline, "step": step},
		Cause:   cause,
	}
}

// PipelineBusy creates the error for overlapping Execute calls on one pipeline.
func PipelineBusy(pipeline string) *AppError {
	return &AppError{
		Code:    ErrCodePipelineBusy,
		Message: fmt.Sprintf("pipeline %q is already running", pipeline),
		Details: map[string]any{"pipeline": pipeline},
	}
}

// Timeout creates a new AppError for an operation that timed out.
func Timeout(operation string) *AppError {
	return &AppError{
		Code: ErrCodeTimeout, Message: fmt.Sprintf("%s timed out", operation),
		Retryable: true,
		Details:   map[string]any{"operation": operation},
	}
}

// --- Tool errors ---

// ToolNotFound creates an error for an unregistered tool name.
func ToolNotFound(tool string) *AppError {
	return &AppError{
		Code:    ErrCodeToolNotFound,
		Message: fmt.Sprintf("tool %q is not registered", tool),
		Details: map[string]any{"tool": tool},
	}
}

// MethodNotFound creates an error for a method the tool does not expose.
func MethodNotFound(tool, method string) *AppError {
	return &AppError{
		Code:    ErrCodeMethodNotFound,
		Message: fmt.Sprintf("tool %q has no method %q", tool, method),
		Details: map[string]any{"tool": tool, "method": method},
	}
}

// ToolFailed wraps an error returned by a tool invocation.
func ToolFailed(tool, method string, cause error) *AppError {
	return &AppError{
		Code:      ErrCodeToolFailed,
		Message:   fmt.Sprintf("tool %s.%s failed", tool, method),
		Retryable: true,
		Details:   map[string]any{"tool": tool, "method": method},
		Cause:     cause,
	}
}

// ToolBusy creates an error for a call rejected by a tool's concurrency limit.
func ToolBusy(tool string, cause error) *AppError {
	return &AppError{
		Code:      ErrCodeToolBusy,
		Message:   fmt.Sprintf("tool %q is at its concurrency limit", tool),
		Retryable: true,
		Details:   map[string]any{"tool": tool},
		Cause:     cause,
	}
}

// --- Validation errors ---

// InvalidInput creates a new AppError for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		Details: details,
	}
}

// Validation creates a new AppError for validation errors.
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeInvalidInput, Message: message}
}

// MissingField creates a new AppError for a missing required field.
func MissingField(field string) *AppError {
	return &AppError{
		Code: ErrCodeMissingField, Message: fmt.Sprintf("Missing required field: %s", field),
		Details: map[string]any{"field": field},
	}
}

// Internal creates a new AppError for an unexpected internal error.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "an unexpected error occurred",
		Cause: cause,
	}
}

// --- Inspection helpers ---

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsCode reports whether any AppError in err's chain carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return stderrors.Is(err, &AppError{Code: code})
}
