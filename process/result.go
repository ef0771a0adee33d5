package process

import (
	"strings"
	"time"
)

// Result holds the output and status of a completed subprocess.
type Result struct {
	Stdout []byte `json:"-"`
	Stderr []byte `json:"-"`
	// ExitCode is the process exit code. -1 if the process was killed.
	ExitCode int           `json:"exitCode"`
	Duration time.Duration `json:"-"`
}

// Output returns stdout with surrounding whitespace trimmed.
func (r *Result) Output() string {
	if r == nil {
		return ""
	}
	return strings.TrimSpace(string(r.Stdout))
}

// ErrorOutput returns stderr with surrounding whitespace trimmed.
func (r *Result) ErrorOutput() string {
	if r == nil {
		return ""
	}
	return strings.TrimSpace(string(r.Stderr))
}
