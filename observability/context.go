package observability

import (
	"context"
	"time"
)

// RunInfo identifies the pipeline run a context belongs to.
type RunInfo struct {
	Pipeline  string
	RunID     string
	StartTime time.Time
	// Parent is the enclosing run for sub-pipelines, or nil.
	Parent *RunInfo
}

// Depth returns how many runs enclose this one.
func (ri *RunInfo) Depth() int {
	d := 0
	for p := ri.Parent; p != nil; p = p.Parent {
		d++
	}
	return d
}

type runInfoKey struct{}

// WithRunInfo stores ri in the context, linking it to any run already there.
func WithRunInfo(ctx context.Context, ri *RunInfo) context.Context {
	if parent := RunInfoFromContext(ctx); parent != nil && ri.Parent == nil {
		ri.Parent = parent
	}
	return context.WithValue(ctx, runInfoKey{}, ri)
}

// RunInfoFromContext retrieves the innermost RunInfo from context, or nil.
func RunInfoFromContext(ctx context.Context) *RunInfo {
	if ri, ok := ctx.Value(runInfoKey{}).(*RunInfo); ok {
		return ri
	}
	return nil
}
