package bootstrap

import (
	"context"
	"fmt"
)

// Hook is a lifecycle callback that runs when the runtime starts or stops.
type Hook func(ctx context.Context) error

// OnStart registers hooks that run before a task starts.
func (r *Runtime) OnStart(hooks ...Hook) {
	r.onStart = append(r.onStart, hooks...)
}

// OnStop registers hooks that run during shutdown, before telemetry is
// flushed and the cache is closed.
func (r *Runtime) OnStop(hooks ...Hook) {
	r.onStop = append(r.onStop, hooks...)
}

// runHooks executes a slice of hooks sequentially, returning the first error.
func runHooks(ctx context.Context, hooks []Hook) error {
	for i, h := range hooks {
		if err := h(ctx); err != nil {
			return fmt.Errorf("hook %d failed: %w", i, err)
		}
	}
	return nil
}
