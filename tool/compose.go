package tool

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Outcome is the result of one call made by Parallel.
type Outcome struct {
	Call   Call
	Output any
	Err    error
}

// Sequence runs calls in order and stops at the first error. It returns the
// outputs gathered so far.
func Sequence(ctx context.Context, inv Invoker, calls []Call) ([]any, error) {
	outputs := make([]any, 0, len(calls))
	for i, c := range calls {
		out, err := c.Do(ctx, inv)
		if err != nil {
			return outputs, fmt.Errorf("sequence step %d (%s.%s): %w", i, c.Tool, c.Method, err)
		}
		outputs = append(outputs, out)
	}
	return outputs, nil
}

// Parallel runs calls concurrently, at most limit at a time (limit <= 0 means
// no limit), and returns every outcome in call order. One failing call does
// not cancel the others.
func Parallel(ctx context.Context, inv Invoker, calls []Call, limit int) []Outcome {
	outcomes := make([]Outcome, len(calls))
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, c := range calls {
		g.Go(func() error {
			out, err := c.Do(ctx, inv)
			outcomes[i] = Outcome{Call: c, Output: out, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

// FirstError returns the first failed outcome's error, if any.
func FirstError(outcomes []Outcome) error {
	for _, o := range outcomes {
		if o.Err != nil {
			return fmt.Errorf("%s.%s: %w", o.Call.Tool, o.Call.Method, o.Err)
		}
	}
	return nil
}

// Stage is one link of a Chain. The previous stage's output becomes the first
// argument, followed by Args. Transform, when set, rewrites the previous
// output before it is passed on.
type Stage struct {
	Tool      string
	Method    string
	Args      []any
	Transform func(prev any) (any, error)
}

// Chain feeds initial into the first stage and each stage's output into the
// next, returning the last output.
func Chain(ctx context.Context, inv Invoker, initial any, stages []Stage) (any, error) {
	current := initial
	for i, s := range stages {
		input := current
		if s.Transform != nil {
			var err error
			if input, err = s.Transform(current); err != nil {
				return nil, fmt.Errorf("chain stage %d (%s.%s) transform: %w", i, s.Tool, s.Method, err)
			}
		}
		args := append([]any{input}, s.Args...)
		out, err := inv.Invoke(ctx, s.Tool, s.Method, args...)
		if err != nil {
			return nil, fmt.Errorf("chain stage %d (%s.%s): %w", i, s.Tool, s.Method, err)
		}
		current = out
	}
	return current, nil
}
