// Package tool is the invocation boundary between the orchestration core and
// the analysis/generation tools it schedules.
//
// The core depends only on Invoker. A Registry is the standard Invoker: a
// name-keyed table of Tools, an optional middleware stack (logging, tracing,
// metrics, concurrency limits, memoization), a TTL result cache and an event
// bus, all injected at construction time.
//
//	reg := tool.NewRegistry(tool.WithCache(c), tool.WithEventBus(bus))
//	reg.RegisterFunc("review", "run", reviewFn)
//	out, err := reg.Invoke(ctx, "review", "run", "main.go")
//
// Sequence, Parallel and Chain compose invocations for callers building
// pipelines; the pipeline coordinator itself never uses them.
package tool
