package tool

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/kbukum/toolflow/cache"
	"github.com/kbukum/toolflow/errors"
	"github.com/kbukum/toolflow/logger"
	"github.com/kbukum/toolflow/observability"
	"github.com/kbukum/toolflow/resilience"
)

// Middleware wraps an Invoker with cross-cutting behavior.
type Middleware func(Invoker) Invoker

// Wrap applies middlewares to inv. The first middleware is outermost:
// Wrap(inv, a, b) is a(b(inv)).
func Wrap(inv Invoker, middlewares ...Middleware) Invoker {
	for i := len(middlewares) - 1; i >= 0; i-- {
		inv = middlewares[i](inv)
	}
	return inv
}

// WithLogging logs every invocation with its duration and outcome, tagged
// with the enclosing pipeline run when the context carries one.
func WithLogging(log *logger.Logger) Middleware {
	return func(next Invoker) Invoker {
		return InvokerFunc(func(ctx context.Context, toolName, method string, args ...any) (any, error) {
			start := time.Now()
			out, err := next.Invoke(ctx, toolName, method, args...)

			fields := logger.MergeWithDuration(logger.Fields(
				logger.FieldTool, toolName,
				logger.FieldMethod, method,
			), time.Since(start))
			if ri := observability.RunInfoFromContext(ctx); ri != nil {
				fields[logger.FieldPipeline] = ri.Pipeline
				fields[logger.FieldRunID] = ri.RunID
			}
			if err != nil {
				log.Warn("tool invocation failed", logger.MergeWithError(fields, err))
			} else {
				log.Debug("tool invocation ok", fields)
			}
			return out, err
		})
	}
}

// WithTracing opens a span named "{prefix}.{tool}.{method}" per invocation.
func WithTracing(prefix string) Middleware {
	return func(next Invoker) Invoker {
		return InvokerFunc(func(ctx context.Context, toolName, method string, args ...any) (any, error) {
			ctx, span := observability.StartSpan(ctx, prefix+"."+toolName+"."+method)
			defer span.End()

			observability.SetSpanAttribute(ctx, observability.AttrTool, toolName)
			observability.SetSpanAttribute(ctx, observability.AttrMethod, method)

			out, err := next.Invoke(ctx, toolName, method, args...)
			if err != nil {
				observability.SetSpanError(ctx, err)
			}
			return out, err
		})
	}
}

// WithMetrics records call counts and durations per tool and method.
func WithMetrics(m *observability.WorkflowMetrics) Middleware {
	return func(next Invoker) Invoker {
		return InvokerFunc(func(ctx context.Context, toolName, method string, args ...any) (any, error) {
			start := time.Now()
			out, err := next.Invoke(ctx, toolName, method, args...)
			status := observability.StatusOK
			if err != nil {
				status = observability.StatusError
			}
			m.RecordToolCall(ctx, toolName, method, status, time.Since(start))
			return out, err
		})
	}
}

// WithConcurrencyLimit caps concurrent in-flight calls per tool. maxWait
// follows resilience.BulkheadConfig: zero rejects at once, negative waits for
// a slot. Rejections surface as TOOL_BUSY errors.
func WithConcurrencyLimit(limit int, maxWait time.Duration) Middleware {
	var mu sync.Mutex
	bulkheads := make(map[string]*resilience.Bulkhead)

	bulkheadFor := func(toolName string) *resilience.Bulkhead {
		mu.Lock()
		defer mu.Unlock()
		b, ok := bulkheads[toolName]
		if !ok {
			b = resilience.NewBulkhead(resilience.BulkheadConfig{
				Name:          toolName,
				MaxConcurrent: limit,
				MaxWait:       maxWait,
			})
			bulkheads[toolName] = b
		}
		return b
	}

	return func(next Invoker) Invoker {
		return InvokerFunc(func(ctx context.Context, toolName, method string, args ...any) (any, error) {
			var out any
			var callErr error
			err := bulkheadFor(toolName).Execute(ctx, func() error {
				out, callErr = next.Invoke(ctx, toolName, method, args...)
				return callErr
			})
			if err != nil && callErr == nil {
				if stderrors.Is(err, resilience.ErrBulkheadFull) || stderrors.Is(err, resilience.ErrBulkheadTimeout) {
					return nil, errors.ToolBusy(toolName, err)
				}
				return nil, err
			}
			return out, callErr
		})
	}
}

// WithCache memoizes successful results in c for ttl (zero uses the cache
// default). When tools is non-empty only those tools are memoized.
func WithCache(c *cache.Cache, ttl time.Duration, tools ...string) Middleware {
	only := make(map[string]bool, len(tools))
	for _, t := range tools {
		only[t] = true
	}
	return func(next Invoker) Invoker {
		return InvokerFunc(func(ctx context.Context, toolName, method string, args ...any) (any, error) {
			if len(only) > 0 && !only[toolName] {
				return next.Invoke(ctx, toolName, method, args...)
			}
			key := cache.Key(toolName, method, args)
			if v, ok := c.Get(key); ok {
				return v, nil
			}
			out, err := next.Invoke(ctx, toolName, method, args...)
			if err == nil {
				c.Set(key, out, ttl)
			}
			return out, err
		})
	}
}
