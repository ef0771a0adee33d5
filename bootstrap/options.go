package bootstrap

import (
	"io"
	"time"

	"github.com/kbukum/toolflow/logger"
	"github.com/kbukum/toolflow/observability"
	"github.com/kbukum/toolflow/tool"
	"github.com/kbukum/toolflow/workflow"
)

// Option configures the Runtime during creation.
type Option func(*runtimeOptions)

// runtimeOptions collects all option values before applying to Runtime.
type runtimeOptions struct {
	logger          *logger.Logger
	metrics         *observability.WorkflowMetrics
	gracefulTimeout *time.Duration
	tools           []tool.Tool
	middlewares     []tool.Middleware
	conditions      map[string]workflow.Condition
	loader          workflow.DefinitionLoader
	summaryOut      io.Writer
}

// resolveOptions applies all options and returns the collected values.
func resolveOptions(opts []Option) *runtimeOptions {
	o := &runtimeOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets a custom logger for the runtime.
// If not set, the logger is built from the config's logging section.
func WithLogger(l *logger.Logger) Option {
	return func(o *runtimeOptions) {
		o.logger = l
	}
}

// WithMetrics records workflow metrics on m instead of the instruments
// created when metrics export is enabled.
func WithMetrics(m *observability.WorkflowMetrics) Option {
	return func(o *runtimeOptions) {
		o.metrics = m
	}
}

// WithGracefulTimeout sets the maximum duration for shutdown.
func WithGracefulTimeout(d time.Duration) Option {
	return func(o *runtimeOptions) {
		o.gracefulTimeout = &d
	}
}

// WithTools registers tools in addition to those declared in config.
func WithTools(tools ...tool.Tool) Option {
	return func(o *runtimeOptions) {
		o.tools = append(o.tools, tools...)
	}
}

// WithToolMiddleware appends invocation middleware after the built-in
// logging, tracing, metrics and concurrency layers.
func WithToolMiddleware(mws ...tool.Middleware) Option {
	return func(o *runtimeOptions) {
		o.middlewares = append(o.middlewares, mws...)
	}
}

// WithCondition names a condition that pipeline definitions can refer to.
func WithCondition(name string, cond workflow.Condition) Option {
	return func(o *runtimeOptions) {
		if o.conditions == nil {
			o.conditions = make(map[string]workflow.Condition)
		}
		o.conditions[name] = cond
	}
}

// WithDefinitionLoader replaces the file loader over the configured
// definition directories.
func WithDefinitionLoader(l workflow.DefinitionLoader) Option {
	return func(o *runtimeOptions) {
		o.loader = l
	}
}

// WithSummaryOutput redirects the startup summary, os.Stdout by default.
func WithSummaryOutput(w io.Writer) Option {
	return func(o *runtimeOptions) {
		o.summaryOut = w
	}
}
