package bootstrap

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/toolflow/cache"
	"github.com/kbukum/toolflow/config"
	"github.com/kbukum/toolflow/events"
	"github.com/kbukum/toolflow/logger"
	"github.com/kbukum/toolflow/observability"
	"github.com/kbukum/toolflow/tool"
	"github.com/kbukum/toolflow/workflow"
)

const meterName = "github.com/kbukum/toolflow"

// Runtime holds the services shared by every pipeline of one process.
//
// Example:
//
//	rt, err := bootstrap.New(ctx, cfg)
//	p := rt.NewPipeline("release").
//	    AddStep(workflow.Step{Name: "build", Operation: workflow.Invoke(rt.Tools, "go", "build")})
//	res, err := p.Execute(ctx)
type Runtime struct {
	Name    string
	Version string
	Cfg     *config.Config
	Logger  *logger.Logger
	Cache   *cache.Cache
	Events  *events.Bus
	Tools   *tool.Registry
	Metrics *observability.WorkflowMetrics
	Summary *Summary

	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	tracing        bool

	loader          workflow.DefinitionLoader
	conditions      map[string]workflow.Condition
	gracefulTimeout time.Duration
	summaryOut      io.Writer

	onStart []Hook
	onStop  []Hook

	stopOnce sync.Once
	stopErr  error
}

// New builds a Runtime from cfg. It applies defaults, validates the config,
// initializes the logger and, when enabled, the OpenTelemetry providers.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Runtime, error) {
	start := time.Now()
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	o := resolveOptions(opts)
	rt := &Runtime{
		Name:            cfg.Service.Name,
		Version:         cfg.Service.Version,
		Cfg:             cfg,
		conditions:      o.conditions,
		gracefulTimeout: 15 * time.Second,
		summaryOut:      os.Stdout,
		Summary:         NewSummary(cfg.Service.Name, cfg.Service.Version),
	}
	if o.gracefulTimeout != nil {
		rt.gracefulTimeout = *o.gracefulTimeout
	}
	if o.summaryOut != nil {
		rt.summaryOut = o.summaryOut
	}

	// Logger: use custom if provided, otherwise build from config.
	if o.logger != nil {
		rt.Logger = o.logger
	} else {
		rt.Logger = logger.New(&cfg.Service.Logging, cfg.Service.Name)
	}

	if err := rt.initTelemetry(ctx, o); err != nil {
		rt.shutdownTelemetry(ctx)
		return nil, err
	}

	c, err := cache.New(cfg.Cache)
	if err != nil {
		rt.shutdownTelemetry(ctx)
		return nil, err
	}
	rt.Cache = c
	rt.Summary.TrackService("cache", fmt.Sprintf("%d entries, ttl %s", cfg.Cache.MaxEntries, cfg.Cache.DefaultTTL), true)

	rt.Events = events.NewBus(events.WithLogger(rt.Logger))
	rt.Tools = tool.NewRegistry(
		tool.WithLogger(rt.Logger),
		tool.WithResultCache(rt.Cache),
		tool.WithEventBus(rt.Events),
		tool.WithMiddleware(rt.toolMiddleware(o.middlewares)...),
	)
	for _, t := range append(commandTools(cfg.Tools), o.tools...) {
		rt.RegisterTool(t)
	}

	rt.loader = o.loader
	if rt.loader == nil {
		rt.loader = workflow.NewFileLoader(cfg.Engine.DefinitionDirs...)
	}

	rt.Summary.SetStartupDuration(time.Since(start))
	return rt, nil
}

func (r *Runtime) initTelemetry(ctx context.Context, o *runtimeOptions) error {
	tcfg := r.Cfg.Telemetry
	if tcfg.Tracing.Enabled {
		tp, err := observability.InitTracer(ctx, tracerConfig(r.Cfg))
		if err != nil {
			return fmt.Errorf("initializing tracer: %w", err)
		}
		r.tracerProvider, r.tracing = tp, true
	}
	r.Summary.TrackService("tracing", tcfg.Tracing.Endpoint, tcfg.Tracing.Enabled)

	r.Metrics = o.metrics
	if tcfg.Metrics.Enabled {
		mp, err := observability.InitMeter(ctx, meterConfig(r.Cfg))
		if err != nil {
			return fmt.Errorf("initializing meter: %w", err)
		}
		r.meterProvider = mp
		if r.Metrics == nil {
			m, err := observability.NewWorkflowMetrics(mp.Meter(meterName))
			if err != nil {
				return err
			}
			r.Metrics = m
		}
	}
	r.Summary.TrackService("metrics", tcfg.Metrics.Endpoint, r.Metrics != nil)
	return nil
}

// toolMiddleware assembles the invocation stack: logging outermost, then
// tracing, metrics and the per-tool concurrency limit, then extra.
func (r *Runtime) toolMiddleware(extra []tool.Middleware) []tool.Middleware {
	mws := []tool.Middleware{tool.WithLogging(r.Logger.WithComponent("tool"))}
	if r.tracing {
		mws = append(mws, tool.WithTracing(observability.SpanToolCall))
	}
	if r.Metrics != nil {
		mws = append(mws, tool.WithMetrics(r.Metrics))
	}
	if n := r.Cfg.Engine.ToolConcurrency; n > 0 {
		mws = append(mws, tool.WithConcurrencyLimit(n, -1))
	}
	return append(mws, extra...)
}

// RegisterTool adds t to the registry and the summary.
func (r *Runtime) RegisterTool(t tool.Tool) {
	r.Tools.Register(t)
	switch tt := t.(type) {
	case *tool.CommandTool:
		r.Summary.TrackTool(t.Name(), "command", tt.Methods())
	case *tool.Funcs:
		r.Summary.TrackTool(t.Name(), "funcs", tt.Methods())
	default:
		r.Summary.TrackTool(t.Name(), "custom", nil)
	}
}

// PipelineOptions returns the options that inject the runtime's services
// into a pipeline.
func (r *Runtime) PipelineOptions() []workflow.Option {
	opts := []workflow.Option{
		workflow.WithLogger(r.Logger),
		workflow.WithEventBus(r.Events),
		workflow.WithMetrics(r.Metrics),
		workflow.WithRetryBackoff(r.Cfg.Engine.RetryBackoff),
	}
	if r.tracing {
		opts = append(opts, workflow.WithTracing())
	}
	return opts
}

// NewPipeline creates an empty pipeline wired to the runtime's services.
func (r *Runtime) NewPipeline(name string, opts ...workflow.Option) *workflow.Pipeline {
	return workflow.New(name, append(r.PipelineOptions(), opts...)...)
}

// LoadPipeline builds the named pipeline definition. Tool steps invoke the
// runtime's registry.
func (r *Runtime) LoadPipeline(name string) (*workflow.Pipeline, error) {
	def, err := r.loader.Load(name)
	if err != nil {
		return nil, err
	}
	p, err := workflow.Build(def, workflow.BuildOptions{
		Invoker:    r.Tools,
		Conditions: r.conditions,
		Loader:     r.loader,
		Options:    r.PipelineOptions(),
	})
	if err != nil {
		return nil, err
	}
	r.Summary.TrackPipeline(p.Name(), len(p.Steps()), "definition")
	return p, nil
}

// RunPipeline loads the named definition and executes it.
func (r *Runtime) RunPipeline(ctx context.Context, name string) (*workflow.Result, error) {
	p, err := r.LoadPipeline(name)
	if err != nil {
		return nil, err
	}
	return p.Execute(ctx)
}

// Parallel runs calls through the registry, bounded by engine.max_parallel.
func (r *Runtime) Parallel(ctx context.Context, calls []tool.Call) []tool.Outcome {
	return tool.Parallel(ctx, r.Tools, calls, r.Cfg.Engine.MaxParallel)
}

// Start runs the OnStart hooks and prints the summary.
func (r *Runtime) Start(ctx context.Context) error {
	r.Logger.Info("Starting toolflow runtime", map[string]interface{}{
		"name":    r.Name,
		"version": r.Version,
		"tools":   len(r.Tools.List()),
	})
	if err := runHooks(ctx, r.onStart); err != nil {
		return fmt.Errorf("onStart hook failed: %w", err)
	}
	r.Summary.DisplaySummary(r.summaryOut)
	return nil
}

// RunTask starts the runtime, runs task and shuts down when it returns.
// SIGINT and SIGTERM cancel the task's context.
//
// Example:
//
//	err := rt.RunTask(ctx, func(ctx context.Context) error {
//	    _, err := rt.RunPipeline(ctx, "nightly")
//	    return err
//	})
func (r *Runtime) RunTask(ctx context.Context, task func(ctx context.Context) error) error {
	if err := r.Start(ctx); err != nil {
		_ = r.Shutdown(ctx)
		return err
	}

	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			r.Logger.Info("Received signal, canceling task", map[string]interface{}{
				"signal": sig.String(),
			})
			cancel()
		case <-taskCtx.Done():
		}
	}()

	taskErr := task(taskCtx)

	if stopErr := r.Shutdown(ctx); stopErr != nil {
		if taskErr != nil {
			return taskErr
		}
		return stopErr
	}
	return taskErr
}

// Shutdown runs the OnStop hooks, flushes telemetry and closes the cache.
// Only the first call has an effect; later calls return its error.
func (r *Runtime) Shutdown(ctx context.Context) error {
	r.stopOnce.Do(func() {
		r.stopErr = r.stop(ctx)
	})
	return r.stopErr
}

func (r *Runtime) stop(ctx context.Context) error {
	r.Logger.Info("Shutting down toolflow runtime", map[string]interface{}{
		"timeout": r.gracefulTimeout.String(),
	})

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.gracefulTimeout)
	defer cancel()

	var errs []error
	if err := runHooks(ctx, r.onStop); err != nil {
		r.Logger.Error("OnStop hook error", logger.MergeWithError(nil, err))
		errs = append(errs, err)
	}
	errs = append(errs, r.shutdownTelemetry(ctx)...)
	if r.Cache != nil {
		r.Cache.Close()
	}

	r.Logger.Info("Runtime shutdown complete")
	return stderrors.Join(errs...)
}

func (r *Runtime) shutdownTelemetry(ctx context.Context) []error {
	var errs []error
	if r.meterProvider != nil {
		if err := r.meterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter shutdown: %w", err))
		}
	}
	if r.tracerProvider != nil {
		if err := r.tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer shutdown: %w", err))
		}
	}
	return errs
}
