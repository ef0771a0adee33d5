package tool

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/kbukum/toolflow/cache"
	"github.com/kbukum/toolflow/errors"
	"github.com/kbukum/toolflow/events"
	"github.com/kbukum/toolflow/logger"
)

// Registry is a name-keyed table of tools and the standard Invoker.
// It is shared, read-mostly state: safe to invoke from many pipelines at once.
type Registry struct {
	mu          sync.RWMutex
	tools       map[string]Tool
	middlewares []Middleware
	invoker     Invoker

	cache *cache.Cache
	bus   *events.Bus
	log   *logger.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithResultCache attaches the TTL result cache.
func WithResultCache(c *cache.Cache) Option {
	return func(r *Registry) { r.cache = c }
}

// WithEventBus attaches the event bus steps use for cross-step notifications.
func WithEventBus(b *events.Bus) Option {
	return func(r *Registry) { r.bus = b }
}

// WithLogger sets the registry logger.
func WithLogger(l *logger.Logger) Option {
	return func(r *Registry) { r.log = l }
}

// WithMiddleware appends invocation middleware. The first one is outermost.
func WithMiddleware(mws ...Middleware) Option {
	return func(r *Registry) { r.middlewares = append(r.middlewares, mws...) }
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{tools: make(map[string]Tool)}
	for _, opt := range opts {
		opt(r)
	}
	r.log = logger.OrNop(r.log).WithComponent("tool")
	r.rebuild()
	return r
}

// Register adds or replaces a tool.
func (r *Registry) Register(t Tool) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name()] = t
	return r
}

// RegisterFunc adds a single method, creating a Funcs tool on first use.
// It panics if toolName is already registered as a tool that is not a *Funcs.
func (r *Registry) RegisterFunc(toolName, method string, h Handler) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.tools[toolName]
	if !ok {
		existing = NewFuncs(toolName)
		r.tools[toolName] = existing
	}
	funcs, ok := existing.(*Funcs)
	if !ok {
		panic(fmt.Sprintf("tool: %q is registered as %T, not a method table", toolName, existing))
	}
	funcs.Handle(method, h)
	return r
}

// Use appends middleware to the invocation stack.
func (r *Registry) Use(mws ...Middleware) *Registry {
	r.mu.Lock()
	r.middlewares = append(r.middlewares, mws...)
	r.mu.Unlock()
	r.rebuild()
	return r
}

func (r *Registry) rebuild() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invoker = Wrap(InvokerFunc(r.dispatch), r.middlewares...)
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// List returns sorted tool names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke calls method on the named tool through the middleware stack.
func (r *Registry) Invoke(ctx context.Context, toolName, method string, args ...any) (any, error) {
	r.mu.RLock()
	inv := r.invoker
	r.mu.RUnlock()
	return inv.Invoke(ctx, toolName, method, args...)
}

func (r *Registry) dispatch(ctx context.Context, toolName, method string, args ...any) (any, error) {
	t, ok := r.Get(toolName)
	if !ok {
		return nil, errors.ToolNotFound(toolName)
	}
	out, err := t.Call(ctx, method, args)
	if err == nil {
		return out, nil
	}
	if errors.IsCode(err, errors.ErrCodeMethodNotFound) {
		return nil, err
	}
	return nil, errors.ToolFailed(toolName, method, err)
}

// CacheResult stores value under key in the attached cache for ttl.
// It is a no-op without a cache and reports whether the value was stored.
func (r *Registry) CacheResult(key string, value any, ttl time.Duration) bool {
	if r.cache == nil {
		return false
	}
	return r.cache.Set(key, value, ttl)
}

// CachedResult returns a live cached value.
func (r *Registry) CachedResult(key string) (any, bool) {
	if r.cache == nil {
		return nil, false
	}
	return r.cache.Get(key)
}

// Events returns the attached bus, or nil.
func (r *Registry) Events() *events.Bus {
	return r.bus
}
