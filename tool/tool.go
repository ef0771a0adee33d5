package tool

import (
	"context"
	"sort"
	"sync"

	"github.com/kbukum/toolflow/errors"
)

// Invoker is the single capability the orchestration core needs: call a
// method on a named tool with arguments.
type Invoker interface {
	Invoke(ctx context.Context, toolName, method string, args ...any) (any, error)
}

// InvokerFunc adapts a function to Invoker.
type InvokerFunc func(ctx context.Context, toolName, method string, args ...any) (any, error)

// Invoke calls f.
func (f InvokerFunc) Invoke(ctx context.Context, toolName, method string, args ...any) (any, error) {
	return f(ctx, toolName, method, args...)
}

// Tool is one named, externally implemented operation set.
type Tool interface {
	Name() string
	Call(ctx context.Context, method string, args []any) (any, error)
}

// Handler implements one method of a tool.
type Handler func(ctx context.Context, args ...any) (any, error)

// Call names a single invocation.
type Call struct {
	Tool   string `yaml:"tool" json:"tool" validate:"required,stepname"`
	Method string `yaml:"method" json:"method" validate:"required,stepname"`
	Args   []any  `yaml:"args,omitempty" json:"args,omitempty"`
}

// Do runs the call through inv.
func (c Call) Do(ctx context.Context, inv Invoker) (any, error) {
	return inv.Invoke(ctx, c.Tool, c.Method, c.Args...)
}

// Funcs is a Tool backed by a method table.
type Funcs struct {
	name string

	mu      sync.RWMutex
	methods map[string]Handler
}

// NewFuncs creates an empty method-table tool.
func NewFuncs(name string) *Funcs {
	return &Funcs{name: name, methods: make(map[string]Handler)}
}

// Name returns the tool name.
func (f *Funcs) Name() string { return f.name }

// Handle registers h as method and returns f for chaining.
func (f *Funcs) Handle(method string, h Handler) *Funcs {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.methods[method] = h
	return f
}

// Methods returns the sorted method names.
func (f *Funcs) Methods() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	names := make([]string, 0, len(f.methods))
	for name := range f.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Call dispatches to the registered handler.
func (f *Funcs) Call(ctx context.Context, method string, args []any) (any, error) {
	f.mu.RLock()
	h, ok := f.methods[method]
	f.mu.RUnlock()
	if !ok {
		return nil, errors.MethodNotFound(f.name, method)
	}
	return h(ctx, args...)
}
