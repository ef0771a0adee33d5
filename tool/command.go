package tool

import (
	"context"
	"fmt"
	"sort"

	"github.com/kbukum/toolflow/errors"
	"github.com/kbukum/toolflow/process"
)

// CommandTool exposes subprocesses as tool methods. Each method maps to a
// base command; invocation arguments are formatted with %v and appended to it.
// The result is the trimmed stdout.
type CommandTool struct {
	name     string
	commands map[string]process.Command
}

// NewCommandTool creates a tool with no methods.
func NewCommandTool(name string) *CommandTool {
	return &CommandTool{name: name, commands: make(map[string]process.Command)}
}

// Name returns the tool name.
func (c *CommandTool) Name() string { return c.name }

// Method binds method to cmd. Not safe to call after registration.
func (c *CommandTool) Method(method string, cmd process.Command) *CommandTool {
	c.commands[method] = cmd
	return c
}

// Methods returns the sorted method names.
func (c *CommandTool) Methods() []string {
	names := make([]string, 0, len(c.commands))
	for name := range c.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Call runs the command bound to method.
func (c *CommandTool) Call(ctx context.Context, method string, args []any) (any, error) {
	base, ok := c.commands[method]
	if !ok {
		return nil, errors.MethodNotFound(c.name, method)
	}
	extra := make([]string, len(args))
	for i, a := range args {
		extra[i] = fmt.Sprint(a)
	}
	res, err := process.Run(ctx, base.WithArgs(extra...))
	if err != nil {
		if msg := res.ErrorOutput(); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return res.Output(), nil
}
