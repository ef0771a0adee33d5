package process

import (
	"io"
	"time"
)

// DefaultGracePeriod is the SIGTERM to SIGKILL delay when Command.GracePeriod is zero.
const DefaultGracePeriod = 5 * time.Second

// Command configures a subprocess to execute.
type Command struct {
	// Binary is the executable path or name (resolved via PATH).
	Binary string `yaml:"binary" json:"binary" mapstructure:"binary" validate:"required"`
	// Args are the command-line arguments.
	Args []string `yaml:"args,omitempty" json:"args,omitempty" mapstructure:"args"`
	// Dir is the working directory. If empty, uses the current directory.
	Dir string `yaml:"dir,omitempty" json:"dir,omitempty" mapstructure:"dir"`
	// Env is additional environment variables (key=value). Merged with os.Environ.
	Env []string `yaml:"env,omitempty" json:"env,omitempty" mapstructure:"env"`
	// Stdin provides input to the process. May be nil.
	Stdin io.Reader `yaml:"-" json:"-" mapstructure:"-"`
	// GracePeriod is how long to wait after SIGTERM before SIGKILL.
	GracePeriod time.Duration `yaml:"grace_period,omitempty" json:"grace_period,omitempty" mapstructure:"grace_period"`
	// Timeout bounds the whole run. Zero means only the caller's context applies.
	Timeout time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty" mapstructure:"timeout"`
}

// WithArgs returns a copy of c with extra arguments appended.
func (c Command) WithArgs(args ...string) Command {
	merged := make([]string, 0, len(c.Args)+len(args))
	merged = append(merged, c.Args...)
	c.Args = append(merged, args...)
	return c
}
