package workflow

import (
	"fmt"
	"slices"

	"github.com/kbukum/toolflow/errors"
	"github.com/kbukum/toolflow/tool"
	"github.com/kbukum/toolflow/validation"
)

// Built-in condition names usable in StepDef.Condition.
const (
	CondAlways        = "always"
	CondNever         = "never"
	CondDepsSucceeded = "deps_succeeded"
	CondAnyFailed     = "any_failed"
)

// BuildOptions supplies what definitions refer to by name.
type BuildOptions struct {
	// Invoker runs tool steps.
	Invoker tool.Invoker
	// Conditions maps condition names to implementations. Entries shadow built-ins.
	Conditions map[string]Condition
	// Loader resolves includes and embedded pipelines.
	Loader DefinitionLoader
	// Options apply to every pipeline built, embedded ones included.
	Options []Option
}

// Build turns a definition into a pipeline. Includes are merged in order
// with the definition's own steps replacing included steps of the same name;
// pipeline steps are built recursively as sub-pipelines. Circular includes
// or embeddings fail with CYCLE_DETECTED.
func Build(def *Definition, opts BuildOptions) (*Pipeline, error) {
	b := &builder{opts: opts}
	return b.pipeline(def)
}

type builder struct {
	opts BuildOptions
	// stack holds definition names currently being built or merged.
	stack []string
}

func (b *builder) enter(name string) error {
	if i := slices.Index(b.stack, name); i >= 0 {
		cycle := append(append([]string(nil), b.stack[i:]...), name)
		return errors.CycleDetected(cycle)
	}
	b.stack = append(b.stack, name)
	return nil
}

func (b *builder) leave() { b.stack = b.stack[:len(b.stack)-1] }

func (b *builder) pipeline(def *Definition) (*Pipeline, error) {
	if err := validation.Validate(def); err != nil {
		return nil, err
	}
	if err := b.enter(def.Name); err != nil {
		return nil, err
	}
	defer b.leave()

	defs, err := b.collect(def)
	if err != nil {
		return nil, err
	}

	p := New(def.Name, b.opts.Options...)
	for _, sd := range defs {
		step, err := b.step(sd)
		if err != nil {
			return nil, fmt.Errorf("workflow: pipeline %q: %w", def.Name, err)
		}
		p.AddStep(step)
	}
	if err := p.Err(); err != nil {
		return nil, err
	}
	return p, nil
}

// collect flattens includes ahead of def's own steps.
func (b *builder) collect(def *Definition) ([]StepDef, error) {
	var out []StepDef
	pos := make(map[string]int)

	for _, name := range def.Includes {
		inc, err := b.load(name)
		if err != nil {
			return nil, err
		}
		if err := b.enter(inc.Name); err != nil {
			return nil, err
		}
		steps, err := b.collect(inc)
		b.leave()
		if err != nil {
			return nil, err
		}
		for _, sd := range steps {
			if _, dup := pos[sd.Name]; dup {
				continue
			}
			pos[sd.Name] = len(out)
			out = append(out, sd)
		}
	}

	for _, sd := range def.Steps {
		if i, ok := pos[sd.Name]; ok {
			out[i] = sd
			continue
		}
		pos[sd.Name] = len(out)
		out = append(out, sd)
	}
	return out, nil
}

func (b *builder) load(name string) (*Definition, error) {
	if b.opts.Loader == nil {
		return nil, fmt.Errorf("workflow: definition %q referenced but no loader configured", name)
	}
	return b.opts.Loader.Load(name)
}

func (b *builder) step(sd StepDef) (Step, error) {
	step := Step{
		Name:            sd.Name,
		DependsOn:       sd.DependsOn,
		RetryLimit:      sd.Retries,
		ContinueOnError: sd.ContinueOnError,
	}

	switch {
	case sd.Pipeline != "":
		childDef, err := b.load(sd.Pipeline)
		if err != nil {
			return Step{}, err
		}
		child, err := b.pipeline(childDef)
		if err != nil {
			return Step{}, err
		}
		step.Operation = SubPipeline(child)
	default:
		if b.opts.Invoker == nil {
			return Step{}, errors.InvalidStep(sd.Name, fmt.Errorf("tool step requires an invoker"))
		}
		step.Operation = Invoke(b.opts.Invoker, sd.Tool, sd.Method, sd.Args...)
	}

	cond, err := b.condition(sd)
	if err != nil {
		return Step{}, err
	}
	step.Condition = cond
	return step, nil
}

func (b *builder) condition(sd StepDef) (Condition, error) {
	if sd.Condition == "" {
		return nil, nil
	}
	if c, ok := b.opts.Conditions[sd.Condition]; ok {
		return c, nil
	}
	switch sd.Condition {
	case CondAlways:
		return Always, nil
	case CondNever:
		return Never, nil
	case CondDepsSucceeded:
		return Succeeded(sd.DependsOn...), nil
	case CondAnyFailed:
		return AnyFailed(sd.DependsOn...), nil
	}
	return nil, errors.InvalidStep(sd.Name, fmt.Errorf("unknown condition %q", sd.Condition))
}
