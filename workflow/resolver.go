package workflow

import (
	"slices"

	"github.com/kbukum/toolflow/errors"
)

// Resolve returns steps in an order where every step follows all of its
// dependencies. Unrelated steps keep their registration order, so resolving
// the same set twice yields the same order.
//
// Duplicate names and unknown dependencies are reported before any cycle
// check. A cycle error names the whole loop, e.g. [a b c a]; a step that
// depends on itself is reported as [a a].
func Resolve(steps []Step) ([]Step, error) {
	index := make(map[string]int, len(steps))
	for i, s := range steps {
		if _, dup := index[s.Name]; dup {
			return nil, errors.DuplicateStep(s.Name)
		}
		index[s.Name] = i
	}
	for _, s := range steps {
		for _, dep := range s.DependsOn {
			if _, ok := index[dep]; !ok {
				return nil, errors.UnknownDependency(s.Name, dep)
			}
		}
	}

	r := &resolver{
		steps:    steps,
		index:    index,
		visiting: make(map[string]bool, len(steps)),
		visited:  make(map[string]bool, len(steps)),
		order:    make([]Step, 0, len(steps)),
	}
	for _, s := range steps {
		if err := r.visit(s.Name); err != nil {
			return nil, err
		}
	}
	return r.order, nil
}

type resolver struct {
	steps    []Step
	index    map[string]int
	visiting map[string]bool
	visited  map[string]bool
	// path is the current DFS stack, used to name cycles.
	path  []string
	order []Step
}

func (r *resolver) visit(name string) error {
	if r.visited[name] {
		return nil
	}
	r.visiting[name] = true
	r.path = append(r.path, name)

	step := r.steps[r.index[name]]
	for _, dep := range step.DependsOn {
		if r.visiting[dep] {
			return errors.CycleDetected(r.cycleFrom(dep))
		}
		if err := r.visit(dep); err != nil {
			return err
		}
	}

	r.path = r.path[:len(r.path)-1]
	delete(r.visiting, name)
	r.visited[name] = true
	r.order = append(r.order, step)
	return nil
}

// cycleFrom returns the stack segment from the re-entered step back to itself.
func (r *resolver) cycleFrom(reentered string) []string {
	start := slices.Index(r.path, reentered)
	cycle := append([]string(nil), r.path[start:]...)
	return append(cycle, reentered)
}
