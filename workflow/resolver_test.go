package workflow

import (
	"context"
	"reflect"
	"testing"

	"github.com/kbukum/toolflow/errors"
)

var noop = OperationFunc(func(context.Context, *Results) (any, error) { return nil, nil })

func step(name string, deps ...string) Step {
	return Step{Name: name, Operation: noop, DependsOn: deps}
}

func names(steps []Step) []string {
	out := make([]string, len(steps))
	for i, s := range steps {
		out[i] = s.Name
	}
	return out
}

func TestResolveOrder(t *testing.T) {
	tests := []struct {
		name  string
		steps []Step
		want  []string
	}{
		{
			name:  "empty",
			steps: nil,
			want:  []string{},
		},
		{
			name:  "independent steps keep registration order",
			steps: []Step{step("c"), step("a"), step("b")},
			want:  []string{"c", "a", "b"},
		},
		{
			name:  "linear chain registered backwards",
			steps: []Step{step("publish", "test"), step("test", "lint"), step("lint")},
			want:  []string{"lint", "test", "publish"},
		},
		{
			name: "diamond",
			steps: []Step{
				step("a"),
				step("b", "a"),
				step("c", "a"),
				step("d", "b", "c"),
			},
			want: []string{"a", "b", "c", "d"},
		},
		{
			name: "dependencies visited in declared order",
			steps: []Step{
				step("final", "y", "x"),
				step("x"),
				step("y"),
			},
			want: []string{"y", "x", "final"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Resolve(tc.steps)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(names(got), tc.want) {
				t.Errorf("order = %v, want %v", names(got), tc.want)
			}
		})
	}
}

func TestResolveDependenciesPrecedeDependents(t *testing.T) {
	steps := []Step{
		step("deploy", "build", "migrate"),
		step("migrate", "provision"),
		step("build", "fetch"),
		step("provision"),
		step("fetch"),
		step("notify", "deploy"),
	}
	order, err := Resolve(steps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pos := make(map[string]int, len(order))
	for i, s := range order {
		pos[s.Name] = i
	}
	for _, s := range steps {
		for _, dep := range s.DependsOn {
			if pos[dep] >= pos[s.Name] {
				t.Errorf("%s (at %d) should precede %s (at %d)", dep, pos[dep], s.Name, pos[s.Name])
			}
		}
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	steps := []Step{
		step("e", "d"), step("b"), step("d", "a", "b"), step("a"), step("c"),
	}
	first, err := Resolve(steps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := Resolve(steps)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(names(first), names(again)) {
			t.Fatalf("run %d: order %v differs from %v", i, names(again), names(first))
		}
	}
}

func TestResolveCycles(t *testing.T) {
	tests := []struct {
		name      string
		steps     []Step
		wantCycle []string
	}{
		{
			name:      "two-node",
			steps:     []Step{step("A", "B"), step("B", "A")},
			wantCycle: []string{"A", "B", "A"},
		},
		{
			name:      "self dependency",
			steps:     []Step{step("a", "a")},
			wantCycle: []string{"a", "a"},
		},
		{
			name: "cycle behind an acyclic prefix",
			steps: []Step{
				step("root"),
				step("x", "root", "y"),
				step("y", "z"),
				step("z", "x"),
			},
			wantCycle: []string{"x", "y", "z", "x"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			order, err := Resolve(tc.steps)
			if order != nil {
				t.Errorf("expected no order, got %v", names(order))
			}
			if !errors.IsCode(err, errors.ErrCodeCycleDetected) {
				t.Fatalf("expected CYCLE_DETECTED, got %v", err)
			}
			appErr, _ := errors.AsAppError(err)
			if got := appErr.Details["cycle"]; !reflect.DeepEqual(got, tc.wantCycle) {
				t.Errorf("cycle = %v, want %v", got, tc.wantCycle)
			}
		})
	}
}

func TestResolveUnknownDependencyReportedBeforeCycle(t *testing.T) {
	steps := []Step{
		step("a", "b"),
		step("b", "a"),
		step("c", "missing"),
	}
	_, err := Resolve(steps)
	if !errors.IsCode(err, errors.ErrCodeUnknownDependency) {
		t.Fatalf("expected UNKNOWN_DEPENDENCY, got %v", err)
	}
	appErr, _ := errors.AsAppError(err)
	if appErr.Details["step"] != "c" || appErr.Details["dependency"] != "missing" {
		t.Errorf("details = %v", appErr.Details)
	}
}

func TestResolveDuplicate(t *testing.T) {
	_, err := Resolve([]Step{step("a"), step("a")})
	if !errors.IsCode(err, errors.ErrCodeDuplicateStep) {
		t.Fatalf("expected DUPLICATE_STEP, got %v", err)
	}
}
