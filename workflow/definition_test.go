package workflow_test

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/kbukum/toolflow/errors"
	"github.com/kbukum/toolflow/tool"
	"github.com/kbukum/toolflow/workflow"
)

const releaseYAML = `
name: release
description: build and ship
steps:
  - name: lint
    tool: linter
    method: run
    args: ["./..."]
    retries: 2
  - name: test
    tool: tester
    method: run
    depends_on: [lint]
  - name: e2e
    pipeline: e2e-suite
    depends_on: [test]
    continue_on_error: true
`

func TestParseDefinition(t *testing.T) {
	def, err := workflow.ParseDefinition([]byte(releaseYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if def.Name != "release" || def.Description != "build and ship" {
		t.Errorf("definition = %+v", def)
	}
	if len(def.Steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(def.Steps))
	}
	lint := def.Steps[0]
	if lint.Tool != "linter" || lint.Method != "run" || lint.Retries != 2 || !reflect.DeepEqual(lint.Args, []any{"./..."}) {
		t.Errorf("lint = %+v", lint)
	}
	e2e := def.Steps[2]
	if e2e.Pipeline != "e2e-suite" || !e2e.ContinueOnError || !reflect.DeepEqual(e2e.DependsOn, []string{"test"}) {
		t.Errorf("e2e = %+v", e2e)
	}
}

func TestParseDefinitionInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing name", "steps:\n  - name: a\n    tool: t\n    method: m\n"},
		{"step without tool or pipeline", "name: p\nsteps:\n  - name: a\n"},
		{"step with tool and pipeline", "name: p\nsteps:\n  - name: a\n    tool: t\n    method: m\n    pipeline: other\n"},
		{"tool without method", "name: p\nsteps:\n  - name: a\n    tool: t\n"},
		{"negative retries", "name: p\nsteps:\n  - name: a\n    tool: t\n    method: m\n    retries: -1\n"},
		{"blank dependency", "name: p\nsteps:\n  - name: a\n    tool: t\n    method: m\n    depends_on: [\"\"]\n"},
		{"duplicate step", "name: p\nsteps:\n  - name: a\n    tool: t\n    method: m\n  - name: a\n    tool: t\n    method: n\n"},
		{"embeds itself", "name: p\nsteps:\n  - name: a\n    pipeline: p\n"},
		{"includes itself", "name: p\nincludes: [p]\nsteps:\n  - name: a\n    tool: t\n    method: m\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := workflow.ParseDefinition([]byte(tc.yaml))
			if !errors.IsCode(err, errors.ErrCodeInvalidInput) {
				t.Fatalf("expected INVALID_INPUT, got %v", err)
			}
		})
	}

	t.Run("malformed yaml", func(t *testing.T) {
		if _, err := workflow.ParseDefinition([]byte("name: [unterminated")); err == nil {
			t.Fatal("expected a parse error")
		}
	})
}

func writeDefinition(t *testing.T, dir, file, content string) {
	t.Helper()
	path := filepath.Join(dir, file)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestFileLoader(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	writeDefinition(t, first, "release.yaml", releaseYAML)
	writeDefinition(t, second, "nested/deep/checks.yml", "name: checks\nsteps:\n  - name: vet\n    tool: go\n    method: vet\n")
	writeDefinition(t, second, "release.yaml", "name: shadowed\nsteps: []\n")
	writeDefinition(t, first, "broken.yaml", "name: broken\nsteps:\n  - name: a\n")

	loader := workflow.NewFileLoader(filepath.Join(first, "missing"), first, second)

	t.Run("direct file in first matching dir", func(t *testing.T) {
		def, err := loader.Load("release")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if def.Name != "release" {
			t.Errorf("loaded %q, want the first directory's definition", def.Name)
		}
	})

	t.Run("recursive search", func(t *testing.T) {
		def, err := loader.Load("checks")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(def.Steps) != 1 || def.Steps[0].Name != "vet" {
			t.Errorf("checks = %+v", def)
		}
	})

	t.Run("not found", func(t *testing.T) {
		_, err := loader.Load("nope")
		if err == nil || !strings.Contains(err.Error(), "not found") {
			t.Fatalf("expected not found, got %v", err)
		}
	})

	t.Run("invalid file is an error", func(t *testing.T) {
		_, err := loader.Load("broken")
		if !errors.IsCode(err, errors.ErrCodeInvalidInput) {
			t.Fatalf("expected INVALID_INPUT, got %v", err)
		}
		if !strings.Contains(err.Error(), "broken.yaml") {
			t.Errorf("error should name the file: %v", err)
		}
	})
}

func TestMapLoader(t *testing.T) {
	loader := workflow.NewMapLoader(&workflow.Definition{Name: "a"})
	loader.Add(&workflow.Definition{Name: "b"})

	for _, name := range []string{"a", "b"} {
		if def, err := loader.Load(name); err != nil || def.Name != name {
			t.Errorf("Load(%q) = %v, %v", name, def, err)
		}
	}
	if _, err := loader.Load("c"); err == nil {
		t.Error("expected error for unknown definition")
	}
}

// echoRegistry returns a registry whose tools report "tool.method" and record
// every invocation.
func echoRegistry(calls *[]string, failing ...string) *tool.Registry {
	reg := tool.NewRegistry()
	fail := make(map[string]bool, len(failing))
	for _, f := range failing {
		fail[f] = true
	}
	inv := func(name string) tool.Handler {
		return func(_ context.Context, args ...any) (any, error) {
			*calls = append(*calls, name)
			if fail[name] {
				return nil, errors.Internal(nil)
			}
			return name, nil
		}
	}
	for _, t := range []string{"linter", "tester", "go", "deployer"} {
		reg.RegisterFunc(t, "run", inv(t+".run"))
		reg.RegisterFunc(t, "vet", inv(t+".vet"))
	}
	return reg
}

func TestBuildToolSteps(t *testing.T) {
	var calls []string
	def, err := workflow.ParseDefinition([]byte(`
name: ci
steps:
  - name: test
    tool: tester
    method: run
    depends_on: [lint]
  - name: lint
    tool: linter
    method: run
    args: [strict]
`))
	if err != nil {
		t.Fatal(err)
	}

	p, err := workflow.Build(def, workflow.BuildOptions{Invoker: echoRegistry(&calls)})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if p.Name() != "ci" {
		t.Errorf("name = %q", p.Name())
	}

	res, err := p.Execute(context.Background())
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if want := []string{"linter.run", "tester.run"}; !reflect.DeepEqual(calls, want) {
		t.Errorf("calls = %v, want %v", calls, want)
	}
	if r, _ := res.Step("test"); r.Payload != "tester.run" {
		t.Errorf("test payload = %v", r.Payload)
	}
}

func TestBuildIncludesMerge(t *testing.T) {
	loader := workflow.NewMapLoader(
		&workflow.Definition{Name: "checks", Steps: []workflow.StepDef{
			{Name: "vet", Tool: "go", Method: "vet"},
			{Name: "lint", Tool: "linter", Method: "run"},
		}},
		&workflow.Definition{Name: "more-checks", Steps: []workflow.StepDef{
			{Name: "lint", Tool: "tester", Method: "run"},
		}},
	)
	def := &workflow.Definition{
		Name:     "release",
		Includes: []string{"checks", "more-checks"},
		Steps: []workflow.StepDef{
			{Name: "vet", Tool: "go", Method: "run", Retries: 1},
			{Name: "deploy", Tool: "deployer", Method: "run", DependsOn: []string{"vet", "lint"}},
		},
	}

	var calls []string
	p, err := workflow.Build(def, workflow.BuildOptions{Invoker: echoRegistry(&calls), Loader: loader})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	steps := p.Steps()
	names := make([]string, len(steps))
	for i, s := range steps {
		names[i] = s.Name
	}
	if want := []string{"vet", "lint", "deploy"}; !reflect.DeepEqual(names, want) {
		t.Errorf("steps = %v, want %v", names, want)
	}
	if steps[0].RetryLimit != 1 {
		t.Error("the definition's own step should replace the included one")
	}

	if _, err := p.Execute(context.Background()); err != nil {
		t.Fatalf("execute: %v", err)
	}
	// the first include wins for lint
	if want := []string{"go.run", "linter.run", "deployer.run"}; !reflect.DeepEqual(calls, want) {
		t.Errorf("calls = %v, want %v", calls, want)
	}
}

func TestBuildEmbeddedPipeline(t *testing.T) {
	var calls []string
	loader := workflow.NewMapLoader(&workflow.Definition{Name: "suite", Steps: []workflow.StepDef{
		{Name: "unit", Tool: "tester", Method: "run"},
		{Name: "vet", Tool: "go", Method: "vet", DependsOn: []string{"unit"}},
	}})
	def := &workflow.Definition{Name: "release", Steps: []workflow.StepDef{
		{Name: "lint", Tool: "linter", Method: "run"},
		{Name: "tests", Pipeline: "suite", DependsOn: []string{"lint"}},
	}}

	p, err := workflow.Build(def, workflow.BuildOptions{Invoker: echoRegistry(&calls), Loader: loader})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	res, err := p.Execute(context.Background())
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(res.Steps) != 2 {
		t.Fatalf("child steps must stay invisible to the parent, got %d results", len(res.Steps))
	}
	tests, _ := res.Step("tests")
	child, ok := tests.Payload.(*workflow.Result)
	if !ok || len(child.Steps) != 2 || child.Metadata.Pipeline != "suite" {
		t.Errorf("tests payload = %#v", tests.Payload)
	}
}

func TestBuildCircularEmbedding(t *testing.T) {
	loader := workflow.NewMapLoader(
		&workflow.Definition{Name: "a", Steps: []workflow.StepDef{{Name: "to-b", Pipeline: "b"}}},
		&workflow.Definition{Name: "b", Steps: []workflow.StepDef{{Name: "to-a", Pipeline: "a"}}},
		&workflow.Definition{Name: "self", Includes: []string{"self"}},
	)

	tests := []struct {
		name  string
		root  string
		cycle []string
	}{
		{"embedding", "a", []string{"a", "b", "a"}},
		{"self include", "self", []string{"self", "self"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			def, _ := loader.Load(tc.root)
			_, err := workflow.Build(def, workflow.BuildOptions{Loader: loader})
			if !errors.IsCode(err, errors.ErrCodeCycleDetected) {
				t.Fatalf("expected CYCLE_DETECTED, got %v", err)
			}
			appErr, _ := errors.AsAppError(err)
			if got := appErr.Details["cycle"]; !reflect.DeepEqual(got, tc.cycle) {
				t.Errorf("cycle = %v, want %v", got, tc.cycle)
			}
		})
	}
}

func TestBuildConditions(t *testing.T) {
	var calls []string
	def := &workflow.Definition{Name: "conds", Steps: []workflow.StepDef{
		{Name: "lint", Tool: "linter", Method: "run", ContinueOnError: true},
		{Name: "fix", Tool: "go", Method: "run", DependsOn: []string{"lint"}, Condition: workflow.CondAnyFailed},
		{Name: "ship", Tool: "deployer", Method: "run", DependsOn: []string{"lint"}, Condition: workflow.CondDepsSucceeded},
		{Name: "never", Tool: "tester", Method: "run", Condition: workflow.CondNever},
		{Name: "custom", Tool: "tester", Method: "vet", Condition: "release-day"},
	}}

	p, err := workflow.Build(def, workflow.BuildOptions{
		Invoker:    echoRegistry(&calls, "linter.run"),
		Conditions: map[string]workflow.Condition{"release-day": workflow.Always},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	res, err := p.Execute(context.Background())
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	want := map[string]workflow.StepStatus{
		"lint":   workflow.StatusFailed,
		"fix":    workflow.StatusSucceeded,
		"ship":   workflow.StatusSkipped,
		"never":  workflow.StatusSkipped,
		"custom": workflow.StatusSucceeded,
	}
	for name, status := range want {
		if r, _ := res.Step(name); r.Status != status {
			t.Errorf("%s: status = %s, want %s", name, r.Status, status)
		}
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		def  *workflow.Definition
		opts workflow.BuildOptions
		code errors.ErrorCode
	}{
		{
			name: "unknown condition",
			def:  &workflow.Definition{Name: "p", Steps: []workflow.StepDef{{Name: "a", Tool: "t", Method: "m", Condition: "full-moon"}}},
			opts: workflow.BuildOptions{Invoker: tool.NewRegistry()},
			code: errors.ErrCodeInvalidStep,
		},
		{
			name: "tool step without invoker",
			def:  &workflow.Definition{Name: "p", Steps: []workflow.StepDef{{Name: "a", Tool: "t", Method: "m"}}},
			code: errors.ErrCodeInvalidStep,
		},
		{
			name: "invalid definition",
			def:  &workflow.Definition{Name: "p", Steps: []workflow.StepDef{{Name: "a"}}},
			code: errors.ErrCodeInvalidInput,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := workflow.Build(tc.def, tc.opts)
			if !errors.IsCode(err, tc.code) {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
		})
	}

	t.Run("include without loader", func(t *testing.T) {
		_, err := workflow.Build(&workflow.Definition{Name: "p", Includes: []string{"other"}}, workflow.BuildOptions{})
		if err == nil || !strings.Contains(err.Error(), "no loader") {
			t.Fatalf("expected loader error, got %v", err)
		}
	})
}
