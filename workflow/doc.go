// Package workflow runs named steps in dependency order.
//
// A Pipeline owns an ordered set of Steps. Execute resolves the dependency
// graph with a depth-first walk (failing on unknown dependencies or cycles),
// then runs each step sequentially with immediate retries. A failed step
// aborts the run unless it was registered with ContinueOnError; aborted runs
// still return their partial Result.
//
//	p := workflow.New("release").
//		AddStep(workflow.Step{Name: "lint", Operation: workflow.Invoke(reg, "linter", "run"), RetryLimit: 2}).
//		AddStep(workflow.Step{Name: "test", Operation: workflow.Invoke(reg, "tests", "run"), DependsOn: []string{"lint"}}).
//		AddStep(workflow.Step{Name: "publish", Operation: workflow.Invoke(reg, "npm", "publish"), DependsOn: []string{"test"}})
//
//	res, err := p.Execute(ctx)
//
// Pipelines nest: AddSubPipeline embeds a child pipeline as one opaque step.
// Definitions can also be loaded from YAML and turned into pipelines with Build.
package workflow
