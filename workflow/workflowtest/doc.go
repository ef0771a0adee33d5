// Package workflowtest provides mock operations and an event recorder for
// testing pipelines.
//
//	lint := workflowtest.Flaky(2, "ok") // fails twice, then returns "ok"
//	p := workflow.New("ci").AddStep(workflow.Step{Name: "lint", Operation: lint, RetryLimit: 2})
//	res, _ := p.Execute(ctx)
//	// lint.Calls() == 3
package workflowtest
