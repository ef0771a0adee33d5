// Package bootstrap wires a toolflow runtime from configuration.
//
// A Runtime owns the shared services every pipeline needs: the logger, the
// OpenTelemetry providers, the result cache, the event bus and the tool
// registry. Pipelines built through it get those services injected.
//
// # Quick Start
//
//	cfg, _ := config.Load("release-bot")
//	rt, err := bootstrap.New(ctx, cfg,
//	    bootstrap.WithTools(myTool),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = rt.RunTask(ctx, func(ctx context.Context) error {
//	    _, err := rt.RunPipeline(ctx, "release")
//	    return err
//	})
//
// RunTask cancels the task on SIGINT or SIGTERM and shuts the runtime down
// when the task returns.
package bootstrap
