package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kbukum/toolflow/bootstrap"
	"github.com/kbukum/toolflow/workflow"
)

var jsonOutput bool

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <pipeline>",
		Short: "Execute a pipeline definition",
		Long: `Execute the named pipeline definition and report each step.

Examples:
  # Run pipelines/release.yaml
  toolflow run release

  # Emit the full result as JSON
  toolflow run release --json`,
		Args: cobra.ExactArgs(1),
		RunE: runPipeline,
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print the result as JSON")
	return cmd
}

func runPipeline(cmd *cobra.Command, args []string) error {
	rt, err := loadRuntime(cmd.Context(), summaryTo(cmd))
	if err != nil {
		return err
	}

	var res *workflow.Result
	runErr := rt.RunTask(cmd.Context(), func(ctx context.Context) error {
		var err error
		res, err = rt.RunPipeline(ctx, args[0])
		return err
	})
	if res != nil {
		if err := printResult(cmd.OutOrStdout(), res); err != nil {
			return err
		}
	}
	if runErr == nil && res != nil && !res.Success {
		return fmt.Errorf("pipeline %q completed with failed steps", res.Metadata.Pipeline)
	}
	return runErr
}

func printResult(w io.Writer, res *workflow.Result) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	fmt.Fprintf(w, "%s (%s) %s in %dms\n", res.Metadata.Pipeline, res.Metadata.RunID, res.Phase, res.Metadata.Duration.Milliseconds())
	for _, sr := range res.Steps {
		line := fmt.Sprintf("  %-9s %s", sr.Status, sr.Step)
		if sr.Attempts > 1 {
			line += fmt.Sprintf(" (%d attempts)", sr.Attempts)
		}
		if sr.Err != nil {
			line += ": " + sr.Err.Error()
		}
		fmt.Fprintln(w, line)
	}
	return nil
}

// summaryTo keeps stdout clean for JSON output.
func summaryTo(cmd *cobra.Command) bootstrap.Option {
	if jsonOutput {
		return bootstrap.WithSummaryOutput(cmd.ErrOrStderr())
	}
	return bootstrap.WithSummaryOutput(cmd.OutOrStdout())
}
