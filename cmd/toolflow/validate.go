package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kbukum/toolflow/workflow"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <pipeline>",
		Short: "Build a pipeline definition and print its execution order",
		Long: `Load and build the named pipeline definition without running it,
then print the order its steps would execute in. Unknown dependencies,
cycles and circular includes are reported as errors.`,
		Args: cobra.ExactArgs(1),
		RunE: validatePipeline,
	}
}

func validatePipeline(cmd *cobra.Command, args []string) error {
	rt, err := quietRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Shutdown(cmd.Context())

	p, err := rt.LoadPipeline(args[0])
	if err != nil {
		return err
	}
	order, err := workflow.Resolve(p.Steps())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %d steps\n", p.Name(), len(order))
	for i, s := range order {
		line := fmt.Sprintf("  %d. %s", i+1, s.Name)
		if len(s.DependsOn) > 0 {
			line += " <- " + strings.Join(s.DependsOn, ", ")
		}
		fmt.Fprintln(out, line)
	}
	return nil
}
