package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newToolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the configured tools and their methods",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := quietRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Shutdown(cmd.Context())

			out := cmd.OutOrStdout()
			for _, t := range rt.Summary.Tools() {
				fmt.Fprintf(out, "%s\t%s\t%s\n", t.Name, t.Kind, strings.Join(t.Methods, ","))
			}
			return nil
		},
	}
}
