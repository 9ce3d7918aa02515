package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tinyrange/bfc/internal/codegen"
)

func newTargetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "targets",
		Short: "List supported target architectures",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			for _, t := range codegen.Targets() {
				aliases := codegen.Aliases(t)
				if len(aliases) == 0 {
					fmt.Fprintln(out, t)
					continue
				}
				fmt.Fprintf(out, "%s\t(%s)\n", t, strings.Join(aliases, ", "))
			}
			return nil
		},
	}
}
