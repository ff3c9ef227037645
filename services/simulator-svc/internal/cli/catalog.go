package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"pagesim/services/simulator-svc/internal/policy"
	"pagesim/services/simulator-svc/internal/trace"
)

func newAlgorithmsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "algorithms",
		Short: "List supported replacement algorithms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			infos := policy.GetAllAlgorithms()
			if a.jsonOutput() {
				return writeJSON(cmd.OutOrStdout(), infos)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tCOST\tSTACK\tDESCRIPTION")
			for _, info := range infos {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\n",
					info.Algorithm, info.Name, info.ComplexityBadge, info.StackAlgorithm, info.Description)
			}
			return tw.Flush()
		},
	}
}

func newExamplesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "examples",
		Short: "List preset reference strings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			examples := trace.Examples()
			if a.jsonOutput() {
				return writeJSON(cmd.OutOrStdout(), examples)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tFRAMES\tREFERENCES\tDESCRIPTION")
			for _, e := range examples {
				fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n",
					e.Key, e.Frames, trace.FormatReferenceString(e.References), e.Description)
			}
			return tw.Flush()
		},
	}
}
