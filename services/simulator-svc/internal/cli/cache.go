package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the explanation cache",
	}
	cmd.AddCommand(newCacheFlushCmd(a))
	return cmd
}

func newCacheFlushCmd(a *app) *cobra.Command {
	var algorithm string

	cmd := &cobra.Command{
		Use:   "flush",
		Short: "Drop cached explanations",
		Example: `  pagesim cache flush
  pagesim cache flush --algorithm LRU`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := buildComponents(a.cfg, nil)
			defer c.Close(cmd.Context())

			n, err := c.service.FlushExplanations(cmd.Context(), algorithm)
			if err != nil {
				return err
			}

			if a.jsonOutput() {
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"algorithm": algorithm,
					"removed":   n,
				})
			}
			scope := "all algorithms"
			if algorithm != "" {
				scope = algorithm
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached explanations (%s)\n", n, scope)
			return nil
		},
	}
	cmd.Flags().StringVarP(&algorithm, "algorithm", "a", "", "Only flush explanations of this algorithm")

	return cmd
}
