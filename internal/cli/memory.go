package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	contractx "github.com/tanpawarit/meal-planner-agent/agent/contract"
)

func newMemoryCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Inspect remembered meals",
	}
	cmd.AddCommand(newMemorySearchCmd(root), newMemoryCountCmd(root))
	return cmd
}

func newMemorySearchCmd(root *rootOptions) *cobra.Command {
	var k int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Rank remembered meals against a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			memory, err := openMemory(ctx)
			if err != nil {
				return err
			}
			defer memory.Close()

			results, err := memory.Search(ctx, joinArgs(args), k)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if root.format == formatJSON {
				if results == nil {
					results = []contractx.ScoredRecord{}
				}
				return writeJSON(out, results)
			}
			for _, r := range results {
				fmt.Fprintf(out, "%.3f  %s\n", r.Score, r.Record.Text)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&k, "top", "k", 3, "Max results")
	return cmd
}

func newMemoryCountCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Count remembered meals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			memory, err := openMemory(ctx)
			if err != nil {
				return err
			}
			defer memory.Close()

			n, err := memory.Count(ctx)
			if err != nil {
				return err
			}
			if root.format == formatJSON {
				return writeJSON(cmd.OutOrStdout(), map[string]int{"count": n})
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}
}
