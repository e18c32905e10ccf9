package cli

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tanpawarit/meal-planner-agent/agent/agents/orchestrator"
)

func newGenerateCmd(root *rootOptions) *cobra.Command {
	var (
		persist        bool
		threadFeedback bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Draft, review and remember one weekly plan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			memory, err := openMemory(ctx)
			if err != nil {
				return fmt.Errorf("open memory: %w", err)
			}
			defer memory.Close()

			o, err := buildOrchestrator(ctx, memory, orchestrator.WithFeedbackThreading(threadFeedback))
			if err != nil {
				return err
			}

			result, err := o.Run(ctx)
			if err != nil {
				return err
			}

			if persist {
				store, err := openMealStore(ctx)
				if err != nil {
					return err
				}
				defer store.Close()
				if err := store.UpsertPlan(ctx, result.Plan); err != nil {
					return fmt.Errorf("persist plan: %w", err)
				}
			}

			if missing := result.Plan.MissingSlots(); len(missing) > 0 {
				log.Warn().Int("missing_slots", len(missing)).Str("run_id", result.RunID).Msg("plan does not cover every slot")
			}

			out := cmd.OutOrStdout()
			if root.format == formatJSON {
				return writeJSON(out, result)
			}
			fmt.Fprintf(out, "run %s: %s after %d attempt(s)\n\n", result.RunID, result.Outcome, result.Attempts)
			fmt.Fprintln(out, result.Plan.Table())
			return nil
		},
	}

	cmd.Flags().BoolVar(&persist, "persist", false, "Upsert the plan into the meal store (MEALSTORE_DSN)")
	cmd.Flags().BoolVar(&threadFeedback, "thread-feedback", false, "Pass the critic's sentence to the next draft")
	return cmd
}
