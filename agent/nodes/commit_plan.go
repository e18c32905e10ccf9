package orchestratornode

import (
	"context"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/meal-planner-agent/agent/contract"
)

// CommitPlan persists the final plan to memory. It reports whether a write
// happened; write failures are logged and never fail the run.
func CommitPlan(
	ctx context.Context,
	in *GraphState,
	memory contractx.PlanMemory,
) (bool, error) {
	if err := validate(in); err != nil {
		return false, err
	}
	run := in.Run
	if !run.Phase.Terminal() || len(run.FinalPlan) == 0 {
		return false, nil
	}

	if err := memory.Save(ctx, run.FinalPlan); err != nil {
		log.Error().Err(err).
			Str("run_id", run.RunID).
			Int("meals", len(run.FinalPlan)).
			Msg("memory write failed, returning plan anyway")
		return false, nil
	}
	return true, nil
}
