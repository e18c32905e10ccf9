package orchestratornode

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/meal-planner-agent/agent/contract"
)

// DraftPlan asks the generator for a candidate. Generation failures are
// recorded on the run state and consume the attempt; they are not graph
// errors.
func DraftPlan(
	ctx context.Context,
	in *GraphState,
	generator contractx.PlanGenerator,
) (*GraphState, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	run := in.Run

	plan, err := generator.Draft(ctx, contractx.GenerateRequest{
		MemoryContext: run.MemoryContext,
		Feedback:      run.LastFeedback,
		Attempt:       run.AttemptNumber,
	})
	if err != nil {
		var failure *contractx.GenerationFailure
		if !errors.As(err, &failure) {
			err = &contractx.GenerationFailure{Attempt: run.AttemptNumber, Cause: err}
		}
		log.Warn().Err(err).
			Str("run_id", run.RunID).
			Int("attempt", run.AttemptNumber).
			Msg("draft failed")
		if terr := run.FailAttempt(err); terr != nil {
			return nil, terr
		}
		return in, nil
	}

	if err := run.Drafted(plan); err != nil {
		return nil, err
	}
	return in, nil
}
