package orchestratornode

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/meal-planner-agent/agent/contract"
)

func ReviewPlan(
	ctx context.Context,
	in *GraphState,
	critic contractx.PlanCritic,
) (*GraphState, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	run := in.Run

	verdict := critic.Review(ctx, run.CandidatePlan)

	feedback := RejectionFeedback
	if in.ThreadCritique && strings.TrimSpace(verdict.Feedback) != "" {
		feedback = RejectionFeedback + " " + strings.TrimSpace(verdict.Feedback)
	}

	if err := run.Judge(verdict, feedback); err != nil {
		return nil, err
	}

	log.Info().
		Str("run_id", run.RunID).
		Int("attempt", run.AttemptNumber).
		Bool("approved", verdict.Approved).
		Str("phase", string(run.Phase)).
		Msg("plan reviewed")
	return in, nil
}

// SkipReview passes a failed draft straight through.
func SkipReview(_ context.Context, in *GraphState) (*GraphState, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	return in, nil
}
