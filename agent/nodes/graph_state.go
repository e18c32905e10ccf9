package orchestratornode

import (
	"fmt"

	contractx "github.com/tanpawarit/meal-planner-agent/agent/contract"
	statex "github.com/tanpawarit/meal-planner-agent/agent/state"
)

const (
	// RejectionFeedback is handed to the chef after a rejected draft.
	RejectionFeedback = "PREVIOUS PLAN WAS REJECTED. TRY AGAIN."

	MemoryQuery = "recent meals"
	MemoryTopK  = 3
)

// GraphState flows through the attempt graph. Run is owned by a single
// orchestration run.
type GraphState struct {
	Run *statex.RunState

	// ThreadCritique replaces the fixed rejection literal with the critic's
	// own feedback.
	ThreadCritique bool
}

func validate(in *GraphState) error {
	if in == nil || in.Run == nil {
		return fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	return nil
}
