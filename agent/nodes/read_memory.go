package orchestratornode

import (
	"context"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/meal-planner-agent/agent/contract"
)

// ReadMemory loads the avoidance context once per run. A failing store is
// treated as empty history.
func ReadMemory(
	ctx context.Context,
	in *GraphState,
	memory contractx.PlanMemory,
) (*GraphState, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	memoryContext, err := memory.RetrieveContext(ctx, MemoryQuery, MemoryTopK)
	if err != nil {
		log.Warn().Err(err).Str("run_id", in.Run.RunID).Msg("memory read failed, continuing without context")
		memoryContext = ""
	}
	in.Run.MemoryContext = memoryContext
	return in, nil
}
