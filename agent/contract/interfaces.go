package contract

import (
	"context"

	einotool "github.com/cloudwego/eino/components/tool"
)

// Tool is a named callable the oracle may invoke while producing its answer.
type Tool = einotool.InvokableTool

type Oracle interface {
	Complete(ctx context.Context, req OracleRequest) (string, error)
}

type PlanGenerator interface {
	Draft(ctx context.Context, req GenerateRequest) (WeeklyPlan, error)
}

// PlanCritic never fails; an unavailable reviewer yields an approving Critique.
type PlanCritic interface {
	Review(ctx context.Context, plan WeeklyPlan) Critique
}

type MemoryStore interface {
	Append(ctx context.Context, records ...MemoryRecord) error
	SimilaritySearch(ctx context.Context, embedding []float32, k int, minScore float64) ([]ScoredRecord, error)
	Count(ctx context.Context) (int, error)
}

type PlanMemory interface {
	RetrieveContext(ctx context.Context, query string, k int) (string, error)
	Save(ctx context.Context, plan WeeklyPlan) error
}

type ItemPricer interface {
	PriceOf(ctx context.Context, item string) float64
}

type PlanSink interface {
	Upsert(ctx context.Context, slot MealSlot, itemName string) error
	UpsertPlan(ctx context.Context, plan WeeklyPlan) error
}
