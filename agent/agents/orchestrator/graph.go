package orchestrator

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	nodex "github.com/tanpawarit/meal-planner-agent/agent/nodes"
	statex "github.com/tanpawarit/meal-planner-agent/agent/state"
)

const (
	nodeDraft      = "draft"
	nodeReview     = "review"
	nodeSkipReview = "skip_review"
)

// compileAttemptGraph builds one drafting attempt. The loop itself lives in
// Run so the attempt budget stays visible in one place.
func (o *Orchestrator) compileAttemptGraph(
	ctx context.Context,
) (compose.Runnable[*nodex.GraphState, *nodex.GraphState], error) {
	graph := compose.NewGraph[*nodex.GraphState, *nodex.GraphState]()

	if err := graph.AddLambdaNode(nodeDraft,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.DraftPlan(ctx, in, o.generator)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodeDraft, err)
	}

	if err := graph.AddLambdaNode(nodeReview,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ReviewPlan(ctx, in, o.critic)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodeReview, err)
	}

	if err := graph.AddLambdaNode(nodeSkipReview,
		compose.InvokableLambda(nodex.SkipReview),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodeSkipReview, err)
	}

	if err := graph.AddEdge(compose.START, nodeDraft); err != nil {
		return nil, fmt.Errorf("add edge %s->%s: %w", compose.START, nodeDraft, err)
	}

	branch := compose.NewGraphBranch(func(ctx context.Context, in *nodex.GraphState) (string, error) {
		if in != nil && in.Run != nil && in.Run.Phase == statex.PhaseReviewing {
			return nodeReview, nil
		}
		return nodeSkipReview, nil
	}, map[string]bool{nodeReview: true, nodeSkipReview: true})
	if err := graph.AddBranch(nodeDraft, branch); err != nil {
		return nil, fmt.Errorf("add branch %s: %w", nodeDraft, err)
	}

	edges := [][2]string{
		{nodeReview, compose.END},
		{nodeSkipReview, compose.END},
	}
	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("orchestrator.attempt"))
	if err != nil {
		return nil, fmt.Errorf("compile attempt graph: %w", err)
	}
	return runner, nil
}
