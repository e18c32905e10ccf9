package chef

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/meal-planner-agent/agent/contract"
	pricerx "github.com/tanpawarit/meal-planner-agent/agent/pricer"
	promptx "github.com/tanpawarit/meal-planner-agent/agent/prompt"
	toolx "github.com/tanpawarit/meal-planner-agent/agent/tool"
)

var _ contractx.PlanGenerator = (*Generator)(nil)

// Generator drafts weekly plans through one tool-enabled oracle call per
// attempt. Price checks happen inside that call via the groceryPrice tool.
type Generator struct {
	oracle   contractx.Oracle
	tools    []contractx.Tool
	template string
}

func New(oracle contractx.Oracle, pricer contractx.ItemPricer) (*Generator, error) {
	if oracle == nil {
		return nil, errors.New("chef oracle is required")
	}
	tools, err := toolx.BuildForRole(contractx.RoleChef, pricer)
	if err != nil {
		return nil, err
	}

	tpl := promptx.LoadPromptSet().Chef
	if tpl == "" {
		return nil, fmt.Errorf("%w: chef prompt", contractx.ErrPromptMissing)
	}

	return &Generator{
		oracle:   oracle,
		tools:    tools,
		template: tpl,
	}, nil
}

// Draft returns a *contractx.GenerationFailure on any failure.
func (g *Generator) Draft(ctx context.Context, req contractx.GenerateRequest) (contractx.WeeklyPlan, error) {
	prompt, err := g.BuildPrompt(ctx, req.MemoryContext, req.Feedback)
	if err != nil {
		return nil, &contractx.GenerationFailure{Attempt: req.Attempt, Cause: err}
	}

	content, err := g.oracle.Complete(ctx, contractx.OracleRequest{
		Prompt: prompt,
		Tools:  g.tools,
	})
	if err != nil {
		return nil, &contractx.GenerationFailure{Attempt: req.Attempt, Cause: err}
	}

	plan, err := ParsePlan(content)
	if err != nil {
		return nil, &contractx.GenerationFailure{Attempt: req.Attempt, Cause: err}
	}

	log.Info().
		Int("attempt", req.Attempt).
		Int("meals", len(plan)).
		Int("missing_slots", len(plan.MissingSlots())).
		Msg("chef drafted plan")
	return plan, nil
}

func (g *Generator) BuildPrompt(ctx context.Context, memoryContext, feedback string) (string, error) {
	return promptx.Render(ctx, g.template, map[string]any{
		"memory_context": strings.TrimSpace(memoryContext),
		"feedback":       strings.TrimSpace(feedback),
		"threshold":      fmt.Sprintf("%.2f", pricerx.Threshold),
		"tool_name":      toolx.ToolGroceryPrice,
	})
}
