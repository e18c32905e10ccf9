package critic

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/meal-planner-agent/agent/contract"
	llmx "github.com/tanpawarit/meal-planner-agent/agent/llm"
	promptx "github.com/tanpawarit/meal-planner-agent/agent/prompt"
)

const OfflineFeedback = "critic offline, assuming plan is acceptable"

var _ contractx.PlanCritic = (*Critic)(nil)

type criticLLMOutput struct {
	Approved *bool   `json:"approved"`
	Feedback *string `json:"feedback"`
}

// Critic reviews plans without tool access. Any failure yields an approving
// verdict so an unavailable reviewer never blocks a plan.
type Critic struct {
	oracle   contractx.Oracle
	template string
	parser   schema.MessageParser[criticLLMOutput]
}

func New(oracle contractx.Oracle) (*Critic, error) {
	if oracle == nil {
		return nil, errors.New("critic oracle is required")
	}
	tpl := promptx.LoadPromptSet().Critic
	if tpl == "" {
		return nil, fmt.Errorf("%w: critic prompt", contractx.ErrPromptMissing)
	}

	return &Critic{
		oracle:   oracle,
		template: tpl,
		parser: schema.NewMessageJSONParser[criticLLMOutput](&schema.MessageJSONParseConfig{
			ParseFrom: schema.MessageParseFromContent,
		}),
	}, nil
}

func OfflineCritique() contractx.Critique {
	return contractx.Critique{Approved: true, Feedback: OfflineFeedback}
}

func (c *Critic) Review(ctx context.Context, plan contractx.WeeklyPlan) contractx.Critique {
	verdict, err := c.review(ctx, plan)
	if err != nil {
		log.Warn().Err(err).Int("meals", len(plan)).Msg("critic unavailable, failing open")
		return OfflineCritique()
	}
	return verdict
}

func (c *Critic) review(ctx context.Context, plan contractx.WeeklyPlan) (contractx.Critique, error) {
	prompt, err := promptx.Render(ctx, c.template, map[string]any{
		"plan_lines": plan.Lines(),
	})
	if err != nil {
		return contractx.Critique{}, err
	}

	content, err := c.oracle.Complete(ctx, contractx.OracleRequest{Prompt: prompt})
	if err != nil {
		return contractx.Critique{}, err
	}

	out, err := c.parser.Parse(ctx, &schema.Message{
		Role:    schema.Assistant,
		Content: llmx.StripCodeFence(content),
	})
	if err != nil {
		return contractx.Critique{}, fmt.Errorf("%w: decode critique: %v", contractx.ErrMalformedResponse, err)
	}
	if out.Approved == nil || out.Feedback == nil {
		return contractx.Critique{}, fmt.Errorf("%w: critique must carry approved and feedback", contractx.ErrMalformedResponse)
	}

	return contractx.Critique{Approved: *out.Approved, Feedback: *out.Feedback}, nil
}
