package prompt

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/meal-planner-agent/agent/contract"
)

var (
	//go:embed template/chef.txt
	chefRaw string

	//go:embed template/critic.txt
	criticRaw string
)

// PromptSet holds loaded prompt templates.
type PromptSet struct {
	Chef   string
	Critic string
}

func LoadPromptSet() PromptSet {
	return PromptSet{
		Chef:   strings.TrimSpace(chefRaw),
		Critic: strings.TrimSpace(criticRaw),
	}
}

// Render executes a Go text template as a single user message.
func Render(ctx context.Context, tpl string, vars map[string]any) (string, error) {
	if strings.TrimSpace(tpl) == "" {
		return "", fmt.Errorf("%w: template is empty", contractx.ErrPromptMissing)
	}

	msgs, err := einoprompt.FromMessages(schema.GoTemplate, schema.UserMessage(tpl)).Format(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("%w: render prompt: %v", contractx.ErrValidation, err)
	}
	if len(msgs) == 0 {
		return "", fmt.Errorf("%w: rendered prompt is empty", contractx.ErrPromptMissing)
	}
	return strings.TrimSpace(msgs[0].Content), nil
}
