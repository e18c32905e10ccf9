package tool

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/meal-planner-agent/agent/contract"
)

// BuildForRole returns the tools an agent role may call. The critic gets none.
func BuildForRole(role contractx.Role, pricer contractx.ItemPricer) ([]contractx.Tool, error) {
	switch role {
	case contractx.RoleChef:
		grocery, err := NewGroceryPriceTool(pricer)
		if err != nil {
			return nil, err
		}
		return []contractx.Tool{grocery}, nil
	case contractx.RoleCritic:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: unknown agent role=%s", contractx.ErrValidation, role)
	}
}

// Infos collects the schema declarations handed to the chat model.
func Infos(ctx context.Context, tools []contractx.Tool) ([]*schema.ToolInfo, error) {
	infos := make([]*schema.ToolInfo, 0, len(tools))
	for _, t := range tools {
		if t == nil {
			continue
		}
		info, err := t.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: tool info: %v", contractx.ErrValidation, err)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// Index maps tool names to their implementation.
func Index(ctx context.Context, tools []contractx.Tool) (map[string]contractx.Tool, error) {
	byName := make(map[string]contractx.Tool, len(tools))
	for _, t := range tools {
		if t == nil {
			continue
		}
		info, err := t.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: tool info: %v", contractx.ErrValidation, err)
		}
		byName[info.Name] = t
	}
	return byName, nil
}
