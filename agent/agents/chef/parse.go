package chef

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	contractx "github.com/tanpawarit/meal-planner-agent/agent/contract"
	llmx "github.com/tanpawarit/meal-planner-agent/agent/llm"
)

// ParsePlan decodes the chef's answer. The top level must be a non-empty JSON
// array; individual entries are never rejected. A missing or unrecognised
// day becomes MONDAY, a missing or unrecognised meal type becomes DINNER and
// a missing item name becomes "Surprise Meal".
func ParsePlan(content string) (contractx.WeeklyPlan, error) {
	cleaned := llmx.StripCodeFence(content)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: empty chef response", contractx.ErrMalformedResponse)
	}

	var decoded any
	if err := sonic.UnmarshalString(cleaned, &decoded); err != nil {
		return nil, fmt.Errorf("%w: decode chef response: %v", contractx.ErrMalformedResponse, err)
	}

	entries, ok := decoded.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: chef response is %T, want array", contractx.ErrMalformedResponse, decoded)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: chef response has no meals", contractx.ErrMalformedResponse)
	}

	plan := make(contractx.WeeklyPlan, 0, len(entries))
	for _, entry := range entries {
		fields, _ := entry.(map[string]any)
		plan = append(plan, contractx.MealAssignment{
			Day:      dayOf(fields),
			Meal:     mealTypeOf(fields),
			ItemName: itemNameOf(fields),
		})
	}
	return plan, nil
}

func dayOf(fields map[string]any) contractx.DayOfWeek {
	if raw, ok := fields["dayOfWeek"].(string); ok {
		if day, ok := contractx.ParseDay(raw); ok {
			return day
		}
	}
	return contractx.DefaultDay
}

func mealTypeOf(fields map[string]any) contractx.MealType {
	if raw, ok := fields["mealType"].(string); ok {
		if meal, ok := contractx.ParseMealType(raw); ok {
			return meal
		}
	}
	return contractx.DefaultMealType
}

func itemNameOf(fields map[string]any) string {
	if raw, ok := fields["itemName"].(string); ok {
		if name := strings.TrimSpace(raw); name != "" {
			return name
		}
	}
	return contractx.DefaultItemName
}
