package tool

import (
	"context"
	"errors"

	"github.com/cloudwego/eino/components/tool/utils"
	contractx "github.com/tanpawarit/meal-planner-agent/agent/contract"
)

const ToolGroceryPrice = "groceryPrice"

type GroceryPriceInput struct {
	Ingredient string `json:"ingredient" jsonschema:"description=Name of the food ingredient to price"`
}

type GroceryPriceOutput struct {
	Price float64 `json:"price"`
}

func NewGroceryPriceTool(pricer contractx.ItemPricer) (contractx.Tool, error) {
	if pricer == nil {
		return nil, errors.New("item pricer is required")
	}
	return utils.InferTool(ToolGroceryPrice, "Get the current market price of a food ingredient",
		func(ctx context.Context, in GroceryPriceInput) (GroceryPriceOutput, error) {
			return GroceryPriceOutput{Price: pricer.PriceOf(ctx, in.Ingredient)}, nil
		})
}
