package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

type priceLine struct {
	Ingredient string  `json:"ingredient"`
	Price      float64 `json:"price"`
}

func newPriceCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "price <ingredient>...",
		Short: "Look up ingredient prices",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pricer, err := loadPricer()
			if err != nil {
				return err
			}

			lines := make([]priceLine, 0, len(args))
			for _, name := range args {
				lines = append(lines, priceLine{Ingredient: name, Price: pricer.PriceOf(cmd.Context(), name)})
			}

			out := cmd.OutOrStdout()
			if root.format == formatJSON {
				return writeJSON(out, lines)
			}
			for _, l := range lines {
				fmt.Fprintf(out, "%-20s %6.2f\n", l.Ingredient, l.Price)
			}
			return nil
		},
	}
}
