package pricer

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/meal-planner-agent/agent/contract"
)

const (
	DefaultPrice = 3.00

	// Threshold is the per-meal price above which the chef is told to swap
	// an ingredient.
	Threshold = 10.00
)

var referencePrices = map[string]float64{
	"salmon":  20.00,
	"steak":   18.00,
	"chicken": 5.00,
	"eggs":    0.50,
	"oatmeal": 0.20,
	"rice":    1.50,
}

var _ contractx.ItemPricer = (*Catalog)(nil)

// Catalog is an immutable ingredient price table. Lookups never fail;
// unknown ingredients resolve to the fallback price.
type Catalog struct {
	prices   map[string]float64
	fallback float64
}

type Option func(*Catalog)

// WithPrices overlays prices on top of the reference table.
func WithPrices(prices map[string]float64) Option {
	return func(c *Catalog) {
		for name, price := range prices {
			key := normalize(name)
			if key == "" || price < 0 {
				continue
			}
			c.prices[key] = price
		}
	}
}

func WithDefaultPrice(price float64) Option {
	return func(c *Catalog) {
		if price >= 0 {
			c.fallback = price
		}
	}
}

func New(opts ...Option) *Catalog {
	c := &Catalog{
		prices:   make(map[string]float64, len(referencePrices)),
		fallback: DefaultPrice,
	}
	for name, price := range referencePrices {
		c.prices[name] = price
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

func (c *Catalog) PriceOf(ctx context.Context, item string) float64 {
	key := normalize(item)
	price, known := c.prices[key]
	if !known {
		price = c.fallback
	}

	log.Debug().
		Str("ingredient", key).
		Float64("price", price).
		Bool("known", known).
		Msg("grocery price lookup")

	return price
}

// Len reports the number of priced ingredients.
func (c *Catalog) Len() int {
	return len(c.prices)
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
