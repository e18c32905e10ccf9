package pricer

import (
	"fmt"
	"os"
	"strings"

	contractx "github.com/tanpawarit/meal-planner-agent/agent/contract"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Catalog string `envconfig:"CATALOG" split_words:"true"`
}

type catalogFile struct {
	DefaultPrice *float64          `yaml:"default_price"`
	Prices       map[string]float64 `yaml:"prices"`
}

// LoadCatalog reads a YAML price table and merges it over the reference
// prices. An empty path returns the reference catalog.
func LoadCatalog(path string) (*Catalog, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return New(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read price catalog: %w", err)
	}
	return ParseCatalog(raw)
}

func ParseCatalog(raw []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("%w: decode price catalog: %v", contractx.ErrValidation, err)
	}

	for name, price := range file.Prices {
		if price < 0 {
			return nil, fmt.Errorf("%w: negative price for %q", contractx.ErrValidation, name)
		}
	}

	opts := []Option{WithPrices(file.Prices)}
	if file.DefaultPrice != nil {
		if *file.DefaultPrice < 0 {
			return nil, fmt.Errorf("%w: default_price must be >= 0", contractx.ErrValidation)
		}
		opts = append(opts, WithDefaultPrice(*file.DefaultPrice))
	}
	return New(opts...), nil
}
