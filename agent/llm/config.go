package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	contractx "github.com/tanpawarit/meal-planner-agent/agent/contract"
	ollamax "github.com/tanpawarit/meal-planner-agent/pkg/ollama"
	openrouterx "github.com/tanpawarit/meal-planner-agent/pkg/openrouter"
)

const (
	ProviderOpenRouter = "openrouter"
	ProviderOllama     = "ollama"
)

type Config struct {
	Provider           string        `envconfig:"PROVIDER" split_words:"true" default:"openrouter"`
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" required:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"4000"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.5"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"60s"`
	CallTimeout        time.Duration `envconfig:"CALL_TIMEOUT" split_words:"true" default:"90s"`
	MaxToolRounds      int           `envconfig:"MAX_TOOL_ROUNDS" split_words:"true" default:"8"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`

	ChefModel         string  `envconfig:"CHEF_MODEL" split_words:"true"`
	CriticModel       string  `envconfig:"CRITIC_MODEL" split_words:"true"`
	ChefTemperature   float32 `envconfig:"CHEF_TEMPERATURE" split_words:"true" default:"-1"`
	CriticTemperature float32 `envconfig:"CRITIC_TEMPERATURE" split_words:"true" default:"-1"`
}

func (c Config) Validate() error {
	switch c.provider() {
	case ProviderOpenRouter:
		if strings.TrimSpace(c.APIKey) == "" {
			return fmt.Errorf("%w: openrouter api key is required", contractx.ErrValidation)
		}
	case ProviderOllama:
	default:
		return fmt.Errorf("%w: unsupported llm provider=%q", contractx.ErrValidation, c.Provider)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	if c.MaxToolRounds < 0 {
		return fmt.Errorf("%w: max tool rounds must be >= 0", contractx.ErrValidation)
	}
	return nil
}

func (c Config) provider() string {
	p := strings.ToLower(strings.TrimSpace(c.Provider))
	if p == "" {
		return ProviderOpenRouter
	}
	return p
}

// modelFor resolves the model name and temperature for a role, falling back
// to the defaults when no override is set.
func (c Config) modelFor(role contractx.Role) (string, float32) {
	modelName := strings.TrimSpace(c.Model)
	temp := c.Temperature

	switch role {
	case contractx.RoleChef:
		if v := strings.TrimSpace(c.ChefModel); v != "" {
			modelName = v
		}
		if c.ChefTemperature >= 0 {
			temp = c.ChefTemperature
		}
	case contractx.RoleCritic:
		if v := strings.TrimSpace(c.CriticModel); v != "" {
			modelName = v
		}
		if c.CriticTemperature >= 0 {
			temp = c.CriticTemperature
		}
	}
	return modelName, temp
}

func (c Config) OpenRouterFor(role contractx.Role) openrouterx.Config {
	modelName, temp := c.modelFor(role)
	maxCompletionToken := c.MaxCompletionToken
	return openrouterx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              modelName,
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        temp,
		Timeout:            c.Timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
	}
}

func (c Config) OllamaFor(role contractx.Role) ollamax.Config {
	modelName, temp := c.modelFor(role)
	baseURL := strings.TrimSpace(c.BaseURL)
	if baseURL == "" || strings.Contains(baseURL, "openrouter.ai") {
		baseURL = ollamax.DefaultBaseURL
	}
	return ollamax.Config{
		BaseURL:     baseURL,
		Model:       modelName,
		Temperature: temp,
		NumPredict:  c.MaxCompletionToken,
		Timeout:     c.Timeout,
	}
}

// NewChatModel builds the provider chat model for a role.
func (c Config) NewChatModel(ctx context.Context, role contractx.Role) (einomodel.ToolCallingChatModel, error) {
	var builder openrouterx.LLMBuilder
	switch c.provider() {
	case ProviderOllama:
		cfg := c.OllamaFor(role)
		builder = &cfg
	default:
		cfg := c.OpenRouterFor(role)
		builder = &cfg
	}

	m, err := builder.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create %s model: %v", contractx.ErrOracleTransport, role, err)
	}
	return m, nil
}

// NewOracle builds a ChatOracle for a role from this config.
func (c Config) NewOracle(ctx context.Context, role contractx.Role) (*ChatOracle, error) {
	m, err := c.NewChatModel(ctx, role)
	if err != nil {
		return nil, err
	}
	return NewChatOracle(m, WithCallTimeout(c.CallTimeout), WithMaxToolRounds(c.MaxToolRounds))
}
