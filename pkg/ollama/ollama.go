package ollama

import (
	"context"
	"fmt"
	"strings"
	"time"

	ollamamodel "github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino/components/model"
	"github.com/ollama/ollama/api"
)

const DefaultBaseURL = "http://localhost:11434"

type Config struct {
	BaseURL     string        `envconfig:"BASE_URL" split_words:"true" default:"http://localhost:11434"`
	Model       string        `envconfig:"MODEL" split_words:"true" required:"true"`
	Temperature float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.5"`
	NumPredict  int           `envconfig:"NUM_PREDICT" split_words:"true" default:"4000"`
	Timeout     time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"60s"`
}

// New creates a chat model served by a local Ollama daemon.
func (c *Config) New(ctx context.Context) (model.ToolCallingChatModel, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	m, err := ollamamodel.NewChatModel(ctx, &ollamamodel.ChatModelConfig{
		BaseURL: baseURL,
		Model:   strings.TrimSpace(c.Model),
		Timeout: c.Timeout,
		Options: &api.Options{
			Temperature: c.Temperature,
			NumPredict:  c.NumPredict,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("ollama: create chat model: %w", err)
	}
	return m, nil
}
