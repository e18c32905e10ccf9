package memory

import (
	"context"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/meal-planner-agent/agent/contract"
)

const (
	BackendInMemory = "inmem"
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
	BackendUpstash  = "upstash"

	EmbedderHash   = "hash"
	EmbedderOpenAI = "openai"
)

type Config struct {
	Backend        string        `envconfig:"BACKEND" split_words:"true" default:"sqlite"`
	SQLitePath     string        `envconfig:"SQLITE_PATH" split_words:"true" default:"data/memory.db"`
	RedisURL       string        `envconfig:"REDIS_URL" split_words:"true"`
	ListKey        string        `envconfig:"LIST_KEY" split_words:"true" default:"mealplanner:memory"`
	Upstash        UpstashConfig `envconfig:"UPSTASH" split_words:"true"`
	Embedder       string        `envconfig:"EMBEDDER" split_words:"true" default:"hash"`
	EmbeddingModel string        `envconfig:"EMBEDDING_MODEL" split_words:"true" default:"openai/text-embedding-3-small"`
	HashDims       int           `envconfig:"HASH_DIMS" split_words:"true" default:"256"`
	MinScore       float64       `envconfig:"MIN_SCORE" split_words:"true" default:"0"`
}

// Open builds the configured store and embedder. client may be nil unless
// the openai embedder is selected.
func Open(ctx context.Context, cfg Config, client *openaisdk.Client) (*Service, error) {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var embedder Embedder
	switch strings.ToLower(strings.TrimSpace(cfg.Embedder)) {
	case "", EmbedderHash:
		embedder = NewHashEmbedder(cfg.HashDims)
	case EmbedderOpenAI:
		embedder, err = NewOpenAIEmbedder(client, cfg.EmbeddingModel)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", contractx.ErrValidation, err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported embedder=%q", contractx.ErrValidation, cfg.Embedder)
	}

	log.Debug().Str("backend", cfg.Backend).Str("embedder", cfg.Embedder).Msg("memory opened")
	return NewService(store, embedder, WithMinScore(cfg.MinScore))
}

func openStore(ctx context.Context, cfg Config) (contractx.MemoryStore, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case BackendInMemory:
		return NewInMemoryStore(), nil
	case "", BackendSQLite:
		return NewSQLiteStore(cfg.SQLitePath)
	case BackendRedis:
		return NewRedisStore(ctx, cfg.RedisURL, cfg.ListKey)
	case BackendUpstash:
		return NewUpstashStore(cfg.Upstash, WithListKey(cfg.ListKey))
	default:
		return nil, fmt.Errorf("%w: unsupported memory backend=%q", contractx.ErrValidation, cfg.Backend)
	}
}
