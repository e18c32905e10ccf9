package cli

import (
	"context"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go"
	"github.com/tanpawarit/meal-planner-agent/agent/agents/chef"
	"github.com/tanpawarit/meal-planner-agent/agent/agents/critic"
	"github.com/tanpawarit/meal-planner-agent/agent/agents/orchestrator"
	contractx "github.com/tanpawarit/meal-planner-agent/agent/contract"
	llmx "github.com/tanpawarit/meal-planner-agent/agent/llm"
	mealstorex "github.com/tanpawarit/meal-planner-agent/agent/mealstore"
	memoryx "github.com/tanpawarit/meal-planner-agent/agent/memory"
	pricerx "github.com/tanpawarit/meal-planner-agent/agent/pricer"
	configx "github.com/tanpawarit/meal-planner-agent/pkg/config"
	openrouterx "github.com/tanpawarit/meal-planner-agent/pkg/openrouter"
)

func loadPricer() (*pricerx.Catalog, error) {
	cfg, err := configx.New[pricerx.Config]("PRICER")
	if err != nil {
		return nil, err
	}
	return pricerx.LoadCatalog(cfg.Catalog)
}

func openMemory(ctx context.Context) (*memoryx.Service, error) {
	cfg, err := configx.New[memoryx.Config]("MEMORY")
	if err != nil {
		return nil, err
	}

	var client *openaisdk.Client
	if strings.EqualFold(strings.TrimSpace(cfg.Embedder), memoryx.EmbedderOpenAI) {
		llmCfg, err := configx.New[llmx.Config]("LLM")
		if err != nil {
			return nil, err
		}
		client = openrouterx.NewClient(llmCfg.OpenRouterFor(contractx.RoleChef))
	}
	return memoryx.Open(ctx, *cfg, client)
}

func openMealStore(ctx context.Context) (*mealstorex.BunStore, error) {
	cfg, err := configx.New[mealstorex.Config]("MEALSTORE")
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("%w: MEALSTORE_DSN is required with --persist", contractx.ErrValidation)
	}
	store, err := mealstorex.Open(ctx, *cfg)
	if err != nil {
		return nil, err
	}
	if err := store.CreateTable(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

func buildOrchestrator(
	ctx context.Context,
	memory contractx.PlanMemory,
	opts ...orchestrator.Option,
) (*orchestrator.Orchestrator, error) {
	llmCfg, err := configx.New[llmx.Config]("LLM")
	if err != nil {
		return nil, err
	}
	if err := llmCfg.Validate(); err != nil {
		return nil, err
	}

	pricer, err := loadPricer()
	if err != nil {
		return nil, err
	}

	chefOracle, err := llmCfg.NewOracle(ctx, contractx.RoleChef)
	if err != nil {
		return nil, fmt.Errorf("chef oracle: %w", err)
	}
	criticOracle, err := llmCfg.NewOracle(ctx, contractx.RoleCritic)
	if err != nil {
		return nil, fmt.Errorf("critic oracle: %w", err)
	}

	generator, err := chef.New(chefOracle, pricer)
	if err != nil {
		return nil, err
	}
	reviewer, err := critic.New(criticOracle)
	if err != nil {
		return nil, err
	}
	return orchestrator.New(generator, reviewer, memory, opts...)
}
