package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/abhisek/mathduel/internal/battle"
	"github.com/abhisek/mathduel/internal/card"
	"github.com/abhisek/mathduel/internal/difficulty"
	"github.com/abhisek/mathduel/internal/llm"
	"github.com/abhisek/mathduel/internal/problemgen"
	"github.com/abhisek/mathduel/internal/store"
)

// newGenerator builds the problem orchestrator. Without a configured LLM
// provider every problem is generated locally.
func newGenerator(ctx context.Context, events store.LLMEventRepo) (*problemgen.Orchestrator, error) {
	provider, err := llm.NewProviderFromEnv(ctx, events, logger)
	if err != nil {
		return nil, fmt.Errorf("LLM provider: %w", err)
	}
	if provider == nil {
		fmt.Fprintln(os.Stderr, "No LLM provider configured; problems are generated locally.")
	} else {
		logger.Info("LLM provider ready", "model", provider.ModelID())
	}
	adapter := difficulty.New(cfg.Difficulty())
	return problemgen.New(provider, adapter, cfg.Orchestrator(), logger), nil
}

func newManager(gen problemgen.Generator, st *store.Store) *battle.Manager {
	return battle.NewManager(battle.ManagerConfig{
		Generator:     gen,
		Catalog:       card.DefaultCatalog(),
		Rules:         cfg.Rules,
		Strategy:      cfg.Enemy.Strategy,
		EnemyAccuracy: cfg.Enemy.Accuracy,
		Outcomes:      st.Outcomes(),
		Results:       st.Battles(),
		Logger:        logger,
	})
}
