package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jonathan/insight-engine/internal/config"
	"github.com/jonathan/insight-engine/internal/db"
	"github.com/jonathan/insight-engine/internal/drafting"
	"github.com/jonathan/insight-engine/internal/llm"
	"github.com/jonathan/insight-engine/internal/metrics"
	"github.com/jonathan/insight-engine/internal/pipeline"
	"github.com/jonathan/insight-engine/internal/skills"
)

// errNoAPIKey is returned when a command needs the LLM and no key is set.
var errNoAPIKey = errors.New("an LLM API key is required: set api_key, INSIGHT_API_KEY or GEMINI_API_KEY")

// engine holds the external collaborators built from config. Every field is
// nil when its backing service is not configured.
type engine struct {
	client    llm.Client
	db        *db.DB
	evaluator *skills.Evaluator
	generator *drafting.LLMGenerator
}

// openEngine connects to the LLM and, when database_url is set, to
// PostgreSQL. With requireLLM, a missing API key is an error; otherwise the
// LLM-backed collaborators are left nil.
func openEngine(ctx context.Context, cfg *config.Config, requireLLM bool, logger *zap.Logger) (*engine, error) {
	e := &engine{}

	switch {
	case cfg.APIKey != "":
		client, err := llm.NewClient(ctx, llm.DefaultConfig(), cfg.APIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create LLM client: %w", err)
		}
		e.client = client
		e.evaluator = skills.NewEvaluator(client)
		e.generator = drafting.NewLLMGenerator(client, logger)
	case requireLLM:
		return nil, errNoAPIKey
	default:
		logger.Warn("no LLM API key configured, runs and skill evaluation are disabled")
	}

	if cfg.DatabaseURL != "" {
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			e.Close()
			return nil, err
		}
		if err := database.Migrate(ctx); err != nil {
			database.Close()
			e.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		e.db = database
	}

	return e, nil
}

// Close releases the LLM client and the database pool.
func (e *engine) Close() {
	if e.client != nil {
		_ = e.client.Close()
	}
	if e.db != nil {
		e.db.Close()
	}
}

// newRunner builds an orchestrator over the engine's collaborators. eng must
// have a generator. limit caps the ranked output; zero means no cap.
func newRunner(eng *engine, store *skills.Store, m *metrics.Manager, limit int) (*pipeline.Orchestrator, error) {
	deps := pipeline.Deps{
		Skills:    store,
		Generator: eng.generator,
		Metrics:   m,
		Logger:    logger,
	}
	if eng.evaluator != nil {
		deps.Evaluator = eng.evaluator
	}
	if eng.db != nil {
		deps.Store = eng.db
	}
	return pipeline.New(deps, pipeline.Settings{
		ExplorationPct:       cfg.ExplorationPct,
		HybridLearning:       cfg.HybridLearningEnabled,
		MaxSkills:            cfg.MaxSkills,
		MaxCards:             cfg.MaxCards,
		PartnerSkillsEnabled: cfg.PartnerSkillsEnabled,
		Limit:                limit,
	})
}
