// Package pipeline orchestrates one insight run: persona, skills, discovered
// skill gating, drafting, priors, ranking and persistence.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/insight-engine/internal/db"
	"github.com/jonathan/insight-engine/internal/drafting"
	"github.com/jonathan/insight-engine/internal/metrics"
	"github.com/jonathan/insight-engine/internal/persona"
	"github.com/jonathan/insight-engine/internal/pipeline/steps"
	"github.com/jonathan/insight-engine/internal/ranking"
	"github.com/jonathan/insight-engine/internal/skills"
	"github.com/jonathan/insight-engine/internal/types"
)

// DefaultEvalConcurrency bounds concurrent evaluator calls per run.
const DefaultEvalConcurrency = 4

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	Step    string `json:"step"`
	Index   int    `json:"index"`
	Total   int    `json:"total"`
	Message string `json:"message"`
	RunID   string `json:"run_id,omitempty"`
	Content any    `json:"content,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// Evaluator judges a discovered skill proposal for a persona.
type Evaluator interface {
	Evaluate(ctx context.Context, proposal types.SkillProposal, persona types.Persona) (types.DiscoveredSkillCandidate, error)
}

// PriorSource supplies historical priors for a workspace.
type PriorSource interface {
	LoadHistoricalPriors(ctx context.Context, workspaceID string) (types.PriorTables, error)
}

// RunStore persists runs. *db.DB implements it.
type RunStore interface {
	PriorSource
	CreateRun(ctx context.Context, input db.RunInput) (uuid.UUID, error)
	SetRunPersona(ctx context.Context, runID uuid.UUID, track, submode string) error
	SaveArtifact(ctx context.Context, runID uuid.UUID, step string, content any) error
	SaveRankedCards(ctx context.Context, records []db.CardRecord) error
	CompleteRun(ctx context.Context, runID uuid.UUID, status, errMsg string) error
}

// Deps are the collaborators of an Orchestrator. Skills and Generator are
// required. Without an Evaluator, discovered proposals are ignored. Without a
// Store, nothing is persisted and hybrid learning has no priors.
type Deps struct {
	Skills    *skills.Store
	Evaluator Evaluator
	Generator drafting.Generator
	Store     RunStore
	Metrics   *metrics.Manager
	Logger    *zap.Logger
}

// Settings tune a run.
type Settings struct {
	ExplorationPct       float64
	HybridLearning       bool
	MaxSkills            int
	MaxCards             int
	PartnerSkillsEnabled bool
	// Limit caps the ranked output. Zero returns every surviving card.
	Limit           int
	EvalConcurrency int
}

// RunInput is the per-run input.
type RunInput struct {
	WorkspaceID string
	UserID      string
	// Seed drives exploration. Empty means "<UTC date>:<workspace>", so the
	// pick is stable within a day.
	Seed        string
	Signals     types.PersonaSignals
	ProgramType string
	Proposals   []types.SkillProposal
	Context     string
	OnProgress  ProgressCallback
}

// Evaluation is the gate outcome for one discovered proposal.
type Evaluation struct {
	Proposal  types.SkillProposal            `json:"proposal"`
	Candidate types.DiscoveredSkillCandidate `json:"candidate"`
	Admitted  bool                           `json:"admitted"`
}

// Result is the output of a run.
type Result struct {
	RunID       uuid.UUID                           `json:"run_id"`
	Seed        string                              `json:"seed"`
	Persona     types.Persona                       `json:"persona"`
	Skills      []types.SelectedSkill               `json:"skills"`
	Evaluations []Evaluation                        `json:"evaluations,omitempty"`
	Priors      types.PriorTables                   `json:"priors"`
	Cards       []types.RankableCard[drafting.Card] `json:"cards"`
	Scores      []float64                           `json:"scores"`
	Stats       ranking.Stats                       `json:"stats"`
}

// Orchestrator runs the insight pipeline.
type Orchestrator struct {
	deps     Deps
	settings Settings
	logger   *zap.Logger
}

// New returns an Orchestrator.
func New(deps Deps, settings Settings) (*Orchestrator, error) {
	if deps.Skills == nil {
		return nil, errors.New("pipeline: skills store is required")
	}
	if deps.Generator == nil {
		return nil, errors.New("pipeline: generator is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if settings.MaxSkills == 0 {
		settings.MaxSkills = skills.DefaultMaxSkills
	}
	if settings.MaxCards == 0 {
		settings.MaxCards = drafting.DefaultMaxCards
	}
	if settings.EvalConcurrency <= 0 {
		settings.EvalConcurrency = DefaultEvalConcurrency
	}
	return &Orchestrator{deps: deps, settings: settings, logger: logger}, nil
}

// run carries state between stages.
type run struct {
	input  RunInput
	result Result
	done   map[string]bool
	logger *zap.Logger
}

// Run executes every step in dependency order. Collaborator failures in the
// draft stage fail the run; evaluator, prior and persistence failures are
// logged and the run continues without them.
func (o *Orchestrator) Run(ctx context.Context, input RunInput) (*Result, error) {
	start := time.Now()

	r := &run{
		input: input,
		done:  make(map[string]bool),
	}
	r.result.Seed = input.Seed
	if r.result.Seed == "" {
		r.result.Seed = start.UTC().Format(time.DateOnly) + ":" + input.WorkspaceID
	}
	r.logger = o.logger.With(zap.String("workspace_id", input.WorkspaceID))

	o.openRun(ctx, r)

	order := steps.Order()
	for i, step := range order {
		if err := ctx.Err(); err != nil {
			return nil, o.fail(ctx, r, start, err)
		}
		if err := steps.ValidateDependencies(r.done, step); err != nil {
			return nil, o.fail(ctx, r, start, err)
		}

		def := steps.StepRegistry[step]
		o.emit(r, ProgressEvent{Step: step, Index: i + 1, Total: len(order), Message: def.Description})

		content, err := o.runStep(ctx, step, r)
		if err != nil {
			return nil, o.fail(ctx, r, start, fmt.Errorf("step %s failed: %w", step, err))
		}
		r.done[step] = true
		o.saveArtifact(ctx, r, step, content)
	}

	o.persistCards(ctx, r)
	o.closeRun(ctx, r, db.RunStatusCompleted, "")
	o.deps.Metrics.ObserveRun(db.RunStatusCompleted, time.Since(start))

	r.logger.Info("run completed",
		zap.String("run_id", r.result.RunID.String()),
		zap.Int("cards", len(r.result.Cards)),
		zap.Duration("duration", time.Since(start)),
	)
	return &r.result, nil
}

// runStep executes one step and returns the artifact to store for it.
func (o *Orchestrator) runStep(ctx context.Context, step string, r *run) (any, error) {
	switch step {
	case db.StepPersona:
		return o.classify(ctx, r), nil
	case db.StepSkills:
		return o.selectSkills(r), nil
	case db.StepGate:
		return o.gateDiscovered(ctx, r)
	case db.StepPriorTable:
		return o.loadPriors(ctx, r), nil
	case db.StepDraft:
		return o.draft(ctx, r)
	case db.StepRankStats:
		return o.rank(r)
	}
	return nil, fmt.Errorf("no handler for step %s", step)
}

func (o *Orchestrator) classify(ctx context.Context, r *run) types.Persona {
	p := persona.Classify(r.input.Signals)
	r.result.Persona = p
	r.logger = r.logger.With(zap.String("track", string(p.Track)), zap.String("submode", string(p.Submode)))
	r.logger.Debug("persona classified")
	o.deps.Metrics.RecordPersona(string(p.Track), string(p.Submode))

	if o.deps.Store != nil && r.result.RunID != uuid.Nil {
		if err := o.deps.Store.SetRunPersona(ctx, r.result.RunID, string(p.Track), string(p.Submode)); err != nil {
			r.logger.Warn("failed to record run persona", zap.Error(err))
		}
	}
	return p
}

func (o *Orchestrator) selectSkills(r *run) []types.SelectedSkill {
	selected := skills.SelectForRun(o.deps.Skills.Catalog(), r.result.Persona.Track, skills.SelectOptions{
		ProgramType:          r.input.ProgramType,
		PartnerSkillsEnabled: o.settings.PartnerSkillsEnabled,
		MaxSkills:            o.settings.MaxSkills,
	})
	r.result.Skills = selected
	return selected
}

// gateDiscovered evaluates proposals concurrently and merges the admitted
// ones into the selection. A failed evaluation drops only that proposal.
func (o *Orchestrator) gateDiscovered(ctx context.Context, r *run) ([]Evaluation, error) {
	proposals := o.eligibleProposals(r)
	if len(proposals) == 0 || o.deps.Evaluator == nil {
		return nil, nil
	}

	// Each goroutine writes only its own slot.
	evals := make([]*skills.Evaluation, len(proposals))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(o.settings.EvalConcurrency)
	for i, proposal := range proposals {
		g.Go(func() error {
			candidate, err := o.deps.Evaluator.Evaluate(gCtx, proposal, r.result.Persona)
			if err != nil {
				if gCtx.Err() != nil {
					return gCtx.Err()
				}
				r.logger.Warn("skill evaluation failed",
					zap.String("skill_ref", proposal.Ref),
					zap.Error(err),
				)
				return nil
			}
			evals[i] = &skills.Evaluation{Proposal: proposal, Candidate: candidate}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("skill evaluation interrupted: %w", err)
	}

	var judged []skills.Evaluation
	var out []Evaluation
	for _, e := range evals {
		if e == nil {
			continue
		}
		admitted := skills.ShouldUseDiscoveredSkill(e.Candidate)
		o.deps.Metrics.RecordGateDecision(admitted)
		judged = append(judged, *e)
		out = append(out, Evaluation{Proposal: e.Proposal, Candidate: e.Candidate, Admitted: admitted})
	}

	admitted := skills.AdmitDiscovered(judged, r.result.Persona.Track)
	r.result.Skills = skills.MergeDiscovered(r.result.Skills, admitted, o.settings.MaxSkills)
	r.result.Evaluations = out
	return out, nil
}

// eligibleProposals drops partner-sourced proposals when the workspace may
// not use partner skills.
func (o *Orchestrator) eligibleProposals(r *run) []types.SkillProposal {
	allowPartner := skills.AllowPartnerSkills(r.input.ProgramType, o.settings.PartnerSkillsEnabled)

	out := make([]types.SkillProposal, 0, len(r.input.Proposals))
	for _, p := range r.input.Proposals {
		if p.Source == types.CandidateSourcePartner && !allowPartner {
			r.logger.Debug("skipping partner proposal", zap.String("skill_ref", p.Ref))
			continue
		}
		out = append(out, p)
	}
	return out
}

func (o *Orchestrator) loadPriors(ctx context.Context, r *run) types.PriorTables {
	if !o.settings.HybridLearning || o.deps.Store == nil {
		return types.PriorTables{}
	}
	priors, err := o.deps.Store.LoadHistoricalPriors(ctx, r.input.WorkspaceID)
	if err != nil {
		r.logger.Warn("failed to load historical priors, ranking without them", zap.Error(err))
		return types.PriorTables{}
	}
	r.result.Priors = priors
	return priors
}

func (o *Orchestrator) draft(ctx context.Context, r *run) ([]types.RankableCard[drafting.Card], error) {
	cards, err := o.deps.Generator.Draft(ctx, drafting.Request{
		Persona:  r.result.Persona,
		Skills:   r.result.Skills,
		MaxCards: o.settings.MaxCards,
		Context:  r.input.Context,
	})
	if err != nil {
		return nil, err
	}
	r.result.Cards = cards
	return cards, nil
}

func (o *Orchestrator) rankOptions(stats *ranking.Stats, priors types.PriorTables) []ranking.Option {
	opts := []ranking.Option{ranking.WithExplorationPct(o.settings.ExplorationPct)}
	if o.settings.HybridLearning && !priors.Empty() {
		opts = append(opts, ranking.WithHybridLearning(priors))
	}
	if o.settings.Limit > 0 {
		opts = append(opts, ranking.WithLimit(o.settings.Limit))
	}
	if stats != nil {
		opts = append(opts, ranking.WithStats(stats))
	}
	return opts
}

func (o *Orchestrator) rank(r *run) (ranking.Stats, error) {
	var stats ranking.Stats
	ranked, err := ranking.RankInsightCards(r.result.Cards, r.result.Seed, o.rankOptions(&stats, r.result.Priors)...)
	if err != nil {
		return stats, err
	}

	scoreOpts := o.rankOptions(nil, r.result.Priors)
	scores := make([]float64, len(ranked))
	for i, c := range ranked {
		scores[i] = ranking.ScoreCard(c.InsightMeta, scoreOpts...)
	}

	r.result.Cards = ranked
	r.result.Scores = scores
	r.result.Stats = stats
	o.deps.Metrics.RecordRanking(stats.Returned, stats.Duplicates, stats.Explored)
	return stats, nil
}

func (o *Orchestrator) emit(r *run, event ProgressEvent) {
	if r.input.OnProgress == nil {
		return
	}
	if r.result.RunID != uuid.Nil {
		event.RunID = r.result.RunID.String()
	}
	r.input.OnProgress(event)
}

// openRun creates the run record. A store failure downgrades the run to
// unpersisted.
func (o *Orchestrator) openRun(ctx context.Context, r *run) {
	if o.deps.Store == nil {
		return
	}
	id, err := o.deps.Store.CreateRun(ctx, db.RunInput{
		WorkspaceID: r.input.WorkspaceID,
		UserID:      r.input.UserID,
		Seed:        r.result.Seed,
	})
	if err != nil {
		r.logger.Warn("failed to create run, continuing without persistence", zap.Error(err))
		return
	}
	r.result.RunID = id
	r.logger = r.logger.With(zap.String("run_id", id.String()))
}

func (o *Orchestrator) saveArtifact(ctx context.Context, r *run, step string, content any) {
	if o.deps.Store == nil || r.result.RunID == uuid.Nil {
		return
	}
	if err := o.deps.Store.SaveArtifact(ctx, r.result.RunID, step, content); err != nil {
		r.logger.Warn("failed to save artifact", zap.String("step", step), zap.Error(err))
	}
}

func (o *Orchestrator) persistCards(ctx context.Context, r *run) {
	if o.deps.Store == nil || r.result.RunID == uuid.Nil {
		return
	}
	records, err := db.NewCardRecords(r.result.RunID, r.result.Cards, r.result.Scores)
	if err != nil {
		r.logger.Warn("failed to build card records", zap.Error(err))
		return
	}
	if err := o.deps.Store.SaveRankedCards(ctx, records); err != nil {
		r.logger.Warn("failed to save ranked cards", zap.Error(err))
	}
}

func (o *Orchestrator) closeRun(ctx context.Context, r *run, status, errMsg string) {
	if o.deps.Store == nil || r.result.RunID == uuid.Nil {
		return
	}
	// The run context may already be cancelled; record the outcome anyway.
	if err := o.deps.Store.CompleteRun(context.WithoutCancel(ctx), r.result.RunID, status, errMsg); err != nil {
		r.logger.Warn("failed to complete run", zap.Error(err))
	}
}

func (o *Orchestrator) fail(ctx context.Context, r *run, start time.Time, err error) error {
	o.closeRun(ctx, r, db.RunStatusFailed, err.Error())
	o.deps.Metrics.ObserveRun(db.RunStatusFailed, time.Since(start))
	r.logger.Error("run failed", zap.Error(err))
	return err
}
