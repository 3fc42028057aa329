package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/jonathan/insight-engine/internal/db"
	"github.com/jonathan/insight-engine/internal/drafting"
	"github.com/jonathan/insight-engine/internal/metrics"
	"github.com/jonathan/insight-engine/internal/pipeline/steps"
	"github.com/jonathan/insight-engine/internal/ranking"
	"github.com/jonathan/insight-engine/internal/skills"
	"github.com/jonathan/insight-engine/internal/types"
)

var soloSignals = types.PersonaSignals{MemberCount: 1, ActiveMemberCount: 1}

type fakeGenerator struct {
	cards []types.RankableCard[drafting.Card]
	err   error
	req   drafting.Request
	calls int
}

func (g *fakeGenerator) Draft(_ context.Context, req drafting.Request) ([]types.RankableCard[drafting.Card], error) {
	g.calls++
	g.req = req
	if g.err != nil {
		return nil, g.err
	}
	return g.cards, nil
}

type fakeEvaluator struct {
	mu       sync.Mutex
	verdicts map[string]types.DiscoveredSkillCandidate
	errs     map[string]error
	seen     []string
}

func (e *fakeEvaluator) Evaluate(_ context.Context, p types.SkillProposal, _ types.Persona) (types.DiscoveredSkillCandidate, error) {
	e.mu.Lock()
	e.seen = append(e.seen, p.Ref)
	e.mu.Unlock()
	if err := e.errs[p.Ref]; err != nil {
		return types.DiscoveredSkillCandidate{}, err
	}
	return e.verdicts[p.Ref], nil
}

type fakeStore struct {
	createErr  error
	priors     types.PriorTables
	priorsErr  error
	runID      uuid.UUID
	artifacts  map[string]any
	records    []db.CardRecord
	status     string
	errMsg     string
	persona    [2]string
	priorCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{runID: uuid.New(), artifacts: make(map[string]any)}
}

func (s *fakeStore) LoadHistoricalPriors(context.Context, string) (types.PriorTables, error) {
	s.priorCalls++
	return s.priors, s.priorsErr
}

func (s *fakeStore) CreateRun(context.Context, db.RunInput) (uuid.UUID, error) {
	if s.createErr != nil {
		return uuid.Nil, s.createErr
	}
	return s.runID, nil
}

func (s *fakeStore) SetRunPersona(_ context.Context, _ uuid.UUID, track, submode string) error {
	s.persona = [2]string{track, submode}
	return nil
}

func (s *fakeStore) SaveArtifact(_ context.Context, _ uuid.UUID, step string, content any) error {
	s.artifacts[step] = content
	return nil
}

func (s *fakeStore) SaveRankedCards(_ context.Context, records []db.CardRecord) error {
	s.records = records
	return nil
}

func (s *fakeStore) CompleteRun(_ context.Context, _ uuid.UUID, status, errMsg string) error {
	s.status = status
	s.errMsg = errMsg
	return nil
}

func newTestStore(t *testing.T) *skills.Store {
	t.Helper()
	t.Setenv("PIPELINE_TEST_SKILL_FEED", "")
	return skills.NewStore(skills.EnvFeed("PIPELINE_TEST_SKILL_FEED"), zap.NewNop())
}

func draftCard(title, skillRef string, score float64) types.RankableCard[drafting.Card] {
	return ranking.NewCard(drafting.Card{Title: title, Body: "body"}, title, "action", types.PartialInsightMeta{
		PersonaTrack:       types.TrackSoloFounder,
		PersonaSubmode:     types.SubmodeShipHeavy,
		SkillRef:           skillRef,
		SkillOrigin:        types.SkillOriginCurated,
		RelevanceScore:     types.Float64(score),
		ActionabilityScore: types.Float64(score),
		ConfidenceScore:    types.Float64(score),
		NoveltyScore:       types.Float64(score),
	})
}

func cardTitles(cards []types.RankableCard[drafting.Card]) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.Title
	}
	return out
}

func skillRefs(selected []types.SelectedSkill) []string {
	out := make([]string, len(selected))
	for i, s := range selected {
		out[i] = s.Skill.Ref
	}
	return out
}

func admit(ref string) types.DiscoveredSkillCandidate {
	return types.DiscoveredSkillCandidate{
		SkillRef:            ref,
		Source:              types.CandidateSourceExternal,
		Risk:                types.RiskLow,
		ExpectedHelpfulLift: 0.2,
		Confidence:          0.8,
		Decision:            types.DecisionUse,
	}
}

func TestNew_RequiresDeps(t *testing.T) {
	_, err := New(Deps{Generator: &fakeGenerator{}}, Settings{})
	assert.Error(t, err)

	_, err = New(Deps{Skills: newTestStore(t)}, Settings{})
	assert.Error(t, err)

	o, err := New(Deps{Skills: newTestStore(t), Generator: &fakeGenerator{}}, Settings{})
	require.NoError(t, err)
	assert.Equal(t, skills.DefaultMaxSkills, o.settings.MaxSkills)
	assert.Equal(t, drafting.DefaultMaxCards, o.settings.MaxCards)
	assert.Equal(t, DefaultEvalConcurrency, o.settings.EvalConcurrency)
}

func TestRun_WithoutStore(t *testing.T) {
	gen := &fakeGenerator{cards: []types.RankableCard[drafting.Card]{
		draftCard("Low", "", 0.3),
		draftCard("High", "", 0.9),
		draftCard("high", "", 0.5),
		draftCard("Mid", "", 0.6),
	}}
	o, err := New(Deps{
		Skills:    newTestStore(t),
		Generator: gen,
		Metrics:   metrics.NewManager(),
		Logger:    zaptest.NewLogger(t),
	}, Settings{ExplorationPct: 0})
	require.NoError(t, err)

	res, err := o.Run(context.Background(), RunInput{WorkspaceID: "ws-1", Seed: "s", Signals: soloSignals})
	require.NoError(t, err)

	assert.Equal(t, uuid.Nil, res.RunID)
	assert.Equal(t, types.TrackSoloFounder, res.Persona.Track)
	assert.Equal(t, []string{"one-thing-today", "ship-the-smallest-slice", "customer-signal-followup"}, skillRefs(res.Skills))
	assert.Equal(t, res.Skills, gen.req.Skills)
	assert.Equal(t, drafting.DefaultMaxCards, gen.req.MaxCards)

	assert.Equal(t, []string{"High", "Mid", "Low"}, cardTitles(res.Cards))
	require.Len(t, res.Scores, 3)
	assert.GreaterOrEqual(t, res.Scores[0], res.Scores[1])
	assert.Equal(t, ranking.Stats{Input: 4, Duplicates: 1, Returned: 3}, res.Stats)
}

func TestRun_DefaultSeed(t *testing.T) {
	o, err := New(Deps{Skills: newTestStore(t), Generator: &fakeGenerator{}}, Settings{})
	require.NoError(t, err)

	res, err := o.Run(context.Background(), RunInput{WorkspaceID: "ws-42", Signals: soloSignals})
	require.NoError(t, err)
	assert.Contains(t, res.Seed, ":ws-42")
}

func TestRun_DiscoveredSkills(t *testing.T) {
	rejected := admit("too-risky")
	rejected.Risk = types.RiskHigh

	eval := &fakeEvaluator{
		verdicts: map[string]types.DiscoveredSkillCandidate{
			"standup-digest": admit("standup-digest"),
			"too-risky":      rejected,
			"partner-idea":   admit("partner-idea"),
		},
		errs: map[string]error{"flaky": errors.New("model timeout")},
	}
	gen := &fakeGenerator{}
	o, err := New(Deps{Skills: newTestStore(t), Evaluator: eval, Generator: gen}, Settings{})
	require.NoError(t, err)

	res, err := o.Run(context.Background(), RunInput{
		WorkspaceID: "ws-1",
		Signals:     soloSignals,
		Proposals: []types.SkillProposal{
			{Ref: "standup-digest", Name: "Standup Digest", Description: "d"},
			{Ref: "too-risky", Name: "Risky", Description: "d"},
			{Ref: "flaky", Name: "Flaky", Description: "d"},
			{Ref: "partner-idea", Name: "Partner", Description: "d", Source: types.CandidateSourcePartner},
		},
	})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"standup-digest", "too-risky", "flaky"}, eval.seen)
	require.Len(t, res.Evaluations, 2)
	assert.True(t, res.Evaluations[0].Admitted)
	assert.False(t, res.Evaluations[1].Admitted)

	assert.Equal(t, []string{"one-thing-today", "ship-the-smallest-slice", "standup-digest"}, skillRefs(res.Skills))
	assert.Equal(t, types.SkillOriginDiscovered, res.Skills[2].Origin)
	assert.Equal(t, res.Skills, gen.req.Skills)
}

func TestRun_PartnerProposalAllowedForCohort(t *testing.T) {
	eval := &fakeEvaluator{verdicts: map[string]types.DiscoveredSkillCandidate{"partner-idea": admit("partner-idea")}}
	o, err := New(Deps{Skills: newTestStore(t), Evaluator: eval, Generator: &fakeGenerator{}}, Settings{PartnerSkillsEnabled: true})
	require.NoError(t, err)

	res, err := o.Run(context.Background(), RunInput{
		WorkspaceID: "ws-1",
		Signals:     soloSignals,
		ProgramType: skills.DesignPartnerProgram,
		Proposals:   []types.SkillProposal{{Ref: "partner-idea", Name: "Partner", Description: "d", Source: types.CandidateSourcePartner}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"partner-idea"}, eval.seen)
	assert.Contains(t, skillRefs(res.Skills), "partner-idea")
}

func TestRun_PersistsEverything(t *testing.T) {
	store := newFakeStore()
	gen := &fakeGenerator{cards: []types.RankableCard[drafting.Card]{
		draftCard("A", "", 0.6),
		draftCard("B", "ship-the-smallest-slice", 0.55),
	}}
	o, err := New(Deps{Skills: newTestStore(t), Generator: gen, Store: store}, Settings{})
	require.NoError(t, err)

	res, err := o.Run(context.Background(), RunInput{WorkspaceID: "ws-1", Seed: "s", Signals: soloSignals})
	require.NoError(t, err)

	assert.Equal(t, store.runID, res.RunID)
	assert.Equal(t, db.RunStatusCompleted, store.status)
	assert.Empty(t, store.errMsg)
	assert.Equal(t, [2]string{string(types.TrackSoloFounder), string(res.Persona.Submode)}, store.persona)
	for _, step := range steps.Order() {
		assert.Contains(t, store.artifacts, step)
	}
	require.Len(t, store.records, 2)
	assert.Equal(t, "A", store.records[0].Title)
	assert.Equal(t, 0, store.records[0].Position)
	assert.Equal(t, res.RunID, store.records[1].RunID)
	assert.Zero(t, store.priorCalls, "priors are only loaded with hybrid learning")
}

func TestRun_HybridLearningUsesPriors(t *testing.T) {
	store := newFakeStore()
	store.priors = types.PriorTables{BySkillRef: map[string]types.HistoricalPrior{
		"ship-the-smallest-slice": {HelpfulRatePct: 100, ActionCompletionRatePct: 100, SampleCount: 20},
	}}
	gen := &fakeGenerator{cards: []types.RankableCard[drafting.Card]{
		draftCard("A", "", 0.6),
		draftCard("B", "ship-the-smallest-slice", 0.55),
	}}
	o, err := New(Deps{Skills: newTestStore(t), Generator: gen, Store: store}, Settings{HybridLearning: true})
	require.NoError(t, err)

	res, err := o.Run(context.Background(), RunInput{WorkspaceID: "ws-1", Seed: "s", Signals: soloSignals})
	require.NoError(t, err)

	assert.Equal(t, 1, store.priorCalls)
	assert.Equal(t, []string{"B", "A"}, cardTitles(res.Cards))
	assert.InDelta(t, 0.6625, res.Scores[0], 1e-9)
	assert.InDelta(t, 0.6, res.Scores[1], 1e-9)
}

func TestRun_PriorFailureDegrades(t *testing.T) {
	store := newFakeStore()
	store.priorsErr = errors.New("db down")
	gen := &fakeGenerator{cards: []types.RankableCard[drafting.Card]{draftCard("A", "", 0.6)}}
	o, err := New(Deps{Skills: newTestStore(t), Generator: gen, Store: store}, Settings{HybridLearning: true})
	require.NoError(t, err)

	res, err := o.Run(context.Background(), RunInput{WorkspaceID: "ws-1", Signals: soloSignals})
	require.NoError(t, err)
	assert.True(t, res.Priors.Empty())
	assert.Len(t, res.Cards, 1)
}

func TestRun_CreateRunFailureContinues(t *testing.T) {
	store := newFakeStore()
	store.createErr = errors.New("db down")
	gen := &fakeGenerator{cards: []types.RankableCard[drafting.Card]{draftCard("A", "", 0.6)}}
	o, err := New(Deps{Skills: newTestStore(t), Generator: gen, Store: store}, Settings{})
	require.NoError(t, err)

	res, err := o.Run(context.Background(), RunInput{WorkspaceID: "ws-1", Signals: soloSignals})
	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, res.RunID)
	assert.Empty(t, store.artifacts)
	assert.Empty(t, store.records)
	assert.Empty(t, store.status)
}

func TestRun_DraftFailure(t *testing.T) {
	store := newFakeStore()
	gen := &fakeGenerator{err: errors.New("quota exceeded")}
	o, err := New(Deps{Skills: newTestStore(t), Generator: gen, Store: store, Metrics: metrics.NewManager()}, Settings{})
	require.NoError(t, err)

	res, err := o.Run(context.Background(), RunInput{WorkspaceID: "ws-1", Signals: soloSignals})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Contains(t, err.Error(), db.StepDraft)
	assert.Equal(t, db.RunStatusFailed, store.status)
	assert.Contains(t, store.errMsg, "quota exceeded")
	assert.NotContains(t, store.artifacts, db.StepRankStats)
}

func TestRun_InvalidCardFails(t *testing.T) {
	gen := &fakeGenerator{cards: []types.RankableCard[drafting.Card]{{Title: "  "}}}
	o, err := New(Deps{Skills: newTestStore(t), Generator: gen}, Settings{})
	require.NoError(t, err)

	_, err = o.Run(context.Background(), RunInput{WorkspaceID: "ws-1", Signals: soloSignals})
	assert.ErrorIs(t, err, ranking.ErrInvalidCard)
}

func TestRun_CancelledContext(t *testing.T) {
	gen := &fakeGenerator{}
	o, err := New(Deps{Skills: newTestStore(t), Generator: gen}, Settings{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = o.Run(ctx, RunInput{WorkspaceID: "ws-1", Signals: soloSignals})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, gen.calls)
}

func TestRun_Progress(t *testing.T) {
	store := newFakeStore()
	o, err := New(Deps{Skills: newTestStore(t), Generator: &fakeGenerator{}, Store: store}, Settings{})
	require.NoError(t, err)

	var events []ProgressEvent
	_, err = o.Run(context.Background(), RunInput{
		WorkspaceID: "ws-1",
		Signals:     soloSignals,
		OnProgress:  func(e ProgressEvent) { events = append(events, e) },
	})
	require.NoError(t, err)

	order := steps.Order()
	require.Len(t, events, len(order))
	for i, e := range events {
		assert.Equal(t, order[i], e.Step)
		assert.Equal(t, i+1, e.Index)
		assert.Equal(t, len(order), e.Total)
		assert.Equal(t, store.runID.String(), e.RunID)
		assert.NotEmpty(t, e.Message)
	}
}
