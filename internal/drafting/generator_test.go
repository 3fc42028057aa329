package drafting

import (
	"context"
	"errors"
	"testing"

	"github.com/jonathan/insight-engine/internal/llm"
	"github.com/jonathan/insight-engine/internal/ranking"
	"github.com/jonathan/insight-engine/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeClient struct {
	response string
	err      error
	prompt   string
	tier     llm.ModelTier
}

func (f *fakeClient) GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	return f.GenerateJSON(ctx, prompt, tier)
}

func (f *fakeClient) GenerateJSON(_ context.Context, prompt string, tier llm.ModelTier) (string, error) {
	f.prompt = prompt
	f.tier = tier
	return f.response, f.err
}

func (f *fakeClient) GetModel(llm.ModelTier) string { return "fake" }

func (f *fakeClient) Close() error { return nil }

func testRequest() Request {
	return Request{
		Persona: types.Persona{
			Track:            types.TrackSoloFounder,
			Submode:          types.SubmodeShipHeavy,
			RecommendedFocus: "Protect a focus block",
			WhyThisToday:     "You have a lot in flight.",
		},
		Skills: []types.SelectedSkill{
			{Skill: types.Skill{Ref: "one-thing-today", Name: "One Thing Today", Description: "Single action"}, Origin: types.SkillOriginCurated},
			{Skill: types.Skill{Ref: "standup-digest", Name: "Standup Digest", Description: "Summarize"}, Origin: types.SkillOriginDiscovered},
		},
		MaxCards: 3,
		Context:  "6 open tasks, 1 integration",
	}
}

func TestLLMGenerator_Draft(t *testing.T) {
	client := &fakeClient{response: `Here you go:
{"cards": [
  {"title": " Ship the onboarding fix ", "body": "Cut scope and ship.", "kind": "Action", "skill_ref": "one-thing-today",
   "relevance_score": 0.9, "actionability_score": 1.7, "citations": ["task:42"]},
  {"title": "Reply to Acme", "body": "They asked twice.", "skill_ref": "standup-digest", "novelty_score": 0.8},
  {"title": "Made-up skill", "body": "x", "skill_ref": "not-offered"}
]}`}

	cards, err := NewLLMGenerator(client, zaptest.NewLogger(t)).Draft(context.Background(), testRequest())
	require.NoError(t, err)
	require.Len(t, cards, 3)

	first := cards[0]
	assert.Equal(t, "Ship the onboarding fix", first.Title)
	assert.Equal(t, "action", first.Kind)
	assert.Equal(t, []string{"task:42"}, first.Card.Citations)
	assert.Equal(t, "one-thing-today", first.InsightMeta.SkillRef)
	assert.Equal(t, types.SkillOriginCurated, first.InsightMeta.SkillOrigin)
	assert.Equal(t, 0.9, first.InsightMeta.RelevanceScore)
	assert.Equal(t, 1.0, first.InsightMeta.ActionabilityScore)
	assert.Equal(t, ranking.DefaultConfidence, first.InsightMeta.ConfidenceScore)
	assert.Equal(t, types.TrackSoloFounder, first.InsightMeta.PersonaTrack)
	assert.Equal(t, types.SubmodeShipHeavy, first.InsightMeta.PersonaSubmode)

	assert.Equal(t, types.SkillOriginDiscovered, cards[1].InsightMeta.SkillOrigin)
	assert.Empty(t, cards[2].InsightMeta.SkillRef)

	assert.Equal(t, llm.TierStandard, client.tier)
	assert.Contains(t, client.prompt, "- one-thing-today (One Thing Today): Single action")
	assert.Contains(t, client.prompt, "at most 3 cards")
	assert.Contains(t, client.prompt, "6 open tasks, 1 integration")
	assert.NotContains(t, client.prompt, "{{.")
}

func TestLLMGenerator_SkipsInvalidCards(t *testing.T) {
	client := &fakeClient{response: `{"cards": [
		{"title": "   ", "body": "blank title"},
		{"body": "no title"},
		{"title": "Good", "body": "ok", "relevance_score": "high"},
		{"title": "Kept", "body": "ok"}
	]}`}

	cards, err := NewLLMGenerator(client, nil).Draft(context.Background(), testRequest())
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, "Kept", cards[0].Title)
}

func TestLLMGenerator_BadEnvelope(t *testing.T) {
	client := &fakeClient{response: `[{"title": "x", "body": "y"}]`}

	_, err := NewLLMGenerator(client, nil).Draft(context.Background(), testRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse LLM response")
}

func TestLLMGenerator_ClientError(t *testing.T) {
	client := &fakeClient{err: errors.New("deadline exceeded")}

	_, err := NewLLMGenerator(client, nil).Draft(context.Background(), testRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LLM call failed")
}

func TestBuildDraftPrompt_Defaults(t *testing.T) {
	prompt := buildDraftPrompt(Request{Persona: types.Persona{Track: types.TrackUnknown}})

	assert.Contains(t, prompt, "at most 8 cards")
	assert.Contains(t, prompt, "Skills:\n(none)")
}
