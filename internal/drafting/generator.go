// Package drafting asks the model for candidate insight cards and turns its
// answer into rankable cards.
package drafting

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jonathan/insight-engine/internal/llm"
	"github.com/jonathan/insight-engine/internal/prompts"
	"github.com/jonathan/insight-engine/internal/ranking"
	"github.com/jonathan/insight-engine/internal/schemas"
	"github.com/jonathan/insight-engine/internal/types"
	"go.uber.org/zap"
)

// DefaultMaxCards is how many cards a draft asks for.
const DefaultMaxCards = 8

// Card is the user-facing content of an insight card.
type Card struct {
	Title     string   `json:"title"`
	Body      string   `json:"body"`
	Kind      string   `json:"kind,omitempty"`
	Citations []string `json:"citations,omitempty"`
}

// Request is the input to one drafting call.
type Request struct {
	Persona  types.Persona
	Skills   []types.SelectedSkill
	MaxCards int
	// Context is free-form workspace context appended to the prompt.
	Context string
}

// Generator produces candidate cards for a persona.
type Generator interface {
	Draft(ctx context.Context, req Request) ([]types.RankableCard[Card], error)
}

// LLMGenerator drafts cards with a model.
type LLMGenerator struct {
	client llm.Client
	tier   llm.ModelTier
	logger *zap.Logger
}

// NewLLMGenerator returns a generator backed by client.
func NewLLMGenerator(client llm.Client, logger *zap.Logger) *LLMGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMGenerator{client: client, tier: llm.TierStandard, logger: logger}
}

// draftCard is one card as the model returns it.
type draftCard struct {
	Title               string   `json:"title"`
	Body                string   `json:"body"`
	Kind                string   `json:"kind"`
	Citations           []string `json:"citations"`
	SkillRef            string   `json:"skill_ref"`
	RelevanceScore      *float64 `json:"relevance_score"`
	ActionabilityScore  *float64 `json:"actionability_score"`
	ConfidenceScore     *float64 `json:"confidence_score"`
	NoveltyScore        *float64 `json:"novelty_score"`
	ExpectedHelpfulLift *float64 `json:"expected_helpful_lift"`
	ExpectedActionLift  *float64 `json:"expected_action_lift"`
}

// Draft implements Generator.
func (g *LLMGenerator) Draft(ctx context.Context, req Request) ([]types.RankableCard[Card], error) {
	prompt := buildDraftPrompt(req)

	response, err := g.client.GenerateJSON(ctx, prompt, g.tier)
	if err != nil {
		return nil, fmt.Errorf("LLM call failed: %w", err)
	}

	cards, skipped, err := parseDraft(response, req)
	if err != nil {
		return nil, fmt.Errorf("failed to parse LLM response: %w", err)
	}
	for _, reason := range skipped {
		g.logger.Debug("dropping drafted card", zap.String("reason", reason))
	}
	return cards, nil
}

func buildDraftPrompt(req Request) string {
	maxCards := req.MaxCards
	if maxCards <= 0 {
		maxCards = DefaultMaxCards
	}

	var skills strings.Builder
	for _, s := range req.Skills {
		fmt.Fprintf(&skills, "- %s (%s): %s\n", s.Skill.Ref, s.Skill.Name, s.Skill.Description)
	}
	if skills.Len() == 0 {
		skills.WriteString("(none)\n")
	}

	instructions := prompts.MustRender(prompts.DraftInsightCards, map[string]string{
		"Track":    string(req.Persona.Track),
		"Submode":  string(req.Persona.Submode),
		"Focus":    req.Persona.RecommendedFocus,
		"WhyToday": req.Persona.WhyThisToday,
		"Skills":   strings.TrimRight(skills.String(), "\n"),
		"MaxCards": strconv.Itoa(maxCards),
	})
	return llm.BuildStructuredPrompt(instructions, llm.InsightCardsSchema(), req.Context)
}

// parseDraft validates the response envelope, then each card on its own.
// Invalid cards are skipped and reported.
func parseDraft(response string, req Request) ([]types.RankableCard[Card], []string, error) {
	cleaned := llm.CleanJSONBlock(response)
	if err := schemas.Validate(schemas.DraftResponse, []byte(cleaned)); err != nil {
		return nil, nil, err
	}

	var envelope struct {
		Cards []json.RawMessage `json:"cards"`
	}
	if err := json.Unmarshal([]byte(cleaned), &envelope); err != nil {
		return nil, nil, fmt.Errorf("JSON parse error: %w", err)
	}

	origins := make(map[string]types.SkillOrigin, len(req.Skills))
	for _, s := range req.Skills {
		origins[s.Skill.Ref] = s.Origin
	}

	var cards []types.RankableCard[Card]
	var skipped []string
	for i, raw := range envelope.Cards {
		if err := schemas.Validate(schemas.DraftCard, raw); err != nil {
			skipped = append(skipped, fmt.Sprintf("card %d: %v", i, err))
			continue
		}
		var d draftCard
		if err := json.Unmarshal(raw, &d); err != nil {
			skipped = append(skipped, fmt.Sprintf("card %d: %v", i, err))
			continue
		}
		cards = append(cards, d.toRankable(req.Persona, origins))
	}
	return cards, skipped, nil
}

func (d draftCard) toRankable(persona types.Persona, origins map[string]types.SkillOrigin) types.RankableCard[Card] {
	title := strings.TrimSpace(d.Title)
	kind := strings.ToLower(strings.TrimSpace(d.Kind))

	meta := types.PartialInsightMeta{
		PersonaTrack:        persona.Track,
		PersonaSubmode:      persona.Submode,
		ExpectedHelpfulLift: d.ExpectedHelpfulLift,
		ExpectedActionLift:  d.ExpectedActionLift,
		RelevanceScore:      d.RelevanceScore,
		ActionabilityScore:  d.ActionabilityScore,
		ConfidenceScore:     d.ConfidenceScore,
		NoveltyScore:        d.NoveltyScore,
	}
	// Only refs that were offered to the model are kept.
	if origin, ok := origins[strings.TrimSpace(d.SkillRef)]; ok {
		meta.SkillRef = strings.TrimSpace(d.SkillRef)
		meta.SkillOrigin = origin
	}

	card := Card{
		Title:     title,
		Body:      strings.TrimSpace(d.Body),
		Kind:      kind,
		Citations: d.Citations,
	}
	return ranking.NewCard(card, title, kind, meta)
}
