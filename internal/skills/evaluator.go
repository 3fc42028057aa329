package skills

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/jonathan/insight-engine/internal/llm"
	"github.com/jonathan/insight-engine/internal/prompts"
	"github.com/jonathan/insight-engine/internal/schemas"
	"github.com/jonathan/insight-engine/internal/types"
)

// Evaluator asks a model whether a proposed skill should be used for a persona.
type Evaluator struct {
	client llm.Client
	tier   llm.ModelTier
}

// NewEvaluator returns an Evaluator backed by client.
func NewEvaluator(client llm.Client) *Evaluator {
	return &Evaluator{client: client, tier: llm.TierLite}
}

// skillVerdict is the raw model answer before normalization.
type skillVerdict struct {
	Decision            string   `json:"decision"`
	Risk                string   `json:"risk"`
	ExpectedHelpfulLift float64  `json:"expected_helpful_lift"`
	ExpectedActionLift  *float64 `json:"expected_action_lift"`
	Confidence          float64  `json:"confidence"`
	FitReason           string   `json:"fit_reason"`
}

// Evaluate judges proposal for persona. The returned candidate still has to
// pass ShouldUseDiscoveredSkill before the skill may be used.
func (e *Evaluator) Evaluate(ctx context.Context, proposal types.SkillProposal, persona types.Persona) (types.DiscoveredSkillCandidate, error) {
	if err := types.ValidateStruct(proposal); err != nil {
		return types.DiscoveredSkillCandidate{}, fmt.Errorf("invalid skill proposal: %w", err)
	}

	prompt := buildEvaluationPrompt(proposal, persona)

	response, err := e.client.GenerateJSON(ctx, prompt, e.tier)
	if err != nil {
		return types.DiscoveredSkillCandidate{}, fmt.Errorf("LLM call failed: %w", err)
	}

	candidate, err := parseVerdict(response, proposal)
	if err != nil {
		return types.DiscoveredSkillCandidate{}, fmt.Errorf("failed to parse LLM response: %w", err)
	}
	return candidate, nil
}

func buildEvaluationPrompt(proposal types.SkillProposal, persona types.Persona) string {
	instructions := prompts.MustRender(prompts.EvaluateDiscoveredSkill, map[string]string{
		"Track":       string(persona.Track),
		"Submode":     string(persona.Submode),
		"Focus":       persona.RecommendedFocus,
		"Ref":         proposal.Ref,
		"Name":        proposal.Name,
		"Description": proposal.Description,
		"Source":      string(proposalSource(proposal)),
	})
	return llm.BuildStructuredPrompt(instructions, llm.SkillVerdictSchema(), persona.WhyThisToday)
}

// parseVerdict validates the model answer and maps it onto a candidate.
// Unknown enum values fall back to the conservative choice.
func parseVerdict(response string, proposal types.SkillProposal) (types.DiscoveredSkillCandidate, error) {
	cleaned := llm.CleanJSONBlock(response)
	if err := schemas.Validate(schemas.SkillVerdict, []byte(cleaned)); err != nil {
		return types.DiscoveredSkillCandidate{}, err
	}

	var v skillVerdict
	if err := json.Unmarshal([]byte(cleaned), &v); err != nil {
		return types.DiscoveredSkillCandidate{}, fmt.Errorf("JSON parse error: %w", err)
	}

	candidate := types.DiscoveredSkillCandidate{
		SkillRef:            proposal.Ref,
		Source:              proposalSource(proposal),
		FitReason:           strings.TrimSpace(v.FitReason),
		Risk:                parseRisk(v.Risk),
		ExpectedHelpfulLift: clampUnit(v.ExpectedHelpfulLift),
		Confidence:          clampUnit(v.Confidence),
		Decision:            parseDecision(v.Decision),
	}
	if v.ExpectedActionLift != nil {
		candidate.ExpectedActionLift = clampUnit(*v.ExpectedActionLift)
	}
	return candidate, nil
}

func proposalSource(p types.SkillProposal) types.CandidateSource {
	switch types.CandidateSource(strings.ToLower(strings.TrimSpace(string(p.Source)))) {
	case types.CandidateSourceCurated:
		return types.CandidateSourceCurated
	case types.CandidateSourcePartner:
		return types.CandidateSourcePartner
	default:
		return types.CandidateSourceExternal
	}
}

func parseRisk(s string) types.Risk {
	switch types.Risk(strings.ToLower(strings.TrimSpace(s))) {
	case types.RiskLow:
		return types.RiskLow
	case types.RiskMedium:
		return types.RiskMedium
	default:
		return types.RiskHigh
	}
}

func parseDecision(s string) types.Decision {
	if types.Decision(strings.ToUpper(strings.TrimSpace(s))) == types.DecisionUse {
		return types.DecisionUse
	}
	return types.DecisionSkip
}

func clampUnit(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
