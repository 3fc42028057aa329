// Package types provides type definitions for structured data used throughout the insight engine.
//
//nolint:revive // types is a standard Go package name pattern
package types

// InsightMeta is the scoring metadata attached to every candidate card after
// normalization. The four score fields are always present and within [0,1].
type InsightMeta struct {
	PersonaTrack        PersonaTrack   `json:"persona_track"`
	PersonaSubmode      PersonaSubmode `json:"persona_submode,omitempty"`
	SkillRef            string         `json:"skill_ref,omitempty"`
	SkillOrigin         SkillOrigin    `json:"skill_origin,omitempty"`
	ExpectedHelpfulLift *float64       `json:"expected_helpful_lift,omitempty"`
	ExpectedActionLift  *float64       `json:"expected_action_lift,omitempty"`
	RelevanceScore      float64        `json:"relevance_score"`
	ActionabilityScore  float64        `json:"actionability_score"`
	ConfidenceScore     float64        `json:"confidence_score"`
	NoveltyScore        float64        `json:"novelty_score"`
}

// PartialInsightMeta is InsightMeta as a generator emits it: any numeric
// field may be missing or out of range.
type PartialInsightMeta struct {
	PersonaTrack        PersonaTrack   `json:"persona_track"`
	PersonaSubmode      PersonaSubmode `json:"persona_submode,omitempty"`
	SkillRef            string         `json:"skill_ref,omitempty"`
	SkillOrigin         SkillOrigin    `json:"skill_origin,omitempty"`
	ExpectedHelpfulLift *float64       `json:"expected_helpful_lift,omitempty"`
	ExpectedActionLift  *float64       `json:"expected_action_lift,omitempty"`
	RelevanceScore      *float64       `json:"relevance_score,omitempty"`
	ActionabilityScore  *float64       `json:"actionability_score,omitempty"`
	ConfidenceScore     *float64       `json:"confidence_score,omitempty"`
	NoveltyScore        *float64       `json:"novelty_score,omitempty"`
}

// RankableCard wraps a caller-owned card payload with the fields the ranking
// engine reads. Card is opaque to the engine.
type RankableCard[T any] struct {
	Card        T           `json:"card"`
	Title       string      `json:"title" validate:"required,notblank"`
	Kind        string      `json:"kind"`
	InsightMeta InsightMeta `json:"insight_meta"`
}

// HistoricalPrior is the observed performance of a skill or submode.
// Rates may be given as percentages (0-100) or fractions (0-1).
// SampleCount is the number of feedback events behind the rates; zero means
// unknown.
type HistoricalPrior struct {
	HelpfulRatePct          float64 `json:"helpful_rate_pct"`
	ActionCompletionRatePct float64 `json:"action_completion_rate_pct"`
	SampleCount             int     `json:"sample_count,omitempty"`
}

// PriorTables holds historical priors keyed by skill ref and by submode.
type PriorTables struct {
	BySkillRef map[string]HistoricalPrior         `json:"by_skill_ref,omitempty"`
	BySubmode  map[PersonaSubmode]HistoricalPrior `json:"by_submode,omitempty"`
}

// Empty reports whether the tables carry no priors at all.
func (p PriorTables) Empty() bool {
	return len(p.BySkillRef) == 0 && len(p.BySubmode) == 0
}

// Float64 returns a pointer to v. Handy for optional score fields.
func Float64(v float64) *float64 {
	return &v
}
