// Package ranking scores, deduplicates and orders candidate insight cards.
package ranking

import (
	"math"

	"github.com/jonathan/insight-engine/internal/types"
)

// Weights for the base score. They sum to 1 so the base score stays in [0,1].
const (
	relevanceWeight     = 0.35
	actionabilityWeight = 0.30
	confidenceWeight    = 0.20
	noveltyWeight       = 0.15
)

// Weights for blending a historical prior into the base score.
const (
	priorBaseWeight    = 0.75
	priorHelpfulWeight = 0.15
	priorActionWeight  = 0.10
)

// Defaults for sub-scores a generator did not report.
const (
	DefaultRelevance     = 0.7
	DefaultActionability = 0.7
	DefaultConfidence    = 0.6
	DefaultNovelty       = 0.5
)

// NormalizeInsightMeta fills missing scores with defaults and clamps every
// numeric field into [0,1]. Missing or NaN lifts stay unset.
func NormalizeInsightMeta(p types.PartialInsightMeta) types.InsightMeta {
	return types.InsightMeta{
		PersonaTrack:        p.PersonaTrack,
		PersonaSubmode:      p.PersonaSubmode,
		SkillRef:            p.SkillRef,
		SkillOrigin:         p.SkillOrigin,
		ExpectedHelpfulLift: optionalUnit(p.ExpectedHelpfulLift),
		ExpectedActionLift:  optionalUnit(p.ExpectedActionLift),
		RelevanceScore:      unitOrDefault(p.RelevanceScore, DefaultRelevance),
		ActionabilityScore:  unitOrDefault(p.ActionabilityScore, DefaultActionability),
		ConfidenceScore:     unitOrDefault(p.ConfidenceScore, DefaultConfidence),
		NoveltyScore:        unitOrDefault(p.NoveltyScore, DefaultNovelty),
	}
}

// NewCard builds a rankable card from a generator's partial metadata.
func NewCard[T any](card T, title, kind string, meta types.PartialInsightMeta) types.RankableCard[T] {
	return types.RankableCard[T]{
		Card:        card,
		Title:       title,
		Kind:        kind,
		InsightMeta: NormalizeInsightMeta(meta),
	}
}

// clamp01 maps v into [0,1]; NaN becomes 0.
func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func unitOrDefault(v *float64, def float64) float64 {
	if v == nil || math.IsNaN(*v) {
		return def
	}
	return clamp01(*v)
}

func optionalUnit(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) {
		return nil
	}
	return types.Float64(clamp01(*v))
}

// baseScore is the weighted sum of the four sub-scores.
func baseScore(meta types.InsightMeta) float64 {
	score := relevanceWeight*clamp01(meta.RelevanceScore) +
		actionabilityWeight*clamp01(meta.ActionabilityScore) +
		confidenceWeight*clamp01(meta.ConfidenceScore) +
		noveltyWeight*clamp01(meta.NoveltyScore)
	return clamp01(score)
}

// normalizeRate treats values above 1 as percentages.
func normalizeRate(v float64) float64 {
	if v > 1 {
		v /= 100
	}
	return clamp01(v)
}

// hasData reports whether a prior carries evidence. A positive sample count
// counts even when the observed rates are zero.
func hasData(p types.HistoricalPrior) bool {
	return p.SampleCount > 0 || normalizeRate(p.HelpfulRatePct) > 0 || normalizeRate(p.ActionCompletionRatePct) > 0
}

// Prior sources reported by Explain.
const (
	PriorFromSkill   = "skill_ref"
	PriorFromSubmode = "submode"
)

// lookupPrior prefers the skill's own prior and falls back to the submode's
// only when the skill has no entry. A skill entry without data means no blend.
func lookupPrior(meta types.InsightMeta, tables types.PriorTables) (types.HistoricalPrior, string, bool) {
	if meta.SkillRef != "" {
		if p, ok := tables.BySkillRef[meta.SkillRef]; ok {
			return p, PriorFromSkill, hasData(p)
		}
	}
	if p, ok := tables.BySubmode[meta.PersonaSubmode]; ok && hasData(p) {
		return p, PriorFromSubmode, true
	}
	return types.HistoricalPrior{}, "", false
}

func blend(base float64, prior types.HistoricalPrior) float64 {
	return clamp01(priorBaseWeight*base +
		priorHelpfulWeight*normalizeRate(prior.HelpfulRatePct) +
		priorActionWeight*normalizeRate(prior.ActionCompletionRatePct))
}
