package ranking

import (
	"fmt"
	"strings"

	"github.com/jonathan/insight-engine/internal/types"
)

// ScoreBreakdown explains how a card's final score was computed.
type ScoreBreakdown struct {
	Base        float64                `json:"base"`
	Final       float64                `json:"final"`
	Blended     bool                   `json:"blended"`
	PriorSource string                 `json:"prior_source,omitempty"`
	Prior       *types.HistoricalPrior `json:"prior,omitempty"`
	Notes       string                 `json:"notes"`
}

// ScoreCard returns the final score RankInsightCards would use for meta.
func ScoreCard(meta types.InsightMeta, opts ...Option) float64 {
	return newOptions(opts).finalScore(meta)
}

// Explain returns the score breakdown for meta under opts.
func Explain(meta types.InsightMeta, opts ...Option) ScoreBreakdown {
	o := newOptions(opts)
	b := ScoreBreakdown{Base: baseScore(meta)}
	b.Final = b.Base

	if o.hybrid {
		if prior, source, ok := lookupPrior(meta, o.priors); ok {
			b.Blended = true
			b.PriorSource = source
			b.Prior = &prior
			b.Final = blend(b.Base, prior)
		}
	}

	b.Notes = generateNotes(meta, b)
	return b
}

// generateNotes creates a brief explanation of the score.
func generateNotes(meta types.InsightMeta, b ScoreBreakdown) string {
	var parts []string

	switch {
	case meta.RelevanceScore >= 0.8:
		parts = append(parts, "Highly relevant")
	case meta.RelevanceScore >= 0.5:
		parts = append(parts, "Relevant")
	default:
		parts = append(parts, "Weak relevance")
	}

	if meta.ActionabilityScore >= 0.7 {
		parts = append(parts, "clear next action")
	}
	if meta.NoveltyScore >= 0.7 {
		parts = append(parts, "novel")
	}

	if b.Blended {
		delta := b.Final - b.Base
		parts = append(parts, fmt.Sprintf("prior from %s moved score by %+.2f", b.PriorSource, delta))
	}

	return strings.Join(parts, ", ")
}
