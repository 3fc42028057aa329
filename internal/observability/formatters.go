// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/insight-engine/internal/pipeline"
	"github.com/jonathan/insight-engine/internal/ranking"
	"github.com/jonathan/insight-engine/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// PrintPersona outputs the classified persona and its focus line.
func (p *Printer) PrintPersona(persona types.Persona) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Track:    %s\n", persona.Track))
	sb.WriteString(fmt.Sprintf("Submode:  %s\n", persona.Submode))
	if persona.RecommendedFocus != "" {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("Focus:    %s\n", persona.RecommendedFocus))
	}
	if persona.WhyThisToday != "" {
		sb.WriteString(fmt.Sprintf("Why:      %s\n", persona.WhyThisToday))
	}

	p.printBox("PERSONA", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSkills outputs the skills selected for a run.
func (p *Printer) PrintSkills(selected []types.SelectedSkill) {
	if len(selected) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Selected %d skills:\n\n", len(selected)))

	for i, s := range selected {
		sb.WriteString(fmt.Sprintf("%d. %s [%s]\n", i+1, s.Skill.Ref, s.Origin))
		if s.Skill.Name != "" {
			sb.WriteString(fmt.Sprintf("   %s\n", s.Skill.Name))
		}
	}

	p.printBox("SELECTED SKILLS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintEvaluations outputs the gate outcome for each discovered skill proposal.
func (p *Printer) PrintEvaluations(evals []pipeline.Evaluation) {
	if len(evals) == 0 {
		return
	}

	var sb strings.Builder
	admitted := 0
	for _, e := range evals {
		if e.Admitted {
			admitted++
		}
	}
	sb.WriteString(fmt.Sprintf("Evaluated %d proposals, %d admitted:\n\n", len(evals), admitted))

	count := min(len(evals), maxItemsToShow)
	for i := 0; i < count; i++ {
		e := evals[i]
		mark := "✗"
		if e.Admitted {
			mark = "✓"
		}
		c := e.Candidate
		sb.WriteString(fmt.Sprintf("%s %s (%s, risk %s)\n", mark, e.Proposal.Ref, c.Decision, c.Risk))
		sb.WriteString(fmt.Sprintf("  lift %.2f/%.2f  conf %.2f\n",
			c.ExpectedHelpfulLift, c.ExpectedActionLift, c.Confidence))
	}

	if len(evals) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more proposals", len(evals)-maxItemsToShow))
	}

	p.printBox("DISCOVERED SKILLS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintRankedCards outputs the ranked cards with their score breakdowns.
// opts should match the options the cards were ranked with.
func PrintRankedCards[T any](p *Printer, cards []types.RankableCard[T], stats ranking.Stats, opts ...ranking.Option) {
	if len(cards) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Returned %d of %d cards (%d duplicates, %d explored)\n\n",
		stats.Returned, stats.Input, stats.Duplicates, stats.Explored))

	count := min(len(cards), maxItemsToShow)
	for i := 0; i < count; i++ {
		c := cards[i]
		b := ranking.Explain(c.InsightMeta, opts...)
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, c.Title))
		sb.WriteString(fmt.Sprintf("   Score: %.3f", b.Final))
		if b.Blended {
			sb.WriteString(fmt.Sprintf(" (base %.3f)", b.Base))
		}
		sb.WriteString("\n")
		if c.InsightMeta.SkillRef != "" {
			sb.WriteString(fmt.Sprintf("   Skill: %s\n", c.InsightMeta.SkillRef))
		}
		sb.WriteString(fmt.Sprintf("   %s\n", b.Notes))
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(cards) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more cards", len(cards)-maxItemsToShow))
	}

	p.printBox("RANKED CARDS", strings.TrimSuffix(sb.String(), "\n"))
}
