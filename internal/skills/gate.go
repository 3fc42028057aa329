package skills

import "github.com/jonathan/insight-engine/internal/types"

// Gate thresholds for discovered skills.
const (
	MinHelpfulLift = 0.1
	MinConfidence  = 0.6
)

// ShouldUseDiscoveredSkill reports whether a discovered skill may influence a
// run. The evaluator must say USE, the risk must not be high, and both the
// expected helpful lift and the confidence must clear their thresholds.
func ShouldUseDiscoveredSkill(c types.DiscoveredSkillCandidate) bool {
	if c.Decision != types.DecisionUse {
		return false
	}
	if c.Risk == types.RiskHigh {
		return false
	}
	return c.ExpectedHelpfulLift >= MinHelpfulLift && c.Confidence >= MinConfidence
}

// Evaluation pairs a proposal with the evaluator's verdict on it.
type Evaluation struct {
	Proposal  types.SkillProposal
	Candidate types.DiscoveredSkillCandidate
}

// AdmitDiscovered returns the proposals that pass the gate, tagged with the
// DISCOVERED origin and scoped to track. Order follows evals.
func AdmitDiscovered(evals []Evaluation, track types.PersonaTrack) []types.SelectedSkill {
	var admitted []types.SelectedSkill
	for _, e := range evals {
		if !ShouldUseDiscoveredSkill(e.Candidate) {
			continue
		}
		admitted = append(admitted, types.SelectedSkill{
			Skill: types.Skill{
				Ref:         e.Proposal.Ref,
				Name:        e.Proposal.Name,
				Description: e.Proposal.Description,
				Source:      types.SkillSourceCurated,
				Version:     1,
				Personas:    []types.PersonaTrack{track},
			},
			Origin: types.SkillOriginDiscovered,
		})
	}
	return admitted
}

// MaxDiscoveredSkills is how many admitted discovered skills one run may use.
const MaxDiscoveredSkills = 1

// MergeDiscovered adds admitted discovered skills to a run's selection
// without growing it past maxSkills. At most MaxDiscoveredSkills are used;
// when the selection is full, each one displaces the last catalog skill.
// Discovered skills whose ref is already selected are ignored.
func MergeDiscovered(selected, discovered []types.SelectedSkill, maxSkills int) []types.SelectedSkill {
	if maxSkills < 1 {
		maxSkills = 1
	}

	taken := make(map[string]bool, len(selected))
	for _, s := range selected {
		taken[s.Skill.Ref] = true
	}

	var extra []types.SelectedSkill
	for _, d := range discovered {
		if len(extra) == MaxDiscoveredSkills {
			break
		}
		if taken[d.Skill.Ref] {
			continue
		}
		taken[d.Skill.Ref] = true
		extra = append(extra, d)
	}

	keep := min(len(selected), maxSkills-min(len(extra), maxSkills))
	out := make([]types.SelectedSkill, 0, keep+len(extra))
	out = append(out, selected[:keep]...)
	out = append(out, extra...)
	if len(out) > maxSkills {
		out = out[:maxSkills]
	}
	return out
}
