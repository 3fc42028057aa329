package skills

import (
	"strings"

	"github.com/jonathan/insight-engine/internal/types"
)

// DefaultMaxSkills bounds how many framing strategies one drafting run sees.
const DefaultMaxSkills = 3

// DesignPartnerProgram is the program type of the partner cohort.
const DesignPartnerProgram = "design_partner"

// AllowPartnerSkills reports whether partner skills may be used. The flag
// alone is not enough: the workspace must also be in the design-partner cohort.
func AllowPartnerSkills(programType string, flagEnabled bool) bool {
	if !flagEnabled {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(programType), DesignPartnerProgram)
}

// ApplySkillPolicy drops partner skills unless includePartner is set, then
// keeps at most maxSkills entries in input order. maxSkills below 1 is
// treated as 1.
func ApplySkillPolicy(skills []types.Skill, includePartner bool, maxSkills int) []types.Skill {
	if maxSkills < 1 {
		maxSkills = 1
	}

	out := make([]types.Skill, 0, min(len(skills), maxSkills))
	for _, s := range skills {
		if len(out) == maxSkills {
			break
		}
		if s.Source == types.SkillSourcePartner && !includePartner {
			continue
		}
		out = append(out, s)
	}
	return out
}

// SelectOptions controls SelectForRun.
type SelectOptions struct {
	ProgramType          string
	PartnerSkillsEnabled bool
	MaxSkills            int
}

// SelectForRun picks the skills for one run: persona lookup, partner policy
// and the max-skills bound. A zero MaxSkills means DefaultMaxSkills.
func SelectForRun(catalog *Catalog, track types.PersonaTrack, opts SelectOptions) []types.SelectedSkill {
	maxSkills := opts.MaxSkills
	if maxSkills == 0 {
		maxSkills = DefaultMaxSkills
	}

	includePartner := AllowPartnerSkills(opts.ProgramType, opts.PartnerSkillsEnabled)
	picked := ApplySkillPolicy(catalog.SkillsForPersona(track), includePartner, maxSkills)

	selected := make([]types.SelectedSkill, len(picked))
	for i, s := range picked {
		selected[i] = types.SelectedSkill{Skill: s, Origin: types.OriginFor(s.Source)}
	}
	return selected
}
