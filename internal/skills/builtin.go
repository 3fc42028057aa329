package skills

import "github.com/jonathan/insight-engine/internal/types"

// builtinSkills is the curated catalog shipped with the binary.
var builtinSkills = []types.Skill{
	{
		Ref:         "one-thing-today",
		Name:        "One Thing Today",
		Description: "Frame the card around the single highest-leverage action that can be finished today.",
		Source:      types.SkillSourceCurated,
		Version:     1,
		Personas:    []types.PersonaTrack{types.TrackSoloFounder, types.TrackUnknown},
	},
	{
		Ref:         "ship-the-smallest-slice",
		Name:        "Ship the Smallest Slice",
		Description: "Suggest cutting scope on an in-flight task so something usable ships this week.",
		Source:      types.SkillSourceCurated,
		Version:     1,
		Personas:    []types.PersonaTrack{types.TrackSoloFounder, types.TrackSmallTeam},
	},
	{
		Ref:         "customer-signal-followup",
		Name:        "Customer Signal Follow-up",
		Description: "Point at an unanswered customer thread or meeting and propose the next reply.",
		Source:      types.SkillSourceCurated,
		Version:     2,
		Personas:    []types.PersonaTrack{types.TrackSoloFounder, types.TrackSmallTeam, types.TrackGrowthTeam},
	},
	{
		Ref:         "goal-alignment-check",
		Name:        "Goal Alignment Check",
		Description: "Compare this week's activity against stated goals and name the biggest gap.",
		Source:      types.SkillSourceCurated,
		Version:     1,
		Personas:    []types.PersonaTrack{types.TrackSmallTeam, types.TrackGrowthTeam},
	},
	{
		Ref:         "handoff-unblocker",
		Name:        "Handoff Unblocker",
		Description: "Find work waiting on another teammate and suggest the message that unblocks it.",
		Source:      types.SkillSourceCurated,
		Version:     1,
		Personas:    []types.PersonaTrack{types.TrackSmallTeam, types.TrackGrowthTeam},
	},
	{
		Ref:         "cross-team-risk-radar",
		Name:        "Cross-team Risk Radar",
		Description: "Surface commitments at risk because two teams depend on the same slipping work.",
		Source:      types.SkillSourceCurated,
		Version:     1,
		Personas:    []types.PersonaTrack{types.TrackGrowthTeam},
	},
	{
		Ref:         "calendar-defrag",
		Name:        "Calendar Defrag",
		Description: "Suggest moving or declining meetings to recover a focus block.",
		Source:      types.SkillSourceCurated,
		Version:     1,
		Personas:    types.AllPersonaTracks,
	},
	{
		Ref:         "partner-weekly-operator-review",
		Name:        "Operator Weekly Review",
		Description: "Run the design-partner weekly operating review: metrics, blockers, next bets.",
		Source:      types.SkillSourcePartner,
		Version:     1,
		Personas:    []types.PersonaTrack{types.TrackSmallTeam, types.TrackGrowthTeam},
	},
	{
		Ref:         "partner-founder-pipeline-pulse",
		Name:        "Founder Pipeline Pulse",
		Description: "Design-partner framing that ties today's work to the sales pipeline.",
		Source:      types.SkillSourcePartner,
		Version:     1,
		Personas:    []types.PersonaTrack{types.TrackSoloFounder},
	},
}

// BuiltinSkills returns a copy of the built-in catalog entries.
func BuiltinSkills() []types.Skill {
	out := make([]types.Skill, len(builtinSkills))
	for i, s := range builtinSkills {
		out[i] = cloneSkill(s)
	}
	return out
}
