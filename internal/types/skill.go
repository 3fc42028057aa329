// Package types provides type definitions for structured data used throughout the insight engine.
//
//nolint:revive // types is a standard Go package name pattern
package types

// SkillSource says who vouches for a catalog skill.
type SkillSource string

// Skill sources
const (
	SkillSourceCurated SkillSource = "CURATED"
	SkillSourcePartner SkillSource = "PARTNER"
)

// Skill is a named advisory framing strategy offered to the drafting generator.
// A Skill is immutable for a given version.
type Skill struct {
	Ref         string         `json:"ref"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Source      SkillSource    `json:"source"`
	Version     int            `json:"version"`
	Personas    []PersonaTrack `json:"personas"`
}

// AppliesTo reports whether the skill is tagged for the given track.
func (s Skill) AppliesTo(track PersonaTrack) bool {
	for _, p := range s.Personas {
		if p == track {
			return true
		}
	}
	return false
}

// SkillOrigin records where the skill used for a card came from.
type SkillOrigin string

// Skill origins
const (
	SkillOriginCurated    SkillOrigin = "CURATED"
	SkillOriginPartner    SkillOrigin = "PARTNER"
	SkillOriginDiscovered SkillOrigin = "DISCOVERED"
)

// OriginFor maps a catalog source to the origin tag carried on cards.
func OriginFor(source SkillSource) SkillOrigin {
	if source == SkillSourcePartner {
		return SkillOriginPartner
	}
	return SkillOriginCurated
}

// SelectedSkill is a skill chosen for a run together with its origin.
type SelectedSkill struct {
	Skill  Skill       `json:"skill"`
	Origin SkillOrigin `json:"origin"`
}
