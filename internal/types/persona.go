// Package types provides type definitions for structured data used throughout the insight engine.
//
//nolint:revive // types is a standard Go package name pattern
package types

// PersonaTrack is the coarse team-stage classification of a workspace.
type PersonaTrack string

// Persona tracks
const (
	TrackSoloFounder PersonaTrack = "SOLO_FOUNDER"
	TrackSmallTeam   PersonaTrack = "SMALL_TEAM_5_10"
	TrackGrowthTeam  PersonaTrack = "GROWTH_TEAM_11_50"
	TrackUnknown     PersonaTrack = "UNKNOWN"
)

// AllPersonaTracks lists every track in declaration order.
var AllPersonaTracks = []PersonaTrack{TrackSoloFounder, TrackSmallTeam, TrackGrowthTeam, TrackUnknown}

// Valid reports whether t is one of the known tracks.
func (t PersonaTrack) Valid() bool {
	switch t {
	case TrackSoloFounder, TrackSmallTeam, TrackGrowthTeam, TrackUnknown:
		return true
	}
	return false
}

// IsTeam reports whether the track describes a multi-person team.
func (t PersonaTrack) IsTeam() bool {
	return t == TrackSmallTeam || t == TrackGrowthTeam
}

// PersonaSubmode is a finer behavioral read layered on top of a track.
type PersonaSubmode string

// Persona submodes
const (
	SubmodeShipHeavy      PersonaSubmode = "SHIP_HEAVY"
	SubmodeGTMHeavy       PersonaSubmode = "GTM_HEAVY"
	SubmodeAlignmentGap   PersonaSubmode = "ALIGNMENT_GAP"
	SubmodeExecutionDrift PersonaSubmode = "EXECUTION_DRIFT"
	SubmodeUnknown        PersonaSubmode = "UNKNOWN"
)

// Valid reports whether s is one of the known submodes.
func (s PersonaSubmode) Valid() bool {
	switch s {
	case SubmodeShipHeavy, SubmodeGTMHeavy, SubmodeAlignmentGap, SubmodeExecutionDrift, SubmodeUnknown:
		return true
	}
	return false
}

// PersonaSignals are the coarse workspace/user counts used to pick a track.
// Counts are float64 so values straight from untrusted sources (DB aggregates,
// JSON) can be passed without conversion; the classifier coerces them.
type PersonaSignals struct {
	MemberCount        float64 `json:"member_count"`
	ActiveMemberCount  float64 `json:"active_member_count"`
	IntegrationCount   float64 `json:"integration_count"`
	OpenTaskCount      float64 `json:"open_task_count"`
	HasPersonalProfile bool    `json:"has_personal_profile"`
	HasGoals           bool    `json:"has_goals"`
}

// SubmodeSignals are the inputs to submode classification.
type SubmodeSignals struct {
	PersonaTrack      PersonaTrack `json:"persona_track"`
	ActiveMemberCount float64      `json:"active_member_count"`
	IntegrationCount  float64      `json:"integration_count"`
	OpenTaskCount     float64      `json:"open_task_count"`
	HasGoals          bool         `json:"has_goals"`
}

// Persona is the full classification result for one run.
type Persona struct {
	Track            PersonaTrack   `json:"persona_track"`
	Submode          PersonaSubmode `json:"persona_submode"`
	RecommendedFocus string         `json:"recommended_focus"`
	WhyThisToday     string         `json:"why_this_today"`
}
