// Package persona infers a behavioral persona (track and submode) for a
// workspace member from coarse activity signals.
package persona

import (
	"math"

	"github.com/jonathan/insight-engine/internal/types"
)

// Team-size bands (inclusive)
const (
	soloMinSize   = 1
	soloMaxSize   = 4
	smallMinSize  = 5
	smallMaxSize  = 10
	growthMinSize = 11
	growthMaxSize = 50
)

// Submode thresholds
const (
	alignmentMinActiveMembers = 5
	teamDriftMinOpenTasks     = 8
	shipHeavyMinOpenTasks     = 4
	gtmMinIntegrations        = 2
	gtmMaxOpenTasks           = 3
	driftMinOpenTasks         = 5
	sparseMaxIntegrations     = 1
	hintMinIntegrations       = 3
)

// ClassifyTrack maps signal counts to a persona track. It never fails:
// TrackUnknown is a valid result when the signals are too sparse.
func ClassifyTrack(in types.PersonaSignals) types.PersonaTrack {
	members := clampCount(in.MemberCount)
	active := clampCount(in.ActiveMemberCount)
	integrations := clampCount(in.IntegrationCount)
	openTasks := clampCount(in.OpenTaskCount)

	teamSize := max(members, active)
	switch {
	case teamSize >= growthMinSize && teamSize <= growthMaxSize:
		return types.TrackGrowthTeam
	case teamSize >= smallMinSize && teamSize <= smallMaxSize:
		return types.TrackSmallTeam
	case teamSize >= soloMinSize && teamSize <= soloMaxSize:
		return types.TrackSoloFounder
	}

	// Membership data is missing or outside the bands; fall back to behavior.
	if openTasks > 0 && integrations <= sparseMaxIntegrations {
		return types.TrackSoloFounder
	}
	if integrations >= hintMinIntegrations && in.HasGoals {
		return types.TrackSmallTeam
	}
	return types.TrackUnknown
}

// ClassifySubmode refines a track into a behavioral submode. Rules are
// evaluated in order and the first match wins; team alignment checks run
// before the generic task-count heuristics.
func ClassifySubmode(in types.SubmodeSignals) types.PersonaSubmode {
	active := clampCount(in.ActiveMemberCount)
	integrations := clampCount(in.IntegrationCount)
	openTasks := clampCount(in.OpenTaskCount)

	if in.PersonaTrack.IsTeam() {
		if active >= alignmentMinActiveMembers && (!in.HasGoals || integrations <= sparseMaxIntegrations) {
			return types.SubmodeAlignmentGap
		}
		if in.HasGoals && openTasks >= teamDriftMinOpenTasks {
			return types.SubmodeExecutionDrift
		}
	}

	if openTasks >= shipHeavyMinOpenTasks && integrations <= sparseMaxIntegrations {
		return types.SubmodeShipHeavy
	}
	if in.HasGoals && integrations >= gtmMinIntegrations && openTasks <= gtmMaxOpenTasks {
		return types.SubmodeGTMHeavy
	}
	if in.HasGoals && openTasks >= driftMinOpenTasks {
		return types.SubmodeExecutionDrift
	}
	return types.SubmodeUnknown
}

// Classify runs both classifiers and attaches the rationale strings.
func Classify(in types.PersonaSignals) types.Persona {
	track := ClassifyTrack(in)
	submode := ClassifySubmode(types.SubmodeSignals{
		PersonaTrack:      track,
		ActiveMemberCount: in.ActiveMemberCount,
		IntegrationCount:  in.IntegrationCount,
		OpenTaskCount:     in.OpenTaskCount,
		HasGoals:          in.HasGoals,
	})

	return types.Persona{
		Track:            track,
		Submode:          submode,
		RecommendedFocus: RecommendedFocus(track),
		WhyThisToday:     WhyThisToday(track, submode),
	}
}

// clampCount coerces an untrusted count to a non-negative integer.
// NaN, infinities and negatives become 0; fractions are floored.
func clampCount(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0
	}
	if v >= math.MaxInt32 {
		return math.MaxInt32
	}
	return int(math.Floor(v))
}
