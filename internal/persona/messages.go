package persona

import "github.com/jonathan/insight-engine/internal/types"

var focusByTrack = map[types.PersonaTrack]string{
	types.TrackSoloFounder: "Protect maker time and ship the one thing that moves revenue this week.",
	types.TrackSmallTeam:   "Keep a small team pointed at the same goal and unblock handoffs early.",
	types.TrackGrowthTeam:  "Surface cross-team risks before they turn into missed commitments.",
	types.TrackUnknown:     "Start with the open work that has the nearest deadline.",
}

var whyBySubmode = map[types.PersonaSubmode]string{
	types.SubmodeShipHeavy:      "You have a deep queue of open work and few connected tools, so today's cards focus on finishing and shipping.",
	types.SubmodeGTMHeavy:       "Your goals are set and your tools are connected, so today's cards lean toward customers, pipeline and launch.",
	types.SubmodeAlignmentGap:   "Several teammates are active but goals or shared tools are thin, so today's cards target alignment.",
	types.SubmodeExecutionDrift: "Open work is piling up against your stated goals, so today's cards look for drift and re-prioritization.",
}

// RecommendedFocus returns the short focus statement for a track.
func RecommendedFocus(track types.PersonaTrack) string {
	if msg, ok := focusByTrack[track]; ok {
		return msg
	}
	return focusByTrack[types.TrackUnknown]
}

// WhyThisToday explains why today's cards were framed the way they were.
// A known submode takes priority; otherwise the track-level message is used.
func WhyThisToday(track types.PersonaTrack, submode types.PersonaSubmode) string {
	if msg, ok := whyBySubmode[submode]; ok {
		return msg
	}
	return RecommendedFocus(track)
}
