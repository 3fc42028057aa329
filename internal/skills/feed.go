package skills

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/jonathan/insight-engine/internal/schemas"
	"github.com/jonathan/insight-engine/internal/types"
)

// ErrInvalidFeed is returned when a distilled skill feed is not a JSON array.
var ErrInvalidFeed = errors.New("invalid distilled skill feed")

// RejectedEntry describes a feed entry that was skipped.
type RejectedEntry struct {
	Index  int
	Ref    string
	Reason string
}

// FeedResult is the outcome of parsing a distilled skill feed.
type FeedResult struct {
	Skills   []types.Skill
	Rejected []RejectedEntry
}

// feedEntry is the wire shape of one feed entry. Optional fields are
// pointers so "missing" can be told apart from zero values.
type feedEntry struct {
	Ref         string    `json:"ref"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Source      string    `json:"source"`
	Version     *float64  `json:"version"`
	Personas    *[]string `json:"personas"`
}

// ParseDistilledFeed parses a JSON array of skill entries. Each entry is
// validated on its own; invalid entries are reported in Rejected and skipped.
// An empty document yields an empty result. Anything that is not a JSON array
// returns ErrInvalidFeed so the caller can fall back to the built-ins.
func ParseDistilledFeed(data []byte) (FeedResult, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return FeedResult{}, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return FeedResult{}, fmt.Errorf("%w: %v", ErrInvalidFeed, err)
	}

	var result FeedResult
	for i, msg := range raw {
		if err := schemas.Validate(schemas.SkillFeedEntry, msg); err != nil {
			result.Rejected = append(result.Rejected, RejectedEntry{Index: i, Reason: err.Error()})
			continue
		}

		var entry feedEntry
		if err := json.Unmarshal(msg, &entry); err != nil {
			result.Rejected = append(result.Rejected, RejectedEntry{Index: i, Reason: err.Error()})
			continue
		}

		skill, err := entry.toSkill()
		if err != nil {
			result.Rejected = append(result.Rejected, RejectedEntry{
				Index:  i,
				Ref:    strings.TrimSpace(entry.Ref),
				Reason: err.Error(),
			})
			continue
		}
		result.Skills = append(result.Skills, skill)
	}

	return result, nil
}

func (e feedEntry) toSkill() (types.Skill, error) {
	personas, err := normalizePersonas(e.Personas)
	if err != nil {
		return types.Skill{}, err
	}

	source := types.SkillSourceCurated
	if strings.EqualFold(strings.TrimSpace(e.Source), string(types.SkillSourcePartner)) {
		source = types.SkillSourcePartner
	}

	return types.Skill{
		Ref:         strings.TrimSpace(e.Ref),
		Name:        strings.TrimSpace(e.Name),
		Description: strings.TrimSpace(e.Description),
		Source:      source,
		Version:     normalizeVersion(e.Version),
		Personas:    personas,
	}, nil
}

// normalizeVersion defaults a missing version to 1 and never goes below 1.
func normalizeVersion(v *float64) int {
	if v == nil || math.IsNaN(*v) || *v < 1 {
		return 1
	}
	if *v > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(math.Floor(*v))
}

// normalizePersonas keeps the known tracks in the order given. A missing or
// empty list means "all tracks". A list naming only unknown tracks is an
// error, so a typo never widens a restricted skill to every persona.
func normalizePersonas(personas *[]string) ([]types.PersonaTrack, error) {
	if personas == nil || len(*personas) == 0 {
		return append([]types.PersonaTrack(nil), types.AllPersonaTracks...), nil
	}

	var out []types.PersonaTrack
	seen := make(map[types.PersonaTrack]bool)
	for _, p := range *personas {
		track := types.PersonaTrack(strings.ToUpper(strings.TrimSpace(p)))
		if !track.Valid() || seen[track] {
			continue
		}
		seen[track] = true
		out = append(out, track)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("personas: no known track in %q", *personas)
	}
	return out, nil
}
