package db

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Run statuses
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Artifact steps recorded for a run
const (
	StepPersona    = "persona"
	StepSkills     = "skills"
	StepGate       = "discovered_skills"
	StepDraft      = "drafted_cards"
	StepRankStats  = "rank_stats"
	StepPriorTable = "priors"
)

// Run represents an insight run record
type Run struct {
	ID             uuid.UUID  `json:"id"`
	WorkspaceID    string     `json:"workspace_id"`
	UserID         string     `json:"user_id,omitempty"`
	Seed           string     `json:"seed"`
	Status         string     `json:"status"`
	PersonaTrack   *string    `json:"persona_track,omitempty"`
	PersonaSubmode *string    `json:"persona_submode,omitempty"`
	ErrorMessage   *string    `json:"error_message,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// RunInput is the data needed to open a run.
type RunInput struct {
	WorkspaceID string
	UserID      string
	Seed        string
}

// CardRecord is one ranked card as stored.
type CardRecord struct {
	ID             uuid.UUID       `json:"id"`
	RunID          uuid.UUID       `json:"run_id"`
	Position       int             `json:"position"`
	Title          string          `json:"title"`
	Kind           string          `json:"kind"`
	SkillRef       string          `json:"skill_ref"`
	SkillOrigin    string          `json:"skill_origin"`
	PersonaSubmode string          `json:"persona_submode"`
	Score          float64         `json:"score"`
	Card           json.RawMessage `json:"card"`
	InsightMeta    json.RawMessage `json:"insight_meta"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Feedback is a user's reaction to a delivered card.
type Feedback struct {
	CardID      uuid.UUID `json:"card_id"`
	WorkspaceID string    `json:"workspace_id"`
	Helpful     bool      `json:"helpful"`
	Actioned    bool      `json:"actioned"`
}
