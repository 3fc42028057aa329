package types

import (
	"encoding/json"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared struct validator. It understands the
// "notblank" tag in addition to the built-in ones.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		_ = validate.RegisterValidation("notblank", validators.NotBlank)
	})
	return validate
}

// ValidateStruct validates s with the shared validator.
func ValidateStruct(s any) error {
	return Validator().Struct(s)
}

// RankCardInput is one candidate card as submitted for ranking.
type RankCardInput struct {
	Title string             `json:"title" validate:"required,notblank"`
	Kind  string             `json:"kind"`
	Card  json.RawMessage    `json:"card,omitempty"`
	Meta  PartialInsightMeta `json:"insight_meta"`
}

// RankRequest asks for a set of cards to be ranked.
type RankRequest struct {
	Cards          []RankCardInput `json:"cards" validate:"required,min=1,dive"`
	Seed           string          `json:"seed"`
	ExplorationPct *float64        `json:"exploration_pct,omitempty" validate:"omitempty,gte=0,lte=1"`
	HybridLearning bool            `json:"hybrid_learning"`
	Priors         *PriorTables    `json:"priors,omitempty"`
	// Limit overrides the configured rank limit; 0 returns every card.
	Limit          *int            `json:"limit,omitempty" validate:"omitempty,gte=0"`
}

// Validate validates the RankRequest using the validator.
func (r *RankRequest) Validate() error {
	return ValidateStruct(r)
}

// GateRequest asks whether a discovered skill may be used.
type GateRequest struct {
	Candidate DiscoveredSkillCandidate `json:"candidate"`
}

// GateResponse is the gate's verdict.
type GateResponse struct {
	SkillRef string `json:"skill_ref"`
	Admitted bool   `json:"admitted"`
}

// SkillsResponse lists the skills selected for a persona.
type SkillsResponse struct {
	Track           PersonaTrack    `json:"track"`
	PartnerIncluded bool            `json:"partner_included"`
	Skills          []SelectedSkill `json:"skills"`
}
