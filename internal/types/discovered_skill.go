// Package types provides type definitions for structured data used throughout the insight engine.
//
//nolint:revive // types is a standard Go package name pattern
package types

// CandidateSource is where a discovered skill proposal originated.
type CandidateSource string

// Candidate sources
const (
	CandidateSourceCurated  CandidateSource = "curated"
	CandidateSourcePartner  CandidateSource = "partner"
	CandidateSourceExternal CandidateSource = "external"
)

// Risk is the evaluator's advisory-risk judgment for a proposal.
type Risk string

// Risk levels
const (
	RiskLow    Risk = "low"
	RiskMedium Risk = "medium"
	RiskHigh   Risk = "high"
)

// Decision is the evaluator's own verdict on a proposal.
type Decision string

// Evaluator decisions
const (
	DecisionUse  Decision = "USE"
	DecisionSkip Decision = "SKIP"
)

// DiscoveredSkillCandidate is the evaluator's structured judgment of one newly
// proposed skill. It is consumed once by the gate and never persisted.
type DiscoveredSkillCandidate struct {
	SkillRef            string          `json:"skill_ref"`
	Source              CandidateSource `json:"source"`
	FitReason           string          `json:"fit_reason"`
	Risk                Risk            `json:"risk"`
	ExpectedHelpfulLift float64         `json:"expected_helpful_lift"`
	ExpectedActionLift  float64         `json:"expected_action_lift"`
	Confidence          float64         `json:"confidence"`
	Decision            Decision        `json:"decision"`
}

// SkillProposal is a raw skill idea handed to the evaluator for judgment.
type SkillProposal struct {
	Ref         string          `json:"ref" validate:"required,notblank"`
	Name        string          `json:"name" validate:"required,notblank"`
	Description string          `json:"description" validate:"required,notblank"`
	Source      CandidateSource `json:"source,omitempty"`
}
