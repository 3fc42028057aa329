package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/insight-engine/internal/db"
	"github.com/jonathan/insight-engine/internal/persona"
	"github.com/jonathan/insight-engine/internal/pipeline"
	"github.com/jonathan/insight-engine/internal/ranking"
	"github.com/jonathan/insight-engine/internal/skills"
	"github.com/jonathan/insight-engine/internal/types"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// EvaluateRequest asks the evaluator to judge a proposal for a workspace.
type EvaluateRequest struct {
	Proposal types.SkillProposal  `json:"proposal"`
	Signals  types.PersonaSignals `json:"signals"`
}

// EvaluateResponse is the evaluator's judgment plus the gate outcome.
type EvaluateResponse struct {
	Persona   types.Persona                  `json:"persona"`
	Candidate types.DiscoveredSkillCandidate `json:"candidate"`
	Admitted  bool                           `json:"admitted"`
}

// RankResponse is the ranked output of /rank.
type RankResponse struct {
	Cards  []types.RankableCard[json.RawMessage] `json:"cards"`
	Scores []float64                             `json:"scores"`
	Stats  ranking.Stats                         `json:"stats"`
}

// RunRequest represents the request body for /run
type RunRequest struct {
	WorkspaceID string                `json:"workspace_id" validate:"required,notblank"`
	UserID      string                `json:"user_id,omitempty"`
	Seed        string                `json:"seed,omitempty"`
	Signals     types.PersonaSignals  `json:"signals"`
	ProgramType string                `json:"program_type,omitempty"`
	Proposals   []types.SkillProposal `json:"proposals,omitempty" validate:"dive"`
	Context     string                `json:"context,omitempty"`
}

// ToInput converts the request to a pipeline input.
func (r RunRequest) ToInput() pipeline.RunInput {
	return pipeline.RunInput{
		WorkspaceID: r.WorkspaceID,
		UserID:      r.UserID,
		Seed:        r.Seed,
		Signals:     r.Signals,
		ProgramType: r.ProgramType,
		Proposals:   r.Proposals,
		Context:     r.Context,
	}
}

// FeedbackRequest represents the request body for /feedback
type FeedbackRequest struct {
	CardID      string `json:"card_id" validate:"required,uuid"`
	WorkspaceID string `json:"workspace_id" validate:"required,notblank"`
	Helpful     bool   `json:"helpful"`
	Actioned    bool   `json:"actioned"`
}

// decode reads a JSON body into v and validates it.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	if err := types.ValidateStruct(v); err != nil {
		s.errorFromErr(w, err)
		return false
	}
	return true
}

// handlePersona classifies a workspace from its signals
func (s *Server) handlePersona(w http.ResponseWriter, r *http.Request) {
	var signals types.PersonaSignals
	if !s.decode(w, r, &signals) {
		return
	}

	p := persona.Classify(signals)
	s.deps.Metrics.RecordPersona(string(p.Track), string(p.Submode))
	s.jsonResponse(w, http.StatusOK, p)
}

// handleListSkills returns the skills a persona would get in a run
func (s *Server) handleListSkills(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	track := types.PersonaTrack(q.Get("track"))
	if !track.Valid() {
		s.errorFromErr(w, &ErrValidation{Field: "track", Message: "unknown persona track " + strconv.Quote(string(track))})
		return
	}

	maxSkills := s.cfg.MaxSkills
	if raw := q.Get("max"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.errorFromErr(w, &ErrValidation{Field: "max", Message: "must be a positive integer"})
			return
		}
		maxSkills = n
	}

	programType := q.Get("program_type")
	selected := skills.SelectForRun(s.deps.Skills.Catalog(), track, skills.SelectOptions{
		ProgramType:          programType,
		PartnerSkillsEnabled: s.cfg.PartnerSkillsEnabled,
		MaxSkills:            maxSkills,
	})

	s.jsonResponse(w, http.StatusOK, types.SkillsResponse{
		Track:           track,
		PartnerIncluded: skills.AllowPartnerSkills(programType, s.cfg.PartnerSkillsEnabled),
		Skills:          selected,
	})
}

// handleGate applies the discovered-skill gate to an evaluator judgment
func (s *Server) handleGate(w http.ResponseWriter, r *http.Request) {
	var req types.GateRequest
	if !s.decode(w, r, &req) {
		return
	}

	admitted := skills.ShouldUseDiscoveredSkill(req.Candidate)
	s.deps.Metrics.RecordGateDecision(admitted)
	s.jsonResponse(w, http.StatusOK, types.GateResponse{
		SkillRef: req.Candidate.SkillRef,
		Admitted: admitted,
	})
}

// handleEvaluate runs the evaluator on a proposal and gates the result
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	if s.deps.Evaluator == nil {
		s.errorFromErr(w, &ErrNotConfigured{Feature: "skill evaluation"})
		return
	}

	var req EvaluateRequest
	if !s.decode(w, r, &req) {
		return
	}

	p := persona.Classify(req.Signals)
	candidate, err := s.deps.Evaluator.Evaluate(r.Context(), req.Proposal, p)
	if err != nil {
		s.errorFromErr(w, err)
		return
	}

	admitted := skills.ShouldUseDiscoveredSkill(candidate)
	s.deps.Metrics.RecordGateDecision(admitted)
	s.jsonResponse(w, http.StatusOK, EvaluateResponse{Persona: p, Candidate: candidate, Admitted: admitted})
}

// handleRank ranks caller-supplied cards. Card payloads are passed through untouched.
func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	var req types.RankRequest
	if !s.decode(w, r, &req) {
		return
	}

	cards := make([]types.RankableCard[json.RawMessage], len(req.Cards))
	for i, c := range req.Cards {
		cards[i] = ranking.NewCard(c.Card, c.Title, c.Kind, c.Meta)
	}

	pct := s.cfg.ExplorationPct
	if req.ExplorationPct != nil {
		pct = *req.ExplorationPct
	}
	limit := s.cfg.RankLimit
	if req.Limit != nil {
		limit = *req.Limit
	}
	opts := []ranking.Option{ranking.WithExplorationPct(pct), ranking.WithLimit(limit)}
	if req.HybridLearning && req.Priors != nil {
		opts = append(opts, ranking.WithHybridLearning(*req.Priors))
	}

	var stats ranking.Stats
	ranked, err := ranking.RankInsightCards(cards, req.Seed, append(opts, ranking.WithStats(&stats))...)
	if err != nil {
		s.errorFromErr(w, err)
		return
	}

	scores := make([]float64, len(ranked))
	for i, c := range ranked {
		scores[i] = ranking.ScoreCard(c.InsightMeta, opts...)
	}
	s.deps.Metrics.RecordRanking(stats.Returned, stats.Duplicates, stats.Explored)

	s.jsonResponse(w, http.StatusOK, RankResponse{Cards: ranked, Scores: scores, Stats: stats})
}

// handleRun executes a full run and returns its result
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if s.deps.Runner == nil {
		s.errorFromErr(w, &ErrNotConfigured{Feature: "pipeline runs"})
		return
	}

	var req RunRequest
	if !s.decode(w, r, &req) {
		return
	}

	result, err := s.deps.Runner.Run(r.Context(), req.ToInput())
	if err != nil {
		s.errorFromErr(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

// handleRunStream executes a run and streams progress via SSE
func (s *Server) handleRunStream(w http.ResponseWriter, r *http.Request) {
	if s.deps.Runner == nil {
		s.errorFromErr(w, &ErrNotConfigured{Feature: "pipeline runs"})
		return
	}

	var req RunRequest
	if !s.decode(w, r, &req) {
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	input := req.ToInput()
	input.OnProgress = func(event pipeline.ProgressEvent) {
		if err := sse.WriteProgress(event); err != nil {
			s.logger.Warn("failed to write SSE event", zap.Error(err))
		}
	}

	result, err := s.deps.Runner.Run(r.Context(), input)
	if err != nil {
		sse.WriteError(err.Error())
		return
	}
	if err := sse.WriteResult(result); err != nil {
		s.logger.Warn("failed to write SSE result", zap.Error(err))
	}
	sse.WriteComplete(result.RunID)
}

// handleFeedback records a reaction to a delivered card
func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	if s.deps.Feedback == nil {
		s.errorFromErr(w, &ErrNotConfigured{Feature: "feedback storage"})
		return
	}

	var req FeedbackRequest
	if !s.decode(w, r, &req) {
		return
	}

	id, err := s.deps.Feedback.RecordFeedback(r.Context(), db.Feedback{
		CardID:      uuid.MustParse(req.CardID),
		WorkspaceID: req.WorkspaceID,
		Helpful:     req.Helpful,
		Actioned:    req.Actioned,
	})
	if err != nil {
		s.errorFromErr(w, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, map[string]string{"id": id.String()})
}
