package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/jonathan/insight-engine/internal/db"
)

// RunHistory reads and prunes stored runs. *db.DB implements it.
type RunHistory interface {
	GetRun(ctx context.Context, runID uuid.UUID) (*db.Run, error)
	ListRuns(ctx context.Context, filters db.RunFilters) ([]db.Run, error)
	ListRunCards(ctx context.Context, runID uuid.UUID) ([]db.CardRecord, error)
	GetArtifact(ctx context.Context, runID uuid.UUID, step string) (json.RawMessage, error)
	DeleteRun(ctx context.Context, runID uuid.UUID) error
}

// RunDetail is a stored run with its ranked cards.
type RunDetail struct {
	Run   db.Run          `json:"run"`
	Cards []db.CardRecord `json:"cards"`
}

var runStatuses = map[string]bool{
	db.RunStatusRunning:   true,
	db.RunStatusCompleted: true,
	db.RunStatusFailed:    true,
}

// runID parses the {id} path value, answering 400 when it is not a UUID.
func (s *Server) runID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorFromErr(w, &ErrValidation{Field: "id", Message: "must be a UUID"})
		return uuid.Nil, false
	}
	return id, true
}

func (s *Server) history(w http.ResponseWriter) (RunHistory, bool) {
	if s.deps.Runs == nil {
		s.errorFromErr(w, &ErrNotConfigured{Feature: "run history"})
		return nil, false
	}
	return s.deps.Runs, true
}

// handleListRuns lists recent runs, optionally by workspace and status
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, ok := s.history(w)
	if !ok {
		return
	}

	q := r.URL.Query()
	filters := db.RunFilters{WorkspaceID: q.Get("workspace_id"), Status: q.Get("status")}
	if filters.Status != "" && !runStatuses[filters.Status] {
		s.errorFromErr(w, &ErrValidation{Field: "status", Message: "unknown run status " + strconv.Quote(filters.Status)})
		return
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			s.errorFromErr(w, &ErrValidation{Field: "limit", Message: "must be between 1 and 500"})
			return
		}
		filters.Limit = n
	}

	list, err := runs.ListRuns(r.Context(), filters)
	if err != nil {
		s.errorFromErr(w, err)
		return
	}
	if list == nil {
		list = []db.Run{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"runs": list})
}

// handleGetRun returns one run with its cards in rank order
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	runs, ok := s.history(w)
	if !ok {
		return
	}
	id, ok := s.runID(w, r)
	if !ok {
		return
	}

	run, err := runs.GetRun(r.Context(), id)
	if err != nil {
		s.errorFromErr(w, err)
		return
	}
	cards, err := runs.ListRunCards(r.Context(), id)
	if err != nil {
		s.errorFromErr(w, err)
		return
	}
	if cards == nil {
		cards = []db.CardRecord{}
	}
	s.jsonResponse(w, http.StatusOK, RunDetail{Run: *run, Cards: cards})
}

// handleGetArtifact returns the stored JSON of one run step as-is
func (s *Server) handleGetArtifact(w http.ResponseWriter, r *http.Request) {
	runs, ok := s.history(w)
	if !ok {
		return
	}
	id, ok := s.runID(w, r)
	if !ok {
		return
	}

	doc, err := runs.GetArtifact(r.Context(), id, r.PathValue("step"))
	if err != nil {
		s.errorFromErr(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, doc)
}

// handleDeleteRun removes a run with its cards, artifacts and feedback
func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	runs, ok := s.history(w)
	if !ok {
		return
	}
	id, ok := s.runID(w, r)
	if !ok {
		return
	}

	if err := runs.DeleteRun(r.Context(), id); err != nil {
		s.errorFromErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
