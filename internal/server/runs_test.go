package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/insight-engine/internal/db"
)

type fakeRuns struct {
	runs      map[uuid.UUID]db.Run
	cards     map[uuid.UUID][]db.CardRecord
	artifacts map[string]json.RawMessage
	filters   db.RunFilters
}

func newFakeRuns(runs ...db.Run) *fakeRuns {
	f := &fakeRuns{
		runs:      make(map[uuid.UUID]db.Run),
		cards:     make(map[uuid.UUID][]db.CardRecord),
		artifacts: make(map[string]json.RawMessage),
	}
	for _, r := range runs {
		f.runs[r.ID] = r
	}
	return f
}

func (f *fakeRuns) GetRun(_ context.Context, id uuid.UUID) (*db.Run, error) {
	r, ok := f.runs[id]
	if !ok {
		return nil, fmt.Errorf("run %s: %w", id, db.ErrNotFound)
	}
	return &r, nil
}

func (f *fakeRuns) ListRuns(_ context.Context, filters db.RunFilters) ([]db.Run, error) {
	f.filters = filters
	var out []db.Run
	for _, r := range f.runs {
		if filters.WorkspaceID == "" || r.WorkspaceID == filters.WorkspaceID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRuns) ListRunCards(_ context.Context, id uuid.UUID) ([]db.CardRecord, error) {
	return f.cards[id], nil
}

func (f *fakeRuns) GetArtifact(_ context.Context, id uuid.UUID, step string) (json.RawMessage, error) {
	doc, ok := f.artifacts[id.String()+"/"+step]
	if !ok {
		return nil, fmt.Errorf("artifact %s: %w", step, db.ErrNotFound)
	}
	return doc, nil
}

func (f *fakeRuns) DeleteRun(_ context.Context, id uuid.UUID) error {
	if _, ok := f.runs[id]; !ok {
		return fmt.Errorf("run %s: %w", id, db.ErrNotFound)
	}
	delete(f.runs, id)
	return nil
}

func TestRunsEndpoints_NotConfigured(t *testing.T) {
	h := newTestServer(t, Deps{}, Config{})

	for _, path := range []string{"/runs", "/runs/" + uuid.NewString()} {
		w := do(t, h, http.MethodGet, path, "")
		assert.Equal(t, http.StatusNotImplemented, w.Code, path)
	}
}

func TestListRunsEndpoint(t *testing.T) {
	run := db.Run{ID: uuid.New(), WorkspaceID: "ws-1", Status: db.RunStatusCompleted, CreatedAt: time.Now()}
	runs := newFakeRuns(run, db.Run{ID: uuid.New(), WorkspaceID: "ws-2"})
	h := newTestServer(t, Deps{Runs: runs}, Config{})

	w := do(t, h, http.MethodGet, "/runs?workspace_id=ws-1&status=completed&limit=5", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	got := decodeBody[map[string][]db.Run](t, w)["runs"]
	require.Len(t, got, 1)
	assert.Equal(t, run.ID, got[0].ID)
	assert.Equal(t, db.RunFilters{WorkspaceID: "ws-1", Status: db.RunStatusCompleted, Limit: 5}, runs.filters)
}

func TestListRunsEndpoint_EmptyIsArray(t *testing.T) {
	h := newTestServer(t, Deps{Runs: newFakeRuns()}, Config{})

	w := do(t, h, http.MethodGet, "/runs", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"runs": []}`, w.Body.String())
}

func TestListRunsEndpoint_InvalidQuery(t *testing.T) {
	h := newTestServer(t, Deps{Runs: newFakeRuns()}, Config{})

	for _, query := range []string{"status=paused", "limit=0", "limit=lots", "limit=501"} {
		w := do(t, h, http.MethodGet, "/runs?"+query, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, query)
	}
}

func TestGetRunEndpoint(t *testing.T) {
	run := db.Run{ID: uuid.New(), WorkspaceID: "ws-1", Status: db.RunStatusCompleted}
	runs := newFakeRuns(run)
	runs.cards[run.ID] = []db.CardRecord{{ID: uuid.New(), RunID: run.ID, Title: "Ship it", Score: 0.8}}
	h := newTestServer(t, Deps{Runs: runs}, Config{})

	w := do(t, h, http.MethodGet, "/runs/"+run.ID.String(), "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	detail := decodeBody[RunDetail](t, w)
	assert.Equal(t, run.ID, detail.Run.ID)
	require.Len(t, detail.Cards, 1)
	assert.Equal(t, "Ship it", detail.Cards[0].Title)
}

func TestGetRunEndpoint_Errors(t *testing.T) {
	h := newTestServer(t, Deps{Runs: newFakeRuns()}, Config{})

	w := do(t, h, http.MethodGet, "/runs/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodGet, "/runs/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetArtifactEndpoint(t *testing.T) {
	run := db.Run{ID: uuid.New()}
	runs := newFakeRuns(run)
	runs.artifacts[run.ID.String()+"/"+db.StepPersona] = json.RawMessage(`{"track":"SOLO_FOUNDER"}`)
	h := newTestServer(t, Deps{Runs: runs}, Config{})

	w := do(t, h, http.MethodGet, "/runs/"+run.ID.String()+"/artifacts/"+db.StepPersona, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"track":"SOLO_FOUNDER"}`, w.Body.String())

	w = do(t, h, http.MethodGet, "/runs/"+run.ID.String()+"/artifacts/"+db.StepDraft, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteRunEndpoint(t *testing.T) {
	run := db.Run{ID: uuid.New()}
	runs := newFakeRuns(run)
	h := newTestServer(t, Deps{Runs: runs}, Config{})

	w := do(t, h, http.MethodDelete, "/runs/"+run.ID.String(), "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, runs.runs)

	w = do(t, h, http.MethodDelete, "/runs/"+run.ID.String(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
