// Package db provides PostgreSQL storage for insight runs, ranked cards and
// the feedback that feeds historical priors.
package db

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// ErrNotFound is returned when a run or artifact does not exist.
var ErrNotFound = errors.New("not found")

// DefaultListLimit caps ListRuns when no limit is given.
const DefaultListLimit = 50

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect opens a pool and pings it.
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// Migrate applies the embedded schema files in name order inside one
// transaction. The files are idempotent, so Migrate runs on every start.
func (db *DB) Migrate(ctx context.Context) error {
	names, err := fs.Glob(migrationFiles, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("failed to list migrations: %w", err)
	}

	return pgx.BeginFunc(ctx, db.pool, func(tx pgx.Tx) error {
		for _, name := range names {
			sql, err := migrationFiles.ReadFile(name)
			if err != nil {
				return fmt.Errorf("failed to read migration %s: %w", name, err)
			}
			if _, err := tx.Exec(ctx, string(sql)); err != nil {
				return fmt.Errorf("failed to apply migration %s: %w", name, err)
			}
		}
		return nil
	})
}

// CreateRun opens a run in the running state.
func (db *DB) CreateRun(ctx context.Context, input RunInput) (uuid.UUID, error) {
	id := uuid.New()
	_, err := db.pool.Exec(ctx,
		`INSERT INTO insight_runs (id, workspace_id, user_id, seed, status)
		 VALUES (@id, @workspace, @user, @seed, @status)`,
		pgx.NamedArgs{
			"id":        id,
			"workspace": input.WorkspaceID,
			"user":      input.UserID,
			"seed":      input.Seed,
			"status":    RunStatusRunning,
		},
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create run: %w", err)
	}
	return id, nil
}

// SetRunPersona records the persona classified for a run
func (db *DB) SetRunPersona(ctx context.Context, runID uuid.UUID, track, submode string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE insight_runs SET persona_track = $2, persona_submode = $3 WHERE id = $1`,
		runID, track, submode,
	)
	if err != nil {
		return fmt.Errorf("failed to set run persona: %w", err)
	}
	return nil
}

// CompleteRun sets the final status. An empty errMsg is stored as NULL.
func (db *DB) CompleteRun(ctx context.Context, runID uuid.UUID, status, errMsg string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE insight_runs
		 SET status = $2, error_message = NULLIF($3, ''), completed_at = NOW()
		 WHERE id = $1`,
		runID, status, errMsg,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// SaveArtifact stores content as the JSON artifact of a step, replacing any
// earlier artifact for the same step.
func (db *DB) SaveArtifact(ctx context.Context, runID uuid.UUID, step string, content any) error {
	doc, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("failed to marshal %s artifact: %w", step, err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO run_artifacts (run_id, step, content) VALUES ($1, $2, $3)
		 ON CONFLICT (run_id, step) DO UPDATE SET content = EXCLUDED.content, created_at = NOW()`,
		runID, step, doc,
	)
	if err != nil {
		return fmt.Errorf("failed to save %s artifact: %w", step, err)
	}
	return nil
}

// GetArtifact returns the raw JSON artifact of a step.
func (db *DB) GetArtifact(ctx context.Context, runID uuid.UUID, step string) (json.RawMessage, error) {
	var doc []byte
	err := db.pool.QueryRow(ctx,
		`SELECT content FROM run_artifacts WHERE run_id = $1 AND step = $2`, runID, step,
	).Scan(&doc)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, fmt.Errorf("artifact %s of run %s: %w", step, runID, ErrNotFound)
	case err != nil:
		return nil, fmt.Errorf("failed to get %s artifact: %w", step, err)
	}
	return doc, nil
}

const runColumns = `id, workspace_id, user_id, seed, status, persona_track, persona_submode,
	error_message, created_at, completed_at`

func scanRun(row pgx.Row) (Run, error) {
	var r Run
	err := row.Scan(&r.ID, &r.WorkspaceID, &r.UserID, &r.Seed, &r.Status,
		&r.PersonaTrack, &r.PersonaSubmode, &r.ErrorMessage, &r.CreatedAt, &r.CompletedAt)
	return r, err
}

// GetRun returns one run.
func (db *DB) GetRun(ctx context.Context, runID uuid.UUID) (*Run, error) {
	run, err := scanRun(db.pool.QueryRow(ctx, `SELECT `+runColumns+` FROM insight_runs WHERE id = $1`, runID))
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	case err != nil:
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

// RunFilters narrows ListRuns. Zero values match everything.
type RunFilters struct {
	WorkspaceID string
	Status      string
	Limit       int
}

// ListRuns returns matching runs, newest first.
func (db *DB) ListRuns(ctx context.Context, filters RunFilters) ([]Run, error) {
	query, args := buildRunQuery(filters)
	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	runs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Run, error) {
		return scanRun(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan runs: %w", err)
	}
	return runs, nil
}

func buildRunQuery(filters RunFilters) (string, []any) {
	var (
		where []string
		args  []any
	)
	add := func(column string, value any) {
		args = append(args, value)
		where = append(where, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if filters.WorkspaceID != "" {
		add("workspace_id", filters.WorkspaceID)
	}
	if filters.Status != "" {
		add("status", filters.Status)
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	args = append(args, limit)

	var sb strings.Builder
	sb.WriteString(`SELECT ` + runColumns + ` FROM insight_runs`)
	if len(where) > 0 {
		sb.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	fmt.Fprintf(&sb, " ORDER BY created_at DESC LIMIT $%d", len(args))
	return sb.String(), args
}

// DeleteRun removes a run. Cards, artifacts and feedback go with it.
func (db *DB) DeleteRun(ctx context.Context, runID uuid.UUID) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM insight_runs WHERE id = $1`, runID)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	return nil
}
