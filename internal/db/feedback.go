package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/insight-engine/internal/types"
)

// RecordFeedback stores a reaction to a delivered card
func (db *DB) RecordFeedback(ctx context.Context, fb Feedback) (uuid.UUID, error) {
	id := uuid.New()
	_, err := db.pool.Exec(ctx,
		`INSERT INTO insight_feedback (id, card_id, workspace_id, helpful, actioned)
		 VALUES ($1, $2, $3, $4, $5)`,
		id, fb.CardID, fb.WorkspaceID, fb.Helpful, fb.Actioned,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to record feedback: %w", err)
	}
	return id, nil
}

// priorRow is one aggregated feedback bucket.
type priorRow struct {
	Dimension string // "skill" or "submode"
	Key       string
	Total     int
	Helpful   int
	Actioned  int
}

const priorsQuery = `
SELECT 'skill' AS dimension, c.skill_ref AS key,
       COUNT(*), COUNT(*) FILTER (WHERE f.helpful), COUNT(*) FILTER (WHERE f.actioned)
FROM insight_feedback f JOIN insight_cards c ON c.id = f.card_id
WHERE f.workspace_id = $1 AND c.skill_ref <> ''
GROUP BY c.skill_ref
UNION ALL
SELECT 'submode', c.persona_submode,
       COUNT(*), COUNT(*) FILTER (WHERE f.helpful), COUNT(*) FILTER (WHERE f.actioned)
FROM insight_feedback f JOIN insight_cards c ON c.id = f.card_id
WHERE f.workspace_id = $1 AND c.persona_submode <> ''
GROUP BY c.persona_submode`

// LoadHistoricalPriors aggregates a workspace's feedback into prior tables
// keyed by skill ref and by persona submode.
func (db *DB) LoadHistoricalPriors(ctx context.Context, workspaceID string) (types.PriorTables, error) {
	rows, err := db.pool.Query(ctx, priorsQuery, workspaceID)
	if err != nil {
		return types.PriorTables{}, fmt.Errorf("failed to load priors: %w", err)
	}
	defer rows.Close()

	var buckets []priorRow
	for rows.Next() {
		var r priorRow
		if err := rows.Scan(&r.Dimension, &r.Key, &r.Total, &r.Helpful, &r.Actioned); err != nil {
			return types.PriorTables{}, fmt.Errorf("failed to scan prior: %w", err)
		}
		buckets = append(buckets, r)
	}
	if err := rows.Err(); err != nil {
		return types.PriorTables{}, fmt.Errorf("failed to load priors: %w", err)
	}
	return buildPriorTables(buckets), nil
}

func buildPriorTables(rows []priorRow) types.PriorTables {
	tables := types.PriorTables{
		BySkillRef: make(map[string]types.HistoricalPrior),
		BySubmode:  make(map[types.PersonaSubmode]types.HistoricalPrior),
	}
	for _, r := range rows {
		if r.Total <= 0 || r.Key == "" {
			continue
		}
		prior := priorFromCounts(r.Total, r.Helpful, r.Actioned)
		switch r.Dimension {
		case "skill":
			tables.BySkillRef[r.Key] = prior
		case "submode":
			tables.BySubmode[types.PersonaSubmode(r.Key)] = prior
		}
	}
	return tables
}

// priorFromCounts expresses rates as percentages.
func priorFromCounts(total, helpful, actioned int) types.HistoricalPrior {
	return types.HistoricalPrior{
		HelpfulRatePct:          100 * float64(helpful) / float64(total),
		ActionCompletionRatePct: 100 * float64(actioned) / float64(total),
		SampleCount:             total,
	}
}
