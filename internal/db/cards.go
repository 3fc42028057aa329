package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/insight-engine/internal/types"
)

// NewCardRecords converts ranked cards into storable records, in rank order.
// scores holds the final score of each card at the same index.
func NewCardRecords[T any](runID uuid.UUID, cards []types.RankableCard[T], scores []float64) ([]CardRecord, error) {
	if len(scores) != len(cards) {
		return nil, fmt.Errorf("got %d scores for %d cards", len(scores), len(cards))
	}

	records := make([]CardRecord, len(cards))
	for i, c := range cards {
		payload, err := json.Marshal(c.Card)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal card %q: %w", c.Title, err)
		}
		meta, err := json.Marshal(c.InsightMeta)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal insight meta for %q: %w", c.Title, err)
		}
		records[i] = CardRecord{
			ID:             uuid.New(),
			RunID:          runID,
			Position:       i,
			Title:          c.Title,
			Kind:           c.Kind,
			SkillRef:       c.InsightMeta.SkillRef,
			SkillOrigin:    string(c.InsightMeta.SkillOrigin),
			PersonaSubmode: string(c.InsightMeta.PersonaSubmode),
			Score:          scores[i],
			Card:           payload,
			InsightMeta:    meta,
		}
	}
	return records, nil
}

// SaveRankedCards stores a run's cards in one batch
func (db *DB) SaveRankedCards(ctx context.Context, records []CardRecord) error {
	if len(records) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(
			`INSERT INTO insight_cards
			 (id, run_id, position, title, kind, skill_ref, skill_origin, persona_submode, score, card, insight_meta)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			r.ID, r.RunID, r.Position, r.Title, r.Kind, r.SkillRef, r.SkillOrigin, r.PersonaSubmode,
			r.Score, []byte(r.Card), []byte(r.InsightMeta),
		)
	}

	if err := db.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to save ranked cards: %w", err)
	}
	return nil
}

// ListRunCards returns a run's cards in rank order
func (db *DB) ListRunCards(ctx context.Context, runID uuid.UUID) ([]CardRecord, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, run_id, position, title, kind, skill_ref, skill_origin, persona_submode,
		        score, card, insight_meta, created_at
		 FROM insight_cards WHERE run_id = $1 ORDER BY position ASC`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	defer rows.Close()

	var cards []CardRecord
	for rows.Next() {
		var c CardRecord
		var payload, meta []byte
		if err := rows.Scan(&c.ID, &c.RunID, &c.Position, &c.Title, &c.Kind, &c.SkillRef, &c.SkillOrigin,
			&c.PersonaSubmode, &c.Score, &payload, &meta, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		c.Card = payload
		c.InsightMeta = meta
		cards = append(cards, c)
	}
	return cards, rows.Err()
}
