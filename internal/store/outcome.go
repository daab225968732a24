package store

import (
	"context"
	"fmt"
	"slices"

	entsql "entgo.io/ent/dialect/sql"
)

type outcomeRepo struct {
	drv *entsql.Driver
	seq *sequenceCounter
}

func (r *outcomeRepo) AppendOutcome(ctx context.Context, rec OutcomeRecord) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return err
	}
	created := nowMillis()
	if !rec.Timestamp.IsZero() {
		created = rec.Timestamp.UnixMilli()
	}

	query, args := builder().Insert(tableOutcomes).
		Columns("sequence", "player_id", "battle_id", "topic", "difficulty",
			"correct", "response_ms", "hints_used", "created_at").
		Values(seqNum, rec.PlayerID, rec.BattleID, rec.Topic, rec.Difficulty,
			rec.Correct, rec.ResponseMs, rec.HintsUsed, created).
		Query()
	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("save outcome: %w", err)
	}
	return nil
}

func (r *outcomeRepo) RecentOutcomes(ctx context.Context, playerID string, limit int) ([]OutcomeRecord, error) {
	b := builder()
	sel := b.Select("id", "sequence", "player_id", "battle_id", "topic", "difficulty",
		"correct", "response_ms", "hints_used", "created_at").
		From(b.Table(tableOutcomes)).
		Where(entsql.EQ("player_id", playerID)).
		OrderBy(entsql.Desc("sequence"))
	if limit > 0 {
		sel.Limit(limit)
	}

	query, args := sel.Query()
	var rows entsql.Rows
	if err := r.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var out []OutcomeRecord
	for rows.Next() {
		var (
			rec     OutcomeRecord
			created int64
		)
		if err := rows.Scan(&rec.ID, &rec.Sequence, &rec.PlayerID, &rec.BattleID, &rec.Topic,
			&rec.Difficulty, &rec.Correct, &rec.ResponseMs, &rec.HintsUsed, &created); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		rec.Timestamp = fromMillis(created)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcomes: %w", err)
	}

	slices.Reverse(out)
	return out, nil
}
