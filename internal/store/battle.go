package store

import (
	"context"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

// Winner values recorded for non-player outcomes.
const (
	WinnerDraw = "draw"
)

type battleRepo struct {
	drv *entsql.Driver
	seq *sequenceCounter
}

var battleColumns = []string{
	"id", "sequence", "battle_id", "player_id", "opponent", "winner",
	"turns", "plays", "correct", "player_health", "enemy_health", "created_at",
}

func (r *battleRepo) AppendBattleResult(ctx context.Context, res BattleResult) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return err
	}
	created := nowMillis()
	if !res.Timestamp.IsZero() {
		created = res.Timestamp.UnixMilli()
	}

	query, args := builder().Insert(tableBattles).
		Columns(battleColumns[1:]...).
		Values(seqNum, res.BattleID, res.PlayerID, res.Opponent, res.Winner,
			res.Turns, res.Plays, res.Correct, res.PlayerHealth, res.EnemyHealth, created).
		Query()
	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("save battle result: %w", err)
	}
	return nil
}

func (r *battleRepo) QueryBattles(ctx context.Context, playerID string, opts QueryOpts) ([]BattleResult, error) {
	b := builder()
	sel := b.Select(battleColumns...).From(b.Table(tableBattles))
	if playerID != "" {
		sel.Where(entsql.EQ("player_id", playerID))
	}
	opts.apply(sel)
	sel.OrderBy(entsql.Desc("sequence"))

	query, args := sel.Query()
	var rows entsql.Rows
	if err := r.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("query battles: %w", err)
	}
	defer rows.Close()

	var out []BattleResult
	for rows.Next() {
		var (
			res     BattleResult
			created int64
		)
		if err := rows.Scan(&res.ID, &res.Sequence, &res.BattleID, &res.PlayerID, &res.Opponent,
			&res.Winner, &res.Turns, &res.Plays, &res.Correct, &res.PlayerHealth,
			&res.EnemyHealth, &created); err != nil {
			return nil, fmt.Errorf("scan battle: %w", err)
		}
		res.Timestamp = fromMillis(created)
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate battles: %w", err)
	}
	return out, nil
}

func (r *battleRepo) Stats(ctx context.Context, playerID string) (BattleStats, error) {
	b := builder()
	sel := b.Select("winner", entsql.Count("*"), entsql.Sum("plays"), entsql.Sum("correct")).
		From(b.Table(tableBattles)).
		GroupBy("winner")
	if playerID != "" {
		sel.Where(entsql.EQ("player_id", playerID))
	}

	query, args := sel.Query()
	var rows entsql.Rows
	if err := r.drv.Query(ctx, query, args, &rows); err != nil {
		return BattleStats{}, fmt.Errorf("query battle stats: %w", err)
	}
	defer rows.Close()

	var (
		stats          BattleStats
		plays, correct int64
	)
	for rows.Next() {
		var (
			winner     string
			n          int
			sumPlays   int64
			sumCorrect int64
		)
		if err := rows.Scan(&winner, &n, &sumPlays, &sumCorrect); err != nil {
			return BattleStats{}, fmt.Errorf("scan battle stats: %w", err)
		}
		stats.Played += n
		plays += sumPlays
		correct += sumCorrect
		switch {
		case winner == WinnerDraw:
			stats.Drawn += n
		case playerID != "" && winner == playerID:
			stats.Won += n
		default:
			stats.Lost += n
		}
	}
	if err := rows.Err(); err != nil {
		return BattleStats{}, fmt.Errorf("iterate battle stats: %w", err)
	}
	if plays > 0 {
		stats.Accuracy = float64(correct) / float64(plays)
	}
	return stats, nil
}
