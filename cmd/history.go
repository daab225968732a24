package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/mathduel/internal/battle"
	"github.com/abhisek/mathduel/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past battles and the win record",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		player, _ := cmd.Flags().GetString("player")
		if player == "" {
			player = cfg.Player.ID
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		battles, err := s.Battles().QueryBattles(ctx, player, store.QueryOpts{Limit: limit})
		if err != nil {
			return fmt.Errorf("query battles: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(battles) == 0 {
			fmt.Fprintf(out, "No battles recorded for %s.\n", player)
			return nil
		}

		fmt.Fprintf(out, "%-19s  %-16s  %-7s  %5s  %9s  %9s\n",
			"Time", "Opponent", "Result", "Turns", "Correct", "Health")
		fmt.Fprintln(out, strings.Repeat("─", 76))
		for _, b := range battles {
			fmt.Fprintf(out, "%-19s  %-16s  %-7s  %5d  %9s  %4d:%-4d\n",
				b.Timestamp.Local().Format("2006-01-02 15:04:05"),
				truncate(b.Opponent, 16),
				resultLabel(b),
				b.Turns,
				fmt.Sprintf("%d/%d", b.Correct, b.Plays),
				b.PlayerHealth, b.EnemyHealth,
			)
		}

		stats, err := s.Battles().Stats(ctx, player)
		if err != nil {
			return fmt.Errorf("query stats: %w", err)
		}
		fmt.Fprintln(out, strings.Repeat("─", 76))
		fmt.Fprintf(out, "Played %d  ·  won %d  ·  drawn %d  ·  lost %d  ·  accuracy %.0f%%\n",
			stats.Played, stats.Won, stats.Drawn, stats.Lost, stats.Accuracy*100)
		return nil
	},
}

func resultLabel(b store.BattleResult) string {
	switch b.Winner {
	case b.PlayerID:
		return "won"
	case battle.WinnerDraw:
		return "draw"
	default:
		return "lost"
	}
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Number of battles to show")
	historyCmd.Flags().String("player", "", "Player ID (defaults to the configured player)")
}
