package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/mathduel/internal/card"
	"github.com/abhisek/mathduel/internal/ui/components"
	"github.com/abhisek/mathduel/internal/ui/theme"
)

var cardsCmd = &cobra.Command{
	Use:   "cards",
	Short: "List the card catalog (optionally filtered by category)",
	RunE: func(cmd *cobra.Command, args []string) error {
		category, _ := cmd.Flags().GetString("category")
		cat := card.DefaultCatalog()
		out := cmd.OutOrStdout()

		groups := cat.ByRarity()
		total := 0
		for _, r := range card.AllRarities() {
			var cards []card.Card
			for _, c := range groups[r] {
				if category == "" || string(c.Category) == category {
					cards = append(cards, c)
				}
			}
			if len(cards) == 0 {
				continue
			}
			fmt.Fprintln(out, theme.RarityStyle(r).Render(r.DisplayName()))
			fmt.Fprintln(out, components.CardList(cards, false))
			fmt.Fprintln(out)
			total += len(cards)
		}

		if total == 0 {
			return fmt.Errorf("no cards found for category %q", category)
		}
		fmt.Fprintf(out, "%d cards\n", total)
		return nil
	},
}

func init() {
	cardsCmd.Flags().String("category", "", "Filter by category (arithmetic, algebra, geometry, logic, statistics)")
}
