package components

import (
	"fmt"
	"strings"

	"github.com/abhisek/mathduel/internal/battle"
	"github.com/abhisek/mathduel/internal/ui/theme"
)

// Board renders both combatants, their fields and the player's hand.
func Board(s battle.Summary, width int) string {
	var b strings.Builder

	b.WriteString(NewHealthBar(s.Enemy.Name, s.Enemy.Health, s.Enemy.MaxHealth, width).View())
	b.WriteString("\n")
	b.WriteString(theme.Subtitle.Render(fmt.Sprintf("cards in hand: %d  ·  graveyard: %d", s.Enemy.HandSize, s.Enemy.Graveyard)))
	b.WriteString("\n")
	b.WriteString(CardList(s.Enemy.Field, false))
	b.WriteString("\n\n")

	b.WriteString(CardList(s.Player.Field, false))
	b.WriteString("\n")
	b.WriteString(NewHealthBar(s.Player.Name, s.Player.Health, s.Player.MaxHealth, width).View())
	b.WriteString("\n")
	if s.Player.Streak > 0 {
		b.WriteString(theme.Critical.Render(fmt.Sprintf("streak x%d", s.Player.Streak)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(theme.Title.Render("Your hand"))
	b.WriteString("\n")
	b.WriteString(CardList(s.Player.Hand, true))
	return b.String()
}

// Outcome renders the end of a battle.
func Outcome(s battle.Summary) string {
	switch s.Winner {
	case "":
		return ""
	case battle.WinnerDraw:
		return theme.Title.Render("It's a draw!")
	case s.Player.ID:
		return theme.Correct.Render(fmt.Sprintf("%s wins in %d turns!", s.Player.Name, s.TurnCount))
	default:
		return theme.Incorrect.Render(fmt.Sprintf("%s wins. Better luck next time!", s.Enemy.Name))
	}
}
