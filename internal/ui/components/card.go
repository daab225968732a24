package components

import (
	"fmt"
	"image/color"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/mathduel/internal/card"
	"github.com/abhisek/mathduel/internal/ui/theme"
)

// CardLine renders a card on one line. A positive index is shown as the
// number to type to play it.
func CardLine(c card.Card, index int) string {
	var b strings.Builder
	if index > 0 {
		fmt.Fprintf(&b, "%2d) ", index)
	}
	b.WriteString(theme.RarityStyle(c.Rarity).Render(fmt.Sprintf("%-18s", c.Name)))
	b.WriteString(theme.Subtitle.Render(fmt.Sprintf(" %-9s power %-3d d%-2d %s",
		c.Rarity.DisplayName(), c.BasePower, c.Difficulty, c.Topic)))
	return b.String()
}

// CardList renders cards one per line, numbered from 1 when numbered is set.
func CardList(cards []card.Card, numbered bool) string {
	if len(cards) == 0 {
		return theme.Hint.Render("(none)")
	}
	lines := make([]string, len(cards))
	for i, c := range cards {
		idx := 0
		if numbered {
			idx = i + 1
		}
		lines[i] = CardLine(c, idx)
	}
	return strings.Join(lines, "\n")
}

// Box wraps content in a rounded border.
func Box(content string, border color.Color) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		Render(content)
}
