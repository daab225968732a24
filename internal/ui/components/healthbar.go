package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/mathduel/internal/ui/theme"
)

// HealthBar displays a combatant's health as a horizontal bar.
type HealthBar struct {
	Label  string
	Health int
	Max    int
	Width  int
}

// NewHealthBar creates a health bar.
func NewHealthBar(label string, health, maxHealth, width int) HealthBar {
	return HealthBar{Label: label, Health: health, Max: maxHealth, Width: width}
}

// View renders the bar followed by "health/max".
func (h HealthBar) View() string {
	var result string
	if h.Label != "" {
		result += lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render(h.Label) + "  "
	}

	counter := fmt.Sprintf("  %d/%d", h.Health, h.Max)
	barWidth := h.Width - lipgloss.Width(result) - len(counter)
	if barWidth < 4 {
		barWidth = 4
	}

	filled := 0
	if h.Max > 0 {
		filled = barWidth * h.Health / h.Max
	}
	filled = min(max(filled, 0), barWidth)
	if h.Health > 0 && filled == 0 {
		filled = 1
	}

	result += lipgloss.NewStyle().
		Background(theme.HealthColor(h.Health, h.Max)).
		Render(strings.Repeat(" ", filled))
	result += lipgloss.NewStyle().
		Background(theme.Border).
		Render(strings.Repeat(" ", barWidth-filled))

	return result + lipgloss.NewStyle().Foreground(theme.TextDim).Render(counter)
}
