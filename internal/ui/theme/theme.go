package theme

import (
	"image/color"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/mathduel/internal/card"
)

// Color palette
var (
	Primary   = lipgloss.Color("#8B5CF6") // Vivid Purple
	Secondary = lipgloss.Color("#14B8A6") // Teal
	Accent    = lipgloss.Color("#F97316") // Orange
	Success   = lipgloss.Color("#22C55E") // Green
	Warning   = lipgloss.Color("#FACC15") // Yellow
	Error     = lipgloss.Color("#F43F5E") // Rose
	Text      = lipgloss.Color("#F8FAFC") // White
	TextDim   = lipgloss.Color("#94A3B8") // Slate
	BgDark    = lipgloss.Color("#0F172A") // Deep Navy
	Border    = lipgloss.Color("#334155") // Slate
)

// Rarity colors
var (
	Common    = lipgloss.Color("#CBD5E1")
	Rare      = lipgloss.Color("#38BDF8")
	Epic      = lipgloss.Color("#C084FC")
	Legendary = lipgloss.Color("#FBBF24")
)

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Subtitle = lipgloss.NewStyle().
			Foreground(TextDim)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)
)

// States
var (
	Correct = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	Incorrect = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	Critical = lipgloss.NewStyle().
			Foreground(Accent).
			Bold(true)
)

// RarityColor returns the display color of a rarity.
func RarityColor(r card.Rarity) color.Color {
	switch r {
	case card.RarityRare:
		return Rare
	case card.RarityEpic:
		return Epic
	case card.RarityLegendary:
		return Legendary
	default:
		return Common
	}
}

// RarityStyle returns the text style for a card of the given rarity.
func RarityStyle(r card.Rarity) lipgloss.Style {
	s := lipgloss.NewStyle().Foreground(RarityColor(r))
	if r == card.RarityLegendary || r == card.RarityEpic {
		s = s.Bold(true)
	}
	return s
}

// HealthColor goes from green to yellow to red as health drops.
func HealthColor(health, maxHealth int) color.Color {
	if maxHealth <= 0 {
		return Error
	}
	switch frac := float64(health) / float64(maxHealth); {
	case frac > 0.5:
		return Success
	case frac > 0.25:
		return Warning
	default:
		return Error
	}
}
