package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/mathduel/internal/battle"
	"github.com/abhisek/mathduel/internal/damage"
	"github.com/abhisek/mathduel/internal/problemgen"
	"github.com/abhisek/mathduel/internal/ui/theme"
)

// ProblemView renders a problem with its first hints revealed. Options are
// numbered from 1; the number is accepted as an answer.
func ProblemView(p *problemgen.Problem, hintsShown int) string {
	question := lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render(p.Text)
	s := question + "\n"
	s += theme.Subtitle.Render(fmt.Sprintf("difficulty %d  ·  %ds", p.Difficulty, int(p.TimeAllowance.Seconds()))) + "\n"

	if len(p.Options) > 0 {
		s += "\n"
		for i, opt := range p.Options {
			s += theme.Body.Render(fmt.Sprintf("  %d)  %s", i+1, opt)) + "\n"
		}
	}

	for i := 0; i < hintsShown && i < len(p.Hints); i++ {
		s += theme.Hint.Render(fmt.Sprintf("hint %d: %s", i+1, p.Hints[i])) + "\n"
	}
	return s
}

// PreviewLine renders the damage range of a play.
func PreviewLine(r damage.Range) string {
	return theme.Subtitle.Render(fmt.Sprintf("damage %d to %d, about %d", r.Min, r.Max, r.Expected))
}

// AnswerView renders the outcome of a resolved play from the player's side.
func AnswerView(res *battle.AnswerResult, actor string) string {
	var lines []string
	switch {
	case res.TimedOut:
		lines = append(lines, theme.Incorrect.Render(fmt.Sprintf("Time's up! %s takes %d damage.", actor, res.Penalty)))
	case !res.IsCorrect:
		lines = append(lines, theme.Incorrect.Render(fmt.Sprintf("Wrong! %s takes %d damage.", actor, res.Penalty)))
	case res.Damage.Critical:
		lines = append(lines, theme.Critical.Render(fmt.Sprintf("Critical hit! %s deals %d damage.", actor, res.Damage.Final)))
	default:
		lines = append(lines, theme.Correct.Render(fmt.Sprintf("Correct! %s deals %d damage.", actor, res.Damage.Final)))
	}
	if !res.IsCorrect {
		lines = append(lines, theme.Subtitle.Render("answer: "+res.CorrectAnswer))
		if res.Explanation != "" {
			lines = append(lines, theme.Hint.Render(res.Explanation))
		}
	}
	return strings.Join(lines, "\n")
}
