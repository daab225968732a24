package damage

import "github.com/abhisek/mathduel/internal/card"

// Range bounds the damage a play can deal before it is answered.
type Range struct {
	Min      int `json:"min"`
	Max      int `json:"max"`
	Expected int `json:"expected"`
}

// Preview runs the calculator over the plausible inputs for a card. The
// minimum is a wrong or timed-out answer, the maximum an instant correct
// answer, and the expected value a correct unhinted answer at half the
// allowance.
func Preview(c card.Card, difficulty int, allowanceMs int64, streak int) Range {
	in := Input{
		BasePower:   c.BasePower,
		Rarity:      c.Rarity,
		AllowanceMs: allowanceMs,
		Difficulty:  difficulty,
		Streak:      streak,
	}

	worst := in
	worst.ResponseMs = allowanceMs

	best := in
	best.Correct = true

	typical := in
	typical.Correct = true
	typical.ResponseMs = allowanceMs / 2

	return Range{
		Min:      Score(worst).Final,
		Max:      Score(best).Final,
		Expected: Score(typical).Final,
	}
}
