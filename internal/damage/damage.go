// Package damage scores a resolved play. Everything here is pure: the same
// input always gives the same result and out-of-range inputs are clamped.
package damage

import (
	"math"

	"github.com/abhisek/mathduel/internal/card"
)

const (
	// MaxStreak caps the streak bonus.
	MaxStreak = 5

	streakStep    = 0.05
	speedWeight   = 0.5
	minSpeed      = 0.5
	maxSpeed      = 1.5
	bonusPivot    = 5
	bonusStep     = 0.1
	hintStep      = 0.05
	criticalFrac  = 0.2
	criticalBonus = 1.2
)

// Input is everything the calculator needs about one play.
type Input struct {
	BasePower   int
	Rarity      card.Rarity
	Correct     bool
	ResponseMs  int64
	AllowanceMs int64
	HintsUsed   int
	Difficulty  int // realized difficulty of the problem
	Streak      int // consecutive correct answers before this one
}

// Result is the final damage with the multipliers that produced it.
type Result struct {
	Base            int     `json:"base"`
	Accuracy        float64 `json:"accuracy"`
	Speed           float64 `json:"speed"`
	Rarity          float64 `json:"rarity"`
	Streak          float64 `json:"streak"`
	DifficultyBonus float64 `json:"difficulty_bonus"`
	HintPenalty     float64 `json:"hint_penalty"`

	// Factor is 1 + DifficultyBonus - HintPenalty, floored at 0.
	Factor float64 `json:"factor"`

	// BeforeCritical is the floored damage without the critical bonus.
	BeforeCritical int  `json:"before_critical"`
	Critical       bool `json:"critical"`
	Final          int  `json:"final"`
}

// Score computes the damage for one play. An incorrect answer always deals
// zero.
func Score(in Input) Result {
	in = normalize(in)

	r := Result{
		Base:            in.BasePower,
		Speed:           SpeedMultiplier(in.ResponseMs, in.AllowanceMs),
		Rarity:          in.Rarity.Multiplier(),
		Streak:          StreakMultiplier(in.Streak),
		DifficultyBonus: DifficultyBonus(in.Difficulty),
		HintPenalty:     float64(in.HintsUsed) * hintStep,
	}
	if in.Correct {
		r.Accuracy = 1
	}
	r.Factor = math.Max(0, 1+r.DifficultyBonus-r.HintPenalty)

	raw := float64(r.Base) * r.Accuracy * r.Speed * r.Rarity * r.Streak * r.Factor
	r.BeforeCritical = int(math.Floor(raw))

	r.Critical = in.Correct && in.AllowanceMs > 0 && float64(in.ResponseMs) < float64(in.AllowanceMs)*criticalFrac
	if r.Critical {
		raw *= criticalBonus
	}
	r.Final = int(math.Floor(raw))
	return r
}

// SpeedMultiplier is 1.5 for an instant answer and 1.0 at exactly the
// allowance. It keeps falling past the allowance and bottoms out at 0.5 from
// twice the allowance on. Without an allowance the speed is neutral.
func SpeedMultiplier(responseMs, allowanceMs int64) float64 {
	if allowanceMs <= 0 {
		return 1
	}
	responseMs = max(0, responseMs)
	s := 1 + float64(allowanceMs-responseMs)/float64(allowanceMs)*speedWeight
	return math.Max(minSpeed, math.Min(maxSpeed, s))
}

// StreakMultiplier gives 5% per consecutive correct answer, up to MaxStreak.
func StreakMultiplier(streak int) float64 {
	return 1 + float64(min(max(streak, 0), MaxStreak))*streakStep
}

// DifficultyBonus rewards problems harder than 5.
func DifficultyBonus(d int) float64 {
	return math.Max(0, float64(d-bonusPivot)*bonusStep)
}

func normalize(in Input) Input {
	in.BasePower = max(0, in.BasePower)
	in.ResponseMs = max(0, in.ResponseMs)
	in.HintsUsed = max(0, in.HintsUsed)
	in.Difficulty = min(card.MaxDifficulty, max(card.MinDifficulty, in.Difficulty))
	in.Streak = max(0, in.Streak)
	return in
}
