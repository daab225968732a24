// Package difficulty maps a card's nominal difficulty and a player's recent
// performance to the difficulty actually requested from the problem generator.
package difficulty

import (
	"math"

	"github.com/abhisek/mathduel/internal/card"
	"github.com/abhisek/mathduel/internal/profile"
)

// Config tunes the adapter.
type Config struct {
	// Ceiling is the highest difficulty the adapter will ever request.
	Ceiling int

	// Undershoot is subtracted from the card's base difficulty up front.
	Undershoot float64

	// SkillStep is the adjustment per skill level above or below the pivot.
	SkillStep float64

	// SkillPivot is the level at which the skill adjustment is zero.
	SkillPivot int

	// SkillBound caps the absolute skill adjustment.
	SkillBound float64

	// MistakePenalty is subtracted when the topic was recently missed.
	MistakePenalty float64
}

// DefaultConfig returns the standard tuning. The ceiling of 4 keeps problems
// approachable.
func DefaultConfig() Config {
	return Config{
		Ceiling:        4,
		Undershoot:     2,
		SkillStep:      0.2,
		SkillPivot:     3,
		SkillBound:     0.6,
		MistakePenalty: 2,
	}
}

// Adapter computes target difficulties. It is stateless and safe for
// concurrent use.
type Adapter struct {
	cfg Config
}

// New creates an Adapter. A non-positive ceiling falls back to the default.
func New(cfg Config) *Adapter {
	if cfg.Ceiling < 1 {
		cfg.Ceiling = DefaultConfig().Ceiling
	}
	if cfg.Ceiling > card.MaxDifficulty {
		cfg.Ceiling = card.MaxDifficulty
	}
	return &Adapter{cfg: cfg}
}

// Ceiling returns the configured upper bound.
func (a *Adapter) Ceiling() int { return a.cfg.Ceiling }

// Adapt returns the target difficulty in [1, Ceiling] for a card of the given
// base difficulty and topic. Out-of-range inputs are clamped.
func (a *Adapter) Adapt(base int, topic card.Topic, p *profile.Profile) int {
	base = clampInt(base, card.MinDifficulty, card.MaxDifficulty)
	d := math.Max(1, float64(base)-a.cfg.Undershoot)

	if p != nil {
		skill := float64(p.Level-a.cfg.SkillPivot) * a.cfg.SkillStep
		d += clamp(skill, -a.cfg.SkillBound, a.cfg.SkillBound)

		d += AccuracyAdjustment(p.Accuracy)

		if p.IsRecentMistake(topic) {
			d = math.Max(1, d-a.cfg.MistakePenalty)
		}
	}

	return clampInt(int(math.Round(d)), 1, a.cfg.Ceiling)
}

// AccuracyAdjustment returns the difficulty shift for a rolling accuracy.
// The band [0.7, 0.8) has no rule and shifts nothing, the same as (0.8, 0.9].
func AccuracyAdjustment(accuracy float64) float64 {
	accuracy = clamp(accuracy, 0, 1)
	switch {
	case accuracy > 0.9:
		return 0.3
	case accuracy > 0.8:
		return 0
	case accuracy >= 0.7:
		return 0
	case accuracy >= 0.5:
		return -1
	default:
		return -2
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
