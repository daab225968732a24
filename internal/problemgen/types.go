// Package problemgen turns a played card into a problem. It asks the
// external collaborator for one under a deadline and falls back to a locally
// computed arithmetic problem whenever that fails.
package problemgen

import (
	"time"

	"github.com/abhisek/mathduel/internal/card"
	"github.com/abhisek/mathduel/internal/profile"
)

// Phase is the coarse stage of a battle.
type Phase string

const (
	PhaseEarly Phase = "early"
	PhaseMid   Phase = "mid"
	PhaseLate  Phase = "late"
)

// Preference biases the target difficulty of generated problems.
type Preference string

const (
	PreferencePractice  Preference = "practice"
	PreferenceAdaptive  Preference = "adaptive"
	PreferenceChallenge Preference = "challenge"
)

// BattleContext describes the battle a problem is generated for. Only the
// phase, cards played and time remaining are sent to the collaborator.
type BattleContext struct {
	Phase            Phase `json:"phase"`
	CardsPlayed      int   `json:"cards_played"`
	TimeRemainingSec int   `json:"time_remaining"`

	OpponentArchetype string     `json:"-"`
	PlayerHealth      int        `json:"-"`
	OpponentHealth    int        `json:"-"`
	Preference        Preference `json:"-"`
}

// Source records where a problem came from.
type Source string

const (
	SourceCollaborator Source = "collaborator"
	SourceFallback     Source = "fallback"
)

// Problem is a generated problem. It is immutable once returned and lives
// only as long as the play it was generated for.
type Problem struct {
	Text   string
	Answer string

	// Options is empty for free-response problems.
	Options []string

	// Hints are ordered from least to most revealing.
	Hints []string

	Explanation string

	// Difficulty is the realized difficulty, always in [1, 10].
	Difficulty int

	TimeAllowance time.Duration
	Topic         card.Topic
	Source        Source
}

// Input is everything needed to generate the problem for one play.
type Input struct {
	Card    card.Card
	Profile *profile.Profile
	Battle  BattleContext

	// Seed drives the procedural fallback.
	Seed uint64

	// PriorProblems holds the texts of problems already used in this
	// battle, oldest first.
	PriorProblems []string
}

// Request is the generation request sent to the collaborator. It carries no
// player identifiers.
type Request struct {
	TopicCategory    card.Category   `json:"topic_category"`
	TopicCode        card.Topic      `json:"topic_code"`
	TargetDifficulty int             `json:"target_difficulty"`
	PlayerContext    profile.Context `json:"player_context"`
	BattleContext    BattleContext   `json:"battle_context"`
	CardDisplayName  string          `json:"card_display_name"`
	CardRarity       card.Rarity     `json:"card_rarity"`

	PriorProblems []string `json:"-"`
}
