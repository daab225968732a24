// Package battle runs a duel between a player and a scripted enemy. State
// changes go through the pure Apply function; Engine wraps one battle with
// the problem generator, the damage calculator and the countdown.
package battle

import (
	"slices"

	"github.com/abhisek/mathduel/internal/card"
)

// Side identifies a combatant.
type Side string

const (
	SidePlayer Side = "player"
	SideEnemy  Side = "enemy"
)

// Other returns the opposing side.
func (s Side) Other() Side {
	if s == SidePlayer {
		return SideEnemy
	}
	return SidePlayer
}

// Phase is the stage of a battle. Phases only move forward; ended is
// terminal.
type Phase string

const (
	PhasePreparation Phase = "preparation"
	PhaseBattle      Phase = "battle"
	PhaseResolution  Phase = "resolution"
	PhaseEnded       Phase = "ended"
)

// WinnerDraw is the winner of a battle where neither side came out ahead.
const WinnerDraw = "draw"

// Rules are the constants a battle is played under.
type Rules struct {
	MaxHealth int `json:"max_health" yaml:"max_health"`
	HandSize  int `json:"hand_size" yaml:"hand_size"`

	// FieldLimit is how many played cards stay on the field. The oldest
	// card moves to the graveyard when another is played.
	FieldLimit int `json:"field_limit" yaml:"field_limit"`

	// Penalty is the damage a combatant takes for a wrong or late answer.
	// Zero means the default; a battle always charges for a miss.
	Penalty int `json:"penalty" yaml:"penalty"`
}

// DefaultRules returns the standard rules.
func DefaultRules() Rules {
	return Rules{
		MaxHealth:  100,
		HandSize:   5,
		FieldLimit: 3,
		Penalty:    12,
	}
}

func (r Rules) withDefaults() Rules {
	d := DefaultRules()
	if r.MaxHealth <= 0 {
		r.MaxHealth = d.MaxHealth
	}
	if r.HandSize <= 0 {
		r.HandSize = d.HandSize
	}
	if r.FieldLimit <= 0 {
		r.FieldLimit = d.FieldLimit
	}
	if r.Penalty <= 0 {
		r.Penalty = d.Penalty
	}
	return r
}

// Combatant is one side of a battle. A card is in exactly one of Hand,
// Field and Graveyard.
type Combatant struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Health    int         `json:"health"`
	MaxHealth int         `json:"max_health"`
	Hand      []card.Card `json:"hand"`
	Field     []card.Card `json:"field"`
	Graveyard []card.Card `json:"graveyard"`

	// Streak counts consecutive correct answers.
	Streak int `json:"streak"`
}

func (c Combatant) clone() Combatant {
	c.Hand = slices.Clone(c.Hand)
	c.Field = slices.Clone(c.Field)
	c.Graveyard = slices.Clone(c.Graveyard)
	return c
}

func (c Combatant) handIndex(cardID string) int {
	return slices.IndexFunc(c.Hand, func(x card.Card) bool { return x.ID == cardID })
}

// PendingPlay is the play in flight. While it is set no other play may
// start.
type PendingPlay struct {
	PlayID string `json:"play_id"`
	Side   Side   `json:"side"`
	CardID string `json:"card_id"`
}

// State is the whole battle. It is a value: Apply returns a new State and
// never modifies its argument.
type State struct {
	ID     string    `json:"id"`
	Rules  Rules     `json:"rules"`
	Player Combatant `json:"player"`
	Enemy  Combatant `json:"enemy"`

	Phase Phase `json:"phase"`
	Turn  Side  `json:"turn"`

	// Starter is the side that opens every round. TurnCount increments when
	// control returns to it.
	Starter   Side `json:"starter"`
	TurnCount int  `json:"turn_count"`

	// CardsPlayed counts resolved plays by both sides.
	CardsPlayed int `json:"cards_played"`

	Pending *PendingPlay `json:"pending,omitempty"`

	// Winner is a combatant id or WinnerDraw once the battle is decided.
	Winner string `json:"winner,omitempty"`
}

// NewState returns a battle in the preparation phase with both combatants
// at full health.
func NewState(id string, rules Rules, player, enemy Combatant) State {
	rules = rules.withDefaults()
	for _, c := range []*Combatant{&player, &enemy} {
		c.MaxHealth = rules.MaxHealth
		c.Health = rules.MaxHealth
		c.Hand, c.Field, c.Graveyard = nil, nil, nil
		c.Streak = 0
	}
	return State{
		ID:      id,
		Rules:   rules,
		Player:  player,
		Enemy:   enemy,
		Phase:   PhasePreparation,
		Turn:    SidePlayer,
		Starter: SidePlayer,
	}
}

// Clone returns a deep copy.
func (s State) Clone() State {
	s.Player = s.Player.clone()
	s.Enemy = s.Enemy.clone()
	if s.Pending != nil {
		p := *s.Pending
		s.Pending = &p
	}
	return s
}

// Combatant returns the combatant on the given side.
func (s *State) Combatant(side Side) *Combatant {
	if side == SideEnemy {
		return &s.Enemy
	}
	return &s.Player
}

// Ended reports whether the battle is over.
func (s State) Ended() bool { return s.Phase == PhaseEnded }
