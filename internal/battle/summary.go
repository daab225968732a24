package battle

import "github.com/abhisek/mathduel/internal/card"

// CombatantSummary is the public view of a combatant. The enemy's hand is
// reported by size only.
type CombatantSummary struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Health    int         `json:"health"`
	MaxHealth int         `json:"max_health"`
	Streak    int         `json:"streak"`
	HandSize  int         `json:"hand_size"`
	Hand      []card.Card `json:"hand,omitempty"`
	Field     []card.Card `json:"field"`
	Graveyard int         `json:"graveyard"`
}

// Summary is the battle as shown to the player after every change.
type Summary struct {
	ID          string           `json:"id"`
	Phase       Phase            `json:"phase"`
	Turn        Side             `json:"turn"`
	TurnCount   int              `json:"turn_count"`
	CardsPlayed int              `json:"cards_played"`
	Winner      string           `json:"winner,omitempty"`
	PendingPlay string           `json:"pending_play,omitempty"`
	Player      CombatantSummary `json:"player"`
	Enemy       CombatantSummary `json:"enemy"`
}

func summarize(s State) Summary {
	sum := Summary{
		ID:          s.ID,
		Phase:       s.Phase,
		Turn:        s.Turn,
		TurnCount:   s.TurnCount,
		CardsPlayed: s.CardsPlayed,
		Winner:      s.Winner,
		Player:      summarizeCombatant(s.Player, true),
		Enemy:       summarizeCombatant(s.Enemy, false),
	}
	if s.Pending != nil {
		sum.PendingPlay = s.Pending.PlayID
	}
	return sum
}

func summarizeCombatant(c Combatant, showHand bool) CombatantSummary {
	cs := CombatantSummary{
		ID:        c.ID,
		Name:      c.Name,
		Health:    c.Health,
		MaxHealth: c.MaxHealth,
		Streak:    c.Streak,
		HandSize:  len(c.Hand),
		Field:     append([]card.Card{}, c.Field...),
		Graveyard: len(c.Graveyard),
	}
	if showHand {
		cs.Hand = append([]card.Card{}, c.Hand...)
	}
	return cs
}
