package battle

import (
	"fmt"
	"slices"

	"github.com/abhisek/mathduel/internal/card"
)

// Event is a state transition. The set is closed.
type Event interface {
	event()
}

// Deal hands out the opening hands and starts the battle.
type Deal struct {
	PlayerHand []card.Card
	EnemyHand  []card.Card
}

// PlayStarted locks the battle on a card play.
type PlayStarted struct {
	PlayID string
	Side   Side
	CardID string
}

// PlayAborted releases the lock without consuming the card or the turn.
type PlayAborted struct {
	PlayID string
}

// PlayResolved settles the play in flight. Damage is dealt to the
// opponent when Correct; otherwise the playing side takes the penalty.
type PlayResolved struct {
	PlayID  string
	Correct bool
	Damage  int
}

// Finish moves a battle in resolution to ended.
type Finish struct{}

func (Deal) event()         {}
func (PlayStarted) event()  {}
func (PlayAborted) event()  {}
func (PlayResolved) event() {}
func (Finish) event()       {}

// Apply returns the state after ev. On error the returned state is s
// itself, unchanged.
func Apply(s State, ev Event) (State, error) {
	switch ev := ev.(type) {
	case Deal:
		return applyDeal(s, ev)
	case PlayStarted:
		return applyPlayStarted(s, ev)
	case PlayAborted:
		return applyPlayAborted(s, ev)
	case PlayResolved:
		return applyPlayResolved(s, ev)
	case Finish:
		return applyFinish(s)
	default:
		return s, fmt.Errorf("unknown event %T", ev)
	}
}

func applyDeal(s State, ev Deal) (State, error) {
	if s.Phase != PhasePreparation {
		return s, fmt.Errorf("%w: hands already dealt", ErrInvalidPlayRequest)
	}
	next := s.Clone()
	next.Player.Hand = slices.Clone(ev.PlayerHand)
	next.Enemy.Hand = slices.Clone(ev.EnemyHand)
	next.Phase = PhaseBattle
	next.Turn = next.Starter
	next.TurnCount = 1
	skipEmptyHands(&next)
	return next, nil
}

func applyPlayStarted(s State, ev PlayStarted) (State, error) {
	switch {
	case s.Phase != PhaseBattle:
		return s, fmt.Errorf("%w: battle is in %s", ErrInvalidPlayRequest, s.Phase)
	case s.Pending != nil:
		return s, fmt.Errorf("%w: play %s is in flight", ErrInvalidPlayRequest, s.Pending.PlayID)
	case ev.Side != s.Turn:
		return s, fmt.Errorf("%w: it is the %s's turn", ErrInvalidPlayRequest, s.Turn)
	case ev.PlayID == "":
		return s, fmt.Errorf("%w: missing play id", ErrInvalidPlayRequest)
	}
	if s.Combatant(ev.Side).handIndex(ev.CardID) < 0 {
		return s, fmt.Errorf("%w: card %q is not in hand", ErrInvalidPlayRequest, ev.CardID)
	}

	next := s.Clone()
	next.Pending = &PendingPlay{PlayID: ev.PlayID, Side: ev.Side, CardID: ev.CardID}
	return next, nil
}

func applyPlayAborted(s State, ev PlayAborted) (State, error) {
	if s.Pending == nil || s.Pending.PlayID != ev.PlayID {
		return s, fmt.Errorf("%w: play %s is not in flight", ErrInvalidPlayRequest, ev.PlayID)
	}
	next := s.Clone()
	next.Pending = nil
	return next, nil
}

func applyPlayResolved(s State, ev PlayResolved) (State, error) {
	if s.Pending == nil || s.Pending.PlayID != ev.PlayID {
		return s, fmt.Errorf("%w: play %s is not in flight", ErrInvalidPlayRequest, ev.PlayID)
	}

	next := s.Clone()
	side := next.Pending.Side
	self := next.Combatant(side)
	foe := next.Combatant(side.Other())

	i := self.handIndex(next.Pending.CardID)
	if i < 0 {
		return s, fmt.Errorf("%w: card %q left the hand", ErrInvalidPlayRequest, next.Pending.CardID)
	}
	played := self.Hand[i]
	self.Hand = slices.Delete(self.Hand, i, i+1)
	self.Field = append(self.Field, played)
	if over := len(self.Field) - next.Rules.FieldLimit; over > 0 {
		self.Graveyard = append(self.Graveyard, self.Field[:over]...)
		self.Field = slices.Delete(self.Field, 0, over)
	}

	if ev.Correct {
		foe.Health = clampHealth(foe.Health-max(0, ev.Damage), foe.MaxHealth)
		self.Streak++
	} else {
		self.Health = clampHealth(self.Health-next.Rules.Penalty, self.MaxHealth)
		self.Streak = 0
	}

	next.Pending = nil
	next.CardsPlayed++

	if next.Player.Health == 0 || next.Enemy.Health == 0 {
		resolve(&next)
		return next, nil
	}

	advanceTurn(&next)
	skipEmptyHands(&next)
	return next, nil
}

func applyFinish(s State) (State, error) {
	if s.Phase != PhaseResolution {
		return s, fmt.Errorf("%w: battle is in %s", ErrInvalidPlayRequest, s.Phase)
	}
	next := s.Clone()
	next.Phase = PhaseEnded
	return next, nil
}

// resolve decides the winner by remaining health and enters resolution.
func resolve(s *State) {
	s.Phase = PhaseResolution
	s.Pending = nil
	switch {
	case s.Player.Health > s.Enemy.Health:
		s.Winner = s.Player.ID
	case s.Enemy.Health > s.Player.Health:
		s.Winner = s.Enemy.ID
	default:
		s.Winner = WinnerDraw
	}
}

func advanceTurn(s *State) {
	s.Turn = s.Turn.Other()
	if s.Turn == s.Starter {
		s.TurnCount++
	}
}

// skipEmptyHands passes the turn of a side with nothing to play. When
// neither side can play the battle goes to resolution.
func skipEmptyHands(s *State) {
	if s.Phase != PhaseBattle {
		return
	}
	if len(s.Player.Hand) == 0 && len(s.Enemy.Hand) == 0 {
		resolve(s)
		return
	}
	if len(s.Combatant(s.Turn).Hand) == 0 {
		advanceTurn(s)
	}
}

func clampHealth(h, maxHealth int) int {
	return max(0, min(maxHealth, h))
}
