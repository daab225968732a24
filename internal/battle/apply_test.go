package battle

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/abhisek/mathduel/internal/card"
)

func testHand(prefix string, n int) []card.Card {
	hand := make([]card.Card, 0, n)
	for i := 1; i <= n; i++ {
		hand = append(hand, card.Card{
			ID:         fmt.Sprintf("%s-%d", prefix, i),
			Name:       fmt.Sprintf("Card %s%d", prefix, i),
			Rarity:     card.RarityCommon,
			BasePower:  20,
			Difficulty: 3,
			Category:   card.CategoryArithmetic,
			Topic:      card.TopicAddition,
		})
	}
	return hand
}

func dealt(t *testing.T, rules Rules, playerCards, enemyCards int) State {
	t.Helper()
	s := NewState("b1", rules, Combatant{ID: "p1", Name: "Ada"}, Combatant{ID: EnemyID, Name: "Goblin"})
	s, err := Apply(s, Deal{PlayerHand: testHand("p", playerCards), EnemyHand: testHand("e", enemyCards)})
	if err != nil {
		t.Fatalf("deal: %v", err)
	}
	return s
}

func mustApply(t *testing.T, s State, ev Event) State {
	t.Helper()
	next, err := Apply(s, ev)
	if err != nil {
		t.Fatalf("Apply(%T): %v", ev, err)
	}
	return next
}

func cardCount(s State) int {
	n := 0
	for _, c := range []Combatant{s.Player, s.Enemy} {
		n += len(c.Hand) + len(c.Field) + len(c.Graveyard)
	}
	return n
}

func TestDeal(t *testing.T) {
	s := dealt(t, DefaultRules(), 5, 5)
	if s.Phase != PhaseBattle || s.Turn != SidePlayer || s.TurnCount != 1 {
		t.Fatalf("after deal: phase=%s turn=%s count=%d", s.Phase, s.Turn, s.TurnCount)
	}
	if s.Player.Health != 100 || s.Enemy.MaxHealth != 100 {
		t.Errorf("health = %d/%d", s.Player.Health, s.Enemy.MaxHealth)
	}
	if _, err := Apply(s, Deal{}); !errors.Is(err, ErrInvalidPlayRequest) {
		t.Errorf("second deal: err = %v", err)
	}
}

func TestPlayStarted_DoesNotMutateInput(t *testing.T) {
	s := dealt(t, DefaultRules(), 3, 3)
	before := s.Clone()

	next := mustApply(t, s, PlayStarted{PlayID: "play-1", Side: SidePlayer, CardID: "p-2"})
	if next.Pending == nil || next.Pending.CardID != "p-2" {
		t.Fatalf("pending = %+v", next.Pending)
	}
	if len(next.Player.Hand) != 3 {
		t.Errorf("card left the hand before resolution")
	}
	if !reflect.DeepEqual(s, before) {
		t.Error("Apply modified its input")
	}
}

func TestPlayStarted_InFlightLeavesStateUnchanged(t *testing.T) {
	s := dealt(t, DefaultRules(), 3, 3)
	s = mustApply(t, s, PlayStarted{PlayID: "play-1", Side: SidePlayer, CardID: "p-1"})
	before := s.Clone()

	got, err := Apply(s, PlayStarted{PlayID: "play-2", Side: SidePlayer, CardID: "p-2"})
	if !errors.Is(err, ErrInvalidPlayRequest) {
		t.Fatalf("err = %v, want ErrInvalidPlayRequest", err)
	}
	if !reflect.DeepEqual(got, before) || !reflect.DeepEqual(s, before) {
		t.Errorf("state changed:\n got %+v\nwant %+v", got, before)
	}
}

func TestPlayStarted_Rejects(t *testing.T) {
	s := dealt(t, DefaultRules(), 3, 3)
	ended := s.Clone()
	ended.Phase = PhaseEnded

	tests := []struct {
		name  string
		state State
		ev    PlayStarted
	}{
		{"card not in hand", s, PlayStarted{PlayID: "x", Side: SidePlayer, CardID: "e-1"}},
		{"not your turn", s, PlayStarted{PlayID: "x", Side: SideEnemy, CardID: "e-1"}},
		{"missing play id", s, PlayStarted{Side: SidePlayer, CardID: "p-1"}},
		{"battle ended", ended, PlayStarted{PlayID: "x", Side: SidePlayer, CardID: "p-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apply(tt.state, tt.ev)
			if !errors.Is(err, ErrInvalidPlayRequest) {
				t.Fatalf("err = %v", err)
			}
			if !reflect.DeepEqual(got, tt.state) {
				t.Error("state changed on rejected play")
			}
		})
	}
}

func TestPlayAborted_KeepsCardAndTurn(t *testing.T) {
	s := dealt(t, DefaultRules(), 3, 3)
	started := mustApply(t, s, PlayStarted{PlayID: "play-1", Side: SidePlayer, CardID: "p-1"})

	if _, err := Apply(started, PlayAborted{PlayID: "other"}); !errors.Is(err, ErrInvalidPlayRequest) {
		t.Errorf("abort of unknown play: err = %v", err)
	}
	aborted := mustApply(t, started, PlayAborted{PlayID: "play-1"})
	if !reflect.DeepEqual(aborted, s) {
		t.Errorf("abort did not restore the state:\n got %+v\nwant %+v", aborted, s)
	}
}

func TestPlayResolved_Rounds(t *testing.T) {
	s := dealt(t, DefaultRules(), 3, 3)
	total := cardCount(s)

	s = mustApply(t, s, PlayStarted{PlayID: "1", Side: SidePlayer, CardID: "p-1"})
	s = mustApply(t, s, PlayResolved{PlayID: "1", Correct: true, Damage: 25})
	if s.Enemy.Health != 75 || s.Player.Health != 100 {
		t.Errorf("health after hit = %d/%d", s.Player.Health, s.Enemy.Health)
	}
	if s.Turn != SideEnemy || s.TurnCount != 1 {
		t.Errorf("turn = %s count = %d, want enemy 1", s.Turn, s.TurnCount)
	}
	if len(s.Player.Field) != 1 || s.Player.Field[0].ID != "p-1" || len(s.Player.Hand) != 2 {
		t.Errorf("card did not move to the field: %+v", s.Player)
	}
	if s.Player.Streak != 1 || s.Pending != nil || s.CardsPlayed != 1 {
		t.Errorf("streak=%d pending=%v played=%d", s.Player.Streak, s.Pending, s.CardsPlayed)
	}

	s = mustApply(t, s, PlayStarted{PlayID: "2", Side: SideEnemy, CardID: "e-3"})
	s = mustApply(t, s, PlayResolved{PlayID: "2", Correct: false, Damage: 99})
	if s.Enemy.Health != 63 || s.Player.Health != 100 {
		t.Errorf("health after miss = %d/%d", s.Player.Health, s.Enemy.Health)
	}
	if s.Turn != SidePlayer || s.TurnCount != 2 {
		t.Errorf("turn = %s count = %d, want player 2", s.Turn, s.TurnCount)
	}
	if s.Enemy.Streak != 0 {
		t.Errorf("enemy streak = %d", s.Enemy.Streak)
	}
	if got := cardCount(s); got != total {
		t.Errorf("card count = %d, want %d", got, total)
	}
}

func TestPlayResolved_PenaltyClampsToZeroAndEnds(t *testing.T) {
	s := dealt(t, Rules{MaxHealth: 10, Penalty: 15}, 3, 3)
	s = mustApply(t, s, PlayStarted{PlayID: "1", Side: SidePlayer, CardID: "p-1"})
	s = mustApply(t, s, PlayResolved{PlayID: "1", Correct: false})

	if s.Player.Health != 0 {
		t.Fatalf("health = %d, want 0", s.Player.Health)
	}
	if s.Phase != PhaseResolution || s.Winner != EnemyID {
		t.Fatalf("phase=%s winner=%q", s.Phase, s.Winner)
	}
	s = mustApply(t, s, Finish{})
	if !s.Ended() {
		t.Fatalf("phase = %s, want ended", s.Phase)
	}
	if _, err := Apply(s, PlayStarted{PlayID: "2", Side: SidePlayer, CardID: "p-2"}); !errors.Is(err, ErrInvalidPlayRequest) {
		t.Errorf("play after end: err = %v", err)
	}
	if _, err := Apply(s, Finish{}); err == nil {
		t.Error("finish after end should fail")
	}
}

func TestZeroRulesUseDefaults(t *testing.T) {
	s := NewState("b", Rules{}, Combatant{ID: "p1"}, Combatant{ID: EnemyID})
	if s.Rules != DefaultRules() {
		t.Fatalf("rules = %+v, want %+v", s.Rules, DefaultRules())
	}

	s = mustApply(t, s, Deal{PlayerHand: testHand("p", 2), EnemyHand: testHand("e", 2)})
	s = mustApply(t, s, PlayStarted{PlayID: "1", Side: SidePlayer, CardID: "p-1"})
	s = mustApply(t, s, PlayResolved{PlayID: "1", Correct: false})

	if want := DefaultRules().MaxHealth - DefaultRules().Penalty; s.Player.Health != want {
		t.Fatalf("player health = %d, want %d", s.Player.Health, want)
	}
}

func TestPlayResolved_DamageClampsAtZero(t *testing.T) {
	s := dealt(t, DefaultRules(), 2, 2)
	s = mustApply(t, s, PlayStarted{PlayID: "1", Side: SidePlayer, CardID: "p-1"})
	s = mustApply(t, s, PlayResolved{PlayID: "1", Correct: true, Damage: 500})
	if s.Enemy.Health != 0 || s.Winner != "p1" || s.Phase != PhaseResolution {
		t.Errorf("enemy=%d winner=%q phase=%s", s.Enemy.Health, s.Winner, s.Phase)
	}
}

func TestPlayResolved_FieldOverflow(t *testing.T) {
	s := dealt(t, DefaultRules(), 2, 2)
	s.Player.Field = testHand("f", 3)

	s = mustApply(t, s, PlayStarted{PlayID: "1", Side: SidePlayer, CardID: "p-1"})
	s = mustApply(t, s, PlayResolved{PlayID: "1", Correct: true, Damage: 1})

	var field []string
	for _, c := range s.Player.Field {
		field = append(field, c.ID)
	}
	if want := []string{"f-2", "f-3", "p-1"}; !reflect.DeepEqual(field, want) {
		t.Errorf("field = %v, want %v", field, want)
	}
	if len(s.Player.Graveyard) != 1 || s.Player.Graveyard[0].ID != "f-1" {
		t.Errorf("graveyard = %+v", s.Player.Graveyard)
	}
}

func TestEmptyHandPassesTurn(t *testing.T) {
	s := dealt(t, DefaultRules(), 2, 0)
	s = mustApply(t, s, PlayStarted{PlayID: "1", Side: SidePlayer, CardID: "p-1"})
	s = mustApply(t, s, PlayResolved{PlayID: "1", Correct: true, Damage: 10})

	if s.Turn != SidePlayer || s.TurnCount != 2 || s.Phase != PhaseBattle {
		t.Errorf("turn=%s count=%d phase=%s, want player 2 battle", s.Turn, s.TurnCount, s.Phase)
	}
}

func TestBothHandsEmptyResolvesByHealth(t *testing.T) {
	tests := []struct {
		name    string
		correct bool
		damage  int
		winner  string
	}{
		{"player ahead", true, 10, "p1"},
		{"player behind", false, 0, EnemyID},
		{"level", true, 0, WinnerDraw},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := dealt(t, DefaultRules(), 1, 0)
			s = mustApply(t, s, PlayStarted{PlayID: "1", Side: SidePlayer, CardID: "p-1"})
			s = mustApply(t, s, PlayResolved{PlayID: "1", Correct: tt.correct, Damage: tt.damage})
			if s.Phase != PhaseResolution || s.Winner != tt.winner {
				t.Errorf("phase=%s winner=%q, want resolution %q", s.Phase, s.Winner, tt.winner)
			}
		})
	}
}

func TestDealEmptyHands(t *testing.T) {
	s := dealt(t, DefaultRules(), 0, 0)
	if s.Phase != PhaseResolution || s.Winner != WinnerDraw {
		t.Errorf("phase=%s winner=%q", s.Phase, s.Winner)
	}
}
