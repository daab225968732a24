package battle

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/abhisek/mathduel/internal/card"
	"github.com/abhisek/mathduel/internal/problemgen"
	"github.com/abhisek/mathduel/internal/store"
)

type stubGenerator struct {
	mu      sync.Mutex
	problem problemgen.Problem
	err     error
	gate    chan struct{}
	entered chan struct{}
	inputs  []problemgen.Input
}

func (g *stubGenerator) Generate(ctx context.Context, in problemgen.Input) (*problemgen.Problem, error) {
	g.mu.Lock()
	g.inputs = append(g.inputs, in)
	gate, entered, err := g.gate, g.entered, g.err
	g.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	p := g.problem
	p.Topic = in.Card.Topic
	return &p, nil
}

func (g *stubGenerator) lastInput() problemgen.Input {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inputs[len(g.inputs)-1]
}

func additionProblem(allowance time.Duration) problemgen.Problem {
	return problemgen.Problem{
		Text:          "What is 2 + 3?",
		Answer:        "5",
		Explanation:   "2 + 3 = 5",
		Difficulty:    3,
		TimeAllowance: allowance,
		Source:        problemgen.SourceFallback,
	}
}

type memOutcomes struct {
	mu      sync.Mutex
	records []store.OutcomeRecord
}

func (m *memOutcomes) AppendOutcome(_ context.Context, rec store.OutcomeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

func (m *memOutcomes) RecentOutcomes(_ context.Context, playerID string, limit int) ([]store.OutcomeRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []store.OutcomeRecord
	for _, r := range m.records {
		if r.PlayerID == playerID {
			out = append(out, r)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

type memResults struct {
	mu      sync.Mutex
	results []store.BattleResult
}

func (m *memResults) AppendBattleResult(_ context.Context, res store.BattleResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, res)
	return nil
}

func (m *memResults) QueryBattles(context.Context, string, store.QueryOpts) ([]store.BattleResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]store.BattleResult(nil), m.results...), nil
}

func (m *memResults) Stats(context.Context, string) (store.BattleStats, error) {
	return store.BattleStats{}, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(t *testing.T, gen problemgen.Generator, mod func(*Options)) *Engine {
	t.Helper()
	opts := Options{
		ID:         "b1",
		Player:     Combatant{ID: "p1", Name: "Ada"},
		Enemy:      Combatant{Name: "Goblin"},
		PlayerHand: testHand("p", 3),
		EnemyHand:  testHand("e", 3),
		Generator:  gen,
		Strategy:   NewBernoulli(0, 1),
		Seed:       7,
		Logger:     quietLogger(),
	}
	if mod != nil {
		mod(&opts)
	}
	e, err := NewEngine(opts)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func playerPlay(t *testing.T, e *Engine, cardID string) *PlayResult {
	t.Helper()
	pr, err := e.PlayCard(context.Background(), PlayRequest{CardID: cardID, CombatantID: "p1"})
	if err != nil {
		t.Fatalf("PlayCard(%s): %v", cardID, err)
	}
	return pr
}

func TestEngine_CorrectAnswer(t *testing.T) {
	gen := &stubGenerator{problem: additionProblem(30 * time.Second)}
	e := newTestEngine(t, gen, nil)

	pr := playerPlay(t, e, "p-2")
	if pr.Problem.Text != "What is 2 + 3?" || pr.Side != SidePlayer || pr.Card.ID != "p-2" {
		t.Fatalf("play = %+v", pr)
	}
	if pr.Preview.Min != 0 || pr.Preview.Max != 36 || pr.Preview.Expected != 25 {
		t.Errorf("preview = %+v", pr.Preview)
	}
	if got := e.State().Pending; got == nil || got.PlayID != pr.PlayID {
		t.Fatalf("pending = %+v", got)
	}

	res, err := e.SubmitAnswer(context.Background(), AnswerRequest{PlayID: pr.PlayID, Answer: " 5 ", ResponseTimeMs: 15000})
	if err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	if !res.IsCorrect || res.TimedOut || res.Damage.Final != 25 || res.Penalty != 0 {
		t.Errorf("result = %+v", res)
	}
	if res.Summary.Enemy.Health != 75 || res.Summary.Turn != SideEnemy {
		t.Errorf("summary = %+v", res.Summary)
	}
	if res.Summary.Enemy.Hand != nil || res.Summary.Enemy.HandSize != 3 {
		t.Errorf("enemy hand leaked: %+v", res.Summary.Enemy)
	}

	if _, err := e.SubmitAnswer(context.Background(), AnswerRequest{PlayID: pr.PlayID, Answer: "5"}); !errors.Is(err, ErrInvalidPlayRequest) {
		t.Errorf("second answer: err = %v", err)
	}
}

func TestEngine_WrongAnswerCostsPenalty(t *testing.T) {
	e := newTestEngine(t, &stubGenerator{problem: additionProblem(30 * time.Second)}, nil)
	pr := playerPlay(t, e, "p-1")

	res, err := e.SubmitAnswer(context.Background(), AnswerRequest{PlayID: pr.PlayID, Answer: "6", ResponseTimeMs: 1000})
	if err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	if res.IsCorrect || res.Damage.Final != 0 || res.Penalty != 12 {
		t.Errorf("result = %+v", res)
	}
	if res.Summary.Player.Health != 88 || res.Summary.Enemy.Health != 100 {
		t.Errorf("health = %d/%d", res.Summary.Player.Health, res.Summary.Enemy.Health)
	}
	if res.CorrectAnswer != "5" {
		t.Errorf("correct answer = %q", res.CorrectAnswer)
	}
}

func TestEngine_MalformedAnswerKeepsPlayOpen(t *testing.T) {
	e := newTestEngine(t, &stubGenerator{problem: additionProblem(30 * time.Second)}, nil)
	pr := playerPlay(t, e, "p-1")
	before := e.State()

	for _, answer := range []string{"", "   ", "five"} {
		_, err := e.SubmitAnswer(context.Background(), AnswerRequest{PlayID: pr.PlayID, Answer: answer, ResponseTimeMs: 1000})
		if !errors.Is(err, ErrMalformedAnswer) {
			t.Errorf("answer %q: err = %v", answer, err)
		}
	}
	if !reflect.DeepEqual(e.State(), before) {
		t.Error("malformed answer changed the state")
	}
	if _, err := e.SubmitAnswer(context.Background(), AnswerRequest{PlayID: pr.PlayID, Answer: "5", ResponseTimeMs: 1000}); err != nil {
		t.Errorf("answer after retry prompt: %v", err)
	}
}

func TestEngine_LateAnswerTimesOut(t *testing.T) {
	e := newTestEngine(t, &stubGenerator{problem: additionProblem(30 * time.Second)}, nil)
	pr := playerPlay(t, e, "p-1")

	res, err := e.SubmitAnswer(context.Background(), AnswerRequest{PlayID: pr.PlayID, Answer: "5", ResponseTimeMs: 31000})
	if err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	if !res.TimedOut || res.IsCorrect || res.Summary.Player.Health != 88 {
		t.Errorf("result = %+v", res)
	}
	if _, err := e.SubmitAnswer(context.Background(), AnswerRequest{PlayID: pr.PlayID, Answer: "5"}); !errors.Is(err, ErrTimeoutExpired) {
		t.Errorf("answer after timeout: err = %v", err)
	}
}

func TestEngine_ServerClockDeadline(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	e := newTestEngine(t, &stubGenerator{problem: additionProblem(30 * time.Second)}, func(o *Options) { o.Now = clock })
	pr := playerPlay(t, e, "p-1")

	mu.Lock()
	now = now.Add(45 * time.Second)
	mu.Unlock()

	res, err := e.SubmitAnswer(context.Background(), AnswerRequest{PlayID: pr.PlayID, Answer: "5", ResponseTimeMs: 2000})
	if err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	if !res.TimedOut {
		t.Errorf("answer 45s after a 30s deadline was accepted: %+v", res)
	}
}

func TestEngine_SecondPlayWhileGenerating(t *testing.T) {
	gen := &stubGenerator{
		problem: additionProblem(30 * time.Second),
		gate:    make(chan struct{}),
		entered: make(chan struct{}, 1),
	}
	e := newTestEngine(t, gen, nil)

	done := make(chan error, 1)
	go func() {
		_, err := e.PlayCard(context.Background(), PlayRequest{CardID: "p-1", CombatantID: "p1"})
		done <- err
	}()
	<-gen.entered

	before := e.State()
	_, err := e.PlayCard(context.Background(), PlayRequest{CardID: "p-2", CombatantID: "p1"})
	if !errors.Is(err, ErrInvalidPlayRequest) {
		t.Fatalf("second play: err = %v", err)
	}
	if after := e.State(); !reflect.DeepEqual(before, after) {
		t.Errorf("rejected play changed the state:\n got %+v\nwant %+v", after, before)
	}

	close(gen.gate)
	if err := <-done; err != nil {
		t.Fatalf("first play: %v", err)
	}
}

func TestEngine_GenerationFailureAbortsPlay(t *testing.T) {
	gen := &stubGenerator{err: problemgen.ErrGenerationUnavailable}
	e := newTestEngine(t, gen, nil)
	before := e.State()

	_, err := e.PlayCard(context.Background(), PlayRequest{CardID: "p-1", CombatantID: "p1"})
	if !errors.Is(err, problemgen.ErrGenerationUnavailable) {
		t.Fatalf("err = %v", err)
	}
	after := e.State()
	if !reflect.DeepEqual(before, after) {
		t.Errorf("aborted play changed the state:\n got %+v\nwant %+v", after, before)
	}

	gen.mu.Lock()
	gen.err = nil
	gen.problem = additionProblem(30 * time.Second)
	gen.mu.Unlock()
	playerPlay(t, e, "p-1")
}

func TestEngine_UnknownCombatant(t *testing.T) {
	e := newTestEngine(t, &stubGenerator{problem: additionProblem(time.Minute)}, nil)
	if _, err := e.PlayCard(context.Background(), PlayRequest{CardID: "p-1", CombatantID: "mallory"}); !errors.Is(err, ErrInvalidPlayRequest) {
		t.Errorf("err = %v", err)
	}
}

func TestEngine_EnemyPlaysOnlyThroughStrategy(t *testing.T) {
	gen := &stubGenerator{problem: additionProblem(30 * time.Second)}
	e := newTestEngine(t, gen, func(o *Options) {
		o.Strategy = NewBernoulli(1, 3)
	})
	pr := playerPlay(t, e, "p-1")
	if _, err := e.SubmitAnswer(context.Background(), AnswerRequest{PlayID: pr.PlayID, Answer: "5", ResponseTimeMs: 15000}); err != nil {
		t.Fatal(err)
	}

	before := e.State()
	if before.Turn != SideEnemy {
		t.Fatalf("turn = %s, want enemy", before.Turn)
	}
	_, err := e.PlayCard(context.Background(), PlayRequest{CardID: "e-1", CombatantID: before.Enemy.ID})
	if !errors.Is(err, ErrInvalidPlayRequest) {
		t.Fatalf("enemy play by caller: err = %v", err)
	}
	if after := e.State(); !reflect.DeepEqual(before, after) {
		t.Errorf("rejected enemy play changed state:\n%+v\n%+v", before, after)
	}

	er, err := e.EnemyTurn(context.Background())
	if err != nil {
		t.Fatalf("EnemyTurn: %v", err)
	}
	if !er.Answer.IsCorrect {
		t.Error("enemy strategy always answers correctly")
	}
	if _, err := e.SubmitAnswer(context.Background(), AnswerRequest{PlayID: er.Play.PlayID, Answer: "999"}); !errors.Is(err, ErrInvalidPlayRequest) {
		t.Errorf("answer to resolved enemy play: err = %v", err)
	}
}

func TestEngine_GenerationInput(t *testing.T) {
	gen := &stubGenerator{problem: additionProblem(30 * time.Second)}
	e := newTestEngine(t, gen, func(o *Options) {
		o.Archetype = "trickster"
		o.Preference = problemgen.PreferencePractice
	})

	pr := playerPlay(t, e, "p-1")
	in := gen.lastInput()
	if in.Card.ID != "p-1" || in.Battle.Phase != problemgen.PhaseEarly || in.Battle.CardsPlayed != 0 {
		t.Errorf("input = %+v", in)
	}
	if in.Battle.OpponentArchetype != "trickster" || in.Battle.Preference != problemgen.PreferencePractice {
		t.Errorf("battle context = %+v", in.Battle)
	}
	if in.Battle.TimeRemainingSec <= 0 || in.Profile == nil || len(in.PriorProblems) != 0 {
		t.Errorf("input = %+v", in)
	}
	if _, err := e.SubmitAnswer(context.Background(), AnswerRequest{PlayID: pr.PlayID, Answer: "5", ResponseTimeMs: 1000}); err != nil {
		t.Fatal(err)
	}

	if _, err := e.EnemyTurn(context.Background()); err != nil {
		t.Fatal(err)
	}
	in = gen.lastInput()
	// Healths are from the enemy's side.
	if len(in.PriorProblems) != 1 || in.Battle.OpponentHealth != 100 || in.Battle.PlayerHealth >= 100 || in.Battle.CardsPlayed != 1 {
		t.Errorf("enemy input = %+v", in.Battle)
	}

	if _, err := e.PlayCard(context.Background(), PlayRequest{CardID: "p-2", CombatantID: "p1", Context: problemgen.BattleContext{Preference: problemgen.PreferenceChallenge}}); err != nil {
		t.Fatal(err)
	}
	in = gen.lastInput()
	if in.Battle.Preference != problemgen.PreferenceChallenge || in.Profile.Attempted != 1 {
		t.Errorf("override or profile lost: %+v / %+v", in.Battle, in.Profile)
	}
}

func TestEngine_EnemyTurn(t *testing.T) {
	tests := []struct {
		name       string
		p          float64
		wantPlayer int
		wantEnemy  int
	}{
		{"enemy always right", 1, 100 - 20, 75},
		{"enemy always wrong", 0, 100, 75 - 12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t, &stubGenerator{problem: additionProblem(30 * time.Second)}, func(o *Options) {
				o.Strategy = NewBernoulli(tt.p, 3)
			})
			if _, err := e.EnemyTurn(context.Background()); !errors.Is(err, ErrInvalidPlayRequest) {
				t.Fatalf("enemy turn on player's turn: err = %v", err)
			}

			pr := playerPlay(t, e, "p-1")
			if _, err := e.SubmitAnswer(context.Background(), AnswerRequest{PlayID: pr.PlayID, Answer: "5", ResponseTimeMs: 15000}); err != nil {
				t.Fatal(err)
			}

			er, err := e.EnemyTurn(context.Background())
			if err != nil {
				t.Fatalf("EnemyTurn: %v", err)
			}
			if er.Play.Side != SideEnemy || er.Answer.IsCorrect != (tt.p == 1) {
				t.Errorf("enemy result = %+v", er.Answer)
			}
			sum := er.Answer.Summary
			if sum.Player.Health > tt.wantPlayer || sum.Enemy.Health != tt.wantEnemy {
				t.Errorf("health = %d/%d, want %d/%d", sum.Player.Health, sum.Enemy.Health, tt.wantPlayer, tt.wantEnemy)
			}
			if sum.Turn != SidePlayer || sum.TurnCount != 2 || sum.Enemy.HandSize != 2 {
				t.Errorf("summary = %+v", sum)
			}
		})
	}
}

func TestEngine_ArmCountdown(t *testing.T) {
	e := newTestEngine(t, &stubGenerator{problem: additionProblem(30 * time.Millisecond)}, nil)
	pr := playerPlay(t, e, "p-1")

	expired := make(chan *AnswerResult, 1)
	if err := e.ArmCountdown(pr.PlayID, func(r *AnswerResult) { expired <- r }); err != nil {
		t.Fatalf("ArmCountdown: %v", err)
	}

	select {
	case res := <-expired:
		if !res.TimedOut || res.IsCorrect || res.Summary.Player.Health != 88 {
			t.Errorf("result = %+v", res)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("countdown never fired")
	}

	if _, err := e.SubmitAnswer(context.Background(), AnswerRequest{PlayID: pr.PlayID, Answer: "5"}); !errors.Is(err, ErrTimeoutExpired) {
		t.Errorf("answer after countdown: err = %v", err)
	}
	if err := e.ArmCountdown(pr.PlayID, nil); err == nil {
		t.Error("arming a resolved play should fail")
	}
}

func TestEngine_AnsweredBeforeCountdown(t *testing.T) {
	e := newTestEngine(t, &stubGenerator{problem: additionProblem(50 * time.Millisecond)}, nil)
	pr := playerPlay(t, e, "p-1")

	fired := make(chan struct{}, 1)
	if err := e.ArmCountdown(pr.PlayID, func(*AnswerResult) { fired <- struct{}{} }); err != nil {
		t.Fatal(err)
	}
	if _, err := e.SubmitAnswer(context.Background(), AnswerRequest{PlayID: pr.PlayID, Answer: "5", ResponseTimeMs: 10}); err != nil {
		t.Fatal(err)
	}

	select {
	case <-fired:
		t.Fatal("countdown fired for an answered play")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestEngine_PenaltyEndsBattle(t *testing.T) {
	results := &memResults{}
	e := newTestEngine(t, &stubGenerator{problem: additionProblem(30 * time.Second)}, func(o *Options) {
		o.Rules = Rules{MaxHealth: 10, Penalty: 15}
		o.Results = results
	})
	pr := playerPlay(t, e, "p-1")

	res, err := e.SubmitAnswer(context.Background(), AnswerRequest{PlayID: pr.PlayID, Answer: "4", ResponseTimeMs: 1000})
	if err != nil {
		t.Fatal(err)
	}
	if res.Summary.Player.Health != 0 || res.Summary.Phase != PhaseEnded || res.Summary.Winner != EnemyID {
		t.Errorf("summary = %+v", res.Summary)
	}
	if len(results.results) != 1 || results.results[0].Winner != EnemyID {
		t.Errorf("results = %+v", results.results)
	}
	if _, err := e.PlayCard(context.Background(), PlayRequest{CardID: "p-2", CombatantID: "p1"}); !errors.Is(err, ErrInvalidPlayRequest) {
		t.Errorf("play after end: err = %v", err)
	}
}

func TestEngine_FullBattleIsRecorded(t *testing.T) {
	outcomes := &memOutcomes{}
	results := &memResults{}
	e := newTestEngine(t, &stubGenerator{problem: additionProblem(30 * time.Second)}, func(o *Options) {
		o.PlayerHand = testHand("p", 1)
		o.EnemyHand = testHand("e", 1)
		o.Outcomes = outcomes
		o.Results = results
	})

	pr := playerPlay(t, e, "p-1")
	if _, err := e.SubmitAnswer(context.Background(), AnswerRequest{PlayID: pr.PlayID, Answer: "5", ResponseTimeMs: 15000, HintsUsed: 1}); err != nil {
		t.Fatal(err)
	}
	er, err := e.EnemyTurn(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	sum := er.Answer.Summary
	if sum.Phase != PhaseEnded || sum.Winner != "p1" {
		t.Fatalf("summary = %+v", sum)
	}

	if len(outcomes.records) != 1 {
		t.Fatalf("outcomes = %+v", outcomes.records)
	}
	got := outcomes.records[0]
	if got.PlayerID != "p1" || got.BattleID != "b1" || got.Topic != string(card.TopicAddition) || !got.Correct || got.ResponseMs != 15000 || got.HintsUsed != 1 {
		t.Errorf("outcome = %+v", got)
	}

	if len(results.results) != 1 {
		t.Fatalf("results = %+v", results.results)
	}
	r := results.results[0]
	if r.Winner != "p1" || r.Plays != 1 || r.Correct != 1 || r.Turns != 2 || r.Opponent != "Goblin" {
		t.Errorf("result = %+v", r)
	}
	if r.PlayerHealth != 100 || r.EnemyHealth != sum.Enemy.Health {
		t.Errorf("result health = %d/%d", r.PlayerHealth, r.EnemyHealth)
	}
}

func TestNewEngine_Validates(t *testing.T) {
	if _, err := NewEngine(Options{Player: Combatant{ID: "p1"}}); err == nil {
		t.Error("missing generator should fail")
	}
	if _, err := NewEngine(Options{Player: Combatant{ID: EnemyID}, Generator: &stubGenerator{}}); err == nil {
		t.Error("player id clashing with the enemy should fail")
	}
}
