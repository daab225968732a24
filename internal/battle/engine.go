package battle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/mathduel/internal/card"
	"github.com/abhisek/mathduel/internal/damage"
	"github.com/abhisek/mathduel/internal/problemgen"
	"github.com/abhisek/mathduel/internal/profile"
	"github.com/abhisek/mathduel/internal/store"
)

const (
	// EnemyID is the combatant id of the scripted opponent.
	EnemyID = "enemy"

	// DefaultEncounterLimit is the nominal length of a battle, reported to
	// the generator as time remaining.
	DefaultEncounterLimit = 10 * time.Minute

	// deadlineGrace absorbs transport delay between a client's answer and
	// the server's clock.
	deadlineGrace = 2 * time.Second
)

// Options configures an Engine.
type Options struct {
	// ID defaults to a new UUID.
	ID string

	// Player and Enemy name the combatants; health and cards are set by
	// the engine.
	Player Combatant
	Enemy  Combatant

	Rules      Rules
	PlayerHand []card.Card
	EnemyHand  []card.Card

	Preference problemgen.Preference
	Archetype  string

	// Generator is required.
	Generator problemgen.Generator

	// Strategy decides enemy answers. Defaults to the scaled strategy.
	Strategy Strategy

	// Profile is the player's profile, usually seeded from stored outcomes.
	Profile *profile.Profile

	// Seed drives card picks, enemy timing and fallback problems.
	Seed uint64

	EncounterLimit time.Duration

	// Outcomes and Results persist the player's answers and the final
	// result. Either may be nil.
	Outcomes store.OutcomeRepo
	Results  store.BattleRepo

	Logger *slog.Logger
	Now    func() time.Time
}

// PlayRequest asks to play a card.
type PlayRequest struct {
	CardID      string
	CombatantID string

	// Context overrides the preference, archetype and time remaining the
	// engine would otherwise send with the generation request.
	Context problemgen.BattleContext
}

// PlayResult is an open play waiting for its answer.
type PlayResult struct {
	PlayID   string              `json:"play_id"`
	Side     Side                `json:"side"`
	Card     card.Card           `json:"card"`
	Problem  *problemgen.Problem `json:"-"`
	Preview  damage.Range        `json:"damage_preview"`
	Deadline time.Time           `json:"deadline"`
}

// AnswerRequest submits an answer to an open play.
type AnswerRequest struct {
	PlayID         string
	Answer         string
	ResponseTimeMs int64
	HintsUsed      int
}

// AnswerResult is a resolved play.
type AnswerResult struct {
	PlayID        string        `json:"play_id"`
	Side          Side          `json:"side"`
	IsCorrect     bool          `json:"is_correct"`
	TimedOut      bool          `json:"timed_out"`
	Damage        damage.Result `json:"damage"`
	Penalty       int           `json:"penalty"`
	CorrectAnswer string        `json:"correct_answer"`
	Explanation   string        `json:"explanation"`
	Summary       Summary       `json:"summary"`
}

// EnemyResult is a complete enemy play.
type EnemyResult struct {
	Play   *PlayResult   `json:"play"`
	Answer *AnswerResult `json:"answer"`
}

type play struct {
	id       string
	side     Side
	card     card.Card
	problem  *problemgen.Problem
	streak   int
	started  time.Time
	deadline time.Time
	timer    *time.Timer
}

// Engine runs one battle. Its methods are safe for concurrent use; the
// mutex is not held while a problem is generated, the pending play in the
// state keeps other plays out instead.
type Engine struct {
	id    string
	mu    sync.Mutex
	state State

	gen        problemgen.Generator
	strategy   Strategy
	player     *profile.Profile
	enemy      *profile.Profile
	preference problemgen.Preference
	archetype  string
	limit      time.Duration
	outcomes   store.OutcomeRepo
	results    store.BattleRepo
	logger     *slog.Logger
	now        func() time.Time

	rng      *rand.Rand
	started  time.Time
	plays    map[string]*play
	expired  map[string]bool
	prior    []string
	attempts int
	correct  int
	recorded bool
	ended    time.Time
}

// NewEngine deals the opening hands and returns a battle in the battle
// phase.
func NewEngine(opts Options) (*Engine, error) {
	if opts.Generator == nil {
		return nil, errors.New("battle: generator is required")
	}
	if opts.ID == "" {
		opts.ID = uuid.NewString()
	}
	if opts.Enemy.ID == "" {
		opts.Enemy.ID = EnemyID
	}
	if opts.Player.ID == "" || opts.Player.ID == opts.Enemy.ID {
		return nil, fmt.Errorf("battle: invalid player id %q", opts.Player.ID)
	}
	if opts.Profile == nil {
		opts.Profile = profile.New(profile.DefaultLevel)
	}
	if opts.Strategy == nil {
		opts.Strategy = NewScaled(opts.Seed)
	}
	if opts.EncounterLimit <= 0 {
		opts.EncounterLimit = DefaultEncounterLimit
	}
	if opts.Preference == "" {
		opts.Preference = problemgen.PreferenceAdaptive
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s, err := Apply(NewState(opts.ID, opts.Rules, opts.Player, opts.Enemy), Deal{
		PlayerHand: opts.PlayerHand,
		EnemyHand:  opts.EnemyHand,
	})
	if err != nil {
		return nil, err
	}

	e := &Engine{
		id:         opts.ID,
		state:      s,
		gen:        opts.Generator,
		strategy:   opts.Strategy,
		player:     opts.Profile,
		enemy:      profile.New(profile.DefaultLevel),
		preference: opts.Preference,
		archetype:  opts.Archetype,
		limit:      opts.EncounterLimit,
		outcomes:   opts.Outcomes,
		results:    opts.Results,
		logger:     opts.Logger.With("battle", opts.ID),
		now:        opts.Now,
		rng:        rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x5851f42d4c957f2d)),
		started:    opts.Now(),
		plays:      make(map[string]*play),
		expired:    make(map[string]bool),
	}
	if s.Phase == PhaseResolution {
		e.finishLocked(context.Background())
	}
	return e, nil
}

// ID returns the battle id.
func (e *Engine) ID() string { return e.id }

// EndedAt reports when the battle ended.
func (e *Engine) EndedAt() (time.Time, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ended, e.state.Ended()
}

// State returns a copy of the current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// Summary returns the view of the battle shown to the player.
func (e *Engine) Summary() Summary {
	e.mu.Lock()
	defer e.mu.Unlock()
	return summarize(e.state)
}

// PlayCard starts a play for the player and generates its problem. If
// generation fails the play is aborted and the card stays in hand. The enemy
// plays through EnemyTurn.
func (e *Engine) PlayCard(ctx context.Context, req PlayRequest) (*PlayResult, error) {
	side, err := e.sideOf(req.CombatantID)
	if err != nil {
		return nil, err
	}
	pl, err := e.startPlay(ctx, side, req.CardID, req.Context)
	if err != nil {
		return nil, err
	}
	return pl.result(), nil
}

// SubmitAnswer resolves an open play. An answer past the allowance counts
// as a timeout and is scored like a wrong one.
func (e *Engine) SubmitAnswer(ctx context.Context, req AnswerRequest) (*AnswerResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pl, err := e.openPlayerPlay(req.PlayID)
	if err != nil {
		return nil, err
	}
	if !problemgen.WellFormed(req.Answer, pl.problem) {
		return nil, ErrMalformedAnswer
	}

	allowance := pl.problem.TimeAllowance.Milliseconds()
	elapsed := req.ResponseTimeMs
	if elapsed <= 0 {
		elapsed = e.now().Sub(pl.started).Milliseconds()
	}
	if elapsed > allowance || e.now().After(pl.deadline.Add(deadlineGrace)) {
		return e.resolveLocked(ctx, pl, false, allowance, req.HintsUsed, true)
	}

	correct := problemgen.CheckAnswer(req.Answer, pl.problem)
	return e.resolveLocked(ctx, pl, correct, elapsed, req.HintsUsed, false)
}

// TimeUp resolves an open play as unanswered.
func (e *Engine) TimeUp(ctx context.Context, playID string) (*AnswerResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pl, err := e.openPlayerPlay(playID)
	if err != nil {
		return nil, err
	}
	return e.resolveLocked(ctx, pl, false, pl.problem.TimeAllowance.Milliseconds(), 0, true)
}

// ArmCountdown resolves the play as timed out once its deadline passes.
// onExpire, if set, receives the result; it is not called when the play
// was answered first.
func (e *Engine) ArmCountdown(playID string, onExpire func(*AnswerResult)) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	pl, err := e.openPlayerPlay(playID)
	if err != nil {
		return err
	}
	if pl.timer != nil {
		pl.timer.Stop()
	}
	pl.timer = time.AfterFunc(pl.deadline.Sub(e.now()), func() {
		res, err := e.TimeUp(context.Background(), playID)
		if err != nil {
			return
		}
		e.logger.Info("play timed out", "play", playID, "side", res.Side)
		if onExpire != nil {
			onExpire(res)
		}
	})
	return nil
}

// EnemyTurn plays a random card from the enemy's hand and answers it with
// the enemy strategy.
func (e *Engine) EnemyTurn(ctx context.Context) (*EnemyResult, error) {
	e.mu.Lock()
	if e.state.Phase != PhaseBattle || e.state.Turn != SideEnemy {
		phase, turn := e.state.Phase, e.state.Turn
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: not the enemy's turn (%s, %s)", ErrInvalidPlayRequest, phase, turn)
	}
	hand := e.state.Enemy.Hand
	cardID := hand[e.rng.IntN(len(hand))].ID
	e.mu.Unlock()

	pl, err := e.startPlay(ctx, SideEnemy, cardID, problemgen.BattleContext{})
	if err != nil {
		return nil, err
	}
	correct := e.strategy.Decide(pl.problem)

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.openPlay(pl.id); err != nil {
		return nil, err
	}
	allowance := pl.problem.TimeAllowance.Milliseconds()
	rt := allowance * int64(30+e.rng.IntN(61)) / 100
	res, err := e.resolveLocked(ctx, pl, correct, rt, 0, false)
	if err != nil {
		return nil, err
	}
	return &EnemyResult{Play: pl.result(), Answer: res}, nil
}

// Close stops any running countdown.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, pl := range e.plays {
		if pl.timer != nil {
			pl.timer.Stop()
		}
	}
}

func (e *Engine) sideOf(combatantID string) (Side, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch combatantID {
	case e.state.Player.ID:
		return SidePlayer, nil
	case e.state.Enemy.ID:
		return "", fmt.Errorf("%w: the enemy plays only on its own turn", ErrInvalidPlayRequest)
	}
	return "", fmt.Errorf("%w: unknown combatant %q", ErrInvalidPlayRequest, combatantID)
}

// openPlayerPlay is openPlay for callers answering on the player's behalf.
// Enemy plays are answered by the strategy alone.
func (e *Engine) openPlayerPlay(playID string) (*play, error) {
	pl, err := e.openPlay(playID)
	if err != nil {
		return nil, err
	}
	if pl.side != SidePlayer {
		return nil, fmt.Errorf("%w: play %q belongs to the enemy", ErrInvalidPlayRequest, playID)
	}
	return pl, nil
}

func (e *Engine) openPlay(playID string) (*play, error) {
	if pl, ok := e.plays[playID]; ok {
		return pl, nil
	}
	if e.expired[playID] {
		return nil, ErrTimeoutExpired
	}
	return nil, fmt.Errorf("%w: play %q is not open", ErrInvalidPlayRequest, playID)
}

func (e *Engine) startPlay(ctx context.Context, side Side, cardID string, override problemgen.BattleContext) (*play, error) {
	e.mu.Lock()
	id := uuid.NewString()
	next, err := Apply(e.state, PlayStarted{PlayID: id, Side: side, CardID: cardID})
	if err != nil {
		e.mu.Unlock()
		return nil, err
	}
	e.state = next
	self := e.state.Combatant(side)
	c := self.Hand[self.handIndex(cardID)]
	in := e.generationInput(side, c, override)
	e.mu.Unlock()

	p, genErr := e.gen.Generate(ctx, in)

	e.mu.Lock()
	defer e.mu.Unlock()
	if genErr != nil {
		if aborted, err := Apply(e.state, PlayAborted{PlayID: id}); err == nil {
			e.state = aborted
		}
		e.logger.Warn("play aborted", "card", cardID, "side", side, "error", genErr)
		return nil, fmt.Errorf("generate problem: %w", genErr)
	}

	now := e.now()
	pl := &play{
		id:       id,
		side:     side,
		card:     c,
		problem:  p,
		streak:   e.state.Combatant(side).Streak,
		started:  now,
		deadline: now.Add(p.TimeAllowance),
	}
	e.plays[id] = pl
	e.prior = append(e.prior, p.Text)
	e.logger.Debug("play started", "play", id, "side", side, "card", c.ID, "source", p.Source, "difficulty", p.Difficulty)
	return pl, nil
}

func (e *Engine) generationInput(side Side, c card.Card, override problemgen.BattleContext) problemgen.Input {
	self := e.state.Combatant(side)
	foe := e.state.Combatant(side.Other())

	remaining := max(0, e.limit-e.now().Sub(e.started))
	bc := problemgen.BattleContext{
		Phase:             phaseOf(e.state.CardsPlayed, 2*e.state.Rules.HandSize),
		CardsPlayed:       e.state.CardsPlayed,
		TimeRemainingSec:  int(remaining / time.Second),
		OpponentArchetype: e.archetype,
		PlayerHealth:      self.Health,
		OpponentHealth:    foe.Health,
		Preference:        e.preference,
	}
	if override.Preference != "" {
		bc.Preference = override.Preference
	}
	if override.OpponentArchetype != "" {
		bc.OpponentArchetype = override.OpponentArchetype
	}
	if override.TimeRemainingSec > 0 {
		bc.TimeRemainingSec = override.TimeRemainingSec
	}

	prof := e.player
	if side == SideEnemy {
		prof = e.enemy
	}
	return problemgen.Input{
		Card:          c,
		Profile:       prof.Clone(),
		Battle:        bc,
		Seed:          e.rng.Uint64(),
		PriorProblems: slices.Clone(e.prior),
	}
}

func (e *Engine) resolveLocked(ctx context.Context, pl *play, correct bool, responseMs int64, hints int, timedOut bool) (*AnswerResult, error) {
	dmg := damage.Score(damage.Input{
		BasePower:   pl.card.BasePower,
		Rarity:      pl.card.Rarity,
		Correct:     correct,
		ResponseMs:  responseMs,
		AllowanceMs: pl.problem.TimeAllowance.Milliseconds(),
		HintsUsed:   hints,
		Difficulty:  pl.problem.Difficulty,
		Streak:      pl.streak,
	})

	next, err := Apply(e.state, PlayResolved{PlayID: pl.id, Correct: correct, Damage: dmg.Final})
	if err != nil {
		return nil, err
	}
	e.state = next
	delete(e.plays, pl.id)
	if pl.timer != nil {
		pl.timer.Stop()
	}
	if timedOut {
		e.expired[pl.id] = true
	}

	if pl.side == SidePlayer {
		e.recordOutcome(ctx, pl, correct, responseMs, hints)
	}
	if e.state.Phase == PhaseResolution {
		e.finishLocked(ctx)
	}

	res := &AnswerResult{
		PlayID:        pl.id,
		Side:          pl.side,
		IsCorrect:     correct,
		TimedOut:      timedOut,
		Damage:        dmg,
		CorrectAnswer: pl.problem.Answer,
		Explanation:   pl.problem.Explanation,
		Summary:       summarize(e.state),
	}
	if !correct {
		res.Penalty = e.state.Rules.Penalty
	}
	return res, nil
}

func (e *Engine) recordOutcome(ctx context.Context, pl *play, correct bool, responseMs int64, hints int) {
	e.attempts++
	if correct {
		e.correct++
	}
	e.player.Record(profile.Outcome{Topic: pl.card.Topic, Correct: correct, ResponseMs: responseMs})

	if e.outcomes == nil {
		return
	}
	err := e.outcomes.AppendOutcome(context.WithoutCancel(ctx), store.OutcomeRecord{
		PlayerID:   e.state.Player.ID,
		BattleID:   e.state.ID,
		Topic:      string(pl.card.Topic),
		Difficulty: pl.problem.Difficulty,
		Correct:    correct,
		ResponseMs: responseMs,
		HintsUsed:  hints,
	})
	if err != nil {
		e.logger.Error("failed to record outcome", "play", pl.id, "error", err)
	}
}

func (e *Engine) finishLocked(ctx context.Context) {
	next, err := Apply(e.state, Finish{})
	if err != nil {
		return
	}
	e.state = next
	e.ended = e.now()
	e.logger.Info("battle ended",
		"winner", e.state.Winner,
		"turns", e.state.TurnCount,
		"player_health", e.state.Player.Health,
		"enemy_health", e.state.Enemy.Health)

	if e.results == nil || e.recorded {
		return
	}
	e.recorded = true
	err = e.results.AppendBattleResult(context.WithoutCancel(ctx), store.BattleResult{
		BattleID:     e.state.ID,
		PlayerID:     e.state.Player.ID,
		Opponent:     e.state.Enemy.Name,
		Winner:       e.state.Winner,
		Turns:        e.state.TurnCount,
		Plays:        e.attempts,
		Correct:      e.correct,
		PlayerHealth: e.state.Player.Health,
		EnemyHealth:  e.state.Enemy.Health,
	})
	if err != nil {
		e.logger.Error("failed to record battle result", "error", err)
	}
}

func (pl *play) result() *PlayResult {
	return &PlayResult{
		PlayID:   pl.id,
		Side:     pl.side,
		Card:     pl.card,
		Problem:  pl.problem,
		Preview:  damage.Preview(pl.card, pl.problem.Difficulty, pl.problem.TimeAllowance.Milliseconds(), pl.streak),
		Deadline: pl.deadline,
	}
}

// phaseOf splits a battle into thirds by cards played.
func phaseOf(played, total int) problemgen.Phase {
	switch {
	case total <= 0 || played*3 < total:
		return problemgen.PhaseEarly
	case played*3 < 2*total:
		return problemgen.PhaseMid
	default:
		return problemgen.PhaseLate
	}
}
