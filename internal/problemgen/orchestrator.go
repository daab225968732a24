package problemgen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/abhisek/mathduel/internal/difficulty"
	"github.com/abhisek/mathduel/internal/llm"
	"github.com/abhisek/mathduel/internal/profile"
)

// Generator produces the problem for one play.
type Generator interface {
	// Generate returns a problem for the input. It fails only with
	// ErrGenerationUnavailable, when ctx ends before a problem exists.
	Generate(ctx context.Context, in Input) (*Problem, error)
}

// Config controls the Orchestrator.
type Config struct {
	// Timeout bounds the wait for the collaborator. A result arriving
	// later is discarded.
	Timeout time.Duration

	MaxTokens   int
	Temperature float64

	// MaxPriorProblems caps the dedup list sent with each request.
	MaxPriorProblems int

	// Validators run in order on every collaborator problem; the first
	// failure sends the play to the fallback.
	Validators []Validator
}

// DefaultConfig returns the standard timeout and validator chain.
func DefaultConfig() Config {
	return Config{
		Timeout:          12 * time.Second,
		MaxTokens:        1024,
		Temperature:      0.7,
		MaxPriorProblems: 10,
		Validators:       DefaultValidators(),
	}
}

var errNoProvider = errors.New("no collaborator configured")

// Orchestrator asks the collaborator for a problem and falls back to a
// local one on any failure.
type Orchestrator struct {
	provider llm.Provider
	adapter  *difficulty.Adapter
	cfg      Config
	logger   *slog.Logger
}

// New creates an Orchestrator. A nil provider makes every problem a
// fallback problem.
func New(provider llm.Provider, adapter *difficulty.Adapter, cfg Config, logger *slog.Logger) *Orchestrator {
	if adapter == nil {
		adapter = difficulty.New(difficulty.DefaultConfig())
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{provider: provider, adapter: adapter, cfg: cfg, logger: logger}
}

// BuildRequest assembles the collaborator request for an input. The
// preference shifts the adapted target by one step within the ceiling.
func (o *Orchestrator) BuildRequest(in Input) Request {
	prof := in.Profile
	if prof == nil {
		prof = profile.New(0)
	}

	target := o.adapter.Adapt(in.Card.Difficulty, in.Card.Topic, prof)
	switch in.Battle.Preference {
	case PreferencePractice:
		target = max(1, target-1)
	case PreferenceChallenge:
		target = min(o.adapter.Ceiling(), target+1)
	}

	return Request{
		TopicCategory:    in.Card.Category,
		TopicCode:        in.Card.Topic,
		TargetDifficulty: target,
		PlayerContext:    prof.Snapshot(),
		BattleContext:    in.Battle,
		CardDisplayName:  in.Card.Name,
		CardRarity:       in.Card.Rarity,
		PriorProblems:    in.PriorProblems,
	}
}

// Generate implements Generator.
func (o *Orchestrator) Generate(ctx context.Context, in Input) (*Problem, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerationUnavailable, err)
	}

	req := o.BuildRequest(in)
	start := time.Now()
	p, err := o.await(ctx, req)
	if err == nil {
		o.logger.Debug("problem generated",
			"topic", req.TopicCode,
			"target", req.TargetDifficulty,
			"realized", p.Difficulty,
			"elapsed", time.Since(start))
		return p, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerationUnavailable, ctxErr)
	}
	if !errors.Is(err, errNoProvider) {
		o.logger.Warn("using fallback problem",
			"topic", req.TopicCode,
			"target", req.TargetDifficulty,
			"error", err)
	}
	return Fallback(in.Seed, req), nil
}

// await runs the collaborator call under the timeout. The call keeps its
// own goroutine, so a result that arrives after the deadline lands in the
// buffered channel and is dropped.
func (o *Orchestrator) await(ctx context.Context, req Request) (*Problem, error) {
	if o.provider == nil {
		return nil, errNoProvider
	}

	ctx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()

	type result struct {
		p   *Problem
		err error
	}
	done := make(chan result, 1)
	go func() {
		p, err := o.ask(ctx, req)
		done <- result{p, err}
	}()

	select {
	case r := <-done:
		return r.p, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("collaborator did not answer within %s: %w", o.cfg.Timeout, ctx.Err())
	}
}

func (o *Orchestrator) ask(ctx context.Context, req Request) (*Problem, error) {
	if llm.PurposeFrom(ctx) == "unknown" {
		ctx = llm.WithPurpose(ctx, llm.PurposeProblem)
	}

	msg, err := buildUserMessage(req, o.cfg.MaxPriorProblems)
	if err != nil {
		return nil, err
	}
	resp, err := o.provider.Generate(ctx, llm.Request{
		System:      systemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: msg}},
		Schema:      ProblemSchema,
		MaxTokens:   o.cfg.MaxTokens,
		Temperature: o.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("collaborator: %w", err)
	}

	p, err := Decode(resp.Content, req.TargetDifficulty)
	if err != nil {
		return nil, err
	}
	p.Topic = req.TopicCode

	for _, v := range o.cfg.Validators {
		if verr := v.Validate(p, req); verr != nil {
			return nil, verr
		}
	}
	return p, nil
}
