package battle

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/mathduel/internal/card"
	"github.com/abhisek/mathduel/internal/problemgen"
	"github.com/abhisek/mathduel/internal/profile"
	"github.com/abhisek/mathduel/internal/store"
)

const (
	// DefaultOpponent is the enemy's name when none is given.
	DefaultOpponent = "Riddle Goblin"

	// DefaultRetention is how long an ended battle stays readable.
	DefaultRetention = 10 * time.Minute
)

// ManagerConfig holds what every battle started by a Manager shares. The
// collaborators must be safe for concurrent use; battles share no state.
type ManagerConfig struct {
	Generator problemgen.Generator
	Catalog   *card.Catalog
	Rules     Rules

	// Strategy is "scaled" or "fixed"; EnemyAccuracy applies to "fixed".
	Strategy      string
	EnemyAccuracy float64

	EncounterLimit time.Duration

	// Retention is how long an ended battle is kept before Sweep drops it.
	Retention time.Duration
	Now       func() time.Time

	Outcomes store.OutcomeRepo
	Results  store.BattleRepo
	Logger   *slog.Logger
}

// StartRequest opens a battle for a player.
type StartRequest struct {
	PlayerID   string
	PlayerName string

	// Level is the player's skill level; zero means the default.
	Level      int
	Preference problemgen.Preference

	Opponent  string
	Archetype string

	// Seed makes the deal and the enemy reproducible; zero picks one.
	Seed uint64
}

// Manager holds the running battles, keyed by id.
type Manager struct {
	cfg ManagerConfig

	mu      sync.RWMutex
	engines map[string]*Engine
}

// NewManager creates a Manager.
func NewManager(cfg ManagerConfig) *Manager {
	if cfg.Catalog == nil {
		cfg.Catalog = card.DefaultCatalog()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Retention <= 0 {
		cfg.Retention = DefaultRetention
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	cfg.Rules = cfg.Rules.withDefaults()
	return &Manager{cfg: cfg, engines: make(map[string]*Engine)}
}

// Start deals a new battle. The player's profile is seeded from their last
// stored outcomes. Ended battles past their retention are swept first.
func (m *Manager) Start(ctx context.Context, req StartRequest) (*Engine, error) {
	if req.PlayerID == "" {
		return nil, fmt.Errorf("%w: player id is required", ErrInvalidPlayRequest)
	}
	m.Sweep()
	seed := req.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, ^seed))

	prof, err := m.loadProfile(ctx, req.PlayerID, req.Level)
	if err != nil {
		return nil, err
	}

	name := req.PlayerName
	if name == "" {
		name = req.PlayerID
	}
	opponent := req.Opponent
	if opponent == "" {
		opponent = DefaultOpponent
	}

	e, err := NewEngine(Options{
		ID:             uuid.NewString(),
		Player:         Combatant{ID: req.PlayerID, Name: name},
		Enemy:          Combatant{ID: EnemyID, Name: opponent},
		Rules:          m.cfg.Rules,
		PlayerHand:     m.cfg.Catalog.Deal(rng, m.cfg.Rules.HandSize),
		EnemyHand:      m.cfg.Catalog.Deal(rng, m.cfg.Rules.HandSize),
		Preference:     req.Preference,
		Archetype:      req.Archetype,
		Generator:      m.cfg.Generator,
		Strategy:       NewStrategy(m.cfg.Strategy, m.cfg.EnemyAccuracy, rng.Uint64()),
		Profile:        prof,
		Seed:           rng.Uint64(),
		EncounterLimit: m.cfg.EncounterLimit,
		Now:            m.cfg.Now,
		Outcomes:       m.cfg.Outcomes,
		Results:        m.cfg.Results,
		Logger:         m.cfg.Logger,
	})
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.engines[e.ID()] = e
	m.mu.Unlock()

	m.cfg.Logger.Info("battle started", "battle", e.ID(), "player", req.PlayerID, "opponent", opponent)
	return e, nil
}

// Get returns the battle with the given id.
func (m *Manager) Get(id string) (*Engine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.engines[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBattleNotFound, id)
	}
	return e, nil
}

// Remove stops and forgets a battle.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	e, ok := m.engines[id]
	delete(m.engines, id)
	m.mu.Unlock()
	if ok {
		e.Close()
	}
}

// Sweep drops battles that ended more than Retention ago and returns how
// many were dropped.
func (m *Manager) Sweep() int {
	cutoff := m.cfg.Now().Add(-m.cfg.Retention)

	m.mu.Lock()
	var stale []*Engine
	for id, e := range m.engines {
		if at, ended := e.EndedAt(); ended && at.Before(cutoff) {
			stale = append(stale, e)
			delete(m.engines, id)
		}
	}
	m.mu.Unlock()

	for _, e := range stale {
		e.Close()
		m.cfg.Logger.Debug("battle evicted", "battle", e.ID())
	}
	return len(stale)
}

// Len returns the number of battles held.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.engines)
}

func (m *Manager) loadProfile(ctx context.Context, playerID string, level int) (*profile.Profile, error) {
	if m.cfg.Outcomes == nil {
		return profile.New(level), nil
	}
	recs, err := m.cfg.Outcomes.RecentOutcomes(ctx, playerID, profile.DefaultWindow)
	if err != nil {
		return nil, fmt.Errorf("load outcomes for %s: %w", playerID, err)
	}
	history := make([]profile.Outcome, 0, len(recs))
	for _, r := range recs {
		history = append(history, profile.Outcome{
			Topic:      card.Topic(r.Topic),
			Correct:    r.Correct,
			ResponseMs: r.ResponseMs,
		})
	}
	return profile.FromHistory(level, history), nil
}
