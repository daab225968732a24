package store

import (
	"context"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// QueryOpts configures queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To
}

// predicates turns the options into WHERE clauses.
func (o QueryOpts) predicates() []*entsql.Predicate {
	var ps []*entsql.Predicate
	if o.After > 0 {
		ps = append(ps, entsql.GT("sequence", o.After))
	}
	if o.Before > 0 {
		ps = append(ps, entsql.LT("sequence", o.Before))
	}
	if !o.From.IsZero() {
		ps = append(ps, entsql.GTE("created_at", o.From.UnixMilli()))
	}
	if !o.To.IsZero() {
		ps = append(ps, entsql.LTE("created_at", o.To.UnixMilli()))
	}
	return ps
}

func (o QueryOpts) apply(s *entsql.Selector) *entsql.Selector {
	if ps := o.predicates(); len(ps) > 0 {
		s.Where(entsql.And(ps...))
	}
	if o.Limit > 0 {
		s.Limit(o.Limit)
	}
	return s
}

// OutcomeRecord is one resolved problem for a player.
type OutcomeRecord struct {
	ID         int
	Sequence   int64
	PlayerID   string
	BattleID   string
	Topic      string
	Difficulty int
	Correct    bool
	ResponseMs int64
	HintsUsed  int
	Timestamp  time.Time
}

// OutcomeRepo stores per-player problem outcomes, used to seed profiles.
type OutcomeRepo interface {
	AppendOutcome(ctx context.Context, rec OutcomeRecord) error

	// RecentOutcomes returns the player's last limit outcomes, oldest first.
	RecentOutcomes(ctx context.Context, playerID string, limit int) ([]OutcomeRecord, error)
}

// BattleResult is the final record of an ended battle.
type BattleResult struct {
	ID           int
	Sequence     int64
	BattleID     string
	PlayerID     string
	Opponent     string
	Winner       string
	Turns        int
	Plays        int
	Correct      int
	PlayerHealth int
	EnemyHealth  int
	Timestamp    time.Time
}

// BattleStats aggregates a player's battle record.
type BattleStats struct {
	Played int
	Won    int
	Drawn  int
	Lost   int

	// Accuracy is correct over attempted plays across all battles.
	Accuracy float64
}

// BattleRepo stores ended battles.
type BattleRepo interface {
	AppendBattleResult(ctx context.Context, res BattleResult) error

	// QueryBattles returns the player's battles, newest first. An empty
	// playerID matches every player.
	QueryBattles(ctx context.Context, playerID string, opts QueryOpts) ([]BattleResult, error)

	Stats(ctx context.Context, playerID string) (BattleStats, error)
}

// LLMRequestEvent captures a single collaborator request.
type LLMRequestEvent struct {
	ID           int
	Sequence     int64
	Timestamp    time.Time
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMUsage aggregates request events for one purpose or one model; the
// other key is empty.
type LLMUsage struct {
	Purpose      string
	Model        string
	Requests     int
	Failures     int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs float64
}

// LLMEventRepo stores collaborator request events.
type LLMEventRepo interface {
	AppendLLMRequest(ctx context.Context, ev LLMRequestEvent) error

	// QueryLLMEvents returns events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error)

	// GetLLMEvent returns the event with the given id, or nil if none exists.
	GetLLMEvent(ctx context.Context, id int) (*LLMRequestEvent, error)

	LLMUsageByPurpose(ctx context.Context) ([]LLMUsage, error)
	LLMUsageByModel(ctx context.Context) ([]LLMUsage, error)
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
