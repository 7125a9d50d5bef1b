package game

import (
	"context"
	"time"
)

// Game is one match: a payoff matrix, a round counter and a roster.
type Game struct {
	ID               string
	Stage            Stage
	CurrentRound     int // 0 while pending, 1-based once active
	MaxRounds        int
	PayoffMatrix     PayoffMatrix
	ErrorChance      float64 // percent, [0,100]
	MaxParticipants  int
	ParticipantCount int
	HistoryLimit     int // -1 means unbounded
	CreatedAt        time.Time
}

// Participant is a player's membership record in one game, distinct from any
// external user account.
type Participant struct {
	ID           string
	GameID       string
	UserID       string // external account reference; empty for guests
	DisplayName  string
	IsHost       bool
	TotalScore   int
	ScoreHistory []int // running total after each resolved round
	Ready        bool
}

// ChoiceRow is one actor's declared and resolved action against one target
// for one round. The resolution-only fields stay nil until the round
// resolves and are written exactly once.
type ChoiceRow struct {
	ID                 string
	GameID             string
	Round              int
	ActorID            string
	TargetID           string
	Intended           Choice
	Applied            *Choice
	CounterpartApplied *Choice
	Points             *int
}

// Resolved reports whether the row has been frozen by a resolution.
func (r *ChoiceRow) Resolved() bool {
	return r.Points != nil
}

// Store is the persistence boundary for the core. Implementations live in
// internal/storage; the domain never sees database types.
//
// Lookups that miss return a NOT_FOUND Error. Implementations must return
// copies: mutating a returned value has no effect until the matching Update
// call.
type Store interface {
	// Atomic runs fn inside one transaction. All mutations on a game's rows
	// issued through the passed Store commit or roll back together, and
	// mutating sequences on the same game are serialized against each other.
	Atomic(ctx context.Context, fn func(Store) error) error

	CreateGame(ctx context.Context, g *Game) error
	// GetGame loads a game. With forUpdate set inside Atomic, the game is
	// locked for the remainder of the transaction.
	GetGame(ctx context.Context, id string, forUpdate bool) (*Game, error)
	UpdateGame(ctx context.Context, g *Game) error
	ListGames(ctx context.Context) ([]*Game, error)

	CreateParticipant(ctx context.Context, p *Participant) error
	GetParticipant(ctx context.Context, id string) (*Participant, error)
	ListParticipants(ctx context.Context, gameID string) ([]*Participant, error)
	UpdateParticipant(ctx context.Context, p *Participant) error
	// ResetReady clears the ready flag for every participant of the game.
	ResetReady(ctx context.Context, gameID string) error

	// UpsertChoice writes the intended choice for the row's (game, round,
	// actor, target) slot, overwriting a previous intended choice.
	UpsertChoice(ctx context.Context, row *ChoiceRow) error
	// UpdateChoice persists the resolution-only fields of an existing row.
	UpdateChoice(ctx context.Context, row *ChoiceRow) error
	ListChoices(ctx context.Context, gameID string, round int) ([]*ChoiceRow, error)
	ListChoicesByActor(ctx context.Context, gameID string, round int, actorID string) ([]*ChoiceRow, error)
	// ListResolvedByActor returns the actor's resolved rows ordered by round
	// ascending. A non-negative limit keeps only the most recent rows;
	// -1 returns everything.
	ListResolvedByActor(ctx context.Context, gameID, actorID string, limit int) ([]*ChoiceRow, error)
}
