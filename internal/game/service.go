package game

import (
	"context"
	"math/rand/v2"

	"github.com/google/uuid"

	"peacewar/internal/logging"
	"peacewar/pkg/utils"
)

// Service implements the turn-resolution core on top of a Store. All
// operations take already-authenticated caller identity (callerUserID, empty
// for guests) and pre-validated basic types; routing, sessions and
// credential checks live outside.
type Service struct {
	store Store
	draw  Rand
}

// NewService creates a service. A nil draw falls back to the shared
// math/rand source; tests pass a deterministic one.
func NewService(store Store, draw Rand) *Service {
	if draw == nil {
		draw = rand.Float64
	}
	return &Service{store: store, draw: draw}
}

// Config are the creation parameters for a game.
type Config struct {
	PayoffMatrix    PayoffMatrix // nil selects DefaultPayoffMatrix
	ErrorChance     float64
	MaxRounds       int
	MaxParticipants int
	HistoryLimit    *int // nil selects the default of 5; -1 is unbounded
}

// Created reports the identifiers of a newly created game.
type Created struct {
	GameID            string
	HostParticipantID string
}

// CreateGame validates cfg and creates the game together with its host
// participant in one transaction. The host is the only participant that can
// start the game; hosting never transfers.
func (s *Service) CreateGame(ctx context.Context, cfg Config, hostUserID, hostName string) (*Created, error) {
	matrix := cfg.PayoffMatrix
	if matrix == nil {
		matrix = DefaultPayoffMatrix()
	}
	if err := matrix.Validate(); err != nil {
		return nil, err
	}
	if cfg.ErrorChance < 0 || cfg.ErrorChance > 100 {
		return nil, Validationf("error chance %v out of range [0,100]", cfg.ErrorChance)
	}
	if cfg.MaxRounds < 1 {
		return nil, Validationf("max rounds must be at least 1")
	}
	if cfg.MaxParticipants < 2 {
		return nil, Validationf("max participants must be at least 2")
	}
	historyLimit := 5
	if cfg.HistoryLimit != nil {
		if *cfg.HistoryLimit < -1 {
			return nil, Validationf("history limit must be -1 or greater")
		}
		historyLimit = *cfg.HistoryLimit
	}
	if hostName == "" {
		hostName = guestName()
	}

	g := &Game{
		ID:               uuid.NewString(),
		Stage:            StagePending,
		CurrentRound:     0,
		MaxRounds:        cfg.MaxRounds,
		PayoffMatrix:     matrix,
		ErrorChance:      cfg.ErrorChance,
		MaxParticipants:  cfg.MaxParticipants,
		ParticipantCount: 1,
		HistoryLimit:     historyLimit,
	}
	host := &Participant{
		ID:           uuid.NewString(),
		GameID:       g.ID,
		UserID:       hostUserID,
		DisplayName:  hostName,
		IsHost:       true,
		ScoreHistory: []int{},
	}
	err := s.store.Atomic(ctx, func(tx Store) error {
		if err := tx.CreateGame(ctx, g); err != nil {
			return err
		}
		return tx.CreateParticipant(ctx, host)
	})
	if err != nil {
		return nil, err
	}
	logging.Debugf("created game %s host %s", g.ID, host.ID)
	return &Created{GameID: g.ID, HostParticipantID: host.ID}, nil
}

// JoinGame adds a participant to a pending game. An empty display name gets
// a generated guest name.
func (s *Service) JoinGame(ctx context.Context, gameID, userID, displayName string) (string, error) {
	if displayName == "" {
		displayName = guestName()
	}
	p := &Participant{
		ID:           uuid.NewString(),
		UserID:       userID,
		DisplayName:  displayName,
		ScoreHistory: []int{},
	}
	err := s.store.Atomic(ctx, func(tx Store) error {
		g, err := tx.GetGame(ctx, gameID, true)
		if err != nil {
			return err
		}
		if g.Stage != StagePending {
			return InvalidStatef("game %s is no longer accepting participants", gameID)
		}
		if g.ParticipantCount >= g.MaxParticipants {
			return Conflictf("game %s is full", gameID)
		}
		p.GameID = g.ID
		if err := tx.CreateParticipant(ctx, p); err != nil {
			return err
		}
		g.ParticipantCount++
		return tx.UpdateGame(ctx, g)
	})
	if err != nil {
		return "", err
	}
	return p.ID, nil
}

// StartGame moves a pending game to active. Only the host participant may
// start, and only while the game is pending.
func (s *Service) StartGame(ctx context.Context, gameID, callerParticipantID, callerUserID string) error {
	return s.store.Atomic(ctx, func(tx Store) error {
		g, err := tx.GetGame(ctx, gameID, true)
		if err != nil {
			return err
		}
		caller, err := tx.GetParticipant(ctx, callerParticipantID)
		if err != nil {
			return err
		}
		if caller.GameID != g.ID || !caller.IsHost {
			return Forbiddenf("only the host may start the game")
		}
		if err := authorize(caller, callerUserID); err != nil {
			return err
		}
		if !g.Stage.CanTransition(StageActive) {
			return InvalidStatef("game %s cannot start from stage %s", gameID, g.Stage)
		}
		g.Stage = StageActive
		g.CurrentRound = 1
		return tx.UpdateGame(ctx, g)
	})
}

// SubmitChoice upserts the actor's intended choice against the target for
// the game's current round. Resubmitting before resolution overwrites the
// previous intended choice; readiness is untouched.
func (s *Service) SubmitChoice(ctx context.Context, gameID, actorID, targetID string, choice Choice, callerUserID string) error {
	if !choice.Valid() {
		return Validationf("unknown choice %q", choice)
	}
	if actorID == targetID {
		return Validationf("participant %s cannot target itself", actorID)
	}
	return s.store.Atomic(ctx, func(tx Store) error {
		// Lock the game so the round cannot advance under this write.
		g, err := tx.GetGame(ctx, gameID, true)
		if err != nil {
			return err
		}
		if g.Stage != StageActive {
			return InvalidStatef("game %s is not active", gameID)
		}
		actor, err := tx.GetParticipant(ctx, actorID)
		if err != nil {
			return err
		}
		if actor.GameID != g.ID {
			return NotFoundf("participant %s is not in game %s", actorID, gameID)
		}
		if err := authorize(actor, callerUserID); err != nil {
			return err
		}
		target, err := tx.GetParticipant(ctx, targetID)
		if err != nil || target.GameID != g.ID {
			return Validationf("unknown target %s", targetID)
		}
		return tx.UpsertChoice(ctx, &ChoiceRow{
			ID:       uuid.NewString(),
			GameID:   g.ID,
			Round:    g.CurrentRound,
			ActorID:  actorID,
			TargetID: targetID,
			Intended: choice,
		})
	})
}

// MarkReady flags the participant as done choosing for the current round.
// When that flips the last participant, the round resolves before MarkReady
// returns, inside the same transaction as the readiness check.
//
// A participant with no choice rows for the round is rejected; whether every
// opponent was covered is the caller's policy, an empty submission is not.
func (s *Service) MarkReady(ctx context.Context, gameID, participantID, callerUserID string) error {
	return s.store.Atomic(ctx, func(tx Store) error {
		g, err := tx.GetGame(ctx, gameID, true)
		if err != nil {
			return err
		}
		if g.Stage != StageActive {
			return InvalidStatef("game %s is not active", gameID)
		}
		p, err := tx.GetParticipant(ctx, participantID)
		if err != nil {
			return err
		}
		if p.GameID != g.ID {
			return NotFoundf("participant %s is not in game %s", participantID, gameID)
		}
		if err := authorize(p, callerUserID); err != nil {
			return err
		}
		own, err := tx.ListChoicesByActor(ctx, g.ID, g.CurrentRound, p.ID)
		if err != nil {
			return err
		}
		if len(own) == 0 {
			return Validationf("participant %s has no choices for round %d", participantID, g.CurrentRound)
		}
		p.Ready = true
		if err := tx.UpdateParticipant(ctx, p); err != nil {
			return err
		}

		all, err := tx.ListParticipants(ctx, g.ID)
		if err != nil {
			return err
		}
		ready := 0
		for _, q := range all {
			if q.Ready {
				ready++
			}
		}
		if ready < len(all) {
			return nil
		}
		logging.Debugf("game %s round %d all ready, resolving", g.ID, g.CurrentRound)
		return s.resolveLocked(ctx, tx, g)
	})
}

// ResolveRound resolves the given round of a game. Calling it for a round
// that has already been resolved, concurrently or after the fact, is a
// successful no-op; scores are never applied twice.
func (s *Service) ResolveRound(ctx context.Context, gameID string, round int) error {
	return s.store.Atomic(ctx, func(tx Store) error {
		g, err := tx.GetGame(ctx, gameID, true)
		if err != nil {
			return err
		}
		if round < g.CurrentRound || g.Stage == StageCompleted {
			// A concurrent caller won the race and already advanced the game.
			logging.Debugf("game %s round %d already resolved", gameID, round)
			return nil
		}
		if g.Stage != StageActive {
			return InvalidStatef("game %s is not active", gameID)
		}
		if round > g.CurrentRound {
			return Validationf("round %d of game %s is not open", round, gameID)
		}
		return s.resolveLocked(ctx, tx, g)
	})
}

// resolveLocked runs the resolution algorithm for g.CurrentRound. The caller
// holds the game lock inside an open transaction.
func (s *Service) resolveLocked(ctx context.Context, tx Store, g *Game) error {
	round := g.CurrentRound
	rows, err := tx.ListChoices(ctx, g.ID, round)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return NoDataf("no choices to resolve for round %d of game %s", round, g.ID)
	}

	res := ResolveChoices(rows, g.PayoffMatrix, g.ErrorChance, s.draw)
	for _, row := range res.Rows {
		if err := tx.UpdateChoice(ctx, row); err != nil {
			return err
		}
	}
	for actorID, delta := range res.Deltas {
		p, err := tx.GetParticipant(ctx, actorID)
		if err != nil {
			return err
		}
		p.TotalScore += delta
		p.ScoreHistory = append(p.ScoreHistory, p.TotalScore)
		if err := tx.UpdateParticipant(ctx, p); err != nil {
			return err
		}
	}
	if err := tx.ResetReady(ctx, g.ID); err != nil {
		return err
	}

	g.CurrentRound = round + 1
	if round >= g.MaxRounds {
		g.Stage = StageCompleted
	}
	return tx.UpdateGame(ctx, g)
}

// State is a read-only snapshot of a game and its roster.
type State struct {
	Game         *Game
	Participants []*Participant
}

// GameState returns the game and all of its participants.
func (s *Service) GameState(ctx context.Context, gameID string) (*State, error) {
	g, err := s.store.GetGame(ctx, gameID, false)
	if err != nil {
		return nil, err
	}
	parts, err := s.store.ListParticipants(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return &State{Game: g, Participants: parts}, nil
}

// ListGames returns every game, newest last.
func (s *Service) ListGames(ctx context.Context) ([]*Game, error) {
	return s.store.ListGames(ctx)
}

// HistoryEntry is one resolved pairing from a participant's point of view.
type HistoryEntry struct {
	Round                 int
	OpponentID            string
	AppliedChoice         Choice
	OpponentAppliedChoice *Choice // nil when the pairing was unscored
	PointsAwarded         int
}

// ParticipantHistory returns the participant's resolved rows ordered by
// round. A limit of 0 uses the game's history limit; any limit is capped by
// it unless the game is unbounded (-1). Owner-only.
func (s *Service) ParticipantHistory(ctx context.Context, gameID, participantID string, limit int, callerUserID string) ([]HistoryEntry, error) {
	p, err := s.store.GetParticipant(ctx, participantID)
	if err != nil {
		return nil, err
	}
	if p.GameID != gameID {
		return nil, NotFoundf("participant %s is not in game %s", participantID, gameID)
	}
	if err := authorize(p, callerUserID); err != nil {
		return nil, err
	}
	g, err := s.store.GetGame(ctx, gameID, false)
	if err != nil {
		return nil, err
	}
	if limit == 0 {
		limit = g.HistoryLimit
	}
	if g.HistoryLimit != -1 && (limit < 0 || limit > g.HistoryLimit) {
		limit = g.HistoryLimit
	}
	rows, err := s.store.ListResolvedByActor(ctx, gameID, participantID, limit)
	if err != nil {
		return nil, err
	}
	entries := make([]HistoryEntry, 0, len(rows))
	for _, row := range rows {
		entry := HistoryEntry{
			Round:                 row.Round,
			OpponentID:            row.TargetID,
			OpponentAppliedChoice: row.CounterpartApplied,
		}
		if row.Applied != nil {
			entry.AppliedChoice = *row.Applied
		}
		if row.Points != nil {
			entry.PointsAwarded = *row.Points
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ActiveChoices returns the participant's intended choices for the current
// round, keyed by target. Owner-only.
func (s *Service) ActiveChoices(ctx context.Context, gameID, participantID, callerUserID string) (map[string]Choice, error) {
	p, err := s.store.GetParticipant(ctx, participantID)
	if err != nil {
		return nil, err
	}
	if p.GameID != gameID {
		return nil, NotFoundf("participant %s is not in game %s", participantID, gameID)
	}
	if err := authorize(p, callerUserID); err != nil {
		return nil, err
	}
	g, err := s.store.GetGame(ctx, gameID, false)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.ListChoicesByActor(ctx, gameID, g.CurrentRound, participantID)
	if err != nil {
		return nil, err
	}
	choices := make(map[string]Choice, len(rows))
	for _, row := range rows {
		choices[row.TargetID] = row.Intended
	}
	return choices, nil
}

// RoundResolved reports whether the given round has been scored. Used by
// polling clients to detect the round boundary.
func (s *Service) RoundResolved(ctx context.Context, gameID string, round int) (bool, error) {
	rows, err := s.store.ListChoices(ctx, gameID, round)
	if err != nil {
		return false, err
	}
	for _, row := range rows {
		if row.Resolved() {
			return true, nil
		}
	}
	return false, nil
}

// authorize checks that the caller may act for the participant. Participants
// bound to an external user are owner-locked; guest participants are
// addressable by participant id alone.
func authorize(p *Participant, callerUserID string) error {
	if p.UserID != "" && p.UserID != callerUserID {
		return Forbiddenf("participant %s belongs to another user", p.ID)
	}
	return nil
}

func guestName() string {
	return "guest-" + utils.RandomHex(3)
}
