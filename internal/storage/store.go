package storage

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"peacewar/internal/game"
)

// Store implements game.Store on top of a gorm DB.
type Store struct {
	db *gorm.DB
}

// NewStore creates a store helper from a gorm DB.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Atomic runs fn inside one database transaction. Mutating sequences on the
// same game serialize through the row lock taken by GetGame(forUpdate).
func (s *Store) Atomic(ctx context.Context, fn func(game.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// CreateGame inserts a new game row.
func (s *Store) CreateGame(ctx context.Context, g *game.Game) error {
	row, err := gameToRow(g)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Create(row).Error
}

// GetGame fetches a game. With forUpdate set the row stays locked for the
// rest of the surrounding transaction.
func (s *Store) GetGame(ctx context.Context, id string, forUpdate bool) (*game.Game, error) {
	gid, err := parseID(id)
	if err != nil {
		return nil, game.NotFoundf("game %s not found", id)
	}
	q := s.db.WithContext(ctx)
	if forUpdate {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var row Game
	if err := q.First(&row, "id = ?", gid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, game.NotFoundf("game %s not found", id)
		}
		return nil, err
	}
	return gameFromRow(&row)
}

// UpdateGame persists the mutable game columns.
func (s *Store) UpdateGame(ctx context.Context, g *game.Game) error {
	row, err := gameToRow(g)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(&Game{}).Where("id = ?", row.ID).Updates(map[string]any{
		"stage":             row.Stage,
		"current_round":     row.CurrentRound,
		"participant_count": row.ParticipantCount,
	}).Error
}

// ListGames returns all games ordered by creation time.
func (s *Store) ListGames(ctx context.Context) ([]*game.Game, error) {
	var rows []Game
	if err := s.db.WithContext(ctx).Order("created_at asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*game.Game, 0, len(rows))
	for i := range rows {
		g, err := gameFromRow(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

// CreateParticipant inserts a new participant row.
func (s *Store) CreateParticipant(ctx context.Context, p *game.Participant) error {
	row, err := participantToRow(p)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Create(row).Error
}

// GetParticipant fetches a single participant.
func (s *Store) GetParticipant(ctx context.Context, id string) (*game.Participant, error) {
	pid, err := parseID(id)
	if err != nil {
		return nil, game.NotFoundf("participant %s not found", id)
	}
	var row Participant
	if err := s.db.WithContext(ctx).First(&row, "id = ?", pid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, game.NotFoundf("participant %s not found", id)
		}
		return nil, err
	}
	return participantFromRow(&row)
}

// ListParticipants returns every participant of a game, oldest first.
func (s *Store) ListParticipants(ctx context.Context, gameID string) ([]*game.Participant, error) {
	gid, err := parseID(gameID)
	if err != nil {
		return nil, game.NotFoundf("game %s not found", gameID)
	}
	var rows []Participant
	if err := s.db.WithContext(ctx).Where("game_id = ?", gid).Order("created_at asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*game.Participant, 0, len(rows))
	for i := range rows {
		p, err := participantFromRow(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// UpdateParticipant persists the mutable participant columns.
func (s *Store) UpdateParticipant(ctx context.Context, p *game.Participant) error {
	row, err := participantToRow(p)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(&Participant{}).Where("id = ?", row.ID).Updates(map[string]any{
		"total_score":   row.TotalScore,
		"score_history": row.ScoreHistory,
		"ready":         row.Ready,
	}).Error
}

// ResetReady clears the ready flag for every participant of the game.
func (s *Store) ResetReady(ctx context.Context, gameID string) error {
	gid, err := parseID(gameID)
	if err != nil {
		return game.NotFoundf("game %s not found", gameID)
	}
	return s.db.WithContext(ctx).Model(&Participant{}).Where("game_id = ?", gid).Update("ready", false).Error
}

// UpsertChoice writes the intended choice for the row's slot, overwriting an
// earlier intended choice for the same (game, round, actor, target).
func (s *Store) UpsertChoice(ctx context.Context, row *game.ChoiceRow) error {
	model, err := choiceToRow(row)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "game_id"}, {Name: "round_number"}, {Name: "actor_id"}, {Name: "target_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"intended", "updated_at"}),
	}).Create(model).Error
}

// UpdateChoice persists the resolution-only columns of an existing row.
func (s *Store) UpdateChoice(ctx context.Context, row *game.ChoiceRow) error {
	model, err := choiceToRow(row)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(&Choice{}).
		Where("game_id = ? AND round_number = ? AND actor_id = ? AND target_id = ?",
			model.GameID, model.RoundNumber, model.ActorID, model.TargetID).
		Updates(map[string]any{
			"applied":             model.Applied,
			"counterpart_applied": model.CounterpartApplied,
			"points_awarded":      model.PointsAwarded,
		}).Error
}

// ListChoices returns every choice row of a round.
func (s *Store) ListChoices(ctx context.Context, gameID string, round int) ([]*game.ChoiceRow, error) {
	gid, err := parseID(gameID)
	if err != nil {
		return nil, game.NotFoundf("game %s not found", gameID)
	}
	var rows []Choice
	if err := s.db.WithContext(ctx).Where("game_id = ? AND round_number = ?", gid, round).Find(&rows).Error; err != nil {
		return nil, err
	}
	return choicesFromRows(rows)
}

// ListChoicesByActor returns the actor's choice rows for one round.
func (s *Store) ListChoicesByActor(ctx context.Context, gameID string, round int, actorID string) ([]*game.ChoiceRow, error) {
	gid, err := parseID(gameID)
	if err != nil {
		return nil, game.NotFoundf("game %s not found", gameID)
	}
	aid, err := parseID(actorID)
	if err != nil {
		return nil, game.NotFoundf("participant %s not found", actorID)
	}
	var rows []Choice
	if err := s.db.WithContext(ctx).
		Where("game_id = ? AND round_number = ? AND actor_id = ?", gid, round, aid).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return choicesFromRows(rows)
}

// ListResolvedByActor returns the actor's resolved rows ordered by round
// ascending. A non-negative limit keeps only the most recent rows; -1
// returns everything.
func (s *Store) ListResolvedByActor(ctx context.Context, gameID, actorID string, limit int) ([]*game.ChoiceRow, error) {
	if limit == 0 {
		return []*game.ChoiceRow{}, nil
	}
	gid, err := parseID(gameID)
	if err != nil {
		return nil, game.NotFoundf("game %s not found", gameID)
	}
	aid, err := parseID(actorID)
	if err != nil {
		return nil, game.NotFoundf("participant %s not found", actorID)
	}
	q := s.db.WithContext(ctx).
		Where("game_id = ? AND actor_id = ? AND points_awarded IS NOT NULL", gid, aid)
	var rows []Choice
	if limit < 0 {
		if err := q.Order("round_number asc").Find(&rows).Error; err != nil {
			return nil, err
		}
		return choicesFromRows(rows)
	}
	if err := q.Order("round_number desc").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return choicesFromRows(rows)
}

func parseID(id string) (uuid.UUID, error) {
	return uuid.Parse(id)
}

func gameToRow(g *game.Game) (*Game, error) {
	id, err := parseID(g.ID)
	if err != nil {
		return nil, game.NotFoundf("game %s not found", g.ID)
	}
	matrix, err := json.Marshal(g.PayoffMatrix)
	if err != nil {
		return nil, err
	}
	return &Game{
		ID:               id,
		Stage:            string(g.Stage),
		CurrentRound:     g.CurrentRound,
		MaxRounds:        g.MaxRounds,
		PayoffMatrix:     matrix,
		ErrorChance:      g.ErrorChance,
		MaxParticipants:  g.MaxParticipants,
		ParticipantCount: g.ParticipantCount,
		HistoryLimit:     g.HistoryLimit,
	}, nil
}

func gameFromRow(row *Game) (*game.Game, error) {
	var matrix game.PayoffMatrix
	if len(row.PayoffMatrix) > 0 {
		if err := json.Unmarshal(row.PayoffMatrix, &matrix); err != nil {
			return nil, err
		}
	}
	return &game.Game{
		ID:               row.ID.String(),
		Stage:            game.Stage(row.Stage),
		CurrentRound:     row.CurrentRound,
		MaxRounds:        row.MaxRounds,
		PayoffMatrix:     matrix,
		ErrorChance:      row.ErrorChance,
		MaxParticipants:  row.MaxParticipants,
		ParticipantCount: row.ParticipantCount,
		HistoryLimit:     row.HistoryLimit,
		CreatedAt:        row.CreatedAt,
	}, nil
}

func participantToRow(p *game.Participant) (*Participant, error) {
	id, err := parseID(p.ID)
	if err != nil {
		return nil, game.NotFoundf("participant %s not found", p.ID)
	}
	gid, err := parseID(p.GameID)
	if err != nil {
		return nil, game.NotFoundf("game %s not found", p.GameID)
	}
	history, err := json.Marshal(p.ScoreHistory)
	if err != nil {
		return nil, err
	}
	return &Participant{
		ID:           id,
		GameID:       gid,
		UserID:       p.UserID,
		DisplayName:  p.DisplayName,
		IsHost:       p.IsHost,
		TotalScore:   p.TotalScore,
		ScoreHistory: history,
		Ready:        p.Ready,
	}, nil
}

func participantFromRow(row *Participant) (*game.Participant, error) {
	history := []int{}
	if len(row.ScoreHistory) > 0 {
		if err := json.Unmarshal(row.ScoreHistory, &history); err != nil {
			return nil, err
		}
	}
	return &game.Participant{
		ID:           row.ID.String(),
		GameID:       row.GameID.String(),
		UserID:       row.UserID,
		DisplayName:  row.DisplayName,
		IsHost:       row.IsHost,
		TotalScore:   row.TotalScore,
		ScoreHistory: history,
		Ready:        row.Ready,
	}, nil
}

func choiceToRow(row *game.ChoiceRow) (*Choice, error) {
	id, err := parseID(row.ID)
	if err != nil {
		return nil, game.NotFoundf("choice %s not found", row.ID)
	}
	gid, err := parseID(row.GameID)
	if err != nil {
		return nil, game.NotFoundf("game %s not found", row.GameID)
	}
	aid, err := parseID(row.ActorID)
	if err != nil {
		return nil, game.NotFoundf("participant %s not found", row.ActorID)
	}
	tid, err := parseID(row.TargetID)
	if err != nil {
		return nil, game.NotFoundf("participant %s not found", row.TargetID)
	}
	model := &Choice{
		ID:            id,
		GameID:        gid,
		RoundNumber:   row.Round,
		ActorID:       aid,
		TargetID:      tid,
		Intended:      string(row.Intended),
		PointsAwarded: row.Points,
	}
	if row.Applied != nil {
		applied := string(*row.Applied)
		model.Applied = &applied
	}
	if row.CounterpartApplied != nil {
		counterpart := string(*row.CounterpartApplied)
		model.CounterpartApplied = &counterpart
	}
	return model, nil
}

func choiceFromRow(row *Choice) *game.ChoiceRow {
	out := &game.ChoiceRow{
		ID:       row.ID.String(),
		GameID:   row.GameID.String(),
		Round:    row.RoundNumber,
		ActorID:  row.ActorID.String(),
		TargetID: row.TargetID.String(),
		Intended: game.Choice(row.Intended),
		Points:   row.PointsAwarded,
	}
	if row.Applied != nil {
		applied := game.Choice(*row.Applied)
		out.Applied = &applied
	}
	if row.CounterpartApplied != nil {
		counterpart := game.Choice(*row.CounterpartApplied)
		out.CounterpartApplied = &counterpart
	}
	return out
}

func choicesFromRows(rows []Choice) ([]*game.ChoiceRow, error) {
	out := make([]*game.ChoiceRow, 0, len(rows))
	for i := range rows {
		out = append(out, choiceFromRow(&rows[i]))
	}
	return out, nil
}
