package storage

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Game is the persisted form of one match.
type Game struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	Stage            string    `gorm:"index"`
	CurrentRound     int
	MaxRounds        int
	PayoffMatrix     datatypes.JSON
	ErrorChance      float64
	MaxParticipants  int
	ParticipantCount int
	HistoryLimit     int
	CreatedAt        time.Time
	UpdatedAt        time.Time
	Participants     []Participant `gorm:"constraint:OnDelete:CASCADE;"`
	Choices          []Choice      `gorm:"constraint:OnDelete:CASCADE;"`
}

// Participant links an optional external user to a game membership.
type Participant struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	GameID       uuid.UUID `gorm:"type:uuid;index"`
	UserID       string    `gorm:"index"`
	DisplayName  string
	IsHost       bool
	TotalScore   int
	ScoreHistory datatypes.JSON
	Ready        bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Choice stores one actor's declared and resolved action against one target
// for one round. The slot (game, round, actor, target) is unique; the
// nullable columns are written once, at resolution.
type Choice struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey"`
	GameID             uuid.UUID `gorm:"type:uuid;index;uniqueIndex:idx_choice_slot"`
	RoundNumber        int       `gorm:"uniqueIndex:idx_choice_slot"`
	ActorID            uuid.UUID `gorm:"type:uuid;index;uniqueIndex:idx_choice_slot"`
	TargetID           uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_choice_slot"`
	Intended           string
	Applied            *string
	CounterpartApplied *string
	PointsAwarded      *int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
