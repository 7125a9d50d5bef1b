package handlers

import "peacewar/internal/game"

type gameView struct {
	ID               string            `json:"id"`
	Stage            string            `json:"stage"`
	CurrentRound     int               `json:"currentRound"`
	MaxRounds        int               `json:"maxRounds"`
	PayoffMatrix     game.PayoffMatrix `json:"payoffMatrix"`
	ErrorChance      float64           `json:"errorChance"`
	MaxParticipants  int               `json:"maxParticipants"`
	ParticipantCount int               `json:"participantCount"`
	HistoryLimit     int               `json:"historyLimit"`
}

func newGameView(g *game.Game) gameView {
	return gameView{
		ID:               g.ID,
		Stage:            string(g.Stage),
		CurrentRound:     g.CurrentRound,
		MaxRounds:        g.MaxRounds,
		PayoffMatrix:     g.PayoffMatrix,
		ErrorChance:      g.ErrorChance,
		MaxParticipants:  g.MaxParticipants,
		ParticipantCount: g.ParticipantCount,
		HistoryLimit:     g.HistoryLimit,
	}
}

type participantView struct {
	ID           string `json:"id"`
	DisplayName  string `json:"displayName"`
	IsHost       bool   `json:"isHost"`
	TotalScore   int    `json:"totalScore"`
	ScoreHistory []int  `json:"scoreHistory"`
	Ready        bool   `json:"ready"`
}

func newParticipantView(p *game.Participant) participantView {
	return participantView{
		ID:           p.ID,
		DisplayName:  p.DisplayName,
		IsHost:       p.IsHost,
		TotalScore:   p.TotalScore,
		ScoreHistory: p.ScoreHistory,
		Ready:        p.Ready,
	}
}

type historyEntryView struct {
	Round                 int     `json:"round"`
	OpponentID            string  `json:"opponentId"`
	AppliedChoice         string  `json:"appliedChoice"`
	OpponentAppliedChoice *string `json:"opponentAppliedChoice"`
	PointsAwarded         int     `json:"pointsAwarded"`
}

func newHistoryEntryView(e game.HistoryEntry) historyEntryView {
	view := historyEntryView{
		Round:         e.Round,
		OpponentID:    e.OpponentID,
		AppliedChoice: string(e.AppliedChoice),
		PointsAwarded: e.PointsAwarded,
	}
	if e.OpponentAppliedChoice != nil {
		s := string(*e.OpponentAppliedChoice)
		view.OpponentAppliedChoice = &s
	}
	return view
}
