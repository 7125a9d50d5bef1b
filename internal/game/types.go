package game

// Choice is one participant's declared action against a single opponent.
type Choice string

const (
	ChoicePeace Choice = "peace"
	ChoiceWar   Choice = "war"
)

// Valid reports whether c is one of the two playable choices.
func (c Choice) Valid() bool {
	return c == ChoicePeace || c == ChoiceWar
}

// Flip returns the opposite choice. Unknown values pass through unchanged.
func (c Choice) Flip() Choice {
	switch c {
	case ChoicePeace:
		return ChoiceWar
	case ChoiceWar:
		return ChoicePeace
	}
	return c
}

// Stage is the lifecycle state of a game.
type Stage string

const (
	StagePending   Stage = "pending"
	StageActive    Stage = "active"
	StageCompleted Stage = "completed"
)

// CanTransition reports whether moving from s to next is a legal step.
// Stages only move forward: pending -> active -> completed.
func (s Stage) CanTransition(next Stage) bool {
	switch s {
	case StagePending:
		return next == StageActive
	case StageActive:
		return next == StageCompleted
	}
	return false
}

// PayoffMatrix maps (own applied choice, opponent applied choice) to the
// points the acting participant earns. The matrix need not be symmetric:
// war against peace may pay more than peace against war.
type PayoffMatrix map[Choice]map[Choice]int

// DefaultPayoffMatrix is the classic dilemma scoring used when a game is
// created without an explicit matrix.
func DefaultPayoffMatrix() PayoffMatrix {
	return PayoffMatrix{
		ChoicePeace: {ChoicePeace: 3, ChoiceWar: 0},
		ChoiceWar:   {ChoicePeace: 5, ChoiceWar: 1},
	}
}

// Payoff returns the points for playing own against opponent.
func (m PayoffMatrix) Payoff(own, opponent Choice) int {
	row, ok := m[own]
	if !ok {
		return 0
	}
	return row[opponent]
}

// Validate checks that the matrix covers every (choice, choice) pairing.
func (m PayoffMatrix) Validate() error {
	for _, own := range []Choice{ChoicePeace, ChoiceWar} {
		row, ok := m[own]
		if !ok {
			return Validationf("payoff matrix missing row %q", own)
		}
		for _, opp := range []Choice{ChoicePeace, ChoiceWar} {
			if _, ok := row[opp]; !ok {
				return Validationf("payoff matrix row %q missing column %q", own, opp)
			}
		}
	}
	return nil
}
