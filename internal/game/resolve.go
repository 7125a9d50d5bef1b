package game

// Rand yields a uniform draw in [0,1). The draw source is injectable so
// resolution outcomes are reproducible in tests.
type Rand func() float64

// Resolution is the computed outcome of one round, ready to persist.
type Resolution struct {
	// Rows are the input rows with Applied, CounterpartApplied and Points
	// populated.
	Rows []*ChoiceRow
	// Deltas holds the points each actor earned this round, summed across
	// all their rows. Every actor with at least one row has an entry, even
	// when it is zero.
	Deltas map[string]int
}

// ResolveChoices computes applied choices, counterpart pairing and payoffs
// for all rows of one round.
//
// Each row's error flip is an independent draw: an actor's choices toward
// different targets may be flipped differently. A row whose counterpart
// (target -> actor) is absent scores zero and keeps a nil counterpart
// choice; that is a defined degenerate case, not an error.
func ResolveChoices(rows []*ChoiceRow, matrix PayoffMatrix, errorChance float64, draw Rand) *Resolution {
	applied := make(map[string]Choice, len(rows))
	for _, row := range rows {
		c := row.Intended
		if errorChance > 0 && draw()*100 < errorChance {
			c = c.Flip()
		}
		applied[row.ID] = c
	}

	byPair := make(map[[2]string]*ChoiceRow, len(rows))
	for _, row := range rows {
		byPair[[2]string{row.ActorID, row.TargetID}] = row
	}

	res := &Resolution{Rows: rows, Deltas: make(map[string]int)}
	for _, row := range rows {
		own := applied[row.ID]
		row.Applied = &own

		points := 0
		if counterpart, ok := byPair[[2]string{row.TargetID, row.ActorID}]; ok {
			opp := applied[counterpart.ID]
			row.CounterpartApplied = &opp
			points = matrix.Payoff(own, opp)
		}
		row.Points = &points
		res.Deltas[row.ActorID] += points
	}
	return res
}
