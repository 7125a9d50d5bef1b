package game

import (
	"math/rand/v2"
	"testing"
)

func never() float64  { return 0.999999 }
func always() float64 { return 0 }

func row(id, actor, target string, c Choice) *ChoiceRow {
	return &ChoiceRow{ID: id, GameID: "g", Round: 1, ActorID: actor, TargetID: target, Intended: c}
}

func TestResolveMutualPeace(t *testing.T) {
	rows := []*ChoiceRow{
		row("r1", "a", "b", ChoicePeace),
		row("r2", "b", "a", ChoicePeace),
	}
	res := ResolveChoices(rows, DefaultPayoffMatrix(), 0, never)

	for _, r := range rows {
		if r.Applied == nil || *r.Applied != ChoicePeace {
			t.Fatalf("expected applied peace, got %v", r.Applied)
		}
		if r.Points == nil || *r.Points != 3 {
			t.Fatalf("expected 3 points, got %v", r.Points)
		}
	}
	if res.Deltas["a"] != 3 || res.Deltas["b"] != 3 {
		t.Fatalf("expected 3/3 deltas, got %v", res.Deltas)
	}
}

func TestResolveWarAgainstPeace(t *testing.T) {
	rows := []*ChoiceRow{
		row("r1", "a", "b", ChoiceWar),
		row("r2", "b", "a", ChoicePeace),
	}
	res := ResolveChoices(rows, DefaultPayoffMatrix(), 0, never)

	if res.Deltas["a"] != 5 {
		t.Fatalf("expected warmonger to earn 5, got %d", res.Deltas["a"])
	}
	if res.Deltas["b"] != 0 {
		t.Fatalf("expected peacemaker to earn 0, got %d", res.Deltas["b"])
	}
	if rows[0].CounterpartApplied == nil || *rows[0].CounterpartApplied != ChoicePeace {
		t.Fatalf("expected counterpart peace, got %v", rows[0].CounterpartApplied)
	}
}

func TestResolveUnpairedRowIsHarmless(t *testing.T) {
	rows := []*ChoiceRow{row("r1", "a", "b", ChoiceWar)}
	res := ResolveChoices(rows, DefaultPayoffMatrix(), 0, never)

	r := rows[0]
	if r.Applied == nil || *r.Applied != ChoiceWar {
		t.Fatalf("expected applied war, got %v", r.Applied)
	}
	if r.CounterpartApplied != nil {
		t.Fatalf("expected nil counterpart, got %v", *r.CounterpartApplied)
	}
	if r.Points == nil || *r.Points != 0 {
		t.Fatalf("expected 0 points, got %v", r.Points)
	}
	if res.Deltas["a"] != 0 {
		t.Fatalf("expected 0 delta for unpaired actor, got %d", res.Deltas["a"])
	}
}

func TestResolveFullErrorChanceFlipsEverything(t *testing.T) {
	rows := []*ChoiceRow{
		row("r1", "a", "b", ChoiceWar),
		row("r2", "b", "a", ChoicePeace),
	}
	res := ResolveChoices(rows, DefaultPayoffMatrix(), 100, always)

	if *rows[0].Applied != ChoicePeace || *rows[1].Applied != ChoiceWar {
		t.Fatalf("expected both choices flipped, got %v and %v", *rows[0].Applied, *rows[1].Applied)
	}
	// a plays peace against war, b plays war against peace
	if res.Deltas["a"] != 0 || res.Deltas["b"] != 5 {
		t.Fatalf("expected flipped payoffs 0/5, got %v", res.Deltas)
	}
}

func TestResolveFlipsAreIndependentPerRow(t *testing.T) {
	draws := []float64{0, 0.99}
	i := 0
	draw := func() float64 {
		v := draws[i%len(draws)]
		i++
		return v
	}
	rows := []*ChoiceRow{
		row("r1", "a", "b", ChoicePeace),
		row("r2", "a", "c", ChoicePeace),
	}
	ResolveChoices(rows, DefaultPayoffMatrix(), 50, draw)

	if *rows[0].Applied != ChoiceWar {
		t.Fatalf("expected first row flipped, got %v", *rows[0].Applied)
	}
	if *rows[1].Applied != ChoicePeace {
		t.Fatalf("expected second row kept, got %v", *rows[1].Applied)
	}
}

func TestResolveScoreConservation(t *testing.T) {
	matrix := DefaultPayoffMatrix()
	rng := rand.New(rand.NewPCG(7, 11))

	actors := []string{"a", "b", "c", "d"}
	var rows []*ChoiceRow
	n := 0
	for _, actor := range actors {
		for _, target := range actors {
			if actor == target {
				continue
			}
			c := ChoicePeace
			if rng.Float64() < 0.5 {
				c = ChoiceWar
			}
			n++
			rows = append(rows, row(string(rune('0'+n))+actor+target, actor, target, c))
		}
	}
	res := ResolveChoices(rows, matrix, 25, rng.Float64)

	fromDeltas := 0
	for _, d := range res.Deltas {
		fromDeltas += d
	}
	fromRows := 0
	byPair := map[[2]string]*ChoiceRow{}
	for _, r := range rows {
		byPair[[2]string{r.ActorID, r.TargetID}] = r
	}
	for _, r := range rows {
		counterpart := byPair[[2]string{r.TargetID, r.ActorID}]
		fromRows += matrix.Payoff(*r.Applied, *counterpart.Applied)
		if *r.Points != matrix.Payoff(*r.Applied, *counterpart.Applied) {
			t.Fatalf("row %s points %d disagree with matrix", r.ID, *r.Points)
		}
	}
	if fromDeltas != fromRows {
		t.Fatalf("deltas sum %d != recomputed sum %d", fromDeltas, fromRows)
	}
}

func TestResolveErrorChanceBound(t *testing.T) {
	const n = 20000
	const chance = 30.0
	rng := rand.New(rand.NewPCG(1, 2))

	var rows []*ChoiceRow
	for i := 0; i < n; i++ {
		rows = append(rows, &ChoiceRow{
			ID: string(rune(i)), GameID: "g", Round: 1,
			ActorID: "a", TargetID: "b", Intended: ChoicePeace,
		})
	}
	ResolveChoices(rows, DefaultPayoffMatrix(), chance, rng.Float64)

	flipped := 0
	for _, r := range rows {
		if *r.Applied != r.Intended {
			flipped++
		}
	}
	got := float64(flipped) / n
	if got < 0.27 || got > 0.33 {
		t.Fatalf("flip fraction %.4f not near %.2f", got, chance/100)
	}
}
