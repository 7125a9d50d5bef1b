package game

import "testing"

func TestChoiceFlip(t *testing.T) {
	if ChoicePeace.Flip() != ChoiceWar || ChoiceWar.Flip() != ChoicePeace {
		t.Fatal("flip did not swap peace and war")
	}
	if Choice("x").Flip() != Choice("x") {
		t.Fatal("flip altered an unknown value")
	}
	if !ChoicePeace.Valid() || !ChoiceWar.Valid() || Choice("truce").Valid() {
		t.Fatal("choice validity wrong")
	}
}

func TestStageTransitions(t *testing.T) {
	cases := []struct {
		from, to Stage
		ok       bool
	}{
		{StagePending, StageActive, true},
		{StageActive, StageCompleted, true},
		{StagePending, StageCompleted, false},
		{StageActive, StagePending, false},
		{StageCompleted, StageActive, false},
		{StageCompleted, StagePending, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransition(tc.to); got != tc.ok {
			t.Fatalf("%s -> %s: got %v, want %v", tc.from, tc.to, got, tc.ok)
		}
	}
}

func TestDefaultPayoffMatrix(t *testing.T) {
	m := DefaultPayoffMatrix()
	if err := m.Validate(); err != nil {
		t.Fatalf("default matrix invalid: %v", err)
	}
	if m.Payoff(ChoicePeace, ChoicePeace) != 3 ||
		m.Payoff(ChoicePeace, ChoiceWar) != 0 ||
		m.Payoff(ChoiceWar, ChoicePeace) != 5 ||
		m.Payoff(ChoiceWar, ChoiceWar) != 1 {
		t.Fatal("default matrix has wrong payoffs")
	}
}

func TestPayoffMatrixValidate(t *testing.T) {
	missing := PayoffMatrix{ChoicePeace: {ChoicePeace: 3, ChoiceWar: 0}}
	if err := missing.Validate(); KindOf(err) != KindValidation {
		t.Fatalf("expected VALIDATION_ERROR for missing row, got %v", err)
	}
	partial := PayoffMatrix{
		ChoicePeace: {ChoicePeace: 3, ChoiceWar: 0},
		ChoiceWar:   {ChoicePeace: 5},
	}
	if err := partial.Validate(); KindOf(err) != KindValidation {
		t.Fatalf("expected VALIDATION_ERROR for missing column, got %v", err)
	}
}
