// Package memory provides an in-memory game.Store used by tests and as the
// server's fallback when no database is configured.
package memory

import (
	"context"
	"sort"
	"sync"

	"peacewar/internal/game"
)

// Store keeps all records in maps behind one mutex. Atomic snapshots the
// dataset and swaps it back in only on success, so a failed transaction
// leaves no partial writes, matching the all-or-nothing guarantee of the
// database store.
type Store struct {
	mu   sync.Mutex
	data *dataset
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{data: newDataset()}
}

// Atomic runs fn against a working copy of the dataset under the store lock.
func (s *Store) Atomic(ctx context.Context, fn func(game.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	work := s.data.clone()
	if err := fn(&tx{d: work}); err != nil {
		return err
	}
	s.data = work
	return nil
}

func (s *Store) run(fn func(*tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&tx{d: s.data})
}

func (s *Store) CreateGame(ctx context.Context, g *game.Game) error {
	return s.run(func(t *tx) error { return t.CreateGame(ctx, g) })
}

func (s *Store) GetGame(ctx context.Context, id string, forUpdate bool) (*game.Game, error) {
	var out *game.Game
	err := s.run(func(t *tx) error {
		var err error
		out, err = t.GetGame(ctx, id, forUpdate)
		return err
	})
	return out, err
}

func (s *Store) UpdateGame(ctx context.Context, g *game.Game) error {
	return s.run(func(t *tx) error { return t.UpdateGame(ctx, g) })
}

func (s *Store) ListGames(ctx context.Context) ([]*game.Game, error) {
	var out []*game.Game
	err := s.run(func(t *tx) error {
		var err error
		out, err = t.ListGames(ctx)
		return err
	})
	return out, err
}

func (s *Store) CreateParticipant(ctx context.Context, p *game.Participant) error {
	return s.run(func(t *tx) error { return t.CreateParticipant(ctx, p) })
}

func (s *Store) GetParticipant(ctx context.Context, id string) (*game.Participant, error) {
	var out *game.Participant
	err := s.run(func(t *tx) error {
		var err error
		out, err = t.GetParticipant(ctx, id)
		return err
	})
	return out, err
}

func (s *Store) ListParticipants(ctx context.Context, gameID string) ([]*game.Participant, error) {
	var out []*game.Participant
	err := s.run(func(t *tx) error {
		var err error
		out, err = t.ListParticipants(ctx, gameID)
		return err
	})
	return out, err
}

func (s *Store) UpdateParticipant(ctx context.Context, p *game.Participant) error {
	return s.run(func(t *tx) error { return t.UpdateParticipant(ctx, p) })
}

func (s *Store) ResetReady(ctx context.Context, gameID string) error {
	return s.run(func(t *tx) error { return t.ResetReady(ctx, gameID) })
}

func (s *Store) UpsertChoice(ctx context.Context, row *game.ChoiceRow) error {
	return s.run(func(t *tx) error { return t.UpsertChoice(ctx, row) })
}

func (s *Store) UpdateChoice(ctx context.Context, row *game.ChoiceRow) error {
	return s.run(func(t *tx) error { return t.UpdateChoice(ctx, row) })
}

func (s *Store) ListChoices(ctx context.Context, gameID string, round int) ([]*game.ChoiceRow, error) {
	var out []*game.ChoiceRow
	err := s.run(func(t *tx) error {
		var err error
		out, err = t.ListChoices(ctx, gameID, round)
		return err
	})
	return out, err
}

func (s *Store) ListChoicesByActor(ctx context.Context, gameID string, round int, actorID string) ([]*game.ChoiceRow, error) {
	var out []*game.ChoiceRow
	err := s.run(func(t *tx) error {
		var err error
		out, err = t.ListChoicesByActor(ctx, gameID, round, actorID)
		return err
	})
	return out, err
}

func (s *Store) ListResolvedByActor(ctx context.Context, gameID, actorID string, limit int) ([]*game.ChoiceRow, error) {
	var out []*game.ChoiceRow
	err := s.run(func(t *tx) error {
		var err error
		out, err = t.ListResolvedByActor(ctx, gameID, actorID, limit)
		return err
	})
	return out, err
}

// dataset is the mutable record state. Insertion order is tracked so lists
// come back in creation order, like the database's created_at ordering.
type dataset struct {
	games            map[string]*game.Game
	gameOrder        []string
	participants     map[string]*game.Participant
	participantOrder []string
	choices          map[string]*game.ChoiceRow
	choiceOrder      []string
	slots            map[slotKey]string // (game, round, actor, target) -> choice id
}

type slotKey struct {
	gameID   string
	round    int
	actorID  string
	targetID string
}

func newDataset() *dataset {
	return &dataset{
		games:        make(map[string]*game.Game),
		participants: make(map[string]*game.Participant),
		choices:      make(map[string]*game.ChoiceRow),
		slots:        make(map[slotKey]string),
	}
}

func (d *dataset) clone() *dataset {
	out := newDataset()
	for id, g := range d.games {
		out.games[id] = cloneGame(g)
	}
	out.gameOrder = append([]string(nil), d.gameOrder...)
	for id, p := range d.participants {
		out.participants[id] = cloneParticipant(p)
	}
	out.participantOrder = append([]string(nil), d.participantOrder...)
	for id, c := range d.choices {
		out.choices[id] = cloneChoice(c)
	}
	out.choiceOrder = append([]string(nil), d.choiceOrder...)
	for k, v := range d.slots {
		out.slots[k] = v
	}
	return out
}

// tx implements game.Store directly on a dataset; the surrounding Store
// holds the lock.
type tx struct {
	d *dataset
}

func (t *tx) Atomic(ctx context.Context, fn func(game.Store) error) error {
	// Already inside a transaction; nesting joins it.
	return fn(t)
}

func (t *tx) CreateGame(ctx context.Context, g *game.Game) error {
	if _, ok := t.d.games[g.ID]; ok {
		return game.Conflictf("game %s already exists", g.ID)
	}
	t.d.games[g.ID] = cloneGame(g)
	t.d.gameOrder = append(t.d.gameOrder, g.ID)
	return nil
}

func (t *tx) GetGame(ctx context.Context, id string, forUpdate bool) (*game.Game, error) {
	g, ok := t.d.games[id]
	if !ok {
		return nil, game.NotFoundf("game %s not found", id)
	}
	return cloneGame(g), nil
}

func (t *tx) UpdateGame(ctx context.Context, g *game.Game) error {
	cur, ok := t.d.games[g.ID]
	if !ok {
		return game.NotFoundf("game %s not found", g.ID)
	}
	cur.Stage = g.Stage
	cur.CurrentRound = g.CurrentRound
	cur.ParticipantCount = g.ParticipantCount
	return nil
}

func (t *tx) ListGames(ctx context.Context) ([]*game.Game, error) {
	out := make([]*game.Game, 0, len(t.d.gameOrder))
	for _, id := range t.d.gameOrder {
		out = append(out, cloneGame(t.d.games[id]))
	}
	return out, nil
}

func (t *tx) CreateParticipant(ctx context.Context, p *game.Participant) error {
	if _, ok := t.d.participants[p.ID]; ok {
		return game.Conflictf("participant %s already exists", p.ID)
	}
	t.d.participants[p.ID] = cloneParticipant(p)
	t.d.participantOrder = append(t.d.participantOrder, p.ID)
	return nil
}

func (t *tx) GetParticipant(ctx context.Context, id string) (*game.Participant, error) {
	p, ok := t.d.participants[id]
	if !ok {
		return nil, game.NotFoundf("participant %s not found", id)
	}
	return cloneParticipant(p), nil
}

func (t *tx) ListParticipants(ctx context.Context, gameID string) ([]*game.Participant, error) {
	out := []*game.Participant{}
	for _, id := range t.d.participantOrder {
		if p := t.d.participants[id]; p.GameID == gameID {
			out = append(out, cloneParticipant(p))
		}
	}
	return out, nil
}

func (t *tx) UpdateParticipant(ctx context.Context, p *game.Participant) error {
	cur, ok := t.d.participants[p.ID]
	if !ok {
		return game.NotFoundf("participant %s not found", p.ID)
	}
	cur.TotalScore = p.TotalScore
	cur.ScoreHistory = append([]int(nil), p.ScoreHistory...)
	cur.Ready = p.Ready
	return nil
}

func (t *tx) ResetReady(ctx context.Context, gameID string) error {
	for _, p := range t.d.participants {
		if p.GameID == gameID {
			p.Ready = false
		}
	}
	return nil
}

func (t *tx) UpsertChoice(ctx context.Context, row *game.ChoiceRow) error {
	key := slotKey{row.GameID, row.Round, row.ActorID, row.TargetID}
	if id, ok := t.d.slots[key]; ok {
		t.d.choices[id].Intended = row.Intended
		return nil
	}
	t.d.choices[row.ID] = cloneChoice(row)
	t.d.choiceOrder = append(t.d.choiceOrder, row.ID)
	t.d.slots[key] = row.ID
	return nil
}

func (t *tx) UpdateChoice(ctx context.Context, row *game.ChoiceRow) error {
	key := slotKey{row.GameID, row.Round, row.ActorID, row.TargetID}
	id, ok := t.d.slots[key]
	if !ok {
		return game.NotFoundf("choice %s not found", row.ID)
	}
	cur := t.d.choices[id]
	cur.Applied = cloneChoiceValue(row.Applied)
	cur.CounterpartApplied = cloneChoiceValue(row.CounterpartApplied)
	cur.Points = cloneInt(row.Points)
	return nil
}

func (t *tx) ListChoices(ctx context.Context, gameID string, round int) ([]*game.ChoiceRow, error) {
	out := []*game.ChoiceRow{}
	for _, id := range t.d.choiceOrder {
		if c := t.d.choices[id]; c.GameID == gameID && c.Round == round {
			out = append(out, cloneChoice(c))
		}
	}
	return out, nil
}

func (t *tx) ListChoicesByActor(ctx context.Context, gameID string, round int, actorID string) ([]*game.ChoiceRow, error) {
	out := []*game.ChoiceRow{}
	for _, id := range t.d.choiceOrder {
		if c := t.d.choices[id]; c.GameID == gameID && c.Round == round && c.ActorID == actorID {
			out = append(out, cloneChoice(c))
		}
	}
	return out, nil
}

func (t *tx) ListResolvedByActor(ctx context.Context, gameID, actorID string, limit int) ([]*game.ChoiceRow, error) {
	if limit == 0 {
		return []*game.ChoiceRow{}, nil
	}
	out := []*game.ChoiceRow{}
	for _, id := range t.d.choiceOrder {
		if c := t.d.choices[id]; c.GameID == gameID && c.ActorID == actorID && c.Resolved() {
			out = append(out, cloneChoice(c))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Round < out[j].Round })
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func cloneGame(g *game.Game) *game.Game {
	out := *g
	out.PayoffMatrix = make(game.PayoffMatrix, len(g.PayoffMatrix))
	for own, row := range g.PayoffMatrix {
		cols := make(map[game.Choice]int, len(row))
		for opp, points := range row {
			cols[opp] = points
		}
		out.PayoffMatrix[own] = cols
	}
	return &out
}

func cloneParticipant(p *game.Participant) *game.Participant {
	out := *p
	out.ScoreHistory = append([]int(nil), p.ScoreHistory...)
	return &out
}

func cloneChoice(c *game.ChoiceRow) *game.ChoiceRow {
	out := *c
	out.Applied = cloneChoiceValue(c.Applied)
	out.CounterpartApplied = cloneChoiceValue(c.CounterpartApplied)
	out.Points = cloneInt(c.Points)
	return &out
}

func cloneChoiceValue(c *game.Choice) *game.Choice {
	if c == nil {
		return nil
	}
	v := *c
	return &v
}

func cloneInt(n *int) *int {
	if n == nil {
		return nil
	}
	v := *n
	return &v
}
