package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"peacewar/internal/game"
)

// Handler contains dependencies for HTTP handlers. It only translates
// HTTP to service calls; authentication happens upstream and arrives as the
// X-User-ID header (empty for guests).
type Handler struct {
	Svc *game.Service
}

// NewHandler creates a new handler instance.
func NewHandler(svc *game.Service) *Handler {
	return &Handler{Svc: svc}
}

// Register attaches all routes to the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /games", h.HandleCreateGame)
	mux.HandleFunc("GET /games", h.HandleListGames)
	mux.HandleFunc("GET /games/{gameID}", h.HandleGameState)
	mux.HandleFunc("POST /games/{gameID}/join", h.HandleJoin)
	mux.HandleFunc("POST /games/{gameID}/start", h.HandleStart)
	mux.HandleFunc("GET /games/{gameID}/resolve-status", h.HandleResolveStatus)
	mux.HandleFunc("POST /games/{gameID}/participants/{participantID}/choice", h.HandleChoice)
	mux.HandleFunc("POST /games/{gameID}/participants/{participantID}/submit", h.HandleSubmit)
	mux.HandleFunc("GET /games/{gameID}/participants/{participantID}/history", h.HandleHistory)
	mux.HandleFunc("GET /games/{gameID}/participants/{participantID}/choices", h.HandleActiveChoices)
}

func callerUser(r *http.Request) string {
	return r.Header.Get("X-User-ID")
}

type createGameRequest struct {
	PayoffMatrix    game.PayoffMatrix `json:"payoffMatrix"`
	ErrorChance     float64           `json:"errorChance"`
	MaxRounds       int               `json:"maxRounds"`
	MaxParticipants int               `json:"maxParticipants"`
	HistoryLimit    *int              `json:"historyLimit"`
	HostName        string            `json:"hostName"`
}

// HandleCreateGame creates a game plus its host participant.
func (h *Handler) HandleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": map[string]any{"kind": "BAD_REQUEST", "message": "bad json"}})
		return
	}
	created, err := h.Svc.CreateGame(r.Context(), game.Config{
		PayoffMatrix:    req.PayoffMatrix,
		ErrorChance:     req.ErrorChance,
		MaxRounds:       req.MaxRounds,
		MaxParticipants: req.MaxParticipants,
		HistoryLimit:    req.HistoryLimit,
	}, callerUser(r), req.HostName)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]any{"ok": true, "data": map[string]any{
		"gameId":        created.GameID,
		"participantId": created.HostParticipantID,
	}})
}

// HandleListGames lists all games.
func (h *Handler) HandleListGames(w http.ResponseWriter, r *http.Request) {
	games, err := h.Svc.ListGames(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	views := make([]gameView, 0, len(games))
	for _, g := range games {
		views = append(views, newGameView(g))
	}
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "data": views})
}

// HandleGameState returns the game and its participants.
func (h *Handler) HandleGameState(w http.ResponseWriter, r *http.Request) {
	state, err := h.Svc.GameState(r.Context(), r.PathValue("gameID"))
	if err != nil {
		WriteError(w, err)
		return
	}
	participants := make([]participantView, 0, len(state.Participants))
	for _, p := range state.Participants {
		participants = append(participants, newParticipantView(p))
	}
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "data": map[string]any{
		"game":         newGameView(state.Game),
		"participants": participants,
	}})
}

type joinRequest struct {
	DisplayName string `json:"displayName"`
}

// HandleJoin adds the caller to a pending game.
func (h *Handler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": map[string]any{"kind": "BAD_REQUEST", "message": "bad json"}})
		return
	}
	participantID, err := h.Svc.JoinGame(r.Context(), r.PathValue("gameID"), callerUser(r), req.DisplayName)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]any{"ok": true, "data": map[string]any{"participantId": participantID}})
}

type startRequest struct {
	ParticipantID string `json:"participantId"`
}

// HandleStart starts a pending game; host only.
func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": map[string]any{"kind": "BAD_REQUEST", "message": "bad json"}})
		return
	}
	if err := h.Svc.StartGame(r.Context(), r.PathValue("gameID"), req.ParticipantID, callerUser(r)); err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true})
}

type choiceRequest struct {
	TargetID string `json:"targetId"`
	Choice   string `json:"choice"`
}

// HandleChoice records the participant's intended choice against a target
// for the current round.
func (h *Handler) HandleChoice(w http.ResponseWriter, r *http.Request) {
	var req choiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": map[string]any{"kind": "BAD_REQUEST", "message": "bad json"}})
		return
	}
	err := h.Svc.SubmitChoice(r.Context(), r.PathValue("gameID"), r.PathValue("participantID"),
		req.TargetID, game.Choice(req.Choice), callerUser(r))
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// HandleSubmit marks the participant ready. When that was the last
// participant, the round resolves before this returns.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	err := h.Svc.MarkReady(r.Context(), r.PathValue("gameID"), r.PathValue("participantID"), callerUser(r))
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// HandleHistory returns the participant's resolved rounds, owner-only.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			WriteJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": map[string]any{"kind": "BAD_REQUEST", "message": "bad limit"}})
			return
		}
		limit = n
	}
	entries, err := h.Svc.ParticipantHistory(r.Context(), r.PathValue("gameID"), r.PathValue("participantID"), limit, callerUser(r))
	if err != nil {
		WriteError(w, err)
		return
	}
	views := make([]historyEntryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, newHistoryEntryView(e))
	}
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "data": views})
}

// HandleActiveChoices returns the participant's intended choices for the
// current round, owner-only.
func (h *Handler) HandleActiveChoices(w http.ResponseWriter, r *http.Request) {
	choices, err := h.Svc.ActiveChoices(r.Context(), r.PathValue("gameID"), r.PathValue("participantID"), callerUser(r))
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "data": choices})
}

// HandleResolveStatus reports whether a round has been resolved yet, for
// polling clients.
func (h *Handler) HandleResolveStatus(w http.ResponseWriter, r *http.Request) {
	round, err := strconv.Atoi(r.URL.Query().Get("round"))
	if err != nil {
		WriteJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": map[string]any{"kind": "BAD_REQUEST", "message": "bad round"}})
		return
	}
	resolved, err := h.Svc.RoundResolved(r.Context(), r.PathValue("gameID"), round)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "data": map[string]any{"resolved": resolved}})
}
