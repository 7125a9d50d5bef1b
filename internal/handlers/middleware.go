package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"peacewar/internal/game"
	"peacewar/internal/logging"
)

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps a core error to an HTTP status and a structured body.
// Anything that is not a core error becomes an opaque 500; storage details
// never reach the client.
func WriteError(w http.ResponseWriter, err error) {
	var coreErr *game.Error
	if !errors.As(err, &coreErr) {
		logging.Errorf("internal error: %v", err)
		WriteJSON(w, http.StatusInternalServerError, map[string]any{
			"ok":    false,
			"error": map[string]any{"kind": "INTERNAL", "message": "internal error"},
		})
		return
	}
	WriteJSON(w, statusFor(coreErr.Kind), map[string]any{
		"ok":    false,
		"error": map[string]any{"kind": string(coreErr.Kind), "message": coreErr.Message},
	})
}

func statusFor(kind game.Kind) int {
	switch kind {
	case game.KindNotFound:
		return http.StatusNotFound
	case game.KindForbidden:
		return http.StatusForbidden
	case game.KindInvalidState, game.KindConflict:
		return http.StatusConflict
	case game.KindNoData:
		return http.StatusUnprocessableEntity
	case game.KindValidation:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
