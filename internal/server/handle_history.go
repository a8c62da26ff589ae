package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/streettag/api/internal/store"
)

// handleGameHistory serves the retained record of an ended game for
// replay: roster, final survivals and the full tag ledger.
func handleGameHistory(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID := chi.URLParam(r, "gameID")
		g, err := d.Store.GameHistory(r.Context(), gameID)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "game not found")
			return
		}
		if err != nil {
			d.Logger.Error("loading game history", "game", gameID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, GameResponse{Game: g})
	}
}
