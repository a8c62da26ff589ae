package server

import (
	"net/http"
	"time"

	"github.com/streettag/api/internal/streettag"
)

type TagRequest struct {
	TargetID string `json:"targetId"`
}

type TagResponse struct {
	Tag  streettag.Tag   `json:"tag"`
	Game *streettag.Game `json:"game"`
}

func handleTag(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := requireLive(d, w, r)
		if !ok {
			return
		}
		var req TagRequest
		if err := readJSON(r, &req); err != nil || req.TargetID == "" {
			writeError(w, http.StatusBadRequest, "targetId is required")
			return
		}

		ps := sessionFrom(r)
		game, tag, events, err := sess.AttemptTag(ps.UserID, req.TargetID, time.Now())
		d.afterEvents(r.Context(), sess, events)
		if err != nil {
			writeEngineError(w, err)
			return
		}

		d.recordTag(r.Context(), game, tag)

		writeJSON(w, http.StatusOK, TagResponse{Tag: tag, Game: game})
	}
}
