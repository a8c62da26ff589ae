package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type ctxKey int

const ctxKeySession ctxKey = iota

// requireSession resolves the bearer token to a live player session
// and checks it belongs to the game in the URL.
func (d *Deps) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := d.playerFromRequest(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing session token")
			return
		}
		if gameID := chi.URLParam(r, "gameID"); gameID != "" && gameID != sess.GameID {
			writeError(w, http.StatusForbidden, "session does not belong to this game")
			return
		}
		ctx := context.WithValue(r.Context(), ctxKeySession, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFrom(r *http.Request) playerSession {
	return r.Context().Value(ctxKeySession).(playerSession)
}
